package main

import (
	"fmt"
	"os"

	"zjhooks/internal/config"
	"zjhooks/internal/hook"
)

func main() {
	path := ""
	if len(os.Args) > 1 {
		path = os.Args[1]
	}
	cfg, err := config.Load(path)
	if err != nil {
		panic(err)
	}
	fmt.Printf("config=%s keys=%d\n", cfg.Paths.ConfigPath, len(cfg.Plugin))
	for _, k := range cfg.PluginKeys() {
		fmt.Printf("  %s = %q\n", k, cfg.Plugin[k])
	}
	parsed, err := hook.ParseConfig(cfg.Plugin)
	if err != nil {
		fmt.Printf("error: %v\n", err)
		os.Exit(1)
	}
	for i, h := range parsed.Hooks() {
		fmt.Printf("hook %d name=%s event=%s argv=%q\n", i, h.Name(), h.Kind(), h.Command())
	}
}
