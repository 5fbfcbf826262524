package doctor

import (
	"fmt"
	"os"
	"os/exec"
	"strings"

	"zjhooks/internal/config"
	"zjhooks/internal/hook"
	"zjhooks/internal/spawn"
)

// Result represents a diagnostic check.
type Result struct {
	Name   string
	Pass   bool
	Detail string
}

// Run executes doctor checks.
func Run(cfg *config.Config) []Result {
	wrapper, wrapperResult := checkWrapper(cfg.Exec.Wrapper)
	results := []Result{
		checkFile("config path", cfg.Paths.ConfigPath),
		checkStateDir(cfg.Paths.StateDir),
		wrapperResult,
	}
	parsed, err := hook.ParseConfig(cfg.Plugin)
	if err != nil {
		return append(results, Result{Name: "hooks", Pass: false, Detail: err.Error()})
	}
	results = append(results, Result{Name: "hooks", Pass: true, Detail: fmt.Sprintf("%d configured", parsed.Len())})
	for _, h := range parsed.Hooks() {
		results = append(results, checkHook(h, wrapper))
	}
	return results
}

// checkHook resolves the program a hook starts. With an exec wrapper the
// wrapper is the program and the hook argv is only its arguments.
func checkHook(h hook.Hook, wrapper []string) Result {
	label := "hook " + h.Name()
	if len(wrapper) > 0 {
		return Result{Name: label, Pass: true, Detail: "run via exec.wrapper " + wrapper[0]}
	}
	return checkExecutable(label, h.Command()[0])
}

func checkFile(label, path string) Result {
	if path == "" {
		return Result{Name: label, Pass: false, Detail: "not set"}
	}
	if _, err := os.Stat(path); err != nil {
		return Result{Name: label, Pass: false, Detail: err.Error()}
	}
	return Result{Name: label, Pass: true, Detail: path}
}

func checkStateDir(dir string) Result {
	label := "state dir"
	if dir == "" {
		return Result{Name: label, Pass: false, Detail: "not set"}
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return Result{Name: label, Pass: false, Detail: err.Error()}
	}
	f, err := os.CreateTemp(dir, ".doctor-*")
	if err != nil {
		return Result{Name: label, Pass: false, Detail: "not writable: " + err.Error()}
	}
	name := f.Name()
	_ = f.Close()
	_ = os.Remove(name)
	return Result{Name: label, Pass: true, Detail: dir}
}

func checkWrapper(raw string) ([]string, Result) {
	label := "exec.wrapper"
	args, err := spawn.ParseArgs(raw)
	if err != nil {
		return nil, Result{Name: label, Pass: false, Detail: err.Error()}
	}
	if len(args) == 0 {
		return nil, Result{Name: label, Pass: true, Detail: "none"}
	}
	return args, checkExecutable(label, args[0])
}

// checkExecutable resolves program the way exec.Command does: explicit paths
// are stat'ed, bare names are looked up on PATH. Environment variables are not
// expanded; the process runner passes argv through untouched.
func checkExecutable(label, program string) Result {
	if program == "" {
		return Result{Name: label, Pass: false, Detail: "empty program"}
	}
	path := program
	if strings.Contains(path, "/") {
		info, err := os.Stat(path)
		if err != nil {
			return Result{Name: label, Pass: false, Detail: err.Error()}
		}
		if info.IsDir() {
			return Result{Name: label, Pass: false, Detail: path + " is a directory"}
		}
		if info.Mode().Perm()&0o111 == 0 {
			return Result{Name: label, Pass: false, Detail: path + " is not executable; chmod +x or choose another command"}
		}
		return Result{Name: label, Pass: true, Detail: path}
	}
	resolved, err := exec.LookPath(path)
	if err != nil {
		return Result{Name: label, Pass: false, Detail: err.Error()}
	}
	return Result{Name: label, Pass: true, Detail: resolved}
}
