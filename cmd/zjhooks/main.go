package main

import (
	"fmt"
	"os"

	"zjhooks/internal/control"
	"zjhooks/internal/daemon"

	"github.com/spf13/cobra"
)

const version = "0.1.0"

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	root := &cobra.Command{
		Use:   "zjhooks",
		Short: "Run shell commands on terminal workspace events",
		Long: `zjhooks receives session, tab, mode and pane updates from the terminal workspace
and runs the commands configured as hook_<name>_command / hook_<name>_event pairs,
filling in {{session_name}}, {{active_tab_name}}, {{active_tab_position}} and {{mode}}.

Key commands:
  start|stop|restart|serve  Daemon lifecycle
  status [--json]           Loaded hooks, config error, recent dispatches
  emit|pipe                 Feed events to the daemon or dispatch locally
  check|hooks               Validate and edit the hook table
  service install|uninstall|status   systemd user unit helper
  health|reload|tail-log|doctor      Liveness, reload, log tail, checks

Notable flags/env:
  --metrics-addr <addr>     Enable /metrics (Prometheus text)
  --dry-run                 Log commands instead of running them
  Env overrides: ZJHOOKS_LOG_LEVEL/FORMAT, ZJHOOKS_METRICS_ADDR,
                 ZJHOOKS_DRY_RUN, ZJHOOKS_WATCH_ENABLED`,
		Example: `  zjhooks start --metrics-addr 127.0.0.1:9318
  zjhooks hooks add locked mode 'notify-send "mode: {{mode}}"'
  zjhooks check
  zjhooks emit mode --mode Locked
  zjhooks service install --env ZJHOOKS_LOG_LEVEL=debug
  zjhooks status`,
		DisableFlagsInUseLine: true,
		SilenceUsage:          true,
	}

	root.Version = version
	root.SetVersionTemplate("zjhooks v{{.Version}}\n")

	cfgPath := root.PersistentFlags().StringP("config", "c", "", "Path to config file (TOML or YAML). Defaults to ~/.config/zjhooks/config.toml")
	root.CompletionOptions.DisableDefaultCmd = true

	root.AddCommand(daemon.NewStartCmd(cfgPath))
	root.AddCommand(daemon.NewStopCmd(cfgPath))
	root.AddCommand(daemon.NewRestartCmd(cfgPath))
	root.AddCommand(daemon.NewServeCmd(cfgPath))
	root.AddCommand(control.NewStatusCmd(cfgPath))
	root.AddCommand(control.NewHealthCmd(cfgPath))
	root.AddCommand(control.NewReloadCmd(cfgPath))
	root.AddCommand(control.NewEmitCmd(cfgPath))
	root.AddCommand(control.NewPipeCmd(cfgPath))
	root.AddCommand(control.NewCheckCmd(cfgPath))
	root.AddCommand(control.NewHooksCmd(cfgPath))
	root.AddCommand(control.NewTailLogCmd(cfgPath))
	root.AddCommand(control.NewDoctorCmd(cfgPath))
	root.AddCommand(control.NewServiceCmd(cfgPath))

	applyColorHelp(root)

	return root.Execute()
}

func applyColorHelp(root *cobra.Command) {
	const (
		boldBlue = "\033[1;34m"
		green    = "\033[32m"
		bold     = "\033[1m"
		dim      = "\033[2m"
		reset    = "\033[0m"
	)
	defaultHelp := root.HelpFunc()
	root.SetHelpFunc(func(cmd *cobra.Command, args []string) {
		if cmd != root {
			defaultHelp(cmd, args)
			return
		}
		out := cmd.OutOrStdout()
		write := func(format string, args ...any) { _, _ = fmt.Fprintf(out, format, args...) }
		writeln := func(line string) { _, _ = fmt.Fprintln(out, line) }

		write("%szjhooks%s: terminal workspace event hooks %s(v%s)%s\n", boldBlue, reset, dim, version, reset)
		write("%sRuns your commands when the session, tab, input mode or panes change.%s\n\n", dim, reset)

		write("%sUsage%s\n", bold, reset)
		write("  zjhooks [command] [flags]\n\n")

		write("%sKey commands%s\n", bold, reset)
		writeln("  start|stop|restart          daemon lifecycle (serve runs in foreground)")
		writeln("  status [--json]             hooks, config error, recent dispatches")
		writeln("  emit <kind> [--local]       send one event (mode/tab/session/pane)")
		writeln("  pipe [--daemon]             dispatch JSON events from stdin")
		writeln("  check                       validate the [plugin] hook table")
		writeln("  hooks list|add|remove       edit hooks in the config file")
		writeln("  service install|uninstall|status manage systemd user unit")
		writeln("  health|reload               control-socket ping / reload hooks")
		writeln("  tail-log|doctor             show last log lines / check environment")
		writeln("")

		write("%sNotable flags & env%s\n", bold, reset)
		writeln("  --metrics-addr <addr>   enable /metrics (Prometheus)")
		writeln("  --dry-run               log commands instead of running them")
		writeln("  -c, --config <path>     config file (default ~/.config/zjhooks/config.toml)")
		writeln("  Env: ZJHOOKS_METRICS_ADDR=host:port, ZJHOOKS_DRY_RUN=1,")
		writeln("       ZJHOOKS_LOG_LEVEL=debug, ZJHOOKS_LOG_FORMAT=json,")
		writeln("       ZJHOOKS_WATCH_ENABLED=0")
		writeln("")

		write("%sExamples%s\n", bold, reset)
		writeln("  zjhooks start --metrics-addr 127.0.0.1:9318")
		writeln("  zjhooks hooks add locked mode 'notify-send \"mode: {{mode}}\"'")
		writeln("  zjhooks check")
		writeln("  zjhooks emit mode --mode Locked")
		writeln("  echo '{\"kind\":\"mode\",\"mode\":\"Normal\"}' | zjhooks pipe")
		writeln("  zjhooks service install --env ZJHOOKS_LOG_LEVEL=debug")
		writeln("")

		write("%sCommands%s\n", bold, reset)
		for _, c := range cmd.Commands() {
			if c.Hidden {
				continue
			}
			write("  %s%-15s%s %s\n", green, c.Name(), reset, c.Short)
		}
	})
}
