package control

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"zjhooks/internal/config"
	"zjhooks/internal/doctor"
	"zjhooks/internal/event"
	"zjhooks/internal/hook"
	"zjhooks/internal/report"

	"github.com/spf13/cobra"
)

// NewStatusCmd queries daemon status.
func NewStatusCmd(cfgPath *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show daemon status, loaded hooks and recent dispatches",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*cfgPath)
			if err != nil {
				return err
			}
			var status Status
			if err := Call(cfg.Paths.SocketPath, Request{Op: OpStatus}, &status); err != nil {
				return err
			}
			jsonOut, _ := cmd.Flags().GetBool("json")
			if jsonOut {
				return json.NewEncoder(cmd.OutOrStdout()).Encode(status)
			}
			printStatus(report.New(cmd.OutOrStdout()), cmd.OutOrStdout(), status)
			return nil
		},
	}
	cmd.Flags().Bool("json", false, "output JSON")
	return cmd
}

func printStatus(p *report.Printer, w io.Writer, st Status) {
	fmt.Fprintf(w, "running: %v\nuptime: %.1fs\nconfig: %s\n", st.Running, st.UptimeSec, st.ConfigPath)
	c := st.Counters
	fmt.Fprintf(w, "events: %d matched: %d suppressed: %d dropped: %d reloads: %d started: %d failed: %d\n\n",
		c.Events, c.Matched, c.Suppressed, c.Dropped, c.Reloads, c.Started, c.Failed)
	if st.ConfigError != "" {
		p.Error(errors.New("hooks disabled: " + st.ConfigError))
		fmt.Fprintln(w)
	}
	p.Hooks(RowsFromInfo(st.Hooks))
	if len(st.Recent) == 0 {
		return
	}
	fmt.Fprintln(w, "\nrecent:")
	for _, d := range st.Recent {
		fmt.Fprintf(w, "%s  %-7s %s\n", d.Timestamp.Format("15:04:05"), d.Kind, report.FormatArgv(d.Argv))
	}
}

// RowsFromInfo converts the wire hook list to report rows.
func RowsFromInfo(infos []HookInfo) []report.Row {
	rows := make([]report.Row, 0, len(infos))
	for _, h := range infos {
		rows = append(rows, report.Row{Name: h.Name, Event: h.Event, Command: h.Command})
	}
	return rows
}

// RowsFromHooks converts parsed hooks to report rows.
func RowsFromHooks(hooks []hook.Hook) []report.Row {
	rows := make([]report.Row, 0, len(hooks))
	for _, h := range hooks {
		rows = append(rows, report.Row{Name: h.Name(), Event: h.Kind().String(), Command: h.Command()})
	}
	return rows
}

// NewCheckCmd parses the plugin table without a daemon and reports the first
// configuration error, or the resulting hooks.
func NewCheckCmd(cfgPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Validate hook configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*cfgPath)
			if err != nil {
				return err
			}
			return checkPlugin(report.New(cmd.OutOrStdout()), cfg)
		},
	}
}

func checkPlugin(p *report.Printer, cfg *config.Config) error {
	parsed, err := hook.ParseConfig(cfg.Plugin)
	if err != nil {
		p.Error(err)
		return fmt.Errorf("%s: invalid hook configuration", cfg.Paths.ConfigPath)
	}
	p.Hooks(RowsFromHooks(parsed.Hooks()))
	p.OK("%d hooks valid", parsed.Len())
	return nil
}

// NewHooksCmd edits the plugin table of the config file.
func NewHooksCmd(cfgPath *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "hooks",
		Short: "List, add or remove hooks in the config file",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List configured hooks",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*cfgPath)
			if err != nil {
				return err
			}
			return checkPlugin(report.New(cmd.OutOrStdout()), cfg)
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "add <name> <event> <command>",
		Short: "Add or replace a hook",
		Example: `  zjhooks hooks add locked mode 'notify-send "mode: {{mode}}"'
  zjhooks hooks add title tab 'wmctrl -r :ACTIVE: -T {{active_tab_name}}'`,
		Args: cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			name, eventName, command := args[0], args[1], args[2]
			if name == "" || strings.ContainsAny(name, " \t") {
				return fmt.Errorf("invalid hook name %q", name)
			}
			if _, ok := event.ParseKind(eventName); !ok {
				return fmt.Errorf("unknown event %q (want one of %s)", eventName, strings.Join(event.KindNames(), ", "))
			}
			if len(hook.Tokenize(command)) == 0 {
				return fmt.Errorf("command for hook %q is empty", name)
			}
			cfg, err := config.Load(*cfgPath)
			if err != nil {
				return err
			}
			cfg.SetHook(name, eventName, command)
			if err := config.Save(cfg, cfg.Paths.ConfigPath); err != nil {
				return err
			}
			report.New(cmd.OutOrStdout()).OK("hook %q saved to %s", name, cfg.Paths.ConfigPath)
			return nil
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "remove <name>",
		Short: "Remove a hook",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*cfgPath)
			if err != nil {
				return err
			}
			if !cfg.RemoveHook(args[0]) {
				return fmt.Errorf("no hook named %q", args[0])
			}
			if err := config.Save(cfg, cfg.Paths.ConfigPath); err != nil {
				return err
			}
			report.New(cmd.OutOrStdout()).OK("hook %q removed", args[0])
			return nil
		},
	})
	return cmd
}

// NewTailLogCmd prints the last lines of the daemon log.
func NewTailLogCmd(cfgPath *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tail-log",
		Short: "Show last log lines",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*cfgPath)
			if err != nil {
				return err
			}
			n, _ := cmd.Flags().GetInt("lines")
			return tailFile(cmd.OutOrStdout(), cfg.Paths.LogPath, n)
		},
	}
	cmd.Flags().IntP("lines", "n", 50, "number of lines")
	return cmd
}

func tailFile(w io.Writer, path string, n int) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	lines := strings.Split(strings.TrimRight(string(data), "\n"), "\n")
	if n > 0 && len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	for _, l := range lines {
		if strings.TrimSpace(l) != "" {
			fmt.Fprintln(w, l)
		}
	}
	return nil
}

// NewDoctorCmd runs environment checks.
func NewDoctorCmd(cfgPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Check config, hook programs and state paths",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*cfgPath)
			if err != nil {
				return err
			}
			failed := false
			for _, r := range doctor.Run(cfg) {
				status := "ok"
				if !r.Pass {
					status = "fail"
					failed = true
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%-20s %-4s %s\n", r.Name, status, r.Detail)
			}
			if failed {
				return fmt.Errorf("doctor found issues")
			}
			return nil
		},
	}
}

// NewServiceCmd manages the systemd user unit.
func NewServiceCmd(cfgPath *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "service",
		Short: "Manage systemd user service",
	}
	cmd.AddCommand(newServiceInstallCmd(cfgPath))
	cmd.AddCommand(newServiceUninstallCmd())
	cmd.AddCommand(newServiceStatusCmd())
	return cmd
}
