package control

import (
	"fmt"
	"os"
	"strings"

	"zjhooks/internal/config"
	"zjhooks/internal/service"

	"github.com/spf13/cobra"
)

func newServiceInstallCmd(cfgPath *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "install",
		Short: "Install systemd user unit",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*cfgPath)
			if err != nil {
				return err
			}
			exe, err := os.Executable()
			if err != nil {
				return err
			}
			envPairs, _ := cmd.Flags().GetStringArray("env")
			env, err := parseEnvPairs(envPairs)
			if err != nil {
				return err
			}
			path, err := service.WriteUnit(service.UnitParams{
				Name:   service.DefaultUnit,
				Binary: exe,
				Config: cfg.Paths.ConfigPath,
				Env:    env,
			})
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "systemd unit written: %s\n", path)
			fmt.Fprintln(out, "Enable: systemctl --user daemon-reload && systemctl --user enable --now", service.DefaultUnit)
			fmt.Fprintln(out, "Reload: systemctl --user reload", service.DefaultUnit)
			fmt.Fprintln(out, "Stop:   systemctl --user stop", service.DefaultUnit)
			return nil
		},
	}
	cmd.Flags().StringArray("env", nil, "Env to set in the unit (KEY=VAL)")
	return cmd
}

func parseEnvPairs(pairs []string) (map[string]string, error) {
	env := make(map[string]string, len(pairs))
	for _, p := range pairs {
		k, v, ok := strings.Cut(p, "=")
		if !ok || k == "" {
			return nil, fmt.Errorf("bad env %q, want KEY=VAL", p)
		}
		env[k] = v
	}
	return env, nil
}

func newServiceUninstallCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "uninstall",
		Short: "Remove systemd user unit",
		RunE: func(cmd *cobra.Command, args []string) error {
			path := service.UnitPath(service.DefaultUnit)
			_ = os.Remove(path)
			fmt.Fprintf(cmd.OutOrStdout(), "removed %s (if present); stop it with: systemctl --user disable --now %s\n", path, service.DefaultUnit)
			return nil
		},
	}
}

func newServiceStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show unit path and whether it exists",
		RunE: func(cmd *cobra.Command, args []string) error {
			path, ok := service.Status(service.DefaultUnit)
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "unit: %s\n", path)
			if ok {
				fmt.Fprintln(out, "status: present (enable with: systemctl --user enable --now", service.DefaultUnit+")")
			} else {
				fmt.Fprintln(out, "status: missing (install via: zjhooks service install)")
			}
			return nil
		},
	}
}
