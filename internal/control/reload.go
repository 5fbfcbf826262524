package control

import (
	"fmt"

	"zjhooks/internal/config"

	"github.com/spf13/cobra"
)

// NewReloadCmd asks the daemon to re-read its config and swap the hook set.
func NewReloadCmd(cfgPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "reload",
		Short: "Reload hooks in the running daemon",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*cfgPath)
			if err != nil {
				return err
			}
			resp, err := CallSimple(cfg.Paths.SocketPath, Request{Op: OpReload})
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "reload ok:", resp.Message)
			return nil
		},
	}
}

// NewHealthCmd pings the control socket.
func NewHealthCmd(cfgPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Ping the daemon control socket",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*cfgPath)
			if err != nil {
				return err
			}
			resp, err := CallSimple(cfg.Paths.SocketPath, Request{Op: OpHealth})
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), resp.Message)
			return nil
		},
	}
}
