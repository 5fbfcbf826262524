package daemon

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"zjhooks/internal/config"
	"zjhooks/internal/control"
	"zjhooks/internal/logging"
	"zjhooks/internal/run"

	"github.com/gofrs/flock"
	"github.com/spf13/cobra"
)

const (
	startTimeout = 2 * time.Second
	stopTimeout  = 5 * time.Second
	pollInterval = 100 * time.Millisecond
)

// NewStartCmd launches `serve` as a detached child and waits until its
// control socket answers.
func NewStartCmd(cfgPath *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "start",
		Short: "Start zjhooks daemon",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*cfgPath)
			if err != nil {
				return err
			}
			if err := ensureNotRunning(cfg); err != nil {
				return err
			}
			self, err := os.Executable()
			if err != nil {
				return err
			}
			child := exec.Command(self, "serve", "--config", cfg.Paths.ConfigPath)
			child.Env = append(os.Environ(), serveEnv(cmd)...)
			child.Stdout = os.Stdout
			child.Stderr = os.Stderr
			if err := child.Start(); err != nil {
				return err
			}
			pid := child.Process.Pid
			if err := child.Process.Release(); err != nil {
				return err
			}
			if err := waitHealthy(cfg, startTimeout); err != nil {
				return fmt.Errorf("started pid %d but %w", pid, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "zjhooks started (pid %d)\n", pid)
			return nil
		},
	}
	cmd.Flags().Bool("dry-run", false, "log commands instead of running them for this run")
	cmd.Flags().String("metrics-addr", "", "enable metrics at address (e.g., 127.0.0.1:9318) for this run")
	return cmd
}

// serveEnv turns start flags into the env overrides read by config.Load in
// the child.
func serveEnv(cmd *cobra.Command) []string {
	var env []string
	if dry, _ := cmd.Flags().GetBool("dry-run"); dry {
		env = append(env, "ZJHOOKS_DRY_RUN=1")
	}
	if addr, _ := cmd.Flags().GetString("metrics-addr"); addr != "" {
		env = append(env, "ZJHOOKS_METRICS_ADDR="+addr)
	}
	return env
}

// NewServeCmd runs the daemon in the foreground (used by start and the systemd unit).
func NewServeCmd(cfgPath *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run zjhooks daemon in the foreground",
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, kv := range serveEnv(cmd) {
				k, v, _ := strings.Cut(kv, "=")
				if err := os.Setenv(k, v); err != nil {
					return fmt.Errorf("set %s: %w", k, err)
				}
			}
			cfg, err := config.Load(*cfgPath)
			if err != nil {
				return err
			}
			if stdout, _ := cmd.Flags().GetBool("stdout"); stdout {
				cfg.Logging.Stdout = true
			}
			logger, err := logging.Configure(cfg)
			if err != nil {
				return err
			}
			return run.Serve(cfg, logger)
		},
	}
	cmd.Flags().Bool("dry-run", false, "log commands instead of running them")
	cmd.Flags().String("metrics-addr", "", "enable metrics at address (e.g., 127.0.0.1:9318)")
	cmd.Flags().Bool("stdout", false, "mirror log output to stdout")
	return cmd
}

// NewStopCmd stops the daemon.
func NewStopCmd(cfgPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "stop",
		Short: "Stop zjhooks daemon",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*cfgPath)
			if err != nil {
				return err
			}
			msg, err := stopDaemon(cfg)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), msg)
			return nil
		},
	}
}

// stopDaemon asks the daemon to stop over the control socket. When the socket
// does not answer it signals the pid recorded in the pid file.
func stopDaemon(cfg *config.Config) (string, error) {
	resp, err := control.CallSimple(cfg.Paths.SocketPath, control.Request{Op: control.OpStop})
	if err == nil {
		return resp.Message, nil
	}
	if !isRunning(cfg) {
		return "", fmt.Errorf("zjhooks is not running")
	}
	pid, perr := readPID(cfg.Paths.PidPath)
	if perr != nil {
		return "", fmt.Errorf("control socket: %v; pid file: %w", err, perr)
	}
	proc, perr := os.FindProcess(pid)
	if perr != nil {
		return "", perr
	}
	if perr := proc.Signal(syscall.SIGTERM); perr != nil {
		return "", perr
	}
	return fmt.Sprintf("sent SIGTERM to pid %d", pid), nil
}

// NewRestartCmd stops then starts.
func NewRestartCmd(cfgPath *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "restart",
		Short: "Restart zjhooks daemon",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*cfgPath)
			if err != nil {
				return err
			}
			if isRunning(cfg) {
				if _, err := stopDaemon(cfg); err != nil {
					return err
				}
				if err := waitForShutdown(cfg, stopTimeout); err != nil {
					return err
				}
			}
			startCmd := NewStartCmd(cfgPath)
			startCmd.SetOut(cmd.OutOrStdout())
			if err := startCmd.ParseFlags(flagArgs(cmd)); err != nil {
				return err
			}
			return startCmd.RunE(startCmd, args)
		},
	}
	cmd.Flags().Bool("dry-run", false, "log commands instead of running them for this run")
	cmd.Flags().String("metrics-addr", "", "enable metrics at address (e.g., 127.0.0.1:9318) for this run")
	return cmd
}

func flagArgs(cmd *cobra.Command) []string {
	var out []string
	if dry, _ := cmd.Flags().GetBool("dry-run"); dry {
		out = append(out, "--dry-run")
	}
	if addr, _ := cmd.Flags().GetString("metrics-addr"); addr != "" {
		out = append(out, "--metrics-addr", addr)
	}
	return out
}

// isRunning reports whether some process holds the daemon's instance lock.
func isRunning(cfg *config.Config) bool {
	if err := os.MkdirAll(filepath.Dir(cfg.Paths.LockPath), 0o755); err != nil {
		return false
	}
	lock := flock.New(cfg.Paths.LockPath)
	locked, err := lock.TryLock()
	if err != nil {
		return false
	}
	if locked {
		_ = lock.Unlock()
		return false
	}
	return true
}

func ensureNotRunning(cfg *config.Config) error {
	if !isRunning(cfg) {
		return nil
	}
	if pid, err := readPID(cfg.Paths.PidPath); err == nil {
		return fmt.Errorf("already running with pid %d", pid)
	}
	return fmt.Errorf("already running (%s is locked)", cfg.Paths.LockPath)
}

func readPID(path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	var pid int
	if _, err := fmt.Sscanf(string(data), "%d", &pid); err != nil {
		return 0, err
	}
	return pid, nil
}

// waitForShutdown polls until the instance lock is free.
func waitForShutdown(cfg *config.Config, timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if !isRunning(cfg) {
			return nil
		}
		time.Sleep(pollInterval)
	}
	return fmt.Errorf("daemon did not stop within %s", timeout)
}

// waitHealthy polls the control socket until the daemon answers a health ping.
func waitHealthy(cfg *config.Config, timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	var err error
	for time.Now().Before(deadline) {
		if _, err = control.CallSimple(cfg.Paths.SocketPath, control.Request{Op: control.OpHealth}); err == nil {
			return nil
		}
		time.Sleep(pollInterval)
	}
	return fmt.Errorf("daemon not healthy after %s: %w", timeout, err)
}
