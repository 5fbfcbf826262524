// Package spawn starts hook commands as detached child processes.
package spawn

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"zjhooks/internal/config"

	"github.com/google/shlex"
	"github.com/sirupsen/logrus"
)

// Stats counts process outcomes since the runner was created.
type Stats struct {
	Started int64
	Failed  int64
	Exited  int64
	NonZero int64
}

// ProcessRunner implements hook.Runner with os/exec. Run returns as soon as
// the process has started; a goroutine reaps it and logs its output.
type ProcessRunner struct {
	logger  logrus.FieldLogger
	wrapper []string
	dir     string
	env     map[string]string
	dryRun  bool

	started atomic.Int64
	failed  atomic.Int64
	exited  atomic.Int64
	nonZero atomic.Int64

	wg sync.WaitGroup
}

// NewProcessRunner builds a runner from the [exec] config section.
func NewProcessRunner(cfg *config.Config, logger logrus.FieldLogger) (*ProcessRunner, error) {
	wrapper, err := ParseArgs(cfg.Exec.Wrapper)
	if err != nil {
		return nil, fmt.Errorf("exec.wrapper: %w", err)
	}
	env := make(map[string]string, len(cfg.Exec.Env))
	for k, v := range cfg.Exec.Env {
		env[k] = v
	}
	return &ProcessRunner{
		logger:  logger,
		wrapper: wrapper,
		dir:     os.ExpandEnv(cfg.Exec.Dir),
		env:     env,
		dryRun:  cfg.Exec.DryRun,
	}, nil
}

// ParseArgs splits a wrapper string with shell quoting rules.
func ParseArgs(raw string) ([]string, error) {
	if strings.TrimSpace(raw) == "" {
		return []string{}, nil
	}
	return shlex.Split(raw)
}

// Argv returns the full argument vector Run would start for argv.
func (r *ProcessRunner) Argv(argv []string) []string {
	out := make([]string, 0, len(r.wrapper)+len(argv))
	out = append(out, r.wrapper...)
	return append(out, argv...)
}

// Run starts argv with env layered over the runner's environment.
func (r *ProcessRunner) Run(argv []string, env map[string]string) {
	full := r.Argv(argv)
	if len(full) == 0 {
		r.failed.Add(1)
		r.logger.Warn("empty command; nothing to run")
		return
	}
	log := r.logger.WithField("argv", full)
	if r.dryRun {
		log.Info("dry-run: command not started")
		return
	}

	cmd := exec.Command(full[0], full[1:]...)
	cmd.Dir = r.dir
	cmd.Env = r.environ(env)
	var out bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &out

	if err := cmd.Start(); err != nil {
		r.failed.Add(1)
		log.WithError(err).Error("command failed to start")
		return
	}
	r.started.Add(1)
	log.WithField("pid", cmd.Process.Pid).Debug("command started")

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		err := cmd.Wait()
		r.exited.Add(1)
		if s := strings.TrimSpace(out.String()); s != "" {
			log.Infof("command output: %s", s)
		}
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			r.nonZero.Add(1)
			log.Warnf("command exited with code %d", exitErr.ExitCode())
		} else if err != nil {
			log.WithError(err).Warn("command wait failed")
		}
	}()
}

// Wait blocks until every started process has been reaped.
func (r *ProcessRunner) Wait() {
	r.wg.Wait()
}

// WaitTimeout waits at most d for started processes to exit. It reports
// whether all of them did; the rest keep running unattended.
func (r *ProcessRunner) WaitTimeout(d time.Duration) bool {
	done := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(done)
	}()
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-done:
		return true
	case <-timer.C:
		return false
	}
}

// Running is the number of started processes not yet reaped.
func (r *ProcessRunner) Running() int64 {
	return r.started.Load() - r.exited.Load()
}

// Stats returns a snapshot of the counters.
func (r *ProcessRunner) Stats() Stats {
	return Stats{
		Started: r.started.Load(),
		Failed:  r.failed.Load(),
		Exited:  r.exited.Load(),
		NonZero: r.nonZero.Load(),
	}
}

func (r *ProcessRunner) environ(extra map[string]string) []string {
	env := os.Environ()
	env = append(env, sortedPairs(r.env)...)
	return append(env, sortedPairs(extra)...)
}

func sortedPairs(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]string, 0, len(keys))
	for _, k := range keys {
		out = append(out, fmt.Sprintf("%s=%s", k, m[k]))
	}
	return out
}
