package daemon

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"zjhooks/internal/config"

	"github.com/gofrs/flock"
)

func lockConfig(t *testing.T) *config.Config {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
	cfg, err := config.Default()
	if err != nil {
		t.Fatalf("default: %v", err)
	}
	dir := t.TempDir()
	cfg.Paths.LockPath = filepath.Join(dir, "zjhooks.lock")
	cfg.Paths.PidPath = filepath.Join(dir, "zjhooks.pid")
	cfg.Paths.SocketPath = filepath.Join(dir, "s.sock")
	return cfg
}

func holdLock(t *testing.T, cfg *config.Config) *flock.Flock {
	t.Helper()
	lock := flock.New(cfg.Paths.LockPath)
	locked, err := lock.TryLock()
	if err != nil || !locked {
		t.Fatalf("take lock: %v %v", locked, err)
	}
	t.Cleanup(func() { _ = lock.Unlock() })
	return lock
}

func TestEnsureNotRunningFollowsLock(t *testing.T) {
	cfg := lockConfig(t)
	if err := ensureNotRunning(cfg); err != nil {
		t.Fatalf("expected nil with free lock, got %v", err)
	}
	// A stale pid file alone does not mean a daemon is running.
	if err := os.WriteFile(cfg.Paths.PidPath, []byte("4242"), 0o644); err != nil {
		t.Fatalf("write pid: %v", err)
	}
	if err := ensureNotRunning(cfg); err != nil {
		t.Fatalf("stale pid file should be ignored, got %v", err)
	}

	lock := holdLock(t, cfg)
	err := ensureNotRunning(cfg)
	if err == nil || !strings.Contains(err.Error(), "4242") {
		t.Fatalf("expected already-running error naming pid, got %v", err)
	}
	_ = lock.Unlock()
	if err := ensureNotRunning(cfg); err != nil {
		t.Fatalf("expected nil after unlock, got %v", err)
	}
}

func TestWaitForShutdownReturnsWhenLockReleased(t *testing.T) {
	cfg := lockConfig(t)
	lock := holdLock(t, cfg)
	go func() {
		time.Sleep(150 * time.Millisecond)
		_ = lock.Unlock()
	}()
	if err := waitForShutdown(cfg, 2*time.Second); err != nil {
		t.Fatalf("expected success, got %v", err)
	}
}

func TestWaitForShutdownTimesOutWhileLocked(t *testing.T) {
	cfg := lockConfig(t)
	holdLock(t, cfg)
	if err := waitForShutdown(cfg, 300*time.Millisecond); err == nil {
		t.Fatalf("expected timeout error")
	}
}

func TestStopDaemonWhenNothingRuns(t *testing.T) {
	cfg := lockConfig(t)
	if _, err := stopDaemon(cfg); err == nil || !strings.Contains(err.Error(), "not running") {
		t.Fatalf("stop = %v", err)
	}
}

func TestReadPIDRejectsGarbage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "zjhooks.pid")
	if err := os.WriteFile(path, []byte("not-a-pid"), 0o644); err != nil {
		t.Fatalf("write pid: %v", err)
	}
	if _, err := readPID(path); err == nil {
		t.Fatalf("expected parse error")
	}
	if err := os.WriteFile(path, []byte("4242\n"), 0o644); err != nil {
		t.Fatalf("write pid: %v", err)
	}
	pid, err := readPID(path)
	if err != nil || pid != 4242 {
		t.Fatalf("readPID = %d, %v", pid, err)
	}
}
