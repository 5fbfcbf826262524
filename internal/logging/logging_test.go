package logging

import (
	"os"
	"path/filepath"
	"testing"

	"zjhooks/internal/config"

	"github.com/sirupsen/logrus"
)

func TestConfigureWritesToLogPath(t *testing.T) {
	dir := t.TempDir()
	cfg, err := config.Default()
	if err != nil {
		t.Fatalf("default: %v", err)
	}
	cfg.Paths.StateDir = dir
	cfg.Paths.LogPath = filepath.Join(dir, "logs", "zjhooks.log")
	cfg.Paths.SocketPath = filepath.Join(dir, "zjhooks.sock")
	cfg.Paths.LockPath = filepath.Join(dir, "zjhooks.lock")
	cfg.Logging.Level = "debug"
	cfg.Logging.Format = "json"

	logger, err := Configure(cfg)
	if err != nil {
		t.Fatalf("configure: %v", err)
	}
	if logger.GetLevel() != logrus.DebugLevel {
		t.Fatalf("level = %v", logger.GetLevel())
	}
	if _, ok := logger.Formatter.(*logrus.JSONFormatter); !ok {
		t.Fatalf("expected json formatter, got %T", logger.Formatter)
	}
	logger.Info("hello")
	data, err := os.ReadFile(cfg.Paths.LogPath)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	if len(data) == 0 {
		t.Fatalf("log file empty")
	}
}

func TestConsoleIgnoresBadLevel(t *testing.T) {
	cfg, err := config.Default()
	if err != nil {
		t.Fatalf("default: %v", err)
	}
	cfg.Logging.Level = "loud"
	logger := Console(cfg)
	if logger.GetLevel() != logrus.InfoLevel {
		t.Fatalf("bad level should keep default, got %v", logger.GetLevel())
	}
}
