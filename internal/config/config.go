package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

const (
	defaultStateDirLinux = ".local/state/zjhooks"
	defaultConfigDir     = ".config/zjhooks"
	defaultStatusTail    = 10
	defaultQueueSize     = 64
)

// Config holds user configuration loaded from TOML or YAML.
type Config struct {
	Logging struct {
		Level  string `toml:"level" yaml:"level"`   // debug, info, warn, error
		Format string `toml:"format" yaml:"format"` // text, json
		Stdout bool   `toml:"stdout" yaml:"stdout"`
	} `toml:"logging" yaml:"logging"`

	Paths struct {
		StateDir   string `toml:"state_dir" yaml:"state_dir"`
		LogPath    string `toml:"log_path" yaml:"log_path"`
		SocketPath string `toml:"socket_path" yaml:"socket_path"`
		PidPath    string `toml:"pid_path" yaml:"pid_path"`
		LockPath   string `toml:"lock_path" yaml:"lock_path"`
		ConfigPath string `toml:"-" yaml:"-"`
	} `toml:"paths" yaml:"paths"`

	Exec struct {
		Wrapper   string            `toml:"wrapper" yaml:"wrapper"` // e.g. "nice -n 10"; split with shell rules
		Dir       string            `toml:"dir" yaml:"dir"`
		Env       map[string]string `toml:"env" yaml:"env"`
		DryRun    bool              `toml:"dry_run" yaml:"dry_run"`
		QueueSize int               `toml:"queue_size" yaml:"queue_size"`
	} `toml:"exec" yaml:"exec"`

	Metrics struct {
		Enabled bool   `toml:"enabled" yaml:"enabled"`
		Addr    string `toml:"addr" yaml:"addr"`
	} `toml:"metrics" yaml:"metrics"`

	Watch struct {
		Enabled bool `toml:"enabled" yaml:"enabled"`
	} `toml:"watch" yaml:"watch"`

	Status struct {
		Tail int `toml:"tail" yaml:"tail"`
	} `toml:"status" yaml:"status"`

	// Plugin is the flat hook_<name>_<field> table handed to the hook parser.
	Plugin map[string]string `toml:"plugin" yaml:"plugin"`
}

// Default returns Config populated with defaults.
func Default() (*Config, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, err
	}

	stateDir := filepath.Join(home, defaultStateDirLinux)
	// macOS prefers ~/Library/Application Support/zjhooks for state/logs
	if isMac() {
		stateDir = filepath.Join(home, "Library", "Application Support", "zjhooks")
	}

	cfg := &Config{}

	cfg.Logging.Level = "info"
	cfg.Logging.Format = "text"

	cfg.Paths.StateDir = stateDir
	cfg.Paths.LogPath = filepath.Join(stateDir, "zjhooks.log")
	cfg.Paths.SocketPath = filepath.Join(stateDir, "zjhooks.sock")
	cfg.Paths.PidPath = filepath.Join(stateDir, "zjhooks.pid")
	cfg.Paths.LockPath = filepath.Join(stateDir, "zjhooks.lock")

	cfg.Exec.Env = map[string]string{}
	cfg.Exec.QueueSize = defaultQueueSize

	cfg.Metrics.Enabled = false
	cfg.Metrics.Addr = "127.0.0.1:9318"

	cfg.Watch.Enabled = true

	cfg.Status.Tail = defaultStatusTail

	cfg.Plugin = map[string]string{
		"hook_mode_command": "notify-send zjhooks {{mode}}",
		"hook_mode_event":   "mode",
	}

	return cfg, nil
}

// DefaultPath is where Load looks when no path is given.
func DefaultPath() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, defaultConfigDir, "config.toml")
}

// Load loads config from file, applying defaults.
func Load(path string) (*Config, error) {
	cfg, err := Default()
	if err != nil {
		return nil, err
	}

	if path == "" {
		path = DefaultPath()
	}

	// Read if exists; otherwise write template.
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			if err := Save(cfg, path); err != nil {
				return nil, err
			}
			cfg.Paths.ConfigPath = path
			applyEnvOverrides(cfg)
			return cfg, nil
		}
		return nil, err
	}

	// Decoding merges into the defaults; the plugin table is replaced, not merged.
	cfg.Plugin = nil
	if err := unmarshal(path, data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if cfg.Plugin == nil {
		cfg.Plugin = map[string]string{}
	}
	cfg.Paths.ConfigPath = path
	applyEnvOverrides(cfg)
	return cfg, nil
}

// Save writes cfg to path in the format implied by its extension.
func Save(cfg *Config, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	var (
		out []byte
		err error
	)
	if isYAML(path) {
		out, err = yaml.Marshal(cfg)
	} else {
		out, err = toml.Marshal(cfg)
	}
	if err != nil {
		return err
	}
	return os.WriteFile(path, out, 0o600)
}

func unmarshal(path string, data []byte, cfg *Config) error {
	if isYAML(path) {
		return yaml.Unmarshal(data, cfg)
	}
	return toml.Unmarshal(data, cfg)
}

func isYAML(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return true
	}
	return false
}

func isMac() bool {
	return runtime.GOOS == "darwin"
}

// MustStatePaths ensures state dirs exist.
func MustStatePaths(cfg *Config) error {
	for _, p := range []string{
		cfg.Paths.StateDir,
		filepath.Dir(cfg.Paths.LogPath),
		filepath.Dir(cfg.Paths.SocketPath),
		filepath.Dir(cfg.Paths.LockPath),
	} {
		if p == "" || p == "." {
			continue
		}
		if err := os.MkdirAll(p, 0o755); err != nil {
			return err
		}
	}
	return nil
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("ZJHOOKS_METRICS_ADDR"); v != "" {
		cfg.Metrics.Addr = v
		cfg.Metrics.Enabled = true
	}
	if v := os.Getenv("ZJHOOKS_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("ZJHOOKS_LOG_FORMAT"); v != "" {
		cfg.Logging.Format = v
	}
	if v := os.Getenv("ZJHOOKS_DRY_RUN"); v != "" {
		cfg.Exec.DryRun = truthy(v)
	}
	if v := os.Getenv("ZJHOOKS_WATCH_ENABLED"); v != "" {
		cfg.Watch.Enabled = truthy(v)
	}
}

func truthy(v string) bool {
	return v != "0" && strings.ToLower(v) != "false"
}
