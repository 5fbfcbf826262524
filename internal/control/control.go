package control

import (
	"encoding/json"
	"time"
)

// Control socket operations.
const (
	OpStatus = "status"
	OpHealth = "health"
	OpReload = "reload"
	OpEvent  = "event"
	OpStop   = "stop"
)

type Request struct {
	Op    string          `json:"op"`
	Event json.RawMessage `json:"event,omitempty"`
}

type Status struct {
	Running     bool       `json:"running"`
	UptimeSec   float64    `json:"uptime_sec"`
	ConfigPath  string     `json:"config_path"`
	ConfigError string     `json:"config_error,omitempty"`
	Hooks       []HookInfo `json:"hooks"`
	Recent      []Dispatch `json:"recent"`
	Counters    Counters   `json:"counters"`
}

type SimpleResponse struct {
	OK      bool   `json:"ok"`
	Message string `json:"message"`
}

// HookInfo describes one loaded hook.
type HookInfo struct {
	Name    string   `json:"name"`
	Event   string   `json:"event"`
	Command []string `json:"command"`
}

// Dispatch records one command handed to the runner.
type Dispatch struct {
	EventID   string    `json:"event_id"`
	Kind      string    `json:"kind"`
	Argv      []string  `json:"argv"`
	Timestamp time.Time `json:"timestamp"`
}

type Counters struct {
	Events     int64 `json:"events"`
	Matched    int64 `json:"matched"`
	Suppressed int64 `json:"suppressed"`
	Dropped    int64 `json:"dropped"`
	Reloads    int64 `json:"reloads"`
	Started    int64 `json:"started"`
	Failed     int64 `json:"failed"`
}
