// Package service provides systemd user unit generation for Linux.
package service

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"text/template"
)

// DefaultUnit is the unit name used by the install command.
const DefaultUnit = "zjhooks.service"

const unitTemplate = `[Unit]
Description={{.Description}}
After=default.target

[Service]
Type=simple
ExecStart={{.Binary}} serve --config {{.Config}}
ExecReload=/bin/kill -HUP $MAINPID
Restart=on-failure
RestartSec=2
{{- range .Env }}
Environment={{.}}
{{- end }}

[Install]
WantedBy=default.target
`

var unitTpl = template.Must(template.New("systemd").Parse(unitTemplate))

type UnitParams struct {
	Name        string
	Description string
	Binary      string
	Config      string
	Env         map[string]string
}

// UnitDir returns the systemd user unit directory.
func UnitDir() string {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return filepath.Join(dir, "systemd", "user")
	}
	return filepath.Join(os.Getenv("HOME"), ".config", "systemd", "user")
}

// UnitPath returns the unit file path for name.
func UnitPath(name string) string {
	return filepath.Join(UnitDir(), name)
}

// Render writes the unit text for params to w.
func Render(w io.Writer, params UnitParams) error {
	if params.Description == "" {
		params.Description = "zjhooks terminal event hook daemon"
	}
	data := struct {
		UnitParams
		Env []string
	}{UnitParams: params}
	keys := make([]string, 0, len(params.Env))
	for k := range params.Env {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		data.Env = append(data.Env, fmt.Sprintf("%q", k+"="+params.Env[k]))
	}
	return unitTpl.Execute(w, data)
}

// WriteUnit writes a user-level unit file and returns its path.
func WriteUnit(params UnitParams) (string, error) {
	if params.Name == "" {
		params.Name = DefaultUnit
	}
	if err := os.MkdirAll(UnitDir(), 0o755); err != nil {
		return "", err
	}
	path := UnitPath(params.Name)
	f, err := os.Create(path)
	if err != nil {
		return "", err
	}
	defer f.Close()
	if err := Render(f, params); err != nil {
		return "", err
	}
	return path, nil
}
