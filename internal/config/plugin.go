package config

import (
	"sort"
	"strings"

	"zjhooks/internal/hook"
)

// SetHook writes the command and event keys of a hook into the plugin table.
func (c *Config) SetHook(name, eventName, command string) {
	if c.Plugin == nil {
		c.Plugin = map[string]string{}
	}
	c.Plugin[hook.CommandKey(name)] = command
	c.Plugin[hook.EventKey(name)] = eventName
}

// RemoveHook deletes every plugin key that names the hook. It reports whether
// anything was removed.
func (c *Config) RemoveHook(name string) bool {
	removed := false
	for k := range c.Plugin {
		if strings.HasPrefix(k, "hook_") && hook.HookName(k) == name {
			delete(c.Plugin, k)
			removed = true
		}
	}
	return removed
}

// PluginKeys returns the plugin table keys, sorted.
func (c *Config) PluginKeys() []string {
	keys := make([]string, 0, len(c.Plugin))
	for k := range c.Plugin {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
