package hook

import (
	"regexp"
	"sort"
	"strings"

	"zjhooks/internal/event"
)

const keyPrefix = "hook_"

// fieldSuffixRE matches the trailing field word of a hook key ("_command", "_event").
var fieldSuffixRE = regexp.MustCompile(`_[a-zA-Z0-9]+$`)

// Config is the validated, name-ordered set of hooks built from one
// configuration snapshot. It is never mutated after ParseConfig returns.
type Config struct {
	hooks []Hook
}

// Hooks returns the hooks in name order.
func (c *Config) Hooks() []Hook {
	if c == nil {
		return nil
	}
	return append([]Hook(nil), c.hooks...)
}

// Len returns the number of hooks.
func (c *Config) Len() int {
	if c == nil {
		return 0
	}
	return len(c.hooks)
}

// CommandKey and EventKey return the configuration keys of a hook name.
func CommandKey(name string) string { return keyPrefix + name + "_command" }
func EventKey(name string) string   { return keyPrefix + name + "_event" }

// HookName derives the hook name from a hook_<name>_<field> key.
func HookName(key string) string {
	name := fieldSuffixRE.ReplaceAllString(key, "")
	return strings.TrimPrefix(name, keyPrefix)
}

// ParseConfig builds hooks from flat key/value configuration. Keys without the
// hook_ prefix are ignored. The first invalid hook aborts the parse; the error
// is a *MissingArgumentError or *UnknownEventError.
func ParseConfig(raw map[string]string) (*Config, error) {
	keys := make([]string, 0, len(raw))
	for k := range raw {
		if strings.HasPrefix(k, keyPrefix) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	// A name is processed once, on the first key that yields it. Both of its
	// fields are looked up explicitly, so later keys add nothing.
	byName := make(map[string]Hook)
	for _, key := range keys {
		name := HookName(key)
		if _, seen := byName[name]; seen {
			continue
		}

		cmdKey := CommandKey(name)
		command, ok := raw[cmdKey]
		if !ok {
			return nil, &MissingArgumentError{Key: cmdKey}
		}
		evKey := EventKey(name)
		evName, ok := raw[evKey]
		if !ok {
			return nil, &MissingArgumentError{Key: evKey}
		}
		kind, ok := event.ParseKind(evName)
		if !ok {
			return nil, &UnknownEventError{Key: evKey, Value: evName}
		}

		h := New(name, kind, command)
		if len(h.command) == 0 {
			return nil, &MissingArgumentError{Key: cmdKey}
		}
		byName[name] = h
	}

	names := make([]string, 0, len(byName))
	for n := range byName {
		names = append(names, n)
	}
	sort.Strings(names)

	cfg := &Config{hooks: make([]Hook, 0, len(names))}
	for _, n := range names {
		cfg.hooks = append(cfg.hooks, byName[n])
	}
	return cfg, nil
}
