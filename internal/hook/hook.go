package hook

import (
	"strconv"
	"strings"

	"zjhooks/internal/event"
)

// Placeholders substituted into command tokens, per event kind.
const (
	PlaceholderSessionName       = "{{session_name}}"
	PlaceholderActiveTabPosition = "{{active_tab_position}}"
	PlaceholderActiveTabName     = "{{active_tab_name}}"
	PlaceholderMode              = "{{mode}}"
)

// Runner starts an external command. It is fire-and-forget: the caller never
// observes the process.
type Runner interface {
	Run(argv []string, env map[string]string)
}

// RunnerFunc adapts a function to Runner.
type RunnerFunc func(argv []string, env map[string]string)

func (f RunnerFunc) Run(argv []string, env map[string]string) { f(argv, env) }

// Hook binds an event kind to a tokenized command template.
type Hook struct {
	name    string
	kind    event.Kind
	command []string
}

// New tokenizes command and returns the hook. Callers must ensure the command
// yields at least one token; ParseConfig does.
func New(name string, kind event.Kind, command string) Hook {
	return Hook{name: name, kind: kind, command: Tokenize(command)}
}

func (h Hook) Name() string     { return h.name }
func (h Hook) Kind() event.Kind { return h.kind }

// Command returns a copy of the unrendered tokens.
func (h Hook) Command() []string {
	return append([]string(nil), h.command...)
}

// Matches reports whether ev has the hook's kind. Payloads are ignored.
func (h Hook) Matches(ev event.Event) bool {
	return ev != nil && ev.Kind() == h.kind
}

// Render substitutes the placeholders for ev's kind into every token.
// complete is false when the payload lacked the element a placeholder reads
// from (no current session, no active tab); those placeholders are left as-is.
func (h Hook) Render(ev event.Event) (argv []string, complete bool) {
	var pairs []string
	complete = true

	switch e := ev.(type) {
	case event.SessionUpdate:
		if s, ok := e.Current(); ok {
			pairs = []string{PlaceholderSessionName, s.Name}
		} else {
			complete = false
		}
	case event.TabUpdate:
		if t, ok := e.Active(); ok {
			pairs = []string{
				PlaceholderActiveTabPosition, strconv.Itoa(t.Position),
				PlaceholderActiveTabName, t.Name,
			}
		} else {
			complete = false
		}
	case event.ModeUpdate:
		pairs = []string{PlaceholderMode, string(e.Mode)}
	}

	argv = make([]string, len(h.command))
	for i, tok := range h.command {
		for j := 0; j < len(pairs); j += 2 {
			tok = strings.ReplaceAll(tok, pairs[j], pairs[j+1])
		}
		argv[i] = tok
	}
	return argv, complete
}

// RunIfNeeded renders and runs the command when ev matches. It reports
// whether the hook ran and whether rendering was complete.
func (h Hook) RunIfNeeded(ev event.Event, r Runner) (ran, complete bool) {
	if !h.Matches(ev) {
		return false, true
	}
	argv, complete := h.Render(ev)
	r.Run(argv, map[string]string{})
	return true, complete
}
