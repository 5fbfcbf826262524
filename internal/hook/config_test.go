package hook

import (
	"errors"
	"reflect"
	"testing"

	"zjhooks/internal/event"
)

func TestParseConfigSingleHook(t *testing.T) {
	cfg, err := ParseConfig(map[string]string{
		"hook_foo_command": "echo hi {{session_name}}",
		"hook_foo_event":   "session",
	})
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	hooks := cfg.Hooks()
	if len(hooks) != 1 {
		t.Fatalf("expected 1 hook, got %d", len(hooks))
	}
	h := hooks[0]
	if h.Name() != "foo" || h.Kind() != event.KindSession {
		t.Fatalf("unexpected hook %q kind %v", h.Name(), h.Kind())
	}
	argv, complete := h.Render(event.SessionUpdate{Sessions: []event.SessionInfo{
		{Name: "other"},
		{Name: "work", IsCurrentSession: true},
	}})
	if !complete || !reflect.DeepEqual(argv, []string{"echo", "hi", "work"}) {
		t.Fatalf("render = %q (complete=%v)", argv, complete)
	}
}

func TestParseConfigMissingArguments(t *testing.T) {
	cases := []struct {
		raw     map[string]string
		wantKey string
	}{
		{map[string]string{"hook_foo_command": "echo"}, "hook_foo_event"},
		{map[string]string{"hook_foo_event": "tab"}, "hook_foo_command"},
		{map[string]string{"hook_foo_command": "   ", "hook_foo_event": "tab"}, "hook_foo_command"},
	}
	for _, tc := range cases {
		_, err := ParseConfig(tc.raw)
		var missing *MissingArgumentError
		if !errors.As(err, &missing) {
			t.Fatalf("%v: expected MissingArgumentError, got %v", tc.raw, err)
		}
		if missing.Key != tc.wantKey {
			t.Fatalf("%v: missing key = %q, want %q", tc.raw, missing.Key, tc.wantKey)
		}
	}
}

func TestParseConfigUnknownEvent(t *testing.T) {
	_, err := ParseConfig(map[string]string{
		"hook_foo_command": "echo",
		"hook_foo_event":   "bogus",
	})
	var unknown *UnknownEventError
	if !errors.As(err, &unknown) {
		t.Fatalf("expected UnknownEventError, got %v", err)
	}
	if unknown.Value != "bogus" || unknown.Key != "hook_foo_event" {
		t.Fatalf("unexpected error fields: %+v", unknown)
	}
}

func TestParseConfigAbortsOnFirstFailure(t *testing.T) {
	cfg, err := ParseConfig(map[string]string{
		"hook_a_command": "echo a",
		"hook_a_event":   "mode",
		"hook_b_command": "echo b",
	})
	if err == nil || cfg != nil {
		t.Fatalf("expected no partial config, got %v, %v", cfg, err)
	}
}

func TestParseConfigIgnoresOtherKeys(t *testing.T) {
	cfg, err := ParseConfig(map[string]string{
		"theme":          "dark",
		"hooks":          "not a hook key",
		"hook_a_command": "echo a",
		"hook_a_event":   "pane",
	})
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if cfg.Len() != 1 {
		t.Fatalf("expected 1 hook, got %d", cfg.Len())
	}
}

func TestParseConfigOrdersByName(t *testing.T) {
	cfg, err := ParseConfig(map[string]string{
		"hook_zeta_command":    "z",
		"hook_zeta_event":      "tab",
		"hook_alpha_command":   "a",
		"hook_alpha_event":     "mode",
		"hook_my_hook_command": "m",
		"hook_my_hook_event":   "pane",
	})
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	var names []string
	for _, h := range cfg.Hooks() {
		names = append(names, h.Name())
	}
	if !reflect.DeepEqual(names, []string{"alpha", "my_hook", "zeta"}) {
		t.Fatalf("names = %q", names)
	}
}

// Each hook name is processed once even though two keys yield it, and an
// extra field key for the same name does not create a second hook.
func TestParseConfigProcessesNameOnce(t *testing.T) {
	cfg, err := ParseConfig(map[string]string{
		"hook_foo_command": "echo foo",
		"hook_foo_event":   "mode",
		"hook_foo_extra":   "ignored",
	})
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if cfg.Len() != 1 {
		t.Fatalf("expected 1 hook, got %d", cfg.Len())
	}
}

func TestParseConfigIsPure(t *testing.T) {
	raw := map[string]string{
		"hook_a_command": `sh -c "echo {{mode}}"`,
		"hook_a_event":   "mode",
		"hook_b_command": "notify-send {{active_tab_name}}",
		"hook_b_event":   "tab",
	}
	first, err := ParseConfig(raw)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	second, err := ParseConfig(raw)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if !reflect.DeepEqual(first.Hooks(), second.Hooks()) {
		t.Fatalf("parsing twice differed: %+v vs %+v", first.Hooks(), second.Hooks())
	}
}

func TestHookName(t *testing.T) {
	cases := map[string]string{
		"hook_foo_command":     "foo",
		"hook_foo_event":       "foo",
		"hook_my_hook_command": "my_hook",
		"hook_foo":             "hook",
	}
	for key, want := range cases {
		if got := HookName(key); got != want {
			t.Fatalf("HookName(%q) = %q, want %q", key, got, want)
		}
	}
}
