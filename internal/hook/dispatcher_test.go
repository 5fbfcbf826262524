package hook

import (
	"errors"
	"io"
	"reflect"
	"sync"
	"testing"

	"zjhooks/internal/event"

	"github.com/sirupsen/logrus"
)

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func TestDispatcherEndToEnd(t *testing.T) {
	r := &recordingRunner{}
	d := NewDispatcher(r, quietLogger())
	if err := d.Load(map[string]string{
		"hook_a_command": "notify-send {{mode}}",
		"hook_a_event":   "mode",
	}); err != nil {
		t.Fatalf("load: %v", err)
	}

	res := d.Process(event.ModeUpdate{Mode: event.ModeLocked})
	if res.Matched != 1 || res.Suppressed {
		t.Fatalf("unexpected result %+v", res)
	}
	if len(r.calls) != 1 || !reflect.DeepEqual(r.calls[0].argv, []string{"notify-send", "Locked"}) {
		t.Fatalf("calls = %+v", r.calls)
	}
}

func TestDispatcherRunsAllMatchingHooks(t *testing.T) {
	r := &recordingRunner{}
	d := NewDispatcher(r, quietLogger())
	if err := d.Load(map[string]string{
		"hook_a_command": "first {{active_tab_name}}",
		"hook_a_event":   "tab",
		"hook_b_command": "second {{active_tab_position}}",
		"hook_b_event":   "tab",
		"hook_c_command": "third",
		"hook_c_event":   "mode",
	}); err != nil {
		t.Fatalf("load: %v", err)
	}

	res := d.Process(event.TabUpdate{Tabs: []event.TabInfo{{Position: 1, Name: "x", Active: true}}})
	if res.Matched != 2 {
		t.Fatalf("expected 2 matches, got %+v", res)
	}
	want := [][]string{{"first", "x"}, {"second", "1"}}
	for i, c := range r.calls {
		if !reflect.DeepEqual(c.argv, want[i]) {
			t.Fatalf("call %d = %q, want %q", i, c.argv, want[i])
		}
	}
}

func TestDispatcherTabHookIgnoresModeEvent(t *testing.T) {
	r := &recordingRunner{}
	d := NewDispatcher(r, quietLogger())
	if err := d.Load(map[string]string{
		"hook_t_command": "echo tab",
		"hook_t_event":   "tab",
	}); err != nil {
		t.Fatalf("load: %v", err)
	}
	d.Process(event.ModeUpdate{Mode: event.ModeTab})
	if len(r.calls) != 0 {
		t.Fatalf("tab hook ran on mode event: %+v", r.calls)
	}
}

func TestDispatcherSuppressesWhileErrorRetained(t *testing.T) {
	r := &recordingRunner{}
	d := NewDispatcher(r, quietLogger())
	err := d.Load(map[string]string{
		"hook_a_command": "echo",
		"hook_a_event":   "bogus",
	})
	var unknown *UnknownEventError
	if !errors.As(err, &unknown) {
		t.Fatalf("expected UnknownEventError, got %v", err)
	}
	if !errors.Is(d.Err(), err) || len(d.Hooks()) != 0 {
		t.Fatalf("expected retained error and empty hooks")
	}
	if res := d.Process(event.ModeUpdate{}); !res.Suppressed {
		t.Fatalf("expected suppression, got %+v", res)
	}

	if err := d.Load(map[string]string{
		"hook_a_command": "echo {{mode}}",
		"hook_a_event":   "mode",
	}); err != nil {
		t.Fatalf("reload: %v", err)
	}
	if d.Err() != nil {
		t.Fatalf("error should clear after successful load")
	}
	if res := d.Process(event.ModeUpdate{Mode: event.ModeScroll}); res.Matched != 1 {
		t.Fatalf("expected hook to run after reload, got %+v", res)
	}
}

func TestDispatcherCountsIncompleteRenders(t *testing.T) {
	r := &recordingRunner{}
	d := NewDispatcher(r, quietLogger())
	if err := d.Load(map[string]string{
		"hook_s_command": "echo {{session_name}}",
		"hook_s_event":   "session",
		"hook_z_command": "echo second",
		"hook_z_event":   "session",
	}); err != nil {
		t.Fatalf("load: %v", err)
	}
	res := d.Process(event.SessionUpdate{Sessions: []event.SessionInfo{{Name: "a"}}})
	if res.Matched != 2 || res.Incomplete != 1 {
		t.Fatalf("unexpected result %+v", res)
	}
	if len(r.calls) != 2 {
		t.Fatalf("both hooks should still run, got %d calls", len(r.calls))
	}
}

func TestDispatcherLoadConcurrentWithProcess(t *testing.T) {
	var mu sync.Mutex
	count := 0
	d := NewDispatcher(RunnerFunc(func([]string, map[string]string) {
		mu.Lock()
		count++
		mu.Unlock()
	}), quietLogger())
	raw := map[string]string{"hook_a_command": "echo", "hook_a_event": "pane"}
	if err := d.Load(raw); err != nil {
		t.Fatalf("load: %v", err)
	}

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 100; i++ {
			_ = d.Load(raw)
		}
	}()
	for i := 0; i < 100; i++ {
		d.Process(event.PaneUpdate{})
	}
	wg.Wait()

	mu.Lock()
	defer mu.Unlock()
	if count != 100 {
		t.Fatalf("expected 100 runs, got %d", count)
	}
}

func TestDispatcherSnapshotPairsHooksWithError(t *testing.T) {
	d := NewDispatcher(&recordingRunner{}, quietLogger())
	if err := d.Load(map[string]string{"hook_a_command": "echo", "hook_a_event": "tab"}); err != nil {
		t.Fatalf("load: %v", err)
	}
	hooks, err := d.Snapshot()
	if err != nil || len(hooks) != 1 || hooks[0].Name() != "a" {
		t.Fatalf("snapshot = %v, %v", hooks, err)
	}

	_ = d.Load(map[string]string{"hook_a_event": "tab"})
	hooks, err = d.Snapshot()
	var missing *MissingArgumentError
	if !errors.As(err, &missing) || len(hooks) != 0 {
		t.Fatalf("snapshot after bad load = %v, %v", hooks, err)
	}
}
