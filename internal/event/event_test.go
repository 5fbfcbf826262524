package event

import (
	"reflect"
	"testing"
)

func TestParseKind(t *testing.T) {
	cases := map[string]Kind{
		"session": KindSession,
		"mode":    KindMode,
		"pane":    KindPane,
		"tab":     KindTab,
	}
	for name, want := range cases {
		got, ok := ParseKind(name)
		if !ok || got != want {
			t.Fatalf("ParseKind(%q) = %v, %v; want %v", name, got, ok, want)
		}
		if got.String() != name {
			t.Fatalf("String() = %q, want %q", got.String(), name)
		}
	}
	if _, ok := ParseKind("Session"); ok {
		t.Fatalf("kind names are case sensitive")
	}
}

func TestDecodeEachKind(t *testing.T) {
	cases := []struct {
		raw  string
		want Event
	}{
		{`{"kind":"mode","mode":"Locked"}`, ModeUpdate{Mode: ModeLocked}},
		{`{"kind":"session","sessions":[{"name":"a"},{"name":"b","is_current_session":true}]}`,
			SessionUpdate{Sessions: []SessionInfo{{Name: "a"}, {Name: "b", IsCurrentSession: true}}}},
		{`{"kind":"tab","tabs":[{"position":2,"name":"logs","active":true}]}`,
			TabUpdate{Tabs: []TabInfo{{Position: 2, Name: "logs", Active: true}}}},
		{`{"kind":"pane","panes":{"0":[{"id":1,"title":"zsh","is_focused":true}]}}`,
			PaneUpdate{Panes: map[string][]PaneInfo{"0": {{ID: 1, Title: "zsh", IsFocused: true}}}}},
	}
	for _, tc := range cases {
		got, err := Decode([]byte(tc.raw))
		if err != nil {
			t.Fatalf("decode %s: %v", tc.raw, err)
		}
		if !reflect.DeepEqual(got, tc.want) {
			t.Fatalf("decode %s = %#v, want %#v", tc.raw, got, tc.want)
		}
	}
}

func TestDecodeRejectsUnknownKind(t *testing.T) {
	if _, err := Decode([]byte(`{"kind":"clipboard"}`)); err == nil {
		t.Fatalf("expected error for unknown kind")
	}
	if _, err := Decode([]byte(`not json`)); err == nil {
		t.Fatalf("expected error for malformed input")
	}
}

func TestEncodeIncludesKind(t *testing.T) {
	in := TabUpdate{Tabs: []TabInfo{{Position: 1, Name: "edit", Active: true}}}
	data, err := Encode(in)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	out, err := Decode(data)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !reflect.DeepEqual(out, in) {
		t.Fatalf("got %#v, want %#v", out, in)
	}
}

func TestActiveAndCurrentLookups(t *testing.T) {
	if _, ok := (TabUpdate{Tabs: []TabInfo{{Name: "a"}}}).Active(); ok {
		t.Fatalf("no tab is active")
	}
	if _, ok := (SessionUpdate{}).Current(); ok {
		t.Fatalf("no session is current")
	}
	s, ok := (SessionUpdate{Sessions: []SessionInfo{{Name: "x", IsCurrentSession: true}}}).Current()
	if !ok || s.Name != "x" {
		t.Fatalf("current session lookup failed: %+v %v", s, ok)
	}
}
