// Package event models the multiplexer events hooks react to.
//
// Every event carries a Kind tag and a kind-specific payload. Hooks compare
// kinds only; payloads are consulted when a matching hook renders its command.
package event

import (
	"encoding/json"
	"fmt"
	"sort"
)

// Kind is the closed category of an event.
type Kind uint8

const (
	KindSession Kind = iota + 1
	KindMode
	KindPane
	KindTab
)

var kindNames = map[string]Kind{
	"session": KindSession,
	"mode":    KindMode,
	"pane":    KindPane,
	"tab":     KindTab,
}

// ParseKind maps a config/wire name to a Kind.
func ParseKind(name string) (Kind, bool) {
	k, ok := kindNames[name]
	return k, ok
}

// KindNames returns the accepted kind names, sorted.
func KindNames() []string {
	out := make([]string, 0, len(kindNames))
	for n := range kindNames {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

func (k Kind) String() string {
	for n, v := range kindNames {
		if v == k {
			return n
		}
	}
	return fmt.Sprintf("kind(%d)", uint8(k))
}

// Event is a single occurrence delivered by the host.
type Event interface {
	Kind() Kind
}

// SessionInfo describes one session known to the host.
type SessionInfo struct {
	Name             string `json:"name"`
	IsCurrentSession bool   `json:"is_current_session"`
}

// SessionUpdate lists all sessions; one is flagged current.
type SessionUpdate struct {
	Sessions []SessionInfo `json:"sessions"`
}

func (SessionUpdate) Kind() Kind { return KindSession }

// Current returns the session flagged current.
func (e SessionUpdate) Current() (SessionInfo, bool) {
	for _, s := range e.Sessions {
		if s.IsCurrentSession {
			return s, true
		}
	}
	return SessionInfo{}, false
}

// TabInfo describes one tab.
type TabInfo struct {
	Position int    `json:"position"`
	Name     string `json:"name"`
	Active   bool   `json:"active"`
}

// TabUpdate lists open tabs; one is flagged active.
type TabUpdate struct {
	Tabs []TabInfo `json:"tabs"`
}

func (TabUpdate) Kind() Kind { return KindTab }

// Active returns the tab flagged active.
func (e TabUpdate) Active() (TabInfo, bool) {
	for _, t := range e.Tabs {
		if t.Active {
			return t, true
		}
	}
	return TabInfo{}, false
}

// InputMode is the human-readable input mode identifier, e.g. "Locked".
type InputMode string

const (
	ModeNormal      InputMode = "Normal"
	ModeLocked      InputMode = "Locked"
	ModeResize      InputMode = "Resize"
	ModePane        InputMode = "Pane"
	ModeTab         InputMode = "Tab"
	ModeScroll      InputMode = "Scroll"
	ModeEnterSearch InputMode = "EnterSearch"
	ModeSearch      InputMode = "Search"
	ModeRenameTab   InputMode = "RenameTab"
	ModeRenamePane  InputMode = "RenamePane"
	ModeSession     InputMode = "Session"
	ModeMove        InputMode = "Move"
	ModePrompt      InputMode = "Prompt"
	ModeTmux        InputMode = "Tmux"
)

// ModeUpdate reports the current input mode.
type ModeUpdate struct {
	Mode InputMode `json:"mode"`
}

func (ModeUpdate) Kind() Kind { return KindMode }

// PaneInfo describes one pane in the manifest.
type PaneInfo struct {
	ID        uint32 `json:"id"`
	Title     string `json:"title"`
	IsFocused bool   `json:"is_focused"`
	IsPlugin  bool   `json:"is_plugin"`
}

// PaneUpdate carries the pane manifest keyed by tab position.
type PaneUpdate struct {
	Panes map[string][]PaneInfo `json:"panes"`
}

func (PaneUpdate) Kind() Kind { return KindPane }

type envelope struct {
	Kind string `json:"kind"`
}

// Decode parses a JSON event object. The "kind" field selects the payload type.
func Decode(data []byte) (Event, error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("decode event: %w", err)
	}
	kind, ok := ParseKind(env.Kind)
	if !ok {
		return nil, fmt.Errorf("decode event: unknown kind %q", env.Kind)
	}
	var (
		ev  Event
		err error
	)
	switch kind {
	case KindSession:
		var e SessionUpdate
		err = json.Unmarshal(data, &e)
		ev = e
	case KindTab:
		var e TabUpdate
		err = json.Unmarshal(data, &e)
		ev = e
	case KindMode:
		var e ModeUpdate
		err = json.Unmarshal(data, &e)
		ev = e
	case KindPane:
		var e PaneUpdate
		err = json.Unmarshal(data, &e)
		ev = e
	}
	if err != nil {
		return nil, fmt.Errorf("decode %s event: %w", kind, err)
	}
	return ev, nil
}

// Encode renders an event as a JSON object including its "kind" tag.
func Encode(ev Event) ([]byte, error) {
	payload, err := json.Marshal(ev)
	if err != nil {
		return nil, err
	}
	fields := map[string]json.RawMessage{}
	if err := json.Unmarshal(payload, &fields); err != nil {
		return nil, err
	}
	kind, _ := json.Marshal(ev.Kind().String())
	fields["kind"] = kind
	return json.Marshal(fields)
}
