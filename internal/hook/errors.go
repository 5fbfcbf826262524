package hook

import "fmt"

// Diagnostic codes reported with configuration errors.
const (
	CodeMissingArgument = "zjhooks::config::missing_argument"
	CodeUnknownEvent    = "zjhooks::config::unknown_event"
)

// MissingArgumentError reports a hook whose command or event key is absent.
type MissingArgumentError struct {
	Key string
}

func (e *MissingArgumentError) Error() string {
	return fmt.Sprintf("missing argument %q", e.Key)
}

func (e *MissingArgumentError) Code() string { return CodeMissingArgument }

func (e *MissingArgumentError) Help() string {
	return "every hook needs both hook_<name>_command and hook_<name>_event; please check your config"
}

// Subject is the configuration key at fault.
func (e *MissingArgumentError) Subject() string { return e.Key }

func (e *MissingArgumentError) Label() string { return "this one here is missing" }

// UnknownEventError reports an event value outside the known kinds.
type UnknownEventError struct {
	Key   string
	Value string
}

func (e *UnknownEventError) Error() string {
	return fmt.Sprintf("invalid event type %q for %s", e.Value, e.Key)
}

func (e *UnknownEventError) Code() string { return CodeUnknownEvent }

func (e *UnknownEventError) Help() string {
	return `event must be one of "mode", "pane", "session", or "tab"; please check your config and the documentation`
}

// Subject is the offending value.
func (e *UnknownEventError) Subject() string { return e.Value }

func (e *UnknownEventError) Label() string { return "this one here does not exist" }
