package hook

import (
	"sync/atomic"

	"zjhooks/internal/event"

	"github.com/sirupsen/logrus"
)

type state struct {
	cfg *Config
	err error
}

// Result summarises one Process call.
type Result struct {
	Matched    int
	Incomplete int
	Suppressed bool
}

// Dispatcher runs every matching hook for each event it is given.
// Load may be called concurrently with Process; Process itself expects one
// event at a time.
type Dispatcher struct {
	runner Runner
	logger logrus.FieldLogger
	state  atomic.Pointer[state]
}

// NewDispatcher returns a dispatcher with no hooks loaded.
func NewDispatcher(r Runner, logger logrus.FieldLogger) *Dispatcher {
	d := &Dispatcher{runner: r, logger: logger}
	d.state.Store(&state{cfg: &Config{}})
	return d
}

// Load parses raw and replaces the current hook set. On failure the hook set
// becomes empty and the error is retained; events are suppressed until a
// later Load succeeds.
func (d *Dispatcher) Load(raw map[string]string) error {
	cfg, err := ParseConfig(raw)
	if err != nil {
		d.state.Store(&state{cfg: &Config{}, err: err})
		d.logger.WithError(err).Error("config rejected; hooks disabled")
		return err
	}
	d.state.Store(&state{cfg: cfg})
	d.logger.Infof("loaded %d hooks", cfg.Len())
	return nil
}

// Err returns the retained configuration error, if any.
func (d *Dispatcher) Err() error {
	return d.state.Load().err
}

// Hooks returns the currently loaded hooks.
func (d *Dispatcher) Hooks() []Hook {
	return d.state.Load().cfg.Hooks()
}

// Snapshot returns the loaded hooks and the retained error from the same
// configuration state.
func (d *Dispatcher) Snapshot() ([]Hook, error) {
	st := d.state.Load()
	return st.cfg.Hooks(), st.err
}

// Process evaluates every hook against ev.
func (d *Dispatcher) Process(ev event.Event) Result {
	st := d.state.Load()
	if st.err != nil {
		d.logger.Debug("config error retained; event ignored")
		return Result{Suppressed: true}
	}
	d.logger.Debugf("registered hook count: %d", st.cfg.Len())

	var res Result
	for _, h := range st.cfg.hooks {
		ran, complete := h.RunIfNeeded(ev, d.runner)
		if !ran {
			continue
		}
		res.Matched++
		if !complete {
			res.Incomplete++
			d.logger.WithField("hook", h.name).Warnf("%s event without current element; placeholders left unreplaced", ev.Kind())
		}
	}
	return res
}
