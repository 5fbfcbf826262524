package run

import (
	"errors"
	"fmt"
	"net/http"
	"sync/atomic"

	"zjhooks/internal/control"
)

type metrics struct {
	events       atomic.Int64
	matched      atomic.Int64
	suppressed   atomic.Int64
	dropped      atomic.Int64
	reloads      atomic.Int64
	reloadFailed atomic.Int64
}

func (m *metrics) incEvents()         { m.events.Add(1) }
func (m *metrics) addMatched(n int64) { m.matched.Add(n) }
func (m *metrics) incSuppressed()     { m.suppressed.Add(1) }
func (m *metrics) incDropped()        { m.dropped.Add(1) }
func (m *metrics) incReload()         { m.reloads.Add(1) }
func (m *metrics) incReloadFailed()   { m.reloadFailed.Add(1) }

func (s *Server) counters() control.Counters {
	rs := s.runner.Stats()
	return control.Counters{
		Events:     s.metrics.events.Load(),
		Matched:    s.metrics.matched.Load(),
		Suppressed: s.metrics.suppressed.Load(),
		Dropped:    s.metrics.dropped.Load(),
		Reloads:    s.metrics.reloads.Load(),
		Started:    rs.Started,
		Failed:     rs.Failed,
	}
}

func (s *Server) metricsHandler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/metrics", func(w http.ResponseWriter, r *http.Request) {
		c := s.counters()
		rs := s.runner.Stats()
		hooks, cfgErr := s.dispatcher.Snapshot()
		configOK := 1
		if cfgErr != nil {
			configOK = 0
		}
		fmt.Fprintf(w, "zjhooks_events_total %d\n", c.Events)
		fmt.Fprintf(w, "zjhooks_hooks_matched_total %d\n", c.Matched)
		fmt.Fprintf(w, "zjhooks_events_suppressed_total %d\n", c.Suppressed)
		fmt.Fprintf(w, "zjhooks_events_dropped_total %d\n", c.Dropped)
		fmt.Fprintf(w, "zjhooks_reloads_total %d\n", c.Reloads)
		fmt.Fprintf(w, "zjhooks_reload_failures_total %d\n", s.metrics.reloadFailed.Load())
		fmt.Fprintf(w, "zjhooks_commands_started_total %d\n", rs.Started)
		fmt.Fprintf(w, "zjhooks_commands_failed_total %d\n", rs.Failed)
		fmt.Fprintf(w, "zjhooks_commands_nonzero_total %d\n", rs.NonZero)
		fmt.Fprintf(w, "zjhooks_hooks_loaded %d\n", len(hooks))
		fmt.Fprintf(w, "zjhooks_config_ok %d\n", configOK)
	})
	return mux
}

func (s *Server) metricsServe(ctxDone <-chan struct{}, addr string) {
	server := &http.Server{
		Addr:    addr,
		Handler: s.metricsHandler(),
	}
	go func() {
		<-ctxDone
		_ = server.Close()
	}()
	s.logger.Infof("metrics listening on http://%s/metrics", addr)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		s.logger.Warnf("metrics server: %v", err)
	}
}
