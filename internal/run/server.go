package run

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"zjhooks/internal/config"
	"zjhooks/internal/control"
	"zjhooks/internal/event"
	"zjhooks/internal/hook"
	"zjhooks/internal/spawn"

	"github.com/gofrs/flock"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// job is one event waiting for the worker.
type job struct {
	id string
	ev event.Event
}

// Server owns the dispatcher and feeds it events from the control socket.
type Server struct {
	cfg        *config.Config
	logger     *logrus.Logger
	dispatcher *hook.Dispatcher
	runner     *spawn.ProcessRunner
	startedAt  time.Time

	recentMu sync.Mutex
	recent   []control.Dispatch
	current  *job

	metrics metrics
	eventCh chan job
	stop    context.CancelFunc
}

// NewServer wires a dispatcher to a process runner and loads the plugin table.
// A rejected plugin table is not fatal: the error is retained and reported.
func NewServer(cfg *config.Config, logger *logrus.Logger) (*Server, error) {
	runner, err := spawn.NewProcessRunner(cfg, logger)
	if err != nil {
		return nil, err
	}
	s := &Server{
		cfg:       cfg,
		logger:    logger,
		runner:    runner,
		startedAt: time.Now(),
		recent:    make([]control.Dispatch, 0, max(1, cfg.Status.Tail)),
		eventCh:   make(chan job, max(1, cfg.Exec.QueueSize)),
	}
	s.dispatcher = hook.NewDispatcher(hook.RunnerFunc(s.record), logger)
	_ = s.dispatcher.Load(cfg.Plugin)
	return s, nil
}

// shutdownGrace bounds how long Serve waits for hook processes on exit.
// Hooks are fire-and-forget; anything still running is left alone.
const shutdownGrace = time.Second

// Serve runs the daemon until SIGTERM, SIGINT or a stop request.
func Serve(cfg *config.Config, logger *logrus.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()
	hup := make(chan os.Signal, 1)
	signal.Notify(hup, syscall.SIGHUP)
	defer signal.Stop(hup)
	return serve(ctx, cfg, logger, hup)
}

// serve holds the instance lock and runs the daemon until ctx is done. Each
// value on hup reloads the hooks.
func serve(ctx context.Context, cfg *config.Config, logger *logrus.Logger, hup <-chan os.Signal) error {
	if err := config.MustStatePaths(cfg); err != nil {
		return err
	}
	lock := flock.New(cfg.Paths.LockPath)
	locked, err := lock.TryLock()
	if err != nil {
		return fmt.Errorf("lock %s: %w", cfg.Paths.LockPath, err)
	}
	if !locked {
		return fmt.Errorf("another zjhooks daemon holds %s", cfg.Paths.LockPath)
	}
	defer func() {
		if err := lock.Unlock(); err != nil {
			logger.Warnf("unlock: %v", err)
		}
	}()

	if err := os.WriteFile(cfg.Paths.PidPath, []byte(fmt.Sprintf("%d", os.Getpid())), 0o644); err != nil {
		return err
	}
	defer func() {
		if err := os.Remove(cfg.Paths.PidPath); err != nil && !errors.Is(err, os.ErrNotExist) {
			logger.Warnf("remove pid file: %v", err)
		}
	}()
	if err := os.Remove(cfg.Paths.SocketPath); err != nil && !errors.Is(err, os.ErrNotExist) {
		logger.Debugf("remove stale socket: %v", err)
	}

	srv, err := NewServer(cfg, logger)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	srv.stop = cancel
	g, gctx := errgroup.WithContext(ctx)

	ln, err := net.Listen("unix", cfg.Paths.SocketPath)
	if err != nil {
		return fmt.Errorf("control listen: %w", err)
	}
	g.Go(func() error { return srv.controlLoop(gctx, ln) })
	g.Go(func() error { srv.eventWorker(gctx); return nil })
	if cfg.Metrics.Enabled {
		g.Go(func() error { srv.metricsServe(gctx.Done(), cfg.Metrics.Addr); return nil })
	}
	if cfg.Watch.Enabled && cfg.Paths.ConfigPath != "" {
		g.Go(func() error { return srv.watchConfig(gctx) })
	}

	logger.Infof("zjhooks listening on %s", cfg.Paths.SocketPath)
loop:
	for {
		select {
		case <-hup:
			if err := srv.Reload(); err != nil {
				logger.Errorf("reload: %v", err)
			}
		case <-gctx.Done():
			break loop
		}
	}
	logger.Info("shutting down")
	cancel()
	err = g.Wait()
	if !srv.runner.WaitTimeout(shutdownGrace) {
		logger.Warnf("leaving %d hook processes running", srv.runner.Running())
	}
	return err
}

// Submit queues ev for the worker. It reports false when the queue is full.
func (s *Server) Submit(ev event.Event) (string, bool) {
	j := job{id: uuid.NewString(), ev: ev}
	select {
	case s.eventCh <- j:
		return j.id, true
	default:
		s.metrics.incDropped()
		s.logger.WithField("event_id", j.id).Warn("event queue full, dropping event")
		return j.id, false
	}
}

// Reload re-reads the config file and swaps in its plugin table. Only the
// hook set changes; other settings need a restart.
func (s *Server) Reload() error {
	fresh, err := config.Load(s.cfg.Paths.ConfigPath)
	if err != nil {
		s.metrics.incReloadFailed()
		return err
	}
	s.metrics.incReload()
	if err := s.dispatcher.Load(fresh.Plugin); err != nil {
		return fmt.Errorf("hooks disabled: %w", err)
	}
	return nil
}

// eventWorker processes queued events one at a time, in arrival order.
func (s *Server) eventWorker(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case j := <-s.eventCh:
			s.process(j)
		}
	}
}

func (s *Server) process(j job) {
	s.metrics.incEvents()
	log := s.logger.WithFields(logrus.Fields{"event_id": j.id, "kind": j.ev.Kind().String()})
	log.Debug("processing event")

	s.recentMu.Lock()
	s.current = &j
	s.recentMu.Unlock()

	res := s.dispatcher.Process(j.ev)

	s.recentMu.Lock()
	s.current = nil
	s.recentMu.Unlock()

	switch {
	case res.Suppressed:
		s.metrics.incSuppressed()
		log.Debug("event suppressed by config error")
	case res.Matched > 0:
		s.metrics.addMatched(int64(res.Matched))
		log.Infof("dispatched %d hooks", res.Matched)
	}
}

// record is the dispatcher's runner: it remembers the dispatch for status
// and hands the command to the process runner.
func (s *Server) record(argv []string, env map[string]string) {
	entry := control.Dispatch{
		Argv:      append([]string(nil), argv...),
		Timestamp: time.Now(),
	}
	tail := max(1, s.cfg.Status.Tail)
	s.recentMu.Lock()
	if s.current != nil {
		entry.EventID = s.current.id
		entry.Kind = s.current.ev.Kind().String()
	}
	s.recent = append(s.recent, entry)
	if len(s.recent) > tail {
		s.recent = s.recent[len(s.recent)-tail:]
	}
	s.recentMu.Unlock()

	s.runner.Run(argv, env)
}

func (s *Server) controlLoop(ctx context.Context, ln net.Listener) error {
	go func() {
		<-ctx.Done()
		_ = ln.Close()
	}()
	for {
		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			s.logger.Errorf("control accept: %v", err)
			continue
		}
		go s.handleConn(ctx, conn)
	}
}

func (s *Server) handleConn(ctx context.Context, conn net.Conn) {
	defer func() {
		if err := conn.Close(); err != nil && ctx.Err() == nil {
			s.logger.Warnf("control connection close: %v", err)
		}
	}()
	sc := bufio.NewScanner(conn)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	if !sc.Scan() {
		return
	}
	var req control.Request
	if err := json.Unmarshal(sc.Bytes(), &req); err != nil {
		_ = json.NewEncoder(conn).Encode(control.SimpleResponse{OK: false, Message: "bad request: " + err.Error()})
		return
	}
	if err := json.NewEncoder(conn).Encode(s.handle(req)); err != nil {
		s.logger.Warnf("control reply: %v", err)
	}
	// Reply first; stopping closes the listener.
	if req.Op == control.OpStop && s.stop != nil {
		s.logger.Info("stop requested over control socket")
		s.stop()
	}
}

func (s *Server) handle(req control.Request) any {
	switch req.Op {
	case control.OpStatus:
		return s.Status()
	case control.OpHealth:
		return control.SimpleResponse{OK: true, Message: "ok"}
	case control.OpReload:
		if err := s.Reload(); err != nil {
			return control.SimpleResponse{OK: false, Message: err.Error()}
		}
		return control.SimpleResponse{OK: true, Message: fmt.Sprintf("%d hooks loaded", len(s.dispatcher.Hooks()))}
	case control.OpStop:
		return control.SimpleResponse{OK: true, Message: fmt.Sprintf("stopping pid %d", os.Getpid())}
	case control.OpEvent:
		ev, err := event.Decode(req.Event)
		if err != nil {
			return control.SimpleResponse{OK: false, Message: err.Error()}
		}
		id, ok := s.Submit(ev)
		if !ok {
			return control.SimpleResponse{OK: false, Message: "event queue full"}
		}
		return control.SimpleResponse{OK: true, Message: id}
	default:
		return control.SimpleResponse{OK: false, Message: fmt.Sprintf("unknown op %q", req.Op)}
	}
}

// Status snapshots the daemon state.
func (s *Server) Status() control.Status {
	hooks, cfgErr := s.dispatcher.Snapshot()
	st := control.Status{
		Running:    true,
		UptimeSec:  time.Since(s.startedAt).Seconds(),
		ConfigPath: s.cfg.Paths.ConfigPath,
		Hooks:      HookInfos(hooks),
		Recent:     s.copyRecent(),
		Counters:   s.counters(),
	}
	if cfgErr != nil {
		st.ConfigError = cfgErr.Error()
	}
	return st
}

// HookInfos converts hooks to their wire description.
func HookInfos(hooks []hook.Hook) []control.HookInfo {
	out := make([]control.HookInfo, 0, len(hooks))
	for _, h := range hooks {
		out = append(out, control.HookInfo{
			Name:    h.Name(),
			Event:   h.Kind().String(),
			Command: h.Command(),
		})
	}
	return out
}

func (s *Server) copyRecent() []control.Dispatch {
	s.recentMu.Lock()
	defer s.recentMu.Unlock()
	out := make([]control.Dispatch, len(s.recent))
	copy(out, s.recent)
	return out
}
