package control

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"zjhooks/internal/config"
	"zjhooks/internal/event"
	"zjhooks/internal/hook"
	"zjhooks/internal/logging"
	"zjhooks/internal/report"
	"zjhooks/internal/spawn"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

type emitOptions struct {
	mode     string
	session  string
	tab      string
	position int
	raw      string
}

// build turns command line flags into an event. A raw JSON event wins over
// the per-kind flags; kind may then be empty.
func (o emitOptions) build(kind string) (event.Event, error) {
	if o.raw != "" {
		ev, err := event.Decode([]byte(o.raw))
		if err != nil {
			return nil, err
		}
		if kind != "" && ev.Kind().String() != kind {
			return nil, fmt.Errorf("--json carries a %s event, not %s", ev.Kind(), kind)
		}
		return ev, nil
	}
	k, ok := event.ParseKind(kind)
	if !ok {
		return nil, fmt.Errorf("unknown event %q (want one of %s)", kind, strings.Join(event.KindNames(), ", "))
	}
	switch k {
	case event.KindMode:
		if o.mode == "" {
			return nil, fmt.Errorf("mode event needs --mode")
		}
		return event.ModeUpdate{Mode: event.InputMode(o.mode)}, nil
	case event.KindSession:
		if o.session == "" {
			return event.SessionUpdate{}, nil
		}
		return event.SessionUpdate{Sessions: []event.SessionInfo{{Name: o.session, IsCurrentSession: true}}}, nil
	case event.KindTab:
		if o.tab == "" && o.position < 0 {
			return event.TabUpdate{}, nil
		}
		return event.TabUpdate{Tabs: []event.TabInfo{{Position: max(o.position, 0), Name: o.tab, Active: true}}}, nil
	default:
		return event.PaneUpdate{Panes: map[string][]event.PaneInfo{}}, nil
	}
}

// NewEmitCmd sends one synthetic event to the daemon, or dispatches it in
// process with --local.
func NewEmitCmd(cfgPath *string) *cobra.Command {
	var opts emitOptions
	cmd := &cobra.Command{
		Use:   "emit [session|mode|tab|pane]",
		Short: "Send an event to the running daemon",
		Example: `  zjhooks emit mode --mode Locked
  zjhooks emit tab --tab editor --position 2
  zjhooks emit session --session work --local
  zjhooks emit --json '{"kind":"mode","mode":"Normal"}'`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			kind := ""
			if len(args) == 1 {
				kind = args[0]
			}
			if kind == "" && opts.raw == "" {
				return fmt.Errorf("need an event kind or --json")
			}
			ev, err := opts.build(kind)
			if err != nil {
				return err
			}
			cfg, err := config.Load(*cfgPath)
			if err != nil {
				return err
			}
			if local, _ := cmd.Flags().GetBool("local"); local {
				ld, err := newLocalDispatch(cfg, cmd.ErrOrStderr())
				if err != nil {
					return err
				}
				res := ld.process(uuid.NewString(), ev)
				ld.runner.Wait()
				fmt.Fprintf(cmd.OutOrStdout(), "%d hooks run\n", res.Matched)
				return nil
			}
			payload, err := event.Encode(ev)
			if err != nil {
				return err
			}
			resp, err := CallSimple(cfg.Paths.SocketPath, Request{Op: OpEvent, Event: payload})
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "queued", resp.Message)
			return nil
		},
	}
	cmd.Flags().StringVar(&opts.mode, "mode", "", "input mode for mode events (e.g. Locked)")
	cmd.Flags().StringVar(&opts.session, "session", "", "current session name for session events")
	cmd.Flags().StringVar(&opts.tab, "tab", "", "active tab name for tab events")
	cmd.Flags().IntVar(&opts.position, "position", -1, "active tab position for tab events")
	cmd.Flags().StringVar(&opts.raw, "json", "", "raw JSON event, e.g. {\"kind\":\"mode\",\"mode\":\"Locked\"}")
	cmd.Flags().Bool("local", false, "dispatch in this process instead of the daemon")
	return cmd
}

// NewPipeCmd reads JSON events, one per line, and dispatches them in order.
func NewPipeCmd(cfgPath *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pipe",
		Short: "Dispatch JSON events read line by line from stdin",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*cfgPath)
			if err != nil {
				return err
			}
			if daemon, _ := cmd.Flags().GetBool("daemon"); daemon {
				return forwardLines(cmd.InOrStdin(), cfg.Paths.SocketPath, cmd.ErrOrStderr())
			}
			ld, err := newLocalDispatch(cfg, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			sum, err := ld.pipe(cmd.InOrStdin())
			ld.runner.Wait()
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "%d events, %d hooks run, %d invalid lines\n", sum.events, sum.matched, sum.invalid)
			return nil
		},
	}
	cmd.Flags().Bool("daemon", false, "forward events to the running daemon")
	return cmd
}

type localDispatch struct {
	logger     logrus.FieldLogger
	runner     *spawn.ProcessRunner
	dispatcher *hook.Dispatcher
}

// newLocalDispatch builds a dispatcher over a process runner. A rejected
// plugin table is rendered to errOut and returned.
func newLocalDispatch(cfg *config.Config, errOut io.Writer) (*localDispatch, error) {
	logger := logging.Console(cfg)
	runner, err := spawn.NewProcessRunner(cfg, logger)
	if err != nil {
		return nil, err
	}
	return newLocalDispatchWith(cfg, logger, runner, runner, errOut)
}

func newLocalDispatchWith(cfg *config.Config, logger logrus.FieldLogger, pr *spawn.ProcessRunner, r hook.Runner, errOut io.Writer) (*localDispatch, error) {
	d := hook.NewDispatcher(r, logger)
	if err := d.Load(cfg.Plugin); err != nil {
		report.New(errOut).Error(err)
		return nil, fmt.Errorf("%s: invalid hook configuration", cfg.Paths.ConfigPath)
	}
	return &localDispatch{logger: logger, runner: pr, dispatcher: d}, nil
}

func (ld *localDispatch) process(id string, ev event.Event) hook.Result {
	log := ld.logger.WithFields(logrus.Fields{"event_id": id, "kind": ev.Kind().String()})
	res := ld.dispatcher.Process(ev)
	log.Debugf("dispatched %d hooks", res.Matched)
	return res
}

type pipeSummary struct {
	events  int
	matched int
	invalid int
}

func (ld *localDispatch) pipe(in io.Reader) (pipeSummary, error) {
	var sum pipeSummary
	sc := bufio.NewScanner(in)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	line := 0
	for sc.Scan() {
		line++
		text := strings.TrimSpace(sc.Text())
		if text == "" {
			continue
		}
		ev, err := event.Decode([]byte(text))
		if err != nil {
			sum.invalid++
			ld.logger.WithField("line", line).Warnf("skip: %v", err)
			continue
		}
		sum.events++
		sum.matched += ld.process(uuid.NewString(), ev).Matched
	}
	return sum, sc.Err()
}

func forwardLines(in io.Reader, socketPath string, errOut io.Writer) error {
	sc := bufio.NewScanner(in)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		text := strings.TrimSpace(sc.Text())
		if text == "" {
			continue
		}
		if !json.Valid([]byte(text)) {
			fmt.Fprintf(errOut, "skip invalid JSON: %s\n", text)
			continue
		}
		if _, err := CallSimple(socketPath, Request{Op: OpEvent, Event: json.RawMessage(text)}); err != nil {
			return err
		}
	}
	return sc.Err()
}
