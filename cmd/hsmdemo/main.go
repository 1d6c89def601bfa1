// Command hsmdemo runs a hierarchical state machine from the command line.
//
// Without -chart it runs the built-in QHsmTst reference chart and prints the
// hooks each signal runs:
//
//	hsmdemo -events giaddceegii
//	hsmdemo -i            # type signals a..i, q to quit
//
// With -chart it runs a YAML or JSON chart and takes comma separated event
// names:
//
//	hsmdemo -chart lamp.yaml -events toggle,dim,toggle -dot lamp.dot
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/charmbracelet/log"

	"github.com/comalice/hsm"
	"github.com/comalice/hsm/internal/extensibility"
	"github.com/comalice/hsm/internal/production"
	"github.com/comalice/hsm/testutil"
)

type options struct {
	events      string
	chart       string
	traceDir    string
	dot         string
	interactive bool
	verbose     bool
}

func main() {
	var opts options
	flag.StringVar(&opts.events, "events", "", "signals to dispatch: letters for the built-in chart, comma separated names with -chart")
	flag.StringVar(&opts.chart, "chart", "", "YAML or JSON chart to run instead of QHsmTst")
	flag.StringVar(&opts.traceDir, "trace-dir", "", "write the recorded trace as YAML into this directory")
	flag.StringVar(&opts.dot, "dot", "", "write a Graphviz rendering of the final configuration to this file")
	flag.BoolVar(&opts.interactive, "i", false, "read signals from stdin")
	flag.BoolVar(&opts.verbose, "v", false, "log every engine step")
	flag.Parse()

	logger := log.NewWithOptions(os.Stderr, log.Options{Prefix: "hsmdemo"})
	if opts.verbose {
		logger.SetLevel(log.DebugLevel)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var err error
	if opts.chart == "" {
		if opts.events == "" && !opts.interactive {
			opts.events = testutil.QHsmTstEvents
		}
		err = runQHsmTst(ctx, opts, logger)
	} else {
		err = runChart(ctx, opts, logger)
	}
	if err != nil {
		logger.Error("demo failed", "err", err)
		os.Exit(1)
	}
}

// session is a running machine plus the glue to talk to it from text.
type session[H any] struct {
	chart  *hsm.Chart[H]
	m      *hsm.Machine[H]
	rec    *production.TraceRecorder
	feed   *production.ChannelPublisher
	logged chan struct{} // closed once every published record was logged
	out    io.Writer
	parse  func(string) ([]hsm.Event, error)
	report func(w io.Writer, evt hsm.Event)
}

// closeFeed ends the record stream and waits for its logger to drain it.
// It must be called after the last dispatch.
func (s *session[H]) closeFeed(logger *log.Logger) {
	s.feed.Close()
	<-s.logged
	if n := s.feed.Dropped(); n > 0 {
		logger.Warn("transition records dropped", "count", n)
	}
}

// Dispatch runs evt and prints what happened. It is called on the runner
// goroutine.
func (s *session[H]) Dispatch(evt hsm.Event) error {
	err := s.m.Dispatch(evt)
	s.report(s.out, evt)
	return err
}

func start[H any](chart *hsm.Chart[H], host H, opts options, logger *log.Logger) (*session[H], error) {
	rec := production.NewTraceRecorder(chart.Name(), chart.Version(), 0)
	tracer := hsm.Tracer(rec)
	if opts.verbose {
		lt := extensibility.NewLoggingTracer(logger).WithEventNames(chart.EventName)
		tracer = hsm.TracerFunc(func(id string, step hsm.Step) {
			rec.Trace(id, step)
			lt.Trace(id, step)
		})
	}

	records := make(chan hsm.TransitionRecord, 16)
	s := &session[H]{
		chart:  chart,
		rec:    rec,
		feed:   production.NewChannelPublisher(records),
		logged: make(chan struct{}),
		out:    os.Stdout,
	}
	go func() {
		defer close(s.logged)
		for r := range records {
			logger.Info("transition", "event", chart.EventName(r.Event),
				"from", chart.StateName(r.Source), "to", chart.StateName(r.Leaf))
		}
	}()

	m, err := hsm.New(chart, host,
		hsm.WithLogger(logger),
		hsm.WithTracer(tracer),
		hsm.WithPublisher(production.MultiPublisher{rec, s.feed}),
	)
	if err != nil {
		s.closeFeed(logger)
		return nil, err
	}
	s.m = m
	return s, nil
}

func run[H any](ctx context.Context, s *session[H], opts options, logger *log.Logger) error {
	runner := extensibility.NewRunner(s, extensibility.WithRunnerLogger(logger))
	if err := runner.Start(ctx); err != nil {
		s.closeFeed(logger)
		return err
	}
	err := pump(ctx, s, runner, opts, logger)
	runner.Stop()
	s.closeFeed(logger)
	if err != nil {
		return err
	}
	return finish(ctx, s, opts)
}

// pump feeds the scripted events, then stdin when interactive.
func pump[H any](ctx context.Context, s *session[H], runner *extensibility.Runner, opts options, logger *log.Logger) error {
	if opts.events != "" {
		events, err := s.parse(opts.events)
		if err != nil {
			return err
		}
		<-runner.Attach(ctx, extensibility.NewSliceEventSource(events...))
	}

	if opts.interactive {
		src := extensibility.NewChannelEventSource(nil)
		done := runner.Attach(ctx, src)
		go readInput(ctx, os.Stdin, s.parse, src, logger)
		select {
		case <-done:
		case <-ctx.Done():
		}
	}
	return nil
}

// readInput turns stdin lines into events until EOF or a line "q".
func readInput(ctx context.Context, r io.Reader, parse func(string) ([]hsm.Event, error), src *extensibility.ChannelEventSource, logger *log.Logger) {
	defer src.Close()
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "q" {
			return
		}
		if line == "" {
			continue
		}
		events, err := parse(line)
		if err != nil {
			logger.Warn("bad input", "err", err)
			continue
		}
		for _, evt := range events {
			if err := src.Send(ctx, evt); err != nil {
				return
			}
		}
	}
}

func finish[H any](ctx context.Context, s *session[H], opts options) error {
	if opts.traceDir != "" {
		store, err := production.NewYAMLTraceStore(opts.traceDir)
		if err != nil {
			return err
		}
		if err := store.Save(ctx, s.rec.Snapshot()); err != nil {
			return err
		}
		fmt.Fprintln(os.Stdout, "trace written to", store.Path(s.m.ID()))
	}

	if opts.dot != "" {
		var active []string
		for _, id := range s.chart.Path(s.m.Current()) {
			active = append(active, s.chart.StateName(id))
		}
		dot := (&production.Visualizer{}).ExportDOT(s.chart.Config(), active)
		if err := os.WriteFile(opts.dot, []byte(dot), 0o644); err != nil {
			return fmt.Errorf("write %s: %w", opts.dot, err)
		}
	}
	return nil
}

func runQHsmTst(ctx context.Context, opts options, logger *log.Logger) error {
	host := &testutil.QHost{}
	s, err := start(testutil.QHsmTst(), host, opts, logger)
	if err != nil {
		return err
	}
	fmt.Printf("init: %s\n", strings.Join(host.Take(), " "))

	s.parse = parseSignals
	s.report = func(w io.Writer, evt hsm.Event) {
		fmt.Fprintf(w, "%s: %s\n", strings.ToLower(testutil.EventName(evt.ID)), strings.Join(host.Take(), " "))
	}
	return run(ctx, s, opts, logger)
}

// parseSignals reads QHsmTst signals, one letter each.
func parseSignals(in string) ([]hsm.Event, error) {
	var events []hsm.Event
	for _, c := range in {
		sig, ok := testutil.EventByName(c)
		if !ok {
			return nil, fmt.Errorf("unknown signal %q", c)
		}
		events = append(events, hsm.Event{ID: sig})
	}
	return events, nil
}

func runChart(ctx context.Context, opts options, logger *log.Logger) error {
	b, err := hsm.LoadChart[*hsm.Context](opts.chart)
	if err != nil {
		return err
	}
	chart, err := b.Build()
	if err != nil {
		return err
	}

	s, err := start(chart, hsm.NewContext(), opts, logger)
	if err != nil {
		return err
	}

	seen := 0
	labels := func() []string {
		tr := s.rec.Snapshot()
		var out []string
		for _, step := range tr.Steps[seen:] {
			switch step.Kind {
			case hsm.StepExit, hsm.StepEntry, hsm.StepInit:
				out = append(out, step.Label())
			}
		}
		seen = len(tr.Steps)
		return out
	}
	fmt.Printf("init: %s\n", strings.Join(labels(), " "))

	s.parse = func(in string) ([]hsm.Event, error) {
		var events []hsm.Event
		for _, name := range strings.Split(in, ",") {
			ev, err := chart.Config().EventByName(strings.TrimSpace(name))
			if err != nil {
				return nil, err
			}
			events = append(events, hsm.Event{ID: ev.ID})
		}
		return events, nil
	}
	s.report = func(w io.Writer, evt hsm.Event) {
		fmt.Fprintf(w, "%s: %s -> %s\n", chart.EventName(evt.ID), strings.Join(labels(), " "), chart.StateName(s.m.Current()))
	}
	return run(ctx, s, opts, logger)
}
