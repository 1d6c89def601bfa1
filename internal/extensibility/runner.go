package extensibility

import (
	"context"
	"errors"
	"io"
	"sync"
	"sync/atomic"

	"github.com/charmbracelet/log"

	"github.com/comalice/hsm/internal/primitives"
)

var (
	// ErrQueueFull is returned by Send when the runner cannot accept more
	// events without blocking.
	ErrQueueFull = errors.New("runner queue full")
	// ErrRunnerStopped is returned for events sent after the runner stopped.
	ErrRunnerStopped = errors.New("runner stopped")
	// ErrRunnerStarted is returned by a second Start.
	ErrRunnerStarted = errors.New("runner already started")
)

// DefaultQueueSize is the queue capacity used when none is configured.
const DefaultQueueSize = 64

// Dispatcher is anything that consumes events one at a time, such as an
// hsm.Machine.
type Dispatcher interface {
	Dispatch(evt primitives.Event) error
}

// RunnerOption configures a Runner.
type RunnerOption func(*Runner)

// WithQueueSize sets the event queue capacity.
func WithQueueSize(size int) RunnerOption {
	return func(r *Runner) {
		if size > 0 {
			r.queue = make(chan request, size)
		}
	}
}

// WithRunnerLogger sets the logger for dispatch failures of events sent
// with Send.
func WithRunnerLogger(l *log.Logger) RunnerOption {
	return func(r *Runner) {
		if l != nil {
			r.logger = l
		}
	}
}

// WithErrorHandler receives dispatch errors of events sent with Send, whose
// callers are not waiting for a result.
func WithErrorHandler(fn func(evt primitives.Event, err error)) RunnerOption {
	return func(r *Runner) {
		r.onError = fn
	}
}

type request struct {
	evt  primitives.Event
	done chan error
}

// Runner owns a Dispatcher and feeds it from a buffered queue on a single
// goroutine, so the dispatcher never sees concurrent calls. Events are
// dispatched in the order they were queued.
type Runner struct {
	d       Dispatcher
	queue   chan request
	logger  *log.Logger
	onError func(primitives.Event, error)

	started  atomic.Bool
	stop     chan struct{}
	stopOnce sync.Once
	// closing is closed when the loop ends; enqueue holds mu for reading
	// while it sends, finish holds it for writing while it drains
	closing chan struct{}
	mu      sync.RWMutex
	exited  chan struct{}
}

// NewRunner wraps d. Events may be queued before Start.
func NewRunner(d Dispatcher, opts ...RunnerOption) *Runner {
	r := &Runner{
		d:       d,
		queue:   make(chan request, DefaultQueueSize),
		logger:  log.New(io.Discard),
		stop:    make(chan struct{}),
		closing: make(chan struct{}),
		exited:  make(chan struct{}),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Start launches the dispatch goroutine. It runs until Stop is called or
// ctx is cancelled.
func (r *Runner) Start(ctx context.Context) error {
	if !r.started.CompareAndSwap(false, true) {
		select {
		case <-r.exited:
			return ErrRunnerStopped
		default:
			return ErrRunnerStarted
		}
	}
	go r.loop(ctx)
	return nil
}

// Stop ends the dispatch goroutine and waits for it. Queued events that
// were not dispatched yet fail with ErrRunnerStopped; for events queued with
// Send the failure goes to the error handler.
func (r *Runner) Stop() {
	r.stopOnce.Do(func() { close(r.stop) })
	if r.started.CompareAndSwap(false, true) {
		r.finish()
		return
	}
	<-r.exited
}

// Done is closed once the runner has stopped.
func (r *Runner) Done() <-chan struct{} {
	return r.exited
}

// Len returns the number of queued events.
func (r *Runner) Len() int {
	return len(r.queue)
}

// Send queues evt without waiting. It returns ErrQueueFull instead of
// blocking when the queue is at capacity.
func (r *Runner) Send(evt primitives.Event) error {
	return r.enqueue(context.Background(), request{evt: evt}, false)
}

// SendWait queues evt, blocking while the queue is full, and waits until it
// has been dispatched. It returns the dispatch error.
func (r *Runner) SendWait(ctx context.Context, evt primitives.Event) error {
	req := request{evt: evt, done: make(chan error, 1)}
	if err := r.enqueue(ctx, req, true); err != nil {
		return err
	}
	select {
	case err := <-req.done:
		return err
	case <-r.exited:
		select {
		case err := <-req.done:
			return err
		default:
			return ErrRunnerStopped
		}
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Attach forwards every event of src into the runner until src closes,
// ctx is cancelled or the runner stops. Forwarding blocks while the queue
// is full. The returned channel is closed when forwarding ends, after the
// last forwarded event was dispatched.
func (r *Runner) Attach(ctx context.Context, src EventSource) <-chan struct{} {
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			select {
			case <-ctx.Done():
				return
			case <-r.exited:
				return
			case evt, ok := <-src.Events():
				if !ok {
					return
				}
				if err := r.SendWait(ctx, evt); err != nil {
					if errors.Is(err, ErrRunnerStopped) || ctx.Err() != nil {
						return
					}
					r.report(evt, err)
				}
			}
		}
	}()
	return done
}

func (r *Runner) enqueue(ctx context.Context, req request, block bool) error {
	r.mu.RLock()
	defer r.mu.RUnlock()
	select {
	case <-r.closing:
		return ErrRunnerStopped
	case <-r.stop:
		return ErrRunnerStopped
	default:
	}
	if !block {
		select {
		case r.queue <- req:
			return nil
		default:
			return ErrQueueFull
		}
	}
	select {
	case r.queue <- req:
		return nil
	case <-r.closing:
		return ErrRunnerStopped
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (r *Runner) loop(ctx context.Context) {
	defer r.finish()
	for {
		// stop wins over pending work
		select {
		case <-r.stop:
			return
		case <-ctx.Done():
			return
		default:
		}
		select {
		case <-r.stop:
			return
		case <-ctx.Done():
			return
		case req := <-r.queue:
			r.run(req)
		}
	}
}

func (r *Runner) run(req request) {
	err := r.d.Dispatch(req.evt)
	if req.done != nil {
		req.done <- err
		return
	}
	if err != nil {
		r.report(req.evt, err)
	}
}

func (r *Runner) report(evt primitives.Event, err error) {
	if r.onError != nil {
		r.onError(evt, err)
		return
	}
	r.logger.Error("dispatch failed", "event", evt.ID, "err", err)
}

// finish fails whatever is still queued and marks the runner stopped. It
// runs exactly once, either when the loop ends or on Stop of a runner that
// never started.
func (r *Runner) finish() {
	close(r.closing)
	r.mu.Lock()
	var dropped []primitives.Event
	for drained := false; !drained; {
		select {
		case req := <-r.queue:
			if req.done != nil {
				req.done <- ErrRunnerStopped
			} else {
				dropped = append(dropped, req.evt)
			}
		default:
			drained = true
		}
	}
	close(r.exited)
	r.mu.Unlock()

	for _, evt := range dropped {
		r.report(evt, ErrRunnerStopped)
	}
}
