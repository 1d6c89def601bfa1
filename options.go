package hsm

import (
	"io"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
)

// Tracer observes every step of the engine: dispatch, handling, each exit,
// entry and init action, and the final settle on a leaf. Trace is called
// synchronously from Dispatch, before the corresponding action runs.
type Tracer interface {
	Trace(machineID string, step Step)
}

// Publisher receives a record after each completed transition. A Publish
// error is logged and does not affect the machine.
type Publisher interface {
	Publish(rec TransitionRecord) error
}

// TracerFunc adapts a function to Tracer.
type TracerFunc func(machineID string, step Step)

func (f TracerFunc) Trace(machineID string, step Step) { f(machineID, step) }

// Option configures a Machine.
type Option func(*settings)

type settings struct {
	id        string
	logger    *log.Logger
	tracer    Tracer
	publisher Publisher
	clock     func() time.Time
}

func defaultSettings() settings {
	return settings{
		id:     uuid.NewString(),
		logger: log.New(io.Discard),
		clock:  time.Now,
	}
}

// WithID names the machine in logs, traces and records. Defaults to a
// random UUID.
func WithID(id string) Option {
	return func(s *settings) {
		s.id = id
	}
}

// WithLogger sets the logger used for dispatch diagnostics. Machines are
// silent by default.
func WithLogger(l *log.Logger) Option {
	return func(s *settings) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithTracer installs a Tracer.
func WithTracer(t Tracer) Option {
	return func(s *settings) {
		s.tracer = t
	}
}

// WithPublisher installs a Publisher.
func WithPublisher(p Publisher) Option {
	return func(s *settings) {
		s.publisher = p
	}
}

// WithClock overrides the time source used to stamp transition records.
func WithClock(now func() time.Time) Option {
	return func(s *settings) {
		if now != nil {
			s.clock = now
		}
	}
}
