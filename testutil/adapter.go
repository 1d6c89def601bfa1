package testutil

import (
	"context"
	"fmt"

	"github.com/comalice/hsm"
	"github.com/comalice/hsm/internal/extensibility"
)

// Driver feeds events to a machine. The same scenario can run against a
// machine called directly and one behind a Runner.
type Driver interface {
	Send(evt hsm.Event) error
	Current() hsm.StateID
	IsIn(state hsm.StateID) bool
	Stop()
}

// DirectDriver calls Dispatch on the caller's goroutine.
type DirectDriver[H any] struct {
	m *hsm.Machine[H]
}

// NewDirectDriver wraps m.
func NewDirectDriver[H any](m *hsm.Machine[H]) *DirectDriver[H] {
	return &DirectDriver[H]{m: m}
}

func (d *DirectDriver[H]) Send(evt hsm.Event) error    { return d.m.Dispatch(evt) }
func (d *DirectDriver[H]) Current() hsm.StateID        { return d.m.Current() }
func (d *DirectDriver[H]) IsIn(state hsm.StateID) bool { return d.m.IsIn(state) }
func (d *DirectDriver[H]) Stop()                       {}
func (d *DirectDriver[H]) Machine() *hsm.Machine[H]    { return d.m }

// RunnerDriver queues events on an extensibility.Runner and waits for each
// to be dispatched.
type RunnerDriver[H any] struct {
	m *hsm.Machine[H]
	r *extensibility.Runner
}

// NewRunnerDriver starts a runner for m.
func NewRunnerDriver[H any](ctx context.Context, m *hsm.Machine[H]) (*RunnerDriver[H], error) {
	r := extensibility.NewRunner(m)
	if err := r.Start(ctx); err != nil {
		return nil, err
	}
	return &RunnerDriver[H]{m: m, r: r}, nil
}

func (d *RunnerDriver[H]) Send(evt hsm.Event) error {
	return d.r.SendWait(context.Background(), evt)
}
func (d *RunnerDriver[H]) Current() hsm.StateID        { return d.m.Current() }
func (d *RunnerDriver[H]) IsIn(state hsm.StateID) bool { return d.m.IsIn(state) }
func (d *RunnerDriver[H]) Stop()                       { d.r.Stop() }

// Play sends one QHsmTst signal per letter of script.
func Play(d Driver, script string) error {
	for _, c := range script {
		sig, ok := EventByName(c)
		if !ok {
			return fmt.Errorf("unknown signal %q", c)
		}
		if err := d.Send(hsm.Event{ID: sig}); err != nil {
			return fmt.Errorf("signal %c: %w", c, err)
		}
	}
	return nil
}
