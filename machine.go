package hsm

import (
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/log"

	"github.com/comalice/hsm/internal/core"
)

// Machine runs a Chart for one host value. It is always settled in a leaf
// state between calls to Dispatch.
//
// A Machine is not safe for concurrent use.
type Machine[H any] struct {
	id    string
	chart *Chart[H]
	host  H

	current StateID // settled leaf, or where a failed transition stopped
	active  StateID // innermost state whose entry ran and whose exit has not
	event   Event

	dispatching bool
	fault       error

	routes map[core.RouteKey]*core.Route

	logger    *log.Logger
	tracer    Tracer
	publisher Publisher
	clock     func() time.Time
}

// New creates a machine for chart and runs its initial transition: Top's
// init action, then entry down Top's default chain to a leaf. If an action
// fails the machine is not returned.
func New[H any](chart *Chart[H], host H, opts ...Option) (*Machine[H], error) {
	if chart == nil {
		return nil, fmt.Errorf("%w: nil chart", ErrInvalidChart)
	}
	s := defaultSettings()
	for _, opt := range opts {
		opt(&s)
	}

	m := &Machine[H]{
		id:        s.id,
		chart:     chart,
		host:      host,
		current:   Top,
		active:    Top,
		routes:    make(map[core.RouteKey]*core.Route),
		logger:    s.logger.With("machine", s.id, "chart", chart.Name()),
		tracer:    s.tracer,
		publisher: s.publisher,
		clock:     s.clock,
	}

	if err := m.settle(Top, Top, Top, Top); err != nil {
		m.logger.Error("initial transition failed", "err", err)
		return nil, err
	}
	m.logger.Debug("started", "state", chart.StateName(m.current))
	return m, nil
}

// ID returns the machine identifier.
func (m *Machine[H]) ID() string { return m.id }

// Chart returns the chart the machine runs.
func (m *Machine[H]) Chart() *Chart[H] { return m.chart }

// Host returns the host value passed to every action.
func (m *Machine[H]) Host() H { return m.host }

// Current returns the leaf state the machine is in. After a failed
// transition it is the innermost state still entered, which may be a
// composite or Top.
func (m *Machine[H]) Current() StateID { return m.current }

// Active returns the innermost state that is entered. It differs from
// Current only while a transition runs, as seen from its actions.
func (m *Machine[H]) Active() StateID { return m.active }

// Event returns the event being dispatched, or the last one dispatched.
func (m *Machine[H]) Event() Event { return m.event }

// IsIn reports whether the machine is in state, directly or in one of its
// descendants. A faulted machine is in the states its failed transition had
// not exited.
func (m *Machine[H]) IsIn(state StateID) bool {
	return m.chart.hier.Contains(state, m.current)
}

// Err returns the failure that faulted the machine, if any.
func (m *Machine[H]) Err() error { return m.fault }

// DispatchID dispatches an event without payload.
func (m *Machine[H]) DispatchID(id EventID) error {
	return m.Dispatch(Event{ID: id})
}

// Dispatch delivers evt to the current leaf. Unhandled events climb to the
// parent state until one consumes them; events nobody consumes are dropped.
// A consumed event may start a transition, which runs to completion before
// Dispatch returns.
//
// Dispatch returns ErrReentrantDispatch when called from an action and
// ErrMachineFaulted after a transition has failed. A handler error is
// returned without changing state.
func (m *Machine[H]) Dispatch(evt Event) error {
	if m.dispatching {
		return ErrReentrantDispatch
	}
	if m.fault != nil {
		return fmt.Errorf("%w: %w", ErrMachineFaulted, m.fault)
	}
	m.dispatching = true
	defer func() { m.dispatching = false }()

	m.event = evt
	m.trace(StepDispatch, m.current)

	for s := m.current; s != Top; s = m.parent(s) {
		out, err := m.handle(s, evt)
		if err != nil {
			m.logger.Warn("handler failed", "state", m.chart.StateName(s), "event", m.chart.EventName(evt.ID), "err", err)
			return fmt.Errorf("state %s handling %s: %w", m.chart.StateName(s), m.chart.EventName(evt.ID), err)
		}
		if !out.consumed {
			continue
		}
		m.trace(StepHandle, s)
		if !out.tran {
			m.logger.Debug("handled", "state", m.chart.StateName(s), "event", m.chart.EventName(evt.ID))
			return nil
		}
		return m.transition(s, out.target)
	}

	m.trace(StepIgnore, Top)
	m.logger.Debug("ignored", "state", m.chart.StateName(m.current), "event", m.chart.EventName(evt.ID))
	return nil
}

// handle asks s's handler about evt, then s's declared transitions in
// order. The first declared transition whose guard holds runs its actions
// and is taken.
func (m *Machine[H]) handle(s StateID, evt Event) (Outcome, error) {
	if fn := m.chart.behavior(s).handle; fn != nil {
		out, err := fn(m.host, evt)
		if err != nil || out.consumed {
			return out, err
		}
	}
	for _, t := range m.chart.hier.Transitions(s, evt.ID) {
		if t.Guard != "" && !m.chart.guards[t.Guard](m.host, evt) {
			continue
		}
		for _, a := range t.Actions {
			if err := m.chart.actions[a](m.host); err != nil {
				return Unhandled, fmt.Errorf("action %s: %w", a, err)
			}
		}
		if t.Internal {
			return Handled, nil
		}
		return Tran(t.Target), nil
	}
	return Unhandled, nil
}

// transition runs the exit, entry and init actions for current handling
// the event on behalf of the settled leaf and moving to target.
func (m *Machine[H]) transition(current, target StateID) error {
	source := m.current
	r, err := m.route(current, source, target)
	if err != nil {
		return err
	}

	for _, s := range r.Exit {
		m.trace(StepExit, s)
		if fn := m.chart.behavior(s).exit; fn != nil {
			if err := fn(m.host); err != nil {
				return m.fail(current, source, target, s, StepExit, err)
			}
		}
		m.active = m.parent(s)
	}
	for _, s := range r.Enter {
		if err := m.enter(s); err != nil {
			return m.fail(current, source, target, s, StepEntry, err)
		}
	}
	if err := m.settle(current, source, target, target); err != nil {
		return err
	}

	m.logger.Debug("transition",
		"event", m.chart.EventName(m.event.ID),
		"from", m.chart.StateName(source),
		"to", m.chart.StateName(m.current))
	m.publish(current, source, target)
	return nil
}

func (m *Machine[H]) route(current, source, target StateID) (*core.Route, error) {
	key := core.RouteKey{Current: current, Source: source, Target: target}
	if r, ok := m.routes[key]; ok {
		return r, nil
	}
	r, err := m.chart.hier.Route(current, source, target)
	if err != nil {
		return nil, err
	}
	m.routes[key] = r
	return r, nil
}

func (m *Machine[H]) enter(s StateID) error {
	m.trace(StepEntry, s)
	if fn := m.chart.behavior(s).entry; fn != nil {
		if err := fn(m.host); err != nil {
			return err
		}
	}
	m.active = s
	return nil
}

// settle performs default initialization from state down to a leaf: the
// composite's init action, then entry along its init path, repeated until a
// leaf is reached.
func (m *Machine[H]) settle(current, source, target, state StateID) error {
	hier := m.chart.hier
	for hier.Kind(state) != KindLeaf {
		m.trace(StepInit, state)
		if fn := m.chart.behavior(state).init; fn != nil {
			if err := fn(m.host); err != nil {
				return m.fail(current, source, target, state, StepInit, err)
			}
		}
		for _, s := range hier.InitPath(state) {
			if err := m.enter(s); err != nil {
				return m.fail(current, source, target, s, StepEntry, err)
			}
		}
		state, _ = hier.Default(state)
	}
	m.current = state
	m.active = state
	m.trace(StepSettle, state)
	return nil
}

func (m *Machine[H]) fail(current, source, target, state StateID, step StepKind, err error) error {
	terr := &TransitionError{
		Event:   m.event,
		Current: current,
		Source:  source,
		Target:  target,
		State:   state,
		Step:    step,
		Err:     err,
	}
	m.fault = terr
	m.current = m.active
	m.logger.Error("transition failed",
		"state", m.chart.StateName(state),
		"step", string(step),
		"active", m.chart.StateName(m.active),
		"err", err)
	return terr
}

func (m *Machine[H]) parent(s StateID) StateID {
	p, _ := m.chart.hier.Parent(s)
	return p
}

func (m *Machine[H]) trace(kind StepKind, s StateID) {
	if m.tracer == nil {
		return
	}
	m.tracer.Trace(m.id, Step{
		Kind:      kind,
		State:     s,
		StateName: m.chart.StateName(s),
		Event:     m.event.ID,
	})
}

func (m *Machine[H]) publish(current, source, target StateID) {
	if m.publisher == nil {
		return
	}
	rec := TransitionRecord{
		MachineID: m.id,
		Chart:     m.chart.Name(),
		Event:     m.event.ID,
		Current:   current,
		Source:    source,
		Target:    target,
		Leaf:      m.current,
		Timestamp: m.clock(),
	}
	if err := m.publisher.Publish(rec); err != nil {
		m.logger.Warn("publish failed", "record", rec.String(), "err", err)
	}
}

// IsTransitionError reports whether err came from a failed action and
// returns it.
func IsTransitionError(err error) (*TransitionError, bool) {
	var terr *TransitionError
	ok := errors.As(err, &terr)
	return terr, ok
}
