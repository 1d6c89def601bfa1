package hsm

import (
	"fmt"

	"github.com/comalice/hsm/internal/core"
	"github.com/comalice/hsm/internal/primitives"
)

type (
	StateID = primitives.StateID
	EventID = primitives.EventID
	Event   = primitives.Event
	Kind    = primitives.Kind

	// ChartConfig is the declarative, serializable form of a chart.
	ChartConfig = primitives.ChartConfig
	// Step is one observable engine action, delivered to a Tracer.
	Step     = primitives.Step
	StepKind = primitives.StepKind
	// TransitionRecord summarizes a completed transition for a Publisher.
	TransitionRecord = primitives.TransitionRecord
)

// Top is the implicit root of every chart.
const Top = primitives.Top

const (
	KindTop       = primitives.KindTop
	KindComposite = primitives.KindComposite
	KindLeaf      = primitives.KindLeaf
)

const (
	StepDispatch = primitives.StepDispatch
	StepHandle   = primitives.StepHandle
	StepIgnore   = primitives.StepIgnore
	StepExit     = primitives.StepExit
	StepEntry    = primitives.StepEntry
	StepInit     = primitives.StepInit
	StepSettle   = primitives.StepSettle
)

// NewEvent creates an Event.
func NewEvent(id EventID, payload any) Event {
	return primitives.NewEvent(id, payload)
}

// Action is an entry, exit or init hook. A non-nil error aborts the running
// transition and faults the machine.
type Action[H any] func(host H) error

// Handler decides what a state does with an event. Returning Unhandled hands
// the event to the parent state; Handled consumes it without changing state;
// Tran(target) consumes it and transitions.
type Handler[H any] func(host H, evt Event) (Outcome, error)

// Guard decides whether a declared transition is taken.
type Guard[H any] func(host H, evt Event) bool

// Outcome is the verdict of a Handler.
type Outcome struct {
	consumed bool
	tran     bool
	target   StateID
}

var (
	Unhandled = Outcome{}
	Handled   = Outcome{consumed: true}
)

// Tran consumes the event and transitions to target.
func Tran(target StateID) Outcome {
	return Outcome{consumed: true, tran: true, target: target}
}

// Consumed reports whether the event stops delegating at this state.
func (o Outcome) Consumed() bool { return o.consumed }

// Target returns the transition target, if any.
func (o Outcome) Target() (StateID, bool) { return o.target, o.tran }

func (o Outcome) String() string {
	switch {
	case o.tran:
		return fmt.Sprintf("tran(%d)", o.target)
	case o.consumed:
		return "handled"
	default:
		return "unhandled"
	}
}

type behavior[H any] struct {
	entry  Action[H]
	exit   Action[H]
	init   Action[H]
	handle Handler[H]
}

// Chart is a compiled, immutable state chart with its behaviour bound to
// host type H. One Chart may drive any number of machines.
type Chart[H any] struct {
	hier      *core.Hierarchy
	behaviors map[StateID]*behavior[H]
	guards    map[string]Guard[H]
	actions   map[string]Action[H]
	version   string
}

// Name of the chart.
func (c *Chart[H]) Name() string { return c.hier.Name() }

// Version is the configured version or a hash of the chart structure.
func (c *Chart[H]) Version() string { return c.version }

// Config returns the declarative form the chart was compiled from. It must
// not be modified.
func (c *Chart[H]) Config() *ChartConfig { return c.hier.Config() }

// States lists every state, parents before children, starting with Top.
func (c *Chart[H]) States() []StateID { return c.hier.States() }

// Lookup resolves a state name.
func (c *Chart[H]) Lookup(name string) (StateID, bool) { return c.hier.Lookup(name) }

// StateName returns the configured name of a state.
func (c *Chart[H]) StateName(id StateID) string { return c.hier.StateName(id) }

// EventName returns the configured name of an event.
func (c *Chart[H]) EventName(id EventID) string { return c.hier.Config().EventName(id) }

// Kind returns whether id is Top, a composite or a leaf.
func (c *Chart[H]) Kind(id StateID) Kind { return c.hier.Kind(id) }

// Parent returns the parent of id; Top has none.
func (c *Chart[H]) Parent(id StateID) (StateID, bool) { return c.hier.Parent(id) }

// Default returns the default descendant of a composite.
func (c *Chart[H]) Default(id StateID) (StateID, bool) { return c.hier.Default(id) }

// Path returns id's ancestors from Top down to id.
func (c *Chart[H]) Path(id StateID) []StateID { return c.hier.Path(id) }

// Contains reports whether ancestor is id or one of its ancestors.
func (c *Chart[H]) Contains(ancestor, id StateID) bool { return c.hier.Contains(ancestor, id) }

func (c *Chart[H]) behavior(id StateID) *behavior[H] {
	if b, ok := c.behaviors[id]; ok {
		return b
	}
	return &behavior[H]{}
}
