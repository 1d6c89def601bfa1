package primitives

import (
	"fmt"
	"time"
)

// StepKind classifies a trace step.
type StepKind string

const (
	StepDispatch StepKind = "dispatch" // event accepted by the machine
	StepHandle   StepKind = "handle"   // a state consumed the event
	StepIgnore   StepKind = "ignore"   // Top absorbed the event
	StepExit     StepKind = "exit"
	StepEntry    StepKind = "entry"
	StepInit     StepKind = "init"   // composite default initialization
	StepSettle   StepKind = "settle" // a leaf became current
)

// Step is one observable action of the engine.
type Step struct {
	Kind      StepKind `json:"kind" yaml:"kind"`
	State     StateID  `json:"state" yaml:"state"`
	StateName string   `json:"stateName,omitempty" yaml:"stateName,omitempty"`
	Event     EventID  `json:"event" yaml:"event"`
}

// Label renders the step the way hook traces are conventionally written,
// e.g. "S1-ENTRY" or "S21-INIT".
func (s Step) Label() string {
	name := s.StateName
	if name == "" {
		name = fmt.Sprintf("state(%d)", s.State)
	}
	switch s.Kind {
	case StepEntry:
		return name + "-ENTRY"
	case StepExit:
		return name + "-EXIT"
	case StepInit:
		return name + "-INIT"
	case StepHandle:
		return fmt.Sprintf("%s-HANDLE(%d)", name, s.Event)
	case StepSettle:
		return name + "-SETTLE"
	case StepIgnore:
		return fmt.Sprintf("IGNORE(%d)", s.Event)
	default:
		return fmt.Sprintf("DISPATCH(%d)", s.Event)
	}
}

// TransitionRecord summarizes one completed transition for publishers.
type TransitionRecord struct {
	MachineID string    `json:"machineID" yaml:"machineID"`
	Chart     string    `json:"chart" yaml:"chart"`
	Event     EventID   `json:"event" yaml:"event"`
	Current   StateID   `json:"current" yaml:"current"` // state whose handler fired
	Source    StateID   `json:"source" yaml:"source"`   // leaf before the transition
	Target    StateID   `json:"target" yaml:"target"`
	Leaf      StateID   `json:"leaf" yaml:"leaf"` // leaf after default initialization
	Timestamp time.Time `json:"timestamp" yaml:"timestamp"`
}

// String renders "source -> leaf".
func (r TransitionRecord) String() string {
	return fmt.Sprintf("%d -> %d", r.Source, r.Leaf)
}
