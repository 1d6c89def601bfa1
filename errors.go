package hsm

import (
	"fmt"

	"github.com/comalice/hsm/internal/primitives"
)

// Configuration errors returned by Builder.Build and LoadChart. All of them
// also match ErrInvalidChart.
var (
	ErrInvalidChart         = primitives.ErrInvalidChart
	ErrDuplicateState       = primitives.ErrDuplicateState
	ErrUnknownState         = primitives.ErrUnknownState
	ErrUnknownEvent         = primitives.ErrUnknownEvent
	ErrMissingDefault       = primitives.ErrMissingDefault
	ErrDefaultCycle         = primitives.ErrDefaultCycle
	ErrDefaultNotDescendant = primitives.ErrDefaultNotDescendant
)

// Runtime errors.
var (
	ErrReentrantDispatch = primitives.ErrReentrantDispatch
	ErrMachineFaulted    = primitives.ErrMachineFaulted
	ErrInvalidTransition = primitives.ErrInvalidTransition
)

// TransitionError reports an entry, exit or init action that failed while a
// transition was running. The machine is left where the failure happened and
// refuses further events.
type TransitionError struct {
	Event   Event
	Current StateID // state whose handler started the transition
	Source  StateID // leaf the machine was in
	Target  StateID
	State   StateID  // state whose action failed
	Step    StepKind // exit, entry or init
	Err     error
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("transition %d -> %d: %s of state %d: %v", e.Source, e.Target, e.Step, e.State, e.Err)
}

func (e *TransitionError) Unwrap() error {
	return e.Err
}
