package primitives

import (
	"errors"
	"fmt"
)

// Configuration errors. Every error returned while validating or compiling a
// chart wraps ErrInvalidChart plus one of the more specific sentinels below.
var (
	ErrInvalidChart         = errors.New("invalid chart")
	ErrDuplicateState       = errors.New("duplicate state")
	ErrUnknownState         = errors.New("unknown state")
	ErrUnknownEvent         = errors.New("unknown event")
	ErrMissingDefault       = errors.New("composite state has no default")
	ErrDefaultCycle         = errors.New("default initialization cycle")
	ErrDefaultNotDescendant = errors.New("default is not a descendant")
)

// Runtime errors.
var (
	ErrReentrantDispatch = errors.New("dispatch called while a dispatch is in progress")
	ErrMachineFaulted    = errors.New("machine faulted by a failed transition")
	ErrInvalidTransition = errors.New("invalid transition")
)

// invalid wraps err with ErrInvalidChart so callers can test for either.
func invalid(err error) error {
	return fmt.Errorf("%w: %w", ErrInvalidChart, err)
}
