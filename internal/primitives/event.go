package primitives

import (
	"errors"
	"fmt"
	"strings"
)

// EventID identifies an application signal.
type EventID int

// Event is the value delivered to a machine. Payload is application data the
// handlers may inspect; the engine never reads it.
//
// Events are passed by value and should not be mutated after construction.
type Event struct {
	ID      EventID
	Payload any
}

// NewEvent creates an Event.
func NewEvent(id EventID, payload any) Event {
	return Event{ID: id, Payload: payload}
}

// EventConfig names a signal so that YAML charts and trace output can refer
// to it.
type EventConfig struct {
	ID   EventID `json:"id" yaml:"id"`
	Name string  `json:"name" yaml:"name"`
}

// Validate checks the event has a usable name.
func (e EventConfig) Validate() error {
	if strings.TrimSpace(e.Name) == "" {
		return invalid(fmt.Errorf("event %d: name is required", e.ID))
	}
	if e.ID < 0 {
		return invalid(errors.New("event id must be non-negative"))
	}
	return nil
}
