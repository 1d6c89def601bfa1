package primitives

import (
	"errors"
	"fmt"
	"strings"
)

// TopName is the reserved name of the root state.
const TopName = "Top"

// ChartConfig defines a complete state hierarchy. States are the children of
// the implicit Top state and Initial names Top's default descendant.
type ChartConfig struct {
	Name    string         `json:"name" yaml:"name"`
	Version string         `json:"version,omitempty" yaml:"version,omitempty"`
	Initial string         `json:"initial" yaml:"initial"`
	Events  []EventConfig  `json:"events,omitempty" yaml:"events,omitempty"`
	States  []*StateConfig `json:"states" yaml:"states"`
}

// Root returns a synthetic StateConfig for Top holding the chart's states.
func (c *ChartConfig) Root() *StateConfig {
	return &StateConfig{
		ID:       Top,
		Name:     TopName,
		Kind:     KindTop,
		Initial:  c.Initial,
		Children: c.States,
	}
}

// Clone returns a deep copy of c.
func (c *ChartConfig) Clone() *ChartConfig {
	cp := *c
	cp.Events = append([]EventConfig(nil), c.Events...)
	cp.States = nil
	for _, s := range c.States {
		cp.States = append(cp.States, s.Clone())
	}
	return &cp
}

// Validate checks the configuration:
//   - non-empty name, states and initial
//   - every state is well formed
//   - state ids and names are unique, events likewise
//   - initial names, transition events and transition targets resolve
//
// Ancestry rules for defaults are enforced when the hierarchy is compiled.
func (c *ChartConfig) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return invalid(errors.New("chart name is required"))
	}
	if len(c.States) == 0 {
		return invalid(errors.New("chart has no states"))
	}
	if c.Initial == "" {
		return invalid(fmt.Errorf("%s: %w", TopName, ErrMissingDefault))
	}

	for _, s := range c.States {
		if s == nil {
			return invalid(errors.New("nil state"))
		}
		if err := s.Validate(); err != nil {
			return err
		}
	}

	byID := map[StateID]string{}
	byName := map[string]*StateConfig{}
	var dup error
	c.Root().Walk(func(_, s *StateConfig) bool {
		if dup != nil {
			return false
		}
		if s.ID != Top && s.Name == TopName {
			dup = invalid(fmt.Errorf("state %d: name %q is reserved", s.ID, TopName))
			return false
		}
		if prev, ok := byID[s.ID]; ok {
			dup = invalid(fmt.Errorf("id %d used by %s and %s: %w", s.ID, prev, s.Name, ErrDuplicateState))
			return false
		}
		if _, ok := byName[s.Name]; ok {
			dup = invalid(fmt.Errorf("name %q: %w", s.Name, ErrDuplicateState))
			return false
		}
		byID[s.ID] = s.Name
		byName[s.Name] = s
		return true
	})
	if dup != nil {
		return dup
	}

	eventIDs := map[EventID]bool{}
	eventNames := map[string]bool{}
	for _, e := range c.Events {
		if err := e.Validate(); err != nil {
			return err
		}
		if eventIDs[e.ID] || eventNames[e.Name] {
			return invalid(fmt.Errorf("duplicate event %d (%s)", e.ID, e.Name))
		}
		eventIDs[e.ID] = true
		eventNames[e.Name] = true
	}

	for name, s := range byName {
		if s.Initial != "" {
			if _, ok := byName[s.Initial]; !ok {
				return invalid(fmt.Errorf("default %q of %s: %w", s.Initial, name, ErrUnknownState))
			}
		}
		for _, t := range s.On {
			if !eventNames[t.Event] {
				return invalid(fmt.Errorf("state %s: event %q: %w", name, t.Event, ErrUnknownEvent))
			}
			if t.Internal() {
				continue
			}
			if _, ok := byName[t.Target]; !ok {
				return invalid(fmt.Errorf("state %s on %s: target %q: %w", name, t.Event, t.Target, ErrUnknownState))
			}
		}
	}
	return nil
}

// Flatten returns every state of the chart, Top included, keyed by name.
func (c *ChartConfig) Flatten() map[string]*StateConfig {
	m := make(map[string]*StateConfig)
	c.Root().Walk(func(_, s *StateConfig) bool {
		if _, ok := m[s.Name]; ok {
			return false
		}
		m[s.Name] = s
		return true
	})
	return m
}

// FindState resolves a state by name.
func (c *ChartConfig) FindState(name string) (*StateConfig, error) {
	if name == "" {
		return nil, errors.New("state name cannot be empty")
	}
	s, ok := c.Flatten()[name]
	if !ok {
		return nil, fmt.Errorf("state %q: %w", name, ErrUnknownState)
	}
	return s, nil
}

// EventByName resolves an event by name.
func (c *ChartConfig) EventByName(name string) (EventConfig, error) {
	for _, e := range c.Events {
		if e.Name == name {
			return e, nil
		}
	}
	return EventConfig{}, fmt.Errorf("event %q: %w", name, ErrUnknownEvent)
}

// EventName returns the configured name of id, or a numeric fallback.
func (c *ChartConfig) EventName(id EventID) string {
	for _, e := range c.Events {
		if e.ID == id {
			return e.Name
		}
	}
	return fmt.Sprintf("event(%d)", id)
}
