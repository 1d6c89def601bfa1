package primitives

import (
	"errors"
	"fmt"
)

// ChartBuilder assembles a ChartConfig from flat declarations keyed by id.
// Parents must be declared before their children; defaults and transition
// targets may refer forward and are resolved by Build.
type ChartBuilder struct {
	config   *ChartConfig
	states   map[StateID]*StateConfig
	defaults map[StateID]StateID
	on       []pendingTransition
	errs     []error
}

type pendingTransition struct {
	state StateID
	Declaration
}

// Declaration is a transition in id form, as ChartBuilder records it.
// Internal transitions leave Target unset.
type Declaration struct {
	Event    EventID
	Target   StateID
	Internal bool
	Guard    string
	Actions  []string
}

// NewChartBuilder creates an empty builder for a chart called name.
func NewChartBuilder(name string) *ChartBuilder {
	return &ChartBuilder{
		config:   &ChartConfig{Name: name},
		states:   map[StateID]*StateConfig{},
		defaults: map[StateID]StateID{},
	}
}

// FromConfig seeds a builder with a copy of an existing chart so more
// declarations can be layered on top.
func FromConfig(cfg *ChartConfig) *ChartBuilder {
	cfg = cfg.Clone()
	b := NewChartBuilder(cfg.Name)
	b.config = cfg
	cfg.Root().Walk(func(_, s *StateConfig) bool {
		if s.ID != Top {
			b.states[s.ID] = s
		}
		return true
	})
	return b
}

// Event names a signal.
func (b *ChartBuilder) Event(id EventID, name string) *ChartBuilder {
	b.config.Events = append(b.config.Events, EventConfig{ID: id, Name: name})
	return b
}

// Version pins the chart version instead of a content hash.
func (b *ChartBuilder) Version(v string) *ChartBuilder {
	b.config.Version = v
	return b
}

// State declares a state under parent. Use Top as parent for top-level
// states.
func (b *ChartBuilder) State(id StateID, name string, kind Kind, parent StateID) *StateConfig {
	s := NewStateConfig(id, name, kind)
	if id == Top {
		b.errs = append(b.errs, fmt.Errorf("state %s: id 0 is reserved for top: %w", name, ErrDuplicateState))
		return s
	}
	if _, ok := b.states[id]; ok {
		b.errs = append(b.errs, fmt.Errorf("state %d (%s): %w", id, name, ErrDuplicateState))
		return s
	}
	if parent == Top {
		b.config.States = append(b.config.States, s)
	} else {
		p, ok := b.states[parent]
		if !ok {
			b.errs = append(b.errs, fmt.Errorf("parent %d of %s: %w", parent, name, ErrUnknownState))
			return s
		}
		if p.Kind == KindLeaf {
			b.errs = append(b.errs, fmt.Errorf("leaf state %s cannot have child %s", p.Name, name))
			return s
		}
		p.AddChild(s)
	}
	b.states[id] = s
	return s
}

// Lookup returns a declared state.
func (b *ChartBuilder) Lookup(id StateID) (*StateConfig, bool) {
	s, ok := b.states[id]
	return s, ok
}

// LookupName returns a declared state by name.
func (b *ChartBuilder) LookupName(name string) (*StateConfig, bool) {
	for _, s := range b.states {
		if s.Name == name {
			return s, true
		}
	}
	return nil, false
}

// Default sets the default descendant of a composite (or of Top).
func (b *ChartBuilder) Default(parent, child StateID) *ChartBuilder {
	b.defaults[parent] = child
	return b
}

// On declares a static transition.
func (b *ChartBuilder) On(state StateID, event EventID, target StateID) *ChartBuilder {
	return b.Declare(state, Declaration{Event: event, Target: target})
}

// Declare records a transition of state, possibly guarded or internal.
func (b *ChartBuilder) Declare(state StateID, d Declaration) *ChartBuilder {
	d.Actions = append([]string(nil), d.Actions...)
	b.on = append(b.on, pendingTransition{state: state, Declaration: d})
	return b
}

// Build resolves forward references and validates the chart. The returned
// config is a copy: declarations made on b afterwards do not reach it.
func (b *ChartBuilder) Build() (*ChartConfig, error) {
	if len(b.errs) > 0 {
		return nil, invalid(errors.Join(b.errs...))
	}

	name := func(id StateID) (string, error) {
		if id == Top {
			return TopName, nil
		}
		s, ok := b.states[id]
		if !ok {
			return "", fmt.Errorf("state %d: %w", id, ErrUnknownState)
		}
		return s.Name, nil
	}

	for parent, child := range b.defaults {
		childName, err := name(child)
		if err != nil {
			return nil, invalid(fmt.Errorf("default of %d: %w", parent, err))
		}
		if parent == Top {
			b.config.Initial = childName
			continue
		}
		p, ok := b.states[parent]
		if !ok {
			return nil, invalid(fmt.Errorf("default for state %d: %w", parent, ErrUnknownState))
		}
		p.Initial = childName
	}

	for _, t := range b.on {
		s, ok := b.states[t.state]
		if !ok {
			return nil, invalid(fmt.Errorf("transition source %d: %w", t.state, ErrUnknownState))
		}
		tc := TransitionConfig{
			Event:   b.config.EventName(t.Event),
			Guard:   t.Guard,
			Actions: t.Actions,
		}
		if !t.Internal {
			targetName, err := name(t.Target)
			if err != nil {
				return nil, invalid(fmt.Errorf("transition from %s: %w", s.Name, err))
			}
			tc.Target = targetName
		}
		s.AddTransition(tc)
	}
	b.on = nil

	if err := b.config.Validate(); err != nil {
		return nil, err
	}
	return b.config.Clone(), nil
}
