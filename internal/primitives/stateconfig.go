package primitives

import (
	"fmt"
	"strings"
)

// StateID identifies a state within a chart.
type StateID int

// Top is the root of every chart. It has no parent and absorbs events no
// other state handled.
const Top StateID = 0

// Kind is the variant of a state.
type Kind string

const (
	KindTop       Kind = "top"
	KindComposite Kind = "composite"
	KindLeaf      Kind = "leaf"
)

// StateConfig defines one state and, through Children, its subtree.
type StateConfig struct {
	ID       StateID            `json:"id" yaml:"id"`
	Name     string             `json:"name" yaml:"name"`
	Kind     Kind               `json:"kind,omitempty" yaml:"kind,omitempty"`
	Initial  string             `json:"initial,omitempty" yaml:"initial,omitempty"` // default descendant (composite only)
	On       []TransitionConfig `json:"on,omitempty" yaml:"on,omitempty"`
	Children []*StateConfig     `json:"children,omitempty" yaml:"children,omitempty"`
}

// NewStateConfig creates a StateConfig. An empty kind is inferred later from
// the presence of children.
func NewStateConfig(id StateID, name string, kind Kind) *StateConfig {
	return &StateConfig{ID: id, Name: name, Kind: kind}
}

// WithInitial sets the default descendant by name.
func (s *StateConfig) WithInitial(initial string) *StateConfig {
	s.Initial = initial
	return s
}

// AddChild appends a child state.
func (s *StateConfig) AddChild(child *StateConfig) *StateConfig {
	s.Children = append(s.Children, child)
	return s
}

// Transition declares a static transition taken on event.
func (s *StateConfig) Transition(event, target string) *StateConfig {
	return s.AddTransition(TransitionConfig{Event: event, Target: target})
}

// AddTransition declares a transition, possibly guarded or internal.
func (s *StateConfig) AddTransition(t TransitionConfig) *StateConfig {
	s.On = append(s.On, t)
	return s
}

// Clone returns a deep copy of s and its subtree.
func (s *StateConfig) Clone() *StateConfig {
	if s == nil {
		return nil
	}
	c := *s
	c.On = nil
	for _, t := range s.On {
		c.On = append(c.On, t.clone())
	}
	c.Children = nil
	for _, child := range s.Children {
		c.Children = append(c.Children, child.Clone())
	}
	return &c
}

// EffectiveKind resolves an omitted Kind from the shape of the subtree.
func (s *StateConfig) EffectiveKind() Kind {
	if s.Kind != "" {
		return s.Kind
	}
	if len(s.Children) > 0 {
		return KindComposite
	}
	return KindLeaf
}

// Walk visits s and its descendants depth-first, parents before children.
// Returning false from fn prunes the subtree.
func (s *StateConfig) Walk(fn func(parent, state *StateConfig) bool) {
	s.walk(nil, fn)
}

func (s *StateConfig) walk(parent *StateConfig, fn func(parent, state *StateConfig) bool) {
	if !fn(parent, s) {
		return
	}
	for _, child := range s.Children {
		child.walk(s, fn)
	}
}

// Validate checks the local shape of s and its subtree. Cross-references
// (initial names, transition targets, id uniqueness) are checked by
// ChartConfig.Validate.
func (s *StateConfig) Validate() error {
	if s.ID == Top {
		return invalid(fmt.Errorf("state %q: id 0 is reserved for top", s.Name))
	}
	if s.ID < 0 {
		return invalid(fmt.Errorf("state %q: negative id %d", s.Name, s.ID))
	}
	if strings.TrimSpace(s.Name) == "" {
		return invalid(fmt.Errorf("state %d: name is required", s.ID))
	}

	switch s.EffectiveKind() {
	case KindLeaf:
		if s.Initial != "" {
			return invalid(fmt.Errorf("leaf state %s cannot have initial", s.Name))
		}
		if len(s.Children) > 0 {
			return invalid(fmt.Errorf("leaf state %s cannot have children", s.Name))
		}
	case KindComposite:
		if len(s.Children) == 0 {
			return invalid(fmt.Errorf("composite state %s requires children", s.Name))
		}
		if s.Initial == "" {
			return invalid(fmt.Errorf("state %s: %w", s.Name, ErrMissingDefault))
		}
	case KindTop:
		return invalid(fmt.Errorf("state %s: only the chart root may be top", s.Name))
	default:
		return invalid(fmt.Errorf("invalid kind %q for state %s", s.Kind, s.Name))
	}

	for i := range s.On {
		if err := s.On[i].Validate(); err != nil {
			return fmt.Errorf("state %s transition %d: %w", s.Name, i, err)
		}
	}

	for _, child := range s.Children {
		if child == nil {
			return invalid(fmt.Errorf("state %s has a nil child", s.Name))
		}
		if err := child.Validate(); err != nil {
			return err
		}
	}
	return nil
}
