package hsm

import (
	"errors"
	"fmt"

	"github.com/comalice/hsm/internal/core"
	"github.com/comalice/hsm/internal/extensibility"
	"github.com/comalice/hsm/internal/primitives"
)

// Builder declares a chart's structure and binds behaviour of host type H to
// its states. Declaration errors are collected and reported by Build.
type Builder[H any] struct {
	cb        *primitives.ChartBuilder
	behaviors map[StateID]*behavior[H]
	guards    map[string]Guard[H]
	actions   map[string]Action[H]
	errs      []error
}

// StateBuilder configures one state. Its methods chain.
type StateBuilder[H any] struct {
	b  *Builder[H]
	id StateID
}

// NewBuilder starts an empty chart called name.
func NewBuilder[H any](name string) *Builder[H] {
	return newBuilder[H](primitives.NewChartBuilder(name))
}

func newBuilder[H any](cb *primitives.ChartBuilder) *Builder[H] {
	return &Builder[H]{
		cb:        cb,
		behaviors: make(map[StateID]*behavior[H]),
		guards:    make(map[string]Guard[H]),
		actions:   make(map[string]Action[H]),
	}
}

// FromConfig starts from a copy of a declared structure, typically one
// loaded from a file, so that behaviour can be bound to its states.
func FromConfig[H any](cfg *ChartConfig) *Builder[H] {
	return newBuilder[H](primitives.FromConfig(cfg))
}

// LoadChart reads a YAML or JSON chart file and returns a builder seeded
// with it.
func LoadChart[H any](path string) (*Builder[H], error) {
	cfg, err := primitives.LoadChartFile(path)
	if err != nil {
		return nil, err
	}
	return FromConfig[H](cfg), nil
}

// ParseChart is LoadChart for YAML already in memory.
func ParseChart[H any](data []byte) (*Builder[H], error) {
	cfg, err := primitives.ParseChartYAML(data)
	if err != nil {
		return nil, err
	}
	return FromConfig[H](cfg), nil
}

// Event names a signal. Names are used by YAML charts, logs and traces.
func (b *Builder[H]) Event(id EventID, name string) *Builder[H] {
	b.cb.Event(id, name)
	return b
}

// Version pins the chart version instead of hashing the structure.
func (b *Builder[H]) Version(v string) *Builder[H] {
	b.cb.Version(v)
	return b
}

// Guard binds a name that declared transitions can use as their guard.
// Names take precedence over guard expressions.
func (b *Builder[H]) Guard(name string, fn Guard[H]) *Builder[H] {
	if name == "" || fn == nil {
		b.errs = append(b.errs, fmt.Errorf("guard %q: name and function are required", name))
		return b
	}
	b.guards[name] = fn
	return b
}

// Action binds a name that declared transitions can list among their
// actions. Names take precedence over assignment expressions.
func (b *Builder[H]) Action(name string, fn Action[H]) *Builder[H] {
	if name == "" || fn == nil {
		b.errs = append(b.errs, fmt.Errorf("action %q: name and function are required", name))
		return b
	}
	b.actions[name] = fn
	return b
}

// Top configures the root. Only Init and Default apply to it.
func (b *Builder[H]) Top() *StateBuilder[H] {
	return &StateBuilder[H]{b: b, id: Top}
}

// Composite declares a state that has children. It must be given a Default.
func (b *Builder[H]) Composite(id StateID, name string, parent StateID) *StateBuilder[H] {
	b.cb.State(id, name, KindComposite, parent)
	return &StateBuilder[H]{b: b, id: id}
}

// Leaf declares a state without children.
func (b *Builder[H]) Leaf(id StateID, name string, parent StateID) *StateBuilder[H] {
	b.cb.State(id, name, KindLeaf, parent)
	return &StateBuilder[H]{b: b, id: id}
}

// State returns a builder for a state that is already declared, e.g. by a
// loaded config.
func (b *Builder[H]) State(id StateID) *StateBuilder[H] {
	if id != Top {
		if _, ok := b.cb.Lookup(id); !ok {
			b.errs = append(b.errs, fmt.Errorf("state %d: %w", id, ErrUnknownState))
		}
	}
	return &StateBuilder[H]{b: b, id: id}
}

// StateNamed is State by name.
func (b *Builder[H]) StateNamed(name string) *StateBuilder[H] {
	if name == primitives.TopName {
		return b.Top()
	}
	s, ok := b.cb.LookupName(name)
	if !ok {
		b.errs = append(b.errs, fmt.Errorf("state %q: %w", name, ErrUnknownState))
		return &StateBuilder[H]{b: b, id: -1}
	}
	return &StateBuilder[H]{b: b, id: s.ID}
}

// Build validates the chart and compiles it. The chart gets its own copy of
// the structure and of the bound behaviour: using b afterwards, e.g. to
// build a variant, does not change charts already built.
func (b *Builder[H]) Build() (*Chart[H], error) {
	if len(b.errs) > 0 {
		return nil, fmt.Errorf("%w: %w", ErrInvalidChart, errors.Join(b.errs...))
	}
	cfg, err := b.cb.Build()
	if err != nil {
		return nil, err
	}
	hier, err := core.Compile(cfg)
	if err != nil {
		return nil, err
	}

	var errs []error
	for id := range b.behaviors {
		if !hier.Has(id) {
			errs = append(errs, fmt.Errorf("behaviour bound to state %d: %w", id, ErrUnknownState))
		}
	}
	behaviors := make(map[StateID]*behavior[H], hier.Len())
	guards := make(map[string]Guard[H])
	actions := make(map[string]Action[H])
	for _, id := range hier.States() {
		var bh behavior[H]
		if bound, ok := b.behaviors[id]; ok {
			bh = *bound
		}
		switch hier.Kind(id) {
		case KindTop:
			if bh.entry != nil || bh.exit != nil || bh.handle != nil {
				errs = append(errs, errors.New("top accepts only init and default"))
			}
		case KindLeaf:
			if bh.init != nil {
				errs = append(errs, fmt.Errorf("leaf %s cannot have an init action", hier.StateName(id)))
			}
		}
		behaviors[id] = &bh

		for _, t := range hier.Declared(id) {
			if err := b.bindTransition(t, guards, actions); err != nil {
				errs = append(errs, fmt.Errorf("state %s on %s: %w", hier.StateName(id), cfg.EventName(t.Event), err))
			}
		}
	}
	if len(errs) > 0 {
		return nil, fmt.Errorf("%w: %w", ErrInvalidChart, errors.Join(errs...))
	}

	return &Chart[H]{
		hier:      hier,
		behaviors: behaviors,
		guards:    guards,
		actions:   actions,
		version:   primitives.ComputeVersion(cfg),
	}, nil
}

// bindTransition resolves the guard and action references of t into guards
// and actions: a bound name first, an expression over the host's values
// otherwise.
func (b *Builder[H]) bindTransition(t core.Transition, guards map[string]Guard[H], actions map[string]Action[H]) error {
	var zero H
	if ref := t.Guard; ref != "" {
		if _, done := guards[ref]; !done {
			if fn, ok := b.guards[ref]; ok {
				guards[ref] = fn
			} else {
				expr, err := extensibility.ParseGuard(ref)
				if err != nil {
					return fmt.Errorf("guard is not bound: %w", err)
				}
				if _, ok := any(zero).(extensibility.Values); !ok {
					return fmt.Errorf("guard %q: host %T has no Get(key) (any, bool)", ref, zero)
				}
				guards[ref] = func(h H, _ Event) bool {
					return expr.Eval(any(h).(extensibility.Values))
				}
			}
		}
	}
	for _, ref := range t.Actions {
		if _, done := actions[ref]; done {
			continue
		}
		if fn, ok := b.actions[ref]; ok {
			actions[ref] = fn
			continue
		}
		assign, err := extensibility.ParseAssignment(ref)
		if err != nil {
			return fmt.Errorf("action is not bound: %w", err)
		}
		if _, ok := any(zero).(extensibility.Store); !ok {
			return fmt.Errorf("action %q: host %T has no Set(key, value)", ref, zero)
		}
		actions[ref] = func(h H) error {
			assign.Apply(any(h).(extensibility.Store))
			return nil
		}
	}
	return nil
}

// MustBuild is Build that panics on error, for charts declared in code.
func (b *Builder[H]) MustBuild() *Chart[H] {
	c, err := b.Build()
	if err != nil {
		panic(err)
	}
	return c
}

func (s *StateBuilder[H]) behavior() *behavior[H] {
	bh, ok := s.b.behaviors[s.id]
	if !ok {
		bh = &behavior[H]{}
		s.b.behaviors[s.id] = bh
	}
	return bh
}

// ID of the state being configured.
func (s *StateBuilder[H]) ID() StateID { return s.id }

// Entry sets the action run when the state is entered.
func (s *StateBuilder[H]) Entry(fn Action[H]) *StateBuilder[H] {
	s.behavior().entry = fn
	return s
}

// Exit sets the action run when the state is exited.
func (s *StateBuilder[H]) Exit(fn Action[H]) *StateBuilder[H] {
	s.behavior().exit = fn
	return s
}

// Init sets the action run when a composite (or Top) descends into its
// default, before the default is entered.
func (s *StateBuilder[H]) Init(fn Action[H]) *StateBuilder[H] {
	s.behavior().init = fn
	return s
}

// Handle sets the state's event handler. Events it leaves Unhandled fall
// through to the state's declared transitions, then to its parent.
func (s *StateBuilder[H]) Handle(fn Handler[H]) *StateBuilder[H] {
	s.behavior().handle = fn
	return s
}

// Default names the descendant entered when this state is targeted.
func (s *StateBuilder[H]) Default(child StateID) *StateBuilder[H] {
	s.b.cb.Default(s.id, child)
	return s
}

// On declares a transition taken when the state receives event and its
// handler does not consume it.
func (s *StateBuilder[H]) On(event EventID, target StateID) *StateBuilder[H] {
	return s.declare(primitives.Declaration{Event: event, Target: target})
}

// OnIf is On taken only when guard holds. The actions run once the
// transition is selected, before any state is exited. guard and actions are
// names bound with Builder.Guard and Builder.Action, or expressions such as
// "foo == 0", "!foo" and "foo = 1" over a host like Context.
//
// A state may declare several transitions for one event; the first whose
// guard holds is taken, otherwise the event climbs to the parent.
func (s *StateBuilder[H]) OnIf(event EventID, guard string, target StateID, actions ...string) *StateBuilder[H] {
	return s.declare(primitives.Declaration{Event: event, Target: target, Guard: guard, Actions: actions})
}

// Internal declares an internal transition: when guard holds, or always
// with an empty guard, the actions run and the event is consumed without
// exiting or entering any state.
func (s *StateBuilder[H]) Internal(event EventID, guard string, actions ...string) *StateBuilder[H] {
	return s.declare(primitives.Declaration{Event: event, Internal: true, Guard: guard, Actions: actions})
}

func (s *StateBuilder[H]) declare(d primitives.Declaration) *StateBuilder[H] {
	if s.id == Top {
		s.b.errs = append(s.b.errs, errors.New("top cannot declare transitions"))
		return s
	}
	s.b.cb.Declare(s.id, d)
	return s
}
