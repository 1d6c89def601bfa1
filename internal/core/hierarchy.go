// Package core holds the compiled state hierarchy and the transition
// algorithm. It knows nothing about behaviour: entry, exit and handler bodies
// live in the hsm package, which asks core which states to exit and enter.
//
// A Hierarchy is immutable after Compile and safe to share between machines
// and goroutines.
package core

import (
	"fmt"
	"maps"
	"slices"

	"github.com/comalice/hsm/internal/primitives"
)

// Hierarchy is the compiled, read-only form of a ChartConfig: an arena of
// states indexed by position, with parent links and ancestor paths.
type Hierarchy struct {
	name   string
	config *primitives.ChartConfig
	nodes  []node
	index  map[primitives.StateID]int
	byName map[string]int

	// routes of declared transitions, keyed by (current, source, target)
	routes map[RouteKey]*Route
	// inits[i] lists the states entered when composite i descends to its default
	inits map[int][]primitives.StateID
}

// Compile validates cfg and builds its hierarchy. Every transition declared
// in the config has its route computed here, once, for every leaf it can
// fire from.
func Compile(cfg *primitives.ChartConfig) (*Hierarchy, error) {
	if cfg == nil {
		return nil, fmt.Errorf("%w: nil config", primitives.ErrInvalidChart)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	nodes, index, byName := precomputePaths(cfg)
	h := &Hierarchy{
		name:   cfg.Name,
		config: cfg,
		nodes:  nodes,
		index:  index,
		byName: byName,
		routes: map[RouteKey]*Route{},
		inits:  map[int][]primitives.StateID{},
	}

	if err := h.resolveDefaults(); err != nil {
		return nil, fmt.Errorf("%w: %w", primitives.ErrInvalidChart, err)
	}
	if err := h.resolveTransitions(cfg); err != nil {
		return nil, fmt.Errorf("%w: %w", primitives.ErrInvalidChart, err)
	}

	for i := range h.nodes {
		n := &h.nodes[i]
		if n.def >= 0 {
			h.inits[i] = h.ids(h.nodes[n.def].path[n.depth+1:])
		}
		for _, ts := range n.on {
			for _, t := range ts {
				if t.Internal {
					continue
				}
				for _, leaf := range h.leavesUnder(i) {
					r := h.computeRoute(i, leaf, h.index[t.Target])
					h.routes[r.Key()] = r
				}
			}
		}
	}
	return h, nil
}

// Name returns the chart name.
func (h *Hierarchy) Name() string { return h.name }

// Config returns the config the hierarchy was compiled from.
func (h *Hierarchy) Config() *primitives.ChartConfig { return h.config }

// Len returns the number of states, Top included.
func (h *Hierarchy) Len() int { return len(h.nodes) }

// States returns every state id in arena order: parents before children.
func (h *Hierarchy) States() []primitives.StateID {
	ids := make([]primitives.StateID, len(h.nodes))
	for i, n := range h.nodes {
		ids[i] = n.id
	}
	return ids
}

// Has reports whether id is part of the hierarchy.
func (h *Hierarchy) Has(id primitives.StateID) bool {
	_, ok := h.index[id]
	return ok
}

// Lookup resolves a state name.
func (h *Hierarchy) Lookup(name string) (primitives.StateID, bool) {
	i, ok := h.byName[name]
	if !ok {
		return 0, false
	}
	return h.nodes[i].id, true
}

// StateName returns the name of a state, or a numeric placeholder for
// unknown ids.
func (h *Hierarchy) StateName(id primitives.StateID) string {
	if i, ok := h.index[id]; ok {
		return h.nodes[i].name
	}
	return fmt.Sprintf("state(%d)", id)
}

// Kind of a state.
func (h *Hierarchy) Kind(id primitives.StateID) primitives.Kind {
	if i, ok := h.index[id]; ok {
		return h.nodes[i].kind
	}
	return ""
}

// Parent returns the parent of id; Top has none.
func (h *Hierarchy) Parent(id primitives.StateID) (primitives.StateID, bool) {
	i, ok := h.index[id]
	if !ok || h.nodes[i].parent < 0 {
		return 0, false
	}
	return h.nodes[h.nodes[i].parent].id, true
}

// Depth of a state below Top.
func (h *Hierarchy) Depth(id primitives.StateID) int {
	if i, ok := h.index[id]; ok {
		return h.nodes[i].depth
	}
	return -1
}

// Path returns the ancestors of id from Top down to id itself.
func (h *Hierarchy) Path(id primitives.StateID) []primitives.StateID {
	i, ok := h.index[id]
	if !ok {
		return nil
	}
	return h.ids(h.nodes[i].path)
}

// Default returns the default descendant of a composite state or Top.
func (h *Hierarchy) Default(id primitives.StateID) (primitives.StateID, bool) {
	i, ok := h.index[id]
	if !ok || h.nodes[i].def < 0 {
		return 0, false
	}
	return h.nodes[h.nodes[i].def].id, true
}

// InitPath returns the states entered, outermost first, when composite id
// descends into its default. It stops at the default itself, which may be a
// composite with its own InitPath.
func (h *Hierarchy) InitPath(id primitives.StateID) []primitives.StateID {
	i, ok := h.index[id]
	if !ok {
		return nil
	}
	return h.inits[i]
}

// Transition is a declared transition resolved against the hierarchy.
// Guard and Actions are the references of the config, left for the caller
// to bind.
type Transition struct {
	Event    primitives.EventID
	Target   primitives.StateID
	Internal bool
	Guard    string
	Actions  []string
}

// Transitions returns the transitions id declares for event, in
// declaration order. The slice must not be modified.
func (h *Hierarchy) Transitions(id primitives.StateID, event primitives.EventID) []Transition {
	i, ok := h.index[id]
	if !ok {
		return nil
	}
	return h.nodes[i].on[event]
}

// Declared returns every transition id declares, grouped by event.
func (h *Hierarchy) Declared(id primitives.StateID) []Transition {
	i, ok := h.index[id]
	if !ok {
		return nil
	}
	var out []Transition
	for _, e := range slices.Sorted(maps.Keys(h.nodes[i].on)) {
		out = append(out, h.nodes[i].on[e]...)
	}
	return out
}

// Contains reports whether ancestor is an ancestor of state or state itself.
func (h *Hierarchy) Contains(ancestor, state primitives.StateID) bool {
	a, ok1 := h.index[ancestor]
	s, ok2 := h.index[state]
	return ok1 && ok2 && h.contains(a, s)
}

// IsAncestor reports whether ancestor is a strict ancestor of state.
func (h *Hierarchy) IsAncestor(ancestor, state primitives.StateID) bool {
	a, ok1 := h.index[ancestor]
	s, ok2 := h.index[state]
	return ok1 && ok2 && h.isAncestor(a, s)
}

// LCA returns the deepest state that contains both a and b. For a == b it
// is a itself.
func (h *Hierarchy) LCA(a, b primitives.StateID) (primitives.StateID, bool) {
	ai, ok1 := h.index[a]
	bi, ok2 := h.index[b]
	if !ok1 || !ok2 {
		return 0, false
	}
	return h.nodes[h.lca(ai, bi)].id, true
}

func (h *Hierarchy) contains(a, s int) bool {
	d := h.nodes[a].depth
	path := h.nodes[s].path
	return d < len(path) && path[d] == a
}

func (h *Hierarchy) isAncestor(a, s int) bool {
	return a != s && h.contains(a, s)
}

func (h *Hierarchy) lca(a, b int) int {
	pa, pb := h.nodes[a].path, h.nodes[b].path
	i := 0
	for i < len(pa) && i < len(pb) && pa[i] == pb[i] {
		i++
	}
	// every path starts at top, so i >= 1
	return pa[i-1]
}

func (h *Hierarchy) ids(idx []int) []primitives.StateID {
	out := make([]primitives.StateID, len(idx))
	for i, j := range idx {
		out[i] = h.nodes[j].id
	}
	return out
}
