package core

import (
	"fmt"

	"github.com/comalice/hsm/internal/primitives"
)

// RouteKey identifies a transition by its three states.
type RouteKey struct {
	Current primitives.StateID
	Source  primitives.StateID
	Target  primitives.StateID
}

// Route is the transition descriptor: which states to exit and which to
// enter when Current, handling an event on behalf of the leaf Source,
// transitions to Target.
//
// Exit lists states innermost first, from Source up to but excluding
// Boundary. Enter lists states outermost first, from just below Boundary
// down to Target. After Enter, Target descends into its default chain.
type Route struct {
	Current  primitives.StateID
	Source   primitives.StateID
	Target   primitives.StateID
	Boundary primitives.StateID
	Exit     []primitives.StateID
	Enter    []primitives.StateID
}

// Key returns the cache key of r.
func (r *Route) Key() RouteKey {
	return RouteKey{Current: r.Current, Source: r.Source, Target: r.Target}
}

// SelfTransition reports whether the handling state targets itself.
func (r *Route) SelfTransition() bool {
	return r.Current == r.Target
}

// Route returns the descriptor for (current, source, target). Routes of
// declared transitions come from the table built by Compile; any other
// triple is computed on the fly.
//
// source must be a leaf, current must contain source, and target may be
// any state except Top's own self-transition.
func (h *Hierarchy) Route(current, source, target primitives.StateID) (*Route, error) {
	if r, ok := h.routes[RouteKey{Current: current, Source: source, Target: target}]; ok {
		return r, nil
	}

	ci, ok := h.index[current]
	if !ok {
		return nil, fmt.Errorf("current %d: %w", current, primitives.ErrUnknownState)
	}
	si, ok := h.index[source]
	if !ok {
		return nil, fmt.Errorf("source %d: %w", source, primitives.ErrUnknownState)
	}
	ti, ok := h.index[target]
	if !ok {
		return nil, fmt.Errorf("target %d: %w", target, primitives.ErrUnknownState)
	}
	if h.nodes[si].kind != primitives.KindLeaf {
		return nil, fmt.Errorf("%w: source %s is not a leaf", primitives.ErrInvalidTransition, h.nodes[si].name)
	}
	if !h.contains(ci, si) {
		return nil, fmt.Errorf("%w: %s does not contain %s", primitives.ErrInvalidTransition, h.nodes[ci].name, h.nodes[si].name)
	}
	if ci == 0 && ti == 0 {
		return nil, fmt.Errorf("%w: top cannot transition to itself", primitives.ErrInvalidTransition)
	}
	return h.computeRoute(ci, si, ti), nil
}

// computeRoute places the boundary and slices the exit and entry lists out
// of the ancestor paths.
//
// The boundary is the deepest state that contains both current and target:
//   - current == target: a self-transition leaves and re-enters the state,
//     so the boundary moves up to its parent
//   - current contains target: current is not exited, entry starts below it
//   - target contains current: the walk exits up to target, which is not
//     exited or entered again; target then re-initializes into its default
//   - otherwise: the least common ancestor of the two branches
//
// Every state from source up to the boundary exits exactly once and every
// state from below the boundary down to target enters exactly once.
func (h *Hierarchy) computeRoute(ci, si, ti int) *Route {
	b := h.lca(ci, ti)
	if ci == ti && h.nodes[ci].parent >= 0 {
		b = h.nodes[ci].parent
	}

	var exit []primitives.StateID
	for i := si; i != b && i >= 0; i = h.nodes[i].parent {
		exit = append(exit, h.nodes[i].id)
	}

	return &Route{
		Current:  h.nodes[ci].id,
		Source:   h.nodes[si].id,
		Target:   h.nodes[ti].id,
		Boundary: h.nodes[b].id,
		Exit:     exit,
		Enter:    h.ids(h.nodes[ti].path[h.nodes[b].depth+1:]),
	}
}
