package core

import (
	"fmt"

	"github.com/comalice/hsm/internal/primitives"
)

// node is one slot of the hierarchy arena. Parents always precede their
// children in the arena, so a parent index is smaller than its child's.
type node struct {
	id     primitives.StateID
	name   string
	kind   primitives.Kind
	parent int   // -1 for top
	depth  int   // 0 for top
	path   []int // arena indexes from top down to and including this node
	def    int   // default descendant, -1 for leaves
	on     map[primitives.EventID][]Transition
	cfg    *primitives.StateConfig
}

// precomputePaths flattens the config tree into the arena, filling parent,
// depth and ancestor path for every state. Top is slot 0.
func precomputePaths(cfg *primitives.ChartConfig) ([]node, map[primitives.StateID]int, map[string]int) {
	var nodes []node
	index := map[primitives.StateID]int{}
	byName := map[string]int{}

	slots := map[*primitives.StateConfig]int{}
	cfg.Root().Walk(func(parent, s *primitives.StateConfig) bool {
		n := node{
			id:     s.ID,
			name:   s.Name,
			kind:   s.EffectiveKind(),
			parent: -1,
			def:    -1,
			cfg:    s,
		}
		if parent != nil {
			p := slots[parent]
			n.parent = p
			n.depth = nodes[p].depth + 1
			n.path = append(make([]int, 0, n.depth+1), nodes[p].path...)
		}
		i := len(nodes)
		n.path = append(n.path, i)
		slots[s] = i
		index[s.ID] = i
		byName[s.Name] = i
		nodes = append(nodes, n)
		return true
	})
	return nodes, index, byName
}

// resolveDefaults fills node.def and checks the default-initialization chain
// of every composite: it must not revisit a state and each default must be a
// strict descendant of the state declaring it.
func (h *Hierarchy) resolveDefaults() error {
	for i := range h.nodes {
		n := &h.nodes[i]
		if n.kind == primitives.KindLeaf {
			continue
		}
		d, ok := h.byName[n.cfg.Initial]
		if !ok {
			return fmt.Errorf("default %q of %s: %w", n.cfg.Initial, n.name, primitives.ErrUnknownState)
		}
		n.def = d
	}

	for i := range h.nodes {
		if h.nodes[i].kind == primitives.KindLeaf {
			continue
		}
		visited := map[int]bool{i: true}
		chain := []string{h.nodes[i].name}
		for cur := i; h.nodes[cur].kind != primitives.KindLeaf; {
			next := h.nodes[cur].def
			if next < 0 {
				return fmt.Errorf("state %s: %w", h.nodes[cur].name, primitives.ErrMissingDefault)
			}
			chain = append(chain, h.nodes[next].name)
			if visited[next] {
				return fmt.Errorf("%v: %w", chain, primitives.ErrDefaultCycle)
			}
			visited[next] = true
			cur = next
		}
	}

	for i := range h.nodes {
		n := &h.nodes[i]
		if n.def >= 0 && !h.isAncestor(i, n.def) {
			return fmt.Errorf("default %s of %s: %w", h.nodes[n.def].name, n.name, primitives.ErrDefaultNotDescendant)
		}
	}
	return nil
}

// resolveTransitions maps declared transitions from names onto the arena,
// grouped by event in declaration order.
func (h *Hierarchy) resolveTransitions(cfg *primitives.ChartConfig) error {
	for i := range h.nodes {
		n := &h.nodes[i]
		for _, t := range n.cfg.On {
			ev, err := cfg.EventByName(t.Event)
			if err != nil {
				return fmt.Errorf("state %s: %w", n.name, err)
			}
			tr := Transition{
				Event:    ev.ID,
				Internal: t.Internal(),
				Guard:    t.Guard,
				Actions:  append([]string(nil), t.Actions...),
			}
			if !tr.Internal {
				target, ok := h.byName[t.Target]
				if !ok {
					return fmt.Errorf("state %s on %s: target %q: %w", n.name, t.Event, t.Target, primitives.ErrUnknownState)
				}
				tr.Target = h.nodes[target].id
			}
			if n.on == nil {
				n.on = map[primitives.EventID][]Transition{}
			}
			n.on[ev.ID] = append(n.on[ev.ID], tr)
		}
	}
	return nil
}

// leavesUnder returns every leaf in the subtree rooted at i, i included.
func (h *Hierarchy) leavesUnder(i int) []int {
	var leaves []int
	for j := i; j < len(h.nodes); j++ {
		if h.nodes[j].kind == primitives.KindLeaf && h.contains(i, j) {
			leaves = append(leaves, j)
		}
	}
	return leaves
}
