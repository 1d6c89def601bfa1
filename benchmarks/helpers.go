// Package benchmarks provides chart generators and benchmarks for the
// dispatch and transition paths.
package benchmarks

import (
	"fmt"

	"github.com/comalice/hsm"
)

// Tick is the only event of the generated charts besides Cross.
const (
	Tick hsm.EventID = iota
	Cross
)

// Counter is a host whose actions just count.
type Counter struct {
	Entries, Exits int
}

func count(b *hsm.StateBuilder[*Counter]) *hsm.StateBuilder[*Counter] {
	return b.
		Entry(func(c *Counter) error { c.Entries++; return nil }).
		Exit(func(c *Counter) error { c.Exits++; return nil })
}

// FlatChart has n leaves under Top cycling on Tick.
func FlatChart(n int) *hsm.Chart[*Counter] {
	if n < 1 {
		n = 1
	}
	b := hsm.NewBuilder[*Counter](fmt.Sprintf("flat_%d", n))
	b.Event(Tick, "tick")
	for i := 1; i <= n; i++ {
		next := hsm.StateID(i%n + 1)
		count(b.Leaf(hsm.StateID(i), fmt.Sprintf("s%d", i), hsm.Top)).On(Tick, next)
	}
	b.Top().Default(1)
	return b.MustBuild()
}

// DeepChart has two branches of depth nested composites. Tick toggles
// between two leaves at the bottom of the current branch; Cross jumps to
// the bottom of the other branch, exiting and entering depth+1 states.
func DeepChart(depth int) *hsm.Chart[*Counter] {
	if depth < 1 {
		depth = 1
	}
	b := hsm.NewBuilder[*Counter](fmt.Sprintf("deep_%d", depth))
	b.Event(Tick, "tick").Event(Cross, "cross")

	id := hsm.StateID(0)
	branch := func(name string) (first, leaf hsm.StateID) {
		parent := hsm.Top
		for d := 0; d < depth; d++ {
			id++
			if d == 0 {
				first = id
			}
			count(b.Composite(id, fmt.Sprintf("%s%d", name, d), parent)).Default(id + 1)
			parent = id
		}
		a, z := id+1, id+2
		id += 2
		count(b.Leaf(a, name+"_a", parent)).On(Tick, z)
		count(b.Leaf(z, name+"_z", parent)).On(Tick, a)
		return first, a
	}

	left, leftLeaf := branch("l")
	right, rightLeaf := branch("r")
	b.State(left).On(Cross, rightLeaf)
	b.State(right).On(Cross, leftLeaf)
	b.Top().Default(left)
	return b.MustBuild()
}
