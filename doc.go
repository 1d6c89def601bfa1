// Package hsm is an engine for hierarchical state machines in the UML
// statechart style.
//
// A machine is always in exactly one leaf state. Leaves nest inside
// composite states, which may handle events on behalf of their descendants,
// run entry and exit actions, and name a default descendant entered when the
// composite itself is targeted. Events the current leaf does not handle are
// delegated up the ancestor chain; Top absorbs whatever nobody handled.
//
// A chart is described once with a Builder (or loaded from YAML and then
// decorated with behaviour) and compiled into an immutable Chart. Any number
// of Machines can run the same Chart, each with its own host value H that is
// passed to every action:
//
//	b := hsm.NewBuilder[*Oven]("oven")
//	b.Event(Open, "open").Event(Close, "close")
//	b.Composite(Heating, "heating", hsm.Top).Default(Baking).
//		Entry(func(o *Oven) error { return o.HeaterOn() }).
//		Exit(func(o *Oven) error { return o.HeaterOff() }).
//		On(Open, DoorOpen)
//	b.Leaf(Baking, "baking", Heating)
//	b.Leaf(DoorOpen, "door-open", hsm.Top).On(Close, Heating)
//	b.Top().Default(Heating)
//	chart, err := b.Build()
//	...
//	m, err := hsm.New(chart, oven)
//	err = m.DispatchID(Open)
//
// Declared transitions may carry a guard and actions, bound by name with
// Builder.Guard and Builder.Action or written as expressions over a host
// with named values such as Context:
//
//	b.Leaf(Idle, "idle", hsm.Top).
//		OnIf(Start, "tries < 3", Busy, "tries = 0").
//		Internal(Poke, "", "log")
//
// In YAML the same reads {event: start, guard: "tries < 3", target: busy,
// actions: ["tries = 0"]}; leaving out the target makes the transition
// internal.
//
// Transitions run exit actions innermost first from the current leaf up to
// the transition boundary, then entry actions outermost first down to the
// target, then the target's default initialization down to a leaf. A
// self-transition exits and re-enters its state exactly once.
//
// Machines are not safe for concurrent use and Dispatch must not be called
// from inside an action. Use extensibility.Runner (or a mutex) to feed one
// machine from several goroutines.
package hsm
