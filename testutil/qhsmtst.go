// Package testutil provides the QHsmTst reference chart and helpers for
// driving machines in tests.
//
// QHsmTst is the classic six-state chart used to check hierarchical state
// machine engines: every kind of transition (self, to ancestor, to
// descendant, across branches, to a composite with default initialization)
// appears in it, and its expected hook trace is known exactly.
package testutil

import (
	_ "embed"
	"strings"

	"github.com/comalice/hsm"
)

// QHsmTst states.
const (
	S hsm.StateID = iota + 1
	S1
	S11
	S2
	S21
	S211
)

// QHsmTst signals.
const (
	A hsm.EventID = iota
	B
	C
	D
	E
	F
	G
	H
	I
)

// EventName returns the letter of a QHsmTst signal.
func EventName(id hsm.EventID) string {
	if id < A || id > I {
		return "?"
	}
	return string(rune('A' + int(id)))
}

// EventByName maps a letter, upper or lower case, to its signal.
func EventByName(c rune) (hsm.EventID, bool) {
	if c >= 'a' && c <= 'z' {
		c -= 'a' - 'A'
	}
	if c < 'A' || c > 'I' {
		return 0, false
	}
	return hsm.EventID(c - 'A'), true
}

// QHost is the extended state of QHsmTst. Log collects every hook in the
// order it ran, e.g. "S1-ENTRY" or "S21-G" for a handler consuming G.
type QHost struct {
	Foo int
	Log []string
}

func (h *QHost) note(s string) {
	h.Log = append(h.Log, s)
}

// Take returns the log and clears it.
func (h *QHost) Take() []string {
	out := h.Log
	h.Log = nil
	return out
}

func hooks(b *hsm.StateBuilder[*QHost], name string) *hsm.StateBuilder[*QHost] {
	return b.
		Entry(func(h *QHost) error { h.note(name + "-ENTRY"); return nil }).
		Exit(func(h *QHost) error { h.note(name + "-EXIT"); return nil })
}

func initHook(name string) hsm.Action[*QHost] {
	return func(h *QHost) error {
		h.note(name + "-INIT")
		return nil
	}
}

// handler logs "<state>-<signal>" whenever fn consumes the event.
func handler(name string, fn func(h *QHost, sig hsm.EventID) hsm.Outcome) hsm.Handler[*QHost] {
	return func(h *QHost, evt hsm.Event) (hsm.Outcome, error) {
		out := fn(h, evt.ID)
		if out.Consumed() {
			h.note(name + "-" + EventName(evt.ID))
		}
		return out, nil
	}
}

// QHsmTstBuilder declares QHsmTst. Callers may bind more behaviour before
// building.
func QHsmTstBuilder() *hsm.Builder[*QHost] {
	b := hsm.NewBuilder[*QHost]("QHsmTst")
	for sig := A; sig <= I; sig++ {
		b.Event(sig, EventName(sig))
	}

	b.Top().Default(S2).Init(func(h *QHost) error {
		h.Foo = 0
		h.note("Top-INIT")
		return nil
	})

	hooks(b.Composite(S, "S", hsm.Top), "S").
		Default(S11).
		Init(initHook("S")).
		Handle(handler("S", func(h *QHost, sig hsm.EventID) hsm.Outcome {
			switch sig {
			case E:
				return hsm.Tran(S11)
			case I:
				if h.Foo != 0 {
					h.Foo = 0
					return hsm.Handled
				}
			}
			return hsm.Unhandled
		}))

	hooks(b.Composite(S1, "S1", S), "S1").
		Default(S11).
		Init(initHook("S1")).
		Handle(handler("S1", func(h *QHost, sig hsm.EventID) hsm.Outcome {
			switch sig {
			case A:
				return hsm.Tran(S1)
			case B:
				return hsm.Tran(S11)
			case C:
				return hsm.Tran(S2)
			case D:
				if h.Foo == 0 {
					h.Foo = 1
					return hsm.Tran(S)
				}
			case F:
				return hsm.Tran(S211)
			case I:
				return hsm.Handled
			}
			return hsm.Unhandled
		}))

	hooks(b.Leaf(S11, "S11", S1), "S11").
		Handle(handler("S11", func(h *QHost, sig hsm.EventID) hsm.Outcome {
			switch sig {
			case D:
				if h.Foo != 0 {
					h.Foo = 0
					return hsm.Tran(S1)
				}
			case G:
				return hsm.Tran(S211)
			case H:
				return hsm.Tran(S)
			}
			return hsm.Unhandled
		}))

	hooks(b.Composite(S2, "S2", S), "S2").
		Default(S211).
		Init(initHook("S2")).
		Handle(handler("S2", func(h *QHost, sig hsm.EventID) hsm.Outcome {
			switch sig {
			case C:
				return hsm.Tran(S1)
			case F:
				return hsm.Tran(S11)
			case I:
				if h.Foo == 0 {
					h.Foo = 1
					return hsm.Handled
				}
			}
			return hsm.Unhandled
		}))

	hooks(b.Composite(S21, "S21", S2), "S21").
		Default(S211).
		Init(initHook("S21")).
		Handle(handler("S21", func(h *QHost, sig hsm.EventID) hsm.Outcome {
			switch sig {
			case A:
				return hsm.Tran(S21)
			case B:
				return hsm.Tran(S211)
			case G:
				return hsm.Tran(S1)
			}
			return hsm.Unhandled
		}))

	hooks(b.Leaf(S211, "S211", S21), "S211").
		Handle(handler("S211", func(h *QHost, sig hsm.EventID) hsm.Outcome {
			switch sig {
			case D:
				return hsm.Tran(S21)
			case H:
				return hsm.Tran(S)
			}
			return hsm.Unhandled
		}))

	return b
}

// QHsmTst builds the reference chart.
func QHsmTst() *hsm.Chart[*QHost] {
	return QHsmTstBuilder().MustBuild()
}

// QHsmTstYAML declares QHsmTst without handlers: every transition, guard
// and action is in the file, over a host value "foo".
//
//go:embed qhsmtst.yaml
var QHsmTstYAML []byte

// CtxHost is the host of the declared QHsmTst. Guards and assignments work
// on its Context; Log collects entry, exit and init hooks.
type CtxHost struct {
	*hsm.Context
	Log []string
}

// NewCtxHost creates an empty host.
func NewCtxHost() *CtxHost {
	return &CtxHost{Context: hsm.NewContext()}
}

// Take returns the log and clears it.
func (h *CtxHost) Take() []string {
	out := h.Log
	h.Log = nil
	return out
}

// QHsmTstDeclared builds QHsmTst from QHsmTstYAML, binding only the hooks
// that log.
func QHsmTstDeclared() (*hsm.Chart[*CtxHost], error) {
	b, err := hsm.ParseChart[*CtxHost](QHsmTstYAML)
	if err != nil {
		return nil, err
	}
	note := func(label string) hsm.Action[*CtxHost] {
		return func(h *CtxHost) error {
			h.Log = append(h.Log, label)
			return nil
		}
	}
	b.Top().Init(func(h *CtxHost) error {
		h.Set("foo", 0)
		return note("Top-INIT")(h)
	})
	for _, name := range []string{"S", "S1", "S11", "S2", "S21", "S211"} {
		b.StateNamed(name).Entry(note(name + "-ENTRY")).Exit(note(name + "-EXIT"))
	}
	for _, name := range []string{"S", "S1", "S2", "S21"} {
		b.StateNamed(name).Init(note(name + "-INIT"))
	}
	return b.Build()
}

// Hooks drops handler labels such as "S1-D" from a reference trace line,
// keeping entry, exit and init hooks.
func Hooks(labels []string) []string {
	var out []string
	for _, l := range labels {
		if strings.HasSuffix(l, "-ENTRY") || strings.HasSuffix(l, "-EXIT") || strings.HasSuffix(l, "-INIT") {
			out = append(out, l)
		}
	}
	return out
}

// TraceStep is one line of the reference trace: the hooks an event runs,
// the leaf the machine settles in and the resulting value of Foo.
type TraceStep struct {
	Event string
	Want  []string
	Leaf  hsm.StateID
	Foo   int
}

// QHsmTstInit is what the initial transition runs.
var QHsmTstInit = TraceStep{
	Want: []string{"Top-INIT", "S-ENTRY", "S2-ENTRY", "S2-INIT", "S21-ENTRY", "S211-ENTRY"},
	Leaf: S211,
}

// QHsmTstScript is the reference trace for the event sequence "giaddceegii".
var QHsmTstScript = []TraceStep{
	{"g", []string{"S21-G", "S211-EXIT", "S21-EXIT", "S2-EXIT", "S1-ENTRY", "S1-INIT", "S11-ENTRY"}, S11, 0},
	{"i", []string{"S1-I"}, S11, 0},
	{"a", []string{"S1-A", "S11-EXIT", "S1-EXIT", "S1-ENTRY", "S1-INIT", "S11-ENTRY"}, S11, 0},
	{"d", []string{"S1-D", "S11-EXIT", "S1-EXIT", "S-INIT", "S1-ENTRY", "S11-ENTRY"}, S11, 1},
	{"d", []string{"S11-D", "S11-EXIT", "S1-INIT", "S11-ENTRY"}, S11, 0},
	{"c", []string{"S1-C", "S11-EXIT", "S1-EXIT", "S2-ENTRY", "S2-INIT", "S21-ENTRY", "S211-ENTRY"}, S211, 0},
	{"e", []string{"S-E", "S211-EXIT", "S21-EXIT", "S2-EXIT", "S1-ENTRY", "S11-ENTRY"}, S11, 0},
	{"e", []string{"S-E", "S11-EXIT", "S1-EXIT", "S1-ENTRY", "S11-ENTRY"}, S11, 0},
	{"g", []string{"S11-G", "S11-EXIT", "S1-EXIT", "S2-ENTRY", "S21-ENTRY", "S211-ENTRY"}, S211, 0},
	{"i", []string{"S2-I"}, S211, 1},
	{"i", []string{"S-I"}, S211, 0},
}

// QHsmTstEvents is the reference event sequence.
const QHsmTstEvents = "giaddceegii"
