package hsm_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/comalice/hsm"
	"github.com/comalice/hsm/testutil"
)

func TestBuilderChartAccessors(t *testing.T) {
	c := testutil.QHsmTst()

	assert.Equal(t, "QHsmTst", c.Name())
	assert.Len(t, c.Version(), 16)
	assert.Equal(t, []hsm.StateID{hsm.Top, testutil.S, testutil.S1, testutil.S11, testutil.S2, testutil.S21, testutil.S211}, c.States())
	assert.Equal(t, "S21", c.StateName(testutil.S21))
	assert.Equal(t, "G", c.EventName(testutil.G))
	assert.Equal(t, hsm.KindComposite, c.Kind(testutil.S1))
	assert.Equal(t, hsm.KindLeaf, c.Kind(testutil.S11))
	assert.Equal(t, hsm.KindTop, c.Kind(hsm.Top))

	id, ok := c.Lookup("S211")
	assert.True(t, ok)
	assert.Equal(t, testutil.S211, id)

	parent, ok := c.Parent(testutil.S21)
	assert.True(t, ok)
	assert.Equal(t, testutil.S2, parent)
	_, ok = c.Parent(hsm.Top)
	assert.False(t, ok)

	def, ok := c.Default(hsm.Top)
	assert.True(t, ok)
	assert.Equal(t, testutil.S2, def)

	assert.Equal(t, []hsm.StateID{hsm.Top, testutil.S, testutil.S2, testutil.S21}, c.Path(testutil.S21))
	assert.True(t, c.Contains(testutil.S, testutil.S211))
	assert.False(t, c.Contains(testutil.S1, testutil.S211))
}

func TestBuilderErrors(t *testing.T) {
	type host struct{}
	noop := func(*host) error { return nil }

	tests := []struct {
		name    string
		declare func(b *hsm.Builder[*host])
		want    error
	}{
		{
			name: "composite without default",
			declare: func(b *hsm.Builder[*host]) {
				b.Composite(1, "c", hsm.Top)
				b.Leaf(2, "l", 1)
				b.Top().Default(1)
			},
			want: hsm.ErrMissingDefault,
		},
		{
			name: "top without default",
			declare: func(b *hsm.Builder[*host]) {
				b.Leaf(1, "l", hsm.Top)
			},
			want: hsm.ErrMissingDefault,
		},
		{
			name: "default cycle",
			declare: func(b *hsm.Builder[*host]) {
				b.Composite(1, "p", hsm.Top).Default(2)
				b.Composite(2, "q", 1).Default(1)
				b.Leaf(3, "l", 2)
				b.Top().Default(1)
			},
			want: hsm.ErrDefaultCycle,
		},
		{
			name: "default outside subtree",
			declare: func(b *hsm.Builder[*host]) {
				b.Composite(1, "p", hsm.Top).Default(3)
				b.Leaf(2, "l", 1)
				b.Leaf(3, "m", hsm.Top)
				b.Top().Default(1)
			},
			want: hsm.ErrDefaultNotDescendant,
		},
		{
			name: "duplicate state",
			declare: func(b *hsm.Builder[*host]) {
				b.Leaf(1, "a", hsm.Top)
				b.Leaf(1, "b", hsm.Top)
				b.Top().Default(1)
			},
			want: hsm.ErrDuplicateState,
		},
		{
			name: "unknown parent",
			declare: func(b *hsm.Builder[*host]) {
				b.Leaf(1, "a", 7)
				b.Top().Default(1)
			},
			want: hsm.ErrUnknownState,
		},
		{
			name: "unknown transition target",
			declare: func(b *hsm.Builder[*host]) {
				b.Event(0, "go")
				b.Leaf(1, "a", hsm.Top).On(0, 9)
				b.Top().Default(1)
			},
			want: hsm.ErrUnknownState,
		},
		{
			name: "undeclared event",
			declare: func(b *hsm.Builder[*host]) {
				b.Leaf(1, "a", hsm.Top).On(5, 1)
				b.Top().Default(1)
			},
			want: hsm.ErrUnknownEvent,
		},
		{
			name: "unknown state for behaviour",
			declare: func(b *hsm.Builder[*host]) {
				b.Leaf(1, "a", hsm.Top)
				b.Top().Default(1)
				b.State(4).Entry(noop)
			},
			want: hsm.ErrUnknownState,
		},
		{
			name: "init on leaf",
			declare: func(b *hsm.Builder[*host]) {
				b.Leaf(1, "a", hsm.Top).Init(noop)
				b.Top().Default(1)
			},
			want: hsm.ErrInvalidChart,
		},
		{
			name: "entry on top",
			declare: func(b *hsm.Builder[*host]) {
				b.Leaf(1, "a", hsm.Top)
				b.Top().Default(1).Entry(noop)
			},
			want: hsm.ErrInvalidChart,
		},
		{
			name: "transition on top",
			declare: func(b *hsm.Builder[*host]) {
				b.Event(0, "go")
				b.Leaf(1, "a", hsm.Top)
				b.Top().Default(1).On(0, 1)
			},
			want: hsm.ErrInvalidChart,
		},
		{
			name: "malformed guard",
			declare: func(b *hsm.Builder[*host]) {
				b.Event(0, "go")
				b.Leaf(1, "a", hsm.Top).OnIf(0, "ready ~ 1", 1)
				b.Top().Default(1)
			},
			want: hsm.ErrInvalidChart,
		},
		{
			name: "guard expression on host without values",
			declare: func(b *hsm.Builder[*host]) {
				b.Event(0, "go")
				b.Leaf(1, "a", hsm.Top).OnIf(0, "ready", 1)
				b.Top().Default(1)
			},
			want: hsm.ErrInvalidChart,
		},
		{
			name: "unbound action",
			declare: func(b *hsm.Builder[*host]) {
				b.Event(0, "go")
				b.Leaf(1, "a", hsm.Top).Internal(0, "", "reset")
				b.Top().Default(1)
			},
			want: hsm.ErrInvalidChart,
		},
		{
			name: "assignment on host without values",
			declare: func(b *hsm.Builder[*host]) {
				b.Event(0, "go")
				b.Leaf(1, "a", hsm.Top).Internal(0, "", "count = 1")
				b.Top().Default(1)
			},
			want: hsm.ErrInvalidChart,
		},
		{
			name: "nil guard binding",
			declare: func(b *hsm.Builder[*host]) {
				b.Guard("ready", nil)
				b.Leaf(1, "a", hsm.Top)
				b.Top().Default(1)
			},
			want: hsm.ErrInvalidChart,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := hsm.NewBuilder[*host]("broken")
			tt.declare(b)
			c, err := b.Build()
			assert.Nil(t, c)
			assert.ErrorIs(t, err, tt.want)
			assert.ErrorIs(t, err, hsm.ErrInvalidChart)
		})
	}
}

func TestBuilderReuseLeavesBuiltChartAlone(t *testing.T) {
	type host struct{ log []string }
	note := func(label string) hsm.Action[*host] {
		return func(h *host) error {
			h.log = append(h.log, label)
			return nil
		}
	}

	b := hsm.NewBuilder[*host]("reuse")
	a := b.Leaf(1, "A", hsm.Top).Entry(note("A-old"))
	b.Top().Default(1)
	first, err := b.Build()
	require.NoError(t, err)

	a.Entry(note("A-new"))
	b.Leaf(2, "B", hsm.Top).Entry(note("B"))
	b.Guard("never", func(*host, hsm.Event) bool { return false })
	second, err := b.Build()
	require.NoError(t, err)

	h := &host{}
	_, err = hsm.New(first, h)
	require.NoError(t, err)
	assert.Equal(t, []string{"A-old"}, h.log)
	assert.Len(t, first.Config().States, 1)
	assert.Len(t, first.States(), 2)

	h = &host{}
	_, err = hsm.New(second, h)
	require.NoError(t, err)
	assert.Equal(t, []string{"A-new"}, h.log)
	assert.Len(t, second.Config().States, 2)
}

func TestBuilderGuardsAndActions(t *testing.T) {
	const (
		idle hsm.StateID = iota + 1
		busy
	)
	const (
		start hsm.EventID = iota
		poke
	)
	type host struct {
		allowed bool
		pokes   int
	}

	b := hsm.NewBuilder[*host]("guarded").Event(start, "start").Event(poke, "poke")
	b.Guard("allowed", func(h *host, _ hsm.Event) bool { return h.allowed })
	b.Action("count", func(h *host) error { h.pokes++; return nil })
	b.Top().Default(idle)
	b.Leaf(idle, "idle", hsm.Top).
		OnIf(start, "allowed", busy, "count").
		Internal(poke, "", "count")
	b.Leaf(busy, "busy", hsm.Top)
	chart, err := b.Build()
	require.NoError(t, err)

	h := &host{}
	m, err := hsm.New(chart, h)
	require.NoError(t, err)

	require.NoError(t, m.DispatchID(poke))
	assert.Equal(t, idle, m.Current())
	assert.Equal(t, 1, h.pokes)

	require.NoError(t, m.DispatchID(start))
	assert.Equal(t, idle, m.Current(), "guard does not hold")
	assert.Equal(t, 1, h.pokes)

	h.allowed = true
	require.NoError(t, m.DispatchID(start))
	assert.Equal(t, busy, m.Current())
	assert.Equal(t, 2, h.pokes)
}

func TestBuilderMustBuildPanics(t *testing.T) {
	assert.Panics(t, func() {
		hsm.NewBuilder[*testutil.QHost]("empty").MustBuild()
	})
}

const lampYAML = `
name: lamp
version: v1
initial: off
events:
  - {id: 0, name: toggle}
  - {id: 1, name: dim}
states:
  - id: 1
    name: off
    on:
      - {event: toggle, target: on}
  - id: 2
    name: on
    initial: bright
    on:
      - {event: toggle, target: off}
    children:
      - id: 3
        name: bright
        on:
          - {event: dim, target: dimmed}
      - id: 4
        name: dimmed
`

func TestLoadChartBindsBehaviour(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lamp.yaml")
	require.NoError(t, os.WriteFile(path, []byte(lampYAML), 0o644))

	b, err := hsm.LoadChart[*hsm.Context](path)
	require.NoError(t, err)

	count := func(key string) hsm.Action[*hsm.Context] {
		return func(c *hsm.Context) error {
			c.Set(key, c.Int(key)+1)
			return nil
		}
	}
	b.StateNamed("on").Entry(count("on")).Exit(count("off"))
	b.State(4).Entry(count("dimmed"))

	chart, err := b.Build()
	require.NoError(t, err)
	assert.Equal(t, "v1", chart.Version())

	ctx := hsm.NewContext()
	m, err := hsm.New(chart, ctx)
	require.NoError(t, err)

	off, _ := chart.Lookup("off")
	dimmed, _ := chart.Lookup("dimmed")
	assert.Equal(t, off, m.Current())

	for _, ev := range []hsm.EventID{0, 1, 0, 0} {
		require.NoError(t, m.DispatchID(ev))
	}
	assert.Equal(t, 2, ctx.Int("on"))
	assert.Equal(t, 1, ctx.Int("off"))
	assert.Equal(t, 1, ctx.Int("dimmed"))

	bright, _ := chart.Lookup("bright")
	assert.Equal(t, bright, m.Current())
	assert.NotEqual(t, dimmed, m.Current())
}

func TestParseChartRejectsBadYAML(t *testing.T) {
	_, err := hsm.ParseChart[*hsm.Context]([]byte("name: x\nstates: [}"))
	assert.Error(t, err)

	b, err := hsm.ParseChart[*hsm.Context]([]byte(lampYAML))
	require.NoError(t, err)
	b.StateNamed("nowhere").Entry(func(*hsm.Context) error { return nil })
	_, err = b.Build()
	assert.ErrorIs(t, err, hsm.ErrUnknownState)
}
