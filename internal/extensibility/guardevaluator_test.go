package extensibility

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/comalice/hsm/internal/primitives"
)

func TestGuardExpr(t *testing.T) {
	ctx := primitives.NewContext()
	ctx.Set("temp", 35.0)
	ctx.Set("count", 3)
	ctx.Set("on", true)
	ctx.Set("mode", "auto")
	ctx.Set("zero", 0)
	ctx.Set("empty", "")

	tests := []struct {
		expr string
		want bool
	}{
		{"on", true},
		{"!on", false},
		{"zero", false},
		{"!zero", true},
		{"empty", false},
		{"missing", false},
		{"!missing", true},
		{"temp > 30", true},
		{"temp < 30", false},
		{"temp >= 35", true},
		{"count <= 2", false},
		{"count == 3", true},
		{"count == 3.0", true},
		{"count != 3", false},
		{"on == true", true},
		{"on == 1", false},
		{"mode == auto", true},
		{`mode == "auto"`, true},
		{"mode != manual", true},
		{"mode > 1", false},
		{"missing == 0", false},
		{"missing != 0", true},
		{"missing == nil", false},
	}
	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			g, err := ParseGuard(tt.expr)
			require.NoError(t, err)
			assert.Equal(t, tt.want, g.Eval(ctx))
			assert.Equal(t, tt.expr, g.String())
		})
	}
}

func TestParseGuardErrors(t *testing.T) {
	for _, expr := range []string{"", "a b", "a ~ 1", "a == 1 2", "foo==0", "!", "1abc"} {
		_, err := ParseGuard(expr)
		assert.Error(t, err, expr)
	}
}

func TestAssignment(t *testing.T) {
	ctx := primitives.NewContext()
	for expr, want := range map[string]any{
		"foo = 1":        1,
		"ratio = 0.5":    0.5,
		"armed = true":   true,
		"name = 'x'":     "x",
		`name = "a b"`:   "a b",
		"mode = auto":    "auto",
		"cleared = nil":  nil,
		" spaced  =  2 ": 2,
	} {
		a, err := ParseAssignment(expr)
		require.NoError(t, err, expr)
		a.Apply(ctx)
		v, ok := ctx.Get(a.Key)
		assert.True(t, ok, expr)
		assert.Equal(t, want, v, expr)
	}

	g, err := ParseGuard("foo == 1")
	require.NoError(t, err)
	assert.True(t, g.Eval(ctx))
}

func TestParseAssignmentErrors(t *testing.T) {
	for _, expr := range []string{"foo", "foo =", "= 1", "foo == 1", "1x = 2"} {
		_, err := ParseAssignment(expr)
		assert.Error(t, err, expr)
	}
}
