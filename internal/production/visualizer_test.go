package production

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/comalice/hsm/internal/primitives"
)

func lampConfig(t *testing.T) *primitives.ChartConfig {
	t.Helper()
	b := primitives.NewChartBuilder("lamp")
	b.Event(0, "toggle").Event(1, "dim")
	b.State(1, "off", primitives.KindLeaf, primitives.Top)
	b.State(2, "on", primitives.KindComposite, primitives.Top)
	b.State(3, "bright", primitives.KindLeaf, 2)
	b.State(4, "dimmed", primitives.KindLeaf, 2)
	b.Default(primitives.Top, 1).Default(2, 3)
	b.On(1, 0, 2).On(2, 0, 1).On(3, 1, 4)
	cfg, err := b.Build()
	require.NoError(t, err)
	return cfg
}

func TestVisualizerExportDOT(t *testing.T) {
	v := &Visualizer{}
	dot := v.ExportDOT(lampConfig(t), []string{"Top", "on", "dimmed"})

	assert.True(t, strings.HasPrefix(dot, `digraph "lamp" {`))
	assert.True(t, strings.HasSuffix(dot, "}\n"))
	assert.Contains(t, dot, `subgraph "cluster_on" {`)
	assert.Contains(t, dot, `"dimmed" [label="dimmed", style="rounded,filled", fillcolor=lightgreen];`)
	assert.Contains(t, dot, `"bright" [label="bright"];`)
	assert.Contains(t, dot, "style=filled; fillcolor=lightyellow;")
	assert.Contains(t, dot, `"Top" -> "off" [style=dashed];`)
	assert.Contains(t, dot, `"on" -> "bright" [style=dashed];`)
	assert.Contains(t, dot, `"off" -> "on" [label="toggle"];`)
	assert.Contains(t, dot, `"on" -> "off" [label="toggle"];`)
	assert.Contains(t, dot, `"bright" -> "dimmed" [label="dim"];`)
	assert.Equal(t, strings.Count(dot, "{"), strings.Count(dot, "}"))
}

func TestVisualizerGuardsAndInternalTransitions(t *testing.T) {
	b := primitives.NewChartBuilder("counter")
	b.Event(0, "tick").Event(1, "reset")
	b.State(1, "idle", primitives.KindLeaf, primitives.Top)
	b.State(2, "full", primitives.KindLeaf, primitives.Top)
	b.Default(primitives.Top, 1)
	b.Declare(1, primitives.Declaration{Event: 0, Target: 2, Guard: "n >= 9", Actions: []string{"n = 0"}})
	b.Declare(1, primitives.Declaration{Event: 0, Internal: true, Actions: []string{"bump", "log"}})
	b.On(2, 1, 1)
	cfg, err := b.Build()
	require.NoError(t, err)

	dot := (&Visualizer{}).ExportDOT(cfg, nil)
	assert.Contains(t, dot, `"idle" -> "full" [label="tick [n >= 9] / n = 0"];`)
	assert.Contains(t, dot, `"idle" -> "idle" [label="tick / bump; log", style=dotted];`)
	assert.Contains(t, dot, `"full" -> "idle" [label="reset"];`)
}

func TestVisualizerNoActiveStates(t *testing.T) {
	dot := (&Visualizer{}).ExportDOT(lampConfig(t), nil)
	assert.NotContains(t, dot, "fillcolor")
}

func TestVisualizerExportJSON(t *testing.T) {
	data, err := (&Visualizer{}).ExportJSON(lampConfig(t))
	require.NoError(t, err)

	cfg, err := primitives.ParseChartJSON(data)
	require.NoError(t, err)
	assert.Equal(t, "lamp", cfg.Name)
	assert.Equal(t, "off", cfg.Initial)

	var raw map[string]any
	require.NoError(t, json.Unmarshal(data, &raw))
	assert.Contains(t, raw, "states")
}
