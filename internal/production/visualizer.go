package production

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/comalice/hsm/internal/primitives"
)

// Visualizer renders a chart, with the machine's active states
// highlighted.
type Visualizer struct{}

// ExportDOT generates Graphviz DOT source. Composite states become
// clusters with a dashed edge to their default; declared transitions become
// edges labelled "event [guard] / actions", internal ones dotted loops. active holds the names of the states the machine is in,
// typically the path from Top to the current leaf.
func (v *Visualizer) ExportDOT(config *primitives.ChartConfig, active []string) string {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "digraph %q {\n", config.Name)
	buf.WriteString("  compound=true;\n  rankdir=LR;\n  node [shape=box, fontsize=10, style=rounded];\n  edge [fontsize=9];\n")

	on := make(map[string]bool, len(active))
	for _, name := range active {
		on[name] = true
	}

	fmt.Fprintf(&buf, "  %q [shape=point];\n", primitives.TopName)
	for _, s := range config.States {
		renderState(&buf, s, on, "  ")
	}

	if config.Initial != "" {
		fmt.Fprintf(&buf, "  %q -> %q [style=dashed];\n", primitives.TopName, config.Initial)
	}
	config.Root().Walk(func(_, s *primitives.StateConfig) bool {
		if s.ID != primitives.Top && s.Initial != "" {
			fmt.Fprintf(&buf, "  %q -> %q [style=dashed];\n", s.Name, s.Initial)
		}
		for _, t := range s.On {
			if t.Internal() {
				fmt.Fprintf(&buf, "  %q -> %q [label=%q, style=dotted];\n", s.Name, s.Name, edgeLabel(t))
				continue
			}
			fmt.Fprintf(&buf, "  %q -> %q [label=%q];\n", s.Name, t.Target, edgeLabel(t))
		}
		return true
	})

	buf.WriteString("}\n")
	return buf.String()
}

// ExportJSON serializes the chart config.
func (v *Visualizer) ExportJSON(config *primitives.ChartConfig) ([]byte, error) {
	return json.MarshalIndent(config, "", "  ")
}

func edgeLabel(t primitives.TransitionConfig) string {
	label := t.Event
	if t.Guard != "" {
		label += " [" + t.Guard + "]"
	}
	if len(t.Actions) > 0 {
		label += " / " + strings.Join(t.Actions, "; ")
	}
	return label
}

func renderState(buf *bytes.Buffer, s *primitives.StateConfig, active map[string]bool, indent string) {
	if len(s.Children) == 0 {
		style := ""
		if active[s.Name] {
			style = ", style=\"rounded,filled\", fillcolor=lightgreen"
		}
		fmt.Fprintf(buf, "%s%q [label=%q%s];\n", indent, s.Name, s.Name, style)
		return
	}

	fmt.Fprintf(buf, "%ssubgraph %q {\n", indent, "cluster_"+s.Name)
	fmt.Fprintf(buf, "%s  label=%q;\n", indent, s.Name)
	if active[s.Name] {
		fmt.Fprintf(buf, "%s  style=filled; fillcolor=lightyellow;\n", indent)
	}
	// anchor node so edges can target the composite itself
	fmt.Fprintf(buf, "%s  %q [label=%q, shape=ellipse];\n", indent, s.Name, s.Name)
	for _, c := range s.Children {
		renderState(buf, c, active, indent+"  ")
	}
	fmt.Fprintf(buf, "%s}\n", indent)
}
