package extensibility

import (
	"bytes"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"

	"github.com/comalice/hsm/internal/primitives"
)

func TestLoggingTracer(t *testing.T) {
	var buf bytes.Buffer
	l := log.New(&buf)
	l.SetLevel(log.DebugLevel)

	tr := NewLoggingTracer(l).WithEventNames(func(id primitives.EventID) string {
		return map[primitives.EventID]string{0: "A"}[id]
	})
	tr.Trace("m1", primitives.Step{Kind: primitives.StepEntry, State: 2, StateName: "S1"})

	out := buf.String()
	assert.Contains(t, out, "S1-ENTRY")
	assert.Contains(t, out, "machine=m1")
	assert.Contains(t, out, "kind=entry")
	assert.Contains(t, out, "event=A")
}

func TestLoggingTracerRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	l := log.New(&buf) // info by default

	NewLoggingTracer(l).Trace("m1", primitives.Step{Kind: primitives.StepExit, StateName: "S1"})
	assert.Empty(t, buf.String())

	NewLoggingTracer(l).WithLevel(log.InfoLevel).Trace("m1", primitives.Step{Kind: primitives.StepExit, StateName: "S1"})
	assert.Contains(t, buf.String(), "S1-EXIT")
}
