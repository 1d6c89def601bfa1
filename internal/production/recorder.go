package production

import (
	"sync"

	"github.com/comalice/hsm/internal/primitives"
)

// Trace is the recorded history of one machine.
type Trace struct {
	MachineID string                        `json:"machineID" yaml:"machineID"`
	Chart     string                        `json:"chart" yaml:"chart"`
	Version   string                        `json:"version,omitempty" yaml:"version,omitempty"`
	Steps     []primitives.Step             `json:"steps" yaml:"steps"`
	Records   []primitives.TransitionRecord `json:"records,omitempty" yaml:"records,omitempty"`
}

// Labels renders the steps of the given kinds, all kinds when none are
// given.
func (t Trace) Labels(kinds ...primitives.StepKind) []string {
	keep := make(map[primitives.StepKind]bool, len(kinds))
	for _, k := range kinds {
		keep[k] = true
	}
	var out []string
	for _, s := range t.Steps {
		if len(kinds) == 0 || keep[s.Kind] {
			out = append(out, s.Label())
		}
	}
	return out
}

// TraceRecorder collects steps and transition records in memory. It serves
// as both the Tracer and the Publisher of a machine and is safe to read
// while the machine runs on another goroutine.
type TraceRecorder struct {
	mu    sync.Mutex
	trace Trace
	limit int
}

// NewTraceRecorder creates a recorder for a chart. A positive limit keeps
// only the most recent steps.
func NewTraceRecorder(chart, version string, limit int) *TraceRecorder {
	return &TraceRecorder{
		trace: Trace{Chart: chart, Version: version},
		limit: limit,
	}
}

// Trace appends a step.
func (r *TraceRecorder) Trace(machineID string, step primitives.Step) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.trace.MachineID = machineID
	r.trace.Steps = append(r.trace.Steps, step)
	if r.limit > 0 && len(r.trace.Steps) > r.limit {
		r.trace.Steps = append(r.trace.Steps[:0:0], r.trace.Steps[len(r.trace.Steps)-r.limit:]...)
	}
}

// Publish appends a transition record.
func (r *TraceRecorder) Publish(rec primitives.TransitionRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.trace.MachineID = rec.MachineID
	r.trace.Records = append(r.trace.Records, rec)
	return nil
}

// Snapshot returns a copy of everything recorded so far.
func (r *TraceRecorder) Snapshot() Trace {
	r.mu.Lock()
	defer r.mu.Unlock()
	t := r.trace
	t.Steps = append([]primitives.Step(nil), r.trace.Steps...)
	t.Records = append([]primitives.TransitionRecord(nil), r.trace.Records...)
	return t
}

// Reset drops recorded steps and records.
func (r *TraceRecorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.trace.Steps = nil
	r.trace.Records = nil
}
