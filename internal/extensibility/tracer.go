package extensibility

import (
	"github.com/charmbracelet/log"

	"github.com/comalice/hsm/internal/primitives"
)

// LoggingTracer writes every engine step to a logger.
type LoggingTracer struct {
	logger *log.Logger
	level  log.Level
	names  func(primitives.EventID) string
}

// NewLoggingTracer logs steps at debug level.
func NewLoggingTracer(l *log.Logger) *LoggingTracer {
	return &LoggingTracer{logger: l, level: log.DebugLevel}
}

// WithLevel changes the level steps are logged at.
func (t *LoggingTracer) WithLevel(level log.Level) *LoggingTracer {
	t.level = level
	return t
}

// WithEventNames resolves event ids for the log, e.g. with
// ChartConfig.EventName.
func (t *LoggingTracer) WithEventNames(fn func(primitives.EventID) string) *LoggingTracer {
	t.names = fn
	return t
}

// Trace logs step.
func (t *LoggingTracer) Trace(machineID string, step primitives.Step) {
	kv := []any{"machine", machineID, "kind", string(step.Kind)}
	if t.names != nil {
		kv = append(kv, "event", t.names(step.Event))
	} else {
		kv = append(kv, "event", step.Event)
	}
	t.logger.Log(t.level, step.Label(), kv...)
}
