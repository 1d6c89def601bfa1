// Package extensibility holds the pieces that sit around a machine rather
// than inside it: a queue that serializes events from many goroutines into
// one machine, channel-backed event sources, and a tracer that logs every
// engine step.
package extensibility
