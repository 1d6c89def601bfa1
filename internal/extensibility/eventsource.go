package extensibility

import (
	"context"

	"github.com/comalice/hsm/internal/primitives"
)

// EventSource produces events for a Runner. The channel is closed when the
// source has nothing more to send.
type EventSource interface {
	Events() <-chan primitives.Event
}

// ChannelEventSource is an EventSource backed by a Go channel.
type ChannelEventSource struct {
	ch chan primitives.Event
}

// NewChannelEventSource wraps ch. A nil ch gets an unbuffered channel.
func NewChannelEventSource(ch chan primitives.Event) *ChannelEventSource {
	if ch == nil {
		ch = make(chan primitives.Event)
	}
	return &ChannelEventSource{ch: ch}
}

// Events returns the receive side of the channel.
func (s *ChannelEventSource) Events() <-chan primitives.Event {
	return s.ch
}

// Send delivers evt, blocking until the consumer takes it or ctx ends.
func (s *ChannelEventSource) Send(ctx context.Context, evt primitives.Event) error {
	select {
	case s.ch <- evt:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close signals that no more events will be sent.
func (s *ChannelEventSource) Close() {
	close(s.ch)
}

// SliceEventSource replays a fixed list of events and then closes.
type SliceEventSource struct {
	ch chan primitives.Event
}

// NewSliceEventSource creates a source that yields events in order.
func NewSliceEventSource(events ...primitives.Event) *SliceEventSource {
	ch := make(chan primitives.Event, len(events))
	for _, e := range events {
		ch <- e
	}
	close(ch)
	return &SliceEventSource{ch: ch}
}

// Events returns the replay channel.
func (s *SliceEventSource) Events() <-chan primitives.Event {
	return s.ch
}
