package production

import (
	"sync"
	"sync/atomic"

	"github.com/comalice/hsm/internal/primitives"
)

// ChannelPublisher forwards transition records to a channel. Publish never
// blocks the machine: when the channel is full the record is dropped and
// counted.
type ChannelPublisher struct {
	ch      chan<- primitives.TransitionRecord
	dropped atomic.Int64
	once    sync.Once
}

// NewChannelPublisher creates a ChannelPublisher with the given output channel.
func NewChannelPublisher(ch chan<- primitives.TransitionRecord) *ChannelPublisher {
	return &ChannelPublisher{ch: ch}
}

func (p *ChannelPublisher) Publish(rec primitives.TransitionRecord) error {
	select {
	case p.ch <- rec:
	default:
		p.dropped.Add(1)
	}
	return nil
}

// Dropped returns how many records did not fit into the channel.
func (p *ChannelPublisher) Dropped() int64 {
	return p.dropped.Load()
}

// Close closes the output channel. The publisher must not be used after.
func (p *ChannelPublisher) Close() error {
	p.once.Do(func() { close(p.ch) })
	return nil
}

// Publisher matches hsm.Publisher.
type Publisher interface {
	Publish(rec primitives.TransitionRecord) error
}

// MultiPublisher fans a record out to several publishers and returns the
// first error after all of them ran.
type MultiPublisher []Publisher

func (m MultiPublisher) Publish(rec primitives.TransitionRecord) error {
	var first error
	for _, p := range m {
		if err := p.Publish(rec); err != nil && first == nil {
			first = err
		}
	}
	return first
}
