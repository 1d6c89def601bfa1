package production

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/comalice/hsm/internal/primitives"
)

func record(event primitives.EventID) primitives.TransitionRecord {
	return primitives.TransitionRecord{
		MachineID: "m1",
		Chart:     "lamp",
		Event:     event,
		Source:    1,
		Target:    2,
		Leaf:      3,
		Timestamp: time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC),
	}
}

func TestChannelPublisherDelivery(t *testing.T) {
	ch := make(chan primitives.TransitionRecord, 2)
	p := NewChannelPublisher(ch)

	assert.NoError(t, p.Publish(record(0)))
	got := <-ch
	assert.Equal(t, record(0), got)
	assert.Equal(t, "1 -> 3", got.String())
}

func TestChannelPublisherDropsWhenFull(t *testing.T) {
	ch := make(chan primitives.TransitionRecord, 1)
	p := NewChannelPublisher(ch)

	assert.NoError(t, p.Publish(record(0)))
	assert.NoError(t, p.Publish(record(1)))
	assert.NoError(t, p.Publish(record(2)))
	assert.Equal(t, int64(2), p.Dropped())
	assert.Equal(t, primitives.EventID(0), (<-ch).Event)
}

func TestChannelPublisherClose(t *testing.T) {
	ch := make(chan primitives.TransitionRecord, 1)
	p := NewChannelPublisher(ch)

	assert.NoError(t, p.Close())
	assert.NoError(t, p.Close())
	_, ok := <-ch
	assert.False(t, ok)
}

type failing struct{ calls int }

func (f *failing) Publish(primitives.TransitionRecord) error {
	f.calls++
	return errors.New("unavailable")
}

func TestMultiPublisher(t *testing.T) {
	rec := NewTraceRecorder("lamp", "", 0)
	bad := &failing{}
	err := MultiPublisher{bad, rec}.Publish(record(1))

	assert.EqualError(t, err, "unavailable")
	assert.Equal(t, 1, bad.calls)
	assert.Len(t, rec.Snapshot().Records, 1)
}
