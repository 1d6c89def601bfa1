package extensibility

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/comalice/hsm/internal/primitives"
)

func TestChannelEventSource(t *testing.T) {
	ch := make(chan primitives.Event, 1)
	s := NewChannelEventSource(ch)
	require.NoError(t, s.Send(context.Background(), primitives.NewEvent(3, "x")))

	got := <-s.Events()
	assert.Equal(t, primitives.EventID(3), got.ID)
	assert.Equal(t, "x", got.Payload)

	s.Close()
	_, ok := <-s.Events()
	assert.False(t, ok)
}

func TestChannelEventSourceSendHonoursContext(t *testing.T) {
	s := NewChannelEventSource(nil)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, s.Send(ctx, primitives.Event{ID: 1}), context.DeadlineExceeded)
}

func TestSliceEventSource(t *testing.T) {
	s := NewSliceEventSource(primitives.Event{ID: 1}, primitives.Event{ID: 2})
	var ids []primitives.EventID
	for e := range s.Events() {
		ids = append(ids, e.ID)
	}
	assert.Equal(t, []primitives.EventID{1, 2}, ids)
}
