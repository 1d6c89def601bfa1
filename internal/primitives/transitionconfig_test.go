package primitives

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTransitionConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		trans   TransitionConfig
		wantErr string
	}{
		{"valid", TransitionConfig{Event: "G", Target: "S211"}, ""},
		{"hyphen and underscore", TransitionConfig{Event: "go", Target: "door_open-2"}, ""},
		{"missing event", TransitionConfig{Target: "S1"}, "event is required"},
		{"bare internal", TransitionConfig{Event: "I"}, ""},
		{"dotted target", TransitionConfig{Event: "G", Target: "S.S1"}, "invalid character '.'"},
		{"guarded with actions", TransitionConfig{Event: "D", Target: "S", Guard: "!foo", Actions: []string{"foo = 1"}}, ""},
		{"internal", TransitionConfig{Event: "I", Guard: "foo", Actions: []string{"foo = 0"}}, ""},
		{"blank guard", TransitionConfig{Event: "I", Target: "S", Guard: "  "}, "blank guard"},
		{"blank action", TransitionConfig{Event: "I", Actions: []string{""}}, "action 0 is blank"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.trans.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, ErrInvalidChart)
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}

func TestTransitionConfigInternal(t *testing.T) {
	assert.True(t, (&TransitionConfig{Event: "I", Actions: []string{"clear"}}).Internal())
	assert.False(t, (&TransitionConfig{Event: "I", Target: "S"}).Internal())
}
