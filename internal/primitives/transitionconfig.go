package primitives

import (
	"errors"
	"fmt"
	"strings"
)

// TransitionConfig declares a static transition: when Event reaches the
// owning state and Guard holds, Actions run and the machine transitions to
// Target. Without a Target the transition is internal: the actions run and
// the event is consumed, but no state is exited or entered.
//
// Guard and Actions are references resolved when the chart is built, either
// names bound in code or expressions over the host's values such as
// "foo == 0", "!foo" or "foo = 1".
type TransitionConfig struct {
	Event   string   `json:"event" yaml:"event"`
	Target  string   `json:"target,omitempty" yaml:"target,omitempty"`
	Guard   string   `json:"guard,omitempty" yaml:"guard,omitempty"`
	Actions []string `json:"actions,omitempty" yaml:"actions,omitempty"`
}

// Internal reports whether the transition has no target.
func (t *TransitionConfig) Internal() bool {
	return t.Target == ""
}

// Validate checks that the references are present and well formed. An
// internal transition without guard or actions is valid: it swallows the
// event.
func (t *TransitionConfig) Validate() error {
	if strings.TrimSpace(t.Event) == "" {
		return invalid(errors.New("event is required"))
	}
	for i, r := range t.Target {
		if !((r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '_' || r == '-') {
			return invalid(fmt.Errorf("invalid target %q: invalid character '%c' at index %d", t.Target, r, i))
		}
	}
	if t.Guard != "" && strings.TrimSpace(t.Guard) == "" {
		return invalid(errors.New("blank guard"))
	}
	for i, a := range t.Actions {
		if strings.TrimSpace(a) == "" {
			return invalid(fmt.Errorf("action %d is blank", i))
		}
	}
	return nil
}

func (t TransitionConfig) clone() TransitionConfig {
	t.Actions = append([]string(nil), t.Actions...)
	return t
}
