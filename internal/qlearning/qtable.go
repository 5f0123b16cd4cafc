package qlearning

import (
	"strings"

	"github.com/janpfeifer/qtictactoe/internal/state"
	"github.com/pkg/errors"
)

// Key of a QTable entry: an encoded state and an action taken from it.
type Key struct {
	State  string
	Action state.Action
}

// String returns the persisted form of the key: "<state>:<row>,<col>".
func (k Key) String() string {
	return k.State + ":" + k.Action.String()
}

// ParseKey is the reverse of Key.String.
func ParseKey(s string) (Key, error) {
	stateStr, actionStr, found := strings.Cut(s, ":")
	if !found {
		return Key{}, errors.Errorf("key %q is missing the \":\" separator", s)
	}
	if _, err := state.ParseState(stateStr); err != nil {
		return Key{}, errors.WithMessagef(err, "invalid state in key %q", s)
	}
	action, err := state.ParseAction(actionStr)
	if err != nil {
		return Key{}, errors.WithMessagef(err, "invalid action in key %q", s)
	}
	return Key{State: stateStr, Action: action}, nil
}

// QTable maps (state, action) to the estimated discounted return.
//
// Missing entries are worth 0 (non-optimistic initialization). Entries are never evicted.
type QTable map[Key]float64

// Get returns the value for the key, or 0 if it was never set.
func (t QTable) Get(key Key) float64 {
	return t[key]
}

// Set the value for the key.
func (t QTable) Set(key Key, value float64) {
	t[key] = value
}

// MaxValue returns the largest value of the given actions from encodedState.
// It returns 0 if there are no actions.
func (t QTable) MaxValue(encodedState string, actions []state.Action) float64 {
	if len(actions) == 0 {
		return 0
	}
	maxQ := t.Get(Key{encodedState, actions[0]})
	for _, action := range actions[1:] {
		maxQ = max(maxQ, t.Get(Key{encodedState, action}))
	}
	return maxQ
}
