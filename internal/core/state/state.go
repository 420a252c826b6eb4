// Package state defines the ordered lifecycle states an item moves through.
package state

import (
	"fmt"
	"strings"
)

// State is a position in the item lifecycle.
// ENUM(idea, researched, planned, implementing, in_pr, done).
type State string

const (
	Idea         State = "idea"
	Researched   State = "researched"
	Planned      State = "planned"
	Implementing State = "implementing"
	InReview     State = "in_pr"
	Done         State = "done"
)

// ordered holds every state in lifecycle order. Index positions are the
// total order used for adjacency checks.
var ordered = []State{Idea, Researched, Planned, Implementing, InReview, Done}

// ErrInvalidState is returned when parsing a string that is not a known state.
var ErrInvalidState = fmt.Errorf("not a valid State, try [%s]", strings.Join(Names(), ", "))

// All returns every state in lifecycle order.
func All() []State {
	out := make([]State, len(ordered))
	copy(out, ordered)
	return out
}

// Names returns the serialized names of all states in lifecycle order.
func Names() []string {
	names := make([]string, len(ordered))
	for i, s := range ordered {
		names[i] = string(s)
	}
	return names
}

// Parse converts a string into a State.
func Parse(name string) (State, error) {
	s := State(strings.ToLower(strings.TrimSpace(name)))
	if s == "in_review" {
		return InReview, nil
	}
	if s.IsValid() {
		return s, nil
	}
	return "", fmt.Errorf("%s is %w", name, ErrInvalidState)
}

// IsValid reports whether s is one of the defined states.
func (s State) IsValid() bool {
	return s.Index() >= 0
}

// Index returns the position of s in the lifecycle, or -1 for unknown values.
func (s State) Index() int {
	for i, o := range ordered {
		if o == s {
			return i
		}
	}
	return -1
}

func (s State) String() string {
	return string(s)
}

// Label is the human-facing name. InReview is persisted as "in_pr" for
// compatibility but displayed as "in_review".
func (s State) Label() string {
	if s == InReview {
		return "in_review"
	}
	return string(s)
}

// Next returns the single successor of s. The boolean is false when s is
// terminal or unknown.
func (s State) Next() (State, bool) {
	i := s.Index()
	if i < 0 || i == len(ordered)-1 {
		return "", false
	}
	return ordered[i+1], true
}

// AllowedNext returns the states reachable from s in one step: a singleton
// for every non-terminal state and an empty slice for Done.
func (s State) AllowedNext() []State {
	next, ok := s.Next()
	if !ok {
		return []State{}
	}
	return []State{next}
}

// IsTerminal reports whether no transition may leave s.
func (s State) IsTerminal() bool {
	return s == Done
}

// Before reports whether s precedes o in the lifecycle.
func (s State) Before(o State) bool {
	return s.Index() < o.Index()
}

// MarshalText implements encoding.TextMarshaler.
func (s State) MarshalText() ([]byte, error) {
	if !s.IsValid() {
		return nil, fmt.Errorf("%q is %w", string(s), ErrInvalidState)
	}
	return []byte(s), nil
}

// UnmarshalText implements encoding.TextUnmarshaler. Unknown values are
// rejected so a corrupted record never decodes into a phantom state.
func (s *State) UnmarshalText(text []byte) error {
	parsed, err := Parse(string(text))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}
