package workflow

import (
	"github.com/colonyops/wreckit/internal/core/item"
	"github.com/colonyops/wreckit/internal/core/state"
)

// ApplyTransition advances it by exactly one state when ev satisfies the
// predicate for its successor. The input item is never modified; on success
// the returned item differs only in State and UpdatedAt.
//
// A terminal item yields ErrAlreadyTerminal without consulting ev.
func ApplyTransition(it item.Item, ev Evidence) (item.Item, error) {
	if it.State.IsTerminal() {
		return item.Item{}, ErrAlreadyTerminal
	}

	target, ok := it.State.Next()
	if !ok {
		return item.Item{}, ValidateTransition(it.State, target, ev)
	}

	if err := ValidateTransition(it.State, target, ev); err != nil {
		return item.Item{}, err
	}

	return it.WithState(target), nil
}

// Target returns the state ApplyTransition would move it into.
func Target(it item.Item) (state.State, bool) {
	return it.State.Next()
}
