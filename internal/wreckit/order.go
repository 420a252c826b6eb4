package wreckit

import (
	"sort"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/colonyops/wreckit/internal/core/item"
)

// Pending returns the items that are not done, in scheduling order: priority
// hint highest first, then oldest first, then by id. The input is not
// modified.
func Pending(items []item.Item) []item.Item {
	out := make([]item.Item, 0, len(items))
	for _, it := range items {
		if !it.State.IsTerminal() {
			out = append(out, it)
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if ra, rb := a.PriorityHint.Rank(), b.PriorityHint.Rank(); ra != rb {
			return ra > rb
		}
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.Before(b.CreatedAt)
		}
		return a.ID < b.ID
	})

	return out
}

// MatchID reports whether id matches the doublestar pattern. An empty
// pattern matches everything.
func MatchID(pattern, id string) (bool, error) {
	if pattern == "" {
		return true, nil
	}
	return doublestar.Match(pattern, id)
}
