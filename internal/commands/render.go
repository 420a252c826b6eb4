package commands

import (
	"context"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/colonyops/wreckit/internal/core/item"
	"github.com/colonyops/wreckit/internal/core/state"
	"github.com/colonyops/wreckit/internal/core/styles"
	"github.com/colonyops/wreckit/internal/wreckit"
)

// itemView is the JSON shape of an item in list, status and show output.
type itemView struct {
	item.Item
	StoriesDone  int    `json:"stories_done"`
	StoriesTotal int    `json:"stories_total"`
	NextPhase    string `json:"next_phase,omitempty"`
}

func viewOf(ctx context.Context, store item.Store, it item.Item) itemView {
	v := itemView{Item: it}
	if doc, err := store.GetRequirements(ctx, it.ID); err == nil && doc != nil {
		v.StoriesDone, v.StoriesTotal = doc.Progress()
	}
	if p, ok := wreckit.NextPhase(it); ok {
		v.NextPhase = p.String()
	}
	return v
}

func viewsOf(ctx context.Context, store item.Store, items []item.Item) []itemView {
	views := make([]itemView, 0, len(items))
	for _, it := range items {
		views = append(views, viewOf(ctx, store, it))
	}
	return views
}

// stateCount is the number of items in one state.
type stateCount struct {
	State state.State `json:"state"`
	Count int         `json:"count"`
}

// countStates tallies items per state in lifecycle order.
func countStates(items []item.Item) []stateCount {
	counts := make([]stateCount, 0, len(state.All()))
	for _, s := range state.All() {
		n := 0
		for _, it := range items {
			if it.State == s {
				n++
			}
		}
		counts = append(counts, stateCount{State: s, Count: n})
	}
	return counts
}

func writeCounts(w io.Writer, counts []stateCount) {
	parts := make([]string, 0, len(counts))
	for _, c := range counts {
		label := fmt.Sprintf("%s %d", c.State.Label(), c.Count)
		if c.Count == 0 {
			parts = append(parts, styles.TextMutedStyle.Render(label))
			continue
		}
		parts = append(parts, styles.StateStyle(c.State).Render(label))
	}
	_, _ = fmt.Fprintln(w, strings.Join(parts, "  "))
}

func writeItemTable(w io.Writer, views []itemView) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "ID\tSTATE\tSTORIES\tNEXT\tTITLE")

	for _, v := range views {
		stories := "-"
		if v.StoriesTotal > 0 {
			stories = fmt.Sprintf("%d/%d", v.StoriesDone, v.StoriesTotal)
		}
		next := v.NextPhase
		if next == "" {
			next = "-"
		}
		title := v.Title
		if v.LastError != "" {
			title += " (!)"
		}
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", v.ID, v.State.Label(), stories, next, title)
	}

	_ = tw.Flush()
}
