package item

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/colonyops/wreckit/internal/core/state"
)

func frozenClock(t *testing.T, at time.Time) {
	t.Helper()
	restore := SetClock(func() time.Time { return at })
	t.Cleanup(restore)
}

func sampleItem() Item {
	created := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	return Item{
		SchemaVersion:   SchemaVersion,
		ID:              "001-dark-mode",
		Title:           "Dark mode",
		State:           state.Researched,
		Overview:        "Add a dark theme",
		CreatedAt:       created,
		UpdatedAt:       created,
		SuccessCriteria: []string{"toggle exists"},
		ScopeInScope:    []string{"settings page"},
		PriorityHint:    PriorityHigh,
	}
}

func TestSlugify(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Add Dark Mode!", "add-dark-mode"},
		{"  spaces  ", "spaces"},
		{"already-slugged", "already-slugged"},
		{"Mixed_CASE 123", "mixed-case-123"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, Slugify(tt.in))
		})
	}
}

func TestNew(t *testing.T) {
	at := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	frozenClock(t, at)

	it := New("001-x", "X", "overview")
	assert.Equal(t, state.Idea, it.State)
	assert.Equal(t, at, it.CreatedAt)
	assert.Equal(t, at, it.UpdatedAt)
	assert.Equal(t, SchemaVersion, it.SchemaVersion)
}

func TestWithState_DoesNotMutateReceiver(t *testing.T) {
	frozenClock(t, time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC))

	orig := sampleItem()
	snapshot := orig.Clone()

	next := orig.WithState(state.Planned)

	assert.Equal(t, snapshot, orig)
	assert.Equal(t, state.Planned, next.State)
	assert.Equal(t, orig.ID, next.ID)
	assert.Equal(t, orig.Title, next.Title)
	assert.Equal(t, orig.CreatedAt, next.CreatedAt)
	assert.True(t, next.UpdatedAt.After(orig.UpdatedAt))
}

func TestBuilders_StrictlyIncreaseUpdatedAt(t *testing.T) {
	// A clock stuck behind the item's timestamp must still produce a strictly
	// later UpdatedAt.
	frozenClock(t, time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC))

	orig := sampleItem()
	builders := map[string]func(Item) Item{
		"WithState":  func(i Item) Item { return i.WithState(state.Planned) },
		"WithBranch": func(i Item) Item { return i.WithBranch("wreckit/001") },
		"WithReview": func(i Item) Item { return i.WithReview("https://example.com/pr/1", 1) },
		"WithError":  func(i Item) Item { return i.WithError("boom") },
	}

	for name, build := range builders {
		t.Run(name, func(t *testing.T) {
			next := build(orig)
			assert.True(t, next.UpdatedAt.After(orig.UpdatedAt))
			assert.Equal(t, orig.CreatedAt, next.CreatedAt)
		})
	}
}

func TestWithError_EmptyClears(t *testing.T) {
	it := sampleItem().WithError("bad")
	assert.Equal(t, "bad", it.LastError)

	cleared := it.WithError("")
	assert.Empty(t, cleared.LastError)
	assert.Equal(t, "bad", it.LastError)
}

func TestWithReview(t *testing.T) {
	it := sampleItem()
	assert.False(t, it.HasReviewRequest())

	reviewed := it.WithReview("https://github.com/o/r/pull/7", 7)
	assert.True(t, reviewed.HasReviewRequest())
	assert.Equal(t, 7, reviewed.PRNumber)
	assert.False(t, it.HasReviewRequest())
}

func TestClone_DeepCopiesSlices(t *testing.T) {
	orig := sampleItem()
	c := orig.Clone()
	c.SuccessCriteria[0] = "changed"

	assert.Equal(t, "toggle exists", orig.SuccessCriteria[0])
}

func TestItem_JSONFieldNames(t *testing.T) {
	bits, err := json.Marshal(sampleItem().WithReview("u", 3))
	require.NoError(t, err)

	var raw map[string]any
	require.NoError(t, json.Unmarshal(bits, &raw))

	for _, key := range []string{"schema_version", "id", "title", "state", "overview", "pr_url", "pr_number", "created_at", "updated_at", "priority_hint"} {
		assert.Contains(t, raw, key)
	}
	assert.NotContains(t, raw, "last_error")
}

func TestPriorityHint_Rank(t *testing.T) {
	assert.Greater(t, PriorityCritical.Rank(), PriorityHigh.Rank())
	assert.Greater(t, PriorityHigh.Rank(), PriorityMedium.Rank())
	assert.Greater(t, PriorityMedium.Rank(), PriorityLow.Rank())
	assert.Greater(t, PriorityLow.Rank(), PriorityHint("").Rank())
	assert.True(t, PriorityHint("").IsValid())
	assert.False(t, PriorityHint("urgent").IsValid())
}
