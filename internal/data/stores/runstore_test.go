package stores

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/colonyops/wreckit/internal/core/history"
	"github.com/colonyops/wreckit/internal/core/state"
)

func testRun(itemID string, started time.Time, outcome history.Outcome) history.Run {
	return history.Run{
		ItemID:     itemID,
		Phase:      "research",
		From:       state.Idea,
		To:         state.Researched,
		Outcome:    outcome,
		StartedAt:  started,
		FinishedAt: started.Add(time.Second),
	}
}

func TestRunStore_RecordAssignsID(t *testing.T) {
	ctx := context.Background()
	store := NewRunStore(openTestDB(t))

	in := testRun("001-a", time.Now(), history.OutcomeSkipped)
	in.WorkerSkipped = true
	run, err := store.Record(ctx, in)
	require.NoError(t, err)
	assert.Len(t, run.ID, 26, "ulid")

	last, ok, err := store.Last(ctx, "001-a")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, run.ID, last.ID)
	assert.True(t, last.WorkerSkipped)
}

func TestRunStore_RecordRequiresItem(t *testing.T) {
	store := NewRunStore(openTestDB(t))

	_, err := store.Record(context.Background(), history.Run{})
	require.Error(t, err)
}

func TestRunStore_ListNewestFirst(t *testing.T) {
	ctx := context.Background()
	store := NewRunStore(openTestDB(t))
	base := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	_, err := store.Record(ctx, testRun("001-a", base, history.OutcomeAdvanced))
	require.NoError(t, err)
	_, err = store.Record(ctx, testRun("001-a", base.Add(time.Minute), history.OutcomeRejected))
	require.NoError(t, err)
	_, err = store.Record(ctx, testRun("002-b", base.Add(2*time.Minute), history.OutcomeFailed))
	require.NoError(t, err)

	all, err := store.List(ctx, history.Filter{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "002-b", all[0].ItemID)
	assert.True(t, all[2].StartedAt.Equal(base))

	forA, err := store.List(ctx, history.Filter{ItemID: "001-a"})
	require.NoError(t, err)
	require.Len(t, forA, 2)
	assert.Equal(t, history.OutcomeRejected, forA[0].Outcome)
	assert.Equal(t, state.Idea, forA[0].From)
	assert.Equal(t, "research", forA[0].Phase)
	assert.Equal(t, time.Second, forA[0].Duration())

	limited, err := store.List(ctx, history.Filter{Limit: 1})
	require.NoError(t, err)
	assert.Len(t, limited, 1)
}

func TestRunStore_ListByBatch(t *testing.T) {
	ctx := context.Background()
	store := NewRunStore(openTestDB(t))

	r := testRun("001-a", time.Now(), history.OutcomeAdvanced)
	r.BatchID = "batch-1"
	_, err := store.Record(ctx, r)
	require.NoError(t, err)
	_, err = store.Record(ctx, testRun("002-b", time.Now(), history.OutcomeAdvanced))
	require.NoError(t, err)

	runs, err := store.List(ctx, history.Filter{BatchID: "batch-1"})
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, "001-a", runs[0].ItemID)
}

func TestRunStore_Last(t *testing.T) {
	ctx := context.Background()
	store := NewRunStore(openTestDB(t))

	_, ok, err := store.Last(ctx, "001-a")
	require.NoError(t, err)
	assert.False(t, ok)

	base := time.Now()
	_, err = store.Record(ctx, testRun("001-a", base, history.OutcomeFailed))
	require.NoError(t, err)
	_, err = store.Record(ctx, testRun("001-a", base.Add(time.Second), history.OutcomeAdvanced))
	require.NoError(t, err)

	last, ok, err := store.Last(ctx, "001-a")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, history.OutcomeAdvanced, last.Outcome)
}
