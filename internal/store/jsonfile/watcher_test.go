package jsonfile

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// startWatcher creates an items directory holding ids and watches it.
func startWatcher(t *testing.T, ids ...string) (string, *ItemWatcher) {
	t.Helper()
	itemsDir := t.TempDir()
	for _, id := range ids {
		require.NoError(t, os.MkdirAll(filepath.Join(itemsDir, id), 0o755))
	}
	w, err := NewItemWatcher(itemsDir)
	require.NoError(t, err)
	t.Cleanup(func() { _ = w.Close() })
	return itemsDir, w
}

func touch(t *testing.T, itemsDir, id, file string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(itemsDir, id, file), []byte(`{}`), 0o644))
}

// drain collects events until quiet has passed.
func drain(events <-chan ItemEvent, quiet time.Duration) []ItemEvent {
	var got []ItemEvent
	deadline := time.After(quiet)
	for {
		select {
		case ev, ok := <-events:
			if !ok {
				return got
			}
			got = append(got, ev)
		case <-deadline:
			return got
		}
	}
}

func TestItemWatcher_ReportsItemFile(t *testing.T) {
	t.Parallel()
	itemsDir, w := startWatcher(t, "003-search")

	events, err := w.Watch(context.Background(), "003-search")
	require.NoError(t, err)

	touch(t, itemsDir, "003-search", "prd.json")

	select {
	case ev := <-events:
		assert.Equal(t, "003-search", ev.ID)
		assert.Equal(t, "prd.json", ev.File)
		assert.WithinDuration(t, time.Now(), ev.Timestamp, 5*time.Second)
	case <-time.After(5 * time.Second):
		t.Fatal("no event for prd.json")
	}
}

func TestItemWatcher_GlobSelectsItems(t *testing.T) {
	t.Parallel()
	itemsDir, w := startWatcher(t, "010-api-auth", "011-ui-theme")

	events, err := w.Watch(context.Background(), "*-api-*")
	require.NoError(t, err)

	touch(t, itemsDir, "011-ui-theme", "item.json")
	touch(t, itemsDir, "010-api-auth", "item.json")

	got := drain(events, 300*time.Millisecond)
	require.Len(t, got, 1)
	assert.Equal(t, "010-api-auth", got[0].ID)
}

func TestItemWatcher_SkipsPartialWrites(t *testing.T) {
	t.Parallel()
	itemsDir, w := startWatcher(t, "001-a")

	events, err := w.Watch(context.Background(), "*")
	require.NoError(t, err)

	touch(t, itemsDir, "001-a", "item.json.42"+TmpSuffix)
	touch(t, itemsDir, "001-a", "item.json.lock")

	assert.Empty(t, drain(events, 200*time.Millisecond))
}

func TestItemWatcher_CoalescesBursts(t *testing.T) {
	t.Parallel()
	itemsDir, w := startWatcher(t, "001-a")

	events, err := w.Watch(context.Background(), "")
	require.NoError(t, err)

	for range 5 {
		touch(t, itemsDir, "001-a", "item.json")
		time.Sleep(10 * time.Millisecond)
	}

	assert.Len(t, drain(events, 300*time.Millisecond), 1)
}

func TestItemWatcher_NewItemDirectory(t *testing.T) {
	t.Parallel()
	itemsDir, w := startWatcher(t)

	events, err := w.Watch(context.Background(), "*")
	require.NoError(t, err)

	require.NoError(t, os.MkdirAll(filepath.Join(itemsDir, "005-new"), 0o755))

	got := drain(events, 300*time.Millisecond)
	require.NotEmpty(t, got)
	assert.Equal(t, "005-new", got[0].ID)
}

func TestItemWatcher_ChannelLifetime(t *testing.T) {
	t.Parallel()

	t.Run("context cancel", func(t *testing.T) {
		_, w := startWatcher(t)
		ctx, cancel := context.WithCancel(context.Background())
		events, err := w.Watch(ctx, "*")
		require.NoError(t, err)

		cancel()
		require.Eventually(t, func() bool {
			select {
			case _, ok := <-events:
				return !ok
			default:
				return false
			}
		}, time.Second, 10*time.Millisecond)
	})

	t.Run("close", func(t *testing.T) {
		_, w := startWatcher(t)
		events, err := w.Watch(context.Background(), "*")
		require.NoError(t, err)

		require.NoError(t, w.Close())
		_, ok := <-events
		assert.False(t, ok)
	})
}

func TestItemWatcher_RejectsBadGlob(t *testing.T) {
	t.Parallel()
	_, w := startWatcher(t)

	_, err := w.Watch(context.Background(), "00[1-")
	require.Error(t, err)
}

func TestMatchesPattern(t *testing.T) {
	for _, tt := range []struct {
		pattern, id string
		want        bool
	}{
		{"", "001-a", true},
		{"*", "001-a", true},
		{"00?-*", "007-auth", true},
		{"001-*", "002-auth", false},
		{"{001,003}-*", "003-docs", true},
		{"001-a", "001-ab", false},
	} {
		assert.Equal(t, tt.want, matchesPattern(tt.pattern, tt.id), "%s vs %s", tt.pattern, tt.id)
	}
}
