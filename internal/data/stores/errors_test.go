package stores

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/colonyops/wreckit/internal/data/db"
)

func TestIsCorruptionError(t *testing.T) {
	tests := []struct {
		err  error
		want bool
	}{
		{err: nil, want: false},
		{err: errors.New("file is not a database"), want: true},
		{err: fmt.Errorf("list runs: %w", errors.New("database disk image is malformed")), want: true},
		{err: errors.New("UNIQUE constraint failed"), want: false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, IsCorruptionError(tt.err), "%v", tt.err)
	}
}

func TestIsBusyError_PlainErrors(t *testing.T) {
	// Only driver errors carry a result code.
	assert.False(t, IsBusyError(errors.New("database is locked")))
	assert.False(t, IsBusyError(nil))
}

func TestRecoverFromCorruption_MovesSidecars(t *testing.T) {
	dir := t.TempDir()
	live := filepath.Join(dir, db.FileName)
	for _, suffix := range []string{"", "-wal", "-shm"} {
		require.NoError(t, os.WriteFile(live+suffix, []byte("junk"), 0o644))
	}

	moved, err := RecoverFromCorruption(dir)
	require.NoError(t, err)
	assert.Contains(t, filepath.Base(moved), ".corrupt.")

	for _, suffix := range []string{"", "-wal", "-shm"} {
		assert.NoFileExists(t, live+suffix)
		assert.FileExists(t, moved+suffix)
	}

	fresh, err := db.Open(dir, db.DefaultOpenOptions())
	require.NoError(t, err)
	require.NoError(t, fresh.Close())
}

func TestRecoverFromCorruption_NothingToMove(t *testing.T) {
	moved, err := RecoverFromCorruption(t.TempDir())
	require.NoError(t, err)
	assert.NoFileExists(t, moved)
}
