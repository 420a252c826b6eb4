package db

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testDB(t *testing.T) *DB {
	t.Helper()
	d, err := Open(t.TempDir(), DefaultOpenOptions())
	require.NoError(t, err)
	t.Cleanup(func() { _ = d.Close() })
	return d
}

func tableExists(t *testing.T, d *DB, table string) bool {
	t.Helper()
	var n int
	err := d.Conn().QueryRow(`SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = ?`, table).Scan(&n)
	require.NoError(t, err)
	return n == 1
}

func TestOpen_AppliesEverySchemaStep(t *testing.T) {
	d := testDB(t)

	steps, err := readSteps()
	require.NoError(t, err)

	var recorded int
	require.NoError(t, d.Conn().QueryRow(`SELECT COUNT(*) FROM schema_version`).Scan(&recorded))
	assert.Equal(t, len(steps), recorded)

	assert.True(t, tableExists(t, d, "phase_runs"))
	assert.True(t, tableExists(t, d, "kv_store"))
}

func TestOpen_ReopenKeepsData(t *testing.T) {
	dir := t.TempDir()

	first, err := Open(dir, DefaultOpenOptions())
	require.NoError(t, err)
	_, err = first.Conn().Exec(`
		INSERT INTO phase_runs (id, item_id, from_state, to_state, outcome, started_at, finished_at)
		VALUES ('r1', '001-cache', 'idea', 'researched', 'advanced', 1, 2)`)
	require.NoError(t, err)
	require.NoError(t, first.Close())

	second, err := Open(dir, DefaultOpenOptions())
	require.NoError(t, err)
	defer func() { _ = second.Close() }()

	var n int
	require.NoError(t, second.Conn().QueryRow(`SELECT COUNT(*) FROM phase_runs`).Scan(&n))
	assert.Equal(t, 1, n)
}

func TestRollback(t *testing.T) {
	d := testDB(t)
	ctx := context.Background()

	require.NoError(t, Rollback(ctx, d.Conn(), 1))
	assert.False(t, tableExists(t, d, "kv_store"))
	assert.True(t, tableExists(t, d, "phase_runs"))

	// Applying again restores the dropped step only.
	require.NoError(t, migrate(ctx, d.Conn()))
	assert.True(t, tableExists(t, d, "kv_store"))
}

func TestRollback_Bounds(t *testing.T) {
	d := testDB(t)
	ctx := context.Background()

	assert.Error(t, Rollback(ctx, d.Conn(), 0))

	steps, err := readSteps()
	require.NoError(t, err)
	assert.Error(t, Rollback(ctx, d.Conn(), len(steps)+1))
}

func TestReadSteps(t *testing.T) {
	steps, err := readSteps()
	require.NoError(t, err)
	require.Len(t, steps, 2)

	assert.Equal(t, "0001_phase_runs", steps[0].String())
	assert.Equal(t, "0002_kv_store", steps[1].String())
	for _, s := range steps {
		assert.Contains(t, s.forward, "CREATE TABLE")
		assert.Contains(t, s.rollback, "DROP TABLE")
	}
}

func TestSplitSchemaFile(t *testing.T) {
	tests := []struct {
		file    string
		version int
		name    string
		dir     string
		wantErr bool
	}{
		{file: "0001_phase_runs.up.sql", version: 1, name: "phase_runs", dir: "up"},
		{file: "0012_kv_store.down.sql", version: 12, name: "kv_store", dir: "down"},
		{file: "0001_phase_runs.sql", wantErr: true},
		{file: "0000_empty.up.sql", wantErr: true},
		{file: "v1_runs.up.sql", wantErr: true},
		{file: "0003_.up.sql", wantErr: true},
		{file: "0003_Runs.up.sql", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.file, func(t *testing.T) {
			version, name, dir, err := splitSchemaFile(tt.file)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.version, version)
			assert.Equal(t, tt.name, name)
			assert.Equal(t, tt.dir, dir)
		})
	}
}
