package logutils

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func readLines(t *testing.T, path string) []map[string]any {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer func() { _ = f.Close() }()

	var lines []map[string]any
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		var m map[string]any
		require.NoError(t, json.Unmarshal(sc.Bytes(), &m))
		lines = append(lines, m)
	}
	return lines
}

func TestNew_AppendsAcrossRuns(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".wreckit", "wreckit.log")

	for _, run := range []string{"run one", "run two"} {
		l, closeFn, err := New("debug", path)
		require.NoError(t, err)
		l.Debug().Msg(run)
		closeFn()
	}

	lines := readLines(t, path)
	require.Len(t, lines, 2)
	assert.Equal(t, "run one", lines[0]["message"])
	assert.Equal(t, "run two", lines[1]["message"])
	assert.Contains(t, lines[0], "time")
}

func TestNew_Level(t *testing.T) {
	path := filepath.Join(t.TempDir(), "wreckit.log")

	l, closeFn, err := New("error", path)
	require.NoError(t, err)
	l.Warn().Msg("dropped")
	l.Error().Msg("kept")
	closeFn()

	lines := readLines(t, path)
	require.Len(t, lines, 1)
	assert.Equal(t, "kept", lines[0]["message"])
}

func TestNew_Errors(t *testing.T) {
	_, closeFn, err := New("chatty", Stderr)
	require.Error(t, err)
	closeFn()

	_, _, err = New("info", Stderr)
	require.NoError(t, err)
}
