package iojson

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type payload struct {
	Ideas []struct {
		Title string `json:"title" yaml:"title"`
	} `json:"ideas" yaml:"ideas"`
}

func TestFileReader_JSONFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ideas.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"ideas":[{"title":"a"}]}`), 0o644))

	fr := &FileReader[payload]{fileFlagValue: path}
	got, err := fr.Read()
	require.NoError(t, err)
	require.Len(t, got.Ideas, 1)
	assert.Equal(t, "a", got.Ideas[0].Title)
}

func TestFileReader_YAMLFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ideas.yaml")
	require.NoError(t, os.WriteFile(path, []byte("ideas:\n  - title: b\n"), 0o644))

	fr := &FileReader[payload]{fileFlagValue: path}
	got, err := fr.Read()
	require.NoError(t, err)
	require.Len(t, got.Ideas, 1)
	assert.Equal(t, "b", got.Ideas[0].Title)
}

func TestFileReader_Stdin(t *testing.T) {
	fr := &FileReader[payload]{stdin: strings.NewReader(`{"ideas":[{"title":"c"}]}`)}
	assert.True(t, fr.HasInput())

	got, err := fr.Read()
	require.NoError(t, err)
	assert.Equal(t, "c", got.Ideas[0].Title)
}

func TestFileReader_TerminalWithoutFile(t *testing.T) {
	fr := &FileReader[payload]{isTerminal: func() bool { return true }}
	assert.False(t, fr.HasInput())

	_, err := fr.Read()
	require.ErrorIs(t, err, ErrNoInput)
}

func TestWriteWith(t *testing.T) {
	var out, errOut bytes.Buffer
	require.NoError(t, WriteWith(&out, &errOut, map[string]int{"n": 1}))
	assert.JSONEq(t, `{"n":1}`, out.String())
	assert.Empty(t, errOut.String())

	require.NoError(t, WriteWith(&out, &errOut, make(chan int)))
	assert.Contains(t, errOut.String(), "json_error")
}

func TestWriteErrorTo(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteErrorTo(&buf, "boom", map[string]any{"id": "001"}))

	var e Error
	require.NoError(t, json.Unmarshal(buf.Bytes(), &e))
	assert.Equal(t, "boom", e.Message)
	assert.Equal(t, "001", e.Data["id"])
}

func TestWriteLine(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteLine(&buf, map[string]int{"a": 1}))
	require.NoError(t, WriteLine(&buf, map[string]int{"b": 2}))

	assert.Equal(t, "{\"a\":1}\n{\"b\":2}\n", buf.String())
}
