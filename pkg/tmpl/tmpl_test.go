package tmpl

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type promptData struct {
	ID       string
	Title    string
	Section  string
	Criteria []string
	Args     []string
}

func TestRender_PromptFragments(t *testing.T) {
	data := promptData{
		ID:       "012-rate-limit",
		Title:    "Rate limit the API",
		Criteria: []string{"429 after 100 req/min", "limit is configurable"},
		Args:     []string{"--print", "--verbose"},
	}

	tests := []struct {
		name string
		text string
		want string
	}{
		{"fields", "# {{ .ID }}: {{ .Title }}", "# 012-rate-limit: Rate limit the API"},
		{"bullets", "{{ bullets .Criteria }}", "- 429 after 100 req/min\n- limit is configurable"},
		{"default on blank", `{{ .Section | default "general" }}`, "general"},
		{"join", `claude {{ join .Args " " }}`, "claude --print --verbose"},
		{"shell quote", "echo {{ .Title | shq }}", "echo 'Rate limit the API'"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Render(tt.text, data)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestShellQuote(t *testing.T) {
	assert.Equal(t, "''", shellQuote(""))
	assert.Equal(t, `'don'\''t'`, shellQuote("don't"))
	assert.Equal(t, "'$HOME; rm'", shellQuote("$HOME; rm"))
}

func TestDefaultValue(t *testing.T) {
	assert.Equal(t, "general", defaultValue("general", " \t"))
	assert.Equal(t, "ui", defaultValue("general", "ui"))
}

func TestBullets(t *testing.T) {
	assert.Empty(t, bullets(nil))

	// A string where a list is expected fails at execution.
	_, err := Render("{{ bullets .Title }}", promptData{Title: "x"})
	require.Error(t, err)
}

func TestRender_Errors(t *testing.T) {
	_, err := Render("{{ .Missing }}", map[string]string{"Title": "x"})
	require.Error(t, err)
	assert.True(t, strings.HasPrefix(err.Error(), "execute template"))

	_, err = Render("{{ .Title }", nil)
	require.Error(t, err)
	assert.True(t, strings.HasPrefix(err.Error(), "parse template"))
}

func TestParse(t *testing.T) {
	tpl, err := Parse("research.md", "{{ if .Title }}{{ .Title }}{{ end }}")
	require.NoError(t, err)
	assert.Equal(t, "research.md", tpl.Name())

	_, err = Parse("bad.md", "{{ range }}")
	require.Error(t, err)
}
