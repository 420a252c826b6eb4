// Package tmpl renders prompt and command templates.
package tmpl

import (
	"bytes"
	"fmt"
	"strings"
	"text/template"
)

// quotes and escapes embedded single quotes outside the quoted span.
func shellQuote(s string) string {
	if s == "" {
		return "''"
	}
	escaped := strings.ReplaceAll(s, "'", `'\''`)
	return "'" + escaped + "'"
}

// bullets renders each value as a markdown list item.
func bullets(values []string) string {
	if len(values) == 0 {
		return ""
	}
	var sb strings.Builder
	for i, v := range values {
		if i > 0 {
			sb.WriteByte('\n')
		}
		sb.WriteString("- ")
		sb.WriteString(v)
	}
	return sb.String()
}

// defaultValue returns s, or def when s is blank. The argument order matches
// pipeline usage: {{ .Section | default "general" }}.
func defaultValue(def, s string) string {
	if strings.TrimSpace(s) == "" {
		return def
	}
	return s
}

var funcs = template.FuncMap{
	"shq":     shellQuote,
	"join":    strings.Join,
	"bullets": bullets,
	"default": defaultValue,
	"trim":    strings.TrimSpace,
}

// Parse compiles a template without executing it.
func Parse(name, text string) (*template.Template, error) {
	t, err := template.New(name).Funcs(funcs).Option("missingkey=error").Parse(text)
	if err != nil {
		return nil, fmt.Errorf("parse template: %w", err)
	}
	return t, nil
}

// Render executes a Go template string with the given data.
// Returns an error if the template is invalid or references undefined keys.
//
// Available template functions:
//   - shq: Shell-quote a string for safe use in shell commands
//   - join: Join string slice with separator (e.g., join .Args " ")
//   - bullets: Render a string slice as a markdown list
//   - default: Fallback for blank strings
//   - trim: Trim surrounding whitespace
func Render(text string, data any) (string, error) {
	t, err := Parse("", text)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("execute template: %w", err)
	}

	return buf.String(), nil
}
