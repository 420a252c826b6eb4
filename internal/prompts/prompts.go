// Package prompts loads and renders the instructions handed to the agent for
// each phase.
package prompts

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/colonyops/wreckit/internal/core/item"
	"github.com/colonyops/wreckit/pkg/tmpl"
)

//go:embed defaults/*.md
var defaultsFS embed.FS

// Name identifies a prompt template.
type Name string

const (
	Research  Name = "research"
	Plan      Name = "plan"
	Implement Name = "implement"
	PR        Name = "pr"
)

// Names lists every bundled template.
func Names() []Name {
	return []Name{Research, Plan, Implement, PR}
}

// Variables is the data available to templates.
type Variables struct {
	ID               string
	Title            string
	Section          string
	Overview         string
	ItemPath         string
	BranchName       string
	BaseBranch       string
	CompletionSignal string

	Research string
	Plan     string
	PRD      string
	Progress string
	Story    item.SubTask

	ProblemStatement     string
	Motivation           string
	SuccessCriteria      []string
	TechnicalConstraints []string
	ScopeInScope         []string
	ScopeOutOfScope      []string
}

// FromItem fills the item-derived fields of Variables.
func FromItem(it item.Item, itemPath string) Variables {
	it = it.Clone()
	return Variables{
		ID:                   it.ID,
		Title:                it.Title,
		Section:              it.Section,
		Overview:             it.Overview,
		ItemPath:             itemPath,
		BranchName:           it.Branch,
		ProblemStatement:     it.ProblemStatement,
		Motivation:           it.Motivation,
		SuccessCriteria:      it.SuccessCriteria,
		TechnicalConstraints: it.TechnicalConstraints,
		ScopeInScope:         it.ScopeInScope,
		ScopeOutOfScope:      it.ScopeOutOfScope,
	}
}

// Loader resolves templates, preferring user overrides in dir.
type Loader struct {
	dir string
}

// NewLoader returns a loader reading overrides from dir (usually
// .wreckit/prompts). An empty dir disables overrides.
func NewLoader(dir string) *Loader {
	return &Loader{dir: dir}
}

// Default returns the bundled template text.
func Default(name Name) (string, error) {
	data, err := defaultsFS.ReadFile("defaults/" + string(name) + ".md")
	if err != nil {
		return "", fmt.Errorf("unknown prompt %q", name)
	}
	return string(data), nil
}

// Load returns the template text for name and whether it came from an override.
func (l *Loader) Load(name Name) (string, bool, error) {
	if l.dir != "" {
		data, err := os.ReadFile(filepath.Join(l.dir, string(name)+".md"))
		if err == nil {
			return string(data), true, nil
		}
		if !errors.Is(err, fs.ErrNotExist) {
			return "", false, fmt.Errorf("read prompt override %s: %w", name, err)
		}
	}

	text, err := Default(name)
	return text, false, err
}

// Render loads and executes the template for name.
func (l *Loader) Render(name Name, vars Variables) (string, error) {
	text, override, err := l.Load(name)
	if err != nil {
		return "", err
	}

	out, err := tmpl.Render(text, vars)
	if err != nil {
		if override {
			return "", fmt.Errorf("render prompt %s (override in %s): %w", name, l.dir, err)
		}
		return "", fmt.Errorf("render prompt %s: %w", name, err)
	}
	return out, nil
}

// Extract writes the bundled templates into dir for customization. Existing
// files are kept unless force is set. Returns the paths written.
func Extract(dir string, force bool) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create prompts dir: %w", err)
	}

	var written []string
	for _, name := range Names() {
		dest := filepath.Join(dir, string(name)+".md")
		if !force {
			if _, err := os.Stat(dest); err == nil {
				continue
			}
		}

		text, err := Default(name)
		if err != nil {
			return written, err
		}
		if err := os.WriteFile(dest, []byte(text), 0o644); err != nil {
			return written, fmt.Errorf("write %s: %w", dest, err)
		}
		written = append(written, dest)
	}

	return written, nil
}
