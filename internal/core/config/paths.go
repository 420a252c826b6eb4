package config

import (
	"errors"
	"os"
	"path/filepath"
)

// DirName is the per-repository state directory.
const DirName = ".wreckit"

// Artifact file names inside an item directory.
const (
	ItemFile         = "item.json"
	RequirementsFile = "prd.json"
	ResearchFile     = "research.md"
	PlanFile         = "plan.md"
	ProgressFile     = "progress.log"
	PromptFile       = "prompt.md"
)

// ErrRepoNotFound is returned when no enclosing repository can be located.
var ErrRepoNotFound = errors.New("not inside a git repository or wreckit project")

// Paths resolves locations under the .wreckit directory.
type Paths struct {
	Root string
}

func (p Paths) Dir() string              { return filepath.Join(p.Root, DirName) }
func (p Paths) ConfigFile() string       { return filepath.Join(p.Dir(), "config.yaml") }
func (p Paths) LegacyConfigFile() string { return filepath.Join(p.Dir(), "config.json") }
func (p Paths) ItemsDir() string         { return filepath.Join(p.Dir(), "items") }
func (p Paths) PromptsDir() string       { return filepath.Join(p.Dir(), "prompts") }
func (p Paths) LogFile() string          { return filepath.Join(p.Dir(), "wreckit.log") }

// ItemDir returns the directory holding every artifact of one item.
func (p Paths) ItemDir(id string) string {
	return filepath.Join(p.ItemsDir(), id)
}

// Artifact returns the path of a named artifact for an item.
func (p Paths) Artifact(id, name string) string {
	return filepath.Join(p.ItemDir(id), name)
}

// Prompt returns the path of a user override for a named prompt template.
func (p Paths) Prompt(name string) string {
	return filepath.Join(p.PromptsDir(), name+".md")
}

// FindRoot walks up from start looking for a directory containing .wreckit,
// falling back to the nearest directory containing .git.
func FindRoot(start string) (string, error) {
	abs, err := filepath.Abs(start)
	if err != nil {
		return "", err
	}

	gitRoot := ""
	for dir := abs; ; dir = filepath.Dir(dir) {
		if dirExists(filepath.Join(dir, DirName)) {
			return dir, nil
		}
		if gitRoot == "" && exists(filepath.Join(dir, ".git")) {
			gitRoot = dir
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
	}

	if gitRoot != "" {
		return gitRoot, nil
	}
	return "", ErrRepoNotFound
}

func dirExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
