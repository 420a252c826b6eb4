package doctor

import (
	"context"
	"fmt"
	"os"

	"github.com/colonyops/wreckit/internal/core/config"
)

// DirsCheck verifies that the .wreckit directory layout exists.
type DirsCheck struct {
	paths config.Paths
}

// NewDirsCheck creates a directory layout check rooted at paths.
func NewDirsCheck(paths config.Paths) *DirsCheck {
	return &DirsCheck{paths: paths}
}

func (c *DirsCheck) Name() string {
	return "Directories"
}

func (c *DirsCheck) dirs() []string {
	return []string{c.paths.Dir(), c.paths.ItemsDir()}
}

func (c *DirsCheck) Run(_ context.Context) Result {
	result := Result{Name: c.Name()}

	for _, dir := range c.dirs() {
		info, err := os.Stat(dir)
		switch {
		case os.IsNotExist(err):
			result.Entries = append(result.Entries, Entry{
				Label:   dir,
				Status:  StatusWarn,
				Detail:  "directory does not exist (run wreckit init)",
				Fixable: true,
			})
		case err != nil:
			result.Entries = append(result.Entries, Entry{
				Label:  dir,
				Status: StatusFail,
				Detail: fmt.Sprintf("inaccessible: %v", err),
			})
		case !info.IsDir():
			result.Entries = append(result.Entries, Entry{
				Label:  dir,
				Status: StatusFail,
				Detail: "path is not a directory",
			})
		default:
			result.Entries = append(result.Entries, Entry{
				Label:  dir,
				Status: StatusPass,
			})
		}
	}

	return result
}

// Fix creates missing directories.
func (c *DirsCheck) Fix(_ context.Context) ([]string, error) {
	var actions []string
	for _, dir := range c.dirs() {
		if _, err := os.Stat(dir); !os.IsNotExist(err) {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return actions, fmt.Errorf("create %s: %w", dir, err)
		}
		actions = append(actions, "created "+dir)
	}
	return actions, nil
}
