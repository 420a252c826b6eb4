package doctor

import (
	"context"
	"os/exec"
)

// lookPathFunc is the function used to find executables on PATH.
// Package-level variable to allow test overrides.
var lookPathFunc = exec.LookPath

// ToolsCheck verifies that external tools are available on $PATH.
type ToolsCheck struct {
	git   string
	gh    string
	agent string
}

// NewToolsCheck creates a tools check for the configured binaries.
func NewToolsCheck(gitPath, ghPath, agentCommand string) *ToolsCheck {
	return &ToolsCheck{git: gitPath, gh: ghPath, agent: agentCommand}
}

func (c *ToolsCheck) Name() string {
	return "Tools"
}

func (c *ToolsCheck) Run(_ context.Context) Result {
	result := Result{Name: c.Name()}

	result.Entries = append(result.Entries,
		lookup("git", c.git, StatusFail, "not found on PATH"),
		lookup("agent", c.agent, StatusFail, "not found on PATH (required to run phases)"),
		lookup("gh", c.gh, StatusWarn, "not found on PATH (required to open and track pull requests)"),
	)

	return result
}

func lookup(label, bin string, missing Status, detail string) Entry {
	if bin == "" {
		return Entry{Label: label, Status: missing, Detail: "not configured"}
	}
	path, err := lookPathFunc(bin)
	if err != nil {
		return Entry{Label: label, Status: missing, Detail: bin + " " + detail}
	}
	return Entry{Label: label, Status: StatusPass, Detail: path}
}
