// Package agent invokes the external coding agent that produces an item's
// artifacts.
package agent

import (
	"context"
	"io"
	"time"
)

// Request is one agent invocation.
type Request struct {
	Prompt  string
	Dir     string
	Timeout time.Duration
	// Progress receives a copy of the agent's output as it is produced.
	Progress io.Writer
}

// Result describes how the agent exited. CompletionDetected is advisory;
// callers decide success from the artifacts the agent left behind.
type Result struct {
	Succeeded          bool
	Output             string
	CompletionDetected bool
	ExitStatus         *int
	TimedOut           bool
}

// Runner runs the agent. An error means the agent could not be run at all or
// the caller's context ended; timeouts are reported in Result.
type Runner interface {
	Run(ctx context.Context, req Request) (Result, error)
}

// DryRunRunner reports success without running anything.
type DryRunRunner struct{}

var _ Runner = DryRunRunner{}

func (DryRunRunner) Run(_ context.Context, req Request) (Result, error) {
	const out = "[dry run] agent not executed\n"
	if req.Progress != nil {
		_, _ = io.WriteString(req.Progress, out)
	}
	zero := 0
	return Result{Succeeded: true, Output: out, CompletionDetected: true, ExitStatus: &zero}, nil
}
