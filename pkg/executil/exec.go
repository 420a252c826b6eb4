// Package executil runs external processes for git, gh and the agent worker.
package executil

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"time"
)

const waitDelay = 2 * time.Second

// Request describes a single process invocation with optional stdin.
type Request struct {
	Dir    string
	Cmd    string
	Args   []string
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
}

// Executor runs external commands.
type Executor interface {
	// Run executes a command and returns its combined output.
	Run(ctx context.Context, cmd string, args ...string) ([]byte, error)
	// RunDir executes a command in a specific directory.
	RunDir(ctx context.Context, dir, cmd string, args ...string) ([]byte, error)
	// RunDirStream executes a command in a specific directory and streams output.
	RunDirStream(ctx context.Context, dir string, stdout, stderr io.Writer, cmd string, args ...string) error
	// Exec runs a fully described request, wiring stdin and output streams.
	Exec(ctx context.Context, req Request) error
}

// RealExecutor calls actual processes.
type RealExecutor struct{}

var _ Executor = (*RealExecutor)(nil)

// Run executes a command and returns its combined output.
func (e *RealExecutor) Run(ctx context.Context, cmd string, args ...string) ([]byte, error) {
	out, err := exec.CommandContext(ctx, cmd, args...).CombinedOutput()
	if err != nil {
		return out, fmt.Errorf("exec %s: %w", cmd, err)
	}
	return out, nil
}

// RunDir executes a command in a specific directory.
func (e *RealExecutor) RunDir(ctx context.Context, dir, cmd string, args ...string) ([]byte, error) {
	c := exec.CommandContext(ctx, cmd, args...)
	c.Dir = dir
	out, err := c.CombinedOutput()
	if err != nil {
		return out, fmt.Errorf("exec %s in %s: %w", cmd, dir, err)
	}
	return out, nil
}

// RunDirStream executes a command in a specific directory and streams output.
func (e *RealExecutor) RunDirStream(ctx context.Context, dir string, stdout, stderr io.Writer, cmd string, args ...string) error {
	return e.Exec(ctx, Request{Dir: dir, Cmd: cmd, Args: args, Stdout: stdout, Stderr: stderr})
}

// Exec runs req. The process is killed when ctx is done.
func (e *RealExecutor) Exec(ctx context.Context, req Request) error {
	c := exec.CommandContext(ctx, req.Cmd, req.Args...)
	c.Dir = req.Dir
	c.Stdin = req.Stdin
	c.Stdout = req.Stdout
	c.Stderr = req.Stderr
	// Children that inherit the output pipes must not hold Wait open once
	// ctx is done.
	c.WaitDelay = waitDelay
	if err := c.Run(); err != nil {
		if req.Dir != "" {
			return fmt.Errorf("exec %s in %s: %w", req.Cmd, req.Dir, err)
		}
		return fmt.Errorf("exec %s: %w", req.Cmd, err)
	}
	return nil
}

// ExitCode extracts the process exit code from err. The boolean is false when
// the process never produced an exit status (not started, killed by signal).
func ExitCode(err error) (int, bool) {
	if err == nil {
		return 0, true
	}
	var exitErr *exec.ExitError
	if !errors.As(err, &exitErr) {
		return 0, false
	}
	code := exitErr.ExitCode()
	if code < 0 {
		return 0, false
	}
	return code, true
}
