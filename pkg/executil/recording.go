package executil

import (
	"context"
	"io"
	"strings"
	"sync"
)

// RecordedCommand captures a command that was executed.
type RecordedCommand struct {
	Dir   string
	Cmd   string
	Args  []string
	Stdin string
}

// Line returns the command and arguments joined by spaces.
func (c RecordedCommand) Line() string {
	return strings.TrimSpace(c.Cmd + " " + strings.Join(c.Args, " "))
}

// RecordingExecutor captures commands for testing.
//
// Outputs and Errors are keyed first by "cmd sub" (the command plus its first
// argument, e.g. "git push") and then by the bare command name.
type RecordingExecutor struct {
	mu       sync.Mutex
	Commands []RecordedCommand

	Outputs map[string][]byte
	Errors  map[string]error
}

var _ Executor = (*RecordingExecutor)(nil)

// Run records the command and returns configured output/error.
func (e *RecordingExecutor) Run(_ context.Context, cmd string, args ...string) ([]byte, error) {
	return e.record(RecordedCommand{Cmd: cmd, Args: args})
}

// RunDir records the command with directory and returns configured output/error.
func (e *RecordingExecutor) RunDir(_ context.Context, dir, cmd string, args ...string) ([]byte, error) {
	return e.record(RecordedCommand{Dir: dir, Cmd: cmd, Args: args})
}

// RunDirStream records the command and writes configured output to stdout.
func (e *RecordingExecutor) RunDirStream(ctx context.Context, dir string, stdout, stderr io.Writer, cmd string, args ...string) error {
	return e.Exec(ctx, Request{Dir: dir, Cmd: cmd, Args: args, Stdout: stdout, Stderr: stderr})
}

// Exec records req, including anything read from stdin.
func (e *RecordingExecutor) Exec(_ context.Context, req Request) error {
	rc := RecordedCommand{Dir: req.Dir, Cmd: req.Cmd, Args: req.Args}
	if req.Stdin != nil {
		bits, _ := io.ReadAll(req.Stdin)
		rc.Stdin = string(bits)
	}

	out, err := e.record(rc)
	if req.Stdout != nil && len(out) > 0 {
		_, _ = req.Stdout.Write(out)
	}
	return err
}

func (e *RecordingExecutor) record(rc RecordedCommand) ([]byte, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.Commands = append(e.Commands, rc)

	keys := []string{rc.Cmd}
	if len(rc.Args) > 0 {
		keys = []string{rc.Cmd + " " + rc.Args[0], rc.Cmd}
	}

	var out []byte
	var err error
	for _, k := range keys {
		if o, ok := e.Outputs[k]; ok {
			out = o
			break
		}
	}
	for _, k := range keys {
		if er, ok := e.Errors[k]; ok {
			err = er
			break
		}
	}

	return out, err
}

// Lines returns every recorded command as a single line.
func (e *RecordingExecutor) Lines() []string {
	e.mu.Lock()
	defer e.mu.Unlock()

	lines := make([]string, len(e.Commands))
	for i, c := range e.Commands {
		lines[i] = c.Line()
	}
	return lines
}

// Reset clears recorded commands.
func (e *RecordingExecutor) Reset() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.Commands = nil
}
