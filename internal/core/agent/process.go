package agent

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/colonyops/wreckit/internal/core/logging"
	"github.com/colonyops/wreckit/pkg/executil"
)

// ProcessRunner runs the agent as a subprocess with the prompt on stdin.
type ProcessRunner struct {
	Command          string
	Args             []string
	CompletionSignal string
	Exec             executil.Executor
}

var _ Runner = (*ProcessRunner)(nil)

func (r *ProcessRunner) Run(ctx context.Context, req Request) (Result, error) {
	log := logging.Component("agent")

	runCtx := ctx
	if req.Timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, req.Timeout)
		defer cancel()
	}

	out := &syncBuffer{}
	var w io.Writer = out
	if req.Progress != nil {
		w = io.MultiWriter(out, req.Progress)
	}

	start := time.Now()
	log.Debug().Ctx(ctx).Str("cmd", r.Command).Strs("args", r.Args).Msg("starting agent")

	err := r.Exec.Exec(runCtx, executil.Request{
		Dir:    req.Dir,
		Cmd:    r.Command,
		Args:   r.Args,
		Stdin:  strings.NewReader(req.Prompt),
		Stdout: w,
		Stderr: w,
	})

	res := Result{Output: out.String()}
	res.CompletionDetected = r.CompletionSignal != "" && strings.Contains(res.Output, r.CompletionSignal)

	// The caller's cancellation wins over our own deadline.
	if ctx.Err() != nil {
		return res, ctx.Err()
	}
	if errors.Is(runCtx.Err(), context.DeadlineExceeded) {
		res.TimedOut = true
		log.Warn().Ctx(ctx).Dur("timeout", req.Timeout).Msg("agent timed out")
		return res, nil
	}

	if err != nil {
		code, ok := executil.ExitCode(err)
		if !ok {
			return res, fmt.Errorf("run agent %s: %w", r.Command, err)
		}
		res.ExitStatus = &code
	} else {
		zero := 0
		res.ExitStatus = &zero
	}

	res.Succeeded = *res.ExitStatus == 0 && res.CompletionDetected

	log.Debug().Ctx(ctx).
		Int("exit", *res.ExitStatus).
		Bool("completion", res.CompletionDetected).
		Dur("elapsed", time.Since(start)).
		Msg("agent finished")

	for _, ev := range ParseEvents(res.Output) {
		log.Trace().Ctx(ctx).Str("kind", string(ev.Kind)).Str("tool", ev.ToolName).Msg("agent event")
	}

	return res, nil
}

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}
