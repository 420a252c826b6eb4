package logging

import (
	"context"

	"github.com/rs/zerolog"
)

// field is a log field carried on a context.Context.
type field string

// Fields are emitted in this order.
var fields = []field{"batch_id", "item_id", "phase"}

func with(ctx context.Context, f field, v string) context.Context {
	return context.WithValue(ctx, f, v)
}

func from(ctx context.Context, f field) string {
	v, _ := ctx.Value(f).(string)
	return v
}

func WithItemID(ctx context.Context, id string) context.Context   { return with(ctx, "item_id", id) }
func WithPhase(ctx context.Context, phase string) context.Context { return with(ctx, "phase", phase) }
func WithBatchID(ctx context.Context, id string) context.Context  { return with(ctx, "batch_id", id) }

func GetItemID(ctx context.Context) string  { return from(ctx, "item_id") }
func GetPhase(ctx context.Context) string   { return from(ctx, "phase") }
func GetBatchID(ctx context.Context) string { return from(ctx, "batch_id") }

// ContextHook adds the context fields of events logged with .Ctx(ctx).
type ContextHook struct{}

func (ContextHook) Run(e *zerolog.Event, _ zerolog.Level, _ string) {
	ctx := e.GetCtx()
	if ctx == nil {
		return
	}
	for _, f := range fields {
		if v := from(ctx, f); v != "" {
			e.Str(string(f), v)
		}
	}
}
