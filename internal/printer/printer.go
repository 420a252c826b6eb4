// Package printer writes styled, human-facing command output.
package printer

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/colonyops/wreckit/internal/core/styles"
)

type ctxKey struct{}

// Printer writes status lines to an output stream. Quiet suppresses
// informational lines but never errors or warnings.
type Printer struct {
	out   io.Writer
	quiet bool
}

// New creates a Printer writing to out.
func New(out io.Writer, quiet bool) *Printer {
	return &Printer{out: out, quiet: quiet}
}

// NewContext returns a copy of ctx carrying p.
func NewContext(ctx context.Context, p *Printer) context.Context {
	return context.WithValue(ctx, ctxKey{}, p)
}

// Ctx returns the Printer stored in ctx, or a stderr printer if none is set.
func Ctx(ctx context.Context) *Printer {
	if p, ok := ctx.Value(ctxKey{}).(*Printer); ok && p != nil {
		return p
	}
	return New(os.Stderr, false)
}

// Writer exposes the underlying stream for tables and rendered documents.
func (p *Printer) Writer() io.Writer {
	return p.out
}

func (p *Printer) line(icon, msg string) {
	_, _ = fmt.Fprintf(p.out, "%s %s\n", icon, msg)
}

// Success prints a titled success line with an optional muted detail.
func (p *Printer) Success(title, detail string) {
	if p.quiet {
		return
	}
	if detail != "" {
		title += " " + styles.TextMutedStyle.Render(detail)
	}
	p.line(styles.TextSuccessStyle.Render("✔"), title)
}

func (p *Printer) Successf(format string, args ...any) {
	if p.quiet {
		return
	}
	p.line(styles.TextSuccessStyle.Render("✔"), fmt.Sprintf(format, args...))
}

func (p *Printer) Infof(format string, args ...any) {
	if p.quiet {
		return
	}
	p.line(styles.TextPrimaryBoldStyle.Render("•"), fmt.Sprintf(format, args...))
}

func (p *Printer) Warnf(format string, args ...any) {
	p.line(styles.TextWarningStyle.Render("●"), fmt.Sprintf(format, args...))
}

func (p *Printer) Errorf(format string, args ...any) {
	p.line(styles.TextErrorStyle.Render("✘"), fmt.Sprintf(format, args...))
}

// Printf prints an unadorned line.
func (p *Printer) Printf(format string, args ...any) {
	if p.quiet {
		return
	}
	_, _ = fmt.Fprintln(p.out, fmt.Sprintf(format, args...))
}

// Header prints a section title followed by a divider.
func (p *Printer) Header(title string) {
	if p.quiet {
		return
	}
	_, _ = fmt.Fprintln(p.out, styles.TextPrimaryBoldStyle.Render(title))
	_, _ = fmt.Fprintln(p.out, styles.DividerStyle.Render(strings.Repeat("─", 40)))
}
