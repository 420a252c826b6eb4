package printer

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPrinter(t *testing.T) {
	var buf bytes.Buffer
	p := New(&buf, false)

	p.Success("Item created", "001-a")
	p.Infof("running %s", "research")
	p.Warnf("careful")
	p.Errorf("failed: %d", 2)
	p.Printf("plain")

	out := buf.String()
	assert.Contains(t, out, "Item created")
	assert.Contains(t, out, "001-a")
	assert.Contains(t, out, "running research")
	assert.Contains(t, out, "careful")
	assert.Contains(t, out, "failed: 2")
	assert.Contains(t, out, "plain")
}

func TestPrinter_Quiet(t *testing.T) {
	var buf bytes.Buffer
	p := New(&buf, true)

	p.Successf("ok")
	p.Infof("info")
	p.Printf("plain")
	assert.Empty(t, buf.String())

	p.Errorf("still shown")
	assert.Contains(t, buf.String(), "still shown")
}

func TestCtx(t *testing.T) {
	var buf bytes.Buffer
	p := New(&buf, false)
	ctx := NewContext(context.Background(), p)

	assert.Same(t, p, Ctx(ctx))
	assert.NotNil(t, Ctx(context.Background()))
}
