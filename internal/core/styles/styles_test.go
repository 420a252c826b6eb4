package styles

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/colonyops/wreckit/internal/core/state"
)

func TestThemes(t *testing.T) {
	names := ThemeNames()
	assert.Contains(t, names, DefaultTheme)
	assert.IsIncreasing(t, names)

	for _, name := range names {
		p, ok := GetPalette(name)
		require.True(t, ok)
		assert.NotEmpty(t, p.Primary, name)
		assert.NotEmpty(t, p.Error, name)
	}

	_, ok := GetPalette("nope")
	assert.False(t, ok)
}

func TestSetTheme(t *testing.T) {
	defer SetTheme(themes[DefaultTheme])

	p, _ := GetPalette("nord")
	SetTheme(p)
	assert.Equal(t, p, CurrentPalette)

	cfg := GlamourStyle()
	require.NotNil(t, cfg.Link.Color)
	assert.Equal(t, string(p.Secondary), *cfg.Link.Color)
}

func TestStateStyle_CoversAllStates(t *testing.T) {
	for _, s := range state.All() {
		assert.NotPanics(t, func() { _ = StateStyle(s).Render(s.Label()) })
	}
}
