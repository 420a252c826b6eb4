// Package styles provides shared lipgloss styles for CLI output.
package styles

import (
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/colonyops/wreckit/internal/core/state"
)

// CurrentPalette holds the active theme palette.
var CurrentPalette Palette

// Text styles rebuilt by SetTheme.
var (
	TextPrimaryBoldStyle    lipgloss.Style
	TextForegroundStyle     lipgloss.Style
	TextForegroundBoldStyle lipgloss.Style
	TextMutedStyle          lipgloss.Style
	TextSuccessStyle        lipgloss.Style
	TextWarningStyle        lipgloss.Style
	TextErrorStyle          lipgloss.Style

	HeaderStyle  lipgloss.Style
	DividerStyle lipgloss.Style
	BannerStyle  lipgloss.Style
)

// SetTheme sets the active palette and rebuilds all global styles.
func SetTheme(p Palette) {
	CurrentPalette = p

	TextPrimaryBoldStyle = lipgloss.NewStyle().Foreground(p.Primary).Bold(true)
	TextForegroundStyle = lipgloss.NewStyle().Foreground(p.Foreground)
	TextForegroundBoldStyle = lipgloss.NewStyle().Foreground(p.Foreground).Bold(true)
	TextMutedStyle = lipgloss.NewStyle().Foreground(p.Muted)
	TextSuccessStyle = lipgloss.NewStyle().Foreground(p.Success)
	TextWarningStyle = lipgloss.NewStyle().Foreground(p.Warning)
	TextErrorStyle = lipgloss.NewStyle().Foreground(p.Error)

	HeaderStyle = lipgloss.NewStyle().
		Foreground(p.Primary).
		Bold(true).
		Underline(true)
	DividerStyle = lipgloss.NewStyle().Foreground(p.Muted)
	BannerStyle = lipgloss.NewStyle().
		Foreground(p.Primary).
		Bold(true).
		Padding(0, 1).
		Border(lipgloss.RoundedBorder()).
		BorderForeground(p.Surface)
}

// StateStyle returns the style used to render a lifecycle state.
func StateStyle(s state.State) lipgloss.Style {
	switch s {
	case state.Idea:
		return TextMutedStyle
	case state.Researched, state.Planned:
		return lipgloss.NewStyle().Foreground(CurrentPalette.Secondary)
	case state.Implementing:
		return TextWarningStyle
	case state.InReview:
		return lipgloss.NewStyle().Foreground(CurrentPalette.Primary)
	case state.Done:
		return TextSuccessStyle
	default:
		return TextErrorStyle
	}
}

// FormTheme returns a huh theme matching the active palette.
func FormTheme() *huh.Theme {
	t := huh.ThemeBase()
	t.Focused.Base = t.Focused.Base.BorderForeground(CurrentPalette.Primary)
	t.Focused.Title = t.Focused.Title.Foreground(CurrentPalette.Primary).Bold(true)
	t.Focused.Description = t.Focused.Description.Foreground(CurrentPalette.Muted)
	t.Focused.ErrorMessage = t.Focused.ErrorMessage.Foreground(CurrentPalette.Error)
	t.Blurred.Title = t.Blurred.Title.Foreground(CurrentPalette.Muted)
	return t
}

// nolint:gochecknoinits // bootstrap default theme before any style is accessed.
func init() {
	SetTheme(themes[DefaultTheme])
}
