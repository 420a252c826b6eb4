package styles

import (
	"slices"

	glamouransi "github.com/charmbracelet/glamour/ansi"
	glamourstyles "github.com/charmbracelet/glamour/styles"
	"github.com/charmbracelet/lipgloss"
)

// Palette holds the semantic colors every style is derived from.
type Palette struct {
	Primary    lipgloss.Color
	Secondary  lipgloss.Color
	Foreground lipgloss.Color
	Muted      lipgloss.Color
	Surface    lipgloss.Color
	Success    lipgloss.Color
	Warning    lipgloss.Color
	Error      lipgloss.Color
}

const DefaultTheme = "tokyo-night"

var themes = map[string]Palette{
	"tokyo-night": {
		Primary: "#7aa2f7", Secondary: "#7dcfff",
		Foreground: "#c0caf5", Muted: "#565f89", Surface: "#3b4261",
		Success: "#9ece6a", Warning: "#e0af68", Error: "#f7768e",
	},
	"nord": {
		Primary: "#88c0d0", Secondary: "#81a1c1",
		Foreground: "#eceff4", Muted: "#4c566a", Surface: "#3b4252",
		Success: "#a3be8c", Warning: "#ebcb8b", Error: "#bf616a",
	},
	"dracula": {
		Primary: "#bd93f9", Secondary: "#8be9fd",
		Foreground: "#f8f8f2", Muted: "#6272a4", Surface: "#44475a",
		Success: "#50fa7b", Warning: "#f1fa8c", Error: "#ff5555",
	},
	"solarized-dark": {
		Primary: "#268bd2", Secondary: "#2aa198",
		Foreground: "#93a1a1", Muted: "#586e75", Surface: "#073642",
		Success: "#859900", Warning: "#b58900", Error: "#dc322f",
	},
}

// ThemeNames lists the built-in themes alphabetically.
func ThemeNames() []string {
	names := make([]string, 0, len(themes))
	for name := range themes {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

func GetPalette(name string) (Palette, bool) {
	p, ok := themes[name]
	return p, ok
}

// GlamourStyle recolors glamour's dark style with the active palette. It is
// used to render research.md and plan.md in 'wreckit show --docs'.
func GlamourStyle() glamouransi.StyleConfig {
	color := func(c lipgloss.Color) *string {
		if c == "" {
			return nil
		}
		s := string(c)
		return &s
	}
	p := CurrentPalette
	cfg := glamourstyles.DarkStyleConfig

	for _, block := range []*glamouransi.StylePrimitive{&cfg.Document.StylePrimitive, &cfg.Paragraph.StylePrimitive} {
		block.Color = color(p.Foreground)
	}
	for _, h := range []*glamouransi.StyleBlock{&cfg.Heading, &cfg.H2, &cfg.H3} {
		h.Color = color(p.Primary)
	}
	cfg.H1.Color = color(p.Foreground)
	cfg.H1.BackgroundColor = color(p.Surface)

	cfg.BlockQuote.Color = color(p.Muted)
	cfg.HorizontalRule.Color = color(p.Muted)
	cfg.CodeBlock.Color = color(p.Muted)

	cfg.Link.Color = color(p.Secondary)
	cfg.LinkText.Color = color(p.Secondary)
	cfg.Code.Color = color(p.Secondary)

	return cfg
}
