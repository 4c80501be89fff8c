package ui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/five82/cbzmeta/internal/comic"
	"github.com/five82/cbzmeta/internal/state"
)

// Theme defines colors for the UI.
type Theme struct {
	Name string

	Background  string
	Surface     string
	SelectionBg string
	SelectionFg string
	Border      string

	Text    string
	Muted   string
	Faint   string
	Accent  string
	Success string
	Warning string
	Danger  string
	Info    string
}

// Styles are the lipgloss styles derived from a Theme.
type Styles struct {
	Text        lipgloss.Style
	MutedText   lipgloss.Style
	FaintText   lipgloss.Style
	AccentText  lipgloss.Style
	SuccessText lipgloss.Style
	WarningText lipgloss.Style
	DangerText  lipgloss.Style
	InfoText    lipgloss.Style

	Header   lipgloss.Style
	Footer   lipgloss.Style
	Selected lipgloss.Style
	Key      lipgloss.Style
}

// Styles returns lipgloss styles for this theme.
func (t Theme) Styles() Styles {
	return Styles{
		Text:        lipgloss.NewStyle().Foreground(lipgloss.Color(t.Text)),
		MutedText:   lipgloss.NewStyle().Foreground(lipgloss.Color(t.Muted)),
		FaintText:   lipgloss.NewStyle().Foreground(lipgloss.Color(t.Faint)),
		AccentText:  lipgloss.NewStyle().Foreground(lipgloss.Color(t.Accent)),
		SuccessText: lipgloss.NewStyle().Foreground(lipgloss.Color(t.Success)).Bold(true),
		WarningText: lipgloss.NewStyle().Foreground(lipgloss.Color(t.Warning)),
		DangerText:  lipgloss.NewStyle().Foreground(lipgloss.Color(t.Danger)).Bold(true),
		InfoText:    lipgloss.NewStyle().Foreground(lipgloss.Color(t.Info)),

		Header: lipgloss.NewStyle().
			Background(lipgloss.Color(t.Surface)).
			Foreground(lipgloss.Color(t.Text)).
			Padding(0, 1),
		Footer: lipgloss.NewStyle().
			Background(lipgloss.Color(t.Surface)).
			Foreground(lipgloss.Color(t.Muted)).
			Padding(0, 1),
		Selected: lipgloss.NewStyle().
			Background(lipgloss.Color(t.SelectionBg)).
			Foreground(lipgloss.Color(t.SelectionFg)),
		Key: lipgloss.NewStyle().
			Foreground(lipgloss.Color(t.Warning)).
			Width(12),
	}
}

// StatusColor returns the badge color of a session status.
func (t Theme) StatusColor(s state.Status) string {
	switch s {
	case state.Loading:
		return t.Info
	case state.Loaded:
		return t.Success
	case state.Failed:
		return t.Danger
	default:
		return t.Muted
	}
}

// PageTypeColor returns the color used for a page type label.
func (t Theme) PageTypeColor(pt comic.PageType) string {
	switch pt {
	case comic.PageFrontCover, comic.PageBackCover, comic.PageInnerCover:
		return t.Warning
	case comic.PageStory:
		return t.Text
	case comic.PageAdvertisement, comic.PageDeleted:
		return t.Danger
	case comic.PageUnknown:
		return t.Faint
	default:
		return t.Info
	}
}

var themes = map[string]Theme{
	"Nightfox": nightfoxTheme(),
	"Kanagawa": kanagawaTheme(),
	"Slate":    slateTheme(),
}

var themeOrder = []string{"Nightfox", "Kanagawa", "Slate"}

// GetTheme returns a theme by name, falling back to Nightfox.
func GetTheme(name string) Theme {
	if t, ok := themes[name]; ok {
		return t
	}
	return nightfoxTheme()
}

// NextTheme returns the next theme name in the cycle.
func NextTheme(current string) string {
	for i, name := range themeOrder {
		if name == current {
			return themeOrder[(i+1)%len(themeOrder)]
		}
	}
	return themeOrder[0]
}

// ThemeNames returns available theme names.
func ThemeNames() []string {
	return themeOrder
}

func nightfoxTheme() Theme {
	// https://github.com/EdenEast/nightfox.nvim
	return Theme{
		Name:        "Nightfox",
		Background:  "#131a24",
		Surface:     "#192330",
		SelectionBg: "#2b3b51",
		SelectionFg: "#cdcecf",
		Border:      "#39506d",
		Text:        "#cdcecf",
		Muted:       "#738091",
		Faint:       "#71839b",
		Accent:      "#719cd6",
		Success:     "#81b29a",
		Warning:     "#dbc074",
		Danger:      "#c94f6d",
		Info:        "#63cdcf",
	}
}

func kanagawaTheme() Theme {
	// https://github.com/rebelot/kanagawa.nvim
	return Theme{
		Name:        "Kanagawa",
		Background:  "#16161D",
		Surface:     "#1F1F28",
		SelectionBg: "#2D4F67",
		SelectionFg: "#DCD7BA",
		Border:      "#54546D",
		Text:        "#DCD7BA",
		Muted:       "#C8C093",
		Faint:       "#727169",
		Accent:      "#7E9CD8",
		Success:     "#98BB6C",
		Warning:     "#E6C384",
		Danger:      "#E46876",
		Info:        "#7FB4CA",
	}
}

func slateTheme() Theme {
	// Tailwind slate/sky.
	return Theme{
		Name:        "Slate",
		Background:  "#020617",
		Surface:     "#0f172a",
		SelectionBg: "#0284c7",
		SelectionFg: "#f8fafc",
		Border:      "#334155",
		Text:        "#f1f5f9",
		Muted:       "#94a3b8",
		Faint:       "#64748b",
		Accent:      "#38bdf8",
		Success:     "#22c55e",
		Warning:     "#f59e0b",
		Danger:      "#ef4444",
		Info:        "#06b6d4",
	}
}
