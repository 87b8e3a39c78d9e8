// Package ui renders the province/constituency panel in the terminal.
package ui

import (
	"os"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Palette taken from the Zambian flag, with neutral surfaces per mode.
var (
	FlagGreen  = lipgloss.Color("#198A00")
	FlagOrange = lipgloss.Color("#EF7D00")
	FlagRed    = lipgloss.Color("#DE2010")

	LightForeground = lipgloss.Color("#1b1f1a")
	LightMuted      = lipgloss.Color("#7a8278")
	LightBorder     = lipgloss.Color("#d5dbd2")
	LightCursor     = lipgloss.Color("#e8f3e4")

	DarkForeground = lipgloss.Color("#eef2ec")
	DarkMuted      = lipgloss.Color("#8a9487")
	DarkBorder     = lipgloss.Color("#34402f")
	DarkCursor     = lipgloss.Color("#223019")
)

// Theme holds the current color scheme.
type Theme struct {
	Foreground lipgloss.Color
	Primary    lipgloss.Color
	Accent     lipgloss.Color
	Muted      lipgloss.Color
	Border     lipgloss.Color
	Cursor     lipgloss.Color
	IsDark     bool
}

// LightTheme returns the light mode theme.
func LightTheme() Theme {
	return Theme{
		Foreground: LightForeground,
		Primary:    FlagGreen,
		Accent:     FlagOrange,
		Muted:      LightMuted,
		Border:     LightBorder,
		Cursor:     LightCursor,
	}
}

// DarkTheme returns the dark mode theme.
func DarkTheme() Theme {
	return Theme{
		Foreground: DarkForeground,
		Primary:    FlagOrange,
		Accent:     FlagGreen,
		Muted:      DarkMuted,
		Border:     DarkBorder,
		Cursor:     DarkCursor,
		IsDark:     true,
	}
}

// DetectTheme picks a theme. pref is the configured ui.theme: "light" and
// "dark" win outright, anything else falls back to terminal hints.
func DetectTheme(pref string) Theme {
	switch strings.ToLower(strings.TrimSpace(pref)) {
	case "dark":
		return DarkTheme()
	case "light":
		return LightTheme()
	}

	// COLORFGBG is "fg;bg" (sometimes "fg;default;bg"); low ANSI indices are dark.
	if v := os.Getenv("COLORFGBG"); v != "" {
		parts := strings.Split(v, ";")
		if bg, err := strconv.Atoi(parts[len(parts)-1]); err == nil {
			if (bg >= 0 && bg <= 6) || bg == 8 {
				return DarkTheme()
			}
			return LightTheme()
		}
	}

	if os.Getenv("CONSTITUENCIES_DARK_MODE") == "1" {
		return DarkTheme()
	}
	return LightTheme()
}

// Styles holds all the styled components.
type Styles struct {
	Theme Theme

	Header  lipgloss.Style
	Footer  lipgloss.Style
	Section lipgloss.Style
	Panel   lipgloss.Style

	Title lipgloss.Style
	Body  lipgloss.Style
	Muted lipgloss.Style

	Cursor   lipgloss.Style
	Selected lipgloss.Style
	Disabled lipgloss.Style

	Empty   lipgloss.Style
	Error   lipgloss.Style
	Spinner lipgloss.Style
	Prompt  lipgloss.Style
}

// NewStyles creates a new Styles instance with the given theme.
func NewStyles(theme Theme) Styles {
	return Styles{
		Theme: theme,

		Header: lipgloss.NewStyle().
			Background(theme.Primary).
			Foreground(lipgloss.Color("#ffffff")).
			Padding(0, 2).
			Bold(true),

		Footer: lipgloss.NewStyle().
			Foreground(theme.Muted).
			Padding(0, 1),

		Section: lipgloss.NewStyle().
			Padding(0, 1),

		Panel: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(theme.Border).
			Padding(0, 1),

		Title: lipgloss.NewStyle().
			Foreground(theme.Primary).
			Bold(true),

		Body: lipgloss.NewStyle().
			Foreground(theme.Foreground),

		Muted: lipgloss.NewStyle().
			Foreground(theme.Muted),

		Cursor: lipgloss.NewStyle().
			Background(theme.Cursor).
			Foreground(theme.Foreground).
			Bold(true),

		Selected: lipgloss.NewStyle().
			Foreground(theme.Accent).
			Bold(true),

		Disabled: lipgloss.NewStyle().
			Foreground(theme.Muted).
			Italic(true),

		Empty: lipgloss.NewStyle().
			Foreground(theme.Muted).
			Italic(true),

		Error: lipgloss.NewStyle().
			Foreground(FlagRed).
			Bold(true),

		Spinner: lipgloss.NewStyle().
			Foreground(theme.Accent),

		Prompt: lipgloss.NewStyle().
			Foreground(theme.Accent).
			Bold(true),
	}
}

// DefaultStyles returns styles for the detected theme.
func DefaultStyles() Styles {
	return NewStyles(DetectTheme(""))
}

// RenderDivider returns a horizontal divider.
func (s Styles) RenderDivider(width int) string {
	return s.Muted.Render(strings.Repeat("─", width))
}
