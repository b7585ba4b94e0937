package ui

import (
	"os"

	"github.com/charmbracelet/colorprofile"
	"github.com/charmbracelet/lipgloss"
)

// TermProfile holds the detected terminal color profile. Computed once at
// package init so every style helper can branch without re-detecting.
var TermProfile colorprofile.Profile

func init() {
	TermProfile = colorprofile.Detect(os.Stdout, os.Environ())
}

// ThemeBg returns the given hex color for TrueColor terminals and
// lipgloss.NoColor{} otherwise, so 16/256-color terminals keep their own
// background.
func ThemeBg(hex string) lipgloss.TerminalColor {
	if TermProfile < colorprofile.TrueColor {
		return lipgloss.NoColor{}
	}
	return lipgloss.Color(hex)
}

// ThemeFg returns the given hex color for ANSI256+ terminals and a safe
// ANSI white (color 7) for 16-color or lower terminals.
func ThemeFg(hex string) lipgloss.TerminalColor {
	if TermProfile < colorprofile.ANSI256 {
		return lipgloss.ANSIColor(7)
	}
	return lipgloss.Color(hex)
}

type Theme struct {
	Renderer *lipgloss.Renderer

	Primary   lipgloss.AdaptiveColor
	Secondary lipgloss.AdaptiveColor
	Subtext   lipgloss.AdaptiveColor

	// Table states on the floor plan
	Free    lipgloss.AdaptiveColor
	Seated  lipgloss.AdaptiveColor
	Billing lipgloss.AdaptiveColor

	Border    lipgloss.AdaptiveColor
	Highlight lipgloss.AdaptiveColor
	Muted     lipgloss.AdaptiveColor

	Base     lipgloss.Style
	Selected lipgloss.Style
	Header   lipgloss.Style

	// Pre-computed element styles, created once instead of per frame.
	MutedText   lipgloss.Style
	PrimaryBold lipgloss.Style
	Target      lipgloss.Style // element under the training highlight
	Popover     lipgloss.Style
	StepCounter lipgloss.Style
}

// DefaultTheme returns the Dracula-inspired adaptive theme.
func DefaultTheme(r *lipgloss.Renderer) Theme {
	t := Theme{
		Renderer: r,

		Primary:   lipgloss.AdaptiveColor{Light: "#6B47D9", Dark: "#BD93F9"},
		Secondary: lipgloss.AdaptiveColor{Light: "#555555", Dark: "#6272A4"},
		Subtext:   lipgloss.AdaptiveColor{Light: "#666666", Dark: "#BFBFBF"},

		Free:    lipgloss.AdaptiveColor{Light: "#007700", Dark: "#50FA7B"},
		Seated:  lipgloss.AdaptiveColor{Light: "#006080", Dark: "#8BE9FD"},
		Billing: lipgloss.AdaptiveColor{Light: "#B06800", Dark: "#FFB86C"},

		Border:    lipgloss.AdaptiveColor{Light: "#AAAAAA", Dark: "#44475A"},
		Highlight: lipgloss.AdaptiveColor{Light: "#E0E0E0", Dark: "#44475A"},
		Muted:     lipgloss.AdaptiveColor{Light: "#555555", Dark: "#6272A4"},
	}

	t.Base = r.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#000000", Dark: "#F8F8F2"})

	t.Selected = r.NewStyle().
		Background(t.Highlight).
		Border(lipgloss.ThickBorder(), false, false, false, true).
		BorderForeground(t.Primary).
		PaddingLeft(1).
		Bold(true)

	t.Header = r.NewStyle().
		Background(t.Primary).
		Foreground(lipgloss.AdaptiveColor{Light: "#FFFFFF", Dark: "#282A36"}).
		Bold(true).
		Padding(0, 1)

	t.MutedText = r.NewStyle().Foreground(ColorMuted)
	t.PrimaryBold = r.NewStyle().Foreground(t.Primary).Bold(true)
	t.Target = r.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(ColorWarning).
		Bold(true)
	t.Popover = r.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(t.Primary).
		Padding(0, 1)
	t.StepCounter = r.NewStyle().Foreground(ThemeFg("#FFD700")).Bold(true)

	return t
}

// TableColor maps a floor-plan table state to its color.
func (t Theme) TableColor(state string) lipgloss.AdaptiveColor {
	switch state {
	case tableFree:
		return t.Free
	case tableSeated:
		return t.Seated
	case tableBilling:
		return t.Billing
	default:
		return t.Subtext
	}
}

// TestTheme returns a theme suitable for use in tests.
func TestTheme() Theme {
	return DefaultTheme(lipgloss.NewRenderer(os.Stdout))
}
