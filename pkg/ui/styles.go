package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// ══════════════════════════════════════════════════════════════════════════════
// DESIGN TOKENS - Consistent spacing, colors, and visual language
// ══════════════════════════════════════════════════════════════════════════════

// Spacing constants for consistent layout (in characters)
const (
	SpaceXS = 1
	SpaceSM = 2
	SpaceMD = 3
)

// ══════════════════════════════════════════════════════════════════════════════
// COLOR PALETTE - Adaptive colors for light and dark terminals
// Light mode colors tuned for WCAG AA compliance (contrast ratio >= 4.5:1)
// ══════════════════════════════════════════════════════════════════════════════

var (
	ColorBgSubtle    = lipgloss.AdaptiveColor{Light: "#E8E8E8", Dark: "#363949"}
	ColorBgHighlight = lipgloss.AdaptiveColor{Light: "#D0D0D0", Dark: "#44475A"}
	ColorText        = lipgloss.AdaptiveColor{Light: "#1A1A1A", Dark: "#F8F8F2"}
	ColorSubtext     = lipgloss.AdaptiveColor{Light: "#555555", Dark: "#BFBFBF"}
	ColorMuted       = lipgloss.AdaptiveColor{Light: "#666666", Dark: "#6272A4"}

	ColorPrimary = lipgloss.AdaptiveColor{Light: "#6B47D9", Dark: "#BD93F9"}
	ColorInfo    = lipgloss.AdaptiveColor{Light: "#006080", Dark: "#8BE9FD"}
	ColorSuccess = lipgloss.AdaptiveColor{Light: "#007700", Dark: "#50FA7B"}
	ColorWarning = lipgloss.AdaptiveColor{Light: "#B06800", Dark: "#FFB86C"}
	ColorDanger  = lipgloss.AdaptiveColor{Light: "#CC0000", Dark: "#FF5555"}

	// Badge backgrounds
	ColorSuccessBg = lipgloss.AdaptiveColor{Light: "#D4EDDA", Dark: "#1A3D2A"}
	ColorInfoBg    = lipgloss.AdaptiveColor{Light: "#D1ECF1", Dark: "#1A3344"}
	ColorWarningBg = lipgloss.AdaptiveColor{Light: "#FFE8CC", Dark: "#3D2A1A"}
	ColorDangerBg  = lipgloss.AdaptiveColor{Light: "#F8D7DA", Dark: "#3D1A1A"}
)

// ══════════════════════════════════════════════════════════════════════════════
// PANEL STYLES
// ══════════════════════════════════════════════════════════════════════════════

var (
	// PanelStyle frames the active screen.
	PanelStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(ColorBgHighlight).
			Padding(0, 1)

	// StatusBarStyle is the bottom status line.
	StatusBarStyle = lipgloss.NewStyle().
			Foreground(ColorSubtext)

	// ErrorStyle renders stall and copy failures.
	ErrorStyle = lipgloss.NewStyle().
			Foreground(ColorDanger).
			Bold(true)
)

// ══════════════════════════════════════════════════════════════════════════════
// BADGE RENDERING
// ══════════════════════════════════════════════════════════════════════════════

// RenderTableBadge returns a compact badge for a floor-plan table state.
func RenderTableBadge(state string) string {
	var fg, bg lipgloss.AdaptiveColor
	var label string

	switch state {
	case tableFree:
		fg, bg, label = ColorSuccess, ColorSuccessBg, "FREE"
	case tableSeated:
		fg, bg, label = ColorInfo, ColorInfoBg, "SEAT"
	case tableBilling:
		fg, bg, label = ColorWarning, ColorWarningBg, "BILL"
	default:
		fg, bg, label = ColorMuted, ColorBgSubtle, "????"
	}

	return lipgloss.NewStyle().
		Foreground(fg).
		Background(bg).
		Render(label)
}

// RenderTrainingBadge shows the active track and position, e.g. "order 2/6".
func RenderTrainingBadge(track string, index, total int) string {
	return lipgloss.NewStyle().
		Foreground(ColorPrimary).
		Bold(true).
		Render(fmt.Sprintf("%s %d/%d", track, index+1, total))
}

// RenderProgressDots renders one dot per step, filled up to index.
func RenderProgressDots(index, total int) string {
	if total <= 0 {
		return ""
	}
	var sb strings.Builder
	for i := 0; i < total; i++ {
		switch {
		case i < index:
			sb.WriteString("●")
		case i == index:
			sb.WriteString("◉")
		default:
			sb.WriteString("○")
		}
	}
	return lipgloss.NewStyle().Foreground(ColorPrimary).Render(sb.String())
}

// ══════════════════════════════════════════════════════════════════════════════
// DIVIDERS AND SEPARATORS
// ══════════════════════════════════════════════════════════════════════════════

// RenderDivider renders a horizontal divider line
func RenderDivider(width int) string {
	if width <= 0 {
		return ""
	}
	return lipgloss.NewStyle().
		Foreground(ColorBgHighlight).
		Render(strings.Repeat("─", width))
}
