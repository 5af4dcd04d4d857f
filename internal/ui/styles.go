// Package ui provides terminal styling for wp CLI output.
// Uses the Ayu color theme with adaptive light/dark mode support.
package ui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/warplanhq/warplan/internal/types"
)

// Ayu theme color palette
var (
	ColorGreen = lipgloss.AdaptiveColor{
		Light: "#86b300", // ayu light bright green
		Dark:  "#c2d94c", // ayu dark bright green
	}
	ColorAmber = lipgloss.AdaptiveColor{
		Light: "#f2ae49", // ayu light bright yellow
		Dark:  "#ffb454", // ayu dark bright yellow
	}
	ColorRed = lipgloss.AdaptiveColor{
		Light: "#f07171", // ayu light bright red
		Dark:  "#f07178", // ayu dark bright red
	}
	ColorMuted = lipgloss.AdaptiveColor{
		Light: "#828c99", // ayu light muted
		Dark:  "#6c7680", // ayu dark muted
	}
	ColorAccent = lipgloss.AdaptiveColor{
		Light: "#399ee6", // ayu light bright blue
		Dark:  "#59c2ff", // ayu dark bright blue
	}
)

// Status styles - consistent across all commands
var (
	GreenStyle  = lipgloss.NewStyle().Foreground(ColorGreen)
	AmberStyle  = lipgloss.NewStyle().Foreground(ColorAmber)
	RedStyle    = lipgloss.NewStyle().Foreground(ColorRed)
	MutedStyle  = lipgloss.NewStyle().Foreground(ColorMuted)
	AccentStyle = lipgloss.NewStyle().Foreground(ColorAccent)
)

// HeaderStyle for section headers - bold with accent color
var HeaderStyle = lipgloss.NewStyle().Bold(true).Foreground(ColorAccent)

// Status icons
const (
	IconUnlocked   = "✓"
	IconInProgress = "◐"
	IconLocked     = "🔒"
	IconWarn       = "⚠"
)

// Separators
const (
	SeparatorLight = "──────────────────────────────────────────"
)

// HealthStyle maps a health status to its traffic-light style.
func HealthStyle(h types.HealthStatus) lipgloss.Style {
	switch h {
	case types.HealthGreen:
		return GreenStyle
	case types.HealthAmber:
		return AmberStyle
	case types.HealthRed:
		return RedStyle
	}
	return MutedStyle
}

// SeverityStyle colors anomaly severities: 4-5 red, 3 amber, below muted.
func SeverityStyle(severity int) lipgloss.Style {
	switch {
	case severity >= 4:
		return RedStyle
	case severity == 3:
		return AmberStyle
	}
	return MutedStyle
}
