package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Styles used throughout the TUI.
var (
	styleStatusBar = lipgloss.NewStyle().
			Background(lipgloss.Color("236")).
			Foreground(lipgloss.Color("252")).
			Bold(true)

	styleInputPrompt = lipgloss.NewStyle().
				Foreground(lipgloss.Color("34"))

	styleLog = lipgloss.NewStyle().
			Foreground(lipgloss.Color("255"))

	styleTurn = lipgloss.NewStyle().
			Bold(true)

	styleDamage = lipgloss.NewStyle().
			Foreground(lipgloss.Color("203"))

	styleCritical = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")).
			Bold(true)

	styleHeal = lipgloss.NewStyle().
			Foreground(lipgloss.Color("42"))

	styleDefeat = lipgloss.NewStyle().
			Foreground(lipgloss.Color("160")).
			Bold(true)

	styleDialogue = lipgloss.NewStyle().
			Foreground(lipgloss.Color("228"))

	styleReward = lipgloss.NewStyle().
			Foreground(lipgloss.Color("220"))

	styleSystem = lipgloss.NewStyle().
			Foreground(lipgloss.Color("243"))

	stylePlayerInput = lipgloss.NewStyle().
				Foreground(lipgloss.Color("34"))

	styleTrace = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240"))

	styleHPHigh = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	styleHPMid  = lipgloss.NewStyle().Foreground(lipgloss.Color("220"))
	styleHPLow  = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	styleMP     = lipgloss.NewStyle().Foreground(lipgloss.Color("39"))
)

// lineKind identifies the type of an output line for styling.
type lineKind int

const (
	kindLog lineKind = iota
	kindTurn
	kindDamage
	kindCritical
	kindHeal
	kindDefeat
	kindDialogue
	kindReward
	kindSystem
	kindTrace
)

// classifyLine determines what kind of battle-log line this is.
func classifyLine(line string) lineKind {
	switch {
	case strings.HasPrefix(line, "[trace]"):
		return kindTrace
	case strings.HasPrefix(line, "[") && strings.HasSuffix(line, "]"):
		return kindSystem
	case strings.HasPrefix(line, "Critical hit!"):
		return kindCritical
	case strings.HasSuffix(line, "'s turn."):
		return kindTurn
	case strings.HasSuffix(line, "is defeated!") || line == "Victory!" || line == "Defeat...":
		return kindDefeat
	case strings.HasSuffix(line, "damage!"):
		return kindDamage
	case strings.Contains(line, "recovers") || strings.HasSuffix(line, "is revived!") || strings.HasSuffix(line, "is cured."):
		return kindHeal
	case strings.HasPrefix(line, "Gained") || strings.HasPrefix(line, "Found"):
		return kindReward
	case containsQuotedSpeech(line):
		return kindDialogue
	default:
		return kindLog
	}
}

// containsQuotedSpeech checks if a line contains dialog speech in double
// quotes.
func containsQuotedSpeech(line string) bool {
	inQuote := false
	quoteLen := 0
	for _, r := range line {
		if r == '"' {
			if inQuote && quoteLen > 5 {
				return true
			}
			inQuote = !inQuote
			quoteLen = 0
		} else if inQuote {
			quoteLen++
		}
	}
	return false
}

// renderLineKind applies the style for a given lineKind.
func renderLineKind(line string, kind lineKind) string {
	switch kind {
	case kindTurn:
		return styleTurn.Render(line)
	case kindDamage:
		return styleDamage.Render(line)
	case kindCritical:
		return styleCritical.Render(line)
	case kindHeal:
		return styleHeal.Render(line)
	case kindDefeat:
		return styleDefeat.Render(line)
	case kindDialogue:
		return styleDialogue.Render(line)
	case kindReward:
		return styleReward.Render(line)
	case kindSystem:
		return styleSystem.Render(line)
	case kindTrace:
		return styleTrace.Render(line)
	default:
		return styleLog.Render(line)
	}
}

// styledSystemMsg renders a system message in gray with brackets.
func styledSystemMsg(text string) string {
	return styleSystem.Render("[" + text + "]")
}

// hpStyle picks a gauge color by remaining fraction.
func hpStyle(current, max float64) lipgloss.Style {
	if max <= 0 {
		return styleHPLow
	}
	switch frac := current / max; {
	case frac > 0.5:
		return styleHPHigh
	case frac > 0.25:
		return styleHPMid
	default:
		return styleHPLow
	}
}

// renderGauge draws a fixed-width block gauge like ███░░.
func renderGauge(current, max float64, width int, style lipgloss.Style) string {
	if width < 1 {
		width = 1
	}
	filled := 0
	if max > 0 {
		filled = int(current / max * float64(width))
	}
	if filled > width {
		filled = width
	}
	if filled < 1 && current > 0 {
		filled = 1
	}
	return style.Render(strings.Repeat("█", filled)) +
		styleSystem.Render(strings.Repeat("░", width-filled))
}
