package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/nathoo/battlecore/engine"
)

// phaseDisplayName derives a human-readable label from a phase id.
// "action_select" -> "Action Select", "turn_end" -> "Turn End".
func phaseDisplayName(phase engine.Phase) string {
	words := strings.Split(string(phase), "_")
	for i, w := range words {
		if len(w) > 0 {
			words[i] = strings.ToUpper(w[:1]) + w[1:]
		}
	}
	return strings.Join(words, " ")
}

// renderStatusBar produces a full-width inverted status line showing the
// lead player's HP/MP gauges, remaining enemies, turn number, and phase.
func (m Model) renderStatusBar() string {
	snap := m.battle.Snapshot()

	left := fmt.Sprintf(" Turn %d | %s", snap.TurnNumber, phaseDisplayName(snap.Phase))

	enemiesAlive := 0
	for _, e := range snap.Enemies {
		if e.Alive {
			enemiesAlive++
		}
	}
	right := fmt.Sprintf("Foes: %d ", enemiesAlive)

	var gauges string
	if len(snap.Players) > 0 {
		p := snap.Players[0]
		gauges = fmt.Sprintf("%s HP %s %.0f/%.0f  MP %s %.0f/%.0f",
			p.Name,
			renderGauge(p.CurrentHP, p.MaxHP, 10, hpStyle(p.CurrentHP, p.MaxHP)),
			p.CurrentHP, p.MaxHP,
			renderGauge(p.CurrentMP, p.MaxMP, 6, styleMP),
			p.CurrentMP, p.MaxMP)
	}

	// Show the gauges if they fit, otherwise bare numbers.
	if gauges != "" {
		candidate := gauges + " | " + right
		if lipgloss.Width(left)+lipgloss.Width(candidate)+2 < m.width {
			right = candidate
		} else if len(snap.Players) > 0 {
			p := snap.Players[0]
			right = fmt.Sprintf("HP %.0f/%.0f MP %.0f/%.0f | %s",
				p.CurrentHP, p.MaxHP, p.CurrentMP, p.MaxMP, right)
		}
	}

	gap := m.width - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 0 {
		gap = 0
	}

	bar := left + strings.Repeat(" ", gap) + right
	return styleStatusBar.Width(m.width).Render(bar)
}
