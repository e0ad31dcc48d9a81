// Package cli provides terminal I/O, battle rendering, and meta-command
// dispatch for the BattleCore engine.
package cli

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/nathoo/battlecore/engine"
	"github.com/nathoo/battlecore/engine/save"
	"github.com/nathoo/battlecore/types"
)

// CLI handles terminal interaction with the player.
type CLI struct {
	Battle    *engine.Battle
	Def       *types.GameDefinition
	In        io.Reader
	Out       io.Writer
	SaveDir   string
	Trace     bool
	EchoInput bool // echo each input line after the prompt (for script playback)
	printed   int  // battle log lines already written
}

// New creates a CLI wired to the given battle.
func New(b *engine.Battle, def *types.GameDefinition) *CLI {
	home, _ := os.UserHomeDir()
	saveDir := filepath.Join(home, ".battlecore", "saves")
	return &CLI{
		Battle:  b,
		Def:     def,
		In:      os.Stdin,
		Out:     os.Stdout,
		SaveDir: saveDir,
	}
}

// Run starts the battle loop: flush new log lines, render the phase context,
// then prompt → input → dispatch. Returns when the battle ends, input runs
// out, or the player quits.
func (c *CLI) Run() {
	scanner := bufio.NewScanner(c.In)
	for {
		c.flushLog()

		snap := c.Battle.Snapshot()
		if snap.Result != nil || snap.Phase == engine.PhaseFled {
			c.printOutcome(snap)
			return
		}

		// Multi-target skills need no target choice.
		if snap.Phase == engine.PhaseTargetSelect && c.pendingTargetsAll(snap) {
			c.Battle.SelectTargets(nil)
			continue
		}

		c.renderContext(snap)

		c.print("> ")
		if !scanner.Scan() {
			return
		}
		input := strings.TrimSpace(scanner.Text())
		if input == "" {
			continue
		}
		// Skip comment lines (for script files).
		if strings.HasPrefix(input, "#") {
			continue
		}
		if c.EchoInput {
			c.printLine(input)
		}

		// Meta-commands start with '/'.
		if strings.HasPrefix(input, "/") {
			if c.handleMeta(input) {
				return // /quit
			}
			continue
		}

		c.dispatch(snap, input)

		if c.Trace {
			c.printTrace()
		}
	}
}

// renderContext shows what the battle is waiting for.
func (c *CLI) renderContext(snap engine.CombatSnapshot) {
	switch snap.Phase {
	case engine.PhaseDialog:
		d := snap.Dialog
		if d == nil {
			return
		}
		if d.Speaker != "" {
			c.printLine(fmt.Sprintf("%s: %q", d.Speaker, d.Text))
		} else {
			c.printLine(d.Text)
		}
		if len(d.Choices) > 0 {
			for i, choice := range d.Choices {
				c.printLine(fmt.Sprintf("  %d. %s", i+1, choice.Text))
			}
		} else {
			c.printLine("(type ok to continue)")
		}

	case engine.PhaseActionSelect:
		if actor := findView(snap.Players, snap.ActiveID); actor != nil {
			c.printLine(fmt.Sprintf("%s — HP %.0f/%.0f  MP %.0f/%.0f",
				actor.Name, actor.CurrentHP, actor.MaxHP, actor.CurrentMP, actor.MaxMP))
		}

	case engine.PhaseTargetSelect:
		c.printLine("Choose a target (number or id, cancel to go back):")
		for i, v := range c.validTargets(snap) {
			c.printLine(fmt.Sprintf("  %d. %s (HP %.0f/%.0f)", i+1, v.Name, v.CurrentHP, v.MaxHP))
		}
	}
}

// dispatch routes game input by phase.
func (c *CLI) dispatch(snap engine.CombatSnapshot, input string) {
	switch snap.Phase {
	case engine.PhaseDialog:
		c.dispatchDialog(snap, input)
	case engine.PhaseActionSelect:
		c.dispatchAction(snap, input)
	case engine.PhaseTargetSelect:
		c.dispatchTarget(snap, input)
	default:
		c.printSystem("The battle is not waiting for input.")
	}
}

func (c *CLI) dispatchDialog(snap engine.CombatSnapshot, input string) {
	d := snap.Dialog
	if d == nil {
		return
	}
	if len(d.Choices) == 0 {
		c.Battle.DismissDialog()
		return
	}
	n, err := strconv.Atoi(input)
	if err != nil || n < 1 || n > len(d.Choices) {
		c.printSystem(fmt.Sprintf("Choose 1-%d.", len(d.Choices)))
		return
	}
	c.Battle.SelectDialogChoice(n - 1)
}

func (c *CLI) dispatchAction(snap engine.CombatSnapshot, input string) {
	fields := strings.Fields(input)
	verb := strings.ToLower(fields[0])
	var arg string
	if len(fields) > 1 {
		arg = fields[1]
	}

	switch verb {
	case "attack", "a":
		c.Battle.SelectAction(types.CombatAction{Type: "attack"})

	case "defend", "d":
		c.Battle.SelectAction(types.CombatAction{Type: "defend"})

	case "flee", "run":
		c.Battle.SelectAction(types.CombatAction{Type: "flee"})

	case "skill", "s":
		if arg == "" {
			c.printSystem("Usage: skill <id>. Type skills to list them.")
			return
		}
		actor := findView(snap.Players, snap.ActiveID)
		if actor == nil || !containsString(actor.Skills, arg) {
			c.printSystem(fmt.Sprintf("You don't know %q.", arg))
			return
		}
		c.Battle.SelectAction(types.CombatAction{Type: "skill", SkillID: arg})

	case "item", "use":
		if arg == "" {
			c.printSystem("Usage: item <id>.")
			return
		}
		if _, ok := c.Def.Items[arg]; !ok {
			c.printSystem(fmt.Sprintf("No such item: %q.", arg))
			return
		}
		c.Battle.SelectAction(types.CombatAction{Type: "item", ItemID: arg})

	case "skills":
		c.cmdSkills(snap)

	case "status":
		c.cmdStatus(snap)

	case "help":
		c.cmdHelp()

	default:
		c.printSystem(fmt.Sprintf("Unknown action: %s. Type help for available commands.", verb))
	}
}

func (c *CLI) dispatchTarget(snap engine.CombatSnapshot, input string) {
	lower := strings.ToLower(input)
	if lower == "cancel" || lower == "back" {
		c.Battle.CancelTargetSelection()
		return
	}

	targets := c.validTargets(snap)
	if n, err := strconv.Atoi(input); err == nil {
		if n < 1 || n > len(targets) {
			c.printSystem(fmt.Sprintf("Choose 1-%d.", len(targets)))
			return
		}
		c.Battle.SelectTargets([]string{targets[n-1].ID})
		return
	}
	for _, v := range targets {
		if v.ID == input {
			c.Battle.SelectTargets([]string{v.ID})
			return
		}
	}
	c.printSystem(fmt.Sprintf("No such target: %q.", input))
}

// validTargets returns the combatants the pending action may legally hit.
func (c *CLI) validTargets(snap engine.CombatSnapshot) []engine.CombatantView {
	pending := snap.PendingAction
	if pending == nil {
		return nil
	}

	allies := false
	deadOnly := false
	switch pending.Type {
	case "skill":
		sk := c.Def.Skills[pending.SkillID]
		allies = sk.Type == "healing" || sk.Type == "buff" || sk.Type == "defense"
	case "item":
		switch c.Def.Items[pending.ItemID].Effect {
		case "revive":
			allies, deadOnly = true, true
		case "healHp", "healMp", "buff", "cure", "none":
			allies = true
		}
	}

	pool := snap.Enemies
	if allies {
		pool = snap.Players
	}
	var out []engine.CombatantView
	for _, v := range pool {
		if v.Alive != deadOnly {
			out = append(out, v)
		}
	}
	return out
}

// pendingTargetsAll reports whether the pending action is a skill that hits
// a whole side at once.
func (c *CLI) pendingTargetsAll(snap engine.CombatSnapshot) bool {
	pending := snap.PendingAction
	if pending == nil || pending.Type != "skill" {
		return false
	}
	return c.Def.Skills[pending.SkillID].TargetAll
}

// handleMeta dispatches meta-commands. Returns true if the game should exit.
func (c *CLI) handleMeta(input string) bool {
	parts := strings.Fields(input)
	cmd := parts[0]
	var arg string
	if len(parts) > 1 {
		arg = parts[1]
	}

	switch cmd {
	case "/quit", "/exit":
		c.printSystem("Goodbye.")
		return true

	case "/save":
		c.cmdSave(arg)

	case "/load":
		c.cmdLoad(arg)

	case "/help":
		c.cmdHelp()

	case "/state":
		c.cmdState()

	case "/trace":
		c.Trace = !c.Trace
		if c.Trace {
			c.printSystem("Trace output enabled.")
		} else {
			c.printSystem("Trace output disabled.")
		}

	default:
		c.printSystem(fmt.Sprintf("Unknown command: %s. Type /help for available commands.", cmd))
	}

	return false
}

func (c *CLI) cmdSave(name string) {
	if name == "" {
		name = "quicksave"
	}

	data, err := save.Save(c.Battle, c.Def.Game)
	if err != nil {
		c.printSystem(fmt.Sprintf("Save failed: %v", err))
		return
	}

	if err := os.MkdirAll(c.SaveDir, 0o755); err != nil {
		c.printSystem(fmt.Sprintf("Save failed: %v", err))
		return
	}

	path := filepath.Join(c.SaveDir, name+".json")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		c.printSystem(fmt.Sprintf("Save failed: %v", err))
		return
	}

	c.printSystem(fmt.Sprintf("Battle saved to %s.", name))
}

func (c *CLI) cmdLoad(name string) {
	if name == "" {
		name = "quicksave"
	}

	path := filepath.Join(c.SaveDir, name+".json")
	data, err := os.ReadFile(path)
	if err != nil {
		c.printSystem(fmt.Sprintf("Load failed: %v", err))
		return
	}

	sd, err := save.Load(data)
	if err != nil {
		c.printSystem(fmt.Sprintf("Load failed: %v", err))
		return
	}

	b, err := save.Restore(c.Def, sd)
	if err != nil {
		c.printSystem(fmt.Sprintf("Load failed: %v", err))
		return
	}

	c.Battle = b
	c.printed = 0 // replay the restored battle log as a recap
	c.printSystem(fmt.Sprintf("Battle loaded from %s (turn %d).", name, sd.Battle.TurnNumber))
}

func (c *CLI) cmdHelp() {
	help := []string{
		"System:",
		"  /save [name]  — Save battle (default: quicksave)",
		"  /load [name]  — Load battle (default: quicksave)",
		"  /quit         — Exit",
		"  /help         — Show this help",
		"  /state        — Debug: dump current battle state",
		"  /trace        — Toggle debug trace output",
		"",
		"Battle commands:",
		"  attack (a)       — Basic attack",
		"  skill <id> (s)   — Use a skill",
		"  item <id> (use)  — Use an item",
		"  defend (d)       — Brace and halve incoming damage",
		"  flee (run)       — Try to escape",
		"  skills           — List your skills and MP costs",
		"  status           — Show everyone's HP and MP",
		"  cancel           — Back out of target selection",
	}
	for _, line := range help {
		c.printLine(line)
	}
}

func (c *CLI) cmdSkills(snap engine.CombatSnapshot) {
	actor := findView(snap.Players, snap.ActiveID)
	if actor == nil {
		return
	}
	if len(actor.Skills) == 0 {
		c.printSystem("No skills.")
		return
	}
	for _, id := range actor.Skills {
		sk, ok := c.Def.Skills[id]
		if !ok {
			continue
		}
		c.printLine(fmt.Sprintf("  %s — %s (MP %.0f)", id, sk.Name, sk.MPCost))
	}
}

func (c *CLI) cmdStatus(snap engine.CombatSnapshot) {
	for _, v := range snap.Players {
		c.printLine(formatStatus(v))
	}
	for _, v := range snap.Enemies {
		c.printLine(formatStatus(v))
	}
}

func (c *CLI) cmdState() {
	snap := c.Battle.Snapshot()
	c.printSystem(fmt.Sprintf("Phase: %s", snap.Phase))
	c.printSystem(fmt.Sprintf("Turn: %d", snap.TurnNumber))
	var order []string
	for _, e := range snap.Queue {
		order = append(order, e.CombatantID)
	}
	c.printSystem(fmt.Sprintf("Queue: %v", order))
	for _, v := range snap.Players {
		c.printSystem(formatStatus(v))
	}
	for _, v := range snap.Enemies {
		c.printSystem(formatStatus(v))
	}
}

func (c *CLI) printTrace() {
	snap := c.Battle.Snapshot()
	c.printSystem(fmt.Sprintf("[trace] phase=%s turn=%d active=%s",
		snap.Phase, snap.TurnNumber, snap.ActiveID))
	if snap.PendingAction != nil {
		c.printSystem(fmt.Sprintf("[trace] pending %s %s%s",
			snap.PendingAction.Type, snap.PendingAction.SkillID, snap.PendingAction.ItemID))
	}
}

// printOutcome reports the terminal state. The battle log already carries
// the detail lines (rewards, drops, survivors).
func (c *CLI) printOutcome(snap engine.CombatSnapshot) {
	switch {
	case snap.Phase == engine.PhaseFled:
		c.printSystem("You got away.")
	case snap.Result != nil && snap.Result.Victory:
		c.printSystem(fmt.Sprintf("Battle won in %d turns.", snap.Result.Turns))
	case snap.Result != nil:
		c.printSystem(fmt.Sprintf("Battle lost after %d turns.", snap.Result.Turns))
	}
}

// flushLog prints battle-log lines added since the last flush.
func (c *CLI) flushLog() {
	log := c.Battle.Snapshot().Log
	for ; c.printed < len(log); c.printed++ {
		c.printLine(log[c.printed])
	}
}

func formatStatus(v engine.CombatantView) string {
	state := ""
	if !v.Alive {
		state = " (down)"
	} else if v.Defending {
		state = " (defending)"
	}
	return fmt.Sprintf("%s: HP %.0f/%.0f MP %.0f/%.0f%s",
		v.Name, v.CurrentHP, v.MaxHP, v.CurrentMP, v.MaxMP, state)
}

func findView(views []engine.CombatantView, id string) *engine.CombatantView {
	for i := range views {
		if views[i].ID == id {
			return &views[i]
		}
	}
	return nil
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func (c *CLI) printLine(text string) {
	fmt.Fprintln(c.Out, text)
}

func (c *CLI) print(text string) {
	fmt.Fprint(c.Out, text)
}

func (c *CLI) printSystem(text string) {
	fmt.Fprintf(c.Out, "[%s]\n", text)
}
