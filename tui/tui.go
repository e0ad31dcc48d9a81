package tui

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/nathoo/battlecore/engine"
	"github.com/nathoo/battlecore/engine/save"
	"github.com/nathoo/battlecore/types"
)

// rawLine stores an unstyled output line with its classification,
// so we can re-wrap and re-style when the terminal is resized.
type rawLine struct {
	text     string
	kind     lineKind
	isInput  bool // true for echoed player input
	isSystem bool // true for system messages
}

// Model is the Bubble Tea model for the BattleCore TUI.
type Model struct {
	battle *engine.Battle
	def    *types.GameDefinition

	viewport viewport.Model
	input    textinput.Model
	history  *History

	rawLines []rawLine // accumulated battle-log lines (unstyled, for re-wrapping)

	width    int
	height   int
	ready    bool
	trace    bool
	quitting bool
	lastCmd  string
	saveDir  string
	printed  int // battle-log lines already shown
}

// gameOutputMsg carries output from the engine into the Update loop.
type gameOutputMsg struct {
	input     string   // echoed player input (empty for intro)
	lines     []string // output lines
	isSystem  bool     // true for meta-command output
	logCursor int      // battle-log position already covered by lines
}

// New creates a TUI model wired to the given battle.
func New(b *engine.Battle, def *types.GameDefinition) Model {
	ti := textinput.New()
	ti.Prompt = "> "
	ti.Focus()
	ti.CharLimit = 256
	ti.PromptStyle = styleInputPrompt

	home, _ := os.UserHomeDir()
	return Model{
		battle:  b,
		def:     def,
		input:   ti,
		history: NewHistory(100),
		saveDir: filepath.Join(home, ".battlecore", "saves"),
	}
}

// Run starts the Bubble Tea program.
func Run(b *engine.Battle, def *types.GameDefinition) error {
	m := New(b, def)
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithMouseCellMotion())
	_, err := p.Run()
	return err
}

// Init returns the initial command that produces the title and opening log.
func (m Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.initialOutput())
}

func (m Model) initialOutput() tea.Cmd {
	return func() tea.Msg {
		var lines []string

		title := m.def.Game.Title
		if m.def.Game.Version != "" {
			title += " v" + m.def.Game.Version
		}
		if m.def.Game.Author != "" {
			title += " by " + m.def.Game.Author
		}
		lines = append(lines, title)
		lines = append(lines, "")

		snap := m.battle.Snapshot()
		lines = append(lines, snap.Log...)
		lines = append(lines, m.contextLines()...)
		return gameOutputMsg{lines: lines, logCursor: len(snap.Log)}
	}
}

// Update handles messages (key presses, window resize, game output).
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

		vpHeight := m.height - 2 // 1 status bar + 1 input line
		if vpHeight < 1 {
			vpHeight = 1
		}

		if !m.ready {
			m.viewport = viewport.New(m.width, vpHeight)
			m.viewport.KeyMap = viewportKeyMap()
			m.ready = true
		} else {
			m.viewport.Width = m.width
			m.viewport.Height = vpHeight
		}

		m.refreshViewport()

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			m.quitting = true
			return m, tea.Quit

		case "enter":
			return m.handleEnter()

		case "up":
			if prev, ok := m.history.Prev(); ok {
				m.input.SetValue(prev)
				m.input.CursorEnd()
			}
			return m, nil

		case "down":
			if next, ok := m.history.Next(); ok {
				m.input.SetValue(next)
				m.input.CursorEnd()
			} else {
				m.input.SetValue("")
				m.history.ResetCursor()
			}
			return m, nil

		case "pgup", "pgdown":
			var vpCmd tea.Cmd
			m.viewport, vpCmd = m.viewport.Update(msg)
			return m, vpCmd
		}

	case gameOutputMsg:
		m = m.appendOutput(msg)
	}

	var inputCmd tea.Cmd
	m.input, inputCmd = m.input.Update(msg)
	cmds = append(cmds, inputCmd)

	return m, tea.Batch(cmds...)
}

// handleEnter processes the submitted input line.
func (m Model) handleEnter() (tea.Model, tea.Cmd) {
	input := strings.TrimSpace(m.input.Value())
	m.input.SetValue("")

	if input == "" {
		return m, nil
	}

	m.history.Push(input)
	m.history.ResetCursor()

	// Handle "again" / "g".
	lower := strings.ToLower(input)
	if lower == "again" || lower == "g" {
		if m.lastCmd == "" {
			m = m.appendOutput(gameOutputMsg{
				input: input, lines: []string{"Nothing to repeat."}, isSystem: true,
			})
			return m, nil
		}
		input = m.lastCmd
	} else {
		m.lastCmd = input
	}

	// Meta-commands.
	if strings.HasPrefix(input, "/") {
		output, quit := m.handleMeta(input)
		m = m.appendOutput(gameOutputMsg{input: input, lines: output, isSystem: true})
		if quit {
			m.quitting = true
			return m, tea.Quit
		}
		return m, nil
	}

	// Battle input.
	output := m.dispatch(input)
	if m.trace {
		output = append(output, m.formatTrace()...)
	}
	m = m.appendOutput(gameOutputMsg{input: input, lines: output})
	return m, nil
}

// dispatch routes battle input by phase and returns the visible output:
// new battle-log lines plus the next prompt context.
func (m *Model) dispatch(input string) []string {
	snap := m.battle.Snapshot()
	if snap.Result != nil || snap.Phase == engine.PhaseFled {
		return []string{"The battle is over."}
	}

	var rejected []string
	switch snap.Phase {
	case engine.PhaseDialog:
		rejected = m.dispatchDialog(snap, input)
	case engine.PhaseActionSelect:
		rejected = m.dispatchAction(snap, input)
	case engine.PhaseTargetSelect:
		rejected = m.dispatchTarget(snap, input)
	default:
		rejected = []string{"The battle is not waiting for input."}
	}
	if rejected != nil {
		return rejected
	}

	// Multi-target skills need no target choice.
	after := m.battle.Snapshot()
	if after.Phase == engine.PhaseTargetSelect && m.pendingTargetsAll(after) {
		m.battle.SelectTargets(nil)
	}

	output := m.drainLog()
	output = append(output, m.contextLines()...)
	return output
}

// dispatchDialog resolves dialog input; returns non-nil on rejected input.
func (m *Model) dispatchDialog(snap engine.CombatSnapshot, input string) []string {
	d := snap.Dialog
	if d == nil {
		return nil
	}
	if len(d.Choices) == 0 {
		m.battle.DismissDialog()
		return nil
	}
	n, err := strconv.Atoi(input)
	if err != nil || n < 1 || n > len(d.Choices) {
		return []string{fmt.Sprintf("Choose 1-%d.", len(d.Choices))}
	}
	m.battle.SelectDialogChoice(n - 1)
	return nil
}

func (m *Model) dispatchAction(snap engine.CombatSnapshot, input string) []string {
	fields := strings.Fields(input)
	verb := strings.ToLower(fields[0])
	var arg string
	if len(fields) > 1 {
		arg = fields[1]
	}

	switch verb {
	case "attack", "a":
		m.battle.SelectAction(types.CombatAction{Type: "attack"})

	case "defend", "d":
		m.battle.SelectAction(types.CombatAction{Type: "defend"})

	case "flee", "run":
		m.battle.SelectAction(types.CombatAction{Type: "flee"})

	case "skill", "s":
		if arg == "" {
			return []string{"Usage: skill <id>. Type skills to list them."}
		}
		actor := findView(snap.Players, snap.ActiveID)
		if actor == nil || !containsString(actor.Skills, arg) {
			return []string{fmt.Sprintf("You don't know %q.", arg)}
		}
		m.battle.SelectAction(types.CombatAction{Type: "skill", SkillID: arg})

	case "item", "use":
		if arg == "" {
			return []string{"Usage: item <id>."}
		}
		if _, ok := m.def.Items[arg]; !ok {
			return []string{fmt.Sprintf("No such item: %q.", arg)}
		}
		m.battle.SelectAction(types.CombatAction{Type: "item", ItemID: arg})

	case "skills":
		return m.cmdSkills(snap)

	case "status":
		return m.cmdStatus(snap)

	case "help":
		return m.cmdHelp()

	default:
		return []string{fmt.Sprintf("Unknown action: %s. Type help for available commands.", verb)}
	}
	return nil
}

func (m *Model) dispatchTarget(snap engine.CombatSnapshot, input string) []string {
	lower := strings.ToLower(input)
	if lower == "cancel" || lower == "back" {
		m.battle.CancelTargetSelection()
		return nil
	}

	targets := m.validTargets(snap)
	if n, err := strconv.Atoi(input); err == nil {
		if n < 1 || n > len(targets) {
			return []string{fmt.Sprintf("Choose 1-%d.", len(targets))}
		}
		m.battle.SelectTargets([]string{targets[n-1].ID})
		return nil
	}
	for _, v := range targets {
		if v.ID == input {
			m.battle.SelectTargets([]string{v.ID})
			return nil
		}
	}
	return []string{fmt.Sprintf("No such target: %q.", input)}
}

// contextLines renders what the battle is waiting for after a state change.
func (m *Model) contextLines() []string {
	snap := m.battle.Snapshot()

	switch {
	case snap.Phase == engine.PhaseFled:
		return []string{"You got away."}
	case snap.Result != nil && snap.Result.Victory:
		return []string{fmt.Sprintf("Battle won in %d turns.", snap.Result.Turns)}
	case snap.Result != nil:
		return []string{fmt.Sprintf("Battle lost after %d turns.", snap.Result.Turns)}
	}

	switch snap.Phase {
	case engine.PhaseDialog:
		d := snap.Dialog
		if d == nil {
			return nil
		}
		var lines []string
		if d.Speaker != "" {
			lines = append(lines, fmt.Sprintf("%s: %q", d.Speaker, d.Text))
		} else {
			lines = append(lines, d.Text)
		}
		if len(d.Choices) > 0 {
			for i, choice := range d.Choices {
				lines = append(lines, fmt.Sprintf("  %d. %s", i+1, choice.Text))
			}
		} else {
			lines = append(lines, "(press enter with any input to continue)")
		}
		return lines

	case engine.PhaseTargetSelect:
		lines := []string{"Choose a target (number or id, cancel to go back):"}
		for i, v := range m.validTargets(snap) {
			lines = append(lines, fmt.Sprintf("  %d. %s (HP %.0f/%.0f)", i+1, v.Name, v.CurrentHP, v.MaxHP))
		}
		return lines
	}
	return nil
}

// validTargets returns the combatants the pending action may legally hit.
func (m *Model) validTargets(snap engine.CombatSnapshot) []engine.CombatantView {
	pending := snap.PendingAction
	if pending == nil {
		return nil
	}

	allies := false
	deadOnly := false
	switch pending.Type {
	case "skill":
		sk := m.def.Skills[pending.SkillID]
		allies = sk.Type == "healing" || sk.Type == "buff" || sk.Type == "defense"
	case "item":
		switch m.def.Items[pending.ItemID].Effect {
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
func (m *Model) pendingTargetsAll(snap engine.CombatSnapshot) bool {
	pending := snap.PendingAction
	if pending == nil || pending.Type != "skill" {
		return false
	}
	return m.def.Skills[pending.SkillID].TargetAll
}

// drainLog returns battle-log lines added since the last drain.
func (m *Model) drainLog() []string {
	log := m.battle.Snapshot().Log
	fresh := append([]string(nil), log[m.printed:]...)
	m.printed = len(log)
	return fresh
}

// appendOutput adds lines to the transcript and refreshes the viewport.
func (m Model) appendOutput(msg gameOutputMsg) Model {
	if msg.logCursor > m.printed {
		m.printed = msg.logCursor
	}
	if msg.input != "" {
		m.rawLines = append(m.rawLines, rawLine{
			text: "> " + msg.input, isInput: true,
		})
	}

	for _, line := range msg.lines {
		rl := rawLine{text: line, isSystem: msg.isSystem}
		if !msg.isSystem {
			rl.kind = classifyLine(line)
		}
		m.rawLines = append(m.rawLines, rl)
	}

	// Blank line separator between exchanges.
	m.rawLines = append(m.rawLines, rawLine{})

	m.refreshViewport()

	return m
}

// refreshViewport re-wraps and re-styles all raw lines at the current width
// and updates the viewport content.
func (m *Model) refreshViewport() {
	if !m.ready {
		return
	}

	width := m.width
	if width < 10 {
		width = 10
	}

	var styled []string
	for _, rl := range m.rawLines {
		if rl.text == "" {
			styled = append(styled, "")
			continue
		}

		wrapped := wordWrap(rl.text, width)

		switch {
		case rl.isInput:
			styled = append(styled, stylePlayerInput.Render(wrapped))
		case rl.isSystem:
			styled = append(styled, styledSystemMsg(wrapped))
		default:
			styled = append(styled, renderLineKind(wrapped, rl.kind))
		}
	}

	m.viewport.SetContent(strings.Join(styled, "\n"))
	m.viewport.GotoBottom()
}

// wordWrap wraps text to fit within the given width, breaking at word
// boundaries. Preserves existing newlines within the text.
func wordWrap(text string, width int) string {
	if width <= 0 || len(text) <= width {
		return text
	}

	var result strings.Builder
	words := strings.Fields(text)
	lineLen := 0

	for i, word := range words {
		wLen := len(word)

		if i == 0 {
			result.WriteString(word)
			lineLen = wLen
			continue
		}

		if lineLen+1+wLen > width {
			result.WriteString("\n")
			result.WriteString(word)
			lineLen = wLen
		} else {
			result.WriteString(" ")
			result.WriteString(word)
			lineLen += 1 + wLen
		}
	}

	return result.String()
}

// View renders the full TUI layout: viewport + status bar + input.
func (m Model) View() string {
	if m.quitting {
		return ""
	}
	if !m.ready {
		return "Loading..."
	}

	return m.viewport.View() + "\n" + m.renderStatusBar() + "\n" + m.input.View()
}

// handleMeta dispatches meta-commands. Returns output lines and quit flag.
func (m *Model) handleMeta(input string) ([]string, bool) {
	parts := strings.Fields(input)
	cmd := parts[0]
	var arg string
	if len(parts) > 1 {
		arg = parts[1]
	}

	switch cmd {
	case "/quit", "/exit":
		return []string{"Goodbye."}, true

	case "/save":
		return m.cmdSave(arg), false

	case "/load":
		return m.cmdLoad(arg), false

	case "/help":
		return m.cmdHelp(), false

	case "/state":
		return m.cmdState(), false

	case "/trace":
		m.trace = !m.trace
		if m.trace {
			return []string{"Trace output enabled."}, false
		}
		return []string{"Trace output disabled."}, false

	default:
		return []string{fmt.Sprintf("Unknown command: %s. Type /help for available commands.", cmd)}, false
	}
}

func (m *Model) cmdSave(name string) []string {
	if name == "" {
		name = "quicksave"
	}

	data, err := save.Save(m.battle, m.def.Game)
	if err != nil {
		return []string{fmt.Sprintf("Save failed: %v", err)}
	}

	if err := os.MkdirAll(m.saveDir, 0o755); err != nil {
		return []string{fmt.Sprintf("Save failed: %v", err)}
	}

	path := filepath.Join(m.saveDir, name+".json")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return []string{fmt.Sprintf("Save failed: %v", err)}
	}

	return []string{fmt.Sprintf("Battle saved to %s.", name)}
}

func (m *Model) cmdLoad(name string) []string {
	if name == "" {
		name = "quicksave"
	}

	path := filepath.Join(m.saveDir, name+".json")
	data, err := os.ReadFile(path)
	if err != nil {
		return []string{fmt.Sprintf("Load failed: %v", err)}
	}

	sd, err := save.Load(data)
	if err != nil {
		return []string{fmt.Sprintf("Load failed: %v", err)}
	}

	b, err := save.Restore(m.def, sd)
	if err != nil {
		return []string{fmt.Sprintf("Load failed: %v", err)}
	}

	m.battle = b
	m.printed = 0 // replay the restored battle log as a recap

	output := []string{fmt.Sprintf("Battle loaded from %s (turn %d).", name, sd.Battle.TurnNumber)}
	output = append(output, m.drainLog()...)
	output = append(output, m.contextLines()...)
	return output
}

func (m *Model) cmdHelp() []string {
	return []string{
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
		"  again (g)        — Repeat your last command",
		"",
		"Navigation: PgUp/PgDn to scroll, Up/Down for command history",
	}
}

func (m *Model) cmdSkills(snap engine.CombatSnapshot) []string {
	actor := findView(snap.Players, snap.ActiveID)
	if actor == nil || len(actor.Skills) == 0 {
		return []string{"No skills."}
	}
	var lines []string
	for _, id := range actor.Skills {
		sk, ok := m.def.Skills[id]
		if !ok {
			continue
		}
		lines = append(lines, fmt.Sprintf("  %s — %s (MP %.0f)", id, sk.Name, sk.MPCost))
	}
	return lines
}

func (m *Model) cmdStatus(snap engine.CombatSnapshot) []string {
	var lines []string
	for _, v := range snap.Players {
		lines = append(lines, formatStatus(v))
	}
	for _, v := range snap.Enemies {
		lines = append(lines, formatStatus(v))
	}
	return lines
}

func (m *Model) cmdState() []string {
	snap := m.battle.Snapshot()
	output := []string{
		fmt.Sprintf("Phase: %s", snap.Phase),
		fmt.Sprintf("Turn: %d", snap.TurnNumber),
	}
	var order []string
	for _, e := range snap.Queue {
		order = append(order, e.CombatantID)
	}
	output = append(output, fmt.Sprintf("Queue: %v", order))
	for _, v := range snap.Players {
		output = append(output, formatStatus(v))
	}
	for _, v := range snap.Enemies {
		output = append(output, formatStatus(v))
	}
	return output
}

func (m *Model) formatTrace() []string {
	snap := m.battle.Snapshot()
	lines := []string{fmt.Sprintf("[trace] phase=%s turn=%d active=%s",
		snap.Phase, snap.TurnNumber, snap.ActiveID)}
	if snap.PendingAction != nil {
		lines = append(lines, fmt.Sprintf("[trace] pending %s %s%s",
			snap.PendingAction.Type, snap.PendingAction.SkillID, snap.PendingAction.ItemID))
	}
	return lines
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

// viewportKeyMap returns a viewport keymap with Up/Down disabled
// (we use those for input history).
func viewportKeyMap() viewport.KeyMap {
	return viewport.KeyMap{
		PageDown:     key.NewBinding(key.WithKeys("pgdown")),
		PageUp:       key.NewBinding(key.WithKeys("pgup")),
		HalfPageDown: key.NewBinding(key.WithKeys("ctrl+d")),
		HalfPageUp:   key.NewBinding(key.WithKeys("ctrl+u")),
		Up:           key.NewBinding(key.WithDisabled()),
		Down:         key.NewBinding(key.WithDisabled()),
	}
}
