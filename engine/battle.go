// Package engine provides the combat state machine that wires together
// stats, modifiers, damage, actions, AI, and triggers into turn-based
// battles.
package engine

import (
	"fmt"
	"math"
	"sort"

	"github.com/nathoo/battlecore/engine/action"
	"github.com/nathoo/battlecore/engine/ai"
	"github.com/nathoo/battlecore/engine/combatant"
	"github.com/nathoo/battlecore/engine/damage"
	"github.com/nathoo/battlecore/engine/modifier"
	"github.com/nathoo/battlecore/engine/rng"
	"github.com/nathoo/battlecore/engine/stats"
	"github.com/nathoo/battlecore/engine/trigger"
	"github.com/nathoo/battlecore/types"
)

// Phase is a combat state machine phase.
type Phase string

const (
	PhaseStart         Phase = "start"
	PhaseTurnStart     Phase = "turn_start"
	PhaseActionSelect  Phase = "action_select"
	PhaseTargetSelect  Phase = "target_select"
	PhaseActionExecute Phase = "action_execute"
	PhaseTurnEnd       Phase = "turn_end"
	PhaseDialog        Phase = "dialog"
	PhaseVictory       Phase = "victory"
	PhaseDefeat        Phase = "defeat"
	PhaseFled          Phase = "fled"
)

// maxPhaseDepth bounds the dialog interrupt stack.
const maxPhaseDepth = 8

// TurnQueueEntry is one slot in the per-round initiative order.
type TurnQueueEntry struct {
	CombatantID string  `json:"combatantId"`
	Initiative  float64 `json:"initiative"`
}

// Battle is the combat state machine. It is single-threaded: all methods
// must be called from one goroutine.
type Battle struct {
	def      *types.GameDefinition
	stats    *stats.Engine
	calc     *damage.Calculator
	exec     *action.Executor
	ai       *ai.Selector
	triggers *trigger.Engine
	rng      *rng.RNG

	phase      Phase
	phaseStack []Phase
	players    []*combatant.Combatant
	enemies    []*combatant.Combatant

	// enemyDefs maps battle combatant ids (after disambiguation) to their
	// definitions. Entries persist after death for reward computation and
	// are updated by transform trigger actions.
	enemyDefs map[string]types.EnemyDef

	queue      []TurnQueueEntry
	turnIndex  int
	turnNumber int
	pending    *types.CombatAction
	dialogs    []types.DialogDef
	log        []string
	result     *types.BattleResult

	// awaitingDispatch is set when a turn-start trigger opened a dialog
	// before the acting combatant was dispatched. awaitingActor records who
	// was interrupted: if that combatant is gone by the time the dialog
	// closes, the next actor gets a full turn start instead.
	awaitingDispatch bool
	awaitingActor    string

	listeners    map[int]func(CombatSnapshot)
	nextListener int
}

// New creates a battle machine from validated game content. Stat engine
// construction fails fast on malformed formulas so they never reach a
// running battle.
func New(def *types.GameDefinition, seed int64) (*Battle, error) {
	return newBattle(def, rng.New(seed))
}

func newBattle(def *types.GameDefinition, r *rng.RNG) (*Battle, error) {
	eng, err := stats.New(def.Stats, def.Derived, def.CombatFormulas)
	if err != nil {
		return nil, err
	}
	calc := damage.NewCalculator(eng, r)
	return &Battle{
		def:       def,
		stats:     eng,
		calc:      calc,
		exec:      action.NewExecutor(eng, calc),
		ai:        ai.NewSelector(def.Skills, r),
		rng:       r,
		phase:     PhaseStart,
		enemyDefs: map[string]types.EnemyDef{},
		listeners: map[int]func(CombatSnapshot){},
	}, nil
}

// RNG exposes the battle's random source for save/restore.
func (b *Battle) RNG() *rng.RNG {
	return b.rng
}

// Initialize builds the combatants for a battle against the named enemy
// definitions. Duplicate enemy ids get an occurrence suffix. The battle log,
// turn queue, and result are reset.
func (b *Battle) Initialize(enemyIDs []string) error {
	p := b.def.Player
	level := p.Level
	if level < 1 {
		level = 1
	}
	player, err := combatant.New("player", p.Name, true, level, p.BaseStats, p.Skills, b.stats)
	if err != nil {
		return fmt.Errorf("player: %w", err)
	}
	b.players = []*combatant.Combatant{player}

	b.enemies = nil
	b.enemyDefs = map[string]types.EnemyDef{}
	for _, id := range enemyIDs {
		def, ok := b.def.Enemies[id]
		if !ok {
			return fmt.Errorf("unknown enemy: %s", id)
		}
		if _, err := b.spawnEnemy(def); err != nil {
			return err
		}
	}

	b.triggers = trigger.New(b.def.Triggers)
	b.phase = PhaseStart
	b.phaseStack = nil
	b.queue = nil
	b.turnIndex = 0
	b.turnNumber = 0
	b.pending = nil
	b.dialogs = nil
	b.result = nil
	b.awaitingDispatch = false
	b.awaitingActor = ""
	b.log = []string{"Battle Start!"}
	b.emit()
	return nil
}

// Start computes the first round's turn order and begins processing turns.
func (b *Battle) Start() {
	if b.phase != PhaseStart {
		return
	}
	b.turnNumber = 1
	b.computeTurnOrder()
	b.phase = PhaseTurnStart
	b.step()
}

// SelectAction receives the player's chosen action. defend and flee execute
// immediately; attack, skill, and item move to target selection.
func (b *Battle) SelectAction(act types.CombatAction) {
	if b.phase != PhaseActionSelect {
		return
	}
	actor := b.currentActor()
	if actor == nil {
		return
	}
	act.ActorID = actor.ID

	switch act.Type {
	case "defend":
		actor.Defending = true
		b.logf("%s braces for impact.", actor.Name)
		b.phase = PhaseTurnEnd
		b.step()
	case "flee":
		if b.rng.Chance(50) {
			b.logf("%s fled from battle!", actor.Name)
			b.phase = PhaseFled
			b.emit()
			return
		}
		b.logf("%s couldn't escape!", actor.Name)
		b.phase = PhaseTurnEnd
		b.step()
	default:
		b.pending = &act
		b.phase = PhaseTargetSelect
		b.emit()
	}
}

// SelectTargets attaches target ids to the pending action and executes it.
func (b *Battle) SelectTargets(targetIDs []string) {
	if b.phase != PhaseTargetSelect || b.pending == nil {
		return
	}
	actor := b.currentActor()
	if actor == nil {
		return
	}
	act := *b.pending
	act.TargetIDs = targetIDs
	b.pending = nil
	b.execute(actor, act)
	if !b.terminal() && b.phase != PhaseDialog {
		b.phase = PhaseTurnEnd
	}
	b.step()
}

// CancelTargetSelection discards the pending action and returns to action
// selection. This is the only backward transition in the machine.
func (b *Battle) CancelTargetSelection() {
	if b.phase != PhaseTargetSelect {
		return
	}
	b.pending = nil
	b.phase = PhaseActionSelect
	b.emit()
}

// DismissDialog advances past the current dialog. It is a no-op while the
// dialog has unresolved choices.
func (b *Battle) DismissDialog() {
	if b.phase != PhaseDialog || len(b.dialogs) == 0 {
		return
	}
	if len(b.dialogs[0].Choices) > 0 {
		return
	}
	b.dialogs = b.dialogs[1:]
	b.afterDialogPop()
}

// SelectDialogChoice resolves the current dialog with the given choice and
// runs its action, which may itself enqueue further dialogs.
func (b *Battle) SelectDialogChoice(index int) {
	if b.phase != PhaseDialog || len(b.dialogs) == 0 {
		return
	}
	d := b.dialogs[0]
	if index < 0 || index >= len(d.Choices) {
		return
	}
	b.dialogs = b.dialogs[1:]
	if act := d.Choices[index].Action; act != nil {
		b.handleTriggerAction(*act, b.currentActor())
	}
	b.afterDialogPop()
}

// Subscribe registers a listener called with a snapshot after every state
// change. The returned function unregisters it.
func (b *Battle) Subscribe(fn func(CombatSnapshot)) func() {
	id := b.nextListener
	b.nextListener++
	b.listeners[id] = fn
	return func() {
		delete(b.listeners, id)
	}
}

// Phase returns the current phase.
func (b *Battle) Phase() Phase {
	return b.phase
}

// Result returns the battle result, nil until victory or defeat.
func (b *Battle) Result() *types.BattleResult {
	return b.result
}

// step drives the machine until it needs player input, shows a dialog, or
// reaches a terminal phase.
func (b *Battle) step() {
	for {
		switch b.phase {
		case PhaseTurnStart:
			b.beginTurn()
		case PhaseTurnEnd:
			b.nextTurn()
		default:
			b.emit()
			return
		}
	}
}

// beginTurn runs the turn-start bookkeeping for the next living combatant
// in the queue, evaluates triggers, and dispatches the actor.
func (b *Battle) beginTurn() {
	actor := b.advanceToLiving()
	if actor == nil {
		b.nextRound()
		return
	}

	actor.Defending = false
	for _, a := range actor.Modifiers.TickDurations() {
		name := a.Def.Name
		if name == "" {
			name = a.Def.ID
		}
		b.logf("%s's %s wore off.", actor.Name, name)
	}
	if err := actor.Recalculate(b.stats); err != nil {
		b.logf("stat recalculation for %s: %v", actor.Name, err)
	}
	b.logf("%s's turn.", actor.Name)

	b.runTriggers(actor)
	if b.terminal() {
		return
	}
	if b.phase == PhaseDialog {
		b.awaitingDispatch = true
		b.awaitingActor = actor.ID
		return
	}
	if !actor.Alive {
		b.phase = PhaseTurnEnd
		return
	}
	b.dispatchActor(actor)
}

// dispatchActor hands the turn to the player or runs the enemy's AI.
func (b *Battle) dispatchActor(actor *combatant.Combatant) {
	if actor.IsPlayer {
		b.phase = PhaseActionSelect
		return
	}
	def, ok := b.enemyDefs[actor.ID]
	var cfg *types.AIConfig
	if ok {
		cfg = def.AI
	}
	act := b.ai.SelectAction(actor, living(b.players), b.turnNumber, cfg)
	b.execute(actor, act)
	if !b.terminal() && b.phase != PhaseDialog {
		b.phase = PhaseTurnEnd
	}
}

// advanceToLiving skips dead or missing queue entries and returns the
// combatant whose turn it is, or nil when the round is exhausted.
func (b *Battle) advanceToLiving() *combatant.Combatant {
	for b.turnIndex < len(b.queue) {
		c := b.find(b.queue[b.turnIndex].CombatantID)
		if c != nil && c.Alive {
			return c
		}
		b.turnIndex++
	}
	return nil
}

func (b *Battle) nextTurn() {
	b.turnIndex++
	if b.turnIndex >= len(b.queue) {
		b.nextRound()
		return
	}
	b.phase = PhaseTurnStart
}

// nextRound starts a new round: fresh initiative rolls, dead combatants
// excluded. Turn order is not stable round to round.
func (b *Battle) nextRound() {
	b.turnNumber++
	b.turnIndex = 0
	b.computeTurnOrder()
	if len(b.queue) == 0 {
		b.checkBattleEnd()
		if !b.terminal() {
			b.phase = PhaseDefeat
		}
		return
	}
	b.phase = PhaseTurnStart
}

// computeTurnOrder rolls initiative (turn-order formula plus variance in
// [0,10)) for every living combatant and sorts descending.
func (b *Battle) computeTurnOrder() {
	b.queue = nil
	for _, c := range append(living(b.players), living(b.enemies)...) {
		b.queue = append(b.queue, TurnQueueEntry{
			CombatantID: c.ID,
			Initiative:  b.initiative(c),
		})
	}
	sort.SliceStable(b.queue, func(i, j int) bool {
		return b.queue[i].Initiative > b.queue[j].Initiative
	})
}

func (b *Battle) initiative(c *combatant.Combatant) float64 {
	base, err := b.stats.TurnOrder(c.CurrentStats)
	if err != nil {
		base = c.Stat("Speed")
	}
	return base + b.rng.Float()*10
}

// execute applies one combat action and then checks for battle end.
func (b *Battle) execute(actor *combatant.Combatant, act types.CombatAction) {
	b.phase = PhaseActionExecute

	switch act.Type {
	case "skill":
		skill, ok := b.def.Skills[act.SkillID]
		if !ok {
			b.logf("%s doesn't know what to do!", actor.Name)
			b.basicAttack(actor, b.resolveTargets(act.TargetIDs))
			break
		}
		targets := b.skillTargets(actor, skill, act.TargetIDs)
		res := b.exec.ExecuteSkill(actor, skill, targets)
		b.logResult(res)
	case "item":
		item, ok := b.def.Items[act.ItemID]
		if !ok {
			b.logf("%s fumbles with an unknown item.", actor.Name)
			break
		}
		res := b.exec.ExecuteItem(actor, item, b.resolveTargets(act.TargetIDs))
		b.logResult(res)
	case "attack":
		b.basicAttack(actor, b.resolveTargets(act.TargetIDs))
	case "defend":
		actor.Defending = true
		b.logf("%s braces for impact.", actor.Name)
	default:
		b.logf("%s hesitates.", actor.Name)
	}

	b.checkBattleEnd()
}

// basicAttack is the fallback when no skill applies: a hardcoded physical
// attack, halved against a defending target.
func (b *Battle) basicAttack(actor *combatant.Combatant, targets []*combatant.Combatant) {
	if len(targets) == 0 {
		b.logf("%s attacks thin air.", actor.Name)
		return
	}
	for _, t := range targets {
		atk := actor.Stat("Attack")
		def := t.Stat("Defense")
		dmg := math.Floor(atk * 100 / (100 + def))
		if t.Defending {
			dmg = math.Floor(dmg / 2)
		}
		if dmg < 1 {
			dmg = 1
		}
		killed := t.ApplyDamage(dmg)
		b.logf("%s attacks %s for %.0f damage!", actor.Name, t.Name, dmg)
		if killed {
			b.logf("%s is defeated!", t.Name)
		}
	}
}

// skillTargets resolves explicit targets, expanding target-all skills to
// the full relevant side.
func (b *Battle) skillTargets(actor *combatant.Combatant, skill types.SkillDef, ids []string) []*combatant.Combatant {
	if skill.TargetAll {
		switch skill.Type {
		case "healing", "buff", "defense":
			return living(b.allies(actor))
		default:
			return living(b.opponents(actor))
		}
	}
	return b.resolveTargets(ids)
}

func (b *Battle) resolveTargets(ids []string) []*combatant.Combatant {
	var out []*combatant.Combatant
	for _, id := range ids {
		if c := b.find(id); c != nil {
			out = append(out, c)
		} else {
			b.logf("no such combatant: %s", id)
		}
	}
	return out
}

// runTriggers checks trigger conditions and dispatches fired actions.
// Formula errors are logged, never fatal.
func (b *Battle) runTriggers(actor *combatant.Combatant) {
	if b.triggers == nil {
		return
	}
	results, diags := b.triggers.Evaluate(b.players, b.enemies, b.turnNumber)
	b.log = append(b.log, diags...)
	for _, r := range results {
		if b.terminal() {
			return
		}
		b.handleTriggerAction(r.Action, actor)
	}
}

// handleTriggerAction dispatches one fired trigger action. An empty target
// id means the currently acting combatant. Unknown targets are logged and
// skipped.
func (b *Battle) handleTriggerAction(a types.TriggerAction, actor *combatant.Combatant) {
	switch a.Type {
	case "dialog":
		if a.Dialog != nil {
			b.queueDialog(*a.Dialog)
		}
	case "spawn":
		def, ok := b.def.Enemies[a.EnemyID]
		if !ok {
			b.logf("no such enemy: %s", a.EnemyID)
			return
		}
		c, err := b.spawnEnemy(def)
		if err != nil {
			b.logf("spawn %s: %v", a.EnemyID, err)
			return
		}
		b.queueAtAverageInitiative(c.ID)
		b.logf("%s appears!", c.Name)
	case "buff":
		target := b.triggerTarget(a.TargetID, actor)
		if target == nil || a.Modifier == nil {
			return
		}
		target.Modifiers.Add(*a.Modifier, modifier.SourceBuff)
		if err := target.Recalculate(b.stats); err != nil {
			b.logf("stat recalculation for %s: %v", target.Name, err)
		}
		b.logf("%s is affected by %s!", target.Name, a.Modifier.Name)
	case "heal":
		target := b.triggerTarget(a.TargetID, actor)
		if target == nil {
			return
		}
		healed := target.Heal(a.Amount)
		b.logf("%s recovers %.0f HP.", target.Name, healed)
	case "damage":
		target := b.triggerTarget(a.TargetID, actor)
		if target == nil {
			return
		}
		killed := target.ApplyDamage(a.Amount)
		b.logf("%s takes %.0f damage!", target.Name, a.Amount)
		if killed {
			b.logf("%s is defeated!", target.Name)
		}
		b.checkBattleEnd()
	case "flee":
		b.logf("The battle ends abruptly!")
		b.phase = PhaseFled
	case "transform":
		target := b.triggerTarget(a.TargetID, actor)
		def, ok := b.def.Enemies[a.EnemyID]
		if target == nil {
			return
		}
		if !ok {
			b.logf("no such enemy: %s", a.EnemyID)
			return
		}
		if err := target.Transform(def.BaseStats, def.Skills, b.stats); err != nil {
			b.logf("transform %s: %v", target.Name, err)
			return
		}
		target.Name = def.Name
		// AI decisions after this point use the new definition.
		if _, tracked := b.enemyDefs[target.ID]; tracked {
			b.enemyDefs[target.ID] = def
		}
		b.logf("%s transforms into %s!", target.ID, def.Name)
	case "multi":
		for _, sub := range a.Actions {
			if b.terminal() {
				return
			}
			b.handleTriggerAction(sub, actor)
		}
	default:
		b.logf("unknown trigger action: %s", a.Type)
	}
}

func (b *Battle) triggerTarget(id string, actor *combatant.Combatant) *combatant.Combatant {
	if id == "" {
		return actor
	}
	c := b.find(id)
	if c == nil {
		b.logf("no such combatant: %s", id)
	}
	return c
}

// spawnEnemy creates a combatant from an enemy definition with a battle-wide
// unique id and registers its definition for rewards and AI lookup.
func (b *Battle) spawnEnemy(def types.EnemyDef) (*combatant.Combatant, error) {
	id := def.ID
	for i := 2; b.find(id) != nil; i++ {
		id = fmt.Sprintf("%s_%d", def.ID, i)
	}
	level := def.Level
	if level < 1 {
		level = 1
	}
	c, err := combatant.New(id, def.Name, false, level, def.BaseStats, def.Skills, b.stats)
	if err != nil {
		return nil, fmt.Errorf("enemy %s: %w", def.ID, err)
	}
	b.enemies = append(b.enemies, c)
	b.enemyDefs[id] = def
	return c, nil
}

// queueAtAverageInitiative inserts a spawned combatant into the current
// round at the average of the existing initiatives.
func (b *Battle) queueAtAverageInitiative(id string) {
	if len(b.queue) == 0 {
		b.queue = append(b.queue, TurnQueueEntry{CombatantID: id})
		return
	}
	sum := 0.0
	for _, e := range b.queue {
		sum += e.Initiative
	}
	avg := sum / float64(len(b.queue))
	entry := TurnQueueEntry{CombatantID: id, Initiative: avg}
	// Keep the descending order; never insert before the slot already taken.
	pos := len(b.queue)
	for i := b.turnIndex + 1; i < len(b.queue); i++ {
		if b.queue[i].Initiative < avg {
			pos = i
			break
		}
	}
	b.queue = append(b.queue, TurnQueueEntry{})
	copy(b.queue[pos+1:], b.queue[pos:])
	b.queue[pos] = entry
}

// queueDialog appends a dialog and, if none is showing, preempts the
// current phase.
func (b *Battle) queueDialog(d types.DialogDef) {
	b.dialogs = append(b.dialogs, d)
	if b.phase != PhaseDialog {
		if len(b.phaseStack) < maxPhaseDepth {
			b.phaseStack = append(b.phaseStack, b.phase)
		}
		b.phase = PhaseDialog
	}
}

// afterDialogPop shows the next queued dialog, or restores the interrupted
// phase and resumes turn processing.
func (b *Battle) afterDialogPop() {
	if len(b.dialogs) > 0 {
		b.emit()
		return
	}
	if b.terminal() {
		b.emit()
		return
	}
	if n := len(b.phaseStack); n > 0 {
		b.phase = b.phaseStack[n-1]
		b.phaseStack = b.phaseStack[:n-1]
	} else {
		b.phase = PhaseTurnStart
	}
	if b.awaitingDispatch && b.phase == PhaseTurnStart {
		b.awaitingDispatch = false
		actor := b.advanceToLiving()
		if actor == nil {
			b.nextRound()
			b.step()
			return
		}
		if actor.ID != b.awaitingActor {
			// The interrupted combatant died during the dialog. Whoever is
			// next has not had turn-start bookkeeping yet.
			b.step()
			return
		}
		b.dispatchActor(actor)
		b.step()
		return
	}
	b.emit()
}

// checkBattleEnd detects victory or defeat and builds the battle result
// exactly once.
func (b *Battle) checkBattleEnd() {
	if b.terminal() {
		return
	}
	if len(living(b.players)) == 0 {
		b.phase = PhaseDefeat
		b.result = &types.BattleResult{Victory: false, Turns: b.turnNumber}
		b.logf("Defeat...")
		return
	}
	if len(living(b.enemies)) == 0 {
		b.phase = PhaseVictory
		rewards := b.computeRewards()
		b.result = &types.BattleResult{
			Victory:   true,
			Rewards:   rewards,
			Survivors: b.survivors(),
			Turns:     b.turnNumber,
		}
		b.logf("Victory!")
		b.logf("Gained %.0f EXP!", rewards.Exp)
		if rewards.Gold > 0 {
			b.logf("Found %.0f gold!", rewards.Gold)
		}
		for _, d := range rewards.Drops {
			b.logf("Found: %s x%d!", b.itemName(d.ItemID), d.Count)
		}
	}
}

// computeRewards sums exp and gold across every enemy that appeared in the
// battle, dead or alive at the end, and rolls each drop entry independently.
// Successful drops are merged by item id with counts summed.
func (b *Battle) computeRewards() *types.BattleRewards {
	ids := make([]string, 0, len(b.enemyDefs))
	for id := range b.enemyDefs {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	rewards := &types.BattleRewards{}
	counts := map[string]int{}
	var order []string
	for _, id := range ids {
		def := b.enemyDefs[id]
		rewards.Exp += def.Exp
		rewards.Gold += def.Gold
		for _, drop := range def.Drops {
			if !b.rng.Chance(drop.Chance) {
				continue
			}
			if _, seen := counts[drop.ItemID]; !seen {
				order = append(order, drop.ItemID)
			}
			n := drop.Count
			if n < 1 {
				n = 1
			}
			counts[drop.ItemID] += n
		}
	}
	for _, itemID := range order {
		rewards.Drops = append(rewards.Drops, types.DropDef{ItemID: itemID, Count: counts[itemID], Chance: 100})
	}
	return rewards
}

func (b *Battle) survivors() []types.SurvivorSummary {
	var out []types.SurvivorSummary
	for _, p := range living(b.players) {
		out = append(out, types.SurvivorSummary{
			ID:        p.ID,
			Name:      p.Name,
			CurrentHP: p.CurrentHP,
			MaxHP:     p.MaxHP,
		})
	}
	return out
}

// logResult records an action result in the battle log.
func (b *Battle) logResult(res types.ActionResult) {
	if res.Message != "" {
		b.log = append(b.log, res.Message)
	}
	for _, eff := range res.Effects {
		b.logEffect(eff)
	}
	for _, id := range res.KilledTargets {
		if c := b.find(id); c != nil {
			b.logf("%s is defeated!", c.Name)
		}
	}
}

func (b *Battle) logEffect(eff types.ActionEffect) {
	name := eff.TargetID
	if c := b.find(eff.TargetID); c != nil {
		name = c.Name
	}
	switch eff.Type {
	case "damage":
		if eff.IsCritical {
			b.logf("Critical hit! %s takes %.0f damage!", name, eff.Value)
		} else {
			b.logf("%s takes %.0f damage!", name, eff.Value)
		}
	case "heal":
		b.logf("%s recovers %.0f HP.", name, eff.Value)
	case "buff":
		b.logf("%s's %s rises!", name, eff.StatAffected)
	case "debuff":
		b.logf("%s's %s falls!", name, eff.StatAffected)
	case "revive":
		b.logf("%s is revived!", name)
	case "cure":
		b.logf("%s is cured.", name)
	case "defend":
		b.logf("%s braces for impact.", name)
	}
}

func (b *Battle) currentActor() *combatant.Combatant {
	if b.turnIndex >= len(b.queue) {
		return nil
	}
	return b.find(b.queue[b.turnIndex].CombatantID)
}

func (b *Battle) find(id string) *combatant.Combatant {
	for _, c := range b.players {
		if c.ID == id {
			return c
		}
	}
	for _, c := range b.enemies {
		if c.ID == id {
			return c
		}
	}
	return nil
}

func (b *Battle) allies(c *combatant.Combatant) []*combatant.Combatant {
	if c.IsPlayer {
		return b.players
	}
	return b.enemies
}

func (b *Battle) opponents(c *combatant.Combatant) []*combatant.Combatant {
	if c.IsPlayer {
		return b.enemies
	}
	return b.players
}

func (b *Battle) terminal() bool {
	return b.phase == PhaseVictory || b.phase == PhaseDefeat || b.phase == PhaseFled
}

func (b *Battle) itemName(id string) string {
	if item, ok := b.def.Items[id]; ok && item.Name != "" {
		return item.Name
	}
	return id
}

func (b *Battle) logf(format string, args ...any) {
	b.log = append(b.log, fmt.Sprintf(format, args...))
}

func (b *Battle) emit() {
	if len(b.listeners) == 0 {
		return
	}
	snap := b.Snapshot()
	for _, fn := range b.listeners {
		fn(snap)
	}
}

func living(cs []*combatant.Combatant) []*combatant.Combatant {
	var out []*combatant.Combatant
	for _, c := range cs {
		if c.Alive {
			out = append(out, c)
		}
	}
	return out
}
