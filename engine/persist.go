package engine

import (
	"fmt"

	"github.com/nathoo/battlecore/engine/combatant"
	"github.com/nathoo/battlecore/engine/modifier"
	"github.com/nathoo/battlecore/engine/rng"
	"github.com/nathoo/battlecore/engine/trigger"
	"github.com/nathoo/battlecore/types"
)

// CombatantState is the serialized form of one combatant. Base stats and
// full modifier bodies are persisted so saves survive game-content changes.
type CombatantState struct {
	ID        string            `json:"id"`
	Name      string            `json:"name"`
	IsPlayer  bool              `json:"isPlayer"`
	Level     int               `json:"level"`
	BaseStats types.StatBlock   `json:"baseStats"`
	CurrentHP float64           `json:"currentHp"`
	CurrentMP float64           `json:"currentMp"`
	Skills    []string          `json:"skills,omitempty"`
	Modifiers []modifier.Record `json:"modifiers,omitempty"`
	Defending bool              `json:"defending"`
	Alive     bool              `json:"alive"`
}

// BattleState is the serialized form of a battle in progress. Transient
// selection state (pending action, open dialogs) is not persisted: saves
// capture the battle between actions.
type BattleState struct {
	Phase        string                    `json:"phase"`
	TurnNumber   int                       `json:"turnNumber"`
	TurnIndex    int                       `json:"turnIndex"`
	Queue        []TurnQueueEntry          `json:"queue"`
	Players      []CombatantState          `json:"players"`
	Enemies      []CombatantState          `json:"enemies"`
	EnemyDefs    map[string]types.EnemyDef `json:"enemyDefs"`
	TriggerFires []int                     `json:"triggerFires,omitempty"`
	Log          []string                  `json:"log"`
	RNGSeed      int64                     `json:"rngSeed"`
	RNGPosition  int64                     `json:"rngPosition"`
}

// ExportState captures the battle for persistence.
func (b *Battle) ExportState() BattleState {
	st := BattleState{
		Phase:       string(b.phase),
		TurnNumber:  b.turnNumber,
		TurnIndex:   b.turnIndex,
		Queue:       append([]TurnQueueEntry(nil), b.queue...),
		EnemyDefs:   map[string]types.EnemyDef{},
		Log:         append([]string(nil), b.log...),
		RNGSeed:     b.rng.Seed(),
		RNGPosition: b.rng.Position(),
	}
	for _, c := range b.players {
		st.Players = append(st.Players, exportCombatant(c))
	}
	for _, c := range b.enemies {
		st.Enemies = append(st.Enemies, exportCombatant(c))
	}
	for id, def := range b.enemyDefs {
		st.EnemyDefs[id] = def
	}
	if b.triggers != nil {
		st.TriggerFires = b.triggers.FireCounts()
	}
	return st
}

// RestoreBattle rebuilds a battle from saved state against the same game
// definition it was created with. The RNG resumes at its saved position so
// the random stream continues exactly where it left off.
func RestoreBattle(def *types.GameDefinition, st BattleState) (*Battle, error) {
	b, err := newBattle(def, rng.Restore(st.RNGSeed, st.RNGPosition))
	if err != nil {
		return nil, err
	}

	for _, cs := range st.Players {
		c, err := restoreCombatant(b, cs)
		if err != nil {
			return nil, err
		}
		b.players = append(b.players, c)
	}
	for _, cs := range st.Enemies {
		c, err := restoreCombatant(b, cs)
		if err != nil {
			return nil, err
		}
		b.enemies = append(b.enemies, c)
	}
	for id, ed := range st.EnemyDefs {
		b.enemyDefs[id] = ed
	}

	b.triggers = trigger.New(def.Triggers)
	b.triggers.RestoreFireCounts(st.TriggerFires)

	b.phase = resumablePhase(Phase(st.Phase))
	b.turnNumber = st.TurnNumber
	b.turnIndex = st.TurnIndex
	b.queue = append([]TurnQueueEntry(nil), st.Queue...)
	b.log = append([]string(nil), st.Log...)
	if b.phase == PhaseTurnStart || b.phase == PhaseTurnEnd {
		b.step()
	}
	return b, nil
}

// resumablePhase maps phases that wait on unpersisted transient state
// (open dialogs, a pending action) back to phases a restored battle can
// act from. A save taken mid-dialog resumes at the interrupted turn's
// start; a save taken during target selection resumes at action selection.
func resumablePhase(p Phase) Phase {
	switch p {
	case PhaseDialog, PhaseActionExecute:
		return PhaseTurnStart
	case PhaseTargetSelect:
		return PhaseActionSelect
	}
	return p
}

func exportCombatant(c *combatant.Combatant) CombatantState {
	base := make(types.StatBlock, len(c.BaseStats))
	for k, v := range c.BaseStats {
		base[k] = v
	}
	return CombatantState{
		ID:        c.ID,
		Name:      c.Name,
		IsPlayer:  c.IsPlayer,
		Level:     c.Level,
		BaseStats: base,
		CurrentHP: c.CurrentHP,
		CurrentMP: c.CurrentMP,
		Skills:    append([]string(nil), c.Skills...),
		Modifiers: c.Modifiers.Records(),
		Defending: c.Defending,
		Alive:     c.Alive,
	}
}

func restoreCombatant(b *Battle, cs CombatantState) (*combatant.Combatant, error) {
	c, err := combatant.New(cs.ID, cs.Name, cs.IsPlayer, cs.Level, cs.BaseStats, cs.Skills, b.stats)
	if err != nil {
		return nil, fmt.Errorf("restore %s: %w", cs.ID, err)
	}
	c.Modifiers = modifier.FromRecords(cs.Modifiers)
	if err := c.Recalculate(b.stats); err != nil {
		return nil, fmt.Errorf("restore %s: %w", cs.ID, err)
	}
	c.CurrentHP = cs.CurrentHP
	c.CurrentMP = cs.CurrentMP
	c.Defending = cs.Defending
	c.Alive = cs.Alive
	return c, nil
}
