package engine

import (
	"github.com/nathoo/battlecore/engine/combatant"
	"github.com/nathoo/battlecore/engine/modifier"
	"github.com/nathoo/battlecore/types"
)

// CombatantView is a read-only copy of a combatant's visible state.
type CombatantView struct {
	ID        string
	Name      string
	IsPlayer  bool
	Level     int
	CurrentHP float64
	MaxHP     float64
	CurrentMP float64
	MaxMP     float64
	Stats     types.StatBlock
	Skills    []string
	Modifiers []modifier.Record
	Defending bool
	Alive     bool
}

// CombatSnapshot is a point-in-time, fully defensive copy of battle state.
// Mutating a snapshot never affects the battle.
type CombatSnapshot struct {
	Phase         Phase
	TurnNumber    int
	ActiveID      string
	Players       []CombatantView
	Enemies       []CombatantView
	Queue         []TurnQueueEntry
	PendingAction *types.CombatAction
	Dialog        *types.DialogDef
	Log           []string
	Result        *types.BattleResult
}

// Snapshot produces an immutable view of the current battle state for
// external observers.
func (b *Battle) Snapshot() CombatSnapshot {
	snap := CombatSnapshot{
		Phase:      b.phase,
		TurnNumber: b.turnNumber,
		Queue:      append([]TurnQueueEntry(nil), b.queue...),
		Log:        append([]string(nil), b.log...),
	}
	if b.turnIndex < len(b.queue) {
		snap.ActiveID = b.queue[b.turnIndex].CombatantID
	}
	for _, c := range b.players {
		snap.Players = append(snap.Players, viewOf(c))
	}
	for _, c := range b.enemies {
		snap.Enemies = append(snap.Enemies, viewOf(c))
	}
	if b.pending != nil {
		p := *b.pending
		p.TargetIDs = append([]string(nil), p.TargetIDs...)
		snap.PendingAction = &p
	}
	if len(b.dialogs) > 0 {
		d := b.dialogs[0]
		d.Choices = append([]types.DialogChoice(nil), d.Choices...)
		snap.Dialog = &d
	}
	if b.result != nil {
		r := *b.result
		if r.Rewards != nil {
			rw := *r.Rewards
			rw.Drops = append([]types.DropDef(nil), rw.Drops...)
			r.Rewards = &rw
		}
		r.Survivors = append([]types.SurvivorSummary(nil), r.Survivors...)
		snap.Result = &r
	}
	return snap
}

func viewOf(c *combatant.Combatant) CombatantView {
	stats := make(types.StatBlock, len(c.CurrentStats))
	for k, v := range c.CurrentStats {
		stats[k] = v
	}
	records := c.Modifiers.Records()
	for i := range records {
		records[i].Def.Effects = append([]types.ModifierEffect(nil), records[i].Def.Effects...)
	}
	return CombatantView{
		ID:        c.ID,
		Name:      c.Name,
		IsPlayer:  c.IsPlayer,
		Level:     c.Level,
		CurrentHP: c.CurrentHP,
		MaxHP:     c.MaxHP,
		CurrentMP: c.CurrentMP,
		MaxMP:     c.MaxMP,
		Stats:     stats,
		Skills:    append([]string(nil), c.Skills...),
		Modifiers: records,
		Defending: c.Defending,
		Alive:     c.Alive,
	}
}
