// Package combatant defines the runtime battle participant: base stats
// snapshotted at battle start, modifier-adjusted current stats, and HP/MP
// bookkeeping.
package combatant

import (
	"fmt"

	"github.com/nathoo/battlecore/engine/modifier"
	"github.com/nathoo/battlecore/engine/stats"
	"github.com/nathoo/battlecore/types"
)

// Combatant is one participant in a battle. Its modifier stack is
// exclusively owned; nothing is shared across combatants or battles.
type Combatant struct {
	ID           string
	Name         string
	IsPlayer     bool
	Level        int
	BaseStats    types.StatBlock // immutable snapshot taken at battle start
	CurrentStats types.StatBlock // base + derived, then modifier-adjusted
	CurrentHP    float64
	MaxHP        float64
	CurrentMP    float64
	MaxMP        float64
	Skills       []string
	Modifiers    *modifier.Stack
	Defending    bool
	Alive        bool
}

// New builds a combatant from a base stat block. HP and MP start full.
func New(id, name string, isPlayer bool, level int, base types.StatBlock, skills []string, engine *stats.Engine) (*Combatant, error) {
	c := &Combatant{
		ID:        id,
		Name:      name,
		IsPlayer:  isPlayer,
		Level:     level,
		BaseStats: copyBlock(base),
		Skills:    append([]string(nil), skills...),
		Modifiers: modifier.NewStack(),
		Alive:     true,
	}
	if err := c.Recalculate(engine); err != nil {
		return nil, fmt.Errorf("combatant %s: %w", id, err)
	}
	c.CurrentHP = c.MaxHP
	c.CurrentMP = c.MaxMP
	return c, nil
}

// Recalculate recomputes current stats from base stats, level, and active
// modifiers. HP/MP maxima are monotonic here: an increased cap raises the
// max, but recalculation never lowers it or touches current values — only
// heal/damage operations do that.
func (c *Combatant) Recalculate(engine *stats.Engine) error {
	complete, err := engine.CompleteStats(c.BaseStats, c.Level)
	if err != nil {
		return err
	}
	c.CurrentStats = c.Modifiers.ApplyToStats(complete)
	if maxHP := c.CurrentStats["MaxHP"]; maxHP > c.MaxHP {
		c.MaxHP = maxHP
	}
	if maxMP := c.CurrentStats["MaxMP"]; maxMP > c.MaxMP {
		c.MaxMP = maxMP
	}
	return nil
}

// Transform replaces the base stats wholesale (a mid-battle form change),
// re-deriving HP/MP maxima from the new stats and preserving the current HP
// percentage across the change.
func (c *Combatant) Transform(newBase types.StatBlock, newSkills []string, engine *stats.Engine) error {
	hpPct := c.HPPercent()
	mpPct := c.MPPercent()
	c.BaseStats = copyBlock(newBase)
	c.Skills = append([]string(nil), newSkills...)

	complete, err := engine.CompleteStats(c.BaseStats, c.Level)
	if err != nil {
		return err
	}
	c.CurrentStats = c.Modifiers.ApplyToStats(complete)
	c.MaxHP = c.CurrentStats["MaxHP"]
	c.MaxMP = c.CurrentStats["MaxMP"]
	c.CurrentHP = float64(int(c.MaxHP * hpPct / 100))
	c.CurrentMP = float64(int(c.MaxMP * mpPct / 100))
	if c.Alive && c.CurrentHP < 1 {
		c.CurrentHP = 1
	}
	return nil
}

// ApplyDamage subtracts HP, marking the combatant dead at zero.
// Returns true if this damage killed the combatant.
func (c *Combatant) ApplyDamage(amount float64) bool {
	c.CurrentHP -= amount
	if c.CurrentHP <= 0 {
		c.CurrentHP = 0
		if c.Alive {
			c.Alive = false
			return true
		}
	}
	return false
}

// Heal restores HP up to the maximum. Dead combatants cannot be healed
// (revival is a separate operation). Returns the amount actually restored.
func (c *Combatant) Heal(amount float64) float64 {
	if !c.Alive {
		return 0
	}
	before := c.CurrentHP
	c.CurrentHP += amount
	if c.CurrentHP > c.MaxHP {
		c.CurrentHP = c.MaxHP
	}
	return c.CurrentHP - before
}

// RestoreMP restores MP up to the maximum. Returns the amount restored.
func (c *Combatant) RestoreMP(amount float64) float64 {
	before := c.CurrentMP
	c.CurrentMP += amount
	if c.CurrentMP > c.MaxMP {
		c.CurrentMP = c.MaxMP
	}
	return c.CurrentMP - before
}

// Revive brings a dead combatant back at pct percent of max HP.
// Returns false if the combatant is still alive.
func (c *Combatant) Revive(pct float64) bool {
	if c.Alive {
		return false
	}
	c.Alive = true
	c.CurrentHP = float64(int(c.MaxHP * pct / 100))
	if c.CurrentHP < 1 {
		c.CurrentHP = 1
	}
	return true
}

// HPPercent returns current HP as a percentage of max.
func (c *Combatant) HPPercent() float64 {
	if c.MaxHP == 0 {
		return 0
	}
	return c.CurrentHP / c.MaxHP * 100
}

// MPPercent returns current MP as a percentage of max.
func (c *Combatant) MPPercent() float64 {
	if c.MaxMP == 0 {
		return 0
	}
	return c.CurrentMP / c.MaxMP * 100
}

// Stat returns a current stat value, 0 if absent.
func (c *Combatant) Stat(id string) float64 {
	return c.CurrentStats[id]
}

// HasSkill reports whether the combatant knows the given skill.
func (c *Combatant) HasSkill(id string) bool {
	for _, s := range c.Skills {
		if s == id {
			return true
		}
	}
	return false
}

// Clone returns a deep copy sharing no mutable state with the original.
// Used to build defensive snapshots.
func (c *Combatant) Clone() *Combatant {
	clone := *c
	clone.BaseStats = copyBlock(c.BaseStats)
	clone.CurrentStats = copyBlock(c.CurrentStats)
	clone.Skills = append([]string(nil), c.Skills...)
	clone.Modifiers = modifier.FromRecords(c.Modifiers.Records())
	return &clone
}

func copyBlock(b types.StatBlock) types.StatBlock {
	out := make(types.StatBlock, len(b))
	for k, v := range b {
		out[k] = v
	}
	return out
}
