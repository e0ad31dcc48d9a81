// Package modifier implements the per-combatant stack of timed and stacking
// stat modifiers (buffs, debuffs, equipment, perks).
package modifier

import (
	"math"

	"github.com/nathoo/battlecore/types"
)

// Source classifies where a modifier came from.
type Source string

const (
	SourceEquipment Source = "equipment"
	SourceBuff      Source = "buff"
	SourceDebuff    Source = "debuff"
	SourcePerk      Source = "perk"
	SourceSkill     Source = "skill"
	SourceItem      Source = "item"
)

// Active is one live modifier on a combatant.
type Active struct {
	Def       types.ModifierDef
	Source    Source
	Stacks    int
	Remaining int // turns left; 0 = permanent
}

// Stack is the collection of active modifiers exclusively owned by one
// combatant.
type Stack struct {
	active []*Active
}

// NewStack creates an empty modifier stack.
func NewStack() *Stack {
	return &Stack{}
}

// Add applies a modifier. Reapplying a stackable modifier increments its
// stack count up to MaxStacks and refreshes its duration; reapplying a
// non-stackable modifier is a no-op. Returns the resulting active entry.
func (s *Stack) Add(def types.ModifierDef, source Source) *Active {
	for _, a := range s.active {
		if a.Def.ID != def.ID {
			continue
		}
		if !a.Def.Stackable {
			return a
		}
		if a.Def.MaxStacks == 0 || a.Stacks < a.Def.MaxStacks {
			a.Stacks++
		}
		a.Remaining = a.Def.Duration
		return a
	}
	a := &Active{Def: def, Source: source, Stacks: 1, Remaining: def.Duration}
	s.active = append(s.active, a)
	return a
}

// Remove deletes a modifier by id. Returns true if it was present.
func (s *Stack) Remove(id string) bool {
	for i, a := range s.active {
		if a.Def.ID == id {
			s.active = append(s.active[:i], s.active[i+1:]...)
			return true
		}
	}
	return false
}

// TickDurations decrements the remaining duration of every timed modifier by
// one turn, removing any that reach zero. Returns the expired entries, which
// are no longer in the stack. Call exactly once per combatant per turn start,
// before stat recalculation.
func (s *Stack) TickDurations() []*Active {
	var expired []*Active
	kept := s.active[:0]
	for _, a := range s.active {
		if a.Def.Duration == 0 {
			kept = append(kept, a)
			continue
		}
		a.Remaining--
		if a.Remaining <= 0 {
			expired = append(expired, a)
			continue
		}
		kept = append(kept, a)
	}
	s.active = kept
	return expired
}

// ApplyToStats returns a copy of baseStats adjusted by every active modifier.
// For each stat, flat effects (value × stacks) sum before percent effects:
// floor((base + flatSum) * (1 + percentSum/100)), regardless of the order
// modifiers were applied in.
func (s *Stack) ApplyToStats(baseStats types.StatBlock) types.StatBlock {
	result := make(types.StatBlock, len(baseStats))
	for stat, base := range baseStats {
		flat, percent := 0.0, 0.0
		for _, a := range s.active {
			for _, eff := range a.Def.Effects {
				if eff.Stat != stat {
					continue
				}
				switch eff.ValueType {
				case "flat":
					flat += eff.Value * float64(a.Stacks)
				case "percent":
					percent += eff.Value * float64(a.Stacks)
				}
			}
		}
		result[stat] = math.Floor((base + flat) * (1 + percent/100))
	}
	return result
}

// ClearBySource removes every modifier of the given source. Returns the ids
// removed.
func (s *Stack) ClearBySource(source Source) []string {
	var removed []string
	kept := s.active[:0]
	for _, a := range s.active {
		if a.Source == source {
			removed = append(removed, a.Def.ID)
			continue
		}
		kept = append(kept, a)
	}
	s.active = kept
	return removed
}

// Get returns the active entry for a modifier id, or nil.
func (s *Stack) Get(id string) *Active {
	for _, a := range s.active {
		if a.Def.ID == id {
			return a
		}
	}
	return nil
}

// Active returns the live modifier entries in application order.
func (s *Stack) Active() []*Active {
	return s.active
}

// Len returns the number of distinct active modifiers.
func (s *Stack) Len() int {
	return len(s.active)
}

// Record is the serialized form of one active modifier. The full definition
// body is persisted so saves survive game-content changes.
type Record struct {
	Def       types.ModifierDef `json:"def"`
	Source    Source            `json:"source"`
	Stacks    int               `json:"stacks"`
	Remaining int               `json:"remaining,omitempty"`
}

// Records returns the serializable state of the stack.
func (s *Stack) Records() []Record {
	records := make([]Record, 0, len(s.active))
	for _, a := range s.active {
		records = append(records, Record{Def: a.Def, Source: a.Source, Stacks: a.Stacks, Remaining: a.Remaining})
	}
	return records
}

// FromRecords rebuilds a stack from serialized records.
func FromRecords(records []Record) *Stack {
	s := NewStack()
	for _, r := range records {
		s.active = append(s.active, &Active{
			Def:       r.Def,
			Source:    r.Source,
			Stacks:    r.Stacks,
			Remaining: r.Remaining,
		})
	}
	return s
}
