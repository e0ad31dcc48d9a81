// Package trigger evaluates declarative mid-battle event conditions against
// live combat state and fires the declared scripted actions.
package trigger

import (
	"fmt"

	"github.com/nathoo/battlecore/engine/combatant"
	"github.com/nathoo/battlecore/engine/formula"
	"github.com/nathoo/battlecore/types"
)

// Result is one fired trigger: the declaration that fired and its action.
type Result struct {
	TriggerID string
	Action    types.TriggerAction
}

// Engine holds a battle's trigger declarations and their fire counts.
// Conditions are checked once per turn start; a condition that becomes true
// and false again within the same turn is missed.
type Engine struct {
	triggers []types.TriggerDef
	fired    []int
	parser   *formula.Parser
}

// New creates a trigger engine for one battle. Fire counts start at zero.
func New(triggers []types.TriggerDef) *Engine {
	return &Engine{
		triggers: triggers,
		fired:    make([]int, len(triggers)),
		parser:   formula.NewParser(),
	}
}

// Evaluate checks every non-exhausted trigger condition against the current
// combat state. It returns the actions to fire, in declaration order, plus
// diagnostic lines for conditions that failed to evaluate. A bad condition
// is skipped, never fatal.
func (e *Engine) Evaluate(players, enemies []*combatant.Combatant, turnNumber int) ([]Result, []string) {
	ctx := buildContext(players, enemies, turnNumber)

	var results []Result
	var diags []string
	for i, tr := range e.triggers {
		if e.exhausted(i) {
			continue
		}
		v, err := e.parser.Compute(tr.Condition, ctx)
		if err != nil {
			diags = append(diags, fmt.Sprintf("trigger %s: %v", tr.ID, err))
			continue
		}
		if v == 0 {
			continue
		}
		e.fired[i]++
		results = append(results, Result{TriggerID: tr.ID, Action: tr.Action})
	}
	return results, diags
}

// FireCount reports how many times the trigger with the given id has fired.
func (e *Engine) FireCount(id string) int {
	for i, tr := range e.triggers {
		if tr.ID == id {
			return e.fired[i]
		}
	}
	return 0
}

// FireCounts returns a copy of per-trigger fire counts in declaration
// order, for persistence.
func (e *Engine) FireCounts() []int {
	return append([]int(nil), e.fired...)
}

// RestoreFireCounts replaces the fire counts with previously saved values.
// Extra entries are ignored.
func (e *Engine) RestoreFireCounts(counts []int) {
	for i := range e.fired {
		if i < len(counts) {
			e.fired[i] = counts[i]
		}
	}
}

func (e *Engine) exhausted(i int) bool {
	tr := e.triggers[i]
	if tr.Once && e.fired[i] >= 1 {
		return true
	}
	if tr.MaxFires > 0 && e.fired[i] >= tr.MaxFires {
		return true
	}
	return false
}

// buildContext exposes each combatant as a nested sub-context keyed by id,
// convenience aliases for the first player and first enemy, and aggregate
// battle counters.
func buildContext(players, enemies []*combatant.Combatant, turnNumber int) formula.Context {
	ctx := formula.Context{}

	playersAlive, enemiesAlive := 0, 0
	for _, p := range players {
		ctx[p.ID] = combatantContext(p)
		if p.Alive {
			playersAlive++
		}
	}
	for _, en := range enemies {
		ctx[en.ID] = combatantContext(en)
		if en.Alive {
			enemiesAlive++
		}
	}
	if len(players) > 0 {
		ctx["player"] = ctx[players[0].ID]
	}
	if len(enemies) > 0 {
		ctx["enemy"] = ctx[enemies[0].ID]
	}
	ctx["turn"] = float64(turnNumber)
	ctx["playersAlive"] = float64(playersAlive)
	ctx["enemiesAlive"] = float64(enemiesAlive)
	ctx["totalPlayers"] = float64(len(players))
	ctx["totalEnemies"] = float64(len(enemies))
	return ctx
}

func combatantContext(c *combatant.Combatant) formula.Context {
	sub := formula.Context{}
	for id, v := range c.CurrentStats {
		sub[id] = v
	}
	sub["hp"] = c.CurrentHP
	sub["maxHp"] = c.MaxHP
	sub["hpPercent"] = c.HPPercent()
	sub["mp"] = c.CurrentMP
	sub["maxMp"] = c.MaxMP
	sub["mpPercent"] = c.MPPercent()
	sub["level"] = float64(c.Level)
	sub["isAlive"] = c.Alive
	sub["isDefending"] = c.Defending
	return sub
}
