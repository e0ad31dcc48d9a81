// Package action applies skill and item effects to target combatants,
// recording each per-target outcome for the battle log. Domain-rule
// violations (insufficient MP, wrong target state) are reported through
// ActionResult.Success, never as errors.
package action

import (
	"fmt"
	"math"

	"github.com/nathoo/battlecore/engine/combatant"
	"github.com/nathoo/battlecore/engine/damage"
	"github.com/nathoo/battlecore/engine/modifier"
	"github.com/nathoo/battlecore/engine/stats"
	"github.com/nathoo/battlecore/types"
)

// Executor dispatches declared skill and item effects.
type Executor struct {
	stats *stats.Engine
	calc  *damage.Calculator
}

// NewExecutor creates an action executor.
func NewExecutor(statsEngine *stats.Engine, calc *damage.Calculator) *Executor {
	return &Executor{stats: statsEngine, calc: calc}
}

// ExecuteSkill applies a skill to the given targets. Costs are checked
// before any mutation: insufficient MP, or current HP not strictly above an
// HP cost, fails the action without side effects.
func (ex *Executor) ExecuteSkill(actor *combatant.Combatant, skill types.SkillDef, targets []*combatant.Combatant) types.ActionResult {
	if actor.CurrentMP < skill.MPCost {
		return types.ActionResult{Message: fmt.Sprintf("%s doesn't have enough MP.", actor.Name)}
	}
	if skill.HPCost > 0 && actor.CurrentHP <= skill.HPCost {
		return types.ActionResult{Message: fmt.Sprintf("%s doesn't have enough HP.", actor.Name)}
	}

	actor.CurrentMP -= skill.MPCost
	if skill.HPCost > 0 {
		actor.CurrentHP -= skill.HPCost
	}

	result := types.ActionResult{
		Success: true,
		Message: fmt.Sprintf("%s uses %s!", actor.Name, skill.Name),
	}

	switch skill.Type {
	case "physical", "magic":
		ex.attackTargets(actor, skill.Type, skillPower(skill), targets, &result)

	case "healing":
		for _, target := range targets {
			if !target.Alive {
				continue
			}
			healed := target.Heal(ex.calc.Healing(skill.Power, actor.Stat("MagicPower")))
			result.Effects = append(result.Effects, types.ActionEffect{
				TargetID: target.ID, Type: "heal", Value: healed,
			})
		}

	case "buff":
		if skill.BuffEffect != nil {
			for _, target := range targets {
				ex.applyModifier(target, *skill.BuffEffect, modifier.SourceBuff, false, &result)
			}
		}

	case "debuff":
		if skill.DebuffEffect != nil {
			for _, target := range targets {
				ex.applyModifier(target, *skill.DebuffEffect, modifier.SourceDebuff, true, &result)
			}
		}

	case "defense":
		actor.Defending = true
		result.Effects = append(result.Effects, types.ActionEffect{TargetID: actor.ID, Type: "defend"})
		if skill.BuffEffect != nil {
			ex.applyModifier(actor, *skill.BuffEffect, modifier.SourceBuff, false, &result)
		}

	case "special":
		// Special skills union any combination of declared sub-effects.
		if skill.BuffEffect != nil {
			ex.applyModifier(actor, *skill.BuffEffect, modifier.SourceBuff, false, &result)
		}
		if skill.DebuffEffect != nil {
			for _, target := range targets {
				ex.applyModifier(target, *skill.DebuffEffect, modifier.SourceDebuff, true, &result)
			}
		}
		if skill.Power > 0 {
			ex.attackTargets(actor, "physical", skill.Power, targets, &result)
		}

	default:
		result.Success = false
		result.Message = fmt.Sprintf("%s doesn't know how to use %s.", actor.Name, skill.Name)
	}

	return result
}

// ExecuteItem applies an item's declared effect to the given targets.
func (ex *Executor) ExecuteItem(actor *combatant.Combatant, item types.ItemDef, targets []*combatant.Combatant) types.ActionResult {
	result := types.ActionResult{
		Success: true,
		Message: fmt.Sprintf("%s uses %s!", actor.Name, item.Name),
	}

	switch item.Effect {
	case "healHp":
		for _, target := range targets {
			if !target.Alive {
				continue
			}
			healed := target.Heal(item.Value)
			result.Effects = append(result.Effects, types.ActionEffect{
				TargetID: target.ID, Type: "heal", Value: healed,
			})
		}

	case "healMp":
		for _, target := range targets {
			if !target.Alive {
				continue
			}
			restored := target.RestoreMP(item.Value)
			result.Effects = append(result.Effects, types.ActionEffect{
				TargetID: target.ID, Type: "heal", Value: restored, StatAffected: "MP",
			})
		}

	case "revive":
		revived := false
		for _, target := range targets {
			if target.Revive(item.Value) {
				revived = true
				result.Effects = append(result.Effects, types.ActionEffect{
					TargetID: target.ID, Type: "revive", Value: target.CurrentHP,
				})
			}
		}
		if !revived {
			return types.ActionResult{Message: "There's no one to revive."}
		}

	case "buff":
		if item.BuffEffect != nil {
			for _, target := range targets {
				ex.applyModifier(target, *item.BuffEffect, modifier.SourceItem, false, &result)
			}
		}

	case "damage":
		for _, target := range targets {
			if !target.Alive {
				continue
			}
			dmg := math.Floor(item.Value)
			if target.Defending {
				dmg = math.Floor(dmg / 2)
			}
			if dmg < 1 {
				dmg = 1
			}
			killed := target.ApplyDamage(dmg)
			result.Effects = append(result.Effects, types.ActionEffect{
				TargetID: target.ID, Type: "damage", Value: dmg,
			})
			if killed {
				result.KilledTargets = append(result.KilledTargets, target.ID)
			}
		}

	case "cure":
		for _, target := range targets {
			removed := target.Modifiers.ClearBySource(modifier.SourceDebuff)
			if len(removed) > 0 {
				target.Recalculate(ex.stats)
			}
			result.Effects = append(result.Effects, types.ActionEffect{
				TargetID: target.ID, Type: "cure", Value: float64(len(removed)),
			})
		}

	case "none":
		result.Message = fmt.Sprintf("%s can't be used here.", item.Name)

	default:
		result.Success = false
		result.Message = fmt.Sprintf("Nothing happens when %s uses %s.", actor.Name, item.Name)
	}

	return result
}

// attackTargets runs one damage roll per living target, halving on defend.
func (ex *Executor) attackTargets(actor *combatant.Combatant, damageType string, power float64, targets []*combatant.Combatant, result *types.ActionResult) {
	for _, target := range targets {
		if !target.Alive {
			continue
		}
		res := ex.calc.Calculate(actor, target, damageType, power)
		dmg := res.Damage
		if target.Defending {
			dmg = math.Floor(dmg / 2)
			if dmg < 1 {
				dmg = 1
			}
		}
		killed := target.ApplyDamage(dmg)
		result.Effects = append(result.Effects, types.ActionEffect{
			TargetID: target.ID, Type: "damage", Value: dmg, IsCritical: res.IsCritical,
		})
		if killed {
			result.KilledTargets = append(result.KilledTargets, target.ID)
		}
	}
}

// applyModifier attaches a modifier, flipping values negative for debuffs
// regardless of the declared sign, and recomputes the target's stats.
func (ex *Executor) applyModifier(target *combatant.Combatant, def types.ModifierDef, source modifier.Source, forceNegative bool, result *types.ActionResult) {
	if forceNegative {
		def = negated(def)
	}
	target.Modifiers.Add(def, source)
	target.Recalculate(ex.stats)

	kind := "buff"
	if source == modifier.SourceDebuff {
		kind = "debuff"
	}
	for _, eff := range def.Effects {
		result.Effects = append(result.Effects, types.ActionEffect{
			TargetID: target.ID, Type: kind, Value: eff.Value, StatAffected: eff.Stat,
		})
	}
}

// negated returns a copy of def with every effect value made negative.
func negated(def types.ModifierDef) types.ModifierDef {
	effects := make([]types.ModifierEffect, len(def.Effects))
	for i, eff := range def.Effects {
		eff.Value = -math.Abs(eff.Value)
		effects[i] = eff
	}
	def.Effects = effects
	return def
}

// skillPower returns the declared power, defaulting to the 100 baseline.
func skillPower(skill types.SkillDef) float64 {
	if skill.Power == 0 {
		return 100
	}
	return skill.Power
}
