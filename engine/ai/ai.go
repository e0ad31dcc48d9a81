// Package ai chooses actions for non-player combatants according to a
// declared behavior pattern.
package ai

import (
	"sort"

	"github.com/nathoo/battlecore/engine/combatant"
	"github.com/nathoo/battlecore/engine/rng"
	"github.com/nathoo/battlecore/types"
)

// Defaults merged under every per-enemy declaration.
const (
	defaultBehavior        = "balanced"
	defaultHealThreshold   = 30
	defaultDefendThreshold = 20
	defaultPreferTargets   = "random"
)

// mergeConfig overlays a per-enemy declaration on the defaults.
func mergeConfig(cfg *types.AIConfig) types.AIConfig {
	merged := types.AIConfig{
		Behavior:        defaultBehavior,
		HealThreshold:   defaultHealThreshold,
		DefendThreshold: defaultDefendThreshold,
		PreferTargets:   defaultPreferTargets,
	}
	if cfg == nil {
		return merged
	}
	if cfg.Behavior != "" {
		merged.Behavior = cfg.Behavior
	}
	if cfg.HealThreshold > 0 {
		merged.HealThreshold = cfg.HealThreshold
	}
	if cfg.DefendThreshold > 0 {
		merged.DefendThreshold = cfg.DefendThreshold
	}
	if cfg.PreferTargets != "" {
		merged.PreferTargets = cfg.PreferTargets
	}
	merged.SkillPriority = cfg.SkillPriority
	return merged
}

// Selector picks enemy actions from the declared skill catalog.
type Selector struct {
	skills map[string]types.SkillDef
	rng    *rng.RNG
}

// NewSelector creates an AI selector over the game's skill catalog.
func NewSelector(skills map[string]types.SkillDef, r *rng.RNG) *Selector {
	return &Selector{skills: skills, rng: r}
}

// SelectAction chooses what the enemy does this turn. players must contain
// only living player-side combatants; when it is empty the enemy defends.
func (s *Selector) SelectAction(enemy *combatant.Combatant, players []*combatant.Combatant, turnNumber int, cfg *types.AIConfig) types.CombatAction {
	merged := mergeConfig(cfg)
	if len(players) == 0 {
		return types.CombatAction{Type: "defend", ActorID: enemy.ID}
	}

	switch merged.Behavior {
	case "aggressive":
		return s.aggressive(enemy, players, merged)
	case "defensive":
		return s.defensive(enemy, players, merged)
	case "random":
		return s.randomAction(enemy, players)
	case "scripted":
		return s.scripted(enemy, players, turnNumber, merged)
	default:
		return s.balanced(enemy, players, merged)
	}
}

// aggressive picks the highest-power affordable attack skill.
func (s *Selector) aggressive(enemy *combatant.Combatant, players []*combatant.Combatant, cfg types.AIConfig) types.CombatAction {
	attacks := s.affordableByKind(enemy, isAttackSkill)
	target := s.pickTarget(players, cfg.PreferTargets, true)
	if len(attacks) == 0 {
		return basicAttack(enemy, target)
	}
	best := attacks[0]
	for _, sk := range attacks[1:] {
		if sk.Power > best.Power {
			best = sk
		}
	}
	return skillAction(enemy, best, target)
}

// defensive heals or defends below the thresholds, otherwise conserves MP
// with the weakest affordable attack.
func (s *Selector) defensive(enemy *combatant.Combatant, players []*combatant.Combatant, cfg types.AIConfig) types.CombatAction {
	if enemy.HPPercent() <= cfg.HealThreshold {
		if heals := s.affordableByKind(enemy, isHealSkill); len(heals) > 0 {
			return skillAction(enemy, heals[0], enemy)
		}
	}
	if enemy.HPPercent() <= cfg.DefendThreshold {
		return types.CombatAction{Type: "defend", ActorID: enemy.ID}
	}
	attacks := s.affordableByKind(enemy, isAttackSkill)
	target := s.pickTarget(players, cfg.PreferTargets, false)
	if len(attacks) == 0 {
		return basicAttack(enemy, target)
	}
	weakest := attacks[0]
	for _, sk := range attacks[1:] {
		if sk.Power < weakest.Power {
			weakest = sk
		}
	}
	return skillAction(enemy, weakest, target)
}

// balanced mixes healing, buffing, debuffing, and attacking.
func (s *Selector) balanced(enemy *combatant.Combatant, players []*combatant.Combatant, cfg types.AIConfig) types.CombatAction {
	if enemy.HPPercent() <= cfg.HealThreshold {
		if heals := s.affordableByKind(enemy, isHealSkill); len(heals) > 0 {
			return skillAction(enemy, heals[0], enemy)
		}
	}
	if buffs := s.affordableByKind(enemy, isBuffSkill); len(buffs) > 0 && s.rng.Chance(30) {
		return skillAction(enemy, buffs[0], enemy)
	}
	if debuffs := s.affordableByKind(enemy, isDebuffSkill); len(debuffs) > 0 && s.rng.Chance(20) {
		return skillAction(enemy, debuffs[0], strongest(players))
	}
	attacks := s.affordableByKind(enemy, isAttackSkill)
	target := s.pickTarget(players, cfg.PreferTargets, false)
	if len(attacks) == 0 {
		return basicAttack(enemy, target)
	}
	return skillAction(enemy, attacks[s.rng.Intn(len(attacks))], target)
}

// randomAction picks a uniformly random affordable skill and target.
func (s *Selector) randomAction(enemy *combatant.Combatant, players []*combatant.Combatant) types.CombatAction {
	usable := s.affordableByKind(enemy, func(types.SkillDef) bool { return true })
	target := players[s.rng.Intn(len(players))]
	if len(usable) == 0 {
		return basicAttack(enemy, target)
	}
	sk := usable[s.rng.Intn(len(usable))]
	if isHealSkill(sk) || isBuffSkill(sk) {
		return skillAction(enemy, sk, enemy)
	}
	return skillAction(enemy, sk, target)
}

// scripted cycles the declared skill priority by turn number, with a simple
// 3-turn fallback pattern when no priority list is declared.
func (s *Selector) scripted(enemy *combatant.Combatant, players []*combatant.Combatant, turnNumber int, cfg types.AIConfig) types.CombatAction {
	if len(cfg.SkillPriority) > 0 {
		id := cfg.SkillPriority[turnNumber%len(cfg.SkillPriority)]
		if sk, ok := s.skills[id]; ok && enemy.HasSkill(id) && enemy.CurrentMP >= sk.MPCost {
			if isHealSkill(sk) || isBuffSkill(sk) {
				return skillAction(enemy, sk, enemy)
			}
			return skillAction(enemy, sk, s.pickTarget(players, cfg.PreferTargets, false))
		}
	}
	if turnNumber%3 == 0 {
		if buffs := s.affordableByKind(enemy, isBuffSkill); len(buffs) > 0 {
			return skillAction(enemy, buffs[0], enemy)
		}
	}
	return s.balanced(enemy, players, cfg)
}

// affordableByKind returns the enemy's owned skills matching the predicate
// that current MP can pay for, in stable skill-id order.
func (s *Selector) affordableByKind(enemy *combatant.Combatant, match func(types.SkillDef) bool) []types.SkillDef {
	var out []types.SkillDef
	for _, id := range enemy.Skills {
		sk, ok := s.skills[id]
		if !ok {
			continue
		}
		if match(sk) && enemy.CurrentMP >= sk.MPCost {
			out = append(out, sk)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// pickTarget selects a player per the preference. When randAsWeakest is set
// the "random" preference targets the weakest instead (aggressive behavior).
func (s *Selector) pickTarget(players []*combatant.Combatant, prefer string, randAsWeakest bool) *combatant.Combatant {
	switch prefer {
	case "weakest":
		return weakest(players)
	case "strongest":
		return strongest(players)
	default:
		if randAsWeakest {
			return weakest(players)
		}
		return players[s.rng.Intn(len(players))]
	}
}

// weakest returns the living player with the lowest current HP, breaking
// ties by combatant id so the choice is stable.
func weakest(players []*combatant.Combatant) *combatant.Combatant {
	best := players[0]
	for _, p := range players[1:] {
		if p.CurrentHP < best.CurrentHP || (p.CurrentHP == best.CurrentHP && p.ID < best.ID) {
			best = p
		}
	}
	return best
}

// strongest returns the living player with the highest current HP, breaking
// ties by combatant id.
func strongest(players []*combatant.Combatant) *combatant.Combatant {
	best := players[0]
	for _, p := range players[1:] {
		if p.CurrentHP > best.CurrentHP || (p.CurrentHP == best.CurrentHP && p.ID < best.ID) {
			best = p
		}
	}
	return best
}

func isAttackSkill(sk types.SkillDef) bool {
	return sk.Type == "physical" || sk.Type == "magic"
}

func isHealSkill(sk types.SkillDef) bool {
	return sk.Type == "healing"
}

func isBuffSkill(sk types.SkillDef) bool {
	return sk.Type == "buff" || sk.Type == "defense"
}

func isDebuffSkill(sk types.SkillDef) bool {
	return sk.Type == "debuff"
}

func skillAction(enemy *combatant.Combatant, sk types.SkillDef, target *combatant.Combatant) types.CombatAction {
	return types.CombatAction{
		Type:      "skill",
		ActorID:   enemy.ID,
		SkillID:   sk.ID,
		TargetIDs: []string{target.ID},
	}
}

func basicAttack(enemy *combatant.Combatant, target *combatant.Combatant) types.CombatAction {
	return types.CombatAction{
		Type:      "attack",
		ActorID:   enemy.ID,
		TargetIDs: []string{target.ID},
	}
}
