package loader

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/nathoo/battlecore/engine/formula"
	"github.com/nathoo/battlecore/engine/stats"
	"github.com/nathoo/battlecore/types"
)

// ValidationError collects all validation errors and warnings.
type ValidationError struct {
	Errors   []string
	Warnings []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed with %d error(s):\n  %s",
		len(e.Errors), strings.Join(e.Errors, "\n  "))
}

// Known skill types.
var validSkillTypes = map[string]bool{
	"physical": true,
	"magic":    true,
	"healing":  true,
	"buff":     true,
	"debuff":   true,
	"defense":  true,
	"special":  true,
}

// Known item effects.
var validItemEffects = map[string]bool{
	"healHp": true,
	"healMp": true,
	"revive": true,
	"buff":   true,
	"damage": true,
	"cure":   true,
	"none":   true,
}

// Known AI behaviors.
var validBehaviors = map[string]bool{
	"aggressive": true,
	"defensive":  true,
	"balanced":   true,
	"random":     true,
	"scripted":   true,
}

// Known target preferences.
var validTargetPrefs = map[string]bool{
	"weakest":   true,
	"strongest": true,
	"random":    true,
}

// Known trigger action types.
var validActionTypes = map[string]bool{
	"dialog":    true,
	"spawn":     true,
	"buff":      true,
	"heal":      true,
	"damage":    true,
	"flee":      true,
	"transform": true,
	"multi":     true,
}

// Known modifier effect value types.
var validValueTypes = map[string]bool{
	"flat":    true,
	"percent": true,
}

// validate checks a compiled definition for referential integrity and
// consistency. Formula validation rides on stat-engine construction, so a
// malformed formula is fatal here rather than mid-battle.
func validate(def *types.GameDefinition) error {
	ve := &ValidationError{}

	if def.Game.Title == "" {
		ve.Errors = append(ve.Errors, "Game.Title is required")
	}

	statIDs := validateStats(def, ve)

	// Every derived and combat formula is checked by constructing the stat
	// engine against the declared stats.
	if _, err := stats.New(def.Stats, def.Derived, def.CombatFormulas); err != nil {
		ve.Errors = append(ve.Errors, err.Error())
	}

	validatePlayer(def, statIDs, ve)
	validateSkills(def, ve)
	validateItems(def, ve)
	validateEnemies(def, statIDs, ve)
	validateTriggers(def, ve)

	for _, w := range ve.Warnings {
		fmt.Fprintf(os.Stderr, "warning: %s\n", w)
	}

	if len(ve.Errors) > 0 {
		return ve
	}
	return nil
}

// validateStats checks primary and derived stat declarations and returns the
// set of declared primary ids.
func validateStats(def *types.GameDefinition, ve *ValidationError) map[string]bool {
	if len(def.Stats) == 0 {
		ve.Errors = append(ve.Errors, "at least one primary stat is required")
	}

	ids := map[string]bool{}
	for _, s := range def.Stats {
		if s.ID == "" {
			ve.Errors = append(ve.Errors, "primary stat with empty id")
			continue
		}
		if ids[s.ID] {
			ve.Errors = append(ve.Errors, fmt.Sprintf("duplicate stat %q", s.ID))
		}
		ids[s.ID] = true
		if s.Max <= s.Min {
			ve.Errors = append(ve.Errors, fmt.Sprintf(
				"stat %q: max (%g) must be greater than min (%g)", s.ID, s.Max, s.Min))
		} else if s.Default < s.Min || s.Default > s.Max {
			ve.Errors = append(ve.Errors, fmt.Sprintf(
				"stat %q: default %g outside [%g, %g]", s.ID, s.Default, s.Min, s.Max))
		}
	}

	seen := map[string]bool{}
	for _, d := range def.Derived {
		if d.ID == "" {
			ve.Errors = append(ve.Errors, "derived stat with empty id")
			continue
		}
		if ids[d.ID] {
			ve.Errors = append(ve.Errors, fmt.Sprintf(
				"derived stat %q collides with a primary stat", d.ID))
		}
		if seen[d.ID] {
			ve.Errors = append(ve.Errors, fmt.Sprintf("duplicate derived stat %q", d.ID))
		}
		seen[d.ID] = true
	}

	return ids
}

func validatePlayer(def *types.GameDefinition, statIDs map[string]bool, ve *ValidationError) {
	if def.Player.Name == "" {
		ve.Errors = append(ve.Errors, "Player.Name is required")
	}
	if def.Player.Level < 1 {
		ve.Errors = append(ve.Errors, "Player.Level must be at least 1")
	}
	validateStatBlock("player", def.Player.BaseStats, statIDs, ve)
	validateSkillRefs("player", def.Player.Skills, def, ve)
}

func validateSkills(def *types.GameDefinition, ve *ValidationError) {
	for _, id := range sortedKeys(def.Skills) {
		sk := def.Skills[id]
		if !validSkillTypes[sk.Type] {
			ve.Errors = append(ve.Errors, fmt.Sprintf(
				"skill %q: unknown type %q", id, sk.Type))
		}
		if sk.MPCost < 0 || sk.HPCost < 0 {
			ve.Errors = append(ve.Errors, fmt.Sprintf(
				"skill %q: resource costs must not be negative", id))
		}
		validateModifier(fmt.Sprintf("skill %q buffEffect", id), sk.BuffEffect, ve)
		validateModifier(fmt.Sprintf("skill %q debuffEffect", id), sk.DebuffEffect, ve)
		if sk.Type == "buff" && sk.BuffEffect == nil {
			ve.Warnings = append(ve.Warnings, fmt.Sprintf(
				"skill %q has type buff but no buffEffect", id))
		}
		if sk.Type == "debuff" && sk.DebuffEffect == nil {
			ve.Warnings = append(ve.Warnings, fmt.Sprintf(
				"skill %q has type debuff but no debuffEffect", id))
		}
	}
}

func validateItems(def *types.GameDefinition, ve *ValidationError) {
	for _, id := range sortedKeys(def.Items) {
		it := def.Items[id]
		if !validItemEffects[it.Effect] {
			ve.Errors = append(ve.Errors, fmt.Sprintf(
				"item %q: unknown effect %q", id, it.Effect))
		}
		if it.Effect == "buff" && it.BuffEffect == nil {
			ve.Errors = append(ve.Errors, fmt.Sprintf(
				"item %q: effect buff requires buffEffect", id))
		}
		validateModifier(fmt.Sprintf("item %q buffEffect", id), it.BuffEffect, ve)
	}
}

func validateEnemies(def *types.GameDefinition, statIDs map[string]bool, ve *ValidationError) {
	for _, id := range sortedKeys(def.Enemies) {
		en := def.Enemies[id]
		if en.Level < 1 {
			ve.Errors = append(ve.Errors, fmt.Sprintf(
				"enemy %q: level must be at least 1", id))
		}
		validateStatBlock(fmt.Sprintf("enemy %q", id), en.BaseStats, statIDs, ve)
		validateSkillRefs(fmt.Sprintf("enemy %q", id), en.Skills, def, ve)

		for _, drop := range en.Drops {
			if _, ok := def.Items[drop.ItemID]; !ok {
				ve.Errors = append(ve.Errors, fmt.Sprintf(
					"enemy %q drops undefined item %q", id, drop.ItemID))
			}
			if drop.Chance < 0 || drop.Chance > 100 {
				ve.Errors = append(ve.Errors, fmt.Sprintf(
					"enemy %q drop %q: chance %g outside [0, 100]", id, drop.ItemID, drop.Chance))
			}
			if drop.Count < 1 {
				ve.Errors = append(ve.Errors, fmt.Sprintf(
					"enemy %q drop %q: count must be at least 1", id, drop.ItemID))
			}
		}

		if en.AI != nil {
			validateAI(id, en.AI, def, ve)
		}
	}
}

func validateAI(enemyID string, ai *types.AIConfig, def *types.GameDefinition, ve *ValidationError) {
	if ai.Behavior != "" && !validBehaviors[ai.Behavior] {
		ve.Errors = append(ve.Errors, fmt.Sprintf(
			"enemy %q: unknown AI behavior %q", enemyID, ai.Behavior))
	}
	if ai.PreferTargets != "" && !validTargetPrefs[ai.PreferTargets] {
		ve.Errors = append(ve.Errors, fmt.Sprintf(
			"enemy %q: unknown target preference %q", enemyID, ai.PreferTargets))
	}
	for _, sid := range ai.SkillPriority {
		if _, ok := def.Skills[sid]; !ok {
			ve.Errors = append(ve.Errors, fmt.Sprintf(
				"enemy %q AI priority references undefined skill %q", enemyID, sid))
		}
	}
	if ai.Behavior == "scripted" && len(ai.SkillPriority) == 0 {
		ve.Warnings = append(ve.Warnings, fmt.Sprintf(
			"enemy %q: scripted AI with empty skillPriority", enemyID))
	}
}

func validateTriggers(def *types.GameDefinition, ve *ValidationError) {
	ids := map[string]bool{}
	for _, tr := range def.Triggers {
		if ids[tr.ID] {
			ve.Errors = append(ve.Errors, fmt.Sprintf("duplicate trigger %q", tr.ID))
		}
		ids[tr.ID] = true

		if tr.Condition == "" {
			ve.Errors = append(ve.Errors, fmt.Sprintf(
				"trigger %q: condition is required", tr.ID))
		} else if err := formula.Validate(tr.Condition); err != nil {
			ve.Errors = append(ve.Errors, fmt.Sprintf(
				"trigger %q condition: %v", tr.ID, err))
		}
		if tr.MaxFires < 0 {
			ve.Errors = append(ve.Errors, fmt.Sprintf(
				"trigger %q: maxFires must not be negative", tr.ID))
		}
		validateAction(fmt.Sprintf("trigger %q", tr.ID), tr.Action, def, ve)
	}
}

func validateAction(scope string, act types.TriggerAction, def *types.GameDefinition, ve *ValidationError) {
	if !validActionTypes[act.Type] {
		ve.Errors = append(ve.Errors, fmt.Sprintf(
			"%s: unknown action type %q", scope, act.Type))
		return
	}

	switch act.Type {
	case "dialog":
		if act.Dialog == nil || act.Dialog.Text == "" {
			ve.Errors = append(ve.Errors, fmt.Sprintf(
				"%s: dialog action requires text", scope))
			return
		}
		for i, choice := range act.Dialog.Choices {
			if choice.Text == "" {
				ve.Errors = append(ve.Errors, fmt.Sprintf(
					"%s: dialog choice %d has no text", scope, i+1))
			}
			if choice.Action != nil {
				validateAction(fmt.Sprintf("%s choice %d", scope, i+1), *choice.Action, def, ve)
			}
		}
	case "spawn", "transform":
		if act.EnemyID == "" {
			ve.Errors = append(ve.Errors, fmt.Sprintf(
				"%s: %s action requires an enemy id", scope, act.Type))
		} else if _, ok := def.Enemies[act.EnemyID]; !ok {
			ve.Errors = append(ve.Errors, fmt.Sprintf(
				"%s: %s references undefined enemy %q", scope, act.Type, act.EnemyID))
		}
	case "buff":
		if act.Modifier == nil {
			ve.Errors = append(ve.Errors, fmt.Sprintf(
				"%s: buff action requires a modifier", scope))
		}
		validateModifier(scope+" modifier", act.Modifier, ve)
	case "heal", "damage":
		if act.Amount <= 0 {
			ve.Errors = append(ve.Errors, fmt.Sprintf(
				"%s: %s amount must be positive", scope, act.Type))
		}
	case "multi":
		if len(act.Actions) == 0 {
			ve.Errors = append(ve.Errors, fmt.Sprintf(
				"%s: multi action has no sub-actions", scope))
		}
		for _, sub := range act.Actions {
			validateAction(scope, sub, def, ve)
		}
	}
}

// validateModifier checks a modifier body. A nil modifier is fine — absence
// is the caller's concern.
func validateModifier(scope string, mod *types.ModifierDef, ve *ValidationError) {
	if mod == nil {
		return
	}
	if len(mod.Effects) == 0 {
		ve.Errors = append(ve.Errors, fmt.Sprintf("%s: modifier has no effects", scope))
	}
	for _, eff := range mod.Effects {
		if eff.Stat == "" {
			ve.Errors = append(ve.Errors, fmt.Sprintf(
				"%s: modifier effect with empty stat", scope))
		}
		if !validValueTypes[eff.ValueType] {
			ve.Errors = append(ve.Errors, fmt.Sprintf(
				"%s: unknown modifier value type %q", scope, eff.ValueType))
		}
	}
	if mod.Duration < 0 {
		ve.Errors = append(ve.Errors, fmt.Sprintf(
			"%s: modifier duration must not be negative", scope))
	}
}

// validateStatBlock ensures every base stat names a declared primary stat.
func validateStatBlock(scope string, block types.StatBlock, statIDs map[string]bool, ve *ValidationError) {
	for _, id := range sortedKeys(block) {
		if !statIDs[id] {
			ve.Errors = append(ve.Errors, fmt.Sprintf(
				"%s baseStats references undeclared stat %q", scope, id))
		}
	}
}

// validateSkillRefs ensures every listed skill exists.
func validateSkillRefs(scope string, skillIDs []string, def *types.GameDefinition, ve *ValidationError) {
	for _, id := range skillIDs {
		if _, ok := def.Skills[id]; !ok {
			ve.Errors = append(ve.Errors, fmt.Sprintf(
				"%s references undefined skill %q", scope, id))
		}
	}
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
