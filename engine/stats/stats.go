// Package stats owns primary and derived stat definitions and the
// game-declared combat formulas. All formulas are validated at construction
// so a malformed game definition never reaches a live battle.
package stats

import (
	"fmt"
	"math"

	"github.com/nathoo/battlecore/engine/formula"
	"github.com/nathoo/battlecore/types"
)

// Special tokens combat formulas may reference in addition to declared stats.
// EnemyDef/EnemyRes/EnemySpeed/EnemyEvasion are pulled from the defender;
// the rest are supplied by the damage calculator at evaluation time.
var combatSpecials = map[string]bool{
	"Level":        true,
	"EnemyDef":     true,
	"EnemyRes":     true,
	"EnemySpeed":   true,
	"EnemyEvasion": true,
	"SkillPower":   true,
	"Variance":     true,
	"IsCritical":   true,
	"Random":       true,
	"CritDamage":   true,
}

// Engine computes derived stats and combat values from declared definitions.
type Engine struct {
	primary  []types.StatDef
	byID     map[string]types.StatDef
	derived  []types.DerivedStatDef
	formulas types.CombatFormulas
	parser   *formula.Parser
}

// New validates every declared formula and returns a stat engine.
// Derived-stat formulas may reference primary stats, Level, and derived
// stats declared earlier; referencing a later one is an error. Combat
// formulas may additionally reference the defender-prefixed special tokens.
func New(primary []types.StatDef, derived []types.DerivedStatDef, formulas types.CombatFormulas) (*Engine, error) {
	e := &Engine{
		primary:  primary,
		byID:     make(map[string]types.StatDef, len(primary)),
		derived:  derived,
		formulas: formulas,
		parser:   formula.NewParser(),
	}
	for _, def := range primary {
		e.byID[def.ID] = def
	}

	// Derived stats chain in declaration order.
	allowed := map[string]bool{"Level": true}
	for _, def := range primary {
		allowed[def.ID] = true
	}
	for _, def := range derived {
		if err := e.checkFormula(def.Formula, allowed); err != nil {
			return nil, fmt.Errorf("derived stat %q: %w", def.ID, err)
		}
		allowed[def.ID] = true
	}

	// Combat formulas see every stat plus the special tokens.
	combatAllowed := make(map[string]bool, len(allowed)+len(combatSpecials))
	for k := range allowed {
		combatAllowed[k] = true
	}
	for k := range combatSpecials {
		combatAllowed[k] = true
	}
	named := []struct {
		name string
		src  string
	}{
		{"physicalDamage", formulas.PhysicalDamage},
		{"magicDamage", formulas.MagicDamage},
		{"criticalCheck", formulas.CriticalCheck},
		{"turnOrder", formulas.TurnOrder},
	}
	for _, f := range named {
		if f.src == "" {
			return nil, fmt.Errorf("combat formula %q is missing", f.name)
		}
		if err := e.checkFormula(f.src, combatAllowed); err != nil {
			return nil, fmt.Errorf("combat formula %q: %w", f.name, err)
		}
	}

	return e, nil
}

// checkFormula parses src and verifies every referenced variable is allowed.
func (e *Engine) checkFormula(src string, allowed map[string]bool) error {
	vars, err := e.parser.Variables(src)
	if err != nil {
		return err
	}
	for _, v := range vars {
		if !allowed[v] {
			return fmt.Errorf("references unknown stat %q", v)
		}
	}
	return nil
}

// DefaultStatBlock maps every primary stat id to its declared default value.
func (e *Engine) DefaultStatBlock() types.StatBlock {
	block := make(types.StatBlock, len(e.primary))
	for _, def := range e.primary {
		block[def.ID] = def.Default
	}
	return block
}

// DerivedStats evaluates each derived-stat formula in declaration order
// against the primary stats, Level, and previously computed derived stats.
// Results are floored: derived stats are always integers.
func (e *Engine) DerivedStats(primary types.StatBlock, level int) (types.StatBlock, error) {
	ctx := make(formula.Context, len(primary)+len(e.derived)+1)
	for k, v := range primary {
		ctx[k] = v
	}
	ctx["Level"] = float64(level)

	result := make(types.StatBlock, len(e.derived))
	for _, def := range e.derived {
		v, err := e.parser.Compute(def.Formula, ctx)
		if err != nil {
			return nil, fmt.Errorf("derived stat %q: %w", def.ID, err)
		}
		v = math.Floor(v)
		result[def.ID] = v
		ctx[def.ID] = v
	}
	return result, nil
}

// CompleteStats returns primary stats, Level, and derived stats in one block.
func (e *Engine) CompleteStats(primary types.StatBlock, level int) (types.StatBlock, error) {
	derived, err := e.DerivedStats(primary, level)
	if err != nil {
		return nil, err
	}
	complete := make(types.StatBlock, len(primary)+len(derived)+1)
	for k, v := range primary {
		complete[k] = v
	}
	complete["Level"] = float64(level)
	for k, v := range derived {
		complete[k] = v
	}
	return complete, nil
}

// combatContext builds the evaluation context for a combat formula: the
// attacker's complete stats plus defender-prefixed specials and neutral
// defaults for the damage-calculator tokens.
func (e *Engine) combatContext(attacker, defender types.StatBlock) formula.Context {
	ctx := make(formula.Context, len(attacker)+8)
	for k, v := range attacker {
		ctx[k] = v
	}
	ctx["EnemyDef"] = defender["Defense"]
	ctx["EnemyRes"] = defender["MagicResist"]
	ctx["EnemySpeed"] = defender["Speed"]
	ctx["EnemyEvasion"] = defender["Evasion"]
	if _, ok := ctx["SkillPower"]; !ok {
		ctx["SkillPower"] = 100.0
	}
	if _, ok := ctx["Variance"]; !ok {
		ctx["Variance"] = 0.0
	}
	if _, ok := ctx["IsCritical"]; !ok {
		ctx["IsCritical"] = 0.0
	}
	if _, ok := ctx["Random"]; !ok {
		ctx["Random"] = 0.0
	}
	if _, ok := ctx["CritDamage"]; !ok {
		ctx["CritDamage"] = 150.0
	}
	return ctx
}

// PhysicalDamage evaluates the physical damage formula. The result is
// floored and never less than 1.
func (e *Engine) PhysicalDamage(attacker, defender types.StatBlock) (float64, error) {
	return e.damageValue(e.formulas.PhysicalDamage, attacker, defender)
}

// MagicDamage evaluates the magic damage formula. The result is floored and
// never less than 1.
func (e *Engine) MagicDamage(attacker, defender types.StatBlock) (float64, error) {
	return e.damageValue(e.formulas.MagicDamage, attacker, defender)
}

func (e *Engine) damageValue(src string, attacker, defender types.StatBlock) (float64, error) {
	v, err := e.parser.Compute(src, e.combatContext(attacker, defender))
	if err != nil {
		return 0, err
	}
	v = math.Floor(v)
	if v < 1 {
		v = 1
	}
	return v, nil
}

// CritChance evaluates the critical check formula against the attacker's
// stats, clamped to [0,100].
func (e *Engine) CritChance(attacker types.StatBlock) (float64, error) {
	v, err := e.parser.Compute(e.formulas.CriticalCheck, e.combatContext(attacker, nil))
	if err != nil {
		return 0, err
	}
	if v < 0 {
		v = 0
	}
	if v > 100 {
		v = 100
	}
	return v, nil
}

// TurnOrder evaluates the turn order formula, unclamped.
func (e *Engine) TurnOrder(attacker types.StatBlock) (float64, error) {
	return e.parser.Compute(e.formulas.TurnOrder, e.combatContext(attacker, nil))
}

// Formulas returns the game-declared combat formula strings.
func (e *Engine) Formulas() types.CombatFormulas {
	return e.formulas
}

// PrimaryStats returns the declared primary stat definitions.
func (e *Engine) PrimaryStats() []types.StatDef {
	return e.primary
}

// ClampStat clamps a value into the declared [min,max] range of a stat.
// Unknown stat ids pass through unclamped.
func (e *Engine) ClampStat(id string, value float64) float64 {
	def, ok := e.byID[id]
	if !ok {
		return value
	}
	if value < def.Min {
		return def.Min
	}
	if value > def.Max {
		return def.Max
	}
	return value
}

// IsValidStat reports whether a value lies in the declared range of a stat.
// Unknown stat ids are always valid.
func (e *Engine) IsValidStat(id string, value float64) bool {
	def, ok := e.byID[id]
	if !ok {
		return true
	}
	return value >= def.Min && value <= def.Max
}
