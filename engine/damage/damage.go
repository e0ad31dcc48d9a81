// Package damage builds formula contexts from two combatants and computes
// physical/magic damage, critical hits, and healing. Damage calculation
// never returns an error to the caller: a bad game formula degrades to a
// fixed fallback so the battle always continues.
package damage

import (
	"math"

	"github.com/nathoo/battlecore/engine/combatant"
	"github.com/nathoo/battlecore/engine/formula"
	"github.com/nathoo/battlecore/engine/rng"
	"github.com/nathoo/battlecore/engine/stats"
	"github.com/nathoo/battlecore/types"
)

// Result is the outcome of one damage computation.
type Result struct {
	Damage      float64
	IsCritical  bool
	RawDamage   float64
	MitigatedBy float64
}

// Preview is a min/max/expected damage estimate for UI display.
type Preview struct {
	Min      float64
	Max      float64
	Expected float64
}

// aliases maps each logical stat the formulas rely on to the naming
// conventions game content has used historically, tried in order, with a
// final default. The table is consulted once per context build.
var aliases = []struct {
	canonical string
	names     []string
	fallback  float64
}{
	{"Attack", []string{"Attack", "attack", "physAtk", "Atk"}, 10},
	{"MagicPower", []string{"MagicPower", "magicPower", "magAtk"}, 10},
	{"Defense", []string{"Defense", "defense", "physDef"}, 5},
	{"MagicResist", []string{"MagicResist", "magicResist", "magDef"}, 5},
	{"Speed", []string{"Speed", "speed", "Agility"}, 10},
	{"Evasion", []string{"Evasion", "evasion"}, 0},
	{"CritDamage", []string{"CritDamage", "critDamage"}, 150},
}

// Calculator computes damage outcomes from game-declared formulas.
type Calculator struct {
	stats  *stats.Engine
	parser *formula.Parser
	rng    *rng.RNG
}

// NewCalculator creates a damage calculator drawing randomness from r.
func NewCalculator(statsEngine *stats.Engine, r *rng.RNG) *Calculator {
	return &Calculator{
		stats:  statsEngine,
		parser: formula.NewParser(),
		rng:    r,
	}
}

// Calculate computes a damage result for one hit. damageType is "physical"
// or "magic"; skillPower scales the game formula (100 = baseline).
func (c *Calculator) Calculate(attacker, defender *combatant.Combatant, damageType string, skillPower float64) Result {
	critChance := c.critChance(attacker)
	isCrit := c.rng.Float()*100 < critChance

	variance := c.rng.Range(-1, 1)
	random := c.rng.Float()
	ctx := c.buildContext(attacker, defender, skillPower, variance, random, isCrit)

	raw := c.rawDamage(ctx, damageType, skillPower)
	mitigated := ctx["EnemyDef"].(float64)
	if damageType == "magic" {
		mitigated = ctx["EnemyRes"].(float64)
	}

	final := raw
	if isCrit {
		final *= ctx["CritDamage"].(float64) / 100
	}
	final = math.Floor(final)
	if final < 1 {
		final = 1
	}

	return Result{
		Damage:      final,
		IsCritical:  isCrit,
		RawDamage:   raw,
		MitigatedBy: mitigated,
	}
}

// Healing computes a heal amount: floor((basePower + magicPower*0.5) * v)
// with v uniform in [0.9, 1.1] — healing rolls narrower than damage.
func (c *Calculator) Healing(basePower, magicPower float64) float64 {
	v := c.rng.Range(0.9, 1.1)
	return math.Floor((basePower + magicPower*0.5) * v)
}

// PreviewDamage estimates the damage range without consuming randomness:
// min at variance -1, max at variance +1, neither critting, and an
// expected value that folds in the crit chance.
func (c *Calculator) PreviewDamage(attacker, defender *combatant.Combatant, damageType string, skillPower float64) Preview {
	low := c.rawDamage(c.buildContext(attacker, defender, skillPower, -1, 0.5, false), damageType, skillPower)
	high := c.rawDamage(c.buildContext(attacker, defender, skillPower, 1, 0.5, false), damageType, skillPower)
	if high < low {
		low, high = high, low
	}
	low = math.Max(1, math.Floor(low))
	high = math.Max(1, math.Floor(high))

	critChance := c.critChance(attacker)
	critMult := statOr(attacker.CurrentStats, []string{"CritDamage", "critDamage"}, 150) / 100
	mean := (low + high) / 2
	expected := mean * (1 + critChance/100*(critMult-1))

	return Preview{Min: low, Max: high, Expected: math.Floor(expected)}
}

// critChance evaluates the critical check formula, degrading to a flat 5%
// if the formula cannot be evaluated.
func (c *Calculator) critChance(attacker *combatant.Combatant) float64 {
	chance, err := c.stats.CritChance(attacker.CurrentStats)
	if err != nil {
		return 5
	}
	return chance
}

// rawDamage evaluates the game-declared formula, falling back to the fixed
// simplified formula on any evaluation error.
func (c *Calculator) rawDamage(ctx formula.Context, damageType string, skillPower float64) float64 {
	src := c.stats.Formulas().PhysicalDamage
	if damageType == "magic" {
		src = c.stats.Formulas().MagicDamage
	}
	raw, err := c.parser.Compute(src, ctx)
	if err == nil {
		return raw
	}

	// Fallback: attack * 100/(100+def) * skillPower/100.
	attack := ctx["Attack"].(float64)
	def := ctx["EnemyDef"].(float64)
	if damageType == "magic" {
		attack = ctx["MagicPower"].(float64)
		def = ctx["EnemyRes"].(float64)
	}
	return attack * 100 / (100 + def) * skillPower / 100
}

// buildContext assembles the evaluation context: the attacker's full current
// stats, canonical aliases with defaults, defender-prefixed specials, and
// the per-roll values.
func (c *Calculator) buildContext(attacker, defender *combatant.Combatant, skillPower, variance, random float64, isCrit bool) formula.Context {
	ctx := make(formula.Context, len(attacker.CurrentStats)+16)
	for k, v := range attacker.CurrentStats {
		ctx[k] = v
	}
	for _, a := range aliases {
		ctx[a.canonical] = statOr(attacker.CurrentStats, a.names, a.fallback)
	}
	ctx["Level"] = float64(attacker.Level)
	ctx["EnemyDef"] = statOr(defender.CurrentStats, []string{"Defense", "defense", "physDef"}, 5)
	ctx["EnemyRes"] = statOr(defender.CurrentStats, []string{"MagicResist", "magicResist", "magDef"}, 5)
	ctx["EnemySpeed"] = statOr(defender.CurrentStats, []string{"Speed", "speed", "Agility"}, 10)
	ctx["EnemyEvasion"] = statOr(defender.CurrentStats, []string{"Evasion", "evasion"}, 0)
	ctx["SkillPower"] = skillPower
	ctx["Variance"] = variance
	ctx["Random"] = random
	if isCrit {
		ctx["IsCritical"] = 1.0
	} else {
		ctx["IsCritical"] = 0.0
	}
	return ctx
}

// statOr returns the first present name from the block, or the fallback.
func statOr(block types.StatBlock, names []string, fallback float64) float64 {
	for _, name := range names {
		if v, ok := block[name]; ok {
			return v
		}
	}
	return fallback
}
