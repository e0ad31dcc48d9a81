package combatant

import (
	"testing"

	"github.com/nathoo/battlecore/engine/stats"
	"github.com/nathoo/battlecore/types"
)

func testEngine(t *testing.T) *stats.Engine {
	t.Helper()
	primary := []types.StatDef{
		{ID: "Strength", Default: 10, Min: 1, Max: 99},
		{ID: "Intelligence", Default: 8, Min: 1, Max: 99},
		{ID: "Agility", Default: 12, Min: 1, Max: 99},
		{ID: "Vitality", Default: 10, Min: 1, Max: 99},
	}
	derived := []types.DerivedStatDef{
		{ID: "MaxHP", Formula: "Vitality * 10"},
		{ID: "MaxMP", Formula: "Intelligence * 5"},
		{ID: "Attack", Formula: "Strength * 2"},
		{ID: "Defense", Formula: "Vitality"},
		{ID: "Speed", Formula: "Agility"},
	}
	formulas := types.CombatFormulas{
		PhysicalDamage: "Attack * 100 / (100 + EnemyDef)",
		MagicDamage:    "Intelligence * 100 / (100 + EnemyRes)",
		CriticalCheck:  "Agility / 4",
		TurnOrder:      "Speed",
	}
	e, err := stats.New(primary, derived, formulas)
	if err != nil {
		t.Fatalf("stats.New: %v", err)
	}
	return e
}

func newHero(t *testing.T, e *stats.Engine) *Combatant {
	t.Helper()
	c, err := New("hero", "Hero", true, 1, types.StatBlock{
		"Strength": 10, "Intelligence": 8, "Agility": 12, "Vitality": 10,
	}, []string{"slash"}, e)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return c
}

func TestNew_FullVitals(t *testing.T) {
	e := testEngine(t)
	c := newHero(t, e)
	if c.MaxHP != 100 || c.CurrentHP != 100 {
		t.Errorf("HP = %v/%v, want 100/100", c.CurrentHP, c.MaxHP)
	}
	if c.MaxMP != 40 || c.CurrentMP != 40 {
		t.Errorf("MP = %v/%v, want 40/40", c.CurrentMP, c.MaxMP)
	}
	if !c.Alive {
		t.Error("new combatant should be alive")
	}
}

func TestApplyDamageAndHeal(t *testing.T) {
	e := testEngine(t)
	c := newHero(t, e)
	if killed := c.ApplyDamage(30); killed {
		t.Error("30 damage should not kill a 100 HP combatant")
	}
	if c.CurrentHP != 70 {
		t.Errorf("HP = %v, want 70", c.CurrentHP)
	}
	if got := c.Heal(50); got != 30 {
		t.Errorf("heal restored %v, want clamp at 30", got)
	}
	if c.CurrentHP != 100 {
		t.Errorf("HP = %v, want 100", c.CurrentHP)
	}
}

func TestApplyDamage_Kills(t *testing.T) {
	e := testEngine(t)
	c := newHero(t, e)
	if killed := c.ApplyDamage(150); !killed {
		t.Error("lethal damage should report the kill")
	}
	if c.Alive || c.CurrentHP != 0 {
		t.Errorf("dead combatant: alive=%v hp=%v", c.Alive, c.CurrentHP)
	}
	// A second overkill hit is not a second kill.
	if killed := c.ApplyDamage(10); killed {
		t.Error("damage to a corpse must not report another kill")
	}
	if got := c.Heal(50); got != 0 {
		t.Error("dead combatants cannot be healed")
	}
}

func TestRevive(t *testing.T) {
	e := testEngine(t)
	c := newHero(t, e)
	if c.Revive(50) {
		t.Error("revive on a living combatant must be refused")
	}
	c.ApplyDamage(999)
	if !c.Revive(50) {
		t.Fatal("revive on a dead combatant should succeed")
	}
	if !c.Alive || c.CurrentHP != 50 {
		t.Errorf("revived: alive=%v hp=%v, want alive at 50", c.Alive, c.CurrentHP)
	}
}

func TestRecalculate_ModifierAdjusted(t *testing.T) {
	e := testEngine(t)
	c := newHero(t, e)
	c.Modifiers.Add(types.ModifierDef{
		ID:      "war_cry",
		Effects: []types.ModifierEffect{{Stat: "Attack", ValueType: "percent", Value: 50}},
	}, "buff")
	if err := c.Recalculate(e); err != nil {
		t.Fatalf("Recalculate: %v", err)
	}
	if c.Stat("Attack") != 30 { // floor(20 * 1.5)
		t.Errorf("Attack = %v, want 30", c.Stat("Attack"))
	}
}

func TestRecalculate_MonotonicMaxHP(t *testing.T) {
	e := testEngine(t)
	c := newHero(t, e)
	c.ApplyDamage(40) // 60/100

	// A +20% MaxHP buff raises the cap without touching current HP.
	c.Modifiers.Add(types.ModifierDef{
		ID:      "vigor",
		Effects: []types.ModifierEffect{{Stat: "MaxHP", ValueType: "percent", Value: 20}},
	}, "buff")
	if err := c.Recalculate(e); err != nil {
		t.Fatalf("Recalculate: %v", err)
	}
	if c.MaxHP != 120 || c.CurrentHP != 60 {
		t.Errorf("after buff: %v/%v, want 60/120", c.CurrentHP, c.MaxHP)
	}

	// When the buff goes away the cap does not drop mid-battle.
	c.Modifiers.Remove("vigor")
	if err := c.Recalculate(e); err != nil {
		t.Fatalf("Recalculate: %v", err)
	}
	if c.MaxHP != 120 {
		t.Errorf("max HP dropped to %v after buff removal, want 120", c.MaxHP)
	}
}

func TestTransform_PreservesHPPercent(t *testing.T) {
	e := testEngine(t)
	c := newHero(t, e)
	c.ApplyDamage(50) // 50%

	err := c.Transform(types.StatBlock{
		"Strength": 20, "Intelligence": 8, "Agility": 12, "Vitality": 30,
	}, []string{"rend"}, e)
	if err != nil {
		t.Fatalf("Transform: %v", err)
	}
	if c.MaxHP != 300 {
		t.Errorf("MaxHP = %v, want 300", c.MaxHP)
	}
	if c.CurrentHP != 150 {
		t.Errorf("CurrentHP = %v, want 150 (50%% preserved)", c.CurrentHP)
	}
	if !c.HasSkill("rend") || c.HasSkill("slash") {
		t.Errorf("skills not replaced: %v", c.Skills)
	}
}

func TestClone_Independent(t *testing.T) {
	e := testEngine(t)
	c := newHero(t, e)
	c.Modifiers.Add(types.ModifierDef{
		ID:       "poison",
		Effects:  []types.ModifierEffect{{Stat: "Speed", ValueType: "flat", Value: -2}},
		Duration: 3,
	}, "debuff")

	clone := c.Clone()
	clone.CurrentStats["Attack"] = 9999
	clone.ApplyDamage(90)
	clone.Modifiers.Remove("poison")

	if c.CurrentStats["Attack"] == 9999 {
		t.Error("clone shares CurrentStats with original")
	}
	if c.CurrentHP != 100 {
		t.Error("clone shares HP with original")
	}
	if c.Modifiers.Get("poison") == nil {
		t.Error("clone shares modifier stack with original")
	}
}
