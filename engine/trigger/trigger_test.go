package trigger

import (
	"strings"
	"testing"

	"github.com/nathoo/battlecore/engine/combatant"
	"github.com/nathoo/battlecore/engine/stats"
	"github.com/nathoo/battlecore/types"
)

func testEngine(t *testing.T) *stats.Engine {
	t.Helper()
	primary := []types.StatDef{
		{ID: "Strength", Default: 10, Min: 1, Max: 99},
		{ID: "Vitality", Default: 10, Min: 1, Max: 99},
	}
	derived := []types.DerivedStatDef{
		{ID: "MaxHP", Formula: "Vitality * 10"},
		{ID: "MaxMP", Formula: "Vitality * 5"},
		{ID: "Attack", Formula: "Strength * 2"},
	}
	formulas := types.CombatFormulas{
		PhysicalDamage: "Attack",
		MagicDamage:    "Attack",
		CriticalCheck:  "5",
		TurnOrder:      "Strength",
	}
	e, err := stats.New(primary, derived, formulas)
	if err != nil {
		t.Fatalf("stats.New: %v", err)
	}
	return e
}

func makeCombatant(t *testing.T, e *stats.Engine, id string, isPlayer bool) *combatant.Combatant {
	t.Helper()
	c, err := combatant.New(id, id, isPlayer, 3, types.StatBlock{"Strength": 10, "Vitality": 10}, nil, e)
	if err != nil {
		t.Fatalf("combatant %s: %v", id, err)
	}
	return c
}

func TestEvaluate_FiresOnTruthyCondition(t *testing.T) {
	e := testEngine(t)
	hero := makeCombatant(t, e, "hero", true)
	wolf := makeCombatant(t, e, "wolf", false)

	eng := New([]types.TriggerDef{
		{ID: "low_hp", Condition: "player.hpPercent < 50", Action: types.TriggerAction{Type: "dialog"}},
		{ID: "always", Condition: "1", Action: types.TriggerAction{Type: "heal", Amount: 5}},
	})

	results, diags := eng.Evaluate([]*combatant.Combatant{hero}, []*combatant.Combatant{wolf}, 1)
	if len(diags) != 0 {
		t.Fatalf("diags = %v", diags)
	}
	if len(results) != 1 || results[0].TriggerID != "always" {
		t.Fatalf("results = %+v, want only always", results)
	}

	hero.ApplyDamage(60) // 40/100 HP
	results, _ = eng.Evaluate([]*combatant.Combatant{hero}, []*combatant.Combatant{wolf}, 2)
	if len(results) != 2 {
		t.Fatalf("results = %+v, want low_hp and always", results)
	}
	if results[0].TriggerID != "low_hp" {
		t.Errorf("declaration order not preserved: %+v", results)
	}
}

func TestEvaluate_OnceFiresOnlyOnce(t *testing.T) {
	e := testEngine(t)
	hero := makeCombatant(t, e, "hero", true)
	wolf := makeCombatant(t, e, "wolf", false)

	eng := New([]types.TriggerDef{
		{ID: "intro", Condition: "turn >= 1", Once: true, Action: types.TriggerAction{Type: "dialog"}},
	})

	for turn := 1; turn <= 5; turn++ {
		eng.Evaluate([]*combatant.Combatant{hero}, []*combatant.Combatant{wolf}, turn)
	}
	if got := eng.FireCount("intro"); got != 1 {
		t.Errorf("fire count = %d, want 1", got)
	}
}

func TestEvaluate_MaxFiresCapsRepeats(t *testing.T) {
	e := testEngine(t)
	hero := makeCombatant(t, e, "hero", true)
	wolf := makeCombatant(t, e, "wolf", false)

	eng := New([]types.TriggerDef{
		{ID: "pulse", Condition: "1", MaxFires: 3, Action: types.TriggerAction{Type: "damage", Amount: 2}},
	})

	total := 0
	for turn := 1; turn <= 6; turn++ {
		results, _ := eng.Evaluate([]*combatant.Combatant{hero}, []*combatant.Combatant{wolf}, turn)
		total += len(results)
	}
	if total != 3 {
		t.Errorf("fired %d times, want 3", total)
	}
}

func TestEvaluate_BadConditionSkippedNotFatal(t *testing.T) {
	e := testEngine(t)
	hero := makeCombatant(t, e, "hero", true)
	wolf := makeCombatant(t, e, "wolf", false)

	eng := New([]types.TriggerDef{
		{ID: "broken", Condition: "ghost.hp < 10", Action: types.TriggerAction{Type: "flee"}},
		{ID: "ok", Condition: "enemiesAlive >= 1", Action: types.TriggerAction{Type: "heal", Amount: 1}},
	})

	results, diags := eng.Evaluate([]*combatant.Combatant{hero}, []*combatant.Combatant{wolf}, 1)
	if len(results) != 1 || results[0].TriggerID != "ok" {
		t.Fatalf("results = %+v, want only ok", results)
	}
	if len(diags) != 1 || !strings.Contains(diags[0], "broken") {
		t.Errorf("diags = %v, want one line naming broken", diags)
	}
	// A broken condition never fires, so it is retried every turn.
	_, diags = eng.Evaluate([]*combatant.Combatant{hero}, []*combatant.Combatant{wolf}, 2)
	if len(diags) != 1 {
		t.Errorf("second turn diags = %v", diags)
	}
}

func TestBuildContext_AggregatesAndAliases(t *testing.T) {
	e := testEngine(t)
	hero := makeCombatant(t, e, "hero", true)
	wolf := makeCombatant(t, e, "wolf", false)
	bat := makeCombatant(t, e, "bat", false)
	bat.ApplyDamage(1000)

	eng := New([]types.TriggerDef{
		{ID: "counters", Condition: "turn == 4 && playersAlive == 1 && enemiesAlive == 1 && totalEnemies == 2", Action: types.TriggerAction{Type: "dialog"}},
		{ID: "by_id", Condition: "wolf.isAlive && bat.isAlive == 0", Action: types.TriggerAction{Type: "dialog"}},
		{ID: "stats", Condition: "enemy.Attack == 20 && player.level == 3", Action: types.TriggerAction{Type: "dialog"}},
	})

	results, diags := eng.Evaluate([]*combatant.Combatant{hero}, []*combatant.Combatant{wolf, bat}, 4)
	if len(diags) != 0 {
		t.Fatalf("diags = %v", diags)
	}
	if len(results) != 3 {
		t.Fatalf("results = %+v, want all three", results)
	}
}

func TestEvaluate_DefendingVisibleToConditions(t *testing.T) {
	e := testEngine(t)
	hero := makeCombatant(t, e, "hero", true)
	hero.Defending = true
	wolf := makeCombatant(t, e, "wolf", false)

	eng := New([]types.TriggerDef{
		{ID: "turtle", Condition: "player.isDefending", Action: types.TriggerAction{Type: "damage", Amount: 3}},
	})
	results, _ := eng.Evaluate([]*combatant.Combatant{hero}, []*combatant.Combatant{wolf}, 1)
	if len(results) != 1 {
		t.Fatalf("results = %+v, want turtle fired", results)
	}
}
