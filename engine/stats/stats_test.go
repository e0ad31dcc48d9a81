package stats

import (
	"strings"
	"testing"

	"github.com/nathoo/battlecore/types"
)

func testDefs() ([]types.StatDef, []types.DerivedStatDef, types.CombatFormulas) {
	primary := []types.StatDef{
		{ID: "Strength", Default: 10, Min: 1, Max: 99},
		{ID: "Intelligence", Default: 8, Min: 1, Max: 99},
		{ID: "Agility", Default: 12, Min: 1, Max: 99},
		{ID: "Vitality", Default: 10, Min: 1, Max: 99},
	}
	derived := []types.DerivedStatDef{
		{ID: "MaxHP", Formula: "Vitality * 10 + Level * 5"},
		{ID: "MaxMP", Formula: "Intelligence * 5 + Level * 2"},
		{ID: "Attack", Formula: "Strength * 2"},
		{ID: "Defense", Formula: "Vitality + Strength / 2"},
		{ID: "MagicPower", Formula: "Intelligence * 2"},
		{ID: "MagicResist", Formula: "Intelligence + Vitality / 2"},
		{ID: "Speed", Formula: "Agility"},
		{ID: "CritRate", Formula: "Agility / 4"},
		// Chains off an earlier derived stat.
		{ID: "Power", Formula: "Attack + MagicPower / 2"},
	}
	formulas := types.CombatFormulas{
		PhysicalDamage: "Attack * SkillPower / 100 * 100 / (100 + EnemyDef)",
		MagicDamage:    "MagicPower * SkillPower / 100 * 100 / (100 + EnemyRes)",
		CriticalCheck:  "CritRate + 5",
		TurnOrder:      "Speed",
	}
	return primary, derived, formulas
}

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	primary, derived, formulas := testDefs()
	e, err := New(primary, derived, formulas)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return e
}

func TestNew_RejectsUnknownReference(t *testing.T) {
	primary, derived, formulas := testDefs()
	derived = append(derived, types.DerivedStatDef{ID: "Broken", Formula: "NoSuchStat * 2"})
	_, err := New(primary, derived, formulas)
	if err == nil {
		t.Fatal("expected construction error for unknown stat reference")
	}
	if !strings.Contains(err.Error(), "NoSuchStat") {
		t.Errorf("error should name the unknown stat: %v", err)
	}
}

func TestNew_RejectsForwardReference(t *testing.T) {
	primary, _, formulas := testDefs()
	derived := []types.DerivedStatDef{
		{ID: "First", Formula: "Second + 1"}, // references a later stat
		{ID: "Second", Formula: "Strength"},
	}
	if _, err := New(primary, derived, formulas); err == nil {
		t.Fatal("derived stat referencing a later declaration must fail")
	}
}

func TestNew_RejectsMalformedFormula(t *testing.T) {
	primary, derived, formulas := testDefs()
	formulas.TurnOrder = "Speed +"
	if _, err := New(primary, derived, formulas); err == nil {
		t.Fatal("malformed combat formula must fail construction")
	}
}

func TestNew_AllowsEnemySpecials(t *testing.T) {
	primary, derived, formulas := testDefs()
	formulas.TurnOrder = "Speed + EnemySpeed * 0"
	if _, err := New(primary, derived, formulas); err != nil {
		t.Fatalf("combat formulas may reference enemy specials: %v", err)
	}
}

func TestDefaultStatBlock(t *testing.T) {
	e := newTestEngine(t)
	block := e.DefaultStatBlock()
	if block["Strength"] != 10 || block["Agility"] != 12 {
		t.Errorf("unexpected defaults: %v", block)
	}
}

func TestDerivedStats_OrderAndFlooring(t *testing.T) {
	e := newTestEngine(t)
	primary := types.StatBlock{"Strength": 7, "Intelligence": 9, "Agility": 13, "Vitality": 11}
	derived, err := e.DerivedStats(primary, 3)
	if err != nil {
		t.Fatalf("DerivedStats: %v", err)
	}
	if derived["MaxHP"] != 125 { // 11*10 + 3*5
		t.Errorf("MaxHP = %v, want 125", derived["MaxHP"])
	}
	if derived["Defense"] != 14 { // floor(11 + 3.5)
		t.Errorf("Defense = %v, want 14 (floored)", derived["Defense"])
	}
	if derived["CritRate"] != 3 { // floor(13/4)
		t.Errorf("CritRate = %v, want 3 (floored)", derived["CritRate"])
	}
	// Chained derived stat sees the floored earlier value.
	if derived["Power"] != 23 { // floor(14 + 18/2)
		t.Errorf("Power = %v, want 23", derived["Power"])
	}
}

func TestDerivedStats_Pure(t *testing.T) {
	e := newTestEngine(t)
	primary := types.StatBlock{"Strength": 10, "Intelligence": 8, "Agility": 12, "Vitality": 10}
	first, err := e.DerivedStats(primary, 5)
	if err != nil {
		t.Fatalf("DerivedStats: %v", err)
	}
	for i := 0; i < 5; i++ {
		again, err := e.DerivedStats(primary, 5)
		if err != nil {
			t.Fatalf("DerivedStats repeat: %v", err)
		}
		for k, v := range first {
			if again[k] != v {
				t.Fatalf("repeat %d: %s = %v, want %v", i, k, again[k], v)
			}
		}
	}
}

func TestCompleteStats_IncludesLevel(t *testing.T) {
	e := newTestEngine(t)
	complete, err := e.CompleteStats(e.DefaultStatBlock(), 7)
	if err != nil {
		t.Fatalf("CompleteStats: %v", err)
	}
	if complete["Level"] != 7 {
		t.Errorf("Level = %v, want 7", complete["Level"])
	}
	if complete["Strength"] != 10 || complete["MaxHP"] == 0 {
		t.Errorf("complete stats missing primary or derived entries: %v", complete)
	}
}

func TestPhysicalDamage_FloorAndMinimum(t *testing.T) {
	e := newTestEngine(t)
	attacker, err := e.CompleteStats(e.DefaultStatBlock(), 1)
	if err != nil {
		t.Fatalf("CompleteStats: %v", err)
	}
	// Enormous defense: formula result well under 1, must clamp to 1.
	defender := types.StatBlock{"Defense": 1e9}
	dmg, err := e.PhysicalDamage(attacker, defender)
	if err != nil {
		t.Fatalf("PhysicalDamage: %v", err)
	}
	if dmg != 1 {
		t.Errorf("damage = %v, want minimum 1", dmg)
	}
}

func TestPhysicalDamage_DefenderDefaultsZero(t *testing.T) {
	e := newTestEngine(t)
	attacker, _ := e.CompleteStats(e.DefaultStatBlock(), 1)
	dmg, err := e.PhysicalDamage(attacker, types.StatBlock{})
	if err != nil {
		t.Fatalf("PhysicalDamage: %v", err)
	}
	// Attack 20, EnemyDef 0 → floor(20 * 100/100) = 20.
	if dmg != 20 {
		t.Errorf("damage = %v, want 20", dmg)
	}
}

func TestCritChance_Clamped(t *testing.T) {
	primary, derived, formulas := testDefs()
	formulas.CriticalCheck = "CritRate * 1000"
	e, err := New(primary, derived, formulas)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	attacker, _ := e.CompleteStats(e.DefaultStatBlock(), 1)
	crit, err := e.CritChance(attacker)
	if err != nil {
		t.Fatalf("CritChance: %v", err)
	}
	if crit != 100 {
		t.Errorf("crit = %v, want clamp to 100", crit)
	}
}

func TestTurnOrder_Unclamped(t *testing.T) {
	e := newTestEngine(t)
	attacker, _ := e.CompleteStats(e.DefaultStatBlock(), 1)
	v, err := e.TurnOrder(attacker)
	if err != nil {
		t.Fatalf("TurnOrder: %v", err)
	}
	if v != 12 {
		t.Errorf("turn order = %v, want 12", v)
	}
}

func TestClampStat(t *testing.T) {
	e := newTestEngine(t)
	if got := e.ClampStat("Strength", 150); got != 99 {
		t.Errorf("ClampStat over max = %v, want 99", got)
	}
	if got := e.ClampStat("Strength", 0); got != 1 {
		t.Errorf("ClampStat under min = %v, want 1", got)
	}
	if got := e.ClampStat("UnknownStat", 12345); got != 12345 {
		t.Errorf("unknown stat should pass through, got %v", got)
	}
	if !e.IsValidStat("UnknownStat", -1) {
		t.Error("unknown stat should always be valid")
	}
	if e.IsValidStat("Strength", 100) {
		t.Error("Strength 100 exceeds declared max 99")
	}
}
