package cli

import (
	"bytes"
	"strings"
	"testing"

	"github.com/nathoo/battlecore/engine"
	"github.com/nathoo/battlecore/types"
)

// testGame builds a small deterministic definition: no criticals, player
// always faster than the slime, one strike or attack is lethal.
func testGame() *types.GameDefinition {
	return &types.GameDefinition{
		Game: types.GameDef{Title: "CLI Test Game"},
		Stats: []types.StatDef{
			{ID: "Strength", Default: 10, Min: 1, Max: 99},
			{ID: "Intelligence", Default: 8, Min: 1, Max: 99},
			{ID: "Agility", Default: 10, Min: 1, Max: 99},
			{ID: "Vitality", Default: 10, Min: 1, Max: 99},
		},
		Derived: []types.DerivedStatDef{
			{ID: "MaxHP", Formula: "Vitality * 10"},
			{ID: "MaxMP", Formula: "Intelligence * 5"},
			{ID: "Attack", Formula: "Strength * 2"},
			{ID: "Defense", Formula: "Vitality"},
			{ID: "MagicPower", Formula: "Intelligence * 2"},
			{ID: "Speed", Formula: "Agility"},
		},
		CombatFormulas: types.CombatFormulas{
			PhysicalDamage: "Attack * SkillPower / 100",
			MagicDamage:    "MagicPower * SkillPower / 100",
			CriticalCheck:  "0",
			TurnOrder:      "Speed",
		},
		Player: types.PlayerDef{
			Name:      "Hero",
			Level:     1,
			BaseStats: types.StatBlock{"Strength": 30, "Intelligence": 8, "Agility": 15, "Vitality": 10},
			Skills:    []string{"strike"},
		},
		Enemies: map[string]types.EnemyDef{
			"slime": {
				ID:        "slime",
				Name:      "Slime",
				Level:     1,
				BaseStats: types.StatBlock{"Strength": 2, "Intelligence": 1, "Agility": 5, "Vitality": 5},
				Exp:       25,
				Gold:      10,
			},
		},
		Skills: map[string]types.SkillDef{
			"strike": {ID: "strike", Name: "Strike", Type: "physical", MPCost: 5, Power: 100},
		},
		Items: map[string]types.ItemDef{
			"potion": {ID: "potion", Name: "Potion", Effect: "healHp", Value: 20},
		},
	}
}

// newTestCLI wires a fresh battle to scripted input and a capture buffer.
func newTestCLI(t *testing.T, def *types.GameDefinition, input string) (*CLI, *bytes.Buffer) {
	t.Helper()
	b, err := engine.New(def, 42)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := b.Initialize([]string{"slime"}); err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	b.Start()

	out := &bytes.Buffer{}
	c := &CLI{
		Battle:  b,
		Def:     def,
		In:      strings.NewReader(input),
		Out:     out,
		SaveDir: t.TempDir(),
	}
	return c, out
}

func TestRun_AttackToVictory(t *testing.T) {
	c, out := newTestCLI(t, testGame(), "attack\n1\n")
	c.Run()

	got := out.String()
	if !strings.Contains(got, "Hero's turn.") {
		t.Errorf("missing turn announcement in output:\n%s", got)
	}
	if !strings.Contains(got, "Hero attacks Slime") {
		t.Errorf("missing attack line in output:\n%s", got)
	}
	if !strings.Contains(got, "Slime is defeated!") {
		t.Errorf("missing defeat line in output:\n%s", got)
	}
	if !strings.Contains(got, "Battle won in 1 turns.") {
		t.Errorf("missing victory line in output:\n%s", got)
	}
}

func TestRun_SkillTargetByID(t *testing.T) {
	c, out := newTestCLI(t, testGame(), "skill strike\nslime\n")
	c.Run()

	got := out.String()
	if !strings.Contains(got, "Battle won") {
		t.Errorf("skill by target id did not win the battle:\n%s", got)
	}
}

func TestRun_UnknownSkillRejected(t *testing.T) {
	c, out := newTestCLI(t, testGame(), "skill meteor\nattack\n1\n")
	c.Run()

	got := out.String()
	if !strings.Contains(got, `You don't know "meteor".`) {
		t.Errorf("missing unknown-skill message:\n%s", got)
	}
	if !strings.Contains(got, "Battle won") {
		t.Errorf("battle did not continue after rejected skill:\n%s", got)
	}
}

func TestRun_CancelTargetSelection(t *testing.T) {
	c, out := newTestCLI(t, testGame(), "skill strike\ncancel\nattack\n1\n")
	c.Run()

	got := out.String()
	if !strings.Contains(got, "Choose a target") {
		t.Errorf("missing target prompt:\n%s", got)
	}
	if !strings.Contains(got, "Battle won") {
		t.Errorf("cancel did not return to action selection:\n%s", got)
	}
}

func TestRun_ItemTargetsAllies(t *testing.T) {
	c, out := newTestCLI(t, testGame(), "item potion\n1\nattack\n1\n")
	c.Run()

	got := out.String()
	// The potion's target list is the player side, not the slime.
	if !strings.Contains(got, "Hero (HP") {
		t.Errorf("item target list should offer Hero:\n%s", got)
	}
	if !strings.Contains(got, "Battle won") {
		t.Errorf("battle did not finish:\n%s", got)
	}
}

func TestRun_SkillsAndStatusListings(t *testing.T) {
	c, out := newTestCLI(t, testGame(), "skills\nstatus\nattack\n1\n")
	c.Run()

	got := out.String()
	if !strings.Contains(got, "strike — Strike (MP 5)") {
		t.Errorf("missing skill listing:\n%s", got)
	}
	if !strings.Contains(got, "Slime: HP 50/50") {
		t.Errorf("missing enemy status line:\n%s", got)
	}
}

func TestRun_UnknownCommand(t *testing.T) {
	c, out := newTestCLI(t, testGame(), "dance\n/dance\nattack\n1\n")
	c.Run()

	got := out.String()
	if !strings.Contains(got, "Unknown action: dance") {
		t.Errorf("missing unknown-action message:\n%s", got)
	}
	if !strings.Contains(got, "Unknown command: /dance") {
		t.Errorf("missing unknown-command message:\n%s", got)
	}
}

func TestRun_Quit(t *testing.T) {
	c, out := newTestCLI(t, testGame(), "/quit\nattack\n")
	c.Run()

	got := out.String()
	if !strings.Contains(got, "Goodbye.") {
		t.Errorf("missing quit message:\n%s", got)
	}
	if strings.Contains(got, "attacks") {
		t.Errorf("input after /quit was processed:\n%s", got)
	}
}

func TestRun_CommentAndBlankLinesSkipped(t *testing.T) {
	c, out := newTestCLI(t, testGame(), "# opening move\n\nattack\n1\n")
	c.Run()

	got := out.String()
	if strings.Contains(got, "Unknown action") {
		t.Errorf("comment or blank line was dispatched:\n%s", got)
	}
	if !strings.Contains(got, "Battle won") {
		t.Errorf("battle did not finish:\n%s", got)
	}
}

func TestRun_EchoInput(t *testing.T) {
	c, out := newTestCLI(t, testGame(), "attack\n1\n")
	c.EchoInput = true
	c.Run()

	if !strings.Contains(out.String(), "attack\n") {
		t.Errorf("input not echoed:\n%s", out.String())
	}
}

func TestRun_SaveAndLoadRoundTrip(t *testing.T) {
	// Defend once so the battle is mid-flight, then save and quit.
	c1, out1 := newTestCLI(t, testGame(), "defend\n/save slot1\n/quit\n")
	c1.Run()
	if !strings.Contains(out1.String(), "Battle saved to slot1.") {
		t.Fatalf("missing save confirmation:\n%s", out1.String())
	}

	// A fresh battle loads the slot and finishes the fight.
	c2, out2 := newTestCLI(t, testGame(), "/load slot1\nattack\n1\n")
	c2.SaveDir = c1.SaveDir
	c2.Run()

	got := out2.String()
	if !strings.Contains(got, "Battle loaded from slot1 (turn 2).") {
		t.Errorf("missing load confirmation:\n%s", got)
	}
	// The restored log is replayed as a recap.
	if !strings.Contains(got, "Hero braces for impact.") {
		t.Errorf("restored log not replayed:\n%s", got)
	}
	if !strings.Contains(got, "Battle won") {
		t.Errorf("loaded battle did not finish:\n%s", got)
	}
}

func TestRun_LoadMissingSlot(t *testing.T) {
	c, out := newTestCLI(t, testGame(), "/load nope\n/quit\n")
	c.Run()

	if !strings.Contains(out.String(), "Load failed:") {
		t.Errorf("missing load failure message:\n%s", out.String())
	}
}

func TestRun_TraceToggle(t *testing.T) {
	c, out := newTestCLI(t, testGame(), "/trace\nskills\nattack\n1\n")
	c.Run()

	got := out.String()
	if !strings.Contains(got, "Trace output enabled.") {
		t.Errorf("missing trace toggle message:\n%s", got)
	}
	if !strings.Contains(got, "[trace] phase=") {
		t.Errorf("missing trace output:\n%s", got)
	}
}

func TestRun_DialogChoice(t *testing.T) {
	def := testGame()
	def.Triggers = []types.TriggerDef{{
		ID:        "greeting",
		Condition: "turn == 1",
		Once:      true,
		Action: types.TriggerAction{
			Type: "dialog",
			Dialog: &types.DialogDef{
				Speaker: "Slime",
				Text:    "Blub?",
				Choices: []types.DialogChoice{
					{Text: "Fight on"},
					{Text: "Also fight on"},
				},
			},
		},
	}}

	c, out := newTestCLI(t, def, "5\n2\nattack\n1\n")
	c.Run()

	got := out.String()
	if !strings.Contains(got, `Slime: "Blub?"`) {
		t.Errorf("missing dialog text:\n%s", got)
	}
	if !strings.Contains(got, "1. Fight on") || !strings.Contains(got, "2. Also fight on") {
		t.Errorf("missing numbered choices:\n%s", got)
	}
	if !strings.Contains(got, "Choose 1-2.") {
		t.Errorf("out-of-range choice not rejected:\n%s", got)
	}
	if !strings.Contains(got, "Battle won") {
		t.Errorf("battle did not continue past dialog:\n%s", got)
	}
}

func TestRun_TargetAllSkillSkipsTargetSelect(t *testing.T) {
	def := testGame()
	def.Skills["sweep"] = types.SkillDef{
		ID: "sweep", Name: "Sweep", Type: "physical", MPCost: 10, Power: 100, TargetAll: true,
	}
	def.Player.Skills = append(def.Player.Skills, "sweep")

	// No target input after the skill: the CLI confirms all-target skills
	// itself.
	c, out := newTestCLI(t, def, "skill sweep\n")
	c.Run()

	got := out.String()
	if strings.Contains(got, "Choose a target") {
		t.Errorf("all-target skill should not prompt for a target:\n%s", got)
	}
	if !strings.Contains(got, "Battle won") {
		t.Errorf("battle did not finish:\n%s", got)
	}
}
