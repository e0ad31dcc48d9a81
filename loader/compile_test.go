package loader

import (
	"strings"
	"testing"

	lua "github.com/yuin/gopher-lua"
)

// newTestVM creates a sandboxed Lua VM with the API registered and a fresh
// collector.
func newTestVM() (*lua.LState, *collector) {
	L := lua.NewState(lua.Options{SkipOpenLibs: true})
	openSafeLibs(L)
	sandbox(L)
	coll := &collector{}
	registerAPI(L, coll)
	return L, coll
}

func TestCompileStat_Fields(t *testing.T) {
	L, coll := newTestVM()
	defer L.Close()

	err := L.DoString(`
		Stat "Strength" {
			name = "Strength",
			abbreviation = "STR",
			description = "Raw power.",
			default = 10,
			min = 1,
			max = 99,
		}
	`)
	if err != nil {
		t.Fatalf("DoString failed: %v", err)
	}
	if len(coll.stats) != 1 {
		t.Fatalf("collected %d stats, want 1", len(coll.stats))
	}

	stat := compileStat(coll.stats[0])
	if stat.ID != "Strength" || stat.Abbreviation != "STR" {
		t.Errorf("stat = %+v", stat)
	}
	if stat.Default != 10 || stat.Min != 1 || stat.Max != 99 {
		t.Errorf("range = default %g min %g max %g", stat.Default, stat.Min, stat.Max)
	}
	if stat.Description != "Raw power." {
		t.Errorf("description = %q", stat.Description)
	}
}

func TestCompileSkill_WithBuffEffect(t *testing.T) {
	L, coll := newTestVM()
	defer L.Close()

	err := L.DoString(`
		Skill "war_cry" {
			name = "War Cry",
			type = "buff",
			mpCost = 6,
			buffEffect = Modifier {
				id = "war_cry",
				name = "War Cry",
				duration = 3,
				stackable = true,
				maxStacks = 2,
				effects = { Percent("Attack", 50), Flat("Speed", 3) },
			},
		}
	`)
	if err != nil {
		t.Fatalf("DoString failed: %v", err)
	}

	skill := compileSkill(coll.skills[0])
	if skill.Type != "buff" || skill.MPCost != 6 {
		t.Errorf("skill = %+v", skill)
	}
	mod := skill.BuffEffect
	if mod == nil {
		t.Fatal("buffEffect is nil")
	}
	if !mod.Stackable || mod.MaxStacks != 2 || mod.Duration != 3 {
		t.Errorf("modifier = %+v", mod)
	}
	if len(mod.Effects) != 2 {
		t.Fatalf("effects = %d, want 2", len(mod.Effects))
	}
	if mod.Effects[0].ValueType != "percent" || mod.Effects[0].Value != 50 {
		t.Errorf("effects[0] = %+v", mod.Effects[0])
	}
	if mod.Effects[1].Stat != "Speed" || mod.Effects[1].ValueType != "flat" {
		t.Errorf("effects[1] = %+v", mod.Effects[1])
	}
}

func TestCompileEnemy_DropsAndAI(t *testing.T) {
	L, coll := newTestVM()
	defer L.Close()

	err := L.DoString(`
		Enemy "bat" {
			name = "Cave Bat",
			level = 3,
			baseStats = { Strength = 5, Agility = 14 },
			skills = { "bite", "screech" },
			drops = { Drop("wing", 2, 40) },
			exp = 18,
			gold = 6,
			ai = {
				behavior = "scripted",
				healThreshold = 30,
				preferTargets = "random",
				skillPriority = { "screech", "bite" },
			},
		}
	`)
	if err != nil {
		t.Fatalf("DoString failed: %v", err)
	}

	enemy := compileEnemy(coll.enemies[0])
	if enemy.Name != "Cave Bat" || enemy.Level != 3 {
		t.Errorf("enemy = %+v", enemy)
	}
	if enemy.BaseStats["Agility"] != 14 {
		t.Errorf("Agility = %v, want 14", enemy.BaseStats["Agility"])
	}
	if len(enemy.Skills) != 2 || enemy.Skills[0] != "bite" {
		t.Errorf("skills = %v", enemy.Skills)
	}
	if len(enemy.Drops) != 1 {
		t.Fatalf("drops = %d, want 1", len(enemy.Drops))
	}
	drop := enemy.Drops[0]
	if drop.ItemID != "wing" || drop.Count != 2 || drop.Chance != 40 {
		t.Errorf("drop = %+v", drop)
	}
	if enemy.AI == nil {
		t.Fatal("AI is nil")
	}
	if enemy.AI.Behavior != "scripted" || enemy.AI.HealThreshold != 30 {
		t.Errorf("AI = %+v", enemy.AI)
	}
	if len(enemy.AI.SkillPriority) != 2 || enemy.AI.SkillPriority[0] != "screech" {
		t.Errorf("priority = %v", enemy.AI.SkillPriority)
	}
}

func TestCompileTrigger_NestedActions(t *testing.T) {
	L, coll := newTestVM()
	defer L.Close()

	err := L.DoString(`
		Trigger "phase_two" {
			condition = "boss.hpPercent < 50",
			maxFires = 1,
			action = Multi(
				Dialog {
					speaker = "Boss",
					text = "Enough!",
					choices = {
						Choice("Brace", Heal("player", 10)),
					},
				},
				Transform("boss", "boss_enraged"),
				Spawn("minion")
			),
		}
	`)
	if err != nil {
		t.Fatalf("DoString failed: %v", err)
	}

	trig := compileTrigger(coll.triggers[0])
	if trig.Condition != "boss.hpPercent < 50" || trig.MaxFires != 1 {
		t.Errorf("trigger = %+v", trig)
	}
	if trig.Action.Type != "multi" || len(trig.Action.Actions) != 3 {
		t.Fatalf("action = %+v", trig.Action)
	}

	dlg := trig.Action.Actions[0]
	if dlg.Type != "dialog" || dlg.Dialog == nil || dlg.Dialog.Speaker != "Boss" {
		t.Fatalf("actions[0] = %+v", dlg)
	}
	if len(dlg.Dialog.Choices) != 1 {
		t.Fatalf("choices = %d, want 1", len(dlg.Dialog.Choices))
	}
	choice := dlg.Dialog.Choices[0]
	if choice.Action == nil || choice.Action.Type != "heal" || choice.Action.Amount != 10 {
		t.Errorf("choice action = %+v", choice.Action)
	}

	tf := trig.Action.Actions[1]
	if tf.Type != "transform" || tf.TargetID != "boss" || tf.EnemyID != "boss_enraged" {
		t.Errorf("actions[1] = %+v", tf)
	}
	if trig.Action.Actions[2].Type != "spawn" {
		t.Errorf("actions[2] = %+v", trig.Action.Actions[2])
	}
}

func TestCompile_DuplicateSkill_Fails(t *testing.T) {
	L, coll := newTestVM()
	defer L.Close()

	err := L.DoString(`
		Game { title = "Dup" }
		Formulas { physicalDamage = "1", magicDamage = "1", criticalCheck = "0", turnOrder = "1" }
		Player { name = "Hero", level = 1 }
		Skill "strike" { name = "Strike", type = "physical" }
		Skill "strike" { name = "Strike Again", type = "physical" }
	`)
	if err != nil {
		t.Fatalf("DoString failed: %v", err)
	}

	_, err = compile(coll)
	if err == nil {
		t.Fatal("expected duplicate skill error")
	}
	if !strings.Contains(err.Error(), "duplicate skill") {
		t.Errorf("error = %q", err.Error())
	}
}

func TestCompile_MissingSections_Fail(t *testing.T) {
	tests := []struct {
		name string
		lua  string
		want string
	}{
		{
			name: "no game",
			lua:  `Player { name = "Hero", level = 1 }`,
			want: "no Game{} definition",
		},
		{
			name: "no formulas",
			lua:  `Game { title = "T" } Player { name = "Hero", level = 1 }`,
			want: "no Formulas{} definition",
		},
		{
			name: "no player",
			lua:  `Game { title = "T" } Formulas { physicalDamage = "1", magicDamage = "1", criticalCheck = "0", turnOrder = "1" }`,
			want: "no Player{} definition",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			L, coll := newTestVM()
			defer L.Close()

			if err := L.DoString(tt.lua); err != nil {
				t.Fatalf("DoString failed: %v", err)
			}
			_, err := compile(coll)
			if err == nil {
				t.Fatal("expected compile error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error = %q, want substring %q", err.Error(), tt.want)
			}
		})
	}
}

func TestCompilePlayer_SkillsAndStats(t *testing.T) {
	L, coll := newTestVM()
	defer L.Close()

	err := L.DoString(`
		Player {
			name = "Rook",
			level = 3,
			baseStats = { Strength = 14, Agility = 11 },
			skills = { "strike", "fireball" },
		}
	`)
	if err != nil {
		t.Fatalf("DoString failed: %v", err)
	}

	player := compilePlayer(coll.player)
	if player.Name != "Rook" || player.Level != 3 {
		t.Errorf("player = %+v", player)
	}
	if player.BaseStats["Strength"] != 14 {
		t.Errorf("Strength = %v", player.BaseStats["Strength"])
	}
	if len(player.Skills) != 2 || player.Skills[1] != "fireball" {
		t.Errorf("skills = %v", player.Skills)
	}
}
