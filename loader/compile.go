// Package loader loads game content into Go structs at startup. Content is
// authored either as a single game.json document or as Lua scripts executed
// in a sandboxed VM — zero Lua at runtime.
package loader

import (
	"fmt"
	"sort"

	"github.com/nathoo/battlecore/types"
	lua "github.com/yuin/gopher-lua"
)

// rawDef holds one curried definition table before compilation.
type rawDef struct {
	id    string
	table *lua.LTable
}

// getString returns a string field from a Lua table, or "" if missing.
func getString(tbl *lua.LTable, key string) string {
	v := tbl.RawGetString(key)
	if s, ok := v.(lua.LString); ok {
		return string(s)
	}
	return ""
}

// getBool returns a bool field from a Lua table, or the default if missing.
func getBool(tbl *lua.LTable, key string, def bool) bool {
	v := tbl.RawGetString(key)
	if b, ok := v.(lua.LBool); ok {
		return bool(b)
	}
	return def
}

// getNumber returns a numeric field from a Lua table, or 0 if missing.
func getNumber(tbl *lua.LTable, key string) float64 {
	v := tbl.RawGetString(key)
	if n, ok := v.(lua.LNumber); ok {
		return float64(n)
	}
	return 0
}

// getInt returns an int field from a Lua table, or 0 if missing.
func getInt(tbl *lua.LTable, key string) int {
	return int(getNumber(tbl, key))
}

// getTable returns a table field from a Lua table, or nil if missing.
func getTable(tbl *lua.LTable, key string) *lua.LTable {
	v := tbl.RawGetString(key)
	if t, ok := v.(*lua.LTable); ok {
		return t
	}
	return nil
}

// tableToStatBlock converts a Lua table of numeric fields to a StatBlock.
func tableToStatBlock(tbl *lua.LTable) types.StatBlock {
	if tbl == nil {
		return nil
	}
	block := types.StatBlock{}
	tbl.ForEach(func(k, v lua.LValue) {
		ks, ok := k.(lua.LString)
		if !ok {
			return
		}
		if n, ok := v.(lua.LNumber); ok {
			block[string(ks)] = float64(n)
		}
	})
	return block
}

// tableToStringSlice converts a Lua array of strings to a []string.
func tableToStringSlice(tbl *lua.LTable) []string {
	if tbl == nil {
		return nil
	}
	var out []string
	tbl.ForEach(func(k, v lua.LValue) {
		if _, ok := k.(lua.LNumber); !ok {
			return
		}
		if s, ok := v.(lua.LString); ok {
			out = append(out, string(s))
		}
	})
	return out
}

// eachArrayTable calls fn for every table element of a Lua array.
func eachArrayTable(tbl *lua.LTable, fn func(*lua.LTable)) {
	if tbl == nil {
		return
	}
	tbl.ForEach(func(k, v lua.LValue) {
		if _, ok := k.(lua.LNumber); !ok {
			return
		}
		if t, ok := v.(*lua.LTable); ok {
			fn(t)
		}
	})
}

// compile converts all collected Lua data into a GameDefinition.
func compile(coll *collector) (*types.GameDefinition, error) {
	def := &types.GameDefinition{
		Enemies: map[string]types.EnemyDef{},
		Skills:  map[string]types.SkillDef{},
		Items:   map[string]types.ItemDef{},
	}

	if coll.game == nil {
		return nil, fmt.Errorf("no Game{} definition found")
	}
	def.Game = compileGame(coll.game)

	if coll.formulas == nil {
		return nil, fmt.Errorf("no Formulas{} definition found")
	}
	def.CombatFormulas = compileFormulas(coll.formulas)

	if coll.player == nil {
		return nil, fmt.Errorf("no Player{} definition found")
	}
	def.Player = compilePlayer(coll.player)

	for _, raw := range coll.stats {
		def.Stats = append(def.Stats, compileStat(raw))
	}
	for _, raw := range coll.derived {
		def.Derived = append(def.Derived, compileDerived(raw))
	}

	for _, raw := range coll.skills {
		if _, ok := def.Skills[raw.id]; ok {
			return nil, fmt.Errorf("duplicate skill %q", raw.id)
		}
		def.Skills[raw.id] = compileSkill(raw)
	}
	for _, raw := range coll.items {
		if _, ok := def.Items[raw.id]; ok {
			return nil, fmt.Errorf("duplicate item %q", raw.id)
		}
		def.Items[raw.id] = compileItem(raw)
	}
	for _, raw := range coll.enemies {
		if _, ok := def.Enemies[raw.id]; ok {
			return nil, fmt.Errorf("duplicate enemy %q", raw.id)
		}
		def.Enemies[raw.id] = compileEnemy(raw)
	}
	for _, raw := range coll.triggers {
		def.Triggers = append(def.Triggers, compileTrigger(raw))
	}

	return def, nil
}

func compileGame(tbl *lua.LTable) types.GameDef {
	return types.GameDef{
		Title:   getString(tbl, "title"),
		Author:  getString(tbl, "author"),
		Version: getString(tbl, "version"),
	}
}

func compileFormulas(tbl *lua.LTable) types.CombatFormulas {
	return types.CombatFormulas{
		PhysicalDamage: getString(tbl, "physicalDamage"),
		MagicDamage:    getString(tbl, "magicDamage"),
		CriticalCheck:  getString(tbl, "criticalCheck"),
		TurnOrder:      getString(tbl, "turnOrder"),
	}
}

func compilePlayer(tbl *lua.LTable) types.PlayerDef {
	return types.PlayerDef{
		Name:      getString(tbl, "name"),
		Level:     getInt(tbl, "level"),
		BaseStats: tableToStatBlock(getTable(tbl, "baseStats")),
		Skills:    tableToStringSlice(getTable(tbl, "skills")),
	}
}

func compileStat(raw rawDef) types.StatDef {
	return types.StatDef{
		ID:           raw.id,
		Name:         getString(raw.table, "name"),
		Abbreviation: getString(raw.table, "abbreviation"),
		Description:  getString(raw.table, "description"),
		Default:      getNumber(raw.table, "default"),
		Min:          getNumber(raw.table, "min"),
		Max:          getNumber(raw.table, "max"),
	}
}

func compileDerived(raw rawDef) types.DerivedStatDef {
	return types.DerivedStatDef{
		ID:      raw.id,
		Name:    getString(raw.table, "name"),
		Formula: getString(raw.table, "formula"),
	}
}

func compileSkill(raw rawDef) types.SkillDef {
	tbl := raw.table
	return types.SkillDef{
		ID:           raw.id,
		Name:         getString(tbl, "name"),
		Description:  getString(tbl, "description"),
		Type:         getString(tbl, "type"),
		MPCost:       getNumber(tbl, "mpCost"),
		HPCost:       getNumber(tbl, "hpCost"),
		Power:        getNumber(tbl, "power"),
		TargetAll:    getBool(tbl, "targetAll", false),
		BuffEffect:   compileModifier(getTable(tbl, "buffEffect")),
		DebuffEffect: compileModifier(getTable(tbl, "debuffEffect")),
	}
}

func compileItem(raw rawDef) types.ItemDef {
	tbl := raw.table
	return types.ItemDef{
		ID:          raw.id,
		Name:        getString(tbl, "name"),
		Description: getString(tbl, "description"),
		Effect:      getString(tbl, "effect"),
		Value:       getNumber(tbl, "value"),
		BuffEffect:  compileModifier(getTable(tbl, "buffEffect")),
	}
}

// compileModifier compiles a modifier table, or returns nil if absent.
func compileModifier(tbl *lua.LTable) *types.ModifierDef {
	if tbl == nil {
		return nil
	}
	mod := &types.ModifierDef{
		ID:          getString(tbl, "id"),
		Name:        getString(tbl, "name"),
		Description: getString(tbl, "description"),
		Duration:    getInt(tbl, "duration"),
		Stackable:   getBool(tbl, "stackable", false),
		MaxStacks:   getInt(tbl, "maxStacks"),
	}
	eachArrayTable(getTable(tbl, "effects"), func(t *lua.LTable) {
		mod.Effects = append(mod.Effects, types.ModifierEffect{
			Stat:      getString(t, "stat"),
			ValueType: getString(t, "type"),
			Value:     getNumber(t, "value"),
		})
	})
	return mod
}

func compileEnemy(raw rawDef) types.EnemyDef {
	tbl := raw.table
	enemy := types.EnemyDef{
		ID:        raw.id,
		Name:      getString(tbl, "name"),
		Level:     getInt(tbl, "level"),
		BaseStats: tableToStatBlock(getTable(tbl, "baseStats")),
		Skills:    tableToStringSlice(getTable(tbl, "skills")),
		Exp:       getNumber(tbl, "exp"),
		Gold:      getNumber(tbl, "gold"),
	}
	eachArrayTable(getTable(tbl, "drops"), func(t *lua.LTable) {
		enemy.Drops = append(enemy.Drops, types.DropDef{
			ItemID: getString(t, "itemId"),
			Count:  getInt(t, "count"),
			Chance: getNumber(t, "chance"),
		})
	})
	if aiTbl := getTable(tbl, "ai"); aiTbl != nil {
		enemy.AI = &types.AIConfig{
			Behavior:        getString(aiTbl, "behavior"),
			HealThreshold:   getNumber(aiTbl, "healThreshold"),
			DefendThreshold: getNumber(aiTbl, "defendThreshold"),
			PreferTargets:   getString(aiTbl, "preferTargets"),
			SkillPriority:   tableToStringSlice(getTable(aiTbl, "skillPriority")),
		}
	}
	return enemy
}

func compileTrigger(raw rawDef) types.TriggerDef {
	trig := types.TriggerDef{
		ID:        raw.id,
		Condition: getString(raw.table, "condition"),
		Once:      getBool(raw.table, "once", false),
		MaxFires:  getInt(raw.table, "maxFires"),
	}
	if actTbl := getTable(raw.table, "action"); actTbl != nil {
		trig.Action = compileTriggerAction(actTbl)
	}
	return trig
}

func compileTriggerAction(tbl *lua.LTable) types.TriggerAction {
	act := types.TriggerAction{
		Type:     getString(tbl, "type"),
		TargetID: getString(tbl, "targetId"),
		EnemyID:  getString(tbl, "enemyId"),
		Amount:   getNumber(tbl, "amount"),
	}
	if dlgTbl := getTable(tbl, "dialog"); dlgTbl != nil {
		act.Dialog = compileDialog(dlgTbl)
	}
	if modTbl := getTable(tbl, "modifier"); modTbl != nil {
		act.Modifier = compileModifier(modTbl)
	}
	eachArrayTable(getTable(tbl, "actions"), func(t *lua.LTable) {
		act.Actions = append(act.Actions, compileTriggerAction(t))
	})
	return act
}

func compileDialog(tbl *lua.LTable) *types.DialogDef {
	dlg := &types.DialogDef{
		Speaker: getString(tbl, "speaker"),
		Text:    getString(tbl, "text"),
	}
	eachArrayTable(getTable(tbl, "choices"), func(t *lua.LTable) {
		choice := types.DialogChoice{Text: getString(t, "text")}
		if actTbl := getTable(t, "action"); actTbl != nil {
			action := compileTriggerAction(actTbl)
			choice.Action = &action
		}
		dlg.Choices = append(dlg.Choices, choice)
	})
	return dlg
}

// sortedLuaFiles returns .lua files with game.lua first and the rest sorted
// alphabetically.
func sortedLuaFiles(files []string) []string {
	var gameFile string
	var others []string
	for _, f := range files {
		if f == "game.lua" {
			gameFile = f
		} else {
			others = append(others, f)
		}
	}
	sort.Strings(others)
	if gameFile != "" {
		return append([]string{gameFile}, others...)
	}
	return others
}
