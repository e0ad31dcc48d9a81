package loader

import (
	lua "github.com/yuin/gopher-lua"
)

// registerAPI registers all Lua constructors and helpers as globals.
func registerAPI(L *lua.LState, coll *collector) {
	registerConstructors(L, coll)
	registerModifierHelpers(L)
	registerActionHelpers(L)
}

func registerConstructors(L *lua.LState, coll *collector) {
	// Game { title = "...", ... }
	L.SetGlobal("Game", L.NewFunction(func(L *lua.LState) int {
		coll.game = L.CheckTable(1)
		return 0
	}))

	// Formulas { physicalDamage = "...", ... }
	L.SetGlobal("Formulas", L.NewFunction(func(L *lua.LState) int {
		coll.formulas = L.CheckTable(1)
		return 0
	}))

	// Player { name = "...", level = 1, baseStats = {...}, skills = {...} }
	L.SetGlobal("Player", L.NewFunction(func(L *lua.LState) int {
		coll.player = L.CheckTable(1)
		return 0
	}))

	// Stat "id" { ... } — curried: Stat("id") returns a function that takes
	// a table. The remaining constructors follow the same shape.
	L.SetGlobal("Stat", curried(L, func(id string, tbl *lua.LTable) {
		coll.stats = append(coll.stats, rawDef{id: id, table: tbl})
	}))

	// Derived "id" { name = "...", formula = "..." }
	L.SetGlobal("Derived", curried(L, func(id string, tbl *lua.LTable) {
		coll.derived = append(coll.derived, rawDef{id: id, table: tbl})
	}))

	// Skill "id" { ... }
	L.SetGlobal("Skill", curried(L, func(id string, tbl *lua.LTable) {
		coll.skills = append(coll.skills, rawDef{id: id, table: tbl})
	}))

	// Item "id" { ... }
	L.SetGlobal("Item", curried(L, func(id string, tbl *lua.LTable) {
		coll.items = append(coll.items, rawDef{id: id, table: tbl})
	}))

	// Enemy "id" { ... }
	L.SetGlobal("Enemy", curried(L, func(id string, tbl *lua.LTable) {
		coll.enemies = append(coll.enemies, rawDef{id: id, table: tbl})
	}))

	// Trigger "id" { condition = "...", action = ... }
	L.SetGlobal("Trigger", curried(L, func(id string, tbl *lua.LTable) {
		coll.triggers = append(coll.triggers, rawDef{id: id, table: tbl})
	}))
}

// curried builds a two-stage constructor: the outer call takes the id, the
// returned function takes the definition table.
func curried(L *lua.LState, collect func(id string, tbl *lua.LTable)) *lua.LFunction {
	return L.NewFunction(func(L *lua.LState) int {
		id := L.CheckString(1)
		L.Push(L.NewFunction(func(L *lua.LState) int {
			collect(id, L.CheckTable(1))
			return 0
		}))
		return 1
	})
}

func registerModifierHelpers(L *lua.LState) {
	// Modifier { id = "...", effects = {...}, duration = 3 } — pass-through,
	// returns the table.
	L.SetGlobal("Modifier", L.NewFunction(func(L *lua.LState) int {
		tbl := L.CheckTable(1)
		L.Push(tbl)
		return 1
	}))

	// Flat("stat", value)
	L.SetGlobal("Flat", L.NewFunction(func(L *lua.LState) int {
		stat := L.CheckString(1)
		value := L.CheckNumber(2)
		tbl := L.NewTable()
		tbl.RawSetString("stat", lua.LString(stat))
		tbl.RawSetString("type", lua.LString("flat"))
		tbl.RawSetString("value", value)
		L.Push(tbl)
		return 1
	}))

	// Percent("stat", value)
	L.SetGlobal("Percent", L.NewFunction(func(L *lua.LState) int {
		stat := L.CheckString(1)
		value := L.CheckNumber(2)
		tbl := L.NewTable()
		tbl.RawSetString("stat", lua.LString(stat))
		tbl.RawSetString("type", lua.LString("percent"))
		tbl.RawSetString("value", value)
		L.Push(tbl)
		return 1
	}))

	// Drop("itemId", count, chance)
	L.SetGlobal("Drop", L.NewFunction(func(L *lua.LState) int {
		itemID := L.CheckString(1)
		count := L.CheckNumber(2)
		chance := L.CheckNumber(3)
		tbl := L.NewTable()
		tbl.RawSetString("itemId", lua.LString(itemID))
		tbl.RawSetString("count", count)
		tbl.RawSetString("chance", chance)
		L.Push(tbl)
		return 1
	}))
}

func registerActionHelpers(L *lua.LState) {
	// Dialog { speaker = "...", text = "...", choices = {...} }
	L.SetGlobal("Dialog", L.NewFunction(func(L *lua.LState) int {
		dialog := L.CheckTable(1)
		tbl := L.NewTable()
		tbl.RawSetString("type", lua.LString("dialog"))
		tbl.RawSetString("dialog", dialog)
		L.Push(tbl)
		return 1
	}))

	// Choice("text", action) — action optional.
	L.SetGlobal("Choice", L.NewFunction(func(L *lua.LState) int {
		text := L.CheckString(1)
		tbl := L.NewTable()
		tbl.RawSetString("text", lua.LString(text))
		if action, ok := L.Get(2).(*lua.LTable); ok {
			tbl.RawSetString("action", action)
		}
		L.Push(tbl)
		return 1
	}))

	// Spawn("enemyId")
	L.SetGlobal("Spawn", L.NewFunction(func(L *lua.LState) int {
		enemyID := L.CheckString(1)
		tbl := L.NewTable()
		tbl.RawSetString("type", lua.LString("spawn"))
		tbl.RawSetString("enemyId", lua.LString(enemyID))
		L.Push(tbl)
		return 1
	}))

	// Buff("targetId", modifier) — empty target means the acting combatant.
	L.SetGlobal("Buff", L.NewFunction(func(L *lua.LState) int {
		targetID := L.CheckString(1)
		modifier := L.CheckTable(2)
		tbl := L.NewTable()
		tbl.RawSetString("type", lua.LString("buff"))
		tbl.RawSetString("targetId", lua.LString(targetID))
		tbl.RawSetString("modifier", modifier)
		L.Push(tbl)
		return 1
	}))

	// Heal("targetId", amount)
	L.SetGlobal("Heal", L.NewFunction(func(L *lua.LState) int {
		targetID := L.CheckString(1)
		amount := L.CheckNumber(2)
		tbl := L.NewTable()
		tbl.RawSetString("type", lua.LString("heal"))
		tbl.RawSetString("targetId", lua.LString(targetID))
		tbl.RawSetString("amount", amount)
		L.Push(tbl)
		return 1
	}))

	// Damage("targetId", amount)
	L.SetGlobal("Damage", L.NewFunction(func(L *lua.LState) int {
		targetID := L.CheckString(1)
		amount := L.CheckNumber(2)
		tbl := L.NewTable()
		tbl.RawSetString("type", lua.LString("damage"))
		tbl.RawSetString("targetId", lua.LString(targetID))
		tbl.RawSetString("amount", amount)
		L.Push(tbl)
		return 1
	}))

	// Flee("targetId") — target optional, defaults to the acting combatant.
	L.SetGlobal("Flee", L.NewFunction(func(L *lua.LState) int {
		targetID := L.OptString(1, "")
		tbl := L.NewTable()
		tbl.RawSetString("type", lua.LString("flee"))
		tbl.RawSetString("targetId", lua.LString(targetID))
		L.Push(tbl)
		return 1
	}))

	// Transform("targetId", "enemyId")
	L.SetGlobal("Transform", L.NewFunction(func(L *lua.LState) int {
		targetID := L.CheckString(1)
		enemyID := L.CheckString(2)
		tbl := L.NewTable()
		tbl.RawSetString("type", lua.LString("transform"))
		tbl.RawSetString("targetId", lua.LString(targetID))
		tbl.RawSetString("enemyId", lua.LString(enemyID))
		L.Push(tbl)
		return 1
	}))

	// Multi(action1, action2, ...)
	L.SetGlobal("Multi", L.NewFunction(func(L *lua.LState) int {
		actions := L.NewTable()
		for i := 1; i <= L.GetTop(); i++ {
			actions.Append(L.CheckTable(i))
		}
		tbl := L.NewTable()
		tbl.RawSetString("type", lua.LString("multi"))
		tbl.RawSetString("actions", actions)
		L.Push(tbl)
		return 1
	}))
}
