package loader

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/nathoo/battlecore/types"
	lua "github.com/yuin/gopher-lua"
)

// collector accumulates Lua definitions during file execution.
type collector struct {
	game     *lua.LTable
	formulas *lua.LTable
	player   *lua.LTable
	stats    []rawDef
	derived  []rawDef
	skills   []rawDef
	items    []rawDef
	enemies  []rawDef
	triggers []rawDef
}

// Load reads a game definition from path. A path ending in .json, or a
// directory containing game.json, is decoded directly. Otherwise every .lua
// file in the directory is executed in a sandboxed VM (game.lua first, rest
// alphabetical) and the collected definitions are compiled. The VM is
// discarded after loading. Either way the result is validated before being
// returned.
func Load(path string) (*types.GameDefinition, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("reading game content %s: %w", path, err)
	}

	if !info.IsDir() {
		return loadJSON(path)
	}
	if jsonPath := filepath.Join(path, "game.json"); fileExists(jsonPath) {
		return loadJSON(jsonPath)
	}
	return loadLua(path)
}

// loadJSON decodes a complete game-definition document.
func loadJSON(path string) (*types.GameDefinition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	var def types.GameDefinition
	if err := json.Unmarshal(data, &def); err != nil {
		return nil, fmt.Errorf("decoding %s: %w", filepath.Base(path), err)
	}
	normalize(&def)

	if err := validate(&def); err != nil {
		return nil, err
	}
	return &def, nil
}

// loadLua executes all .lua files in dir and compiles the collected
// definitions.
func loadLua(dir string) (*types.GameDefinition, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading game directory %s: %w", dir, err)
	}

	var luaFiles []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".lua") {
			luaFiles = append(luaFiles, e.Name())
		}
	}
	if len(luaFiles) == 0 {
		return nil, fmt.Errorf("no game.json or .lua files found in %s", dir)
	}
	luaFiles = sortedLuaFiles(luaFiles)

	// Create sandboxed VM.
	L := lua.NewState(lua.Options{SkipOpenLibs: true})
	defer L.Close()

	openSafeLibs(L)
	sandbox(L)

	coll := &collector{}
	registerAPI(L, coll)

	for _, f := range luaFiles {
		path := filepath.Join(dir, f)
		if err := L.DoFile(path); err != nil {
			return nil, fmt.Errorf("executing %s: %w", f, err)
		}
	}

	def, err := compile(coll)
	if err != nil {
		return nil, fmt.Errorf("compiling game data: %w", err)
	}

	if err := validate(def); err != nil {
		return nil, err
	}
	return def, nil
}

// normalize fills in map-keyed ids and nil maps on a decoded document, so
// JSON content may omit redundant id fields inside keyed entries.
func normalize(def *types.GameDefinition) {
	if def.Enemies == nil {
		def.Enemies = map[string]types.EnemyDef{}
	}
	if def.Skills == nil {
		def.Skills = map[string]types.SkillDef{}
	}
	if def.Items == nil {
		def.Items = map[string]types.ItemDef{}
	}
	for id, e := range def.Enemies {
		if e.ID == "" {
			e.ID = id
			def.Enemies[id] = e
		}
	}
	for id, s := range def.Skills {
		if s.ID == "" {
			s.ID = id
			def.Skills[id] = s
		}
	}
	for id, it := range def.Items {
		if it.ID == "" {
			it.ID = id
			def.Items[id] = it
		}
	}
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// openSafeLibs opens only the safe subset of Lua standard libraries.
func openSafeLibs(L *lua.LState) {
	// Base library (print, type, tostring, tonumber, pairs, ipairs, etc.)
	lua.OpenBase(L)
	// Table library (table.insert, table.sort, etc.)
	lua.OpenTable(L)
	// String library (string.format, string.sub, etc.)
	lua.OpenString(L)
	// Math library (math.floor, math.max, etc.)
	lua.OpenMath(L)
}

// sandbox removes dangerous globals and functions.
func sandbox(L *lua.LState) {
	dangerous := []string{
		"dofile", "loadfile", "load", "loadstring",
		"rawset", "rawget", "rawequal",
		"collectgarbage",
	}
	for _, name := range dangerous {
		L.SetGlobal(name, lua.LNil)
	}

	// Remove math.randomseed to preserve determinism.
	if mathTbl := L.GetGlobal("math"); mathTbl != lua.LNil {
		if tbl, ok := mathTbl.(*lua.LTable); ok {
			tbl.RawSetString("randomseed", lua.LNil)
		}
	}
}
