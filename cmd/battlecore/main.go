// BattleCore is a deterministic, data-driven battle engine for turn-based RPGs.
// Usage: battlecore [--version] [--plain] [--script <file>] [--seed <n>]
// [--enemies <id,id,...>] [--trace] <game_directory>
package main

import (
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/nathoo/battlecore/cli"
	"github.com/nathoo/battlecore/engine"
	"github.com/nathoo/battlecore/loader"
	"github.com/nathoo/battlecore/tui"
	"github.com/nathoo/battlecore/types"
)

// Set via -ldflags at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	plain := false
	trace := false
	seed := time.Now().UnixNano()
	var gameDir string
	var scriptFile string
	var enemyList string

	args := os.Args[1:]
	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "--version":
			fmt.Printf("battlecore %s (commit %s, built %s)\n", version, commit, date)
			return
		case "--plain":
			plain = true
		case "--trace":
			trace = true
		case "--seed":
			if i+1 >= len(args) {
				fmt.Fprintf(os.Stderr, "--seed requires a number\n")
				os.Exit(1)
			}
			i++
			n, err := strconv.ParseInt(args[i], 10, 64)
			if err != nil {
				fmt.Fprintf(os.Stderr, "invalid seed %q\n", args[i])
				os.Exit(1)
			}
			seed = n
		case "--enemies":
			if i+1 >= len(args) {
				fmt.Fprintf(os.Stderr, "--enemies requires a comma-separated id list\n")
				os.Exit(1)
			}
			i++
			enemyList = args[i]
		case "--script":
			if i+1 >= len(args) {
				fmt.Fprintf(os.Stderr, "--script requires a file path\n")
				os.Exit(1)
			}
			i++
			scriptFile = args[i]
		default:
			if gameDir == "" {
				gameDir = args[i]
			}
		}
	}

	if gameDir == "" {
		fmt.Fprintf(os.Stderr, "Usage: battlecore [--version] [--plain] [--script <file>] [--seed <n>] [--enemies <id,...>] [--trace] <game_directory>\n")
		os.Exit(1)
	}

	// Load and validate game content (game.json or Lua scripts).
	def, err := loader.Load(gameDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading game: %v\n", err)
		os.Exit(1)
	}

	enemies := encounter(def.Enemies, enemyList)
	if len(enemies) == 0 {
		fmt.Fprintf(os.Stderr, "No enemies to fight: the game defines none and --enemies is empty\n")
		os.Exit(1)
	}

	b, err := engine.New(def, seed)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error building engine: %v\n", err)
		os.Exit(1)
	}
	if err := b.Initialize(enemies); err != nil {
		fmt.Fprintf(os.Stderr, "Error starting battle: %v\n", err)
		os.Exit(1)
	}
	b.Start()

	// Script mode: open file, force plain, echo commands.
	if scriptFile != "" {
		f, err := os.Open(scriptFile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error opening script: %v\n", err)
			os.Exit(1)
		}
		defer f.Close()
		printTitle(def.Game.Title, def.Game.Version, def.Game.Author)
		c := cli.New(b, def)
		c.In = f
		c.EchoInput = true
		c.Trace = trace
		c.Run()
		return
	}

	// Use plain CLI if --plain flag or stdout is not a terminal.
	if plain || !isTerminal() {
		printTitle(def.Game.Title, def.Game.Version, def.Game.Author)
		c := cli.New(b, def)
		c.Trace = trace
		c.Run()
		return
	}

	if err := tui.Run(b, def); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// encounter resolves the enemy lineup: an explicit --enemies list, or every
// defined enemy in sorted-id order.
func encounter(defs map[string]types.EnemyDef, list string) []string {
	if list != "" {
		var ids []string
		for _, id := range strings.Split(list, ",") {
			if id = strings.TrimSpace(id); id != "" {
				ids = append(ids, id)
			}
		}
		return ids
	}
	var ids []string
	for id := range defs {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func printTitle(title, ver, author string) {
	line := title
	if ver != "" {
		line += " v" + ver
	}
	if author != "" {
		line += " by " + author
	}
	fmt.Printf("%s\n\n", line)
}

// isTerminal returns true if stdout is a terminal (not piped/redirected).
func isTerminal() bool {
	fi, err := os.Stdout.Stat()
	if err != nil {
		return false
	}
	return fi.Mode()&os.ModeCharDevice != 0
}
