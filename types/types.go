// Package types defines the shared data structures for the BattleCore engine.
// This package contains only type definitions — no logic, no methods.
// JSON tags follow the game-definition document's camelCase field names.
package types

// StatBlock maps stat identifiers to numeric values. Identifiers are declared
// by game content; there is no fixed schema.
type StatBlock map[string]float64

// StatDef declares a primary stat.
type StatDef struct {
	ID           string  `json:"id"`
	Name         string  `json:"name"`
	Abbreviation string  `json:"abbreviation,omitempty"`
	Description  string  `json:"description,omitempty"`
	Default      float64 `json:"default"`
	Min          float64 `json:"min"`
	Max          float64 `json:"max"`
}

// DerivedStatDef declares a stat computed from a formula. Formulas may
// reference primary stats, Level, and derived stats declared earlier.
type DerivedStatDef struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Formula string `json:"formula"`
}

// CombatFormulas holds the four game-declared combat formula strings.
type CombatFormulas struct {
	PhysicalDamage string `json:"physicalDamage"`
	MagicDamage    string `json:"magicDamage"`
	CriticalCheck  string `json:"criticalCheck"`
	TurnOrder      string `json:"turnOrder"`
}

// ModifierEffect is a single stat adjustment inside a modifier.
// ValueType is "flat" or "percent".
type ModifierEffect struct {
	Stat      string  `json:"stat"`
	ValueType string  `json:"type"`
	Value     float64 `json:"value"`
}

// ModifierDef is a buff/debuff/equipment modifier template.
// Duration is in turns; 0 means permanent.
type ModifierDef struct {
	ID          string           `json:"id"`
	Name        string           `json:"name"`
	Description string           `json:"description,omitempty"`
	Effects     []ModifierEffect `json:"effects"`
	Duration    int              `json:"duration,omitempty"`
	Stackable   bool             `json:"stackable,omitempty"`
	MaxStacks   int              `json:"maxStacks,omitempty"` // 0 = unbounded
}

// SkillDef declares a usable skill.
// Type is one of: physical, magic, healing, buff, debuff, defense, special.
type SkillDef struct {
	ID           string       `json:"id"`
	Name         string       `json:"name"`
	Description  string       `json:"description,omitempty"`
	Type         string       `json:"type"`
	MPCost       float64      `json:"mpCost"`
	HPCost       float64      `json:"hpCost,omitempty"`
	Power        float64      `json:"power,omitempty"`
	TargetAll    bool         `json:"targetAll,omitempty"`
	BuffEffect   *ModifierDef `json:"buffEffect,omitempty"`
	DebuffEffect *ModifierDef `json:"debuffEffect,omitempty"`
}

// ItemDef declares a usable item.
// Effect is one of: healHp, healMp, revive, buff, damage, cure, none.
type ItemDef struct {
	ID          string       `json:"id"`
	Name        string       `json:"name"`
	Description string       `json:"description,omitempty"`
	Effect      string       `json:"effect"`
	Value       float64      `json:"value,omitempty"`
	BuffEffect  *ModifierDef `json:"buffEffect,omitempty"`
}

// DropDef is one entry in an enemy's drop table.
type DropDef struct {
	ItemID string  `json:"itemId"`
	Count  int     `json:"count"`
	Chance float64 `json:"chance"` // percentage [0,100]
}

// AIConfig declares an enemy's decision behavior.
// Behavior is one of: aggressive, defensive, balanced, random, scripted.
// PreferTargets is one of: weakest, strongest, random.
type AIConfig struct {
	Behavior        string   `json:"behavior"`
	HealThreshold   float64  `json:"healThreshold,omitempty"`   // HP% at or below which to heal
	DefendThreshold float64  `json:"defendThreshold,omitempty"` // HP% at or below which to defend
	PreferTargets   string   `json:"preferTargets,omitempty"`
	SkillPriority   []string `json:"skillPriority,omitempty"`
}

// EnemyDef declares an enemy combatant.
type EnemyDef struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Level     int       `json:"level"`
	BaseStats StatBlock `json:"baseStats"`
	Skills    []string  `json:"skills,omitempty"`
	Drops     []DropDef `json:"drops,omitempty"`
	Exp       float64   `json:"exp"`
	Gold      float64   `json:"gold,omitempty"`
	AI        *AIConfig `json:"ai,omitempty"`
}

// PlayerDef declares the player character.
type PlayerDef struct {
	Name      string    `json:"name"`
	Level     int       `json:"level"`
	BaseStats StatBlock `json:"baseStats"`
	Skills    []string  `json:"skills,omitempty"`
}

// DialogChoice is one selectable option on a dialog.
type DialogChoice struct {
	Text   string         `json:"text"`
	Action *TriggerAction `json:"action,omitempty"`
}

// DialogDef is an interstitial dialog shown mid-battle.
type DialogDef struct {
	Speaker string         `json:"speaker,omitempty"`
	Text    string         `json:"text"`
	Choices []DialogChoice `json:"choices,omitempty"`
}

// TriggerAction is the declarative action fired by a battle trigger.
// Type is one of: dialog, spawn, buff, heal, damage, flee, transform, multi.
type TriggerAction struct {
	Type     string          `json:"type"`
	TargetID string          `json:"targetId,omitempty"` // empty = the currently acting combatant
	Dialog   *DialogDef      `json:"dialog,omitempty"`
	EnemyID  string          `json:"enemyId,omitempty"` // spawn/transform: enemy definition id
	Modifier *ModifierDef    `json:"modifier,omitempty"`
	Amount   float64         `json:"amount,omitempty"`  // heal/damage
	Actions  []TriggerAction `json:"actions,omitempty"` // multi
}

// TriggerDef declares a mid-battle event: a condition formula checked at
// turn start, and the action to fire when it holds.
type TriggerDef struct {
	ID        string        `json:"id"`
	Condition string        `json:"condition"`
	Once      bool          `json:"once,omitempty"`
	MaxFires  int           `json:"maxFires,omitempty"` // 0 = unlimited (unless Once)
	Action    TriggerAction `json:"action"`
}

// GameDef holds game metadata.
type GameDef struct {
	Title   string `json:"title"`
	Author  string `json:"author,omitempty"`
	Version string `json:"version,omitempty"`
}

// GameDefinition is the complete compiled game-content document.
type GameDefinition struct {
	Game           GameDef             `json:"game"`
	Stats          []StatDef           `json:"stats"`
	Derived        []DerivedStatDef    `json:"derived"`
	CombatFormulas CombatFormulas      `json:"combatFormulas"`
	Player         PlayerDef           `json:"player"`
	Enemies        map[string]EnemyDef `json:"enemies"`
	Skills         map[string]SkillDef `json:"skills"`
	Items          map[string]ItemDef  `json:"items"`
	Triggers       []TriggerDef        `json:"triggers,omitempty"`
}

// CombatAction is a selected action awaiting execution.
// Type is one of: attack, skill, item, defend, flee.
type CombatAction struct {
	Type      string   `json:"type"`
	ActorID   string   `json:"actorId"`
	SkillID   string   `json:"skillId,omitempty"`
	ItemID    string   `json:"itemId,omitempty"`
	TargetIDs []string `json:"targetIds,omitempty"`
}

// ActionEffect records a single per-target outcome of an executed action.
// Type is one of: damage, heal, buff, debuff, revive, cure, defend.
type ActionEffect struct {
	TargetID     string  `json:"targetId"`
	Type         string  `json:"type"`
	Value        float64 `json:"value,omitempty"`
	IsCritical   bool    `json:"isCritical,omitempty"`
	StatAffected string  `json:"statAffected,omitempty"`
}

// ActionResult is the outcome of executing a skill or item.
type ActionResult struct {
	Success       bool           `json:"success"`
	Message       string         `json:"message"`
	Effects       []ActionEffect `json:"effects,omitempty"`
	KilledTargets []string       `json:"killedTargets,omitempty"`
}

// BattleRewards holds the spoils of a victorious battle.
type BattleRewards struct {
	Exp   float64   `json:"exp"`
	Gold  float64   `json:"gold"`
	Drops []DropDef `json:"drops,omitempty"` // merged by item id, counts summed, already rolled
}

// SurvivorSummary describes a living player combatant at battle end.
type SurvivorSummary struct {
	ID        string  `json:"id"`
	Name      string  `json:"name"`
	CurrentHP float64 `json:"currentHp"`
	MaxHP     float64 `json:"maxHp"`
}

// BattleResult is created exactly once, when victory or defeat is first
// detected.
type BattleResult struct {
	Victory   bool              `json:"victory"`
	Rewards   *BattleRewards    `json:"rewards,omitempty"`
	Survivors []SurvivorSummary `json:"survivors,omitempty"`
	Turns     int               `json:"turns"`
}
