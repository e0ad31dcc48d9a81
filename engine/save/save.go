// Package save implements JSON serialization and deserialization of battle
// state.
package save

import (
	"encoding/json"

	"github.com/nathoo/battlecore/engine"
	"github.com/nathoo/battlecore/types"
)

// SaveData is the JSON-serializable save format.
type SaveData struct {
	Version string             `json:"version"`
	Game    string             `json:"game"`
	Battle  engine.BattleState `json:"battle"`
}

// Save serializes a battle to JSON bytes.
func Save(b *engine.Battle, game types.GameDef) ([]byte, error) {
	data := SaveData{
		Version: game.Version,
		Game:    game.Title,
		Battle:  b.ExportState(),
	}
	return json.MarshalIndent(data, "", "  ")
}

// Load deserializes JSON bytes into SaveData.
func Load(data []byte) (*SaveData, error) {
	var sd SaveData
	if err := json.Unmarshal(data, &sd); err != nil {
		return nil, err
	}
	// Ensure collections are never nil after load.
	if sd.Battle.EnemyDefs == nil {
		sd.Battle.EnemyDefs = map[string]types.EnemyDef{}
	}
	if sd.Battle.Queue == nil {
		sd.Battle.Queue = []engine.TurnQueueEntry{}
	}
	if sd.Battle.Log == nil {
		sd.Battle.Log = []string{}
	}
	return &sd, nil
}

// Restore rebuilds a battle from loaded save data.
func Restore(def *types.GameDefinition, sd *SaveData) (*engine.Battle, error) {
	return engine.RestoreBattle(def, sd.Battle)
}
