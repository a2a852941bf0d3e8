// internal/room/snapshot.go
package room

import (
	"encoding/json"
	"fmt"

	"github.com/jason-s-yu/trickhouse/internal/game"
)

// SnapshotVersion is the current layout of an encoded room snapshot. Decoders accept
// every version listed in upgrades; bump it together with a new upgrade step.
const SnapshotVersion = 1

// Snapshot is the opaque, versioned state blob stored per room id.
type Snapshot struct {
	Version int            `json:"version"`
	Variant game.Variant   `json:"variant"`
	State   game.AdminView `json:"state"`
}

// upgrades rewrites an older raw snapshot into the next version, keyed by the version
// it upgrades from.
var upgrades = map[int]func(raw map[string]interface{}) (map[string]interface{}, error){}

// EncodeSnapshot serializes the full state of an engine.
func EncodeSnapshot(variant game.Variant, state game.AdminView) ([]byte, error) {
	return json.Marshal(Snapshot{
		Version: SnapshotVersion,
		Variant: variant,
		State:   state,
	})
}

// DecodeSnapshot parses a blob written by EncodeSnapshot, upgrading older versions.
func DecodeSnapshot(data []byte) (Snapshot, error) {
	var raw map[string]interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return Snapshot{}, fmt.Errorf("failed to parse snapshot: %w", err)
	}
	v, _ := raw["version"].(float64)
	version := int(v)
	if version < 1 || version > SnapshotVersion {
		return Snapshot{}, fmt.Errorf("unsupported snapshot version %d", version)
	}
	for version < SnapshotVersion {
		up, ok := upgrades[version]
		if !ok {
			return Snapshot{}, fmt.Errorf("no upgrade from snapshot version %d", version)
		}
		var err error
		if raw, err = up(raw); err != nil {
			return Snapshot{}, fmt.Errorf("failed to upgrade snapshot from version %d: %w", version, err)
		}
		version++
		raw["version"] = version
	}

	data, err := json.Marshal(raw)
	if err != nil {
		return Snapshot{}, err
	}
	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return Snapshot{}, fmt.Errorf("failed to decode snapshot: %w", err)
	}
	return snap, nil
}
