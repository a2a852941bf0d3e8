// internal/room/options.go
package room

import (
	"fmt"
	"math"

	"github.com/jason-s-yu/trickhouse/internal/game"
	"github.com/jason-s-yu/trickhouse/internal/game/bridge"
	"github.com/jason-s-yu/trickhouse/internal/game/skitgubbe"
	"github.com/jason-s-yu/trickhouse/internal/game/whist"
)

// Options holds the per-variant settings a room is created with. Only the block for the
// room's variant is used.
type Options struct {
	Whist     whist.Options     `json:"whist"`
	Bridge    bridge.Options    `json:"bridge"`
	Skitgubbe skitgubbe.Options `json:"skitgubbe"`
}

// DefaultOptions returns the defaults for every variant.
func DefaultOptions() Options {
	return Options{
		Whist:     whist.DefaultOptions(),
		Bridge:    bridge.DefaultOptions(),
		Skitgubbe: skitgubbe.DefaultOptions(),
	}
}

// Update applies the settings in newOpts to the block for variant. Keys that are absent
// or null keep their current value.
func (o *Options) Update(variant game.Variant, newOpts map[string]interface{}) error {
	assignInt := func(field *int, key string, minVal int) error {
		val, exists := newOpts[key]
		if !exists || val == nil {
			return nil
		}
		var n int
		switch v := val.(type) {
		case float64:
			// JSON numbers decode as float64
			if v != math.Trunc(v) {
				return fmt.Errorf("%s must be a whole number", key)
			}
			n = int(v)
		case int:
			n = v
		default:
			return fmt.Errorf("invalid type for %s", key)
		}
		if n < minVal {
			return fmt.Errorf("%s must be at least %d", key, minVal)
		}
		*field = n
		return nil
	}

	assignString := func(key string, allowed ...string) (string, bool, error) {
		val, exists := newOpts[key]
		if !exists || val == nil {
			return "", false, nil
		}
		s, ok := val.(string)
		if !ok {
			return "", false, fmt.Errorf("invalid type for %s", key)
		}
		for _, a := range allowed {
			if s == a {
				return s, true, nil
			}
		}
		return "", false, fmt.Errorf("%s must be one of %v", key, allowed)
	}

	switch variant {
	case game.VariantWhist:
		if err := assignInt(&o.Whist.HandsPerGame, "handsPerGame", 1); err != nil {
			return err
		}
		tb, ok, err := assignString("tieBreak", string(whist.TieBreakLastTrick), string(whist.TieBreakNone))
		if err != nil {
			return err
		}
		if ok {
			o.Whist.TieBreak = whist.TieBreak(tb)
		}

	case game.VariantBridge:
		if err := assignInt(&o.Bridge.HandsPerGame, "handsPerGame", 1); err != nil {
			return err
		}
		po, ok, err := assignString("passedOut", string(bridge.PassedOutRedeal), string(bridge.PassedOutScore))
		if err != nil {
			return err
		}
		if ok {
			o.Bridge.PassedOut = bridge.PassedOutPolicy(po)
		}

	case game.VariantSkitgubbe:
		if err := assignInt(&o.Skitgubbe.HandSize, "handSize", 1); err != nil {
			return err
		}
		if err := assignInt(&o.Skitgubbe.MaxShedMoves, "maxShedMoves", 1); err != nil {
			return err
		}

	default:
		return fmt.Errorf("unknown variant %q", variant)
	}
	return nil
}

// ParseOptions returns a copy of current with newOpts applied.
func ParseOptions(variant game.Variant, newOpts map[string]interface{}, current Options) (Options, error) {
	opts := current
	err := opts.Update(variant, newOpts)
	return opts, err
}
