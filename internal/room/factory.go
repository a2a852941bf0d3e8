// internal/room/factory.go
package room

import (
	"github.com/jason-s-yu/trickhouse/internal/game"
	"github.com/jason-s-yu/trickhouse/internal/game/bridge"
	"github.com/jason-s-yu/trickhouse/internal/game/skitgubbe"
	"github.com/jason-s-yu/trickhouse/internal/game/whist"
	"github.com/jason-s-yu/trickhouse/internal/seat"
)

// NewEngine builds the engine for variant. Whist and bridge always seat all four
// compass positions; skitgubbe seats the given 2 to 4.
func NewEngine(variant game.Variant, seats []seat.Seat, opts Options) (game.Engine, error) {
	switch variant {
	case game.VariantWhist:
		if err := requireFullTable(variant, seats); err != nil {
			return nil, err
		}
		return whist.New(opts.Whist), nil
	case game.VariantBridge:
		if err := requireFullTable(variant, seats); err != nil {
			return nil, err
		}
		return bridge.New(opts.Bridge), nil
	case game.VariantSkitgubbe:
		return skitgubbe.New(orderSeats(seats), opts.Skitgubbe)
	}
	return nil, game.Errorf(game.CodeValidation, "unknown variant %q", variant)
}

func requireFullTable(variant game.Variant, seats []seat.Seat) error {
	if len(seats) != len(seat.All) {
		return game.Errorf(game.CodeValidation, "%s needs all 4 seats, got %d", variant, len(seats))
	}
	for _, s := range seat.All {
		if seat.Index(seats, s) < 0 {
			return game.Errorf(game.CodeValidation, "%s needs seat %s", variant, s)
		}
	}
	return nil
}

// orderSeats puts seats into clockwise table order. Invalid and repeated seats are kept
// for the engine to reject.
func orderSeats(seats []seat.Seat) []seat.Seat {
	out := make([]seat.Seat, 0, len(seats))
	for _, s := range seat.All {
		for _, x := range seats {
			if x == s {
				out = append(out, x)
			}
		}
	}
	for _, x := range seats {
		if !x.Valid() {
			out = append(out, x)
		}
	}
	return out
}
