package room

import (
	"encoding/json"
	"testing"

	"github.com/jason-s-yu/trickhouse/internal/game"
	"github.com/jason-s-yu/trickhouse/internal/game/bridge"
	"github.com/jason-s-yu/trickhouse/internal/game/skitgubbe"
	"github.com/jason-s-yu/trickhouse/internal/game/whist"
	"github.com/jason-s-yu/trickhouse/internal/seat"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOptionsUpdate(t *testing.T) {
	opts := DefaultOptions()

	// values as they arrive from a decoded JSON body
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(`{"handsPerGame": 3, "tieBreak": "none"}`), &body))
	require.NoError(t, opts.Update(game.VariantWhist, body))
	assert.Equal(t, 3, opts.Whist.HandsPerGame)
	assert.Equal(t, whist.TieBreakNone, opts.Whist.TieBreak)
	assert.Equal(t, bridge.DefaultOptions(), opts.Bridge, "other variants untouched")

	require.NoError(t, opts.Update(game.VariantBridge, map[string]interface{}{"passedOut": "score", "handsPerGame": nil}))
	assert.Equal(t, bridge.PassedOutScore, opts.Bridge.PassedOut)
	assert.Equal(t, 4, opts.Bridge.HandsPerGame, "null keeps the old value")

	require.NoError(t, opts.Update(game.VariantSkitgubbe, map[string]interface{}{"handSize": 4, "maxShedMoves": 50.0}))
	assert.Equal(t, skitgubbe.Options{HandSize: 4, MaxShedMoves: 50}, opts.Skitgubbe)

	assert.Error(t, opts.Update(game.VariantWhist, map[string]interface{}{"handsPerGame": "five"}))
	assert.Error(t, opts.Update(game.VariantWhist, map[string]interface{}{"handsPerGame": 0}))
	assert.Error(t, opts.Update(game.VariantWhist, map[string]interface{}{"handsPerGame": 2.5}))
	assert.Equal(t, 3, opts.Whist.HandsPerGame, "rejected values leave the option alone")
	assert.Error(t, opts.Update(game.VariantWhist, map[string]interface{}{"tieBreak": "sudden_death"}))
	assert.Error(t, opts.Update(game.VariantBridge, map[string]interface{}{"passedOut": true}))
	assert.Error(t, opts.Update(game.Variant("euchre"), map[string]interface{}{}))
}

func TestParseOptionsLeavesCurrentUntouched(t *testing.T) {
	current := DefaultOptions()
	parsed, err := ParseOptions(game.VariantWhist, map[string]interface{}{"handsPerGame": 9}, current)
	require.NoError(t, err)
	assert.Equal(t, 9, parsed.Whist.HandsPerGame)
	assert.Equal(t, 5, current.Whist.HandsPerGame)
}

func TestNewEngine(t *testing.T) {
	e, err := NewEngine(game.VariantWhist, seat.All, DefaultOptions())
	require.NoError(t, err)
	assert.Equal(t, game.VariantWhist, e.Variant())

	_, err = NewEngine(game.VariantBridge, []seat.Seat{seat.North, seat.South}, DefaultOptions())
	assert.Equal(t, game.CodeValidation, game.CodeOf(err))
	_, err = NewEngine(game.VariantBridge, []seat.Seat{seat.North, seat.North, seat.South, seat.West}, DefaultOptions())
	assert.Equal(t, game.CodeValidation, game.CodeOf(err))

	e, err = NewEngine(game.VariantSkitgubbe, []seat.Seat{seat.West, seat.North, seat.South}, DefaultOptions())
	require.NoError(t, err)
	assert.Equal(t, []seat.Seat{seat.North, seat.South, seat.West}, e.Seats(), "clockwise from north")

	_, err = NewEngine(game.VariantSkitgubbe, []seat.Seat{seat.North, seat.North}, DefaultOptions())
	assert.Equal(t, game.CodeValidation, game.CodeOf(err))

	_, err = NewEngine(game.Variant("euchre"), seat.All, DefaultOptions())
	assert.Equal(t, game.CodeValidation, game.CodeOf(err))
}

func TestSnapshotRoundTrip(t *testing.T) {
	e, err := NewEngine(game.VariantSkitgubbe, []seat.Seat{seat.North, seat.South}, DefaultOptions())
	require.NoError(t, err)
	_, _, err = e.Deal(9)
	require.NoError(t, err)
	state := e.AdminSnapshot()

	blob, err := EncodeSnapshot(game.VariantSkitgubbe, state)
	require.NoError(t, err)
	snap, err := DecodeSnapshot(blob)
	require.NoError(t, err)
	assert.Equal(t, SnapshotVersion, snap.Version)
	assert.Equal(t, game.VariantSkitgubbe, snap.Variant)
	assert.Equal(t, state.Hands, snap.State.Hands)
	assert.Equal(t, state.Stock, snap.State.Stock)
	assert.Equal(t, state.Seed, snap.State.Seed)

	_, err = DecodeSnapshot([]byte(`{"version": 99, "variant": "whist", "state": {}}`))
	assert.Error(t, err)
	_, err = DecodeSnapshot([]byte(`not json`))
	assert.Error(t, err)
}
