// internal/game/engine.go
package game

import (
	"fmt"
	"strings"

	"github.com/jason-s-yu/trickhouse/internal/cards"
	"github.com/jason-s-yu/trickhouse/internal/seat"
)

// Variant tags which engine implementation a room runs.
type Variant string

const (
	VariantWhist     Variant = "whist"
	VariantBridge    Variant = "bridge"
	VariantSkitgubbe Variant = "skitgubbe"
)

// ParseVariant accepts the variant tag, case-insensitively. "shedding" is an alias for skitgubbe.
func ParseVariant(s string) (Variant, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "whist":
		return VariantWhist, nil
	case "bridge":
		return VariantBridge, nil
	case "skitgubbe", "shedding":
		return VariantSkitgubbe, nil
	}
	return "", fmt.Errorf("unknown variant %q", s)
}

// Phase is the state an engine's state machine is in. Each variant uses a subset.
type Phase string

const (
	PhaseWaiting    Phase = "waiting"
	PhaseDealing    Phase = "dealing"
	PhaseBidding    Phase = "bidding"
	PhasePlaying    Phase = "playing"
	PhaseTrickEnd   Phase = "trick_end"
	PhaseHandEnd    Phase = "hand_end"
	PhaseRuleCreate Phase = "rule_create"
	PhaseCollection Phase = "collection"
	PhaseShedding   Phase = "shedding"
	PhaseGameEnd    Phase = "game_end"
)

// Pause describes a completed unit of play the engine is holding on to until the
// orchestrator calls Advance. Engines never sleep; pacing belongs to the caller.
type Pause string

const (
	PauseNone  Pause = ""
	PauseTrick Pause = "trick" // a trick or duel resolved and is waiting to be archived
	PauseHand  Pause = "hand"  // a hand finished; the next deal waits for acknowledgement
	PauseGame  Pause = "game"  // terminal
)

// Deal is the outcome of dealing a hand.
type Deal struct {
	Trump *cards.Suit                `json:"trump,omitempty"`
	Hands map[seat.Seat][]cards.Card `json:"hands"`
	Stock []cards.Card               `json:"stock,omitempty"`
}

// Engine is the narrow contract every variant implements. Implementations are not safe
// for concurrent use; the orchestrator serializes all calls for a room.
//
// Apply is all-or-nothing: when it returns an error the engine state is unchanged.
type Engine interface {
	Variant() Variant
	Phase() Phase
	Seats() []seat.Seat
	HandNumber() int

	// Deal starts the game with the first hand. Later hands are dealt by Advance from
	// seeds derived from this one.
	Deal(seed int64) (Deal, []Event, error)

	// CurrentActor is the seat whose turn it is, false when nobody is to act (paused or
	// finished).
	CurrentActor() (seat.Seat, bool)
	// Controller returns the seat whose player submits moves for s. It is s itself
	// except for the bridge dummy, which its declarer controls.
	Controller(s seat.Seat) seat.Seat
	// SetBot marks a seat as bot- or human-controlled.
	SetBot(s seat.Seat, bot bool)

	LegalMoves(s seat.Seat) []Move
	// Apply executes m on behalf of submitter. m.Seat names the hand acted for and
	// defaults to the submitter.
	Apply(submitter seat.Seat, m Move) ([]Event, error)

	Pending() Pause
	Advance() ([]Event, error)

	// BotMove suggests a move for s, false when s has nothing to do.
	BotMove(s seat.Seat) (Move, bool)

	SnapshotFor(s seat.Seat) PlayerView
	AdminSnapshot() AdminView
}

// HandSeed derives the seed used for a given hand from the game seed.
func HandSeed(base int64, hand int) int64 {
	return base + int64(hand-1)
}
