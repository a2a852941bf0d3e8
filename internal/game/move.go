// internal/game/move.go
package game

import (
	"fmt"

	"github.com/jason-s-yu/trickhouse/internal/cards"
	"github.com/jason-s-yu/trickhouse/internal/rules"
	"github.com/jason-s-yu/trickhouse/internal/seat"
)

// MoveType names an action a seat can submit.
type MoveType string

const (
	MovePlay       MoveType = "play"        // trick-taking card play
	MoveBid        MoveType = "bid"         // bridge auction
	MovePass       MoveType = "pass"        // bridge auction
	MoveDouble     MoveType = "double"      // bridge auction
	MoveRedouble   MoveType = "redouble"    // bridge auction
	MoveCreateRule MoveType = "create_rule" // whist hand winner authors a house rule
	MoveSkipRule   MoveType = "skip_rule"   // whist hand winner declines to author one
	MoveDuel       MoveType = "duel"        // skitgubbe phase 1: play a hand card
	MoveDraw       MoveType = "draw"        // skitgubbe phase 1: play the top of the stock blind
	MoveShed       MoveType = "shed"        // skitgubbe phase 2: play onto the pile
	MovePickup     MoveType = "pickup"      // skitgubbe phase 2: take the pile
)

// Move is a request to act. Seat names the hand acted for and is only needed when a
// player acts for a seat it controls but does not occupy (the bridge dummy).
type Move struct {
	Type     MoveType    `json:"type"`
	Card     *cards.Card `json:"card,omitempty"`
	FaceDown bool        `json:"faceDown,omitempty"`
	Seat     *seat.Seat  `json:"seat,omitempty"`
	Bid      *Bid        `json:"bid,omitempty"`
	Rule     *rules.Rule `json:"rule,omitempty"`
}

// PlayMove, BidMove and friends build moves in code.
func PlayMove(c cards.Card, faceDown bool) Move {
	return Move{Type: MovePlay, Card: &c, FaceDown: faceDown}
}

func BidMove(level int, strain Strain) Move {
	return Move{Type: MoveBid, Bid: &Bid{Level: level, Strain: strain}}
}

func DuelMove(c cards.Card) Move { return Move{Type: MoveDuel, Card: &c} }
func ShedMove(c cards.Card) Move { return Move{Type: MoveShed, Card: &c} }
func SimpleMove(t MoveType) Move { return Move{Type: t} }

// For returns a copy of m acting for s.
func (m Move) For(s seat.Seat) Move {
	m.Seat = &s
	return m
}

// Actor resolves the seat the move is made for.
func (m Move) Actor(submitter seat.Seat) seat.Seat {
	if m.Seat != nil {
		return *m.Seat
	}
	return submitter
}

// Validate checks the shape of the move before any engine sees it.
func (m Move) Validate() error {
	if m.Seat != nil && !m.Seat.Valid() {
		return Errorf(CodeValidation, "unknown seat")
	}
	switch m.Type {
	case MovePlay, MoveDuel, MoveShed:
		if m.Card == nil {
			return Errorf(CodeValidation, "%s requires a card", m.Type)
		}
		if !m.Card.Valid() {
			return Errorf(CodeValidation, "invalid card")
		}
	case MoveBid:
		if m.Bid == nil || !m.Bid.Valid() {
			return Errorf(CodeValidation, "bid requires a level 1-7 and a strain")
		}
	case MoveCreateRule:
		if m.Rule == nil {
			return Errorf(CodeValidation, "create_rule requires a rule")
		}
		if err := m.Rule.Validate(); err != nil {
			return Errorf(CodeValidation, "%v", err)
		}
	case MovePass, MoveDouble, MoveRedouble, MoveSkipRule, MoveDraw, MovePickup:
	case "":
		return Errorf(CodeValidation, "move type is required")
	default:
		return Errorf(CodeValidation, "unknown move type %q", m.Type)
	}
	if m.FaceDown && m.Type != MovePlay {
		return Errorf(CodeValidation, "only card plays can be face-down")
	}
	return nil
}

func (m Move) String() string {
	switch {
	case m.Card != nil && m.FaceDown:
		return fmt.Sprintf("%s %s (face-down)", m.Type, m.Card)
	case m.Card != nil:
		return fmt.Sprintf("%s %s", m.Type, m.Card)
	case m.Bid != nil:
		return fmt.Sprintf("%s %s", m.Type, m.Bid)
	case m.Rule != nil:
		return fmt.Sprintf("%s %q", m.Type, m.Rule.Name)
	}
	return string(m.Type)
}
