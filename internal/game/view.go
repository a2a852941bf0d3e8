// internal/game/view.go
package game

import (
	"github.com/jason-s-yu/trickhouse/internal/cards"
	"github.com/jason-s-yu/trickhouse/internal/rules"
	"github.com/jason-s-yu/trickhouse/internal/seat"
)

// SeatView is the public state of one seat.
type SeatView struct {
	Seat      seat.Seat `json:"seat"`
	Bot       bool      `json:"bot"`
	HandSize  int       `json:"handSize"`
	TricksWon int       `json:"tricksWon"`
	Collected int       `json:"collected,omitempty"`
	Out       bool      `json:"out,omitempty"`
}

// DuelView is the in-progress skitgubbe duel.
type DuelView struct {
	Leader        seat.Seat   `json:"leader"`
	LeaderCard    *cards.Card `json:"leaderCard,omitempty"`
	Responder     seat.Seat   `json:"responder"`
	ResponderCard *cards.Card `json:"responderCard,omitempty"`
	Winner        *seat.Seat  `json:"winner,omitempty"`
	Tied          bool        `json:"tied,omitempty"`
}

// TableView is the state every seat may see. Variant-specific fields are omitted when
// the variant does not use them.
type TableView struct {
	Variant      Variant        `json:"variant"`
	Phase        Phase          `json:"phase"`
	HandNumber   int            `json:"handNumber"`
	HandsPerGame int            `json:"handsPerGame,omitempty"`
	CurrentActor *seat.Seat     `json:"currentActor,omitempty"`
	Pending      Pause          `json:"pending,omitempty"`
	Trump        *cards.Suit    `json:"trump,omitempty"`
	Trick        *Trick         `json:"trick,omitempty"`
	LastTrick    *Trick         `json:"lastTrick,omitempty"`
	Seats        []SeatView     `json:"seats"`
	Scores       map[string]int `json:"scores,omitempty"`

	// whist
	Rules      []rules.Rule `json:"rules,omitempty"`
	HandWinner *seat.Seat   `json:"handWinner,omitempty"`

	// bridge
	Dealer        *seat.Seat     `json:"dealer,omitempty"`
	Auction       []Call         `json:"auction,omitempty"`
	Contract      *Contract      `json:"contract,omitempty"`
	DummySeat     *seat.Seat     `json:"dummySeat,omitempty"`
	Dummy         []cards.Card   `json:"dummy,omitempty"`
	SideTricks    map[string]int `json:"sideTricks,omitempty"`
	LastHandScore map[string]int `json:"lastHandScore,omitempty"`

	// skitgubbe
	StockCount  int          `json:"stockCount,omitempty"`
	TiePile     int          `json:"tiePile,omitempty"`
	Duel        *DuelView    `json:"duel,omitempty"`
	Pile        []cards.Card `json:"pile,omitempty"`
	FinishOrder []seat.Seat  `json:"finishOrder,omitempty"`
	Loser       *seat.Seat   `json:"loser,omitempty"`
}

// PlayerView is the seat-scoped snapshot: public table state plus the seat's own hand
// and legal moves.
type PlayerView struct {
	TableView
	Seat       seat.Seat    `json:"self"`
	Hand       []cards.Card `json:"hand"`
	LegalMoves []Move       `json:"legalMoves"`
}

// AdminView is the full state with every hand visible, for observers and snapshots.
type AdminView struct {
	TableView
	Seed      int64                      `json:"seed"`
	Hands     map[seat.Seat][]cards.Card `json:"hands"`
	Collected map[seat.Seat][]cards.Card `json:"collectedCards,omitempty"`
	Stock     []cards.Card               `json:"stock,omitempty"`
	History   []*Trick                   `json:"history,omitempty"`
}

// SeatPtr returns a pointer to a copy of s, for optional view fields.
func SeatPtr(s seat.Seat) *seat.Seat { return &s }

// CopyHands deep-copies a hand map.
func CopyHands(hands map[seat.Seat][]cards.Card) map[seat.Seat][]cards.Card {
	out := make(map[seat.Seat][]cards.Card, len(hands))
	for s, h := range hands {
		out[s] = append([]cards.Card{}, h...)
	}
	return out
}
