// internal/game/trick.go
package game

import (
	"github.com/jason-s-yu/trickhouse/internal/cards"
	"github.com/jason-s-yu/trickhouse/internal/seat"
)

// Entry is one card contributed to a trick.
type Entry struct {
	Card     cards.Card `json:"card"`
	Seat     seat.Seat  `json:"seat"`
	FaceDown bool       `json:"faceDown,omitempty"`
}

// Trick is the in-progress or archived round of play. A trick never holds more than one
// entry per seat. Once Winner is set the trick is archived and no longer mutated.
type Trick struct {
	Number   int         `json:"number"`
	Leader   seat.Seat   `json:"leader"`
	LeadSuit *cards.Suit `json:"leadSuit,omitempty"`
	Entries  []Entry     `json:"entries"`
	Winner   *seat.Seat  `json:"winner,omitempty"`
}

// NewTrick starts trick number n led by leader.
func NewTrick(n int, leader seat.Seat) *Trick {
	return &Trick{Number: n, Leader: leader, Entries: []Entry{}}
}

// Add appends e. The first face-up card sets the lead suit; face-down cards never do.
func (t *Trick) Add(e Entry) {
	t.Entries = append(t.Entries, e)
	if t.LeadSuit == nil && !e.FaceDown {
		suit := e.Card.Suit
		t.LeadSuit = &suit
	}
}

// Played reports whether s already contributed to the trick.
func (t *Trick) Played(s seat.Seat) bool {
	for _, e := range t.Entries {
		if e.Seat == s {
			return true
		}
	}
	return false
}

// HasTrump reports whether a face-up trump has been played.
func (t *Trick) HasTrump(trump *cards.Suit) bool {
	if trump == nil {
		return false
	}
	for _, e := range t.Entries {
		if !e.FaceDown && e.Card.Suit == *trump {
			return true
		}
	}
	return false
}

// Winning returns the entry currently winning: the highest face-up trump if any trump
// was played, else the highest face-up card of the lead suit. False when every card so
// far is face-down.
func (t *Trick) Winning(trump *cards.Suit) (Entry, bool) {
	var best Entry
	found := false
	for _, e := range t.Entries {
		if e.FaceDown {
			continue
		}
		if !found {
			best, found = e, true
			continue
		}
		if beatsInTrick(e.Card, best.Card, t.LeadSuit, trump) {
			best = e
		}
	}
	return best, found
}

func beatsInTrick(c, best cards.Card, lead, trump *cards.Suit) bool {
	cTrump := trump != nil && c.Suit == *trump
	bTrump := trump != nil && best.Suit == *trump
	switch {
	case cTrump && !bTrump:
		return true
	case !cTrump && bTrump:
		return false
	case c.Suit == best.Suit:
		return c.Rank > best.Rank
	}
	// different non-trump suits: only the lead suit can win
	return lead != nil && c.Suit == *lead && best.Suit != *lead
}

// Resolve sets and returns the trick winner. If every card was played face-down the
// leader takes the trick.
func (t *Trick) Resolve(trump *cards.Suit) seat.Seat {
	winner := t.Leader
	if e, ok := t.Winning(trump); ok {
		winner = e.Seat
	}
	t.Winner = &winner
	return winner
}

// Clone returns a deep copy, safe to hand out in views.
func (t *Trick) Clone() *Trick {
	if t == nil {
		return nil
	}
	out := *t
	out.Entries = append([]Entry{}, t.Entries...)
	if t.LeadSuit != nil {
		suit := *t.LeadSuit
		out.LeadSuit = &suit
	}
	if t.Winner != nil {
		w := *t.Winner
		out.Winner = &w
	}
	return &out
}

// FollowSuit returns the cards of hand that standard follow-suit allows: cards of the
// lead suit when the hand holds any, otherwise every card.
func FollowSuit(hand []cards.Card, t *Trick) []cards.Card {
	if t == nil || t.LeadSuit == nil || !cards.HasSuit(hand, *t.LeadSuit) {
		return append([]cards.Card{}, hand...)
	}
	return cards.FilterSuit(hand, *t.LeadSuit)
}

// HigherCard orders cards for greedy play: by rank, then trump before non-trump, then
// by suit.
func HigherCard(a, b cards.Card, trump *cards.Suit) bool {
	if a.Rank != b.Rank {
		return a.Rank > b.Rank
	}
	aTrump := trump != nil && a.Suit == *trump
	bTrump := trump != nil && b.Suit == *trump
	if aTrump != bTrump {
		return aTrump
	}
	return a.Suit > b.Suit
}
