// internal/cards/deck.go
package cards

import (
	"math/rand"
	"sort"
)

// DeckSize is the size of a standard deck without jokers.
const DeckSize = 52

// NewDeck builds the 52-card deck in canonical order (clubs 2..A, diamonds, hearts, spades).
func NewDeck() []Card {
	deck := make([]Card, 0, DeckSize)
	for _, s := range Suits {
		for r := Two; r <= Ace; r++ {
			deck = append(deck, Card{Suit: s, Rank: r})
		}
	}
	return deck
}

// Shuffle returns a shuffled copy of deck. The order depends only on the seed.
func Shuffle(deck []Card, seed int64) []Card {
	shuffled := make([]Card, len(deck))
	copy(shuffled, deck)
	rng := rand.New(rand.NewSource(seed))
	rng.Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})
	return shuffled
}

// Contains reports whether hand holds c.
func Contains(hand []Card, c Card) bool {
	for _, h := range hand {
		if h == c {
			return true
		}
	}
	return false
}

// Remove returns a new slice without c, and whether c was found.
func Remove(hand []Card, c Card) ([]Card, bool) {
	for i, h := range hand {
		if h == c {
			out := make([]Card, 0, len(hand)-1)
			out = append(out, hand[:i]...)
			return append(out, hand[i+1:]...), true
		}
	}
	return hand, false
}

// HasSuit reports whether any card in hand is of suit s.
func HasSuit(hand []Card, s Suit) bool {
	for _, c := range hand {
		if c.Suit == s {
			return true
		}
	}
	return false
}

// FilterSuit returns the cards of suit s, preserving order.
func FilterSuit(hand []Card, s Suit) []Card {
	out := []Card{}
	for _, c := range hand {
		if c.Suit == s {
			out = append(out, c)
		}
	}
	return out
}

// SortHand returns a copy sorted by suit then rank, the way hands are displayed.
func SortHand(hand []Card) []Card {
	out := append([]Card(nil), hand...)
	sort.Slice(out, func(i, j int) bool {
		if out[i].Suit != out[j].Suit {
			return out[i].Suit < out[j].Suit
		}
		return out[i].Rank < out[j].Rank
	})
	return out
}

// Highest returns the highest-ranked card; ties on rank go to the higher suit.
func Highest(hand []Card) (Card, bool) {
	if len(hand) == 0 {
		return Card{}, false
	}
	best := hand[0]
	for _, c := range hand[1:] {
		if c.Rank > best.Rank || (c.Rank == best.Rank && c.Suit > best.Suit) {
			best = c
		}
	}
	return best, true
}

// Lowest returns the lowest-ranked card; ties on rank go to the lower suit.
func Lowest(hand []Card) (Card, bool) {
	if len(hand) == 0 {
		return Card{}, false
	}
	best := hand[0]
	for _, c := range hand[1:] {
		if c.Rank < best.Rank || (c.Rank == best.Rank && c.Suit < best.Suit) {
			best = c
		}
	}
	return best, true
}

// HighCardPoints is the Milton count: A=4 K=3 Q=2 J=1.
func HighCardPoints(hand []Card) int {
	pts := 0
	for _, c := range hand {
		if c.Rank >= Jack {
			pts += int(c.Rank - Ten)
		}
	}
	return pts
}

// SuitLengths counts cards per suit.
func SuitLengths(hand []Card) map[Suit]int {
	out := make(map[Suit]int, 4)
	for _, c := range hand {
		out[c.Suit]++
	}
	return out
}
