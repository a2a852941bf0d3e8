// internal/cards/card.go
package cards

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Suit is one of the four French suits.
type Suit uint8

const (
	Clubs Suit = iota
	Diamonds
	Hearts
	Spades
)

// Suits lists every suit in ascending bridge order.
var Suits = []Suit{Clubs, Diamonds, Hearts, Spades}

func (s Suit) String() string {
	switch s {
	case Clubs:
		return "clubs"
	case Diamonds:
		return "diamonds"
	case Hearts:
		return "hearts"
	case Spades:
		return "spades"
	default:
		return "unknown"
	}
}

// Letter returns the single-letter suit code used in the card text form.
func (s Suit) Letter() string {
	switch s {
	case Clubs:
		return "C"
	case Diamonds:
		return "D"
	case Hearts:
		return "H"
	case Spades:
		return "S"
	default:
		return "?"
	}
}

// Valid reports whether s is one of the four suits.
func (s Suit) Valid() bool {
	return s <= Spades
}

// ParseSuit accepts the long name ("hearts") or the letter ("H"), case-insensitive.
func ParseSuit(s string) (Suit, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "clubs", "c", "♣":
		return Clubs, nil
	case "diamonds", "d", "♦":
		return Diamonds, nil
	case "hearts", "h", "♥":
		return Hearts, nil
	case "spades", "s", "♠":
		return Spades, nil
	}
	return 0, fmt.Errorf("unknown suit %q", s)
}

func (s Suit) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

func (s *Suit) UnmarshalJSON(data []byte) error {
	var str string
	if err := json.Unmarshal(data, &str); err != nil {
		return err
	}
	parsed, err := ParseSuit(str)
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// Rank is the face value of a card. Numeric ranks use their value, J..A use 11..14.
type Rank uint8

const (
	Two   Rank = 2
	Three Rank = 3
	Four  Rank = 4
	Five  Rank = 5
	Six   Rank = 6
	Seven Rank = 7
	Eight Rank = 8
	Nine  Rank = 9
	Ten   Rank = 10
	Jack  Rank = 11
	Queen Rank = 12
	King  Rank = 13
	Ace   Rank = 14
)

// Valid reports whether r is in 2..A.
func (r Rank) Valid() bool {
	return r >= Two && r <= Ace
}

func (r Rank) String() string {
	switch r {
	case Jack:
		return "J"
	case Queen:
		return "Q"
	case King:
		return "K"
	case Ace:
		return "A"
	}
	if r.Valid() {
		return strconv.Itoa(int(r))
	}
	return "?"
}

// ParseRank accepts "2".."10", "T", "J", "Q", "K", "A".
func ParseRank(s string) (Rank, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "J":
		return Jack, nil
	case "Q":
		return Queen, nil
	case "K":
		return King, nil
	case "A":
		return Ace, nil
	case "T":
		return Ten, nil
	}
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || !Rank(n).Valid() || n > 10 {
		return 0, fmt.Errorf("unknown rank %q", s)
	}
	return Rank(n), nil
}

// Card is an immutable playing card; two cards are equal iff suit and rank match.
type Card struct {
	Suit Suit
	Rank Rank
}

// New is shorthand for Card{Suit: s, Rank: r}.
func New(r Rank, s Suit) Card {
	return Card{Suit: s, Rank: r}
}

// String renders the compact form, e.g. "QH" or "10C".
func (c Card) String() string {
	return c.Rank.String() + c.Suit.Letter()
}

// Valid reports whether both rank and suit are in range.
func (c Card) Valid() bool {
	return c.Suit.Valid() && c.Rank.Valid()
}

// Parse reads the compact form produced by String. "T" is accepted for ten.
func Parse(s string) (Card, error) {
	s = strings.TrimSpace(s)
	if len(s) < 2 {
		return Card{}, fmt.Errorf("invalid card %q", s)
	}
	// the suit is the last rune; ♥ etc. are multi-byte
	runes := []rune(s)
	suit, err := ParseSuit(string(runes[len(runes)-1]))
	if err != nil {
		return Card{}, fmt.Errorf("invalid card %q: %w", s, err)
	}
	rank, err := ParseRank(string(runes[:len(runes)-1]))
	if err != nil {
		return Card{}, fmt.Errorf("invalid card %q: %w", s, err)
	}
	return Card{Suit: suit, Rank: rank}, nil
}

// MustParse is Parse for literals in tests and fixtures.
func MustParse(s string) Card {
	c, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return c
}

// MustParseAll parses a whitespace separated list of cards.
func MustParseAll(s string) []Card {
	fields := strings.Fields(s)
	out := make([]Card, 0, len(fields))
	for _, f := range fields {
		out = append(out, MustParse(f))
	}
	return out
}

func (c Card) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.String())
}

func (c *Card) UnmarshalJSON(data []byte) error {
	var str string
	if err := json.Unmarshal(data, &str); err != nil {
		return err
	}
	parsed, err := Parse(str)
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}
