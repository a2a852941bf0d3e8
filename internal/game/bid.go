// internal/game/bid.go
package game

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/jason-s-yu/trickhouse/internal/cards"
	"github.com/jason-s-yu/trickhouse/internal/seat"
)

// Strain is a bridge denomination, ordered clubs < diamonds < hearts < spades < notrump.
type Strain uint8

const (
	StrainClubs Strain = iota
	StrainDiamonds
	StrainHearts
	StrainSpades
	StrainNoTrump
)

// Strains lists the denominations in bidding order.
var Strains = []Strain{StrainClubs, StrainDiamonds, StrainHearts, StrainSpades, StrainNoTrump}

func (s Strain) String() string {
	switch s {
	case StrainClubs:
		return "clubs"
	case StrainDiamonds:
		return "diamonds"
	case StrainHearts:
		return "hearts"
	case StrainSpades:
		return "spades"
	case StrainNoTrump:
		return "notrump"
	}
	return "unknown"
}

// Letter is the short form used in bid strings ("NT" for notrump).
func (s Strain) Letter() string {
	if s == StrainNoTrump {
		return "NT"
	}
	if suit, ok := s.Suit(); ok {
		return suit.Letter()
	}
	return "?"
}

func (s Strain) Valid() bool { return s <= StrainNoTrump }

// Suit returns the trump suit the strain names; false for notrump.
func (s Strain) Suit() (cards.Suit, bool) {
	switch s {
	case StrainClubs:
		return cards.Clubs, true
	case StrainDiamonds:
		return cards.Diamonds, true
	case StrainHearts:
		return cards.Hearts, true
	case StrainSpades:
		return cards.Spades, true
	}
	return 0, false
}

// StrainOf maps a suit to its strain.
func StrainOf(suit cards.Suit) Strain {
	switch suit {
	case cards.Clubs:
		return StrainClubs
	case cards.Diamonds:
		return StrainDiamonds
	case cards.Hearts:
		return StrainHearts
	}
	return StrainSpades
}

// ParseStrain accepts "notrump"/"nt" and anything cards.ParseSuit understands.
func ParseStrain(s string) (Strain, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "nt", "notrump", "no_trump", "n":
		return StrainNoTrump, nil
	}
	suit, err := cards.ParseSuit(s)
	if err != nil {
		return 0, fmt.Errorf("unknown strain %q", s)
	}
	return StrainOf(suit), nil
}

func (s Strain) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

func (s *Strain) UnmarshalJSON(data []byte) error {
	var str string
	if err := json.Unmarshal(data, &str); err != nil {
		return err
	}
	parsed, err := ParseStrain(str)
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// Bid is a contract bid: a level from 1 to 7 and a strain.
type Bid struct {
	Level  int    `json:"level"`
	Strain Strain `json:"strain"`
}

func (b Bid) Valid() bool {
	return b.Level >= 1 && b.Level <= 7 && b.Strain.Valid()
}

// rank totally orders bids.
func (b Bid) rank() int {
	return (b.Level-1)*len(Strains) + int(b.Strain)
}

// Higher reports whether b outranks o.
func (b Bid) Higher(o Bid) bool {
	return b.rank() > o.rank()
}

func (b Bid) String() string {
	return strconv.Itoa(b.Level) + b.Strain.Letter()
}

// ParseBid reads "1S", "3NT", "7C".
func ParseBid(s string) (Bid, error) {
	s = strings.TrimSpace(s)
	if len(s) < 2 {
		return Bid{}, fmt.Errorf("invalid bid %q", s)
	}
	level, err := strconv.Atoi(s[:1])
	if err != nil {
		return Bid{}, fmt.Errorf("invalid bid level in %q", s)
	}
	strain, err := ParseStrain(s[1:])
	if err != nil {
		return Bid{}, err
	}
	b := Bid{Level: level, Strain: strain}
	if !b.Valid() {
		return Bid{}, fmt.Errorf("bid %q out of range", s)
	}
	return b, nil
}

// Call is one entry of a bridge auction.
type Call struct {
	Seat seat.Seat `json:"seat"`
	Type MoveType  `json:"type"` // bid, pass, double or redouble
	Bid  *Bid      `json:"bid,omitempty"`
}

func (c Call) String() string {
	if c.Type == MoveBid && c.Bid != nil {
		return c.Seat.String() + ": " + c.Bid.String()
	}
	return c.Seat.String() + ": " + string(c.Type)
}

// Contract is the outcome of a completed auction.
type Contract struct {
	Bid        Bid              `json:"bid"`
	Declarer   seat.Seat        `json:"declarer"`
	Dummy      seat.Seat        `json:"dummy"`
	Doubled    bool             `json:"doubled"`
	Redoubled  bool             `json:"redoubled"`
	Defenders  seat.Partnership `json:"defenders"`
	TricksNeed int              `json:"tricksNeeded"`
}

func (c Contract) String() string {
	s := c.Bid.String()
	if c.Redoubled {
		s += "XX"
	} else if c.Doubled {
		s += "X"
	}
	return s + " by " + c.Declarer.String()
}
