// internal/seat/seat.go

// Package seat defines the four compass positions players occupy at a table.
package seat

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Seat is a fixed table position. It is stable across reconnections; engines address
// players by seat, never by session.
type Seat uint8

const (
	North Seat = iota
	East
	South
	West
)

// All is the fixed cyclic turn order.
var All = []Seat{North, East, South, West}

func (s Seat) String() string {
	switch s {
	case North:
		return "north"
	case East:
		return "east"
	case South:
		return "south"
	case West:
		return "west"
	default:
		return "unknown"
	}
}

// Valid reports whether s is one of the four compass seats.
func (s Seat) Valid() bool {
	return s <= West
}

// Parse reads a seat name ("north") or its initial ("N").
func Parse(str string) (Seat, error) {
	switch strings.ToLower(strings.TrimSpace(str)) {
	case "north", "n":
		return North, nil
	case "east", "e":
		return East, nil
	case "south", "s":
		return South, nil
	case "west", "w":
		return West, nil
	}
	return 0, fmt.Errorf("unknown seat %q", str)
}

// Partner returns the seat across the table.
func (s Seat) Partner() Seat {
	return (s + 2) % 4
}

// LeftOf returns the next seat clockwise, ignoring occupancy.
func (s Seat) LeftOf() Seat {
	return (s + 1) % 4
}

// Partnership identifies the two bridge partnerships.
type Partnership string

const (
	NorthSouth Partnership = "NS"
	EastWest   Partnership = "EW"
)

// Partnership returns the side s plays for.
func (s Seat) Partnership() Partnership {
	if s == North || s == South {
		return NorthSouth
	}
	return EastWest
}

// Opponents returns the other partnership.
func (p Partnership) Opponents() Partnership {
	if p == NorthSouth {
		return EastWest
	}
	return NorthSouth
}

// Next returns the seat after s in order, wrapping around. If s is not in order the
// first seat is returned.
func Next(order []Seat, s Seat) Seat {
	for i, o := range order {
		if o == s {
			return order[(i+1)%len(order)]
		}
	}
	return order[0]
}

// Rotate returns order starting at first, following the cycle.
func Rotate(order []Seat, first Seat) []Seat {
	out := make([]Seat, 0, len(order))
	start := 0
	for i, o := range order {
		if o == first {
			start = i
			break
		}
	}
	for i := 0; i < len(order); i++ {
		out = append(out, order[(start+i)%len(order)])
	}
	return out
}

// Index returns the position of s in order, or -1.
func Index(order []Seat, s Seat) int {
	for i, o := range order {
		if o == s {
			return i
		}
	}
	return -1
}

func (s Seat) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *Seat) UnmarshalText(data []byte) error {
	parsed, err := Parse(string(data))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

func (s Seat) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

func (s *Seat) UnmarshalJSON(data []byte) error {
	var str string
	if err := json.Unmarshal(data, &str); err != nil {
		return err
	}
	return s.UnmarshalText([]byte(str))
}
