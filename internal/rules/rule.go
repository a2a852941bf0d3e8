// internal/rules/rule.go
package rules

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jason-s-yu/trickhouse/internal/seat"
)

// Event is the evaluation point a rule fires on.
type Event string

const (
	// EventPlay fires for every card played.
	EventPlay Event = "play"
	// EventLead fires only for the first card of a trick.
	EventLead Event = "lead"
)

// EffectType is one entry of the effect vocabulary house rules compose into.
type EffectType string

const (
	EffectForbidPlay     EffectType = "forbidPlay"
	EffectRequirePlay    EffectType = "requirePlay"
	EffectForceDiscard   EffectType = "forceDiscard"
	EffectSkipNextPlayer EffectType = "skipNextPlayer"
	EffectReverseOrder   EffectType = "reverseOrder"
)

// priority is the interpretation order of effects; lower runs first.
func (t EffectType) priority() int {
	switch t {
	case EffectForbidPlay:
		return 0
	case EffectRequirePlay:
		return 1
	case EffectForceDiscard:
		return 2
	case EffectSkipNextPlayer:
		return 3
	case EffectReverseOrder:
		return 4
	}
	return -1
}

// Effect is one consequence of a firing rule. Matcher is a card predicate (subject
// "card" bound to the candidate card); a nil matcher matches every card.
type Effect struct {
	Type    EffectType `json:"type"`
	Matcher *Predicate `json:"matcher,omitempty"`
	Message string     `json:"message,omitempty"`
}

// Rule is a player-authored house rule. Rules are appended to a game and never mutated.
type Rule struct {
	ID          uuid.UUID  `json:"id"`
	Name        string     `json:"name"`
	Condition   *Predicate `json:"condition,omitempty"` // nil fires unconditionally
	Effects     []Effect   `json:"effects"`
	Event       Event      `json:"event"`
	CreatedBy   seat.Seat  `json:"createdBy"`
	CreatedHand int        `json:"createdHand"`
	Active      bool       `json:"active"`
}

// Validate reports the first structural problem with a rule submitted by a player.
func (r Rule) Validate() error {
	if strings.TrimSpace(r.Name) == "" {
		return fmt.Errorf("rule name is required")
	}
	if len(r.Name) > 64 {
		return fmt.Errorf("rule name is longer than 64 characters")
	}
	switch r.Event {
	case EventPlay, EventLead:
	default:
		return fmt.Errorf("unknown rule event %q", r.Event)
	}
	if r.Condition != nil {
		if err := r.Condition.Validate(); err != nil {
			return fmt.Errorf("condition: %w", err)
		}
	}
	if len(r.Effects) == 0 {
		return fmt.Errorf("rule needs at least one effect")
	}
	for i, e := range r.Effects {
		if e.Type.priority() < 0 {
			return fmt.Errorf("effect %d: unknown type %q", i, e.Type)
		}
		if e.Matcher != nil {
			if err := e.Matcher.Validate(); err != nil {
				return fmt.Errorf("effect %d matcher: %w", i, err)
			}
		}
	}
	return nil
}

// AppliesTo reports whether the rule is in force for the given hand number. Rules only
// bind from the hand after the one in which they were created.
func (r Rule) AppliesTo(hand int) bool {
	return r.Active && r.CreatedHand < hand
}
