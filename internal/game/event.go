// internal/game/event.go
package game

import (
	"github.com/jason-s-yu/trickhouse/internal/cards"
	"github.com/jason-s-yu/trickhouse/internal/seat"
)

// EventType is an enum-like type for the structural events engines produce.
type EventType string

const (
	EventHandDealt      EventType = "hand_dealt"
	EventCardPlayed     EventType = "card_played"
	EventTrickComplete  EventType = "trick_complete"
	EventHandComplete   EventType = "hand_complete"
	EventPhaseChanged   EventType = "phase_changed"
	EventBidMade        EventType = "bid_made"
	EventContractFormed EventType = "contract_formed"
	EventPassedOut      EventType = "passed_out"
	EventRuleCreated    EventType = "rule_created"
	EventRuleSkipped    EventType = "rule_skipped"
	EventDuelCard       EventType = "duel_card"
	EventDuelResolved   EventType = "duel_resolved"
	EventDuelTied       EventType = "duel_tied"
	EventCardShed       EventType = "card_shed"
	EventPileCleared    EventType = "pile_cleared"
	EventPilePickedUp   EventType = "pile_picked_up"
	EventPlayerOut      EventType = "player_out"
	EventGameEnded      EventType = "game_ended"

	// Emitted by the orchestrator, never by engines.
	EventState         EventType = "state"          // private view after every step
	EventTurn          EventType = "turn"           // whose move it is
	EventAwaitContinue EventType = "await_continue" // hand gate opened
	EventAcknowledged  EventType = "acknowledged"   // a seat passed the hand gate
	EventSeatChanged   EventType = "seat_changed"   // seat switched between human and bot
	EventRoomClosed    EventType = "room_closed"
	EventError         EventType = "error"
)

// Event holds data about something that happened, in a consistent shape for every
// variant. Payload carries the event-specific fields.
type Event struct {
	Type    EventType              `json:"type"`
	Seat    *seat.Seat             `json:"seat,omitempty"`
	Card    *cards.Card            `json:"card,omitempty"`
	Payload map[string]interface{} `json:"payload,omitempty"`
}

// NewEvent builds an event for s (nil for table-wide events).
func NewEvent(t EventType, s *seat.Seat, payload map[string]interface{}) Event {
	return Event{Type: t, Seat: s, Payload: payload}
}

// SeatEvent builds an event attributed to s.
func SeatEvent(t EventType, s seat.Seat, payload map[string]interface{}) Event {
	return Event{Type: t, Seat: &s, Payload: payload}
}

// WithCard returns a copy of ev carrying c.
func (ev Event) WithCard(c cards.Card) Event {
	ev.Card = &c
	return ev
}

// PhaseEvent reports a state machine transition.
func PhaseEvent(from, to Phase) Event {
	return Event{Type: EventPhaseChanged, Payload: map[string]interface{}{"from": from, "to": to}}
}

// HasEvent reports whether evs contains an event of type t.
func HasEvent(evs []Event, t EventType) bool {
	for _, ev := range evs {
		if ev.Type == t {
			return true
		}
	}
	return false
}
