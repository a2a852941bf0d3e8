// internal/game/bridge/play.go
package bridge

import (
	"github.com/jason-s-yu/trickhouse/internal/cards"
	"github.com/jason-s-yu/trickhouse/internal/game"
	"github.com/jason-s-yu/trickhouse/internal/seat"
)

// LegalMoves lists the moves available to the hand at s. During play the dummy's moves
// carry the dummy seat so its declarer can submit them directly.
func (e *Engine) LegalMoves(s seat.Seat) []game.Move {
	actor, ok := e.CurrentActor()
	if !ok || actor != s {
		return nil
	}
	if e.phase == game.PhaseBidding {
		var moves []game.Move
		candidates := []game.Move{game.SimpleMove(game.MovePass), game.SimpleMove(game.MoveDouble), game.SimpleMove(game.MoveRedouble)}
		for level := 1; level <= 7; level++ {
			for _, strain := range game.Strains {
				candidates = append(candidates, game.BidMove(level, strain))
			}
		}
		for _, m := range candidates {
			if e.checkCall(s, m) == nil {
				moves = append(moves, m)
			}
		}
		return moves
	}

	legal := game.FollowSuit(e.hands[s], e.trick)
	moves := make([]game.Move, 0, len(legal))
	for _, c := range legal {
		m := game.PlayMove(c, false)
		if e.contract != nil && s == e.contract.Dummy {
			m = m.For(s)
		}
		moves = append(moves, m)
	}
	return moves
}

func (e *Engine) play(submitter seat.Seat, m game.Move) ([]game.Event, error) {
	if e.phase != game.PhasePlaying || e.pending != game.PauseNone {
		return nil, game.Errorf(game.CodeWrongPhase, "cannot play a card during %s", e.phase)
	}
	actor := m.Actor(submitter)
	current, _ := e.CurrentActor()
	if actor != current {
		return nil, game.Errorf(game.CodeNotYourTurn, "it is %s's turn", current)
	}
	if e.Controller(actor) != submitter {
		return nil, game.Errorf(game.CodeNotYourTurn, "%s's cards are played by %s", actor, e.Controller(actor))
	}
	if m.FaceDown {
		return nil, game.Errorf(game.CodeIllegalCard, "bridge cards are always played face-up")
	}
	card := *m.Card
	if !cards.Contains(e.hands[actor], card) {
		return nil, game.Errorf(game.CodeNotYourCard, "%s is not in %s's hand", card, actor)
	}
	if e.trick.LeadSuit != nil && card.Suit != *e.trick.LeadSuit && cards.HasSuit(e.hands[actor], *e.trick.LeadSuit) {
		return nil, game.Errorf(game.CodeIllegalCard, "must follow %s", *e.trick.LeadSuit)
	}

	e.hands[actor], _ = cards.Remove(e.hands[actor], card)
	e.trick.Add(game.Entry{Card: card, Seat: actor})
	payload := map[string]interface{}{"trick": e.trick.Number}
	if actor != submitter {
		payload["playedBy"] = submitter
	}
	evs := []game.Event{game.SeatEvent(game.EventCardPlayed, actor, payload).WithCard(card)}

	if len(e.trick.Entries) < len(e.seats) {
		return evs, nil
	}
	winner := e.trick.Resolve(e.trump)
	side := winner.Partnership()
	e.sideTricks[side]++
	e.pending = game.PauseTrick
	e.phase = game.PhaseTrickEnd
	return append(evs,
		game.SeatEvent(game.EventTrickComplete, winner, map[string]interface{}{
			"trick":       e.trick.Number,
			"partnership": side,
			"sideTricks":  e.sideTricks[side],
			"entries":     e.trick.Entries,
		}),
		game.PhaseEvent(game.PhasePlaying, game.PhaseTrickEnd),
	), nil
}

// Advance archives a resolved trick, or deals the next hand after the gate.
func (e *Engine) Advance() ([]game.Event, error) {
	switch e.pending {
	case game.PauseTrick:
		e.history = append(e.history, e.trick)
		e.lastTrick = e.trick
		if len(e.history) < TricksPerHand {
			e.trick = game.NewTrick(e.lastTrick.Number+1, *e.lastTrick.Winner)
			e.pending = game.PauseNone
			e.phase = game.PhasePlaying
			return []game.Event{game.PhaseEvent(game.PhaseTrickEnd, game.PhasePlaying)}, nil
		}
		e.trick = nil
		declarer, defenders := Score(*e.contract, e.sideTricks[e.contract.Declarer.Partnership()])
		e.lastHandScore = map[seat.Partnership]int{
			e.contract.Declarer.Partnership(): declarer,
			e.contract.Defenders:              defenders,
		}
		return e.finishHand(game.PhaseTrickEnd, e.contract), nil
	case game.PauseHand:
		e.dealer = e.dealer.LeftOf()
		next := e.hand + 1
		if e.redeal {
			e.redeal = false
			next = e.hand
		}
		_, evs := e.dealHand(next)
		return evs, nil
	}
	return nil, game.Errorf(game.CodeWrongPhase, "nothing to advance during %s", e.phase)
}

// finishHand books lastHandScore and pauses on the hand, or ends the game.
func (e *Engine) finishHand(from game.Phase, contract *game.Contract) []game.Event {
	for side, pts := range e.lastHandScore {
		e.scores[side] += pts
	}
	payload := map[string]interface{}{
		"hand":       e.hand,
		"handScore":  partnershipMap(e.lastHandScore),
		"scores":     partnershipMap(e.scores),
		"sideTricks": partnershipMap(e.sideTricks),
	}
	if contract != nil {
		payload["contract"] = *contract
		payload["made"] = e.sideTricks[contract.Declarer.Partnership()] >= contract.TricksNeed
	}
	evs := []game.Event{game.NewEvent(game.EventHandComplete, nil, payload)}

	if e.hand >= e.opts.HandsPerGame {
		e.phase = game.PhaseGameEnd
		e.pending = game.PauseGame
		winner := "tied"
		switch {
		case e.scores[seat.NorthSouth] > e.scores[seat.EastWest]:
			winner = string(seat.NorthSouth)
		case e.scores[seat.EastWest] > e.scores[seat.NorthSouth]:
			winner = string(seat.EastWest)
		}
		return append(evs,
			game.PhaseEvent(from, game.PhaseGameEnd),
			game.NewEvent(game.EventGameEnded, nil, map[string]interface{}{
				"winner": winner,
				"scores": partnershipMap(e.scores),
			}),
		)
	}
	e.phase = game.PhaseHandEnd
	e.pending = game.PauseHand
	return append(evs, game.PhaseEvent(from, game.PhaseHandEnd))
}

func partnershipMap(m map[seat.Partnership]int) map[string]int {
	out := map[string]int{string(seat.NorthSouth): 0, string(seat.EastWest): 0}
	for side, n := range m {
		out[string(side)] = n
	}
	return out
}
