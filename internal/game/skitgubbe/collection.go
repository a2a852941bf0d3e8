// internal/game/skitgubbe/collection.go
package skitgubbe

import (
	"github.com/jason-s-yu/trickhouse/internal/cards"
	"github.com/jason-s-yu/trickhouse/internal/game"
	"github.com/jason-s-yu/trickhouse/internal/seat"
)

func (e *Engine) startDuel() {
	e.duel = &duel{leader: e.duelLeader, responder: e.next(e.duelLeader)}
}

// takeStock removes the top stock card. The suit of the last card taken from the stock
// becomes trump for the shedding phase.
func (e *Engine) takeStock() cards.Card {
	c := e.stock[0]
	e.stock = e.stock[1:]
	suit := c.Suit
	e.trump = &suit
	return c
}

func (e *Engine) playDuel(actor seat.Seat, m game.Move) ([]game.Event, error) {
	var card cards.Card
	if m.Type == game.MoveDraw {
		if len(e.stock) == 0 {
			return nil, game.Errorf(game.CodeIllegalMove, "the stock is empty")
		}
		card = e.takeStock()
	} else {
		if !cards.Contains(e.hands[actor], *m.Card) {
			return nil, game.Errorf(game.CodeNotYourCard, "%s is not in %s's hand", m.Card, actor)
		}
		card = *m.Card
		e.hands[actor], _ = cards.Remove(e.hands[actor], card)
	}

	role := "leader"
	if e.duel.leaderCard == nil {
		e.duel.leaderCard = &card
	} else {
		role = "responder"
		e.duel.responderCard = &card
	}
	evs := []game.Event{game.SeatEvent(game.EventDuelCard, actor, map[string]interface{}{
		"role":      role,
		"fromStock": m.Type == game.MoveDraw,
	}).WithCard(card)}
	if e.duel.responderCard == nil {
		return evs, nil
	}
	return append(evs, e.resolveDuel()...), nil
}

// resolveDuel compares ranks only. The winner collects both cards and the tie pile; a
// tie sends both cards to the tie pile.
func (e *Engine) resolveDuel() []game.Event {
	d := e.duel
	lc, rc := *d.leaderCard, *d.responderCard
	e.pending = game.PauseTrick

	if lc.Rank == rc.Rank {
		d.tied = true
		e.tiePile = append(e.tiePile, lc, rc)
		return []game.Event{game.NewEvent(game.EventDuelTied, nil, map[string]interface{}{
			"leader":    d.leader,
			"responder": d.responder,
			"tiePile":   len(e.tiePile),
		})}
	}

	winner := d.leader
	if rc.Rank > lc.Rank {
		winner = d.responder
	}
	d.winner = &winner
	won := append([]cards.Card{lc, rc}, e.tiePile...)
	e.collected[winner] = append(e.collected[winner], won...)
	e.tiePile = nil
	return []game.Event{game.SeatEvent(game.EventDuelResolved, winner, map[string]interface{}{
		"leader":    d.leader,
		"responder": d.responder,
		"won":       won,
		"collected": len(e.collected[winner]),
	})}
}

// finishDuel refills the duelists (leader first) and starts the next duel, led by the
// previous responder. When the stock is exhausted the shedding phase begins.
func (e *Engine) finishDuel() []game.Event {
	d := e.duel
	for _, s := range []seat.Seat{d.leader, d.responder} {
		for len(e.hands[s]) < e.opts.HandSize && len(e.stock) > 0 {
			e.hands[s] = append(e.hands[s], e.takeStock())
		}
	}
	e.lastDuel = d
	if len(e.stock) > 0 {
		e.duelLeader = d.responder
		e.startDuel()
		return nil
	}
	return e.beginShedding()
}

func (e *Engine) beginShedding() []game.Event {
	var evs []game.Event
	if len(e.tiePile) > 0 {
		// nobody won a duel after the last tie
		taker := e.lastDuel.leader
		e.collected[taker] = append(e.collected[taker], e.tiePile...)
		evs = append(evs, game.SeatEvent(game.EventDuelResolved, taker, map[string]interface{}{
			"won":       append([]cards.Card{}, e.tiePile...),
			"unclaimed": true,
			"collected": len(e.collected[taker]),
		}))
		e.tiePile = nil
	}
	for _, s := range e.seats {
		e.hands[s] = cards.SortHand(append(e.hands[s], e.collected[s]...))
		e.collected[s] = nil
	}
	e.duel = nil
	e.phase = game.PhaseShedding
	payload := map[string]interface{}{"from": game.PhaseCollection, "to": game.PhaseShedding}
	if e.trump != nil {
		payload["trump"] = *e.trump
	}
	evs = append(evs, game.NewEvent(game.EventPhaseChanged, nil, payload))

	for _, s := range e.seats {
		if len(e.hands[s]) == 0 {
			evs = append(evs, e.markOut(s)...)
		}
	}
	if ended, more := e.checkEnd(); ended {
		return append(evs, more...)
	}
	e.turn = e.lastDuel.responder
	if e.out[e.turn] {
		e.turn = e.next(e.turn)
	}
	return evs
}
