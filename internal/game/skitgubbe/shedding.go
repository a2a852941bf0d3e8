// internal/game/skitgubbe/shedding.go
package skitgubbe

import (
	"sort"

	"github.com/jason-s-yu/trickhouse/internal/cards"
	"github.com/jason-s-yu/trickhouse/internal/game"
	"github.com/jason-s-yu/trickhouse/internal/seat"
)

// Beats reports whether c beats top: a higher card of the same suit, or a trump on a
// non-trump.
func Beats(c, top cards.Card, trump *cards.Suit) bool {
	if c.Suit == top.Suit {
		return c.Rank > top.Rank
	}
	return trump != nil && c.Suit == *trump && top.Suit != *trump
}

func (e *Engine) top() (cards.Card, bool) {
	if len(e.pile) == 0 {
		return cards.Card{}, false
	}
	return e.pile[len(e.pile)-1], true
}

// sheddable returns the hand cards that may go on the pile: anything on an empty pile,
// otherwise a card that beats the top or matches its rank.
func (e *Engine) sheddable(s seat.Seat) []cards.Card {
	top, ok := e.top()
	if !ok {
		return append([]cards.Card{}, e.hands[s]...)
	}
	var out []cards.Card
	for _, c := range e.hands[s] {
		if c.Rank == top.Rank || Beats(c, top, e.trump) {
			out = append(out, c)
		}
	}
	return out
}

// LegalMoves lists the moves for s. When nothing can be shed, picking up the pile is
// the only legal move.
func (e *Engine) LegalMoves(s seat.Seat) []game.Move {
	actor, ok := e.CurrentActor()
	if !ok || actor != s {
		return nil
	}
	if e.phase == game.PhaseCollection {
		moves := make([]game.Move, 0, len(e.hands[s])+1)
		for _, c := range e.hands[s] {
			moves = append(moves, game.DuelMove(c))
		}
		if len(e.stock) > 0 {
			moves = append(moves, game.SimpleMove(game.MoveDraw))
		}
		return moves
	}
	legal := e.sheddable(s)
	if len(legal) == 0 {
		return []game.Move{game.SimpleMove(game.MovePickup)}
	}
	moves := make([]game.Move, 0, len(legal))
	for _, c := range legal {
		moves = append(moves, game.ShedMove(c))
	}
	return moves
}

func (e *Engine) shed(actor seat.Seat, card cards.Card) ([]game.Event, error) {
	if !cards.Contains(e.hands[actor], card) {
		return nil, game.Errorf(game.CodeNotYourCard, "%s is not in %s's hand", card, actor)
	}
	top, hasTop := e.top()
	matched := hasTop && card.Rank == top.Rank
	if hasTop && !matched && !Beats(card, top, e.trump) {
		return nil, game.Errorf(game.CodeIllegalCard, "%s does not beat %s", card, top)
	}

	e.hands[actor], _ = cards.Remove(e.hands[actor], card)
	e.pile = append(e.pile, card)
	e.sinceEmpty++
	e.shedMoves++
	evs := []game.Event{game.SeatEvent(game.EventCardShed, actor, map[string]interface{}{
		"pile":    len(e.pile),
		"matched": matched,
	}).WithCard(card)}

	if len(e.hands[actor]) == 0 {
		evs = append(evs, e.markOut(actor)...)
	}
	if ended, more := e.checkEnd(); ended {
		return append(evs, more...), nil
	}

	if e.sinceEmpty >= len(e.active()) {
		// a full round on the pile: it burns and the last player leads again
		e.burnPending = true
		e.pending = game.PauseTrick
		e.turn = actor
		if e.out[actor] {
			e.turn = e.next(actor)
		}
		return evs, nil
	}

	e.turn = e.next(actor)
	if matched {
		skipped := e.turn
		e.turn = e.next(skipped)
		evs[0].Payload["skipped"] = skipped
	}
	return evs, nil
}

func (e *Engine) pickup(actor seat.Seat) ([]game.Event, error) {
	if len(e.sheddable(actor)) > 0 {
		return nil, game.Errorf(game.CodeIllegalMove, "a card can be played; pickup is only allowed when none can")
	}
	taken := len(e.pile)
	e.hands[actor] = cards.SortHand(append(e.hands[actor], e.pile...))
	e.pile = nil
	e.sinceEmpty = 0
	e.shedMoves++
	e.turn = e.next(actor)
	evs := []game.Event{game.SeatEvent(game.EventPilePickedUp, actor, map[string]interface{}{
		"cards":    taken,
		"handSize": len(e.hands[actor]),
	})}
	if ended, more := e.checkEnd(); ended {
		return append(evs, more...), nil
	}
	return evs, nil
}

func (e *Engine) clearPile() []game.Event {
	burned := len(e.pile)
	e.pile = nil
	e.sinceEmpty = 0
	e.burnPending = false
	return []game.Event{game.SeatEvent(game.EventPileCleared, e.turn, map[string]interface{}{
		"cards": burned,
	})}
}

func (e *Engine) markOut(s seat.Seat) []game.Event {
	e.out[s] = true
	e.finishOrder = append(e.finishOrder, s)
	return []game.Event{game.SeatEvent(game.EventPlayerOut, s, map[string]interface{}{
		"place": len(e.finishOrder),
	})}
}

// checkEnd ends the game when one seat is left holding cards, or when the stalemate
// guard trips; then the seat with the most cards loses and the rest are ranked by hand
// size.
func (e *Engine) checkEnd() (bool, []game.Event) {
	remaining := e.active()
	stalemate := e.phase == game.PhaseShedding && e.shedMoves >= e.opts.MaxShedMoves
	if len(remaining) > 1 && !stalemate {
		return false, nil
	}
	if len(remaining) > 1 {
		sort.SliceStable(remaining, func(i, j int) bool {
			return len(e.hands[remaining[i]]) < len(e.hands[remaining[j]])
		})
		for _, s := range remaining[:len(remaining)-1] {
			e.out[s] = true
			e.finishOrder = append(e.finishOrder, s)
		}
		remaining = remaining[len(remaining)-1:]
	}
	from := e.phase
	e.phase = game.PhaseGameEnd
	e.pending = game.PauseGame
	payload := map[string]interface{}{
		"finishOrder": e.FinishOrder(),
		"stalemate":   stalemate,
	}
	if len(remaining) == 1 {
		loser := remaining[0]
		e.loser = &loser
		payload["loser"] = loser
	}
	return true, []game.Event{
		game.PhaseEvent(from, game.PhaseGameEnd),
		game.NewEvent(game.EventGameEnded, nil, payload),
	}
}
