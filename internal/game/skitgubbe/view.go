// internal/game/skitgubbe/view.go
package skitgubbe

import (
	"github.com/jason-s-yu/trickhouse/internal/cards"
	"github.com/jason-s-yu/trickhouse/internal/game"
	"github.com/jason-s-yu/trickhouse/internal/seat"
)

// BotMove duels with the highest hand card (drawing blind when the hand is empty) and
// sheds the lowest card that beats the pile, picking up when nothing does.
func (e *Engine) BotMove(s seat.Seat) (game.Move, bool) {
	actor, ok := e.CurrentActor()
	if !ok || actor != s {
		return game.Move{}, false
	}
	if e.phase == game.PhaseCollection {
		best, ok := cards.Highest(e.hands[s])
		if !ok {
			if len(e.stock) == 0 {
				return game.Move{}, false
			}
			return game.SimpleMove(game.MoveDraw), true
		}
		return game.DuelMove(best), true
	}

	legal := e.sheddable(s)
	if len(legal) == 0 {
		return game.SimpleMove(game.MovePickup), true
	}
	// lowest card first, trumps held back
	var plain, trumps []cards.Card
	for _, c := range legal {
		if e.trump != nil && c.Suit == *e.trump {
			trumps = append(trumps, c)
		} else {
			plain = append(plain, c)
		}
	}
	if best, ok := cards.Lowest(plain); ok {
		return game.ShedMove(best), true
	}
	best, _ := cards.Lowest(trumps)
	return game.ShedMove(best), true
}

func (e *Engine) table() game.TableView {
	v := game.TableView{
		Variant:     game.VariantSkitgubbe,
		Phase:       e.phase,
		HandNumber:  e.HandNumber(),
		Pending:     e.pending,
		StockCount:  len(e.stock),
		TiePile:     len(e.tiePile),
		Pile:        append([]cards.Card{}, e.pile...),
		FinishOrder: e.FinishOrder(),
		Loser:       e.loser,
	}
	// trump is only announced once the shedding phase starts
	if e.phase != game.PhaseCollection {
		v.Trump = e.trump
	}
	if actor, ok := e.CurrentActor(); ok {
		v.CurrentActor = game.SeatPtr(actor)
	}
	d := e.duel
	if d == nil {
		d = e.lastDuel
	}
	if d != nil && e.phase == game.PhaseCollection {
		v.Duel = &game.DuelView{
			Leader:        d.leader,
			LeaderCard:    d.leaderCard,
			Responder:     d.responder,
			ResponderCard: d.responderCard,
			Winner:        d.winner,
			Tied:          d.tied,
		}
	}
	for _, s := range e.seats {
		v.Seats = append(v.Seats, game.SeatView{
			Seat:      s,
			Bot:       e.bots[s],
			HandSize:  len(e.hands[s]),
			Collected: len(e.collected[s]),
			Out:       e.out[s],
		})
	}
	return v
}

func (e *Engine) SnapshotFor(s seat.Seat) game.PlayerView {
	return game.PlayerView{
		TableView:  e.table(),
		Seat:       s,
		Hand:       cards.SortHand(e.hands[s]),
		LegalMoves: e.LegalMoves(s),
	}
}

func (e *Engine) AdminSnapshot() game.AdminView {
	v := game.AdminView{
		TableView: e.table(),
		Seed:      e.seed,
		Hands:     game.CopyHands(e.hands),
		Collected: game.CopyHands(e.collected),
		Stock:     append([]cards.Card{}, e.stock...),
	}
	v.Trump = e.trump
	return v
}
