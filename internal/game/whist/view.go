// internal/game/whist/view.go
package whist

import (
	"github.com/jason-s-yu/trickhouse/internal/cards"
	"github.com/jason-s-yu/trickhouse/internal/game"
	"github.com/jason-s-yu/trickhouse/internal/seat"
)

// BotMove plays the highest legal card. A bot never authors rules; if a bot ends up
// holding the rule decision (its human left mid-hand) it skips.
func (e *Engine) BotMove(s seat.Seat) (game.Move, bool) {
	actor, ok := e.CurrentActor()
	if !ok || actor != s {
		return game.Move{}, false
	}
	if e.phase == game.PhaseRuleCreate {
		return game.SimpleMove(game.MoveSkipRule), true
	}
	moves := e.LegalMoves(s)
	if len(moves) == 0 {
		return game.Move{}, false
	}
	best := moves[0]
	for _, m := range moves[1:] {
		if game.HigherCard(*m.Card, *best.Card, e.trump) {
			best = m
		}
	}
	return best, true
}

func (e *Engine) table() game.TableView {
	v := game.TableView{
		Variant:      game.VariantWhist,
		Phase:        e.phase,
		HandNumber:   e.hand,
		HandsPerGame: e.opts.HandsPerGame,
		Pending:      e.pending,
		Trump:        e.trump,
		Trick:        e.trick.Clone(),
		LastTrick:    e.lastTrick.Clone(),
		Scores:       e.scores(),
		Rules:        e.Rules(),
		HandWinner:   e.handWinner,
	}
	if actor, ok := e.CurrentActor(); ok {
		v.CurrentActor = game.SeatPtr(actor)
	}
	for _, s := range e.seats {
		v.Seats = append(v.Seats, game.SeatView{
			Seat:      s,
			Bot:       e.bots[s],
			HandSize:  len(e.hands[s]),
			TricksWon: e.tricksWon[s],
		})
	}
	return v
}

// SnapshotFor is the view of seat s: its own hand and legal moves, everyone's counts.
func (e *Engine) SnapshotFor(s seat.Seat) game.PlayerView {
	return game.PlayerView{
		TableView:  e.table(),
		Seat:       s,
		Hand:       append([]cards.Card{}, e.hands[s]...),
		LegalMoves: e.LegalMoves(s),
	}
}

// AdminSnapshot exposes every hand and the archived tricks of the current hand.
func (e *Engine) AdminSnapshot() game.AdminView {
	history := make([]*game.Trick, 0, len(e.history))
	for _, t := range e.history {
		history = append(history, t.Clone())
	}
	return game.AdminView{
		TableView: e.table(),
		Seed:      e.seed,
		Hands:     game.CopyHands(e.hands),
		History:   history,
	}
}
