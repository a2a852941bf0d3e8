// internal/game/bridge/view.go
package bridge

import (
	"github.com/jason-s-yu/trickhouse/internal/cards"
	"github.com/jason-s-yu/trickhouse/internal/game"
	"github.com/jason-s-yu/trickhouse/internal/seat"
)

// OpeningPoints is the high-card strength a bot needs before it bids.
const OpeningPoints = 13

// BotMove suggests a move for the hand at s. In the auction a bot with opening strength
// bids one of its longest suit when that still outranks the auction, and passes
// otherwise. In play it takes the highest legal card, for the dummy as well.
func (e *Engine) BotMove(s seat.Seat) (game.Move, bool) {
	actor, ok := e.CurrentActor()
	if !ok || actor != s {
		return game.Move{}, false
	}
	if e.phase == game.PhaseBidding {
		hand := e.hands[s]
		if cards.HighCardPoints(hand) >= OpeningPoints {
			bid := game.BidMove(1, game.StrainOf(longestSuit(hand)))
			if e.checkCall(s, bid) == nil {
				return bid, true
			}
		}
		return game.SimpleMove(game.MovePass), true
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

// longestSuit picks the longest suit, preferring the higher-ranking suit on ties.
func longestSuit(hand []cards.Card) cards.Suit {
	lengths := cards.SuitLengths(hand)
	best := cards.Clubs
	for _, s := range cards.Suits {
		if lengths[s] >= lengths[best] {
			best = s
		}
	}
	return best
}

func (e *Engine) table() game.TableView {
	v := game.TableView{
		Variant:       game.VariantBridge,
		Phase:         e.phase,
		HandNumber:    e.hand,
		HandsPerGame:  e.opts.HandsPerGame,
		Pending:       e.pending,
		Trump:         e.trump,
		Trick:         e.trick.Clone(),
		LastTrick:     e.lastTrick.Clone(),
		Scores:        partnershipMap(e.scores),
		Dealer:        game.SeatPtr(e.dealer),
		Auction:       append([]game.Call{}, e.auction...),
		Contract:      e.Contract(),
		SideTricks:    partnershipMap(e.sideTricks),
		LastHandScore: e.lastHandScoreView(),
	}
	if actor, ok := e.CurrentActor(); ok {
		v.CurrentActor = game.SeatPtr(actor)
	}
	if e.contract != nil {
		v.DummySeat = game.SeatPtr(e.contract.Dummy)
		v.Dummy = append([]cards.Card{}, e.hands[e.contract.Dummy]...)
	}
	for _, s := range e.seats {
		v.Seats = append(v.Seats, game.SeatView{
			Seat:      s,
			Bot:       e.bots[s],
			HandSize:  len(e.hands[s]),
			TricksWon: e.sideTricks[s.Partnership()],
		})
	}
	return v
}

func (e *Engine) lastHandScoreView() map[string]int {
	if e.lastHandScore == nil {
		return nil
	}
	return partnershipMap(e.lastHandScore)
}

// SnapshotFor shows s its own hand and, once the contract is set, the dummy. Legal
// moves include the dummy's when s is the declarer and the dummy is due.
func (e *Engine) SnapshotFor(s seat.Seat) game.PlayerView {
	v := game.PlayerView{
		TableView: e.table(),
		Seat:      s,
		Hand:      append([]cards.Card{}, e.hands[s]...),
	}
	if actor, ok := e.CurrentActor(); ok && e.Controller(actor) == s {
		v.LegalMoves = e.LegalMoves(actor)
	}
	return v
}

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
