package skitgubbe

import (
	"math/rand"
	"testing"

	"github.com/jason-s-yu/trickhouse/internal/cards"
	"github.com/jason-s-yu/trickhouse/internal/game"
	"github.com/jason-s-yu/trickhouse/internal/seat"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var twoSeats = []seat.Seat{seat.North, seat.South}
var threeSeats = []seat.Seat{seat.North, seat.East, seat.South}

func setupTestGame(t *testing.T, seats []seat.Seat, opts Options) *Engine {
	e, err := New(seats, opts)
	require.NoError(t, err)
	_, _, err = e.Deal(17)
	require.NoError(t, err)
	return e
}

// setupShedding puts the engine straight into the shedding phase with fixed hands.
func setupShedding(t *testing.T, seats []seat.Seat, opts Options, trump cards.Suit, pile string, hands map[seat.Seat]string) *Engine {
	e := setupTestGame(t, seats, opts)
	e.phase = game.PhaseShedding
	e.duel = nil
	e.stock = nil
	e.trump = &trump
	e.pile = nil
	if pile != "" {
		e.pile = cards.MustParseAll(pile)
	}
	e.sinceEmpty = len(e.pile)
	for _, s := range seats {
		e.hands[s] = cards.MustParseAll(hands[s])
	}
	e.turn = seats[0]
	return e
}

func mustApply(t *testing.T, e *Engine, s seat.Seat, m game.Move) []game.Event {
	evs, err := e.Apply(s, m)
	require.NoError(t, err, "%s %s", s, m)
	return evs
}

func TestNewValidatesSeats(t *testing.T) {
	_, err := New([]seat.Seat{seat.North}, DefaultOptions())
	assert.Equal(t, game.CodeValidation, game.CodeOf(err))
	_, err = New([]seat.Seat{seat.North, seat.North}, DefaultOptions())
	assert.Error(t, err)
	_, err = New(twoSeats, Options{HandSize: 26})
	assert.Error(t, err)
}

func TestDealPartitionsTheDeck(t *testing.T) {
	for _, seats := range [][]seat.Seat{twoSeats, threeSeats, seat.All} {
		for seed := int64(0); seed < 10; seed++ {
			e, err := New(seats, DefaultOptions())
			require.NoError(t, err)
			d, _, err := e.Deal(seed)
			require.NoError(t, err)

			seen := make(map[cards.Card]bool)
			for _, s := range seats {
				assert.Len(t, d.Hands[s], 3)
				for _, c := range d.Hands[s] {
					require.False(t, seen[c])
					seen[c] = true
				}
			}
			for _, c := range d.Stock {
				require.False(t, seen[c])
				seen[c] = true
			}
			assert.Len(t, seen, cards.DeckSize)
			assert.Len(t, d.Stock, cards.DeckSize-3*len(seats))
		}
	}
}

func TestTiedDuelBouncesToTiePile(t *testing.T) {
	e := setupTestGame(t, twoSeats, DefaultOptions())
	e.hands[seat.North] = cards.MustParseAll("9C 2D 3D")
	e.hands[seat.South] = cards.MustParseAll("9H 4D 5S")

	actor, _ := e.CurrentActor()
	require.Equal(t, seat.North, actor)
	mustApply(t, e, seat.North, game.DuelMove(cards.MustParse("9C")))

	_, err := e.Apply(seat.North, game.DuelMove(cards.MustParse("2D")))
	assert.Equal(t, game.CodeNotYourTurn, game.CodeOf(err))

	evs := mustApply(t, e, seat.South, game.DuelMove(cards.MustParse("9H")))
	require.True(t, game.HasEvent(evs, game.EventDuelTied))
	assert.Len(t, e.tiePile, 2)
	assert.Empty(t, e.collected[seat.North])
	assert.Empty(t, e.collected[seat.South])
	assert.Equal(t, game.PauseTrick, e.Pending())

	stockBefore := len(e.stock)
	_, err = e.Advance()
	require.NoError(t, err)
	assert.Len(t, e.hands[seat.North], 3, "duelists refill")
	assert.Len(t, e.hands[seat.South], 3)
	assert.Equal(t, stockBefore-2, len(e.stock))

	actor, _ = e.CurrentActor()
	require.Equal(t, seat.South, actor, "previous responder leads")
	e.hands[seat.South] = cards.MustParseAll("KS 4D 5S")
	e.hands[seat.North] = cards.MustParseAll("2C 2D 3D")
	mustApply(t, e, seat.South, game.DuelMove(cards.MustParse("KS")))
	evs = mustApply(t, e, seat.North, game.DuelMove(cards.MustParse("2C")))
	require.True(t, game.HasEvent(evs, game.EventDuelResolved))

	assert.Empty(t, e.tiePile)
	assert.ElementsMatch(t, cards.MustParseAll("KS 2C 9C 9H"), e.collected[seat.South])
}

func TestDrawPlaysTheTopOfTheStock(t *testing.T) {
	e := setupTestGame(t, twoSeats, DefaultOptions())
	top := e.stock[0]
	evs := mustApply(t, e, seat.North, game.SimpleMove(game.MoveDraw))
	require.NotNil(t, evs[0].Card)
	assert.Equal(t, top, *evs[0].Card)
	assert.Equal(t, top, *e.duel.leaderCard)
	assert.Len(t, e.hands[seat.North], 3, "hand untouched")
	require.NotNil(t, e.trump)
	assert.Equal(t, top.Suit, *e.trump)
}

func TestUnclaimedTiePileGoesToLastLeader(t *testing.T) {
	e := setupTestGame(t, twoSeats, DefaultOptions())
	e.hands[seat.North] = cards.MustParseAll("9C 5D 4D")
	e.hands[seat.South] = cards.MustParseAll("9H 6D 7D")
	e.stock = cards.MustParseAll("2S")

	mustApply(t, e, seat.North, game.DuelMove(cards.MustParse("9C")))
	mustApply(t, e, seat.South, game.DuelMove(cards.MustParse("9H")))
	evs, err := e.Advance()
	require.NoError(t, err)

	require.True(t, game.HasEvent(evs, game.EventPhaseChanged))
	assert.Equal(t, game.PhaseShedding, e.Phase())
	assert.ElementsMatch(t, cards.MustParseAll("5D 4D 2S 9C 9H"), e.hands[seat.North])
	assert.ElementsMatch(t, cards.MustParseAll("6D 7D"), e.hands[seat.South])
	require.NotNil(t, e.trump)
	assert.Equal(t, cards.Spades, *e.trump, "suit of the last stock card")
	actor, _ := e.CurrentActor()
	assert.Equal(t, seat.South, actor)
}

func TestShedBeatMatchAndPickup(t *testing.T) {
	e := setupShedding(t, threeSeats, DefaultOptions(), cards.Hearts, "7C", map[seat.Seat]string{
		seat.North: "9C 7D 2H 4S",
		seat.East:  "3C 4S",
		seat.South: "KS QS",
	})

	assert.ElementsMatch(t, []game.Move{
		game.ShedMove(cards.MustParse("9C")),
		game.ShedMove(cards.MustParse("7D")),
		game.ShedMove(cards.MustParse("2H")),
	}, e.LegalMoves(seat.North))

	_, err := e.Apply(seat.North, game.ShedMove(cards.MustParse("4S")))
	assert.Equal(t, game.CodeIllegalCard, game.CodeOf(err))
	_, err = e.Apply(seat.North, game.SimpleMove(game.MovePickup))
	assert.Equal(t, game.CodeIllegalMove, game.CodeOf(err))

	evs := mustApply(t, e, seat.North, game.ShedMove(cards.MustParse("7D")))
	assert.Equal(t, seat.East, evs[0].Payload["skipped"])
	actor, _ := e.CurrentActor()
	require.Equal(t, seat.South, actor, "matching the rank skips east")

	assert.Equal(t, []game.Move{game.SimpleMove(game.MovePickup)}, e.LegalMoves(seat.South))
	_, err = e.Apply(seat.South, game.ShedMove(cards.MustParse("KS")))
	assert.Equal(t, game.CodeIllegalCard, game.CodeOf(err))
}

func TestBotShedsLowestAndSavesTrumps(t *testing.T) {
	e := setupShedding(t, twoSeats, DefaultOptions(), cards.Hearts, "7C", map[seat.Seat]string{
		seat.North: "2H 9C 8D 7D",
		seat.South: "3H",
	})
	m, ok := e.BotMove(seat.North)
	require.True(t, ok)
	assert.Equal(t, game.ShedMove(cards.MustParse("7D")), m)

	e = setupShedding(t, twoSeats, DefaultOptions(), cards.Hearts, "KC", map[seat.Seat]string{
		seat.North: "9H 2H 5S",
		seat.South: "3H",
	})
	m, ok = e.BotMove(seat.North)
	require.True(t, ok)
	assert.Equal(t, game.ShedMove(cards.MustParse("2H")), m, "trumps only when nothing else beats the pile")
}

func TestPickupTakesThePile(t *testing.T) {
	e := setupShedding(t, threeSeats, DefaultOptions(), cards.Hearts, "7C 9C", map[seat.Seat]string{
		seat.North: "3C 4S",
		seat.East:  "KC",
		seat.South: "QD",
	})
	e.sinceEmpty = 1
	assert.Equal(t, []game.Move{game.SimpleMove(game.MovePickup)}, e.LegalMoves(seat.North))
	evs := mustApply(t, e, seat.North, game.SimpleMove(game.MovePickup))
	require.True(t, game.HasEvent(evs, game.EventPilePickedUp))
	assert.Empty(t, e.pile)
	assert.Len(t, e.hands[seat.North], 4)
	actor, _ := e.CurrentActor()
	assert.Equal(t, seat.East, actor, "next seat leads on an empty pile")
	assert.Len(t, e.LegalMoves(seat.East), 1)
}

func TestPileBurnsAfterFullRound(t *testing.T) {
	e := setupShedding(t, twoSeats, DefaultOptions(), cards.Hearts, "", map[seat.Seat]string{
		seat.North: "5C 9C",
		seat.South: "6C 8D",
	})
	mustApply(t, e, seat.North, game.ShedMove(cards.MustParse("5C")))
	mustApply(t, e, seat.South, game.ShedMove(cards.MustParse("6C")))
	assert.Equal(t, game.PauseTrick, e.Pending())
	assert.Len(t, e.pile, 2, "burned pile stays visible until advanced")

	evs, err := e.Advance()
	require.NoError(t, err)
	require.True(t, game.HasEvent(evs, game.EventPileCleared))
	assert.Empty(t, e.pile)
	actor, _ := e.CurrentActor()
	assert.Equal(t, seat.South, actor, "last player leads again")
}

func TestOnlyAFullRoundBurnsThePile(t *testing.T) {
	e := setupShedding(t, threeSeats, DefaultOptions(), cards.Hearts, "", map[seat.Seat]string{
		seat.North: "10C 2D",
		seat.East:  "10S 3D",
		seat.South: "10D 4D",
	})
	mustApply(t, e, seat.North, game.ShedMove(cards.MustParse("10C")))
	assert.Equal(t, game.PauseNone, e.Pending(), "a ten is an ordinary card")
	evs := mustApply(t, e, seat.East, game.ShedMove(cards.MustParse("10S")))
	assert.Equal(t, game.PauseNone, e.Pending())
	assert.Equal(t, seat.South, evs[0].Payload["skipped"])
	assert.Len(t, e.pile, 2)

	actor, _ := e.CurrentActor()
	require.Equal(t, seat.North, actor)
	mustApply(t, e, seat.North, game.SimpleMove(game.MovePickup))
	assert.Empty(t, e.pile)
}

func TestPlayersGoOutAndLastSeatLoses(t *testing.T) {
	e := setupShedding(t, threeSeats, DefaultOptions(), cards.Hearts, "", map[seat.Seat]string{
		seat.North: "5C",
		seat.East:  "6C 2D",
		seat.South: "7C 3D",
	})
	evs := mustApply(t, e, seat.North, game.ShedMove(cards.MustParse("5C")))
	require.True(t, game.HasEvent(evs, game.EventPlayerOut))
	assert.True(t, e.out[seat.North])

	mustApply(t, e, seat.East, game.ShedMove(cards.MustParse("6C")))
	require.Equal(t, game.PauseTrick, e.Pending(), "two plays burn once only two seats remain")
	_, err := e.Advance()
	require.NoError(t, err)

	actor, _ := e.CurrentActor()
	require.Equal(t, seat.East, actor)
	evs = mustApply(t, e, seat.East, game.ShedMove(cards.MustParse("2D")))
	require.True(t, game.HasEvent(evs, game.EventGameEnded))

	loser, ok := e.Loser()
	require.True(t, ok)
	assert.Equal(t, seat.South, loser)
	assert.Equal(t, []seat.Seat{seat.North, seat.East}, e.FinishOrder())
	assert.Equal(t, game.PauseGame, e.Pending())
	_, ok = e.CurrentActor()
	assert.False(t, ok)
}

func TestStalemateGuard(t *testing.T) {
	e := setupShedding(t, threeSeats, Options{MaxShedMoves: 1}, cards.Hearts, "", map[seat.Seat]string{
		seat.North: "5C 6C",
		seat.East:  "2D 3D 4D 5D",
		seat.South: "7C 3S 4S",
	})
	evs := mustApply(t, e, seat.North, game.ShedMove(cards.MustParse("5C")))
	require.True(t, game.HasEvent(evs, game.EventGameEnded))
	loser, ok := e.Loser()
	require.True(t, ok)
	assert.Equal(t, seat.East, loser, "most cards loses")
	assert.Equal(t, []seat.Seat{seat.North, seat.South}, e.FinishOrder())
}

type strategy func(rng *rand.Rand, moves []game.Move) game.Move

func randomStrategy(rng *rand.Rand, moves []game.Move) game.Move {
	return moves[rng.Intn(len(moves))]
}

func alwaysPickup(rng *rand.Rand, moves []game.Move) game.Move {
	for _, m := range moves {
		if m.Type == game.MovePickup {
			return m
		}
	}
	return moves[0]
}

// Any strategy ends with exactly one loser and every other seat in the finish order.
func TestSheddingTerminates(t *testing.T) {
	strategies := map[string]strategy{"random": randomStrategy, "always-pickup": alwaysPickup}
	for name, strat := range strategies {
		for _, seats := range [][]seat.Seat{twoSeats, threeSeats, seat.All} {
			for seed := int64(0); seed < 10; seed++ {
				e, err := New(seats, DefaultOptions())
				require.NoError(t, err)
				_, _, err = e.Deal(seed)
				require.NoError(t, err)
				rng := rand.New(rand.NewSource(seed))

				steps := 0
				for ; e.Pending() != game.PauseGame && steps < 10000; steps++ {
					if e.Pending() != game.PauseNone {
						_, err := e.Advance()
						require.NoError(t, err)
						continue
					}
					actor, ok := e.CurrentActor()
					require.True(t, ok)
					moves := e.LegalMoves(actor)
					require.NotEmpty(t, moves, "%s seed %d", name, seed)
					mustApply(t, e, actor, strat(rng, moves))
				}
				require.Equal(t, game.PhaseGameEnd, e.Phase(), "%s seed %d did not finish", name, seed)

				loser, ok := e.Loser()
				require.True(t, ok)
				order := e.FinishOrder()
				assert.Len(t, order, len(seats)-1)
				assert.NotContains(t, order, loser)
				assert.ElementsMatch(t, seats, append(order, loser))
			}
		}
	}
}

func TestBotsPlayToTheEnd(t *testing.T) {
	e := setupTestGame(t, seat.All, DefaultOptions())
	for steps := 0; e.Pending() != game.PauseGame && steps < 10000; steps++ {
		if e.Pending() != game.PauseNone {
			_, err := e.Advance()
			require.NoError(t, err)
			continue
		}
		actor, _ := e.CurrentActor()
		m, ok := e.BotMove(actor)
		require.True(t, ok)
		mustApply(t, e, actor, m)
	}
	_, ok := e.Loser()
	assert.True(t, ok)
}

func TestSnapshotsHideOtherHands(t *testing.T) {
	e := setupTestGame(t, threeSeats, DefaultOptions())
	v := e.SnapshotFor(seat.East)
	assert.Len(t, v.Hand, 3)
	assert.Equal(t, cards.DeckSize-9, v.StockCount)
	assert.Nil(t, v.Trump, "trump is unknown during collection")
	require.NotNil(t, v.Duel)
	assert.Equal(t, seat.North, v.Duel.Leader)
	assert.Equal(t, seat.East, v.Duel.Responder)

	admin := e.AdminSnapshot()
	assert.Len(t, admin.Hands, 3)
	assert.Len(t, admin.Stock, cards.DeckSize-9)
}
