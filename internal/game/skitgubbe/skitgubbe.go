// internal/game/skitgubbe/skitgubbe.go
package skitgubbe

import (
	"fmt"

	"github.com/jason-s-yu/trickhouse/internal/cards"
	"github.com/jason-s-yu/trickhouse/internal/game"
	"github.com/jason-s-yu/trickhouse/internal/seat"
)

// Options configures a skitgubbe game.
type Options struct {
	HandSize     int `json:"handSize"`
	MaxShedMoves int `json:"maxShedMoves"` // shedding moves before the stalemate guard ends the game
}

func DefaultOptions() Options {
	return Options{HandSize: 3, MaxShedMoves: 2000}
}

// duel is the pairwise sub-round of the collection phase.
type duel struct {
	leader        seat.Seat
	responder     seat.Seat
	leaderCard    *cards.Card
	responderCard *cards.Card
	winner        *seat.Seat
	tied          bool
}

// Engine runs Skitgubbe: a collection phase of pairwise duels fed from the stock,
// then a shedding phase on a shared pile. The last seat holding cards loses.
type Engine struct {
	opts  Options
	seats []seat.Seat
	bots  map[seat.Seat]bool

	phase   game.Phase
	pending game.Pause
	seed    int64

	hands     map[seat.Seat][]cards.Card
	collected map[seat.Seat][]cards.Card
	stock     []cards.Card // top first
	tiePile   []cards.Card
	trump     *cards.Suit

	duel       *duel
	lastDuel   *duel
	duelLeader seat.Seat

	pile        []cards.Card // top last
	sinceEmpty  int          // plays since the pile was last empty
	burnPending bool
	turn        seat.Seat
	shedMoves   int
	out         map[seat.Seat]bool
	finishOrder []seat.Seat
	loser       *seat.Seat
}

var _ game.Engine = (*Engine)(nil)

// New creates an engine for 2 to 4 distinct seats, seated in the order given.
func New(seats []seat.Seat, opts Options) (*Engine, error) {
	if len(seats) < 2 || len(seats) > 4 {
		return nil, game.Errorf(game.CodeValidation, "skitgubbe needs 2 to 4 seats, got %d", len(seats))
	}
	seen := make(map[seat.Seat]bool)
	for _, s := range seats {
		if !s.Valid() || seen[s] {
			return nil, game.Errorf(game.CodeValidation, "invalid or duplicate seat %s", s)
		}
		seen[s] = true
	}
	def := DefaultOptions()
	if opts.HandSize <= 0 {
		opts.HandSize = def.HandSize
	}
	if opts.HandSize*len(seats) >= cards.DeckSize {
		return nil, game.Errorf(game.CodeValidation, "hand size %d leaves no stock", opts.HandSize)
	}
	if opts.MaxShedMoves <= 0 {
		opts.MaxShedMoves = def.MaxShedMoves
	}
	return &Engine{
		opts:      opts,
		seats:     append([]seat.Seat{}, seats...),
		bots:      make(map[seat.Seat]bool),
		phase:     game.PhaseWaiting,
		hands:     make(map[seat.Seat][]cards.Card),
		collected: make(map[seat.Seat][]cards.Card),
		out:       make(map[seat.Seat]bool),
	}, nil
}

func (e *Engine) Variant() game.Variant            { return game.VariantSkitgubbe }
func (e *Engine) Phase() game.Phase                { return e.phase }
func (e *Engine) Seats() []seat.Seat               { return append([]seat.Seat{}, e.seats...) }
func (e *Engine) Pending() game.Pause              { return e.pending }
func (e *Engine) SetBot(s seat.Seat, bot bool)     { e.bots[s] = bot }
func (e *Engine) Controller(s seat.Seat) seat.Seat { return s }

// HandNumber is always 1: a skitgubbe game is a single hand.
func (e *Engine) HandNumber() int {
	if e.phase == game.PhaseWaiting {
		return 0
	}
	return 1
}

// Loser is the seat that lost, once the game has ended.
func (e *Engine) Loser() (seat.Seat, bool) {
	if e.loser == nil {
		return 0, false
	}
	return *e.loser, true
}

// FinishOrder lists the seats that went out, first out first.
func (e *Engine) FinishOrder() []seat.Seat { return append([]seat.Seat{}, e.finishOrder...) }

// Deal gives every seat HandSize cards; the rest of the deck is the stock.
func (e *Engine) Deal(seed int64) (game.Deal, []game.Event, error) {
	if e.phase != game.PhaseWaiting {
		return game.Deal{}, nil, game.Errorf(game.CodeWrongPhase, "game already started")
	}
	e.seed = seed
	deck := cards.Shuffle(cards.NewDeck(), game.HandSeed(seed, 1))
	d := game.Deal{Hands: make(map[seat.Seat][]cards.Card)}
	n := e.opts.HandSize
	for i, s := range e.seats {
		e.hands[s] = append([]cards.Card{}, deck[i*n:(i+1)*n]...)
		d.Hands[s] = append([]cards.Card{}, e.hands[s]...)
	}
	e.stock = append([]cards.Card{}, deck[len(e.seats)*n:]...)
	d.Stock = append([]cards.Card{}, e.stock...)

	e.duelLeader = e.seats[0]
	e.startDuel()
	e.phase = game.PhaseCollection
	return d, []game.Event{
		game.PhaseEvent(game.PhaseWaiting, game.PhaseDealing),
		game.NewEvent(game.EventHandDealt, nil, map[string]interface{}{
			"handSize": n,
			"stock":    len(e.stock),
		}),
		game.PhaseEvent(game.PhaseDealing, game.PhaseCollection),
	}, nil
}

// next returns the seat after s in seating order that is still in the game.
func (e *Engine) next(s seat.Seat) seat.Seat {
	cur := s
	for range e.seats {
		cur = seat.Next(e.seats, cur)
		if !e.out[cur] {
			return cur
		}
	}
	return s
}

func (e *Engine) active() []seat.Seat {
	var out []seat.Seat
	for _, s := range e.seats {
		if !e.out[s] {
			out = append(out, s)
		}
	}
	return out
}

// CurrentActor is the duel participant due to play, or the seat to shed.
func (e *Engine) CurrentActor() (seat.Seat, bool) {
	if e.pending != game.PauseNone {
		return 0, false
	}
	switch e.phase {
	case game.PhaseCollection:
		if e.duel.leaderCard == nil {
			return e.duel.leader, true
		}
		return e.duel.responder, true
	case game.PhaseShedding:
		return e.turn, true
	}
	return 0, false
}

func (e *Engine) Apply(submitter seat.Seat, m game.Move) ([]game.Event, error) {
	if err := m.Validate(); err != nil {
		return nil, err
	}
	switch m.Type {
	case game.MoveDuel, game.MoveDraw:
		if e.phase != game.PhaseCollection || e.pending != game.PauseNone {
			return nil, game.Errorf(game.CodeWrongPhase, "no duel is in progress")
		}
	case game.MoveShed, game.MovePickup:
		if e.phase != game.PhaseShedding || e.pending != game.PauseNone {
			return nil, game.Errorf(game.CodeWrongPhase, "the shedding phase has not started")
		}
	default:
		return nil, game.Errorf(game.CodeWrongPhase, "%s is not a skitgubbe move", m.Type)
	}
	actor := m.Actor(submitter)
	current, _ := e.CurrentActor()
	if actor != submitter || actor != current {
		return nil, game.Errorf(game.CodeNotYourTurn, "it is %s's turn", current)
	}
	switch m.Type {
	case game.MoveDuel, game.MoveDraw:
		return e.playDuel(actor, m)
	case game.MoveShed:
		return e.shed(actor, *m.Card)
	}
	return e.pickup(actor)
}

// Advance finishes a resolved duel (refill, next duel or the phase change) or clears a
// burned pile.
func (e *Engine) Advance() ([]game.Event, error) {
	if e.pending != game.PauseTrick {
		return nil, game.Errorf(game.CodeWrongPhase, "nothing to advance during %s", e.phase)
	}
	e.pending = game.PauseNone
	if e.phase == game.PhaseCollection {
		return e.finishDuel(), nil
	}
	return e.clearPile(), nil
}

func (e *Engine) String() string {
	return fmt.Sprintf("skitgubbe %s stock=%d pile=%d", e.phase, len(e.stock), len(e.pile))
}
