// internal/game/bridge/bridge.go
package bridge

import (
	"fmt"

	"github.com/jason-s-yu/trickhouse/internal/cards"
	"github.com/jason-s-yu/trickhouse/internal/game"
	"github.com/jason-s-yu/trickhouse/internal/seat"
)

// TricksPerHand is the number of tricks in a bridge hand.
const TricksPerHand = 13

// PassedOutPolicy decides what happens when all four seats pass without a bid.
type PassedOutPolicy string

const (
	// PassedOutRedeal redeals the same hand number with the next dealer once the hand
	// pause is acknowledged.
	PassedOutRedeal PassedOutPolicy = "redeal"
	// PassedOutScore scores the hand as zero for both sides and moves on.
	PassedOutScore PassedOutPolicy = "score"
)

// Options configures a bridge game.
type Options struct {
	HandsPerGame int             `json:"handsPerGame"`
	PassedOut    PassedOutPolicy `json:"passedOut"`
}

func DefaultOptions() Options {
	return Options{HandsPerGame: 4, PassedOut: PassedOutRedeal}
}

// Engine runs contract bridge: an auction, then declarer/dummy trick play scored per
// partnership.
type Engine struct {
	opts  Options
	seats []seat.Seat
	bots  map[seat.Seat]bool

	phase   game.Phase
	pending game.Pause
	seed    int64
	hand    int // hands played or scored; redeals do not count
	deals   int // every shuffle, redeals included
	redeal  bool // the paused hand was passed out and is dealt again
	dealer  seat.Seat

	hands    map[seat.Seat][]cards.Card
	auction  []game.Call
	turn     seat.Seat // next caller during the auction
	contract *game.Contract
	trump    *cards.Suit

	trick     *game.Trick
	history   []*game.Trick
	lastTrick *game.Trick

	sideTricks    map[seat.Partnership]int
	scores        map[seat.Partnership]int
	lastHandScore map[seat.Partnership]int
}

var _ game.Engine = (*Engine)(nil)

func New(opts Options) *Engine {
	if opts.HandsPerGame <= 0 {
		opts.HandsPerGame = DefaultOptions().HandsPerGame
	}
	if opts.PassedOut == "" {
		opts.PassedOut = PassedOutRedeal
	}
	return &Engine{
		opts:       opts,
		seats:      append([]seat.Seat{}, seat.All...),
		bots:       make(map[seat.Seat]bool),
		phase:      game.PhaseWaiting,
		hands:      make(map[seat.Seat][]cards.Card),
		sideTricks: make(map[seat.Partnership]int),
		scores:     map[seat.Partnership]int{seat.NorthSouth: 0, seat.EastWest: 0},
	}
}

func (e *Engine) Variant() game.Variant       { return game.VariantBridge }
func (e *Engine) Phase() game.Phase           { return e.phase }
func (e *Engine) Seats() []seat.Seat          { return append([]seat.Seat{}, e.seats...) }
func (e *Engine) HandNumber() int             { return e.hand }
func (e *Engine) Pending() game.Pause         { return e.pending }
func (e *Engine) SetBot(s seat.Seat, bot bool) { e.bots[s] = bot }

// Contract returns the contract of the current hand, nil during the auction.
func (e *Engine) Contract() *game.Contract {
	if e.contract == nil {
		return nil
	}
	c := *e.contract
	return &c
}

// Controller maps the dummy to its declarer once the contract is set.
func (e *Engine) Controller(s seat.Seat) seat.Seat {
	if e.contract != nil && s == e.contract.Dummy {
		return e.contract.Declarer
	}
	return s
}

func (e *Engine) Deal(seed int64) (game.Deal, []game.Event, error) {
	if e.phase != game.PhaseWaiting {
		return game.Deal{}, nil, game.Errorf(game.CodeWrongPhase, "game already started")
	}
	e.seed = seed
	e.dealer = seat.North
	d, evs := e.dealHand(1)
	return d, evs, nil
}

// dealHand deals hand n with the current dealer, who also calls first.
func (e *Engine) dealHand(n int) (game.Deal, []game.Event) {
	from := e.phase
	e.phase = game.PhaseDealing
	e.hand = n
	e.deals++
	deck := cards.Shuffle(cards.NewDeck(), game.HandSeed(e.seed, e.deals))

	d := game.Deal{Hands: make(map[seat.Seat][]cards.Card)}
	for i, s := range seat.Rotate(e.seats, e.dealer.LeftOf()) {
		hand := cards.SortHand(deck[i*TricksPerHand : (i+1)*TricksPerHand])
		e.hands[s] = hand
		d.Hands[s] = append([]cards.Card{}, hand...)
	}
	e.auction = nil
	e.turn = e.dealer
	e.contract = nil
	e.trump = nil
	e.trick = nil
	e.history = nil
	e.lastTrick = nil
	e.sideTricks = map[seat.Partnership]int{seat.NorthSouth: 0, seat.EastWest: 0}
	e.pending = game.PauseNone
	e.phase = game.PhaseBidding

	return d, []game.Event{
		game.PhaseEvent(from, game.PhaseDealing),
		game.NewEvent(game.EventHandDealt, nil, map[string]interface{}{
			"hand":   n,
			"dealer": e.dealer,
		}),
		game.PhaseEvent(game.PhaseDealing, game.PhaseBidding),
	}
}

// CurrentActor is the next caller during the auction and the seat whose card is due
// during play (which may be the dummy).
func (e *Engine) CurrentActor() (seat.Seat, bool) {
	if e.pending != game.PauseNone {
		return 0, false
	}
	switch e.phase {
	case game.PhaseBidding:
		return e.turn, true
	case game.PhasePlaying:
		if n := len(e.trick.Entries); n > 0 {
			return e.trick.Entries[n-1].Seat.LeftOf(), true
		}
		return e.trick.Leader, true
	}
	return 0, false
}

func (e *Engine) Apply(submitter seat.Seat, m game.Move) ([]game.Event, error) {
	if err := m.Validate(); err != nil {
		return nil, err
	}
	switch m.Type {
	case game.MoveBid, game.MovePass, game.MoveDouble, game.MoveRedouble:
		return e.call(submitter, m)
	case game.MovePlay:
		return e.play(submitter, m)
	}
	return nil, game.Errorf(game.CodeWrongPhase, "%s is not a bridge move", m.Type)
}

func (e *Engine) lastBid() *game.Call {
	for i := len(e.auction) - 1; i >= 0; i-- {
		if e.auction[i].Type == game.MoveBid {
			return &e.auction[i]
		}
	}
	return nil
}

func (e *Engine) lastNonPass() *game.Call {
	for i := len(e.auction) - 1; i >= 0; i-- {
		if e.auction[i].Type != game.MovePass {
			return &e.auction[i]
		}
	}
	return nil
}

// checkCall reports why actor may not make call m, or nil.
func (e *Engine) checkCall(actor seat.Seat, m game.Move) error {
	switch m.Type {
	case game.MoveBid:
		if last := e.lastBid(); last != nil && !m.Bid.Higher(*last.Bid) {
			return game.Errorf(game.CodeIllegalMove, "%s does not outrank %s", m.Bid, last.Bid)
		}
	case game.MoveDouble:
		last := e.lastNonPass()
		if last == nil || last.Type != game.MoveBid || last.Seat.Partnership() == actor.Partnership() {
			return game.Errorf(game.CodeIllegalMove, "double is only legal over an opponents' bid")
		}
	case game.MoveRedouble:
		last := e.lastNonPass()
		if last == nil || last.Type != game.MoveDouble || last.Seat.Partnership() == actor.Partnership() {
			return game.Errorf(game.CodeIllegalMove, "redouble is only legal over an opponents' double")
		}
	}
	return nil
}

func (e *Engine) call(submitter seat.Seat, m game.Move) ([]game.Event, error) {
	if e.phase != game.PhaseBidding {
		return nil, game.Errorf(game.CodeWrongPhase, "the auction is over")
	}
	actor := m.Actor(submitter)
	if actor != submitter || actor != e.turn {
		return nil, game.Errorf(game.CodeNotYourTurn, "it is %s's call", e.turn)
	}
	if err := e.checkCall(actor, m); err != nil {
		return nil, err
	}

	c := game.Call{Seat: actor, Type: m.Type}
	if m.Bid != nil && m.Type == game.MoveBid {
		b := *m.Bid
		c.Bid = &b
	}
	e.auction = append(e.auction, c)
	e.turn = actor.LeftOf()
	evs := []game.Event{game.SeatEvent(game.EventBidMade, actor, map[string]interface{}{"call": c})}

	n := len(e.auction)
	if n < 4 || !e.trailingPasses(3) {
		return evs, nil
	}
	if e.lastBid() != nil {
		return append(evs, e.formContract()...), nil
	}
	if n == 4 {
		return append(evs, e.passOut()...), nil
	}
	return evs, nil
}

func (e *Engine) trailingPasses(k int) bool {
	if len(e.auction) < k {
		return false
	}
	for _, c := range e.auction[len(e.auction)-k:] {
		if c.Type != game.MovePass {
			return false
		}
	}
	return true
}

// formContract closes the auction. The declarer is the member of the winning side who
// first named the final strain.
func (e *Engine) formContract() []game.Event {
	final := e.lastBid()
	side := final.Seat.Partnership()
	declarer := final.Seat
	for _, c := range e.auction {
		if c.Type == game.MoveBid && c.Bid.Strain == final.Bid.Strain && c.Seat.Partnership() == side {
			declarer = c.Seat
			break
		}
	}
	contract := &game.Contract{
		Bid:        *final.Bid,
		Declarer:   declarer,
		Dummy:      declarer.Partner(),
		Defenders:  side.Opponents(),
		TricksNeed: 6 + final.Bid.Level,
	}
	if last := e.lastNonPass(); last != nil {
		contract.Doubled = last.Type == game.MoveDouble || last.Type == game.MoveRedouble
		contract.Redoubled = last.Type == game.MoveRedouble
	}
	e.contract = contract
	if suit, ok := contract.Bid.Strain.Suit(); ok {
		e.trump = &suit
	}
	e.trick = game.NewTrick(1, declarer.LeftOf())
	e.phase = game.PhasePlaying

	return []game.Event{
		game.SeatEvent(game.EventContractFormed, declarer, map[string]interface{}{
			"contract": *contract,
			"dummy":    append([]cards.Card{}, e.hands[contract.Dummy]...),
		}),
		game.PhaseEvent(game.PhaseBidding, game.PhasePlaying),
	}
}

// passOut handles four passes with no bid according to the configured policy.
func (e *Engine) passOut() []game.Event {
	evs := []game.Event{game.NewEvent(game.EventPassedOut, nil, map[string]interface{}{
		"hand":   e.hand,
		"policy": e.opts.PassedOut,
	})}
	if e.opts.PassedOut == PassedOutScore {
		e.lastHandScore = map[seat.Partnership]int{seat.NorthSouth: 0, seat.EastWest: 0}
		return append(evs, e.finishHand(game.PhaseBidding, nil)...)
	}
	e.redeal = true
	e.phase = game.PhaseHandEnd
	e.pending = game.PauseHand
	return append(evs, game.PhaseEvent(game.PhaseBidding, game.PhaseHandEnd))
}

func (e *Engine) String() string {
	return fmt.Sprintf("bridge hand %d %s", e.hand, e.phase)
}
