// internal/game/whist/whist.go
package whist

import (
	"fmt"
	"math/rand"

	"github.com/google/uuid"
	"github.com/jason-s-yu/trickhouse/internal/cards"
	"github.com/jason-s-yu/trickhouse/internal/game"
	"github.com/jason-s-yu/trickhouse/internal/rules"
	"github.com/jason-s-yu/trickhouse/internal/seat"
)

// TricksPerHand is the number of tricks in a 52-card, four-seat hand.
const TricksPerHand = 13

// TieBreak decides the hand winner when several seats took the most tricks.
type TieBreak string

const (
	// TieBreakLastTrick awards the hand to the tied seat that won the latest trick.
	TieBreakLastTrick TieBreak = "last_trick"
	// TieBreakNone leaves the hand without a winner; nobody authors a rule.
	TieBreakNone TieBreak = "none"
)

// Options configures a whist game.
type Options struct {
	HandsPerGame int      `json:"handsPerGame"`
	TieBreak     TieBreak `json:"tieBreak"`
}

// DefaultOptions returns the house defaults.
func DefaultOptions() Options {
	return Options{HandsPerGame: 5, TieBreak: TieBreakLastTrick}
}

// Engine runs trick-taking whist with a layer of player-authored house rules.
type Engine struct {
	opts  Options
	seats []seat.Seat
	bots  map[seat.Seat]bool

	phase   game.Phase
	pending game.Pause
	seed    int64
	hand    int
	trump   *cards.Suit

	hands     map[seat.Seat][]cards.Card
	tricksWon map[seat.Seat]int
	handsWon  map[seat.Seat]int

	trick      *game.Trick
	toAct      []seat.Seat // seats still to play in the current trick, next first
	reversed   bool        // play direction for later tricks this hand
	history    []*game.Trick
	lastTrick  *game.Trick
	nextLeader seat.Seat

	rules      []rules.Rule
	handWinner *seat.Seat
}

var _ game.Engine = (*Engine)(nil)

// New creates a whist engine for the four compass seats.
func New(opts Options) *Engine {
	if opts.HandsPerGame <= 0 {
		opts.HandsPerGame = DefaultOptions().HandsPerGame
	}
	if opts.TieBreak == "" {
		opts.TieBreak = TieBreakLastTrick
	}
	return &Engine{
		opts:      opts,
		seats:     append([]seat.Seat{}, seat.All...),
		bots:      make(map[seat.Seat]bool),
		phase:     game.PhaseWaiting,
		hands:     make(map[seat.Seat][]cards.Card),
		tricksWon: make(map[seat.Seat]int),
		handsWon:  make(map[seat.Seat]int),
	}
}

func (e *Engine) Variant() game.Variant { return game.VariantWhist }
func (e *Engine) Phase() game.Phase     { return e.phase }
func (e *Engine) Seats() []seat.Seat    { return append([]seat.Seat{}, e.seats...) }
func (e *Engine) HandNumber() int       { return e.hand }
func (e *Engine) Pending() game.Pause   { return e.pending }

func (e *Engine) SetBot(s seat.Seat, bot bool) { e.bots[s] = bot }

// Controller is the identity mapping: every whist seat plays its own hand.
func (e *Engine) Controller(s seat.Seat) seat.Seat { return s }

// Rules returns the house rules authored so far.
func (e *Engine) Rules() []rules.Rule { return append([]rules.Rule{}, e.rules...) }

// Deal starts the game. It is only legal before the first hand.
func (e *Engine) Deal(seed int64) (game.Deal, []game.Event, error) {
	if e.phase != game.PhaseWaiting {
		return game.Deal{}, nil, game.Errorf(game.CodeWrongPhase, "game already started")
	}
	e.seed = seed
	d, evs := e.dealHand(1)
	return d, evs, nil
}

// dealHand shuffles and deals hand n: 13 cards per seat and a trump drawn from the four
// suits, both from the hand's seed.
func (e *Engine) dealHand(n int) (game.Deal, []game.Event) {
	from := e.phase
	e.phase = game.PhaseDealing
	e.hand = n
	handSeed := game.HandSeed(e.seed, n)
	deck := cards.Shuffle(cards.NewDeck(), handSeed)
	trump := cards.Suits[rand.New(rand.NewSource(handSeed)).Intn(len(cards.Suits))]
	e.trump = &trump

	d := game.Deal{Trump: e.trump, Hands: make(map[seat.Seat][]cards.Card)}
	for i, s := range e.seats {
		hand := cards.SortHand(deck[i*TricksPerHand : (i+1)*TricksPerHand])
		e.hands[s] = hand
		d.Hands[s] = append([]cards.Card{}, hand...)
		e.tricksWon[s] = 0
	}
	e.history = nil
	e.lastTrick = nil
	e.handWinner = nil
	e.reversed = false

	leader := e.seats[(n-1)%len(e.seats)]
	e.startTrick(1, leader)
	e.pending = game.PauseNone
	e.phase = game.PhasePlaying

	evs := []game.Event{
		game.PhaseEvent(from, game.PhaseDealing),
		game.NewEvent(game.EventHandDealt, nil, map[string]interface{}{
			"hand":   n,
			"trump":  trump,
			"leader": leader,
		}),
		game.PhaseEvent(game.PhaseDealing, game.PhasePlaying),
	}
	return d, evs
}

// startTrick opens trick n with the seats ordered from leader in the current direction.
func (e *Engine) startTrick(n int, leader seat.Seat) {
	e.trick = game.NewTrick(n, leader)
	order := seat.Rotate(e.seats, leader)
	if e.reversed {
		// leader first, then counter-clockwise
		rev := []seat.Seat{leader}
		for i := len(order) - 1; i > 0; i-- {
			rev = append(rev, order[i])
		}
		order = rev
	}
	e.toAct = order
}

// CurrentActor is the next seat to play, or the hand winner while a rule is pending.
func (e *Engine) CurrentActor() (seat.Seat, bool) {
	switch e.phase {
	case game.PhasePlaying:
		if e.pending == game.PauseNone && len(e.toAct) > 0 {
			return e.toAct[0], true
		}
	case game.PhaseRuleCreate:
		if e.handWinner != nil {
			return *e.handWinner, true
		}
	}
	return 0, false
}

// activeRules are the rules in force for the current hand.
func (e *Engine) activeRules() []rules.Rule {
	var out []rules.Rule
	for _, r := range e.rules {
		if r.AppliesTo(e.hand) {
			out = append(out, r)
		}
	}
	return out
}

func (e *Engine) ruleContext(s seat.Seat, c cards.Card) rules.Context {
	ctx := rules.Context{
		Trump: e.trump,
		Player: rules.PlayerFacts{
			Position:  s.String(),
			TricksWon: e.tricksWon[s],
			Hand:      e.hands[s],
		},
		Trick: rules.TrickFacts{
			CardCount: len(e.trick.Entries),
			LeadSuit:  e.trick.LeadSuit,
			HasTrump:  e.trick.HasTrump(e.trump),
			Number:    e.trick.Number,
		},
	}
	if w, ok := e.trick.Winning(e.trump); ok {
		card := w.Card
		ctx.Trick.Winning = &card
	}
	return ctx.WithPlayed(c)
}

// evaluate runs the play rules, and the lead rules when c would lead the trick. Rules
// in waived are left out.
func (e *Engine) evaluate(s seat.Seat, c cards.Card, waived map[uuid.UUID]bool) rules.Result {
	active := e.activeRules()
	if len(waived) > 0 {
		kept := active[:0]
		for _, r := range active {
			if !waived[r.ID] {
				kept = append(kept, r)
			}
		}
		active = kept
	}
	ctx := e.ruleContext(s, c)
	res := rules.Evaluate(active, rules.EventPlay, ctx)
	if len(e.trick.Entries) == 0 {
		lead := rules.Evaluate(active, rules.EventLead, ctx)
		res.Violations = append(res.Violations, lead.Violations...)
		res.AppliedEffects = append(res.AppliedEffects, lead.AppliedEffects...)
		res.MustPlayFaceDown = res.MustPlayFaceDown || lead.MustPlayFaceDown
		res.SkipNextPlayer = res.SkipNextPlayer || lead.SkipNextPlayer
		res.ReverseOrder = res.ReverseOrder || lead.ReverseOrder
		res.Allowed = len(res.Violations) == 0
	}
	return res
}

// candidate is a follow-suit legal card with its house-rule verdict.
type candidate struct {
	card   cards.Card
	result rules.Result
}

// candidates returns the cards s may play. When house rules would forbid every
// follow-suit card, the rule blocking the most cards is waived for this play, newest
// first on ties, until some card is playable. Rules that take no part in the lock stay
// in force.
func (e *Engine) candidates(s seat.Seat) (allowed []candidate, waived map[uuid.UUID]bool) {
	base := game.FollowSuit(e.hands[s], e.trick)
	for {
		allowed = nil
		blocked := make(map[uuid.UUID]int)
		for _, c := range base {
			res := e.evaluate(s, c, waived)
			if res.Allowed {
				allowed = append(allowed, candidate{card: c, result: res})
				continue
			}
			seen := make(map[uuid.UUID]bool)
			for _, v := range res.Violations {
				if !seen[v.RuleID] {
					seen[v.RuleID] = true
					blocked[v.RuleID]++
				}
			}
		}
		if len(allowed) > 0 || len(blocked) == 0 {
			return allowed, waived
		}
		worst, worstCount := uuid.Nil, 0
		for _, r := range e.rules {
			if n := blocked[r.ID]; n > 0 && n >= worstCount {
				worst, worstCount = r.ID, n
			}
		}
		if worstCount == 0 {
			return allowed, waived
		}
		if waived == nil {
			waived = make(map[uuid.UUID]bool)
		}
		waived[worst] = true
	}
}

// LegalMoves lists the plays s may make now. Each move is face-down when a forceDiscard
// effect applies to it.
func (e *Engine) LegalMoves(s seat.Seat) []game.Move {
	actor, ok := e.CurrentActor()
	if !ok || actor != s {
		return nil
	}
	if e.phase == game.PhaseRuleCreate {
		return []game.Move{game.SimpleMove(game.MoveCreateRule), game.SimpleMove(game.MoveSkipRule)}
	}
	cands, _ := e.candidates(s)
	moves := make([]game.Move, 0, len(cands))
	for _, c := range cands {
		moves = append(moves, game.PlayMove(c.card, c.result.MustPlayFaceDown))
	}
	return moves
}

// Apply executes a play, or the hand winner's rule decision.
func (e *Engine) Apply(submitter seat.Seat, m game.Move) ([]game.Event, error) {
	if err := m.Validate(); err != nil {
		return nil, err
	}
	switch m.Type {
	case game.MovePlay:
		return e.play(submitter, m)
	case game.MoveCreateRule, game.MoveSkipRule:
		return e.decideRule(submitter, m)
	}
	return nil, game.Errorf(game.CodeWrongPhase, "%s is not a whist move", m.Type)
}

func (e *Engine) play(submitter seat.Seat, m game.Move) ([]game.Event, error) {
	if e.phase != game.PhasePlaying || e.pending != game.PauseNone {
		return nil, game.Errorf(game.CodeWrongPhase, "cannot play a card during %s", e.phase)
	}
	actor := m.Actor(submitter)
	current, _ := e.CurrentActor()
	if actor != submitter || actor != current {
		return nil, game.Errorf(game.CodeNotYourTurn, "it is %s's turn", current)
	}
	card := *m.Card
	if !cards.Contains(e.hands[actor], card) {
		return nil, game.Errorf(game.CodeNotYourCard, "%s is not in %s's hand", card, actor)
	}
	if e.trick.LeadSuit != nil && card.Suit != *e.trick.LeadSuit && cards.HasSuit(e.hands[actor], *e.trick.LeadSuit) {
		return nil, game.Errorf(game.CodeIllegalCard, "must follow %s", *e.trick.LeadSuit)
	}

	cands, waived := e.candidates(actor)
	var res *rules.Result
	for i := range cands {
		if cands[i].card == card {
			res = &cands[i].result
			break
		}
	}
	if res == nil {
		full := e.evaluate(actor, card, waived)
		if len(full.Violations) > 0 {
			v := full.Violations[0]
			return nil, game.RuleError(v.RuleID, v.Message)
		}
		return nil, game.Errorf(game.CodeIllegalCard, "%s cannot be played now", card)
	}
	if m.FaceDown && !res.MustPlayFaceDown {
		return nil, game.Errorf(game.CodeIllegalCard, "%s may not be played face-down", card)
	}

	// state changes start here
	faceDown := res.MustPlayFaceDown
	e.hands[actor], _ = cards.Remove(e.hands[actor], card)
	e.trick.Add(game.Entry{Card: card, Seat: actor, FaceDown: faceDown})

	payload := map[string]interface{}{
		"trick":    e.trick.Number,
		"faceDown": faceDown,
	}
	if len(waived) > 0 {
		payload["rulesWaived"] = true
		ids := make([]uuid.UUID, 0, len(waived))
		for _, r := range e.rules {
			if waived[r.ID] {
				ids = append(ids, r.ID)
			}
		}
		payload["waivedRules"] = ids
	}
	if len(res.AppliedEffects) > 0 {
		payload["effects"] = res.AppliedEffects
	}
	played := game.SeatEvent(game.EventCardPlayed, actor, payload)
	if !faceDown {
		played = played.WithCard(card)
	}
	evs := []game.Event{played}

	remaining := append([]seat.Seat{}, e.toAct[1:]...)
	if res.SkipNextPlayer && len(remaining) > 1 {
		remaining = append(remaining[1:], remaining[0])
	}
	if res.ReverseOrder {
		for i, j := 0, len(remaining)-1; i < j; i, j = i+1, j-1 {
			remaining[i], remaining[j] = remaining[j], remaining[i]
		}
		e.reversed = !e.reversed
	}
	e.toAct = remaining

	if len(e.toAct) == 0 {
		winner := e.trick.Resolve(e.trump)
		e.tricksWon[winner]++
		e.nextLeader = winner
		e.pending = game.PauseTrick
		e.phase = game.PhaseTrickEnd
		evs = append(evs,
			game.SeatEvent(game.EventTrickComplete, winner, map[string]interface{}{
				"trick":     e.trick.Number,
				"tricksWon": e.tricksWon[winner],
				"entries":   e.trick.Entries,
			}),
			game.PhaseEvent(game.PhasePlaying, game.PhaseTrickEnd),
		)
	}
	return evs, nil
}

func (e *Engine) decideRule(submitter seat.Seat, m game.Move) ([]game.Event, error) {
	if e.phase != game.PhaseRuleCreate {
		return nil, game.Errorf(game.CodeWrongPhase, "no rule can be created during %s", e.phase)
	}
	if e.handWinner == nil || submitter != *e.handWinner {
		return nil, game.Errorf(game.CodeNotWinner, "only the hand winner may create a rule")
	}
	var evs []game.Event
	if m.Type == game.MoveCreateRule {
		r := *m.Rule
		if r.ID == uuid.Nil {
			r.ID = uuid.New()
		}
		r.CreatedBy = submitter
		r.CreatedHand = e.hand
		r.Active = true
		e.rules = append(e.rules, r)
		evs = append(evs, game.SeatEvent(game.EventRuleCreated, submitter, map[string]interface{}{
			"rule":      r,
			"fromHand":  e.hand + 1,
			"ruleCount": len(e.rules),
		}))
	} else {
		evs = append(evs, game.SeatEvent(game.EventRuleSkipped, submitter, nil))
	}
	_, dealt := e.dealHand(e.hand + 1)
	return append(evs, dealt...), nil
}

// Advance archives a resolved trick, or moves past a finished hand.
func (e *Engine) Advance() ([]game.Event, error) {
	switch e.pending {
	case game.PauseTrick:
		return e.archiveTrick(), nil
	case game.PauseHand:
		if e.handWinner != nil && !e.bots[*e.handWinner] {
			e.pending = game.PauseNone
			e.phase = game.PhaseRuleCreate
			return []game.Event{game.PhaseEvent(game.PhaseHandEnd, game.PhaseRuleCreate)}, nil
		}
		_, evs := e.dealHand(e.hand + 1)
		return evs, nil
	}
	return nil, game.Errorf(game.CodeWrongPhase, "nothing to advance during %s", e.phase)
}

func (e *Engine) archiveTrick() []game.Event {
	e.history = append(e.history, e.trick)
	e.lastTrick = e.trick
	if len(e.history) < TricksPerHand {
		e.startTrick(e.trick.Number+1, e.nextLeader)
		e.pending = game.PauseNone
		e.phase = game.PhasePlaying
		return []game.Event{game.PhaseEvent(game.PhaseTrickEnd, game.PhasePlaying)}
	}

	e.trick = nil
	e.toAct = nil
	e.handWinner = e.decideHandWinner()
	tricks := make(map[string]int, len(e.seats))
	for _, s := range e.seats {
		tricks[s.String()] = e.tricksWon[s]
	}
	payload := map[string]interface{}{"hand": e.hand, "tricks": tricks}
	if e.handWinner != nil {
		e.handsWon[*e.handWinner]++
		payload["winner"] = *e.handWinner
	}
	payload["scores"] = e.scores()
	evs := []game.Event{game.NewEvent(game.EventHandComplete, nil, payload)}

	if e.hand >= e.opts.HandsPerGame {
		e.phase = game.PhaseGameEnd
		e.pending = game.PauseGame
		evs = append(evs,
			game.PhaseEvent(game.PhaseTrickEnd, game.PhaseGameEnd),
			game.NewEvent(game.EventGameEnded, nil, map[string]interface{}{
				"winners": e.gameWinners(),
				"scores":  e.scores(),
			}),
		)
		return evs
	}
	e.phase = game.PhaseHandEnd
	e.pending = game.PauseHand
	return append(evs, game.PhaseEvent(game.PhaseTrickEnd, game.PhaseHandEnd))
}

// decideHandWinner returns the seat with the most tricks, applying the tie-break policy.
func (e *Engine) decideHandWinner() *seat.Seat {
	most := -1
	var tied []seat.Seat
	for _, s := range e.seats {
		switch n := e.tricksWon[s]; {
		case n > most:
			most, tied = n, []seat.Seat{s}
		case n == most:
			tied = append(tied, s)
		}
	}
	if len(tied) == 1 {
		return game.SeatPtr(tied[0])
	}
	if e.opts.TieBreak != TieBreakLastTrick {
		return nil
	}
	for i := len(e.history) - 1; i >= 0; i-- {
		w := *e.history[i].Winner
		if seat.Index(tied, w) >= 0 {
			return game.SeatPtr(w)
		}
	}
	return nil
}

func (e *Engine) gameWinners() []seat.Seat {
	most := -1
	var winners []seat.Seat
	for _, s := range e.seats {
		switch n := e.handsWon[s]; {
		case n > most:
			most, winners = n, []seat.Seat{s}
		case n == most:
			winners = append(winners, s)
		}
	}
	return winners
}

func (e *Engine) scores() map[string]int {
	out := make(map[string]int, len(e.seats))
	for _, s := range e.seats {
		out[s.String()] = e.handsWon[s]
	}
	return out
}

func (e *Engine) String() string {
	return fmt.Sprintf("whist hand %d %s", e.hand, e.phase)
}
