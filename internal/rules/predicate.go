// internal/rules/predicate.go
package rules

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"github.com/jason-s-yu/trickhouse/internal/cards"
)

// Op is the node kind of a predicate tree.
type Op string

const (
	OpAnd  Op = "and"
	OpOr   Op = "or"
	OpNot  Op = "not"
	OpAtom Op = "atom"
)

// Subject names the fact source an atom inspects.
type Subject string

const (
	SubjectCard        Subject = "card"        // the card being played (or the candidate card for a matcher)
	SubjectAnyCard     Subject = "anyCard"     // true if any card in the acting player's hand satisfies the atom
	SubjectWinningCard Subject = "winningCard" // the card currently winning the trick
	SubjectPlayer      Subject = "player"
	SubjectTrick       Subject = "trick"
)

// Comparator is the relation an atom applies between a fact and its value.
type Comparator string

const (
	CmpEq    Comparator = "eq"
	CmpNeq   Comparator = "neq"
	CmpGt    Comparator = "gt"
	CmpLt    Comparator = "lt"
	CmpGte   Comparator = "gte"
	CmpLte   Comparator = "lte"
	CmpIn    Comparator = "in"
	CmpNotIn Comparator = "notIn"
)

type fieldKind int

const (
	kindSuit fieldKind = iota
	kindRank
	kindNumber
	kindBool
	kindString
	kindSuitSet
)

// fields lists every field an atom may reference, per subject.
var fields = map[Subject]map[string]fieldKind{
	SubjectCard:        cardFields,
	SubjectAnyCard:     cardFields,
	SubjectWinningCard: cardFields,
	SubjectPlayer: {
		"position":  kindString,
		"tricksWon": kindNumber,
		"handSize":  kindNumber,
		"hasSuit":   kindSuitSet,
	},
	SubjectTrick: {
		"cardCount": kindNumber,
		"leadSuit":  kindSuit,
		"hasTrump":  kindBool,
		"number":    kindNumber,
	},
}

var cardFields = map[string]fieldKind{
	"suit":    kindSuit,
	"rank":    kindRank,
	"value":   kindNumber,
	"isTrump": kindBool,
}

// Predicate is a node of the boolean rule algebra. Leaves are atoms comparing one fact
// against a literal; inner nodes combine children with and/or/not.
type Predicate struct {
	Op         Op          `json:"op"`
	Children   []Predicate `json:"children,omitempty"`
	Subject    Subject     `json:"subject,omitempty"`
	Field      string      `json:"field,omitempty"`
	Comparator Comparator  `json:"cmp,omitempty"`
	Value      interface{} `json:"value"`
}

// And, Or, Not and Atom build predicate trees in code.
func And(children ...Predicate) Predicate { return Predicate{Op: OpAnd, Children: children} }
func Or(children ...Predicate) Predicate  { return Predicate{Op: OpOr, Children: children} }
func Not(child Predicate) Predicate       { return Predicate{Op: OpNot, Children: []Predicate{child}} }

func Atom(subject Subject, field string, cmp Comparator, value interface{}) Predicate {
	return Predicate{Op: OpAtom, Subject: subject, Field: field, Comparator: cmp, Value: value}
}

// PlayerFacts are the acting player's facts at evaluation time.
type PlayerFacts struct {
	Position  string
	TricksWon int
	Hand      []cards.Card
}

// TrickFacts describe the trick in progress.
type TrickFacts struct {
	CardCount int
	LeadSuit  *cards.Suit
	HasTrump  bool
	Number    int
	Winning   *cards.Card
}

// Context is everything a predicate may look at. Evaluation reads nothing else.
type Context struct {
	Played *cards.Card
	Trump  *cards.Suit
	Player PlayerFacts
	Trick  TrickFacts
}

// WithPlayed returns a copy of ctx with the played card replaced.
func (ctx Context) WithPlayed(c cards.Card) Context {
	ctx.Played = &c
	return ctx
}

// Eval evaluates the predicate against ctx. A fact that does not exist (no lead suit
// yet, no winning card) makes its atom false.
func (p Predicate) Eval(ctx Context) bool {
	switch p.Op {
	case OpAnd:
		for _, c := range p.Children {
			if !c.Eval(ctx) {
				return false
			}
		}
		return true
	case OpOr:
		for _, c := range p.Children {
			if c.Eval(ctx) {
				return true
			}
		}
		return false
	case OpNot:
		if len(p.Children) != 1 {
			return false
		}
		return !p.Children[0].Eval(ctx)
	case OpAtom, "":
		return p.evalAtom(ctx)
	}
	return false
}

func (p Predicate) evalAtom(ctx Context) bool {
	switch p.Subject {
	case SubjectCard:
		if ctx.Played == nil {
			return false
		}
		return p.cardAtom(*ctx.Played, ctx.Trump)
	case SubjectWinningCard:
		if ctx.Trick.Winning == nil {
			return false
		}
		return p.cardAtom(*ctx.Trick.Winning, ctx.Trump)
	case SubjectAnyCard:
		for _, c := range ctx.Player.Hand {
			if p.cardAtom(c, ctx.Trump) {
				return true
			}
		}
		return false
	case SubjectPlayer:
		switch p.Field {
		case "position":
			return compare(kindString, ctx.Player.Position, p.Comparator, p.Value)
		case "tricksWon":
			return compare(kindNumber, float64(ctx.Player.TricksWon), p.Comparator, p.Value)
		case "handSize":
			return compare(kindNumber, float64(len(ctx.Player.Hand)), p.Comparator, p.Value)
		case "hasSuit":
			held := []string{}
			for _, s := range cards.Suits {
				if cards.HasSuit(ctx.Player.Hand, s) {
					held = append(held, s.String())
				}
			}
			return compareSet(held, p.Comparator, p.Value)
		}
	case SubjectTrick:
		switch p.Field {
		case "cardCount":
			return compare(kindNumber, float64(ctx.Trick.CardCount), p.Comparator, p.Value)
		case "leadSuit":
			if ctx.Trick.LeadSuit == nil {
				return false
			}
			return compare(kindSuit, ctx.Trick.LeadSuit.String(), p.Comparator, p.Value)
		case "hasTrump":
			return compare(kindBool, ctx.Trick.HasTrump, p.Comparator, p.Value)
		case "number":
			return compare(kindNumber, float64(ctx.Trick.Number), p.Comparator, p.Value)
		}
	}
	return false
}

func (p Predicate) cardAtom(c cards.Card, trump *cards.Suit) bool {
	switch p.Field {
	case "suit":
		return compare(kindSuit, c.Suit.String(), p.Comparator, p.Value)
	case "rank":
		return compare(kindRank, float64(c.Rank), p.Comparator, p.Value)
	case "value":
		return compare(kindNumber, float64(c.Rank), p.Comparator, p.Value)
	case "isTrump":
		return compare(kindBool, trump != nil && c.Suit == *trump, p.Comparator, p.Value)
	}
	return false
}

// Validate checks the tree is well formed: known ops, subjects, fields and comparators,
// and a literal of a usable shape.
func (p Predicate) Validate() error {
	switch p.Op {
	case OpAnd, OpOr:
		if len(p.Children) == 0 {
			return fmt.Errorf("%s requires at least one child", p.Op)
		}
		for i, c := range p.Children {
			if err := c.Validate(); err != nil {
				return fmt.Errorf("%s[%d]: %w", p.Op, i, err)
			}
		}
		return nil
	case OpNot:
		if len(p.Children) != 1 {
			return fmt.Errorf("not requires exactly one child, got %d", len(p.Children))
		}
		return p.Children[0].Validate()
	case OpAtom, "":
	default:
		return fmt.Errorf("unknown predicate op %q", p.Op)
	}

	subjectFields, ok := fields[p.Subject]
	if !ok {
		return fmt.Errorf("unknown subject %q", p.Subject)
	}
	kind, ok := subjectFields[p.Field]
	if !ok {
		return fmt.Errorf("unknown field %q for subject %q", p.Field, p.Subject)
	}
	if p.Value == nil {
		return fmt.Errorf("atom %s.%s has no value", p.Subject, p.Field)
	}
	switch p.Comparator {
	case CmpEq, CmpNeq:
		return checkLiteral(kind, p.Value)
	case CmpGt, CmpLt, CmpGte, CmpLte:
		if kind != kindNumber && kind != kindRank {
			return fmt.Errorf("comparator %q needs a numeric field, %s.%s is not", p.Comparator, p.Subject, p.Field)
		}
		return checkLiteral(kind, p.Value)
	case CmpIn, CmpNotIn:
		list, ok := toList(p.Value)
		if !ok || len(list) == 0 {
			return fmt.Errorf("comparator %q needs a non-empty list", p.Comparator)
		}
		for _, v := range list {
			if err := checkLiteral(kind, v); err != nil {
				return err
			}
		}
		return nil
	}
	return fmt.Errorf("unknown comparator %q", p.Comparator)
}

func checkLiteral(kind fieldKind, v interface{}) error {
	switch kind {
	case kindSuit, kindSuitSet:
		if _, ok := normalizeSuit(v); !ok {
			return fmt.Errorf("value %v is not a suit", v)
		}
	case kindRank:
		if _, ok := normalizeRank(v); !ok {
			return fmt.Errorf("value %v is not a rank", v)
		}
	case kindNumber:
		if _, ok := toNumber(v); !ok {
			return fmt.Errorf("value %v is not a number", v)
		}
	case kindBool:
		if _, ok := v.(bool); !ok {
			return fmt.Errorf("value %v is not a boolean", v)
		}
	case kindString:
		if _, ok := v.(string); !ok {
			return fmt.Errorf("value %v is not a string", v)
		}
	}
	return nil
}

// compare applies cmp between a fact and a rule literal of the given kind.
func compare(kind fieldKind, fact interface{}, cmp Comparator, value interface{}) bool {
	switch cmp {
	case CmpIn, CmpNotIn:
		list, ok := toList(value)
		if !ok {
			return false
		}
		found := false
		for _, v := range list {
			if equalFact(kind, fact, v) {
				found = true
				break
			}
		}
		if cmp == CmpIn {
			return found
		}
		return !found
	case CmpEq:
		return equalFact(kind, fact, value)
	case CmpNeq:
		return !equalFact(kind, fact, value)
	}

	f, ok := fact.(float64)
	if !ok {
		return false
	}
	var v float64
	if kind == kindRank {
		v, ok = normalizeRank(value)
	} else {
		v, ok = toNumber(value)
	}
	if !ok {
		return false
	}
	switch cmp {
	case CmpGt:
		return f > v
	case CmpLt:
		return f < v
	case CmpGte:
		return f >= v
	case CmpLte:
		return f <= v
	}
	return false
}

func equalFact(kind fieldKind, fact interface{}, value interface{}) bool {
	switch kind {
	case kindSuit:
		s, ok := normalizeSuit(value)
		return ok && fact == s
	case kindRank:
		r, ok := normalizeRank(value)
		return ok && fact == r
	case kindNumber:
		n, ok := toNumber(value)
		return ok && fact == n
	case kindBool:
		b, ok := value.(bool)
		return ok && fact == b
	case kindString:
		s, ok := value.(string)
		return ok && strings.EqualFold(fact.(string), s)
	}
	return false
}

// compareSet handles player.hasSuit: eq/in mean "holds (any of) the suits",
// neq/notIn mean "holds none of them".
func compareSet(held []string, cmp Comparator, value interface{}) bool {
	contains := func(v interface{}) bool {
		s, ok := normalizeSuit(v)
		if !ok {
			return false
		}
		for _, h := range held {
			if h == s {
				return true
			}
		}
		return false
	}
	var list []interface{}
	switch cmp {
	case CmpEq, CmpNeq:
		list = []interface{}{value}
	case CmpIn, CmpNotIn:
		var ok bool
		if list, ok = toList(value); !ok {
			return false
		}
	default:
		return false
	}
	hit := false
	for _, v := range list {
		if contains(v) {
			hit = true
			break
		}
	}
	if cmp == CmpEq || cmp == CmpIn {
		return hit
	}
	return !hit
}

func normalizeSuit(v interface{}) (string, bool) {
	s, ok := v.(string)
	if !ok {
		return "", false
	}
	suit, err := cards.ParseSuit(s)
	if err != nil {
		return "", false
	}
	return suit.String(), true
}

func normalizeRank(v interface{}) (float64, bool) {
	if s, ok := v.(string); ok {
		r, err := cards.ParseRank(s)
		if err != nil {
			return 0, false
		}
		return float64(r), true
	}
	n, ok := toNumber(v)
	if !ok || n != math.Trunc(n) || !cards.Rank(n).Valid() {
		return 0, false
	}
	return n, true
}

func toNumber(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case float64:
		return n, true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	}
	return 0, false
}

func toList(v interface{}) ([]interface{}, bool) {
	switch l := v.(type) {
	case []interface{}:
		return l, true
	case []string:
		out := make([]interface{}, len(l))
		for i, s := range l {
			out[i] = s
		}
		return out, true
	case []int:
		out := make([]interface{}, len(l))
		for i, n := range l {
			out[i] = n
		}
		return out, true
	}
	return nil, false
}
