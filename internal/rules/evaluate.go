// internal/rules/evaluate.go
package rules

import (
	"fmt"
	"sort"

	"github.com/google/uuid"
	"github.com/jason-s-yu/trickhouse/internal/cards"
)

// Violation is a rule that refused the played card.
type Violation struct {
	RuleID   uuid.UUID `json:"ruleId"`
	RuleName string    `json:"ruleName"`
	Message  string    `json:"message"`
}

// AppliedEffect records which rule contributed an effect.
type AppliedEffect struct {
	RuleID uuid.UUID `json:"ruleId"`
	Effect Effect    `json:"effect"`
}

// Result is the outcome of evaluating a rule set at one evaluation point.
type Result struct {
	Allowed          bool            `json:"allowed"`
	Violations       []Violation     `json:"violations,omitempty"`
	AppliedEffects   []AppliedEffect `json:"appliedEffects,omitempty"`
	MustPlayFaceDown bool            `json:"mustPlayFaceDown"`
	SkipNextPlayer   bool            `json:"skipNextPlayer"`
	ReverseOrder     bool            `json:"reverseOrder"`
}

type firing struct {
	rule   Rule
	effect Effect
}

// Evaluate runs every active rule registered for event against ctx and interprets their
// effects in priority order: forbidPlay, requirePlay, forceDiscard, skipNextPlayer,
// reverseOrder. The result depends only on (rules, event, ctx).
func Evaluate(rules []Rule, event Event, ctx Context) Result {
	var fired []firing
	for _, r := range rules {
		if !r.Active || r.Event != event {
			continue
		}
		if r.Condition != nil && !r.Condition.Eval(ctx) {
			continue
		}
		for _, e := range r.Effects {
			fired = append(fired, firing{rule: r, effect: e})
		}
	}
	sort.SliceStable(fired, func(i, j int) bool {
		return fired[i].effect.Type.priority() < fired[j].effect.Type.priority()
	})

	res := Result{Allowed: true}
	for _, f := range fired {
		applied := false
		switch f.effect.Type {
		case EffectForbidPlay:
			if ctx.Played != nil && matches(f.effect, ctx, *ctx.Played) {
				res.Violations = append(res.Violations, violation(f, *ctx.Played, "%s is forbidden by %q"))
				applied = true
			}
		case EffectRequirePlay:
			if ctx.Played == nil {
				break
			}
			required := false
			for _, c := range ctx.Player.Hand {
				if matches(f.effect, ctx, c) {
					required = true
					break
				}
			}
			if required {
				applied = true
				if !matches(f.effect, ctx, *ctx.Played) {
					res.Violations = append(res.Violations, violation(f, *ctx.Played, "%s does not satisfy %q"))
				}
			}
		case EffectForceDiscard:
			if ctx.Played != nil && matches(f.effect, ctx, *ctx.Played) {
				res.MustPlayFaceDown = true
				applied = true
			}
		case EffectSkipNextPlayer:
			res.SkipNextPlayer = true
			applied = true
		case EffectReverseOrder:
			res.ReverseOrder = true
			applied = true
		}
		if applied {
			res.AppliedEffects = append(res.AppliedEffects, AppliedEffect{RuleID: f.rule.ID, Effect: f.effect})
		}
	}
	res.Allowed = len(res.Violations) == 0
	return res
}

func matches(e Effect, ctx Context, c cards.Card) bool {
	if e.Matcher == nil {
		return true
	}
	return e.Matcher.Eval(ctx.WithPlayed(c))
}

func violation(f firing, played cards.Card, format string) Violation {
	msg := f.effect.Message
	if msg == "" {
		msg = fmt.Sprintf(format, played, f.rule.Name)
	}
	return Violation{RuleID: f.rule.ID, RuleName: f.rule.Name, Message: msg}
}
