// internal/room/driver.go
package room

import (
	"context"
	"time"

	"github.com/jason-s-yu/trickhouse/internal/game"
	"github.com/sirupsen/logrus"
)

type stepKind int

const (
	stepIdle    stepKind = iota // a human has to act, or the game is over
	stepAdvance                 // archive a trick/duel or deal the next hand
	stepBot                     // play the bot move for the current actor
)

// driveBots is the single driver goroutine of a room. It wakes whenever a step was
// applied and runs bot moves and pauses until a human has to act.
func (o *Orchestrator) driveBots(r *Room) {
	defer o.wg.Done()
	for {
		select {
		case <-r.ctx.Done():
			return
		case <-r.kick:
		}
		o.drive(r)
	}
}

func (o *Orchestrator) drive(r *Room) {
	for {
		r.mu.Lock()
		step, delay := o.nextStep(r)
		version := r.version
		r.mu.Unlock()
		if step == stepIdle {
			return
		}
		if !sleep(r.ctx, delay) {
			return
		}

		r.mu.Lock()
		// a human move, vacate or reconnect landed during the delay: decide again
		if r.closed || r.version != version {
			r.mu.Unlock()
			continue
		}
		ok := o.runStep(r, step)
		r.mu.Unlock()
		if !ok {
			return
		}
	}
}

// nextStep decides what the driver does next and how long it waits first. Callers hold
// the room lock.
func (o *Orchestrator) nextStep(r *Room) (stepKind, time.Duration) {
	if r.closed || !r.started {
		return stepIdle, 0
	}
	switch r.engine.Pending() {
	case game.PauseTrick:
		return stepAdvance, o.pacing.TrickDelay
	case game.PauseHand:
		if len(r.humansLocked()) == 0 {
			return stepAdvance, o.pacing.HandDelay
		}
		if len(r.waitingLocked()) > 0 {
			return stepIdle, 0
		}
		return stepAdvance, 0
	case game.PauseGame:
		return stepIdle, 0
	}
	actor, ok := r.engine.CurrentActor()
	if !ok || !r.isBot(r.engine.Controller(actor)) {
		return stepIdle, 0
	}
	return stepBot, o.pacing.BotDelay
}

// runStep applies one driver step. It reports false when the driver should stop.
func (o *Orchestrator) runStep(r *Room, step stepKind) bool {
	if step == stepAdvance {
		evs, err := r.engine.Advance()
		if err != nil {
			o.log(r).Errorf("advance failed: %v", err)
			return false
		}
		o.commit(r.ctx, r, ActionAdvance, nil, nil, evs)
		return true
	}

	actor, ok := r.engine.CurrentActor()
	if !ok {
		return false
	}
	ctrl := r.engine.Controller(actor)
	m, ok := r.engine.BotMove(actor)
	if !ok {
		moves := r.engine.LegalMoves(actor)
		if len(moves) == 0 {
			o.log(r).WithField("seat", actor).Error("bot has no legal move")
			return false
		}
		m = moves[0]
	}
	if m.Seat == nil && actor != ctrl {
		m = m.For(actor)
	}
	evs, err := r.engine.Apply(ctrl, m)
	if err != nil {
		o.log(r).WithFields(logrus.Fields{"seat": actor, "move": m.String()}).Errorf("bot move rejected: %v", err)
		return false
	}
	o.commit(r.ctx, r, ActionBotMove, &ctrl, &m, evs)
	return true
}

// sleep waits for d, returning false if ctx is cancelled first.
func sleep(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
