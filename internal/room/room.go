// internal/room/room.go
package room

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jason-s-yu/trickhouse/internal/game"
	"github.com/jason-s-yu/trickhouse/internal/seat"
)

// SeatConfig describes who occupies a seat. Session is uuid.Nil for bot seats.
type SeatConfig struct {
	Seat    seat.Seat `json:"seat"`
	Bot     bool      `json:"bot"`
	Session uuid.UUID `json:"session"`
	Name    string    `json:"name,omitempty"`
}

// Room owns one live engine and the human/bot seat mapping for it. All access to the
// engine goes through mu; the orchestrator is the only writer.
type Room struct {
	ID      uuid.UUID    `json:"id"`
	Variant game.Variant `json:"variant"`
	Options Options      `json:"options"`
	Created time.Time    `json:"created"`

	mu      sync.Mutex
	engine  game.Engine
	seats   map[seat.Seat]*SeatConfig
	order   []seat.Seat
	host    seat.Seat
	acks    map[seat.Seat]bool
	started bool
	closed  bool
	version int // bumped on every applied step
	actions int // next action index for the recorder

	ctx    context.Context
	cancel context.CancelFunc
	kick   chan struct{}
}

func newRoom(variant game.Variant, engine game.Engine, configs []SeatConfig, opts Options) *Room {
	ctx, cancel := context.WithCancel(context.Background())
	r := &Room{
		ID:      uuid.New(),
		Variant: variant,
		Options: opts,
		Created: time.Now(),
		engine:  engine,
		seats:   make(map[seat.Seat]*SeatConfig),
		order:   engine.Seats(),
		acks:    make(map[seat.Seat]bool),
		ctx:     ctx,
		cancel:  cancel,
		kick:    make(chan struct{}, 1),
	}
	for i := range configs {
		cfg := configs[i]
		if cfg.Bot {
			cfg.Session = uuid.Nil
		}
		r.seats[cfg.Seat] = &cfg
		engine.SetBot(cfg.Seat, cfg.Bot)
	}
	r.host = r.order[0]
	if humans := r.humansLocked(); len(humans) > 0 {
		r.host = humans[0]
	}
	return r
}

// Host is the seat allowed to start and close the room.
func (r *Room) Host() seat.Seat {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.host
}

// SeatFor returns the seat held by session.
func (r *Room) SeatFor(session uuid.UUID) (seat.Seat, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if session == uuid.Nil {
		return 0, false
	}
	for _, s := range r.order {
		if cfg := r.seats[s]; !cfg.Bot && cfg.Session == session {
			return s, true
		}
	}
	return 0, false
}

// Seats returns a copy of the seat mapping in table order.
func (r *Room) Seats() []SeatConfig {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]SeatConfig, 0, len(r.order))
	for _, s := range r.order {
		out = append(out, *r.seats[s])
	}
	return out
}

// Humans returns the human-controlled seats in table order.
func (r *Room) Humans() []seat.Seat {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.humansLocked()
}

func (r *Room) humansLocked() []seat.Seat {
	var out []seat.Seat
	for _, s := range r.order {
		if !r.seats[s].Bot {
			out = append(out, s)
		}
	}
	return out
}

func (r *Room) isBot(s seat.Seat) bool {
	cfg, ok := r.seats[s]
	return !ok || cfg.Bot
}

// Done is closed when the room is torn down.
func (r *Room) Done() <-chan struct{} { return r.ctx.Done() }

// wake schedules a pass of the bot driver without blocking.
func (r *Room) wake() {
	select {
	case r.kick <- struct{}{}:
	default:
	}
}
