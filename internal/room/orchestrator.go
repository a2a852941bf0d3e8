// internal/room/orchestrator.go
package room

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jason-s-yu/trickhouse/internal/game"
	"github.com/jason-s-yu/trickhouse/internal/seat"
	"github.com/sirupsen/logrus"
)

// Pacing holds the observer delays the bot driver inserts. They only slow play down
// for clients to animate; correctness never depends on them.
type Pacing struct {
	BotDelay   time.Duration // between consecutive bot moves
	TrickDelay time.Duration // after a trick or duel resolves
	HandDelay  time.Duration // before the next deal in a room without humans
}

func DefaultPacing() Pacing {
	return Pacing{
		BotDelay:   800 * time.Millisecond,
		TrickDelay: 1500 * time.Millisecond,
		HandDelay:  3 * time.Second,
	}
}

// Broadcaster delivers events to the observers of a room.
type Broadcaster interface {
	// Broadcast sends ev to everyone in the room.
	Broadcast(roomID uuid.UUID, ev game.Event)
	// SendTo sends ev to the player in seat s only.
	SendTo(roomID uuid.UUID, s seat.Seat, ev game.Event)
}

// Recorder receives one record per applied step, in order.
type Recorder interface {
	RecordAction(ctx context.Context, rec ActionRecord) error
}

// SnapshotSaver stores the encoded state of a room, overwriting the previous one.
type SnapshotSaver interface {
	SaveSnapshot(ctx context.Context, roomID uuid.UUID, blob []byte) error
}

// ActionRecord is the action log entry for one applied step.
type ActionRecord struct {
	RoomID    uuid.UUID    `json:"room_id"`
	Variant   game.Variant `json:"variant"`
	Index     int          `json:"action_index"`
	Type      string       `json:"action_type"`
	Seat      *seat.Seat   `json:"seat,omitempty"`
	Move      *game.Move   `json:"move,omitempty"`
	Events    []game.Event `json:"events"`
	Timestamp int64        `json:"timestamp"`
}

// Action types written to the log.
const (
	ActionDeal    = "deal"
	ActionMove    = "move"
	ActionBotMove = "bot_move"
	ActionAdvance = "advance"
	ActionVacate  = "vacate"
	ActionClose   = "close"
)

// Orchestrator drives human and bot turns through the engines of the rooms in its
// store. Moves for one room are applied one at a time; rooms never share state.
type Orchestrator struct {
	store       *Store
	broadcaster Broadcaster
	logger      logrus.FieldLogger
	pacing      Pacing

	// Recorder and Snapshots are optional. When set they receive the action log and
	// the room state at the end of every hand.
	Recorder  Recorder
	Snapshots SnapshotSaver

	wg sync.WaitGroup
}

func NewOrchestrator(store *Store, b Broadcaster, logger logrus.FieldLogger, pacing Pacing) *Orchestrator {
	return &Orchestrator{
		store:       store,
		broadcaster: b,
		logger:      logger,
		pacing:      pacing,
	}
}

func (o *Orchestrator) Store() *Store { return o.store }

func (o *Orchestrator) room(id uuid.UUID) (*Room, error) {
	r, ok := o.store.Get(id)
	if !ok {
		return nil, game.Errorf(game.CodeRoomNotFound, "room %s not found", id)
	}
	return r, nil
}

// lockRoom returns the room with its lock held.
func (o *Orchestrator) lockRoom(id uuid.UUID) (*Room, error) {
	r, err := o.room(id)
	if err != nil {
		return nil, err
	}
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil, game.Errorf(game.CodeRoomNotFound, "room %s is closed", id)
	}
	return r, nil
}

func (o *Orchestrator) log(r *Room) logrus.FieldLogger {
	return o.logger.WithFields(logrus.Fields{
		"room":    r.ID,
		"variant": r.Variant,
	})
}

// CreateRoom seats the given players and bots around a new engine. The first human
// seat hosts the room.
func (o *Orchestrator) CreateRoom(variant game.Variant, configs []SeatConfig, opts Options) (*Room, error) {
	seats := make([]seat.Seat, 0, len(configs))
	seen := make(map[seat.Seat]bool)
	sessions := make(map[uuid.UUID]bool)
	for _, cfg := range configs {
		if !cfg.Seat.Valid() || seen[cfg.Seat] {
			return nil, game.Errorf(game.CodeValidation, "invalid or duplicate seat %s", cfg.Seat)
		}
		seen[cfg.Seat] = true
		if !cfg.Bot {
			if cfg.Session == uuid.Nil {
				return nil, game.Errorf(game.CodeValidation, "human seat %s needs a session", cfg.Seat)
			}
			if sessions[cfg.Session] {
				return nil, game.Errorf(game.CodeValidation, "a session can hold only one seat")
			}
			sessions[cfg.Session] = true
		}
		seats = append(seats, cfg.Seat)
	}
	engine, err := NewEngine(variant, seats, opts)
	if err != nil {
		return nil, err
	}
	r := newRoom(variant, engine, configs, opts)
	o.store.Add(r)
	o.log(r).WithField("humans", len(r.Humans())).Info("room created")
	return r, nil
}

// StartGame deals the first hand and starts the room's bot driver. Only the host seat
// may start a room.
func (o *Orchestrator) StartGame(ctx context.Context, roomID uuid.UUID, by seat.Seat, seed int64) ([]game.Event, error) {
	r, err := o.lockRoom(roomID)
	if err != nil {
		return nil, err
	}
	defer r.mu.Unlock()
	if by != r.host {
		return nil, game.Errorf(game.CodeNotHost, "only the host (%s) can start the game", r.host)
	}
	if r.started {
		return nil, game.Errorf(game.CodeWrongPhase, "game already started")
	}
	_, evs, err := r.engine.Deal(seed)
	if err != nil {
		return nil, err
	}
	r.started = true
	o.log(r).WithField("seed", seed).Info("game started")
	o.commit(ctx, r, ActionDeal, nil, nil, evs)

	o.wg.Add(1)
	go o.driveBots(r)
	r.wake()
	return evs, nil
}

// SubmitMove applies a human move for seat s. Shape errors are reported before the room
// is touched; turn ownership is checked before the engine sees the move. Observers hear
// nothing unless the move succeeds.
func (o *Orchestrator) SubmitMove(ctx context.Context, roomID uuid.UUID, s seat.Seat, m game.Move) ([]game.Event, error) {
	if err := m.Validate(); err != nil {
		return nil, err
	}
	r, err := o.lockRoom(roomID)
	if err != nil {
		return nil, err
	}
	defer r.mu.Unlock()
	if !r.started {
		return nil, game.Errorf(game.CodeWrongPhase, "the game has not started")
	}
	if r.isBot(s) {
		return nil, game.Errorf(game.CodeNotYourTurn, "%s is played by a bot", s)
	}
	// the hand winner's rule decision is authorized by the engine (NOT_WINNER)
	if m.Type != game.MoveCreateRule && m.Type != game.MoveSkipRule {
		actor, ok := r.engine.CurrentActor()
		if !ok {
			return nil, game.Errorf(game.CodeNotYourTurn, "nobody is to act")
		}
		if m.Actor(s) != actor || r.engine.Controller(actor) != s {
			return nil, game.Errorf(game.CodeNotYourTurn, "it is %s's turn", actor)
		}
	}

	evs, err := r.engine.Apply(s, m)
	if err != nil {
		o.log(r).WithFields(logrus.Fields{"seat": s, "move": m.String()}).Debugf("move rejected: %v", err)
		return nil, err
	}
	o.commit(ctx, r, ActionMove, &s, &m, evs)
	r.wake()
	return evs, nil
}

// Acknowledge records that the player in seat s is ready for the next hand. Dealing
// resumes once every human seat has acknowledged.
func (o *Orchestrator) Acknowledge(ctx context.Context, roomID uuid.UUID, s seat.Seat) error {
	r, err := o.lockRoom(roomID)
	if err != nil {
		return err
	}
	defer r.mu.Unlock()
	if r.engine.Pending() != game.PauseHand {
		return game.Errorf(game.CodeWrongPhase, "no hand is waiting to be continued")
	}
	if r.isBot(s) || r.acks[s] {
		return nil
	}
	r.acks[s] = true
	waiting := r.waitingLocked()
	o.broadcaster.Broadcast(r.ID, game.SeatEvent(game.EventAcknowledged, s, map[string]interface{}{
		"waiting": waiting,
	}))
	if len(waiting) == 0 {
		r.wake()
	}
	return nil
}

// waitingLocked lists the human seats that have not passed the hand gate.
func (r *Room) waitingLocked() []seat.Seat {
	var out []seat.Seat
	for _, s := range r.humansLocked() {
		if !r.acks[s] {
			out = append(out, s)
		}
	}
	return out
}

// ReplaceSession binds seat s to a new session, for example after a reconnect. The seat
// keeps its hand. A seat a bot took over is handed back to the new session.
func (o *Orchestrator) ReplaceSession(roomID uuid.UUID, s seat.Seat, session uuid.UUID) error {
	if session == uuid.Nil {
		return game.Errorf(game.CodeValidation, "session is required")
	}
	r, err := o.lockRoom(roomID)
	if err != nil {
		return err
	}
	defer r.mu.Unlock()
	cfg, ok := r.seats[s]
	if !ok {
		return game.Errorf(game.CodeValidation, "seat %s is not part of this room", s)
	}
	for _, other := range r.order {
		if other != s && !r.seats[other].Bot && r.seats[other].Session == session {
			return game.Errorf(game.CodeValidation, "session already holds seat %s", other)
		}
	}
	cfg.Session = session
	if cfg.Bot {
		cfg.Bot = false
		r.engine.SetBot(s, false)
		r.version++
		o.broadcaster.Broadcast(r.ID, game.SeatEvent(game.EventSeatChanged, s, map[string]interface{}{"bot": false}))
	}
	o.log(r).WithField("seat", s).Info("session replaced")
	if r.started {
		o.sendState(r, s)
	}
	return nil
}

// Vacate hands seat s to a bot. The room is torn down once no human seat remains.
func (o *Orchestrator) Vacate(ctx context.Context, roomID uuid.UUID, s seat.Seat) error {
	r, err := o.lockRoom(roomID)
	if err != nil {
		return err
	}
	cfg, ok := r.seats[s]
	if !ok {
		r.mu.Unlock()
		return game.Errorf(game.CodeValidation, "seat %s is not part of this room", s)
	}
	if cfg.Bot {
		r.mu.Unlock()
		return nil
	}
	cfg.Bot = true
	cfg.Session = uuid.Nil
	r.engine.SetBot(s, true)
	delete(r.acks, s)
	r.version++

	humans := r.humansLocked()
	payload := map[string]interface{}{"bot": true}
	if r.host == s && len(humans) > 0 {
		r.host = humans[0]
		payload["host"] = r.host
	}
	o.broadcaster.Broadcast(r.ID, game.SeatEvent(game.EventSeatChanged, s, payload))
	o.record(ctx, r, ActionVacate, &s, nil, nil)
	o.log(r).WithField("seat", s).Info("seat vacated")

	if len(humans) == 0 {
		o.closeLocked(ctx, r, "no human seats remain")
		r.mu.Unlock()
		o.store.Delete(r.ID)
		return nil
	}
	r.wake()
	r.mu.Unlock()
	return nil
}

// CloseAs closes the room on behalf of seat by, which must be the host.
func (o *Orchestrator) CloseAs(ctx context.Context, roomID uuid.UUID, by seat.Seat) error {
	r, err := o.room(roomID)
	if err != nil {
		return err
	}
	if host := r.Host(); host != by {
		return game.Errorf(game.CodeNotHost, "only the host (%s) can close the room", host)
	}
	return o.Close(ctx, roomID)
}

// Close tears the room down, cancelling any pending bot delay.
func (o *Orchestrator) Close(ctx context.Context, roomID uuid.UUID) error {
	r, err := o.lockRoom(roomID)
	if err != nil {
		return err
	}
	o.closeLocked(ctx, r, "closed")
	r.mu.Unlock()
	o.store.Delete(r.ID)
	return nil
}

func (o *Orchestrator) closeLocked(ctx context.Context, r *Room, reason string) {
	r.closed = true
	r.cancel()
	o.record(ctx, r, ActionClose, nil, nil, nil)
	o.broadcaster.Broadcast(r.ID, game.NewEvent(game.EventRoomClosed, nil, map[string]interface{}{
		"reason": reason,
	}))
	o.log(r).WithField("reason", reason).Info("room closed")
}

// Shutdown closes every room and waits for their bot drivers to stop.
func (o *Orchestrator) Shutdown(ctx context.Context) {
	for _, r := range o.store.List() {
		_ = o.Close(ctx, r.ID)
	}
	o.wg.Wait()
}

// SnapshotFor returns the view of the room for the player in seat s.
func (o *Orchestrator) SnapshotFor(roomID uuid.UUID, s seat.Seat) (game.PlayerView, error) {
	r, err := o.lockRoom(roomID)
	if err != nil {
		return game.PlayerView{}, err
	}
	defer r.mu.Unlock()
	return r.engine.SnapshotFor(s), nil
}

// AdminSnapshot returns the full state of the room with every hand visible.
func (o *Orchestrator) AdminSnapshot(roomID uuid.UUID) (game.AdminView, error) {
	r, err := o.lockRoom(roomID)
	if err != nil {
		return game.AdminView{}, err
	}
	defer r.mu.Unlock()
	return r.engine.AdminSnapshot(), nil
}

// commit publishes the outcome of one applied step. Callers hold the room lock.
func (o *Orchestrator) commit(ctx context.Context, r *Room, kind string, s *seat.Seat, m *game.Move, evs []game.Event) {
	r.version++
	o.record(ctx, r, kind, s, m, evs)
	for _, ev := range evs {
		o.broadcaster.Broadcast(r.ID, ev)
	}
	if game.HasEvent(evs, game.EventHandComplete) || game.HasEvent(evs, game.EventGameEnded) {
		o.saveSnapshot(ctx, r)
	}
	if game.HasEvent(evs, game.EventGameEnded) {
		o.log(r).Info("game ended")
	}

	if r.engine.Pending() == game.PauseHand {
		r.acks = make(map[seat.Seat]bool)
		o.broadcaster.Broadcast(r.ID, game.NewEvent(game.EventAwaitContinue, nil, map[string]interface{}{
			"hand":    r.engine.HandNumber(),
			"waiting": r.waitingLocked(),
		}))
	}
	if actor, ok := r.engine.CurrentActor(); ok {
		o.broadcaster.Broadcast(r.ID, game.SeatEvent(game.EventTurn, actor, map[string]interface{}{
			"controller": r.engine.Controller(actor),
			"phase":      r.engine.Phase(),
		}))
	}
	for _, h := range r.humansLocked() {
		o.sendState(r, h)
	}
}

func (o *Orchestrator) sendState(r *Room, s seat.Seat) {
	o.broadcaster.SendTo(r.ID, s, game.SeatEvent(game.EventState, s, map[string]interface{}{
		"view": r.engine.SnapshotFor(s),
	}))
}

func (o *Orchestrator) record(ctx context.Context, r *Room, kind string, s *seat.Seat, m *game.Move, evs []game.Event) {
	idx := r.actions
	r.actions++
	if o.Recorder == nil {
		return
	}
	rec := ActionRecord{
		RoomID:    r.ID,
		Variant:   r.Variant,
		Index:     idx,
		Type:      kind,
		Seat:      s,
		Move:      m,
		Events:    evs,
		Timestamp: time.Now().UnixMilli(),
	}
	if err := o.Recorder.RecordAction(ctx, rec); err != nil {
		o.log(r).WithField("action", idx).Warnf("failed to record action: %v", err)
	}
}

func (o *Orchestrator) saveSnapshot(ctx context.Context, r *Room) {
	if o.Snapshots == nil {
		return
	}
	blob, err := EncodeSnapshot(r.Variant, r.engine.AdminSnapshot())
	if err != nil {
		o.log(r).Errorf("failed to encode snapshot: %v", err)
		return
	}
	if err := o.Snapshots.SaveSnapshot(ctx, r.ID, blob); err != nil {
		o.log(r).Warnf("failed to save snapshot: %v", err)
	}
}
