package room

import (
	"context"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jason-s-yu/trickhouse/internal/game"
	"github.com/jason-s-yu/trickhouse/internal/seat"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockBroadcaster collects events instead of sending them over WS.
type mockBroadcaster struct {
	mu           sync.Mutex
	allEvents    []game.Event
	playerEvents map[seat.Seat][]game.Event
}

func newMockBroadcaster() *mockBroadcaster {
	return &mockBroadcaster{
		playerEvents: make(map[seat.Seat][]game.Event),
	}
}

func (mb *mockBroadcaster) Broadcast(roomID uuid.UUID, ev game.Event) {
	mb.mu.Lock()
	defer mb.mu.Unlock()
	mb.allEvents = append(mb.allEvents, ev)
}

func (mb *mockBroadcaster) SendTo(roomID uuid.UUID, s seat.Seat, ev game.Event) {
	mb.mu.Lock()
	defer mb.mu.Unlock()
	mb.playerEvents[s] = append(mb.playerEvents[s], ev)
}

func (mb *mockBroadcaster) count() int {
	mb.mu.Lock()
	defer mb.mu.Unlock()
	return len(mb.allEvents)
}

func (mb *mockBroadcaster) has(t game.EventType) bool {
	mb.mu.Lock()
	defer mb.mu.Unlock()
	return game.HasEvent(mb.allEvents, t)
}

func (mb *mockBroadcaster) playerCount(s seat.Seat) int {
	mb.mu.Lock()
	defer mb.mu.Unlock()
	return len(mb.playerEvents[s])
}

type mockRecorder struct {
	mu      sync.Mutex
	records []ActionRecord
}

func (mr *mockRecorder) RecordAction(ctx context.Context, rec ActionRecord) error {
	mr.mu.Lock()
	defer mr.mu.Unlock()
	mr.records = append(mr.records, rec)
	return nil
}

type mockSnapshots struct {
	mu    sync.Mutex
	blobs map[uuid.UUID][][]byte
}

func (ms *mockSnapshots) SaveSnapshot(ctx context.Context, roomID uuid.UUID, blob []byte) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	ms.blobs[roomID] = append(ms.blobs[roomID], blob)
	return nil
}

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func setupOrchestrator(pacing Pacing) (*Orchestrator, *mockBroadcaster) {
	mb := newMockBroadcaster()
	o := NewOrchestrator(NewStore(), mb, quietLogger(), pacing)
	return o, mb
}

func tableConfigs(humans ...seat.Seat) []SeatConfig {
	isHuman := make(map[seat.Seat]bool)
	for _, h := range humans {
		isHuman[h] = true
	}
	var out []SeatConfig
	for _, s := range seat.All {
		if isHuman[s] {
			out = append(out, SeatConfig{Seat: s, Session: uuid.New()})
		} else {
			out = append(out, SeatConfig{Seat: s, Bot: true})
		}
	}
	return out
}

func waitForView(t *testing.T, o *Orchestrator, id uuid.UUID, cond func(game.AdminView) bool) {
	t.Helper()
	require.Eventually(t, func() bool {
		v, err := o.AdminSnapshot(id)
		return err == nil && cond(v)
	}, 10*time.Second, 2*time.Millisecond)
}

func TestAllBotRoomsPlayToTheEnd(t *testing.T) {
	opts := DefaultOptions()
	opts.Whist.HandsPerGame = 2
	opts.Bridge.HandsPerGame = 2

	cases := map[game.Variant][]SeatConfig{
		game.VariantWhist:  tableConfigs(),
		game.VariantBridge: tableConfigs(),
		game.VariantSkitgubbe: {
			{Seat: seat.North, Bot: true},
			{Seat: seat.East, Bot: true},
			{Seat: seat.South, Bot: true},
		},
	}
	for variant, configs := range cases {
		t.Run(string(variant), func(t *testing.T) {
			o, mb := setupOrchestrator(Pacing{})
			rec := &mockRecorder{}
			snaps := &mockSnapshots{blobs: make(map[uuid.UUID][][]byte)}
			o.Recorder = rec
			o.Snapshots = snaps
			defer o.Shutdown(context.Background())

			r, err := o.CreateRoom(variant, configs, opts)
			require.NoError(t, err)
			_, err = o.StartGame(context.Background(), r.ID, r.Host(), 42)
			require.NoError(t, err)

			waitForView(t, o, r.ID, func(v game.AdminView) bool { return v.Phase == game.PhaseGameEnd })
			assert.True(t, mb.has(game.EventGameEnded))

			rec.mu.Lock()
			require.NotEmpty(t, rec.records)
			assert.Equal(t, ActionDeal, rec.records[0].Type)
			for i, a := range rec.records {
				assert.Equal(t, i, a.Index, "action indices are consecutive")
			}
			rec.mu.Unlock()

			snaps.mu.Lock()
			require.NotEmpty(t, snaps.blobs[r.ID])
			last := snaps.blobs[r.ID][len(snaps.blobs[r.ID])-1]
			snaps.mu.Unlock()
			snap, err := DecodeSnapshot(last)
			require.NoError(t, err)
			assert.Equal(t, variant, snap.Variant)
			assert.Equal(t, game.PhaseGameEnd, snap.State.Phase)
		})
	}
}

func TestStartGameRequiresHost(t *testing.T) {
	o, _ := setupOrchestrator(Pacing{})
	defer o.Shutdown(context.Background())
	r, err := o.CreateRoom(game.VariantWhist, tableConfigs(seat.East, seat.West), DefaultOptions())
	require.NoError(t, err)
	assert.Equal(t, seat.East, r.Host(), "first human seat hosts")

	_, err = o.StartGame(context.Background(), r.ID, seat.West, 1)
	assert.Equal(t, game.CodeNotHost, game.CodeOf(err))
	_, err = o.StartGame(context.Background(), r.ID, seat.East, 1)
	require.NoError(t, err)
	_, err = o.StartGame(context.Background(), r.ID, seat.East, 1)
	assert.Equal(t, game.CodeWrongPhase, game.CodeOf(err))

	err = o.CloseAs(context.Background(), r.ID, seat.West)
	assert.Equal(t, game.CodeNotHost, game.CodeOf(err))
	require.NoError(t, o.CloseAs(context.Background(), r.ID, seat.East))
}

func TestCreateRoomValidatesSeats(t *testing.T) {
	o, _ := setupOrchestrator(Pacing{})
	_, err := o.CreateRoom(game.VariantWhist, tableConfigs()[:3], DefaultOptions())
	assert.Equal(t, game.CodeValidation, game.CodeOf(err))

	dup := []SeatConfig{{Seat: seat.North, Bot: true}, {Seat: seat.North, Bot: true}}
	_, err = o.CreateRoom(game.VariantSkitgubbe, dup, DefaultOptions())
	assert.Equal(t, game.CodeValidation, game.CodeOf(err))

	noSession := []SeatConfig{{Seat: seat.North}, {Seat: seat.South, Bot: true}}
	_, err = o.CreateRoom(game.VariantSkitgubbe, noSession, DefaultOptions())
	assert.Equal(t, game.CodeValidation, game.CodeOf(err))

	_, err = o.SubmitMove(context.Background(), uuid.New(), seat.North, game.SimpleMove(game.MovePass))
	assert.Equal(t, game.CodeRoomNotFound, game.CodeOf(err))
}

func TestSubmitMoveRejectsWithoutBroadcast(t *testing.T) {
	ctx := context.Background()
	o, mb := setupOrchestrator(Pacing{})
	defer o.Shutdown(ctx)
	r, err := o.CreateRoom(game.VariantWhist, tableConfigs(seat.All...), DefaultOptions())
	require.NoError(t, err)

	_, err = o.SubmitMove(ctx, r.ID, seat.North, game.SimpleMove(game.MovePass))
	assert.Equal(t, game.CodeWrongPhase, game.CodeOf(err), "game not started")

	_, err = o.StartGame(ctx, r.ID, seat.North, 7)
	require.NoError(t, err)
	before := mb.count()

	_, err = o.SubmitMove(ctx, r.ID, seat.North, game.Move{Type: game.MovePlay})
	assert.Equal(t, game.CodeValidation, game.CodeOf(err))

	view, err := o.SnapshotFor(r.ID, seat.East)
	require.NoError(t, err)
	require.NotNil(t, view.CurrentActor)
	require.Equal(t, seat.North, *view.CurrentActor, "north leads the first hand")
	_, err = o.SubmitMove(ctx, r.ID, seat.East, game.PlayMove(view.Hand[0], false))
	assert.Equal(t, game.CodeNotYourTurn, game.CodeOf(err))

	_, err = o.SubmitMove(ctx, r.ID, seat.North, game.PlayMove(view.Hand[0], false))
	assert.Equal(t, game.CodeNotYourCard, game.CodeOf(err))

	_, err = o.SubmitMove(ctx, r.ID, seat.North, game.SimpleMove(game.MovePass))
	assert.Equal(t, game.CodeWrongPhase, game.CodeOf(err), "bidding is not a whist move")

	assert.Equal(t, before, mb.count(), "failed moves are not broadcast")

	north, err := o.SnapshotFor(r.ID, seat.North)
	require.NoError(t, err)
	privateBefore := mb.playerCount(seat.South)
	evs, err := o.SubmitMove(ctx, r.ID, seat.North, north.LegalMoves[0])
	require.NoError(t, err)
	assert.True(t, game.HasEvent(evs, game.EventCardPlayed))
	assert.Greater(t, mb.count(), before)
	assert.Greater(t, mb.playerCount(seat.South), privateBefore, "every human gets a fresh view")
}

func TestHandGateWaitsForAcknowledgement(t *testing.T) {
	ctx := context.Background()
	o, mb := setupOrchestrator(Pacing{})
	defer o.Shutdown(ctx)
	opts := DefaultOptions()
	opts.Whist.HandsPerGame = 2
	r, err := o.CreateRoom(game.VariantWhist, tableConfigs(seat.North), opts)
	require.NoError(t, err)
	_, err = o.StartGame(ctx, r.ID, seat.North, 3)
	require.NoError(t, err)

	err = o.Acknowledge(ctx, r.ID, seat.North)
	assert.Equal(t, game.CodeWrongPhase, game.CodeOf(err), "nothing to continue yet")

	deadline := time.Now().Add(10 * time.Second)
	for {
		require.True(t, time.Now().Before(deadline), "hand never finished")
		v, err := o.AdminSnapshot(r.ID)
		require.NoError(t, err)
		if v.Pending == game.PauseHand {
			break
		}
		if v.Phase == game.PhasePlaying && v.CurrentActor != nil && *v.CurrentActor == seat.North {
			north, err := o.SnapshotFor(r.ID, seat.North)
			require.NoError(t, err)
			require.NotEmpty(t, north.LegalMoves)
			_, err = o.SubmitMove(ctx, r.ID, seat.North, north.LegalMoves[0])
			require.NoError(t, err)
			continue
		}
		time.Sleep(time.Millisecond)
	}
	assert.True(t, mb.has(game.EventAwaitContinue))

	time.Sleep(50 * time.Millisecond)
	v, err := o.AdminSnapshot(r.ID)
	require.NoError(t, err)
	assert.Equal(t, game.PauseHand, v.Pending, "next hand waits for the human")
	assert.Equal(t, 1, v.HandNumber)

	require.NoError(t, o.Acknowledge(ctx, r.ID, seat.North))
	assert.True(t, mb.has(game.EventAcknowledged))
	waitForView(t, o, r.ID, func(v game.AdminView) bool {
		return v.HandNumber == 2 || v.Phase == game.PhaseRuleCreate
	})

	v, err = o.AdminSnapshot(r.ID)
	require.NoError(t, err)
	if v.Phase == game.PhaseRuleCreate {
		_, err = o.SubmitMove(ctx, r.ID, seat.North, game.SimpleMove(game.MoveSkipRule))
		require.NoError(t, err)
		waitForView(t, o, r.ID, func(v game.AdminView) bool { return v.HandNumber == 2 })
	}
}

func TestReplaceSessionKeepsTheHand(t *testing.T) {
	ctx := context.Background()
	o, mb := setupOrchestrator(Pacing{})
	defer o.Shutdown(ctx)
	configs := tableConfigs(seat.All...)
	r, err := o.CreateRoom(game.VariantWhist, configs, DefaultOptions())
	require.NoError(t, err)
	_, err = o.StartGame(ctx, r.ID, seat.North, 11)
	require.NoError(t, err)

	before, err := o.SnapshotFor(r.ID, seat.South)
	require.NoError(t, err)
	privateBefore := mb.playerCount(seat.South)

	fresh := uuid.New()
	require.NoError(t, o.ReplaceSession(r.ID, seat.South, fresh))
	s, ok := r.SeatFor(fresh)
	require.True(t, ok)
	assert.Equal(t, seat.South, s)
	_, ok = r.SeatFor(configs[2].Session)
	assert.False(t, ok, "old session no longer holds the seat")

	after, err := o.SnapshotFor(r.ID, seat.South)
	require.NoError(t, err)
	assert.Equal(t, before.Hand, after.Hand)
	assert.Greater(t, mb.playerCount(seat.South), privateBefore, "reconnected seat gets its view")

	err = o.ReplaceSession(r.ID, seat.East, fresh)
	assert.Equal(t, game.CodeValidation, game.CodeOf(err), "one seat per session")
}

func TestVacateHandsSeatToBot(t *testing.T) {
	ctx := context.Background()
	o, mb := setupOrchestrator(Pacing{})
	defer o.Shutdown(ctx)
	r, err := o.CreateRoom(game.VariantWhist, tableConfigs(seat.North, seat.East), DefaultOptions())
	require.NoError(t, err)
	_, err = o.StartGame(ctx, r.ID, seat.North, 5)
	require.NoError(t, err)

	require.NoError(t, o.Vacate(ctx, r.ID, seat.North))
	assert.True(t, mb.has(game.EventSeatChanged))
	assert.Equal(t, seat.East, r.Host(), "host moves to the next human")

	// the bot now playing north's hand leads the first trick
	waitForView(t, o, r.ID, func(v game.AdminView) bool {
		return v.Trick != nil && len(v.Trick.Entries) > 0
	})

	require.NoError(t, o.Vacate(ctx, r.ID, seat.East))
	_, ok := o.Store().Get(r.ID)
	assert.False(t, ok, "room without humans is torn down")
	assert.True(t, mb.has(game.EventRoomClosed))
	select {
	case <-r.Done():
	default:
		t.Fatal("room context not cancelled")
	}

	_, err = o.SubmitMove(ctx, r.ID, seat.East, game.SimpleMove(game.MovePass))
	assert.Equal(t, game.CodeRoomNotFound, game.CodeOf(err))
}

func TestCloseCancelsPendingDelays(t *testing.T) {
	ctx := context.Background()
	o, _ := setupOrchestrator(Pacing{BotDelay: time.Hour, TrickDelay: time.Hour, HandDelay: time.Hour})
	r, err := o.CreateRoom(game.VariantWhist, tableConfigs(), DefaultOptions())
	require.NoError(t, err)
	_, err = o.StartGame(ctx, r.ID, r.Host(), 1)
	require.NoError(t, err)

	require.NoError(t, o.Close(ctx, r.ID))
	done := make(chan struct{})
	go func() {
		o.Shutdown(ctx)
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("bot driver kept sleeping after close")
	}

	v := r.engine.AdminSnapshot()
	assert.Equal(t, 1, v.HandNumber)
	require.NotNil(t, v.Trick)
	assert.Empty(t, v.Trick.Entries, "no bot moved during the delay")
}
