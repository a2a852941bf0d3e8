package historian

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jason-s-yu/trickhouse/internal/game"
	"github.com/jason-s-yu/trickhouse/internal/room"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// chanSource hands out records pushed onto a channel.
type chanSource struct {
	ch chan room.ActionRecord
}

func (c *chanSource) Pop(ctx context.Context, timeout time.Duration) (*room.ActionRecord, error) {
	select {
	case rec := <-c.ch:
		return &rec, nil
	case <-time.After(timeout):
		return nil, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

type mockSink struct {
	mu        sync.Mutex
	inserted  []room.ActionRecord
	batches   int
	abandoned []uuid.UUID
	failNext  int
}

func (m *mockSink) InsertActions(ctx context.Context, recs []room.ActionRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failNext > 0 {
		m.failNext--
		return errors.New("db down")
	}
	m.batches++
	m.inserted = append(m.inserted, recs...)
	return nil
}

func (m *mockSink) MarkRoomAbandoned(ctx context.Context, roomID uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.abandoned = append(m.abandoned, roomID)
	return nil
}

func (m *mockSink) snapshot() (inserted []room.ActionRecord, batches int, abandoned []uuid.UUID) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]room.ActionRecord{}, m.inserted...), m.batches, append([]uuid.UUID{}, m.abandoned...)
}

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetLevel(logrus.PanicLevel)
	return l
}

func startService(t *testing.T, sink *mockSink, opts Options) (*chanSource, context.CancelFunc, <-chan error) {
	t.Helper()
	src := &chanSource{ch: make(chan room.ActionRecord, 16)}
	if opts.PopTimeout == 0 {
		opts.PopTimeout = 10 * time.Millisecond
	}
	s := New(src, sink, opts, quietLogger())
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()
	return src, cancel, done
}

func record(roomID uuid.UUID, idx int, kind string, evs ...game.Event) room.ActionRecord {
	return room.ActionRecord{RoomID: roomID, Variant: game.VariantWhist, Index: idx, Type: kind, Events: evs}
}

func TestFlushesFullBatches(t *testing.T) {
	sink := &mockSink{}
	src, cancel, done := startService(t, sink, Options{BatchSize: 2, FlushDelay: time.Hour})
	roomID := uuid.New()
	src.ch <- record(roomID, 0, room.ActionDeal)
	src.ch <- record(roomID, 1, room.ActionMove)
	src.ch <- record(roomID, 2, room.ActionMove)

	assert.Eventually(t, func() bool {
		inserted, _, _ := sink.snapshot()
		return len(inserted) == 2
	}, 2*time.Second, 5*time.Millisecond)
	assert.Eventually(t, func() bool { return len(src.ch) == 0 }, 2*time.Second, 5*time.Millisecond)
	time.Sleep(20 * time.Millisecond)

	cancel()
	require.NoError(t, <-done)
	inserted, batches, _ := sink.snapshot()
	require.Len(t, inserted, 3, "shutdown flushes the remainder")
	assert.Equal(t, 2, batches)
	for i, rec := range inserted {
		assert.Equal(t, i, rec.Index)
	}
}

func TestFlushesOnTimer(t *testing.T) {
	sink := &mockSink{}
	src, cancel, done := startService(t, sink, Options{BatchSize: 100, FlushDelay: 10 * time.Millisecond})
	defer func() { cancel(); <-done }()
	src.ch <- record(uuid.New(), 0, room.ActionDeal)

	assert.Eventually(t, func() bool {
		inserted, _, _ := sink.snapshot()
		return len(inserted) == 1
	}, 2*time.Second, 5*time.Millisecond)
}

func TestRetriesFailedFlush(t *testing.T) {
	sink := &mockSink{failNext: 2}
	src, cancel, done := startService(t, sink, Options{BatchSize: 100, FlushDelay: 10 * time.Millisecond})
	defer func() { cancel(); <-done }()
	roomID := uuid.New()
	src.ch <- record(roomID, 0, room.ActionDeal)
	src.ch <- record(roomID, 1, room.ActionMove)

	assert.Eventually(t, func() bool {
		inserted, _, _ := sink.snapshot()
		return len(inserted) == 2
	}, 2*time.Second, 5*time.Millisecond)
	inserted, _, _ := sink.snapshot()
	assert.Equal(t, 0, inserted[0].Index)
}

func TestMarksSilentRoomsAbandoned(t *testing.T) {
	sink := &mockSink{}
	src, cancel, done := startService(t, sink, Options{
		BatchSize:     100,
		FlushDelay:    time.Hour,
		Inactivity:    20 * time.Millisecond,
		CheckInterval: 5 * time.Millisecond,
	})
	defer func() { cancel(); <-done }()

	silent, finished, closed := uuid.New(), uuid.New(), uuid.New()
	src.ch <- record(silent, 0, room.ActionDeal)
	src.ch <- record(finished, 0, room.ActionDeal)
	src.ch <- record(finished, 1, room.ActionAdvance, game.NewEvent(game.EventGameEnded, nil, nil))
	src.ch <- record(closed, 0, room.ActionDeal)
	src.ch <- record(closed, 1, room.ActionClose)

	assert.Eventually(t, func() bool {
		_, _, abandoned := sink.snapshot()
		return len(abandoned) == 1
	}, 2*time.Second, 5*time.Millisecond)

	time.Sleep(50 * time.Millisecond)
	inserted, _, abandoned := sink.snapshot()
	assert.Equal(t, []uuid.UUID{silent}, abandoned, "finished and closed rooms are not abandoned")
	assert.Len(t, inserted, 5, "records are flushed before the room is marked")
}
