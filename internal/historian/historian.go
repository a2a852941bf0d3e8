// internal/historian/historian.go

// Package historian drains room action records from the Redis queue and persists them
// to Postgres in batches. Rooms that go quiet without finishing are marked abandoned.
package historian

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jason-s-yu/trickhouse/internal/game"
	"github.com/jason-s-yu/trickhouse/internal/room"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// Source yields queued action records. Pop returns nil, nil when nothing arrived
// within timeout.
type Source interface {
	Pop(ctx context.Context, timeout time.Duration) (*room.ActionRecord, error)
}

// Sink persists action records.
type Sink interface {
	InsertActions(ctx context.Context, recs []room.ActionRecord) error
	MarkRoomAbandoned(ctx context.Context, roomID uuid.UUID) error
}

// Options tune batching and abandonment.
type Options struct {
	BatchSize     int
	FlushDelay    time.Duration
	Inactivity    time.Duration // how long a room may stay silent before it is abandoned
	CheckInterval time.Duration // how often inactivity is checked
	PopTimeout    time.Duration
}

func (o *Options) defaults() {
	if o.BatchSize <= 0 {
		o.BatchSize = 20
	}
	if o.FlushDelay <= 0 {
		o.FlushDelay = 500 * time.Millisecond
	}
	if o.Inactivity <= 0 {
		o.Inactivity = 10 * time.Minute
	}
	if o.CheckInterval <= 0 {
		o.CheckInterval = time.Minute
	}
	if o.PopTimeout <= 0 {
		o.PopTimeout = 3 * time.Second
	}
}

// Service encapsulates the queue and database logic for capturing room actions.
type Service struct {
	source Source
	sink   Sink
	opts   Options
	logger logrus.FieldLogger

	lastActivity sync.Map // room id -> time.Time

	batchMu sync.Mutex
	batch   []room.ActionRecord
}

func New(source Source, sink Sink, opts Options, logger logrus.FieldLogger) *Service {
	opts.defaults()
	return &Service{
		source: source,
		sink:   sink,
		opts:   opts,
		logger: logger,
		batch:  make([]room.ActionRecord, 0, opts.BatchSize),
	}
}

// Run reads, flushes and checks for inactivity until ctx is cancelled, then flushes
// whatever is still buffered.
func (s *Service) Run(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return s.readLoop(gctx) })
	g.Go(func() error { return s.flushLoop(gctx) })
	g.Go(func() error { return s.inactivityLoop(gctx) })
	s.logger.Info("historian started")

	err := g.Wait()
	// the run context is gone; give the final flush its own deadline
	flushCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	s.flush(flushCtx)
	s.logger.Info("historian stopped")
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func (s *Service) readLoop(ctx context.Context) error {
	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		rec, err := s.source.Pop(ctx, s.opts.PopTimeout)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			s.logger.Errorf("pop action: %v", err)
			continue
		}
		if rec == nil {
			continue
		}
		s.track(*rec)
		if s.add(*rec) {
			s.flush(ctx)
		}
	}
}

func (s *Service) flushLoop(ctx context.Context) error {
	ticker := time.NewTicker(s.opts.FlushDelay)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			s.flush(ctx)
		}
	}
}

// track records activity for the room; finished rooms are no longer watched.
func (s *Service) track(rec room.ActionRecord) {
	if rec.Type == room.ActionClose || game.HasEvent(rec.Events, game.EventGameEnded) {
		s.lastActivity.Delete(rec.RoomID)
		return
	}
	s.lastActivity.Store(rec.RoomID, time.Now())
}

// add adds a record to the batch and reports whether the batch is full.
func (s *Service) add(rec room.ActionRecord) bool {
	s.batchMu.Lock()
	defer s.batchMu.Unlock()
	s.batch = append(s.batch, rec)
	return len(s.batch) >= s.opts.BatchSize
}

// flush writes the current batch in a single transaction. A failed batch is put back
// in front of newer records for the next attempt; inserts ignore rows already written.
func (s *Service) flush(ctx context.Context) {
	s.batchMu.Lock()
	if len(s.batch) == 0 {
		s.batchMu.Unlock()
		return
	}
	pending := s.batch
	s.batch = make([]room.ActionRecord, 0, s.opts.BatchSize)
	s.batchMu.Unlock()

	if err := s.sink.InsertActions(ctx, pending); err != nil {
		s.logger.Errorf("flush %d actions: %v", len(pending), err)
		s.batchMu.Lock()
		if len(pending)+len(s.batch) <= maxRetained(s.opts.BatchSize) {
			s.batch = append(pending, s.batch...)
		} else {
			s.logger.Warnf("dropping %d actions after failed flush", len(pending))
		}
		s.batchMu.Unlock()
		return
	}
	s.logger.Debugf("flushed %d actions", len(pending))
}

func maxRetained(batchSize int) int { return 50 * batchSize }

// inactivityLoop periodically marks rooms abandoned once they have been silent longer
// than the configured threshold.
func (s *Service) inactivityLoop(ctx context.Context) error {
	ticker := time.NewTicker(s.opts.CheckInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			s.markInactive(ctx, time.Now())
		}
	}
}

func (s *Service) markInactive(ctx context.Context, now time.Time) {
	s.lastActivity.Range(func(key, val interface{}) bool {
		roomID, ok1 := key.(uuid.UUID)
		last, ok2 := val.(time.Time)
		if !ok1 || !ok2 || now.Sub(last) <= s.opts.Inactivity {
			return true
		}
		// the room's own records must land before its status changes
		s.flush(ctx)
		if err := s.sink.MarkRoomAbandoned(ctx, roomID); err != nil {
			s.logger.WithField("room", roomID).Errorf("failed to mark room abandoned: %v", err)
			return true
		}
		s.lastActivity.Delete(roomID)
		s.logger.WithField("room", roomID).Info("marked room abandoned due to inactivity")
		return true
	})
}
