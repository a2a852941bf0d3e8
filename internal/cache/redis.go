// internal/cache/redis.go
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jason-s-yu/trickhouse/internal/room"
	"github.com/redis/go-redis/v9"
)

// DefaultQueueName is the Redis list (queue) name for room action logs.
var DefaultQueueName = "trickhouse_actions"

// ErrNoSnapshot is returned by LoadSnapshot when a room has no stored snapshot.
var ErrNoSnapshot = errors.New("no snapshot stored for room")

// ConnectRedis creates a client for addr/db and checks that the server answers.
func ConnectRedis(ctx context.Context, addr string, db int) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr: addr,
		DB:   db,
	})

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("failed to connect to Redis at %s: %w", addr, err)
	}
	return rdb, nil
}

// Publisher pushes room action records onto the historian queue.
type Publisher struct {
	rdb   *redis.Client
	queue string
}

func NewPublisher(rdb *redis.Client, queue string) *Publisher {
	if queue == "" {
		queue = DefaultQueueName
	}
	return &Publisher{rdb: rdb, queue: queue}
}

// RecordAction serializes the record to JSON, then pushes it to the Redis queue.
// This does not block the calling logic (other than a quick network send).
func (p *Publisher) RecordAction(ctx context.Context, rec room.ActionRecord) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to marshal ActionRecord: %w", err)
	}
	if err := p.rdb.RPush(ctx, p.queue, data).Err(); err != nil {
		return fmt.Errorf("failed to RPush to Redis list '%s': %w", p.queue, err)
	}
	return nil
}

// PopActions blocks up to timeout for the next record on queue. It returns nil, nil when
// the wait timed out.
func PopActions(ctx context.Context, rdb *redis.Client, queue string, timeout time.Duration) (*room.ActionRecord, error) {
	res, err := rdb.BLPop(ctx, timeout, queue).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("BLPop: %w", err)
	}
	// res[0] is the queue name and res[1] the payload
	if len(res) < 2 {
		return nil, nil
	}
	var rec room.ActionRecord
	if err := json.Unmarshal([]byte(res[1]), &rec); err != nil {
		return nil, fmt.Errorf("invalid action record: %w", err)
	}
	return &rec, nil
}

// Queue is the consuming end of the historian queue.
type Queue struct {
	rdb  *redis.Client
	name string
}

func NewQueue(rdb *redis.Client, name string) *Queue {
	if name == "" {
		name = DefaultQueueName
	}
	return &Queue{rdb: rdb, name: name}
}

// Pop waits up to timeout for the next record; nil, nil means nothing arrived.
func (q *Queue) Pop(ctx context.Context, timeout time.Duration) (*room.ActionRecord, error) {
	return PopActions(ctx, q.rdb, q.name, timeout)
}

// SnapshotStore keeps the latest encoded snapshot of each room under prefix+roomID.
type SnapshotStore struct {
	rdb    *redis.Client
	prefix string
	ttl    time.Duration
}

// NewSnapshotStore returns a store whose keys expire after ttl; zero keeps them.
func NewSnapshotStore(rdb *redis.Client, prefix string, ttl time.Duration) *SnapshotStore {
	return &SnapshotStore{rdb: rdb, prefix: prefix, ttl: ttl}
}

func (s *SnapshotStore) key(roomID uuid.UUID) string {
	return s.prefix + roomID.String()
}

func (s *SnapshotStore) SaveSnapshot(ctx context.Context, roomID uuid.UUID, blob []byte) error {
	if err := s.rdb.Set(ctx, s.key(roomID), blob, s.ttl).Err(); err != nil {
		return fmt.Errorf("failed to store snapshot for room %s: %w", roomID, err)
	}
	return nil
}

func (s *SnapshotStore) LoadSnapshot(ctx context.Context, roomID uuid.UUID) ([]byte, error) {
	blob, err := s.rdb.Get(ctx, s.key(roomID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNoSnapshot
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load snapshot for room %s: %w", roomID, err)
	}
	return blob, nil
}

var (
	_ room.Recorder      = (*Publisher)(nil)
	_ room.SnapshotSaver = (*SnapshotStore)(nil)
)
