// internal/database/rooms.go
package database

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jason-s-yu/trickhouse/internal/game"
	"github.com/jason-s-yu/trickhouse/internal/room"
)

// Schema creates the tables the historian writes to.
const Schema = `
CREATE TABLE IF NOT EXISTS rooms (
	id         UUID PRIMARY KEY,
	variant    TEXT NOT NULL,
	status     TEXT NOT NULL DEFAULT 'in_progress',
	start_time TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	end_time   TIMESTAMPTZ
);

CREATE TABLE IF NOT EXISTS room_actions (
	room_id      UUID NOT NULL REFERENCES rooms (id),
	action_index INT NOT NULL,
	action_type  TEXT NOT NULL,
	seat         TEXT,
	move         JSONB,
	events       JSONB NOT NULL,
	created_at   TIMESTAMPTZ NOT NULL,
	PRIMARY KEY (room_id, action_index)
);
`

// Execer is the subset of pgx.Tx the inserts use.
type Execer interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
}

// Migrate applies Schema.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	if _, err := pool.Exec(ctx, Schema); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}

// InsertActionsTx persists a batch of action records in a single transaction.
func InsertActionsTx(ctx context.Context, pool *pgxpool.Pool, recs []room.ActionRecord) error {
	return pgx.BeginTxFunc(ctx, pool, pgx.TxOptions{}, func(tx pgx.Tx) error {
		for _, rec := range recs {
			if err := InsertAction(ctx, tx, rec); err != nil {
				return fmt.Errorf("insert action %d of room %s: %w", rec.Index, rec.RoomID, err)
			}
		}
		return nil
	})
}

// InsertAction inserts a single action record and upserts its room row. A record that
// ends the game completes the room; a close record marks an unfinished room closed.
// Replayed records are ignored.
func InsertAction(ctx context.Context, tx Execer, rec room.ActionRecord) error {
	upsertRoomQ := `
		INSERT INTO rooms (id, variant, status, start_time)
		VALUES ($1, $2, 'in_progress', NOW())
		ON CONFLICT (id) DO NOTHING
	`
	if _, err := tx.Exec(ctx, upsertRoomQ, rec.RoomID, string(rec.Variant)); err != nil {
		return err
	}

	var move []byte
	if rec.Move != nil {
		var err error
		if move, err = json.Marshal(rec.Move); err != nil {
			return err
		}
	}
	events, err := json.Marshal(rec.Events)
	if err != nil {
		return err
	}
	var s *string
	if rec.Seat != nil {
		name := rec.Seat.String()
		s = &name
	}

	actionInsertQ := `
		INSERT INTO room_actions (
			room_id, action_index, action_type, seat, move, events, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (room_id, action_index) DO NOTHING
	`
	_, err = tx.Exec(ctx, actionInsertQ,
		rec.RoomID, rec.Index, rec.Type, s, move, events, time.UnixMilli(rec.Timestamp),
	)
	if err != nil {
		return err
	}

	switch {
	case game.HasEvent(rec.Events, game.EventGameEnded):
		return setRoomStatus(ctx, tx, rec.RoomID, "completed")
	case rec.Type == room.ActionClose:
		return setRoomStatus(ctx, tx, rec.RoomID, "closed")
	}
	return nil
}

func setRoomStatus(ctx context.Context, tx Execer, roomID uuid.UUID, status string) error {
	q := `
		UPDATE rooms
		SET status = $2, end_time = NOW()
		WHERE id = $1 AND status = 'in_progress'
	`
	_, err := tx.Exec(ctx, q, roomID, status)
	return err
}

// MarkRoomAbandoned flags a room that is still in progress as abandoned.
func MarkRoomAbandoned(ctx context.Context, pool *pgxpool.Pool, roomID uuid.UUID) error {
	return pgx.BeginTxFunc(ctx, pool, pgx.TxOptions{}, func(tx pgx.Tx) error {
		return setRoomStatus(ctx, tx, roomID, "abandoned")
	})
}

// ActionStore is the historian's view of the database.
type ActionStore struct {
	pool *pgxpool.Pool
}

func NewActionStore(pool *pgxpool.Pool) *ActionStore {
	return &ActionStore{pool: pool}
}

func (s *ActionStore) InsertActions(ctx context.Context, recs []room.ActionRecord) error {
	return InsertActionsTx(ctx, s.pool, recs)
}

func (s *ActionStore) MarkRoomAbandoned(ctx context.Context, roomID uuid.UUID) error {
	return MarkRoomAbandoned(ctx, s.pool, roomID)
}
