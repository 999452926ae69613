package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/go-demo/watchparty/internal/model"
	"github.com/jmoiron/sqlx"
)

// PostgresRepository stores room snapshots as jsonb rows. The whole room is
// written in one UPSERT, preserving the repository contract: full-snapshot
// overwrite, last write wins.
type PostgresRepository struct {
	db *sqlx.DB
}

func NewPostgresRepository(db *sqlx.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// EnsureSchema creates the rooms table when it does not exist yet.
func (r *PostgresRepository) EnsureSchema(ctx context.Context) error {
	query := `
		CREATE TABLE IF NOT EXISTS rooms (
			id         TEXT PRIMARY KEY,
			snapshot   JSONB NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`

	if _, err := r.db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("failed to create rooms table: %w", err)
	}
	return nil
}

// Put overwrites the stored snapshot for the room's id.
func (r *PostgresRepository) Put(ctx context.Context, room *model.Room) error {
	data, err := json.Marshal(room)
	if err != nil {
		return fmt.Errorf("failed to marshal room snapshot: %w", err)
	}

	query := `
		INSERT INTO rooms (id, snapshot, updated_at)
		VALUES ($1, $2, now())
		ON CONFLICT (id) DO UPDATE SET snapshot = $2, updated_at = now()`

	if _, err := r.db.ExecContext(ctx, query, model.NormalizeRoomID(room.ID), data); err != nil {
		return fmt.Errorf("failed to store room snapshot: %w", err)
	}
	return nil
}

// Get returns the latest stored snapshot for the id.
func (r *PostgresRepository) Get(ctx context.Context, id string) (*model.Room, error) {
	var data []byte
	query := `SELECT snapshot FROM rooms WHERE id = $1`

	if err := r.db.GetContext(ctx, &data, query, model.NormalizeRoomID(id)); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrRoomNotFound
		}
		return nil, fmt.Errorf("failed to fetch room snapshot: %w", err)
	}

	var room model.Room
	if err := json.Unmarshal(data, &room); err != nil {
		return nil, fmt.Errorf("failed to unmarshal room snapshot: %w", err)
	}
	return &room, nil
}
