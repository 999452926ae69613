package repository

import (
	"context"
	"testing"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
)

func setupTestPostgres(t *testing.T) *PostgresRepository {
	t.Helper()

	dsn := "host=localhost port=5432 user=postgres password=postgres dbname=watchparty_test sslmode=disable"
	db, err := sqlx.Connect("postgres", dsn)
	if err != nil {
		t.Skipf("Skipping test, could not connect to test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	repo := NewPostgresRepository(db)
	if err := repo.EnsureSchema(context.Background()); err != nil {
		t.Fatalf("Failed to ensure schema: %v", err)
	}
	return repo
}

func TestPostgresRepository_PutGet(t *testing.T) {
	repo := setupTestPostgres(t)
	ctx := context.Background()

	room := sampleRoom("PGS001")
	if err := repo.Put(ctx, room); err != nil {
		t.Fatalf("Failed to put room: %v", err)
	}

	got, err := repo.Get(ctx, "pgs001")
	if err != nil {
		t.Fatalf("Failed to get room: %v", err)
	}
	if !got.Equal(room) {
		t.Error("Expected fetched snapshot to round-trip structurally equal")
	}
}

func TestPostgresRepository_PutOverwrites(t *testing.T) {
	repo := setupTestPostgres(t)
	ctx := context.Background()

	room := sampleRoom("PGS002")
	if err := repo.Put(ctx, room); err != nil {
		t.Fatalf("Failed to put room: %v", err)
	}

	room.IsPlaying = true
	room.CurrentTime = 30
	if err := repo.Put(ctx, room); err != nil {
		t.Fatalf("Failed to overwrite room: %v", err)
	}

	got, err := repo.Get(ctx, "PGS002")
	if err != nil {
		t.Fatalf("Failed to get room: %v", err)
	}
	if !got.IsPlaying || got.CurrentTime != 30 {
		t.Errorf("Expected last write to win, got playing=%v time=%v", got.IsPlaying, got.CurrentTime)
	}
}

func TestPostgresRepository_GetNotFound(t *testing.T) {
	repo := setupTestPostgres(t)

	_, err := repo.Get(context.Background(), "ZZZZZZ")
	if err != ErrRoomNotFound {
		t.Errorf("Expected ErrRoomNotFound, got %v", err)
	}
}
