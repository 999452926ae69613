package repository

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/go-demo/watchparty/internal/model"
)

func sampleRoom(id string) *model.Room {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	return &model.Room{
		ID:   id,
		Name: "Movie Night",
		Participants: []model.User{
			{ID: "u1", Name: "Alice", IsHost: true, Avatar: "https://example.com/a.jpg"},
		},
		Messages: []model.ChatMessage{
			{ID: "m1", UserID: model.SystemUserID, UserName: model.SystemUserName, Message: "Alice created the room", Timestamp: now},
		},
		CreatedAt: now,
	}
}

func TestMemoryRepository_PutGet(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := context.Background()

	room := sampleRoom("ABC123")
	if err := repo.Put(ctx, room); err != nil {
		t.Fatalf("Failed to put room: %v", err)
	}

	got, err := repo.Get(ctx, "ABC123")
	if err != nil {
		t.Fatalf("Failed to get room: %v", err)
	}
	if !got.Equal(room) {
		t.Error("Expected fetched snapshot to be structurally equal to the stored one")
	}
}

func TestMemoryRepository_GetCaseInsensitive(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := context.Background()

	if err := repo.Put(ctx, sampleRoom("ABC123")); err != nil {
		t.Fatalf("Failed to put room: %v", err)
	}

	got, err := repo.Get(ctx, "abc123")
	if err != nil {
		t.Fatalf("Expected lower-case lookup to succeed: %v", err)
	}
	if got.ID != "ABC123" {
		t.Errorf("Expected canonical id ABC123, got %q", got.ID)
	}
}

func TestMemoryRepository_GetNotFound(t *testing.T) {
	repo := NewMemoryRepository()

	_, err := repo.Get(context.Background(), "ZZZZZZ")
	if err != ErrRoomNotFound {
		t.Errorf("Expected ErrRoomNotFound, got %v", err)
	}
}

func TestMemoryRepository_PutIsolation(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := context.Background()

	room := sampleRoom("ABC123")
	if err := repo.Put(ctx, room); err != nil {
		t.Fatalf("Failed to put room: %v", err)
	}

	// Mutating the caller's copy after Put must not change the stored snapshot.
	room.Participants[0].Name = "Mallory"
	room.Messages = append(room.Messages, model.ChatMessage{ID: "m2", UserID: "u1", Message: "late"})

	got, err := repo.Get(ctx, "ABC123")
	if err != nil {
		t.Fatalf("Failed to get room: %v", err)
	}
	if got.Participants[0].Name != "Alice" {
		t.Error("Stored snapshot aliases the caller's participants")
	}
	if len(got.Messages) != 1 {
		t.Errorf("Stored snapshot aliases the caller's messages, got %d", len(got.Messages))
	}
}

func TestMemoryRepository_WatchTeardownDuringWrites(t *testing.T) {
	repo := NewMemoryRepository()
	room := sampleRoom("ABC123")

	stop := make(chan struct{})
	var writers sync.WaitGroup
	for i := 0; i < 8; i++ {
		writers.Add(1)
		go func() {
			defer writers.Done()
			for {
				select {
				case <-stop:
					return
				default:
					if err := repo.Put(context.Background(), room); err != nil {
						t.Errorf("Failed to put room: %v", err)
						return
					}
				}
			}
		}()
	}

	// Watchers register and cancel repeatedly while writes are in flight.
	// A Put landing on a channel its teardown already closed panics.
	var watchers sync.WaitGroup
	for i := 0; i < 8; i++ {
		watchers.Add(1)
		go func() {
			defer watchers.Done()
			for j := 0; j < 50; j++ {
				ctx, cancel := context.WithCancel(context.Background())
				ch, err := repo.Watch(ctx, "ABC123")
				if err != nil {
					t.Errorf("Failed to watch room: %v", err)
					cancel()
					return
				}
				cancel()
				for range ch {
				}
			}
		}()
	}

	watchers.Wait()
	close(stop)
	writers.Wait()
}

func TestMemoryRepository_Watch(t *testing.T) {
	repo := NewMemoryRepository()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ch, err := repo.Watch(ctx, "abc123")
	if err != nil {
		t.Fatalf("Failed to watch room: %v", err)
	}

	if err := repo.Put(context.Background(), sampleRoom("ABC123")); err != nil {
		t.Fatalf("Failed to put room: %v", err)
	}

	select {
	case <-ch:
	case <-time.After(time.Second):
		t.Fatal("Expected a watch notification after Put")
	}

	cancel()
	select {
	case _, ok := <-ch:
		if ok {
			// Drain a buffered notification; the close follows.
			if _, ok := <-ch; ok {
				t.Error("Expected watch channel to close on cancel")
			}
		}
	case <-time.After(time.Second):
		t.Fatal("Expected watch channel to close on cancel")
	}
}
