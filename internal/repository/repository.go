package repository

import (
	"context"
	"errors"

	"github.com/go-demo/watchparty/internal/model"
)

var (
	ErrRoomNotFound = errors.New("room not found")
)

// RoomRepository is the only persisted-state boundary of the system. It
// stores whole room snapshots keyed by room id with last-write-wins
// semantics: Put is an idempotent full overwrite, Get returns the latest
// snapshot or ErrRoomNotFound. Ids are matched case-insensitively.
type RoomRepository interface {
	Put(ctx context.Context, room *model.Room) error
	Get(ctx context.Context, id string) (*model.Room, error)
}

// Watcher is an optional repository capability: a change-notification
// channel for a room. Backends that support it let the reconciliation loop
// run "on notification, diff and adopt" instead of polling blind. The
// channel carries no payload; receivers re-fetch and compare. It is closed
// when the context is cancelled.
type Watcher interface {
	Watch(ctx context.Context, roomID string) (<-chan struct{}, error)
}
