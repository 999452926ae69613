package repository

import (
	"context"
	"sync"

	"github.com/go-demo/watchparty/internal/model"
)

// MemoryRepository keeps room snapshots in process memory. It is the
// default backend for local single-node deployments and for tests. Stored
// snapshots are deep copies, so a caller mutating its room after Put never
// changes what a later Get observes.
type MemoryRepository struct {
	mu       sync.RWMutex
	rooms    map[string]*model.Room
	watchers map[string][]chan struct{}
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		rooms:    make(map[string]*model.Room),
		watchers: make(map[string][]chan struct{}),
	}
}

// Put overwrites the stored snapshot for the room's id. Watchers are
// notified under the same lock that removes and closes their channels, so a
// write racing a Watch teardown can never send on a closed channel.
func (r *MemoryRepository) Put(ctx context.Context, room *model.Room) error {
	id := model.NormalizeRoomID(room.ID)

	r.mu.Lock()
	defer r.mu.Unlock()

	r.rooms[id] = room.Clone()
	for _, ch := range r.watchers[id] {
		select {
		case ch <- struct{}{}:
		default:
			// Watcher is behind; it will catch up on its next receive.
		}
	}
	return nil
}

// Get returns a copy of the latest snapshot for the id.
func (r *MemoryRepository) Get(ctx context.Context, id string) (*model.Room, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	room, ok := r.rooms[model.NormalizeRoomID(id)]
	if !ok {
		return nil, ErrRoomNotFound
	}
	return room.Clone(), nil
}

// Watch returns a channel signalled on every Put for the room id.
func (r *MemoryRepository) Watch(ctx context.Context, roomID string) (<-chan struct{}, error) {
	id := model.NormalizeRoomID(roomID)
	ch := make(chan struct{}, 1)

	r.mu.Lock()
	r.watchers[id] = append(r.watchers[id], ch)
	r.mu.Unlock()

	go func() {
		<-ctx.Done()
		r.mu.Lock()
		live := r.watchers[id][:0]
		for _, c := range r.watchers[id] {
			if c != ch {
				live = append(live, c)
			}
		}
		r.watchers[id] = live
		close(ch)
		r.mu.Unlock()
	}()

	return ch, nil
}
