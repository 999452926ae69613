package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-demo/watchparty/internal/model"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	keyRoom        = "watchparty:room:%s"        // watchparty:room:{roomID}
	channelRoom    = "watchparty:room-events:%s" // watchparty:room-events:{roomID}
	defaultRoomTTL = 24 * time.Hour
)

// RedisRepository stores room snapshots as JSON values in Redis and
// publishes a pub/sub event on every write, so reconcilers on other nodes
// can adopt changes without waiting for their next poll tick.
type RedisRepository struct {
	client *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

func NewRedisRepository(client *redis.Client, logger *zap.Logger) *RedisRepository {
	return &RedisRepository{
		client: client,
		ttl:    defaultRoomTTL,
		logger: logger,
	}
}

// Put overwrites the stored snapshot and notifies subscribers.
func (r *RedisRepository) Put(ctx context.Context, room *model.Room) error {
	id := model.NormalizeRoomID(room.ID)

	data, err := json.Marshal(room)
	if err != nil {
		return fmt.Errorf("failed to marshal room snapshot: %w", err)
	}

	if err := r.client.Set(ctx, fmt.Sprintf(keyRoom, id), data, r.ttl).Err(); err != nil {
		return fmt.Errorf("failed to store room snapshot: %w", err)
	}

	if err := r.client.Publish(ctx, fmt.Sprintf(channelRoom, id), "updated").Err(); err != nil {
		// Publish failure only delays subscribers until their next poll.
		r.logger.Warn("Failed to publish room update", zap.String("room_id", id), zap.Error(err))
	}
	return nil
}

// Get returns the latest stored snapshot for the id.
func (r *RedisRepository) Get(ctx context.Context, id string) (*model.Room, error) {
	data, err := r.client.Get(ctx, fmt.Sprintf(keyRoom, model.NormalizeRoomID(id))).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
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

// Watch subscribes to the room's pub/sub channel and signals on every
// published update until the context is cancelled.
func (r *RedisRepository) Watch(ctx context.Context, roomID string) (<-chan struct{}, error) {
	id := model.NormalizeRoomID(roomID)
	sub := r.client.Subscribe(ctx, fmt.Sprintf(channelRoom, id))

	// Force the subscription to be established before returning.
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return nil, fmt.Errorf("failed to subscribe to room events: %w", err)
	}

	ch := make(chan struct{}, 1)
	go func() {
		defer close(ch)
		defer sub.Close()

		msgs := sub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case _, ok := <-msgs:
				if !ok {
					return
				}
				select {
				case ch <- struct{}{}:
				default:
				}
			}
		}
	}()

	return ch, nil
}
