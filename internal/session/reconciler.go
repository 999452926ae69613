package session

import (
	"context"
	"time"

	"github.com/go-demo/watchparty/internal/model"
	"github.com/go-demo/watchparty/internal/repository"
	"go.uber.org/zap"
)

// Start launches the reconciliation loop and the playback clock. They run
// until Teardown. Start must be called after the session has created or
// joined a room.
func (s *Session) Start(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)

	s.mu.Lock()
	s.cancel = cancel
	s.mu.Unlock()

	go s.runReconciler(ctx)
	go s.runPlaybackClock(ctx)
}

// runReconciler periodically fetches the latest persisted snapshot and
// adopts it when it differs from the locally held room. This is the only
// path by which one client observes another client's writes. When the
// repository supports change notifications, it also reconciles on push.
func (s *Session) runReconciler(ctx context.Context) {
	s.mu.Lock()
	if s.room == nil {
		s.mu.Unlock()
		return
	}
	roomID := s.room.ID
	s.mu.Unlock()

	var events <-chan struct{}
	if watcher, ok := s.repo.(repository.Watcher); ok {
		ch, err := watcher.Watch(ctx, roomID)
		if err != nil {
			s.logger.Warn("Falling back to poll-only reconciliation", zap.Error(err))
		} else {
			events = ch
		}
	}

	ticker := time.NewTicker(s.cfg.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.reconcile(ctx, roomID)
		case _, ok := <-events:
			if !ok {
				events = nil
				continue
			}
			s.reconcile(ctx, roomID)
		}
	}
}

// reconcile fetches the latest snapshot and, if and only if it differs
// structurally from the local room, replaces local state with it.
// Last fetch wins: an uncommitted local change in the same tick is lost by
// design, to be corrected by the next write or the next fetch.
func (s *Session) reconcile(ctx context.Context, roomID string) {
	latest, err := s.repo.Get(ctx, roomID)
	if err != nil {
		if err != repository.ErrRoomNotFound {
			s.logger.Warn("Reconcile fetch failed", zap.String("room_id", roomID), zap.Error(err))
		}
		return
	}

	s.mu.Lock()
	if s.room == nil || latest.Equal(s.room) {
		s.mu.Unlock()
		return
	}

	s.room = latest
	if latest.CurrentVideo != nil {
		videoChanged := s.player.VideoID != latest.CurrentVideo.ID
		// Duration is local knowledge; everything else follows the room.
		s.player.IsPlaying = latest.IsPlaying
		s.player.CurrentTime = latest.CurrentTime
		s.player.VideoID = latest.CurrentVideo.ID
		if videoChanged {
			s.player.Duration = 0
		}
		s.mu.Unlock()
		if videoChanged {
			s.loadAdapter(latest.CurrentVideo.ID)
		}
	} else {
		s.mu.Unlock()
	}

	s.logger.Debug("Adopted remote snapshot", zap.String("room_id", roomID))
	s.notify()
}

// runPlaybackClock advances the local playback position while playing.
// The host's ticks are funneled through SyncPlayerState so the debounce
// window governs how often they reach storage; everyone else only moves
// their local view.
func (s *Session) runPlaybackClock(ctx context.Context) {
	ticker := time.NewTicker(s.cfg.ClockInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.tickPlayback(ctx)
		}
	}
}

func (s *Session) tickPlayback(ctx context.Context) {
	s.mu.Lock()
	if s.room == nil || s.user == nil || !s.player.IsPlaying {
		s.mu.Unlock()
		return
	}
	next := s.player.CurrentTime + s.cfg.ClockInterval.Seconds()
	isHost := s.user.IsHost
	if !isHost {
		s.player.CurrentTime = next
		s.mu.Unlock()
		s.notify()
		return
	}
	s.mu.Unlock()

	_ = s.SyncPlayerState(ctx, model.PlayerPatch{CurrentTime: model.Float(next)}, false)
}
