// Package session owns one client's membership of a watch-party room: the
// in-memory room snapshot, the local player state, the authority rules and
// the jitter damping for playback writes.
package session

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/go-demo/watchparty/internal/model"
	apperrors "github.com/go-demo/watchparty/internal/pkg/errors"
	"github.com/go-demo/watchparty/internal/pkg/utils"
	"github.com/go-demo/watchparty/internal/player"
	"github.com/go-demo/watchparty/internal/repository"
	"go.uber.org/zap"
)

const (
	hostAvatarURL  = "https://images.pexels.com/photos/220453/pexels-photo-220453.jpeg?auto=compress&cs=tinysrgb&w=100&h=100&fit=crop"
	guestAvatarURL = "https://images.pexels.com/photos/415829/pexels-photo-415829.jpeg?auto=compress&cs=tinysrgb&w=100&h=100&fit=crop"
)

// Config tunes the reconciliation loop and jitter damping of a session.
type Config struct {
	PollInterval   time.Duration
	ClockInterval  time.Duration
	DebounceWindow time.Duration
	SeekThreshold  float64
}

// DefaultConfig returns the tuning used in production.
func DefaultConfig() Config {
	return Config{
		PollInterval:   2 * time.Second,
		ClockInterval:  time.Second,
		DebounceWindow: 100 * time.Millisecond,
		SeekThreshold:  5,
	}
}

// UpdateFunc is invoked whenever the session's room or player state
// changes, with defensive copies. The delivery layer uses it to push
// snapshots to connected clients.
type UpdateFunc func(room *model.Room, state model.PlayerState)

// Session is one client's live membership of a room. All state is guarded
// by a single mutex; the reconciler and playback clock goroutines replace
// the cooperative single-threaded scheduling of a browser client.
type Session struct {
	repo    repository.RoomRepository
	adapter player.Adapter
	logger  *zap.Logger
	cfg     Config

	mu        sync.Mutex
	room      *model.Room
	user      *model.User
	player    model.PlayerState
	lastWrite time.Time
	onUpdate  UpdateFunc

	cancel context.CancelFunc

	// now is swappable for debounce tests.
	now func() time.Time
}

func New(repo repository.RoomRepository, adapter player.Adapter, logger *zap.Logger, cfg Config) *Session {
	return &Session{
		repo:    repo,
		adapter: adapter,
		logger:  logger,
		cfg:     cfg,
		now:     time.Now,
	}
}

// OnUpdate registers the state change callback. Must be called before
// Start; the callback runs outside the session lock.
func (s *Session) OnUpdate(fn UpdateFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onUpdate = fn
}

// Room returns a copy of the session's room, or nil when inactive.
func (s *Session) Room() *model.Room {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.room.Clone()
}

// User returns a copy of the session's identity, or nil when inactive.
func (s *Session) User() *model.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.user == nil {
		return nil
	}
	u := *s.user
	return &u
}

// PlayerState returns the session's current player view.
func (s *Session) PlayerState() model.PlayerState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.player
}

// CreateRoom creates a fresh room with the caller as its host and persists
// the first snapshot. The returned room id is the shareable join code.
func (s *Session) CreateRoom(ctx context.Context, roomName, userName string) (*model.Room, *model.User, error) {
	v := utils.NewValidator()
	v.ValidateRoomName("room_name", roomName)
	v.ValidateUserName("user_name", userName)
	if v.HasErrors() {
		return nil, nil, apperrors.ErrValidation.WithDetails(v.Errors())
	}
	roomName = strings.TrimSpace(roomName)
	userName = strings.TrimSpace(userName)

	user := model.User{
		ID:     utils.NewUserID(),
		Name:   userName,
		IsHost: true,
		Avatar: hostAvatarURL,
	}

	now := s.now()
	room := &model.Room{
		ID:           utils.NewRoomCode(),
		Name:         roomName,
		Participants: []model.User{user},
		Messages: []model.ChatMessage{
			s.systemMessage(fmt.Sprintf("%s created the room", userName), now),
		},
		IsPlaying:   false,
		CurrentTime: 0,
		CreatedAt:   now,
	}

	if err := s.repo.Put(ctx, room); err != nil {
		s.logger.Error("Failed to persist new room", zap.Error(err))
		return nil, nil, apperrors.ErrInternal
	}

	s.mu.Lock()
	s.room = room
	s.user = &user
	s.player = model.PlayerState{}
	s.mu.Unlock()

	s.logger.Info("Room created",
		zap.String("room_id", room.ID),
		zap.String("name", room.Name),
		zap.String("host_id", user.ID),
	)

	s.notify()
	return room.Clone(), &user, nil
}

// JoinRoom joins an existing room by its case-insensitive code. An unknown
// code is a recoverable RoomNotFound; no synthetic room is fabricated. A
// colliding display name is suffixed with a random tag, never rejected.
func (s *Session) JoinRoom(ctx context.Context, roomID, userName string) (*model.Room, *model.User, error) {
	v := utils.NewValidator()
	v.ValidateUserName("user_name", userName)
	if v.HasErrors() {
		return nil, nil, apperrors.ErrValidation.WithDetails(v.Errors())
	}
	userName = strings.TrimSpace(userName)

	room, err := s.repo.Get(ctx, roomID)
	if err != nil {
		if err == repository.ErrRoomNotFound {
			return nil, nil, apperrors.ErrRoomNotFound.WithDetails(model.NormalizeRoomID(roomID))
		}
		s.logger.Error("Failed to fetch room", zap.String("room_id", roomID), zap.Error(err))
		return nil, nil, apperrors.ErrInternal
	}

	displayName := userName
	for room.HasParticipantName(displayName) {
		displayName = utils.DisambiguateName(userName)
	}

	user := model.User{
		ID:     utils.NewUserID(),
		Name:   displayName,
		IsHost: false,
		Avatar: guestAvatarURL,
	}

	room.Participants = append(room.Participants, user)
	room.Messages = append(room.Messages,
		s.systemMessage(fmt.Sprintf("%s joined the room", displayName), s.now()))

	if err := s.repo.Put(ctx, room); err != nil {
		s.logger.Error("Failed to persist join", zap.String("room_id", room.ID), zap.Error(err))
		return nil, nil, apperrors.ErrInternal
	}

	state := model.PlayerState{}
	if room.CurrentVideo != nil {
		// Duration stays 0 until the adapter reports it.
		state = model.PlayerState{
			IsPlaying:   room.IsPlaying,
			CurrentTime: room.CurrentTime,
			VideoID:     room.CurrentVideo.ID,
		}
		s.loadAdapter(room.CurrentVideo.ID)
	}

	s.mu.Lock()
	s.room = room
	s.user = &user
	s.player = state
	s.mu.Unlock()

	s.logger.Info("User joined room",
		zap.String("room_id", room.ID),
		zap.String("user_id", user.ID),
		zap.String("name", displayName),
	)

	s.notify()
	return room.Clone(), &user, nil
}

// SendMessage appends one chat message authored by the session's user.
func (s *Session) SendMessage(ctx context.Context, text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return apperrors.ErrEmptyMessage
	}
	if len([]rune(text)) > model.MaxMessageLength {
		return apperrors.ErrMessageTooLong
	}

	s.mu.Lock()
	if s.room == nil || s.user == nil {
		s.mu.Unlock()
		return apperrors.ErrSessionNotFound
	}
	s.room.Messages = append(s.room.Messages, model.ChatMessage{
		ID:        utils.NewMessageID(),
		UserID:    s.user.ID,
		UserName:  s.user.Name,
		Message:   text,
		Timestamp: s.now(),
	})
	room := s.room.Clone()
	s.mu.Unlock()

	if err := s.repo.Put(ctx, room); err != nil {
		s.logger.Error("Failed to persist message", zap.String("room_id", room.ID), zap.Error(err))
		return apperrors.ErrInternal
	}

	s.notify()
	return nil
}

// ChangeVideo switches the room to a new video. Host only: a non-host call
// changes nothing and persists nothing. The new video always starts paused
// at zero, whatever the previous one was doing.
func (s *Session) ChangeVideo(ctx context.Context, videoID, title string) error {
	if !utils.ValidateVideoID(videoID) {
		return apperrors.ErrInvalidVideoID
	}
	title = strings.TrimSpace(title)
	if title == "" {
		title = videoID
	}

	s.mu.Lock()
	if s.room == nil || s.user == nil {
		s.mu.Unlock()
		return apperrors.ErrSessionNotFound
	}
	if !s.user.IsHost {
		userID := s.user.ID
		s.mu.Unlock()
		s.logger.Debug("Non-host video change rejected", zap.String("user_id", userID))
		return apperrors.ErrNotHost
	}

	s.room.CurrentVideo = &model.Video{
		ID:        videoID,
		Title:     title,
		Thumbnail: model.ThumbnailURL(videoID),
	}
	s.room.IsPlaying = false
	s.room.CurrentTime = 0
	s.room.Messages = append(s.room.Messages,
		s.systemMessage(fmt.Sprintf("%s changed the video: %s", s.user.Name, title), s.now()))

	s.player = model.PlayerState{VideoID: videoID}
	room := s.room.Clone()
	s.mu.Unlock()

	s.loadAdapter(videoID)

	if err := s.repo.Put(ctx, room); err != nil {
		s.logger.Error("Failed to persist video change", zap.String("room_id", room.ID), zap.Error(err))
		return apperrors.ErrInternal
	}

	s.logger.Info("Video changed",
		zap.String("room_id", room.ID),
		zap.String("video_id", videoID),
	)

	s.notify()
	return nil
}

// SyncPlayerState feeds a playback change into the session. Discrete user
// actions (play, pause, explicit seeks) pass force=true and are never
// dropped; continuous ticks pass force=false and are dropped while a
// previous write is fresher than the debounce window.
//
// Only the host's accepted updates reach the shared room. A non-host's
// update adjusts its local player view and stops there.
func (s *Session) SyncPlayerState(ctx context.Context, patch model.PlayerPatch, force bool) error {
	if patch.IsEmpty() {
		return nil
	}

	s.mu.Lock()
	if s.room == nil || s.user == nil {
		s.mu.Unlock()
		return apperrors.ErrSessionNotFound
	}

	now := s.now()
	if !force && now.Sub(s.lastWrite) < s.cfg.DebounceWindow {
		s.mu.Unlock()
		return nil
	}

	prev := s.player
	s.player = patch.Apply(prev)

	if !s.user.IsHost {
		s.mu.Unlock()
		s.notify()
		return nil
	}

	s.room.IsPlaying = s.player.IsPlaying
	s.room.CurrentTime = s.player.CurrentTime

	if msg := s.transitionMessage(patch, prev, now); msg != nil {
		s.room.Messages = append(s.room.Messages, *msg)
	}

	s.lastWrite = now
	room := s.room.Clone()
	s.mu.Unlock()

	if err := s.repo.Put(ctx, room); err != nil {
		s.logger.Error("Failed to persist player state", zap.String("room_id", room.ID), zap.Error(err))
		return apperrors.ErrInternal
	}

	s.notify()
	return nil
}

// transitionMessage decides whether a player update is worth announcing:
// a real play/pause toggle, or a seek beyond the materiality threshold.
// Routine playback ticks stay silent. Caller holds the lock.
func (s *Session) transitionMessage(patch model.PlayerPatch, prev model.PlayerState, now time.Time) *model.ChatMessage {
	if patch.IsPlaying != nil && *patch.IsPlaying != prev.IsPlaying {
		action := "paused"
		if *patch.IsPlaying {
			action = "started playback"
		}
		msg := s.systemMessage(fmt.Sprintf("%s %s", s.user.Name, action), now)
		return &msg
	}

	if patch.CurrentTime != nil {
		delta := *patch.CurrentTime - prev.CurrentTime
		if delta < 0 {
			delta = -delta
		}
		if delta > s.cfg.SeekThreshold {
			msg := s.systemMessage(
				fmt.Sprintf("%s jumped to %ds", s.user.Name, int(*patch.CurrentTime)), now)
			return &msg
		}
	}

	return nil
}

// Teardown stops the reconciler and playback clock and detaches the
// session. The room itself is left untouched: there is no leave protocol,
// participants never shrink.
func (s *Session) Teardown() {
	s.mu.Lock()
	cancel := s.cancel
	s.cancel = nil
	s.room = nil
	s.user = nil
	s.player = model.PlayerState{}
	s.mu.Unlock()

	if cancel != nil {
		cancel()
	}
}

func (s *Session) systemMessage(text string, now time.Time) model.ChatMessage {
	return model.ChatMessage{
		ID:        utils.NewMessageID(),
		UserID:    model.SystemUserID,
		UserName:  model.SystemUserName,
		Message:   text,
		Timestamp: now,
	}
}

// loadAdapter points the player widget at a video. Adapter trouble never
// touches room state; the session keeps its last-known player view and the
// widget is retried by reloading the same id.
func (s *Session) loadAdapter(videoID string) {
	if s.adapter == nil {
		return
	}
	if err := s.adapter.Load(videoID); err != nil {
		s.logger.Warn("Player adapter failed to load video",
			zap.String("video_id", videoID),
			zap.Error(err),
		)
	}
}

// notify fires the update callback with defensive copies, outside the lock.
func (s *Session) notify() {
	s.mu.Lock()
	fn := s.onUpdate
	room := s.room.Clone()
	state := s.player
	s.mu.Unlock()

	if fn != nil && room != nil {
		fn(room, state)
	}
}
