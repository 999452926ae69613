package session

import (
	"context"
	"sync"

	"github.com/go-demo/watchparty/internal/model"
	apperrors "github.com/go-demo/watchparty/internal/pkg/errors"
	"github.com/go-demo/watchparty/internal/player"
	"github.com/go-demo/watchparty/internal/repository"
	"go.uber.org/zap"
)

// AdapterFactory builds a player adapter for a new session.
type AdapterFactory func() player.Adapter

// Manager owns the live sessions of this node, keyed by user id. It wires
// new sessions to the repository, starts their background loops and tears
// them down again.
type Manager struct {
	repo       repository.RoomRepository
	logger     *zap.Logger
	cfg        Config
	newAdapter AdapterFactory

	mu       sync.RWMutex
	sessions map[string]*Session
}

func NewManager(repo repository.RoomRepository, newAdapter AdapterFactory, logger *zap.Logger, cfg Config) *Manager {
	return &Manager{
		repo:       repo,
		logger:     logger,
		cfg:        cfg,
		newAdapter: newAdapter,
		sessions:   make(map[string]*Session),
	}
}

// CreateRoom builds a session, creates a room with the caller as host and
// starts the session's background loops.
func (m *Manager) CreateRoom(ctx context.Context, roomName, userName string) (*Session, *model.Room, *model.User, error) {
	sess := m.newSession()

	room, user, err := sess.CreateRoom(ctx, roomName, userName)
	if err != nil {
		return nil, nil, nil, err
	}

	m.register(user.ID, sess)
	sess.Start(context.Background())
	return sess, room, user, nil
}

// JoinRoom builds a session joined to an existing room and starts its
// background loops.
func (m *Manager) JoinRoom(ctx context.Context, roomID, userName string) (*Session, *model.Room, *model.User, error) {
	sess := m.newSession()

	room, user, err := sess.JoinRoom(ctx, roomID, userName)
	if err != nil {
		return nil, nil, nil, err
	}

	m.register(user.ID, sess)
	sess.Start(context.Background())
	return sess, room, user, nil
}

// Get returns the live session for a user id.
func (m *Manager) Get(userID string) (*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	sess, ok := m.sessions[userID]
	if !ok {
		return nil, apperrors.ErrSessionNotFound
	}
	return sess, nil
}

// Teardown stops and removes a user's session. The user stays listed in
// the room; only this client's loops and adapter are released.
func (m *Manager) Teardown(userID string) error {
	m.mu.Lock()
	sess, ok := m.sessions[userID]
	delete(m.sessions, userID)
	m.mu.Unlock()

	if !ok {
		return apperrors.ErrSessionNotFound
	}

	sess.Teardown()
	m.logger.Info("Session torn down", zap.String("user_id", userID))
	return nil
}

// Close tears down every live session, for server shutdown.
func (m *Manager) Close() {
	m.mu.Lock()
	sessions := m.sessions
	m.sessions = make(map[string]*Session)
	m.mu.Unlock()

	for _, sess := range sessions {
		sess.Teardown()
	}
}

func (m *Manager) newSession() *Session {
	var adapter player.Adapter
	if m.newAdapter != nil {
		adapter = m.newAdapter()
	}
	return New(m.repo, adapter, m.logger, m.cfg)
}

func (m *Manager) register(userID string, sess *Session) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[userID] = sess
}
