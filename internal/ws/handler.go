package ws

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-demo/watchparty/internal/dto/response"
	"github.com/go-demo/watchparty/internal/middleware"
	"github.com/go-demo/watchparty/internal/model"
	"github.com/go-demo/watchparty/internal/session"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// Allow all origins in development
		// In production, you should check the origin
		return true
	},
}

// Handler handles WebSocket connections
type Handler struct {
	hub     *Hub
	manager *session.Manager
	logger  *zap.Logger
}

// NewHandler creates a new WebSocket handler
func NewHandler(hub *Hub, manager *session.Manager, logger *zap.Logger) *Handler {
	return &Handler{
		hub:     hub,
		manager: manager,
		logger:  logger,
	}
}

// ServeWS upgrades a connection for an existing session. The caller
// identifies itself with its user id, as handed out by create or join,
// via the X-User-ID header or a user_id query parameter.
// GET /ws
func (h *Handler) ServeWS(c *gin.Context) {
	userID := c.GetHeader(middleware.UserIDHeader)
	if userID == "" {
		userID = c.Query("user_id")
	}
	if userID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing user id"})
		return
	}

	sess, err := h.manager.Get(userID)
	if err != nil {
		h.logger.Warn("WebSocket for unknown session",
			zap.String("user_id", userID),
		)
		c.JSON(http.StatusNotFound, gin.H{"error": "no active session"})
		return
	}

	room := sess.Room()
	if room == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "no active session"})
		return
	}

	// Upgrade connection
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Error("Failed to upgrade WebSocket",
			zap.Error(err),
		)
		return
	}

	client := NewClient(h.hub, conn, sess, userID, room.ID, h.logger)

	// Push every session state change to the whole room. The reconciler
	// feeds remote changes through the same callback, so one connected
	// client is enough to keep the room's connections fresh.
	sess.OnUpdate(func(room *model.Room, state model.PlayerState) {
		msg, err := NewMessage(MessageTypeRoomState, response.NewRoomResponse(room))
		if err != nil {
			return
		}
		h.hub.Broadcast(room.ID, msg)

		stateMsg, err := NewMessage(MessageTypePlayerState, response.NewPlayerStateResponse(state))
		if err != nil {
			return
		}
		client.SendMessage(stateMsg)
	})

	// Register client
	h.hub.register <- client

	// Send the current snapshot immediately so the client does not wait
	// for the first change.
	if snapshot, err := NewMessage(MessageTypeRoomState, response.NewRoomResponse(room)); err == nil {
		client.SendMessage(snapshot)
	}

	// Start client pumps
	go client.WritePump()
	go client.ReadPump()
}

// GetStats returns WebSocket hub statistics
// GET /api/v1/ws/stats
func (h *Handler) GetStats(c *gin.Context) {
	stats := h.hub.GetStats()
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    stats,
	})
}
