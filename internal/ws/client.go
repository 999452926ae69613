package ws

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/go-demo/watchparty/internal/model"
	apperrors "github.com/go-demo/watchparty/internal/pkg/errors"
	"github.com/go-demo/watchparty/internal/session"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer
	maxMessageSize = 4096

	// Send buffer size
	sendBufferSize = 256

	// Timeout for session operations triggered by a frame
	opTimeout = 5 * time.Second
)

// Client represents one WebSocket connection bound to a session.
type Client struct {
	hub     *Hub
	conn    *websocket.Conn
	send    chan []byte
	session *session.Session
	userID  string
	roomID  string
	mu      sync.Mutex
	closed  bool
	logger  *zap.Logger
}

// NewClient creates a new client
func NewClient(hub *Hub, conn *websocket.Conn, sess *session.Session, userID, roomID string, logger *zap.Logger) *Client {
	return &Client{
		hub:     hub,
		conn:    conn,
		send:    make(chan []byte, sendBufferSize),
		session: sess,
		userID:  userID,
		roomID:  roomID,
		logger:  logger,
	}
}

// GetUserID returns client's user ID
func (c *Client) GetUserID() string {
	return c.userID
}

// GetRoomID returns the room this connection is bound to
func (c *Client) GetRoomID() string {
	return c.roomID
}

// ReadPump pumps messages from the WebSocket connection into session
// operations.
func (c *Client) ReadPump() {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.logger.Warn("WebSocket read error",
					zap.String("user_id", c.userID),
					zap.Error(err),
				)
			}
			break
		}

		var msg Message
		if err := json.Unmarshal(data, &msg); err != nil {
			c.logger.Warn("Failed to parse message",
				zap.String("user_id", c.userID),
				zap.Error(err),
			)
			c.sendError(400, "invalid message format")
			continue
		}

		c.handleMessage(&msg)
	}
}

// WritePump pumps messages from the hub to the WebSocket connection
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// Hub closed the channel
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			w, err := c.conn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			w.Write(message)

			// Add queued messages to the current WebSocket message
			n := len(c.send)
			for i := 0; i < n; i++ {
				w.Write([]byte{'\n'})
				w.Write(<-c.send)
			}

			if err := w.Close(); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// handleMessage handles incoming messages based on type
func (c *Client) handleMessage(msg *Message) {
	switch msg.Type {
	case MessageTypeSendMessage:
		c.handleSendMessage(msg)
	case MessageTypeChangeVideo:
		c.handleChangeVideo(msg)
	case MessageTypePlayerSync:
		c.handlePlayerSync(msg)
	case MessageTypePing:
		c.handlePing(msg)
	default:
		c.sendError(400, "unknown message type")
	}
}

func (c *Client) handleSendMessage(msg *Message) {
	var payload SendMessagePayload
	if err := msg.ParsePayload(&payload); err != nil {
		c.sendError(400, "invalid payload")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	if err := c.session.SendMessage(ctx, payload.Message); err != nil {
		c.sendAppError(err)
		return
	}

	c.sendAck(msg.RequestID)
}

func (c *Client) handleChangeVideo(msg *Message) {
	var payload ChangeVideoPayload
	if err := msg.ParsePayload(&payload); err != nil {
		c.sendError(400, "invalid payload")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	if err := c.session.ChangeVideo(ctx, payload.VideoID, payload.Title); err != nil {
		c.sendAppError(err)
		return
	}

	c.sendAck(msg.RequestID)
}

func (c *Client) handlePlayerSync(msg *Message) {
	var payload PlayerSyncPayload
	if err := msg.ParsePayload(&payload); err != nil {
		c.sendError(400, "invalid payload")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	patch := model.PlayerPatch{
		IsPlaying:   payload.IsPlaying,
		CurrentTime: payload.CurrentTime,
		Duration:    payload.Duration,
	}
	if err := c.session.SyncPlayerState(ctx, patch, payload.Force); err != nil {
		c.sendAppError(err)
		return
	}

	c.sendAck(msg.RequestID)
}

func (c *Client) handlePing(msg *Message) {
	pongMsg, _ := NewMessage(MessageTypePong, nil)
	c.SendMessage(pongMsg)
}

// SendMessage sends a message to the client
func (c *Client) SendMessage(msg *Message) {
	data, err := json.Marshal(msg)
	if err != nil {
		c.logger.Error("Failed to marshal message",
			zap.String("user_id", c.userID),
			zap.Error(err),
		)
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}

	select {
	case c.send <- data:
	default:
		// Channel is full, client is slow
		c.logger.Warn("Client send buffer full",
			zap.String("user_id", c.userID),
		)
	}
}

func (c *Client) sendAck(requestID string) {
	ackMsg, _ := NewMessage(MessageTypeAck, &AckPayload{
		RequestID: requestID,
		Success:   true,
	})
	c.SendMessage(ackMsg)
}

// sendError sends an error message to the client
func (c *Client) sendError(code int, message string) {
	errMsg, _ := NewErrorMessage(code, message)
	c.SendMessage(errMsg)
}

// sendAppError maps a session error onto the wire
func (c *Client) sendAppError(err error) {
	c.sendError(apperrors.GetHTTPStatus(err), apperrors.GetMessage(err))
}

// Close closes the client connection
func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	close(c.send)
}
