package ws

import (
	"encoding/json"
	"time"
)

// MessageType represents the type of WebSocket message
type MessageType string

const (
	// Client -> Server messages
	MessageTypeSendMessage MessageType = "send_message"
	MessageTypeChangeVideo MessageType = "change_video"
	MessageTypePlayerSync  MessageType = "player_sync"
	MessageTypePing        MessageType = "ping"

	// Server -> Client messages
	MessageTypeRoomState   MessageType = "room_state"
	MessageTypePlayerState MessageType = "player_state"
	MessageTypePong        MessageType = "pong"
	MessageTypeError       MessageType = "error"
	MessageTypeAck         MessageType = "ack"
)

// Message represents a WebSocket message
type Message struct {
	Type      MessageType     `json:"type"`
	Payload   json.RawMessage `json:"payload,omitempty"`
	Timestamp time.Time       `json:"timestamp"`
	RequestID string          `json:"request_id,omitempty"`
}

// SendMessagePayload represents a chat message from the client
type SendMessagePayload struct {
	Message string `json:"message"`
}

// ChangeVideoPayload represents a host's video change
type ChangeVideoPayload struct {
	VideoID string `json:"video_id"`
	Title   string `json:"title,omitempty"`
}

// PlayerSyncPayload represents a partial player state update. Omitted
// fields are left unchanged; Force marks a discrete user action.
type PlayerSyncPayload struct {
	IsPlaying   *bool    `json:"is_playing,omitempty"`
	CurrentTime *float64 `json:"current_time,omitempty"`
	Duration    *float64 `json:"duration,omitempty"`
	Force       bool     `json:"force,omitempty"`
}

// ErrorPayload represents error message
type ErrorPayload struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// AckPayload represents acknowledgement
type AckPayload struct {
	RequestID string `json:"request_id"`
	Success   bool   `json:"success"`
}

// NewMessage creates a new message
func NewMessage(msgType MessageType, payload interface{}) (*Message, error) {
	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	return &Message{
		Type:      msgType,
		Payload:   payloadBytes,
		Timestamp: time.Now(),
	}, nil
}

// NewErrorMessage creates a new error message
func NewErrorMessage(code int, message string) (*Message, error) {
	return NewMessage(MessageTypeError, &ErrorPayload{
		Code:    code,
		Message: message,
	})
}

// ParsePayload parses message payload into the given type
func (m *Message) ParsePayload(v interface{}) error {
	return json.Unmarshal(m.Payload, v)
}
