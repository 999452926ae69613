package model

import "time"

// MaxMessageLength caps the content of a single chat message.
const MaxMessageLength = 500

// ChatMessage is one entry of a room's append-only chat log. Messages are
// immutable once created; insertion order is display order.
type ChatMessage struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	UserName  string    `json:"user_name"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

// IsSystem reports whether the message was emitted by the room itself.
func (m *ChatMessage) IsSystem() bool {
	return m.UserID == SystemUserID
}

// Equal reports whether two messages are field-wise identical.
func (m *ChatMessage) Equal(other *ChatMessage) bool {
	if m == nil || other == nil {
		return m == other
	}
	return m.ID == other.ID &&
		m.UserID == other.UserID &&
		m.UserName == other.UserName &&
		m.Message == other.Message &&
		m.Timestamp.Equal(other.Timestamp)
}
