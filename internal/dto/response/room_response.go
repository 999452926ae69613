package response

import (
	"fmt"
	"time"

	"github.com/go-demo/watchparty/internal/model"
)

// UserResponse represents a room participant
type UserResponse struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	IsHost bool   `json:"is_host"`
	Avatar string `json:"avatar,omitempty"`
}

// NewUserResponse creates a user response from model
func NewUserResponse(u *model.User) *UserResponse {
	return &UserResponse{
		ID:     u.ID,
		Name:   u.Name,
		IsHost: u.IsHost,
		Avatar: u.Avatar,
	}
}

// VideoResponse represents the room's current video
type VideoResponse struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Thumbnail string `json:"thumbnail"`
}

// MessageResponse represents one chat message
type MessageResponse struct {
	ID        string `json:"id"`
	UserID    string `json:"user_id"`
	UserName  string `json:"user_name"`
	Message   string `json:"message"`
	Timestamp string `json:"timestamp"`
	IsSystem  bool   `json:"is_system"`
}

// NewMessageResponse creates a message response from model
func NewMessageResponse(m *model.ChatMessage) *MessageResponse {
	return &MessageResponse{
		ID:        m.ID,
		UserID:    m.UserID,
		UserName:  m.UserName,
		Message:   m.Message,
		Timestamp: m.Timestamp.Format(time.RFC3339),
		IsSystem:  m.IsSystem(),
	}
}

// RoomResponse represents a full room snapshot
type RoomResponse struct {
	ID           string             `json:"id"`
	Name         string             `json:"name"`
	ShareURL     string             `json:"share_url"`
	Participants []*UserResponse    `json:"participants"`
	Messages     []*MessageResponse `json:"messages"`
	CurrentVideo *VideoResponse     `json:"current_video,omitempty"`
	IsPlaying    bool               `json:"is_playing"`
	CurrentTime  float64            `json:"current_time"`
	CreatedAt    string             `json:"created_at"`
}

// NewRoomResponse creates a room response from model
func NewRoomResponse(room *model.Room) *RoomResponse {
	participants := make([]*UserResponse, len(room.Participants))
	for i := range room.Participants {
		participants[i] = NewUserResponse(&room.Participants[i])
	}

	messages := make([]*MessageResponse, len(room.Messages))
	for i := range room.Messages {
		messages[i] = NewMessageResponse(&room.Messages[i])
	}

	resp := &RoomResponse{
		ID:           room.ID,
		Name:         room.Name,
		ShareURL:     fmt.Sprintf("/?room=%s", room.ID),
		Participants: participants,
		Messages:     messages,
		IsPlaying:    room.IsPlaying,
		CurrentTime:  room.CurrentTime,
		CreatedAt:    room.CreatedAt.Format(time.RFC3339),
	}

	if room.CurrentVideo != nil {
		resp.CurrentVideo = &VideoResponse{
			ID:        room.CurrentVideo.ID,
			Title:     room.CurrentVideo.Title,
			Thumbnail: room.CurrentVideo.Thumbnail,
		}
	}

	return resp
}

// PlayerStateResponse represents a session's local player view
type PlayerStateResponse struct {
	IsPlaying   bool    `json:"is_playing"`
	CurrentTime float64 `json:"current_time"`
	Duration    float64 `json:"duration"`
	VideoID     string  `json:"video_id,omitempty"`
}

// NewPlayerStateResponse creates a player state response from model
func NewPlayerStateResponse(state model.PlayerState) *PlayerStateResponse {
	return &PlayerStateResponse{
		IsPlaying:   state.IsPlaying,
		CurrentTime: state.CurrentTime,
		Duration:    state.Duration,
		VideoID:     state.VideoID,
	}
}

// SessionResponse bundles the room snapshot with the caller's identity and
// player view, returned on create and join.
type SessionResponse struct {
	Room   *RoomResponse        `json:"room"`
	User   *UserResponse        `json:"user"`
	Player *PlayerStateResponse `json:"player"`
}

// NewSessionResponse creates a session response from models
func NewSessionResponse(room *model.Room, user *model.User, state model.PlayerState) *SessionResponse {
	return &SessionResponse{
		Room:   NewRoomResponse(room),
		User:   NewUserResponse(user),
		Player: NewPlayerStateResponse(state),
	}
}

// MessageListResponse represents the room's chat log
type MessageListResponse struct {
	Messages []*MessageResponse `json:"messages"`
	Total    int                `json:"total"`
}

// NewMessageListResponse creates a message list response from model
func NewMessageListResponse(messages []model.ChatMessage) *MessageListResponse {
	out := make([]*MessageResponse, len(messages))
	for i := range messages {
		out[i] = NewMessageResponse(&messages[i])
	}
	return &MessageListResponse{Messages: out, Total: len(out)}
}
