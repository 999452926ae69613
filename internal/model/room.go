package model

import (
	"fmt"
	"strings"
	"time"
)

// Video is the media reference a room is currently tuned to.
type Video struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Thumbnail string `json:"thumbnail"`
}

// ThumbnailURL derives the preview image for a video id. The mapping is
// deterministic so every client renders the same thumbnail.
func ThumbnailURL(videoID string) string {
	return fmt.Sprintf("https://img.youtube.com/vi/%s/maxresdefault.jpg", videoID)
}

// Room is the shared unit of state for one watch session: membership, the
// current video, playback position and the chat log. Snapshots of it are
// persisted whole; every write is a full overwrite keyed by room id.
//
// Invariants: exactly one participant is host, participants never shrink,
// messages only grow. Duration is deliberately absent; it is a local,
// adapter-reported value that differs between clients.
type Room struct {
	ID           string        `json:"id"`
	Name         string        `json:"name"`
	CurrentVideo *Video        `json:"current_video,omitempty"`
	Participants []User        `json:"participants"`
	Messages     []ChatMessage `json:"messages"`
	IsPlaying    bool          `json:"is_playing"`
	CurrentTime  float64       `json:"current_time"`
	CreatedAt    time.Time     `json:"created_at"`
}

// NormalizeRoomID canonicalizes a human-shared room code. Codes are
// case-insensitive: "abc123" and "ABC123" address the same room.
func NormalizeRoomID(id string) string {
	return strings.ToUpper(strings.TrimSpace(id))
}

// Host returns the hosting participant, or nil when the room is malformed.
func (r *Room) Host() *User {
	for i := range r.Participants {
		if r.Participants[i].IsHost {
			return &r.Participants[i]
		}
	}
	return nil
}

// Participant returns the participant with the given user id, or nil.
func (r *Room) Participant(userID string) *User {
	for i := range r.Participants {
		if r.Participants[i].ID == userID {
			return &r.Participants[i]
		}
	}
	return nil
}

// HasParticipantName reports whether any participant already uses the
// given display name.
func (r *Room) HasParticipantName(name string) bool {
	for i := range r.Participants {
		if r.Participants[i].Name == name {
			return true
		}
	}
	return false
}

// Clone returns a deep copy of the room. Sessions hand out clones so the
// delivery layer can never alias the state owned by the session.
func (r *Room) Clone() *Room {
	if r == nil {
		return nil
	}
	clone := *r
	if r.CurrentVideo != nil {
		video := *r.CurrentVideo
		clone.CurrentVideo = &video
	}
	clone.Participants = make([]User, len(r.Participants))
	copy(clone.Participants, r.Participants)
	clone.Messages = make([]ChatMessage, len(r.Messages))
	copy(clone.Messages, r.Messages)
	return &clone
}

// Equal structurally compares two room snapshots, including nested
// participants and messages. The reconciler adopts a fetched snapshot only
// when this returns false.
func (r *Room) Equal(other *Room) bool {
	if r == nil || other == nil {
		return r == other
	}
	if r.ID != other.ID ||
		r.Name != other.Name ||
		r.IsPlaying != other.IsPlaying ||
		r.CurrentTime != other.CurrentTime ||
		!r.CreatedAt.Equal(other.CreatedAt) {
		return false
	}
	if (r.CurrentVideo == nil) != (other.CurrentVideo == nil) {
		return false
	}
	if r.CurrentVideo != nil && *r.CurrentVideo != *other.CurrentVideo {
		return false
	}
	if len(r.Participants) != len(other.Participants) {
		return false
	}
	for i := range r.Participants {
		if !r.Participants[i].Equal(&other.Participants[i]) {
			return false
		}
	}
	if len(r.Messages) != len(other.Messages) {
		return false
	}
	for i := range r.Messages {
		if !r.Messages[i].Equal(&other.Messages[i]) {
			return false
		}
	}
	return true
}
