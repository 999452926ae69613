package model

// SystemUserID is the reserved author id for messages emitted by the room
// itself (join/leave announcements, playback transitions).
const SystemUserID = "system"

// SystemUserName is the display name shown for system messages.
const SystemUserName = "System"

type User struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	IsHost bool   `json:"is_host"`
	Avatar string `json:"avatar"`
}

// Equal reports whether two users are field-wise identical.
func (u *User) Equal(other *User) bool {
	if u == nil || other == nil {
		return u == other
	}
	return u.ID == other.ID &&
		u.Name == other.Name &&
		u.IsHost == other.IsHost &&
		u.Avatar == other.Avatar
}
