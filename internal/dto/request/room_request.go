package request

// CreateRoomRequest represents a room creation request
type CreateRoomRequest struct {
	RoomName string `json:"room_name" binding:"required,min=1,max=100"`
	UserName string `json:"user_name" binding:"required,min=1,max=50"`
}

// JoinRoomRequest represents a join request for an existing room
type JoinRoomRequest struct {
	UserName string `json:"user_name" binding:"required,min=1,max=50"`
}

// ChangeVideoRequest represents a host's video change request
type ChangeVideoRequest struct {
	VideoID string `json:"video_id" binding:"required"`
	Title   string `json:"title,omitempty" binding:"omitempty,max=200"`
}

// PlayerSyncRequest carries a partial player state update. Omitted fields
// are left unchanged. Force marks a discrete user action that must not be
// debounced away.
type PlayerSyncRequest struct {
	IsPlaying   *bool    `json:"is_playing,omitempty"`
	CurrentTime *float64 `json:"current_time,omitempty"`
	Duration    *float64 `json:"duration,omitempty"`
	Force       bool     `json:"force,omitempty"`
}
