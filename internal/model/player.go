package model

// PlayerState is one client's view of playback: the room's shared
// isPlaying/currentTime plus a locally-known duration. Duration is reported
// by the player adapter and is never written back to the shared room.
type PlayerState struct {
	IsPlaying   bool    `json:"is_playing"`
	CurrentTime float64 `json:"current_time"`
	Duration    float64 `json:"duration"`
	VideoID     string  `json:"video_id"`
}

// PlayerPatch is a partial player update. Nil fields are left untouched
// when the patch is applied.
type PlayerPatch struct {
	IsPlaying   *bool    `json:"is_playing,omitempty"`
	CurrentTime *float64 `json:"current_time,omitempty"`
	Duration    *float64 `json:"duration,omitempty"`
	VideoID     *string  `json:"video_id,omitempty"`
}

// Apply merges the patch into a state snapshot and returns the result.
// The receiver state is not mutated.
func (p PlayerPatch) Apply(state PlayerState) PlayerState {
	if p.IsPlaying != nil {
		state.IsPlaying = *p.IsPlaying
	}
	if p.CurrentTime != nil {
		state.CurrentTime = *p.CurrentTime
	}
	if p.Duration != nil {
		state.Duration = *p.Duration
	}
	if p.VideoID != nil {
		state.VideoID = *p.VideoID
	}
	return state
}

// IsEmpty reports whether the patch carries no fields at all.
func (p PlayerPatch) IsEmpty() bool {
	return p.IsPlaying == nil && p.CurrentTime == nil && p.Duration == nil && p.VideoID == nil
}

// Bool returns a pointer to b, for building patches inline.
func Bool(b bool) *bool { return &b }

// Float returns a pointer to f, for building patches inline.
func Float(f float64) *float64 { return &f }

// String returns a pointer to s, for building patches inline.
func String(s string) *string { return &s }
