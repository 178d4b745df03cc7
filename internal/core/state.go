package core

import "time"

// PlaybackState is the per-round state owned by the controller.
type PlaybackState struct {
	IsPlaying    bool   `json:"is_playing"`
	CurrentTrack *Track `json:"current_track"`
	Revealed     bool   `json:"revealed"`
}

// HasTrack returns true if a round has a resolved track.
func (s *PlaybackState) HasTrack() bool {
	return s != nil && s.CurrentTrack != nil
}

// RemoteState is a snapshot of what the remote service reports as playing.
type RemoteState struct {
	IsPlaying bool          `json:"is_playing"`
	Track     *Track        `json:"track"`
	Device    *Device       `json:"device"`
	Progress  time.Duration `json:"progress"`
}
