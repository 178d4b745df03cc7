package core

import "context"

// Gateway translates playback intent into remote music-service calls.
type Gateway interface {
	SetToken(token string)

	ListDevices(ctx context.Context) ([]Device, error)
	SelectAndTransfer(ctx context.Context, deviceID string, startPlaying bool) error
	UseDevice(deviceID string)

	Play(ctx context.Context, trackURI, deviceID string) (*Track, error)
	Pause(ctx context.Context) error
	Resume(ctx context.Context) error
	TogglePlayback(ctx context.Context) (bool, error)
	SetVolume(ctx context.Context, percent int) error

	GetPlaybackState(ctx context.Context) (*RemoteState, error)
	GetTrackInfo(ctx context.Context, trackID string) (*Track, error)
	GetUserProfile(ctx context.Context) (*Profile, error)
}
