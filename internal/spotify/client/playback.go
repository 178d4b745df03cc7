package client

import (
	"context"
	"strconv"
)

// PlayOptions configures a play request.
type PlayOptions struct {
	URIs []string `json:"uris,omitempty"`
}

func withDevice(path, deviceID string, params map[string]string) string {
	if params == nil {
		params = map[string]string{}
	}
	if deviceID != "" {
		params["device_id"] = deviceID
	}
	return BuildURL(path, params)
}

// Play starts playback of opts.URIs, or resumes when opts is nil.
// If deviceID is empty, the currently active device is used.
func (c *Client) Play(ctx context.Context, deviceID string, opts *PlayOptions) error {
	// Spotify requires a JSON body even for resume.
	body := opts
	if body == nil {
		body = &PlayOptions{}
	}
	return c.Put(ctx, withDevice("/me/player/play", deviceID, nil), body, nil)
}

// Pause pauses playback.
func (c *Client) Pause(ctx context.Context, deviceID string) error {
	return c.Put(ctx, withDevice("/me/player/pause", deviceID, nil), nil, nil)
}

// SetVolume sets the playback volume (0-100).
func (c *Client) SetVolume(ctx context.Context, percent int, deviceID string) error {
	params := map[string]string{
		"volume_percent": strconv.Itoa(percent),
	}
	return c.Put(ctx, withDevice("/me/player/volume", deviceID, params), nil, nil)
}

// TransferPlayback transfers playback to a different device.
func (c *Client) TransferPlayback(ctx context.Context, deviceID string, play bool) error {
	body := map[string]any{
		"device_ids": []string{deviceID},
		"play":       play,
	}
	return c.Put(ctx, "/me/player", body, nil)
}
