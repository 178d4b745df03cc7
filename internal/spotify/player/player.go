package player

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/tessro/cuecard/internal/core"
	apperrors "github.com/tessro/cuecard/internal/errors"
	"github.com/tessro/cuecard/internal/spotify/client"
)

// Player implements core.Gateway for Spotify.
type Player struct {
	client *client.Client

	mu            sync.Mutex
	deviceID      string // selected device, targets player commands
	transferredTo string // last device a transfer succeeded for
	isPlaying     bool   // best-effort, refreshed by GetPlaybackState
}

// New creates a new Spotify player.
func New(c *client.Client) *Player {
	return &Player{client: c}
}

// SetToken installs the bearer token for all later calls.
func (p *Player) SetToken(token string) {
	p.client.SetToken(token)
}

// DeviceID returns the selected device id.
func (p *Player) DeviceID() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.deviceID
}

// IsPlaying returns the local best-effort playing flag.
func (p *Player) IsPlaying() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.isPlaying
}

// ListDevices returns the user's available playback devices.
func (p *Player) ListDevices(ctx context.Context) ([]core.Device, error) {
	devices, err := p.client.GetDevices(ctx)
	if err != nil {
		return nil, classify(err, false)
	}

	result := make([]core.Device, len(devices))
	for i, d := range devices {
		result[i] = *convertDevice(&d)
	}
	return result, nil
}

// SelectAndTransfer transfers playback to deviceID and selects it. Calling
// it again for the device already transferred to is a no-op.
func (p *Player) SelectAndTransfer(ctx context.Context, deviceID string, startPlaying bool) error {
	p.mu.Lock()
	already := deviceID != "" && p.transferredTo == deviceID
	p.mu.Unlock()
	if already {
		return nil
	}

	if err := p.client.TransferPlayback(ctx, deviceID, startPlaying); err != nil {
		return classify(err, false)
	}

	p.mu.Lock()
	p.deviceID = deviceID
	p.transferredTo = deviceID
	if startPlaying {
		p.isPlaying = true
	}
	p.mu.Unlock()
	return nil
}

// UseDevice selects deviceID for later commands without a remote transfer.
func (p *Player) UseDevice(deviceID string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.transferredTo != deviceID {
		p.transferredTo = ""
	}
	p.deviceID = deviceID
}

func (p *Player) target(deviceID string) string {
	if deviceID != "" {
		return deviceID
	}
	return p.DeviceID()
}

// Play starts trackURI on deviceID (or the selected device) and returns
// the track's metadata.
func (p *Player) Play(ctx context.Context, trackURI, deviceID string) (*core.Track, error) {
	err := p.client.Play(ctx, p.target(deviceID), &client.PlayOptions{
		URIs: []string{trackURI},
	})
	if err != nil {
		return nil, classify(err, true)
	}

	p.mu.Lock()
	p.isPlaying = true
	p.mu.Unlock()

	return p.GetTrackInfo(ctx, trackID(trackURI))
}

// Pause pauses playback.
func (p *Player) Pause(ctx context.Context) error {
	if err := p.client.Pause(ctx, p.DeviceID()); err != nil {
		return classify(err, true)
	}
	p.setPlaying(false)
	return nil
}

// Resume resumes playback.
func (p *Player) Resume(ctx context.Context) error {
	if err := p.client.Play(ctx, p.DeviceID(), nil); err != nil {
		return classify(err, true)
	}
	p.setPlaying(true)
	return nil
}

// TogglePlayback pauses or resumes based on the local playing flag and
// returns the new flag.
func (p *Player) TogglePlayback(ctx context.Context) (bool, error) {
	if p.IsPlaying() {
		if err := p.Pause(ctx); err != nil {
			return true, err
		}
		return false, nil
	}
	if err := p.Resume(ctx); err != nil {
		return false, err
	}
	return true, nil
}

func (p *Player) setPlaying(playing bool) {
	p.mu.Lock()
	p.isPlaying = playing
	p.mu.Unlock()
}

// SetVolume sets the playback volume, clamped to 0-100.
func (p *Player) SetVolume(ctx context.Context, percent int) error {
	percent = max(0, min(100, percent))
	if err := p.client.SetVolume(ctx, percent, p.DeviceID()); err != nil {
		return classify(err, true)
	}
	return nil
}

// GetPlaybackState returns what the remote reports as playing, or nil
// when nothing is.
func (p *Player) GetPlaybackState(ctx context.Context) (*core.RemoteState, error) {
	state, err := p.client.GetPlaybackState(ctx)
	if err != nil {
		return nil, classify(err, false)
	}
	if state == nil {
		p.setPlaying(false)
		return nil, nil
	}
	p.setPlaying(state.IsPlaying)

	remote := &core.RemoteState{
		IsPlaying: state.IsPlaying,
		Progress:  time.Duration(state.ProgressMS) * time.Millisecond,
	}
	if state.Device.ID != "" {
		remote.Device = convertDevice(&state.Device)
	}
	if state.Item != nil {
		remote.Track = convertTrack(state.Item)
	}
	return remote, nil
}

// GetTrackInfo returns the catalog metadata for a track id.
func (p *Player) GetTrackInfo(ctx context.Context, id string) (*core.Track, error) {
	track, err := p.client.GetTrack(ctx, id)
	if err != nil {
		return nil, classify(err, false)
	}
	return convertTrack(track), nil
}

// GetUserProfile returns the authenticated user's profile.
func (p *Player) GetUserProfile(ctx context.Context) (*core.Profile, error) {
	user, err := p.client.GetCurrentUser(ctx)
	if err != nil {
		return nil, classify(err, false)
	}
	return &core.Profile{
		ID:          user.ID,
		DisplayName: user.DisplayName,
		Email:       user.Email,
		Product:     user.Product,
	}, nil
}

// classify maps client failures onto the domain error taxonomy. A 404 from
// a player command means there is no device to take the command.
func classify(err error, playerCommand bool) error {
	if errors.Is(err, client.ErrNoToken) {
		return apperrors.ErrUnauthorized
	}

	var apiErr *client.APIError
	if errors.As(err, &apiErr) {
		switch {
		case apiErr.Status == http.StatusUnauthorized:
			return fmt.Errorf("%w: %s", apperrors.ErrUnauthorized, apiErr.Message)
		case apiErr.Status == http.StatusForbidden:
			return fmt.Errorf("%w: %s", apperrors.ErrPremiumRequired, apiErr.Message)
		case apiErr.Status == http.StatusNotFound && playerCommand:
			return fmt.Errorf("%w: %s", apperrors.ErrNoActiveDevice, apiErr.Message)
		}
		return &apperrors.GatewayError{Status: apiErr.Status, Message: apiErr.Message, Err: err}
	}

	var te *client.TransportError
	if errors.As(err, &te) {
		return &apperrors.GatewayError{Err: te.Err}
	}
	return err
}

// trackID returns the last segment of a spotify:track:<id> URI.
func trackID(uri string) string {
	if i := strings.LastIndex(uri, ":"); i >= 0 {
		return uri[i+1:]
	}
	return uri
}

// releaseYear parses the leading four digits of a release date.
func releaseYear(date string) *int {
	if len(date) < 4 {
		return nil
	}
	year, err := strconv.Atoi(date[:4])
	if err != nil {
		return nil
	}
	return &year
}

// convertTrack converts a Spotify track to a core track.
func convertTrack(t *client.Track) *core.Track {
	if t == nil {
		return nil
	}

	artists := make([]string, len(t.Artists))
	for i, a := range t.Artists {
		artists[i] = a.Name
	}

	track := &core.Track{
		ID:       t.ID,
		URI:      t.URI,
		Name:     t.Name,
		Artists:  artists,
		Album:    t.Album.Name,
		Year:     releaseYear(t.Album.ReleaseDate),
		Duration: time.Duration(t.DurationMS) * time.Millisecond,
	}
	if t.PreviewURL != nil {
		track.PreviewURL = *t.PreviewURL
	}

	images := t.Album.Images
	if len(images) > 0 {
		track.AlbumArtURL = images[0].URL
		track.ThumbnailURL = images[0].URL
	}
	if len(images) > 2 {
		track.ThumbnailURL = images[2].URL
	}
	return track
}

// convertDevice converts a Spotify device to a core device.
func convertDevice(d *client.Device) *core.Device {
	if d == nil {
		return nil
	}

	deviceType := core.DeviceTypeOther
	switch strings.ToLower(d.Type) {
	case "computer":
		deviceType = core.DeviceTypeComputer
	case "smartphone":
		deviceType = core.DeviceTypeSmartphone
	case "tablet":
		deviceType = core.DeviceTypeTablet
	case "speaker":
		deviceType = core.DeviceTypeSpeaker
	case "tv":
		deviceType = core.DeviceTypeTV
	}

	return &core.Device{
		ID:            d.ID,
		Name:          d.Name,
		Type:          deviceType,
		IsActive:      d.IsActive,
		VolumePercent: d.VolumePercent,
	}
}

// Ensure Player implements core.Gateway
var _ core.Gateway = (*Player)(nil)
