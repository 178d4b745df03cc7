package controller

import (
	"context"
	"fmt"

	"github.com/tessro/cuecard/internal/core"
	apperrors "github.com/tessro/cuecard/internal/errors"
)

// ActionKind names a user or scanner intent.
type ActionKind string

const (
	ActionLogin          ActionKind = "login"
	ActionRefreshDevices ActionKind = "refresh-devices"
	ActionSelectDevice   ActionKind = "select-device"
	ActionStart          ActionKind = "start"
	ActionScan           ActionKind = "scan"
	ActionReveal         ActionKind = "reveal"
	ActionTogglePlayback ActionKind = "toggle-playback"
	ActionSetVolume      ActionKind = "set-volume"
	ActionChangeDevice   ActionKind = "change-device"
	ActionLogout         ActionKind = "logout"
)

// Action is a request dispatched to the active screen.
type Action struct {
	Kind     ActionKind
	DeviceID string // select-device
	TrackURI string // scan
	Volume   int    // set-volume
}

func unavailable(kind ActionKind, screen core.Screen) error {
	return fmt.Errorf("%w: %s on %s", apperrors.ErrActionUnavailable, kind, screen)
}

func (c *Controller) handlerTables() map[core.Screen]map[ActionKind]handler {
	return map[core.Screen]map[ActionKind]handler{
		core.ScreenLogin: {
			ActionLogin: c.login,
		},
		core.ScreenDeviceSetup: {
			ActionRefreshDevices: c.refreshDevices,
			ActionSelectDevice:   c.selectDevice,
			ActionStart:          c.start,
			ActionLogout:         c.logout,
		},
		core.ScreenActivePlay: {
			ActionScan:           c.scan,
			ActionReveal:         c.reveal,
			ActionTogglePlayback: c.togglePlayback,
			ActionSetVolume:      c.setVolume,
			ActionChangeDevice:   c.changeDevice,
			ActionLogout:         c.logout,
		},
	}
}

func (c *Controller) login(ctx context.Context, _ Action) error {
	if err := c.auth.InitiateLogin(ctx); err != nil {
		c.notify("Could not start sign-in", err)
		return err
	}
	return c.Start(ctx)
}

func (c *Controller) refreshDevices(ctx context.Context, a Action) error {
	c.mu.Lock()
	epoch := c.epoch
	c.mu.Unlock()

	devices, err := c.gateway.ListDevices(ctx)
	if err != nil {
		c.fail("Could not list devices", err)
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if epoch != c.epoch {
		return nil
	}
	c.devices = devices
	c.autoSelectLocked()
	c.publishLocked()
	return nil
}

// autoSelectLocked drops a selection that left the listing and, when
// nothing is selected, picks the device the remote reports as active.
func (c *Controller) autoSelectLocked() {
	if c.session.DeviceID != "" && core.FindDevice(c.devices, c.session.DeviceID) == nil {
		c.session.DeviceID = ""
	}
	if c.session.DeviceID == "" {
		if d := core.ActiveDevice(c.devices); d != nil {
			c.session.DeviceID = d.ID
		}
	}
}

func (c *Controller) selectDevice(_ context.Context, a Action) error {
	c.mu.Lock()
	d := core.FindDevice(c.devices, a.DeviceID)
	if d == nil {
		c.mu.Unlock()
		return fmt.Errorf("device %q is not in the current listing", a.DeviceID)
	}
	saved := d.Saved()
	c.session.DeviceID = d.ID
	c.publishLocked()
	c.mu.Unlock()

	c.saveDevice(saved)
	return nil
}

func (c *Controller) start(ctx context.Context, _ Action) error {
	c.mu.Lock()
	epoch := c.epoch
	id := c.session.DeviceID
	var saved core.SavedDevice
	if d := core.FindDevice(c.devices, id); d != nil {
		saved = d.Saved()
	}
	c.mu.Unlock()

	if id == "" {
		c.notify("Pick a device first", apperrors.ErrNoDeviceSelected)
		return apperrors.ErrNoDeviceSelected
	}

	if err := c.gateway.SelectAndTransfer(ctx, id, false); err != nil {
		c.fail("Could not switch to the device", err)
		return err
	}
	if saved.ID == "" {
		saved.ID = id
	}
	c.saveDevice(saved)

	c.mu.Lock()
	if epoch != c.epoch {
		c.mu.Unlock()
		return nil
	}
	c.epoch++
	c.transitionLocked(core.ScreenActivePlay)
	c.publishLocked()
	c.mu.Unlock()

	c.info("Ready", fmt.Sprintf("Playing on %s. Scan a card to start a round.", displayName(saved)))
	c.startSubsystems()
	return nil
}

func (c *Controller) scan(ctx context.Context, a Action) error {
	c.mu.Lock()
	c.round++
	round, epoch := c.round, c.epoch
	deviceID := c.session.DeviceID
	c.playback.Revealed = false
	c.roundID = ""
	c.inFlight = true
	c.resolved = false
	c.publishLocked()
	c.mu.Unlock()

	track, err := c.gateway.Play(ctx, a.TrackURI, deviceID)

	c.mu.Lock()
	if round != c.round || epoch != c.epoch {
		c.mu.Unlock()
		c.logger.Debugw("Discarding superseded play result", "uri", a.TrackURI)
		return nil
	}
	c.inFlight = false
	if err != nil {
		c.playback.IsPlaying = false
		c.publishLocked()
		c.mu.Unlock()
		c.fail("Could not play card", err)
		return err
	}
	c.playback.CurrentTrack = track
	c.playback.IsPlaying = true
	c.resolved = true
	c.publishLocked()
	c.mu.Unlock()

	c.recordRound(ctx, round, track, deviceID)
	return nil
}

func (c *Controller) recordRound(ctx context.Context, round uint64, track *core.Track, deviceID string) {
	if c.rounds == nil {
		return
	}
	id, err := c.rounds.Record(ctx, track, deviceID)
	if err != nil {
		c.logger.Warnw("Failed to record round", "error", err)
		return
	}

	c.mu.Lock()
	if round != c.round {
		c.mu.Unlock()
		return
	}
	c.roundID = id
	revealed := c.playback.Revealed
	c.mu.Unlock()

	if revealed {
		c.markRevealed(ctx, id)
	}
}

func (c *Controller) reveal(ctx context.Context, _ Action) error {
	c.mu.Lock()
	// A failed or pending scan leaves the previous round's track in place.
	if !c.playback.HasTrack() || !c.resolved || c.playback.Revealed {
		c.mu.Unlock()
		return nil
	}
	c.playback.Revealed = true
	id := c.roundID
	c.publishLocked()
	c.mu.Unlock()

	if id != "" {
		c.markRevealed(ctx, id)
	}
	return nil
}

func (c *Controller) markRevealed(ctx context.Context, id string) {
	if err := c.rounds.MarkRevealed(ctx, id); err != nil {
		c.logger.Warnw("Failed to mark round revealed", "error", err)
	}
}

func (c *Controller) togglePlayback(ctx context.Context, _ Action) error {
	c.mu.Lock()
	epoch := c.epoch
	c.mu.Unlock()

	playing, err := c.gateway.TogglePlayback(ctx)
	if err != nil {
		c.fail("Could not change playback", err)
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if epoch == c.epoch {
		c.playback.IsPlaying = playing
		c.publishLocked()
	}
	return nil
}

func (c *Controller) setVolume(ctx context.Context, a Action) error {
	volume := max(0, min(100, a.Volume))
	if err := c.gateway.SetVolume(ctx, volume); err != nil {
		c.fail("Could not set volume", err)
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	for i := range c.devices {
		if c.devices[i].ID == c.session.DeviceID {
			v := volume
			c.devices[i].VolumePercent = &v
		}
	}
	c.publishLocked()
	return nil
}

func (c *Controller) changeDevice(ctx context.Context, _ Action) error {
	c.stopSubsystems()
	c.clearSavedDevice()

	c.mu.Lock()
	c.round++
	c.inFlight = false
	c.session.DeviceID = ""
	c.mu.Unlock()

	return c.enterDeviceSetup(ctx, nil)
}

func (c *Controller) logout(_ context.Context, _ Action) error {
	c.invalidate("", nil)
	c.info("Signed out", "Sign in again to keep playing.")
	return nil
}

func displayName(d core.SavedDevice) string {
	if d.Name != "" {
		return d.Name
	}
	return d.ID
}
