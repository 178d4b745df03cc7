// Package controller owns the hosting session: authentication recovery,
// device selection, scan-triggered playback and the reveal flag.
package controller

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"

	"github.com/tessro/cuecard/internal/core"
	apperrors "github.com/tessro/cuecard/internal/errors"
)

// Authenticator supplies bearer tokens.
type Authenticator interface {
	InitiateLogin(ctx context.Context) error
	// ResolveCallback returns "" and nil when no login is pending.
	ResolveCallback(ctx context.Context) (string, error)
	StoredToken(ctx context.Context) string
	ClearToken() error
}

// DeviceStore persists the selected device.
type DeviceStore interface {
	Save(d core.SavedDevice) error
	Load() *core.SavedDevice
	Clear() error
}

// Subsystem is a background component that runs only during active play.
type Subsystem interface {
	Start(ctx context.Context) error
	Stop()
}

// RoundRecorder keeps a history of played rounds.
type RoundRecorder interface {
	Record(ctx context.Context, track *core.Track, deviceID string) (string, error)
	MarkRevealed(ctx context.Context, id string) error
}

// Deps are the collaborators a Controller drives.
type Deps struct {
	Gateway  core.Gateway
	Auth     Authenticator
	Devices  DeviceStore
	Notifier core.Notifier
	Logger   *zap.SugaredLogger

	// Optional.
	Rounds RoundRecorder
}

type handler func(ctx context.Context, a Action) error

// Controller is the session state machine. Its state is guarded by one
// mutex that is never held across gateway calls.
type Controller struct {
	gateway  core.Gateway
	auth     Authenticator
	store    DeviceStore
	notifier core.Notifier
	rounds   RoundRecorder
	logger   *zap.SugaredLogger
	tables   map[core.Screen]map[ActionKind]handler

	mu         sync.Mutex
	baseCtx    context.Context // lifetime of subsystems, from the first Start
	started    bool
	subsystems []Subsystem
	screen     core.Screen
	handlers   map[ActionKind]handler
	session    core.Session
	devices    []core.Device
	playback   core.PlaybackState
	profile    *core.Profile
	epoch      uint64 // bumped on every screen change
	round      uint64 // bumped on every scan
	roundID    string
	inFlight   bool
	resolved   bool // CurrentTrack belongs to the latest round
	subs       []chan core.Snapshot
}

// New creates a controller on the login screen.
func New(deps Deps) *Controller {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	notifier := deps.Notifier
	if notifier == nil {
		notifier = core.NotifierFunc(func(core.Notice) {})
	}

	c := &Controller{
		gateway:  deps.Gateway,
		auth:     deps.Auth,
		store:    deps.Devices,
		notifier: notifier,
		rounds:   deps.Rounds,
		logger:   logger.Named("controller"),
		baseCtx:  context.Background(),
	}
	c.tables = c.handlerTables()
	c.transitionLocked(core.ScreenLogin)
	return c
}

// Attach registers subsystems started on entering active play and stopped
// on leaving it, such as the scan orchestrator and the drift watcher.
func (c *Controller) Attach(subsystems ...Subsystem) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.subsystems = append(c.subsystems, subsystems...)
}

// Subscribe returns a channel receiving a snapshot after every change. A
// slow reader skips intermediate snapshots but always sees the latest.
func (c *Controller) Subscribe() <-chan core.Snapshot {
	ch := make(chan core.Snapshot, 1)
	c.mu.Lock()
	c.subs = append(c.subs, ch)
	ch <- c.snapshotLocked()
	c.mu.Unlock()
	return ch
}

// Snapshot returns the current state.
func (c *Controller) Snapshot() core.Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

// Screen returns the active screen.
func (c *Controller) Screen() core.Screen {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.screen
}

// Dispatch runs an action against the active screen's handler table.
func (c *Controller) Dispatch(ctx context.Context, a Action) error {
	c.mu.Lock()
	h, ok := c.handlers[a.Kind]
	screen := c.screen
	c.mu.Unlock()

	if !ok {
		c.logger.Debugw("Action not available", "action", a.Kind, "screen", screen)
		return unavailable(a.Kind, screen)
	}
	return h(ctx, a)
}

// Start resolves a token and resumes the previous session if its device
// is still online.
func (c *Controller) Start(ctx context.Context) error {
	c.mu.Lock()
	if !c.started {
		c.baseCtx = ctx
		c.started = true
	}
	c.mu.Unlock()

	token, err := c.auth.ResolveCallback(ctx)
	if err != nil {
		c.notify("Sign-in failed", err)
	}
	if token == "" {
		token = c.auth.StoredToken(ctx)
	}
	if token == "" {
		c.logger.Debug("No token, waiting for login")
		c.enterLogin()
		return ctx.Err()
	}

	c.gateway.SetToken(token)
	profile, err := c.gateway.GetUserProfile(ctx)
	if err != nil {
		if errors.Is(err, apperrors.ErrUnauthorized) {
			c.invalidate("Session expired", err)
		} else {
			c.notify("Could not reach Spotify", err)
			c.enterLogin()
		}
		return ctx.Err()
	}
	c.logger.Infow("Signed in", "user", profile.DisplayName, "product", profile.Product)

	c.mu.Lock()
	c.session.Token = token
	c.profile = profile
	c.mu.Unlock()

	saved := c.store.Load()
	if saved == nil {
		return c.enterDeviceSetup(ctx, nil)
	}

	devices, err := c.gateway.ListDevices(ctx)
	if err != nil {
		if c.fail("Could not list devices", err) {
			return ctx.Err()
		}
		return c.enterDeviceSetup(ctx, []core.Device{})
	}

	if core.FindDevice(devices, saved.ID) == nil {
		c.logger.Infow("Saved device is offline", "device", saved.Name)
		c.clearSavedDevice()
		return c.enterDeviceSetup(ctx, devices)
	}

	c.gateway.UseDevice(saved.ID)
	c.mu.Lock()
	c.devices = devices
	c.session.DeviceID = saved.ID
	c.epoch++
	c.transitionLocked(core.ScreenActivePlay)
	c.publishLocked()
	c.mu.Unlock()

	c.logger.Infow("Resumed session", "device", saved.Name)
	c.startSubsystems()
	return nil
}

// Reconcile applies a remote playback poll to the playing flag. Only
// IsPlaying changes; the round's track and reveal flag are untouched.
func (c *Controller) Reconcile(ctx context.Context, remote *core.RemoteState, err error) {
	if err != nil {
		if errors.Is(err, apperrors.ErrUnauthorized) {
			c.fail("Session expired", err)
		}
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.screen != core.ScreenActivePlay || c.inFlight || !c.playback.HasTrack() {
		return
	}

	playing := false
	if remote != nil && remote.Track != nil && remote.Track.ID == c.playback.CurrentTrack.ID {
		playing = remote.IsPlaying
	}
	if playing != c.playback.IsPlaying {
		c.logger.Debugw("Reconciled playing flag", "playing", playing)
		c.playback.IsPlaying = playing
		c.publishLocked()
	}
}

func (c *Controller) transitionLocked(screen core.Screen) {
	c.screen = screen
	c.handlers = c.tables[screen]
}

func (c *Controller) enterLogin() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.screen != core.ScreenLogin {
		c.epoch++
	}
	c.transitionLocked(core.ScreenLogin)
	c.publishLocked()
}

// enterDeviceSetup switches to device setup. With a nil listing the
// devices are fetched first.
func (c *Controller) enterDeviceSetup(ctx context.Context, devices []core.Device) error {
	c.mu.Lock()
	c.epoch++
	c.transitionLocked(core.ScreenDeviceSetup)
	if devices != nil {
		c.devices = devices
		c.autoSelectLocked()
	}
	c.publishLocked()
	c.mu.Unlock()

	if devices == nil {
		if err := c.refreshDevices(ctx, Action{Kind: ActionRefreshDevices}); err != nil {
			c.logger.Debugw("Initial device listing failed", "error", err)
		}
	}
	return ctx.Err()
}

// invalidate drops the session after an authorization failure or logout.
func (c *Controller) invalidate(title string, cause error) {
	c.stopSubsystems()
	c.clearSavedDevice()
	if err := c.auth.ClearToken(); err != nil {
		c.logger.Warnw("Failed to clear token", "error", err)
	}
	c.gateway.SetToken("")

	c.mu.Lock()
	c.epoch++
	c.round++
	c.inFlight = false
	c.resolved = false
	c.session = core.Session{}
	c.playback = core.PlaybackState{}
	c.devices = nil
	c.profile = nil
	c.roundID = ""
	c.transitionLocked(core.ScreenLogin)
	c.publishLocked()
	c.mu.Unlock()

	if cause != nil {
		c.notify(title, cause)
	}
}

// fail reports err and invalidates the session when it is an
// authorization failure. It returns true if the session was invalidated.
func (c *Controller) fail(title string, err error) bool {
	if errors.Is(err, apperrors.ErrUnauthorized) {
		c.logger.Infow("Session invalidated", "error", err)
		c.invalidate("Signed out of Spotify", err)
		return true
	}
	c.notify(title, err)
	return false
}

func (c *Controller) notify(title string, err error) {
	c.notifier.Notify(noticeFor(title, err))
}

func (c *Controller) info(title, message string) {
	c.notifier.Notify(core.Notice{Kind: core.NoticeInfo, Title: title, Message: message})
}

func (c *Controller) clearSavedDevice() {
	if err := c.store.Clear(); err != nil {
		c.logger.Warnw("Failed to clear saved device", "error", err)
	}
}

func (c *Controller) saveDevice(d core.SavedDevice) {
	if err := c.store.Save(d); err != nil {
		c.logger.Warnw("Failed to save device", "error", err)
	}
}

func (c *Controller) startSubsystems() {
	c.mu.Lock()
	ctx := c.baseCtx
	subsystems := append([]Subsystem(nil), c.subsystems...)
	c.mu.Unlock()

	for _, s := range subsystems {
		if err := s.Start(ctx); err != nil {
			c.notify("Scanner unavailable", err)
		}
	}
}

func (c *Controller) stopSubsystems() {
	c.mu.Lock()
	subsystems := append([]Subsystem(nil), c.subsystems...)
	c.mu.Unlock()

	for _, s := range subsystems {
		s.Stop()
	}
}

func (c *Controller) snapshotLocked() core.Snapshot {
	return core.Snapshot{
		Screen:   c.screen,
		DeviceID: c.session.DeviceID,
		Devices:  append([]core.Device(nil), c.devices...),
		Playback: c.playback,
		Profile:  c.profile,
	}
}

func (c *Controller) publishLocked() {
	snap := c.snapshotLocked()
	for _, ch := range c.subs {
		select {
		case ch <- snap:
		default:
			// Replace the unread snapshot with the latest one.
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- snap:
			default:
			}
		}
	}
}

func noticeFor(title string, err error) core.Notice {
	kind := core.NoticeKind(apperrors.KindOf(err))
	return core.Notice{
		Kind:       kind,
		Title:      title,
		Message:    err.Error(),
		Suggestion: apperrors.Suggestion(err),
	}
}
