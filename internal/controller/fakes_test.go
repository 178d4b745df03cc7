package controller

import (
	"context"
	"sync"

	"github.com/tessro/cuecard/internal/core"
)

type fakeGateway struct {
	mu sync.Mutex

	token    string
	devices  []core.Device
	selected string
	playing  bool

	profileErr  error
	listErr     error
	transferErr error
	playErr     error
	toggleErr   error
	tracks      map[string]*core.Track
	playGate    chan struct{} // when set, Play blocks until it is closed

	calls map[string]int
}

func newFakeGateway(devices ...core.Device) *fakeGateway {
	return &fakeGateway{
		devices: devices,
		tracks:  map[string]*core.Track{},
		calls:   map[string]int{},
	}
}

func (g *fakeGateway) count(name string) int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.calls[name]
}

func (g *fakeGateway) record(name string) {
	g.mu.Lock()
	g.calls[name]++
	g.mu.Unlock()
}

func (g *fakeGateway) set(fn func(g *fakeGateway)) {
	g.mu.Lock()
	fn(g)
	g.mu.Unlock()
}

func (g *fakeGateway) SetToken(token string) {
	g.mu.Lock()
	g.token = token
	g.mu.Unlock()
}

func (g *fakeGateway) ListDevices(ctx context.Context) ([]core.Device, error) {
	g.record("ListDevices")
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.listErr != nil {
		return nil, g.listErr
	}
	return append([]core.Device(nil), g.devices...), nil
}

func (g *fakeGateway) SelectAndTransfer(ctx context.Context, deviceID string, startPlaying bool) error {
	g.record("SelectAndTransfer")
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.transferErr != nil {
		return g.transferErr
	}
	g.selected = deviceID
	return nil
}

func (g *fakeGateway) UseDevice(deviceID string) {
	g.record("UseDevice")
	g.mu.Lock()
	g.selected = deviceID
	g.mu.Unlock()
}

func (g *fakeGateway) Play(ctx context.Context, trackURI, deviceID string) (*core.Track, error) {
	g.record("Play")
	g.mu.Lock()
	gate := g.playGate
	g.mu.Unlock()
	if gate != nil {
		<-gate
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	if g.playErr != nil {
		return nil, g.playErr
	}
	g.playing = true
	if t, ok := g.tracks[trackURI]; ok {
		return t, nil
	}
	return &core.Track{ID: trackURI[len("spotify:track:"):], URI: trackURI, Name: "Track " + trackURI}, nil
}

func (g *fakeGateway) Pause(ctx context.Context) error {
	g.record("Pause")
	g.set(func(g *fakeGateway) { g.playing = false })
	return nil
}

func (g *fakeGateway) Resume(ctx context.Context) error {
	g.record("Resume")
	g.set(func(g *fakeGateway) { g.playing = true })
	return nil
}

func (g *fakeGateway) TogglePlayback(ctx context.Context) (bool, error) {
	g.record("TogglePlayback")
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.toggleErr != nil {
		return g.playing, g.toggleErr
	}
	g.playing = !g.playing
	return g.playing, nil
}

func (g *fakeGateway) SetVolume(ctx context.Context, percent int) error {
	g.record("SetVolume")
	return nil
}

func (g *fakeGateway) GetPlaybackState(ctx context.Context) (*core.RemoteState, error) {
	g.record("GetPlaybackState")
	return nil, nil
}

func (g *fakeGateway) GetTrackInfo(ctx context.Context, trackID string) (*core.Track, error) {
	g.record("GetTrackInfo")
	return &core.Track{ID: trackID}, nil
}

func (g *fakeGateway) GetUserProfile(ctx context.Context) (*core.Profile, error) {
	g.record("GetUserProfile")
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.profileErr != nil {
		return nil, g.profileErr
	}
	return &core.Profile{ID: "host", DisplayName: "Host", Product: "premium"}, nil
}

type fakeAuth struct {
	mu         sync.Mutex
	stored     string
	callback   string
	loginCalls int
	cleared    int
}

func (a *fakeAuth) InitiateLogin(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.loginCalls++
	a.callback = "fresh-token"
	return nil
}

func (a *fakeAuth) ResolveCallback(ctx context.Context) (string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	token := a.callback
	a.callback = ""
	if token != "" {
		a.stored = token
	}
	return token, nil
}

func (a *fakeAuth) StoredToken(ctx context.Context) string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.stored
}

func (a *fakeAuth) ClearToken() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.stored = ""
	a.cleared++
	return nil
}

type fakeStore struct {
	mu    sync.Mutex
	saved *core.SavedDevice
	saves int
}

func (s *fakeStore) Save(d core.SavedDevice) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.saved = &d
	s.saves++
	return nil
}

func (s *fakeStore) Load() *core.SavedDevice {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.saved == nil {
		return nil
	}
	d := *s.saved
	return &d
}

func (s *fakeStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.saved = nil
	return nil
}

type fakeNotifier struct {
	mu      sync.Mutex
	notices []core.Notice
}

func (n *fakeNotifier) Notify(notice core.Notice) {
	n.mu.Lock()
	n.notices = append(n.notices, notice)
	n.mu.Unlock()
}

func (n *fakeNotifier) kinds() []core.NoticeKind {
	n.mu.Lock()
	defer n.mu.Unlock()
	var kinds []core.NoticeKind
	for _, notice := range n.notices {
		kinds = append(kinds, notice.Kind)
	}
	return kinds
}

func (n *fakeNotifier) has(kind core.NoticeKind) bool {
	for _, k := range n.kinds() {
		if k == kind {
			return true
		}
	}
	return false
}

type fakeSubsystem struct {
	mu      sync.Mutex
	running bool
	starts  int
	stops   int
}

func (s *fakeSubsystem) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.running = true
	s.starts++
	return nil
}

func (s *fakeSubsystem) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.running = false
	s.stops++
}

func (s *fakeSubsystem) isRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

type fakeRounds struct {
	mu       sync.Mutex
	recorded []string
	revealed []string
}

func (r *fakeRounds) Record(ctx context.Context, track *core.Track, deviceID string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	id := "round-" + track.ID
	r.recorded = append(r.recorded, id)
	return id, nil
}

func (r *fakeRounds) MarkRevealed(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.revealed = append(r.revealed, id)
	return nil
}
