package watch

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/tessro/cuecard/internal/core"
)

type fakeSource struct {
	mu     sync.Mutex
	states []*core.RemoteState
	err    error
	calls  int
}

func (f *fakeSource) GetPlaybackState(ctx context.Context) (*core.RemoteState, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	if len(f.states) == 0 {
		return nil, nil
	}
	s := f.states[0]
	if len(f.states) > 1 {
		f.states = f.states[1:]
	}
	return s, nil
}

func TestWatcherAppliesPolls(t *testing.T) {
	playing := &core.RemoteState{IsPlaying: true, Track: &core.Track{URI: "spotify:track:a"}}
	src := &fakeSource{states: []*core.RemoteState{playing}}

	got := make(chan *core.RemoteState, 4)
	w := NewWatcher(src, 5*time.Millisecond, func(_ context.Context, s *core.RemoteState, err error) {
		if err == nil {
			select {
			case got <- s:
			default:
			}
		}
	}, zap.NewNop().Sugar())

	if err := w.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	defer w.Stop()

	select {
	case s := <-got:
		if s != playing {
			t.Errorf("applied %+v", s)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for poll")
	}
}

func TestWatcherReportsErrors(t *testing.T) {
	boom := errors.New("boom")
	src := &fakeSource{err: boom}

	errs := make(chan error, 4)
	w := NewWatcher(src, 5*time.Millisecond, func(_ context.Context, _ *core.RemoteState, err error) {
		select {
		case errs <- err:
		default:
		}
	}, zap.NewNop().Sugar())

	_ = w.Start(context.Background())
	defer w.Stop()

	select {
	case err := <-errs:
		if !errors.Is(err, boom) {
			t.Errorf("err = %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for error")
	}
}

func TestWatcherDisabled(t *testing.T) {
	src := &fakeSource{}
	w := NewWatcher(src, 0, func(context.Context, *core.RemoteState, error) {
		t.Error("disabled watcher should not poll")
	}, zap.NewNop().Sugar())

	_ = w.Start(context.Background())
	time.Sleep(20 * time.Millisecond)
	w.Stop()

	src.mu.Lock()
	defer src.mu.Unlock()
	if src.calls != 0 {
		t.Errorf("calls = %d, want 0", src.calls)
	}
}

func TestWatcherRestart(t *testing.T) {
	src := &fakeSource{}
	polled := make(chan struct{}, 1)
	w := NewWatcher(src, 5*time.Millisecond, func(context.Context, *core.RemoteState, error) {
		select {
		case polled <- struct{}{}:
		default:
		}
	}, zap.NewNop().Sugar())

	for range 2 {
		_ = w.Start(context.Background())
		select {
		case <-polled:
		case <-time.After(2 * time.Second):
			t.Fatal("timed out waiting for poll")
		}
		w.Stop()
	}
}

func TestDiffStates(t *testing.T) {
	now := time.Now()
	trackA := &core.Track{URI: "spotify:track:a"}
	trackB := &core.Track{URI: "spotify:track:b"}
	dev1 := &core.Device{ID: "1"}
	dev2 := &core.Device{ID: "2"}

	tests := []struct {
		name string
		prev *core.RemoteState
		curr *core.RemoteState
		want []EventType
	}{
		{"nothing to nothing", nil, nil, nil},
		{"stopped", &core.RemoteState{Track: trackA}, nil, []EventType{EventStopped}},
		{"started", nil, &core.RemoteState{IsPlaying: true, Track: trackA}, []EventType{EventTrackChange, EventResume}},
		{"paused", &core.RemoteState{IsPlaying: true, Track: trackA}, &core.RemoteState{Track: trackA}, []EventType{EventPause}},
		{"track change", &core.RemoteState{IsPlaying: true, Track: trackA}, &core.RemoteState{IsPlaying: true, Track: trackB}, []EventType{EventTrackChange}},
		{"device change", &core.RemoteState{Track: trackA, Device: dev1}, &core.RemoteState{Track: trackA, Device: dev2}, []EventType{EventDeviceChange}},
		{"unchanged", &core.RemoteState{IsPlaying: true, Track: trackA, Device: dev1}, &core.RemoteState{IsPlaying: true, Track: trackA, Device: dev1}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			events := diffStates(tt.prev, tt.curr, now)
			if len(events) != len(tt.want) {
				t.Fatalf("events = %v, want %v", events, tt.want)
			}
			for i, e := range events {
				if e.Type != tt.want[i] {
					t.Errorf("events[%d] = %s, want %s", i, e.Type, tt.want[i])
				}
			}
		})
	}
}
