// Package watch polls the remote player and reports drift from local state.
package watch

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/tessro/cuecard/internal/core"
)

// EventType represents the type of remote playback change.
type EventType int

const (
	EventTrackChange EventType = iota
	EventPause
	EventResume
	EventStopped
	EventDeviceChange
)

func (t EventType) String() string {
	switch t {
	case EventTrackChange:
		return "track-change"
	case EventPause:
		return "pause"
	case EventResume:
		return "resume"
	case EventStopped:
		return "stopped"
	case EventDeviceChange:
		return "device-change"
	}
	return "unknown"
}

// Event represents a remote playback change between two polls.
type Event struct {
	Type      EventType
	Timestamp time.Time
	Previous  *core.RemoteState
	Current   *core.RemoteState
}

// StateSource reports what the remote is playing.
type StateSource interface {
	GetPlaybackState(ctx context.Context) (*core.RemoteState, error)
}

// ApplyFunc receives every poll result. state is nil when nothing plays.
type ApplyFunc func(ctx context.Context, state *core.RemoteState, err error)

// Watcher polls a StateSource at a fixed interval. It can be started and
// stopped repeatedly.
type Watcher struct {
	source   StateSource
	interval time.Duration
	apply    ApplyFunc
	logger   *zap.SugaredLogger

	mu     sync.Mutex
	cancel context.CancelFunc
}

// NewWatcher creates a watcher. An interval of zero disables polling.
func NewWatcher(source StateSource, interval time.Duration, apply ApplyFunc, logger *zap.SugaredLogger) *Watcher {
	return &Watcher{
		source:   source,
		interval: interval,
		apply:    apply,
		logger:   logger.Named("watch"),
	}
}

// Start begins polling in the background.
func (w *Watcher) Start(ctx context.Context) error {
	if w.interval <= 0 {
		return nil
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.cancel != nil {
		return nil
	}
	pollCtx, cancel := context.WithCancel(ctx)
	w.cancel = cancel

	go w.run(pollCtx)
	return nil
}

// Stop stops polling. A poll in progress may still deliver its result.
func (w *Watcher) Stop() {
	w.mu.Lock()
	cancel := w.cancel
	w.cancel = nil
	w.mu.Unlock()
	if cancel != nil {
		cancel()
	}
}

func (w *Watcher) run(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	var prev *core.RemoteState
	first := true

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			curr, err := w.source.GetPlaybackState(ctx)
			if ctx.Err() != nil {
				return
			}
			if err != nil {
				w.logger.Debugw("Poll failed", "error", err)
				w.apply(ctx, nil, err)
				continue
			}

			if !first {
				for _, e := range diffStates(prev, curr, time.Now()) {
					w.logger.Debugw("Remote playback changed", "event", e.Type.String())
				}
			}
			first = false
			prev = curr

			w.apply(ctx, curr, nil)
		}
	}
}

// diffStates compares two polls and returns detected events.
func diffStates(prev, curr *core.RemoteState, now time.Time) []Event {
	var events []Event
	add := func(t EventType) {
		events = append(events, Event{Type: t, Timestamp: now, Previous: prev, Current: curr})
	}

	if curr == nil {
		if prev != nil {
			add(EventStopped)
		}
		return events
	}

	if trackChanged(prev, curr) {
		add(EventTrackChange)
	}

	wasPlaying := prev != nil && prev.IsPlaying
	if wasPlaying && !curr.IsPlaying {
		add(EventPause)
	} else if !wasPlaying && curr.IsPlaying {
		add(EventResume)
	}

	if prev != nil && deviceChanged(prev, curr) {
		add(EventDeviceChange)
	}

	return events
}

// trackChanged returns true if the track changed.
func trackChanged(prev, curr *core.RemoteState) bool {
	var prevTrack, currTrack *core.Track
	if prev != nil {
		prevTrack = prev.Track
	}
	if curr != nil {
		currTrack = curr.Track
	}
	if prevTrack == nil && currTrack == nil {
		return false
	}
	if prevTrack == nil || currTrack == nil {
		return true
	}
	return prevTrack.URI != currTrack.URI
}

// deviceChanged returns true if the device changed.
func deviceChanged(prev, curr *core.RemoteState) bool {
	if prev.Device == nil && curr.Device == nil {
		return false
	}
	if prev.Device == nil || curr.Device == nil {
		return true
	}
	return prev.Device.ID != curr.Device.ID
}
