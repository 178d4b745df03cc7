// Package scan turns decoded card codes into playback requests.
package scan

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// DefaultCooldown is the minimum time between two accepted scans.
const DefaultCooldown = 2 * time.Second

// PlayFunc plays a canonical track URI.
type PlayFunc func(ctx context.Context, uri string) error

// InvalidFunc is told about codes that are not track identifiers.
type InvalidFunc func(raw string, err error)

// Orchestrator gates scans through a cooldown and allows at most one play
// in flight. Scans arriving while gated are dropped, never queued.
type Orchestrator struct {
	play      PlayFunc
	onInvalid InvalidFunc
	source    Source
	logger    *zap.SugaredLogger
	now       func() time.Time

	mu           sync.Mutex
	cooldown     time.Duration
	lastAccepted time.Time
	inFlight     bool
	running      bool
	cancel       context.CancelFunc

	wg sync.WaitGroup
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithSource attaches a code source started and stopped with the orchestrator.
func WithSource(src Source) Option {
	return func(o *Orchestrator) { o.source = src }
}

// WithInvalidHandler sets the handler for unrecognized codes.
func WithInvalidHandler(fn InvalidFunc) Option {
	return func(o *Orchestrator) { o.onInvalid = fn }
}

// WithClock replaces the time source.
func WithClock(now func() time.Time) Option {
	return func(o *Orchestrator) { o.now = now }
}

// New creates an orchestrator that calls play for accepted scans.
func New(play PlayFunc, cooldown time.Duration, logger *zap.SugaredLogger, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		play:      play,
		onInvalid: func(string, error) {},
		logger:    logger.Named("scan"),
		now:       time.Now,
		cooldown:  cooldown,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// SetCooldown changes the cooldown for later scans.
func (o *Orchestrator) SetCooldown(d time.Duration) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if d != o.cooldown {
		o.logger.Infow("Cooldown updated", "cooldown", d)
	}
	o.cooldown = d
}

// Start enables scanning and starts the attached source.
func (o *Orchestrator) Start(ctx context.Context) error {
	o.mu.Lock()
	if o.running {
		o.mu.Unlock()
		return nil
	}
	pumpCtx, cancel := context.WithCancel(ctx)
	o.running = true
	o.cancel = cancel
	o.mu.Unlock()

	if o.source == nil {
		return nil
	}
	if err := o.source.Start(pumpCtx); err != nil {
		o.Stop()
		return err
	}

	events := o.source.Events()
	go func() {
		for {
			select {
			case <-pumpCtx.Done():
				return
			case raw := <-events:
				o.Submit(ctx, raw)
			}
		}
	}()

	o.logger.Debug("Scanning started")
	return nil
}

// Stop disables scanning. A play already in flight still completes.
func (o *Orchestrator) Stop() {
	o.mu.Lock()
	if !o.running {
		o.mu.Unlock()
		return
	}
	o.running = false
	cancel := o.cancel
	o.cancel = nil
	o.mu.Unlock()

	cancel()
	if o.source != nil {
		o.source.Stop()
	}
	o.logger.Debug("Scanning stopped")
}

// Running reports whether scanning is enabled.
func (o *Orchestrator) Running() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.running
}

// Submit offers a decoded code. It returns true if a play was started.
func (o *Orchestrator) Submit(ctx context.Context, raw string) bool {
	uri, err := ParseTrackURI(raw)
	if err != nil {
		o.logger.Infow("Ignoring unrecognized code", "code", raw)
		o.onInvalid(raw, err)
		return false
	}

	o.mu.Lock()
	now := o.now()
	switch {
	case !o.running:
		o.mu.Unlock()
		o.logger.Debugw("Dropping scan, scanning stopped", "uri", uri)
		return false
	case o.inFlight:
		o.mu.Unlock()
		o.logger.Debugw("Dropping scan, play in flight", "uri", uri)
		return false
	case !o.lastAccepted.IsZero() && now.Sub(o.lastAccepted) < o.cooldown:
		o.mu.Unlock()
		o.logger.Debugw("Dropping scan, cooling down", "uri", uri)
		return false
	}
	o.inFlight = true
	o.lastAccepted = now
	o.mu.Unlock()

	o.logger.Infow("Playing card", "uri", uri)
	o.wg.Add(1)
	go func() {
		defer o.wg.Done()
		defer func() {
			o.mu.Lock()
			o.inFlight = false
			o.mu.Unlock()
		}()
		if err := o.play(ctx, uri); err != nil {
			o.logger.Debugw("Play failed", "uri", uri, "error", err)
		}
	}()
	return true
}

// Wait blocks until every started play has finished.
func (o *Orchestrator) Wait() {
	o.wg.Wait()
}
