package scan

import (
	"bufio"
	"context"
	"io"
	"strings"
	"sync"

	"go.uber.org/zap"
)

// Source delivers decoded card text.
type Source interface {
	Start(ctx context.Context) error
	Stop()
	Events() <-chan string
}

const eventBuffer = 8

// LineSource reads newline-delimited codes from a reader, such as stdin
// fed by a keyboard-wedge scanner. The reader is consumed once; Stop and
// Start only gate whether lines are forwarded.
type LineSource struct {
	r      io.Reader
	logger *zap.SugaredLogger
	events chan string

	once   sync.Once
	mu     sync.Mutex
	active bool
}

// NewLineSource creates a source reading from r.
func NewLineSource(r io.Reader, logger *zap.SugaredLogger) *LineSource {
	return &LineSource{
		r:      r,
		logger: logger.Named("lines"),
		events: make(chan string, eventBuffer),
	}
}

// Start begins forwarding lines.
func (s *LineSource) Start(ctx context.Context) error {
	s.mu.Lock()
	s.active = true
	s.mu.Unlock()

	s.once.Do(func() { go s.readLoop() })
	return nil
}

// Stop stops forwarding lines.
func (s *LineSource) Stop() {
	s.mu.Lock()
	s.active = false
	s.mu.Unlock()
}

// Events returns the channel of decoded lines.
func (s *LineSource) Events() <-chan string {
	return s.events
}

func (s *LineSource) readLoop() {
	scanner := bufio.NewScanner(s.r)
	for scanner.Scan() {
		s.emit(scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		s.logger.Warnw("Failed to read scanner input", "error", err)
		return
	}
	s.logger.Debug("Scanner input closed")
}

func (s *LineSource) emit(line string) {
	line = strings.TrimSpace(line)
	if line == "" {
		return
	}

	s.mu.Lock()
	active := s.active
	s.mu.Unlock()
	if !active {
		return
	}

	select {
	case s.events <- line:
	default:
		s.logger.Debugw("Dropping scan, consumer busy", "line", line)
	}
}
