package scan

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/jacobsa/go-serial/serial"
	"go.uber.org/zap"
)

// SerialSource reads codes from a scanner in serial (virtual COM) mode.
type SerialSource struct {
	logger *zap.SugaredLogger
	events chan string
	open   func(serial.OpenOptions) (io.ReadWriteCloser, error)

	mu          sync.Mutex
	connOptions serial.OpenOptions
	conn        io.ReadWriteCloser
}

// NewSerialSource creates a source for the given port.
func NewSerialSource(port string, baudRate uint, logger *zap.SugaredLogger) *SerialSource {
	return &SerialSource{
		logger: logger.Named("serial"),
		events: make(chan string, eventBuffer),
		open:   serial.Open,
		connOptions: serial.OpenOptions{
			PortName:        port,
			BaudRate:        baudRate,
			DataBits:        8,
			StopBits:        1,
			MinimumReadSize: 1,
		},
	}
}

// Start opens the serial port and begins reading codes.
func (s *SerialSource) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.conn != nil {
		s.logger.Warn("Connection already active, cannot start a new one")
		return errors.New("serial: connection already active")
	}

	s.logger.Debugw("Opening serial connection",
		"port", s.connOptions.PortName,
		"baudRate", s.connOptions.BaudRate)

	conn, err := s.open(s.connOptions)
	if err != nil {
		s.logger.Warnw("Failed to open serial connection", "error", err)
		return fmt.Errorf("open serial connection: %w", err)
	}

	s.conn = conn
	s.logger.Infow("Serial connection established", "port", s.connOptions.PortName)

	go s.readLoop(conn)
	return nil
}

// Stop closes the serial connection if one is open.
func (s *SerialSource) Stop() {
	s.mu.Lock()
	conn := s.conn
	s.conn = nil
	s.mu.Unlock()

	if conn == nil {
		s.logger.Debug("No active connection to stop")
		return
	}
	if err := conn.Close(); err != nil {
		s.logger.Warnw("Error closing serial connection", "error", err)
	} else {
		s.logger.Debug("Serial connection closed")
	}
}

// Events returns the channel of decoded codes.
func (s *SerialSource) Events() <-chan string {
	return s.events
}

func (s *SerialSource) readLoop(conn io.ReadWriteCloser) {
	reader := bufio.NewReader(conn)

	for {
		line, err := reader.ReadString('\n')
		if line = strings.TrimSpace(line); line != "" {
			select {
			case s.events <- line:
			default:
				s.logger.Debugw("Dropping scan, consumer busy", "line", line)
			}
		}
		if err != nil {
			s.mu.Lock()
			current := s.conn == conn
			if current {
				s.conn = nil
			}
			s.mu.Unlock()

			// Reads fail after Stop closes the port; only report real failures.
			if current && !errors.Is(err, io.EOF) {
				s.logger.Warnw("Failed to read from serial", "error", err)
			}
			if current {
				_ = conn.Close()
			}
			return
		}
	}
}
