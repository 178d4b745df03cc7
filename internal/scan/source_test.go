package scan

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/jacobsa/go-serial/serial"
	"go.uber.org/zap"
)

func receive(t *testing.T, ch <-chan string) string {
	t.Helper()
	select {
	case s := <-ch:
		return s
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for event")
		return ""
	}
}

func TestLineSource(t *testing.T) {
	pr, pw := io.Pipe()
	defer pw.Close()

	src := NewLineSource(pr, zap.NewNop().Sugar())
	if err := src.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	_, _ = io.WriteString(pw, "  first  \r\n\n")
	if got := receive(t, src.Events()); got != "first" {
		t.Errorf("event = %q, want first", got)
	}

	src.Stop()
	if err := src.Start(context.Background()); err != nil {
		t.Fatalf("restart error = %v", err)
	}
	_, _ = io.WriteString(pw, "second\n")
	if got := receive(t, src.Events()); got != "second" {
		t.Errorf("event = %q, want second", got)
	}
}

// pipePort is an in-memory serial port.
type pipePort struct {
	*io.PipeReader
	w *io.PipeWriter
}

func (p *pipePort) Write(b []byte) (int, error) { return len(b), nil }

func (p *pipePort) Close() error {
	_ = p.w.Close()
	return p.PipeReader.Close()
}

func TestSerialSource(t *testing.T) {
	pr, pw := io.Pipe()
	port := &pipePort{PipeReader: pr, w: pw}

	var gotOpts serial.OpenOptions
	src := NewSerialSource("/dev/ttyACM0", 9600, zap.NewNop().Sugar())
	src.open = func(opts serial.OpenOptions) (io.ReadWriteCloser, error) {
		gotOpts = opts
		return port, nil
	}

	if err := src.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if gotOpts.PortName != "/dev/ttyACM0" || gotOpts.BaudRate != 9600 || gotOpts.DataBits != 8 {
		t.Errorf("open options = %+v", gotOpts)
	}
	if err := src.Start(context.Background()); err == nil {
		t.Error("second Start() should fail while connected")
	}

	go func() { _, _ = io.WriteString(pw, "spotify:track:abc\r\n") }()
	if got := receive(t, src.Events()); got != "spotify:track:abc" {
		t.Errorf("event = %q", got)
	}

	src.Stop()
	src.Stop()
}

func TestSerialSourceOpenError(t *testing.T) {
	src := NewSerialSource("/dev/missing", 9600, zap.NewNop().Sugar())
	src.open = func(serial.OpenOptions) (io.ReadWriteCloser, error) {
		return nil, errors.New("no such device")
	}
	if err := src.Start(context.Background()); err == nil {
		t.Error("Start() should fail when the port cannot be opened")
	}
}
