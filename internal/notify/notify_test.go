package notify

import (
	"errors"
	"strings"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/tessro/cuecard/internal/core"
)

func TestLogNotifierLevels(t *testing.T) {
	tests := []struct {
		kind  core.NoticeKind
		level zapcore.Level
	}{
		{core.NoticeInfo, zapcore.InfoLevel},
		{core.NoticeInvalidCard, zapcore.WarnLevel},
		{core.NoticeNoActiveDevice, zapcore.WarnLevel},
		{core.NoticePremiumRequired, zapcore.ErrorLevel},
		{core.NoticeGateway, zapcore.ErrorLevel},
	}

	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			obsCore, logs := observer.New(zapcore.DebugLevel)
			n := NewLogNotifier(zap.New(obsCore).Sugar())
			n.Notify(noticeOf(tt.kind))

			entries := logs.All()
			if len(entries) != 1 {
				t.Fatalf("entries = %d, want 1", len(entries))
			}
			if entries[0].Level != tt.level {
				t.Errorf("level = %v, want %v", entries[0].Level, tt.level)
			}
			if entries[0].LoggerName != "notice" {
				t.Errorf("logger = %q", entries[0].LoggerName)
			}
		})
	}
}

func noticeOf(kind core.NoticeKind) core.Notice {
	return core.Notice{Kind: kind, Title: "Title", Message: "message", Suggestion: "try again"}
}

func TestDesktopNotifier(t *testing.T) {
	var titles, messages []string
	d := NewDesktopNotifier(zap.NewNop().Sugar())
	d.send = func(title, message string) error {
		titles = append(titles, title)
		messages = append(messages, message)
		return nil
	}

	d.Notify(core.Notice{Kind: core.NoticeInfo, Title: "Now playing"})
	d.Notify(core.Notice{Kind: core.NoticeNoActiveDevice, Title: "No device", Message: "Nothing to play on", Suggestion: "Open Spotify"})

	if len(titles) != 1 {
		t.Fatalf("sent %d notifications, want 1", len(titles))
	}
	if titles[0] != "cuecard: No device" {
		t.Errorf("title = %q", titles[0])
	}
	if !strings.Contains(messages[0], "Open Spotify") {
		t.Errorf("message = %q", messages[0])
	}
}

func TestDesktopNotifierSendFailure(t *testing.T) {
	d := NewDesktopNotifier(zap.NewNop().Sugar())
	d.send = func(string, string) error { return errors.New("no dbus") }
	// Must not panic or propagate.
	d.Notify(core.Notice{Kind: core.NoticeGateway, Title: "x"})
}

type captured struct{ notices []core.Notice }

func (c *captured) Notify(n core.Notice) { c.notices = append(c.notices, n) }

func TestMulti(t *testing.T) {
	a, b := &captured{}, &captured{}
	m := Multi{a, nil, b}
	m.Notify(core.Notice{Title: "hello"})

	if len(a.notices) != 1 || len(b.notices) != 1 {
		t.Errorf("a = %d, b = %d notices", len(a.notices), len(b.notices))
	}
}
