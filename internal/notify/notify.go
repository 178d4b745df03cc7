// Package notify delivers notices to the host.
package notify

import (
	"github.com/gen2brain/beeep"
	"go.uber.org/zap"

	"github.com/tessro/cuecard/internal/core"
)

// LogNotifier writes notices to the log.
type LogNotifier struct {
	logger *zap.SugaredLogger
}

// NewLogNotifier creates a notifier logging through logger.
func NewLogNotifier(logger *zap.SugaredLogger) *LogNotifier {
	return &LogNotifier{logger: logger.Named("notice")}
}

// Notify logs n at a level matching its kind.
func (l *LogNotifier) Notify(n core.Notice) {
	fields := []any{"kind", string(n.Kind), "message", n.Message}
	if n.Suggestion != "" {
		fields = append(fields, "suggestion", n.Suggestion)
	}
	switch n.Kind {
	case core.NoticeInfo:
		l.logger.Infow(n.Title, fields...)
	case core.NoticeInvalidCard, core.NoticeNoActiveDevice:
		l.logger.Warnw(n.Title, fields...)
	default:
		l.logger.Errorw(n.Title, fields...)
	}
}

// DesktopNotifier shows problems as desktop notifications. Informational
// notices are skipped.
type DesktopNotifier struct {
	logger *zap.SugaredLogger
	send   func(title, message string) error
}

// NewDesktopNotifier creates a desktop notifier.
func NewDesktopNotifier(logger *zap.SugaredLogger) *DesktopNotifier {
	logger = logger.Named("desktop")
	logger.Debug("Created desktop notifier instance")

	return &DesktopNotifier{
		logger: logger,
		send: func(title, message string) error {
			return beeep.Notify(title, message, "")
		},
	}
}

// Notify sends n as a desktop notification.
func (d *DesktopNotifier) Notify(n core.Notice) {
	if n.Kind == core.NoticeInfo {
		return
	}

	message := n.Message
	if n.Suggestion != "" {
		message += "\n" + n.Suggestion
	}
	if err := d.send("cuecard: "+n.Title, message); err != nil {
		d.logger.Warnw("Failed to send desktop notification", "error", err)
	}
}

// Multi fans a notice out to several notifiers.
type Multi []core.Notifier

// Notify delivers n to every notifier in order.
func (m Multi) Notify(n core.Notice) {
	for _, notifier := range m {
		if notifier != nil {
			notifier.Notify(n)
		}
	}
}

var (
	_ core.Notifier = (*LogNotifier)(nil)
	_ core.Notifier = (*DesktopNotifier)(nil)
	_ core.Notifier = Multi(nil)
)
