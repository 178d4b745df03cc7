package tui

import "github.com/tessro/cuecard/internal/core"

// NoticeFeed is a core.Notifier that hands notices to the TUI. When the
// TUI falls behind, the oldest pending notice is dropped.
type NoticeFeed struct {
	ch chan core.Notice
}

// NewNoticeFeed creates a feed buffering up to size notices.
func NewNoticeFeed(size int) *NoticeFeed {
	return &NoticeFeed{ch: make(chan core.Notice, max(1, size))}
}

// Notify queues n without blocking.
func (f *NoticeFeed) Notify(n core.Notice) {
	for {
		select {
		case f.ch <- n:
			return
		default:
		}
		select {
		case <-f.ch:
		default:
		}
	}
}

// C returns the receive side of the feed.
func (f *NoticeFeed) C() <-chan core.Notice {
	return f.ch
}
