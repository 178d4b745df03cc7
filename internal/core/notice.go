package core

// NoticeKind classifies a user-visible notification.
type NoticeKind string

const (
	NoticeInfo            NoticeKind = "info"
	NoticeUnauthorized    NoticeKind = "unauthorized"
	NoticePremiumRequired NoticeKind = "premium_required"
	NoticeNoActiveDevice  NoticeKind = "no_active_device"
	NoticeGateway         NoticeKind = "gateway"
	NoticeInvalidCard     NoticeKind = "invalid_card"
	NoticeError           NoticeKind = "error"
)

// Notice is a message surfaced to the host.
type Notice struct {
	Kind       NoticeKind `json:"kind"`
	Title      string     `json:"title"`
	Message    string     `json:"message"`
	Suggestion string     `json:"suggestion,omitempty"`
}

// Notifier delivers notices to the host.
type Notifier interface {
	Notify(n Notice)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(Notice)

// Notify calls f(n).
func (f NotifierFunc) Notify(n Notice) { f(n) }
