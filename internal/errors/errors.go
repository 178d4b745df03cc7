package errors

import (
	"errors"
	"fmt"
	"strings"
)

// Error types for common failure scenarios.
var (
	ErrUnauthorized      = errors.New("unauthorized")
	ErrPremiumRequired   = errors.New("spotify premium required")
	ErrNoActiveDevice    = errors.New("no active device")
	ErrInvalidCard       = errors.New("unrecognized card code")
	ErrActionUnavailable = errors.New("action not available on this screen")
	ErrNoDeviceSelected  = errors.New("no device selected")
	ErrConfigNotFound    = errors.New("config file not found")
	ErrInvalidConfig     = errors.New("invalid configuration")
)

// GatewayError is a non-2xx response or transport failure from the
// remote playback service. Status is 0 for transport failures.
type GatewayError struct {
	Status  int
	Message string
	Err     error
}

func (e *GatewayError) Error() string {
	if e.Status == 0 {
		if e.Err != nil {
			return fmt.Sprintf("spotify request failed: %v", e.Err)
		}
		return "spotify request failed: " + e.Message
	}
	if e.Message == "" {
		return fmt.Sprintf("spotify API error (%d)", e.Status)
	}
	return fmt.Sprintf("spotify API error (%d): %s", e.Status, e.Message)
}

func (e *GatewayError) Unwrap() error {
	return e.Err
}

// Kind classifies an error for notification and recovery.
type Kind string

const (
	KindNone            Kind = ""
	KindUnauthorized    Kind = "unauthorized"
	KindPremiumRequired Kind = "premium_required"
	KindNoActiveDevice  Kind = "no_active_device"
	KindGateway         Kind = "gateway"
	KindInvalidCard     Kind = "invalid_card"
	KindOther           Kind = "error"
)

// KindOf returns the taxonomy kind of err.
func KindOf(err error) Kind {
	if err == nil {
		return KindNone
	}
	var gwErr *GatewayError
	switch {
	case errors.Is(err, ErrUnauthorized):
		return KindUnauthorized
	case errors.Is(err, ErrPremiumRequired):
		return KindPremiumRequired
	case errors.Is(err, ErrNoActiveDevice):
		return KindNoActiveDevice
	case errors.Is(err, ErrInvalidCard):
		return KindInvalidCard
	case errors.As(err, &gwErr):
		return KindGateway
	}
	return KindOther
}

// CuecardError wraps an error with a user-friendly suggestion.
type CuecardError struct {
	Err        error
	Suggestion string
}

func (e *CuecardError) Error() string {
	return e.Err.Error()
}

func (e *CuecardError) Unwrap() error {
	return e.Err
}

// WithSuggestion wraps an error with a helpful suggestion.
func WithSuggestion(err error, suggestion string) error {
	return &CuecardError{
		Err:        err,
		Suggestion: suggestion,
	}
}

// Suggestion returns guidance for the given error, or "".
func Suggestion(err error) string {
	if err == nil {
		return ""
	}

	var ce *CuecardError
	if errors.As(err, &ce) && ce.Suggestion != "" {
		return ce.Suggestion
	}

	switch KindOf(err) {
	case KindUnauthorized:
		return "Run 'cuecard auth login' to sign in to Spotify again"
	case KindPremiumRequired:
		return "Playback control requires Spotify Premium"
	case KindNoActiveDevice:
		return "Open Spotify on a device, then run 'cuecard devices' to pick it"
	case KindInvalidCard:
		return "Scan a cuecard code or a Spotify track link"
	case KindGateway:
		var gwErr *GatewayError
		errors.As(err, &gwErr)
		switch {
		case gwErr.Status == 0:
			return "Check your internet connection and try again"
		case gwErr.Status == 429:
			return "Too many requests. Wait a moment and try again"
		case gwErr.Status >= 500:
			return "Spotify is having issues. Try again in a moment"
		case gwErr.Status == 404:
			return "The device is no longer available. Run 'cuecard devices' to see what is online"
		}
	}

	switch {
	case errors.Is(err, ErrNoDeviceSelected):
		return "Pick a device first with 'cuecard devices select'"
	case errors.Is(err, ErrActionUnavailable):
		return ""
	case errors.Is(err, ErrConfigNotFound), errors.Is(err, ErrInvalidConfig):
		return "Run 'cuecard config init' to write a starter configuration"
	}

	if strings.Contains(strings.ToLower(err.Error()), "client_id") {
		return "Set spotify.client_id in your config or CUECARD_SPOTIFY_CLIENT_ID"
	}
	return ""
}

// Format returns a formatted error message with suggestion if available.
func Format(err error) string {
	if err == nil {
		return ""
	}

	suggestion := Suggestion(err)
	if suggestion != "" {
		return fmt.Sprintf("Error: %s\n\nSuggestion: %s", err.Error(), suggestion)
	}

	return fmt.Sprintf("Error: %s", err.Error())
}
