package scan

import (
	"fmt"
	"regexp"
	"strings"

	apperrors "github.com/tessro/cuecard/internal/errors"
)

var (
	uriPattern   = regexp.MustCompile(`^spotify:track:([A-Za-z0-9]+)$`)
	urlPattern   = regexp.MustCompile(`^(?:https?://)?open\.spotify\.com/(?:[A-Za-z-]+/)?track/([A-Za-z0-9]+)(?:[/?#].*)?$`)
	barePattern  = regexp.MustCompile(`^[A-Za-z0-9]{22}$`)
	trackURIBase = "spotify:track:"
)

// ParseTrackURI turns decoded card text into a canonical spotify:track URI.
// It accepts track URIs, open.spotify.com track links (with or without a
// locale segment and query string) and bare 22-character track ids.
func ParseTrackURI(raw string) (string, error) {
	s := strings.TrimSpace(raw)

	if m := uriPattern.FindStringSubmatch(s); m != nil {
		return trackURIBase + m[1], nil
	}
	if m := urlPattern.FindStringSubmatch(s); m != nil {
		return trackURIBase + m[1], nil
	}
	if barePattern.MatchString(s) {
		return trackURIBase + s, nil
	}
	return "", fmt.Errorf("%w: %q", apperrors.ErrInvalidCard, truncate(s, 64))
}

// truncate shortens s to n runes.
func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "…"
}
