package core

import (
	"strings"
	"time"
)

// Track is the metadata resolved for a played card.
type Track struct {
	ID           string        `json:"id"`
	URI          string        `json:"uri"`
	Name         string        `json:"name"`
	Artists      []string      `json:"artists"`
	Album        string        `json:"album"`
	AlbumArtURL  string        `json:"album_art_url,omitempty"`
	ThumbnailURL string        `json:"thumbnail_url,omitempty"`
	Year         *int          `json:"year"`
	Duration     time.Duration `json:"duration"`
	PreviewURL   string        `json:"preview_url,omitempty"`
}

// ArtistLine joins the artist names for display.
func (t *Track) ArtistLine() string {
	if t == nil {
		return ""
	}
	return strings.Join(t.Artists, ", ")
}

// Profile is the authenticated user's profile.
type Profile struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
	Email       string `json:"email"`
	Product     string `json:"product"`
}
