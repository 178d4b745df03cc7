package auth

import (
	"fmt"
	"net/url"

	spotifyauth "github.com/zmb3/spotify/v2/auth"
	"golang.org/x/oauth2"
)

// DefaultRedirectURI is the default callback URI for the local server.
// Spotify requires the explicit IPv4 loopback for local development.
const DefaultRedirectURI = "http://127.0.0.1:8888/callback"

// DefaultScopes are the Spotify scopes cuecard needs to drive playback.
var DefaultScopes = []string{
	spotifyauth.ScopeUserReadPlaybackState,
	spotifyauth.ScopeUserModifyPlaybackState,
	spotifyauth.ScopeUserReadCurrentlyPlaying,
	spotifyauth.ScopeUserReadPrivate,
	spotifyauth.ScopeUserReadEmail,
	spotifyauth.ScopeStreaming,
}

// Config holds the OAuth configuration.
type Config struct {
	ClientID    string
	RedirectURI string
	Scopes      []string
}

// NewConfig creates a new OAuth configuration with defaults.
func NewConfig(clientID string) *Config {
	return &Config{
		ClientID:    clientID,
		RedirectURI: DefaultRedirectURI,
		Scopes:      DefaultScopes,
	}
}

// Authenticator returns the spotifyauth authenticator for c.
func (c *Config) Authenticator() *spotifyauth.Authenticator {
	return spotifyauth.New(
		spotifyauth.WithClientID(c.ClientID),
		spotifyauth.WithRedirectURL(c.RedirectURI),
		spotifyauth.WithScopes(c.Scopes...),
	)
}

// AuthURL builds the authorization URL carrying the PKCE challenge.
func (c *Config) AuthURL(pkce *PKCE) string {
	return c.Authenticator().AuthURL(pkce.State, pkce.ChallengeOption())
}

// CallbackAddr returns the host:port and path the callback server must
// serve for the configured redirect URI.
func (c *Config) CallbackAddr() (addr, path string, err error) {
	u, err := url.Parse(c.RedirectURI)
	if err != nil {
		return "", "", fmt.Errorf("invalid redirect URI %q: %w", c.RedirectURI, err)
	}
	if u.Scheme != "http" || u.Port() == "" {
		return "", "", fmt.Errorf("redirect URI %q must be http with an explicit port", c.RedirectURI)
	}
	path = u.Path
	if path == "" {
		path = "/"
	}
	return u.Host, path, nil
}

// Usable reports whether a stored token can be used without a refresh.
func Usable(token *oauth2.Token) bool {
	return token != nil && token.AccessToken != "" && token.Valid()
}
