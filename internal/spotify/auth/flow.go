package auth

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/oauth2"
)

const callbackTimeout = 2 * time.Minute

var (
	// ErrStateMismatch is returned when the OAuth state parameter doesn't match.
	ErrStateMismatch = errors.New("OAuth state mismatch")

	// ErrMissingCode is returned when the redirect carries neither code nor error.
	ErrMissingCode = errors.New("authorization code missing from callback")
)

// Exchanger trades an authorization code for a token.
type Exchanger func(ctx context.Context, code string, pkce *PKCE) (*oauth2.Token, error)

// Refresher trades a refresh token for a fresh token.
type Refresher func(ctx context.Context, token *oauth2.Token) (*oauth2.Token, error)

type pendingLogin struct {
	pkce   *PKCE
	server *CallbackServer
	url    string
}

// Flow runs the PKCE authorization code flow and owns the stored token.
type Flow struct {
	cfg      *Config
	storage  *TokenStorage
	logger   *zap.SugaredLogger
	open     func(url string) error
	exchange Exchanger
	refresh  Refresher
	timeout  time.Duration

	mu      sync.Mutex
	pending *pendingLogin
}

// FlowOption configures a Flow.
type FlowOption func(*Flow)

// WithOpener sets how the authorization URL is shown to the user.
func WithOpener(open func(url string) error) FlowOption {
	return func(f *Flow) { f.open = open }
}

// WithExchanger replaces the token exchange.
func WithExchanger(e Exchanger) FlowOption {
	return func(f *Flow) { f.exchange = e }
}

// WithRefresher replaces the token refresh.
func WithRefresher(r Refresher) FlowOption {
	return func(f *Flow) { f.refresh = r }
}

// WithCallbackTimeout bounds how long ResolveCallback waits for the redirect.
func WithCallbackTimeout(d time.Duration) FlowOption {
	return func(f *Flow) { f.timeout = d }
}

// NewFlow creates a login flow for cfg storing tokens in storage.
func NewFlow(cfg *Config, storage *TokenStorage, logger *zap.SugaredLogger, opts ...FlowOption) *Flow {
	a := cfg.Authenticator()
	f := &Flow{
		cfg:     cfg,
		storage: storage,
		logger:  logger.Named("auth"),
		open:    func(string) error { return nil },
		exchange: func(ctx context.Context, code string, pkce *PKCE) (*oauth2.Token, error) {
			return a.Exchange(ctx, code, pkce.VerifierOption())
		},
		refresh: a.RefreshToken,
		timeout: callbackTimeout,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// InitiateLogin starts the callback server and sends the user to the
// authorization page.
func (f *Flow) InitiateLogin(ctx context.Context) error {
	if f.cfg.ClientID == "" {
		return errors.New("spotify client_id is not configured")
	}

	f.cancelPending()

	pkce, err := NewPKCE()
	if err != nil {
		return fmt.Errorf("failed to generate PKCE: %w", err)
	}

	addr, path, err := f.cfg.CallbackAddr()
	if err != nil {
		return err
	}
	server, err := NewCallbackServer(addr, path)
	if err != nil {
		return err
	}
	server.Start()

	authURL := f.cfg.AuthURL(pkce)
	f.mu.Lock()
	f.pending = &pendingLogin{pkce: pkce, server: server, url: authURL}
	f.mu.Unlock()

	f.logger.Infow("Waiting for Spotify sign-in", "callback", f.cfg.RedirectURI)
	if err := f.open(authURL); err != nil {
		f.logger.Warnw("Failed to open browser", "error", err, "url", authURL)
	}
	return nil
}

// AuthURL returns the authorization URL of the pending login, or "".
func (f *Flow) AuthURL() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.pending == nil {
		return ""
	}
	return f.pending.url
}

// ResolveCallback completes a pending login. It returns "" and nil when no
// login is pending.
func (f *Flow) ResolveCallback(ctx context.Context) (string, error) {
	f.mu.Lock()
	p := f.pending
	f.pending = nil
	f.mu.Unlock()

	if p == nil {
		return "", nil
	}
	defer shutdown(p.server)

	waitCtx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	result, err := p.server.Wait(waitCtx)
	if err != nil {
		return "", fmt.Errorf("waiting for Spotify sign-in: %w", err)
	}
	if result.Error != "" {
		return "", fmt.Errorf("spotify sign-in failed: %s", result.Error)
	}
	if result.State != p.pkce.State {
		return "", ErrStateMismatch
	}
	if result.Code == "" {
		return "", ErrMissingCode
	}

	token, err := f.exchange(ctx, result.Code, p.pkce)
	if err != nil {
		return "", fmt.Errorf("exchanging code for token: %w", err)
	}
	if err := f.storage.Save(token); err != nil {
		f.logger.Warnw("Failed to store token", "error", err)
	}
	f.logger.Info("Signed in to Spotify")
	return token.AccessToken, nil
}

// StoredToken returns the stored access token, refreshing it first when it
// has expired. A token that cannot be refreshed is returned as-is so the
// caller's liveness check rejects it.
func (f *Flow) StoredToken(ctx context.Context) string {
	token, err := f.storage.Load()
	if err != nil {
		f.logger.Warnw("Ignoring unreadable token file", "error", err)
		return ""
	}
	if token == nil {
		return ""
	}
	if Usable(token) || token.RefreshToken == "" {
		return token.AccessToken
	}

	fresh, err := f.refresh(ctx, token)
	if err != nil {
		f.logger.Debugw("Token refresh failed", "error", err)
		return token.AccessToken
	}
	if fresh.RefreshToken == "" {
		fresh.RefreshToken = token.RefreshToken
	}
	if err := f.storage.Save(fresh); err != nil {
		f.logger.Warnw("Failed to store refreshed token", "error", err)
	}
	return fresh.AccessToken
}

// ClearToken removes the stored token.
func (f *Flow) ClearToken() error {
	f.cancelPending()
	return f.storage.Delete()
}

func (f *Flow) cancelPending() {
	f.mu.Lock()
	p := f.pending
	f.pending = nil
	f.mu.Unlock()
	if p != nil {
		shutdown(p.server)
	}
}

func shutdown(s *CallbackServer) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = s.Shutdown(ctx)
}
