package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"path/filepath"
	"testing"
	"time"

	"go.uber.org/zap"
	"golang.org/x/oauth2"
)

func newTestFlow(t *testing.T, opts ...FlowOption) (*Flow, *TokenStorage) {
	t.Helper()
	storage, err := NewTokenStorage(filepath.Join(t.TempDir(), "token.json"))
	if err != nil {
		t.Fatal(err)
	}
	cfg := &Config{
		ClientID:    "client",
		RedirectURI: "http://127.0.0.1:0/callback",
		Scopes:      DefaultScopes,
	}
	return NewFlow(cfg, storage, zap.NewNop().Sugar(), opts...), storage
}

// redirectTo simulates the browser following the authorization redirect.
func redirectTo(t *testing.T, f *Flow, query string) func(string) error {
	return func(authURL string) error {
		f.mu.Lock()
		port := f.pending.server.Port()
		f.mu.Unlock()

		u, err := url.Parse(authURL)
		if err != nil {
			return err
		}
		q := fmt.Sprintf(query, url.QueryEscape(u.Query().Get("state")))
		go func() {
			resp, err := http.Get(fmt.Sprintf("http://127.0.0.1:%d/callback?%s", port, q))
			if err != nil {
				t.Errorf("callback request failed: %v", err)
				return
			}
			_ = resp.Body.Close()
		}()
		return nil
	}
}

func TestFlowResolveWithoutLogin(t *testing.T) {
	f, _ := newTestFlow(t)
	token, err := f.ResolveCallback(context.Background())
	if token != "" || err != nil {
		t.Errorf("ResolveCallback() = %q, %v; want empty, nil", token, err)
	}
}

func TestFlowLogin(t *testing.T) {
	var gotCode, gotVerifier string
	f, storage := newTestFlow(t, WithExchanger(func(_ context.Context, code string, pkce *PKCE) (*oauth2.Token, error) {
		gotCode, gotVerifier = code, pkce.Verifier
		return &oauth2.Token{AccessToken: "fresh", RefreshToken: "r"}, nil
	}))
	f.open = redirectTo(t, f, "code=abc&state=%s")

	ctx := context.Background()
	if err := f.InitiateLogin(ctx); err != nil {
		t.Fatalf("InitiateLogin() error = %v", err)
	}
	token, err := f.ResolveCallback(ctx)
	if err != nil {
		t.Fatalf("ResolveCallback() error = %v", err)
	}
	if token != "fresh" || gotCode != "abc" || gotVerifier == "" {
		t.Errorf("token = %q, code = %q, verifier = %q", token, gotCode, gotVerifier)
	}

	stored, _ := storage.Load()
	if stored == nil || stored.AccessToken != "fresh" {
		t.Errorf("stored = %+v", stored)
	}

	// The pending login is consumed.
	if token, _ := f.ResolveCallback(ctx); token != "" {
		t.Errorf("second ResolveCallback() = %q", token)
	}
}

func TestFlowLoginStateMismatch(t *testing.T) {
	f, _ := newTestFlow(t, WithExchanger(func(context.Context, string, *PKCE) (*oauth2.Token, error) {
		t.Error("exchange should not run on state mismatch")
		return nil, nil
	}))
	f.open = redirectTo(t, f, "code=abc&state=wrong%.0s")

	if err := f.InitiateLogin(context.Background()); err != nil {
		t.Fatalf("InitiateLogin() error = %v", err)
	}
	if _, err := f.ResolveCallback(context.Background()); !errors.Is(err, ErrStateMismatch) {
		t.Errorf("ResolveCallback() error = %v, want ErrStateMismatch", err)
	}
}

func TestFlowLoginDenied(t *testing.T) {
	f, _ := newTestFlow(t)
	f.open = redirectTo(t, f, "error=access_denied&state=%s")

	if err := f.InitiateLogin(context.Background()); err != nil {
		t.Fatalf("InitiateLogin() error = %v", err)
	}
	if _, err := f.ResolveCallback(context.Background()); err == nil {
		t.Error("ResolveCallback() should fail when access is denied")
	}
}

func TestFlowLoginTimeout(t *testing.T) {
	f, _ := newTestFlow(t, WithCallbackTimeout(50*time.Millisecond))
	if err := f.InitiateLogin(context.Background()); err != nil {
		t.Fatalf("InitiateLogin() error = %v", err)
	}
	if _, err := f.ResolveCallback(context.Background()); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("ResolveCallback() error = %v, want deadline exceeded", err)
	}
}

func TestFlowRequiresClientID(t *testing.T) {
	f, _ := newTestFlow(t)
	f.cfg.ClientID = ""
	if err := f.InitiateLogin(context.Background()); err == nil {
		t.Error("InitiateLogin() should fail without a client id")
	}
}

func TestFlowStoredToken(t *testing.T) {
	refreshed := 0
	f, storage := newTestFlow(t, WithRefresher(func(_ context.Context, tok *oauth2.Token) (*oauth2.Token, error) {
		refreshed++
		if tok.RefreshToken == "bad" {
			return nil, errors.New("invalid_grant")
		}
		return &oauth2.Token{AccessToken: "renewed", Expiry: time.Now().Add(time.Hour)}, nil
	}))
	ctx := context.Background()

	if got := f.StoredToken(ctx); got != "" {
		t.Errorf("StoredToken() with nothing stored = %q", got)
	}

	_ = storage.Save(&oauth2.Token{AccessToken: "valid", Expiry: time.Now().Add(time.Hour)})
	if got := f.StoredToken(ctx); got != "valid" || refreshed != 0 {
		t.Errorf("StoredToken() = %q, refreshed = %d", got, refreshed)
	}

	_ = storage.Save(&oauth2.Token{AccessToken: "old", RefreshToken: "r", Expiry: time.Now().Add(-time.Hour)})
	if got := f.StoredToken(ctx); got != "renewed" {
		t.Errorf("StoredToken() = %q, want renewed", got)
	}
	stored, _ := storage.Load()
	if stored.AccessToken != "renewed" || stored.RefreshToken != "r" {
		t.Errorf("stored after refresh = %+v", stored)
	}

	_ = storage.Save(&oauth2.Token{AccessToken: "stale", RefreshToken: "bad", Expiry: time.Now().Add(-time.Hour)})
	if got := f.StoredToken(ctx); got != "stale" {
		t.Errorf("StoredToken() = %q, want stale token passed through", got)
	}
}

func TestFlowClearToken(t *testing.T) {
	f, storage := newTestFlow(t)
	_ = storage.Save(&oauth2.Token{AccessToken: "x"})
	if err := f.ClearToken(); err != nil {
		t.Fatalf("ClearToken() error = %v", err)
	}
	if storage.Exists() {
		t.Error("token file should be removed")
	}
}
