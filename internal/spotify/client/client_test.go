package client

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestBuildURL(t *testing.T) {
	tests := []struct {
		name   string
		path   string
		params map[string]string
		want   string
	}{
		{"no params", "/me", nil, "/me"},
		{"empty params", "/me", map[string]string{}, "/me"},
		{"single param", "/me/player/play", map[string]string{"device_id": "abc"}, "/me/player/play?device_id=abc"},
		{"sorted params", "/me/player/volume", map[string]string{"volume_percent": "40", "device_id": "d1"}, "/me/player/volume?device_id=d1&volume_percent=40"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := BuildURL(tt.path, tt.params); got != tt.want {
				t.Errorf("BuildURL() = %q, want %q", got, tt.want)
			}
		})
	}
}

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	c := New(WithBaseURL(srv.URL))
	c.SetToken("test-token")
	return c
}

func TestRequestCarriesBearerToken(t *testing.T) {
	var gotAuth string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		_, _ = w.Write([]byte(`{"id":"u1","display_name":"Host","product":"premium"}`))
	})

	user, err := c.GetCurrentUser(context.Background())
	if err != nil {
		t.Fatalf("GetCurrentUser() error = %v", err)
	}
	if gotAuth != "Bearer test-token" {
		t.Errorf("Authorization = %q", gotAuth)
	}
	if user.DisplayName != "Host" || user.Product != "premium" {
		t.Errorf("user = %+v", user)
	}
}

func TestRequestWithoutToken(t *testing.T) {
	c := New(WithBaseURL("http://127.0.0.1:0"))
	if c.HasToken() {
		t.Fatal("new client should have no token")
	}
	if err := c.Get(context.Background(), "/me", nil); !errors.Is(err, ErrNoToken) {
		t.Errorf("error = %v, want ErrNoToken", err)
	}
}

func TestAPIErrorParsing(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		message string
	}{
		{"spotify error body", 401, `{"error":{"status":401,"message":"The access token expired"}}`, "The access token expired"},
		{"plain body", 502, `upstream down`, "Bad Gateway"},
		{"empty body", 404, ``, "Not Found"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = io.WriteString(w, tt.body)
			})
			_, err := c.GetDevices(context.Background())
			var apiErr *APIError
			if !errors.As(err, &apiErr) {
				t.Fatalf("error = %v, want *APIError", err)
			}
			if apiErr.Status != tt.status || apiErr.Message != tt.message {
				t.Errorf("APIError = %+v", apiErr)
			}
		})
	}
}

func TestNoRetryOnServerError(t *testing.T) {
	calls := 0
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusServiceUnavailable)
	})
	if err := c.Pause(context.Background(), ""); err == nil {
		t.Fatal("expected error")
	}
	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
}

func TestGetPlaybackStateNoContent(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	state, err := c.GetPlaybackState(context.Background())
	if err != nil {
		t.Fatalf("GetPlaybackState() error = %v", err)
	}
	if state != nil {
		t.Errorf("state = %+v, want nil", state)
	}
}

func TestPlaySendsURIs(t *testing.T) {
	var gotPath, gotQuery string
	var gotBody PlayOptions
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath, gotQuery = r.URL.Path, r.URL.RawQuery
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		w.WriteHeader(http.StatusNoContent)
	})

	err := c.Play(context.Background(), "dev1", &PlayOptions{URIs: []string{"spotify:track:abc"}})
	if err != nil {
		t.Fatalf("Play() error = %v", err)
	}
	if gotPath != "/me/player/play" || gotQuery != "device_id=dev1" {
		t.Errorf("request = %s?%s", gotPath, gotQuery)
	}
	if len(gotBody.URIs) != 1 || gotBody.URIs[0] != "spotify:track:abc" {
		t.Errorf("body = %+v", gotBody)
	}
}

func TestTransferPlaybackBody(t *testing.T) {
	var raw string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		raw = string(b)
		w.WriteHeader(http.StatusNoContent)
	})
	if err := c.TransferPlayback(context.Background(), "dev9", false); err != nil {
		t.Fatalf("TransferPlayback() error = %v", err)
	}
	if !strings.Contains(raw, `"device_ids":["dev9"]`) || !strings.Contains(raw, `"play":false`) {
		t.Errorf("body = %s", raw)
	}
}

func TestTransportError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c := New(WithBaseURL(url))
	c.SetToken("tok")
	err := c.Get(context.Background(), "/me", nil)
	var te *TransportError
	if !errors.As(err, &te) {
		t.Errorf("error = %v, want *TransportError", err)
	}
}
