package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/oauth2"
)

// BaseURL is the Spotify Web API base URL.
const BaseURL = "https://api.spotify.com/v1"

// Client is a Spotify Web API client. It never refreshes tokens and never
// retries: every failure is returned to the caller as-is.
type Client struct {
	baseURL   string
	transport http.RoundTripper
	timeout   time.Duration
	logger    *zap.SugaredLogger

	mu         sync.RWMutex
	token      string
	httpClient *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL points the client at a different API root.
func WithBaseURL(base string) Option {
	return func(c *Client) { c.baseURL = base }
}

// WithTransport sets the underlying round tripper the bearer transport wraps.
func WithTransport(rt http.RoundTripper) Option {
	return func(c *Client) { c.transport = rt }
}

// WithLogger sets the logger used for request tracing.
func WithLogger(logger *zap.SugaredLogger) Option {
	return func(c *Client) { c.logger = logger.Named("spotify") }
}

// New creates a new Spotify client with no token installed.
func New(opts ...Option) *Client {
	c := &Client{
		baseURL:   BaseURL,
		transport: http.DefaultTransport,
		timeout:   30 * time.Second,
		logger:    zap.NewNop().Sugar(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.httpClient = c.newHTTPClient("")
	return c
}

func (c *Client) newHTTPClient(token string) *http.Client {
	return &http.Client{
		Timeout: c.timeout,
		Transport: &oauth2.Transport{
			Source: oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token, TokenType: "Bearer"}),
			Base:   c.transport,
		},
	}
}

// SetToken installs the bearer token used for every subsequent request.
func (c *Client) SetToken(token string) {
	hc := c.newHTTPClient(token)
	c.mu.Lock()
	c.token = token
	c.httpClient = hc
	c.mu.Unlock()
}

// HasToken returns true if a bearer token is installed.
func (c *Client) HasToken() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token != ""
}

// Get performs a GET request to the Spotify API.
func (c *Client) Get(ctx context.Context, path string, result any) error {
	_, err := c.Do(ctx, http.MethodGet, path, nil, result)
	return err
}

// Put performs a PUT request to the Spotify API.
func (c *Client) Put(ctx context.Context, path string, body any, result any) error {
	_, err := c.Do(ctx, http.MethodPut, path, body, result)
	return err
}

// Do performs a request and returns the response status. A status of 400 or
// above is returned as *APIError. Transport failures are returned wrapped
// with a zero status.
func (c *Client) Do(ctx context.Context, method, path string, body any, result any) (int, error) {
	c.mu.RLock()
	token, hc := c.token, c.httpClient
	c.mu.RUnlock()

	if token == "" {
		return 0, ErrNoToken
	}

	var bodyReader io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return 0, fmt.Errorf("failed to marshal request body: %w", err)
		}
		bodyReader = bytes.NewReader(jsonBody)
		c.logger.Debugw("Request", "method", method, "path", path, "body", string(jsonBody))
	} else {
		c.logger.Debugw("Request", "method", method, "path", path)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return 0, fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := hc.Do(req)
	if err != nil {
		c.logger.Debugw("Network error", "error", err)
		return 0, &TransportError{Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, &TransportError{Err: fmt.Errorf("failed to read response: %w", err)}
	}

	c.logger.Debugw("Response", "status", resp.StatusCode)

	if resp.StatusCode >= 400 {
		c.logger.Debugw("Error body", "body", string(respBody))
		return resp.StatusCode, newAPIError(resp.StatusCode, respBody)
	}

	if resp.StatusCode == http.StatusNoContent {
		return resp.StatusCode, nil
	}

	if result != nil && len(respBody) > 0 {
		if err := json.Unmarshal(respBody, result); err != nil {
			return resp.StatusCode, fmt.Errorf("failed to parse response: %w", err)
		}
	}

	return resp.StatusCode, nil
}

// ErrNoToken is returned when a request is attempted without a token.
var ErrNoToken = fmt.Errorf("no access token installed")

// TransportError wraps a failure to reach the API at all.
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("request failed: %v", e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// APIError represents a Spotify API error response.
type APIError struct {
	Status  int
	Message string
}

func newAPIError(status int, body []byte) *APIError {
	var payload struct {
		Error struct {
			Status  int    `json:"status"`
			Message string `json:"message"`
		} `json:"error"`
	}
	apiErr := &APIError{Status: status}
	if err := json.Unmarshal(body, &payload); err == nil {
		apiErr.Message = payload.Error.Message
	}
	if apiErr.Message == "" {
		apiErr.Message = http.StatusText(status)
	}
	return apiErr
}

func (e *APIError) Error() string {
	return fmt.Sprintf("Spotify API error %d: %s", e.Status, e.Message)
}

// BuildURL builds a URL with query parameters.
func BuildURL(path string, params map[string]string) string {
	if len(params) == 0 {
		return path
	}

	u, _ := url.Parse(path)
	q := u.Query()
	for k, v := range params {
		q.Set(k, v)
	}
	u.RawQuery = q.Encode()
	return u.String()
}
