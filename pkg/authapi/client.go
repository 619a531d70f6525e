package authapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/datacendia/datacendia-go/pkg/identity"
)

// TokenProvider supplies the bearer token for authenticated requests. A
// sessionstore.Store satisfies it; the client itself never touches durable
// storage.
type TokenProvider interface {
	AccessToken() (string, bool)
}

// Option customizes a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithRetryConfig replaces the transient-failure retry policy.
func WithRetryConfig(cfg RetryConfig) Option {
	return func(c *Client) { c.retryCfg = cfg }
}

// Client provides access to the authentication API.
type Client struct {
	baseURL    string
	tokens     TokenProvider
	httpClient *http.Client
	retryCfg   RetryConfig
}

// NewClient creates an authentication API client rooted at baseURL
// (e.g. "https://api.datacendia.com"). tokens may be nil for clients that only
// call unauthenticated endpoints.
func NewClient(baseURL string, tokens TokenProvider, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		tokens:     tokens,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		retryCfg:   DefaultRetryConfig(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Login exchanges credentials for a token pair and the user snapshot.
func (c *Client) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	var result LoginResult
	err := c.call(ctx, http.MethodPost, "/auth/login", loginRequest{Email: email, Password: password}, false, &result)
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// Register creates an account and returns the same shape as Login.
func (c *Client) Register(ctx context.Context, req RegisterRequest) (*LoginResult, error) {
	var result LoginResult
	if err := c.call(ctx, http.MethodPost, "/auth/register", req, false, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// Logout revokes the current session server-side. Callers treat failures as
// best-effort.
func (c *Client) Logout(ctx context.Context) error {
	return c.call(ctx, http.MethodPost, "/auth/logout", nil, true, nil)
}

// CurrentUser fetches the authenticated principal.
func (c *Client) CurrentUser(ctx context.Context) (*identity.User, error) {
	var user identity.User
	if err := c.call(ctx, http.MethodGet, "/auth/me", nil, true, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// call performs one envelope request/response cycle. out may be nil when the
// data payload is irrelevant.
func (c *Client) call(ctx context.Context, method, path string, payload any, authed bool, out any) error {
	var body []byte
	if payload != nil {
		var err error
		body, err = json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("authapi: encode request: %w", err)
		}
	}

	build := func(ctx context.Context) (*http.Request, error) {
		var reader io.Reader
		if body != nil {
			reader = bytes.NewReader(body)
		}
		req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
		if err != nil {
			return nil, fmt.Errorf("authapi: build request: %w", err)
		}
		if body != nil {
			req.Header.Set("Content-Type", "application/json")
		}
		if authed && c.tokens != nil {
			if tok, ok := c.tokens.AccessToken(); ok {
				req.Header.Set("Authorization", "Bearer "+tok)
			}
		}
		return req, nil
	}

	resp, err := doWithRetry(ctx, c.httpClient, c.retryCfg, build)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	var env envelope
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&env); err != nil {
		if resp.StatusCode == http.StatusUnauthorized {
			return &APIError{Message: "unauthenticated", StatusCode: resp.StatusCode}
		}
		return fmt.Errorf("authapi: decode response (status %d): %w", resp.StatusCode, err)
	}

	if !env.Success {
		msg := "request failed"
		if env.Error != nil && env.Error.Message != "" {
			msg = env.Error.Message
		}
		return &APIError{Message: msg, StatusCode: resp.StatusCode}
	}

	if out != nil {
		if len(env.Data) == 0 {
			return fmt.Errorf("authapi: empty data in successful response (status %d)", resp.StatusCode)
		}
		if err := json.Unmarshal(env.Data, out); err != nil {
			return fmt.Errorf("authapi: decode data: %w", err)
		}
	}
	return nil
}
