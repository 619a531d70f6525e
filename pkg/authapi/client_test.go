package authapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/datacendia/datacendia-go/pkg/identity"
)

type staticTokens string

func (s staticTokens) AccessToken() (string, bool) { return string(s), s != "" }

func writeEnvelope(w http.ResponseWriter, status int, success bool, data any, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	env := map[string]any{"success": success}
	if data != nil {
		env["data"] = data
	}
	if message != "" {
		env["error"] = map[string]string{"message": message}
	}
	_ = json.NewEncoder(w).Encode(env)
}

func TestLoginSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/auth/login", r.URL.Path)

		var req map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Equal(t, "a@b.com", req["email"])
		require.Equal(t, "pw", req["password"])

		writeEnvelope(w, http.StatusOK, true, LoginResult{
			AccessToken:  "at",
			RefreshToken: "rt",
			ExpiresIn:    3600,
			User:         identity.User{ID: "u1", Email: "a@b.com", Role: identity.RoleAdmin},
		}, "")
	}))
	defer srv.Close()

	c := NewClient(srv.URL, nil)
	result, err := c.Login(context.Background(), "a@b.com", "pw")
	require.NoError(t, err)
	assert.Equal(t, "at", result.AccessToken)
	assert.Equal(t, int64(3600), result.ExpiresIn)
	assert.Equal(t, identity.RoleAdmin, result.User.Role)
}

func TestLoginInvalidCredentials(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeEnvelope(w, http.StatusUnauthorized, false, nil, "Invalid credentials")
	}))
	defer srv.Close()

	c := NewClient(srv.URL, nil)
	_, err := c.Login(context.Background(), "a@b.com", "wrong")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnauthenticated)
	assert.Contains(t, err.Error(), "Invalid credentials")
}

func TestEnvelopeFailureCarriesServerMessage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeEnvelope(w, http.StatusConflict, false, nil, "Email already registered")
	}))
	defer srv.Close()

	c := NewClient(srv.URL, nil)
	_, err := c.Register(context.Background(), RegisterRequest{Email: "a@b.com", Password: "pw", Name: "A"})
	require.Error(t, err)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "Email already registered", apiErr.Message)
	assert.Equal(t, http.StatusConflict, apiErr.StatusCode)
}

func TestCurrentUserSendsBearerToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "Bearer the-token", r.Header.Get("Authorization"))
		writeEnvelope(w, http.StatusOK, true, identity.User{ID: "u1", Role: identity.RoleViewer}, "")
	}))
	defer srv.Close()

	c := NewClient(srv.URL, staticTokens("the-token"))
	user, err := c.CurrentUser(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "u1", user.ID)
}

func TestCurrentUserUnauthenticated(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeEnvelope(w, http.StatusUnauthorized, false, nil, "Invalid token")
	}))
	defer srv.Close()

	c := NewClient(srv.URL, staticTokens(""))
	_, err := c.CurrentUser(context.Background())
	assert.ErrorIs(t, err, ErrUnauthenticated)
}

func TestRetryOn5xxThenSuccess(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			http.Error(w, "boom", http.StatusInternalServerError)
			return
		}
		writeEnvelope(w, http.StatusOK, true, identity.User{ID: "u1"}, "")
	}))
	defer srv.Close()

	c := NewClient(srv.URL, staticTokens("t"), WithRetryConfig(RetryConfig{
		MaxAttempts:  3,
		InitialDelay: time.Millisecond,
		MaxDelay:     2 * time.Millisecond,
	}))
	user, err := c.CurrentUser(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "u1", user.ID)
	assert.Equal(t, int32(3), calls.Load())
}

func TestNoRetryOn4xx(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		writeEnvelope(w, http.StatusBadRequest, false, nil, "bad request")
	}))
	defer srv.Close()

	c := NewClient(srv.URL, nil, WithRetryConfig(RetryConfig{
		MaxAttempts:  3,
		InitialDelay: time.Millisecond,
		MaxDelay:     2 * time.Millisecond,
	}))
	_, err := c.Login(context.Background(), "a@b.com", "pw")
	require.Error(t, err)
	assert.Equal(t, int32(1), calls.Load())
}

func TestRetryGivesUpAfterMaxAttempts(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, "boom", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, nil, WithRetryConfig(RetryConfig{
		MaxAttempts:  2,
		InitialDelay: time.Millisecond,
		MaxDelay:     2 * time.Millisecond,
	}))
	err := c.Logout(context.Background())
	require.Error(t, err)
	assert.Equal(t, int32(2), calls.Load())

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusServiceUnavailable, apiErr.StatusCode)
}

func TestTransportFailure(t *testing.T) {
	// Point at a closed server to force a connection error.
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	c := NewClient(srv.URL, nil, WithRetryConfig(RetryConfig{
		MaxAttempts:  2,
		InitialDelay: time.Millisecond,
		MaxDelay:     2 * time.Millisecond,
	}))
	_, err := c.Login(context.Background(), "a@b.com", "pw")
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrUnauthenticated))
}
