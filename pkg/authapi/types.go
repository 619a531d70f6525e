// Package authapi is the REST client for the Datacendia authentication API.
//
// Purpose:
//
//	Typed access to POST /auth/login, POST /auth/register, POST /auth/logout
//	and GET /auth/me. Every response follows the platform envelope
//	{success, data?, error?}; transient transport failures are retried with
//	exponential backoff.
//
// Error Handling:
//   - Envelope success=false is returned as *APIError carrying the server
//     message verbatim.
//   - HTTP 401 and invalid-token responses wrap ErrUnauthenticated so callers
//     can distinguish a rejected session from an unreachable service.
package authapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/datacendia/datacendia-go/pkg/identity"
)

// ErrUnauthenticated marks responses that reject the current credentials or
// token, as opposed to transport failures.
var ErrUnauthenticated = errors.New("authapi: unauthenticated")

// APIError is a failure reported by the service through the response envelope.
// Message is the server-provided text, intended for direct display.
type APIError struct {
	Message    string
	StatusCode int
}

func (e *APIError) Error() string {
	return fmt.Sprintf("authapi: %s (status %d)", e.Message, e.StatusCode)
}

// Is makes 401 responses match ErrUnauthenticated under errors.Is while
// keeping the server message reachable through errors.As.
func (e *APIError) Is(target error) bool {
	return target == ErrUnauthenticated && e.StatusCode == http.StatusUnauthorized
}

// envelope is the uniform response wrapper used by every endpoint.
type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data,omitempty"`
	Error   *envelopeError  `json:"error,omitempty"`
}

type envelopeError struct {
	Message string `json:"message"`
}

// LoginResult is the payload of a successful credential exchange.
type LoginResult struct {
	AccessToken  string        `json:"accessToken"`
	RefreshToken string        `json:"refreshToken"`
	ExpiresIn    int64         `json:"expiresIn"` // seconds
	User         identity.User `json:"user"`
}

// RegisterRequest creates a new account. OrganizationName is optional; when
// set, a new organization is provisioned with the registrant as OWNER.
type RegisterRequest struct {
	Email            string `json:"email"`
	Password         string `json:"password"`
	Name             string `json:"name"`
	OrganizationName string `json:"organizationName,omitempty"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}
