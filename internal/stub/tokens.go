package stub

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/datacendia/datacendia-go/pkg/identity"
)

// ErrTokenRejected is returned for expired, malformed, or revoked tokens.
var ErrTokenRejected = errors.New("stub: token rejected")

// sessionClaims are the custom claims carried by issued access tokens.
type sessionClaims struct {
	Email string `json:"email"`
	Role  string `json:"role"`
	OrgID string `json:"orgId"`
	jwt.RegisteredClaims
}

// TokenIssuer mints and validates HS256 access tokens. Logout revokes by
// token ID; the revocation set only grows for the lifetime of the process,
// which is acceptable for a development stub.
type TokenIssuer struct {
	secret []byte
	ttl    time.Duration

	mu      sync.Mutex
	revoked map[string]struct{}
}

// NewTokenIssuer creates an issuer signing with the given secret.
func NewTokenIssuer(secret string, ttl time.Duration) *TokenIssuer {
	return &TokenIssuer{
		secret:  []byte(secret),
		ttl:     ttl,
		revoked: make(map[string]struct{}),
	}
}

// TTL reports the configured token lifetime.
func (t *TokenIssuer) TTL() time.Duration {
	return t.ttl
}

// Issue mints an access/refresh token pair for the user.
func (t *TokenIssuer) Issue(user identity.User) (access, refresh string, err error) {
	now := time.Now()
	claims := sessionClaims{
		Email: user.Email,
		Role:  string(user.Role),
		OrgID: user.OrganizationID,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   user.ID,
			Issuer:    "datacendia-identity-stub",
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(t.ttl)),
		},
	}

	access, err = jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
	if err != nil {
		return "", "", fmt.Errorf("stub: sign access token: %w", err)
	}

	// The stub never honors refresh exchanges, so an opaque value suffices.
	refresh = uuid.NewString()
	return access, refresh, nil
}

// Validate parses the token and returns the subject (user ID). Revoked and
// expired tokens fail with ErrTokenRejected.
func (t *TokenIssuer) Validate(tokenString string) (string, error) {
	claims := &sessionClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return t.secret, nil
	})
	if err != nil || !token.Valid {
		return "", ErrTokenRejected
	}

	t.mu.Lock()
	_, revoked := t.revoked[claims.ID]
	t.mu.Unlock()
	if revoked {
		return "", ErrTokenRejected
	}
	return claims.Subject, nil
}

// Revoke invalidates the token for future Validate calls. Unparseable tokens
// are ignored; there is nothing to revoke.
func (t *TokenIssuer) Revoke(tokenString string) {
	claims := &sessionClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (any, error) {
		return t.secret, nil
	})
	if err != nil || !token.Valid || claims.ID == "" {
		return
	}

	t.mu.Lock()
	t.revoked[claims.ID] = struct{}{}
	t.mu.Unlock()
}
