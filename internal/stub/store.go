// Package stub implements the development identity service used by dcauth
// when no real platform backend is available. It serves the same envelope
// contract over /auth/login, /auth/register, /auth/logout and /auth/me,
// backed by an in-memory user store.
package stub

import (
	"errors"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/datacendia/datacendia-go/internal/security"
	"github.com/datacendia/datacendia-go/pkg/identity"
)

var (
	// ErrEmailTaken is returned when registering an address that already
	// has an account.
	ErrEmailTaken = errors.New("stub: email already registered")

	// ErrInvalidCredentials is returned for unknown addresses and wrong
	// passwords alike; the two cases are deliberately indistinguishable.
	ErrInvalidCredentials = errors.New("stub: invalid credentials")

	// ErrUserNotFound is returned when a token references a deleted user.
	ErrUserNotFound = errors.New("stub: user not found")
)

type account struct {
	user         identity.User
	passwordHash string
}

// UserStore is an in-memory account registry keyed by lowercased email.
// Safe for concurrent use.
type UserStore struct {
	mu      sync.RWMutex
	byEmail map[string]*account
	byID    map[string]*account
}

// NewUserStore returns an empty store.
func NewUserStore() *UserStore {
	return &UserStore{
		byEmail: make(map[string]*account),
		byID:    make(map[string]*account),
	}
}

// Seed provisions the built-in demo accounts, one per role. Passwords follow
// the pattern "<role>-demo-password" lowercased.
func (s *UserStore) Seed() error {
	demo := []struct {
		email string
		name  string
		role  identity.Role
	}{
		{"owner@datacendia.dev", "Demo Owner", identity.RoleOwner},
		{"admin@datacendia.dev", "Demo Admin", identity.RoleAdmin},
		{"analyst@datacendia.dev", "Demo Analyst", identity.RoleAnalyst},
		{"viewer@datacendia.dev", "Demo Viewer", identity.RoleViewer},
	}
	orgID := uuid.NewString()
	for _, d := range demo {
		password := strings.ToLower(string(d.role)) + "-demo-password"
		if _, err := s.createWithOrg(d.email, password, d.name, d.role, orgID); err != nil {
			return err
		}
	}
	return nil
}

// Create registers a new account. The registrant becomes OWNER of a freshly
// provisioned organization.
func (s *UserStore) Create(email, password, name string) (identity.User, error) {
	return s.createWithOrg(email, password, name, identity.RoleOwner, uuid.NewString())
}

func (s *UserStore) createWithOrg(email, password, name string, role identity.Role, orgID string) (identity.User, error) {
	hash, err := security.HashPassword(password)
	if err != nil {
		return identity.User{}, err
	}

	key := strings.ToLower(email)

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.byEmail[key]; exists {
		return identity.User{}, ErrEmailTaken
	}

	acct := &account{
		user: identity.User{
			ID:             uuid.NewString(),
			Email:          email,
			Name:           name,
			Role:           role,
			OrganizationID: orgID,
			Status:         "active",
		},
		passwordHash: hash,
	}
	s.byEmail[key] = acct
	s.byID[acct.user.ID] = acct
	return acct.user, nil
}

// Authenticate verifies the credentials and returns the matching user.
func (s *UserStore) Authenticate(email, password string) (identity.User, error) {
	s.mu.RLock()
	acct, ok := s.byEmail[strings.ToLower(email)]
	s.mu.RUnlock()
	if !ok {
		return identity.User{}, ErrInvalidCredentials
	}

	match, err := security.VerifyPassword(password, acct.passwordHash)
	if err != nil || !match {
		return identity.User{}, ErrInvalidCredentials
	}
	return acct.user, nil
}

// GetByID resolves a user from a token subject.
func (s *UserStore) GetByID(id string) (identity.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	acct, ok := s.byID[id]
	if !ok {
		return identity.User{}, ErrUserNotFound
	}
	return acct.user, nil
}

// Count reports the number of registered accounts.
func (s *UserStore) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.byID)
}
