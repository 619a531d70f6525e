package sessionstore

import (
	"sync"
	"time"
)

// MemoryStore is an in-process Store for tests and embedded callers. It offers
// Simulate* helpers that mimic another context (a second process or tab)
// mutating the shared storage.
type MemoryStore struct {
	mu     sync.Mutex
	tokens TokenSet
	closed bool

	events *broadcaster
}

// NewMemoryStore returns an empty in-process store.
func NewMemoryStore() *MemoryStore {
	s := &MemoryStore{events: newBroadcaster()}
	authed := false
	s.events.last = &authed
	return s
}

func (s *MemoryStore) snapshot() TokenSet {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tokens
}

// Authenticated reports whether a non-expired access token is held.
func (s *MemoryStore) Authenticated() bool {
	return s.snapshot().Live(time.Now())
}

// AccessToken returns the held access token if live.
func (s *MemoryStore) AccessToken() (string, bool) {
	ts := s.snapshot()
	if !ts.Live(time.Now()) {
		return "", false
	}
	return ts.AccessToken, true
}

// SetTokens stores the pair and emits an authenticated=true event.
func (s *MemoryStore) SetTokens(access, refresh string, expiresIn time.Duration) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrClosed
	}
	s.tokens = TokenSet{AccessToken: access, RefreshToken: refresh}
	if expiresIn > 0 {
		s.tokens.ExpiresAt = time.Now().Add(expiresIn)
	}
	s.mu.Unlock()

	s.events.emitChanged(true)
	return nil
}

// ClearTokens drops the pair and emits an authenticated=false event.
func (s *MemoryStore) ClearTokens() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrClosed
	}
	s.tokens = TokenSet{}
	s.mu.Unlock()

	s.events.emitChanged(false)
	return nil
}

// Subscribe registers a listener for auth-change events.
func (s *MemoryStore) Subscribe(fn func(bool)) (cancel func()) {
	return s.events.subscribe(fn)
}

// Close marks the store closed. Reads keep working so late observers see the
// final state.
func (s *MemoryStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

// SimulateExternalClear behaves like another context clearing the shared
// storage: tokens vanish and subscribers are notified.
func (s *MemoryStore) SimulateExternalClear() {
	s.mu.Lock()
	s.tokens = TokenSet{}
	s.mu.Unlock()
	s.events.emitChanged(false)
}

// SimulateExternalSet behaves like another context establishing a session.
func (s *MemoryStore) SimulateExternalSet(access, refresh string, expiresIn time.Duration) {
	s.mu.Lock()
	s.tokens = TokenSet{AccessToken: access, RefreshToken: refresh}
	if expiresIn > 0 {
		s.tokens.ExpiresAt = time.Now().Add(expiresIn)
	}
	s.mu.Unlock()
	s.events.emitChanged(true)
}

// SubscriberCount reports the number of live subscriptions (test helper).
func (s *MemoryStore) SubscriberCount() int { return s.events.count() }

var _ Store = (*MemoryStore)(nil)
