// Package sessionstore persists the client-held token pair and broadcasts
// authentication changes to every interested context.
//
// Purpose:
//
//	Single source of truth for token presence/absence. A Store survives process
//	restarts and notifies subscribers when another process (or goroutine) on the
//	same store sets or clears the session, so a logout anywhere is observed
//	everywhere.
//
// Backends:
//   - FileStore: JSON file under a namespace directory, cross-process change
//     notification via fsnotify.
//   - RedisStore: namespaced Redis key, change fan-out over pub/sub.
//   - MemoryStore: in-process store for tests and embedded callers.
//
// Thread Safety:
//
//	All Store implementations are safe for concurrent use.
package sessionstore

import (
	"errors"
	"sync"
	"time"
)

// ErrClosed is returned by mutating operations on a closed store.
var ErrClosed = errors.New("sessionstore: store closed")

// TokenSet is the persisted access/refresh token pair. The format is opaque to
// callers; only the store reads or writes it.
type TokenSet struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	ExpiresAt    time.Time `json:"expires_at"`
}

// Live reports whether the set holds a non-expired access token.
func (t TokenSet) Live(now time.Time) bool {
	if t.AccessToken == "" {
		return false
	}
	if t.ExpiresAt.IsZero() {
		return true
	}
	return now.Before(t.ExpiresAt)
}

// Store is the durable session token store.
//
// Authenticated always re-reads the authoritative backing storage: a failed
// write must never leave the store reporting true.
type Store interface {
	// Authenticated reports whether a non-expired access token is stored.
	Authenticated() bool

	// AccessToken returns the stored access token if one is live.
	AccessToken() (string, bool)

	// SetTokens persists the pair and notifies subscribers that the session
	// became authenticated.
	SetTokens(access, refresh string, expiresIn time.Duration) error

	// ClearTokens removes all tokens and notifies subscribers, including other
	// processes sharing the backing storage.
	ClearTokens() error

	// Subscribe registers a listener for authentication-change events. The
	// returned cancel func removes the listener and is safe to call more than
	// once. Multiple concurrent subscribers are supported.
	Subscribe(fn func(authenticated bool)) (cancel func())

	// Close releases watchers and connections held by the store.
	Close() error
}

// broadcaster is a registry of auth-change callbacks, decoupled from whatever
// primitive delivers the underlying signal so the core logic is testable
// without a real multi-process environment.
type broadcaster struct {
	mu   sync.Mutex
	next int
	subs map[int]func(bool)

	// last observed authenticated state; events that do not change it are
	// suppressed so storage-level noise never reaches subscribers.
	last *bool
}

func newBroadcaster() *broadcaster {
	return &broadcaster{subs: make(map[int]func(bool))}
}

func (b *broadcaster) subscribe(fn func(bool)) func() {
	b.mu.Lock()
	id := b.next
	b.next++
	b.subs[id] = fn
	b.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.subs, id)
			b.mu.Unlock()
		})
	}
}

// emitChanged notifies subscribers iff authenticated differs from the last
// delivered value. Callbacks run outside the registry lock.
func (b *broadcaster) emitChanged(authenticated bool) {
	b.mu.Lock()
	if b.last != nil && *b.last == authenticated {
		b.mu.Unlock()
		return
	}
	v := authenticated
	b.last = &v
	fns := make([]func(bool), 0, len(b.subs))
	for _, fn := range b.subs {
		fns = append(fns, fn)
	}
	b.mu.Unlock()

	for _, fn := range fns {
		fn(authenticated)
	}
}

func (b *broadcaster) count() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs)
}
