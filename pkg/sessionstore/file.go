package sessionstore

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

const sessionFileName = "session.json"

// FileStore keeps the token pair in a JSON file under a namespace directory
// (default ~/.datacendia). Other processes sharing the directory observe
// changes through a filesystem watch, which stands in for the browser
// storage-event channel of the web client.
type FileStore struct {
	dir  string
	path string

	mu      sync.Mutex
	closed  bool
	watcher *fsnotify.Watcher
	done    chan struct{}

	events *broadcaster
}

// DefaultDir returns the default namespace directory for the current user.
func DefaultDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("sessionstore: resolve home dir: %w", err)
	}
	return filepath.Join(home, ".datacendia"), nil
}

// NewFileStore creates (if needed) the namespace directory, starts the
// filesystem watch and returns the store. Pass an empty dir to use DefaultDir.
func NewFileStore(dir string) (*FileStore, error) {
	if dir == "" {
		d, err := DefaultDir()
		if err != nil {
			return nil, err
		}
		dir = d
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("sessionstore: create dir %s: %w", dir, err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("sessionstore: start watcher: %w", err)
	}
	// Watch the directory, not the file: the file may not exist yet, and
	// atomic-rename writes replace the inode on every update.
	if err := watcher.Add(dir); err != nil {
		_ = watcher.Close()
		return nil, fmt.Errorf("sessionstore: watch %s: %w", dir, err)
	}

	s := &FileStore{
		dir:     dir,
		path:    filepath.Join(dir, sessionFileName),
		watcher: watcher,
		done:    make(chan struct{}),
		events:  newBroadcaster(),
	}
	authed := s.Authenticated()
	s.events.last = &authed

	go s.watchLoop()
	return s, nil
}

// Path returns the session file location.
func (s *FileStore) Path() string { return s.path }

func (s *FileStore) watchLoop() {
	for {
		select {
		case <-s.done:
			return
		case ev, ok := <-s.watcher.Events:
			if !ok {
				return
			}
			if filepath.Base(ev.Name) != sessionFileName {
				continue
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			s.events.emitChanged(s.Authenticated())
		case _, ok := <-s.watcher.Errors:
			if !ok {
				return
			}
			// Watch errors are not fatal for the store itself: reads stay
			// authoritative, only cross-process latency degrades.
		}
	}
}

func (s *FileStore) read() (TokenSet, bool) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return TokenSet{}, false
	}
	var ts TokenSet
	if err := json.Unmarshal(data, &ts); err != nil {
		return TokenSet{}, false
	}
	return ts, true
}

// Authenticated re-reads the session file on every call.
func (s *FileStore) Authenticated() bool {
	ts, ok := s.read()
	return ok && ts.Live(time.Now())
}

// AccessToken returns the stored access token if one is live.
func (s *FileStore) AccessToken() (string, bool) {
	ts, ok := s.read()
	if !ok || !ts.Live(time.Now()) {
		return "", false
	}
	return ts.AccessToken, true
}

// SetTokens persists the pair with an atomic rename and emits an
// authenticated=true change event.
func (s *FileStore) SetTokens(access, refresh string, expiresIn time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}

	ts := TokenSet{AccessToken: access, RefreshToken: refresh}
	if expiresIn > 0 {
		ts.ExpiresAt = time.Now().Add(expiresIn)
	}
	data, err := json.Marshal(ts)
	if err != nil {
		return fmt.Errorf("sessionstore: encode tokens: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("sessionstore: write tokens: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("sessionstore: persist tokens: %w", err)
	}

	s.events.emitChanged(true)
	return nil
}

// ClearTokens removes the session file and emits an authenticated=false change
// event. Clearing an already-clear store succeeds.
func (s *FileStore) ClearTokens() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}

	if err := os.Remove(s.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("sessionstore: clear tokens: %w", err)
	}
	s.events.emitChanged(false)
	return nil
}

// Subscribe registers a listener for auth-change events.
func (s *FileStore) Subscribe(fn func(bool)) (cancel func()) {
	return s.events.subscribe(fn)
}

// Close stops the filesystem watch. The session file is left in place.
func (s *FileStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	close(s.done)
	return s.watcher.Close()
}

var _ Store = (*FileStore)(nil)
