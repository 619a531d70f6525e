package sessionstore

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestFileStore(t *testing.T) (*FileStore, string) {
	t.Helper()
	dir := t.TempDir()
	s, err := NewFileStore(dir)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s, dir
}

func TestFileStoreRoundTrip(t *testing.T) {
	s, dir := newTestFileStore(t)

	assert.False(t, s.Authenticated())

	require.NoError(t, s.SetTokens("access", "refresh", time.Hour))
	assert.True(t, s.Authenticated())

	tok, ok := s.AccessToken()
	require.True(t, ok)
	assert.Equal(t, "access", tok)

	// Tokens survive a new store instance over the same directory.
	s2, err := NewFileStore(dir)
	require.NoError(t, err)
	defer s2.Close()
	assert.True(t, s2.Authenticated())

	require.NoError(t, s.ClearTokens())
	assert.False(t, s.Authenticated())
	_, err = os.Stat(s.Path())
	assert.True(t, os.IsNotExist(err))
}

func TestFileStoreFilePermissions(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("unix permission bits")
	}
	s, _ := newTestFileStore(t)
	require.NoError(t, s.SetTokens("access", "refresh", time.Hour))

	info, err := os.Stat(s.Path())
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}

func TestFileStoreExpiredTokenNotAuthenticated(t *testing.T) {
	s, _ := newTestFileStore(t)
	require.NoError(t, s.SetTokens("access", "refresh", -time.Minute))
	assert.False(t, s.Authenticated())
}

func TestFileStoreCorruptFileTreatedAsUnauthenticated(t *testing.T) {
	s, dir := newTestFileStore(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, sessionFileName), []byte("{not json"), 0o600))
	assert.False(t, s.Authenticated())
	_, ok := s.AccessToken()
	assert.False(t, ok)
}

func TestFileStoreObservesForeignClear(t *testing.T) {
	s, dir := newTestFileStore(t)
	require.NoError(t, s.SetTokens("access", "refresh", time.Hour))

	// Second store over the same directory, mirroring another process.
	other, err := NewFileStore(dir)
	require.NoError(t, err)
	defer other.Close()

	events := make(chan bool, 4)
	cancel := s.Subscribe(func(v bool) { events <- v })
	defer cancel()

	require.NoError(t, other.ClearTokens())

	select {
	case v := <-events:
		assert.False(t, v)
	case <-time.After(3 * time.Second):
		t.Fatal("no change event observed after foreign clear")
	}
	assert.False(t, s.Authenticated())
}

func TestFileStoreObservesForeignLogin(t *testing.T) {
	s, dir := newTestFileStore(t)

	other, err := NewFileStore(dir)
	require.NoError(t, err)
	defer other.Close()

	events := make(chan bool, 4)
	cancel := s.Subscribe(func(v bool) { events <- v })
	defer cancel()

	require.NoError(t, other.SetTokens("access", "refresh", time.Hour))

	select {
	case v := <-events:
		assert.True(t, v)
	case <-time.After(3 * time.Second):
		t.Fatal("no change event observed after foreign login")
	}
}

func TestFileStoreClosedRejectsWrites(t *testing.T) {
	dir := t.TempDir()
	s, err := NewFileStore(dir)
	require.NoError(t, err)
	require.NoError(t, s.Close())

	assert.ErrorIs(t, s.SetTokens("a", "r", time.Hour), ErrClosed)
	assert.ErrorIs(t, s.ClearTokens(), ErrClosed)
	// Close is idempotent.
	assert.NoError(t, s.Close())
}
