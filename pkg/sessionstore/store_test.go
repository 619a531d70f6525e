package sessionstore

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenSetLive(t *testing.T) {
	now := time.Now()

	tests := []struct {
		name string
		ts   TokenSet
		want bool
	}{
		{"empty", TokenSet{}, false},
		{"no expiry", TokenSet{AccessToken: "tok"}, true},
		{"future expiry", TokenSet{AccessToken: "tok", ExpiresAt: now.Add(time.Hour)}, true},
		{"expired", TokenSet{AccessToken: "tok", ExpiresAt: now.Add(-time.Second)}, false},
		{"expiry without token", TokenSet{ExpiresAt: now.Add(time.Hour)}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.ts.Live(now))
		})
	}
}

func TestBroadcasterFanOut(t *testing.T) {
	b := newBroadcaster()

	var mu sync.Mutex
	var got []bool
	record := func(v bool) {
		mu.Lock()
		got = append(got, v)
		mu.Unlock()
	}

	cancel1 := b.subscribe(record)
	cancel2 := b.subscribe(record)
	require.Equal(t, 2, b.count())

	b.emitChanged(true)
	mu.Lock()
	assert.Equal(t, []bool{true, true}, got)
	mu.Unlock()

	cancel1()
	cancel1() // cancel is idempotent
	require.Equal(t, 1, b.count())

	b.emitChanged(false)
	mu.Lock()
	assert.Equal(t, []bool{true, true, false}, got)
	mu.Unlock()

	cancel2()
	require.Equal(t, 0, b.count())
}

func TestBroadcasterSuppressesNoChangeEvents(t *testing.T) {
	b := newBroadcaster()

	var calls int
	b.subscribe(func(bool) { calls++ })

	b.emitChanged(true)
	b.emitChanged(true)
	b.emitChanged(true)
	assert.Equal(t, 1, calls)

	b.emitChanged(false)
	b.emitChanged(false)
	assert.Equal(t, 2, calls)
}

func TestMemoryStoreRoundTrip(t *testing.T) {
	s := NewMemoryStore()
	t.Cleanup(func() { _ = s.Close() })

	assert.False(t, s.Authenticated())
	_, ok := s.AccessToken()
	assert.False(t, ok)

	require.NoError(t, s.SetTokens("access", "refresh", time.Hour))
	assert.True(t, s.Authenticated())

	tok, ok := s.AccessToken()
	require.True(t, ok)
	assert.Equal(t, "access", tok)

	require.NoError(t, s.ClearTokens())
	assert.False(t, s.Authenticated())
}

func TestMemoryStoreExpiry(t *testing.T) {
	s := NewMemoryStore()
	t.Cleanup(func() { _ = s.Close() })

	require.NoError(t, s.SetTokens("access", "refresh", -time.Second))
	assert.False(t, s.Authenticated())
	_, ok := s.AccessToken()
	assert.False(t, ok)
}

func TestMemoryStoreNotifiesOnTransitions(t *testing.T) {
	s := NewMemoryStore()
	t.Cleanup(func() { _ = s.Close() })

	var events []bool
	cancel := s.Subscribe(func(v bool) { events = append(events, v) })
	defer cancel()

	require.NoError(t, s.SetTokens("a", "r", time.Hour))
	require.NoError(t, s.ClearTokens())
	require.NoError(t, s.ClearTokens()) // already clear, no event

	assert.Equal(t, []bool{true, false}, events)
}

func TestMemoryStoreSimulateExternal(t *testing.T) {
	s := NewMemoryStore()
	t.Cleanup(func() { _ = s.Close() })

	var events []bool
	cancel := s.Subscribe(func(v bool) { events = append(events, v) })
	defer cancel()

	s.SimulateExternalSet("a", "r", time.Hour)
	assert.True(t, s.Authenticated())

	s.SimulateExternalClear()
	assert.False(t, s.Authenticated())

	assert.Equal(t, []bool{true, false}, events)
}

func TestMemoryStoreClosedRejectsWrites(t *testing.T) {
	s := NewMemoryStore()
	require.NoError(t, s.SetTokens("a", "r", time.Hour))
	require.NoError(t, s.Close())

	assert.ErrorIs(t, s.SetTokens("b", "r", time.Hour), ErrClosed)
	assert.ErrorIs(t, s.ClearTokens(), ErrClosed)
	// Reads keep working after close.
	assert.True(t, s.Authenticated())
}
