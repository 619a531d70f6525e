package sessionstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

const redisOpTimeout = 2 * time.Second

// RedisStore keeps the token pair under a namespaced Redis key and fans
// authentication changes out over pub/sub. Intended for shared environments
// (CI agents, jump hosts) where several machines share one session.
type RedisStore struct {
	client    *redis.Client
	namespace string

	mu     sync.Mutex
	closed bool
	pubsub *redis.PubSub
	done   chan struct{}

	events *broadcaster
}

// NewRedisStore connects the store to an existing client under the given key
// namespace (default "datacendia"). It subscribes to the change channel before
// returning so no clear event is missed.
func NewRedisStore(client *redis.Client, namespace string) (*RedisStore, error) {
	if client == nil {
		return nil, errors.New("sessionstore: nil redis client")
	}
	if namespace == "" {
		namespace = "datacendia"
	}

	s := &RedisStore{
		client:    client,
		namespace: namespace,
		done:      make(chan struct{}),
		events:    newBroadcaster(),
	}

	ctx, cancel := context.WithTimeout(context.Background(), redisOpTimeout)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("sessionstore: redis ping: %w", err)
	}

	s.pubsub = client.Subscribe(context.Background(), s.channel())
	authed := s.Authenticated()
	s.events.last = &authed

	go s.receiveLoop()
	return s, nil
}

func (s *RedisStore) key() string     { return s.namespace + ":session" }
func (s *RedisStore) channel() string { return s.namespace + ":session.events" }

func (s *RedisStore) receiveLoop() {
	ch := s.pubsub.Channel()
	for {
		select {
		case <-s.done:
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			// Payload is advisory; the authoritative state is re-read so a
			// lost or reordered message cannot wedge subscribers.
			_ = msg
			s.events.emitChanged(s.Authenticated())
		}
	}
}

func (s *RedisStore) read() (TokenSet, bool) {
	ctx, cancel := context.WithTimeout(context.Background(), redisOpTimeout)
	defer cancel()

	data, err := s.client.Get(ctx, s.key()).Bytes()
	if err != nil {
		return TokenSet{}, false
	}
	var ts TokenSet
	if err := json.Unmarshal(data, &ts); err != nil {
		return TokenSet{}, false
	}
	return ts, true
}

// Authenticated re-reads the Redis key on every call.
func (s *RedisStore) Authenticated() bool {
	ts, ok := s.read()
	return ok && ts.Live(time.Now())
}

// AccessToken returns the stored access token if one is live.
func (s *RedisStore) AccessToken() (string, bool) {
	ts, ok := s.read()
	if !ok || !ts.Live(time.Now()) {
		return "", false
	}
	return ts.AccessToken, true
}

// SetTokens persists the pair with a TTL matching its expiry and publishes an
// authenticated=true event.
func (s *RedisStore) SetTokens(access, refresh string, expiresIn time.Duration) error {
	s.mu.Lock()
	closed := s.closed
	s.mu.Unlock()
	if closed {
		return ErrClosed
	}

	ts := TokenSet{AccessToken: access, RefreshToken: refresh}
	var ttl time.Duration
	if expiresIn > 0 {
		ts.ExpiresAt = time.Now().Add(expiresIn)
		ttl = expiresIn
	}
	payload, err := json.Marshal(ts)
	if err != nil {
		return fmt.Errorf("sessionstore: encode tokens: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), redisOpTimeout)
	defer cancel()

	pipe := s.client.TxPipeline()
	pipe.Set(ctx, s.key(), payload, ttl)
	pipe.Publish(ctx, s.channel(), "1")
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("sessionstore: persist tokens: %w", err)
	}

	s.events.emitChanged(true)
	return nil
}

// ClearTokens deletes the key and publishes an authenticated=false event.
func (s *RedisStore) ClearTokens() error {
	s.mu.Lock()
	closed := s.closed
	s.mu.Unlock()
	if closed {
		return ErrClosed
	}

	ctx, cancel := context.WithTimeout(context.Background(), redisOpTimeout)
	defer cancel()

	pipe := s.client.TxPipeline()
	pipe.Del(ctx, s.key())
	pipe.Publish(ctx, s.channel(), "0")
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("sessionstore: clear tokens: %w", err)
	}

	s.events.emitChanged(false)
	return nil
}

// Subscribe registers a listener for auth-change events.
func (s *RedisStore) Subscribe(fn func(bool)) (cancel func()) {
	return s.events.subscribe(fn)
}

// Close stops the pub/sub receiver. The underlying client is owned by the
// caller and left open.
func (s *RedisStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	close(s.done)
	return s.pubsub.Close()
}

var _ Store = (*RedisStore)(nil)
