package sessions

import (
	"context"
	"fmt"
	"time"

	"github.com/goccy/go-json"
	backend "github.com/redis/go-redis/v9"
)

// RedisStore keeps one Redis list per automaton session. Events are appended
// with RPUSH so append order is preserved.
type RedisStore struct {
	client *backend.Client
	prefix string
	ttl    time.Duration
}

var _ Store = (*RedisStore)(nil)

type RedisOption func(*RedisStore)

// WithTTL sets the expiration for session logs. The TTL is refreshed on
// every append.
func WithTTL(ttl time.Duration) RedisOption {
	return func(s *RedisStore) {
		s.ttl = ttl
	}
}

// WithPrefix sets the key prefix for session logs.
func WithPrefix(prefix string) RedisOption {
	return func(s *RedisStore) {
		s.prefix = prefix
	}
}

// NewRedisStore creates a session store from an existing Redis client.
func NewRedisStore(client *backend.Client, opts ...RedisOption) *RedisStore {
	store := &RedisStore{
		client: client,
		prefix: "automata:session:",
		ttl:    0, // no expiration by default
	}

	for _, opt := range opts {
		opt(store)
	}

	return store
}

func (s *RedisStore) key(automatonID, sessionID string) string {
	return s.prefix + automatonID + ":" + sessionID
}

func (s *RedisStore) Append(ctx context.Context, automatonID, sessionID string, event Event) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encoding event: %w", err)
	}

	key := s.key(automatonID, sessionID)
	pipe := s.client.Pipeline()
	pipe.RPush(ctx, key, data)
	if s.ttl > 0 {
		pipe.Expire(ctx, key, s.ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("appending event to redis: %w", err)
	}
	return nil
}

func (s *RedisStore) Events(ctx context.Context, automatonID, sessionID string) ([]Event, error) {
	values, err := s.client.LRange(ctx, s.key(automatonID, sessionID), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("reading events from redis: %w", err)
	}

	events := make([]Event, 0, len(values))
	for _, v := range values {
		var event Event
		if err := json.Unmarshal([]byte(v), &event); err != nil {
			return nil, fmt.Errorf("decoding event: %w", err)
		}
		events = append(events, event)
	}
	return events, nil
}

// Close closes the underlying Redis client.
func (s *RedisStore) Close() error {
	return s.client.Close()
}
