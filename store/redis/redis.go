// Package redis stores chat sessions as Redis lists, one JSON message per
// element, so several server instances can share history.
package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/lakegraph/kgqa/store"
)

// SessionStore implements store.SessionStore using Redis.
type SessionStore struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

var _ store.SessionStore = (*SessionStore)(nil)

// RedisOptions configuration for Redis connection
type RedisOptions struct {
	Addr     string
	Password string
	DB       int
	Prefix   string        // Key prefix, default "kgqa:"
	TTL      time.Duration // Expiration of a session after its last append, default 0 (no expiration)
}

// NewSessionStore creates a new Redis session store
func NewSessionStore(opts RedisOptions) *SessionStore {
	client := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})
	return NewSessionStoreWithClient(client, opts.Prefix, opts.TTL)
}

// NewSessionStoreWithClient wraps an existing client.
func NewSessionStoreWithClient(client *redis.Client, prefix string, ttl time.Duration) *SessionStore {
	if prefix == "" {
		prefix = "kgqa:"
	}
	return &SessionStore{client: client, prefix: prefix, ttl: ttl}
}

func (s *SessionStore) sessionKey(id string) string {
	return fmt.Sprintf("%ssession:%s:messages", s.prefix, id)
}

// Append pushes messages to the tail of the session list.
func (s *SessionStore) Append(ctx context.Context, sessionID string, msgs ...store.Message) error {
	if len(msgs) == 0 {
		return nil
	}
	values := make([]any, len(msgs))
	for i, m := range msgs {
		data, err := json.Marshal(m)
		if err != nil {
			return fmt.Errorf("failed to marshal message: %w", err)
		}
		values[i] = data
	}

	key := s.sessionKey(sessionID)
	pipe := s.client.TxPipeline()
	pipe.RPush(ctx, key, values...)
	if s.ttl > 0 {
		pipe.Expire(ctx, key, s.ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to append to session %s: %w", sessionID, err)
	}
	return nil
}

// History returns every message of the session in append order.
func (s *SessionStore) History(ctx context.Context, sessionID string) ([]store.Message, error) {
	raw, err := s.client.LRange(ctx, s.sessionKey(sessionID), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to load session %s: %w", sessionID, err)
	}

	history := make([]store.Message, 0, len(raw))
	for _, r := range raw {
		var m store.Message
		if err := json.Unmarshal([]byte(r), &m); err != nil {
			return nil, fmt.Errorf("failed to unmarshal message: %w", err)
		}
		history = append(history, m)
	}
	return history, nil
}

// Clear deletes the session list.
func (s *SessionStore) Clear(ctx context.Context, sessionID string) error {
	if err := s.client.Del(ctx, s.sessionKey(sessionID)).Err(); err != nil {
		return fmt.Errorf("failed to clear session %s: %w", sessionID, err)
	}
	return nil
}

// Ping checks the connection.
func (s *SessionStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Close closes the client.
func (s *SessionStore) Close() error {
	return s.client.Close()
}
