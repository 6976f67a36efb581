// Package memory keeps chat sessions in process memory. Sessions live until
// cleared unless a TTL is configured, and are lost on restart.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/patrickmn/go-cache"

	"github.com/lakegraph/kgqa/store"
)

// SessionStore implements store.SessionStore on top of go-cache.
type SessionStore struct {
	mu    sync.Mutex
	cache *cache.Cache
	ttl   time.Duration
}

var _ store.SessionStore = (*SessionStore)(nil)

// MemoryOptions configures a SessionStore.
type MemoryOptions struct {
	TTL             time.Duration // 0 keeps sessions forever
	CleanupInterval time.Duration // Default 10m
}

// NewSessionStore creates an in-memory session store.
func NewSessionStore(opts MemoryOptions) *SessionStore {
	ttl := opts.TTL
	if ttl <= 0 {
		ttl = cache.NoExpiration
	}
	cleanup := opts.CleanupInterval
	if cleanup <= 0 {
		cleanup = 10 * time.Minute
	}
	return &SessionStore{cache: cache.New(ttl, cleanup), ttl: ttl}
}

// Append adds messages and refreshes the session's expiry.
func (s *SessionStore) Append(ctx context.Context, sessionID string, msgs ...store.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var history []store.Message
	if v, ok := s.cache.Get(sessionID); ok {
		history = v.([]store.Message)
	}
	next := make([]store.Message, 0, len(history)+len(msgs))
	next = append(next, history...)
	next = append(next, msgs...)
	s.cache.Set(sessionID, next, s.ttl)
	return nil
}

// History returns a copy of the session.
func (s *SessionStore) History(ctx context.Context, sessionID string) ([]store.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	v, ok := s.cache.Get(sessionID)
	if !ok {
		return []store.Message{}, nil
	}
	return append([]store.Message{}, v.([]store.Message)...), nil
}

// Clear removes the session.
func (s *SessionStore) Clear(ctx context.Context, sessionID string) error {
	s.cache.Delete(sessionID)
	return nil
}

// Sessions reports how many sessions are held.
func (s *SessionStore) Sessions() int {
	return s.cache.ItemCount()
}

// Close drops every session.
func (s *SessionStore) Close() error {
	s.cache.Flush()
	return nil
}

