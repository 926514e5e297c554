package store

import (
	"context"
	"sync"
	"time"

	"github.com/layer-3/gatekeeper/ports"
)

// MemoryStore is an in-memory implementation of the Store interface for
// single-instance deployments and tests. Expired entries are purged on
// read and by a periodic sweep.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
	nowFunc func() time.Time // for tests; defaults to time.Now
}

type memoryEntry struct {
	value     string
	expiresAt time.Time
}

// NewMemoryStore creates a new in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		entries: make(map[string]memoryEntry),
		nowFunc: time.Now,
	}
}

// Set stores a value under key with the given TTL.
func (s *MemoryStore) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries[key] = memoryEntry{
		value:     value,
		expiresAt: s.nowFunc().Add(ttl),
	}
	return nil
}

// Get returns the value for key, or ports.ErrNotFound if the key is
// absent or has expired. Expired entries are removed.
func (s *MemoryStore) Get(ctx context.Context, key string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	en, ok := s.entries[key]
	if !ok {
		return "", ports.ErrNotFound
	}
	if s.nowFunc().After(en.expiresAt) {
		delete(s.entries, key)
		return "", ports.ErrNotFound
	}
	return en.value, nil
}

// GetDel atomically returns the value for key and removes it. The whole
// read-and-remove runs under the lock, so concurrent callers for the
// same key see exactly one winner.
func (s *MemoryStore) GetDel(ctx context.Context, key string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	en, ok := s.entries[key]
	if !ok {
		return "", ports.ErrNotFound
	}
	delete(s.entries, key)
	if s.nowFunc().After(en.expiresAt) {
		return "", ports.ErrNotFound
	}
	return en.value, nil
}

// Delete removes key. Missing keys are a no-op.
func (s *MemoryStore) Delete(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.entries, key)
	return nil
}

// Sweep removes all expired entries. Call it from a ticker goroutine to
// bound memory when keys are written but never read again.
func (s *MemoryStore) Sweep() {
	now := s.nowFunc()

	s.mu.Lock()
	defer s.mu.Unlock()

	for key, en := range s.entries {
		if now.After(en.expiresAt) {
			delete(s.entries, key)
		}
	}
}

// Len returns the number of live and expired-but-unswept entries.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}
