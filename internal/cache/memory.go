package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/wonny/findash/backend/pkg/logger"
)

type entry struct {
	payload  []byte
	category Category
	storedAt time.Time
}

// MemoryStore is an in-process Store. Expired entries are treated as
// misses and dropped on the read that finds them; Sweep clears the rest.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]entry
	now     func() time.Time
	logger  *logger.Logger
}

// NewMemoryStore creates an empty in-memory store
func NewMemoryStore(log *logger.Logger) *MemoryStore {
	return &MemoryStore{
		entries: make(map[string]entry),
		now:     time.Now,
		logger:  log.WithComponent("cache"),
	}
}

// Get copies a fresh entry into dest. The TTL applied is the one of cat,
// the category of the lookup.
func (s *MemoryStore) Get(ctx context.Context, key string, cat Category, dest interface{}) (bool, error) {
	s.mu.RLock()
	e, ok := s.entries[key]
	s.mu.RUnlock()

	if !ok {
		s.logger.WithField("key", key).Debug("Cache miss")
		return false, nil
	}

	if s.now().Sub(e.storedAt) >= cat.TTL() {
		s.mu.Lock()
		// Only evict if nobody refreshed the entry since we looked.
		if cur, still := s.entries[key]; still && cur.storedAt.Equal(e.storedAt) {
			delete(s.entries, key)
		}
		s.mu.Unlock()

		s.logger.WithFields(map[string]interface{}{
			"key":      key,
			"category": cat.String(),
		}).Debug("Cache expired")
		return false, nil
	}

	if err := json.Unmarshal(e.payload, dest); err != nil {
		return false, fmt.Errorf("cache unmarshal failed: %w", err)
	}

	s.logger.WithField("key", key).Debug("Cache hit")
	return true, nil
}

// Set stores value under key, stamped with the current time
func (s *MemoryStore) Set(ctx context.Context, key string, cat Category, value interface{}) error {
	payload, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("cache marshal failed: %w", err)
	}

	s.mu.Lock()
	s.entries[key] = entry{payload: payload, category: cat, storedAt: s.now()}
	s.mu.Unlock()

	s.logger.WithField("key", key).Debug("Data cached")
	return nil
}

// Delete removes key
func (s *MemoryStore) Delete(ctx context.Context, key string) error {
	s.mu.Lock()
	delete(s.entries, key)
	s.mu.Unlock()
	return nil
}

// Sweep removes every entry older than the TTL of the category it was
// stored under and returns how many were removed
func (s *MemoryStore) Sweep() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	count := 0
	for key, e := range s.entries {
		if now.Sub(e.storedAt) >= e.category.TTL() {
			delete(s.entries, key)
			count++
		}
	}

	if count > 0 {
		s.logger.WithField("count", count).Info("Swept expired cache entries")
	}
	return count
}

// Len returns the number of entries, expired or not
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}
