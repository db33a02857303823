package cache

import (
	"strings"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

type entry[V any] struct {
	value    V
	storedAt time.Time
}

// Store is an in-process TTL cache. Keys are normalized to lower case so
// mixed-case call sites share entries. Expired entries are lazily ignored
// on read and overwritten on the next Set; there is no background sweep.
type Store[V any] struct {
	mu      sync.RWMutex
	entries map[string]entry[V]
	ttl     time.Duration
	clock   clockwork.Clock
}

func NewStore[V any](ttl time.Duration, clock clockwork.Clock) *Store[V] {
	return &Store[V]{
		entries: make(map[string]entry[V]),
		ttl:     ttl,
		clock:   clock,
	}
}

// Get returns the cached value for key iff it was stored less than the
// TTL ago.
func (s *Store[V]) Get(key string) (V, bool) {
	key = normalize(key)

	s.mu.RLock()
	e, ok := s.entries[key]
	s.mu.RUnlock()

	if !ok || s.clock.Since(e.storedAt) >= s.ttl {
		var zero V
		return zero, false
	}
	return e.value, true
}

func (s *Store[V]) Set(key string, value V) {
	key = normalize(key)

	s.mu.Lock()
	s.entries[key] = entry[V]{value: value, storedAt: s.clock.Now()}
	s.mu.Unlock()
}

func (s *Store[V]) Delete(key string) {
	key = normalize(key)

	s.mu.Lock()
	delete(s.entries, key)
	s.mu.Unlock()
}

// Purge drops every expired entry and reports how many were removed.
func (s *Store[V]) Purge() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for k, e := range s.entries {
		if s.clock.Since(e.storedAt) >= s.ttl {
			delete(s.entries, k)
			removed++
		}
	}
	return removed
}

func (s *Store[V]) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

func normalize(key string) string {
	return strings.ToLower(strings.TrimSpace(key))
}
