package cache

import (
	"sync"
	"time"
)

type entry[V any] struct {
	value     V
	expiresAt time.Time
}

// Store is a keyed TTL map. Reads refresh an entry's deadline, so only idle
// keys expire. Expired entries are pruned lazily on insert, at most once per ttl.
type Store[V any] struct {
	mu        sync.Mutex
	entries   map[string]entry[V]
	ttl       time.Duration
	lastPrune time.Time
	now       func() time.Time
}

// NewStore returns a store whose entries never expire when ttl <= 0.
func NewStore[V any](ttl time.Duration) *Store[V] {
	return &Store[V]{
		entries: make(map[string]entry[V]),
		ttl:     ttl,
		now:     time.Now,
	}
}

func (s *Store[V]) Get(key string) (V, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.getLocked(key, s.now())
}

func (s *Store[V]) Set(key string, value V) {
	if key == "" {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	s.pruneLocked(now)
	s.entries[key] = entry[V]{value: value, expiresAt: s.deadline(now)}
}

// GetOrCreate returns the live value for key, storing create() when there is none.
func (s *Store[V]) GetOrCreate(key string, create func() V) V {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if value, ok := s.getLocked(key, now); ok {
		return value
	}

	value := create()
	if key == "" {
		return value
	}
	s.pruneLocked(now)
	s.entries[key] = entry[V]{value: value, expiresAt: s.deadline(now)}
	return value
}

func (s *Store[V]) Delete(key string) {
	s.mu.Lock()
	delete(s.entries, key)
	s.mu.Unlock()
}

func (s *Store[V]) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

func (s *Store[V]) getLocked(key string, now time.Time) (V, bool) {
	var zero V
	if key == "" {
		return zero, false
	}

	e, ok := s.entries[key]
	if !ok {
		return zero, false
	}
	if s.ttl > 0 && !e.expiresAt.After(now) {
		delete(s.entries, key)
		return zero, false
	}

	e.expiresAt = s.deadline(now)
	s.entries[key] = e
	return e.value, true
}

func (s *Store[V]) pruneLocked(now time.Time) {
	if s.ttl <= 0 || now.Sub(s.lastPrune) < s.ttl {
		return
	}
	s.lastPrune = now
	for key, e := range s.entries {
		if !e.expiresAt.After(now) {
			delete(s.entries, key)
		}
	}
}

func (s *Store[V]) deadline(now time.Time) time.Time {
	if s.ttl <= 0 {
		return time.Time{}
	}
	return now.Add(s.ttl)
}
