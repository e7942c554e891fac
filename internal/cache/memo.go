// Package cache provides thread-safe caching utilities with time-based expiration.
package cache

import (
	"sync"
	"time"
)

type memoEntry[V any] struct {
	value   V
	expires time.Time
}

// Memo is a thread-safe cache whose entries expire individually after a
// fixed TTL. When full, the entry closest to expiry is evicted.
type Memo[K comparable, V any] struct {
	mu      sync.Mutex
	data    map[K]memoEntry[V]
	ttl     time.Duration
	maxSize int
	now     func() time.Time

	hits   uint64
	misses uint64
}

// Stats is a snapshot of cache counters.
type Stats struct {
	Size   int    `json:"size"`
	Hits   uint64 `json:"hits"`
	Misses uint64 `json:"misses"`
}

// NewMemo creates a Memo. A maxSize of zero or less means unbounded.
func NewMemo[K comparable, V any](ttl time.Duration, maxSize int) *Memo[K, V] {
	return &Memo[K, V]{
		data:    make(map[K]memoEntry[V]),
		ttl:     ttl,
		maxSize: maxSize,
		now:     time.Now,
	}
}

// Get returns the value for key if present and not expired.
func (m *Memo[K, V]) Get(key K) (V, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.getLocked(key)
}

func (m *Memo[K, V]) getLocked(key K) (V, bool) {
	e, ok := m.data[key]
	if !ok || !m.now().Before(e.expires) {
		if ok {
			delete(m.data, key)
		}
		m.misses++
		var zero V
		return zero, false
	}
	m.hits++
	return e.value, true
}

// Set stores value under key with a fresh TTL.
func (m *Memo[K, V]) Set(key K, value V) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.setLocked(key, value)
}

func (m *Memo[K, V]) setLocked(key K, value V) {
	now := m.now()
	if _, exists := m.data[key]; !exists && m.maxSize > 0 && len(m.data) >= m.maxSize {
		m.evictLocked(now)
	}
	m.data[key] = memoEntry[V]{value: value, expires: now.Add(m.ttl)}
}

// evictLocked drops expired entries, or the oldest one if none expired.
// MUST be called with the lock held.
func (m *Memo[K, V]) evictLocked(now time.Time) {
	var (
		oldest    K
		oldestExp time.Time
		found     bool
	)
	for k, e := range m.data {
		if !now.Before(e.expires) {
			delete(m.data, k)
			continue
		}
		if !found || e.expires.Before(oldestExp) {
			oldest, oldestExp, found = k, e.expires, true
		}
	}
	if len(m.data) >= m.maxSize && found {
		delete(m.data, oldest)
	}
}

// GetOrCompute returns the cached value for key, or calls compute and
// caches its result. Errors are returned but not cached. compute runs
// without the lock held.
func (m *Memo[K, V]) GetOrCompute(key K, compute func() (V, error)) (V, error) {
	if v, ok := m.Get(key); ok {
		return v, nil
	}
	v, err := compute()
	if err != nil {
		return v, err
	}
	m.Set(key, v)
	return v, nil
}

// Len returns the number of stored entries, including expired ones not yet
// evicted.
func (m *Memo[K, V]) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.data)
}

// Stats returns the current counters.
func (m *Memo[K, V]) Stats() Stats {
	m.mu.Lock()
	defer m.mu.Unlock()
	return Stats{Size: len(m.data), Hits: m.hits, Misses: m.misses}
}
