package storage

import (
	"sync"
	"time"
)

type cacheEntry[V any] struct {
	value     V
	expiresAt time.Time
}

// MemoryCache is a process local TTL cache. The deduplication gate keeps one per
// worker so repeated polls of the same entry version skip the marker store entirely.
type MemoryCache[K comparable, V any] struct {
	entries map[K]cacheEntry[V]
	ttl     time.Duration
	mutex   sync.RWMutex
	stop    chan struct{}
	stopWg  sync.WaitGroup
	stopped bool
}

// NewMemoryCache creates a cache whose entries lapse after ttl; a zero ttl keeps
// entries forever and skips the sweeper goroutine
func NewMemoryCache[K comparable, V any](ttl time.Duration) *MemoryCache[K, V] {
	cache := &MemoryCache[K, V]{
		entries: make(map[K]cacheEntry[V]),
		ttl:     ttl,
		stop:    make(chan struct{}),
	}
	if ttl > 0 {
		cache.stopWg.Add(1)
		go cache.sweep()
	}
	return cache
}

// Get returns the value for key and whether a live entry was found. Lapsed
// entries read as absent; the sweeper reclaims their memory.
func (cache *MemoryCache[K, V]) Get(key K) (V, bool) {
	cache.mutex.RLock()
	defer cache.mutex.RUnlock()
	if entry, ok := cache.entries[key]; ok {
		if cache.ttl == 0 || time.Now().Before(entry.expiresAt) {
			return entry.value, true
		}
	}
	var zero V
	return zero, false
}

// Set stores the value against key, restarting its TTL
func (cache *MemoryCache[K, V]) Set(key K, value V) {
	cache.mutex.Lock()
	defer cache.mutex.Unlock()
	entry := cacheEntry[V]{value: value}
	if cache.ttl > 0 {
		entry.expiresAt = time.Now().Add(cache.ttl)
	}
	cache.entries[key] = entry
}

// Delete drops the entry for key if present
func (cache *MemoryCache[K, V]) Delete(key K) {
	cache.mutex.Lock()
	defer cache.mutex.Unlock()
	delete(cache.entries, key)
}

func (cache *MemoryCache[K, V]) sweep() {
	defer cache.stopWg.Done()
	ticker := time.NewTicker(cache.ttl / 2)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			now := time.Now()
			cache.mutex.Lock()
			for key, entry := range cache.entries {
				if now.After(entry.expiresAt) {
					delete(cache.entries, key)
				}
			}
			cache.mutex.Unlock()
		case <-cache.stop:
			return
		}
	}
}

// Close stops the sweeper; safe to call on a cache without one
func (cache *MemoryCache[K, V]) Close() {
	if cache.ttl > 0 && !cache.stopped {
		close(cache.stop)
		cache.stopWg.Wait()
		cache.stopped = true
	}
}
