package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"sync"
	"time"

	"github.com/use-agent/agentscrape/models"
)

// entry holds a cached profile record with its creation timestamp.
type entry struct {
	record    models.AgentRecord
	createdAt time.Time
}

// Cache is a bounded in-memory cache for profile detail records.
// It is safe for concurrent use.
type Cache struct {
	mu         sync.RWMutex
	store      map[string]*entry
	maxEntries int
	ttl        time.Duration
	done       chan struct{}
	closeOnce  sync.Once
}

// New creates a Cache holding at most maxEntries records for ttl each.
// A background goroutine evicts expired entries every ttl (at most every
// 5 minutes) until Close is called.
func New(maxEntries int, ttl time.Duration) *Cache {
	c := &Cache{
		store:      make(map[string]*entry),
		maxEntries: maxEntries,
		ttl:        ttl,
		done:       make(chan struct{}),
	}

	go c.cleanupLoop()
	return c
}

// Key generates a cache key from its parts, e.g. Key(sourceName, profileID).
func Key(parts ...string) string {
	h := sha256.New()
	for i, p := range parts {
		if i > 0 {
			h.Write([]byte("|"))
		}
		h.Write([]byte(p))
	}
	return hex.EncodeToString(h.Sum(nil))
}

// Get returns a copy of the cached record if it exists and is younger than
// the cache TTL.
func (c *Cache) Get(key string) (*models.AgentRecord, bool) {
	c.mu.RLock()
	e, ok := c.store[key]
	c.mu.RUnlock()

	if !ok || time.Since(e.createdAt) > c.ttl {
		return nil, false
	}

	rec := e.record
	return &rec, true
}

// Set stores a record in the cache. If the cache is at capacity,
// a random entry is evicted to make room.
func (c *Cache) Set(key string, rec models.AgentRecord) {
	if c.maxEntries <= 0 {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	// Evict one random entry if at capacity (map iteration is random in Go).
	if _, exists := c.store[key]; !exists && len(c.store) >= c.maxEntries {
		for k := range c.store {
			delete(c.store, k)
			break
		}
	}

	c.store[key] = &entry{
		record:    rec,
		createdAt: time.Now(),
	}
}

// Len reports the number of stored entries, expired or not.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.store)
}

// Close stops the background cleanup goroutine.
func (c *Cache) Close() {
	c.closeOnce.Do(func() { close(c.done) })
}

func (c *Cache) cleanupLoop() {
	interval := c.ttl
	if interval <= 0 || interval > 5*time.Minute {
		interval = 5 * time.Minute
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-c.done:
			return
		case <-ticker.C:
			c.evictExpired(time.Now())
		}
	}
}

func (c *Cache) evictExpired(now time.Time) {
	cutoff := now.Add(-c.ttl)
	c.mu.Lock()
	for k, e := range c.store {
		if e.createdAt.Before(cutoff) {
			delete(c.store, k)
		}
	}
	c.mu.Unlock()
}
