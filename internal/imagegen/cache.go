package imagegen

import (
	"sync"
	"time"
)

// Cache holds the last rendered summary image for a short period. Entries are
// keyed by a fingerprint of the data they were rendered from, so a change in
// that data misses the cache even before the TTL runs out.
type Cache struct {
	mu        sync.RWMutex
	key       string
	data      []byte
	expiresAt time.Time
	ttl       time.Duration
	now       func() time.Time
}

func NewCache(ttl time.Duration) *Cache {
	return &Cache{ttl: ttl, now: time.Now}
}

func (c *Cache) TTL() time.Duration {
	return c.ttl
}

// Get returns the cached image if it was stored under key and has not expired.
func (c *Cache) Get(key string) ([]byte, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.data == nil || c.key != key || c.now().After(c.expiresAt) {
		return nil, false
	}
	return c.data, true
}

func (c *Cache) Set(key string, data []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.key = key
	c.data = data
	c.expiresAt = c.now().Add(c.ttl)
}
