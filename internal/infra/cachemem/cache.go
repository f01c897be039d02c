package cachemem

import (
	"context"
	"sync"
	"time"

	"github.com/chive-pub/chive-sub016/internal/infra/identity"
)

// Cache is the in-process endpoint cache used when no redis is configured.
type Cache struct {
	mu      sync.Mutex
	entries map[string]cacheEntry
}

type cacheEntry struct {
	endpoint  string
	expiresAt time.Time
	hasExpiry bool
}

func New() *Cache {
	return &Cache{
		entries: make(map[string]cacheEntry),
	}
}

func (c *Cache) Get(ctx context.Context, identity string) (string, bool, error) {
	if c == nil {
		return "", false, nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	entry, ok := c.entries[identity]
	if !ok {
		return "", false, nil
	}
	if entry.hasExpiry && time.Now().After(entry.expiresAt) {
		delete(c.entries, identity)
		return "", false, nil
	}
	return entry.endpoint, true, nil
}

func (c *Cache) Put(ctx context.Context, identity, endpoint string, ttl time.Duration) error {
	if c == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	entry := cacheEntry{endpoint: endpoint}
	if ttl > 0 {
		entry.hasExpiry = true
		entry.expiresAt = time.Now().Add(ttl)
	}
	c.entries[identity] = entry
	return nil
}

var _ identity.EndpointCache = (*Cache)(nil)
