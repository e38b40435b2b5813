// Package cache provides byte-level caching for rendered artifacts.
//
// Rendering a workspace diagram runs Graphviz layout, which dominates
// the cost of the render endpoints. Because the DOT text is a pure
// function of the graph, hashing it yields a perfect cache key: the
// same DOT always renders to the same SVG. The server keeps hot
// artifacts in memory; the CLI persists them across invocations with
// a file cache.
package cache

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/matzehuels/blockforge/pkg/observability"
)

// Cache stores rendered artifacts by key.
type Cache interface {
	// Get retrieves a value. hit is false on a miss or expired entry.
	Get(ctx context.Context, key string) (data []byte, hit bool, err error)

	// Set stores a value. A non-positive ttl means no expiration.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes a value. Deleting an absent key is a no-op.
	Delete(ctx context.Context, key string) error

	// Close releases cache resources.
	Close() error
}

// keyType extracts the hook label from a cache key: the format prefix
// of an artifact key, or "raw" for unprefixed keys.
func keyType(key string) string {
	if prefix, _, ok := strings.Cut(key, ":"); ok {
		return prefix
	}
	return "raw"
}

// MemoryCache is an in-process cache with per-entry expiration. Expired
// entries are dropped lazily on access.
type MemoryCache struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
}

type memoryEntry struct {
	data      []byte
	expiresAt time.Time
}

// NewMemoryCache creates an empty in-memory cache.
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{entries: make(map[string]memoryEntry)}
}

// Get retrieves a value from the cache.
func (c *MemoryCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	c.mu.RLock()
	entry, ok := c.entries[key]
	c.mu.RUnlock()
	if !ok {
		observability.Cache().OnCacheMiss(ctx, keyType(key))
		return nil, false, nil
	}
	if !entry.expiresAt.IsZero() && time.Now().After(entry.expiresAt) {
		c.mu.Lock()
		delete(c.entries, key)
		c.mu.Unlock()
		observability.Cache().OnCacheMiss(ctx, keyType(key))
		return nil, false, nil
	}
	observability.Cache().OnCacheHit(ctx, keyType(key))
	return entry.data, true, nil
}

// Set stores a value in the cache.
func (c *MemoryCache) Set(ctx context.Context, key string, data []byte, ttl time.Duration) error {
	entry := memoryEntry{data: data}
	if ttl > 0 {
		entry.expiresAt = time.Now().Add(ttl)
	}
	c.mu.Lock()
	c.entries[key] = entry
	c.mu.Unlock()
	observability.Cache().OnCacheSet(ctx, keyType(key), len(data))
	return nil
}

// Delete removes a value from the cache.
func (c *MemoryCache) Delete(ctx context.Context, key string) error {
	c.mu.Lock()
	delete(c.entries, key)
	c.mu.Unlock()
	return nil
}

// Close does nothing for the memory cache.
func (c *MemoryCache) Close() error { return nil }

var _ Cache = (*MemoryCache)(nil)
