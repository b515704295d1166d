package application

import (
	"context"
	"sync"
	"time"
)

// GridCache holds recently read grids so roster builds do not hit the store for every friend.
// Implementations treat backend failures as misses.
type GridCache interface {
	Get(ctx context.Context, userID string) (StoredGrid, bool)
	Store(ctx context.Context, userID string, grid StoredGrid)
	Invalidate(ctx context.Context, userID string)
}

// NoopGridCache never stores anything.
type NoopGridCache struct{}

func (NoopGridCache) Get(context.Context, string) (StoredGrid, bool) { return StoredGrid{}, false }
func (NoopGridCache) Store(context.Context, string, StoredGrid)      {}
func (NoopGridCache) Invalidate(context.Context, string)             {}

// LocalGridCache is an in-process GridCache with a fixed TTL and entry cap.
type LocalGridCache struct {
	mu         sync.RWMutex
	now        func() time.Time
	ttl        time.Duration
	maxEntries int
	entries    map[string]gridCacheEntry
}

type gridCacheEntry struct {
	grid      StoredGrid
	expiresAt time.Time
}

// NewLocalGridCache builds a cache. Non-positive ttl and maxEntries fall back to 30s and 1024.
func NewLocalGridCache(ttl time.Duration, maxEntries int, now func() time.Time) *LocalGridCache {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	if maxEntries <= 0 {
		maxEntries = 1024
	}
	if now == nil {
		now = time.Now
	}
	return &LocalGridCache{
		now:        now,
		ttl:        ttl,
		maxEntries: maxEntries,
		entries:    make(map[string]gridCacheEntry),
	}
}

func (c *LocalGridCache) Get(_ context.Context, userID string) (StoredGrid, bool) {
	if c == nil {
		return StoredGrid{}, false
	}
	c.mu.RLock()
	entry, ok := c.entries[userID]
	c.mu.RUnlock()
	if !ok {
		return StoredGrid{}, false
	}
	if c.now().After(entry.expiresAt) {
		c.mu.Lock()
		delete(c.entries, userID)
		c.mu.Unlock()
		return StoredGrid{}, false
	}
	return entry.grid, true
}

// Store caches grid unless a live entry already holds a newer revision.
func (c *LocalGridCache) Store(_ context.Context, userID string, grid StoredGrid) {
	if c == nil {
		return
	}
	now := c.now()

	c.mu.Lock()
	defer c.mu.Unlock()

	existing, exists := c.entries[userID]
	if exists && !now.After(existing.expiresAt) && existing.grid.UpdatedAt.After(grid.UpdatedAt) {
		return
	}
	if !exists && len(c.entries) >= c.maxEntries {
		c.cleanupLocked()
		if len(c.entries) >= c.maxEntries {
			c.evictOneLocked()
		}
	}
	c.entries[userID] = gridCacheEntry{grid: grid, expiresAt: now.Add(c.ttl)}
}

func (c *LocalGridCache) Invalidate(_ context.Context, userID string) {
	if c == nil {
		return
	}
	c.mu.Lock()
	delete(c.entries, userID)
	c.mu.Unlock()
}

// Len reports the number of entries, expired ones included.
func (c *LocalGridCache) Len() int {
	if c == nil {
		return 0
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

func (c *LocalGridCache) cleanupLocked() {
	now := c.now()
	for key, entry := range c.entries {
		if now.After(entry.expiresAt) {
			delete(c.entries, key)
		}
	}
}

func (c *LocalGridCache) evictOneLocked() {
	for key := range c.entries {
		delete(c.entries, key)
		return
	}
}
