// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package cache

import (
	"context"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

// MemoryCache is a thread-safe in-memory Cacher.
type MemoryCache struct {
	data       sync.Map
	defaultTTL time.Duration
	maxSize    int // 0 = unlimited
	now        func() time.Time
	stopCh     chan struct{}
	closed     atomic.Bool

	items  atomic.Int64
	hits   atomic.Int64
	misses atomic.Int64
	sets   atomic.Int64
	size   atomic.Int64 // bytes
}

type memoryEntry struct {
	value     []byte
	expiresAt time.Time
}

// MemoryCacheOptions configures the memory cache.
type MemoryCacheOptions struct {
	DefaultTTL      time.Duration
	MaxSize         int           // Maximum number of entries (0 = unlimited)
	CleanupInterval time.Duration // Interval for expired entry cleanup (0 = no cleanup)
}

// NewMemoryCache creates a new memory cache with the given options.
func NewMemoryCache(opts MemoryCacheOptions) *MemoryCache {
	c := &MemoryCache{
		defaultTTL: opts.DefaultTTL,
		maxSize:    opts.MaxSize,
		now:        time.Now,
		stopCh:     make(chan struct{}),
	}
	if c.defaultTTL <= 0 {
		c.defaultTTL = 5 * time.Minute
	}
	if opts.CleanupInterval > 0 {
		go c.cleanupLoop(opts.CleanupInterval)
	}
	return c
}

// Get retrieves a copy of the cached value.
func (c *MemoryCache) Get(_ context.Context, key string) ([]byte, error) {
	if c.closed.Load() {
		return nil, ErrCacheClosed
	}

	val, ok := c.data.Load(key)
	if !ok {
		c.misses.Add(1)
		return nil, ErrCacheMiss
	}
	entry := val.(*memoryEntry)
	if c.now().After(entry.expiresAt) {
		c.remove(key, entry)
		c.misses.Add(1)
		return nil, ErrCacheMiss
	}

	c.hits.Add(1)
	out := make([]byte, len(entry.value))
	copy(out, entry.value)
	return out, nil
}

// Set stores a copy of value. When the cache is full, expired entries are
// dropped first, then the entry closest to expiry.
func (c *MemoryCache) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	if c.closed.Load() {
		return ErrCacheClosed
	}
	if ttl <= 0 {
		ttl = c.defaultTTL
	}

	if c.maxSize > 0 && int(c.items.Load()) >= c.maxSize {
		if _, exists := c.data.Load(key); !exists {
			c.removeExpired()
			if int(c.items.Load()) >= c.maxSize {
				c.evictOne()
			}
		}
	}

	entry := &memoryEntry{
		value:     append([]byte(nil), value...),
		expiresAt: c.now().Add(ttl),
	}
	if old, loaded := c.data.Swap(key, entry); loaded {
		c.size.Add(-int64(len(old.(*memoryEntry).value)))
	} else {
		c.items.Add(1)
	}
	c.size.Add(int64(len(entry.value)))
	c.sets.Add(1)
	return nil
}

// Delete removes a key from the cache.
func (c *MemoryCache) Delete(_ context.Context, key string) error {
	if c.closed.Load() {
		return ErrCacheClosed
	}
	if val, ok := c.data.Load(key); ok {
		c.remove(key, val.(*memoryEntry))
	}
	return nil
}

// DeleteByPrefix removes all keys starting with the given prefix.
func (c *MemoryCache) DeleteByPrefix(_ context.Context, prefix string) error {
	if c.closed.Load() {
		return ErrCacheClosed
	}
	c.data.Range(func(key, value any) bool {
		if k := key.(string); strings.HasPrefix(k, prefix) {
			c.remove(k, value.(*memoryEntry))
		}
		return true
	})
	return nil
}

// Clear removes all entries from the cache.
func (c *MemoryCache) Clear(_ context.Context) error {
	if c.closed.Load() {
		return ErrCacheClosed
	}
	c.data.Range(func(key, value any) bool {
		c.remove(key.(string), value.(*memoryEntry))
		return true
	})
	return nil
}

// Has checks if a key exists in the cache and is not expired.
func (c *MemoryCache) Has(_ context.Context, key string) (bool, error) {
	if c.closed.Load() {
		return false, ErrCacheClosed
	}
	val, ok := c.data.Load(key)
	if !ok {
		return false, nil
	}
	entry := val.(*memoryEntry)
	if c.now().After(entry.expiresAt) {
		c.remove(key, entry)
		return false, nil
	}
	return true, nil
}

// Close stops the cleanup goroutine.
func (c *MemoryCache) Close() error {
	if c.closed.CompareAndSwap(false, true) {
		close(c.stopCh)
	}
	return nil
}

// Stats returns current cache statistics.
func (c *MemoryCache) Stats() Stats {
	hits, misses := c.hits.Load(), c.misses.Load()
	return Stats{
		Backend: "memory",
		Hits:    hits,
		Misses:  misses,
		Sets:    c.sets.Load(),
		Items:   int(c.items.Load()),
		HitRate: hitRate(hits, misses),
		Size:    c.size.Load(),
	}
}

// ResetStats resets the hit, miss and set counters.
func (c *MemoryCache) ResetStats() {
	c.hits.Store(0)
	c.misses.Store(0)
	c.sets.Store(0)
}

// remove deletes key only if it still maps to entry.
func (c *MemoryCache) remove(key string, entry *memoryEntry) {
	if c.data.CompareAndDelete(key, entry) {
		c.items.Add(-1)
		c.size.Add(-int64(len(entry.value)))
	}
}

func (c *MemoryCache) removeExpired() {
	now := c.now()
	c.data.Range(func(key, value any) bool {
		if entry := value.(*memoryEntry); now.After(entry.expiresAt) {
			c.remove(key.(string), entry)
		}
		return true
	})
}

func (c *MemoryCache) evictOne() {
	var (
		victimKey string
		victim    *memoryEntry
	)
	c.data.Range(func(key, value any) bool {
		entry := value.(*memoryEntry)
		if victim == nil || entry.expiresAt.Before(victim.expiresAt) {
			victimKey, victim = key.(string), entry
		}
		return true
	})
	if victim != nil {
		c.remove(victimKey, victim)
	}
}

func (c *MemoryCache) cleanupLoop(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.removeExpired()
		case <-c.stopCh:
			return
		}
	}
}

var (
	_ Cacher        = (*MemoryCache)(nil)
	_ StatsProvider = (*MemoryCache)(nil)
)
