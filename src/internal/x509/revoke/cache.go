// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package revoke

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"
)

// CacheEntry represents a cached CRL with metadata
type CacheEntry struct {
	Data       []byte    // Raw CRL data
	FetchedAt  time.Time // When this CRL was fetched
	NextUpdate time.Time // When this CRL expires (from CRL.NextUpdate)
	URL        string    // Source URL for debugging
}

// isFresh checks if the cached CRL is still fresh
func (entry *CacheEntry) isFresh() bool {
	now := time.Now()
	// CRL is fresh if NextUpdate is in the future and we fetched it recently
	return entry.NextUpdate.After(now) && entry.FetchedAt.After(now.Add(-24*time.Hour))
}

// isExpired checks if the CRL has expired and should be cleaned up
func (entry *CacheEntry) isExpired() bool {
	now := time.Now()
	// CRL is expired if NextUpdate has passed (with some buffer time)
	return entry.NextUpdate.Before(now.Add(-1 * time.Hour)) // Allow 1 hour grace period
}

// CacheConfig holds configuration for the CRL cache
type CacheConfig struct {
	MaxSize         int           // Maximum number of CRLs to cache (0 = unlimited, but not recommended)
	CleanupInterval time.Duration // How often to run cleanup (default: 1 hour)
}

// CacheMetrics tracks cache performance and usage
type CacheMetrics struct {
	Size        int64 // Current number of cached CRLs
	Hits        int64 // Number of cache hits
	Misses      int64 // Number of cache misses
	Evictions   int64 // Number of LRU evictions
	Cleanups    int64 // Number of expired CRL cleanups
	TotalMemory int64 // Approximate memory usage in bytes
}

// Default CRL cache configuration
var defaultCacheConfig = CacheConfig{
	MaxSize:         100,
	CleanupInterval: 1 * time.Hour,
}

// crlCache is a checker-owned LRU cache for CRLs
type crlCache struct {
	mu             sync.RWMutex
	entries        map[string]*CacheEntry
	order          []string     // Maintains access order for LRU eviction
	config         atomic.Value // Stores *CacheConfig
	metrics        CacheMetrics
	cleanupRunning int32 // Atomic flag to ensure only one cleanup goroutine
}

// newCRLCache creates a cache with the given configuration.
func newCRLCache(config CacheConfig) *crlCache {
	c := &crlCache{entries: make(map[string]*CacheEntry)}
	c.config.Store(&CacheConfig{
		MaxSize:         config.MaxSize,
		CleanupInterval: config.CleanupInterval,
	})
	return c
}

// setConfig replaces the cache configuration and prunes to the new size.
func (c *crlCache) setConfig(config *CacheConfig) {
	cfg := &CacheConfig{
		MaxSize:         defaultCacheConfig.MaxSize,
		CleanupInterval: defaultCacheConfig.CleanupInterval,
	}

	if config != nil {
		cfg.MaxSize = config.MaxSize
		cfg.CleanupInterval = config.CleanupInterval
	}

	// Validate configuration
	if cfg.MaxSize < 0 {
		cfg.MaxSize = 0 // 0 means unlimited, but not recommended
	}
	if cfg.CleanupInterval <= 0 {
		cfg.CleanupInterval = 1 * time.Hour
	}

	// Store a copy to prevent external mutation
	c.config.Store(&CacheConfig{
		MaxSize:         cfg.MaxSize,
		CleanupInterval: cfg.CleanupInterval,
	})

	c.prune(cfg.MaxSize)
}

// configSnapshot returns a copy of the current configuration.
func (c *crlCache) configSnapshot() *CacheConfig {
	config := c.config.Load().(*CacheConfig)
	// Return a copy to prevent external mutation
	return &CacheConfig{
		MaxSize:         config.MaxSize,
		CleanupInterval: config.CleanupInterval,
	}
}

func (c *crlCache) prune(maxSize int) {
	if maxSize <= 0 {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.entries) <= maxSize {
		return
	}

	removed := int64(0)
	for len(c.entries) > maxSize {
		if len(c.order) == 0 {
			break
		}

		lruURL := c.order[0]
		delete(c.entries, lruURL)
		c.order = c.order[1:]
		removed++
	}

	if removed > 0 {
		atomic.AddInt64(&c.metrics.Evictions, removed)
	}
}

// metricsSnapshot returns current cache metrics
func (c *crlCache) metricsSnapshot() CacheMetrics {
	c.mu.RLock()
	defer c.mu.RUnlock()

	// Calculate total memory usage
	var totalMemory int64
	for _, entry := range c.entries {
		totalMemory += int64(len(entry.Data)) + int64(len(entry.URL)) + 24 // Approximate overhead
	}

	metrics := CacheMetrics{
		Hits:      atomic.LoadInt64(&c.metrics.Hits),
		Misses:    atomic.LoadInt64(&c.metrics.Misses),
		Evictions: atomic.LoadInt64(&c.metrics.Evictions),
		Cleanups:  atomic.LoadInt64(&c.metrics.Cleanups),
	}
	metrics.Size = int64(len(c.entries))
	metrics.TotalMemory = totalMemory

	return metrics
}

// startCleanup starts the background cleanup goroutine. The loop exits when
// ctx is cancelled.
func (c *crlCache) startCleanup(ctx context.Context) {
	// Only start if not already running
	if !atomic.CompareAndSwapInt32(&c.cleanupRunning, 0, 1) {
		return
	}

	go func() {
		defer atomic.StoreInt32(&c.cleanupRunning, 0)

		ticker := time.NewTicker(c.configSnapshot().CleanupInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				c.cleanupExpired()
				// Update ticker interval in case config changed
				ticker.Reset(c.configSnapshot().CleanupInterval)
			}
		}
	}()
}

// cleanupExpired removes CRLs that have expired beyond their NextUpdate time
func (c *crlCache) cleanupExpired() {
	c.mu.Lock()
	defer c.mu.Unlock()

	var expiredURLs []string
	for url, entry := range c.entries {
		if entry.isExpired() {
			expiredURLs = append(expiredURLs, url)
		}
	}

	// Remove expired entries
	for _, url := range expiredURLs {
		delete(c.entries, url)
		// Also remove from access order
		for i, u := range c.order {
			if u == url {
				c.order = append(c.order[:i], c.order[i+1:]...)
				break
			}
		}
	}

	if len(expiredURLs) > 0 {
		atomic.AddInt64(&c.metrics.Cleanups, int64(len(expiredURLs)))
	}
}

// updateOrder updates the access order for LRU eviction
func (c *crlCache) updateOrder(url string) {
	// Remove from current position
	for i, u := range c.order {
		if u == url {
			c.order = append(c.order[:i], c.order[i+1:]...)
			break
		}
	}
	// Add to end (most recently used)
	c.order = append(c.order, url)
}

// get retrieves a fresh CRL from cache and updates access order
func (c *crlCache) get(url string) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, exists := c.entries[url]
	if !exists || !entry.isFresh() {
		atomic.AddInt64(&c.metrics.Misses, 1)
		return nil, false
	}

	atomic.AddInt64(&c.metrics.Hits, 1)

	// Update access order (move to end for LRU)
	c.updateOrder(url)

	// Return a copy to prevent external modification
	dataCopy := make([]byte, len(entry.Data))
	copy(dataCopy, entry.Data)
	return dataCopy, true
}

// set stores a CRL in cache with metadata and implements LRU eviction
func (c *crlCache) set(url string, data []byte, nextUpdate time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()

	config := c.configSnapshot()

	// Evict least recently used entry if cache is full
	for len(c.entries) >= config.MaxSize && config.MaxSize > 0 {
		if len(c.order) > 0 {
			// Remove the least recently used (first in order)
			lruURL := c.order[0]
			delete(c.entries, lruURL)
			c.order = c.order[1:]
			atomic.AddInt64(&c.metrics.Evictions, 1)
		} else {
			break // No more entries to evict
		}
	}

	// Make a copy of the data to store
	dataCopy := make([]byte, len(data))
	copy(dataCopy, data)

	c.entries[url] = &CacheEntry{
		Data:       dataCopy,
		FetchedAt:  time.Now(),
		NextUpdate: nextUpdate,
		URL:        url,
	}

	// Add to access order (most recently used)
	c.updateOrder(url)
}

// clear removes all cached CRLs (useful for testing)
func (c *crlCache) clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries = make(map[string]*CacheEntry)
	c.order = nil

	// Reset metrics
	atomic.StoreInt64(&c.metrics.Hits, 0)
	atomic.StoreInt64(&c.metrics.Misses, 0)
	atomic.StoreInt64(&c.metrics.Evictions, 0)
	atomic.StoreInt64(&c.metrics.Cleanups, 0)
}

// stats returns a formatted string with cache statistics
func (c *crlCache) stats() string {
	metrics := c.metricsSnapshot()
	config := c.configSnapshot()

	hitRate := float64(0)
	totalRequests := metrics.Hits + metrics.Misses
	if totalRequests > 0 {
		hitRate = float64(metrics.Hits) / float64(totalRequests) * 100
	}

	return fmt.Sprintf("CRL Cache Statistics:\n"+
		"  Size: %d/%d entries\n"+
		"  Memory Usage: %.2f KB\n"+
		"  Hit Rate: %.1f%% (%d hits, %d misses)\n"+
		"  Evictions: %d\n"+
		"  Cleanups: %d\n"+
		"  Cleanup Interval: %v",
		metrics.Size, config.MaxSize,
		float64(metrics.TotalMemory)/1024,
		hitRate, metrics.Hits, metrics.Misses,
		metrics.Evictions,
		metrics.Cleanups,
		config.CleanupInterval)
}
