// Package cache provides verdict caches keyed by the content id of the
// normalized email document.
package cache

import (
	"context"
	"sync"
	"time"

	"github.com/phishnet/phishbowl/internal/core"
	"go.uber.org/zap"
)

type memoryEntry struct {
	result    core.AnalysisResult
	expiresAt time.Time
}

// MemoryCache is an in-memory implementation of the VerdictCache interface.
type MemoryCache struct {
	entries     map[string]memoryEntry
	mu          sync.RWMutex
	logger      *zap.Logger
	cleanupFreq time.Duration
	stopCh      chan struct{}
}

// NewMemoryCache creates a new in-memory verdict cache with a background
// cleanup loop.
func NewMemoryCache(logger *zap.Logger, cleanupFreq time.Duration) *MemoryCache {
	cache := &MemoryCache{
		entries:     make(map[string]memoryEntry),
		logger:      logger,
		cleanupFreq: cleanupFreq,
		stopCh:      make(chan struct{}),
	}

	go cache.startCleanupTask()

	return cache
}

// Get retrieves a cached verdict by content id.
func (c *MemoryCache) Get(ctx context.Context, contentID string) (*core.AnalysisResult, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, ok := c.entries[contentID]
	if !ok || time.Now().After(entry.expiresAt) {
		return nil, false
	}

	result := entry.result
	return &result, true
}

// Set stores a verdict for the given content id.
func (c *MemoryCache) Set(ctx context.Context, contentID string, result *core.AnalysisResult, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[contentID] = memoryEntry{
		result:    *result,
		expiresAt: time.Now().Add(ttl),
	}
}

// Delete removes a cached verdict.
func (c *MemoryCache) Delete(ctx context.Context, contentID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.entries, contentID)
	return nil
}

// Cleanup removes expired entries.
func (c *MemoryCache) Cleanup(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()
	expiredCount := 0

	for id, entry := range c.entries {
		if now.After(entry.expiresAt) {
			delete(c.entries, id)
			expiredCount++
		}
	}

	c.logger.Debug("Cleaned up expired verdict cache entries", zap.Int("expired_count", expiredCount))
	return nil
}

// startCleanupTask starts a background task to clean up expired entries.
func (c *MemoryCache) startCleanupTask() {
	ticker := time.NewTicker(c.cleanupFreq)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := c.Cleanup(context.Background()); err != nil {
				c.logger.Error("Failed to clean up verdict cache", zap.Error(err))
			}
		case <-c.stopCh:
			return
		}
	}
}

// Stop stops the background cleanup task.
func (c *MemoryCache) Stop() {
	close(c.stopCh)
}
