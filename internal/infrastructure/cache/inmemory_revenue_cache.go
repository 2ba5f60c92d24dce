package cache

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/retailcore/backend/internal/application/report"
)

// revenueEntry is one cached report with its expiry
type revenueEntry struct {
	report    report.RevenueReport
	expiresAt time.Time
}

// InMemoryRevenueCache implements report.RevenueCache with a local map.
// Suitable for single-instance deployments and testing; reports are stored
// by value so callers cannot mutate a cached entry.
type InMemoryRevenueCache struct {
	mu        sync.RWMutex
	entries   map[string]revenueEntry
	stopChan  chan struct{}
	wg        sync.WaitGroup
	closeOnce sync.Once
}

// NewInMemoryRevenueCache creates the cache and starts a background goroutine
// that evicts expired entries.
func NewInMemoryRevenueCache() *InMemoryRevenueCache {
	c := &InMemoryRevenueCache{
		entries:  make(map[string]revenueEntry),
		stopChan: make(chan struct{}),
	}

	c.wg.Add(1)
	go c.cleanupLoop()

	return c
}

// Get returns the cached report for the key, or (nil, nil) on a miss.
func (c *InMemoryRevenueCache) Get(_ context.Context, key string) (*report.RevenueReport, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	e, exists := c.entries[key]
	if !exists || time.Now().After(e.expiresAt) {
		return nil, nil
	}
	cached := e.report
	cached.Buckets = append([]report.RevenueBucket(nil), e.report.Buckets...)
	return &cached, nil
}

// Set stores the report under the key with a TTL.
func (c *InMemoryRevenueCache) Set(_ context.Context, key string, rpt *report.RevenueReport, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[key] = revenueEntry{
		report:    *rpt,
		expiresAt: time.Now().Add(ttl),
	}
	return nil
}

// InvalidateShop drops every cached report of one shop.
func (c *InMemoryRevenueCache) InvalidateShop(_ context.Context, tenantID, shopID uuid.UUID) error {
	prefix := "revenue:" + tenantID.String() + ":" + shopID.String() + ":"

	c.mu.Lock()
	defer c.mu.Unlock()

	for key := range c.entries {
		if strings.HasPrefix(key, prefix) {
			delete(c.entries, key)
		}
	}
	return nil
}

// Close stops the cleanup goroutine.
func (c *InMemoryRevenueCache) Close() {
	c.closeOnce.Do(func() {
		close(c.stopChan)
	})
	c.wg.Wait()
}

// cleanupLoop periodically removes expired entries
func (c *InMemoryRevenueCache) cleanupLoop() {
	defer c.wg.Done()

	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.evictExpired()
		case <-c.stopChan:
			return
		}
	}
}

func (c *InMemoryRevenueCache) evictExpired() {
	now := time.Now()

	c.mu.Lock()
	defer c.mu.Unlock()

	for key, e := range c.entries {
		if now.After(e.expiresAt) {
			delete(c.entries, key)
		}
	}
}

// Ensure InMemoryRevenueCache implements report.RevenueCache
var _ report.RevenueCache = (*InMemoryRevenueCache)(nil)
