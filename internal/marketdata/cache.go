package marketdata

import (
	"context"
	"sync"
	"time"
)

type cacheEntry struct {
	storedAt time.Time
	result   HistoryResult
}

// Cache memoizes successful history lookups for a wall-clock TTL, keyed by
// the full request parameters. Errors and empty results are not cached, so
// a transient outage does not poison later lookups.
type Cache struct {
	next HistoryProvider
	ttl  time.Duration
	now  func() time.Time

	mu      sync.Mutex
	entries map[string]cacheEntry
}

// NewCache wraps a history provider with TTL memoization.
func NewCache(next HistoryProvider, ttl time.Duration) *Cache {
	return &Cache{
		next:    next,
		ttl:     ttl,
		now:     time.Now,
		entries: make(map[string]cacheEntry),
	}
}

func (c *Cache) Name() string { return c.next.Name() }

func (c *Cache) History(ctx context.Context, req HistoryRequest) (HistoryResult, error) {
	key := req.key()

	c.mu.Lock()
	if entry, ok := c.entries[key]; ok && c.now().Before(entry.storedAt.Add(c.ttl)) {
		c.mu.Unlock()
		return entry.result, nil
	}
	c.mu.Unlock()

	res, err := c.next.History(ctx, req)
	if err != nil {
		return HistoryResult{}, err
	}
	if !res.Series.Empty() {
		c.mu.Lock()
		c.entries[key] = cacheEntry{storedAt: c.now(), result: res}
		c.mu.Unlock()
	}
	return res, nil
}
