package woocommerce

import (
	"encoding/json"
	"time"

	lru "github.com/hashicorp/golang-lru"
)

type cacheEntry struct {
	records   []json.RawMessage
	fetchedAt time.Time
}

// responseCache remembers complete retrievals for a short time.
type responseCache struct {
	ttl   time.Duration
	now   func() time.Time
	items *lru.Cache
}

func newResponseCache(size int, ttl time.Duration, now func() time.Time) (*responseCache, error) {
	if ttl <= 0 || size <= 0 {
		return nil, nil
	}
	items, err := lru.New(size)
	if err != nil {
		return nil, err
	}
	return &responseCache{ttl: ttl, now: now, items: items}, nil
}

func (c *responseCache) get(key string) ([]json.RawMessage, bool) {
	if c == nil {
		return nil, false
	}
	v, ok := c.items.Get(key)
	if !ok {
		return nil, false
	}
	entry := v.(cacheEntry)
	if c.now().Sub(entry.fetchedAt) > c.ttl {
		c.items.Remove(key)
		return nil, false
	}
	return entry.records, true
}

func (c *responseCache) put(key string, records []json.RawMessage) {
	if c == nil {
		return
	}
	c.items.Add(key, cacheEntry{records: records, fetchedAt: c.now()})
}
