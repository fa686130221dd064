// Package cache persists normalized addresses keyed by address id so that an
// address is sent to the oracle at most once across runs.
package cache

import (
	"context"
	"strings"
	"time"

	"github.com/bpmigrate/internal/derive"
	"github.com/bpmigrate/internal/model"
)

// Cache is an insertion-ordered map of cache entries.
type Cache struct {
	entries map[string]model.CacheEntry
	order   []string
}

func New() *Cache {
	return &Cache{entries: map[string]model.CacheEntry{}}
}

// Get returns the entry for id.
func (c *Cache) Get(id string) (model.CacheEntry, bool) {
	e, ok := c.entries[id]
	return e, ok
}

// Put inserts or replaces an entry. Entries without an address id are ignored.
func (c *Cache) Put(e model.CacheEntry) {
	e.AddressID = strings.TrimSpace(e.AddressID)
	if e.AddressID == "" {
		return
	}
	if _, ok := c.entries[e.AddressID]; !ok {
		c.order = append(c.order, e.AddressID)
	}
	c.entries[e.AddressID] = e
}

func (c *Cache) Len() int { return len(c.order) }

// Entries returns every entry in insertion order.
func (c *Cache) Entries() []model.CacheEntry {
	out := make([]model.CacheEntry, 0, len(c.order))
	for _, id := range c.order {
		out = append(out, c.entries[id])
	}
	return out
}

// snapshot orders entries for a save: the batch first, then everything else,
// with country codes converted and every entry stamped with now.
func (c *Cache) snapshot(batch []string, now time.Time) []model.CacheEntry {
	out := make([]model.CacheEntry, 0, len(c.order))
	seen := make(map[string]bool, len(batch))
	for _, id := range batch {
		e, ok := c.entries[id]
		if !ok || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, stamp(e, now))
	}
	for _, id := range c.order {
		if !seen[id] {
			out = append(out, stamp(c.entries[id], now))
		}
	}
	return out
}

func stamp(e model.CacheEntry, now time.Time) model.CacheEntry {
	e.Country = derive.CountryCode(e.Country)
	e.LastUpdated = now
	return e
}

// Store loads and saves a Cache.
type Store interface {
	Load(ctx context.Context) (*Cache, error)
	// Save persists the cache. batch lists the address ids resolved by the
	// current normalization call.
	Save(ctx context.Context, c *Cache, batch []string) error
	Close() error
}
