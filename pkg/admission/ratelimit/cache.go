package ratelimit

import (
	"sync"
	"time"

	"docforge-hq/warden/pkg/admission/storage"
)

// settingsCache is the per-user settings cache on the resolution hot path.
//
// An entry lives until the earlier of its absolute expiry (TTL from insert)
// and its sliding expiry (TTL/2 from last access). Each hit pushes the
// sliding expiry forward but never past the absolute ceiling, so a hot user
// still re-reads ground truth at least once per TTL.
type settingsCache struct {
	mu      sync.Mutex
	entries map[string]*cacheEntry
	ttl     time.Duration
}

type cacheEntry struct {
	settings       *storage.RateLimitSettings
	absoluteExpiry time.Time
	slidingExpiry  time.Time
}

func newSettingsCache(ttl time.Duration) *settingsCache {
	return &settingsCache{
		entries: make(map[string]*cacheEntry),
		ttl:     ttl,
	}
}

// get returns the cached settings for a user, renewing the sliding expiry on
// a hit. Expired entries are dropped eagerly.
func (c *settingsCache) get(userID string, now time.Time) (*storage.RateLimitSettings, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[userID]
	if !ok {
		return nil, false
	}
	if !now.Before(entry.absoluteExpiry) || !now.Before(entry.slidingExpiry) {
		delete(c.entries, userID)
		return nil, false
	}

	sliding := now.Add(c.ttl / 2)
	if sliding.After(entry.absoluteExpiry) {
		sliding = entry.absoluteExpiry
	}
	entry.slidingExpiry = sliding

	return entry.settings, true
}

// put caches a settings row for a user.
func (c *settingsCache) put(userID string, settings *storage.RateLimitSettings, now time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()

	absolute := now.Add(c.ttl)
	sliding := now.Add(c.ttl / 2)
	c.entries[userID] = &cacheEntry{
		settings:       settings,
		absoluteExpiry: absolute,
		slidingExpiry:  sliding,
	}
}

// evict drops one user's entry so the next resolution re-reads ground truth.
func (c *settingsCache) evict(userID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, userID)
}

// flush drops every entry.
func (c *settingsCache) flush() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]*cacheEntry)
}

// size returns the number of cached entries.
func (c *settingsCache) size() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
