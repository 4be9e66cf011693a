// Package cache provides a small in-memory TTL cache for track titles
// resolved from external metadata endpoints.
package cache

import (
	"sync"
	"time"
)

const (
	titleTTL      = 30 * time.Minute
	sweepInterval = 5 * time.Minute
)

type titleEntry struct {
	title     string
	expiresAt time.Time
}

// TitleCache remembers track titles keyed by the pasted URL. The oEmbed
// endpoints behind it are best-effort and rate-limited upstream, so pasting
// the same URL twice should not refetch.
type TitleCache struct {
	mu      sync.RWMutex
	entries map[string]titleEntry
}

// NewTitleCache creates the cache and starts its background sweep.
func NewTitleCache() *TitleCache {
	tc := &TitleCache{
		entries: make(map[string]titleEntry),
	}

	go tc.sweep()

	return tc
}

// SetTitle caches the title resolved for a track URL.
func (tc *TitleCache) SetTitle(url, title string) {
	tc.mu.Lock()
	defer tc.mu.Unlock()

	tc.entries[url] = titleEntry{
		title:     title,
		expiresAt: time.Now().Add(titleTTL),
	}
}

// GetTitle retrieves a cached title for a track URL. Expired entries read
// as missing even before the sweep collects them.
func (tc *TitleCache) GetTitle(url string) (string, bool) {
	tc.mu.RLock()
	defer tc.mu.RUnlock()

	entry, exists := tc.entries[url]
	if !exists || time.Now().After(entry.expiresAt) {
		return "", false
	}

	return entry.title, true
}

// Size returns the number of cached titles, expired ones included.
func (tc *TitleCache) Size() int {
	tc.mu.RLock()
	defer tc.mu.RUnlock()

	return len(tc.entries)
}

// sweep removes expired entries periodically.
func (tc *TitleCache) sweep() {
	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()

	for range ticker.C {
		now := time.Now()

		tc.mu.Lock()
		for url, entry := range tc.entries {
			if now.After(entry.expiresAt) {
				delete(tc.entries, url)
			}
		}
		tc.mu.Unlock()
	}
}
