package fetch

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/pfrederiksen/concert-calendar/internal/logger"
)

// DefaultCacheTTL matches the hour-long reuse window used during development runs
const DefaultCacheTTL = time.Hour

// CachedResponse is one stored page body
type CachedResponse struct {
	Body     string    `json:"body"`
	CachedAt time.Time `json:"cached_at"`
}

// ResponseCache stores successful page bodies by URL with a TTL
type ResponseCache struct {
	mu      sync.Mutex
	Entries map[string]*CachedResponse `json:"entries"` // URL → response
	TTL     time.Duration              `json:"-"`       // Cache TTL (not serialized)
	now     func() time.Time
}

// NewResponseCache creates an empty cache; ttl <= 0 uses DefaultCacheTTL
func NewResponseCache(ttl time.Duration) *ResponseCache {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &ResponseCache{
		Entries: make(map[string]*CachedResponse),
		TTL:     ttl,
		now:     time.Now,
	}
}

// LoadResponseCache reads a cache file, returning an empty cache when it does not exist
func LoadResponseCache(path string, ttl time.Duration) (*ResponseCache, error) {
	cache := NewResponseCache(ttl)

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cache, nil
		}
		return nil, fmt.Errorf("reading cache: %w", err)
	}

	if err := json.Unmarshal(data, cache); err != nil {
		return nil, fmt.Errorf("parsing cache: %w", err)
	}
	if cache.Entries == nil {
		cache.Entries = make(map[string]*CachedResponse)
	}
	cache.CleanExpired()
	return cache, nil
}

// Save writes the cache to disk, dropping expired entries first
func (c *ResponseCache) Save(path string) error {
	c.CleanExpired()

	c.mu.Lock()
	data, err := json.Marshal(c)
	c.mu.Unlock()
	if err != nil {
		return fmt.Errorf("encoding cache: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating cache directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing cache: %w", err)
	}
	return nil
}

// Get returns a cached body if present and not expired
func (c *ResponseCache) Get(url string) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, exists := c.Entries[url]
	if !exists {
		return "", false
	}

	if c.now().Sub(entry.CachedAt) > c.TTL {
		delete(c.Entries, url)
		return "", false
	}

	return entry.Body, true
}

// Set stores a body
func (c *ResponseCache) Set(url, body string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Entries[url] = &CachedResponse{Body: body, CachedAt: c.now()}
}

// CleanExpired removes expired entries from cache
func (c *ResponseCache) CleanExpired() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	removed := 0
	now := c.now()
	for url, entry := range c.Entries {
		if now.Sub(entry.CachedAt) > c.TTL {
			delete(c.Entries, url)
			removed++
		}
	}
	return removed
}

// Size returns the number of cached entries
func (c *ResponseCache) Size() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.Entries)
}

// CachingFetcher serves repeated requests from a ResponseCache.
// Failures are never cached, so the wrapped fetcher's error contract is unchanged.
type CachingFetcher struct {
	next  Fetcher
	cache *ResponseCache
}

// NewCachingFetcher wraps next with cache
func NewCachingFetcher(next Fetcher, cache *ResponseCache) *CachingFetcher {
	return &CachingFetcher{next: next, cache: cache}
}

// Fetch returns the cached body or delegates to the wrapped fetcher
func (f *CachingFetcher) Fetch(ctx context.Context, r Request) (string, error) {
	if body, ok := f.cache.Get(r.URL); ok {
		logger.Debug("Cache hit", logger.Fields{"url": r.URL})
		return body, nil
	}

	body, err := f.next.Fetch(ctx, r)
	if err != nil {
		return "", err
	}

	f.cache.Set(r.URL, body)
	return body, nil
}

// Cache returns the underlying cache
func (f *CachingFetcher) Cache() *ResponseCache {
	return f.cache
}
