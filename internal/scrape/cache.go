package scrape

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// CachedPage is a previously fetched document with its origin validators.
// The fetcher replays the validators on the next request for the same URL
// and serves HTML from here when the origin answers 304.
type CachedPage struct {
	HTML         string `json:"html"`
	ETag         string `json:"etag,omitempty"`
	LastModified string `json:"last_modified,omitempty"`
}

// ValidatorCache stores fetched pages keyed by URL for conditional requests.
// A miss returns (nil, nil).
type ValidatorCache interface {
	Get(ctx context.Context, url string) (*CachedPage, error)
	Set(ctx context.Context, url string, page *CachedPage) error
}

const (
	cacheKeyPrefix = "wikiquiz:http:"
	cacheTTL       = 24 * time.Hour
)

// RedisCache is a ValidatorCache backed by Redis.
type RedisCache struct {
	client *redis.Client
}

// NewRedisCache connects to Redis and verifies the connection.
func NewRedisCache(addr, password string) (*RedisCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}

	return &RedisCache{client: client}, nil
}

func (c *RedisCache) Get(ctx context.Context, url string) (*CachedPage, error) {
	raw, err := c.client.Get(ctx, cacheKeyPrefix+url).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var page CachedPage
	if err := json.Unmarshal(raw, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

func (c *RedisCache) Set(ctx context.Context, url string, page *CachedPage) error {
	raw, err := json.Marshal(page)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, cacheKeyPrefix+url, raw, cacheTTL).Err()
}

// Close releases the Redis connection.
func (c *RedisCache) Close() error {
	return c.client.Close()
}

// MemoryCache is a bounded in-process ValidatorCache used when Redis is not
// configured, and in tests.
type MemoryCache struct {
	mu         sync.Mutex
	pages      map[string]*CachedPage
	order      []string
	maxEntries int
}

// NewMemoryCache creates a MemoryCache holding at most maxEntries pages.
func NewMemoryCache(maxEntries int) *MemoryCache {
	if maxEntries <= 0 {
		maxEntries = 128
	}
	return &MemoryCache{
		pages:      make(map[string]*CachedPage),
		maxEntries: maxEntries,
	}
}

func (c *MemoryCache) Get(_ context.Context, url string) (*CachedPage, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pages[url], nil
}

func (c *MemoryCache) Set(_ context.Context, url string, page *CachedPage) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.pages[url]; !exists {
		c.order = append(c.order, url)
		// Evict oldest insertions past capacity.
		for len(c.order) > c.maxEntries {
			evict := c.order[0]
			c.order = c.order[1:]
			delete(c.pages, evict)
		}
	}
	c.pages[url] = page
	return nil
}
