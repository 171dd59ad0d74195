package threatintel

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "safewaters:verdict:"

// CachedVerdict is the small JSON blob stored per domain. The originating
// source is intentionally not stored: replayed entries report "Cache".
type CachedVerdict struct {
	Malicious bool   `json:"malicious"`
	Info      string `json:"info"`
}

// VerdictCache is a TTL key-value store of last-known verdicts by domain.
// A miss returns (nil, nil): absence is never a verdict, it sends the caller
// down the waterfall.
type VerdictCache interface {
	Get(ctx context.Context, domain string) (*CachedVerdict, error)
	Put(ctx context.Context, domain string, malicious bool, info string, ttl time.Duration) error
}

// RedisCache stores verdicts in Redis. Expiry is enforced by the store via
// per-key TTL, not by re-checking timestamps here.
type RedisCache struct {
	client *redis.Client
}

// NewRedisCache returns a RedisCache on the given client.
func NewRedisCache(client *redis.Client) *RedisCache {
	return &RedisCache{client: client}
}

func (c *RedisCache) Get(ctx context.Context, domain string) (*CachedVerdict, error) {
	raw, err := c.client.Get(ctx, redisKeyPrefix+domain).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("verdict cache get %q: %w", domain, err)
	}

	var cached CachedVerdict
	if err := json.Unmarshal([]byte(raw), &cached); err != nil {
		return nil, fmt.Errorf("verdict cache decode %q: %w", domain, err)
	}
	return &cached, nil
}

func (c *RedisCache) Put(ctx context.Context, domain string, malicious bool, info string, ttl time.Duration) error {
	data, err := json.Marshal(CachedVerdict{Malicious: malicious, Info: info})
	if err != nil {
		return fmt.Errorf("verdict cache encode %q: %w", domain, err)
	}
	if err := c.client.Set(ctx, redisKeyPrefix+domain, data, ttl).Err(); err != nil {
		return fmt.Errorf("verdict cache set %q: %w", domain, err)
	}
	return nil
}

type memoryEntry struct {
	value   CachedVerdict
	expires time.Time
}

// MemoryCache is an in-process VerdictCache used in development and tests
// when no Redis address is configured. Safe for concurrent use; overlapping
// writes for the same domain are last-write-wins.
type MemoryCache struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
}

// NewMemoryCache returns an empty MemoryCache.
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{entries: make(map[string]memoryEntry)}
}

func (c *MemoryCache) Get(_ context.Context, domain string) (*CachedVerdict, error) {
	c.mu.RLock()
	entry, ok := c.entries[domain]
	c.mu.RUnlock()

	if !ok || time.Now().After(entry.expires) {
		return nil, nil
	}
	value := entry.value
	return &value, nil
}

func (c *MemoryCache) Put(_ context.Context, domain string, malicious bool, info string, ttl time.Duration) error {
	c.mu.Lock()
	c.entries[domain] = memoryEntry{
		value:   CachedVerdict{Malicious: malicious, Info: info},
		expires: time.Now().Add(ttl),
	}
	c.mu.Unlock()
	return nil
}

// Sweep drops expired entries. Called periodically by the maintenance cron.
func (c *MemoryCache) Sweep() int {
	now := time.Now()
	removed := 0

	c.mu.Lock()
	for domain, entry := range c.entries {
		if now.After(entry.expires) {
			delete(c.entries, domain)
			removed++
		}
	}
	c.mu.Unlock()

	return removed
}
