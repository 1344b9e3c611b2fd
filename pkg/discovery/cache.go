package discovery

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/twmb/murmur3"

	"github.com/CodeMonkeyCybersecurity/siteaudit/internal/logger"
	"github.com/CodeMonkeyCybersecurity/siteaudit/pkg/types"
)

// Cache stores finished discovery results keyed by the options that
// produced them. Implementations must be safe for concurrent use.
type Cache interface {
	Get(ctx context.Context, opts types.DiscoveryOptions) ([]string, bool)
	Set(ctx context.Context, opts types.DiscoveryOptions, domains []string)
}

// cacheKey canonicalizes options into a stable 128-bit hash. Field order
// is fixed and values lowercased so equivalent queries share an entry.
func cacheKey(opts types.DiscoveryOptions) string {
	canonical := strings.ToLower(strings.Join([]string{
		strings.TrimSpace(opts.Query),
		strings.TrimSpace(opts.Industry),
		strings.TrimSpace(opts.Location),
		normalizeTLD(opts.TLD),
		fmt.Sprintf("%d", opts.MaxResults),
	}, "|"))
	h1, h2 := murmur3.StringSum128(canonical)
	return fmt.Sprintf("discovery:%016x%016x", h1, h2)
}

// MemoryCache is the default process-local cache. Entries live for the
// lifetime of the process; discovery inputs are static business queries
// and staleness is acceptable.
type MemoryCache struct {
	mu      sync.RWMutex
	entries map[string][]string
}

func NewMemoryCache() *MemoryCache {
	return &MemoryCache{entries: make(map[string][]string)}
}

func (c *MemoryCache) Get(_ context.Context, opts types.DiscoveryOptions) ([]string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	domains, ok := c.entries[cacheKey(opts)]
	if !ok {
		return nil, false
	}
	out := make([]string, len(domains))
	copy(out, domains)
	return out, true
}

func (c *MemoryCache) Set(_ context.Context, opts types.DiscoveryOptions, domains []string) {
	stored := make([]string, len(domains))
	copy(stored, domains)
	c.mu.Lock()
	c.entries[cacheKey(opts)] = stored
	c.mu.Unlock()
}

// RedisCache shares discovery results across processes with a TTL.
// Cache failures are logged and treated as misses.
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
	log    *logger.Logger
}

func NewRedisCache(client *redis.Client, ttl time.Duration, log *logger.Logger) *RedisCache {
	return &RedisCache{client: client, ttl: ttl, log: log.WithComponent("discovery-cache")}
}

func (c *RedisCache) Get(ctx context.Context, opts types.DiscoveryOptions) ([]string, bool) {
	raw, err := c.client.Get(ctx, cacheKey(opts)).Bytes()
	if err != nil {
		if err != redis.Nil {
			c.log.Debugw("Redis cache read failed", "error", err)
		}
		return nil, false
	}
	var domains []string
	if err := json.Unmarshal(raw, &domains); err != nil {
		c.log.Debugw("Redis cache entry corrupt, ignoring", "error", err)
		return nil, false
	}
	return domains, true
}

func (c *RedisCache) Set(ctx context.Context, opts types.DiscoveryOptions, domains []string) {
	raw, err := json.Marshal(domains)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, cacheKey(opts), raw, c.ttl).Err(); err != nil {
		c.log.Debugw("Redis cache write failed", "error", err)
	}
}
