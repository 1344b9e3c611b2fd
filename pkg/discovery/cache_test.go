package discovery

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/CodeMonkeyCybersecurity/siteaudit/pkg/types"
)

func TestMemoryCacheRoundTrip(t *testing.T) {
	cache := NewMemoryCache()
	ctx := context.Background()
	opts := types.DiscoveryOptions{Query: "zahnarzt", Location: "berlin", TLD: ".de", MaxResults: 5}

	_, ok := cache.Get(ctx, opts)
	assert.False(t, ok)

	cache.Set(ctx, opts, []string{"a.de", "b.de"})
	got, ok := cache.Get(ctx, opts)
	assert.True(t, ok)
	assert.Equal(t, []string{"a.de", "b.de"}, got)
}

func TestCacheKeyCanonicalization(t *testing.T) {
	base := types.DiscoveryOptions{Query: "Zahnarzt", Location: "Berlin", TLD: "de", MaxResults: 5}

	// Case, whitespace and the TLD dot must not split cache entries.
	same := types.DiscoveryOptions{Query: " zahnarzt ", Location: "BERLIN", TLD: ".DE", MaxResults: 5}
	assert.Equal(t, cacheKey(base), cacheKey(same))

	differentQuery := base
	differentQuery.Query = "friseur"
	assert.NotEqual(t, cacheKey(base), cacheKey(differentQuery))

	differentLimit := base
	differentLimit.MaxResults = 10
	assert.NotEqual(t, cacheKey(base), cacheKey(differentLimit))
}

func TestMemoryCacheCopiesSlices(t *testing.T) {
	cache := NewMemoryCache()
	ctx := context.Background()
	opts := types.DiscoveryOptions{Query: "zahnarzt", TLD: ".de"}

	stored := []string{"a.de", "b.de"}
	cache.Set(ctx, opts, stored)
	stored[0] = "mutated.de"

	got, ok := cache.Get(ctx, opts)
	assert.True(t, ok)
	assert.Equal(t, "a.de", got[0])

	got[1] = "also-mutated.de"
	again, _ := cache.Get(ctx, opts)
	assert.Equal(t, "b.de", again[1])
}
