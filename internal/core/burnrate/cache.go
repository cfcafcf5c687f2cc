package burnrate

import (
	"context"
	"fmt"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/hashicorp/golang-lru/v2"
)

// CacheConfig holds configuration for the burn-rate cache
type CacheConfig struct {
	// Size is the number of tokens to keep rates for
	Size int
}

// CachedTable memoizes burn rates of recently used tokens in front of a
// slower table. Rates do not change within a verification run, so entries
// are never invalidated; call Purge between runs against a changed chain.
type CachedTable struct {
	mu sync.Mutex

	source Table
	rates  *lru.Cache[common.Address, uint32]

	// Metrics
	hits   uint64
	misses uint64
}

// NewCachedTable creates a cache in front of source
func NewCachedTable(source Table, config CacheConfig) (*CachedTable, error) {
	if config.Size <= 0 {
		config.Size = 1024 // Default cache size
	}

	rates, err := lru.New[common.Address, uint32](config.Size)
	if err != nil {
		return nil, fmt.Errorf("creating burn rate cache: %w", err)
	}

	return &CachedTable{
		source: source,
		rates:  rates,
	}, nil
}

// GetBurnRate returns the cached rate, loading it from the source on a miss.
// Failed lookups are not cached.
func (c *CachedTable) GetBurnRate(ctx context.Context, token common.Address) (uint32, error) {
	c.mu.Lock()
	if rate, found := c.rates.Get(token); found {
		c.hits++
		c.mu.Unlock()
		return rate, nil
	}
	c.misses++
	c.mu.Unlock()

	rate, err := c.source.GetBurnRate(ctx, token)
	if err != nil {
		return 0, fmt.Errorf("burn rate of %s: %w", token.Hex(), err)
	}

	c.mu.Lock()
	c.rates.Add(token, rate)
	c.mu.Unlock()
	return rate, nil
}

// Purge drops every cached rate
func (c *CachedTable) Purge() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.rates.Purge()
}

// Stats returns cache hit and miss counts
func (c *CachedTable) Stats() (hits, misses uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.hits, c.misses
}

// Len returns the number of cached rates
func (c *CachedTable) Len() int {
	return c.rates.Len()
}
