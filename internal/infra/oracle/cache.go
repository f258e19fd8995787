package oracle

import (
	"context"
	"log/slog"
	"time"

	redisclient "github.com/vietddude/bridge-listener/internal/infra/redis"
)

// CachedOracle puts a shared Redis cache in front of another oracle.
// Cache failures degrade to a direct lookup; they are never fatal.
type CachedOracle struct {
	inner Oracle
	cache *redisclient.Client
	ttl   time.Duration
}

// NewCachedOracle wraps inner with a Redis-backed cache.
func NewCachedOracle(inner Oracle, cache *redisclient.Client, ttl time.Duration) *CachedOracle {
	return &CachedOracle{
		inner: inner,
		cache: cache,
		ttl:   ttl,
	}
}

// GetPrice serves from cache when possible, otherwise fetches and caches.
func (o *CachedOracle) GetPrice(ctx context.Context, tokenAddress string) (float64, error) {
	price, found, err := o.cache.GetPrice(ctx, tokenAddress)
	if err != nil {
		slog.Warn("Price cache read failed", "token", tokenAddress, "error", err)
	} else if found {
		return price, nil
	}

	price, err = o.inner.GetPrice(ctx, tokenAddress)
	if err != nil {
		return 0, err
	}

	if err := o.cache.SetPrice(ctx, tokenAddress, price, o.ttl); err != nil {
		slog.Warn("Price cache write failed", "token", tokenAddress, "error", err)
	}
	return price, nil
}
