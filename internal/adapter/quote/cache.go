package quote

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"

	"github.com/yuchinglo/trifolio-backend/internal/usecase/marketvalue"
)

// CachedProvider wraps a QuoteProvider with a Redis read-through cache.
// Quotes live for a bounded TTL; a cache failure falls through to the
// inner provider so caching never turns a good quote into a bad one.
type CachedProvider struct {
	inner marketvalue.QuoteProvider
	rdb   *redis.Client
	ttl   time.Duration
}

// NewCachedProvider creates a cached wrapper around a quote provider
func NewCachedProvider(inner marketvalue.QuoteProvider, rdb *redis.Client, ttl time.Duration) *CachedProvider {
	return &CachedProvider{
		inner: inner,
		rdb:   rdb,
		ttl:   ttl,
	}
}

// GetPrice checks the cache first, then falls back to the inner provider
// and populates the cache on success
func (p *CachedProvider) GetPrice(ctx context.Context, symbol string) (decimal.Decimal, error) {
	key := quoteKey(symbol)

	if cached, err := p.rdb.Get(ctx, key).Result(); err == nil {
		if price, err := decimal.NewFromString(cached); err == nil {
			return price, nil
		}
	}

	price, err := p.inner.GetPrice(ctx, symbol)
	if err != nil {
		return decimal.Zero, err
	}

	p.rdb.Set(ctx, key, price.String(), p.ttl)
	return price, nil
}

func quoteKey(symbol string) string { return fmt.Sprintf("quote:%s", symbol) }
