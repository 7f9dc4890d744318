// Package balance derives pool balances from succeeded contributions,
// caching the sum briefly in Redis.
package balance

import (
	"log/slog"

	"github.com/cradoe/splitsy/internal/cache"
	"github.com/cradoe/splitsy/internal/repository"
	"github.com/shopspring/decimal"
)

type Reader struct {
	pools  repository.PoolRepository
	cache  cache.Cacher
	logger *slog.Logger
}

func NewReader(pools repository.PoolRepository, c cache.Cacher, logger *slog.Logger) *Reader {
	return &Reader{
		pools:  pools,
		cache:  c,
		logger: logger,
	}
}

// Balance never fails because of the cache; a broken cache only costs a query.
func (b *Reader) Balance(poolID string) (decimal.Decimal, error) {
	key := cache.PoolBalanceKey(poolID)

	var cached decimal.Decimal
	found, err := cache.GetJSON(b.cache, key, &cached)
	if err != nil {
		b.logger.Warn("balance cache read failed", "pool_id", poolID, "error", err)
	}
	if found && err == nil {
		return cached, nil
	}

	balance, err := b.pools.Balance(poolID)
	if err != nil {
		return decimal.Zero, err
	}

	if err := cache.SetJSON(b.cache, key, balance, cache.PoolBalanceTTL); err != nil {
		b.logger.Warn("balance cache write failed", "pool_id", poolID, "error", err)
	}

	return balance, nil
}

func (b *Reader) Invalidate(poolID string) {
	if err := b.cache.Delete(cache.PoolBalanceKey(poolID)); err != nil {
		b.logger.Warn("balance cache invalidation failed", "pool_id", poolID, "error", err)
	}
}
