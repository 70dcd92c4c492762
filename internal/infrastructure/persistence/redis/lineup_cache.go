package redis

import (
	"context"
	"errors"
	"time"

	"github.com/scrimhub/scrim-lineup/internal/domain/lineup"
	"github.com/scrimhub/scrim-lineup/internal/domain/shared"
	"github.com/scrimhub/scrim-lineup/pkg/circuitbreaker"
	"github.com/scrimhub/scrim-lineup/pkg/retry"
)

// ══════════════════════════════════════════════════════════════════════════════
// LINEUP CACHE
// ══════════════════════════════════════════════════════════════════════════════

// LineupCache implements lineup.LineupCache. Calls go through a breaker so a
// Redis outage costs one fast failure per request instead of a dial timeout.
type LineupCache struct {
	cache   *Cache
	breaker *circuitbreaker.CircuitBreaker
	retrier *retry.Retrier
}

// NewLineupCache wraps cache. onStateChange may be nil.
func NewLineupCache(cache *Cache, onStateChange func(name string, from, to circuitbreaker.State)) *LineupCache {
	return &LineupCache{
		cache:   cache,
		breaker: circuitbreaker.CacheBreaker(onStateChange),
		retrier: retry.CacheRetrier(isTransientCacheError),
	}
}

var _ lineup.LineupCache = (*LineupCache)(nil)

// LineupKey returns the Redis key of a saved lineup.
func LineupKey(name shared.LineupName) string {
	return PrefixLineup + name.String()
}

// Get returns (lineup, true, nil) on hit and (zero, false, nil) on miss.
func (c *LineupCache) Get(ctx context.Context, name shared.LineupName) (lineup.SavedLineup, bool, error) {
	var (
		saved lineup.SavedLineup
		hit   bool
	)
	err := c.breaker.Execute(ctx, func(ctx context.Context) error {
		return c.retrier.Do(ctx, func(ctx context.Context) error {
			err := c.cache.Get(ctx, LineupKey(name), &saved)
			switch {
			case err == nil:
				hit = true
				return nil
			case errors.Is(err, ErrCacheMiss):
				return nil
			}
			return err
		})
	})
	if err != nil {
		return lineup.SavedLineup{}, false, err
	}
	return saved, hit, nil
}

// Set stores the lineup. A non-positive ttl uses TTLLineupCache.
func (c *LineupCache) Set(ctx context.Context, l lineup.SavedLineup, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = TTLLineupCache
	}
	return c.breaker.Execute(ctx, func(ctx context.Context) error {
		return c.cache.Set(ctx, LineupKey(l.Name), l, ttl)
	})
}

// Delete evicts the lineup.
func (c *LineupCache) Delete(ctx context.Context, name shared.LineupName) error {
	return c.breaker.Execute(ctx, func(ctx context.Context) error {
		return c.retrier.Do(ctx, func(ctx context.Context) error {
			return c.cache.Delete(ctx, LineupKey(name))
		})
	})
}

// BreakerState exposes the breaker state for readiness reporting.
func (c *LineupCache) BreakerState() circuitbreaker.State {
	return c.breaker.State()
}

func isTransientCacheError(err error) bool {
	return !errors.Is(err, ErrCacheSerialization) &&
		!errors.Is(err, ErrCacheKeyEmpty) &&
		!errors.Is(err, context.Canceled)
}
