package handlers

import (
	"time"

	"golang.org/x/time/rate"

	"github.com/sonroyaalmerol/warden/internal/cache"
	"github.com/sonroyaalmerol/warden/internal/config"
)

// userLimiter keeps one token bucket per user. Buckets of users who went
// quiet for limiterTTL are dropped.
type userLimiter struct {
	limit rate.Limit
	burst int
	byKey *cache.TTL[*rate.Limiter]
}

const limiterTTL = 10 * time.Minute

// newUserLimiter returns nil when limiting is disabled.
func newUserLimiter(cfg config.RateConfig) *userLimiter {
	if cfg.PerMinute <= 0 {
		return nil
	}
	burst := cfg.Burst
	if burst <= 0 {
		burst = 1
	}
	return &userLimiter{
		limit: rate.Every(time.Minute / time.Duration(cfg.PerMinute)),
		burst: burst,
		byKey: cache.New[*rate.Limiter](limiterTTL),
	}
}

func (l *userLimiter) Allow(userID string) bool {
	if l == nil {
		return true
	}
	lim := l.byKey.GetOrSet(userID, func() *rate.Limiter {
		return rate.NewLimiter(l.limit, l.burst)
	})
	// refresh the TTL on activity
	l.byKey.Set(userID, lim)
	return lim.Allow()
}
