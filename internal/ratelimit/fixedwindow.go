package ratelimit

import (
	"context"
	"time"

	limiter "github.com/ulule/limiter/v3"
)

// FixedWindow counts events per fixed period using a ulule/limiter store, either
// in memory or in Redis.
type FixedWindow struct {
	Store limiter.Store
}

// Allow implements Backend.
func (f FixedWindow) Allow(ctx context.Context, key string, window time.Duration, max int) (allowed bool, remaining int, reset time.Time, err error) {
	if f.Store == nil || max <= 0 || window <= 0 {
		return true, max, time.Now().Add(window), nil
	}
	lctx, err := f.Store.Get(ctx, key, limiter.Rate{Period: window, Limit: int64(max)})
	if err != nil {
		return false, 0, time.Now().Add(window), err
	}
	return !lctx.Reached, int(lctx.Remaining), time.Unix(lctx.Reset, 0), nil
}
