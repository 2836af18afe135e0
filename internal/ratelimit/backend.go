package ratelimit

import (
	"fmt"
	"strings"

	"github.com/redis/go-redis/v9"
	limiter "github.com/ulule/limiter/v3"
	"github.com/ulule/limiter/v3/drivers/store/memory"
	limiterredis "github.com/ulule/limiter/v3/drivers/store/redis"
)

// Strategy names accepted by NewBackend.
const (
	StrategySliding = "sliding"
	StrategyFixed   = "fixed"
	StrategyOff     = "off"
)

// NewBackend picks a Backend for strategy. The sliding window needs Redis; without
// a client it degrades to an in-memory fixed window. The returned name is the
// strategy actually in effect. StrategyOff yields a nil Backend.
func NewBackend(strategy string, client *redis.Client, prefix string) (Backend, string, error) {
	switch strings.ToLower(strings.TrimSpace(strategy)) {
	case StrategyOff:
		return nil, StrategyOff, nil
	case "", StrategySliding:
		if client != nil {
			return Limiter{Client: client, Prefix: prefix}, StrategySliding, nil
		}
		return FixedWindow{Store: memory.NewStoreWithOptions(limiter.StoreOptions{Prefix: prefix})}, StrategyFixed, nil
	case StrategyFixed:
		if client == nil {
			return FixedWindow{Store: memory.NewStoreWithOptions(limiter.StoreOptions{Prefix: prefix})}, StrategyFixed, nil
		}
		store, err := limiterredis.NewStoreWithOptions(client, limiter.StoreOptions{Prefix: prefix})
		if err != nil {
			return nil, "", fmt.Errorf("ratelimit: redis store: %w", err)
		}
		return FixedWindow{Store: store}, StrategyFixed, nil
	default:
		return nil, "", fmt.Errorf("ratelimit: unknown strategy %q", strategy)
	}
}
