package promostore

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/noah-isme/pricecompare-api/internal/promotion"
)

// CacheObserver receives cache outcomes ("hit", "miss", "error").
type CacheObserver interface {
	ObserveCache(result string)
}

// Service serves promotions with a read-through cache.
type Service struct {
	queries  Querier
	cache    *Cache
	observer CacheObserver
	logger   zerolog.Logger
	now      func() time.Time
}

// ServiceConfig groups Service dependencies.
type ServiceConfig struct {
	Queries  Querier
	Cache    *Cache
	Observer CacheObserver
	Logger   zerolog.Logger
	Now      func() time.Time
}

// NewService builds a Service. Queries may be nil, in which case every lookup
// fails with ErrNotConfigured.
func NewService(cfg ServiceConfig) *Service {
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &Service{
		queries:  cfg.Queries,
		cache:    cfg.Cache,
		observer: cfg.Observer,
		logger:   cfg.Logger,
		now:      now,
	}
}

// Enabled reports whether a backing store is configured.
func (s *Service) Enabled() bool {
	return s != nil && s.queries != nil
}

// ForProduct returns the promotions currently offered for key. Cache failures are
// logged and fall through to the store.
func (s *Service) ForProduct(ctx context.Context, key Key) ([]promotion.Promotion, error) {
	if !s.Enabled() {
		return nil, ErrNotConfigured
	}
	ctx, span := otel.Tracer("promostore").Start(ctx, "promostore.ForProduct")
	defer span.End()
	span.SetAttributes(attribute.String("product.id", key.ProductID), attribute.String("store.id", key.StoreID))

	cacheKey := s.cache.Key(key)
	var cached []promotion.Promotion
	found, err := s.cache.GetJSON(ctx, cacheKey, &cached)
	switch {
	case err != nil:
		s.observe("error")
		s.logger.Warn().Err(err).Str("key", cacheKey).Msg("promotion cache read failed")
	case found:
		s.observe("hit")
		span.SetAttributes(attribute.Bool("cache.hit", true))
		return cached, nil
	default:
		s.observe("miss")
	}

	promos, err := s.queries.ListPromotions(ctx, key, s.now().UTC())
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "list promotions")
		return nil, err
	}
	if promos == nil {
		promos = []promotion.Promotion{}
	}
	if err := s.cache.SetJSON(ctx, cacheKey, promos); err != nil {
		s.logger.Warn().Err(err).Str("key", cacheKey).Msg("promotion cache write failed")
	}
	span.SetAttributes(attribute.Int("promotions.count", len(promos)))
	return promos, nil
}

// Invalidate drops the cached promotions for key.
func (s *Service) Invalidate(ctx context.Context, key Key) error {
	if s == nil {
		return nil
	}
	return s.cache.Delete(ctx, s.cache.Key(key))
}

func (s *Service) observe(result string) {
	if s.observer != nil {
		s.observer.ObserveCache(result)
	}
}
