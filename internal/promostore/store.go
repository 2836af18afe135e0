// Package promostore fetches the promotions offered for a product at a store.
// Promotions live in Postgres and are cached in Redis per product/store pair.
package promostore

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/noah-isme/pricecompare-api/internal/promotion"
)

// ErrNotConfigured is returned when no backing store is available.
var ErrNotConfigured = errors.New("promostore: not configured")

// Key identifies the product/store pair promotions are fetched for.
type Key struct {
	ProductID string
	StoreID   string
}

// Valid reports whether both parts are present.
func (k Key) Valid() bool {
	return strings.TrimSpace(k.ProductID) != "" && strings.TrimSpace(k.StoreID) != ""
}

// Querier reads promotions active at the given instant.
type Querier interface {
	ListPromotions(ctx context.Context, key Key, at time.Time) ([]promotion.Promotion, error)
}

// PGStore reads and writes promotions in Postgres.
type PGStore struct {
	pool *pgxpool.Pool
}

// NewPGStore wraps a pgx pool.
func NewPGStore(pool *pgxpool.Pool) *PGStore {
	return &PGStore{pool: pool}
}

const listPromotionsSQL = `
SELECT id::text, type, value::text, min_quantity::text, COALESCE(requires_coupon, ''),
       requires_loyalty_card, requires_companion_product, status, description
FROM promotions
WHERE product_id = $1 AND store_id = $2
  AND (valid_from IS NULL OR valid_from <= $3)
  AND (valid_to IS NULL OR valid_to > $3)
ORDER BY status = 'verified' DESC, created_at, id`

// ListPromotions implements Querier.
func (s *PGStore) ListPromotions(ctx context.Context, key Key, at time.Time) ([]promotion.Promotion, error) {
	if s == nil || s.pool == nil {
		return nil, ErrNotConfigured
	}
	rows, err := s.pool.Query(ctx, listPromotionsSQL, key.ProductID, key.StoreID, at)
	if err != nil {
		return nil, fmt.Errorf("list promotions: %w", err)
	}
	out, err := pgx.CollectRows(rows, scanPromotion)
	if err != nil {
		return nil, fmt.Errorf("scan promotions: %w", err)
	}
	return out, nil
}

func scanPromotion(row pgx.CollectableRow) (promotion.Promotion, error) {
	var (
		p      promotion.Promotion
		kind   string
		value  string
		minQty *string
		status string
	)
	if err := row.Scan(&p.ID, &kind, &value, &minQty, &p.RequiresCoupon,
		&p.RequiresLoyaltyCard, &p.RequiresCompanionProduct, &status, &p.Description); err != nil {
		return p, err
	}
	// Unknown types stay as-is so the calculator reports them as unsupported.
	p.Type = promotion.Type(kind)
	p.Status = promotion.Status(status)
	v, err := decimal.NewFromString(value)
	if err != nil {
		return p, fmt.Errorf("promotion %s value: %w", p.ID, err)
	}
	p.Value = v
	if minQty != nil {
		q, err := decimal.NewFromString(*minQty)
		if err != nil {
			return p, fmt.Errorf("promotion %s min quantity: %w", p.ID, err)
		}
		p.MinQuantity = &q
	}
	return p, nil
}

// Window bounds when a stored promotion is active. Nil ends are open.
type Window struct {
	From *time.Time
	To   *time.Time
}

const upsertPromotionSQL = `
INSERT INTO promotions (id, product_id, store_id, type, value, min_quantity, requires_coupon,
    requires_loyalty_card, requires_companion_product, status, description, valid_from, valid_to)
VALUES ($1, $2, $3, $4, $5::numeric, $6::numeric, NULLIF($7, ''), $8, $9, $10, $11, $12, $13)
ON CONFLICT (id) DO UPDATE SET
    product_id = EXCLUDED.product_id,
    store_id = EXCLUDED.store_id,
    type = EXCLUDED.type,
    value = EXCLUDED.value,
    min_quantity = EXCLUDED.min_quantity,
    requires_coupon = EXCLUDED.requires_coupon,
    requires_loyalty_card = EXCLUDED.requires_loyalty_card,
    requires_companion_product = EXCLUDED.requires_companion_product,
    status = EXCLUDED.status,
    description = EXCLUDED.description,
    valid_from = EXCLUDED.valid_from,
    valid_to = EXCLUDED.valid_to,
    updated_at = NOW()
RETURNING id::text`

// Upsert stores p for key, assigning a new ID when p.ID is empty. It returns the ID.
func (s *PGStore) Upsert(ctx context.Context, key Key, p promotion.Promotion, window Window) (string, error) {
	if s == nil || s.pool == nil {
		return "", ErrNotConfigured
	}
	if !key.Valid() {
		return "", errors.New("promostore: product and store are required")
	}
	if !p.Type.Valid() {
		return "", fmt.Errorf("%w: %q", promotion.ErrUnknownType, p.Type)
	}
	id := p.ID
	if id == "" {
		id = uuid.NewString()
	}
	status := p.Status
	if status == "" {
		status = promotion.Unverified
	}
	var minQty *string
	if p.MinQuantity != nil {
		q := p.MinQuantity.String()
		minQty = &q
	}
	var saved string
	err := s.pool.QueryRow(ctx, upsertPromotionSQL,
		id, key.ProductID, key.StoreID, string(p.Type), p.Value.String(), minQty, p.RequiresCoupon,
		p.RequiresLoyaltyCard, p.RequiresCompanionProduct, string(status), p.Description, window.From, window.To,
	).Scan(&saved)
	if err != nil {
		return "", fmt.Errorf("upsert promotion: %w", err)
	}
	return saved, nil
}

// Ping checks connectivity.
func (s *PGStore) Ping(ctx context.Context) error {
	if s == nil || s.pool == nil {
		return ErrNotConfigured
	}
	return s.pool.Ping(ctx)
}
