package promostore

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/noah-isme/pricecompare-api/internal/promotion"
)

// SeedEntry is one promotion to load for a product/store pair.
type SeedEntry struct {
	ProductID           string     `yaml:"product_id"`
	StoreID             string     `yaml:"store_id"`
	ValidFrom           *time.Time `yaml:"valid_from,omitempty"`
	ValidTo             *time.Time `yaml:"valid_to,omitempty"`
	promotion.Promotion `yaml:",inline"`
}

// Key returns the entry's product/store pair.
func (e SeedEntry) Key() Key {
	return Key{ProductID: e.ProductID, StoreID: e.StoreID}
}

// seedNamespace scopes the IDs derived for seed entries without an explicit id.
var seedNamespace = uuid.MustParse("3b0f7c52-8e1d-4c6a-9f42-6d2a1e5b7c90")

// StableID derives the ID of an entry from its product, store and rule, so
// loading the same file twice updates rows instead of adding new ones.
func (e SeedEntry) StableID() string {
	var minQty string
	if e.MinQuantity != nil {
		minQty = e.MinQuantity.String()
	}
	name := strings.Join([]string{
		e.ProductID, e.StoreID, string(e.Type), e.Value.String(), minQty, e.RequiresCoupon,
	}, "|")
	return uuid.NewSHA1(seedNamespace, []byte(name)).String()
}

type seedFile struct {
	Promotions []SeedEntry `yaml:"promotions"`
}

// ParseSeed decodes a promotions file. Entries without an id get StableID:
//
//	promotions:
//	  - product_id: soda-2l
//	    store_id: rey-centro
//	    type: multi_buy
//	    value: "5"
//	    min_quantity: "3"
//	    status: verified
func ParseSeed(data []byte) ([]SeedEntry, error) {
	var file seedFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("decode promotions: %w", err)
	}
	for i := range file.Promotions {
		e := &file.Promotions[i]
		if !e.Key().Valid() {
			return nil, fmt.Errorf("promotion %d: product_id and store_id are required", i)
		}
		if !e.Type.Valid() {
			return nil, fmt.Errorf("promotion %d: %w: %q", i, promotion.ErrUnknownType, e.Type)
		}
		if e.ValidFrom != nil && e.ValidTo != nil && !e.ValidTo.After(*e.ValidFrom) {
			return nil, fmt.Errorf("promotion %d: valid_to must be after valid_from", i)
		}
		if e.ID == "" {
			e.ID = e.StableID()
			continue
		}
		id, err := uuid.Parse(e.ID)
		if err != nil {
			return nil, fmt.Errorf("promotion %d: id %q is not a UUID: %w", i, e.ID, err)
		}
		e.ID = id.String()
	}
	return file.Promotions, nil
}

// Upserter stores one promotion.
type Upserter interface {
	Upsert(ctx context.Context, key Key, p promotion.Promotion, window Window) (string, error)
}

// Seed upserts every entry and drops the cached promotions of each touched pair.
// It returns the stored IDs in input order.
func Seed(ctx context.Context, store Upserter, svc *Service, entries []SeedEntry) ([]string, error) {
	ids := make([]string, 0, len(entries))
	touched := make(map[Key]struct{})
	for i, e := range entries {
		p := e.Promotion
		if p.ID == "" {
			p.ID = e.StableID()
		}
		id, err := store.Upsert(ctx, e.Key(), p, Window{From: e.ValidFrom, To: e.ValidTo})
		if err != nil {
			return ids, fmt.Errorf("promotion %d: %w", i, err)
		}
		ids = append(ids, id)
		touched[e.Key()] = struct{}{}
	}
	for key := range touched {
		if err := svc.Invalidate(ctx, key); err != nil {
			return ids, fmt.Errorf("invalidate %s/%s: %w", key.StoreID, key.ProductID, err)
		}
	}
	return ids, nil
}
