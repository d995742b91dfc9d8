// Package freight resolves delivery fees from the region rate table. A fee
// is the region's base rate plus optional weight and volume components, so
// heavy or bulky orders pay their real transport cost.
package freight

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/lmcorreia/backend-pedidos/internal/common"
	"github.com/lmcorreia/backend-pedidos/internal/obs"
	"github.com/lmcorreia/backend-pedidos/internal/pricing"
)

// Rate is one row of the region rate table.
type Rate struct {
	Region  string          `json:"region"`
	Carrier string          `json:"carrier"`
	BaseFee decimal.Decimal `json:"baseFee"`
	PerKg   decimal.Decimal `json:"perKg"`
	PerM3   decimal.Decimal `json:"perM3"`
	Active  bool            `json:"active"`
}

// Load is the physical totals of an order, used for the variable components.
type Load struct {
	WeightKg decimal.Decimal
	VolumeM3 decimal.Decimal
}

// Store abstracts rate persistence.
type Store interface {
	GetRate(ctx context.Context, region string) (Rate, error)
	ListRates(ctx context.Context) ([]Rate, error)
	UpsertRate(ctx context.Context, r Rate) error
}

// Service quotes delivery fees.
type Service struct {
	Store Store
	Cache *Cache
}

const regionsCacheKey = "freight:regions"

func rateCacheKey(region string) string {
	return "freight:rate:" + region
}

// Regions lists the active rate table for region pickers.
func (s *Service) Regions(ctx context.Context) ([]Rate, error) {
	if s.Cache != nil {
		var cached []Rate
		if ok, err := s.Cache.GetJSON(ctx, regionsCacheKey, &cached); err == nil && ok {
			return cached, nil
		}
	}
	rates, err := s.Store.ListRates(ctx)
	if err != nil {
		return nil, fmt.Errorf("list freight rates: %w", err)
	}
	if s.Cache != nil {
		_ = s.Cache.SetJSON(ctx, regionsCacheKey, rates)
	}
	return rates, nil
}

// UpsertRate stores one rate row and drops whatever the caches held for it.
func (s *Service) UpsertRate(ctx context.Context, r Rate) (Rate, error) {
	r.Region = strings.TrimSpace(r.Region)
	if r.Region == "" {
		return Rate{}, common.Validation("region is required", nil)
	}
	if r.BaseFee.IsNegative() || r.PerKg.IsNegative() || r.PerM3.IsNegative() {
		return Rate{}, common.Validation("rate components must not be negative", nil)
	}
	if err := s.Store.UpsertRate(ctx, r); err != nil {
		return Rate{}, fmt.Errorf("upsert freight rate: %w", err)
	}
	if s.Cache != nil {
		_ = s.Cache.Del(ctx, regionsCacheKey, rateCacheKey(r.Region))
	}
	return r, nil
}

// Quote resolves the delivery option for a region and order load. An
// unknown or inactive region is a user-facing error: the salesperson picked
// a destination the table cannot serve.
func (s *Service) Quote(ctx context.Context, region string, load Load) (pricing.Delivery, error) {
	region = strings.TrimSpace(region)
	if region == "" {
		return pricing.Delivery{}, common.Validation("delivery region is required", nil)
	}
	rate, err := s.rate(ctx, region)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			recordQuote(region, "unknown_region")
			return pricing.Delivery{}, common.NotFound("freight rate")
		}
		recordQuote(region, "error")
		return pricing.Delivery{}, fmt.Errorf("get freight rate: %w", err)
	}
	if !rate.Active {
		recordQuote(region, "inactive")
		return pricing.Delivery{}, common.Validation("region is not currently served", map[string]any{"region": region})
	}

	fee := rate.BaseFee
	if rate.PerKg.IsPositive() && load.WeightKg.IsPositive() {
		fee = fee.Add(rate.PerKg.Mul(load.WeightKg))
	}
	if rate.PerM3.IsPositive() && load.VolumeM3.IsPositive() {
		fee = fee.Add(rate.PerM3.Mul(load.VolumeM3))
	}
	recordQuote(region, "ok")
	return pricing.Delivery{Region: rate.Region, Carrier: rate.Carrier, Fee: fee}, nil
}

func (s *Service) rate(ctx context.Context, region string) (Rate, error) {
	key := rateCacheKey(region)
	if s.Cache != nil {
		var cached Rate
		if ok, err := s.Cache.GetJSON(ctx, key, &cached); err == nil && ok {
			return cached, nil
		}
	}
	rate, err := s.Store.GetRate(ctx, region)
	if err != nil {
		return Rate{}, err
	}
	if s.Cache != nil {
		_ = s.Cache.SetJSON(ctx, key, rate)
	}
	return rate, nil
}

// OrderLoad sums the physical totals of a set of priced lines against their
// catalog records.
func OrderLoad(lines []pricing.Line, products map[string]pricing.Product) Load {
	var load Load
	for _, ln := range lines {
		p, ok := products[ln.ProductID]
		if !ok {
			continue
		}
		load.WeightKg = load.WeightKg.Add(p.WeightKg.Mul(ln.Quantity))
		load.VolumeM3 = load.VolumeM3.Add(p.VolumeM3.Mul(ln.Quantity))
	}
	return load
}

func recordQuote(region, result string) {
	if obs.FreightQuoteTotal != nil {
		obs.FreightQuoteTotal.WithLabelValues(region, result).Inc()
	}
}
