package catalog

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/lmcorreia/backend-pedidos/internal/common"
	"github.com/lmcorreia/backend-pedidos/internal/obs"
	"github.com/lmcorreia/backend-pedidos/internal/pricing"
)

// Product is the catalog entity: commercial identity plus the fiscal
// parameters the pricing engine reads. MVA is nullable; products without
// one fall back to the deployment default at pricing time.
type Product struct {
	ID             string           `json:"id"`
	Name           string           `json:"name"`
	SKU            string           `json:"sku"`
	ListPrice      decimal.Decimal  `json:"listPrice"`
	MVA            *decimal.Decimal `json:"mva,omitempty"`
	UnitsPerVolume decimal.Decimal  `json:"unitsPerVolume"`
	IPIExempt      bool             `json:"ipiExempt"`
	WeightKg       decimal.Decimal  `json:"weightKg"`
	VolumeM3       decimal.Decimal  `json:"volumeM3"`
	Active         bool             `json:"active"`
}

// ToPricing converts the catalog entity to the engine's read model.
func (p Product) ToPricing() pricing.Product {
	out := pricing.Product{
		ID:             p.ID,
		Name:           p.Name,
		ListPrice:      p.ListPrice,
		UnitsPerVolume: p.UnitsPerVolume,
		IPIExempt:      p.IPIExempt,
		WeightKg:       p.WeightKg,
		VolumeM3:       p.VolumeM3,
	}
	if p.MVA != nil {
		out.MVA = *p.MVA
	}
	return out
}

// ListParams captures filters for product listing.
type ListParams struct {
	Query string
	Page  int
	Limit int
}

// ProductListResult contains list data and pagination metadata.
type ProductListResult struct {
	Items []Product
	Total int64
	Page  int
	Limit int
}

// Service orchestrates product queries, caching, and the pricing bridge.
type Service struct {
	store        Store
	cache        *Cache
	defaultPage  int
	defaultLimit int
	maxLimit     int
}

// ServiceConfig groups Service dependencies.
type ServiceConfig struct {
	Store        Store
	Cache        *Cache
	DefaultPage  int
	DefaultLimit int
	MaxLimit     int
}

// NewService constructs a Service instance.
func NewService(cfg ServiceConfig) (*Service, error) {
	if cfg.Store == nil {
		return nil, errors.New("catalog: store is required")
	}
	defaultPage := cfg.DefaultPage
	if defaultPage < 1 {
		defaultPage = 1
	}
	defaultLimit := cfg.DefaultLimit
	if defaultLimit < 1 {
		defaultLimit = 20
	}
	maxLimit := cfg.MaxLimit
	if maxLimit < 1 {
		maxLimit = 100
	}
	if defaultLimit > maxLimit {
		defaultLimit = maxLimit
	}
	return &Service{
		store:        cfg.Store,
		cache:        cfg.Cache,
		defaultPage:  defaultPage,
		defaultLimit: defaultLimit,
		maxLimit:     maxLimit,
	}, nil
}

// ParseListParams normalises raw query values into strongly typed filters.
func (s *Service) ParseListParams(values url.Values) (ListParams, error) {
	params := ListParams{
		Page:  s.defaultPage,
		Limit: s.defaultLimit,
	}
	params.Query = strings.TrimSpace(values.Get("q"))

	if v := strings.TrimSpace(values.Get("page")); v != "" {
		page, err := strconv.Atoi(v)
		if err != nil || page < 1 {
			return params, badRequest("page", "page must be a positive integer", err)
		}
		params.Page = page
	}

	limit := s.defaultLimit
	if v := strings.TrimSpace(values.Get("limit")); v != "" {
		l, err := strconv.Atoi(v)
		if err != nil || l < 1 {
			return params, badRequest("limit", "limit must be a positive integer", err)
		}
		limit = l
	}
	if limit > s.maxLimit {
		limit = s.maxLimit
	}
	params.Limit = limit
	return params, nil
}

// ListProducts returns the filtered product list with pagination metadata.
// Only the unfiltered first page is cached; it is the screen the sales team
// keeps open all day.
func (s *Service) ListProducts(ctx context.Context, params ListParams) (ProductListResult, error) {
	key, cacheable := s.listCacheKey(params)
	if cacheable && s.cache != nil {
		var cached cachedList
		ok, err := s.cache.GetJSON(ctx, key, &cached)
		if err == nil && ok {
			recordCache("hit")
			return ProductListResult{Items: cached.Items, Total: cached.Total, Page: params.Page, Limit: params.Limit}, nil
		}
		recordCache("miss")
	}

	total, err := s.store.CountProducts(ctx, params)
	if err != nil {
		return ProductListResult{}, err
	}
	items, err := s.store.ListProducts(ctx, params)
	if err != nil {
		return ProductListResult{}, err
	}
	result := ProductListResult{Items: items, Total: total, Page: params.Page, Limit: params.Limit}
	if cacheable && s.cache != nil {
		_ = s.cache.SetJSON(ctx, key, cachedList{Items: items, Total: total})
	}
	return result, nil
}

// GetProduct returns one product by id.
func (s *Service) GetProduct(ctx context.Context, id string) (Product, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return Product{}, badRequest("id", "product id is required", nil)
	}
	cacheKey := detailCacheKey(id)
	if s.cache != nil {
		var cached Product
		ok, err := s.cache.GetJSON(ctx, cacheKey, &cached)
		if err == nil && ok {
			recordCache("hit")
			return cached, nil
		}
		recordCache("miss")
	}
	product, err := s.store.GetProduct(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Product{}, &common.AppError{Code: "NOT_FOUND", Message: "product not found", HTTPStatus: http.StatusNotFound, Err: err}
		}
		return Product{}, fmt.Errorf("get product: %w", err)
	}
	if s.cache != nil {
		_ = s.cache.SetJSON(ctx, cacheKey, product)
	}
	return product, nil
}

// UpsertProduct stores a product and invalidates the caches it may sit in.
// A blank id creates a new product.
func (s *Service) UpsertProduct(ctx context.Context, p Product) (Product, error) {
	p.Name = strings.TrimSpace(p.Name)
	p.SKU = strings.TrimSpace(p.SKU)
	if p.Name == "" {
		return Product{}, badRequest("name", "name is required", nil)
	}
	if p.SKU == "" {
		return Product{}, badRequest("sku", "sku is required", nil)
	}
	if p.ListPrice.IsNegative() {
		return Product{}, badRequest("listPrice", "listPrice must not be negative", nil)
	}
	if p.MVA != nil && p.MVA.IsNegative() {
		return Product{}, badRequest("mva", "mva must not be negative", nil)
	}
	if p.UnitsPerVolume.Sign() <= 0 {
		p.UnitsPerVolume = decimal.NewFromInt(1)
	}
	if p.ID == "" {
		p.ID = uuid.NewString()
	} else if _, err := uuid.Parse(p.ID); err != nil {
		return Product{}, badRequest("id", "id must be a UUID", err)
	}
	stored, err := s.store.UpsertProduct(ctx, p)
	if err != nil {
		return Product{}, err
	}
	if s.cache != nil {
		_ = s.cache.Del(ctx, "catalog:products:list:first", detailCacheKey(stored.ID))
	}
	return stored, nil
}

// PricingProducts loads the engine read models for a set of product ids.
// Ids that do not resolve are left out; the engine treats missing products
// as a zero effect rather than an error.
func (s *Service) PricingProducts(ctx context.Context, ids []string) (map[string]pricing.Product, error) {
	products, err := s.store.ProductsByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	out := make(map[string]pricing.Product, len(products))
	for _, p := range products {
		out[p.ID] = p.ToPricing()
	}
	return out, nil
}

type cachedList struct {
	Items []Product `json:"items"`
	Total int64     `json:"total"`
}

func (s *Service) listCacheKey(params ListParams) (string, bool) {
	if params.Page != s.defaultPage || params.Limit != s.defaultLimit || params.Query != "" {
		return "", false
	}
	return "catalog:products:list:first", true
}

func detailCacheKey(id string) string {
	return "catalog:products:detail:" + id
}

func recordCache(result string) {
	if obs.CatalogCacheTotal != nil {
		obs.CatalogCacheTotal.WithLabelValues(result).Inc()
	}
}

func badRequest(field, message string, err error) *common.AppError {
	return &common.AppError{
		Code:       "BAD_REQUEST",
		Message:    message,
		HTTPStatus: http.StatusBadRequest,
		Err:        err,
		Details: map[string]any{
			"field": field,
		},
	}
}
