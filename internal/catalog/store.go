package catalog

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Store abstracts product persistence so the service can be tested with an
// in-memory implementation.
type Store interface {
	ListProducts(ctx context.Context, params ListParams) ([]Product, error)
	CountProducts(ctx context.Context, params ListParams) (int64, error)
	GetProduct(ctx context.Context, id string) (Product, error)
	ProductsByIDs(ctx context.Context, ids []string) ([]Product, error)
	UpsertProduct(ctx context.Context, p Product) (Product, error)
}

// PGStore implements Store on a pgx connection pool.
type PGStore struct {
	Pool *pgxpool.Pool
}

const productColumns = `id, name, sku, list_price, mva, units_per_volume, ipi_exempt, weight_kg, volume_m3, active`

func scanProduct(row pgx.Row) (Product, error) {
	var p Product
	err := row.Scan(&p.ID, &p.Name, &p.SKU, &p.ListPrice, &p.MVA, &p.UnitsPerVolume, &p.IPIExempt, &p.WeightKg, &p.VolumeM3, &p.Active)
	return p, err
}

// ListProducts returns active products matching the filter, name-ordered.
func (s *PGStore) ListProducts(ctx context.Context, params ListParams) ([]Product, error) {
	query := fmt.Sprintf(`SELECT %s FROM products WHERE active AND ($1 = '' OR name ILIKE '%%' || $1 || '%%' OR sku ILIKE '%%' || $1 || '%%')
		ORDER BY name LIMIT $2 OFFSET $3`, productColumns)
	rows, err := s.Pool.Query(ctx, query, params.Query, params.Limit, (params.Page-1)*params.Limit)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	defer rows.Close()

	var out []Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// UpsertProduct inserts or replaces a product row and returns the stored state.
func (s *PGStore) UpsertProduct(ctx context.Context, p Product) (Product, error) {
	query := fmt.Sprintf(`INSERT INTO products (id, name, sku, list_price, mva, units_per_volume, ipi_exempt, weight_kg, volume_m3, active)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			sku = EXCLUDED.sku,
			list_price = EXCLUDED.list_price,
			mva = EXCLUDED.mva,
			units_per_volume = EXCLUDED.units_per_volume,
			ipi_exempt = EXCLUDED.ipi_exempt,
			weight_kg = EXCLUDED.weight_kg,
			volume_m3 = EXCLUDED.volume_m3,
			active = EXCLUDED.active,
			updated_at = now()
		RETURNING %s`, productColumns)
	row := s.Pool.QueryRow(ctx, query,
		p.ID, p.Name, p.SKU, p.ListPrice, p.MVA, p.UnitsPerVolume, p.IPIExempt, p.WeightKg, p.VolumeM3, p.Active)
	stored, err := scanProduct(row)
	if err != nil {
		return Product{}, fmt.Errorf("upsert product: %w", err)
	}
	return stored, nil
}

// CountProducts returns the total matching the same filter as ListProducts.
func (s *PGStore) CountProducts(ctx context.Context, params ListParams) (int64, error) {
	var total int64
	err := s.Pool.QueryRow(ctx,
		`SELECT count(*) FROM products WHERE active AND ($1 = '' OR name ILIKE '%' || $1 || '%' OR sku ILIKE '%' || $1 || '%')`,
		params.Query,
	).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("count products: %w", err)
	}
	return total, nil
}

// GetProduct fetches one product by id, active or not. A malformed id is
// reported as no rows rather than a uuid cast error.
func (s *PGStore) GetProduct(ctx context.Context, id string) (Product, error) {
	if _, err := uuid.Parse(id); err != nil {
		return Product{}, pgx.ErrNoRows
	}
	row := s.Pool.QueryRow(ctx, fmt.Sprintf(`SELECT %s FROM products WHERE id = $1`, productColumns), id)
	p, err := scanProduct(row)
	if err != nil {
		return Product{}, err
	}
	return p, nil
}

// ProductsByIDs fetches a batch of products in one round trip. Missing ids
// are simply absent from the result.
func (s *PGStore) ProductsByIDs(ctx context.Context, ids []string) ([]Product, error) {
	valid := ids[:0:0]
	for _, id := range ids {
		if _, err := uuid.Parse(id); err == nil {
			valid = append(valid, id)
		}
	}
	if len(valid) == 0 {
		return nil, nil
	}
	query := fmt.Sprintf(`SELECT %s FROM products WHERE id = ANY($1)`, productColumns)
	rows, err := s.Pool.Query(ctx, query, valid)
	if err != nil {
		return nil, fmt.Errorf("products by ids (%s): %w", strings.Join(ids, ","), err)
	}
	defer rows.Close()

	var out []Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}
