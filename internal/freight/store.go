package freight

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// PGStore implements Store on a pgx connection pool.
type PGStore struct {
	Pool *pgxpool.Pool
}

// GetRate fetches the rate row for a region.
func (s *PGStore) GetRate(ctx context.Context, region string) (Rate, error) {
	var r Rate
	err := s.Pool.QueryRow(ctx,
		`SELECT region, carrier, base_fee, per_kg, per_m3, active FROM freight_rates WHERE region = $1`,
		region,
	).Scan(&r.Region, &r.Carrier, &r.BaseFee, &r.PerKg, &r.PerM3, &r.Active)
	if err != nil {
		return Rate{}, err
	}
	return r, nil
}

// ListRates returns the active rate table ordered by region.
func (s *PGStore) ListRates(ctx context.Context) ([]Rate, error) {
	rows, err := s.Pool.Query(ctx,
		`SELECT region, carrier, base_fee, per_kg, per_m3, active FROM freight_rates WHERE active ORDER BY region`)
	if err != nil {
		return nil, fmt.Errorf("query freight rates: %w", err)
	}
	defer rows.Close()

	var out []Rate
	for rows.Next() {
		var r Rate
		if err := rows.Scan(&r.Region, &r.Carrier, &r.BaseFee, &r.PerKg, &r.PerM3, &r.Active); err != nil {
			return nil, fmt.Errorf("scan freight rate: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// UpsertRate inserts or replaces one region's rate row.
func (s *PGStore) UpsertRate(ctx context.Context, r Rate) error {
	_, err := s.Pool.Exec(ctx,
		`INSERT INTO freight_rates (region, carrier, base_fee, per_kg, per_m3, active)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (region) DO UPDATE SET
			carrier = EXCLUDED.carrier,
			base_fee = EXCLUDED.base_fee,
			per_kg = EXCLUDED.per_kg,
			per_m3 = EXCLUDED.per_m3,
			active = EXCLUDED.active`,
		r.Region, r.Carrier, r.BaseFee, r.PerKg, r.PerM3, r.Active)
	return err
}
