package customer

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PGStore implements Store on a pgx connection pool.
type PGStore struct {
	Pool *pgxpool.Pool
}

const customerColumns = `id, name, document, city, region, default_discount, payment_terms, active`

// ListCustomers returns customers matching the filter plus the total count.
func (s *PGStore) ListCustomers(ctx context.Context, query string, limit, offset int) ([]Customer, int64, error) {
	var total int64
	err := s.Pool.QueryRow(ctx,
		`SELECT count(*) FROM customers WHERE ($1 = '' OR name ILIKE '%' || $1 || '%' OR document LIKE $1 || '%')`,
		query,
	).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("count customers: %w", err)
	}

	rows, err := s.Pool.Query(ctx, fmt.Sprintf(
		`SELECT %s FROM customers WHERE ($1 = '' OR name ILIKE '%%' || $1 || '%%' OR document LIKE $1 || '%%') ORDER BY name LIMIT $2 OFFSET $3`,
		customerColumns), query, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list customers: %w", err)
	}
	defer rows.Close()

	var out []Customer
	for rows.Next() {
		var c Customer
		if err := rows.Scan(&c.ID, &c.Name, &c.Document, &c.City, &c.Region, &c.DefaultDiscount, &c.PaymentTerms, &c.Active); err != nil {
			return nil, 0, fmt.Errorf("scan customer: %w", err)
		}
		out = append(out, c)
	}
	return out, total, rows.Err()
}

// GetCustomer fetches one customer by id. A malformed id is reported as no
// rows rather than a uuid cast error.
func (s *PGStore) GetCustomer(ctx context.Context, id string) (Customer, error) {
	if _, err := uuid.Parse(id); err != nil {
		return Customer{}, pgx.ErrNoRows
	}
	var c Customer
	err := s.Pool.QueryRow(ctx, fmt.Sprintf(`SELECT %s FROM customers WHERE id = $1`, customerColumns), id).
		Scan(&c.ID, &c.Name, &c.Document, &c.City, &c.Region, &c.DefaultDiscount, &c.PaymentTerms, &c.Active)
	if err != nil {
		return Customer{}, err
	}
	return c, nil
}
