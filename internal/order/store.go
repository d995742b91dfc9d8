package order

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Store abstracts order persistence.
type Store interface {
	Insert(ctx context.Context, o *Order) error
	Update(ctx context.Context, o *Order) error
	Get(ctx context.Context, id string) (Order, error)
	List(ctx context.Context, customerID string, status Status, limit, offset int) ([]Order, int64, error)
}

// PGStore implements Store on a pgx connection pool. Lines, options, and the
// derived totals are stored as JSON documents: they are read and replaced as
// a unit, never queried field by field.
type PGStore struct {
	Pool *pgxpool.Pool
}

// Insert persists a new order.
func (s *PGStore) Insert(ctx context.Context, o *Order) error {
	lines, options, totals, err := encodeOrder(o)
	if err != nil {
		return err
	}
	_, err = s.Pool.Exec(ctx,
		`INSERT INTO orders (id, customer_id, status, lines, options, totals, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		o.ID, o.CustomerID, string(o.Status), lines, options, totals, o.CreatedAt, o.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert order: %w", err)
	}
	return nil
}

// Update replaces the mutable parts of an order.
func (s *PGStore) Update(ctx context.Context, o *Order) error {
	lines, options, totals, err := encodeOrder(o)
	if err != nil {
		return err
	}
	_, err = s.Pool.Exec(ctx,
		`UPDATE orders SET status = $2, lines = $3, options = $4, totals = $5, updated_at = $6 WHERE id = $1`,
		o.ID, string(o.Status), lines, options, totals, o.UpdatedAt)
	if err != nil {
		return fmt.Errorf("update order: %w", err)
	}
	return nil
}

// Get loads one order by id. A malformed id is reported as no rows rather
// than a uuid cast error.
func (s *PGStore) Get(ctx context.Context, id string) (Order, error) {
	if _, err := uuid.Parse(id); err != nil {
		return Order{}, pgx.ErrNoRows
	}
	var (
		o                      Order
		lines, options, totals []byte
	)
	err := s.Pool.QueryRow(ctx,
		`SELECT id, customer_id, status, lines, options, totals, created_at, updated_at FROM orders WHERE id = $1`,
		id,
	).Scan(&o.ID, &o.CustomerID, &o.Status, &lines, &options, &totals, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		return Order{}, err
	}
	if err := decodeOrder(&o, lines, options, totals); err != nil {
		return Order{}, err
	}
	return o, nil
}

// List returns orders newest first, optionally filtered by customer and status.
func (s *PGStore) List(ctx context.Context, customerID string, status Status, limit, offset int) ([]Order, int64, error) {
	var total int64
	err := s.Pool.QueryRow(ctx,
		`SELECT count(*) FROM orders WHERE ($1 = '' OR customer_id::text = $1) AND ($2 = '' OR status = $2)`,
		customerID, string(status),
	).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("count orders: %w", err)
	}

	rows, err := s.Pool.Query(ctx,
		`SELECT id, customer_id, status, lines, options, totals, created_at, updated_at FROM orders
		 WHERE ($1 = '' OR customer_id::text = $1) AND ($2 = '' OR status = $2)
		 ORDER BY created_at DESC LIMIT $3 OFFSET $4`,
		customerID, string(status), limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list orders: %w", err)
	}
	defer rows.Close()

	var out []Order
	for rows.Next() {
		var (
			o                      Order
			lines, options, totals []byte
		)
		if err := rows.Scan(&o.ID, &o.CustomerID, &o.Status, &lines, &options, &totals, &o.CreatedAt, &o.UpdatedAt); err != nil {
			return nil, 0, fmt.Errorf("scan order: %w", err)
		}
		if err := decodeOrder(&o, lines, options, totals); err != nil {
			return nil, 0, err
		}
		out = append(out, o)
	}
	return out, total, rows.Err()
}

func encodeOrder(o *Order) (lines, options, totals []byte, err error) {
	if lines, err = json.Marshal(o.Lines); err != nil {
		return nil, nil, nil, fmt.Errorf("encode order lines: %w", err)
	}
	if options, err = json.Marshal(o.Options); err != nil {
		return nil, nil, nil, fmt.Errorf("encode order options: %w", err)
	}
	if totals, err = json.Marshal(o.Totals); err != nil {
		return nil, nil, nil, fmt.Errorf("encode order totals: %w", err)
	}
	return lines, options, totals, nil
}

func decodeOrder(o *Order, lines, options, totals []byte) error {
	if len(lines) > 0 {
		if err := json.Unmarshal(lines, &o.Lines); err != nil {
			return fmt.Errorf("decode order lines: %w", err)
		}
	}
	if len(options) > 0 {
		if err := json.Unmarshal(options, &o.Options); err != nil {
			return fmt.Errorf("decode order options: %w", err)
		}
	}
	if len(totals) > 0 {
		if err := json.Unmarshal(totals, &o.Totals); err != nil {
			return fmt.Errorf("decode order totals: %w", err)
		}
	}
	return nil
}
