package document

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// PGStore implements Store on a pgx connection pool.
type PGStore struct {
	Pool *pgxpool.Pool
}

// Save archives a printable document payload.
func (s *PGStore) Save(ctx context.Context, p Printable) error {
	payload, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("encode document: %w", err)
	}
	_, err = s.Pool.Exec(ctx,
		`INSERT INTO documents (order_id, payload, generated_at) VALUES ($1, $2, $3)`,
		p.OrderID, payload, p.GeneratedAt)
	if err != nil {
		return fmt.Errorf("insert document: %w", err)
	}
	return nil
}

// Latest returns the most recently archived document for an order.
func (s *PGStore) Latest(ctx context.Context, orderID string) (Printable, error) {
	var payload []byte
	err := s.Pool.QueryRow(ctx,
		`SELECT payload FROM documents WHERE order_id = $1 ORDER BY generated_at DESC LIMIT 1`,
		orderID,
	).Scan(&payload)
	if err != nil {
		return Printable{}, err
	}
	var p Printable
	if err := json.Unmarshal(payload, &p); err != nil {
		return Printable{}, fmt.Errorf("decode document: %w", err)
	}
	return p, nil
}
