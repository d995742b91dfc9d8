// Package document renders the printable views of an order. When half
// invoice is active an order prints as two parallel documents: the fiscal
// one carrying the declared fraction plus every surcharge, and the
// commercial complement listing the remainder of the goods. The split is
// display-only; stored order totals are never derived from it.
package document

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/lmcorreia/backend-pedidos/internal/obs"
	"github.com/lmcorreia/backend-pedidos/internal/order"
	"github.com/lmcorreia/backend-pedidos/internal/pricing"
)

// Printable is the full print payload for one order.
type Printable struct {
	OrderID     string               `json:"orderId"`
	CustomerID  string               `json:"customerId"`
	Status      order.Status         `json:"status"`
	Totals      pricing.Totals       `json:"totals"`
	Pair        pricing.DocumentPair `json:"documents"`
	HalfInvoice bool                 `json:"halfInvoice"`
	GeneratedAt time.Time            `json:"generatedAt"`
}

type orderSource interface {
	Get(ctx context.Context, id string) (order.Order, error)
	Snapshot(ctx context.Context, o *order.Order) (pricing.Snapshot, error)
}

// Store persists generated documents for later reprinting.
type Store interface {
	Save(ctx context.Context, p Printable) error
	Latest(ctx context.Context, orderID string) (Printable, error)
}

// Service builds printable documents.
type Service struct {
	Orders orderSource
	Store  Store
	Now    func() time.Time
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now().UTC()
}

// Get returns the document pair for an order. Submitted and cancelled
// orders are served from the archive when one exists, so the printed
// figures survive later catalog and freight changes; drafts are always
// rebuilt from current state.
func (s *Service) Get(ctx context.Context, orderID string) (Printable, error) {
	o, err := s.Orders.Get(ctx, orderID)
	if err != nil {
		return Printable{}, err
	}
	if o.Status != order.StatusDraft && s.Store != nil {
		p, err := s.Store.Latest(ctx, orderID)
		if err == nil {
			return p, nil
		}
		if !errors.Is(err, pgx.ErrNoRows) {
			return Printable{}, fmt.Errorf("load archived document: %w", err)
		}
	}
	return s.build(ctx, o)
}

// Build renders the document pair for an order from its current state.
func (s *Service) Build(ctx context.Context, orderID string) (Printable, error) {
	o, err := s.Orders.Get(ctx, orderID)
	if err != nil {
		return Printable{}, err
	}
	return s.build(ctx, o)
}

func (s *Service) build(ctx context.Context, o order.Order) (Printable, error) {
	snap, err := s.Orders.Snapshot(ctx, &o)
	if err != nil {
		return Printable{}, fmt.Errorf("snapshot order for printing: %w", err)
	}
	p := Printable{
		OrderID:     o.ID,
		CustomerID:  o.CustomerID,
		Status:      o.Status,
		Totals:      o.Totals,
		Pair:        snap.DocumentSplit(o.Totals),
		HalfInvoice: o.Options.HalfInvoice,
		GeneratedAt: s.now(),
	}
	kind := "full"
	if p.HalfInvoice {
		kind = "half_invoice"
	}
	if obs.DocumentBuildTotal != nil {
		obs.DocumentBuildTotal.WithLabelValues(kind).Inc()
	}
	return p, nil
}

// BuildAndSave renders the pair and archives it. Used by the worker after
// submission so the printed figures survive later catalog changes.
func (s *Service) BuildAndSave(ctx context.Context, orderID string) (Printable, error) {
	p, err := s.Build(ctx, orderID)
	if err != nil {
		return Printable{}, err
	}
	if s.Store != nil {
		if err := s.Store.Save(ctx, p); err != nil {
			return Printable{}, fmt.Errorf("save document: %w", err)
		}
	}
	return p, nil
}
