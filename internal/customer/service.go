// Package customer manages the customer registry consumed by order intake:
// identity, billing document, and the default discount the salesperson can
// start a new order from.
package customer

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/lmcorreia/backend-pedidos/internal/common"
	"github.com/lmcorreia/backend-pedidos/internal/pricing"
)

// Customer is the registry entity.
type Customer struct {
	ID              string          `json:"id"`
	Name            string          `json:"name"`
	Document        string          `json:"document"`
	City            string          `json:"city"`
	Region          string          `json:"region"`
	DefaultDiscount decimal.Decimal `json:"defaultDiscount"`
	PaymentTerms    string          `json:"paymentTerms,omitempty"`
	Active          bool            `json:"active"`
}

// Store abstracts customer persistence.
type Store interface {
	ListCustomers(ctx context.Context, query string, limit, offset int) ([]Customer, int64, error)
	GetCustomer(ctx context.Context, id string) (Customer, error)
}

// Service wraps the store with validation and discount defaults.
type Service struct {
	Store Store
}

// List returns customers matching a free-text filter.
func (s *Service) List(ctx context.Context, query string, page, perPage int) ([]Customer, int64, error) {
	if perPage <= 0 {
		perPage = 20
	}
	if page <= 0 {
		page = 1
	}
	return s.Store.ListCustomers(ctx, strings.TrimSpace(query), perPage, (page-1)*perPage)
}

// Get returns one customer by id.
func (s *Service) Get(ctx context.Context, id string) (Customer, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return Customer{}, common.Validation("customer id is required", nil)
	}
	c, err := s.Store.GetCustomer(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Customer{}, common.NotFound("customer")
		}
		return Customer{}, fmt.Errorf("get customer: %w", err)
	}
	return c, nil
}

// DefaultLineDiscount returns the per-line discount a new order line starts
// with for this customer, clamped into the engine's accepted range.
func (s *Service) DefaultLineDiscount(ctx context.Context, id string) (decimal.Decimal, error) {
	c, err := s.Get(ctx, id)
	if err != nil {
		return decimal.Zero, err
	}
	return pricing.ClampPercent(c.DefaultDiscount), nil
}

// RequireActive fails with a user-facing error when the customer is missing
// or deactivated. Order submission calls this before anything else.
func (s *Service) RequireActive(ctx context.Context, id string) (Customer, error) {
	c, err := s.Get(ctx, id)
	if err != nil {
		return Customer{}, err
	}
	if !c.Active {
		return Customer{}, &common.AppError{Code: "CUSTOMER_INACTIVE", Message: "customer is inactive", HTTPStatus: http.StatusUnprocessableEntity}
	}
	return c, nil
}
