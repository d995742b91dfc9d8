package order

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/lmcorreia/backend-pedidos/internal/common"
	"github.com/lmcorreia/backend-pedidos/internal/config"
	"github.com/lmcorreia/backend-pedidos/internal/customer"
	"github.com/lmcorreia/backend-pedidos/internal/freight"
	"github.com/lmcorreia/backend-pedidos/internal/obs"
	"github.com/lmcorreia/backend-pedidos/internal/pricing"
)

type productSource interface {
	PricingProducts(ctx context.Context, ids []string) (map[string]pricing.Product, error)
}

type customerSource interface {
	RequireActive(ctx context.Context, id string) (customer.Customer, error)
	DefaultLineDiscount(ctx context.Context, id string) (decimal.Decimal, error)
}

type freightQuoter interface {
	Quote(ctx context.Context, region string, load freight.Load) (pricing.Delivery, error)
}

type submitNotifier interface {
	EnqueueOrderSubmitted(ctx context.Context, orderID string) error
}

// Service owns order mutations. Every mutation reloads the order, applies
// the change, reprices the full snapshot, and stores the result.
type Service struct {
	Store     Store
	Products  productSource
	Customers customerSource
	Freight   freightQuoter
	Notifier  submitNotifier
	Pricing   config.Pricing
	Catalog   pricing.Catalog
	Log       zerolog.Logger
	Now       func() time.Time
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now().UTC()
}

// Create opens a draft order for a customer. New orders start with the
// master discount switch on and no options selected.
func (s *Service) Create(ctx context.Context, customerID string) (Order, error) {
	if _, err := s.Customers.RequireActive(ctx, customerID); err != nil {
		return Order{}, err
	}
	now := s.now()
	o := Order{
		ID:         uuid.NewString(),
		CustomerID: customerID,
		Status:     StatusDraft,
		Options:    Options{ApplyDiscounts: true},
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := s.recompute(ctx, &o, "create"); err != nil {
		return Order{}, err
	}
	if err := s.Store.Insert(ctx, &o); err != nil {
		return Order{}, err
	}
	return o, nil
}

// Get loads one order.
func (s *Service) Get(ctx context.Context, id string) (Order, error) {
	o, err := s.Store.Get(ctx, strings.TrimSpace(id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Order{}, common.NotFound("order")
		}
		return Order{}, fmt.Errorf("get order: %w", err)
	}
	return o, nil
}

// List returns orders filtered by customer and status.
func (s *Service) List(ctx context.Context, customerID string, status Status, page, perPage int) ([]Order, int64, error) {
	if perPage <= 0 {
		perPage = 20
	}
	if page <= 0 {
		page = 1
	}
	return s.Store.List(ctx, strings.TrimSpace(customerID), status, perPage, (page-1)*perPage)
}

// AddLine appends a line to a draft. A nil discount falls back to the
// customer's default.
func (s *Service) AddLine(ctx context.Context, orderID string, in LineInput) (Order, error) {
	o, err := s.draft(ctx, orderID)
	if err != nil {
		return Order{}, err
	}
	line, err := s.buildLine(ctx, o.CustomerID, in)
	if err != nil {
		return Order{}, err
	}
	o.Lines = append(o.Lines, line)
	return s.save(ctx, o, "add_line")
}

// UpdateLine replaces quantity and discount of an existing line.
func (s *Service) UpdateLine(ctx context.Context, orderID, lineID string, in LineInput) (Order, error) {
	o, err := s.draft(ctx, orderID)
	if err != nil {
		return Order{}, err
	}
	ln := o.findLine(lineID)
	if ln == nil {
		return Order{}, common.NotFound("order line")
	}
	if in.ProductID != "" && in.ProductID != ln.ProductID {
		return Order{}, common.Validation("line product cannot be changed; remove and re-add the line", nil)
	}
	if in.Quantity <= 0 {
		return Order{}, quantityError()
	}
	ln.Quantity = decimal.NewFromInt(in.Quantity)
	if in.DiscountPercent != nil {
		ln.DiscountPercent = pricing.ClampPercent(*in.DiscountPercent)
	}
	return s.save(ctx, o, "update_line")
}

// RemoveLine deletes a line from a draft.
func (s *Service) RemoveLine(ctx context.Context, orderID, lineID string) (Order, error) {
	o, err := s.draft(ctx, orderID)
	if err != nil {
		return Order{}, err
	}
	kept := o.Lines[:0]
	found := false
	for _, ln := range o.Lines {
		if ln.ID == lineID {
			found = true
			continue
		}
		kept = append(kept, ln)
	}
	if !found {
		return Order{}, common.NotFound("order line")
	}
	o.Lines = kept
	return s.save(ctx, o, "remove_line")
}

// SetOptions replaces the commercial/fiscal selection of a draft. Structural
// requirements (a region when delivering, payment terms when not cash) are
// enforced at submit time, not here, so the salesperson can toggle freely.
func (s *Service) SetOptions(ctx context.Context, orderID string, opts Options) (Order, error) {
	o, err := s.draft(ctx, orderID)
	if err != nil {
		return Order{}, err
	}
	opts.HalfInvoicePercent = pricing.ClampPercent(opts.HalfInvoicePercent)
	if opts.HalfInvoice && opts.HalfInvoiceMode == "" {
		opts.HalfInvoiceMode = pricing.HalfInvoiceQuantity
	}
	o.Options = opts
	return s.save(ctx, o, "set_options")
}

// Submit validates a draft and moves it to SUBMITTED.
func (s *Service) Submit(ctx context.Context, orderID string) (Order, error) {
	o, err := s.draft(ctx, orderID)
	if err != nil {
		recordSubmit("rejected")
		return Order{}, err
	}
	if err := s.validateSubmit(ctx, o); err != nil {
		recordSubmit("invalid")
		return Order{}, err
	}
	o.Status = StatusSubmitted
	saved, err := s.save(ctx, o, "submit")
	if err != nil {
		recordSubmit("error")
		return Order{}, err
	}
	recordSubmit("ok")
	if s.Notifier != nil {
		if err := s.Notifier.EnqueueOrderSubmitted(ctx, saved.ID); err != nil {
			// The order is already submitted; document generation can be
			// retried, so log and move on.
			s.Log.Error().Err(err).Str("order_id", saved.ID).Msg("enqueue order submitted")
		}
	}
	return saved, nil
}

// Cancel moves a draft or submitted order to CANCELLED.
func (s *Service) Cancel(ctx context.Context, orderID string) (Order, error) {
	o, err := s.Get(ctx, orderID)
	if err != nil {
		return Order{}, err
	}
	if o.Status == StatusCancelled {
		return Order{}, common.Conflict("order is already cancelled")
	}
	o.Status = StatusCancelled
	o.UpdatedAt = s.now()
	if err := s.Store.Update(ctx, &o); err != nil {
		return Order{}, err
	}
	return o, nil
}

func (s *Service) validateSubmit(ctx context.Context, o Order) error {
	if _, err := s.Customers.RequireActive(ctx, o.CustomerID); err != nil {
		return err
	}
	if len(o.Lines) == 0 {
		return common.Validation("order has no lines", nil)
	}
	for _, ln := range o.Lines {
		if !ln.Quantity.IsPositive() {
			return quantityError()
		}
	}
	if !o.Options.Pickup && strings.TrimSpace(o.Options.DeliveryRegion) == "" {
		return common.Validation("delivery region is required unless pickup is selected", nil)
	}
	if !o.Options.CashPayment && strings.TrimSpace(o.Options.PaymentTerms) == "" {
		return common.Validation("payment terms are required unless cash payment is selected", nil)
	}
	return nil
}

func (s *Service) draft(ctx context.Context, orderID string) (Order, error) {
	o, err := s.Get(ctx, orderID)
	if err != nil {
		return Order{}, err
	}
	if o.Status != StatusDraft {
		return Order{}, common.Conflict(fmt.Sprintf("order is %s and can no longer be edited", strings.ToLower(string(o.Status))))
	}
	return o, nil
}

func (s *Service) buildLine(ctx context.Context, customerID string, in LineInput) (Line, error) {
	productID := strings.TrimSpace(in.ProductID)
	if productID == "" {
		return Line{}, common.Validation("product id is required", nil)
	}
	if in.Quantity <= 0 {
		return Line{}, quantityError()
	}
	discount := decimal.Zero
	if in.DiscountPercent != nil {
		discount = pricing.ClampPercent(*in.DiscountPercent)
	} else if s.Customers != nil {
		d, err := s.Customers.DefaultLineDiscount(ctx, customerID)
		if err != nil {
			return Line{}, err
		}
		discount = d
	}
	return Line{
		ID:              uuid.NewString(),
		ProductID:       productID,
		Quantity:        decimal.NewFromInt(in.Quantity),
		DiscountPercent: discount,
	}, nil
}

func (s *Service) save(ctx context.Context, o Order, trigger string) (Order, error) {
	if err := s.recompute(ctx, &o, trigger); err != nil {
		return Order{}, err
	}
	o.UpdatedAt = s.now()
	if err := s.Store.Update(ctx, &o); err != nil {
		return Order{}, err
	}
	return o, nil
}

// Snapshot assembles the immutable pricing input for an order.
func (s *Service) Snapshot(ctx context.Context, o *Order) (pricing.Snapshot, error) {
	products, err := s.Products.PricingProducts(ctx, o.productIDs())
	if err != nil {
		return pricing.Snapshot{}, fmt.Errorf("load products for pricing: %w", err)
	}
	snap := pricing.Snapshot{
		Lines:                 o.pricingLines(),
		Products:              products,
		ApplyDiscounts:        o.Options.ApplyDiscounts,
		IPIPercent:            s.Pricing.IPIPercent,
		ScaleIPIByHalfInvoice: s.Pricing.ScaleIPIByHalfInvoice,
		DefaultMVA:            s.Pricing.DefaultMVA,
		Catalog:               s.Catalog,
	}
	if o.Options.Pickup {
		snap.Pickup = &pricing.PickupOption{}
	} else if region := strings.TrimSpace(o.Options.DeliveryRegion); region != "" && s.Freight != nil {
		delivery, err := s.Freight.Quote(ctx, region, freight.OrderLoad(snap.Lines, products))
		if err != nil {
			return pricing.Snapshot{}, err
		}
		snap.Delivery = &delivery
	}
	if o.Options.HalfInvoice {
		snap.HalfInvoice = &pricing.HalfInvoiceOption{
			Percent: o.Options.HalfInvoicePercent,
			Mode:    o.Options.HalfInvoiceMode,
		}
	}
	if o.Options.TaxSubstitution {
		snap.TaxSubstitution = &pricing.TaxSubstitutionOption{Rate: s.Pricing.TaxSubstitutionPercent}
	}
	if o.Options.CashPayment {
		snap.CashPayment = &pricing.CashPaymentOption{}
	}
	return snap, nil
}

func (s *Service) recompute(ctx context.Context, o *Order, trigger string) error {
	snap, err := s.Snapshot(ctx, o)
	if err != nil {
		return err
	}
	start := time.Now()
	o.Totals = snap.Compute()
	if obs.PricingDuration != nil {
		obs.PricingDuration.Observe(obs.DurationMillis(time.Since(start)))
	}
	if obs.OrderRecomputeTotal != nil {
		obs.OrderRecomputeTotal.WithLabelValues(trigger).Inc()
	}
	return nil
}

func quantityError() error {
	return common.Validation("quantity must be positive", nil)
}

func recordSubmit(result string) {
	if obs.OrderSubmitTotal != nil {
		obs.OrderSubmitTotal.WithLabelValues(result).Inc()
	}
}
