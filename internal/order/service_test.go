package order

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/lmcorreia/backend-pedidos/internal/common"
	"github.com/lmcorreia/backend-pedidos/internal/config"
	"github.com/lmcorreia/backend-pedidos/internal/customer"
	"github.com/lmcorreia/backend-pedidos/internal/freight"
	"github.com/lmcorreia/backend-pedidos/internal/pricing"
)

type memStore struct {
	orders map[string]Order
}

func newMemStore() *memStore { return &memStore{orders: map[string]Order{}} }

func (m *memStore) Insert(_ context.Context, o *Order) error {
	m.orders[o.ID] = *o
	return nil
}

func (m *memStore) Update(_ context.Context, o *Order) error {
	if _, ok := m.orders[o.ID]; !ok {
		return pgx.ErrNoRows
	}
	m.orders[o.ID] = *o
	return nil
}

func (m *memStore) Get(_ context.Context, id string) (Order, error) {
	o, ok := m.orders[id]
	if !ok {
		return Order{}, pgx.ErrNoRows
	}
	return o, nil
}

func (m *memStore) List(_ context.Context, customerID string, status Status, _, _ int) ([]Order, int64, error) {
	var out []Order
	for _, o := range m.orders {
		if customerID != "" && o.CustomerID != customerID {
			continue
		}
		if status != "" && o.Status != status {
			continue
		}
		out = append(out, o)
	}
	return out, int64(len(out)), nil
}

type fakeProducts map[string]pricing.Product

func (f fakeProducts) PricingProducts(_ context.Context, ids []string) (map[string]pricing.Product, error) {
	out := map[string]pricing.Product{}
	for _, id := range ids {
		if p, ok := f[id]; ok {
			out[id] = p
		}
	}
	return out, nil
}

type fakeCustomers map[string]customer.Customer

func (f fakeCustomers) RequireActive(_ context.Context, id string) (customer.Customer, error) {
	c, ok := f[id]
	if !ok {
		return customer.Customer{}, common.NotFound("customer")
	}
	if !c.Active {
		return customer.Customer{}, common.Validation("customer is inactive", nil)
	}
	return c, nil
}

func (f fakeCustomers) DefaultLineDiscount(_ context.Context, id string) (decimal.Decimal, error) {
	c, ok := f[id]
	if !ok {
		return decimal.Zero, common.NotFound("customer")
	}
	return pricing.ClampPercent(c.DefaultDiscount), nil
}

type fakeFreight struct{}

func (fakeFreight) Quote(_ context.Context, region string, _ freight.Load) (pricing.Delivery, error) {
	if region == "Grande Vitória" {
		return pricing.Delivery{Region: region, Carrier: "frota própria", Fee: decimal.NewFromInt(30)}, nil
	}
	return pricing.Delivery{}, common.NotFound("freight rate")
}

type fakeNotifier struct {
	submitted []string
}

func (f *fakeNotifier) EnqueueOrderSubmitted(_ context.Context, orderID string) error {
	f.submitted = append(f.submitted, orderID)
	return nil
}

func newTestService(t *testing.T) (*Service, *memStore, *fakeNotifier) {
	t.Helper()
	store := newMemStore()
	notifier := &fakeNotifier{}
	svc := &Service{
		Store: store,
		Products: fakeProducts{
			"p1": {ID: "p1", ListPrice: decimal.NewFromInt(100), MVA: decimal.NewFromInt(39)},
		},
		Customers: fakeCustomers{
			"c1": {ID: "c1", Name: "Construtora Alfa", DefaultDiscount: decimal.NewFromInt(10), Active: true},
		},
		Freight:  fakeFreight{},
		Notifier: notifier,
		Pricing: config.Pricing{
			TaxSubstitutionPercent: decimal.RequireFromString("7.8"),
			DefaultMVA:             decimal.NewFromInt(39),
		},
		Catalog: pricing.DefaultCatalog(decimal.RequireFromString("7.8")),
		Log:     zerolog.Nop(),
		Now:     func() time.Time { return time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC) },
	}
	return svc, store, notifier
}

func draftWithLine(t *testing.T, svc *Service) Order {
	t.Helper()
	ctx := context.Background()
	o, err := svc.Create(ctx, "c1")
	require.NoError(t, err)
	o, err = svc.AddLine(ctx, o.ID, LineInput{ProductID: "p1", Quantity: 2})
	require.NoError(t, err)
	return o
}

func TestCreateRequiresCustomer(t *testing.T) {
	t.Parallel()

	svc, _, _ := newTestService(t)
	_, err := svc.Create(context.Background(), "ghost")
	var appErr *common.AppError
	require.ErrorAs(t, err, &appErr)
	require.Equal(t, "NOT_FOUND", appErr.Code)
}

func TestAddLineUsesCustomerDefaultDiscount(t *testing.T) {
	t.Parallel()

	svc, _, _ := newTestService(t)
	o := draftWithLine(t, svc)

	require.Len(t, o.Lines, 1)
	require.Equal(t, "10", o.Lines[0].DiscountPercent.String())
	require.True(t, o.Totals.Subtotal.Equal(decimal.NewFromInt(200)))
	require.True(t, o.Totals.TotalDiscount.Equal(decimal.NewFromInt(20)))
	require.True(t, o.Totals.GrandTotal.Equal(decimal.NewFromInt(180)))
}

func TestAddLineRejectsNonPositiveQuantity(t *testing.T) {
	t.Parallel()

	svc, _, _ := newTestService(t)
	ctx := context.Background()
	o, err := svc.Create(ctx, "c1")
	require.NoError(t, err)

	for _, qty := range []int64{0, -3} {
		_, err := svc.AddLine(ctx, o.ID, LineInput{ProductID: "p1", Quantity: qty})
		var appErr *common.AppError
		require.ErrorAs(t, err, &appErr)
		require.Equal(t, "VALIDATION", appErr.Code)
	}
}

func TestRecomputeAfterEveryMutation(t *testing.T) {
	t.Parallel()

	svc, store, _ := newTestService(t)
	ctx := context.Background()
	o := draftWithLine(t, svc)

	o, err := svc.SetOptions(ctx, o.ID, Options{
		ApplyDiscounts:  true,
		TaxSubstitution: true,
		DeliveryRegion:  "Grande Vitória",
	})
	require.NoError(t, err)
	// 200 - 20 + 2.7378*2 + 30
	require.Equal(t, "215.4756", o.Totals.GrandTotal.String())

	stored := store.orders[o.ID]
	require.Equal(t, "215.4756", stored.Totals.GrandTotal.String(), "stored totals track the recomputation")

	discount := decimal.NewFromInt(0)
	o, err = svc.UpdateLine(ctx, o.ID, o.Lines[0].ID, LineInput{Quantity: 1, DiscountPercent: &discount})
	require.NoError(t, err)
	// 100 + 100*0.39*0.078 + 30
	require.Equal(t, "133.042", o.Totals.GrandTotal.String())

	o, err = svc.RemoveLine(ctx, o.ID, o.Lines[0].ID)
	require.NoError(t, err)
	require.Empty(t, o.Lines)
	require.Equal(t, "30", o.Totals.GrandTotal.String(), "delivery fee remains on an empty draft")
}

func TestPickupWaivesFreightQuote(t *testing.T) {
	t.Parallel()

	svc, _, _ := newTestService(t)
	o := draftWithLine(t, svc)

	o, err := svc.SetOptions(context.Background(), o.ID, Options{ApplyDiscounts: true, Pickup: true, DeliveryRegion: "Serra"})
	require.NoError(t, err)
	require.True(t, o.Totals.DeliveryFee.IsZero())
}

func TestSubmitValidations(t *testing.T) {
	t.Parallel()

	svc, _, _ := newTestService(t)
	ctx := context.Background()

	t.Run("empty order", func(t *testing.T) {
		o, err := svc.Create(ctx, "c1")
		require.NoError(t, err)
		_, err = svc.Submit(ctx, o.ID)
		requireValidation(t, err, "order has no lines")
	})

	t.Run("missing region", func(t *testing.T) {
		o := draftWithLine(t, svc)
		_, err := svc.Submit(ctx, o.ID)
		requireValidation(t, err, "delivery region is required unless pickup is selected")
	})

	t.Run("missing payment terms", func(t *testing.T) {
		o := draftWithLine(t, svc)
		_, err := svc.SetOptions(ctx, o.ID, Options{ApplyDiscounts: true, Pickup: true})
		require.NoError(t, err)
		_, err = svc.Submit(ctx, o.ID)
		requireValidation(t, err, "payment terms are required unless cash payment is selected")
	})
}

func TestSubmitAndLifecycle(t *testing.T) {
	t.Parallel()

	svc, _, notifier := newTestService(t)
	ctx := context.Background()
	o := draftWithLine(t, svc)

	o, err := svc.SetOptions(ctx, o.ID, Options{ApplyDiscounts: true, Pickup: true, CashPayment: true})
	require.NoError(t, err)

	submitted, err := svc.Submit(ctx, o.ID)
	require.NoError(t, err)
	require.Equal(t, StatusSubmitted, submitted.Status)
	require.Equal(t, []string{o.ID}, notifier.submitted)

	// Submitted orders are frozen.
	_, err = svc.AddLine(ctx, o.ID, LineInput{ProductID: "p1", Quantity: 1})
	var appErr *common.AppError
	require.ErrorAs(t, err, &appErr)
	require.Equal(t, "CONFLICT", appErr.Code)

	cancelled, err := svc.Cancel(ctx, o.ID)
	require.NoError(t, err)
	require.Equal(t, StatusCancelled, cancelled.Status)

	_, err = svc.Cancel(ctx, o.ID)
	require.ErrorAs(t, err, &appErr)
	require.Equal(t, "CONFLICT", appErr.Code)
}

func TestApplyDiscountsOffKeepsDeliveryFee(t *testing.T) {
	t.Parallel()

	svc, _, _ := newTestService(t)
	o := draftWithLine(t, svc)

	o, err := svc.SetOptions(context.Background(), o.ID, Options{
		ApplyDiscounts:  false,
		TaxSubstitution: true,
		DeliveryRegion:  "Grande Vitória",
	})
	require.NoError(t, err)
	require.True(t, o.Totals.TotalDiscount.IsZero())
	require.True(t, o.Totals.TaxSubTotal.IsZero())
	require.Equal(t, "230", o.Totals.GrandTotal.String())
}

func requireValidation(t *testing.T, err error, message string) {
	t.Helper()
	var appErr *common.AppError
	require.ErrorAs(t, err, &appErr)
	require.Equal(t, "VALIDATION", appErr.Code)
	require.Equal(t, message, appErr.Message)
}
