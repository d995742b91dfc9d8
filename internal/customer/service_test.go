package customer

import (
	"context"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/lmcorreia/backend-pedidos/internal/common"
)

type fakeStore struct {
	customers map[string]Customer
}

func (f fakeStore) ListCustomers(_ context.Context, _ string, _, _ int) ([]Customer, int64, error) {
	var out []Customer
	for _, c := range f.customers {
		out = append(out, c)
	}
	return out, int64(len(out)), nil
}

func (f fakeStore) GetCustomer(_ context.Context, id string) (Customer, error) {
	c, ok := f.customers[id]
	if !ok {
		return Customer{}, pgx.ErrNoRows
	}
	return c, nil
}

func testService() *Service {
	return &Service{Store: fakeStore{customers: map[string]Customer{
		"c1": {ID: "c1", Name: "Construtora Alfa", Document: "12345678000190", Region: "Grande Vitória", DefaultDiscount: decimal.NewFromInt(8), Active: true},
		"c2": {ID: "c2", Name: "Depósito Beta", DefaultDiscount: decimal.NewFromInt(130), Active: false},
	}}}
}

func TestGetNotFound(t *testing.T) {
	t.Parallel()

	_, err := testService().Get(context.Background(), "ghost")
	var appErr *common.AppError
	require.ErrorAs(t, err, &appErr)
	require.Equal(t, "NOT_FOUND", appErr.Code)
}

func TestDefaultLineDiscountClamped(t *testing.T) {
	t.Parallel()

	svc := testService()

	d, err := svc.DefaultLineDiscount(context.Background(), "c1")
	require.NoError(t, err)
	require.Equal(t, "8", d.String())

	// Registry data above 100% is clamped, matching line entry behaviour.
	d, err = svc.DefaultLineDiscount(context.Background(), "c2")
	require.NoError(t, err)
	require.Equal(t, "100", d.String())
}

func TestRequireActive(t *testing.T) {
	t.Parallel()

	svc := testService()

	_, err := svc.RequireActive(context.Background(), "c1")
	require.NoError(t, err)

	_, err = svc.RequireActive(context.Background(), "c2")
	var appErr *common.AppError
	require.ErrorAs(t, err, &appErr)
	require.Equal(t, "CUSTOMER_INACTIVE", appErr.Code)
}
