package pricing

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func TestSplitPriceExactPartition(t *testing.T) {
	t.Parallel()

	price := dec(t, "90")
	for _, pct := range []string{"0", "33.33", "50", "66.6667", "100"} {
		with, without := SplitPrice(price, dec(t, pct))
		require.True(t, with.Add(without).Equal(price), "pct %s: %s + %s != %s", pct, with, without, price)
	}

	with, without := SplitPrice(price, decimal.NewFromInt(50))
	requireDec(t, "45", with)
	requireDec(t, "45", without)
}

func TestSplitQuantityRounding(t *testing.T) {
	t.Parallel()

	// 10 units at 33%: round(3.3)=3, round(6.7)=7, sum happens to be exact.
	with, without := SplitQuantity(decimal.NewFromInt(10), decimal.NewFromInt(33))
	requireDec(t, "3", with)
	requireDec(t, "7", without)

	// 7 units at 50%: both halves round up to 4 and the sum drifts by one.
	// Accepted artifact of rounding each branch independently.
	with, without = SplitQuantity(decimal.NewFromInt(7), decimal.NewFromInt(50))
	requireDec(t, "4", with)
	requireDec(t, "4", without)
}

func TestSplitQuantityDriftBound(t *testing.T) {
	t.Parallel()

	one := decimal.NewFromInt(1)
	for units := int64(1); units <= 25; units++ {
		for pct := int64(0); pct <= 100; pct += 7 {
			with, without := SplitQuantity(decimal.NewFromInt(units), decimal.NewFromInt(pct))
			drift := with.Add(without).Sub(decimal.NewFromInt(units)).Abs()
			require.True(t, drift.LessThanOrEqual(one), "units=%d pct=%d drifted by %s", units, pct, drift)
		}
	}
}

func TestSplitPercentClamped(t *testing.T) {
	t.Parallel()

	with, without := SplitPrice(dec(t, "100"), decimal.NewFromInt(150))
	requireDec(t, "100", with)
	requireDec(t, "0", without)

	with, without = SplitQuantity(decimal.NewFromInt(10), decimal.NewFromInt(-20))
	requireDec(t, "0", with)
	requireDec(t, "10", without)
}

func splitSnapshot(t *testing.T) Snapshot {
	t.Helper()
	s := baseSnapshot()
	s.TaxSubstitution = &TaxSubstitutionOption{Rate: dec(t, "7.8")}
	s.Delivery = &Delivery{Region: "Grande Vitória", Fee: decimal.NewFromInt(30)}
	return s
}

func TestDocumentSplitQuantityMode(t *testing.T) {
	t.Parallel()

	s := splitSnapshot(t)
	s.HalfInvoice = &HalfInvoiceOption{Percent: decimal.NewFromInt(50), Mode: HalfInvoiceQuantity}
	tot := s.Compute()

	pair := s.DocumentSplit(tot)
	require.Len(t, pair.WithInvoice.Lines, 1)
	require.Len(t, pair.WithoutInvoice.Lines, 1)

	requireDec(t, "1", pair.WithInvoice.Lines[0].Quantity)
	requireDec(t, "1", pair.WithoutInvoice.Lines[0].Quantity)
	requireDec(t, "90", pair.WithInvoice.Lines[0].UnitPrice)

	// Surcharges and delivery stay on the fiscal side: 90 + 2.7378 + 30.
	requireDec(t, "122.7378", pair.WithInvoice.Total)
	requireDec(t, "90", pair.WithoutInvoice.Total)
}

func TestDocumentSplitPriceMode(t *testing.T) {
	t.Parallel()

	s := splitSnapshot(t)
	s.HalfInvoice = &HalfInvoiceOption{Percent: decimal.NewFromInt(60), Mode: HalfInvoicePrice}
	tot := s.Compute()

	pair := s.DocumentSplit(tot)
	requireDec(t, "2", pair.WithInvoice.Lines[0].Quantity)
	requireDec(t, "2", pair.WithoutInvoice.Lines[0].Quantity)
	requireDec(t, "54", pair.WithInvoice.Lines[0].UnitPrice)
	requireDec(t, "36", pair.WithoutInvoice.Lines[0].UnitPrice)

	goods := pair.WithInvoice.Lines[0].Total.Add(pair.WithoutInvoice.Lines[0].Total)
	requireDec(t, "180", goods)
}

func TestDocumentSplitWithoutHalfInvoice(t *testing.T) {
	t.Parallel()

	s := splitSnapshot(t)
	tot := s.Compute()

	pair := s.DocumentSplit(tot)
	require.Empty(t, pair.WithoutInvoice.Lines)
	requireDec(t, "0", pair.WithoutInvoice.Total)

	// Entire order on the fiscal document: 180 goods + 5.4756 tax + 30 fee.
	requireDec(t, "215.4756", pair.WithInvoice.Total)
}
