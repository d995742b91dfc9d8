package pricing

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func dec(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(s)
	require.NoError(t, err)
	return d
}

func requireDec(t *testing.T, want string, got decimal.Decimal) {
	t.Helper()
	require.True(t, got.Equal(dec(t, want)), "want %s, got %s", want, got)
}

func baseSnapshot() Snapshot {
	return Snapshot{
		Lines: []Line{{ProductID: "p1", Quantity: decimal.NewFromInt(2), DiscountPercent: decimal.NewFromInt(10)}},
		Products: map[string]Product{
			"p1": {ID: "p1", Name: "Cimento CP-II 50kg", ListPrice: decimal.NewFromInt(100), MVA: decimal.NewFromInt(39)},
		},
		ApplyDiscounts: true,
		Catalog:        DefaultCatalog(decimal.NewFromFloat(7.8)),
	}
}

func TestClampPercent(t *testing.T) {
	t.Parallel()

	requireDec(t, "100", ClampPercent(decimal.NewFromInt(150)))
	requireDec(t, "0", ClampPercent(decimal.NewFromInt(-10)))
	requireDec(t, "37.5", ClampPercent(dec(t, "37.5")))
}

func TestPriceLineNoOptions(t *testing.T) {
	t.Parallel()

	s := baseSnapshot()
	res := s.PriceLine(s.Lines[0])

	requireDec(t, "90", res.FinalUnitPrice)
	requireDec(t, "2", res.TotalUnits)
	requireDec(t, "0", res.TaxSubPerUnit)
	requireDec(t, "0", res.IPIPerUnit)
	requireDec(t, "180", res.Subtotal)
}

func TestPriceLineTaxSubstitution(t *testing.T) {
	t.Parallel()

	s := baseSnapshot()
	s.TaxSubstitution = &TaxSubstitutionOption{Rate: dec(t, "7.8")}
	res := s.PriceLine(s.Lines[0])

	requireDec(t, "2.7378", res.TaxSubPerUnit)
	requireDec(t, "185.4756", res.Subtotal)
}

func TestPriceLineTaxSubstitutionScaledByHalfInvoice(t *testing.T) {
	t.Parallel()

	s := baseSnapshot()
	s.TaxSubstitution = &TaxSubstitutionOption{Rate: dec(t, "7.8")}
	s.HalfInvoice = &HalfInvoiceOption{Percent: decimal.NewFromInt(50), Mode: HalfInvoiceQuantity}
	res := s.PriceLine(s.Lines[0])

	requireDec(t, "1.3689", res.TaxSubPerUnit)
	requireDec(t, "182.7378", res.Subtotal)
}

func TestPriceLineDefaultMVA(t *testing.T) {
	t.Parallel()

	s := baseSnapshot()
	prod := s.Products["p1"]
	prod.MVA = decimal.Zero
	s.Products["p1"] = prod
	s.TaxSubstitution = &TaxSubstitutionOption{Rate: dec(t, "7.8")}

	res := s.PriceLine(s.Lines[0])
	// 90 * 0.39 * 0.078 with the default MVA of 39.
	requireDec(t, "2.7378", res.TaxSubPerUnit)
}

func TestPriceLineUnknownProduct(t *testing.T) {
	t.Parallel()

	s := baseSnapshot()
	res := s.PriceLine(Line{ProductID: "ghost", Quantity: decimal.NewFromInt(3)})

	require.Equal(t, "ghost", res.ProductID)
	requireDec(t, "3", res.TotalUnits)
	requireDec(t, "0", res.FinalUnitPrice)
	requireDec(t, "0", res.Subtotal)
}

func TestPriceLineFractionalUnitsPerVolume(t *testing.T) {
	t.Parallel()

	s := baseSnapshot()
	prod := s.Products["p1"]
	prod.UnitsPerVolume = dec(t, "2.5")
	s.Products["p1"] = prod

	res := s.PriceLine(s.Lines[0])
	requireDec(t, "5", res.TotalUnits)
	requireDec(t, "450", res.Subtotal)
}

func TestPriceLineDiscountBounds(t *testing.T) {
	t.Parallel()

	s := baseSnapshot()

	for _, pct := range []string{"-10", "0", "37.5", "100", "150"} {
		res := s.PriceLine(Line{ProductID: "p1", Quantity: decimal.NewFromInt(1), DiscountPercent: dec(t, pct)})
		require.False(t, res.FinalUnitPrice.IsNegative(), "discount %s produced negative price", pct)
		require.True(t, res.FinalUnitPrice.LessThanOrEqual(res.ListPrice), "discount %s raised price above list", pct)
	}
}

func TestPriceLineIPIPolicies(t *testing.T) {
	t.Parallel()

	t.Run("unscaled", func(t *testing.T) {
		t.Parallel()

		s := baseSnapshot()
		s.IPIPercent = decimal.NewFromInt(10)
		s.HalfInvoice = &HalfInvoiceOption{Percent: decimal.NewFromInt(50), Mode: HalfInvoiceQuantity}

		res := s.PriceLine(s.Lines[0])
		requireDec(t, "9", res.IPIPerUnit)
	})

	t.Run("scaled by half invoice", func(t *testing.T) {
		t.Parallel()

		s := baseSnapshot()
		s.IPIPercent = decimal.NewFromInt(10)
		s.ScaleIPIByHalfInvoice = true
		s.HalfInvoice = &HalfInvoiceOption{Percent: decimal.NewFromInt(50), Mode: HalfInvoiceQuantity}

		res := s.PriceLine(s.Lines[0])
		requireDec(t, "4.5", res.IPIPerUnit)
	})

	t.Run("exempt product", func(t *testing.T) {
		t.Parallel()

		s := baseSnapshot()
		s.IPIPercent = decimal.NewFromInt(10)
		prod := s.Products["p1"]
		prod.IPIExempt = true
		s.Products["p1"] = prod

		res := s.PriceLine(s.Lines[0])
		requireDec(t, "0", res.IPIPerUnit)
	})
}

func TestComputeTotals(t *testing.T) {
	t.Parallel()

	s := baseSnapshot()
	s.TaxSubstitution = &TaxSubstitutionOption{Rate: dec(t, "7.8")}
	s.Delivery = &Delivery{Region: "Grande Vitória", Carrier: "própria", Fee: decimal.NewFromInt(30)}

	tot := s.Compute()

	requireDec(t, "200", tot.Subtotal)
	requireDec(t, "20", tot.TotalDiscount)
	requireDec(t, "5.4756", tot.TaxSubTotal)
	requireDec(t, "30", tot.DeliveryFee)
	requireDec(t, "215.4756", tot.GrandTotal)
}

func TestComputeGrandTotalInvariant(t *testing.T) {
	t.Parallel()

	s := Snapshot{
		Lines: []Line{
			{ProductID: "a", Quantity: decimal.NewFromInt(3), DiscountPercent: dec(t, "12.5")},
			{ProductID: "b", Quantity: decimal.NewFromInt(7), DiscountPercent: decimal.NewFromInt(0)},
			{ProductID: "c", Quantity: decimal.NewFromInt(1), DiscountPercent: decimal.NewFromInt(100)},
		},
		Products: map[string]Product{
			"a": {ID: "a", ListPrice: dec(t, "19.90"), MVA: decimal.NewFromInt(45), UnitsPerVolume: dec(t, "12")},
			"b": {ID: "b", ListPrice: dec(t, "7.35")},
			"c": {ID: "c", ListPrice: dec(t, "250"), IPIExempt: true},
		},
		ApplyDiscounts:  true,
		TaxSubstitution: &TaxSubstitutionOption{Rate: dec(t, "7.8")},
		IPIPercent:      decimal.NewFromInt(5),
		Delivery:        &Delivery{Region: "Interior", Fee: dec(t, "85.50")},
		HalfInvoice:     &HalfInvoiceOption{Percent: decimal.NewFromInt(60), Mode: HalfInvoicePrice},
		Catalog:         DefaultCatalog(dec(t, "7.8")),
	}

	tot := s.Compute()
	want := tot.Subtotal.Sub(tot.TotalDiscount).Add(tot.TaxSubTotal).Add(tot.IPITotal).Add(tot.DeliveryFee)
	require.True(t, tot.GrandTotal.Equal(want), "grand total %s does not match component sum %s", tot.GrandTotal, want)
}

func TestComputeApplyDiscountsOff(t *testing.T) {
	t.Parallel()

	s := baseSnapshot()
	s.ApplyDiscounts = false
	s.TaxSubstitution = &TaxSubstitutionOption{Rate: dec(t, "7.8")}
	s.IPIPercent = decimal.NewFromInt(10)
	s.Delivery = &Delivery{Region: "Serra", Fee: decimal.NewFromInt(40)}

	tot := s.Compute()

	requireDec(t, "200", tot.Subtotal)
	requireDec(t, "0", tot.TotalDiscount)
	requireDec(t, "0", tot.TaxSubTotal)
	requireDec(t, "0", tot.IPITotal)
	requireDec(t, "40", tot.DeliveryFee)
	requireDec(t, "240", tot.GrandTotal)

	// Selections stay on record even though they moved no money.
	require.Len(t, tot.Effects, 1)
	require.Equal(t, KindTaxSubstitution, tot.Effects[0].Kind)
	require.False(t, tot.Effects[0].Applied)
}

func TestComputePickupWaivesDeliveryFee(t *testing.T) {
	t.Parallel()

	s := baseSnapshot()
	s.Pickup = &PickupOption{}
	s.Delivery = &Delivery{Region: "Vila Velha", Fee: decimal.NewFromInt(55)}

	tot := s.Compute()
	requireDec(t, "0", tot.DeliveryFee)
	requireDec(t, "180", tot.GrandTotal)
}

func TestComputeEmptyCart(t *testing.T) {
	t.Parallel()

	s := Snapshot{ApplyDiscounts: true}
	tot := s.Compute()

	requireDec(t, "0", tot.Subtotal)
	requireDec(t, "0", tot.GrandTotal)
	require.Empty(t, tot.Lines)
}

func TestCatalogLookup(t *testing.T) {
	t.Parallel()

	cat := DefaultCatalog(dec(t, "7.8"))

	opt, ok := cat.Lookup(KindHalfInvoice)
	require.True(t, ok)
	require.Equal(t, PolarityDiscount, opt.Polarity)

	_, ok = cat.Lookup(Kind("unknown"))
	require.False(t, ok)
}
