// Package pricing implements the order pricing engine: per-line discount and
// fiscal adjustments, order-level aggregation and the half-invoice document
// split. All arithmetic is exact decimal; rounding happens only where the
// fiscal rules require it.
package pricing

import "github.com/shopspring/decimal"

var (
	hundred = decimal.NewFromInt(100)

	// DefaultMVA is the margin-of-added-value percent used for ICMS-ST
	// when the product record carries none.
	DefaultMVA = decimal.NewFromInt(39)
)

// Product is the catalog data the engine needs for one SKU.
type Product struct {
	ID             string
	Name           string
	ListPrice      decimal.Decimal
	UnitsPerVolume decimal.Decimal // zero means 1
	MVA            decimal.Decimal // zero means DefaultMVA applies
	IPIExempt      bool
	WeightKg       decimal.Decimal
	VolumeM3       decimal.Decimal
}

// Line is one order line as entered by the salesperson.
type Line struct {
	ProductID       string
	Quantity        decimal.Decimal
	DiscountPercent decimal.Decimal
}

// Snapshot is everything the engine reads for one computation. It is a pure
// value: the engine never touches storage, so a snapshot prices the same way
// every time.
type Snapshot struct {
	Lines    []Line
	Products map[string]Product

	ApplyDiscounts bool

	Pickup          *PickupOption
	Delivery        *Delivery
	HalfInvoice     *HalfInvoiceOption
	TaxSubstitution *TaxSubstitutionOption
	CashPayment     *CashPaymentOption

	// IPIPercent is the surcharge applied to non-exempt products.
	IPIPercent decimal.Decimal
	// ScaleIPIByHalfInvoice mirrors the half-invoice proration onto the
	// IPI surcharge when set.
	ScaleIPIByHalfInvoice bool
	// DefaultMVA overrides the package default for products with no MVA.
	DefaultMVA decimal.Decimal

	Catalog Catalog
}

// LineResult is the priced form of one line.
type LineResult struct {
	ProductID      string          `json:"productId"`
	Quantity       decimal.Decimal `json:"quantity"`
	TotalUnits     decimal.Decimal `json:"totalUnits"`
	ListPrice      decimal.Decimal `json:"listPrice"`
	DiscountPct    decimal.Decimal `json:"discountPercent"`
	FinalUnitPrice decimal.Decimal `json:"finalUnitPrice"`
	TaxSubPerUnit  decimal.Decimal `json:"taxSubstitutionPerUnit"`
	IPIPerUnit     decimal.Decimal `json:"ipiPerUnit"`
	Subtotal       decimal.Decimal `json:"subtotal"`
}

// OptionEffect records, for audit, an option that was selected on the order
// and the percent it carries, whether or not it moved money.
type OptionEffect struct {
	Kind    Kind            `json:"kind"`
	Percent decimal.Decimal `json:"percent"`
	Applied bool            `json:"applied"`
}

// Totals is the order-level result.
type Totals struct {
	Lines         []LineResult    `json:"lines"`
	Subtotal      decimal.Decimal `json:"subtotal"`
	TotalDiscount decimal.Decimal `json:"totalDiscount"`
	TaxSubTotal   decimal.Decimal `json:"taxSubstitutionTotal"`
	IPITotal      decimal.Decimal `json:"ipiTotal"`
	DeliveryFee   decimal.Decimal `json:"deliveryFee"`
	GrandTotal    decimal.Decimal `json:"grandTotal"`
	Effects       []OptionEffect  `json:"optionEffects,omitempty"`
}

// ClampPercent forces a percentage into [0,100]. Out-of-range inputs are a
// data-entry artifact, not an error.
func ClampPercent(p decimal.Decimal) decimal.Decimal {
	if p.IsNegative() {
		return decimal.Zero
	}
	if p.GreaterThan(hundred) {
		return hundred
	}
	return p
}

// halfInvoiceFactor returns the active proration (percent/100) or 1.
func (s Snapshot) halfInvoiceFactor() decimal.Decimal {
	if s.HalfInvoice == nil {
		return decimal.NewFromInt(1)
	}
	return ClampPercent(s.HalfInvoice.Percent).Shift(-2)
}

func (s Snapshot) taxSubRate() (decimal.Decimal, bool) {
	if s.TaxSubstitution == nil {
		return decimal.Zero, false
	}
	rate := s.TaxSubstitution.Rate
	if rate.IsZero() {
		if opt, ok := s.Catalog.Lookup(KindTaxSubstitution); ok {
			rate = opt.Percent
		}
	}
	if !rate.IsPositive() {
		return decimal.Zero, false
	}
	return rate, true
}

// PriceLine prices a single line against the snapshot's order-level options.
// A product missing from the snapshot yields a zeroed result carrying the
// line identity, so a stale order never fails to price.
func (s Snapshot) PriceLine(ln Line) LineResult {
	res := LineResult{
		ProductID:   ln.ProductID,
		Quantity:    ln.Quantity,
		DiscountPct: ClampPercent(ln.DiscountPercent),
	}
	prod, ok := s.Products[ln.ProductID]
	if !ok {
		res.TotalUnits = ln.Quantity
		return res
	}

	units := prod.UnitsPerVolume
	if !units.IsPositive() {
		units = decimal.NewFromInt(1)
	}
	res.TotalUnits = ln.Quantity.Mul(units)
	res.ListPrice = prod.ListPrice

	// Discounted unit price. The list price stays untouched so the order
	// subtotal can still be measured against it.
	res.FinalUnitPrice = prod.ListPrice.Mul(decimal.NewFromInt(1).Sub(res.DiscountPct.Shift(-2)))

	if rate, active := s.taxSubRate(); active {
		mva := prod.MVA
		if !mva.IsPositive() {
			mva = s.DefaultMVA
		}
		if !mva.IsPositive() {
			mva = DefaultMVA
		}
		res.TaxSubPerUnit = res.FinalUnitPrice.Mul(mva.Shift(-2)).Mul(rate.Shift(-2)).Mul(s.halfInvoiceFactor())
	}

	if !prod.IPIExempt && s.IPIPercent.IsPositive() {
		res.IPIPerUnit = res.FinalUnitPrice.Mul(s.IPIPercent.Shift(-2))
		if s.ScaleIPIByHalfInvoice {
			res.IPIPerUnit = res.IPIPerUnit.Mul(s.halfInvoiceFactor())
		}
	}

	res.Subtotal = res.FinalUnitPrice.Add(res.TaxSubPerUnit).Add(res.IPIPerUnit).Mul(res.TotalUnits)
	return res
}

// Compute prices the whole snapshot. It never fails: unknown products and
// inactive options contribute zero. When ApplyDiscounts is off the monetary
// effect of every discount and surcharge is suppressed from the totals while
// the selected options are still recorded for audit.
func (s Snapshot) Compute() Totals {
	t := Totals{
		Subtotal:      decimal.Zero,
		TotalDiscount: decimal.Zero,
		TaxSubTotal:   decimal.Zero,
		IPITotal:      decimal.Zero,
		DeliveryFee:   decimal.Zero,
	}

	effective := s
	if !s.ApplyDiscounts {
		effective.TaxSubstitution = nil
		effective.IPIPercent = decimal.Zero
	}

	for _, ln := range s.Lines {
		res := effective.PriceLine(ln)
		t.Lines = append(t.Lines, res)

		gross := res.ListPrice.Mul(ln.Quantity)
		t.Subtotal = t.Subtotal.Add(gross)
		if s.ApplyDiscounts {
			t.TotalDiscount = t.TotalDiscount.Add(gross.Mul(res.DiscountPct.Shift(-2)))
		}
		t.TaxSubTotal = t.TaxSubTotal.Add(res.TaxSubPerUnit.Mul(res.TotalUnits))
		t.IPITotal = t.IPITotal.Add(res.IPIPerUnit.Mul(res.TotalUnits))
	}

	if s.Pickup == nil && s.Delivery != nil {
		t.DeliveryFee = s.Delivery.Fee
	}

	t.GrandTotal = t.Subtotal.Sub(t.TotalDiscount).Add(t.TaxSubTotal).Add(t.IPITotal).Add(t.DeliveryFee)
	t.Effects = s.effects()
	return t
}

// effects lists the selected options with their catalog percents.
func (s Snapshot) effects() []OptionEffect {
	var out []OptionEffect
	add := func(kind Kind, applied bool, percent decimal.Decimal) {
		eff := OptionEffect{Kind: kind, Percent: percent, Applied: applied && s.ApplyDiscounts}
		if eff.Percent.IsZero() {
			if opt, ok := s.Catalog.Lookup(kind); ok {
				eff.Percent = opt.Percent
			}
		}
		out = append(out, eff)
	}
	if s.Pickup != nil {
		add(KindPickup, false, decimal.Zero)
	}
	if s.HalfInvoice != nil {
		add(KindHalfInvoice, true, ClampPercent(s.HalfInvoice.Percent))
	}
	if s.TaxSubstitution != nil {
		add(KindTaxSubstitution, true, s.TaxSubstitution.Rate)
	}
	if s.CashPayment != nil {
		add(KindCashPayment, false, decimal.Zero)
	}
	return out
}
