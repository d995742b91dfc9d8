package pricing

import "github.com/shopspring/decimal"

// Kind identifies a commercial option from the closed catalog. Each kind has
// a fixed business meaning; there is no generic "option N" slot.
type Kind string

const (
	// KindPickup waives the delivery fee. When not selected a delivery
	// region and carrier must be chosen instead.
	KindPickup Kind = "pickup"
	// KindHalfInvoice activates the partial fiscal documentation split.
	KindHalfInvoice Kind = "half_invoice"
	// KindTaxSubstitution gates the MVA-based ICMS-ST surcharge.
	KindTaxSubstitution Kind = "tax_substitution"
	// KindCashPayment marks payment on delivery. When not selected a
	// payment-terms text is required.
	KindCashPayment Kind = "cash_payment"
)

// Polarity states whether an option reduces or increases price.
type Polarity string

const (
	PolarityDiscount  Polarity = "discount"
	PolaritySurcharge Polarity = "surcharge"
)

// Option is a catalog record: a named, toggleable percentage adjustment.
// The percent on pickup and cash payment is commercial display data and is
// never folded into monetary totals; the tax-substitution percent is the
// ICMS-ST rate applied by the engine.
type Option struct {
	Kind     Kind            `json:"kind"`
	Name     string          `json:"name"`
	Percent  decimal.Decimal `json:"percent"`
	Polarity Polarity        `json:"polarity"`
	Active   bool            `json:"active"`
}

// Catalog is the fixed option set, looked up by kind.
type Catalog []Option

// Lookup returns the catalog entry for the given kind. A missing entry is
// not an error: callers treat it as "effect is zero".
func (c Catalog) Lookup(kind Kind) (Option, bool) {
	for _, opt := range c {
		if opt.Kind == kind {
			return opt, true
		}
	}
	return Option{}, false
}

// DefaultCatalog returns the option set of the reference deployment. The
// percents are tunable per deployment via configuration; only the
// tax-substitution percent participates in pricing.
func DefaultCatalog(taxSubstitutionRate decimal.Decimal) Catalog {
	return Catalog{
		{Kind: KindPickup, Name: "Retira no local", Percent: decimal.NewFromInt(3), Polarity: PolarityDiscount, Active: true},
		{Kind: KindHalfInvoice, Name: "Meia nota", Percent: decimal.NewFromInt(50), Polarity: PolarityDiscount, Active: true},
		{Kind: KindTaxSubstitution, Name: "Substituição tributária", Percent: taxSubstitutionRate, Polarity: PolaritySurcharge, Active: true},
		{Kind: KindCashPayment, Name: "Pagamento à vista", Percent: decimal.NewFromFloat(2.5), Polarity: PolarityDiscount, Active: true},
	}
}

// PickupOption marks the order for customer pickup; no companion data.
type PickupOption struct{}

// Delivery carries the region and carrier required when pickup is not
// selected. Fee is resolved by the freight table before pricing runs.
type Delivery struct {
	Region  string
	Carrier string
	Fee     decimal.Decimal
}

// HalfInvoiceMode selects how the fiscal split is expressed.
type HalfInvoiceMode string

const (
	// HalfInvoiceQuantity splits the unit count between the two documents.
	HalfInvoiceQuantity HalfInvoiceMode = "quantity"
	// HalfInvoicePrice splits the unit price between the two documents.
	HalfInvoicePrice HalfInvoiceMode = "price"
)

// HalfInvoiceOption carries the split percentage and mode.
type HalfInvoiceOption struct {
	Percent decimal.Decimal
	Mode    HalfInvoiceMode
}

// TaxSubstitutionOption carries the ICMS-ST rate as a percent (e.g. 7.8).
type TaxSubstitutionOption struct {
	Rate decimal.Decimal
}

// CashPaymentOption marks payment on delivery; no companion data.
type CashPaymentOption struct{}
