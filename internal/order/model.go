// Package order is the mutation boundary around the pricing engine: it owns
// draft orders, validates user input, and re-derives the stored totals after
// every change. Totals are never patched in place.
package order

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/lmcorreia/backend-pedidos/internal/pricing"
)

// Status is the order lifecycle state.
type Status string

const (
	StatusDraft     Status = "DRAFT"
	StatusSubmitted Status = "SUBMITTED"
	StatusCancelled Status = "CANCELLED"
)

// Line is one order line as stored.
type Line struct {
	ID              string          `json:"id"`
	ProductID       string          `json:"productId"`
	Quantity        decimal.Decimal `json:"quantity"`
	DiscountPercent decimal.Decimal `json:"discountPercent"`
}

// Options is the order-level commercial and fiscal selection.
type Options struct {
	ApplyDiscounts     bool                    `json:"applyDiscounts"`
	Pickup             bool                    `json:"pickup"`
	DeliveryRegion     string                  `json:"deliveryRegion,omitempty"`
	HalfInvoice        bool                    `json:"halfInvoice"`
	HalfInvoicePercent decimal.Decimal         `json:"halfInvoicePercent"`
	HalfInvoiceMode    pricing.HalfInvoiceMode `json:"halfInvoiceMode,omitempty"`
	TaxSubstitution    bool                    `json:"taxSubstitution"`
	CashPayment        bool                    `json:"cashPayment"`
	PaymentMethod      string                  `json:"paymentMethod,omitempty"`
	PaymentTerms       string                  `json:"paymentTerms,omitempty"`
}

// Order aggregates lines, options, and the derived totals.
type Order struct {
	ID         string         `json:"id"`
	CustomerID string         `json:"customerId"`
	Status     Status         `json:"status"`
	Lines      []Line         `json:"lines"`
	Options    Options        `json:"options"`
	Totals     pricing.Totals `json:"totals"`
	CreatedAt  time.Time      `json:"createdAt"`
	UpdatedAt  time.Time      `json:"updatedAt"`
}

// LineInput is the payload for adding or updating a line.
type LineInput struct {
	ProductID       string
	Quantity        int64
	DiscountPercent *decimal.Decimal
}

func (o *Order) findLine(lineID string) *Line {
	for i := range o.Lines {
		if o.Lines[i].ID == lineID {
			return &o.Lines[i]
		}
	}
	return nil
}

func (o *Order) pricingLines() []pricing.Line {
	out := make([]pricing.Line, 0, len(o.Lines))
	for _, ln := range o.Lines {
		out = append(out, pricing.Line{
			ProductID:       ln.ProductID,
			Quantity:        ln.Quantity,
			DiscountPercent: ln.DiscountPercent,
		})
	}
	return out
}

func (o *Order) productIDs() []string {
	ids := make([]string, 0, len(o.Lines))
	seen := make(map[string]struct{}, len(o.Lines))
	for _, ln := range o.Lines {
		if _, ok := seen[ln.ProductID]; ok {
			continue
		}
		seen[ln.ProductID] = struct{}{}
		ids = append(ids, ln.ProductID)
	}
	return ids
}
