package pricing

import "github.com/shopspring/decimal"

// LineSplit is one line's share of a half-invoice document pair.
type LineSplit struct {
	ProductID string          `json:"productId"`
	Quantity  decimal.Decimal `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unitPrice"`
	Total     decimal.Decimal `json:"total"`
}

// DocumentView is one side of the half-invoice split: either the fiscal
// (with-invoice) document or the commercial (without-invoice) complement.
type DocumentView struct {
	Lines []LineSplit     `json:"lines"`
	Total decimal.Decimal `json:"total"`
}

// DocumentPair is the full split: WithInvoice carries the declared fraction,
// WithoutInvoice the remainder.
type DocumentPair struct {
	WithInvoice    DocumentView `json:"withInvoice"`
	WithoutInvoice DocumentView `json:"withoutInvoice"`
}

// SplitQuantity divides a unit count by the half-invoice percent. Each side
// is rounded half-up to a whole number independently, so the two sides can
// differ from the original by one unit on fractional inputs. That artifact
// is accepted: fiscal documents carry whole units.
func SplitQuantity(units, percent decimal.Decimal) (with, without decimal.Decimal) {
	pct := ClampPercent(percent).Shift(-2)
	with = units.Mul(pct).Round(0)
	without = units.Mul(decimal.NewFromInt(1).Sub(pct)).Round(0)
	return with, without
}

// SplitPrice divides a unit price by the half-invoice percent. The remainder
// is taken by subtraction, so the two sides always recompose the original
// price exactly.
func SplitPrice(price, percent decimal.Decimal) (with, without decimal.Decimal) {
	pct := ClampPercent(percent).Shift(-2)
	with = price.Mul(pct)
	without = price.Sub(with)
	return with, without
}

// DocumentSplit builds the with/without-invoice pair for a priced snapshot.
// Without an active half-invoice option the whole order lands on the
// with-invoice side. Surcharges (ICMS-ST, IPI) and the delivery fee stay on
// the fiscal document; the commercial complement lists goods only.
func (s Snapshot) DocumentSplit(t Totals) DocumentPair {
	var pair DocumentPair

	if s.HalfInvoice == nil {
		for _, ln := range t.Lines {
			total := ln.FinalUnitPrice.Mul(ln.TotalUnits)
			pair.WithInvoice.Lines = append(pair.WithInvoice.Lines, LineSplit{
				ProductID: ln.ProductID,
				Quantity:  ln.TotalUnits,
				UnitPrice: ln.FinalUnitPrice,
				Total:     total,
			})
			pair.WithInvoice.Total = pair.WithInvoice.Total.Add(total)
		}
		pair.WithInvoice.Total = pair.WithInvoice.Total.Add(t.TaxSubTotal).Add(t.IPITotal).Add(t.DeliveryFee)
		return pair
	}

	percent := ClampPercent(s.HalfInvoice.Percent)
	for _, ln := range t.Lines {
		var withLine, withoutLine LineSplit
		withLine.ProductID, withoutLine.ProductID = ln.ProductID, ln.ProductID

		switch s.HalfInvoice.Mode {
		case HalfInvoicePrice:
			withPrice, withoutPrice := SplitPrice(ln.FinalUnitPrice, percent)
			withLine.Quantity, withoutLine.Quantity = ln.TotalUnits, ln.TotalUnits
			withLine.UnitPrice, withoutLine.UnitPrice = withPrice, withoutPrice
		default:
			withQty, withoutQty := SplitQuantity(ln.TotalUnits, percent)
			withLine.Quantity, withoutLine.Quantity = withQty, withoutQty
			withLine.UnitPrice, withoutLine.UnitPrice = ln.FinalUnitPrice, ln.FinalUnitPrice
		}

		withLine.Total = withLine.UnitPrice.Mul(withLine.Quantity)
		withoutLine.Total = withoutLine.UnitPrice.Mul(withoutLine.Quantity)

		pair.WithInvoice.Lines = append(pair.WithInvoice.Lines, withLine)
		pair.WithoutInvoice.Lines = append(pair.WithoutInvoice.Lines, withoutLine)
		pair.WithInvoice.Total = pair.WithInvoice.Total.Add(withLine.Total)
		pair.WithoutInvoice.Total = pair.WithoutInvoice.Total.Add(withoutLine.Total)
	}

	pair.WithInvoice.Total = pair.WithInvoice.Total.Add(t.TaxSubTotal).Add(t.IPITotal).Add(t.DeliveryFee)
	return pair
}
