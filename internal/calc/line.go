// Package calc is the pure arithmetic layer for invoice lines: it turns
// (price, quantity, discount, tax rate) into tax-exclusive/tax/tax-inclusive
// amounts. Rounding is to two decimal places, applied once per line, never
// on running sub-totals, so repeated summation cannot drift.
package calc

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/gescom-app/ledger-engine/internal/domain"
)

var hundred = decimal.NewFromInt(100)

type LineAmounts struct {
	TaxExclusive decimal.Decimal
	Tax          decimal.Decimal
	TaxInclusive decimal.Decimal
}

type Totals struct {
	HT  decimal.Decimal
	TVA decimal.Decimal
	TTC decimal.Decimal
}

func ComputeLine(unitPrice, quantity, discountPct, taxRatePct decimal.Decimal) (LineAmounts, error) {
	if unitPrice.IsNegative() {
		return LineAmounts{}, fmt.Errorf("ComputeLine: unit price: %w", domain.ErrInvalidAmount)
	}
	if quantity.IsNegative() {
		return LineAmounts{}, fmt.Errorf("ComputeLine: %w", domain.ErrInvalidQuantity)
	}
	if discountPct.IsNegative() || discountPct.GreaterThan(hundred) {
		return LineAmounts{}, fmt.Errorf("ComputeLine: %w", domain.ErrInvalidDiscount)
	}
	if taxRatePct.IsNegative() {
		return LineAmounts{}, fmt.Errorf("ComputeLine: tax rate: %w", domain.ErrInvalidAmount)
	}

	discountFactor := decimal.NewFromInt(1).Sub(discountPct.Div(hundred))
	ht := unitPrice.Mul(quantity).Mul(discountFactor).Round(2)
	tva := ht.Mul(taxRatePct).Div(hundred).Round(2)

	return LineAmounts{
		TaxExclusive: ht,
		Tax:          tva,
		TaxInclusive: ht.Add(tva),
	}, nil
}

// ComputeInvoiceTotals sums the already-rounded per-line amounts. An empty
// line set yields zero totals.
func ComputeInvoiceTotals(lines []domain.InvoiceLine) Totals {
	t := Totals{
		HT:  decimal.Zero,
		TVA: decimal.Zero,
		TTC: decimal.Zero,
	}
	for _, l := range lines {
		t.HT = t.HT.Add(l.AmountHT)
		t.TVA = t.TVA.Add(l.AmountTVA)
		t.TTC = t.TTC.Add(l.AmountTTC)
	}
	return t
}
