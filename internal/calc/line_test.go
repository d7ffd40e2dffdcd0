package calc

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gescom-app/ledger-engine/internal/domain"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestComputeLine(t *testing.T) {
	tests := []struct {
		name        string
		unitPrice   string
		quantity    string
		discountPct string
		taxRatePct  string
		wantHT      string
		wantTVA     string
		wantTTC     string
		wantErr     error
	}{
		{
			name:      "discounted taxed line",
			unitPrice: "100", quantity: "3", discountPct: "10", taxRatePct: "20",
			wantHT: "270", wantTVA: "54", wantTTC: "324",
		},
		{
			name:      "no discount no tax",
			unitPrice: "19.99", quantity: "2", discountPct: "0", taxRatePct: "0",
			wantHT: "39.98", wantTVA: "0", wantTTC: "39.98",
		},
		{
			name:      "rounding applied once per line",
			unitPrice: "0.333", quantity: "3", discountPct: "0", taxRatePct: "20",
			wantHT: "1", wantTVA: "0.2", wantTTC: "1.2",
		},
		{
			name:      "fractional quantity",
			unitPrice: "15000", quantity: "1.5", discountPct: "5", taxRatePct: "20",
			wantHT: "21375", wantTVA: "4275", wantTTC: "25650",
		},
		{
			name:      "full discount",
			unitPrice: "100", quantity: "2", discountPct: "100", taxRatePct: "20",
			wantHT: "0", wantTVA: "0", wantTTC: "0",
		},
		{
			name:      "negative price",
			unitPrice: "-1", quantity: "1", discountPct: "0", taxRatePct: "0",
			wantErr: domain.ErrInvalidAmount,
		},
		{
			name:      "negative quantity",
			unitPrice: "1", quantity: "-1", discountPct: "0", taxRatePct: "0",
			wantErr: domain.ErrInvalidQuantity,
		},
		{
			name:      "discount above 100",
			unitPrice: "1", quantity: "1", discountPct: "101", taxRatePct: "0",
			wantErr: domain.ErrInvalidDiscount,
		},
		{
			name:      "negative tax rate",
			unitPrice: "1", quantity: "1", discountPct: "0", taxRatePct: "-20",
			wantErr: domain.ErrInvalidAmount,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ComputeLine(d(tc.unitPrice), d(tc.quantity), d(tc.discountPct), d(tc.taxRatePct))

			if tc.wantErr != nil {
				require.ErrorIs(t, err, tc.wantErr)
				return
			}

			require.NoError(t, err)
			assert.True(t, got.TaxExclusive.Equal(d(tc.wantHT)),
				"HT: got %s, want %s", got.TaxExclusive, tc.wantHT)
			assert.True(t, got.Tax.Equal(d(tc.wantTVA)),
				"TVA: got %s, want %s", got.Tax, tc.wantTVA)
			assert.True(t, got.TaxInclusive.Equal(d(tc.wantTTC)),
				"TTC: got %s, want %s", got.TaxInclusive, tc.wantTTC)
			assert.True(t, got.TaxExclusive.Add(got.Tax).Equal(got.TaxInclusive),
				"HT + TVA must equal TTC")
		})
	}
}

func TestComputeInvoiceTotals(t *testing.T) {
	line := func(up, qty, disc, rate string) domain.InvoiceLine {
		amounts, err := ComputeLine(d(up), d(qty), d(disc), d(rate))
		require.NoError(t, err)
		return domain.InvoiceLine{
			Quantity:    d(qty),
			UnitPrice:   d(up),
			DiscountPct: d(disc),
			TaxRatePct:  d(rate),
			AmountHT:    amounts.TaxExclusive,
			AmountTVA:   amounts.Tax,
			AmountTTC:   amounts.TaxInclusive,
		}
	}

	t.Run("empty line set yields zeros", func(t *testing.T) {
		totals := ComputeInvoiceTotals(nil)
		assert.True(t, totals.HT.IsZero())
		assert.True(t, totals.TVA.IsZero())
		assert.True(t, totals.TTC.IsZero())
	})

	t.Run("totals are sums of line amounts", func(t *testing.T) {
		lines := []domain.InvoiceLine{
			line("100", "3", "10", "20"),
			line("19.99", "2", "0", "20"),
			line("0.333", "3", "0", "5"),
		}
		totals := ComputeInvoiceTotals(lines)

		var wantHT, wantTVA, wantTTC decimal.Decimal
		for _, l := range lines {
			wantHT = wantHT.Add(l.AmountHT)
			wantTVA = wantTVA.Add(l.AmountTVA)
			wantTTC = wantTTC.Add(l.AmountTTC)
		}
		assert.True(t, totals.HT.Equal(wantHT), "HT: got %s, want %s", totals.HT, wantHT)
		assert.True(t, totals.TVA.Equal(wantTVA), "TVA: got %s, want %s", totals.TVA, wantTVA)
		assert.True(t, totals.TTC.Equal(wantTTC), "TTC: got %s, want %s", totals.TTC, wantTTC)
		assert.True(t, totals.HT.Add(totals.TVA).Equal(totals.TTC), "HT + TVA must equal TTC")
	})
}
