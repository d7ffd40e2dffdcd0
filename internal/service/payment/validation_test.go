package payment

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gescom-app/ledger-engine/internal/domain"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func flexibleInvoice(minimum, remaining string) *domain.Invoice {
	return &domain.Invoice{
		PaymentMode:     domain.PaymentModeFlexible,
		MinimumPayment:  d(minimum),
		AmountRemaining: d(remaining),
		TotalTTC:        d(remaining),
	}
}

func TestValidatePaymentRules(t *testing.T) {
	tests := []struct {
		name    string
		invoice *domain.Invoice
		amount  string
		wantErr error
	}{
		{
			name:    "flexible below minimum rejected",
			invoice: flexibleInvoice("100", "500"),
			amount:  "50",
			wantErr: domain.ErrBelowMinimum,
		},
		{
			name:    "flexible at minimum accepted",
			invoice: flexibleInvoice("100", "500"),
			amount:  "100",
		},
		{
			name:    "flexible above minimum accepted",
			invoice: flexibleInvoice("100", "500"),
			amount:  "150",
		},
		{
			name:    "flexible below minimum but settling the balance accepted",
			invoice: flexibleInvoice("100", "80"),
			amount:  "80",
		},
		{
			name:    "overpayment rejected on flexible",
			invoice: flexibleInvoice("100", "500"),
			amount:  "501",
			wantErr: domain.ErrOverpayment,
		},
		{
			name: "overpayment rejected on lump sum",
			invoice: &domain.Invoice{
				PaymentMode:     domain.PaymentModeLumpSum,
				AmountRemaining: d("500"),
			},
			amount:  "500.01",
			wantErr: domain.ErrOverpayment,
		},
		{
			name: "lump sum has no minimum",
			invoice: &domain.Invoice{
				PaymentMode:     domain.PaymentModeLumpSum,
				AmountRemaining: d("500"),
			},
			amount: "1",
		},
		{
			name: "due date mode has no minimum",
			invoice: &domain.Invoice{
				PaymentMode:     domain.PaymentModeDueDate,
				AmountRemaining: d("500"),
			},
			amount: "25",
		},
		{
			name:    "exact remaining accepted",
			invoice: flexibleInvoice("100", "350"),
			amount:  "350",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := validatePaymentRules(tc.invoice, d(tc.amount))

			if tc.wantErr != nil {
				require.ErrorIs(t, err, tc.wantErr)
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestDerivePaymentStatus(t *testing.T) {
	now := time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)
	past := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	future := time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name      string
		finalDate *time.Time
		paid      string
		remaining string
		want      domain.PaymentStatus
	}{
		{name: "settled is paid", finalDate: &past, paid: "500", remaining: "0", want: domain.PaymentStatusPaid},
		{name: "unsettled past final date is overdue", finalDate: &past, paid: "100", remaining: "400", want: domain.PaymentStatusOverdue},
		{name: "partially paid before final date", finalDate: &future, paid: "100", remaining: "400", want: domain.PaymentStatusPartial},
		{name: "nothing paid before final date", finalDate: &future, paid: "0", remaining: "500", want: domain.PaymentStatusUnpaid},
		{name: "no final date never overdue", finalDate: nil, paid: "0", remaining: "500", want: domain.PaymentStatusUnpaid},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			inv := &domain.Invoice{FinalPaymentDate: tc.finalDate}
			got := derivePaymentStatus(inv, d(tc.paid), d(tc.remaining), now)
			assert.Equal(t, tc.want, got)
		})
	}
}
