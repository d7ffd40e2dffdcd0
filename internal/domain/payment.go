package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PaymentMethod is how a single payment was made. It drives the bank/cash
// account selection when the payment is posted to the journal.
type PaymentMethod string

const (
	PaymentMethodCash        PaymentMethod = "cash"
	PaymentMethodBank        PaymentMethod = "bank_transfer"
	PaymentMethodCheque      PaymentMethod = "cheque"
	PaymentMethodMobileMoney PaymentMethod = "mobile_money"
)

func (m PaymentMethod) IsValid() bool {
	switch m {
	case PaymentMethodCash, PaymentMethodBank, PaymentMethodCheque, PaymentMethodMobileMoney:
		return true
	}
	return false
}

type PaymentRowStatus string

const (
	PaymentRowValid     PaymentRowStatus = "valid"
	PaymentRowPending   PaymentRowStatus = "pending"
	PaymentRowCancelled PaymentRowStatus = "cancelled"
)

// Payment is immutable once created except for its status. Currency and
// FxRate are snapshotted from the invoice so historical postings stay
// reproducible after later rate publications.
type Payment struct {
	ID        uuid.UUID
	Number    int64
	InvoiceID uuid.UUID
	Amount    decimal.Decimal
	Date      time.Time
	Method    PaymentMethod
	Reference string
	Status    PaymentRowStatus
	Currency  Currency
	FxRate    decimal.Decimal
	CreatedAt time.Time
}
