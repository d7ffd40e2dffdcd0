package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type InvoiceKind string

const (
	InvoiceKindProforma   InvoiceKind = "proforma"
	InvoiceKindInvoice    InvoiceKind = "invoice"
	InvoiceKindCreditNote InvoiceKind = "credit_note"
)

type InvoiceStatus string

const (
	InvoiceStatusDraft     InvoiceStatus = "draft"
	InvoiceStatusValidated InvoiceStatus = "validated"
	InvoiceStatusCancelled InvoiceStatus = "cancelled"
)

type PaymentStatus string

const (
	PaymentStatusUnpaid  PaymentStatus = "unpaid"
	PaymentStatusPartial PaymentStatus = "partial"
	PaymentStatusPaid    PaymentStatus = "paid"
	PaymentStatusOverdue PaymentStatus = "overdue"
)

// PaymentMode is the payment plan attached to an invoice, not the method of
// an individual payment (see PaymentMethod).
type PaymentMode string

const (
	PaymentModeLumpSum  PaymentMode = "lump_sum"
	PaymentModeFlexible PaymentMode = "flexible"
	PaymentModeDueDate  PaymentMode = "due_date"
	PaymentModeDeposit  PaymentMode = "deposit"
)

type Invoice struct {
	ID               uuid.UUID
	Number           int64
	Kind             InvoiceKind
	Date             time.Time
	CounterpartyID   uuid.UUID
	Currency         Currency
	FxRate           decimal.Decimal
	Status           InvoiceStatus
	PaymentStatus    PaymentStatus
	PaymentMode      PaymentMode
	AmountPaid       decimal.Decimal
	AmountRemaining  decimal.Decimal
	DueDate          *time.Time
	FinalPaymentDate *time.Time
	MinimumPayment   decimal.Decimal
	PenaltyRatePct   decimal.Decimal
	TotalHT          decimal.Decimal
	TotalTVA         decimal.Decimal
	TotalTTC         decimal.Decimal
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

type InvoiceLine struct {
	ID          uuid.UUID
	InvoiceID   uuid.UUID
	Position    int
	ItemCode    *string
	Description string
	Quantity    decimal.Decimal
	UnitPrice   decimal.Decimal
	DiscountPct decimal.Decimal
	TaxRatePct  decimal.Decimal
	AmountHT    decimal.Decimal
	AmountTVA   decimal.Decimal
	AmountTTC   decimal.Decimal
}

type InvoiceEventType string

const (
	InvoiceEventCreated      InvoiceEventType = "created"
	InvoiceEventTransitioned InvoiceEventType = "transitioned"
)

// InvoiceEvent is the append-only audit trail of lifecycle transitions. A
// cancelled invoice that gets re-validated is linked to its first validation
// through these rows.
type InvoiceEvent struct {
	ID         uuid.UUID
	InvoiceID  uuid.UUID
	EventType  InvoiceEventType
	FromStatus InvoiceStatus
	ToStatus   InvoiceStatus
	Actor      string
	CreatedAt  time.Time
}
