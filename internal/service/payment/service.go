// Package payment applies payments against invoice balances: minimum and
// overpayment rules, journal posting, and the recomputation of the
// invoice's paid/remaining amounts and payment status. Everything a single
// payment touches is written in one transaction.
package payment

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/gescom-app/ledger-engine/internal/domain"
	"github.com/gescom-app/ledger-engine/internal/logging"
)

const paymentSequence = "payments"

type invoiceRepo interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Invoice, error)
	GetForUpdate(ctx context.Context, tx *sql.Tx, id uuid.UUID) (*domain.Invoice, error)
	UpdatePaymentState(ctx context.Context, tx *sql.Tx, id uuid.UUID, paid, remaining decimal.Decimal, status domain.PaymentStatus) error
	ListOverdueCandidates(ctx context.Context, asOf time.Time) ([]domain.Invoice, error)
}

type paymentRepo interface {
	Create(ctx context.Context, tx *sql.Tx, p *domain.Payment) error
	SumValidByInvoice(ctx context.Context, tx *sql.Tx, invoiceID uuid.UUID) (decimal.Decimal, error)
	GetByInvoice(ctx context.Context, invoiceID uuid.UUID) ([]domain.Payment, error)
}

type journalGenerator interface {
	PostPayment(ctx context.Context, tx *sql.Tx, p *domain.Payment, inv *domain.Invoice) ([]domain.JournalEntry, error)
}

type sequenceRepo interface {
	Next(ctx context.Context, tx *sql.Tx, name string) (int64, error)
}

type Service struct {
	invoices invoiceRepo
	payments paymentRepo
	journal  journalGenerator
	seq      sequenceRepo
	db       *sql.DB
	now      func() time.Time
}

func NewService(invoices invoiceRepo, payments paymentRepo, journal journalGenerator, seq sequenceRepo, db *sql.DB) *Service {
	return &Service{
		invoices: invoices,
		payments: payments,
		journal:  journal,
		seq:      seq,
		db:       db,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

type RegisterPaymentRequest struct {
	InvoiceID uuid.UUID
	Amount    decimal.Decimal
	Method    domain.PaymentMethod
	Reference string
	Date      time.Time
}

func (s *Service) RegisterPayment(ctx context.Context, req RegisterPaymentRequest) (*domain.Payment, error) {
	log := logging.FromContext(ctx)

	if !req.Amount.IsPositive() {
		return nil, fmt.Errorf("RegisterPayment: %w", domain.ErrInvalidAmount)
	}
	if !req.Method.IsValid() {
		return nil, fmt.Errorf("RegisterPayment: method %q: %w", req.Method, domain.ErrInvalidMethod)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("RegisterPayment: begin tx: %w", err)
	}
	defer tx.Rollback()

	inv, err := s.invoices.GetForUpdate(ctx, tx, req.InvoiceID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("RegisterPayment: %s: %w", req.InvoiceID, domain.ErrInvoiceNotFound)
		}
		return nil, fmt.Errorf("RegisterPayment: %w", err)
	}

	if err := validatePaymentRules(inv, req.Amount); err != nil {
		return nil, fmt.Errorf("RegisterPayment: invoice %d: %w", inv.Number, err)
	}

	number, err := s.seq.Next(ctx, tx, paymentSequence)
	if err != nil {
		return nil, fmt.Errorf("RegisterPayment: %w", err)
	}

	p := &domain.Payment{
		ID:        uuid.New(),
		Number:    number,
		InvoiceID: inv.ID,
		Amount:    req.Amount,
		Date:      req.Date,
		Method:    req.Method,
		Reference: req.Reference,
		Status:    domain.PaymentRowValid,
		Currency:  inv.Currency,
		FxRate:    inv.FxRate,
		CreatedAt: s.now(),
	}
	if err := s.payments.Create(ctx, tx, p); err != nil {
		return nil, fmt.Errorf("RegisterPayment: %w", err)
	}

	if _, err := s.journal.PostPayment(ctx, tx, p, inv); err != nil {
		return nil, fmt.Errorf("RegisterPayment: %w", err)
	}

	paid, err := s.payments.SumValidByInvoice(ctx, tx, inv.ID)
	if err != nil {
		return nil, fmt.Errorf("RegisterPayment: %w", err)
	}
	remaining := inv.TotalTTC.Sub(paid)
	status := derivePaymentStatus(inv, paid, remaining, s.now())

	if err := s.invoices.UpdatePaymentState(ctx, tx, inv.ID, paid, remaining, status); err != nil {
		return nil, fmt.Errorf("RegisterPayment: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("RegisterPayment: commit: %w", err)
	}

	log.Info("payment registered",
		"payment_number", p.Number,
		"invoice_number", inv.Number,
		"amount", req.Amount.String(),
		"method", req.Method,
		"remaining", remaining.String(),
		"payment_status", status,
	)
	return p, nil
}

// validatePaymentRules enforces the two balance rules: flexible-plan
// payments must reach the minimum unless they settle the whole remaining
// balance, and no payment may exceed the remaining balance.
func validatePaymentRules(inv *domain.Invoice, amount decimal.Decimal) error {
	remaining := inv.AmountRemaining

	if inv.PaymentMode == domain.PaymentModeFlexible &&
		amount.LessThan(inv.MinimumPayment) && amount.LessThan(remaining) {
		return fmt.Errorf("amount %s below minimum %s: %w",
			amount, inv.MinimumPayment, domain.ErrBelowMinimum)
	}

	if amount.GreaterThan(remaining) {
		return fmt.Errorf("amount %s exceeds remaining %s: %w",
			amount, remaining, domain.ErrOverpayment)
	}

	return nil
}

// derivePaymentStatus recomputes the invoice payment status after a ledger
// change. A settled invoice is paid regardless of dates; an unsettled one
// past its final payment date is overdue.
func derivePaymentStatus(inv *domain.Invoice, paid, remaining decimal.Decimal, now time.Time) domain.PaymentStatus {
	if remaining.IsZero() || remaining.IsNegative() {
		return domain.PaymentStatusPaid
	}
	if inv.FinalPaymentDate != nil && now.After(*inv.FinalPaymentDate) {
		return domain.PaymentStatusOverdue
	}
	if paid.IsPositive() {
		return domain.PaymentStatusPartial
	}
	return domain.PaymentStatusUnpaid
}

func (s *Service) GetPaymentsByInvoice(ctx context.Context, invoiceID uuid.UUID) ([]domain.Payment, error) {
	payments, err := s.payments.GetByInvoice(ctx, invoiceID)
	if err != nil {
		return nil, fmt.Errorf("GetPaymentsByInvoice: %w", err)
	}
	return payments, nil
}
