package payment

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/gescom-app/ledger-engine/internal/domain"
	"github.com/gescom-app/ledger-engine/internal/logging"
)

var daysPerMonth = decimal.NewFromInt(30)

type LatePenalty struct {
	Penalty  decimal.Decimal
	DaysLate int
}

// ComputeLatePenalty pro-rates the invoice's monthly penalty rate by day:
// remaining × rate/100 / 30 × daysLate. Before the final payment date, or
// on invoices with no final date, the result is zero.
func (s *Service) ComputeLatePenalty(ctx context.Context, invoiceID uuid.UUID) (LatePenalty, error) {
	inv, err := s.invoices.GetByID(ctx, invoiceID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return LatePenalty{}, fmt.Errorf("ComputeLatePenalty: %s: %w", invoiceID, domain.ErrInvoiceNotFound)
		}
		return LatePenalty{}, fmt.Errorf("ComputeLatePenalty: %w", err)
	}

	daysLate := 0
	if inv.FinalPaymentDate != nil {
		if late := int(s.now().Sub(*inv.FinalPaymentDate).Hours() / 24); late > 0 {
			daysLate = late
		}
	}
	if daysLate == 0 || !inv.AmountRemaining.IsPositive() {
		return LatePenalty{Penalty: decimal.Zero}, nil
	}

	penalty := inv.AmountRemaining.
		Mul(inv.PenaltyRatePct).Div(decimal.NewFromInt(100)).
		Div(daysPerMonth).
		Mul(decimal.NewFromInt(int64(daysLate))).
		Round(2)

	return LatePenalty{Penalty: penalty, DaysLate: daysLate}, nil
}

// SweepOverdue flags every validated invoice past its final payment date
// that still carries a balance, and reports how many it flipped. Each flip
// is its own transaction so one bad row cannot stall the whole sweep.
func (s *Service) SweepOverdue(ctx context.Context) (int, error) {
	log := logging.FromContext(ctx)
	now := s.now()

	candidates, err := s.invoices.ListOverdueCandidates(ctx, now)
	if err != nil {
		return 0, fmt.Errorf("SweepOverdue: %w", err)
	}

	flipped := 0
	for _, inv := range candidates {
		if err := s.markOverdue(ctx, inv.ID); err != nil {
			log.Error("overdue flag failed", "invoice_number", inv.Number, "error", err)
			continue
		}
		flipped++

		penalty, err := s.ComputeLatePenalty(ctx, inv.ID)
		if err != nil {
			log.Error("penalty computation failed", "invoice_number", inv.Number, "error", err)
			continue
		}
		log.Info("invoice overdue",
			"invoice_number", inv.Number,
			"remaining", inv.AmountRemaining.String(),
			"days_late", penalty.DaysLate,
			"penalty", penalty.Penalty.String(),
		)
	}
	return flipped, nil
}

func (s *Service) markOverdue(ctx context.Context, invoiceID uuid.UUID) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("markOverdue: begin tx: %w", err)
	}
	defer tx.Rollback()

	inv, err := s.invoices.GetForUpdate(ctx, tx, invoiceID)
	if err != nil {
		return fmt.Errorf("markOverdue: %w", err)
	}

	// A payment may have settled the invoice between the list and the lock.
	if !inv.AmountRemaining.IsPositive() || inv.PaymentStatus == domain.PaymentStatusOverdue {
		return nil
	}

	if err := s.invoices.UpdatePaymentState(ctx, tx, inv.ID, inv.AmountPaid, inv.AmountRemaining, domain.PaymentStatusOverdue); err != nil {
		return fmt.Errorf("markOverdue: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("markOverdue: commit: %w", err)
	}
	return nil
}
