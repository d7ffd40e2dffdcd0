package invoice

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/gescom-app/ledger-engine/internal/domain"
)

type paymentPlan struct {
	finalPaymentDate *time.Time
	minimumPayment   decimal.Decimal
}

// planFor derives the payment-plan fields for the requested mode:
//   - lump sum and deposit: the whole balance is due immediately;
//   - flexible: final date pushed out by the configured number of days, and
//     a per-payment minimum of max(percentage of the total, a configured
//     floor expressed in the invoice currency);
//   - due date: a single caller-supplied date, no minimum.
func (s *Service) planFor(ctx context.Context, req CreateRequest, ttc decimal.Decimal) (paymentPlan, error) {
	switch req.PaymentMode {
	case domain.PaymentModeLumpSum, domain.PaymentModeDeposit:
		due := req.Date
		return paymentPlan{finalPaymentDate: &due, minimumPayment: decimal.Zero}, nil

	case domain.PaymentModeFlexible:
		final := req.Date.AddDate(0, 0, s.cfg.FlexibleFinalDays)
		minimum, err := s.flexibleMinimum(ctx, req, ttc)
		if err != nil {
			return paymentPlan{}, fmt.Errorf("planFor: %w", err)
		}
		return paymentPlan{finalPaymentDate: &final, minimumPayment: minimum}, nil

	case domain.PaymentModeDueDate:
		if req.DueDate == nil {
			return paymentPlan{}, fmt.Errorf("planFor: due-date mode requires a due date: %w", domain.ErrInvalidMode)
		}
		return paymentPlan{finalPaymentDate: req.DueDate, minimumPayment: decimal.Zero}, nil

	default:
		return paymentPlan{}, fmt.Errorf("planFor: %q: %w", req.PaymentMode, domain.ErrInvalidMode)
	}
}

func (s *Service) flexibleMinimum(ctx context.Context, req CreateRequest, ttc decimal.Decimal) (decimal.Decimal, error) {
	pct := decimal.NewFromFloat(s.cfg.FlexibleMinimumPct)
	fromPct := ttc.Mul(pct).Div(decimal.NewFromInt(100)).Round(2)

	// The floor is configured in the base currency; express it in the
	// invoice currency before comparing.
	floor := decimal.NewFromFloat(s.cfg.FlexibleMinimumFloor)
	base := domain.Currency(s.cfg.BaseCurrency)
	if req.Currency != base {
		converted, err := s.fx.Convert(ctx, floor, base, req.Currency, req.Date)
		if err != nil {
			return decimal.Zero, fmt.Errorf("flexibleMinimum: %w", err)
		}
		floor = converted
	}

	if fromPct.GreaterThan(floor) {
		return fromPct, nil
	}
	return floor, nil
}
