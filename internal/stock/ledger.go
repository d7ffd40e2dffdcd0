// Package stock adjusts and queries on-hand quantities. Adjustments are
// row-locked so concurrent invoice validations cannot both consume the same
// units; a decrement that would take on-hand below zero is rejected.
package stock

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/gescom-app/ledger-engine/internal/domain"
	"github.com/gescom-app/ledger-engine/internal/logging"
)

type itemRepo interface {
	GetByCode(ctx context.Context, code string) (*domain.Item, error)
	GetForUpdate(ctx context.Context, tx *sql.Tx, code string) (*domain.Item, error)
	UpdateOnHand(ctx context.Context, tx *sql.Tx, code string, onHand decimal.Decimal) error
}

type Ledger struct {
	items itemRepo
}

func NewLedger(items itemRepo) *Ledger {
	return &Ledger{items: items}
}

type Availability struct {
	Available bool
	OnHand    decimal.Decimal
	Status    domain.StockStatus
}

func classify(onHand, threshold decimal.Decimal) domain.StockStatus {
	switch {
	case !onHand.IsPositive():
		return domain.StockStatusOut
	case onHand.LessThanOrEqual(threshold):
		return domain.StockStatusLow
	default:
		return domain.StockStatusAvailable
	}
}

func (l *Ledger) CheckAvailability(ctx context.Context, itemCode string, requested decimal.Decimal) (Availability, error) {
	item, err := l.items.GetByCode(ctx, itemCode)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return Availability{}, fmt.Errorf("CheckAvailability: %s: %w", itemCode, domain.ErrItemNotFound)
		}
		return Availability{}, fmt.Errorf("CheckAvailability: %w", err)
	}

	status := classify(item.OnHand, item.LowStockThreshold)
	return Availability{
		Available: status != domain.StockStatusOut && requested.LessThanOrEqual(item.OnHand),
		OnHand:    item.OnHand,
		Status:    status,
	}, nil
}

// Adjust applies onHand += delta under a row lock. Sales pass negative
// deltas, cancellation reversals positive ones.
func (l *Ledger) Adjust(ctx context.Context, tx *sql.Tx, itemCode string, delta decimal.Decimal, reason string) error {
	item, err := l.items.GetForUpdate(ctx, tx, itemCode)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return fmt.Errorf("Adjust: %s: %w", itemCode, domain.ErrItemNotFound)
		}
		return fmt.Errorf("Adjust: %w", err)
	}

	next := item.OnHand.Add(delta)
	if next.IsNegative() {
		return fmt.Errorf("Adjust: %s: on hand %s, delta %s: %w",
			itemCode, item.OnHand, delta, domain.ErrInsufficientStock)
	}

	if err := l.items.UpdateOnHand(ctx, tx, itemCode, next); err != nil {
		return fmt.Errorf("Adjust: %w", err)
	}

	logging.FromContext(ctx).Debug("stock adjusted",
		"item", itemCode, "delta", delta.String(), "on_hand", next.String(), "reason", reason)
	return nil
}

// VerifyLines re-reads current stock for every line that references an item
// and aggregates all problems into a single *domain.StockError. Lines
// without an item reference are service lines and are skipped.
func (l *Ledger) VerifyLines(ctx context.Context, lines []domain.InvoiceLine) error {
	var problems []domain.StockProblem

	for _, line := range lines {
		if line.ItemCode == nil {
			continue
		}
		code := *line.ItemCode

		item, err := l.items.GetByCode(ctx, code)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				problems = append(problems, domain.StockProblem{
					ItemCode:  code,
					Requested: line.Quantity,
					Err:       domain.ErrItemNotFound,
				})
				continue
			}
			return fmt.Errorf("VerifyLines: %s: %w", code, err)
		}

		switch {
		case !item.Active:
			problems = append(problems, domain.StockProblem{
				ItemCode: code, Requested: line.Quantity, OnHand: item.OnHand,
				Err: domain.ErrItemInactive,
			})
		case !item.OnHand.IsPositive():
			problems = append(problems, domain.StockProblem{
				ItemCode: code, Requested: line.Quantity, OnHand: item.OnHand,
				Err: domain.ErrOutOfStock,
			})
		case line.Quantity.GreaterThan(item.OnHand):
			problems = append(problems, domain.StockProblem{
				ItemCode: code, Requested: line.Quantity, OnHand: item.OnHand,
				Err: domain.ErrInsufficientStock,
			})
		}
	}

	if len(problems) > 0 {
		return &domain.StockError{Problems: problems}
	}
	return nil
}
