// Package fx resolves effective-dated exchange rates and converts amounts
// between currencies. Rates are append-only: publishing a new rate for a
// pair deactivates the previous active row, so a conversion as of a past
// date keeps resolving the row that was in force then.
package fx

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/gescom-app/ledger-engine/internal/domain"
)

type rateRepo interface {
	// Latest returns the most recent row for the pair with
	// effective_date <= asOf, or domain.ErrNotFound.
	Latest(ctx context.Context, from, to domain.Currency, asOf time.Time) (*domain.ExchangeRate, error)
	Deactivate(ctx context.Context, tx *sql.Tx, from, to domain.Currency) error
	Insert(ctx context.Context, tx *sql.Tx, rate *domain.ExchangeRate) error
}

type Converter struct {
	rates rateRepo
	db    *sql.DB
}

func NewConverter(rates rateRepo, db *sql.DB) *Converter {
	return &Converter{rates: rates, db: db}
}

// Rate resolves the applicable rate for the pair as of the given date. When
// no direct row exists the inverse pair is tried and reciprocated, so one
// published MGA→USD row also serves USD→MGA conversions.
func (c *Converter) Rate(ctx context.Context, from, to domain.Currency, asOf time.Time) (decimal.Decimal, error) {
	if !from.IsValid() || !to.IsValid() {
		return decimal.Zero, fmt.Errorf("Rate: pair %s/%s: %w", from, to, domain.ErrInvalidCurrency)
	}
	if from == to {
		return decimal.NewFromInt(1), nil
	}

	row, err := c.rates.Latest(ctx, from, to, asOf)
	if err == nil {
		return row.Rate, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return decimal.Zero, fmt.Errorf("Rate: %w", err)
	}

	inverse, err := c.rates.Latest(ctx, to, from, asOf)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return decimal.Zero, fmt.Errorf("Rate: pair %s/%s as of %s: %w",
				from, to, asOf.Format("2006-01-02"), domain.ErrRateNotFound)
		}
		return decimal.Zero, fmt.Errorf("Rate: %w", err)
	}
	if inverse.Rate.IsZero() {
		return decimal.Zero, fmt.Errorf("Rate: zero inverse rate %s/%s: %w", to, from, domain.ErrRateNotFound)
	}
	return decimal.NewFromInt(1).Div(inverse.Rate), nil
}

// Convert applies the pair's rate to amount, rounding the result to two
// decimal places. Identity when from == to.
func (c *Converter) Convert(ctx context.Context, amount decimal.Decimal, from, to domain.Currency, asOf time.Time) (decimal.Decimal, error) {
	if from == to {
		if !from.IsValid() {
			return decimal.Zero, fmt.Errorf("Convert: %w", domain.ErrInvalidCurrency)
		}
		return amount, nil
	}

	rate, err := c.Rate(ctx, from, to, asOf)
	if err != nil {
		return decimal.Zero, fmt.Errorf("Convert: %w", err)
	}
	return amount.Mul(rate).Round(2), nil
}

// PublishRate deactivates the currently active rows for the pair and inserts
// the new row as active, in one transaction.
func (c *Converter) PublishRate(ctx context.Context, from, to domain.Currency, rate decimal.Decimal, effective time.Time) (*domain.ExchangeRate, error) {
	if !from.IsValid() || !to.IsValid() || from == to {
		return nil, fmt.Errorf("PublishRate: pair %s/%s: %w", from, to, domain.ErrInvalidCurrency)
	}
	if !rate.IsPositive() {
		return nil, fmt.Errorf("PublishRate: %w", domain.ErrInvalidAmount)
	}

	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("PublishRate: begin tx: %w", err)
	}
	defer tx.Rollback()

	if err := c.rates.Deactivate(ctx, tx, from, to); err != nil {
		return nil, fmt.Errorf("PublishRate: %w", err)
	}

	row := &domain.ExchangeRate{
		ID:            uuid.New(),
		From:          from,
		To:            to,
		Rate:          rate,
		EffectiveDate: effective,
		Active:        true,
		CreatedAt:     time.Now().UTC(),
	}
	if err := c.rates.Insert(ctx, tx, row); err != nil {
		return nil, fmt.Errorf("PublishRate: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("PublishRate: commit: %w", err)
	}
	return row, nil
}
