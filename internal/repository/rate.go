package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/gescom-app/ledger-engine/internal/domain"
)

const rateColumns = `id, from_currency, to_currency, rate, effective_date, active, created_at`

type RateRepository struct {
	db *sql.DB
}

func NewRateRepository(db *sql.DB) *RateRepository {
	return &RateRepository{db: db}
}

// Latest resolves the most recent row for the pair effective at or before
// asOf. Historical (inactive) rows still qualify: they were the rate in
// force for dates inside their window.
func (r *RateRepository) Latest(ctx context.Context, from, to domain.Currency, asOf time.Time) (*domain.ExchangeRate, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+rateColumns+` FROM exchange_rates
		WHERE from_currency = $1 AND to_currency = $2 AND effective_date <= $3
		ORDER BY effective_date DESC, created_at DESC LIMIT 1`,
		from, to, asOf,
	)
	rate, err := scanRate(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("Latest: %s/%s: %w", from, to, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("Latest: %w", err)
	}
	return rate, nil
}

func (r *RateRepository) Deactivate(ctx context.Context, tx *sql.Tx, from, to domain.Currency) error {
	_, err := tx.ExecContext(ctx,
		`UPDATE exchange_rates SET active = FALSE
		WHERE from_currency = $1 AND to_currency = $2 AND active`,
		from, to,
	)
	if err != nil {
		return fmt.Errorf("Deactivate: %w", err)
	}
	return nil
}

func (r *RateRepository) Insert(ctx context.Context, tx *sql.Tx, rate *domain.ExchangeRate) error {
	_, err := tx.ExecContext(ctx,
		`INSERT INTO exchange_rates (
			id, from_currency, to_currency, rate, effective_date, active, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		rate.ID, rate.From, rate.To, rate.Rate, rate.EffectiveDate, rate.Active, rate.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("Insert: %w", err)
	}
	return nil
}

func scanRate(s scanner) (*domain.ExchangeRate, error) {
	var rate domain.ExchangeRate
	err := s.Scan(
		&rate.ID, &rate.From, &rate.To, &rate.Rate, &rate.EffectiveDate, &rate.Active, &rate.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &rate, nil
}
