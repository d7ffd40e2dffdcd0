package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/gescom-app/ledger-engine/internal/domain"
)

const itemColumns = `code, description, unit_price, tax_rate_pct, currency,
	on_hand, low_stock_threshold, active, created_at, updated_at`

type ItemRepository struct {
	db *sql.DB
}

func NewItemRepository(db *sql.DB) *ItemRepository {
	return &ItemRepository{db: db}
}

func (r *ItemRepository) GetByCode(ctx context.Context, code string) (*domain.Item, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+itemColumns+` FROM items WHERE code = $1`, code,
	)
	item, err := scanItem(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("GetByCode: %s: %w", code, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("GetByCode: %w", err)
	}
	return item, nil
}

func (r *ItemRepository) GetForUpdate(ctx context.Context, tx *sql.Tx, code string) (*domain.Item, error) {
	row := tx.QueryRowContext(ctx,
		`SELECT `+itemColumns+` FROM items WHERE code = $1 FOR UPDATE`, code,
	)
	item, err := scanItem(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("GetForUpdate: %s: %w", code, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("GetForUpdate: %w", err)
	}
	return item, nil
}

func (r *ItemRepository) UpdateOnHand(ctx context.Context, tx *sql.Tx, code string, onHand decimal.Decimal) error {
	_, err := tx.ExecContext(ctx,
		`UPDATE items SET on_hand = $1, updated_at = $2 WHERE code = $3`,
		onHand, time.Now().UTC(), code,
	)
	if err != nil {
		return fmt.Errorf("UpdateOnHand: %w", err)
	}
	return nil
}

func scanItem(s scanner) (*domain.Item, error) {
	var item domain.Item
	err := s.Scan(
		&item.Code, &item.Description, &item.UnitPrice, &item.TaxRatePct, &item.Currency,
		&item.OnHand, &item.LowStockThreshold, &item.Active, &item.CreatedAt, &item.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &item, nil
}
