package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/gescom-app/ledger-engine/internal/domain"
)

type ChartRepository struct {
	db *sql.DB
}

func NewChartRepository(db *sql.DB) *ChartRepository {
	return &ChartRepository{db: db}
}

func (r *ChartRepository) ActiveByCategory(ctx context.Context, category domain.AccountCategory) ([]domain.Account, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT code, label, category, active, created_at FROM chart_of_accounts
		WHERE category = $1 AND active ORDER BY code`, category,
	)
	if err != nil {
		return nil, fmt.Errorf("ActiveByCategory: %w", err)
	}
	defer rows.Close()

	var accounts []domain.Account
	for rows.Next() {
		var a domain.Account
		if err := rows.Scan(&a.Code, &a.Label, &a.Category, &a.Active, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("ActiveByCategory: scan: %w", err)
		}
		accounts = append(accounts, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ActiveByCategory: rows: %w", err)
	}
	return accounts, nil
}
