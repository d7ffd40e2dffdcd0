package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/gescom-app/ledger-engine/internal/domain"
)

type PartyRepository struct {
	db *sql.DB
}

func NewPartyRepository(db *sql.DB) *PartyRepository {
	return &PartyRepository{db: db}
}

func (r *PartyRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Counterparty, error) {
	var p domain.Counterparty
	err := r.db.QueryRowContext(ctx,
		`SELECT id, name, role, currency, created_at FROM counterparties WHERE id = $1`, id,
	).Scan(&p.ID, &p.Name, &p.Role, &p.Currency, &p.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("GetByID: %s: %w", id, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("GetByID: %w", err)
	}
	return &p, nil
}
