package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/gescom-app/ledger-engine/internal/domain"
)

const journalColumns = `id, reference, date, book, account_code, label,
	debit, credit, currency, fx_rate, source_ref, created_at`

// JournalRepository is append-only: entries are never updated or deleted.
type JournalRepository struct {
	db *sql.DB
}

func NewJournalRepository(db *sql.DB) *JournalRepository {
	return &JournalRepository{db: db}
}

func (r *JournalRepository) Create(ctx context.Context, tx *sql.Tx, e *domain.JournalEntry) error {
	_, err := tx.ExecContext(ctx,
		`INSERT INTO journal_entries (
			id, reference, date, book, account_code, label,
			debit, credit, currency, fx_rate, source_ref, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		e.ID, e.Reference, e.Date, e.Book, e.AccountCode, e.Label,
		e.Debit, e.Credit, e.Currency, e.FxRate, e.SourceRef, e.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("Create: %w", err)
	}
	return nil
}

func (r *JournalRepository) GetBySourceRef(ctx context.Context, sourceRef string) ([]domain.JournalEntry, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+journalColumns+` FROM journal_entries
		WHERE source_ref = $1 ORDER BY reference`, sourceRef,
	)
	if err != nil {
		return nil, fmt.Errorf("GetBySourceRef: %w", err)
	}
	defer rows.Close()

	var entries []domain.JournalEntry
	for rows.Next() {
		e, err := scanJournalEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("GetBySourceRef: scan: %w", err)
		}
		entries = append(entries, *e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("GetBySourceRef: rows: %w", err)
	}
	return entries, nil
}

func scanJournalEntry(s scanner) (*domain.JournalEntry, error) {
	var e domain.JournalEntry
	err := s.Scan(
		&e.ID, &e.Reference, &e.Date, &e.Book, &e.AccountCode, &e.Label,
		&e.Debit, &e.Credit, &e.Currency, &e.FxRate, &e.SourceRef, &e.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &e, nil
}
