package repository

import (
	"context"
	"database/sql"
	"fmt"
)

// SequenceRepository hands out gapless sequential business numbers (invoice
// numbers, payment numbers). The upsert serializes concurrent callers on
// the sequence row's lock for the duration of their transactions.
type SequenceRepository struct {
	db *sql.DB
}

func NewSequenceRepository(db *sql.DB) *SequenceRepository {
	return &SequenceRepository{db: db}
}

func (r *SequenceRepository) Next(ctx context.Context, tx *sql.Tx, name string) (int64, error) {
	var value int64
	err := tx.QueryRowContext(ctx,
		`INSERT INTO sequences (name, value) VALUES ($1, 1)
		ON CONFLICT (name) DO UPDATE SET value = sequences.value + 1
		RETURNING value`,
		name,
	).Scan(&value)
	if err != nil {
		return 0, fmt.Errorf("Next: %s: %w", name, err)
	}
	return value, nil
}
