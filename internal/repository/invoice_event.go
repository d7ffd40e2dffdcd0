package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/gescom-app/ledger-engine/internal/domain"
)

type InvoiceEventRepository struct {
	db *sql.DB
}

func NewInvoiceEventRepository(db *sql.DB) *InvoiceEventRepository {
	return &InvoiceEventRepository{db: db}
}

func (r *InvoiceEventRepository) Create(ctx context.Context, tx *sql.Tx, ev *domain.InvoiceEvent) error {
	_, err := tx.ExecContext(ctx,
		`INSERT INTO invoice_events (
			id, invoice_id, event_type, from_status, to_status, actor, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		ev.ID, ev.InvoiceID, ev.EventType, ev.FromStatus, ev.ToStatus, ev.Actor, ev.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("Create: %w", err)
	}
	return nil
}

func (r *InvoiceEventRepository) GetByInvoice(ctx context.Context, invoiceID uuid.UUID) ([]domain.InvoiceEvent, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, invoice_id, event_type, from_status, to_status, actor, created_at
		FROM invoice_events WHERE invoice_id = $1 ORDER BY created_at`, invoiceID,
	)
	if err != nil {
		return nil, fmt.Errorf("GetByInvoice: %w", err)
	}
	defer rows.Close()

	var events []domain.InvoiceEvent
	for rows.Next() {
		var ev domain.InvoiceEvent
		if err := rows.Scan(&ev.ID, &ev.InvoiceID, &ev.EventType, &ev.FromStatus, &ev.ToStatus, &ev.Actor, &ev.CreatedAt); err != nil {
			return nil, fmt.Errorf("GetByInvoice: scan: %w", err)
		}
		events = append(events, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("GetByInvoice: rows: %w", err)
	}
	return events, nil
}
