package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/gescom-app/ledger-engine/internal/domain"
)

const lineColumns = `id, invoice_id, position, item_code, description, quantity,
	unit_price, discount_pct, tax_rate_pct, amount_ht, amount_tva, amount_ttc`

type InvoiceLineRepository struct {
	db *sql.DB
}

func NewInvoiceLineRepository(db *sql.DB) *InvoiceLineRepository {
	return &InvoiceLineRepository{db: db}
}

func (r *InvoiceLineRepository) CreateAll(ctx context.Context, tx *sql.Tx, lines []domain.InvoiceLine) error {
	for i := range lines {
		l := &lines[i]
		_, err := tx.ExecContext(ctx,
			`INSERT INTO invoice_lines (
				id, invoice_id, position, item_code, description, quantity,
				unit_price, discount_pct, tax_rate_pct, amount_ht, amount_tva, amount_ttc
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
			l.ID, l.InvoiceID, l.Position, l.ItemCode, l.Description, l.Quantity,
			l.UnitPrice, l.DiscountPct, l.TaxRatePct, l.AmountHT, l.AmountTVA, l.AmountTTC,
		)
		if err != nil {
			return fmt.Errorf("CreateAll: line %d: %w", l.Position, err)
		}
	}
	return nil
}

// DeleteByInvoice removes the whole line set. Invoice edits replace lines
// wholesale: delete all, then recreate.
func (r *InvoiceLineRepository) DeleteByInvoice(ctx context.Context, tx *sql.Tx, invoiceID uuid.UUID) error {
	_, err := tx.ExecContext(ctx,
		`DELETE FROM invoice_lines WHERE invoice_id = $1`, invoiceID,
	)
	if err != nil {
		return fmt.Errorf("DeleteByInvoice: %w", err)
	}
	return nil
}

func (r *InvoiceLineRepository) GetByInvoice(ctx context.Context, invoiceID uuid.UUID) ([]domain.InvoiceLine, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+lineColumns+` FROM invoice_lines
		WHERE invoice_id = $1 ORDER BY position`, invoiceID,
	)
	if err != nil {
		return nil, fmt.Errorf("GetByInvoice: %w", err)
	}
	defer rows.Close()

	var lines []domain.InvoiceLine
	for rows.Next() {
		l, err := scanInvoiceLine(rows)
		if err != nil {
			return nil, fmt.Errorf("GetByInvoice: scan: %w", err)
		}
		lines = append(lines, *l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("GetByInvoice: rows: %w", err)
	}
	return lines, nil
}

func scanInvoiceLine(s scanner) (*domain.InvoiceLine, error) {
	var l domain.InvoiceLine
	err := s.Scan(
		&l.ID, &l.InvoiceID, &l.Position, &l.ItemCode, &l.Description, &l.Quantity,
		&l.UnitPrice, &l.DiscountPct, &l.TaxRatePct, &l.AmountHT, &l.AmountTVA, &l.AmountTTC,
	)
	if err != nil {
		return nil, err
	}
	return &l, nil
}
