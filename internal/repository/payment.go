package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/gescom-app/ledger-engine/internal/domain"
)

const paymentColumns = `id, number, invoice_id, amount, date, method, reference,
	status, currency, fx_rate, created_at`

type PaymentRepository struct {
	db *sql.DB
}

func NewPaymentRepository(db *sql.DB) *PaymentRepository {
	return &PaymentRepository{db: db}
}

func (r *PaymentRepository) Create(ctx context.Context, tx *sql.Tx, p *domain.Payment) error {
	_, err := tx.ExecContext(ctx,
		`INSERT INTO payments (
			id, number, invoice_id, amount, date, method, reference,
			status, currency, fx_rate, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		p.ID, p.Number, p.InvoiceID, p.Amount, p.Date, p.Method, p.Reference,
		p.Status, p.Currency, p.FxRate, p.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("Create: %w", err)
	}
	return nil
}

func (r *PaymentRepository) GetByInvoice(ctx context.Context, invoiceID uuid.UUID) ([]domain.Payment, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+paymentColumns+` FROM payments
		WHERE invoice_id = $1 ORDER BY date, created_at`, invoiceID,
	)
	if err != nil {
		return nil, fmt.Errorf("GetByInvoice: %w", err)
	}
	defer rows.Close()

	var payments []domain.Payment
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, fmt.Errorf("GetByInvoice: scan: %w", err)
		}
		payments = append(payments, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("GetByInvoice: rows: %w", err)
	}
	return payments, nil
}

// SumValidByInvoice totals valid payments inside the caller's transaction,
// so the recomputed balance sees the row just inserted.
func (r *PaymentRepository) SumValidByInvoice(ctx context.Context, tx *sql.Tx, invoiceID uuid.UUID) (decimal.Decimal, error) {
	var sum decimal.Decimal
	err := tx.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(amount), 0) FROM payments
		WHERE invoice_id = $1 AND status = $2`,
		invoiceID, domain.PaymentRowValid,
	).Scan(&sum)
	if err != nil {
		return decimal.Zero, fmt.Errorf("SumValidByInvoice: %w", err)
	}
	return sum, nil
}

func scanPayment(s scanner) (*domain.Payment, error) {
	var p domain.Payment
	err := s.Scan(
		&p.ID, &p.Number, &p.InvoiceID, &p.Amount, &p.Date, &p.Method, &p.Reference,
		&p.Status, &p.Currency, &p.FxRate, &p.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}
