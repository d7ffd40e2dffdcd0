package repository

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

const invoiceColumns = `id, number, kind, date, counterparty_id, currency, fx_rate,
	status, payment_status, payment_mode, amount_paid, amount_remaining,
	due_date, final_payment_date, minimum_payment, penalty_rate_pct,
	total_ht, total_tva, total_ttc, created_at, updated_at`

type InvoiceRepository struct {
	db *sql.DB
}

func NewInvoiceRepository(db *sql.DB) *InvoiceRepository {
	return &InvoiceRepository{db: db}
}

func (r *InvoiceRepository) Create(ctx context.Context, tx *sql.Tx, inv *domain.Invoice) error {
	_, err := tx.ExecContext(ctx,
		`INSERT INTO invoices (
			id, number, kind, date, counterparty_id, currency, fx_rate,
			status, payment_status, payment_mode, amount_paid, amount_remaining,
			due_date, final_payment_date, minimum_payment, penalty_rate_pct,
			total_ht, total_tva, total_ttc, created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10,
			$11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21
		)`,
		inv.ID, inv.Number, inv.Kind, inv.Date, inv.CounterpartyID, inv.Currency, inv.FxRate,
		inv.Status, inv.PaymentStatus, inv.PaymentMode, inv.AmountPaid, inv.AmountRemaining,
		inv.DueDate, inv.FinalPaymentDate, inv.MinimumPayment, inv.PenaltyRatePct,
		inv.TotalHT, inv.TotalTVA, inv.TotalTTC, inv.CreatedAt, inv.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("Create: %w", err)
	}
	return nil
}

func (r *InvoiceRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Invoice, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+invoiceColumns+` FROM invoices WHERE id = $1`, id,
	)
	inv, err := scanInvoice(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("GetByID: %s: %w", id, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("GetByID: %w", err)
	}
	return inv, nil
}

func (r *InvoiceRepository) GetForUpdate(ctx context.Context, tx *sql.Tx, id uuid.UUID) (*domain.Invoice, error) {
	row := tx.QueryRowContext(ctx,
		`SELECT `+invoiceColumns+` FROM invoices WHERE id = $1 FOR UPDATE`, id,
	)
	inv, err := scanInvoice(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("GetForUpdate: %s: %w", id, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("GetForUpdate: %w", err)
	}
	return inv, nil
}

// UpdateStatus flips the invoice status with an optimistic check on the
// prior status. Zero rows affected means another caller already
// transitioned the invoice.
func (r *InvoiceRepository) UpdateStatus(ctx context.Context, tx *sql.Tx, id uuid.UUID, from, to domain.InvoiceStatus) error {
	res, err := tx.ExecContext(ctx,
		`UPDATE invoices SET status = $1, updated_at = $2 WHERE id = $3 AND status = $4`,
		to, time.Now().UTC(), id, from,
	)
	if err != nil {
		return fmt.Errorf("UpdateStatus: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("UpdateStatus: rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("UpdateStatus: %s: %w", id, domain.ErrStatusConflict)
	}
	return nil
}

func (r *InvoiceRepository) UpdateTotals(ctx context.Context, tx *sql.Tx, id uuid.UUID, ht, tva, ttc, remaining decimal.Decimal) error {
	_, err := tx.ExecContext(ctx,
		`UPDATE invoices SET total_ht = $1, total_tva = $2, total_ttc = $3,
			amount_remaining = $4, updated_at = $5
		WHERE id = $6`,
		ht, tva, ttc, remaining, time.Now().UTC(), id,
	)
	if err != nil {
		return fmt.Errorf("UpdateTotals: %w", err)
	}
	return nil
}

func (r *InvoiceRepository) UpdatePaymentState(ctx context.Context, tx *sql.Tx, id uuid.UUID, paid, remaining decimal.Decimal, status domain.PaymentStatus) error {
	_, err := tx.ExecContext(ctx,
		`UPDATE invoices SET amount_paid = $1, amount_remaining = $2,
			payment_status = $3, updated_at = $4
		WHERE id = $5`,
		paid, remaining, status, time.Now().UTC(), id,
	)
	if err != nil {
		return fmt.Errorf("UpdatePaymentState: %w", err)
	}
	return nil
}

func (r *InvoiceRepository) UpdateHeader(ctx context.Context, tx *sql.Tx, inv *domain.Invoice) error {
	_, err := tx.ExecContext(ctx,
		`UPDATE invoices SET kind = $1, date = $2, currency = $3, fx_rate = $4,
			payment_mode = $5, due_date = $6, final_payment_date = $7,
			minimum_payment = $8, penalty_rate_pct = $9, updated_at = $10
		WHERE id = $11`,
		inv.Kind, inv.Date, inv.Currency, inv.FxRate,
		inv.PaymentMode, inv.DueDate, inv.FinalPaymentDate,
		inv.MinimumPayment, inv.PenaltyRatePct, time.Now().UTC(), inv.ID,
	)
	if err != nil {
		return fmt.Errorf("UpdateHeader: %w", err)
	}
	return nil
}

// ListOverdueCandidates returns validated invoices that still carry a
// balance and whose final payment date has passed but are not yet flagged
// overdue.
func (r *InvoiceRepository) ListOverdueCandidates(ctx context.Context, asOf time.Time) ([]domain.Invoice, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+invoiceColumns+` FROM invoices
		WHERE status = $1 AND payment_status IN ($2, $3)
			AND final_payment_date IS NOT NULL AND final_payment_date < $4
		ORDER BY final_payment_date`,
		domain.InvoiceStatusValidated, domain.PaymentStatusUnpaid, domain.PaymentStatusPartial, asOf,
	)
	if err != nil {
		return nil, fmt.Errorf("ListOverdueCandidates: %w", err)
	}
	defer rows.Close()

	var out []domain.Invoice
	for rows.Next() {
		inv, err := scanInvoice(rows)
		if err != nil {
			return nil, fmt.Errorf("ListOverdueCandidates: scan: %w", err)
		}
		out = append(out, *inv)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ListOverdueCandidates: rows: %w", err)
	}
	return out, nil
}

func scanInvoice(s scanner) (*domain.Invoice, error) {
	var inv domain.Invoice
	err := s.Scan(
		&inv.ID, &inv.Number, &inv.Kind, &inv.Date, &inv.CounterpartyID, &inv.Currency, &inv.FxRate,
		&inv.Status, &inv.PaymentStatus, &inv.PaymentMode, &inv.AmountPaid, &inv.AmountRemaining,
		&inv.DueDate, &inv.FinalPaymentDate, &inv.MinimumPayment, &inv.PenaltyRatePct,
		&inv.TotalHT, &inv.TotalTVA, &inv.TotalTTC, &inv.CreatedAt, &inv.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &inv, nil
}
