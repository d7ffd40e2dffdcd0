package testutil

import (
	"database/sql"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

func ItemOnHand(t *testing.T, db *sql.DB, code string) decimal.Decimal {
	t.Helper()
	var onHand decimal.Decimal
	if err := db.QueryRow(`SELECT on_hand FROM items WHERE code = $1`, code).Scan(&onHand); err != nil {
		t.Fatalf("query on_hand for %s: %v", code, err)
	}
	return onHand
}

// JournalSums returns the total debit and credit posted under source
// references matching the LIKE pattern; a balanced posting set has them
// equal.
func JournalSums(t *testing.T, db *sql.DB, sourceRefPattern string) (debit, credit decimal.Decimal) {
	t.Helper()
	err := db.QueryRow(
		`SELECT COALESCE(SUM(debit), 0), COALESCE(SUM(credit), 0)
		FROM journal_entries WHERE source_ref LIKE $1`, sourceRefPattern,
	).Scan(&debit, &credit)
	if err != nil {
		t.Fatalf("query journal sums for %s: %v", sourceRefPattern, err)
	}
	return debit, credit
}

func CountJournalEntries(t *testing.T, db *sql.DB, sourceRefPattern string) int {
	t.Helper()
	var n int
	if err := db.QueryRow(`SELECT COUNT(*) FROM journal_entries WHERE source_ref LIKE $1`, sourceRefPattern).Scan(&n); err != nil {
		t.Fatalf("count journal entries for %s: %v", sourceRefPattern, err)
	}
	return n
}

func CountInvoiceEvents(t *testing.T, db *sql.DB, invoiceID uuid.UUID) int {
	t.Helper()
	var n int
	if err := db.QueryRow(`SELECT COUNT(*) FROM invoice_events WHERE invoice_id = $1`, invoiceID).Scan(&n); err != nil {
		t.Fatalf("count invoice events: %v", err)
	}
	return n
}
