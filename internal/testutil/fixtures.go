package testutil

import (
	"database/sql"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/gescom-app/ledger-engine/internal/domain"
)

// SeedItem inserts a stocked, active catalog item priced in MGA.
func SeedItem(t *testing.T, db *sql.DB, code string, unitPrice, taxRatePct, onHand, threshold decimal.Decimal) {
	t.Helper()
	_, err := db.Exec(
		`INSERT INTO items (code, description, unit_price, tax_rate_pct, currency,
			on_hand, low_stock_threshold, active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, TRUE, NOW(), NOW())`,
		code, "item "+code, unitPrice, taxRatePct, domain.CurrencyMGA, onHand, threshold,
	)
	if err != nil {
		t.Fatalf("seed item %s: %v", code, err)
	}
}

// SeedInactiveItem inserts a discontinued item that still has stock on hand.
func SeedInactiveItem(t *testing.T, db *sql.DB, code string, unitPrice, onHand decimal.Decimal) {
	t.Helper()
	_, err := db.Exec(
		`INSERT INTO items (code, description, unit_price, tax_rate_pct, currency,
			on_hand, low_stock_threshold, active, created_at, updated_at)
		VALUES ($1, $2, $3, 0, $4, $5, 0, FALSE, NOW(), NOW())`,
		code, "item "+code, unitPrice, domain.CurrencyMGA, onHand,
	)
	if err != nil {
		t.Fatalf("seed inactive item %s: %v", code, err)
	}
}

func SeedCounterparty(t *testing.T, db *sql.DB, role domain.PartyRole, currency domain.Currency) uuid.UUID {
	t.Helper()
	id := uuid.New()
	_, err := db.Exec(
		`INSERT INTO counterparties (id, name, role, currency, created_at)
		VALUES ($1, $2, $3, $4, NOW())`,
		id, string(role)+" "+id.String()[:8], role, currency,
	)
	if err != nil {
		t.Fatalf("seed counterparty: %v", err)
	}
	return id
}

// SeedChartOfAccounts installs one active account per category, using the
// conventional OHADA-style codes.
func SeedChartOfAccounts(t *testing.T, db *sql.DB) {
	t.Helper()
	accounts := []struct {
		code     string
		label    string
		category domain.AccountCategory
	}{
		{"411000", "Clients", domain.CategoryReceivable},
		{"401000", "Fournisseurs", domain.CategoryPayable},
		{"445660", "TVA déductible", domain.CategoryInputTax},
		{"445710", "TVA collectée", domain.CategoryOutputTax},
		{"701000", "Ventes de marchandises", domain.CategoryRevenue},
		{"601000", "Achats de marchandises", domain.CategoryExpense},
		{"512000", "Banque", domain.CategoryBank},
		{"530000", "Caisse", domain.CategoryCash},
	}
	for _, a := range accounts {
		_, err := db.Exec(
			`INSERT INTO chart_of_accounts (code, label, category, active, created_at)
			VALUES ($1, $2, $3, TRUE, NOW())`,
			a.code, a.label, a.category,
		)
		if err != nil {
			t.Fatalf("seed account %s: %v", a.code, err)
		}
	}
}

func SeedRate(t *testing.T, db *sql.DB, from, to domain.Currency, rate decimal.Decimal, effective time.Time) {
	t.Helper()
	_, err := db.Exec(
		`INSERT INTO exchange_rates (id, from_currency, to_currency, rate, effective_date, active, created_at)
		VALUES ($1, $2, $3, $4, $5, TRUE, NOW())`,
		uuid.New(), from, to, rate, effective,
	)
	if err != nil {
		t.Fatalf("seed rate %s/%s: %v", from, to, err)
	}
}
