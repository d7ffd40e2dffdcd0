package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// AccountCategory is the closed set of semantic roles the chart of accounts
// maps to concrete account codes. Resolution is always by category, never by
// raw account code convention.
type AccountCategory string

const (
	CategoryReceivable AccountCategory = "receivable"
	CategoryPayable    AccountCategory = "payable"
	CategoryInputTax   AccountCategory = "input_tax"
	CategoryOutputTax  AccountCategory = "output_tax"
	CategoryRevenue    AccountCategory = "revenue"
	CategoryExpense    AccountCategory = "expense"
	CategoryBank       AccountCategory = "bank"
	CategoryCash       AccountCategory = "cash"
)

// Account is one chart-of-accounts entry. Read-only from this core.
type Account struct {
	Code      string
	Label     string
	Category  AccountCategory
	Active    bool
	CreatedAt time.Time
}

type JournalBook string

const (
	BookSales     JournalBook = "sales"
	BookPurchases JournalBook = "purchases"
	BookBank      JournalBook = "bank"
	BookCash      JournalBook = "cash"
)

// JournalEntry is one debit-or-credit leg of a balanced posting set.
// Entries are append-only; nothing in this core updates or deletes them.
type JournalEntry struct {
	ID          uuid.UUID
	Reference   string
	Date        time.Time
	Book        JournalBook
	AccountCode string
	Label       string
	Debit       decimal.Decimal
	Credit      decimal.Decimal
	Currency    Currency
	FxRate      decimal.Decimal
	SourceRef   string
	CreatedAt   time.Time
}
