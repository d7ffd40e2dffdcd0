package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type StockStatus string

const (
	StockStatusOut       StockStatus = "out_of_stock"
	StockStatusLow       StockStatus = "low_stock"
	StockStatusAvailable StockStatus = "available"
)

// Item is catalog data plus the on-hand quantity the stock ledger mutates.
// Catalog fields are owned by an external collaborator; this core only
// reads them and adjusts OnHand.
type Item struct {
	Code              string
	Description       string
	UnitPrice         decimal.Decimal
	TaxRatePct        decimal.Decimal
	Currency          Currency
	OnHand            decimal.Decimal
	LowStockThreshold decimal.Decimal
	Active            bool
	CreatedAt         time.Time
	UpdatedAt         time.Time
}
