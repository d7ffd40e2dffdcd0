package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ExchangeRate rows are append-only: publishing a new rate for a pair
// deactivates the previous active row instead of mutating it, so lookups as
// of a past date keep resolving the row that was in force then.
// Rate is "1 From unit = Rate To units".
type ExchangeRate struct {
	ID            uuid.UUID
	From          Currency
	To            Currency
	Rate          decimal.Decimal
	EffectiveDate time.Time
	Active        bool
	CreatedAt     time.Time
}
