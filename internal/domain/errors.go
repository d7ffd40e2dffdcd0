package domain

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

var (
	ErrNotFound          = errors.New("not found")
	ErrInvoiceNotFound   = errors.New("invoice not found")
	ErrItemNotFound      = errors.New("item not found")
	ErrPartyNotFound     = errors.New("counterparty not found")
	ErrInvalidCurrency   = errors.New("invalid currency")
	ErrInvalidAmount     = errors.New("amount must be greater than zero")
	ErrInvalidQuantity   = errors.New("quantity must not be negative")
	ErrInvalidDiscount   = errors.New("discount must be between 0 and 100")
	ErrRateNotFound      = errors.New("no exchange rate for pair at date")
	ErrChartIncomplete   = errors.New("no active account for category")
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrOutOfStock        = errors.New("out of stock")
	ErrItemInactive      = errors.New("item inactive")
	ErrInvalidMethod     = errors.New("invalid payment method")
	ErrInvalidMode       = errors.New("invalid payment mode")
	ErrBelowMinimum      = errors.New("amount below minimum payment")
	ErrOverpayment       = errors.New("amount exceeds remaining balance")
	ErrStatusConflict    = errors.New("invoice status changed concurrently")
	ErrInvalidTransition = errors.New("status transition not allowed")
	ErrUnbalancedPosting = errors.New("journal posting does not balance")
	ErrEmptyLines        = errors.New("invoice has no lines")
)

// StockProblem is one failing line of a stock verification.
type StockProblem struct {
	ItemCode  string
	Requested decimal.Decimal
	OnHand    decimal.Decimal
	Err       error
}

// StockError aggregates every failing line so the caller sees all problems
// at once, not just the first.
type StockError struct {
	Problems []StockProblem
}

func (e *StockError) Error() string {
	parts := make([]string, 0, len(e.Problems))
	for _, p := range e.Problems {
		parts = append(parts, fmt.Sprintf("%s: %v (requested %s, on hand %s)",
			p.ItemCode, p.Err, p.Requested, p.OnHand))
	}
	return "stock check failed: " + strings.Join(parts, "; ")
}

// Is reports a match when any aggregated problem wraps the target, so
// errors.Is(err, ErrInsufficientStock) works on the aggregate.
func (e *StockError) Is(target error) bool {
	for _, p := range e.Problems {
		if errors.Is(p.Err, target) {
			return true
		}
	}
	return false
}
