// Package accounts maps semantic account categories to concrete chart-of-
// accounts entries. A missing mapping is a hard failure: posting to a
// placeholder account would corrupt the ledger silently, so nothing here
// ever falls back to a default code.
package accounts

import (
	"context"
	"fmt"

	"github.com/gescom-app/ledger-engine/internal/domain"
)

type chartRepo interface {
	// ActiveByCategory returns active entries for the category ordered by
	// account code.
	ActiveByCategory(ctx context.Context, category domain.AccountCategory) ([]domain.Account, error)
}

type Resolver struct {
	chart chartRepo
}

func NewResolver(chart chartRepo) *Resolver {
	return &Resolver{chart: chart}
}

// Resolve returns the chart entry for a category. When several active
// entries exist the lowest account code wins, which keeps resolution
// deterministic across runs.
func (r *Resolver) Resolve(ctx context.Context, category domain.AccountCategory) (*domain.Account, error) {
	entries, err := r.chart.ActiveByCategory(ctx, category)
	if err != nil {
		return nil, fmt.Errorf("Resolve: %s: %w", category, err)
	}
	if len(entries) == 0 {
		return nil, fmt.Errorf("Resolve: %s: %w", category, domain.ErrChartIncomplete)
	}
	return &entries[0], nil
}

// ResolveSettlement picks the settlement account for a payment method: cash
// payments go to the cash box, everything else to the bank account.
func (r *Resolver) ResolveSettlement(ctx context.Context, method domain.PaymentMethod) (*domain.Account, error) {
	if method == domain.PaymentMethodCash {
		return r.Resolve(ctx, domain.CategoryCash)
	}
	return r.Resolve(ctx, domain.CategoryBank)
}
