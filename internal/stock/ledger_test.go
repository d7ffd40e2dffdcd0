package stock

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gescom-app/ledger-engine/internal/domain"
)

type fakeItemRepo struct {
	items map[string]*domain.Item
}

func (f *fakeItemRepo) GetByCode(_ context.Context, code string) (*domain.Item, error) {
	item, ok := f.items[code]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *item
	return &cp, nil
}

func (f *fakeItemRepo) GetForUpdate(ctx context.Context, _ *sql.Tx, code string) (*domain.Item, error) {
	return f.GetByCode(ctx, code)
}

func (f *fakeItemRepo) UpdateOnHand(_ context.Context, _ *sql.Tx, code string, onHand decimal.Decimal) error {
	item, ok := f.items[code]
	if !ok {
		return domain.ErrNotFound
	}
	item.OnHand = onHand
	return nil
}

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func code(s string) *string { return &s }

func newFakeRepo() *fakeItemRepo {
	return &fakeItemRepo{items: map[string]*domain.Item{
		"CHAIR": {Code: "CHAIR", OnHand: d("10"), LowStockThreshold: d("3"), Active: true},
		"DESK":  {Code: "DESK", OnHand: d("2"), LowStockThreshold: d("5"), Active: true},
		"LAMP":  {Code: "LAMP", OnHand: d("0"), LowStockThreshold: d("2"), Active: true},
		"OLD":   {Code: "OLD", OnHand: d("8"), LowStockThreshold: d("1"), Active: false},
	}}
}

func TestCheckAvailability(t *testing.T) {
	ledger := NewLedger(newFakeRepo())
	ctx := context.Background()

	tests := []struct {
		name          string
		code          string
		requested     string
		wantAvailable bool
		wantStatus    domain.StockStatus
		wantErr       error
	}{
		{name: "plenty on hand", code: "CHAIR", requested: "4", wantAvailable: true, wantStatus: domain.StockStatusAvailable},
		{name: "below threshold is low stock", code: "DESK", requested: "1", wantAvailable: true, wantStatus: domain.StockStatusLow},
		{name: "requested exceeds on hand", code: "DESK", requested: "3", wantAvailable: false, wantStatus: domain.StockStatusLow},
		{name: "zero on hand is out of stock", code: "LAMP", requested: "1", wantAvailable: false, wantStatus: domain.StockStatusOut},
		{name: "unknown item", code: "GHOST", requested: "1", wantErr: domain.ErrItemNotFound},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ledger.CheckAvailability(ctx, tc.code, d(tc.requested))

			if tc.wantErr != nil {
				require.ErrorIs(t, err, tc.wantErr)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tc.wantAvailable, got.Available)
			assert.Equal(t, tc.wantStatus, got.Status)
		})
	}
}

func TestAdjust(t *testing.T) {
	ctx := context.Background()

	t.Run("decrement and reverse", func(t *testing.T) {
		repo := newFakeRepo()
		ledger := NewLedger(repo)

		require.NoError(t, ledger.Adjust(ctx, nil, "CHAIR", d("-4"), "sale"))
		assert.True(t, repo.items["CHAIR"].OnHand.Equal(d("6")))

		require.NoError(t, ledger.Adjust(ctx, nil, "CHAIR", d("4"), "cancellation"))
		assert.True(t, repo.items["CHAIR"].OnHand.Equal(d("10")))
	})

	t.Run("floor at zero", func(t *testing.T) {
		repo := newFakeRepo()
		ledger := NewLedger(repo)

		err := ledger.Adjust(ctx, nil, "DESK", d("-3"), "sale")
		require.ErrorIs(t, err, domain.ErrInsufficientStock)
		assert.True(t, repo.items["DESK"].OnHand.Equal(d("2")), "failed adjust must not mutate")
	})

	t.Run("adjust to exactly zero is allowed", func(t *testing.T) {
		repo := newFakeRepo()
		ledger := NewLedger(repo)

		require.NoError(t, ledger.Adjust(ctx, nil, "DESK", d("-2"), "sale"))
		assert.True(t, repo.items["DESK"].OnHand.IsZero())
	})

	t.Run("unknown item", func(t *testing.T) {
		err := NewLedger(newFakeRepo()).Adjust(ctx, nil, "GHOST", d("-1"), "sale")
		require.ErrorIs(t, err, domain.ErrItemNotFound)
	})
}

func TestVerifyLines(t *testing.T) {
	ledger := NewLedger(newFakeRepo())
	ctx := context.Background()

	t.Run("all lines available", func(t *testing.T) {
		err := ledger.VerifyLines(ctx, []domain.InvoiceLine{
			{ItemCode: code("CHAIR"), Quantity: d("4")},
			{ItemCode: code("DESK"), Quantity: d("2")},
			{Description: "installation service", Quantity: d("1")},
		})
		require.NoError(t, err)
	})

	t.Run("aggregates every failing line", func(t *testing.T) {
		err := ledger.VerifyLines(ctx, []domain.InvoiceLine{
			{ItemCode: code("CHAIR"), Quantity: d("4")},
			{ItemCode: code("LAMP"), Quantity: d("1")},
			{ItemCode: code("DESK"), Quantity: d("5")},
			{ItemCode: code("OLD"), Quantity: d("1")},
		})
		require.Error(t, err)

		var stockErr *domain.StockError
		require.True(t, errors.As(err, &stockErr))
		assert.Len(t, stockErr.Problems, 3)

		assert.ErrorIs(t, err, domain.ErrOutOfStock)
		assert.ErrorIs(t, err, domain.ErrInsufficientStock)
		assert.ErrorIs(t, err, domain.ErrItemInactive)
	})
}
