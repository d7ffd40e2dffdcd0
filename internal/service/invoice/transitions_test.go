package invoice

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/gescom-app/ledger-engine/internal/domain"
)

func TestTransitionTable(t *testing.T) {
	tests := []struct {
		name    string
		from    domain.InvoiceStatus
		to      domain.InvoiceStatus
		allowed bool
		effect  stockEffect
	}{
		{"draft to validated decrements stock", domain.InvoiceStatusDraft, domain.InvoiceStatusValidated, true, stockDecrement},
		{"validated to cancelled restocks", domain.InvoiceStatusValidated, domain.InvoiceStatusCancelled, true, stockRestock},
		{"cancelled to validated decrements again", domain.InvoiceStatusCancelled, domain.InvoiceStatusValidated, true, stockDecrement},
		{"draft to cancelled touches nothing", domain.InvoiceStatusDraft, domain.InvoiceStatusCancelled, true, stockNone},
		{"validated to draft is not a thing", domain.InvoiceStatusValidated, domain.InvoiceStatusDraft, false, stockNone},
		{"cancelled to draft is not a thing", domain.InvoiceStatusCancelled, domain.InvoiceStatusDraft, false, stockNone},
		{"re-validating a validated invoice is rejected", domain.InvoiceStatusValidated, domain.InvoiceStatusValidated, false, stockNone},
		{"re-cancelling a cancelled invoice is rejected", domain.InvoiceStatusCancelled, domain.InvoiceStatusCancelled, false, stockNone},
		{"draft to draft is rejected", domain.InvoiceStatusDraft, domain.InvoiceStatusDraft, false, stockNone},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			effect, ok := transitionTable[transitionKey{from: tc.from, to: tc.to}]
			assert.Equal(t, tc.allowed, ok)
			if tc.allowed {
				assert.Equal(t, tc.effect, effect)
			}
		})
	}
}
