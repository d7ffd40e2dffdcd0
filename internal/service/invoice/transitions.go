package invoice

import "github.com/gescom-app/ledger-engine/internal/domain"

// stockEffect is what a legal transition does to on-hand quantities.
type stockEffect int

const (
	stockNone stockEffect = iota
	// stockDecrement verifies availability then consumes each line's
	// quantity, and posts the invoice to the journal.
	stockDecrement
	// stockRestock returns each line's quantity, reversing a validation.
	stockRestock
)

type transitionKey struct {
	from, to domain.InvoiceStatus
}

// transitionTable is the single authority on legal status transitions.
// Anything absent, including a no-op same-status pair, is rejected; that is
// what makes a second validate call fail instead of decrementing twice.
var transitionTable = map[transitionKey]stockEffect{
	{domain.InvoiceStatusDraft, domain.InvoiceStatusValidated}:     stockDecrement,
	{domain.InvoiceStatusCancelled, domain.InvoiceStatusValidated}: stockDecrement,
	{domain.InvoiceStatusValidated, domain.InvoiceStatusCancelled}: stockRestock,
	// a draft never decremented stock, so cancelling it reverses nothing
	{domain.InvoiceStatusDraft, domain.InvoiceStatusCancelled}: stockNone,
}
