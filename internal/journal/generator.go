// Package journal turns validated invoices and registered payments into
// balanced sets of double-entry postings. Every emitted set is checked for
// sum(debit) == sum(credit) before it is written; an unbalanced set is a
// bug and aborts the whole operation.
package journal

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/gescom-app/ledger-engine/internal/domain"
)

type journalRepo interface {
	Create(ctx context.Context, tx *sql.Tx, entry *domain.JournalEntry) error
}

type partyRepo interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Counterparty, error)
}

type resolver interface {
	Resolve(ctx context.Context, category domain.AccountCategory) (*domain.Account, error)
	ResolveSettlement(ctx context.Context, method domain.PaymentMethod) (*domain.Account, error)
}

type sequenceRepo interface {
	Next(ctx context.Context, tx *sql.Tx, name string) (int64, error)
}

type Generator struct {
	entries  journalRepo
	parties  partyRepo
	accounts resolver
	seq      sequenceRepo
}

func NewGenerator(entries journalRepo, parties partyRepo, accounts resolver, seq sequenceRepo) *Generator {
	return &Generator{entries: entries, parties: parties, accounts: accounts, seq: seq}
}

var bookPrefixes = map[domain.JournalBook]string{
	domain.BookSales:     "VTE",
	domain.BookPurchases: "ACH",
	domain.BookBank:      "BNK",
	domain.BookCash:      "CSE",
}

// reference builds the posting number: book prefix, posting period, source
// document number, posting attempt, leg index. E.g. VTE202406-000123-1-1.
// The attempt counter makes references unique when the same document is
// posted again, as a re-validated invoice is.
func reference(book domain.JournalBook, date time.Time, number, posting int64, leg int) string {
	return fmt.Sprintf("%s%s-%06d-%d-%d", bookPrefixes[book], date.Format("200601"), number, posting, leg)
}

// PostInvoice emits the posting set for a validated invoice: counterparty
// leg for the tax-inclusive total, a tax leg when tax is non-zero, and the
// revenue/expense leg. Whether the invoice is a sale or a purchase follows
// the counterparty's role.
func (g *Generator) PostInvoice(ctx context.Context, tx *sql.Tx, inv *domain.Invoice) ([]domain.JournalEntry, error) {
	party, err := g.parties.GetByID(ctx, inv.CounterpartyID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("PostInvoice: invoice %d: %w", inv.Number, domain.ErrPartyNotFound)
		}
		return nil, fmt.Errorf("PostInvoice: %w", err)
	}
	isPurchase := party.Role == domain.PartyRoleSupplier

	book := domain.BookSales
	if isPurchase {
		book = domain.BookPurchases
	}

	counterpartyCat := domain.CategoryReceivable
	taxCat := domain.CategoryOutputTax
	netCat := domain.CategoryRevenue
	if isPurchase {
		counterpartyCat = domain.CategoryPayable
		taxCat = domain.CategoryInputTax
		netCat = domain.CategoryExpense
	}

	posting, err := g.seq.Next(ctx, tx, "posting:invoice:"+inv.ID.String())
	if err != nil {
		return nil, fmt.Errorf("PostInvoice: invoice %d: %w", inv.Number, err)
	}

	b := newSetBuilder(book, inv.Date, inv.Number, posting, inv.Currency, inv.FxRate,
		fmt.Sprintf("invoice %d %s", inv.Number, party.Name))

	cpAcct, err := g.accounts.Resolve(ctx, counterpartyCat)
	if err != nil {
		return nil, fmt.Errorf("PostInvoice: invoice %d: %w", inv.Number, err)
	}
	if isPurchase {
		b.credit(cpAcct, inv.TotalTTC)
	} else {
		b.debit(cpAcct, inv.TotalTTC)
	}

	if inv.TotalTVA.IsPositive() {
		taxAcct, err := g.accounts.Resolve(ctx, taxCat)
		if err != nil {
			return nil, fmt.Errorf("PostInvoice: invoice %d: %w", inv.Number, err)
		}
		if isPurchase {
			b.debit(taxAcct, inv.TotalTVA)
		} else {
			b.credit(taxAcct, inv.TotalTVA)
		}
	}

	netAcct, err := g.accounts.Resolve(ctx, netCat)
	if err != nil {
		return nil, fmt.Errorf("PostInvoice: invoice %d: %w", inv.Number, err)
	}
	if isPurchase {
		b.debit(netAcct, inv.TotalHT)
	} else {
		b.credit(netAcct, inv.TotalHT)
	}

	return g.write(ctx, tx, b, fmt.Sprintf("PostInvoice: invoice %d", inv.Number))
}

// PostPayment emits both legs of a payment posting: the bank/cash leg for
// the amount, offset against the same receivable or payable account the
// invoice posting used. Customer payments debit bank/cash and credit the
// receivable; supplier payments debit the payable and credit bank/cash.
func (g *Generator) PostPayment(ctx context.Context, tx *sql.Tx, p *domain.Payment, inv *domain.Invoice) ([]domain.JournalEntry, error) {
	party, err := g.parties.GetByID(ctx, inv.CounterpartyID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("PostPayment: payment %d: %w", p.Number, domain.ErrPartyNotFound)
		}
		return nil, fmt.Errorf("PostPayment: %w", err)
	}
	isPurchase := party.Role == domain.PartyRoleSupplier

	settleAcct, err := g.accounts.ResolveSettlement(ctx, p.Method)
	if err != nil {
		return nil, fmt.Errorf("PostPayment: payment %d: %w", p.Number, err)
	}

	offsetCat := domain.CategoryReceivable
	if isPurchase {
		offsetCat = domain.CategoryPayable
	}
	offsetAcct, err := g.accounts.Resolve(ctx, offsetCat)
	if err != nil {
		return nil, fmt.Errorf("PostPayment: payment %d: %w", p.Number, err)
	}

	book := domain.BookBank
	if p.Method == domain.PaymentMethodCash {
		book = domain.BookCash
	}

	posting, err := g.seq.Next(ctx, tx, "posting:payment:"+p.ID.String())
	if err != nil {
		return nil, fmt.Errorf("PostPayment: payment %d: %w", p.Number, err)
	}

	b := newSetBuilder(book, p.Date, p.Number, posting, p.Currency, p.FxRate,
		fmt.Sprintf("payment %d invoice %d %s", p.Number, inv.Number, party.Name))

	if isPurchase {
		b.debit(offsetAcct, p.Amount)
		b.credit(settleAcct, p.Amount)
	} else {
		b.debit(settleAcct, p.Amount)
		b.credit(offsetAcct, p.Amount)
	}

	return g.write(ctx, tx, b, fmt.Sprintf("PostPayment: payment %d", p.Number))
}

func (g *Generator) write(ctx context.Context, tx *sql.Tx, b *setBuilder, op string) ([]domain.JournalEntry, error) {
	if err := b.checkBalanced(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	for i := range b.entries {
		if err := g.entries.Create(ctx, tx, &b.entries[i]); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
	}
	return b.entries, nil
}

type setBuilder struct {
	book      domain.JournalBook
	date      time.Time
	number    int64
	posting   int64
	currency  domain.Currency
	fxRate    decimal.Decimal
	sourceRef string
	now       time.Time
	entries   []domain.JournalEntry
}

func newSetBuilder(book domain.JournalBook, date time.Time, number, posting int64, ccy domain.Currency, fxRate decimal.Decimal, sourceRef string) *setBuilder {
	return &setBuilder{
		book:      book,
		date:      date,
		number:    number,
		posting:   posting,
		currency:  ccy,
		fxRate:    fxRate,
		sourceRef: sourceRef,
		now:       time.Now().UTC(),
	}
}

func (b *setBuilder) add(acct *domain.Account, debit, credit decimal.Decimal) {
	leg := len(b.entries) + 1
	b.entries = append(b.entries, domain.JournalEntry{
		ID:          uuid.New(),
		Reference:   reference(b.book, b.date, b.number, b.posting, leg),
		Date:        b.date,
		Book:        b.book,
		AccountCode: acct.Code,
		Label:       acct.Label,
		Debit:       debit,
		Credit:      credit,
		Currency:    b.currency,
		FxRate:      b.fxRate,
		SourceRef:   b.sourceRef,
		CreatedAt:   b.now,
	})
}

func (b *setBuilder) debit(acct *domain.Account, amount decimal.Decimal) {
	b.add(acct, amount, decimal.Zero)
}

func (b *setBuilder) credit(acct *domain.Account, amount decimal.Decimal) {
	b.add(acct, decimal.Zero, amount)
}

func (b *setBuilder) checkBalanced() error {
	var debits, credits decimal.Decimal
	for _, e := range b.entries {
		debits = debits.Add(e.Debit)
		credits = credits.Add(e.Credit)
	}
	if !debits.Equal(credits) {
		return fmt.Errorf("debits %s, credits %s: %w", debits, credits, domain.ErrUnbalancedPosting)
	}
	return nil
}
