// Package invoice drives the invoice lifecycle: creation with its payment
// plan, the draft/validated/cancelled state machine, and the stock and
// journal side effects each transition carries. A transition's side effects
// and its status flip always share one transaction; a failure anywhere
// rolls back everything.
package invoice

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/gescom-app/ledger-engine/internal/calc"
	"github.com/gescom-app/ledger-engine/internal/config"
	"github.com/gescom-app/ledger-engine/internal/domain"
	"github.com/gescom-app/ledger-engine/internal/logging"
	"github.com/gescom-app/ledger-engine/internal/service/payment"
)

const invoiceSequence = "invoices"

type invoiceRepo interface {
	Create(ctx context.Context, tx *sql.Tx, inv *domain.Invoice) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Invoice, error)
	GetForUpdate(ctx context.Context, tx *sql.Tx, id uuid.UUID) (*domain.Invoice, error)
	UpdateStatus(ctx context.Context, tx *sql.Tx, id uuid.UUID, from, to domain.InvoiceStatus) error
	UpdateTotals(ctx context.Context, tx *sql.Tx, id uuid.UUID, ht, tva, ttc, remaining decimal.Decimal) error
	UpdateHeader(ctx context.Context, tx *sql.Tx, inv *domain.Invoice) error
}

type lineRepo interface {
	CreateAll(ctx context.Context, tx *sql.Tx, lines []domain.InvoiceLine) error
	DeleteByInvoice(ctx context.Context, tx *sql.Tx, invoiceID uuid.UUID) error
	GetByInvoice(ctx context.Context, invoiceID uuid.UUID) ([]domain.InvoiceLine, error)
}

type stockLedger interface {
	VerifyLines(ctx context.Context, lines []domain.InvoiceLine) error
	Adjust(ctx context.Context, tx *sql.Tx, itemCode string, delta decimal.Decimal, reason string) error
}

type journalGenerator interface {
	PostInvoice(ctx context.Context, tx *sql.Tx, inv *domain.Invoice) ([]domain.JournalEntry, error)
}

type partyRepo interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Counterparty, error)
}

type itemReader interface {
	GetByCode(ctx context.Context, code string) (*domain.Item, error)
}

type sequenceRepo interface {
	Next(ctx context.Context, tx *sql.Tx, name string) (int64, error)
}

type rateSource interface {
	Rate(ctx context.Context, from, to domain.Currency, asOf time.Time) (decimal.Decimal, error)
	Convert(ctx context.Context, amount decimal.Decimal, from, to domain.Currency, asOf time.Time) (decimal.Decimal, error)
}

type paymentRegistrar interface {
	RegisterPayment(ctx context.Context, req payment.RegisterPaymentRequest) (*domain.Payment, error)
}

type paymentReader interface {
	GetByInvoice(ctx context.Context, invoiceID uuid.UUID) ([]domain.Payment, error)
}

type eventRepo interface {
	Create(ctx context.Context, tx *sql.Tx, ev *domain.InvoiceEvent) error
}

type Service struct {
	invoices  invoiceRepo
	lines     lineRepo
	stock     stockLedger
	journal   journalGenerator
	parties   partyRepo
	items     itemReader
	seq       sequenceRepo
	fx        rateSource
	registrar paymentRegistrar
	payments  paymentReader
	events    eventRepo
	db        *sql.DB
	cfg       *config.Config
	now       func() time.Time
}

func NewService(
	invoices invoiceRepo,
	lines lineRepo,
	stock stockLedger,
	journal journalGenerator,
	parties partyRepo,
	items itemReader,
	seq sequenceRepo,
	fx rateSource,
	registrar paymentRegistrar,
	payments paymentReader,
	events eventRepo,
	db *sql.DB,
	cfg *config.Config,
) *Service {
	return &Service{
		invoices:  invoices,
		lines:     lines,
		stock:     stock,
		journal:   journal,
		parties:   parties,
		items:     items,
		seq:       seq,
		fx:        fx,
		registrar: registrar,
		payments:  payments,
		events:    events,
		db:        db,
		cfg:       cfg,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

type LineInput struct {
	ItemCode    *string
	Description string
	Quantity    decimal.Decimal
	UnitPrice   decimal.Decimal
	DiscountPct decimal.Decimal
	TaxRatePct  decimal.Decimal
}

type CreateRequest struct {
	Kind           domain.InvoiceKind
	Date           time.Time
	CounterpartyID uuid.UUID
	Currency       domain.Currency
	PaymentMode    domain.PaymentMode
	DueDate        *time.Time
	DepositAmount  decimal.Decimal
	DepositMethod  domain.PaymentMethod
	Lines          []LineInput
	Actor          string
}

// Create assigns the next invoice number, derives the payment plan for the
// requested mode, computes line amounts and totals once, and persists the
// header, lines and creation event atomically. A deposit-mode invoice then
// registers its deposit through the payment ledger, so the deposit follows
// every payment rule including its journal legs.
func (s *Service) Create(ctx context.Context, req CreateRequest) (*domain.Invoice, error) {
	log := logging.FromContext(ctx)

	if !req.Currency.IsValid() {
		return nil, fmt.Errorf("Create: %q: %w", req.Currency, domain.ErrInvalidCurrency)
	}
	if _, err := s.parties.GetByID(ctx, req.CounterpartyID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("Create: %s: %w", req.CounterpartyID, domain.ErrPartyNotFound)
		}
		return nil, fmt.Errorf("Create: %w", err)
	}

	fxRate, err := s.rateToBase(ctx, req.Currency, req.Date)
	if err != nil {
		return nil, fmt.Errorf("Create: %w", err)
	}

	id := uuid.New()
	lines, totals, err := s.buildLines(ctx, id, req.Lines)
	if err != nil {
		return nil, fmt.Errorf("Create: %w", err)
	}

	plan, err := s.planFor(ctx, req, totals.TTC)
	if err != nil {
		return nil, fmt.Errorf("Create: %w", err)
	}

	// The deposit is registered only after the invoice commits, so its
	// rules are checked here: a rejected deposit must not leave an
	// invoice behind.
	if req.PaymentMode == domain.PaymentModeDeposit {
		if !req.DepositAmount.IsPositive() {
			return nil, fmt.Errorf("Create: deposit amount %s: %w", req.DepositAmount, domain.ErrInvalidAmount)
		}
		if !req.DepositMethod.IsValid() {
			return nil, fmt.Errorf("Create: deposit method %q: %w", req.DepositMethod, domain.ErrInvalidMethod)
		}
		if req.DepositAmount.GreaterThan(totals.TTC) {
			return nil, fmt.Errorf("Create: deposit %s exceeds total %s: %w",
				req.DepositAmount, totals.TTC, domain.ErrOverpayment)
		}
	}

	now := s.now()
	inv := &domain.Invoice{
		ID:               id,
		Kind:             req.Kind,
		Date:             req.Date,
		CounterpartyID:   req.CounterpartyID,
		Currency:         req.Currency,
		FxRate:           fxRate,
		Status:           domain.InvoiceStatusDraft,
		PaymentStatus:    domain.PaymentStatusUnpaid,
		PaymentMode:      req.PaymentMode,
		AmountPaid:       decimal.Zero,
		AmountRemaining:  totals.TTC,
		DueDate:          req.DueDate,
		FinalPaymentDate: plan.finalPaymentDate,
		MinimumPayment:   plan.minimumPayment,
		PenaltyRatePct:   decimal.NewFromFloat(s.cfg.DefaultPenaltyRatePct),
		TotalHT:          totals.HT,
		TotalTVA:         totals.TVA,
		TotalTTC:         totals.TTC,
		CreatedAt:        now,
		UpdatedAt:        now,
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("Create: begin tx: %w", err)
	}
	defer tx.Rollback()

	inv.Number, err = s.seq.Next(ctx, tx, invoiceSequence)
	if err != nil {
		return nil, fmt.Errorf("Create: %w", err)
	}

	if err := s.invoices.Create(ctx, tx, inv); err != nil {
		return nil, fmt.Errorf("Create: %w", err)
	}
	if err := s.lines.CreateAll(ctx, tx, lines); err != nil {
		return nil, fmt.Errorf("Create: %w", err)
	}
	if err := s.writeEvent(ctx, tx, inv.ID, domain.InvoiceEventCreated, "", domain.InvoiceStatusDraft, req.Actor); err != nil {
		return nil, fmt.Errorf("Create: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("Create: commit: %w", err)
	}

	log.Info("invoice created",
		"invoice_number", inv.Number,
		"kind", inv.Kind,
		"currency", inv.Currency,
		"total_ttc", inv.TotalTTC.String(),
		"payment_mode", inv.PaymentMode,
	)

	if req.PaymentMode == domain.PaymentModeDeposit {
		if _, err := s.registrar.RegisterPayment(ctx, payment.RegisterPaymentRequest{
			InvoiceID: inv.ID,
			Amount:    req.DepositAmount,
			Method:    req.DepositMethod,
			Reference: fmt.Sprintf("deposit invoice %d", inv.Number),
			Date:      req.Date,
		}); err != nil {
			return nil, fmt.Errorf("Create: deposit: %w", err)
		}
	}

	return s.invoices.GetByID(ctx, inv.ID)
}

type UpdateRequest struct {
	Status      *domain.InvoiceStatus
	Kind        *domain.InvoiceKind
	Date        *time.Time
	DueDate     *time.Time
	PaymentMode *domain.PaymentMode
	Lines       *[]LineInput
	Actor       string
}

// Update runs a requested status transition before any field change is
// persisted: the transition's stock and journal effects must see the
// pre-update line set. A supplied line set then replaces the existing one
// wholesale and totals are recomputed once.
func (s *Service) Update(ctx context.Context, id uuid.UUID, req UpdateRequest) (*domain.Invoice, error) {
	current, err := s.invoices.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("Update: %s: %w", id, domain.ErrInvoiceNotFound)
		}
		return nil, fmt.Errorf("Update: %w", err)
	}

	if req.Status != nil && *req.Status != current.Status {
		if err := s.transition(ctx, id, *req.Status, req.Actor); err != nil {
			return nil, fmt.Errorf("Update: %w", err)
		}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("Update: begin tx: %w", err)
	}
	defer tx.Rollback()

	inv, err := s.invoices.GetForUpdate(ctx, tx, id)
	if err != nil {
		return nil, fmt.Errorf("Update: %w", err)
	}

	if req.Kind != nil {
		inv.Kind = *req.Kind
	}
	if req.Date != nil {
		inv.Date = *req.Date
	}
	if req.DueDate != nil {
		inv.DueDate = req.DueDate
	}
	if req.PaymentMode != nil {
		inv.PaymentMode = *req.PaymentMode
	}
	if err := s.invoices.UpdateHeader(ctx, tx, inv); err != nil {
		return nil, fmt.Errorf("Update: %w", err)
	}

	if req.Lines != nil {
		lines, totals, err := s.buildLines(ctx, id, *req.Lines)
		if err != nil {
			return nil, fmt.Errorf("Update: %w", err)
		}
		if err := s.lines.DeleteByInvoice(ctx, tx, id); err != nil {
			return nil, fmt.Errorf("Update: %w", err)
		}
		if err := s.lines.CreateAll(ctx, tx, lines); err != nil {
			return nil, fmt.Errorf("Update: %w", err)
		}
		remaining := totals.TTC.Sub(inv.AmountPaid)
		if err := s.invoices.UpdateTotals(ctx, tx, id, totals.HT, totals.TVA, totals.TTC, remaining); err != nil {
			return nil, fmt.Errorf("Update: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("Update: commit: %w", err)
	}

	return s.invoices.GetByID(ctx, id)
}

// Validate transitions the invoice to validated: availability check, stock
// decrement per line, totals computation when still unset, journal posting.
func (s *Service) Validate(ctx context.Context, id uuid.UUID, actor string) error {
	if err := s.transition(ctx, id, domain.InvoiceStatusValidated, actor); err != nil {
		return fmt.Errorf("Validate: %w", err)
	}
	return nil
}

// Cancel transitions the invoice to cancelled, restocking every line of a
// validated invoice. Cancelling a draft touches no stock.
func (s *Service) Cancel(ctx context.Context, id uuid.UUID, actor string) error {
	if err := s.transition(ctx, id, domain.InvoiceStatusCancelled, actor); err != nil {
		return fmt.Errorf("Cancel: %w", err)
	}
	return nil
}

// transition executes one row of the transition table. The status flip
// asserts the prior status, so two concurrent calls cannot both apply the
// same transition's side effects.
func (s *Service) transition(ctx context.Context, id uuid.UUID, to domain.InvoiceStatus, actor string) error {
	log := logging.FromContext(ctx)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("transition: begin tx: %w", err)
	}
	defer tx.Rollback()

	inv, err := s.invoices.GetForUpdate(ctx, tx, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return fmt.Errorf("transition: %s: %w", id, domain.ErrInvoiceNotFound)
		}
		return fmt.Errorf("transition: %w", err)
	}

	effect, ok := transitionTable[transitionKey{from: inv.Status, to: to}]
	if !ok {
		return fmt.Errorf("transition: invoice %d: %s -> %s: %w",
			inv.Number, inv.Status, to, domain.ErrInvalidTransition)
	}

	lines, err := s.lines.GetByInvoice(ctx, id)
	if err != nil {
		return fmt.Errorf("transition: %w", err)
	}

	switch effect {
	case stockDecrement:
		if err := s.applyValidation(ctx, tx, inv, lines); err != nil {
			return fmt.Errorf("transition: invoice %d: %w", inv.Number, err)
		}
	case stockRestock:
		reason := fmt.Sprintf("invoice %d cancellation", inv.Number)
		for _, line := range lines {
			if line.ItemCode == nil {
				continue
			}
			if err := s.stock.Adjust(ctx, tx, *line.ItemCode, line.Quantity, reason); err != nil {
				return fmt.Errorf("transition: invoice %d: %w", inv.Number, err)
			}
		}
	}

	if err := s.invoices.UpdateStatus(ctx, tx, id, inv.Status, to); err != nil {
		return fmt.Errorf("transition: %w", err)
	}
	if err := s.writeEvent(ctx, tx, id, domain.InvoiceEventTransitioned, inv.Status, to, actor); err != nil {
		return fmt.Errorf("transition: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("transition: commit: %w", err)
	}

	log.Info("invoice transitioned",
		"invoice_number", inv.Number,
		"from", inv.Status,
		"to", to,
		"actor", actor,
	)
	return nil
}

// applyValidation runs the validated-transition side effects: aggregate
// availability check first so no partial decrement can happen, then the
// per-line decrements under row locks, then totals and the journal posting.
func (s *Service) applyValidation(ctx context.Context, tx *sql.Tx, inv *domain.Invoice, lines []domain.InvoiceLine) error {
	if err := s.stock.VerifyLines(ctx, lines); err != nil {
		return err
	}

	reason := fmt.Sprintf("invoice %d validation", inv.Number)
	for _, line := range lines {
		if line.ItemCode == nil {
			continue
		}
		if err := s.stock.Adjust(ctx, tx, *line.ItemCode, line.Quantity.Neg(), reason); err != nil {
			return err
		}
	}

	if inv.TotalTTC.IsZero() && len(lines) > 0 {
		totals := calc.ComputeInvoiceTotals(lines)
		remaining := totals.TTC.Sub(inv.AmountPaid)
		if err := s.invoices.UpdateTotals(ctx, tx, inv.ID, totals.HT, totals.TVA, totals.TTC, remaining); err != nil {
			return err
		}
		inv.TotalHT, inv.TotalTVA, inv.TotalTTC = totals.HT, totals.TVA, totals.TTC
		inv.AmountRemaining = remaining
	}

	if _, err := s.journal.PostInvoice(ctx, tx, inv); err != nil {
		return err
	}
	return nil
}

// Aggregate is the invoice-with-lines-and-payments read model.
type Aggregate struct {
	Invoice  domain.Invoice
	Lines    []domain.InvoiceLine
	Payments []domain.Payment
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Aggregate, error) {
	inv, err := s.invoices.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("Get: %s: %w", id, domain.ErrInvoiceNotFound)
		}
		return nil, fmt.Errorf("Get: %w", err)
	}
	lines, err := s.lines.GetByInvoice(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("Get: %w", err)
	}
	payments, err := s.payments.GetByInvoice(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("Get: %w", err)
	}
	return &Aggregate{Invoice: *inv, Lines: lines, Payments: payments}, nil
}

// buildLines computes each line's amounts and the invoice totals exactly
// once. A line referencing a catalog item inherits the item's price, tax
// rate and description for any field the caller left unset.
func (s *Service) buildLines(ctx context.Context, invoiceID uuid.UUID, inputs []LineInput) ([]domain.InvoiceLine, calc.Totals, error) {
	lines := make([]domain.InvoiceLine, 0, len(inputs))
	for i, in := range inputs {
		if in.ItemCode != nil {
			item, err := s.items.GetByCode(ctx, *in.ItemCode)
			if err != nil {
				if errors.Is(err, domain.ErrNotFound) {
					return nil, calc.Totals{}, fmt.Errorf("buildLines: line %d: %s: %w", i+1, *in.ItemCode, domain.ErrItemNotFound)
				}
				return nil, calc.Totals{}, fmt.Errorf("buildLines: line %d: %w", i+1, err)
			}
			if in.UnitPrice.IsZero() {
				in.UnitPrice = item.UnitPrice
			}
			if in.TaxRatePct.IsZero() {
				in.TaxRatePct = item.TaxRatePct
			}
			if in.Description == "" {
				in.Description = item.Description
			}
		}

		amounts, err := calc.ComputeLine(in.UnitPrice, in.Quantity, in.DiscountPct, in.TaxRatePct)
		if err != nil {
			return nil, calc.Totals{}, fmt.Errorf("buildLines: line %d: %w", i+1, err)
		}

		lines = append(lines, domain.InvoiceLine{
			ID:          uuid.New(),
			InvoiceID:   invoiceID,
			Position:    i + 1,
			ItemCode:    in.ItemCode,
			Description: in.Description,
			Quantity:    in.Quantity,
			UnitPrice:   in.UnitPrice,
			DiscountPct: in.DiscountPct,
			TaxRatePct:  in.TaxRatePct,
			AmountHT:    amounts.TaxExclusive,
			AmountTVA:   amounts.Tax,
			AmountTTC:   amounts.TaxInclusive,
		})
	}
	return lines, calc.ComputeInvoiceTotals(lines), nil
}

func (s *Service) rateToBase(ctx context.Context, ccy domain.Currency, asOf time.Time) (decimal.Decimal, error) {
	base := domain.Currency(s.cfg.BaseCurrency)
	return s.fx.Rate(ctx, ccy, base, asOf)
}

func (s *Service) writeEvent(ctx context.Context, tx *sql.Tx, invoiceID uuid.UUID, eventType domain.InvoiceEventType, from, to domain.InvoiceStatus, actor string) error {
	ev := &domain.InvoiceEvent{
		ID:         uuid.New(),
		InvoiceID:  invoiceID,
		EventType:  eventType,
		FromStatus: from,
		ToStatus:   to,
		Actor:      actor,
		CreatedAt:  s.now(),
	}
	if err := s.events.Create(ctx, tx, ev); err != nil {
		return fmt.Errorf("writeEvent: %w", err)
	}
	return nil
}
