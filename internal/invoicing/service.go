package invoicing

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/dentora/dentora/internal/quotes"
)

// InvoiceStore is the persistence slice the service needs.
type InvoiceStore interface {
	ListByQuote(ctx context.Context, quoteID int64) ([]Invoice, error)
	Get(ctx context.Context, id int64) (*Invoice, error)
	Record(ctx context.Context, inv Invoice) error
}

// QuoteEngine is the slice of the quote service invoicing drives: reading
// totals, appending invoice events, and completing a fully paid treatment.
type QuoteEngine interface {
	Get(ctx context.Context, id int64) (*quotes.View, error)
	AppendInvoiceEvent(ctx context.Context, id int64, inv quotes.InvoiceEventPayload) error
	ApplyTransition(ctx context.Context, id int64, action quotes.Action, doctorName string) (*quotes.View, error)
}

// Sequencer allocates invoice ids.
type Sequencer interface {
	NextInvoiceID(ctx context.Context) int64
}

// Service records invoices against quotes and reconciles quote status with
// the invoiced coverage.
type Service struct {
	store  InvoiceStore
	engine QuoteEngine
	seq    Sequencer
	logger *slog.Logger
	now    func() time.Time
}

func NewService(store InvoiceStore, engine QuoteEngine, seq Sequencer, logger *slog.Logger) *Service {
	return &Service{
		store:  store,
		engine: engine,
		seq:    seq,
		logger: logger,
		now:    time.Now,
	}
}

// Summary is everything the quote screen shows about invoicing.
type Summary struct {
	Invoices     []Invoice `json:"invoices"`
	Invoiced     int64     `json:"invoiced"`
	Remaining    int64     `json:"remaining"`
	InvoicedAsOf *int64    `json:"invoiced_as_of,omitempty"`
}

// Summary folds the quote's invoices into invoiced and remaining amounts.
func (s *Service) Summary(ctx context.Context, quoteID int64) (*Summary, error) {
	view, err := s.engine.Get(ctx, quoteID)
	if err != nil {
		return nil, err
	}
	invoices, err := s.store.ListByQuote(ctx, quoteID)
	if err != nil {
		return nil, err
	}
	invoiced := InvoicedAmount(invoices)
	return &Summary{
		Invoices:  invoices,
		Invoiced:  invoiced,
		Remaining: RemainingAmount(view.Totals.Total, invoiced),
	}, nil
}

// InvoicedAsOf replays the quote's event log and reports the amount invoiced
// after its first n events, for auditing how coverage built up over time.
func (s *Service) InvoicedAsOf(ctx context.Context, quoteID int64, n int) (int64, error) {
	view, err := s.engine.Get(ctx, quoteID)
	if err != nil {
		return 0, err
	}
	return InvoicedAsOfEvent(view.Quote.Events, n), nil
}

// RecordInvoice stores an invoice from the provider, appends the matching
// event to the quote history, and reconciles the quote's status.
func (s *Service) RecordInvoice(ctx context.Context, quoteID int64, req RecordInvoiceRequest) (*Invoice, error) {
	view, err := s.engine.Get(ctx, quoteID)
	if err != nil {
		return nil, err
	}

	inv := Invoice{
		ID:         req.ID,
		QuoteID:    quoteID,
		Number:     req.Number,
		Status:     req.Status,
		Type:       req.Type,
		TotalGross: req.TotalGross,
		Currency:   req.Currency,
		IssuedAt:   req.IssuedAt,
	}
	if inv.ID == 0 {
		inv.ID = s.seq.NextInvoiceID(ctx)
	}
	if inv.Currency == "" {
		inv.Currency = view.Quote.Currency
	}
	if inv.IssuedAt.IsZero() {
		inv.IssuedAt = s.now()
	}
	if err := s.store.Record(ctx, inv); err != nil {
		return nil, fmt.Errorf("record invoice: %w", err)
	}

	if err := s.engine.AppendInvoiceEvent(ctx, quoteID, quotes.InvoiceEventPayload{
		InvoiceID:       inv.ID,
		InvoiceNumber:   inv.Number,
		InvoiceAmount:   inv.TotalGross,
		InvoiceCurrency: inv.Currency,
		InvoiceType:     string(inv.Type),
		DoctorName:      req.DoctorName,
	}); err != nil {
		return nil, err
	}

	if err := s.Reconcile(ctx, quoteID); err != nil {
		// The invoice itself is stored; reconciliation retries via the worker.
		s.logger.Warn("invoice reconcile deferred", slog.Int64("quote_id", quoteID), slog.Any("error", err))
	}
	return &inv, nil
}

// Reconcile completes a started quote once non-advance invoices cover its
// total. Anything else is left untouched.
func (s *Service) Reconcile(ctx context.Context, quoteID int64) error {
	view, err := s.engine.Get(ctx, quoteID)
	if err != nil {
		return err
	}
	invoices, err := s.store.ListByQuote(ctx, quoteID)
	if err != nil {
		return err
	}
	if !ShouldAutoComplete(view.Quote.Status, view.Totals.Total, invoices) {
		return nil
	}
	_, err = s.engine.ApplyTransition(ctx, quoteID, quotes.ActionComplete, "")
	if err != nil {
		return fmt.Errorf("auto-complete quote %d: %w", quoteID, err)
	}
	s.logger.Info("quote auto-completed by invoicing", slog.Int64("quote_id", quoteID))
	return nil
}
