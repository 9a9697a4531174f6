package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/hibiken/asynq"

	"github.com/dentora/dentora/internal/invoicing"
	jobmetrics "github.com/dentora/dentora/internal/jobs"
	"github.com/dentora/dentora/internal/quotes"
)

// InvoiceReconcileJob re-runs invoiced-coverage reconciliation for a quote.
// It backs up the inline reconciliation done on invoice recording, which is
// allowed to fail without failing the recording itself.
type InvoiceReconcileJob struct {
	invoices *invoicing.Service
	log      *slog.Logger
	metrics  *jobmetrics.Metrics
}

func NewInvoiceReconcileJob(invoices *invoicing.Service, logger *slog.Logger, metrics *jobmetrics.Metrics) *InvoiceReconcileJob {
	return &InvoiceReconcileJob{invoices: invoices, log: logger, metrics: metrics}
}

func (j *InvoiceReconcileJob) Handle(ctx context.Context, t *asynq.Task) error {
	var payload QuotePayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	tracker := j.metrics.Track("invoice_reconcile")

	err := j.invoices.Reconcile(ctx, payload.QuoteID)
	if errors.Is(err, quotes.ErrNotFound) {
		j.logger().Info("reconcile skipped, quote gone", slog.Int64("quote_id", payload.QuoteID))
		return tracker.End(nil)
	}
	if err != nil {
		j.logger().Error("invoice reconcile", slog.Int64("quote_id", payload.QuoteID), slog.Any("error", err))
		return tracker.End(err)
	}
	return tracker.End(nil)
}

func (j *InvoiceReconcileJob) logger() *slog.Logger {
	if j.log != nil {
		return j.log
	}
	return slog.Default()
}
