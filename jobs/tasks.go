package jobs

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"

	// TaskQuoteRenderPDF pre-renders a quote PDF into the cache.
	TaskQuoteRenderPDF = "quote:render_pdf"
	// TaskInvoiceReconcile re-checks a quote's invoiced coverage and
	// completes fully covered treatments.
	TaskInvoiceReconcile = "invoice:reconcile"
)

// QuotePayload addresses one quote; both task types share it.
type QuotePayload struct {
	QuoteID int64 `json:"quote_id"`
}

// NewQuoteRenderPDFTask constructs a render task for a quote.
func NewQuoteRenderPDFTask(quoteID int64) (*asynq.Task, error) {
	data, err := json.Marshal(QuotePayload{QuoteID: quoteID})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskQuoteRenderPDF, data), nil
}

// NewInvoiceReconcileTask constructs a reconcile task for a quote.
func NewInvoiceReconcileTask(quoteID int64) (*asynq.Task, error) {
	data, err := json.Marshal(QuotePayload{QuoteID: quoteID})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskInvoiceReconcile, data), nil
}
