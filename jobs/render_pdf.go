package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/hibiken/asynq"

	jobmetrics "github.com/dentora/dentora/internal/jobs"
	"github.com/dentora/dentora/internal/quotes"
	"github.com/dentora/dentora/report"
)

// RenderPDFJob warms the PDF cache so the front desk download is instant.
type RenderPDFJob struct {
	renderer *report.Service
	log      *slog.Logger
	metrics  *jobmetrics.Metrics
}

func NewRenderPDFJob(renderer *report.Service, logger *slog.Logger, metrics *jobmetrics.Metrics) *RenderPDFJob {
	return &RenderPDFJob{renderer: renderer, log: logger, metrics: metrics}
}

func (j *RenderPDFJob) Handle(ctx context.Context, t *asynq.Task) error {
	var payload QuotePayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	tracker := j.metrics.Track("quote_render_pdf")

	_, err := j.renderer.RenderQuotePDF(ctx, payload.QuoteID)
	if errors.Is(err, quotes.ErrNotFound) {
		// Quote vanished between enqueue and run; nothing to retry.
		j.logger().Info("render skipped, quote gone", slog.Int64("quote_id", payload.QuoteID))
		return tracker.End(nil)
	}
	if err != nil {
		j.logger().Error("render quote pdf", slog.Int64("quote_id", payload.QuoteID), slog.Any("error", err))
		return tracker.End(err)
	}
	return tracker.End(nil)
}

func (j *RenderPDFJob) logger() *slog.Logger {
	if j.log != nil {
		return j.log
	}
	return slog.Default()
}
