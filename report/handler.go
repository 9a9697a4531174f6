package report

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/hibiken/asynq"

	"github.com/dentora/dentora/internal/quotes"
)

// Enqueuer schedules a background render that warms the PDF cache.
type Enqueuer interface {
	EnqueueQuoteRenderPDF(ctx context.Context, quoteID int64) (*asynq.TaskInfo, error)
}

// Handler serves rendered quote documents.
type Handler struct {
	service  *Service
	enqueuer Enqueuer
	logger   *slog.Logger
}

// NewHandler creates a report handler. The enqueuer may be nil, in which case
// the async render endpoint reports the queue as unavailable.
func NewHandler(service *Service, enqueuer Enqueuer, logger *slog.Logger) *Handler {
	return &Handler{service: service, enqueuer: enqueuer, logger: logger}
}

// MountRoutes registers report routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/quotes/{id}/pdf", h.quotePDF)
	r.Post("/quotes/{id}/pdf", h.enqueuePDF)
	r.Get("/report/ping", h.ping)
}

func (h *Handler) ping(w http.ResponseWriter, r *http.Request) {
	if err := h.service.client.Ping(r.Context()); err != nil {
		h.logger.Warn("gotenberg ping failed", slog.Any("error", err))
		http.Error(w, http.StatusText(http.StatusServiceUnavailable), http.StatusServiceUnavailable)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}

func (h *Handler) enqueuePDF(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		http.Error(w, "invalid quote id", http.StatusBadRequest)
		return
	}
	if h.enqueuer == nil {
		http.Error(w, http.StatusText(http.StatusServiceUnavailable), http.StatusServiceUnavailable)
		return
	}
	info, err := h.enqueuer.EnqueueQuoteRenderPDF(r.Context(), id)
	if err != nil {
		h.logger.Error("enqueue quote pdf", slog.Int64("quote_id", id), slog.Any("error", err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	_, _ = w.Write([]byte(`{"task_id":"` + info.ID + `","queue":"` + info.Queue + `"}`))
}

func (h *Handler) quotePDF(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		http.Error(w, "invalid quote id", http.StatusBadRequest)
		return
	}

	pdf, err := h.service.RenderQuotePDF(r.Context(), id)
	if err != nil {
		if errors.Is(err, quotes.ErrNotFound) {
			http.Error(w, http.StatusText(http.StatusNotFound), http.StatusNotFound)
			return
		}
		h.logger.Error("render quote pdf", slog.Int64("quote_id", id), slog.Any("error", err))
		http.Error(w, http.StatusText(http.StatusBadGateway), http.StatusBadGateway)
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", `inline; filename="arajanlat-`+strconv.FormatInt(id, 10)+`.pdf"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(pdf)
}
