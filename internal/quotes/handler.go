package quotes

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/dentora/dentora/internal/catalog"
	"github.com/dentora/dentora/internal/observability"
	"github.com/dentora/dentora/internal/platform/httpx"
)

// Handler exposes the quote engine as a JSON API. Authentication sits in
// front of the service; the acting doctor's name travels in request bodies.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	metrics   *observability.Metrics
	validator *validator.Validate
}

func NewHandler(logger *slog.Logger, service *Service, metrics *observability.Metrics) *Handler {
	return &Handler{
		logger:    logger,
		service:   service,
		metrics:   metrics,
		validator: validator.New(),
	}
}

type actorRequest struct {
	DoctorName string `json:"doctor_name" validate:"max=120"`
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	patientID, ok := h.pathID(w, r, "patientID")
	if !ok {
		return
	}
	var req CreateQuoteRequest
	if !h.decode(w, r, &req) {
		return
	}
	req.PatientID = patientID

	view, err := h.service.Create(r.Context(), req)
	if err != nil {
		h.respondErr(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, view)
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	patientID, ok := h.pathID(w, r, "patientID")
	if !ok {
		return
	}
	includeDeleted := r.URL.Query().Get("include_deleted") == "true"

	list, err := h.service.ListByPatient(r.Context(), patientID, includeDeleted)
	if err != nil {
		h.respondErr(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"quotes": list})
}

func (h *Handler) Show(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r, "id")
	if !ok {
		return
	}
	view, err := h.service.Get(r.Context(), id)
	if err != nil {
		h.respondErr(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, view)
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r, "id")
	if !ok {
		return
	}
	var req UpdateQuoteRequest
	if !h.decode(w, r, &req) {
		return
	}
	view, err := h.service.UpdateHeader(r.Context(), id, req)
	if err != nil {
		h.respondErr(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, view)
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r, "id")
	if !ok {
		return
	}
	var req actorRequest
	if r.ContentLength > 0 && !h.decode(w, r, &req) {
		return
	}
	if err := h.service.Delete(r.Context(), id, req.DoctorName); err != nil {
		h.respondErr(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) Restore(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r, "id")
	if !ok {
		return
	}
	var req actorRequest
	if r.ContentLength > 0 && !h.decode(w, r, &req) {
		return
	}
	view, err := h.service.Restore(r.Context(), id, req.DoctorName)
	if err != nil {
		h.respondErr(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, view)
}

func (h *Handler) Duplicate(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r, "id")
	if !ok {
		return
	}
	var req actorRequest
	if r.ContentLength > 0 && !h.decode(w, r, &req) {
		return
	}
	view, err := h.service.DuplicateQuote(r.Context(), id, req.DoctorName)
	if err != nil {
		h.respondErr(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, view)
}

func (h *Handler) Transition(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r, "id")
	if !ok {
		return
	}
	var req TransitionRequest
	if !h.decode(w, r, &req) {
		return
	}
	view, err := h.service.ApplyTransition(r.Context(), id, req.Action, req.DoctorName)
	if err != nil {
		h.respondErr(w, r, err)
		return
	}
	h.metrics.QuoteTransition(string(req.Action))
	httpx.JSON(w, http.StatusOK, view)
}

func (h *Handler) SetDiscount(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r, "id")
	if !ok {
		return
	}
	var req SetDiscountRequest
	if !h.decode(w, r, &req) {
		return
	}
	view, err := h.service.SetGlobalDiscount(r.Context(), id, Discount{Type: req.Type, Value: req.Value})
	if err != nil {
		h.respondErr(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, view)
}

func (h *Handler) AddItem(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r, "id")
	if !ok {
		return
	}
	var req AddItemRequest
	if !h.decode(w, r, &req) {
		return
	}
	view, err := h.service.AddItem(r.Context(), id, req)
	if err != nil {
		h.respondErr(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, view)
}

func (h *Handler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r, "id")
	if !ok {
		return
	}
	lineID := chi.URLParam(r, "lineID")
	var req UpdateItemRequest
	if !h.decode(w, r, &req) {
		return
	}
	view, err := h.service.UpdateItem(r.Context(), id, lineID, req)
	if err != nil {
		h.respondErr(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, view)
}

func (h *Handler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r, "id")
	if !ok {
		return
	}
	lineID := chi.URLParam(r, "lineID")

	var tooth *int
	if raw := r.URL.Query().Get("tooth"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "tooth must be a number")
			return
		}
		tooth = &n
	}

	view, err := h.service.RemoveItem(r.Context(), id, lineID, tooth)
	if err != nil {
		h.respondErr(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, view)
}

func (h *Handler) RemoveLastFullMouth(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r, "id")
	if !ok {
		return
	}
	catalogItemID, err := strconv.ParseInt(chi.URLParam(r, "catalogItemID"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid catalog item id")
		return
	}
	view, err := h.service.RemoveLastFullMouth(r.Context(), id, catalogItemID)
	if err != nil {
		h.respondErr(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, view)
}

func (h *Handler) Merged(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r, "id")
	if !ok {
		return
	}
	all, bySession, err := h.service.Merged(r.Context(), id)
	if err != nil {
		h.respondErr(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"merged":     all,
		"by_session": bySession,
	})
}

func (h *Handler) MoveGroup(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r, "id")
	if !ok {
		return
	}
	var req MoveGroupRequest
	if !h.decode(w, r, &req) {
		return
	}
	view, err := h.service.MoveMergedGroup(r.Context(), id, req)
	if err != nil {
		h.respondErr(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, view)
}

func (h *Handler) Odontogram(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r, "id")
	if !ok {
		return
	}
	state, err := h.service.Odontogram(r.Context(), id)
	if err != nil {
		h.respondErr(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"teeth": state})
}

func (h *Handler) pathID(w http.ResponseWriter, r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id <= 0 {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid "+name)
		return 0, false
	}
	return id, true
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, target any) bool {
	if err := httpx.DecodeJSON(r, target); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "malformed JSON body")
		return false
	}
	if err := h.validator.Struct(target); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return false
	}
	return true
}

func (h *Handler) respondErr(w http.ResponseWriter, r *http.Request, err error) {
	var perr *PlacementError
	switch {
	case errors.As(err, &perr):
		h.metrics.PlacementRejected(string(perr.Reason))
		httpx.Rejection(w, http.StatusUnprocessableEntity, "Placement Rejected", string(perr.Reason), perr.Detail)
	case errors.Is(err, ErrNotFound), errors.Is(err, ErrLineNotFound), errors.Is(err, catalog.ErrNotFound):
		httpx.Problem(w, http.StatusNotFound, "Not Found", err.Error())
	case errors.Is(err, ErrInvalidTransition):
		httpx.Problem(w, http.StatusConflict, "Not Applicable", err.Error())
	case errors.Is(err, ErrNotEditable), errors.Is(err, ErrNotDeletable), errors.Is(err, ErrNumberTaken):
		httpx.Problem(w, http.StatusConflict, "Conflict", err.Error())
	default:
		h.logger.Error("quote request failed", "method", r.Method, "path", r.URL.Path, "error", err)
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
	}
}
