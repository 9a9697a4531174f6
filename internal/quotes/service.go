package quotes

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/dentora/dentora/internal/catalog"
	"github.com/dentora/dentora/internal/odontogram"
	"github.com/dentora/dentora/internal/patients"
)

// Sequencer allocates clinic-wide identifiers. Implementations fall back to
// locally generated ids on failure, so these calls never error.
type Sequencer interface {
	NextQuoteID(ctx context.Context, patientID int64) int64
	NextQuoteNumber(ctx context.Context) string
	IncrDeletedQuotes(ctx context.Context)
}

// CatalogLookup is the read-side slice of the catalog the engine needs.
type CatalogLookup interface {
	Get(ctx context.Context, id int64) (*catalog.Item, error)
}

// BaselineSource supplies the patient's pre-existing dental record used as
// the odontogram baseline.
type BaselineSource interface {
	Baseline(ctx context.Context, patientID int64) (odontogram.State, error)
}

// Auditor records quote mutations for the clinic audit trail.
type Auditor interface {
	Record(ctx context.Context, action string, quoteID int64, meta map[string]any)
}

// Service owns every quote mutation. All writes for one quote are serialized
// through the repository's Mutate contract.
type Service struct {
	repo     Repository
	seq      Sequencer
	catalog  CatalogLookup
	baseline BaselineSource
	audit    Auditor
	logger   *slog.Logger
	now      func() time.Time
}

// NewService constructs a Service.
func NewService(repo Repository, seq Sequencer, cat CatalogLookup, baseline BaselineSource, audit Auditor, logger *slog.Logger) *Service {
	return &Service{
		repo:     repo,
		seq:      seq,
		catalog:  cat,
		baseline: baseline,
		audit:    audit,
		logger:   logger,
		now:      time.Now,
	}
}

// View is a quote together with its derived totals.
type View struct {
	Quote  *Quote `json:"quote"`
	Totals Totals `json:"totals"`
}

// Create opens a new draft quote for a patient.
func (s *Service) Create(ctx context.Context, req CreateQuoteRequest) (*View, error) {
	now := s.now()
	q := &Quote{
		ID:                 s.seq.NextQuoteID(ctx, req.PatientID),
		Number:             s.seq.NextQuoteNumber(ctx),
		PatientID:          req.PatientID,
		DoctorName:         req.DoctorName,
		Comment:            req.Comment,
		Kind:               req.Kind,
		Status:             StatusDraft,
		Currency:           req.Currency,
		ExpectedTreatments: clampExpected(req.ExpectedTreatments),
		LastStatusChangeAt: now,
		CreatedAt:          now,
		UpdatedAt:          now,
		Events:             []QuoteEvent{NewEvent(EventCreated, req.DoctorName, now)},
	}
	if q.Kind == "" {
		q.Kind = KindItemized
	}
	if q.Currency == "" {
		q.Currency = "HUF"
	}
	if err := s.repo.Create(ctx, q); err != nil {
		return nil, fmt.Errorf("create quote: %w", err)
	}
	s.record(ctx, "quote.create", q.ID, map[string]any{"number": q.Number})
	return s.view(q), nil
}

// Get returns the quote with derived totals.
func (s *Service) Get(ctx context.Context, id int64) (*View, error) {
	q, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.view(q), nil
}

// ListByPatient returns a patient's quotes, soft-deleted ones excluded
// unless asked for.
func (s *Service) ListByPatient(ctx context.Context, patientID int64, includeDeleted bool) ([]Quote, error) {
	return s.repo.ListByPatient(ctx, patientID, includeDeleted)
}

// UpdateHeader edits comment, doctor and the expected treatment count.
// Lowering the expected count pulls out-of-range item sessions back into
// range rather than failing.
func (s *Service) UpdateHeader(ctx context.Context, id int64, req UpdateQuoteRequest) (*View, error) {
	q, err := s.mutateEditable(ctx, id, func(q *Quote) error {
		if req.DoctorName != nil {
			q.DoctorName = *req.DoctorName
		}
		if req.Comment != nil {
			q.Comment = *req.Comment
		}
		if req.ExpectedTreatments != nil {
			q.ExpectedTreatments = clampExpected(*req.ExpectedTreatments)
			for i := range q.Items {
				if q.Items[i].Session() > q.ExpectedTreatments {
					q.Items[i].TreatmentSession = q.ExpectedTreatments
				}
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.view(q), nil
}

// SetGlobalDiscount stores the quote-level discount, clamped against the
// current post-line-discount subtotal.
func (s *Service) SetGlobalDiscount(ctx context.Context, id int64, d Discount) (*View, error) {
	q, err := s.mutateEditable(ctx, id, func(q *Quote) error {
		t := QuoteTotals(q)
		q.GlobalDiscount = ClampDiscount(d, t.Subtotal-t.LineDiscounts)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.view(q), nil
}

// AddItem adds a treatment line. Visual quotes place by tooth click (or
// explicit full-mouth selection); itemized quotes append a plain line with a
// quantity.
func (s *Service) AddItem(ctx context.Context, id int64, req AddItemRequest) (*View, error) {
	item, err := s.catalog.Get(ctx, req.CatalogItemID)
	if err != nil {
		return nil, err
	}

	q, err := s.mutateEditable(ctx, id, func(q *Quote) error {
		switch {
		case req.Tooth != nil:
			// A tooth click always runs the placement rules, so clicking a
			// tooth with a full-mouth item is rejected there instead of
			// silently turning into a full-mouth line.
			state, err := s.derivedState(ctx, q)
			if err != nil {
				return err
			}
			var choice *ToothChoice
			if len(req.Surfaces) > 0 || req.Material != "" {
				choice = &ToothChoice{Surfaces: req.Surfaces, Material: req.Material}
			}
			line, err := PlaceTooth(q, *item, *req.Tooth, choice, state)
			if err != nil {
				return err
			}
			line.TreatmentSession = s.clampSession(q, req.Session)
		case item.Kind == catalog.KindFullMouth:
			line := AddFullMouth(q, *item)
			line.TreatmentSession = s.clampSession(q, req.Session)
		case q.Kind == KindVisual:
			return &PlacementError{Reason: ReasonChoiceRequired, Detail: "tooth number required for " + item.Name}
		default:
			line := newLine(*item, "", "")
			if req.Qty > 1 {
				line.Qty = int64(req.Qty)
			}
			line.TreatmentSession = s.clampSession(q, req.Session)
			q.Items = append(q.Items, line)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.record(ctx, "quote.item.add", id, map[string]any{"catalog_item_id": req.CatalogItemID})
	return s.view(q), nil
}

// UpdateItem edits quantity, discount, session or surface choice of a line.
// Malformed values are clamped, not rejected, so the editor stays usable
// while the operator is typing.
func (s *Service) UpdateItem(ctx context.Context, id int64, lineID string, req UpdateItemRequest) (*View, error) {
	q, err := s.mutateEditable(ctx, id, func(q *Quote) error {
		line := q.ItemByLineID(lineID)
		if line == nil {
			return ErrLineNotFound
		}
		if req.Qty != nil {
			line.Qty = int64(*req.Qty)
			if line.Qty < 1 {
				line.Qty = 1
			}
		}
		if req.Discount != nil {
			line.Discount = ClampDiscount(*req.Discount, LineGross(*line))
		}
		if req.Session != nil {
			line.TreatmentSession = s.clampSession(q, *req.Session)
		}
		if len(req.Surfaces) > 0 || req.Material != "" {
			item, err := s.catalog.Get(ctx, line.CatalogItemID)
			if err != nil {
				return err
			}
			layers, err := item.LayerSpec.Resolve(req.Surfaces, req.Material)
			if err != nil {
				return &PlacementError{Reason: ReasonChoiceInvalid, Detail: err.Error()}
			}
			line.SelectedSurfaces = append([]string(nil), req.Surfaces...)
			line.SelectedMaterial = req.Material
			line.ResolvedLayers = layers
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.view(q), nil
}

// RemoveItem removes a whole line, or a single tooth from a capped arch line
// when tooth is given.
func (s *Service) RemoveItem(ctx context.Context, id int64, lineID string, tooth *int) (*View, error) {
	q, err := s.mutateEditable(ctx, id, func(q *Quote) error {
		if tooth != nil {
			if !RemoveTooth(q, lineID, *tooth) {
				return ErrLineNotFound
			}
			return nil
		}
		if !RemoveLine(q, lineID) {
			return ErrLineNotFound
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.record(ctx, "quote.item.remove", id, map[string]any{"line_id": lineID})
	return s.view(q), nil
}

// RemoveLastFullMouth drops the most recently added full-mouth line of the
// catalog item.
func (s *Service) RemoveLastFullMouth(ctx context.Context, id, catalogItemID int64) (*View, error) {
	q, err := s.mutateEditable(ctx, id, func(q *Quote) error {
		if !RemoveLastFullMouth(q, catalogItemID) {
			return ErrLineNotFound
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.view(q), nil
}

// ApplyTransition runs a status change through the transition table. An
// inapplicable action rolls the mutation back and surfaces
// ErrInvalidTransition.
func (s *Service) ApplyTransition(ctx context.Context, id int64, action Action, doctorName string) (*View, error) {
	q, err := s.repo.Mutate(ctx, id, func(q *Quote) error {
		if !Transition(q, action, doctorName, s.now()) {
			return ErrInvalidTransition
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.record(ctx, "quote.transition", id, map[string]any{"action": string(action), "status": string(q.Status)})
	return s.view(q), nil
}

// Delete soft-deletes the quote when its status allows it and bumps the
// clinic-wide deleted counter.
func (s *Service) Delete(ctx context.Context, id int64, doctorName string) error {
	_, err := s.repo.Mutate(ctx, id, func(q *Quote) error {
		if !SoftDelete(q, doctorName, s.now()) {
			return ErrNotDeletable
		}
		return nil
	})
	if err != nil {
		return err
	}
	s.seq.IncrDeletedQuotes(ctx)
	s.record(ctx, "quote.delete", id, nil)
	return nil
}

// Restore clears the soft-delete flag.
func (s *Service) Restore(ctx context.Context, id int64, doctorName string) (*View, error) {
	q, err := s.repo.Mutate(ctx, id, func(q *Quote) error {
		if !Restore(q, doctorName, s.now()) {
			return ErrNotFound
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.record(ctx, "quote.restore", id, nil)
	return s.view(q), nil
}

// DuplicateQuote copies the quote into a fresh draft under a new identity.
func (s *Service) DuplicateQuote(ctx context.Context, id int64, doctorName string) (*View, error) {
	src, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	dup := Duplicate(src, s.seq.NextQuoteID(ctx, src.PatientID), s.seq.NextQuoteNumber(ctx), doctorName, s.now())
	if err := s.repo.Create(ctx, dup); err != nil {
		return nil, fmt.Errorf("duplicate quote: %w", err)
	}
	s.record(ctx, "quote.duplicate", dup.ID, map[string]any{"source": id})
	return s.view(dup), nil
}

// Merged returns both aggregator projections, derived fresh from the flat
// item list.
func (s *Service) Merged(ctx context.Context, id int64) ([]MergedItem, map[int][]MergedItem, error) {
	q, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	return MergeAll(q.Items), MergeBySession(q.Items), nil
}

// MoveMergedGroup reorders or re-sessions a merged group by rewriting the
// flat item list.
func (s *Service) MoveMergedGroup(ctx context.Context, id int64, req MoveGroupRequest) (*View, error) {
	q, err := s.mutateEditable(ctx, id, func(q *Quote) error {
		if req.ToSession != nil {
			to := s.clampSession(q, *req.ToSession)
			q.Items = DropOnSession(q.Items, req.CatalogItemID, req.FromSession, to)
			return nil
		}
		if req.BeforeCatalogItemID != nil {
			q.Items = MoveInSession(q.Items, req.FromSession, req.CatalogItemID, *req.BeforeCatalogItemID)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.view(q), nil
}

// Odontogram derives the per-tooth visual state for the renderer.
func (s *Service) Odontogram(ctx context.Context, id int64) (odontogram.State, error) {
	q, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.derivedState(ctx, q)
}

// AppendInvoiceEvent records an invoice_created fact on the quote's event
// log. Invoice events may arrive in any quote status.
func (s *Service) AppendInvoiceEvent(ctx context.Context, id int64, inv InvoiceEventPayload) error {
	_, err := s.repo.Mutate(ctx, id, func(q *Quote) error {
		ev := NewEvent(EventInvoiceCreated, inv.DoctorName, s.now())
		ev.InvoiceID = inv.InvoiceID
		ev.InvoiceNumber = inv.InvoiceNumber
		ev.InvoiceAmount = inv.InvoiceAmount
		ev.InvoiceCurrency = inv.InvoiceCurrency
		ev.InvoiceType = inv.InvoiceType
		q.Events = append(q.Events, ev)
		return nil
	})
	return err
}

func (s *Service) mutateEditable(ctx context.Context, id int64, fn func(q *Quote) error) (*Quote, error) {
	return s.repo.Mutate(ctx, id, func(q *Quote) error {
		if !q.Editable() {
			return ErrNotEditable
		}
		return fn(q)
	})
}

func (s *Service) derivedState(ctx context.Context, q *Quote) (odontogram.State, error) {
	var baseline odontogram.State
	if s.baseline != nil {
		var err error
		baseline, err = s.baseline.Baseline(ctx, q.PatientID)
		if err != nil {
			// A missing dental record is not fatal; derive from the quote alone.
			if !errors.Is(err, ErrNotFound) && !errors.Is(err, patients.ErrNotFound) {
				s.logger.Warn("load dental baseline", slog.Int64("patient_id", q.PatientID), slog.Any("error", err))
			}
			baseline = nil
		}
	}
	placements := make([]odontogram.Placement, 0, len(q.Items))
	for _, it := range q.Items {
		placements = append(placements, odontogram.Placement{
			Teeth:    it.Teeth(),
			Area:     it.TreatedArea,
			Layers:   it.ResolvedLayers,
			Surfaces: it.SelectedSurfaces,
			Material: it.SelectedMaterial,
		})
	}
	return odontogram.Compute(placements, baseline), nil
}

func (s *Service) clampSession(q *Quote, session int) int {
	if session < 1 {
		return 1
	}
	if session > q.ExpectedTreatments {
		return q.ExpectedTreatments
	}
	return session
}

func (s *Service) view(q *Quote) *View {
	return &View{Quote: q, Totals: QuoteTotals(q)}
}

func (s *Service) record(ctx context.Context, action string, quoteID int64, meta map[string]any) {
	if s.audit != nil {
		s.audit.Record(ctx, action, quoteID, meta)
	}
}

func clampExpected(n int) int {
	if n < 1 {
		return 1
	}
	return n
}
