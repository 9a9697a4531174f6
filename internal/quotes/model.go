package quotes

import (
	"strconv"
	"strings"
	"time"
)

// Status is the lifecycle position of a quote.
type Status string

const (
	StatusDraft     Status = "draft"
	StatusClosed    Status = "closed"
	StatusStarted   Status = "started"
	StatusRejected  Status = "rejected"
	StatusCompleted Status = "completed"
)

// Kind distinguishes itemized quotes from tooth-level ("visual") ones.
type Kind string

const (
	KindItemized Kind = "itemized"
	KindVisual   Kind = "visual"
)

// DiscountType selects between percentage and fixed-amount discounts.
type DiscountType string

const (
	DiscountPercent DiscountType = "percent"
	DiscountFixed   DiscountType = "fixed"
)

// Discount is a percent (whole percents, 0-100) or fixed amount (minor
// currency units) reduction. The zero value means no discount.
type Discount struct {
	Type  DiscountType `json:"type,omitempty"`
	Value int64        `json:"value,omitempty"`
}

// Quote is one treatment proposal for one patient. Items, status and events
// are the only sources of truth; totals, merged views and odontogram state
// are derived on every read.
type Quote struct {
	ID                 int64        `json:"id" db:"id"`
	Number             string       `json:"number" db:"number"`
	PatientID          int64        `json:"patient_id" db:"patient_id"`
	DoctorName         string       `json:"doctor_name" db:"doctor_name"`
	Comment            string       `json:"comment,omitempty" db:"comment"`
	Kind               Kind         `json:"kind" db:"kind"`
	Status             Status       `json:"status" db:"status"`
	IsDeleted          bool         `json:"is_deleted" db:"is_deleted"`
	Currency           string       `json:"currency" db:"currency"`
	GlobalDiscount     Discount     `json:"global_discount" db:"-"`
	ExpectedTreatments int          `json:"expected_treatments" db:"expected_treatments"`
	Items              []QuoteItem  `json:"items" db:"-"`
	Events             []QuoteEvent `json:"events" db:"-"`
	LastStatusChangeAt time.Time    `json:"last_status_change_at" db:"last_status_change_at"`
	CreatedAt          time.Time    `json:"created_at" db:"created_at"`
	UpdatedAt          time.Time    `json:"updated_at" db:"updated_at"`
}

// Editable reports whether items, discounts, comments, doctor and the
// expected treatment count may still be changed.
func (q *Quote) Editable() bool {
	return q.Status == StatusDraft && !q.IsDeleted
}

// Deletable reports whether the quote may be soft-deleted. In-progress and
// finished treatments must never disappear.
func (q *Quote) Deletable() bool {
	switch q.Status {
	case StatusDraft, StatusClosed, StatusRejected:
		return true
	default:
		return false
	}
}

// ItemByLineID returns the item with the given line id, or nil.
func (q *Quote) ItemByLineID(lineID string) *QuoteItem {
	for i := range q.Items {
		if q.Items[i].LineID == lineID {
			return &q.Items[i]
		}
	}
	return nil
}

// QuoteItem is one treatment line. Name, unit, price and currency are
// snapshots taken from the catalog when the line was added.
type QuoteItem struct {
	LineID           string   `json:"line_id" db:"line_id"`
	CatalogItemID    int64    `json:"catalog_item_id" db:"catalog_item_id"`
	Name             string   `json:"name" db:"name"`
	Unit             string   `json:"unit" db:"unit"`
	UnitPriceGross   int64    `json:"unit_price_gross" db:"unit_price_gross"`
	Currency         string   `json:"currency" db:"currency"`
	Qty              int64    `json:"qty" db:"qty"`
	Discount         Discount `json:"discount" db:"-"`
	ToothNum         string   `json:"tooth_num,omitempty" db:"tooth_num"`
	TreatedArea      string   `json:"treated_area,omitempty" db:"treated_area"`
	SelectedSurfaces []string `json:"selected_surfaces,omitempty" db:"selected_surfaces"`
	SelectedMaterial string   `json:"selected_material,omitempty" db:"selected_material"`
	ResolvedLayers   []string `json:"resolved_layers,omitempty" db:"resolved_layers"`
	TreatmentSession int      `json:"treatment_session" db:"treatment_session"`
}

// Teeth parses the comma-separated tooth list of the line.
func (it QuoteItem) Teeth() []int {
	if it.ToothNum == "" {
		return nil
	}
	parts := strings.Split(it.ToothNum, ",")
	teeth := make([]int, 0, len(parts))
	for _, p := range parts {
		if n, err := strconv.Atoi(strings.TrimSpace(p)); err == nil {
			teeth = append(teeth, n)
		}
	}
	return teeth
}

// SetTeeth stores the tooth list back in its comma-separated form.
func (it *QuoteItem) SetTeeth(teeth []int) {
	parts := make([]string, len(teeth))
	for i, n := range teeth {
		parts[i] = strconv.Itoa(n)
	}
	it.ToothNum = strings.Join(parts, ",")
}

// Session returns the treatment session, defaulting to 1 for legacy lines
// stored without one.
func (it QuoteItem) Session() int {
	if it.TreatmentSession < 1 {
		return 1
	}
	return it.TreatmentSession
}

// EventType classifies entries of the quote's append-only audit log.
type EventType string

const (
	EventCreated           EventType = "created"
	EventClosed            EventType = "closed"
	EventReopened          EventType = "reopened"
	EventAccepted          EventType = "accepted"
	EventRejected          EventType = "rejected"
	EventAcceptanceRevoked EventType = "acceptance_revoked"
	EventRejectionRevoked  EventType = "rejection_revoked"
	EventCompleted         EventType = "completed"
	EventCompletionRevoked EventType = "completion_revoked"
	EventDeleted           EventType = "deleted"
	EventRestored          EventType = "restored"
	EventInvoiceCreated    EventType = "invoice_created"
)

// QuoteEvent is one immutable fact in the quote history. Events are never
// edited, removed or reordered.
type QuoteEvent struct {
	ID         string    `json:"id" db:"id"`
	Type       EventType `json:"type" db:"type"`
	At         time.Time `json:"at" db:"at"`
	DoctorName string    `json:"doctor_name,omitempty" db:"doctor_name"`

	// invoice_created payload
	InvoiceID       int64  `json:"invoice_id,omitempty" db:"invoice_id"`
	InvoiceNumber   string `json:"invoice_number,omitempty" db:"invoice_number"`
	InvoiceAmount   int64  `json:"invoice_amount,omitempty" db:"invoice_amount"`
	InvoiceCurrency string `json:"invoice_currency,omitempty" db:"invoice_currency"`
	InvoiceType     string `json:"invoice_type,omitempty" db:"invoice_type"`
}
