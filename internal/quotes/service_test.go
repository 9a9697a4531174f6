package quotes

import (
	"bytes"
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dentora/dentora/internal/catalog"
	"github.com/dentora/dentora/internal/odontogram"
	"github.com/dentora/dentora/internal/patients"
	_ "github.com/dentora/dentora/internal/testing/guard"
)

// ============================================================================
// MOCK REPOSITORY
// ============================================================================

type mockRepository struct {
	quotes map[int64]*Quote

	// Error injection
	createError error
	getError    error
}

func newMockRepository() *mockRepository {
	return &mockRepository{quotes: make(map[int64]*Quote)}
}

func (m *mockRepository) Create(ctx context.Context, q *Quote) error {
	if m.createError != nil {
		return m.createError
	}
	if _, ok := m.quotes[q.ID]; ok {
		return ErrNumberTaken
	}
	m.quotes[q.ID] = q
	return nil
}

func (m *mockRepository) Get(ctx context.Context, id int64) (*Quote, error) {
	if m.getError != nil {
		return nil, m.getError
	}
	q, ok := m.quotes[id]
	if !ok {
		return nil, ErrNotFound
	}
	return q, nil
}

func (m *mockRepository) ListByPatient(ctx context.Context, patientID int64, includeDeleted bool) ([]Quote, error) {
	out := []Quote{}
	for _, q := range m.quotes {
		if q.PatientID != patientID {
			continue
		}
		if q.IsDeleted && !includeDeleted {
			continue
		}
		out = append(out, *q)
	}
	return out, nil
}

func (m *mockRepository) Mutate(ctx context.Context, id int64, fn func(q *Quote) error) (*Quote, error) {
	q, ok := m.quotes[id]
	if !ok {
		return nil, ErrNotFound
	}
	if err := fn(q); err != nil {
		return nil, err
	}
	return q, nil
}

type mockSequencer struct {
	nextID  int64
	nextNum int
	deleted int
}

func (m *mockSequencer) NextQuoteID(ctx context.Context, patientID int64) int64 {
	m.nextID++
	return m.nextID
}

func (m *mockSequencer) NextQuoteNumber(ctx context.Context) string {
	m.nextNum++
	return "AJ-000" + string(rune('0'+m.nextNum))
}

func (m *mockSequencer) IncrDeletedQuotes(ctx context.Context) { m.deleted++ }

type mockCatalog struct {
	items map[int64]*catalog.Item
}

func (m *mockCatalog) Get(ctx context.Context, id int64) (*catalog.Item, error) {
	item, ok := m.items[id]
	if !ok {
		return nil, ErrNotFound
	}
	return item, nil
}

type mockBaseline struct {
	state odontogram.State
}

func (m *mockBaseline) Baseline(ctx context.Context, patientID int64) (odontogram.State, error) {
	if m.state == nil {
		return nil, ErrNotFound
	}
	return m.state, nil
}

// missingBaseline fails the way the patient service does for a patient with
// no dental record.
type missingBaseline struct{}

func (missingBaseline) Baseline(ctx context.Context, patientID int64) (odontogram.State, error) {
	return nil, patients.ErrNotFound
}

func newTestService(repo *mockRepository) (*Service, *mockSequencer) {
	seq := &mockSequencer{}
	cat := &mockCatalog{items: map[int64]*catalog.Item{
		1: {ID: 1, Code: "TOM", Name: "Tömés", Unit: "db", PriceGross: 25000, Currency: "HUF", Kind: catalog.KindTooth, IsActive: true},
		2: {ID: 2, Code: "FOG", Name: "Fogkő-eltávolítás", Unit: "db", PriceGross: 18000, Currency: "HUF", Kind: catalog.KindFullMouth, IsActive: true},
		3: {ID: 3, Code: "SIN", Name: "Fogsín", Unit: "db", PriceGross: 40000, Currency: "HUF", Kind: catalog.KindArch, IsActive: true, LayerSpec: catalog.LayerSpec{Layers: []string{"splint"}}},
	}}
	svc := NewService(repo, seq, cat, &mockBaseline{}, nil, slog.Default())
	svc.now = func() time.Time { return time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC) }
	return svc, seq
}

// ============================================================================
// TESTS
// ============================================================================

func TestCreateQuoteDefaults(t *testing.T) {
	repo := newMockRepository()
	svc, _ := newTestService(repo)

	view, err := svc.Create(context.Background(), CreateQuoteRequest{
		PatientID:  42,
		DoctorName: "Dr. Kovács",
	})
	require.NoError(t, err)

	assert.Equal(t, StatusDraft, view.Quote.Status)
	assert.Equal(t, KindItemized, view.Quote.Kind)
	assert.Equal(t, "HUF", view.Quote.Currency)
	assert.Equal(t, 1, view.Quote.ExpectedTreatments)
	require.Len(t, view.Quote.Events, 1)
	assert.Equal(t, EventCreated, view.Quote.Events[0].Type)
	assert.NotEmpty(t, view.Quote.Number)
	assert.Equal(t, int64(0), view.Totals.Total)
}

func TestAddItemItemized(t *testing.T) {
	repo := newMockRepository()
	svc, _ := newTestService(repo)

	view, err := svc.Create(context.Background(), CreateQuoteRequest{PatientID: 42, DoctorName: "Dr. Kovács"})
	require.NoError(t, err)
	id := view.Quote.ID

	view, err = svc.AddItem(context.Background(), id, AddItemRequest{CatalogItemID: 1, Qty: 3})
	require.NoError(t, err)

	require.Len(t, view.Quote.Items, 1)
	line := view.Quote.Items[0]
	assert.Equal(t, "Tömés", line.Name)
	assert.Equal(t, int64(3), line.Qty)
	assert.Equal(t, int64(25000), line.UnitPriceGross)
	assert.Equal(t, int64(75000), view.Totals.Total)
}

func TestAddItemToothClickOnVisualQuote(t *testing.T) {
	repo := newMockRepository()
	svc, _ := newTestService(repo)

	view, err := svc.Create(context.Background(), CreateQuoteRequest{PatientID: 42, DoctorName: "Dr. Kovács", Kind: KindVisual})
	require.NoError(t, err)
	id := view.Quote.ID

	tooth := 16
	view, err = svc.AddItem(context.Background(), id, AddItemRequest{CatalogItemID: 1, Tooth: &tooth})
	require.NoError(t, err)
	require.Len(t, view.Quote.Items, 1)
	assert.Equal(t, "16", view.Quote.Items[0].ToothNum)

	// Clicking the same tooth again for the same item is rejected.
	_, err = svc.AddItem(context.Background(), id, AddItemRequest{CatalogItemID: 1, Tooth: &tooth})
	var perr *PlacementError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, ReasonDuplicate, perr.Reason)
}

func TestAddItemVisualWithoutToothFails(t *testing.T) {
	repo := newMockRepository()
	svc, _ := newTestService(repo)

	view, err := svc.Create(context.Background(), CreateQuoteRequest{PatientID: 42, DoctorName: "Dr. Kovács", Kind: KindVisual})
	require.NoError(t, err)

	_, err = svc.AddItem(context.Background(), view.Quote.ID, AddItemRequest{CatalogItemID: 1})
	var perr *PlacementError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, ReasonChoiceRequired, perr.Reason)
}

func TestServiceFullMouthAddAndRemoveLast(t *testing.T) {
	repo := newMockRepository()
	svc, _ := newTestService(repo)

	view, err := svc.Create(context.Background(), CreateQuoteRequest{PatientID: 42, DoctorName: "Dr. Kovács", Kind: KindVisual})
	require.NoError(t, err)
	id := view.Quote.ID

	view, err = svc.AddItem(context.Background(), id, AddItemRequest{CatalogItemID: 2})
	require.NoError(t, err)
	view, err = svc.AddItem(context.Background(), id, AddItemRequest{CatalogItemID: 2})
	require.NoError(t, err)
	assert.Len(t, view.Quote.Items, 2)

	view, err = svc.RemoveLastFullMouth(context.Background(), id, 2)
	require.NoError(t, err)
	assert.Len(t, view.Quote.Items, 1)
}

func TestAddItemFullMouthByToothClickRejected(t *testing.T) {
	repo := newMockRepository()
	svc, _ := newTestService(repo)

	view, err := svc.Create(context.Background(), CreateQuoteRequest{PatientID: 42, DoctorName: "Dr. Kovács", Kind: KindVisual})
	require.NoError(t, err)
	id := view.Quote.ID

	tooth := 16
	_, err = svc.AddItem(context.Background(), id, AddItemRequest{CatalogItemID: 2, Tooth: &tooth})
	var perr *PlacementError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, ReasonFullMouthByClick, perr.Reason)

	view, err = svc.Get(context.Background(), id)
	require.NoError(t, err)
	assert.Empty(t, view.Quote.Items)
}

func TestAddItemMissingPatientBaselineIsQuiet(t *testing.T) {
	repo := newMockRepository()
	var logs bytes.Buffer
	cat := &mockCatalog{items: map[int64]*catalog.Item{
		1: {ID: 1, Code: "TOM", Name: "Tömés", Unit: "db", PriceGross: 25000, Currency: "HUF", Kind: catalog.KindTooth, IsActive: true},
	}}
	svc := NewService(repo, &mockSequencer{}, cat, missingBaseline{}, nil, slog.New(slog.NewTextHandler(&logs, nil)))

	view, err := svc.Create(context.Background(), CreateQuoteRequest{PatientID: 7, DoctorName: "Dr. Kovács", Kind: KindVisual})
	require.NoError(t, err)

	tooth := 16
	view, err = svc.AddItem(context.Background(), view.Quote.ID, AddItemRequest{CatalogItemID: 1, Tooth: &tooth})
	require.NoError(t, err)
	require.Len(t, view.Quote.Items, 1)
	assert.NotContains(t, logs.String(), "load dental baseline")
}

func TestAddItemArchCarriesBaseLayers(t *testing.T) {
	repo := newMockRepository()
	svc, _ := newTestService(repo)

	view, err := svc.Create(context.Background(), CreateQuoteRequest{PatientID: 42, DoctorName: "Dr. Kovács", Kind: KindVisual})
	require.NoError(t, err)
	id := view.Quote.ID

	tooth := 16
	view, err = svc.AddItem(context.Background(), id, AddItemRequest{CatalogItemID: 3, Tooth: &tooth})
	require.NoError(t, err)

	require.Len(t, view.Quote.Items, 1)
	assert.Equal(t, []string{"splint"}, view.Quote.Items[0].ResolvedLayers)
}

func TestUpdateItemClampsInsteadOfFailing(t *testing.T) {
	repo := newMockRepository()
	svc, _ := newTestService(repo)

	view, err := svc.Create(context.Background(), CreateQuoteRequest{PatientID: 42, DoctorName: "Dr. Kovács", ExpectedTreatments: 3})
	require.NoError(t, err)
	id := view.Quote.ID

	view, err = svc.AddItem(context.Background(), id, AddItemRequest{CatalogItemID: 1})
	require.NoError(t, err)
	lineID := view.Quote.Items[0].LineID

	zero := 0
	session := 99
	view, err = svc.UpdateItem(context.Background(), id, lineID, UpdateItemRequest{
		Qty:      &zero,
		Discount: &Discount{Type: DiscountPercent, Value: 150},
		Session:  &session,
	})
	require.NoError(t, err)

	line := view.Quote.ItemByLineID(lineID)
	assert.Equal(t, int64(1), line.Qty)
	assert.Equal(t, int64(100), line.Discount.Value)
	assert.Equal(t, 3, line.TreatmentSession)
}

func TestLoweringExpectedTreatmentsPullsSessionsBack(t *testing.T) {
	repo := newMockRepository()
	svc, _ := newTestService(repo)

	view, err := svc.Create(context.Background(), CreateQuoteRequest{PatientID: 42, DoctorName: "Dr. Kovács", ExpectedTreatments: 5})
	require.NoError(t, err)
	id := view.Quote.ID

	view, err = svc.AddItem(context.Background(), id, AddItemRequest{CatalogItemID: 1, Session: 5})
	require.NoError(t, err)
	require.Equal(t, 5, view.Quote.Items[0].TreatmentSession)

	two := 2
	view, err = svc.UpdateHeader(context.Background(), id, UpdateQuoteRequest{ExpectedTreatments: &two})
	require.NoError(t, err)
	assert.Equal(t, 2, view.Quote.Items[0].TreatmentSession)
}

func TestSetGlobalDiscountClamped(t *testing.T) {
	repo := newMockRepository()
	svc, _ := newTestService(repo)

	view, err := svc.Create(context.Background(), CreateQuoteRequest{PatientID: 42, DoctorName: "Dr. Kovács"})
	require.NoError(t, err)
	id := view.Quote.ID

	_, err = svc.AddItem(context.Background(), id, AddItemRequest{CatalogItemID: 1})
	require.NoError(t, err)

	// Fixed discount above the subtotal is clamped down to it.
	view, err = svc.SetGlobalDiscount(context.Background(), id, Discount{Type: DiscountFixed, Value: 999999})
	require.NoError(t, err)
	assert.Equal(t, int64(25000), view.Quote.GlobalDiscount.Value)
	assert.Equal(t, int64(0), view.Totals.Total)
}

func TestTransitionOnServiceLevel(t *testing.T) {
	repo := newMockRepository()
	svc, _ := newTestService(repo)

	view, err := svc.Create(context.Background(), CreateQuoteRequest{PatientID: 42, DoctorName: "Dr. Kovács"})
	require.NoError(t, err)
	id := view.Quote.ID

	view, err = svc.ApplyTransition(context.Background(), id, ActionClose, "Dr. Kovács")
	require.NoError(t, err)
	assert.Equal(t, StatusClosed, view.Quote.Status)

	// Accepting twice is not applicable; the second call rolls back.
	_, err = svc.ApplyTransition(context.Background(), id, ActionAccept, "Dr. Kovács")
	require.NoError(t, err)
	_, err = svc.ApplyTransition(context.Background(), id, ActionAccept, "Dr. Kovács")
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestEditingNonDraftFails(t *testing.T) {
	repo := newMockRepository()
	svc, _ := newTestService(repo)

	view, err := svc.Create(context.Background(), CreateQuoteRequest{PatientID: 42, DoctorName: "Dr. Kovács"})
	require.NoError(t, err)
	id := view.Quote.ID

	_, err = svc.ApplyTransition(context.Background(), id, ActionClose, "Dr. Kovács")
	require.NoError(t, err)

	_, err = svc.AddItem(context.Background(), id, AddItemRequest{CatalogItemID: 1})
	assert.ErrorIs(t, err, ErrNotEditable)
}

func TestDeleteBumpsCounterAndRestores(t *testing.T) {
	repo := newMockRepository()
	svc, seq := newTestService(repo)

	view, err := svc.Create(context.Background(), CreateQuoteRequest{PatientID: 42, DoctorName: "Dr. Kovács"})
	require.NoError(t, err)
	id := view.Quote.ID

	require.NoError(t, svc.Delete(context.Background(), id, "Dr. Kovács"))
	assert.Equal(t, 1, seq.deleted)

	listed, err := svc.ListByPatient(context.Background(), 42, false)
	require.NoError(t, err)
	assert.Empty(t, listed)

	view, err = svc.Restore(context.Background(), id, "Dr. Kovács")
	require.NoError(t, err)
	assert.False(t, view.Quote.IsDeleted)
	assert.Equal(t, StatusDraft, view.Quote.Status)
}

func TestDeleteStartedQuoteRefused(t *testing.T) {
	repo := newMockRepository()
	svc, seq := newTestService(repo)

	view, err := svc.Create(context.Background(), CreateQuoteRequest{PatientID: 42, DoctorName: "Dr. Kovács"})
	require.NoError(t, err)
	id := view.Quote.ID

	_, err = svc.ApplyTransition(context.Background(), id, ActionClose, "Dr. Kovács")
	require.NoError(t, err)
	_, err = svc.ApplyTransition(context.Background(), id, ActionAccept, "Dr. Kovács")
	require.NoError(t, err)

	err = svc.Delete(context.Background(), id, "Dr. Kovács")
	assert.ErrorIs(t, err, ErrNotDeletable)
	assert.Equal(t, 0, seq.deleted)
}

func TestDuplicateQuoteGetsNewIdentity(t *testing.T) {
	repo := newMockRepository()
	svc, _ := newTestService(repo)

	view, err := svc.Create(context.Background(), CreateQuoteRequest{PatientID: 42, DoctorName: "Dr. Kovács"})
	require.NoError(t, err)
	id := view.Quote.ID
	_, err = svc.AddItem(context.Background(), id, AddItemRequest{CatalogItemID: 1, Qty: 2})
	require.NoError(t, err)

	dup, err := svc.DuplicateQuote(context.Background(), id, "Dr. Nagy")
	require.NoError(t, err)

	assert.NotEqual(t, id, dup.Quote.ID)
	assert.NotEqual(t, view.Quote.Number, dup.Quote.Number)
	assert.Equal(t, StatusDraft, dup.Quote.Status)
	require.Len(t, dup.Quote.Items, 1)
	assert.Equal(t, int64(50000), dup.Totals.Total)
}

func TestMergedProjections(t *testing.T) {
	repo := newMockRepository()
	svc, _ := newTestService(repo)

	view, err := svc.Create(context.Background(), CreateQuoteRequest{PatientID: 42, DoctorName: "Dr. Kovács", Kind: KindVisual, ExpectedTreatments: 2})
	require.NoError(t, err)
	id := view.Quote.ID

	for _, tooth := range []int{16, 26} {
		tooth := tooth
		_, err = svc.AddItem(context.Background(), id, AddItemRequest{CatalogItemID: 1, Tooth: &tooth})
		require.NoError(t, err)
	}

	all, bySession, err := svc.Merged(context.Background(), id)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, int64(2), all[0].TotalQty)
	assert.Len(t, bySession[1], 1)
}

func TestOdontogramDerivedFromItems(t *testing.T) {
	repo := newMockRepository()
	svc, _ := newTestService(repo)

	view, err := svc.Create(context.Background(), CreateQuoteRequest{PatientID: 42, DoctorName: "Dr. Kovács", Kind: KindVisual})
	require.NoError(t, err)
	id := view.Quote.ID

	tooth := 16
	_, err = svc.AddItem(context.Background(), id, AddItemRequest{CatalogItemID: 1, Tooth: &tooth})
	require.NoError(t, err)

	state, err := svc.Odontogram(context.Background(), id)
	require.NoError(t, err)
	require.Contains(t, state, 16)
	assert.Equal(t, odontogram.StatusPlanned, state[16].Status)
}

func TestAppendInvoiceEvent(t *testing.T) {
	repo := newMockRepository()
	svc, _ := newTestService(repo)

	view, err := svc.Create(context.Background(), CreateQuoteRequest{PatientID: 42, DoctorName: "Dr. Kovács"})
	require.NoError(t, err)
	id := view.Quote.ID

	err = svc.AppendInvoiceEvent(context.Background(), id, InvoiceEventPayload{
		InvoiceID:       7,
		InvoiceNumber:   "SZ-0007",
		InvoiceAmount:   25000,
		InvoiceCurrency: "HUF",
		InvoiceType:     "normal",
		DoctorName:      "Dr. Kovács",
	})
	require.NoError(t, err)

	got, err := svc.Get(context.Background(), id)
	require.NoError(t, err)
	last := got.Quote.Events[len(got.Quote.Events)-1]
	assert.Equal(t, EventInvoiceCreated, last.Type)
	assert.Equal(t, "SZ-0007", last.InvoiceNumber)
}
