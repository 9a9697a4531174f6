package report

import (
	"strings"
	"testing"
	"time"

	"github.com/dentora/dentora/internal/quotes"
)

func testView() *quotes.View {
	q := &quotes.Quote{
		ID:                 1,
		Number:             "AJ-0001",
		PatientID:          42,
		DoctorName:         "Dr. Kovács",
		Kind:               quotes.KindVisual,
		Status:             quotes.StatusDraft,
		Currency:           "HUF",
		ExpectedTreatments: 2,
		CreatedAt:          time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC),
		Items: []quotes.QuoteItem{
			{LineID: "a", CatalogItemID: 1, Name: "Tömés", Unit: "db", UnitPriceGross: 25000, Currency: "HUF", Qty: 1, ToothNum: "16", TreatedArea: "16", TreatmentSession: 1},
			{LineID: "b", CatalogItemID: 1, Name: "Tömés", Unit: "db", UnitPriceGross: 25000, Currency: "HUF", Qty: 1, ToothNum: "26", TreatedArea: "26", TreatmentSession: 2},
		},
	}
	return &quotes.View{Quote: q, Totals: quotes.QuoteTotals(q)}
}

func TestBuildQuoteHTML(t *testing.T) {
	html, err := BuildQuoteHTML(testView(), "Teszt Elek")
	if err != nil {
		t.Fatalf("build html: %v", err)
	}

	for _, want := range []string{
		"AJ-0001",
		"Teszt Elek",
		"Dr. Kovács",
		"Tömés",
		"1. kezelés",
		"2. kezelés",
		FormatAmount(25000, "HUF"),
		FormatAmount(50000, "HUF"),
	} {
		if !strings.Contains(html, want) {
			t.Fatalf("expected html to contain %q", want)
		}
	}
}

func TestBuildQuoteHTMLSingleSessionHasNoHeadings(t *testing.T) {
	view := testView()
	for i := range view.Quote.Items {
		view.Quote.Items[i].TreatmentSession = 1
	}
	view.Quote.ExpectedTreatments = 1

	html, err := BuildQuoteHTML(view, "Teszt Elek")
	if err != nil {
		t.Fatalf("build html: %v", err)
	}
	if strings.Contains(html, "1. kezelés") {
		t.Fatalf("single-session quote should not render session headings")
	}
}

func TestFormatAmountUsesHungarianGrouping(t *testing.T) {
	got := FormatAmount(1234567, "HUF")
	if !strings.HasSuffix(got, " Ft") {
		t.Fatalf("expected Ft suffix, got %q", got)
	}
	if strings.Contains(got, ",") {
		t.Fatalf("expected space grouping, got %q", got)
	}
	if !strings.Contains(got, "567") || strings.Contains(got, "1234567") {
		t.Fatalf("expected grouped digits, got %q", got)
	}
}
