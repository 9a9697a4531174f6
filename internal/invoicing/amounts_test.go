package invoicing

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dentora/dentora/internal/quotes"
)

func TestInvoicedAmountSkipsStorno(t *testing.T) {
	invoices := []Invoice{
		{TotalGross: 10000, Status: StatusSent, Type: TypeAdvance},
		{TotalGross: 5000, Status: StatusStorno, Type: TypeNormal},
		{TotalGross: 7000, Status: StatusDraft, Type: TypeNormal},
	}
	assert.Equal(t, int64(17000), InvoicedAmount(invoices))
}

func TestRemainingAmountFloorsAtZero(t *testing.T) {
	assert.Equal(t, int64(3000), RemainingAmount(20000, 17000))
	assert.Equal(t, int64(0), RemainingAmount(20000, 25000))
}

func TestShouldAutoComplete(t *testing.T) {
	invoices := []Invoice{
		{TotalGross: 15000, Status: StatusSent, Type: TypeNormal},
		{TotalGross: 5000, Status: StatusSent, Type: TypeFinal},
	}
	assert.True(t, ShouldAutoComplete(quotes.StatusStarted, 20000, invoices))
	assert.False(t, ShouldAutoComplete(quotes.StatusDraft, 20000, invoices))
	assert.False(t, ShouldAutoComplete(quotes.StatusStarted, 25000, invoices))

	// Advance invoices never trigger completion.
	advances := []Invoice{{TotalGross: 20000, Status: StatusSent, Type: TypeAdvance}}
	assert.False(t, ShouldAutoComplete(quotes.StatusStarted, 20000, advances))

	// Storno'd coverage does not count.
	storno := []Invoice{{TotalGross: 20000, Status: StatusStorno, Type: TypeNormal}}
	assert.False(t, ShouldAutoComplete(quotes.StatusStarted, 20000, storno))
}

func TestInvoicedAsOfEvent(t *testing.T) {
	events := []quotes.QuoteEvent{
		{Type: quotes.EventCreated},
		{Type: quotes.EventInvoiceCreated, InvoiceAmount: 8000},
		{Type: quotes.EventClosed},
		{Type: quotes.EventInvoiceCreated, InvoiceAmount: 4000},
	}
	assert.Equal(t, int64(0), InvoicedAsOfEvent(events, 1))
	assert.Equal(t, int64(8000), InvoicedAsOfEvent(events, 2))
	assert.Equal(t, int64(8000), InvoicedAsOfEvent(events, 3))
	assert.Equal(t, int64(12000), InvoicedAsOfEvent(events, 4))
	assert.Equal(t, int64(12000), InvoicedAsOfEvent(events, 99))
}
