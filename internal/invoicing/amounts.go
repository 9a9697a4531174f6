package invoicing

import "github.com/dentora/dentora/internal/quotes"

// InvoicedAmount folds the non-storno invoice records of a quote.
func InvoicedAmount(invoices []Invoice) int64 {
	var sum int64
	for _, inv := range invoices {
		if inv.Status == StatusStorno {
			continue
		}
		sum += inv.TotalGross
	}
	return sum
}

// RemainingAmount is the part of the quote total not yet invoiced, floored
// at zero.
func RemainingAmount(total, invoiced int64) int64 {
	remaining := total - invoiced
	if remaining < 0 {
		return 0
	}
	return remaining
}

// ShouldAutoComplete signals that a started quote is fully invoiced through
// non-advance invoices and the caller should drive it to completed via the
// state machine. The transition itself is never performed here.
func ShouldAutoComplete(status quotes.Status, total int64, invoices []Invoice) bool {
	if status != quotes.StatusStarted || total <= 0 {
		return false
	}
	var covered int64
	for _, inv := range invoices {
		if inv.Status == StatusStorno || inv.Type == TypeAdvance {
			continue
		}
		covered += inv.TotalGross
	}
	return covered >= total
}

// InvoicedAsOfEvent reconstructs the invoiced amount after the first n
// entries of the quote's event log. The fold only ever reads a prefix;
// historical events are immutable.
func InvoicedAsOfEvent(events []quotes.QuoteEvent, n int) int64 {
	if n > len(events) {
		n = len(events)
	}
	var sum int64
	for _, ev := range events[:n] {
		if ev.Type == quotes.EventInvoiceCreated {
			sum += ev.InvoiceAmount
		}
	}
	return sum
}
