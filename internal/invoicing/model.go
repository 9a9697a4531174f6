package invoicing

import "time"

// InvoiceStatus mirrors the provider's lifecycle for one invoice document.
type InvoiceStatus string

const (
	StatusDraft  InvoiceStatus = "draft"
	StatusSent   InvoiceStatus = "sent"
	StatusStorno InvoiceStatus = "storno"
)

// InvoiceType distinguishes partial advance invoices from the closing one.
type InvoiceType string

const (
	TypeNormal  InvoiceType = "normal"
	TypeAdvance InvoiceType = "advance"
	TypeFinal   InvoiceType = "final"
)

// Invoice is one invoice record attached to a quote. The provider
// integration that issues these lives outside this system; Dentora only
// stores and folds them.
type Invoice struct {
	ID         int64         `json:"id" db:"id"`
	QuoteID    int64         `json:"quote_id" db:"quote_id"`
	Number     string        `json:"number" db:"number"`
	Status     InvoiceStatus `json:"status" db:"status"`
	Type       InvoiceType   `json:"type" db:"type"`
	TotalGross int64         `json:"total_gross" db:"total_gross"`
	Currency   string        `json:"currency" db:"currency"`
	IssuedAt   time.Time     `json:"issued_at" db:"issued_at"`
}
