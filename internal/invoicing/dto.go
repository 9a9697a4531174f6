package invoicing

import "time"

type RecordInvoiceRequest struct {
	ID         int64         `json:"id" validate:"gte=0"`
	Number     string        `json:"number" validate:"required,max=50"`
	Status     InvoiceStatus `json:"status" validate:"required,oneof=draft sent storno"`
	Type       InvoiceType   `json:"type" validate:"required,oneof=normal advance final"`
	TotalGross int64         `json:"total_gross" validate:"gte=0"`
	Currency   string        `json:"currency" validate:"omitempty,len=3"`
	IssuedAt   time.Time     `json:"issued_at"`
	DoctorName string        `json:"doctor_name" validate:"max=120"`
}
