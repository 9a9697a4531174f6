package quotes

type CreateQuoteRequest struct {
	PatientID          int64  `json:"patient_id" validate:"required,gt=0"`
	DoctorName         string `json:"doctor_name" validate:"required,max=120"`
	Comment            string `json:"comment" validate:"max=2000"`
	Kind               Kind   `json:"kind" validate:"omitempty,oneof=itemized visual"`
	Currency           string `json:"currency" validate:"omitempty,len=3"`
	ExpectedTreatments int    `json:"expected_treatments" validate:"gte=0,lte=50"`
}

type UpdateQuoteRequest struct {
	DoctorName         *string `json:"doctor_name,omitempty" validate:"omitempty,max=120"`
	Comment            *string `json:"comment,omitempty" validate:"omitempty,max=2000"`
	ExpectedTreatments *int    `json:"expected_treatments,omitempty" validate:"omitempty,gte=1,lte=50"`
}

type AddItemRequest struct {
	CatalogItemID int64    `json:"catalog_item_id" validate:"required,gt=0"`
	Tooth         *int     `json:"tooth,omitempty" validate:"omitempty,gte=11,lte=85"`
	Surfaces      []string `json:"surfaces,omitempty" validate:"omitempty,max=6,dive,len=1"`
	Material      string   `json:"material,omitempty" validate:"omitempty,max=40"`
	Qty           int      `json:"qty" validate:"gte=0,lte=1000"`
	Session       int      `json:"session" validate:"gte=0,lte=50"`
}

type UpdateItemRequest struct {
	Qty      *int      `json:"qty,omitempty" validate:"omitempty,gte=0,lte=1000"`
	Discount *Discount `json:"discount,omitempty"`
	Session  *int      `json:"session,omitempty" validate:"omitempty,gte=0,lte=50"`
	Surfaces []string  `json:"surfaces,omitempty" validate:"omitempty,max=6,dive,len=1"`
	Material string    `json:"material,omitempty" validate:"omitempty,max=40"`
}

type SetDiscountRequest struct {
	Type  DiscountType `json:"type" validate:"required,oneof=percent fixed"`
	Value int64        `json:"value" validate:"gte=0"`
}

type TransitionRequest struct {
	Action     Action `json:"action" validate:"required,oneof=close reopen accept reject complete revoke_acceptance revoke_rejection revoke_completion"`
	DoctorName string `json:"doctor_name" validate:"required,max=120"`
}

type MoveGroupRequest struct {
	CatalogItemID       int64  `json:"catalog_item_id" validate:"required,gt=0"`
	FromSession         int    `json:"from_session" validate:"required,gte=1,lte=50"`
	ToSession           *int   `json:"to_session,omitempty" validate:"omitempty,gte=1,lte=50"`
	BeforeCatalogItemID *int64 `json:"before_catalog_item_id,omitempty" validate:"omitempty,gt=0"`
}

// InvoiceEventPayload carries the invoice fields recorded on the quote's
// event log when a new invoice lands.
type InvoiceEventPayload struct {
	InvoiceID       int64
	InvoiceNumber   string
	InvoiceAmount   int64
	InvoiceCurrency string
	InvoiceType     string
	DoctorName      string
}
