package patients

import "time"

type CreatePatientRequest struct {
	Name      string     `json:"name" validate:"required,max=200"`
	Email     *string    `json:"email,omitempty" validate:"omitempty,email"`
	Phone     *string    `json:"phone,omitempty" validate:"omitempty,max=50"`
	BirthDate *time.Time `json:"birth_date,omitempty"`
	Comment   string     `json:"comment" validate:"max=2000"`
}

type UpdatePatientRequest struct {
	Name      *string    `json:"name,omitempty" validate:"omitempty,max=200"`
	Email     *string    `json:"email,omitempty" validate:"omitempty,email"`
	Phone     *string    `json:"phone,omitempty" validate:"omitempty,max=50"`
	BirthDate *time.Time `json:"birth_date,omitempty"`
	Comment   *string    `json:"comment,omitempty" validate:"omitempty,max=2000"`
	IsActive  *bool      `json:"is_active,omitempty"`
}
