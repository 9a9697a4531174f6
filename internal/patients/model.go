package patients

import (
	"time"

	"github.com/dentora/dentora/internal/odontogram"
)

// Patient is one person treated by the clinic. The dental record baseline
// captures pre-existing conditions (milk teeth, missing teeth, old work) and
// feeds odontogram derivation for every quote of the patient.
type Patient struct {
	ID        int64            `json:"id" db:"id"`
	Name      string           `json:"name" db:"name"`
	Email     *string          `json:"email,omitempty" db:"email"`
	Phone     *string          `json:"phone,omitempty" db:"phone"`
	BirthDate *time.Time       `json:"birth_date,omitempty" db:"birth_date"`
	Comment   string           `json:"comment,omitempty" db:"comment"`
	Baseline  odontogram.State `json:"baseline,omitempty" db:"-"`
	IsActive  bool             `json:"is_active" db:"is_active"`
	CreatedAt time.Time        `json:"created_at" db:"created_at"`
	UpdatedAt time.Time        `json:"updated_at" db:"updated_at"`
}
