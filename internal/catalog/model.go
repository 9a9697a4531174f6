package catalog

import "time"

// PlacementKind determines how an item attaches to the dentition.
type PlacementKind string

const (
	KindTooth     PlacementKind = "tooth"
	KindArch      PlacementKind = "arch"
	KindQuadrant  PlacementKind = "quadrant"
	KindFullMouth PlacementKind = "full_mouth"
)

// Item is one entry of the treatment catalog. Price and currency are copied
// into a quote line at add time; later catalog edits never touch existing
// quotes.
type Item struct {
	ID              int64         `json:"id" db:"id"`
	Code            string        `json:"code" db:"code"`
	Name            string        `json:"name" db:"name"`
	Unit            string        `json:"unit" db:"unit"`
	PriceGross      int64         `json:"price_gross" db:"price_gross"`
	Currency        string        `json:"currency" db:"currency"`
	Kind            PlacementKind `json:"kind" db:"kind"`
	AllowedTeeth    []int         `json:"allowed_teeth,omitempty" db:"allowed_teeth"`
	MilkToothOnly   bool          `json:"milk_tooth_only" db:"milk_tooth_only"`
	MaxTeethPerArch int           `json:"max_teeth_per_arch" db:"max_teeth_per_arch"`
	LayerSpec       LayerSpec     `json:"layer_spec" db:"layer_spec"`
	IsActive        bool          `json:"is_active" db:"is_active"`
	CreatedAt       time.Time     `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time     `json:"updated_at" db:"updated_at"`
}

// ToothAllowed reports whether a restricted item may be applied to the tooth.
// An empty restriction list allows every tooth.
func (i Item) ToothAllowed(tooth int) bool {
	if len(i.AllowedTeeth) == 0 {
		return true
	}
	for _, n := range i.AllowedTeeth {
		if n == tooth {
			return true
		}
	}
	return false
}
