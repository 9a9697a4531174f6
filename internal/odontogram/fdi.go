// Package odontogram derives per-tooth visual state from treatment placements.
package odontogram

// Arch identifies the upper or lower half of the dentition.
type Arch string

const (
	ArchUpper Arch = "upper"
	ArchLower Arch = "lower"
)

// Quadrant identifiers follow the FDI numbering convention.
const (
	QuadrantQ1 = "Q1"
	QuadrantQ2 = "Q2"
	QuadrantQ3 = "Q3"
	QuadrantQ4 = "Q4"
)

// ValidTooth reports whether n is a valid FDI tooth number, permanent or deciduous.
func ValidTooth(n int) bool {
	q := n / 10
	pos := n % 10
	switch {
	case q >= 1 && q <= 4:
		return pos >= 1 && pos <= 8
	case q >= 5 && q <= 8:
		return pos >= 1 && pos <= 5
	default:
		return false
	}
}

// MilkToothNumber reports whether n lies in the deciduous FDI range (51-85).
func MilkToothNumber(n int) bool {
	q := n / 10
	pos := n % 10
	return q >= 5 && q <= 8 && pos >= 1 && pos <= 5
}

// ToothArch returns the arch a tooth number belongs to.
func ToothArch(n int) Arch {
	q := n / 10
	if q == 1 || q == 2 || q == 5 || q == 6 {
		return ArchUpper
	}
	return ArchLower
}

// ToothQuadrant maps a tooth number to its quadrant identifier. Deciduous
// quadrants (5-8) fold onto the corresponding permanent quadrant.
func ToothQuadrant(n int) string {
	q := n / 10
	if q > 4 {
		q -= 4
	}
	switch q {
	case 1:
		return QuadrantQ1
	case 2:
		return QuadrantQ2
	case 3:
		return QuadrantQ3
	default:
		return QuadrantQ4
	}
}

// ArchTeeth lists the permanent tooth numbers of an arch in display order.
func ArchTeeth(a Arch) []int {
	var teeth []int
	if a == ArchUpper {
		for n := 18; n >= 11; n-- {
			teeth = append(teeth, n)
		}
		for n := 21; n <= 28; n++ {
			teeth = append(teeth, n)
		}
		return teeth
	}
	for n := 48; n >= 41; n-- {
		teeth = append(teeth, n)
	}
	for n := 31; n <= 38; n++ {
		teeth = append(teeth, n)
	}
	return teeth
}

// QuadrantTeeth lists the permanent tooth numbers of a quadrant.
func QuadrantTeeth(quadrant string) []int {
	var base int
	switch quadrant {
	case QuadrantQ1:
		base = 10
	case QuadrantQ2:
		base = 20
	case QuadrantQ3:
		base = 30
	case QuadrantQ4:
		base = 40
	default:
		return nil
	}
	teeth := make([]int, 0, 8)
	for pos := 1; pos <= 8; pos++ {
		teeth = append(teeth, base+pos)
	}
	return teeth
}

// AllTeeth lists every permanent tooth number, upper arch first.
func AllTeeth() []int {
	return append(ArchTeeth(ArchUpper), ArchTeeth(ArchLower)...)
}
