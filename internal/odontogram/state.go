package odontogram

import "strconv"

// ToothStatus is the visual classification of a single tooth.
type ToothStatus string

const (
	StatusHealthy ToothStatus = "healthy"
	StatusMilk    ToothStatus = "milk"
	StatusMissing ToothStatus = "missing"
	StatusTreated ToothStatus = "treated"
	StatusPlanned ToothStatus = "planned"
)

// ToothState holds everything the renderer needs for one tooth.
type ToothState struct {
	Status   ToothStatus `json:"status"`
	Layers   []string    `json:"layers,omitempty"`
	Surfaces []string    `json:"surfaces,omitempty"`
	Material string      `json:"material,omitempty"`
}

// State maps a tooth number to its derived visual state.
type State map[int]ToothState

// IsMilk reports whether the derived state marks the tooth as deciduous.
// Teeth numbered in the deciduous FDI range count as milk teeth even
// without a baseline entry.
func (s State) IsMilk(tooth int) bool {
	if st, ok := s[tooth]; ok && st.Status == StatusMilk {
		return true
	}
	return MilkToothNumber(tooth)
}

// Placement is one treatment line's footprint on the dentition. Exactly one
// of Teeth or Area is set; Area holds an arch, quadrant or "full-mouth".
type Placement struct {
	Teeth    []int
	Area     string
	Layers   []string
	Surfaces []string
	Material string
}

// Compute overlays every placement on top of the baseline snapshot and
// returns the resulting per-tooth state. The baseline is never mutated and
// the result depends only on the inputs.
func Compute(placements []Placement, baseline State) State {
	out := make(State, len(baseline))
	for tooth, st := range baseline {
		out[tooth] = cloneToothState(st)
	}

	for _, p := range placements {
		for _, tooth := range p.footprint() {
			st := out[tooth]
			st = applyPlacement(st, p)
			out[tooth] = st
		}
	}
	return out
}

func (p Placement) footprint() []int {
	if len(p.Teeth) > 0 {
		return p.Teeth
	}
	switch p.Area {
	case string(ArchUpper):
		return ArchTeeth(ArchUpper)
	case string(ArchLower):
		return ArchTeeth(ArchLower)
	case "both", "full-mouth":
		return AllTeeth()
	case QuadrantQ1, QuadrantQ2, QuadrantQ3, QuadrantQ4:
		return QuadrantTeeth(p.Area)
	}
	if n, err := strconv.Atoi(p.Area); err == nil && ValidTooth(n) {
		return []int{n}
	}
	return nil
}

func applyPlacement(st ToothState, p Placement) ToothState {
	// Milk and missing baseline markers survive planned overlays so that
	// placement rules can still read them.
	if st.Status != StatusMilk && st.Status != StatusMissing {
		st.Status = StatusPlanned
	}
	st.Layers = appendUnique(st.Layers, p.Layers...)
	st.Surfaces = appendUnique(st.Surfaces, p.Surfaces...)
	if p.Material != "" {
		st.Material = p.Material
	}
	return st
}

func cloneToothState(st ToothState) ToothState {
	out := st
	out.Layers = append([]string(nil), st.Layers...)
	out.Surfaces = append([]string(nil), st.Surfaces...)
	return out
}

func appendUnique(dst []string, values ...string) []string {
	for _, v := range values {
		seen := false
		for _, existing := range dst {
			if existing == v {
				seen = true
				break
			}
		}
		if !seen {
			dst = append(dst, v)
		}
	}
	return dst
}
