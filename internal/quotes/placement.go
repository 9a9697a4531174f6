package quotes

import (
	"fmt"
	"strconv"

	"github.com/google/uuid"

	"github.com/dentora/dentora/internal/catalog"
	"github.com/dentora/dentora/internal/odontogram"
)

// PlacementReason classifies a rejected placement. Rejections are transient
// user notices, not failures: the quote is left exactly as it was.
type PlacementReason string

const (
	ReasonInvalidTooth      PlacementReason = "invalid_tooth"
	ReasonToothNotAllowed   PlacementReason = "tooth_not_allowed"
	ReasonMilkToothRequired PlacementReason = "milk_tooth_required"
	ReasonFullMouthByClick  PlacementReason = "full_mouth_by_click"
	ReasonDuplicate         PlacementReason = "duplicate"
	ReasonArchCapReached    PlacementReason = "arch_cap_reached"
	ReasonChoiceRequired    PlacementReason = "choice_required"
	ReasonChoiceInvalid     PlacementReason = "choice_invalid"
)

// PlacementError carries the specific rejection reason back to the caller.
type PlacementError struct {
	Reason PlacementReason
	Tooth  int
	Detail string
}

func (e *PlacementError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("placement rejected (%s): %s", e.Reason, e.Detail)
	}
	return fmt.Sprintf("placement rejected (%s): tooth %d", e.Reason, e.Tooth)
}

// ToothChoice is the deferred surface/material selection for items whose
// layer spec demands one.
type ToothChoice struct {
	Surfaces []string
	Material string
}

// MilkToothView is the slice of odontogram state the placement rules need.
type MilkToothView interface {
	IsMilk(tooth int) bool
}

// PlaceTooth applies a tooth click for the given catalog item to the quote,
// following the domain placement rules:
//
//   - restricted items reject teeth outside their allow-list
//   - milk-tooth-only items require the derived state to mark the tooth milk
//   - full-mouth items are never placed by tooth click
//   - arch items collapse to one line per arch, optionally accumulating a
//     capped tooth list at a flat per-arch price
//   - quadrant items collapse to one line per FDI quadrant
//   - items with a surface/material requirement defer until a choice arrives
//   - plain items add one line per click
//
// It returns the line that was created or extended.
func PlaceTooth(q *Quote, item catalog.Item, tooth int, choice *ToothChoice, state MilkToothView) (*QuoteItem, error) {
	if !odontogram.ValidTooth(tooth) {
		return nil, &PlacementError{Reason: ReasonInvalidTooth, Tooth: tooth}
	}
	if !item.ToothAllowed(tooth) {
		return nil, &PlacementError{Reason: ReasonToothNotAllowed, Tooth: tooth, Detail: item.Name + " is restricted to specific teeth"}
	}
	if item.MilkToothOnly && (state == nil || !state.IsMilk(tooth)) {
		return nil, &PlacementError{Reason: ReasonMilkToothRequired, Tooth: tooth}
	}

	switch item.Kind {
	case catalog.KindFullMouth:
		return nil, &PlacementError{Reason: ReasonFullMouthByClick, Tooth: tooth, Detail: item.Name + " must be added from the catalog"}
	case catalog.KindArch:
		return placeArch(q, item, tooth)
	case catalog.KindQuadrant:
		return placeQuadrant(q, item, tooth)
	default:
		return placePerTooth(q, item, tooth, choice)
	}
}

func placeArch(q *Quote, item catalog.Item, tooth int) (*QuoteItem, error) {
	area := string(odontogram.ToothArch(tooth))

	if item.MaxTeethPerArch <= 0 {
		// One line per arch, a second click is a duplicate.
		if findByArea(q, item.ID, area) != nil {
			return nil, &PlacementError{Reason: ReasonDuplicate, Tooth: tooth, Detail: item.Name + " already covers the " + area + " arch"}
		}
		line := newLine(item, "", area)
		q.Items = append(q.Items, line)
		return q.ItemByLineID(line.LineID), nil
	}

	// Capped arch item: the first tooth creates the line, later teeth in the
	// same arch extend its tooth list at the flat per-arch price.
	existing := findByArea(q, item.ID, area)
	if existing == nil {
		line := newLine(item, strconv.Itoa(tooth), area)
		q.Items = append(q.Items, line)
		return q.ItemByLineID(line.LineID), nil
	}
	teeth := existing.Teeth()
	for _, n := range teeth {
		if n == tooth {
			return nil, &PlacementError{Reason: ReasonDuplicate, Tooth: tooth}
		}
	}
	if len(teeth) >= item.MaxTeethPerArch {
		return nil, &PlacementError{
			Reason: ReasonArchCapReached,
			Tooth:  tooth,
			Detail: fmt.Sprintf("%s supports at most %d teeth per arch", item.Name, item.MaxTeethPerArch),
		}
	}
	existing.SetTeeth(append(teeth, tooth))
	return existing, nil
}

func placeQuadrant(q *Quote, item catalog.Item, tooth int) (*QuoteItem, error) {
	area := odontogram.ToothQuadrant(tooth)
	if findByArea(q, item.ID, area) != nil {
		return nil, &PlacementError{Reason: ReasonDuplicate, Tooth: tooth, Detail: item.Name + " already covers " + area}
	}
	line := newLine(item, "", area)
	q.Items = append(q.Items, line)
	return q.ItemByLineID(line.LineID), nil
}

func placePerTooth(q *Quote, item catalog.Item, tooth int, choice *ToothChoice) (*QuoteItem, error) {
	line := newLine(item, strconv.Itoa(tooth), "")

	if item.LayerSpec.RequiresChoice() {
		if choice == nil {
			return nil, &PlacementError{Reason: ReasonChoiceRequired, Tooth: tooth, Detail: item.Name + " needs a surface or material selection"}
		}
		layers, err := item.LayerSpec.Resolve(choice.Surfaces, choice.Material)
		if err != nil {
			return nil, &PlacementError{Reason: ReasonChoiceInvalid, Tooth: tooth, Detail: err.Error()}
		}
		line.SelectedSurfaces = append([]string(nil), choice.Surfaces...)
		line.SelectedMaterial = choice.Material
		line.ResolvedLayers = layers
	}

	q.Items = append(q.Items, line)
	return q.ItemByLineID(line.LineID), nil
}

// AddFullMouth appends one full-mouth line; quantity of such a treatment is
// the number of lines, so every add is a distinct line.
func AddFullMouth(q *Quote, item catalog.Item) *QuoteItem {
	line := newLine(item, "", "full-mouth")
	q.Items = append(q.Items, line)
	return q.ItemByLineID(line.LineID)
}

// RemoveLastFullMouth removes the most recently added full-mouth line of the
// catalog item. It reports whether a line was removed.
func RemoveLastFullMouth(q *Quote, catalogItemID int64) bool {
	for i := len(q.Items) - 1; i >= 0; i-- {
		it := q.Items[i]
		if it.CatalogItemID == catalogItemID && it.TreatedArea == "full-mouth" {
			q.Items = append(q.Items[:i], q.Items[i+1:]...)
			return true
		}
	}
	return false
}

// RemoveTooth takes one tooth out of a capped arch line's tooth list; the
// line itself goes once its last tooth is removed. For single-tooth lines it
// removes the line. It reports whether anything changed.
func RemoveTooth(q *Quote, lineID string, tooth int) bool {
	for i := range q.Items {
		if q.Items[i].LineID != lineID {
			continue
		}
		teeth := q.Items[i].Teeth()
		remaining := teeth[:0]
		for _, n := range teeth {
			if n != tooth {
				remaining = append(remaining, n)
			}
		}
		if len(remaining) == len(teeth) {
			return false
		}
		if len(remaining) == 0 {
			q.Items = append(q.Items[:i], q.Items[i+1:]...)
			return true
		}
		q.Items[i].SetTeeth(remaining)
		return true
	}
	return false
}

// RemoveLine removes a whole line permanently; line ids are never reused.
func RemoveLine(q *Quote, lineID string) bool {
	for i := range q.Items {
		if q.Items[i].LineID == lineID {
			q.Items = append(q.Items[:i], q.Items[i+1:]...)
			return true
		}
	}
	return false
}

func findByArea(q *Quote, catalogItemID int64, area string) *QuoteItem {
	for i := range q.Items {
		if q.Items[i].CatalogItemID == catalogItemID && q.Items[i].TreatedArea == area {
			return &q.Items[i]
		}
	}
	return nil
}

// newLine snapshots the catalog item into a fresh line. The unconditional
// layers of the item's spec are resolved here; choice-dependent layers are
// filled in by the caller once the operator picked.
func newLine(item catalog.Item, toothNum, area string) QuoteItem {
	return QuoteItem{
		LineID:           uuid.NewString(),
		CatalogItemID:    item.ID,
		Name:             item.Name,
		Unit:             item.Unit,
		UnitPriceGross:   item.PriceGross,
		Currency:         item.Currency,
		Qty:              1,
		ToothNum:         toothNum,
		TreatedArea:      area,
		ResolvedLayers:   append([]string(nil), item.LayerSpec.Layers...),
		TreatmentSession: 1,
	}
}
