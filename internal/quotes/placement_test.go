package quotes

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dentora/dentora/internal/catalog"
	"github.com/dentora/dentora/internal/odontogram"
)

func placementReason(t *testing.T, err error) PlacementReason {
	t.Helper()
	var pe *PlacementError
	require.True(t, errors.As(err, &pe), "expected PlacementError, got %v", err)
	return pe.Reason
}

func toothItem(id int64) catalog.Item {
	return catalog.Item{ID: id, Name: "Tömés", Unit: "db", PriceGross: 12000, Currency: "HUF", Kind: catalog.KindTooth}
}

func TestPlaceToothInvalidNumber(t *testing.T) {
	q := newDraftQuote()
	_, err := PlaceTooth(q, toothItem(1), 99, nil, nil)
	assert.Equal(t, ReasonInvalidTooth, placementReason(t, err))
	assert.Empty(t, q.Items)
}

func TestPlaceToothRestrictedTeeth(t *testing.T) {
	item := toothItem(1)
	item.AllowedTeeth = []int{16, 26}

	q := newDraftQuote()
	_, err := PlaceTooth(q, item, 11, nil, nil)
	assert.Equal(t, ReasonToothNotAllowed, placementReason(t, err))

	line, err := PlaceTooth(q, item, 16, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, "16", line.ToothNum)
}

func TestPlaceToothMilkToothOnly(t *testing.T) {
	item := toothItem(2)
	item.MilkToothOnly = true

	state := odontogram.State{16: {Status: odontogram.StatusMilk}}

	q := newDraftQuote()
	_, err := PlaceTooth(q, item, 11, nil, state)
	assert.Equal(t, ReasonMilkToothRequired, placementReason(t, err))

	_, err = PlaceTooth(q, item, 16, nil, state)
	require.NoError(t, err)

	// Deciduous numbering counts as milk without a baseline marker.
	_, err = PlaceTooth(q, item, 55, nil, state)
	require.NoError(t, err)
}

func TestPlaceToothFullMouthRejected(t *testing.T) {
	item := toothItem(3)
	item.Kind = catalog.KindFullMouth

	q := newDraftQuote()
	_, err := PlaceTooth(q, item, 16, nil, nil)
	assert.Equal(t, ReasonFullMouthByClick, placementReason(t, err))
}

func TestFullMouthAddAndRemoveLast(t *testing.T) {
	item := toothItem(3)
	item.Kind = catalog.KindFullMouth

	q := newDraftQuote()
	first := AddFullMouth(q, item)
	second := AddFullMouth(q, item)
	require.Len(t, q.Items, 2)
	assert.Equal(t, "full-mouth", first.TreatedArea)
	assert.NotEqual(t, first.LineID, second.LineID)

	require.True(t, RemoveLastFullMouth(q, item.ID))
	require.Len(t, q.Items, 1)
	assert.Equal(t, first.LineID, q.Items[0].LineID, "most recent line removed first")

	require.True(t, RemoveLastFullMouth(q, item.ID))
	assert.False(t, RemoveLastFullMouth(q, item.ID))
}

func TestPlaceArchWithoutCapDedupes(t *testing.T) {
	item := toothItem(4)
	item.Kind = catalog.KindArch

	q := newDraftQuote()
	line, err := PlaceTooth(q, item, 16, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, "upper", line.TreatedArea)
	assert.Empty(t, line.ToothNum)

	// Second click on the same arch is a duplicate.
	_, err = PlaceTooth(q, item, 21, nil, nil)
	assert.Equal(t, ReasonDuplicate, placementReason(t, err))

	// Other arch gets its own line.
	line, err = PlaceTooth(q, item, 36, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, "lower", line.TreatedArea)
	assert.Len(t, q.Items, 2)
}

func TestPlaceArchWithCapAccumulatesTeeth(t *testing.T) {
	item := toothItem(5)
	item.Kind = catalog.KindArch
	item.MaxTeethPerArch = 3

	q := newDraftQuote()
	for _, tooth := range []int{11, 12, 13} {
		_, err := PlaceTooth(q, item, tooth, nil, nil)
		require.NoError(t, err)
	}
	require.Len(t, q.Items, 1)
	assert.Equal(t, "11,12,13", q.Items[0].ToothNum)
	// Flat per-arch fee regardless of tooth count.
	assert.Equal(t, int64(1), q.Items[0].Qty)
	assert.Equal(t, item.PriceGross, LineTotal(q.Items[0]))

	_, err := PlaceTooth(q, item, 14, nil, nil)
	assert.Equal(t, ReasonArchCapReached, placementReason(t, err))
	assert.Len(t, q.Items[0].Teeth(), 3)

	_, err = PlaceTooth(q, item, 12, nil, nil)
	assert.Equal(t, ReasonDuplicate, placementReason(t, err))
}

func TestRemoveToothFromCappedArchLine(t *testing.T) {
	item := toothItem(5)
	item.Kind = catalog.KindArch
	item.MaxTeethPerArch = 4

	q := newDraftQuote()
	for _, tooth := range []int{11, 12} {
		_, err := PlaceTooth(q, item, tooth, nil, nil)
		require.NoError(t, err)
	}
	lineID := q.Items[0].LineID

	require.True(t, RemoveTooth(q, lineID, 11))
	assert.Equal(t, "12", q.Items[0].ToothNum)

	assert.False(t, RemoveTooth(q, lineID, 47), "unknown tooth is a no-op")

	// Removing the last tooth removes the line.
	require.True(t, RemoveTooth(q, lineID, 12))
	assert.Empty(t, q.Items)
}

func TestPlaceQuadrant(t *testing.T) {
	item := toothItem(6)
	item.Kind = catalog.KindQuadrant

	q := newDraftQuote()
	line, err := PlaceTooth(q, item, 16, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, "Q1", line.TreatedArea)

	// Tooth 17 is in the same quadrant: duplicate.
	_, err = PlaceTooth(q, item, 17, nil, nil)
	assert.Equal(t, ReasonDuplicate, placementReason(t, err))
	require.Len(t, q.Items, 1)

	line, err = PlaceTooth(q, item, 26, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, "Q2", line.TreatedArea)
	assert.Len(t, q.Items, 2)
}

func TestAreaPlacementCarriesBaseLayers(t *testing.T) {
	arch := toothItem(8)
	arch.Kind = catalog.KindArch
	arch.LayerSpec = catalog.LayerSpec{Layers: []string{"splint"}}

	quadrant := toothItem(9)
	quadrant.Kind = catalog.KindQuadrant
	quadrant.LayerSpec = catalog.LayerSpec{Layers: []string{"scaling"}}

	q := newDraftQuote()
	line, err := PlaceTooth(q, arch, 16, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"splint"}, line.ResolvedLayers)

	line, err = PlaceTooth(q, quadrant, 36, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"scaling"}, line.ResolvedLayers)
}

func TestPlaceToothSurfaceChoiceDeferred(t *testing.T) {
	item := toothItem(7)
	item.LayerSpec = catalog.ParseLayerSpec("surface=filling/2;material=fill:composite|amalgam")

	q := newDraftQuote()
	_, err := PlaceTooth(q, item, 16, nil, nil)
	assert.Equal(t, ReasonChoiceRequired, placementReason(t, err))
	assert.Empty(t, q.Items)

	_, err = PlaceTooth(q, item, 16, &ToothChoice{Surfaces: []string{"M", "O", "D"}, Material: "composite"}, nil)
	assert.Equal(t, ReasonChoiceInvalid, placementReason(t, err))

	line, err := PlaceTooth(q, item, 16, &ToothChoice{Surfaces: []string{"M", "O"}, Material: "composite"}, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"M", "O"}, line.SelectedSurfaces)
	assert.Equal(t, "composite", line.SelectedMaterial)
	assert.Equal(t, []string{"filling:M", "filling:O", "fill:composite"}, line.ResolvedLayers)
}

func TestPlainToothItemAllowsRepeatedAdds(t *testing.T) {
	item := toothItem(8)

	q := newDraftQuote()
	first, err := PlaceTooth(q, item, 16, nil, nil)
	require.NoError(t, err)
	second, err := PlaceTooth(q, item, 16, nil, nil)
	require.NoError(t, err)

	assert.NotEqual(t, first.LineID, second.LineID)
	assert.Len(t, q.Items, 2)
}

func TestPlacementSnapshotsCatalogPrice(t *testing.T) {
	item := toothItem(9)

	q := newDraftQuote()
	line, err := PlaceTooth(q, item, 16, nil, nil)
	require.NoError(t, err)

	item.PriceGross = 99999
	assert.Equal(t, int64(12000), line.UnitPriceGross, "catalog price change must not alter existing lines")
}
