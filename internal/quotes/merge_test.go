package quotes

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mergeFixture() []QuoteItem {
	return []QuoteItem{
		{LineID: "a", CatalogItemID: 1, Name: "Tömés", Qty: 1, UnitPriceGross: 10000, ToothNum: "16", TreatmentSession: 1},
		{LineID: "b", CatalogItemID: 2, Name: "Fogkő-eltávolítás", Qty: 1, UnitPriceGross: 8000, TreatedArea: "upper", TreatmentSession: 1},
		{LineID: "c", CatalogItemID: 1, Name: "Tömés", Qty: 1, UnitPriceGross: 10000, ToothNum: "26,27", TreatmentSession: 2},
		{LineID: "d", CatalogItemID: 1, Name: "Tömés", Qty: 2, UnitPriceGross: 10000, ToothNum: "36"},
	}
}

func TestMergeAllGroupsByCatalogItem(t *testing.T) {
	merged := MergeAll(mergeFixture())
	require.Len(t, merged, 2)

	filling := merged[0]
	assert.Equal(t, int64(1), filling.CatalogItemID)
	assert.Equal(t, int64(4), filling.TotalQty)
	assert.Equal(t, int64(40000), filling.LineTotal)
	assert.Equal(t, "16, 26, 27, 36", filling.TreatedAreaText)
	assert.Len(t, filling.Items, 3)

	scaling := merged[1]
	assert.Equal(t, int64(2), scaling.CatalogItemID)
	assert.Equal(t, "upper", scaling.TreatedAreaText)
}

func TestMergeAllIdempotent(t *testing.T) {
	items := mergeFixture()
	merged := MergeAll(items)

	// Re-flatten and merge again: groups must come out identical.
	var flattened []QuoteItem
	for _, group := range merged {
		flattened = append(flattened, group.Items...)
	}
	again := MergeAll(flattened)
	assert.Equal(t, merged, again)
}

func TestMergeBySessionDefaultsToOne(t *testing.T) {
	bySession := MergeBySession(mergeFixture())
	require.Len(t, bySession, 2)

	// Line "d" has no session and must land in session 1.
	session1 := bySession[1]
	require.Len(t, session1, 2)
	assert.Equal(t, int64(3), session1[0].TotalQty)
	assert.Equal(t, "16, 36", session1[0].TreatedAreaText)

	session2 := bySession[2]
	require.Len(t, session2, 1)
	assert.Equal(t, "26, 27", session2[0].TreatedAreaText)
}

func TestMoveInSession(t *testing.T) {
	items := mergeFixture()
	moved := MoveInSession(items, 1, 2, 1)

	bySession := MergeBySession(moved)
	session1 := bySession[1]
	require.Len(t, session1, 2)
	assert.Equal(t, int64(2), session1[0].CatalogItemID, "scaling moved before filling")
	assert.Equal(t, int64(1), session1[1].CatalogItemID)

	// Other sessions untouched.
	assert.Equal(t, "26, 27", bySession[2][0].TreatedAreaText)
}

func TestMoveInSessionUnknownGroupIsNoop(t *testing.T) {
	items := mergeFixture()
	assert.Equal(t, items, MoveInSession(items, 1, 99, 1))
	assert.Equal(t, items, MoveInSession(items, 1, 1, 1))
}

func TestDropOnSession(t *testing.T) {
	items := mergeFixture()
	moved := DropOnSession(items, 1, 1, 3)

	bySession := MergeBySession(moved)
	require.Len(t, bySession[3], 1)
	assert.Equal(t, "16, 36", bySession[3][0].TreatedAreaText)

	// Session 2 lines of the same catalog item stay where they were.
	require.Len(t, bySession[2], 1)

	// The source slice is not mutated.
	assert.Equal(t, 1, items[0].Session())
}
