package quotes

import "strings"

// MergedItem is the deduplicated display view of every line sharing one
// catalog item. It is derived fresh on every read and never persisted, so it
// cannot drift from the flat item list.
type MergedItem struct {
	CatalogItemID   int64       `json:"catalog_item_id"`
	Name            string      `json:"name"`
	TotalQty        int64       `json:"total_qty"`
	LineTotal       int64       `json:"line_total"`
	TreatedAreaText string      `json:"treated_area_text"`
	Items           []QuoteItem `json:"items"`
}

// MergeAll groups the flat item list by catalog item across the whole quote,
// preserving first-occurrence order.
func MergeAll(items []QuoteItem) []MergedItem {
	var merged []MergedItem
	index := map[int64]int{}

	for _, it := range items {
		pos, ok := index[it.CatalogItemID]
		if !ok {
			pos = len(merged)
			index[it.CatalogItemID] = pos
			merged = append(merged, MergedItem{
				CatalogItemID: it.CatalogItemID,
				Name:          it.Name,
			})
		}
		group := &merged[pos]
		group.TotalQty += it.Qty
		group.LineTotal += LineTotal(it)
		group.Items = append(group.Items, it)
	}

	for i := range merged {
		merged[i].TreatedAreaText = treatedAreaText(merged[i].Items)
	}
	return merged
}

// MergeBySession partitions the items by treatment session (missing sessions
// default to 1) and merges each partition separately.
func MergeBySession(items []QuoteItem) map[int][]MergedItem {
	partitions := map[int][]QuoteItem{}
	for _, it := range items {
		s := it.Session()
		partitions[s] = append(partitions[s], it)
	}

	out := make(map[int][]MergedItem, len(partitions))
	for session, part := range partitions {
		out[session] = MergeAll(part)
	}
	return out
}

// MoveInSession reorders a merged group within its session by rewriting the
// flat item list: the group's individual lines move together to the position
// occupied by the target group. Items of other sessions keep their places.
func MoveInSession(items []QuoteItem, session int, catalogItemID, beforeCatalogItemID int64) []QuoteItem {
	if catalogItemID == beforeCatalogItemID {
		return items
	}

	var moved, rest []QuoteItem
	for _, it := range items {
		if it.Session() == session && it.CatalogItemID == catalogItemID {
			moved = append(moved, it)
		} else {
			rest = append(rest, it)
		}
	}
	if len(moved) == 0 {
		return items
	}

	out := make([]QuoteItem, 0, len(items))
	inserted := false
	for _, it := range rest {
		if !inserted && it.Session() == session && it.CatalogItemID == beforeCatalogItemID {
			out = append(out, moved...)
			inserted = true
		}
		out = append(out, it)
	}
	if !inserted {
		out = append(out, moved...)
	}
	return out
}

// DropOnSession moves a whole merged group to another treatment session by
// rewriting the session attribute of its individual lines. Relative order in
// the flat list is preserved; the merged views re-derive from it.
func DropOnSession(items []QuoteItem, catalogItemID int64, fromSession, toSession int) []QuoteItem {
	out := make([]QuoteItem, len(items))
	copy(out, items)
	for i := range out {
		if out[i].CatalogItemID == catalogItemID && out[i].Session() == fromSession {
			out[i].TreatmentSession = toSession
		}
	}
	return out
}

// treatedAreaText renders a human-readable join of every placement in the
// group, expanding multi-tooth comma lists.
func treatedAreaText(items []QuoteItem) string {
	var parts []string
	for _, it := range items {
		if it.ToothNum != "" {
			for _, t := range strings.Split(it.ToothNum, ",") {
				if t = strings.TrimSpace(t); t != "" {
					parts = append(parts, t)
				}
			}
			continue
		}
		if it.TreatedArea != "" {
			parts = append(parts, it.TreatedArea)
		}
	}
	return strings.Join(parts, ", ")
}
