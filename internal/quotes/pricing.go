package quotes

// Totals is the financial summary of a quote. All amounts are minor currency
// units; deriving it twice from an unchanged quote yields identical values.
type Totals struct {
	Subtotal       int64 `json:"subtotal"`
	LineDiscounts  int64 `json:"line_discounts"`
	GlobalDiscount int64 `json:"global_discount"`
	Total          int64 `json:"total"`
}

// LineGross is the pre-discount amount of a line.
func LineGross(it QuoteItem) int64 {
	return it.UnitPriceGross * it.Qty
}

// LineDiscountAmount computes the discount of one line, clamped to the line's
// gross amount and never negative.
func LineDiscountAmount(it QuoteItem) int64 {
	return discountAmount(it.Discount, LineGross(it))
}

// LineTotal is the line's gross amount minus its discount.
func LineTotal(it QuoteItem) int64 {
	return LineGross(it) - LineDiscountAmount(it)
}

// QuoteTotals derives the quote's financial summary. The global discount is
// applied to the subtotal net of line discounts and clamped to that base, so
// the total can never go negative.
func QuoteTotals(q *Quote) Totals {
	var t Totals
	for _, it := range q.Items {
		t.Subtotal += LineGross(it)
		t.LineDiscounts += LineDiscountAmount(it)
	}
	base := t.Subtotal - t.LineDiscounts
	t.GlobalDiscount = discountAmount(q.GlobalDiscount, base)
	t.Total = base - t.GlobalDiscount
	if t.Total < 0 {
		t.Total = 0
	}
	return t
}

// ClampDiscount normalises caller-supplied discount values into their valid
// range instead of rejecting them: percents to [0,100], fixed amounts to
// [0,base].
func ClampDiscount(d Discount, base int64) Discount {
	if d.Value < 0 {
		d.Value = 0
	}
	switch d.Type {
	case DiscountPercent:
		if d.Value > 100 {
			d.Value = 100
		}
	case DiscountFixed:
		if d.Value > base {
			d.Value = base
		}
	default:
		d = Discount{}
	}
	return d
}

func discountAmount(d Discount, base int64) int64 {
	if base <= 0 || d.Value <= 0 {
		return 0
	}
	switch d.Type {
	case DiscountPercent:
		value := d.Value
		if value > 100 {
			value = 100
		}
		return roundedPercent(base, value)
	case DiscountFixed:
		if d.Value > base {
			return base
		}
		return d.Value
	default:
		return 0
	}
}

// roundedPercent computes base*pct/100 rounded half away from zero, so that
// amounts land on the currency's smallest unit.
func roundedPercent(base, pct int64) int64 {
	return (base*pct + 50) / 100
}
