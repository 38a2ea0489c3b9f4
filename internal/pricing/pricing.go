// Package pricing computes quote totals.
// The engine is pure: no I/O, no side effects, deterministic for a given
// input. Malformed numeric values contribute zero instead of raising; the
// coercion already happened at the decode boundary, this package only guards
// against values that slipped through (negatives, NaN).
package pricing

import (
	"math"

	"github.com/diewo77/go-quotes/internal/models"
)

// Totals is the result of one pricing pass.
// Values are unrounded; rounding to currency precision happens at
// presentation time only.
type Totals struct {
	Subtotal       float64 `json:"subtotal"`
	DiscountAmount float64 `json:"discount_amount"`
	Total          float64 `json:"total"`
}

// ClampDiscount restricts a discount percentage to [0, 100].
// Out-of-range input is clamped rather than rejected so a stored quote can
// always be priced.
func ClampDiscount(percent float64) float64 {
	if math.IsNaN(percent) || percent < 0 {
		return 0
	}
	if percent > 100 {
		return 100
	}
	return percent
}

// Compute prices an ordered list of items with a discount percentage.
// subtotal = Σ max(0, needed−owned) × unitPrice, item order irrelevant to the
// sum but preserved by callers for display. With the discount clamped to
// [0,100] the total can never be negative.
func Compute(items []models.QuoteItem, discountPercent float64) Totals {
	var subtotal float64
	for i := range items {
		subtotal += lineContribution(&items[i])
	}
	pct := ClampDiscount(discountPercent)
	discount := subtotal * pct / 100
	return Totals{
		Subtotal:       subtotal,
		DiscountAmount: discount,
		Total:          subtotal - discount,
	}
}

// lineContribution is the item's share of the subtotal.
// Items with invalid price or quantities count as zero.
func lineContribution(item *models.QuoteItem) float64 {
	if math.IsNaN(item.UnitPrice) || math.IsInf(item.UnitPrice, 0) {
		return 0
	}
	return item.LineTotal()
}
