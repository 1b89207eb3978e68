// Package totals computes line amounts and document totals. Every call site
// (form preview, persistence, rendering) goes through the same functions so
// results agree to the last digit.
package totals

import (
	"strings"

	"github.com/shopspring/decimal"
)

// MinorUnits is the fraction precision of every supported currency.
const MinorUnits = 2

var hundred = decimal.NewFromInt(100)

// Item is the subset of a line item the calculator needs.
type Item struct {
	Description string
	Quantity    int64
	UnitPrice   decimal.Decimal
}

// Totals holds the derived document amounts.
type Totals struct {
	Subtotal decimal.Decimal `json:"subtotal"`
	Tax      decimal.Decimal `json:"tax"`
	Total    decimal.Decimal `json:"total"`
}

// Round2 rounds half away from zero to two places, which is round-half-up for
// the non-negative amounts documents carry.
func Round2(d decimal.Decimal) decimal.Decimal {
	return d.Round(MinorUnits)
}

// LineAmount returns round2(quantity x unitPrice).
func LineAmount(quantity int64, unitPrice decimal.Decimal) decimal.Decimal {
	return Round2(unitPrice.Mul(decimal.NewFromInt(quantity)))
}

// Counts reports whether an item takes part in totals.
func Counts(description string) bool {
	return strings.TrimSpace(description) != ""
}

// Compute sums the amounts of items with a non-blank description and applies
// taxRate (a percentage). It does not modify items.
func Compute(items []Item, taxRate decimal.Decimal) Totals {
	subtotal := decimal.Zero
	for _, it := range items {
		if !Counts(it.Description) {
			continue
		}
		subtotal = subtotal.Add(LineAmount(it.Quantity, it.UnitPrice))
	}
	tax := Round2(subtotal.Mul(taxRate).Div(hundred))
	return Totals{
		Subtotal: subtotal,
		Tax:      tax,
		Total:    subtotal.Add(tax),
	}
}
