package receipt

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Folded is the outcome of discount reconciliation.
type Folded struct {
	Candidates  []Candidate
	Unallocated decimal.Decimal
	Applied     int
}

// FoldDiscounts attaches each discount line to the nearest preceding real
// item, reducing its total and recording the offer. Discounts with no
// preceding item accumulate in Unallocated.
func FoldDiscounts(candidates []Candidate) Folded {
	out := Folded{
		Candidates:  make([]Candidate, 0, len(candidates)),
		Unallocated: decimal.Zero,
	}

	for _, c := range candidates {
		if !c.Discount && !c.TotalPrice.IsNegative() {
			out.Candidates = append(out.Candidates, c)
			continue
		}

		amount := c.TotalPrice.Abs()
		target := lastItem(out.Candidates)
		if target == nil {
			out.Unallocated = out.Unallocated.Add(amount)
			continue
		}

		target.DiscountApplied = target.DiscountApplied.Add(amount).Round(2)
		target.TotalPrice = target.TotalPrice.Sub(amount).Round(2)
		if label := strings.TrimSpace(strings.TrimLeft(c.Name, "-")); label != "" {
			if target.OfferDescription == "" {
				target.OfferDescription = label
			} else {
				target.OfferDescription += "; " + label
			}
		}
		out.Applied++
	}

	out.Unallocated = out.Unallocated.Round(2)
	return out
}

// lastItem returns the nearest preceding item. Discount lines are never
// appended to the accumulator, so every entry is a real item.
func lastItem(items []Candidate) *Candidate {
	if len(items) == 0 {
		return nil
	}
	return &items[len(items)-1]
}
