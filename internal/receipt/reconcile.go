package receipt

import (
	"github.com/shopspring/decimal"

	"receipts/pkg/models"
)

// TotalMismatchTolerance is the largest printed-vs-computed total difference
// still treated as agreement.
var TotalMismatchTolerance = decimal.RequireFromString("0.05")

// Reconcile compares the printed total and count with the extracted items.
// Items whose total is not positive after folding are left out of both sums.
// Absent printed values produce nil deltas and no mismatch.
func Reconcile(items []models.Item, printedTotal *decimal.Decimal, printedCount *int) models.Reconciliation {
	computed := decimal.Zero
	count := 0
	for _, item := range items {
		if !item.TotalPrice.IsPositive() {
			continue
		}
		computed = computed.Add(item.TotalPrice)
		count++
	}

	rec := models.Reconciliation{
		PrintedTotal:  printedTotal,
		ComputedTotal: computed.Round(2),
		PrintedCount:  printedCount,
		ComputedCount: count,
	}

	if printedTotal != nil {
		delta := printedTotal.Sub(computed).Round(2)
		rec.TotalDelta = &delta
		rec.TotalMismatch = delta.Abs().GreaterThan(TotalMismatchTolerance)
	}
	if printedCount != nil {
		delta := *printedCount - count
		rec.CountDelta = &delta
		rec.CountMismatch = delta != 0
	}
	return rec
}
