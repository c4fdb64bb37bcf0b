package receipt

import (
	"math"
	"strings"

	"github.com/shopspring/decimal"
)

// Duplicate-matching tolerances. Both are empirical; change them only
// together with the deduplication tests.
const (
	// TopTolerance is the maximum vertical offset, in normalized page units,
	// between a table row and a text line describing the same item.
	TopTolerance = 0.01
	// PriceTolerance is the maximum total-price difference for a name match.
	PriceTolerance = 0.01
)

var priceTolerance = decimal.NewFromFloat(PriceTolerance)

// Deduplicate drops line candidates that repeat a table candidate. Table
// candidates are always kept and the relative order of survivors is preserved.
// The matching is deliberately conservative: keeping a duplicate is
// recoverable downstream, dropping a real item is not.
func Deduplicate(candidates []Candidate) (kept []Candidate, dropped int) {
	var tables []Candidate
	for _, c := range candidates {
		if c.Provenance == FromTable {
			tables = append(tables, c)
		}
	}

	kept = make([]Candidate, 0, len(candidates))
	for _, c := range candidates {
		if c.Provenance == FromLine && duplicatesAny(c, tables) {
			dropped++
			continue
		}
		kept = append(kept, c)
	}
	return kept, dropped
}

func duplicatesAny(line Candidate, tables []Candidate) bool {
	for _, table := range tables {
		if isDuplicate(line, table) {
			return true
		}
	}
	return false
}

func isDuplicate(line, table Candidate) bool {
	// coordinates are only comparable within one image
	if line.Geometry != nil && table.Geometry != nil && line.Image == table.Image &&
		math.Abs(line.Geometry.Top-table.Geometry.Top) < TopTolerance {
		return true
	}
	return strings.EqualFold(strings.TrimSpace(line.Name), strings.TrimSpace(table.Name)) &&
		line.TotalPrice.Sub(table.TotalPrice).Abs().LessThan(priceTolerance)
}
