package receipt

import (
	"math"

	"receipts/pkg/models"
)

// ScoreInputs are the independent signals behind the confidence score.
type ScoreInputs struct {
	ItemCount       int
	ValidPriceRatio float64
	TableItems      int
	LineItems       int
	HasTotal        bool
}

// Score rates a parse from 0 to 100.
func Score(in ScoreInputs) int {
	score := 0.0

	if in.ItemCount >= 5 {
		score += 40
	} else {
		score += 5 * float64(in.ItemCount)
	}

	if in.ValidPriceRatio >= 0.8 {
		score += 20
	} else {
		score += 20 * in.ValidPriceRatio
	}

	if in.TableItems > 0 {
		score += 10
	}
	if in.LineItems > 0 {
		score += 10
	}
	if in.HasTotal {
		score += 10
	}

	return min(max(int(math.Round(score)), 0), 100)
}

// ValidPriceRatio is the share of items with a positive total.
func ValidPriceRatio(items []models.Item) float64 {
	if len(items) == 0 {
		return 0
	}
	valid := 0
	for _, item := range items {
		if item.TotalPrice.IsPositive() {
			valid++
		}
	}
	return float64(valid) / float64(len(items))
}
