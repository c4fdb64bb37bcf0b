package receipt

import (
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"receipts/pkg/models"
)

// Parser runs the extraction pipeline over the blocks of every image of
// one receipt. It holds no state between calls.
type Parser struct {
	log zerolog.Logger
}

// NewParser creates a parser that reports stage counts to log.
func NewParser(log zerolog.Logger) *Parser {
	return &Parser{log: log}
}

// Parse is the pipeline without logging.
func Parse(pages [][]models.Block, hints Hints) *models.ParseResult {
	return NewParser(zerolog.Nop()).Parse(pages, hints)
}

// Parse converts per-image blocks into a reconciled result. Images are
// processed in order, which decides first-match-wins metadata and the
// order discount folding looks back through. An image with no usable
// blocks contributes nothing.
func (p *Parser) Parse(pages [][]models.Block, hints Hints) *models.ParseResult {
	start := time.Now()
	meta := &Metadata{UnallocatedDiscounts: decimal.Zero}

	var (
		candidates     []Candidate
		rejected       int
		usedMultiplier bool
		withData       int
	)

	for image, blocks := range pages {
		lines := linesOf(blocks)
		if len(lines) == 0 && !hasKind(blocks, models.BlockCell) {
			p.log.Debug().Int("image", image).Msg("No usable blocks, skipping image")
			continue
		}
		withData++

		sections := Sectionize(lines)
		meta.Absorb(sections)

		tableItems := ExtractTableItems(blocks)
		lineItems := ExtractLineItems(sections.Body)
		rejected += lineItems.Rejected
		usedMultiplier = usedMultiplier || lineItems.UsedMultiplier

		for _, c := range append(tableItems, lineItems.Candidates...) {
			c.Image = image
			candidates = append(candidates, c)
		}

		p.log.Debug().
			Int("image", image).
			Int("lines", len(lines)).
			Int("body_lines", len(sections.Body)).
			Int("footer_lines", len(sections.Footer)).
			Int("table_candidates", len(tableItems)).
			Int("line_candidates", len(lineItems.Candidates)).
			Int("rejected_lines", lineItems.Rejected).
			Msg("Image extracted")
	}

	meta.ApplyHints(hints)

	deduped, dropped := Deduplicate(candidates)
	folded := FoldDiscounts(deduped)
	meta.UnallocatedDiscounts = meta.UnallocatedDiscounts.Add(folded.Unallocated)

	items := make([]models.Item, 0, len(folded.Candidates))
	var tableCount, lineCount int
	for _, c := range folded.Candidates {
		switch c.Provenance {
		case FromTable:
			tableCount++
		case FromLine:
			lineCount++
		}
		items = append(items, c.Item())
	}

	rec := Reconcile(items, meta.PrintedTotal, meta.PrintedCount)
	ratio := ValidPriceRatio(items)
	quality := models.ParseQuality{
		TableItems:        tableCount,
		LineItems:         lineCount,
		RejectedLines:     rejected,
		ValidPriceRatio:   ratio,
		UsedMultiplier:    usedMultiplier,
		HasExtractedTotal: meta.PrintedTotal != nil && meta.TotalFromOCR,
		HasExtractedCount: meta.PrintedCount != nil,
	}
	quality.ConfidenceScore = Score(ScoreInputs{
		ItemCount:       len(items),
		ValidPriceRatio: ratio,
		TableItems:      tableCount,
		LineItems:       lineCount,
		HasTotal:        quality.HasExtractedTotal,
	})

	p.log.Info().
		Int("candidates", len(candidates)).
		Int("duplicates_dropped", dropped).
		Int("discounts_folded", folded.Applied).
		Str("unallocated_discounts", meta.UnallocatedDiscounts.StringFixed(2)).
		Int("items", len(items)).
		Str("computed_total", rec.ComputedTotal.StringFixed(2)).
		Bool("total_mismatch", rec.TotalMismatch).
		Bool("count_mismatch", rec.CountMismatch).
		Int("confidence", quality.ConfidenceScore).
		Msg("Receipt parsed")

	return &models.ParseResult{
		Success:          true,
		Items:            items,
		StoreName:        meta.StoreName,
		StoreLocation:    meta.StoreLocation,
		PurchaseDate:     meta.PurchaseDate,
		PrintedTotal:     meta.PrintedTotal,
		PrintedItemCount: meta.PrintedCount,
		TotalDiscounts:   meta.UnallocatedDiscounts.Round(2),
		Reconciliation:   rec,
		ParseQuality:     quality,
		Run: models.RunInfo{
			ImagesSupplied:     len(pages),
			ImagesWithData:     withData,
			ProcessedAt:        time.Now(),
			ProcessingDuration: time.Since(start),
		},
	}
}

func linesOf(blocks []models.Block) []models.Block {
	var lines []models.Block
	for _, b := range blocks {
		if b.Kind == models.BlockLine {
			lines = append(lines, b)
		}
	}
	return lines
}

func hasKind(blocks []models.Block, kind models.BlockKind) bool {
	for _, b := range blocks {
		if b.Kind == kind {
			return true
		}
	}
	return false
}
