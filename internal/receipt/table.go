package receipt

import (
	"regexp"
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"receipts/pkg/models"
)

// maxItemPrice bounds what a single purchased line can plausibly cost.
var maxItemPrice = decimal.NewFromInt(500)

var (
	cellAmount        = regexp.MustCompile(`^-?[£$€]?\s?-?\d+[.,]\d{2}(\s*[A-Za-z])?$`)
	leadingLongCode   = regexp.MustCompile(`^\d{5,}\s*`)
	trailingTaxMarker = regexp.MustCompile(`(\s+[A-Za-z])+$`)
)

type tableRow struct {
	index int
	cells []models.Block
}

// ExtractTableItems turns the table structures of one image into candidates.
// blocks is every block of the image; WORD blocks are used to rebuild cell text.
func ExtractTableItems(blocks []models.Block) []Candidate {
	words := make(map[string]string, len(blocks))
	cellsByID := make(map[string]models.Block)
	var tables []models.Block
	for _, b := range blocks {
		switch b.Kind {
		case models.BlockCell:
			cellsByID[b.ID] = b
		case models.BlockTable:
			tables = append(tables, b)
		default:
			if b.ID != "" {
				words[b.ID] = b.Text
			}
		}
	}

	var candidates []Candidate
	claimed := make(map[string]bool, len(cellsByID))
	for _, table := range tables {
		var cells []models.Block
		for _, id := range table.ChildIDs {
			if cell, ok := cellsByID[id]; ok && !claimed[id] {
				claimed[id] = true
				cells = append(cells, cell)
			}
		}
		candidates = append(candidates, extractRows(cells, words)...)
	}

	// cells that no TABLE block references form one implicit table
	var orphans []models.Block
	for _, b := range blocks {
		if b.Kind == models.BlockCell && !claimed[b.ID] {
			orphans = append(orphans, b)
		}
	}
	return append(candidates, extractRows(orphans, words)...)
}

func extractRows(cells []models.Block, words map[string]string) []Candidate {
	rows := groupRows(cells)
	var candidates []Candidate
	for _, row := range rows {
		if c, ok := rowCandidate(row, words); ok {
			candidates = append(candidates, c)
		}
	}
	return candidates
}

func groupRows(cells []models.Block) []tableRow {
	byIndex := make(map[int]*tableRow)
	var rows []*tableRow
	for _, cell := range cells {
		row, ok := byIndex[cell.RowIndex]
		if !ok {
			row = &tableRow{index: cell.RowIndex}
			byIndex[cell.RowIndex] = row
			rows = append(rows, row)
		}
		row.cells = append(row.cells, cell)
	}
	sort.SliceStable(rows, func(i, j int) bool { return rows[i].index < rows[j].index })

	out := make([]tableRow, 0, len(rows))
	for _, row := range rows {
		sort.SliceStable(row.cells, func(i, j int) bool {
			return row.cells[i].ColumnIndex < row.cells[j].ColumnIndex
		})
		out = append(out, *row)
	}
	return out
}

func cellText(cell models.Block, words map[string]string) string {
	if len(cell.ChildIDs) == 0 {
		return strings.TrimSpace(cell.Text)
	}
	parts := make([]string, 0, len(cell.ChildIDs))
	for _, id := range cell.ChildIDs {
		if text := strings.TrimSpace(words[id]); text != "" {
			parts = append(parts, text)
		}
	}
	return strings.Join(parts, " ")
}

func rowCandidate(row tableRow, words map[string]string) (Candidate, bool) {
	if len(row.cells) < 2 {
		return Candidate{}, false
	}
	texts := make([]string, len(row.cells))
	for i, cell := range row.cells {
		texts[i] = cellText(cell, words)
	}

	priceCol := -1
	var price decimal.Decimal
	for i := len(texts) - 1; i >= 0; i-- {
		if singleLetter.MatchString(texts[i]) || !cellAmount.MatchString(texts[i]) {
			continue
		}
		p := NormalizePrice(texts[i])
		if p.IsZero() || p.Abs().GreaterThanOrEqual(maxItemPrice) {
			continue
		}
		priceCol, price = i, p
		break
	}
	if priceCol < 0 || price.Round(2).IsZero() {
		return Candidate{}, false
	}

	description := ""
	for _, text := range texts[:priceCol] {
		if len(text) < 2 || singleLetter.MatchString(text) || numericOnly.MatchString(text) {
			continue
		}
		if len(text) > len(description) {
			description = text
		}
	}
	description = cleanDescription(description)
	if len(description) < 3 || IsNonItemText(description) {
		return Candidate{}, false
	}

	return newCandidate(description, price, FromTable, row.cells[0].Geometry), true
}

func cleanDescription(text string) string {
	text = leadingLongCode.ReplaceAllString(strings.TrimSpace(text), "")
	text = trailingTaxMarker.ReplaceAllString(text, "")
	return strings.TrimSpace(text)
}
