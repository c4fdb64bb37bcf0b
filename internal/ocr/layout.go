package ocr

import (
	"math"
	"sort"
	"strings"

	"google.golang.org/api/option"

	"receipts/pkg/models"
)

type point struct {
	x, y float64
}

// boxOf returns the axis-aligned box around points, or nil when there are none.
func boxOf(points []point) *models.Geometry {
	if len(points) == 0 {
		return nil
	}
	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	for _, p := range points {
		minX, maxX = math.Min(minX, p.x), math.Max(maxX, p.x)
		minY, maxY = math.Min(minY, p.y), math.Max(maxY, p.y)
	}
	return &models.Geometry{
		Top:    minY,
		Left:   minX,
		Height: maxY - minY,
		Width:  maxX - minX,
	}
}

func union(a, b *models.Geometry) *models.Geometry {
	if a == nil {
		return b
	}
	if b == nil {
		return a
	}
	return boxOf([]point{
		{a.Left, a.Top}, {a.Left + a.Width, a.Top + a.Height},
		{b.Left, b.Top}, {b.Left + b.Width, b.Top + b.Height},
	})
}

func center(g *models.Geometry) float64 {
	return g.Top + g.Height/2
}

// assembleRows merges line fragments whose vertical centers line up into a
// single LINE block, ordered top to bottom and left to right. Receipt
// photos often come back with the item name and its price as separate
// fragments at either edge of the paper.
func assembleRows(fragments []models.Block) []models.Block {
	for _, f := range fragments {
		if f.Geometry == nil {
			return fragments
		}
	}

	sorted := append([]models.Block(nil), fragments...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return center(sorted[i].Geometry) < center(sorted[j].Geometry)
	})

	var rows [][]models.Block
	var rowBox *models.Geometry
	for _, f := range sorted {
		if len(rows) > 0 {
			limit := math.Min(f.Geometry.Height, rowBox.Height) / 2
			if math.Abs(center(f.Geometry)-center(rowBox)) < limit {
				rows[len(rows)-1] = append(rows[len(rows)-1], f)
				rowBox = union(rowBox, f.Geometry)
				continue
			}
		}
		rows = append(rows, []models.Block{f})
		rowBox = f.Geometry
	}

	lines := make([]models.Block, 0, len(rows))
	for _, row := range rows {
		sort.SliceStable(row, func(i, j int) bool { return row[i].Geometry.Left < row[j].Geometry.Left })
		texts := make([]string, 0, len(row))
		var box *models.Geometry
		for _, f := range row {
			texts = append(texts, f.Text)
			box = union(box, f.Geometry)
		}
		lines = append(lines, models.Block{
			ID:       row[0].ID,
			Kind:     models.BlockLine,
			Text:     strings.Join(texts, " "),
			Geometry: box,
		})
	}
	return lines
}

// Credentials selects how the Google clients authenticate. Empty fields
// fall back to Application Default Credentials.
type Credentials struct {
	JSON string
	File string
}

func (c Credentials) options() []option.ClientOption {
	switch {
	case c.JSON != "":
		return []option.ClientOption{option.WithCredentialsJSON([]byte(c.JSON))}
	case c.File != "":
		return []option.ClientOption{option.WithCredentialsFile(c.File)}
	default:
		return nil
	}
}
