package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// BlockKind is the type of a unit returned by the document-analysis service.
type BlockKind string

const (
	BlockLine  BlockKind = "LINE"
	BlockTable BlockKind = "TABLE"
	BlockCell  BlockKind = "CELL"
	BlockWord  BlockKind = "WORD"
)

// Geometry is a bounding box in page-normalized coordinates (0-1).
type Geometry struct {
	Top    float64 `json:"top"`
	Left   float64 `json:"left"`
	Height float64 `json:"height"`
	Width  float64 `json:"width"`
}

// Block is one recognized unit (line, table, cell or word) from one image.
// Blocks are read-only input to the parser.
type Block struct {
	ID       string    `json:"id"`
	Kind     BlockKind `json:"kind"`
	Text     string    `json:"text,omitempty"`
	Geometry *Geometry `json:"geometry,omitempty"`

	// Cell-only fields
	RowIndex    int      `json:"row_index,omitempty"`
	ColumnIndex int      `json:"column_index,omitempty"`
	ChildIDs    []string `json:"child_ids,omitempty"`
}

// Item is a finalized purchased line item.
type Item struct {
	Name             string          `json:"name"`
	Quantity         int             `json:"quantity"`
	UnitPrice        decimal.Decimal `json:"unit_price"`
	TotalPrice       decimal.Decimal `json:"total_price"`
	DiscountApplied  decimal.Decimal `json:"discount_applied"`
	OfferDescription string          `json:"offer_description"`
	Category         string          `json:"category"`
}

// Reconciliation compares the receipt's printed total and item count with
// the values computed from the extracted items. Deltas are nil when the
// printed value is absent.
type Reconciliation struct {
	PrintedTotal  *decimal.Decimal `json:"printed_total"`
	ComputedTotal decimal.Decimal  `json:"computed_total"`
	TotalDelta    *decimal.Decimal `json:"total_delta"`
	TotalMismatch bool             `json:"total_mismatch"`
	PrintedCount  *int             `json:"printed_count"`
	ComputedCount int              `json:"computed_count"`
	CountDelta    *int             `json:"count_delta"`
	CountMismatch bool             `json:"count_mismatch"`
}

// ParseQuality summarizes how the items were found and how trustworthy the result is.
type ParseQuality struct {
	TableItems        int     `json:"table_items"`
	LineItems         int     `json:"line_items"`
	RejectedLines     int     `json:"rejected_lines"`
	ValidPriceRatio   float64 `json:"valid_price_ratio"`
	UsedMultiplier    bool    `json:"used_multiplier"`
	HasExtractedTotal bool    `json:"has_extracted_total"`
	HasExtractedCount bool    `json:"has_extracted_count"`
	ConfidenceScore   int     `json:"confidence_score"`
}

// ParseResult is the output contract of one receipt parse.
type ParseResult struct {
	Success          bool             `json:"success"`
	Items            []Item           `json:"items"`
	StoreName        string           `json:"store_name"`
	StoreLocation    string           `json:"store_location"`
	PurchaseDate     string           `json:"purchase_date"`
	PrintedTotal     *decimal.Decimal `json:"printed_total"`
	PrintedItemCount *int             `json:"printed_item_count"`
	TotalDiscounts   decimal.Decimal  `json:"total_discounts"`
	Reconciliation   Reconciliation   `json:"reconciliation"`
	ParseQuality     ParseQuality     `json:"parse_quality"`
	Run              RunInfo          `json:"run"`
}

// RunInfo describes the invocation that produced a ParseResult.
type RunInfo struct {
	ID                 string        `json:"id,omitempty"`
	ImagesSupplied     int           `json:"images_supplied"`
	ImagesWithData     int           `json:"images_with_data"`
	ProcessedAt        time.Time     `json:"processed_at"`
	ProcessingDuration time.Duration `json:"processing_duration"`
}

// Failure is what callers receive when an invocation aborts before a
// result exists.
type Failure struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}
