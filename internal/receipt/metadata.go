package receipt

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"receipts/pkg/models"
)

var (
	itemCountPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)\b(\d+)\s*items?\b`),
		regexp.MustCompile(`(?i)\b(?:number of items|items sold|item count)\s*:?\s*(\d+)\b`),
	}
	// a bare integer only counts as a total when it can be pence ("TOTAL 1234")
	strictTotal = regexp.MustCompile(`(?i)\btotal\b\s*:?\s*[£$€]?\s*(-?\d+[.,]\d{2}|-?\d{3,})\b`)
	looseTotal  = regexp.MustCompile(`(?i)total.*?(-?[£$€]?\s?\d+[.,]\d{2})`)
	phoneLine   = regexp.MustCompile(`(?i)\b(tel|telephone|phone)\b`)
)

// Hints are caller-supplied fallbacks. They never override OCR-derived values.
type Hints struct {
	StoreName string
	Total     *decimal.Decimal
}

// Metadata accumulates receipt-level fields across images. Every field is
// set at most once: the first image that yields a value wins.
type Metadata struct {
	StoreName     string
	StoreLocation string
	PurchaseDate  string
	PrintedCount  *int
	PrintedTotal  *decimal.Decimal

	// TotalFromOCR is false when PrintedTotal came from a hint.
	TotalFromOCR bool

	UnallocatedDiscounts decimal.Decimal
}

// mergeIfAbsent stores v in dst unless dst already holds a value.
func mergeIfAbsent[T comparable](dst *T, v T) bool {
	var zero T
	if *dst != zero || v == zero {
		return false
	}
	*dst = v
	return true
}

// Absorb extracts whatever is still missing from one image's sections.
func (m *Metadata) Absorb(s Sections) {
	if m.StoreName == "" {
		mergeIfAbsent(&m.StoreName, findStoreName(s))
	}
	if m.StoreLocation == "" {
		mergeIfAbsent(&m.StoreLocation, findStoreLocation(s, m.StoreName))
	}
	if m.PurchaseDate == "" {
		mergeIfAbsent(&m.PurchaseDate, findPurchaseDate(s))
	}
	if m.PrintedCount == nil {
		mergeIfAbsent(&m.PrintedCount, findItemCount(s))
	}
	if m.PrintedTotal == nil {
		if mergeIfAbsent(&m.PrintedTotal, findPrintedTotal(s)) {
			m.TotalFromOCR = true
		}
	}
}

// ApplyHints fills still-empty fields from the caller's hints.
func (m *Metadata) ApplyHints(h Hints) {
	mergeIfAbsent(&m.StoreName, strings.TrimSpace(h.StoreName))
	if h.Total != nil {
		total := h.Total.Round(2)
		mergeIfAbsent(&m.PrintedTotal, &total)
	}
}

func findStoreName(s Sections) string {
	for _, line := range s.Header {
		text := strings.TrimSpace(line.Text)
		lower := strings.ToLower(text)
		switch {
		case len(text) <= 2,
			!hasLetter.MatchString(text),
			numericOnly.MatchString(text),
			strings.Contains(lower, "receipt"),
			strings.Contains(lower, "tel"),
			IsFooterText(text),
			isCountLine(text),
			trailingPrice.MatchString(text):
			continue
		}
		return text
	}
	return ""
}

func findStoreLocation(s Sections, storeName string) string {
	for _, line := range s.Header {
		text := strings.TrimSpace(line.Text)
		if strings.EqualFold(text, storeName) {
			continue
		}
		if len(text) > 2 && hasLetter.MatchString(text) &&
			!IsFooterText(text) && !isCountLine(text) && !phoneLine.MatchString(text) &&
			!datePattern.MatchString(text) && !trailingPrice.MatchString(text) {
			return text
		}
	}
	return ""
}

func findPurchaseDate(s Sections) string {
	for _, line := range s.All {
		if match := datePattern.FindString(line.Text); match != "" {
			return match
		}
	}
	return ""
}

func isCountLine(text string) bool {
	for _, re := range itemCountPatterns {
		if re.MatchString(text) {
			return true
		}
	}
	return false
}

// findItemCount prefers the footer. Some receipts print the count just
// above the total, so the body is searched when the footer has none.
func findItemCount(s Sections) *int {
	for _, line := range append(append([]models.Block(nil), s.Footer...), s.Body...) {
		for _, re := range itemCountPatterns {
			m := re.FindStringSubmatch(line.Text)
			if m == nil {
				continue
			}
			if n, err := strconv.Atoi(m[1]); err == nil && n > 0 {
				return &n
			}
		}
	}
	return nil
}

// findPrintedTotal scans the footer bottom-up so the grand total wins over
// subtotals printed above it.
func findPrintedTotal(s Sections) *decimal.Decimal {
	for i := len(s.Footer) - 1; i >= 0; i-- {
		text := s.Footer[i].Text
		for _, re := range []*regexp.Regexp{strictTotal, looseTotal} {
			m := re.FindStringSubmatch(text)
			if m == nil {
				continue
			}
			if total := NormalizePrice(m[1]).Round(2); total.IsPositive() {
				return &total
			}
		}
	}
	return nil
}
