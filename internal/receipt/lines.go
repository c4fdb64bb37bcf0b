package receipt

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"receipts/pkg/models"
)

var (
	timestampLines = []*regexp.Regexp{
		regexp.MustCompile(`^\d{1,2}[/.-]\d{1,2}[/.-]\d{2,4}(\s+\d{1,2}:\d{2}(:\d{2})?)?$`),
		regexp.MustCompile(`(?i)^\d{1,2}:\d{2}(:\d{2})?(\s*[ap]m)?$`),
	}
	fullMultiplier   = regexp.MustCompile(`(?i)^([1-9]\d{0,2})\s*[x×@]\s*([£$€]?\d+[.,]\d{2})$`)
	quantityOnly     = regexp.MustCompile(`(?i)^([1-9]\d{0,2})\s*[x×]$`)
	priceOnly        = regexp.MustCompile(`^[£$€]?\d+[.,]\d{2}$`)
	itemWithPrice    = regexp.MustCompile(`^(.*?)\s*(-?[£$€]?\s?-?\d+[.,]\d{2})(?:\s*[A-Za-z])?\s*$`)
	leadingShortCode = regexp.MustCompile(`^\d{4,}\s*`)
)

type multiplierPhase int

const (
	noMultiplier multiplierPhase = iota
	awaitingPrice
	multiplierReady
)

// pendingMultiplier is the only state carried between lines: nothing,
// a quantity waiting for its unit price, or a complete quantity × price.
type pendingMultiplier struct {
	phase     multiplierPhase
	quantity  int
	unitPrice decimal.Decimal
}

func noPending() pendingMultiplier { return pendingMultiplier{} }

func awaiting(quantity int) pendingMultiplier {
	return pendingMultiplier{phase: awaitingPrice, quantity: quantity}
}

func ready(quantity int, unitPrice decimal.Decimal) pendingMultiplier {
	return pendingMultiplier{phase: multiplierReady, quantity: quantity, unitPrice: unitPrice}
}

// LineExtraction is the output of the free-text extractor for one image.
type LineExtraction struct {
	Candidates     []Candidate
	Rejected       int
	UsedMultiplier bool
}

// ExtractLineItems scans body lines forward once. "N x P.PP", or "N x"
// followed by "P.PP", arms a multiplier that the next priced line consumes:
// its quantity and unit price replace whatever price that line printed.
func ExtractLineItems(body []models.Block) LineExtraction {
	var out LineExtraction
	pending := noPending()

	for _, line := range body {
		text := strings.TrimSpace(line.Text)

		if isTimestamp(text) {
			continue
		}
		if m := fullMultiplier.FindStringSubmatch(text); m != nil {
			pending = ready(atoi(m[1]), NormalizePrice(m[2]))
			continue
		}
		if m := quantityOnly.FindStringSubmatch(text); m != nil {
			pending = awaiting(atoi(m[1]))
			continue
		}
		if pending.phase == awaitingPrice && priceOnly.MatchString(text) {
			pending = ready(pending.quantity, NormalizePrice(text))
			continue
		}

		m := itemWithPrice.FindStringSubmatch(text)
		if m == nil {
			pending = noPending()
			continue
		}
		amount := NormalizePrice(m[2])
		if amount.IsZero() || amount.Abs().GreaterThan(maxItemPrice) {
			pending = noPending()
			continue
		}
		name := cleanLineName(m[1])
		if len(name) < 2 {
			pending = noPending()
			continue
		}
		if IsNonItemText(text) || IsNonItemText(name) {
			out.Rejected++
			pending = noPending()
			continue
		}

		candidate := newCandidate(name, amount, FromLine, line.Geometry)
		switch pending.phase {
		case multiplierReady:
			candidate.Quantity = pending.quantity
			candidate.UnitPrice = pending.unitPrice.Round(2)
			candidate.TotalPrice = pending.unitPrice.Mul(decimal.NewFromInt(int64(pending.quantity))).Round(2)
			out.UsedMultiplier = true
		case awaitingPrice, noMultiplier:
		}
		if candidate.TotalPrice.IsZero() {
			pending = noPending()
			continue
		}
		out.Candidates = append(out.Candidates, candidate)
		pending = noPending()
	}
	return out
}

func isTimestamp(text string) bool {
	for _, re := range timestampLines {
		if re.MatchString(text) {
			return true
		}
	}
	return false
}

func cleanLineName(text string) string {
	text = leadingShortCode.ReplaceAllString(strings.TrimSpace(text), "")
	text = trailingTaxMarker.ReplaceAllString(text, "")
	return strings.Trim(text, " *#")
}

func atoi(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}
