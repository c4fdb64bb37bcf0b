package receipt

import (
	"strings"

	"receipts/pkg/models"
)

// headerSize is how many leading lines are considered for store identity.
const headerSize = 5

// Sections splits one image's lines into header, body and footer.
// Header overlaps body: it is simply the first few lines.
type Sections struct {
	All    []models.Block
	Header []models.Block
	Body   []models.Block
	Footer []models.Block
}

// Sectionize finds the first footer-keyword line and splits around it.
// Without a footer keyword the body is every line and the footer is empty.
func Sectionize(lines []models.Block) Sections {
	footerAt := len(lines)
	for i, line := range lines {
		if IsFooterText(strings.ToLower(line.Text)) {
			footerAt = i
			break
		}
	}

	return Sections{
		All:    lines,
		Header: lines[:min(headerSize, len(lines))],
		Body:   lines[:footerAt],
		Footer: lines[footerAt:],
	}
}
