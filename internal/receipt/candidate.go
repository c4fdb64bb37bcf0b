package receipt

import (
	"github.com/shopspring/decimal"

	"receipts/pkg/models"
)

// Provenance records which extractor produced a candidate.
type Provenance string

const (
	FromTable Provenance = "TABLE"
	FromLine  Provenance = "LINE"
)

// DefaultCategory is assigned to every item; categorization happens downstream.
const DefaultCategory = "other"

// Candidate is a tentatively parsed line item. Provenance, Image, Geometry
// and Discount are internal to the pipeline and dropped from the final items.
type Candidate struct {
	Name             string
	Quantity         int
	UnitPrice        decimal.Decimal
	TotalPrice       decimal.Decimal
	DiscountApplied  decimal.Decimal
	OfferDescription string
	Category         string

	Provenance Provenance
	Image      int
	Geometry   *models.Geometry
	Discount   bool
}

func newCandidate(name string, price decimal.Decimal, provenance Provenance, geometry *models.Geometry) Candidate {
	price = price.Round(2)
	return Candidate{
		Name:       name,
		Quantity:   1,
		UnitPrice:  price,
		TotalPrice: price,
		Category:   DefaultCategory,
		Provenance: provenance,
		Geometry:   geometry,
		Discount:   price.IsNegative() || IsDiscountText(name),
	}
}

// Item strips the pipeline-internal fields.
func (c Candidate) Item() models.Item {
	return models.Item{
		Name:             c.Name,
		Quantity:         c.Quantity,
		UnitPrice:        c.UnitPrice,
		TotalPrice:       c.TotalPrice,
		DiscountApplied:  c.DiscountApplied,
		OfferDescription: c.OfferDescription,
		Category:         c.Category,
	}
}
