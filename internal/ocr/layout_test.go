package ocr

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"receipts/pkg/models"
)

func fragment(id, text string, left, top, width, height float64) models.Block {
	return models.Block{
		ID:       id,
		Kind:     models.BlockLine,
		Text:     text,
		Geometry: &models.Geometry{Left: left, Top: top, Width: width, Height: height},
	}
}

var _ = Describe("assembleRows", func() {
	var (
		fragments []models.Block
		lines     []models.Block
	)

	JustBeforeEach(func() {
		lines = assembleRows(fragments)
	})

	When("a name and its price are separate fragments on one row", func() {
		BeforeEach(func() {
			fragments = []models.Block{
				fragment("b", "1.50", 0.80, 0.301, 0.10, 0.02),
				fragment("a", "Milk", 0.05, 0.300, 0.20, 0.02),
				fragment("c", "Bread", 0.05, 0.340, 0.20, 0.02),
			}
		})

		It("should join them left to right", func() {
			Expect(lines).To(HaveLen(2))
			Expect(lines[0].Text).To(Equal("Milk 1.50"))
			Expect(lines[0].ID).To(Equal("a"))
			Expect(lines[1].Text).To(Equal("Bread"))
		})

		It("should cover both fragments with the row box", func() {
			g := lines[0].Geometry
			Expect(g.Left).To(BeNumerically("~", 0.05, 1e-9))
			Expect(g.Top).To(BeNumerically("~", 0.300, 1e-9))
			Expect(g.Left + g.Width).To(BeNumerically("~", 0.90, 1e-9))
		})
	})

	When("rows are out of order", func() {
		BeforeEach(func() {
			fragments = []models.Block{
				fragment("2", "Total 2.60", 0.05, 0.60, 0.5, 0.02),
				fragment("1", "Milk 1.50", 0.05, 0.30, 0.5, 0.02),
			}
		})

		It("should order them top to bottom", func() {
			Expect(lines[0].Text).To(Equal("Milk 1.50"))
			Expect(lines[1].Text).To(Equal("Total 2.60"))
		})
	})

	When("a fragment has no geometry", func() {
		BeforeEach(func() {
			fragments = []models.Block{
				{ID: "x", Kind: models.BlockLine, Text: "Second"},
				fragment("y", "First", 0, 0, 1, 0.1),
			}
		})

		It("should keep the service order", func() {
			Expect(lines).To(Equal(fragments))
		})
	})
})

var _ = Describe("Credentials", func() {
	It("should prefer inline JSON", func() {
		Expect(Credentials{JSON: "{}", File: "key.json"}.options()).To(HaveLen(1))
	})

	It("should fall back to default credentials", func() {
		Expect(Credentials{}.options()).To(BeEmpty())
	})
})
