package receipt

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"receipts/pkg/models"
)

var _ = Describe("ExtractLineItems", func() {
	var (
		body   []models.Block
		result LineExtraction
	)

	JustBeforeEach(func() {
		result = ExtractLineItems(body)
	})

	When("lines end in a price", func() {
		BeforeEach(func() {
			body = textLines("Milk 1.50", "Bread £1.10 A", "0012345 Butter 2.00", "Cheese *3.40")
		})

		It("should produce one candidate per line", func() {
			Expect(result.Candidates).To(HaveLen(4))
			Expect(result.Candidates[0].Name).To(Equal("Milk"))
			Expect(result.Candidates[0].TotalPrice).To(beDecimal("1.50"))
			Expect(result.Candidates[1].Name).To(Equal("Bread"))
			Expect(result.Candidates[1].TotalPrice).To(beDecimal("1.10"))
			Expect(result.Candidates[2].Name).To(Equal("Butter"))
			Expect(result.Candidates[3].Name).To(Equal("Cheese"))
		})

		It("should mark them as line candidates", func() {
			for _, c := range result.Candidates {
				Expect(c.Provenance).To(Equal(FromLine))
				Expect(c.Quantity).To(Equal(1))
			}
			Expect(result.UsedMultiplier).To(BeFalse())
		})
	})

	When("a quantity line and a price line precede an item", func() {
		BeforeEach(func() {
			body = textLines("3 x", "1.50", "Apples 4.50")
		})

		It("should apply the multiplier", func() {
			Expect(result.Candidates).To(HaveLen(1))
			apples := result.Candidates[0]
			Expect(apples.Name).To(Equal("Apples"))
			Expect(apples.Quantity).To(Equal(3))
			Expect(apples.UnitPrice).To(beDecimal("1.50"))
			Expect(apples.TotalPrice).To(beDecimal("4.50"))
			Expect(result.UsedMultiplier).To(BeTrue())
		})
	})

	When("the multiplier disagrees with the printed price", func() {
		BeforeEach(func() {
			body = textLines("2 @ £0.75", "Yoghurt 9.99")
		})

		It("should let the multiplier override the line price", func() {
			Expect(result.Candidates).To(HaveLen(1))
			Expect(result.Candidates[0].Quantity).To(Equal(2))
			Expect(result.Candidates[0].UnitPrice).To(beDecimal("0.75"))
			Expect(result.Candidates[0].TotalPrice).To(beDecimal("1.50"))
		})
	})

	When("the multiplier is followed by a line without a price", func() {
		BeforeEach(func() {
			body = textLines("2 x 0.75", "Special offer today", "Yoghurt 0.80")
		})

		It("should drop the multiplier", func() {
			Expect(result.Candidates).To(HaveLen(1))
			Expect(result.Candidates[0].Quantity).To(Equal(1))
			Expect(result.Candidates[0].TotalPrice).To(beDecimal("0.80"))
		})
	})

	// A price-only line after a quantity-only line only resolves the unit
	// price; it never becomes an item by itself.
	When("a quantity line and a price line are not followed by an item line", func() {
		Context("and the next line has no price", func() {
			BeforeEach(func() {
				body = textLines("3 x", "1.50", "Loose onions")
			})

			It("should emit nothing", func() {
				Expect(result.Candidates).To(BeEmpty())
				Expect(result.UsedMultiplier).To(BeFalse())
			})
		})

		Context("and the body ends", func() {
			BeforeEach(func() {
				body = textLines("3 x", "1.50")
			})

			It("should emit nothing", func() {
				Expect(result.Candidates).To(BeEmpty())
			})
		})
	})

	When("a price-only line has no pending quantity", func() {
		BeforeEach(func() {
			body = textLines("1.50")
		})

		It("should not produce a nameless item", func() {
			Expect(result.Candidates).To(BeEmpty())
			Expect(result.Rejected).To(BeZero())
		})
	})

	When("lines are known non-item phrases", func() {
		BeforeEach(func() {
			body = textLines("Served by Sam 1.00", "Balance before 12.00", "Tesco Express 3.00", "Milk 1.50")
		})

		It("should reject and count them", func() {
			Expect(result.Candidates).To(HaveLen(1))
			Expect(result.Candidates[0].Name).To(Equal("Milk"))
			Expect(result.Rejected).To(Equal(3))
		})
	})

	When("lines have implausible amounts", func() {
		BeforeEach(func() {
			body = textLines("Free bag 0.00", "Fridge 600.00", "X 1.00")
		})

		It("should drop them without counting a rejection", func() {
			Expect(result.Candidates).To(BeEmpty())
			Expect(result.Rejected).To(BeZero())
		})
	})

	When("lines are timestamps", func() {
		BeforeEach(func() {
			body = textLines("12/03/2024 14:22", "14:22", "Milk 1.50")
		})

		It("should skip them", func() {
			Expect(result.Candidates).To(HaveLen(1))
		})
	})

	When("a discount line follows an item", func() {
		BeforeEach(func() {
			body = textLines("Milk 1.50", "Clubcard Discount -0.30")
		})

		It("should keep the discount as a candidate flagged for folding", func() {
			Expect(result.Candidates).To(HaveLen(2))
			Expect(result.Candidates[1].Discount).To(BeTrue())
			Expect(result.Candidates[1].TotalPrice).To(beDecimal("-0.30"))
		})
	})
})
