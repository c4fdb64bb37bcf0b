package receipt

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/shopspring/decimal"
)

var _ = Describe("Metadata", func() {
	var meta *Metadata

	BeforeEach(func() {
		meta = &Metadata{UnallocatedDiscounts: decimal.Zero}
	})

	Describe("Absorb", func() {
		When("a single image has every field", func() {
			BeforeEach(func() {
				meta.Absorb(Sectionize(textLines(
					"TESCO EXTRA",
					"Tel 01234 567890",
					"Kingston Upon Thames",
					"Milk 1.50",
					"Bread 1.10",
					"Total £2.60",
					"2 items",
					"12/03/2024 14:22",
				)))
			})

			It("should take the first header line as store name", func() {
				Expect(meta.StoreName).To(Equal("TESCO EXTRA"))
			})

			It("should take the next plausible header line as location", func() {
				Expect(meta.StoreLocation).To(Equal("Kingston Upon Thames"))
			})

			It("should find the purchase date anywhere", func() {
				Expect(meta.PurchaseDate).To(Equal("12/03/2024"))
			})

			It("should find the printed item count in the footer", func() {
				Expect(meta.PrintedCount).NotTo(BeNil())
				Expect(*meta.PrintedCount).To(Equal(2))
			})

			It("should find the printed total", func() {
				Expect(meta.PrintedTotal).NotTo(BeNil())
				Expect(*meta.PrintedTotal).To(beDecimal("2.60"))
				Expect(meta.TotalFromOCR).To(BeTrue())
			})
		})

		When("several images are absorbed", func() {
			BeforeEach(func() {
				meta.Absorb(Sectionize(textLines("ALDI", "Milk 1.50")))
				meta.Absorb(Sectionize(textLines("LIDL", "Croydon", "Total 9.99")))
			})

			It("should keep the first store name", func() {
				Expect(meta.StoreName).To(Equal("ALDI"))
			})

			It("should fill fields the first image lacked", func() {
				Expect(*meta.PrintedTotal).To(beDecimal("9.99"))
			})
		})

		When("the footer has a subtotal above the grand total", func() {
			BeforeEach(func() {
				meta.Absorb(Sectionize(textLines("Shop", "Subtotal 10.00", "Savings -1.00", "Total 9.00")))
			})

			It("should prefer the bottom-most total", func() {
				Expect(*meta.PrintedTotal).To(beDecimal("9.00"))
			})
		})

		When("the only total line is negative", func() {
			BeforeEach(func() {
				meta.Absorb(Sectionize(textLines("Shop", "Total savings -1.50")))
			})

			It("should not record a printed total", func() {
				Expect(meta.PrintedTotal).To(BeNil())
			})
		})

		When("a total line carries a count instead of an amount", func() {
			BeforeEach(func() {
				meta.Absorb(Sectionize(textLines("Shop", "Milk 1.50", "Total 3 items")))
			})

			It("should not read the count as a total", func() {
				Expect(meta.PrintedTotal).To(BeNil())
			})

			It("should still read the count", func() {
				Expect(*meta.PrintedCount).To(Equal(3))
			})
		})

		When("the total is printed in pence", func() {
			BeforeEach(func() {
				meta.Absorb(Sectionize(textLines("Shop", "TOTAL 1234")))
			})

			It("should apply the pence convention", func() {
				Expect(*meta.PrintedTotal).To(beDecimal("12.34"))
			})
		})

		When("the item count is printed above the total", func() {
			BeforeEach(func() {
				meta.Absorb(Sectionize(textLines("3 items", "Total 4.00")))
			})

			It("should still find the count", func() {
				Expect(meta.PrintedCount).NotTo(BeNil())
				Expect(*meta.PrintedCount).To(Equal(3))
			})

			It("should not mistake the count for a store name", func() {
				Expect(meta.StoreName).To(BeEmpty())
			})
		})
	})

	Describe("ApplyHints", func() {
		var total decimal.Decimal

		BeforeEach(func() {
			total = dec("12.345")
		})

		When("nothing was extracted", func() {
			BeforeEach(func() {
				meta.ApplyHints(Hints{StoreName: " Corner Shop ", Total: &total})
			})

			It("should use the hints", func() {
				Expect(meta.StoreName).To(Equal("Corner Shop"))
				Expect(*meta.PrintedTotal).To(beDecimal("12.35"))
			})

			It("should not mark the total as extracted", func() {
				Expect(meta.TotalFromOCR).To(BeFalse())
			})
		})

		When("values were extracted", func() {
			BeforeEach(func() {
				meta.Absorb(Sectionize(textLines("ASDA", "Total 3.00")))
				meta.ApplyHints(Hints{StoreName: "Other", Total: &total})
			})

			It("should never override them", func() {
				Expect(meta.StoreName).To(Equal("ASDA"))
				Expect(*meta.PrintedTotal).To(beDecimal("3.00"))
				Expect(meta.TotalFromOCR).To(BeTrue())
			})
		})
	})

	Describe("mergeIfAbsent", func() {
		It("should set an empty field once", func() {
			field := ""
			Expect(mergeIfAbsent(&field, "first")).To(BeTrue())
			Expect(mergeIfAbsent(&field, "second")).To(BeFalse())
			Expect(field).To(Equal("first"))
		})

		It("should ignore empty values", func() {
			field := ""
			Expect(mergeIfAbsent(&field, "")).To(BeFalse())
		})
	})
})
