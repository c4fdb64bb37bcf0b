package receipt

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/shopspring/decimal"

	"receipts/pkg/models"
)

func item(total string) models.Item {
	return models.Item{Name: "x", Quantity: 1, UnitPrice: dec(total), TotalPrice: dec(total)}
}

var _ = Describe("Reconcile", func() {
	var (
		items        []models.Item
		printedTotal *decimal.Decimal
		printedCount *int
		rec          models.Reconciliation
	)

	BeforeEach(func() {
		printedTotal, printedCount = nil, nil
	})

	JustBeforeEach(func() {
		rec = Reconcile(items, printedTotal, printedCount)
	})

	When("the printed total exceeds the items by more than the tolerance", func() {
		BeforeEach(func() {
			items = []models.Item{item("20.00"), item("4.50")}
			total := dec("25.00")
			printedTotal = &total
		})

		It("should report a mismatch", func() {
			Expect(rec.ComputedTotal).To(beDecimal("24.50"))
			Expect(*rec.TotalDelta).To(beDecimal("0.50"))
			Expect(rec.TotalMismatch).To(BeTrue())
		})
	})

	When("the difference is exactly the tolerance", func() {
		BeforeEach(func() {
			items = []models.Item{item("24.95")}
			total := dec("25.00")
			printedTotal = &total
		})

		It("should not report a mismatch", func() {
			Expect(*rec.TotalDelta).To(beDecimal("0.05"))
			Expect(rec.TotalMismatch).To(BeFalse())
		})
	})

	When("items are below the printed total", func() {
		BeforeEach(func() {
			items = []models.Item{item("26.00")}
			total := dec("25.00")
			printedTotal = &total
		})

		It("should report a negative delta", func() {
			Expect(*rec.TotalDelta).To(beDecimal("-1.00"))
			Expect(rec.TotalMismatch).To(BeTrue())
		})
	})

	When("some items are not positive", func() {
		BeforeEach(func() {
			items = []models.Item{item("2.00"), item("0.00"), item("-0.50")}
			count := 1
			printedCount = &count
		})

		It("should leave them out of the total and count", func() {
			Expect(rec.ComputedTotal).To(beDecimal("2.00"))
			Expect(rec.ComputedCount).To(Equal(1))
			Expect(*rec.CountDelta).To(BeZero())
			Expect(rec.CountMismatch).To(BeFalse())
		})
	})

	When("the printed count differs", func() {
		BeforeEach(func() {
			items = []models.Item{item("1.00")}
			count := 3
			printedCount = &count
		})

		It("should report a count mismatch", func() {
			Expect(*rec.CountDelta).To(Equal(2))
			Expect(rec.CountMismatch).To(BeTrue())
		})
	})

	When("nothing was printed", func() {
		BeforeEach(func() {
			items = []models.Item{item("1.00")}
		})

		It("should leave deltas empty", func() {
			Expect(rec.TotalDelta).To(BeNil())
			Expect(rec.CountDelta).To(BeNil())
			Expect(rec.TotalMismatch).To(BeFalse())
			Expect(rec.CountMismatch).To(BeFalse())
		})
	})
})
