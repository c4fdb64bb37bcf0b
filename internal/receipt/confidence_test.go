package receipt

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"receipts/pkg/models"
)

var _ = Describe("Score", func() {
	DescribeTable("scoring",
		func(in ScoreInputs, expected int) {
			Expect(Score(in)).To(Equal(expected))
		},
		Entry("nothing found", ScoreInputs{}, 0),
		Entry("one table item with a total", ScoreInputs{ItemCount: 1, ValidPriceRatio: 1, TableItems: 1, HasTotal: true}, 45),
		Entry("partial price ratio", ScoreInputs{ItemCount: 2, ValidPriceRatio: 0.5, LineItems: 2}, 30),
		Entry("ratio at the cap", ScoreInputs{ItemCount: 4, ValidPriceRatio: 0.8, LineItems: 4}, 50),
		Entry("every signal", ScoreInputs{ItemCount: 12, ValidPriceRatio: 1, TableItems: 6, LineItems: 6, HasTotal: true}, 90),
	)

	It("never decreases when a valid item is added below five items", func() {
		for n := 0; n < 5; n++ {
			before := Score(ScoreInputs{ItemCount: n, ValidPriceRatio: 1, LineItems: n, HasTotal: true})
			after := Score(ScoreInputs{ItemCount: n + 1, ValidPriceRatio: 1, LineItems: n + 1, HasTotal: true})
			Expect(after).To(BeNumerically(">=", before))
		}
	})

	It("stays within 0 and 100", func() {
		Expect(Score(ScoreInputs{ItemCount: 1000, ValidPriceRatio: 5, TableItems: 1, LineItems: 1, HasTotal: true})).To(BeNumerically("<=", 100))
		Expect(Score(ScoreInputs{ItemCount: -3})).To(BeNumerically(">=", 0))
	})
})

var _ = Describe("ValidPriceRatio", func() {
	It("is zero without items", func() {
		Expect(ValidPriceRatio(nil)).To(BeZero())
	})

	It("is the share of positively priced items", func() {
		Expect(ValidPriceRatio([]models.Item{item("1.00"), item("0.00"), item("2.00"), item("-1.00")})).To(Equal(0.5))
	})
})
