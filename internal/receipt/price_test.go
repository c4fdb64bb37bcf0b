package receipt

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("NormalizePrice", func() {
	DescribeTable("normalizing tokens",
		func(token, expected string) {
			Expect(NormalizePrice(token)).To(beDecimal(expected))
		},
		Entry("canonical amount", "12.34", "12.34"),
		Entry("currency symbol", "£2.99", "2.99"),
		Entry("currency symbol with space", "£ 2.99", "2.99"),
		Entry("pence convention", "1234", "12.34"),
		Entry("three-digit pence", "199", "1.99"),
		Entry("negative pence keeps sign", "-1234", "-12.34"),
		Entry("comma decimal", "3,50", "3.50"),
		Entry("negative after currency", "£-0.30", "-0.30"),
		Entry("negative before currency", "-£0.30", "-0.30"),
		Entry("trailing tax marker", "1.20A", "1.20"),
		Entry("overflow guard", "1500.00", "15.00"),
		Entry("negative values skip the guard", "-1500.00", "-1500.00"),
		Entry("two digits are whole units", "12", "12.00"),
		Entry("unparseable", "abc", "0"),
		Entry("empty", "", "0"),
	)

	It("is idempotent for canonical amounts", func() {
		for _, token := range []string{"0.01", "1.20", "12.34", "99.99", "499.00"} {
			once := NormalizePrice(token)
			Expect(NormalizePrice(once.StringFixed(2))).To(beDecimal(once.StringFixed(2)))
		}
	})
})
