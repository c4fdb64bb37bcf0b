package receipt

import (
	"bytes"
	"errors"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"receipts/pkg/models"
)

var _ = Describe("ReadPages", func() {
	It("should read back what WritePages wrote", func() {
		pages := [][]models.Block{
			table("t0", []string{"Bananas", "1.20"}),
			textLines("Total: £1.20"),
		}
		var buf bytes.Buffer
		Expect(WritePages(&buf, pages)).To(Succeed())

		read, err := ReadPages(&buf)
		Expect(err).NotTo(HaveOccurred())
		Expect(read).To(Equal(pages))
	})

	It("should reject malformed JSON", func() {
		_, err := ReadPages(strings.NewReader(`{"id":`))
		Expect(errors.Is(err, ErrInvalidBlocks)).To(BeTrue())
	})

	It("should reject unknown block kinds", func() {
		_, err := ReadPages(strings.NewReader(`[[{"id":"x","kind":"PARAGRAPH"}]]`))
		Expect(errors.Is(err, ErrInvalidBlocks)).To(BeTrue())
	})

	It("should reject an empty list", func() {
		_, err := ReadPages(strings.NewReader(`[]`))
		Expect(errors.Is(err, ErrNoImages)).To(BeTrue())
	})
})
