package receipt

import (
	"context"
	"errors"
	"sync"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"receipts/internal/ocr"
	"receipts/internal/source"
	"receipts/pkg/models"
)

type fakeLoader struct {
	images map[string]source.Image
}

func (f *fakeLoader) LoadAll(_ context.Context, refs []string) []source.Image {
	out := make([]source.Image, len(refs))
	for i, ref := range refs {
		img, ok := f.images[ref]
		if !ok {
			img = source.Image{Err: errors.New("not found")}
		}
		img.Ref = ref
		out[i] = img
	}
	return out
}

// fakeAnalyzer maps image bytes to blocks or errors.
type fakeAnalyzer struct {
	mu     sync.Mutex
	blocks map[string][]models.Block
	errs   map[string]error
	calls  int
	closed bool
}

func (f *fakeAnalyzer) Analyze(_ context.Context, image []byte, _ string) ([]models.Block, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	if err, ok := f.errs[string(image)]; ok {
		return nil, err
	}
	return f.blocks[string(image)], nil
}

func (f *fakeAnalyzer) Close() error {
	f.closed = true
	return nil
}

var _ = Describe("Service", func() {
	var (
		loader   *fakeLoader
		analyzer *fakeAnalyzer
		service  *Service
		refs     []string
		result   *models.ParseResult
		err      error
	)

	BeforeEach(func() {
		loader = &fakeLoader{images: map[string]source.Image{
			"table.jpg":  {Data: []byte("table"), MimeType: "image/jpeg"},
			"footer.jpg": {Data: []byte("footer"), MimeType: "image/jpeg"},
			"blurry.jpg": {Data: []byte("blurry"), MimeType: "image/jpeg"},
		}}
		analyzer = &fakeAnalyzer{
			blocks: map[string][]models.Block{
				"table":  table("t0", []string{"Bananas", "1.20"}),
				"footer": textLines("1 items", "Total: £1.20"),
			},
			errs: map[string]error{
				"blurry": ocr.WrapOCRError("Analyze", ocr.ErrEmptyDocument, "no text detected"),
			},
		}
		service = NewService(loader, analyzer, ServiceConfig{Concurrency: 2})
	})

	Describe("ParseReceipt", func() {
		JustBeforeEach(func() {
			result, err = service.ParseReceipt(context.Background(), refs, Hints{})
		})

		When("every image is analyzed", func() {
			BeforeEach(func() {
				refs = []string{"table.jpg", "footer.jpg"}
			})

			It("should not return an error", func() {
				Expect(err).NotTo(HaveOccurred())
			})

			It("should combine the images in order", func() {
				Expect(result.Items).To(HaveLen(1))
				Expect(result.Items[0].Name).To(Equal("Bananas"))
				Expect(*result.PrintedTotal).To(beDecimal("1.20"))
				Expect(result.Reconciliation.TotalMismatch).To(BeFalse())
			})

			It("should record the run", func() {
				Expect(result.Run.ID).NotTo(BeEmpty())
				Expect(result.Run.ImagesSupplied).To(Equal(2))
				Expect(result.Run.ImagesWithData).To(Equal(2))
			})
		})

		When("some images fail to load or analyze", func() {
			BeforeEach(func() {
				refs = []string{"missing.jpg", "blurry.jpg", "table.jpg"}
			})

			It("should skip them and parse the rest", func() {
				Expect(err).NotTo(HaveOccurred())
				Expect(result.Items).To(HaveLen(1))
				Expect(result.Run.ImagesSupplied).To(Equal(3))
				Expect(result.Run.ImagesWithData).To(Equal(1))
			})

			It("should only analyze images that loaded", func() {
				Expect(analyzer.calls).To(Equal(2))
			})
		})

		When("the analysis service is unusable", func() {
			BeforeEach(func() {
				refs = []string{"table.jpg", "footer.jpg"}
				analyzer.errs["footer"] = ocr.WrapOCRError("Analyze", ocr.ErrQuotaExceeded, "API quota exceeded")
			})

			It("should abort without a result", func() {
				Expect(result).To(BeNil())
				Expect(err).To(HaveOccurred())
			})

			It("should wrap the cause", func() {
				var parseErr *ParseError
				Expect(errors.As(err, &parseErr)).To(BeTrue())
				Expect(parseErr.RunID).NotTo(BeEmpty())
				Expect(errors.Is(err, ErrAnalysisFailed)).To(BeTrue())
				Expect(errors.Is(err, ocr.ErrQuotaExceeded)).To(BeTrue())
			})
		})

		When("no images are given", func() {
			BeforeEach(func() {
				refs = nil
			})

			It("should return ErrNoImages", func() {
				Expect(errors.Is(err, ErrNoImages)).To(BeTrue())
			})
		})
	})

	Describe("AnalyzeBlocks", func() {
		It("should return blocks per image with empty entries for skipped ones", func() {
			pages, err := service.AnalyzeBlocks(context.Background(), []string{"blurry.jpg", "table.jpg"})
			Expect(err).NotTo(HaveOccurred())
			Expect(pages).To(HaveLen(2))
			Expect(pages[0]).NotTo(BeNil())
			Expect(pages[0]).To(BeEmpty())
			Expect(pages[1]).To(HaveLen(3))
		})
	})
})
