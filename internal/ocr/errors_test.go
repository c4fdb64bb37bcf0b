package ocr

import (
	"context"
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("IsFatal", func() {
	DescribeTable("classifying errors",
		func(err error, fatal bool) {
			Expect(IsFatal(err)).To(Equal(fatal))
		},
		Entry("nil", nil, false),
		Entry("missing credentials", WrapOCRError("op", ErrMissingCredentials, ""), true),
		Entry("invalid credentials", WrapOCRError("op", ErrInvalidCredentials, ""), true),
		Entry("quota", WrapOCRError("op", ErrQuotaExceeded, ""), true),
		Entry("processor not found", WrapOCRError("op", ErrProcessorNotFound, ""), true),
		Entry("configuration", WrapOCRError("op", ErrInvalidConfiguration, ""), true),
		Entry("canceled", WrapOCRError("op", ErrContextCanceled, ""), true),
		Entry("deadline", WrapOCRError("op", context.DeadlineExceeded, ""), true),
		Entry("invalid image", WrapOCRError("op", ErrInvalidImage, ""), false),
		Entry("empty document", WrapOCRError("op", ErrEmptyDocument, ""), false),
		Entry("too large", WrapOCRError("op", ErrImageTooLarge, ""), false),
		Entry("unclassified", WrapOCRError("op", ErrProcessingFailed, ""), false),
	)
})

var _ = Describe("classifyServiceError", func() {
	DescribeTable("mapping service failures",
		func(message string, expected error) {
			err := classifyServiceError("Analyze", errors.New(message), "missing")
			Expect(errors.Is(err, expected)).To(BeTrue())
		},
		Entry("permission", "rpc error: code = PermissionDenied desc = no access", ErrInvalidCredentials),
		Entry("quota", "rpc error: code = ResourceExhausted desc = quota", ErrQuotaExceeded),
		Entry("not found", "rpc error: code = NotFound desc = processor", ErrProcessorNotFound),
		Entry("bad image", "rpc error: code = InvalidArgument desc = unsupported", ErrInvalidImage),
		Entry("timeout", "rpc error: code = DeadlineExceeded desc = slow", context.DeadlineExceeded),
		Entry("other", "rpc error: code = Unavailable desc = try later", ErrProcessingFailed),
	)
})

var _ = Describe("WrapOCRError", func() {
	It("should not wrap twice", func() {
		inner := WrapOCRError("inner", ErrInvalidImage, "bad")
		Expect(WrapOCRError("outer", inner, "again")).To(BeIdenticalTo(inner))
	})

	It("should pass nil through", func() {
		Expect(WrapOCRError("op", nil, "")).To(BeNil())
	})
})
