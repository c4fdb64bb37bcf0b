package ocr

import (
	"context"
	"errors"
	"fmt"
)

// Common document analysis errors
var (
	// ErrImageTooLarge is returned when the image exceeds MaxImageSizeBytes.
	ErrImageTooLarge = errors.New("image size exceeds the maximum limit (20MB)")

	// ErrInvalidImage is returned when the image cannot be decoded or is rejected by the service.
	ErrInvalidImage = errors.New("invalid or corrupted image")

	// ErrEmptyDocument is returned when the service finds no text in the image.
	ErrEmptyDocument = errors.New("document contains no readable text")

	// ErrProcessingFailed is returned when the service call fails for an unclassified reason.
	ErrProcessingFailed = errors.New("document analysis failed")

	// ErrMissingCredentials is returned when neither GOOGLE_APPLICATION_CREDENTIALS
	// nor GOOGLE_CREDENTIALS is configured and no default credentials exist.
	ErrMissingCredentials = errors.New("missing Google Cloud credentials: set GOOGLE_APPLICATION_CREDENTIALS or GOOGLE_CREDENTIALS environment variable")

	// ErrInvalidCredentials is returned when credentials lack the required permissions.
	ErrInvalidCredentials = errors.New("invalid Google Cloud credentials")

	// ErrInvalidConfiguration is returned when the analyzer configuration is incomplete.
	ErrInvalidConfiguration = errors.New("invalid document analysis configuration")

	// ErrProcessorNotFound is returned when the Document AI processor does not exist.
	ErrProcessorNotFound = errors.New("Document AI processor not found")

	// ErrQuotaExceeded is returned when API quota limits are exceeded.
	ErrQuotaExceeded = errors.New("document analysis API quota exceeded")

	// ErrContextCanceled is returned when the context is canceled during processing.
	ErrContextCanceled = errors.New("document analysis was canceled")
)

// OCRError wraps errors with additional context about the analysis failure.
type OCRError struct {
	// Op is the operation that failed (e.g., "Analyze", "NewVisionAnalyzer").
	Op string

	// Err is the underlying error.
	Err error

	// Details provides additional context about the failure.
	Details string
}

// Error implements the error interface.
func (e *OCRError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("ocr: %s failed: %s: %v", e.Op, e.Details, e.Err)
	}
	return fmt.Sprintf("ocr: %s failed: %v", e.Op, e.Err)
}

// Unwrap returns the underlying error for error unwrapping.
func (e *OCRError) Unwrap() error {
	return e.Err
}

// Is implements error matching for Go 1.13+ error handling.
func (e *OCRError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// NewOCRError creates a new OCRError with the specified operation and underlying error.
func NewOCRError(op string, err error, details string) *OCRError {
	return &OCRError{
		Op:      op,
		Err:     err,
		Details: details,
	}
}

// WrapOCRError wraps an error as an OCRError if it isn't already one.
func WrapOCRError(op string, err error, details string) error {
	if err == nil {
		return nil
	}

	var ocrErr *OCRError
	if errors.As(err, &ocrErr) {
		return err // Already wrapped
	}

	return NewOCRError(op, err, details)
}

// IsFatal reports whether err means the service itself is unusable, as
// opposed to a problem with one particular image.
func IsFatal(err error) bool {
	switch {
	case err == nil:
		return false
	case errors.Is(err, ErrMissingCredentials),
		errors.Is(err, ErrInvalidCredentials),
		errors.Is(err, ErrInvalidConfiguration),
		errors.Is(err, ErrProcessorNotFound),
		errors.Is(err, ErrQuotaExceeded),
		errors.Is(err, ErrContextCanceled),
		errors.Is(err, context.Canceled),
		errors.Is(err, context.DeadlineExceeded):
		return true
	default:
		return false
	}
}
