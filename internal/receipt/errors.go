package receipt

import (
	"errors"
	"fmt"
)

// Common receipt parsing errors
var (
	// ErrNoImages is returned when a parse is requested without any image reference.
	ErrNoImages = errors.New("at least one receipt image is required")

	// ErrAnalysisFailed is returned when the document-analysis service is unusable
	// for the whole invocation (credentials, quota, configuration).
	ErrAnalysisFailed = errors.New("receipt analysis failed")

	// ErrInvalidBlocks is returned when serialized blocks cannot be read back.
	ErrInvalidBlocks = errors.New("invalid serialized blocks")
)

// ParseError wraps errors with the operation and run that failed.
type ParseError struct {
	// Op is the operation that failed (e.g., "ParseReceipt").
	Op string

	// Err is the underlying error.
	Err error

	// Details provides additional context about the failure.
	Details string

	// RunID identifies the parse invocation (if available).
	RunID string
}

// Error implements the error interface.
func (e *ParseError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("receipt: %s failed: %s: %v", e.Op, e.Details, e.Err)
	}
	if e.RunID != "" {
		return fmt.Sprintf("receipt: %s failed (run: %s): %v", e.Op, e.RunID, e.Err)
	}
	return fmt.Sprintf("receipt: %s failed: %v", e.Op, e.Err)
}

// Unwrap returns the underlying error for error unwrapping.
func (e *ParseError) Unwrap() error {
	return e.Err
}

// Is implements error matching for Go 1.13+ error handling.
func (e *ParseError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// NewParseError creates a new ParseError with the specified operation and underlying error.
func NewParseError(op string, err error, details string) *ParseError {
	return &ParseError{
		Op:      op,
		Err:     err,
		Details: details,
	}
}
