package pdftext

import (
	"errors"
	"fmt"
)

// Common text extraction errors
var (
	// ErrPDFTooLarge is returned when the PDF exceeds MaxFileSizeBytes.
	ErrPDFTooLarge = errors.New("PDF file size exceeds the maximum limit (20MB)")

	// ErrInvalidPDF is returned when the provided data is not a valid PDF document.
	ErrInvalidPDF = errors.New("invalid or corrupted PDF document")

	// ErrExtractionFailed is returned when a backend fails to process the document.
	ErrExtractionFailed = errors.New("text extraction failed")

	// ErrMissingCredentials is returned when no Google Cloud credentials can be found.
	ErrMissingCredentials = errors.New("missing Google Cloud credentials: set GOOGLE_APPLICATION_CREDENTIALS or GOOGLE_CREDENTIALS environment variable")

	// ErrInvalidConfiguration is returned when a backend is missing required settings.
	ErrInvalidConfiguration = errors.New("invalid text extractor configuration")

	// ErrUnknownBackend is returned for a backend name other than pdf, vision or documentai.
	ErrUnknownBackend = errors.New("unknown text extractor backend")

	// ErrEmptyDocument is returned when the PDF contains no readable text.
	ErrEmptyDocument = errors.New("document contains no readable text")
)

// ExtractionError wraps errors with the failing operation and extra detail.
type ExtractionError struct {
	Op      string
	Err     error
	Details string
}

// Error implements the error interface.
func (e *ExtractionError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("pdftext: %s failed: %s: %v", e.Op, e.Details, e.Err)
	}
	return fmt.Sprintf("pdftext: %s failed: %v", e.Op, e.Err)
}

// Unwrap returns the underlying error for error unwrapping.
func (e *ExtractionError) Unwrap() error {
	return e.Err
}

// Is implements error matching for errors.Is.
func (e *ExtractionError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// WrapExtractionError wraps an error as an ExtractionError if it isn't already one.
func WrapExtractionError(op string, err error, details string) error {
	if err == nil {
		return nil
	}

	var exErr *ExtractionError
	if errors.As(err, &exErr) {
		return err
	}

	return &ExtractionError{Op: op, Err: err, Details: details}
}
