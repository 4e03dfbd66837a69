// Package pdftext recovers the raw text of a previously rendered invoice PDF so the
// embedded payload can be extracted and decoded.
//
// Three backends are available:
//   - pdf: reads the PDF text layer directly (no network access)
//   - vision: Google Cloud Vision document text detection
//   - documentai: Google Document AI OCR processor
//
// The cloud backends read credentials from GOOGLE_CREDENTIALS (inline JSON) or
// GOOGLE_APPLICATION_CREDENTIALS (file path), falling back to application default
// credentials.
package pdftext

import (
	"context"
	"fmt"
	"io"
	"time"
)

const (
	BackendLayer      = "pdf"
	BackendVision     = "vision"
	BackendDocumentAI = "documentai"

	// MaxFileSizeBytes is the largest document accepted by any backend (20MB)
	MaxFileSizeBytes = 20 * 1024 * 1024

	// DefaultTimeout bounds a single cloud extraction call
	DefaultTimeout = 60 * time.Second
)

// Extractor returns the raw text of a PDF document.
type Extractor interface {
	ExtractText(ctx context.Context, pdfData io.Reader) (string, error)
}

// Config selects and configures an Extractor.
type Config struct {
	Backend         string
	ProjectID       string
	Location        string
	ProcessorID     string
	CredentialsJSON string
	CredentialsFile string
	Timeout         time.Duration
}

// New builds the Extractor named by cfg.Backend. The returned close function
// releases any client connections and is never nil.
func New(ctx context.Context, cfg Config) (Extractor, func() error, error) {
	const op = "New"
	noop := func() error { return nil }

	switch cfg.Backend {
	case "", BackendLayer:
		return NewLayerExtractor(), noop, nil
	case BackendVision:
		ex, err := NewVisionExtractor(ctx, cfg)
		if err != nil {
			return nil, noop, err
		}
		return ex, ex.Close, nil
	case BackendDocumentAI:
		ex, err := NewDocumentAIExtractor(ctx, cfg)
		if err != nil {
			return nil, noop, err
		}
		return ex, ex.Close, nil
	}
	return nil, noop, WrapExtractionError(op, ErrUnknownBackend, fmt.Sprintf("backend: %q", cfg.Backend))
}

// readPDF reads the whole document and applies the size and header checks
// shared by all backends.
func readPDF(op string, pdfData io.Reader) ([]byte, error) {
	pdfBytes, err := io.ReadAll(io.LimitReader(pdfData, MaxFileSizeBytes+1))
	if err != nil {
		return nil, WrapExtractionError(op, err, "failed to read PDF data")
	}

	if len(pdfBytes) > MaxFileSizeBytes {
		return nil, WrapExtractionError(op, ErrPDFTooLarge, fmt.Sprintf("file size exceeds %d bytes", MaxFileSizeBytes))
	}

	if len(pdfBytes) < 4 || string(pdfBytes[:4]) != "%PDF" {
		return nil, WrapExtractionError(op, ErrInvalidPDF, "missing PDF header")
	}

	return pdfBytes, nil
}

func (c Config) timeout() time.Duration {
	if c.Timeout > 0 {
		return c.Timeout
	}
	return DefaultTimeout
}
