package pdftext

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/ledongthuc/pdf"
	"github.com/rs/zerolog"

	"invoicer/internal/logger"
)

// LayerExtractor reads the text layer embedded in the PDF. It sees text drawn in
// any colour, including the invisible payload block.
type LayerExtractor struct {
	log zerolog.Logger
}

// NewLayerExtractor creates an extractor that needs no external service.
func NewLayerExtractor() *LayerExtractor {
	return &LayerExtractor{log: logger.WithComponent("pdftext")}
}

// ExtractText returns the plain text of every page in document order.
func (l *LayerExtractor) ExtractText(ctx context.Context, pdfData io.Reader) (text string, err error) {
	const op = "LayerExtractText"

	pdfBytes, err := readPDF(op, pdfData)
	if err != nil {
		return "", err
	}
	if err := ctx.Err(); err != nil {
		return "", WrapExtractionError(op, err, "canceled before parsing")
	}

	// The parser panics on some malformed cross-reference tables.
	defer func() {
		if r := recover(); r != nil {
			text, err = "", WrapExtractionError(op, ErrInvalidPDF, fmt.Sprintf("parser panic: %v", r))
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(pdfBytes), int64(len(pdfBytes)))
	if err != nil {
		return "", WrapExtractionError(op, ErrInvalidPDF, err.Error())
	}

	plain, err := reader.GetPlainText()
	if err != nil {
		return "", WrapExtractionError(op, ErrExtractionFailed, err.Error())
	}

	var buf strings.Builder
	if _, err := io.Copy(&buf, plain); err != nil {
		return "", WrapExtractionError(op, err, "failed to read text layer")
	}

	l.log.Debug().
		Int("pages", reader.NumPage()).
		Int("chars", buf.Len()).
		Msg("Text layer extracted")

	if strings.TrimSpace(buf.String()) == "" {
		return "", WrapExtractionError(op, ErrEmptyDocument, "no text layer")
	}
	return buf.String(), nil
}
