package pdftext

import (
	"context"
	"fmt"
	"io"
	"strings"

	documentai "cloud.google.com/go/documentai/apiv1"
	"cloud.google.com/go/documentai/apiv1/documentaipb"
	"github.com/rs/zerolog"
	"google.golang.org/api/option"

	"invoicer/internal/logger"
)

// DocumentAIExtractor implements Extractor with a Document AI OCR processor.
type DocumentAIExtractor struct {
	client *documentai.DocumentProcessorClient
	cfg    Config
	log    zerolog.Logger
}

// NewDocumentAIExtractor creates a Document AI client for cfg.Location.
// Requires ProjectID and ProcessorID.
func NewDocumentAIExtractor(ctx context.Context, cfg Config) (*DocumentAIExtractor, error) {
	const op = "NewDocumentAIExtractor"

	if cfg.ProjectID == "" {
		return nil, WrapExtractionError(op, ErrInvalidConfiguration, "GOOGLE_CLOUD_PROJECT is required")
	}
	if cfg.ProcessorID == "" {
		return nil, WrapExtractionError(op, ErrInvalidConfiguration, "DOCUMENT_AI_PROCESSOR_ID is required")
	}
	if cfg.Location == "" {
		cfg.Location = "us"
	}

	var opts []option.ClientOption
	if cfg.Location != "us" {
		opts = append(opts, option.WithEndpoint(fmt.Sprintf("%s-documentai.googleapis.com:443", cfg.Location)))
	}
	creds := credentialOptions(cfg)
	opts = append(opts, creds...)

	client, err := documentai.NewDocumentProcessorClient(ctx, opts...)
	if err != nil {
		if len(creds) == 0 {
			return nil, WrapExtractionError(op, ErrMissingCredentials, "no credentials found in environment")
		}
		return nil, WrapExtractionError(op, err, fmt.Sprintf("failed to create Document AI client for location: %s", cfg.Location))
	}

	return &DocumentAIExtractor{
		client: client,
		cfg:    cfg,
		log:    logger.WithComponent("document-ai"),
	}, nil
}

// ExtractText processes the document and returns its full OCR text.
func (d *DocumentAIExtractor) ExtractText(ctx context.Context, pdfData io.Reader) (string, error) {
	const op = "DocumentAIExtractText"

	pdfBytes, err := readPDF(op, pdfData)
	if err != nil {
		return "", err
	}

	callCtx, cancel := context.WithTimeout(ctx, d.cfg.timeout())
	defer cancel()

	req := &documentaipb.ProcessRequest{
		Name: d.processorName(),
		Source: &documentaipb.ProcessRequest_RawDocument{
			RawDocument: &documentaipb.RawDocument{
				Content:  pdfBytes,
				MimeType: "application/pdf",
			},
		},
	}

	resp, err := d.client.ProcessDocument(callCtx, req)
	if err != nil {
		return "", WrapExtractionError(op, ErrExtractionFailed, fmt.Sprintf("Document AI call failed: %v", err))
	}
	if resp.Document == nil {
		return "", WrapExtractionError(op, ErrExtractionFailed, "no document in response")
	}

	text := resp.Document.Text
	if strings.TrimSpace(text) == "" {
		return "", WrapExtractionError(op, ErrEmptyDocument, "processor returned no text")
	}

	d.log.Debug().
		Int("pages", len(resp.Document.Pages)).
		Int("chars", len(text)).
		Msg("Document AI text extracted")

	return text, nil
}

func (d *DocumentAIExtractor) processorName() string {
	return fmt.Sprintf("projects/%s/locations/%s/processors/%s",
		d.cfg.ProjectID, d.cfg.Location, d.cfg.ProcessorID)
}

// Close closes the underlying Document AI client.
func (d *DocumentAIExtractor) Close() error {
	if d.client != nil {
		return d.client.Close()
	}
	return nil
}
