package pdftext

import (
	"context"
	"fmt"
	"io"
	"strings"

	vision "cloud.google.com/go/vision/v2/apiv1"
	"cloud.google.com/go/vision/v2/apiv1/visionpb"
	"github.com/rs/zerolog"
	"google.golang.org/api/option"

	"invoicer/internal/logger"
)

// MaxPagesSync is the number of pages Vision annotates in one synchronous call.
const MaxPagesSync = 5

// VisionExtractor implements Extractor using Google Cloud Vision document text
// detection. It suits scanned or flattened copies of an invoice.
type VisionExtractor struct {
	client *vision.ImageAnnotatorClient
	cfg    Config
	log    zerolog.Logger
}

// NewVisionExtractor creates a Vision client from the configured credentials.
func NewVisionExtractor(ctx context.Context, cfg Config) (*VisionExtractor, error) {
	const op = "NewVisionExtractor"

	opts := credentialOptions(cfg)
	client, err := vision.NewImageAnnotatorClient(ctx, opts...)
	if err != nil {
		if len(opts) == 0 {
			return nil, WrapExtractionError(op, ErrMissingCredentials, "no credentials found in environment")
		}
		return nil, WrapExtractionError(op, err, "failed to create Vision client")
	}

	return &VisionExtractor{
		client: client,
		cfg:    cfg,
		log:    logger.WithComponent("vision"),
	}, nil
}

// ExtractText runs document text detection and joins the pages with blank lines.
func (v *VisionExtractor) ExtractText(ctx context.Context, pdfData io.Reader) (string, error) {
	const op = "VisionExtractText"

	pdfBytes, err := readPDF(op, pdfData)
	if err != nil {
		return "", err
	}

	callCtx, cancel := context.WithTimeout(ctx, v.cfg.timeout())
	defer cancel()

	req := &visionpb.BatchAnnotateFilesRequest{
		Requests: []*visionpb.AnnotateFileRequest{
			{
				InputConfig: &visionpb.InputConfig{
					Content:  pdfBytes,
					MimeType: "application/pdf",
				},
				Features: []*visionpb.Feature{
					{Type: visionpb.Feature_DOCUMENT_TEXT_DETECTION},
				},
			},
		},
	}

	resp, err := v.client.BatchAnnotateFiles(callCtx, req)
	if err != nil {
		return "", WrapExtractionError(op, ErrExtractionFailed, fmt.Sprintf("Vision API call failed: %v", err))
	}
	if len(resp.Responses) == 0 {
		return "", WrapExtractionError(op, ErrExtractionFailed, "no response from Vision API")
	}

	fileResp := resp.Responses[0]
	if fileResp.Error != nil {
		return "", WrapExtractionError(op, ErrExtractionFailed, fmt.Sprintf("Vision API error: %s", fileResp.Error.Message))
	}

	text, err := joinVisionPages(fileResp)
	if err != nil {
		return "", WrapExtractionError(op, err, "failed to process Vision API response")
	}

	if fileResp.TotalPages > MaxPagesSync {
		v.log.Warn().
			Int32("total_pages", fileResp.TotalPages).
			Msg("Only the first pages were read; a payload on a later page will be missed")
	}

	v.log.Debug().
		Int("pages", len(fileResp.Responses)).
		Int32("total_pages", fileResp.TotalPages).
		Msg("Vision text detected")

	return text, nil
}

func joinVisionPages(fileResp *visionpb.AnnotateFileResponse) (string, error) {
	var pages []string
	for i, page := range fileResp.Responses {
		if page.Error != nil {
			return "", fmt.Errorf("error processing page %d: %s", i+1, page.Error.Message)
		}
		if page.FullTextAnnotation != nil {
			pages = append(pages, page.FullTextAnnotation.Text)
		}
	}

	text := strings.Join(pages, "\n\n")
	if strings.TrimSpace(text) == "" {
		return "", ErrEmptyDocument
	}
	return text, nil
}

// Close closes the underlying Vision client.
func (v *VisionExtractor) Close() error {
	if v.client != nil {
		return v.client.Close()
	}
	return nil
}

// credentialOptions prefers inline JSON credentials over a credentials file.
// With neither set the client falls back to application default credentials.
func credentialOptions(cfg Config) []option.ClientOption {
	if cfg.CredentialsJSON != "" {
		return []option.ClientOption{option.WithCredentialsJSON([]byte(cfg.CredentialsJSON))}
	}
	if cfg.CredentialsFile != "" {
		return []option.ClientOption{option.WithCredentialsFile(cfg.CredentialsFile)}
	}
	return nil
}
