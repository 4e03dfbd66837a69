package cmd

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"invoicer/internal/codec"
	"invoicer/internal/logger"
	"invoicer/internal/pdftext"
)

// ErrNoPayload is returned when a document carries no recognizable payload.
var ErrNoPayload = errors.New("no invoice payload found in document")

var decodeCmd = &cobra.Command{
	Use:   "decode [invoice-file]",
	Short: "Recover the invoice snapshot embedded in a rendered invoice",
	Long: `Extract the text of a previously rendered invoice, locate the embedded
payload and print the decoded snapshot as JSON.

PDF files go through the configured text extractor (TEXT_EXTRACTOR: pdf,
vision or documentai). Any other file, or any file with --text, is read as
already extracted text, e.g. the output of an external OCR tool.`,
	Example: `  # Decode a rendered invoice
  invoicer decode INV-0041.pdf

  # Decode as a prefill: the invoice number is incremented
  invoicer decode INV-0041.pdf --prefill

  # Print only the canonical payload line
  invoicer decode scan.txt --line`,
	Args: cobra.ExactArgs(1),
	RunE: runDecode,
}

func init() {
	rootCmd.AddCommand(decodeCmd)

	decodeCmd.Flags().StringP("output", "o", "", "Output file path (default: stdout)")
	decodeCmd.Flags().Bool("text", false, "Treat the input as extracted text even if it is a PDF")
	decodeCmd.Flags().Bool("prefill", false, "Increment the invoice number as for a new invoice")
	decodeCmd.Flags().Bool("line", false, "Print the canonical payload line instead of the snapshot")
	decodeCmd.Flags().Int("timeout", 120, "Extraction timeout in seconds")
}

func runDecode(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("decode")

	outputPath, _ := cmd.Flags().GetString("output")
	asText, _ := cmd.Flags().GetBool("text")
	prefill, _ := cmd.Flags().GetBool("prefill")
	lineOnly, _ := cmd.Flags().GetBool("line")
	timeoutSecs, _ := cmd.Flags().GetInt("timeout")

	cfg, err := loadConfig(log)
	if err != nil {
		return err
	}

	ctx, cancel := createContextWithTimeout(time.Duration(timeoutSecs)*time.Second, log)
	defer cancel()

	text, err := readDocumentText(ctx, cfg, args[0], asText, log)
	if err != nil {
		return handleExtractionError(err, log)
	}

	line := codec.Extract(text)
	if line == "" {
		log.Warn().Str("file", args[0]).Int("text_length", len(text)).Msg("No payload found")
		return ErrNoPayload
	}
	if lineOnly {
		return writeOutput([]byte(line+"\n"), outputPath, log)
	}

	fields := codec.ParseFields(line)
	if v := fields.Version(); v != codec.FormatVersion {
		log.Warn().Str("format_version", v).Msg("Unexpected payload format version, decoding anyway")
	}
	snapshot := fields.Snapshot(codec.DecodeOptions{Prefill: prefill})

	log.Info().
		Str("invoice_number", snapshot.Invoice.Number).
		Int("fields", len(fields)).
		Int("items", len(snapshot.Items)).
		Msg("Payload decoded")

	out, err := marshalJSON(snapshot)
	if err != nil {
		return err
	}
	return writeOutput(out, outputPath, log)
}

// handleExtractionError provides user-friendly error messages for extraction failures
func handleExtractionError(err error, log zerolog.Logger) error {
	log.Error().Err(err).Msg("Text extraction failed")
	return describeExtractionError(err)
}

func describeExtractionError(err error) error {
	errStr := err.Error()

	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return fmt.Errorf("text extraction timed out. Try increasing --timeout")
	case errors.Is(err, context.Canceled):
		return fmt.Errorf("text extraction was canceled")
	case errors.Is(err, pdftext.ErrPDFTooLarge):
		return fmt.Errorf("PDF file is too large (maximum 20MB)")
	case errors.Is(err, pdftext.ErrInvalidPDF):
		return fmt.Errorf("invalid or corrupted PDF file. Please check the file integrity")
	case errors.Is(err, pdftext.ErrEmptyDocument):
		return fmt.Errorf("no readable text found in the document. For scanned invoices set TEXT_EXTRACTOR=vision or documentai")
	case errors.Is(err, pdftext.ErrMissingCredentials):
		return fmt.Errorf("Google Cloud credentials not configured. Set GOOGLE_APPLICATION_CREDENTIALS " +
			"to a service account JSON file or GOOGLE_CREDENTIALS to inline JSON")
	case errors.Is(err, pdftext.ErrInvalidConfiguration), errors.Is(err, pdftext.ErrUnknownBackend):
		return fmt.Errorf("text extractor is misconfigured: %w", err)
	case strings.Contains(errStr, "Unauthenticated") ||
		strings.Contains(errStr, "invalid_grant") ||
		strings.Contains(errStr, "transport: per-RPC creds failed"):
		return fmt.Errorf("Google Cloud authentication failed. Please check your credentials: %v", err)
	case strings.Contains(errStr, "PERMISSION_DENIED"):
		return fmt.Errorf("permission denied. Please ensure the service account may call the %s API", cloudAPIName(errStr))
	case strings.Contains(errStr, "QUOTA_EXCEEDED") || strings.Contains(errStr, "quota"):
		return fmt.Errorf("Google Cloud API quota exceeded. Check your project quotas in the Google Cloud Console")
	default:
		return fmt.Errorf("text extraction failed: %w", err)
	}
}

func cloudAPIName(errStr string) string {
	if strings.Contains(strings.ToLower(errStr), "documentai") {
		return "Document AI"
	}
	return "Cloud Vision"
}
