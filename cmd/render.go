package cmd

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"invoicer/internal/config"
	"invoicer/internal/ledger"
	"invoicer/internal/logger"
	"invoicer/internal/render"
	"invoicer/internal/session"
	"invoicer/internal/wizard"
	"invoicer/pkg/models"
)

var renderCmd = &cobra.Command{
	Use:   "render [snapshot-file]",
	Short: "Render an invoice PDF with the embedded payload",
	Long: `Validate an invoice snapshot and render it as an A4 PDF. The payload line
is written after all visible content as tiny white text, so a later upload of
the PDF can prefill the next invoice.

The snapshot comes from a JSON or TOML file, or from a wizard session with
--session. With --record the invoice is also appended to the Google Sheets
ledger (GOOGLE_SHEET_URL).`,
	Example: `  # Render a snapshot file
  invoicer render invoice.toml -o INV-0042.pdf

  # Render the snapshot of a wizard session and record it in the ledger
  invoicer render --session 6f1c... -o INV-0042.pdf --record`,
	Args: cobra.MaximumNArgs(1),
	RunE: runRender,
}

func init() {
	rootCmd.AddCommand(renderCmd)

	renderCmd.Flags().StringP("output", "o", "", "Output PDF path (default: <invoice number>.pdf)")
	renderCmd.Flags().String("session", "", "Render the snapshot of this wizard session")
	renderCmd.Flags().Bool("record", false, "Append the invoice to the Google Sheets ledger")
	renderCmd.Flags().Bool("uncompressed", false, "Write uncompressed PDF content streams")
	renderCmd.Flags().Bool("force", false, "Render even if the snapshot fails validation")
}

func runRender(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("render")

	outputPath, _ := cmd.Flags().GetString("output")
	sessionKey, _ := cmd.Flags().GetString("session")
	record, _ := cmd.Flags().GetBool("record")
	uncompressed, _ := cmd.Flags().GetBool("uncompressed")
	force, _ := cmd.Flags().GetBool("force")

	if (len(args) == 0) == (sessionKey == "") {
		return fmt.Errorf("provide either a snapshot file or --session")
	}

	cfg, err := loadConfig(log)
	if err != nil {
		return err
	}

	ctx, cancel := createContextWithTimeout(2*time.Minute, log)
	defer cancel()

	var s *models.Snapshot
	if sessionKey != "" {
		s, err = loadSessionSnapshot(ctx, cfg, sessionKey)
	} else {
		s, err = readSnapshot(args[0])
	}
	if err != nil {
		return err
	}

	if err := wizard.ValidateAll(s); err != nil {
		if !force {
			return handleValidationError(err, log)
		}
		log.Warn().Strs("fields", wizard.Fields(err)).Msg("Rendering invalid snapshot")
	}

	if outputPath == "" {
		outputPath = defaultPDFName(s.Invoice.Number)
	}

	var buf bytes.Buffer
	renderer := render.New(render.Options{DueDateRule: cfg.DueDateRule, Uncompressed: uncompressed})
	if err := renderer.Render(&buf, s); err != nil {
		log.Error().Err(err).Msg("Rendering failed")
		return fmt.Errorf("failed to render invoice: %w", err)
	}
	if err := writeOutput(buf.Bytes(), outputPath, log); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Invoice %s written to %s\n", s.Invoice.Number, outputPath)

	if record {
		if err := recordInLedger(ctx, cfg, s, log); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Invoice %s recorded in ledger\n", s.Invoice.Number)
	}
	return nil
}

// loadSessionSnapshot opens the configured session store and returns the
// snapshot saved under key.
func loadSessionSnapshot(ctx context.Context, cfg *config.Config, key string) (*models.Snapshot, error) {
	store, err := session.Open(ctx, cfg.GetSessionConfig())
	if err != nil {
		return nil, fmt.Errorf("failed to open session store: %w", err)
	}
	defer store.Close()

	state, err := store.Get(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("failed to load session: %w", err)
	}
	if state == nil || state.Snapshot == nil {
		return nil, fmt.Errorf("session %s: %w", key, session.ErrNoSnapshot)
	}
	return state.Snapshot, nil
}

func recordInLedger(ctx context.Context, cfg *config.Config, s *models.Snapshot, log zerolog.Logger) error {
	if cfg.GoogleSheetURL == "" {
		return fmt.Errorf("GOOGLE_SHEET_URL environment variable is required for --record")
	}
	svc, err := ledger.NewService(ctx, cfg.GetLedgerConfig())
	if err != nil {
		return fmt.Errorf("failed to initialize Google Sheets ledger: %w", err)
	}
	if err := svc.Append(ctx, ledger.NewRow(s, cfg.DueDateRule, time.Now())); err != nil {
		if errors.Is(err, ledger.ErrDuplicateInvoice) {
			log.Warn().Str("invoice_number", s.Invoice.Number).Msg("Invoice already in ledger")
			return fmt.Errorf("invoice %s is already recorded in the ledger", s.Invoice.Number)
		}
		return fmt.Errorf("failed to record invoice: %w", err)
	}
	return nil
}

// handleValidationError lists every field that blocks rendering.
func handleValidationError(err error, log zerolog.Logger) error {
	log.Error().Strs("fields", wizard.Fields(err)).Msg("Snapshot validation failed")

	var b strings.Builder
	b.WriteString("invoice is incomplete:")
	for _, ve := range wizard.Errors(err) {
		fmt.Fprintf(&b, "\n  - %s (%s)", ve.Message, ve.Field)
	}
	b.WriteString("\nFix the fields above or pass --force")
	return errors.New(b.String())
}

func defaultPDFName(number string) string {
	name := sanitizeFileName(number)
	if name == "" {
		name = "invoice"
	}
	return name + ".pdf"
}

func sanitizeFileName(s string) string {
	out := make([]rune, 0, len(s))
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_', r == '.':
			out = append(out, r)
		case r == ' ' || r == '/' || r == '\\':
			out = append(out, '-')
		}
	}
	return string(out)
}
