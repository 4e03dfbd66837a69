package cmd

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/cobra"

	"invoicer/internal/codec"
	"invoicer/internal/config"
	"invoicer/internal/logger"
	"invoicer/internal/session"
	"invoicer/internal/wizard"
	"invoicer/pkg/models"
)

var prefillCmd = &cobra.Command{
	Use:   "prefill [prior-invoice]",
	Short: "Start a wizard session prefilled from a previous invoice",
	Long: `Start (or resume with --session) a wizard session. When a prior invoice is
given its payload is decoded and copied into the session with the invoice
number incremented, and the session moves to the profile step.

A prior invoice without a payload starts a blank session. Use --export to
write the snapshot to a JSON or TOML file for editing, then load it back with
"invoicer session set".`,
	Example: `  # Prefill from last month's invoice
  invoicer prefill INV-0041.pdf --export next.toml

  # Start a blank session
  invoicer prefill`,
	Args: cobra.MaximumNArgs(1),
	RunE: runPrefill,
}

func init() {
	rootCmd.AddCommand(prefillCmd)

	prefillCmd.Flags().String("session", "", "Session key to resume (default: new session)")
	prefillCmd.Flags().String("export", "", "Write the prefilled snapshot to a .json or .toml file")
	prefillCmd.Flags().Bool("text", false, "Treat the input as extracted text even if it is a PDF")
	prefillCmd.Flags().Int("timeout", 120, "Extraction timeout in seconds")
}

func runPrefill(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("prefill")

	sessionKey, _ := cmd.Flags().GetString("session")
	exportPath, _ := cmd.Flags().GetString("export")
	asText, _ := cmd.Flags().GetBool("text")
	timeoutSecs, _ := cmd.Flags().GetInt("timeout")

	cfg, err := loadConfig(log)
	if err != nil {
		return err
	}
	if sessionKey == "" {
		sessionKey = session.NewKey()
	}

	ctx, cancel := createContextWithTimeout(time.Duration(timeoutSecs)*time.Second, log)
	defer cancel()

	store, err := session.Open(ctx, cfg.GetSessionConfig())
	if err != nil {
		return fmt.Errorf("failed to open session store: %w", err)
	}
	defer store.Close()

	w, err := wizard.Start(ctx, store, sessionKey, time.Now())
	if err != nil {
		return fmt.Errorf("failed to start session: %w", err)
	}

	if len(args) == 1 {
		if err := prefillFromDocument(ctx, cmd, cfg, w, args[0], asText); err != nil {
			return err
		}
	} else if err := w.Save(ctx); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}

	if exportPath != "" {
		if err := exportSnapshot(w.Snapshot(), exportPath); err != nil {
			return err
		}
		log.Info().Str("file", exportPath).Msg("Snapshot exported")
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Session %s at step %s\n", w.Key(), w.Step())
	return nil
}

// prefillFromDocument adopts the payload of a prior invoice. A document that
// cannot be read or carries no payload is treated as no prior document.
func prefillFromDocument(ctx context.Context, cmd *cobra.Command, cfg *config.Config, w *wizard.Wizard, path string, asText bool) error {
	log := logger.WithSession("prefill", w.Key())

	text, err := readDocumentText(ctx, cfg, path, asText, log)
	if err != nil {
		if ctx.Err() != nil {
			return handleExtractionError(err, log)
		}
		log.Warn().Err(err).Str("file", path).Msg("Could not read prior invoice, starting from a blank invoice")
		fmt.Fprintf(cmd.OutOrStdout(), "Could not read %s (%v); starting from a blank invoice.\n", filepath.Base(path), describeExtractionError(err))
		return startBlank(ctx, w)
	}

	decoded, found := codec.Prefill(text)
	if !found {
		log.Warn().Str("file", path).Msg("No payload found, starting from a blank invoice")
		fmt.Fprintln(cmd.OutOrStdout(), "No invoice data found in the document; starting from a blank invoice.")
		return startBlank(ctx, w)
	}

	if err := w.Prefill(ctx, decoded); err != nil {
		return fmt.Errorf("failed to prefill session: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Prefilled from %s; next invoice number is %s\n", filepath.Base(path), decoded.Invoice.Number)
	return nil
}

// startBlank leaves the upload step of a new session; a resumed session keeps
// its step and snapshot.
func startBlank(ctx context.Context, w *wizard.Wizard) error {
	if w.Step() == wizard.StepUpload {
		if err := w.GoTo(ctx, wizard.StepProfile); err != nil {
			return fmt.Errorf("failed to save session: %w", err)
		}
		return nil
	}
	if err := w.Save(ctx); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

// exportSnapshot writes s as TOML or JSON, chosen by the file extension.
func exportSnapshot(s *models.Snapshot, path string) error {
	var (
		data []byte
		err  error
	)
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		data, err = toml.Marshal(s)
	} else {
		data, err = marshalJSON(s)
	}
	if err != nil {
		return fmt.Errorf("failed to encode snapshot: %w", err)
	}
	return writeOutput(data, path, logger.WithComponent("prefill"))
}
