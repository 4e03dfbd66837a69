package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"invoicer/internal/ledger"
	"invoicer/internal/logger"
)

var ledgerCmd = &cobra.Command{
	Use:   "ledger [snapshot-file]",
	Short: "Record an invoice in the Google Sheets ledger",
	Long: `Append one row per invoice (number, dates, client, totals) to the worksheet
GOOGLE_SHEET_WORKSHEET of the spreadsheet at GOOGLE_SHEET_URL. The worksheet
and its header row are created on first use. Invoice numbers already present
in the ledger are rejected.

Required environment variables:
  GOOGLE_APPLICATION_CREDENTIALS - Path to service account JSON file, OR
  GOOGLE_CREDENTIALS - Inline JSON credentials string
  GOOGLE_SHEET_URL - Google Sheets URL of the ledger`,
	Example: `  # Record a rendered invoice
  invoicer ledger invoice.toml

  # Show the row without writing it
  invoicer ledger invoice.toml --dry-run`,
	Args: cobra.ExactArgs(1),
	RunE: runLedger,
}

func init() {
	rootCmd.AddCommand(ledgerCmd)

	ledgerCmd.Flags().Bool("dry-run", false, "Print the ledger row without writing it")
}

func runLedger(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("ledger")

	dryRun, _ := cmd.Flags().GetBool("dry-run")

	cfg, err := loadConfig(log)
	if err != nil {
		return err
	}

	s, err := readSnapshot(args[0])
	if err != nil {
		return err
	}

	if dryRun {
		row := ledger.NewRow(s, cfg.DueDateRule, time.Now())
		rows := make([][]string, 0, len(ledger.Headers))
		for i, value := range row.Strings() {
			rows = append(rows, []string{ledger.Headers[i], value})
		}
		fmt.Fprintln(cmd.OutOrStdout(), renderTable([]string{"Column", "Value"}, rows, nil, nil))
		return nil
	}

	ctx, cancel := createContextWithTimeout(time.Minute, log)
	defer cancel()

	if err := recordInLedger(ctx, cfg, s, log); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Invoice %s recorded in ledger\n", s.Invoice.Number)
	return nil
}
