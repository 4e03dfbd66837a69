package cmd

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"invoicer/internal/logger"
	"invoicer/internal/money"
	"invoicer/pkg/models"
)

var totalsCmd = &cobra.Command{
	Use:   "totals [snapshot-file]",
	Short: "Show line totals, subtotal, tax and total for a snapshot",
	Long: `Compute the monetary figures of an invoice exactly as the rendered
document shows them: each line total is rounded to two places before the
subtotal is summed, and tax is rounded once on the subtotal.`,
	Example: `  invoicer totals invoice.toml
  invoicer totals invoice.json --json`,
	Args: cobra.ExactArgs(1),
	RunE: runTotals,
}

// TotalsOutput represents the JSON output structure when --json flag is used
type TotalsOutput struct {
	Currency   models.Currency `json:"currency"`
	LineTotals []string        `json:"line_totals"`
	Subtotal   string          `json:"subtotal"`
	TaxLabel   string          `json:"tax_label,omitempty"`
	TaxRate    string          `json:"tax_rate"`
	Tax        string          `json:"tax_amount"`
	Total      string          `json:"total"`
}

func init() {
	rootCmd.AddCommand(totalsCmd)

	totalsCmd.Flags().Bool("json", false, "Output as JSON")
}

func runTotals(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("totals")

	jsonOutput, _ := cmd.Flags().GetBool("json")

	s, err := readSnapshot(args[0])
	if err != nil {
		return err
	}

	inv := s.Invoice
	totals := money.ComputeTotals(s.Items, inv.TaxRate)
	label, showTax := inv.TaxLabel()
	log.Debug().Str("total", money.Format(totals.Total)).Int("items", len(s.Items)).Msg("Totals computed")

	if jsonOutput {
		out := TotalsOutput{
			Currency:   inv.Currency,
			LineTotals: make([]string, 0, len(s.Items)),
			Subtotal:   money.Format(totals.Subtotal),
			TaxLabel:   label,
			TaxRate:    inv.TaxRate.String(),
			Tax:        money.Format(totals.Tax),
			Total:      money.Format(totals.Total),
		}
		for _, it := range s.Items {
			out.LineTotals = append(out.LineTotals, money.Format(money.LineTotal(it.Quantity, it.Rate)))
		}
		data, err := marshalJSON(out)
		if err != nil {
			return err
		}
		return writeOutput(data, "", log)
	}

	rows := make([][]string, 0, len(s.Items))
	for i, it := range s.Items {
		rows = append(rows, []string{
			strconv.Itoa(i + 1),
			string(it.Basis),
			it.Description,
			it.Quantity.String(),
			money.Display(inv.Currency, it.Rate),
			money.Display(inv.Currency, money.LineTotal(it.Quantity, it.Rate)),
		})
	}

	footer := [][]string{{"", "", "", "", "Subtotal", money.Display(inv.Currency, totals.Subtotal)}}
	if showTax {
		footer = append(footer, []string{"", "", "", "", fmt.Sprintf("%s (%s%%)", label, money.Format(inv.TaxRate)), money.Display(inv.Currency, totals.Tax)})
	}
	footer = append(footer, []string{"", "", "", "", "Total", money.Display(inv.Currency, totals.Total)})

	headers := []string{"#", "Basis", "Description", "Qty", "Rate", "Line Total"}
	aligns := []columnAlignment{alignRight, alignLeft, alignLeft, alignRight, alignRight, alignRight}
	fmt.Fprintln(cmd.OutOrStdout(), renderTable(headers, rows, footer, aligns))
	return nil
}
