package cmd

import (
	"github.com/spf13/cobra"

	"invoicer/internal/codec"
	"invoicer/internal/logger"
)

var encodeCmd = &cobra.Command{
	Use:   "encode [snapshot-file]",
	Short: "Print the payload line for an invoice snapshot",
	Long: `Serialize an invoice snapshot (JSON or TOML) into the single payload line
that render embeds in the PDF. Use "-" to read JSON from stdin.`,
	Example: `  # Print the payload for a snapshot
  invoicer encode invoice.toml

  # Show one key=value pair per line
  invoicer encode invoice.json --pairs`,
	Args: cobra.ExactArgs(1),
	RunE: runEncode,
}

func init() {
	rootCmd.AddCommand(encodeCmd)

	encodeCmd.Flags().StringP("output", "o", "", "Output file path (default: stdout)")
	encodeCmd.Flags().Bool("pairs", false, "Print one pair per line instead of the joined payload")
}

func runEncode(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("encode")

	outputPath, _ := cmd.Flags().GetString("output")
	pairs, _ := cmd.Flags().GetBool("pairs")

	s, err := readSnapshot(args[0])
	if err != nil {
		return err
	}

	encoded := codec.Encode(s)
	log.Debug().Int("pairs", len(encoded)).Msg("Snapshot encoded")

	var out []byte
	if pairs {
		for _, p := range encoded {
			out = append(out, codec.Join([]codec.Pair{p})...)
			out = append(out, '\n')
		}
	} else {
		out = append([]byte(codec.Join(encoded)), '\n')
	}
	return writeOutput(out, outputPath, log)
}
