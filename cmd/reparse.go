package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"receipts/internal/logger"
	"receipts/internal/receipt"
)

var reparseCmd = &cobra.Command{
	Use:   "reparse [blocks-file]",
	Short: "Parse previously saved analysis blocks",
	Long: `Run the extraction and reconciliation over blocks saved by "receipts blocks".
No credentials are needed. Use "-" to read from stdin.`,
	Example: `  receipts reparse receipt.blocks.json
  receipts blocks receipt.jpg | receipts reparse - --total-hint 12.80`,
	Args: cobra.ExactArgs(1),
	RunE: runReparse,
}

func init() {
	rootCmd.AddCommand(reparseCmd)

	reparseCmd.Flags().StringP("output", "o", "", "Output file path (default: stdout)")
	addHintFlags(reparseCmd)
}

func runReparse(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("reparse")

	outputPath, _ := cmd.Flags().GetString("output")
	hints, err := hintsFromFlags(cmd)
	if err != nil {
		return err
	}

	var in io.Reader = os.Stdin
	if args[0] != "-" {
		f, err := os.Open(args[0])
		if err != nil {
			return fmt.Errorf("failed to open blocks file: %w", err)
		}
		defer f.Close()
		in = f
	}

	pages, err := receipt.ReadPages(in)
	if err != nil {
		return writeFailure(err, outputPath, log)
	}

	result := receipt.NewParser(log).Parse(pages, hints)
	return writeJSON(result, outputPath, log)
}
