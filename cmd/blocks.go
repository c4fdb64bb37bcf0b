package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"receipts/internal/logger"
	"receipts/internal/receipt"
)

var blocksCmd = &cobra.Command{
	Use:   "blocks [image...]",
	Short: "Dump the raw analysis blocks of receipt images",
	Long: `Analyze receipt images and write the detected blocks (lines, tables,
cells and words with normalized geometry) as JSON, one array per image.

The output can be fed back through "receipts reparse" to rerun the
extraction without calling the analysis service again.`,
	Example: `  # Save blocks for later
  receipts blocks receipt.jpg -o receipt.blocks.json

  # Rerun extraction offline
  receipts reparse receipt.blocks.json`,
	Args: cobra.MinimumNArgs(1),
	RunE: runBlocks,
}

func init() {
	rootCmd.AddCommand(blocksCmd)

	blocksCmd.Flags().StringP("output", "o", "", "Output file path (default: stdout)")
	blocksCmd.Flags().Int("timeout", 300, "Processing timeout in seconds")
}

func runBlocks(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("blocks")

	outputPath, _ := cmd.Flags().GetString("output")
	timeoutSecs, _ := cmd.Flags().GetInt("timeout")

	ctx, cancel := createContextWithTimeout(time.Duration(timeoutSecs)*time.Second, log)
	defer cancel()

	service, closeService, err := createReceiptService(ctx, log)
	if err != nil {
		return err
	}
	defer closeService()

	pages, err := service.AnalyzeBlocks(ctx, args)
	if err != nil {
		log.Error().Err(err).Msg("Analysis failed")
		return err
	}

	if outputPath == "" {
		return receipt.WritePages(os.Stdout, pages)
	}

	f, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	if err := receipt.WritePages(f, pages); err != nil {
		f.Close()
		return fmt.Errorf("failed to write blocks: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to write blocks: %w", err)
	}

	log.Info().Str("output_file", outputPath).Int("images", len(pages)).Msg("Blocks written to file")
	return nil
}
