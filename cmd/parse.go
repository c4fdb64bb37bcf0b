package cmd

import (
	"time"

	"github.com/spf13/cobra"

	"receipts/internal/logger"
)

var parseCmd = &cobra.Command{
	Use:   "parse [image...]",
	Short: "Parse receipt images into reconciled line items",
	Long: `Analyze one or more photos of the same receipt and print the parse result as JSON.

Images may be local paths or http(s) URLs and are combined in the order given:
store details come from the first image that has them and discounts are
applied to the item printed just above them. Images that cannot be read or
analyzed are skipped.

Required environment variables:
  GOOGLE_APPLICATION_CREDENTIALS - Path to service account JSON file, OR
  GOOGLE_CREDENTIALS - Inline JSON credentials string
  GOOGLE_CLOUD_PROJECT - Your Google Cloud project ID (documentai provider)
  DOCUMENT_AI_PROCESSOR_ID - Form Parser processor ID (documentai provider)

Optional environment variables:
  OCR_PROVIDER - documentai (default) or vision
  OCR_CACHE_PATH - bbolt file caching analysis results by image hash
  IMAGE_ENHANCE - true to convert images to high-contrast grayscale first`,
	Example: `  # Parse a single receipt photo
  receipts parse receipt.jpg

  # Long receipt photographed in two parts
  receipts parse top.heic bottom.heic -o result.json

  # Provide fallbacks for a faded header and total
  receipts parse receipt.jpg --store-hint Tesco --total-hint 23.45`,
	Args: cobra.MinimumNArgs(1),
	RunE: runParse,
}

func init() {
	rootCmd.AddCommand(parseCmd)

	parseCmd.Flags().StringP("output", "o", "", "Output file path (default: stdout)")
	parseCmd.Flags().Int("timeout", 300, "Processing timeout in seconds")
	addHintFlags(parseCmd)
}

func runParse(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("parse")

	outputPath, _ := cmd.Flags().GetString("output")
	timeoutSecs, _ := cmd.Flags().GetInt("timeout")

	hints, err := hintsFromFlags(cmd)
	if err != nil {
		return err
	}

	log.Info().
		Strs("images", args).
		Str("output", outputPath).
		Int("timeout", timeoutSecs).
		Msg("Starting receipt parsing")

	ctx, cancel := createContextWithTimeout(time.Duration(timeoutSecs)*time.Second, log)
	defer cancel()

	service, closeService, err := createReceiptService(ctx, log)
	if err != nil {
		return writeFailure(err, outputPath, log)
	}
	defer closeService()

	result, err := service.ParseReceipt(ctx, args, hints)
	if err != nil {
		return writeFailure(err, outputPath, log)
	}

	log.Info().
		Int("items", len(result.Items)).
		Int("confidence", result.ParseQuality.ConfidenceScore).
		Dur("duration", result.Run.ProcessingDuration).
		Msg("Receipt parsing completed successfully")

	return writeJSON(result, outputPath, log)
}
