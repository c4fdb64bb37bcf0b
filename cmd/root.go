package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"receipts/internal/config"
	"receipts/internal/logger"
	"receipts/internal/ocr"
	"receipts/internal/receipt"
	"receipts/internal/source"
	"receipts/pkg/models"
)

var version = "1.0.0"

var rootCmd = &cobra.Command{
	Use:   "receipts",
	Short: "Receipts CLI - turn receipt photos into reconciled line items",
	Long: `Receipts CLI sends receipt photos to a document-analysis service
(Google Document AI or Cloud Vision), extracts purchased items from the
detected tables and text lines, folds discounts into the items they
apply to, and checks the result against the printed total and item count.

Results are written as JSON.`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func Execute() {
	log := logger.WithComponent("cmd")

	if err := rootCmd.Execute(); err != nil {
		log.Error().
			Err(err).
			Msg("Command execution failed")
		fmt.Fprintf(os.Stderr, "Error executing command: %v\n", err)
		os.Exit(1)
	}
}

// createContextWithTimeout creates a context with timeout and signal handling
func createContextWithTimeout(timeout time.Duration, log zerolog.Logger) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		defer signal.Stop(sigChan)
		select {
		case sig := <-sigChan:
			log.Info().
				Str("signal", sig.String()).
				Msg("Received interrupt signal, canceling processing")
			cancel()
		case <-ctx.Done():
		}
	}()

	return ctx, cancel
}

// createAnalyzer builds the configured backend, wrapped in the block cache
// when OCR_CACHE_PATH is set.
func createAnalyzer(ctx context.Context, cfg *config.Config, log zerolog.Logger) (ocr.Analyzer, error) {
	var analyzer ocr.Analyzer
	var err error

	switch cfg.OCRProvider {
	case ocr.ProviderVision:
		analyzer, err = ocr.NewVisionAnalyzer(ctx, cfg.Credentials(), cfg.OCRTimeout)
	default:
		analyzer, err = ocr.NewDocumentAIAnalyzer(ctx, cfg.DocumentAI())
	}
	if err != nil {
		if errors.Is(err, ocr.ErrMissingCredentials) {
			return nil, fmt.Errorf("Google Cloud credentials not configured. Please set one of:\n\n" +
				"1. Export GOOGLE_APPLICATION_CREDENTIALS with path to service account JSON:\n" +
				"   export GOOGLE_APPLICATION_CREDENTIALS=/path/to/service-account-key.json\n\n" +
				"2. Export GOOGLE_CREDENTIALS with inline JSON\n\n" +
				"3. Use Application Default Credentials (if gcloud is configured):\n" +
				"   gcloud auth application-default login\n\n" +
				"Original error: %w", err)
		}
		return nil, fmt.Errorf("failed to create %s analyzer: %w", cfg.OCRProvider, err)
	}

	if cfg.OCRCachePath != "" {
		cached, err := ocr.NewCachedAnalyzer(analyzer, cfg.AnalyzerScope(), cfg.OCRCachePath)
		if err != nil {
			analyzer.Close()
			return nil, err
		}
		log.Debug().Str("path", cfg.OCRCachePath).Str("scope", cfg.AnalyzerScope()).Msg("Block cache enabled")
		analyzer = cached
	}

	log.Debug().Str("provider", cfg.OCRProvider).Msg("Analyzer created successfully")
	return analyzer, nil
}

// createReceiptService wires loader, analyzer and parser from configuration.
func createReceiptService(ctx context.Context, log zerolog.Logger) (*receipt.Service, func(), error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}

	analyzer, err := createAnalyzer(ctx, cfg, log)
	if err != nil {
		return nil, nil, err
	}

	loader := source.NewLoader(nil, cfg.FetchConcurrency, cfg.FetchTimeout)
	service := receipt.NewService(loader, analyzer, receipt.ServiceConfig{
		Enhance:     cfg.ImageEnhance,
		Concurrency: cfg.FetchConcurrency,
	})

	closeFn := func() {
		if err := analyzer.Close(); err != nil {
			log.Warn().Err(err).Msg("Failed to close analyzer")
		}
	}
	return service, closeFn, nil
}

// hintsFromFlags reads --store-hint and --total-hint.
func hintsFromFlags(cmd *cobra.Command) (receipt.Hints, error) {
	storeHint, _ := cmd.Flags().GetString("store-hint")
	totalHint, _ := cmd.Flags().GetString("total-hint")

	hints := receipt.Hints{StoreName: storeHint}
	if totalHint != "" {
		total := receipt.NormalizePrice(totalHint)
		if !total.IsPositive() {
			return hints, fmt.Errorf("invalid --total-hint %q", totalHint)
		}
		hints.Total = &total
	}
	return hints, nil
}

func addHintFlags(cmd *cobra.Command) {
	cmd.Flags().String("store-hint", "", "Store name to use when none is found on the receipt")
	cmd.Flags().String("total-hint", "", "Receipt total to use when none is found on the receipt")
}

// writeJSON writes v to outputPath, or stdout when it is empty.
func writeJSON(v any, outputPath string, log zerolog.Logger) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		log.Error().Err(err).Msg("Failed to marshal JSON output")
		return fmt.Errorf("failed to create JSON output: %w", err)
	}
	data = append(data, '\n')

	if outputPath != "" {
		if err := os.WriteFile(outputPath, data, 0644); err != nil {
			log.Error().
				Err(err).
				Str("output_file", outputPath).
				Msg("Failed to write output file")
			return fmt.Errorf("failed to write output file: %w", err)
		}
		log.Info().
			Str("output_file", outputPath).
			Int("bytes", len(data)).
			Msg("Results written to file")
		return nil
	}

	if _, err := os.Stdout.Write(data); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

// writeFailure renders an aborted invocation in the result format.
func writeFailure(err error, outputPath string, log zerolog.Logger) error {
	if writeErr := writeJSON(models.Failure{Success: false, Error: describeError(err)}, outputPath, log); writeErr != nil {
		return writeErr
	}
	return err
}

// describeError provides user-friendly messages for aborted parses
func describeError(err error) string {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return "processing timed out; try increasing --timeout"
	case errors.Is(err, context.Canceled), errors.Is(err, ocr.ErrContextCanceled):
		return "processing was canceled"
	case errors.Is(err, receipt.ErrNoImages):
		return "at least one receipt image is required"
	case errors.Is(err, ocr.ErrInvalidCredentials):
		return "Google Cloud authentication failed; check the service account and its Document AI / Vision roles"
	case errors.Is(err, ocr.ErrQuotaExceeded):
		return "document analysis quota exceeded; check your project quotas in the Google Cloud Console"
	case errors.Is(err, ocr.ErrProcessorNotFound):
		return "Document AI processor not found; check DOCUMENT_AI_PROCESSOR_ID and GOOGLE_CLOUD_LOCATION"
	default:
		return err.Error()
	}
}
