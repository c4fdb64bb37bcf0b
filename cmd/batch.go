package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"receipts/internal/logger"
	"receipts/internal/receipt"
	"receipts/pkg/models"
)

var batchCmd = &cobra.Command{
	Use:   "batch [folder-path]",
	Short: "Parse every receipt in a folder",
	Long: `Parse all receipts in a folder and write one JSON result per receipt.

Each subdirectory is treated as one receipt whose images are combined in
file-name order; image files directly inside the folder are single-image
receipts. Results are written to the output directory as <receipt>.json.

A receipt is reported as a warning when no items were found or when the
items do not add up to the printed total or item count.`,
	Example: `  # Parse all receipts into ./results
  receipts batch ./receipts --out ./results

  # More parallel receipts
  receipts batch ./receipts --out ./results --workers 8`,
	Args: cobra.ExactArgs(1),
	RunE: runBatch,
}

// BatchResult represents the result of parsing a single receipt
type BatchResult struct {
	Name   string
	Result *models.ParseResult
	Error  error
	Status string // "success", "warning", "error"
	Index  int    // Original order index
}

// WorkerJob represents one receipt to parse
type WorkerJob struct {
	Name   string
	Images []string
	Index  int
}

var imageExtensions = map[string]bool{
	".jpg": true, ".jpeg": true, ".png": true, ".gif": true,
	".heic": true, ".heif": true, ".webp": true, ".tif": true, ".tiff": true,
}

func init() {
	rootCmd.AddCommand(batchCmd)

	batchCmd.Flags().String("out", "", "Directory for the JSON results [REQUIRED]")
	batchCmd.Flags().Int("workers", 4, "Number of receipts parsed in parallel")
	batchCmd.Flags().Int("timeout", 30, "Overall timeout in minutes")

	batchCmd.MarkFlagRequired("out")
}

func runBatch(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("batch")

	folderPath := args[0]
	outDir, _ := cmd.Flags().GetString("out")
	numWorkers, _ := cmd.Flags().GetInt("workers")
	timeoutMins, _ := cmd.Flags().GetInt("timeout")
	if numWorkers < 1 {
		return fmt.Errorf("--workers must be at least 1")
	}

	folderInfo, err := os.Stat(folderPath)
	if err != nil {
		return fmt.Errorf("folder not found: %s", folderPath)
	}
	if !folderInfo.IsDir() {
		return fmt.Errorf("path is not a directory: %s", folderPath)
	}
	if err := os.MkdirAll(outDir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	jobs, err := findReceipts(folderPath)
	if err != nil {
		return fmt.Errorf("failed to find receipts: %w", err)
	}
	if len(jobs) == 0 {
		fmt.Println("No receipt images found in folder.")
		return nil
	}

	log.Info().
		Str("folder", folderPath).
		Str("out", outDir).
		Int("receipts", len(jobs)).
		Int("workers", numWorkers).
		Msg("Starting batch parsing")

	ctx, cancel := createContextWithTimeout(time.Duration(timeoutMins)*time.Minute, log)
	defer cancel()

	service, closeService, err := createReceiptService(ctx, log)
	if err != nil {
		return err
	}
	defer closeService()

	fmt.Printf("Parsing %d receipts with %d parallel workers...\n\n", len(jobs), numWorkers)

	results := parseReceiptsInParallel(ctx, jobs, service, outDir, numWorkers, log)

	var successCount, warningCount, errorCount int
	for _, result := range results {
		switch result.Status {
		case "success":
			successCount++
		case "warning":
			warningCount++
		case "error":
			errorCount++
		}
	}

	fmt.Println()
	fmt.Println(strings.Repeat("=", 50))
	fmt.Printf("Succeeded: %d\n", successCount)
	if warningCount > 0 {
		fmt.Printf("Warnings:  %d\n", warningCount)
	}
	if errorCount > 0 {
		fmt.Printf("Errors:    %d\n", errorCount)
	}
	fmt.Println(strings.Repeat("=", 50))

	log.Info().
		Int("total", len(jobs)).
		Int("success", successCount).
		Int("warnings", warningCount).
		Int("errors", errorCount).
		Msg("Batch parsing completed")

	return nil
}

// findReceipts groups the images of folderPath into receipts. Result names
// are unique: a file whose stem clashes with another receipt keeps its
// extension, and any remaining clash gets a numeric suffix.
func findReceipts(folderPath string) ([]WorkerJob, error) {
	entries, err := os.ReadDir(folderPath)
	if err != nil {
		return nil, err
	}

	var jobs []WorkerJob
	var fileNames []string // full file name per job, empty for directories
	for _, entry := range entries {
		path := filepath.Join(folderPath, entry.Name())
		if entry.IsDir() {
			images, err := imagesIn(path)
			if err != nil {
				return nil, err
			}
			if len(images) > 0 {
				jobs = append(jobs, WorkerJob{Name: entry.Name(), Images: images})
				fileNames = append(fileNames, "")
			}
			continue
		}
		if isImageFile(entry.Name()) {
			name := strings.TrimSuffix(entry.Name(), filepath.Ext(entry.Name()))
			jobs = append(jobs, WorkerJob{Name: name, Images: []string{path}})
			fileNames = append(fileNames, entry.Name())
		}
	}

	stems := make(map[string]int, len(jobs))
	for _, job := range jobs {
		stems[job.Name]++
	}
	for i := range jobs {
		if stems[jobs[i].Name] > 1 && fileNames[i] != "" {
			jobs[i].Name = fileNames[i]
		}
	}

	sort.SliceStable(jobs, func(i, j int) bool { return jobs[i].Name < jobs[j].Name })

	taken := make(map[string]bool, len(jobs))
	for _, job := range jobs {
		taken[job.Name] = true
	}
	seen := make(map[string]bool, len(jobs))
	for i := range jobs {
		name := jobs[i].Name
		if seen[name] {
			for n := 2; ; n++ {
				candidate := fmt.Sprintf("%s-%d", jobs[i].Name, n)
				if !taken[candidate] {
					name = candidate
					break
				}
			}
		}
		seen[name], taken[name] = true, true
		jobs[i].Name = name
		jobs[i].Index = i
	}
	return jobs, nil
}

func imagesIn(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var images []string
	for _, entry := range entries {
		if !entry.IsDir() && isImageFile(entry.Name()) {
			images = append(images, filepath.Join(dir, entry.Name()))
		}
	}
	sort.Strings(images)
	return images, nil
}

func isImageFile(name string) bool {
	return imageExtensions[strings.ToLower(filepath.Ext(name))]
}

// parseSingleReceipt parses one receipt and writes its JSON result
func parseSingleReceipt(ctx context.Context, job WorkerJob, service *receipt.Service, outDir string, log zerolog.Logger) BatchResult {
	result := BatchResult{
		Name:   job.Name,
		Index:  job.Index,
		Status: "error",
	}

	outputPath := filepath.Join(outDir, job.Name+".json")

	parsed, err := service.ParseReceipt(ctx, job.Images, receipt.Hints{})
	if err != nil {
		result.Error = err
		failure := models.Failure{Success: false, Error: describeError(err)}
		if writeErr := writeJSON(failure, outputPath, log); writeErr != nil {
			log.Warn().
				Err(writeErr).
				Str("receipt", job.Name).
				Str("output_file", outputPath).
				Msg("Failed to write failure result")
			result.Error = errors.Join(err, writeErr)
		}
		return result
	}

	if err := writeJSON(parsed, outputPath, log); err != nil {
		result.Error = err
		return result
	}

	result.Result = parsed
	result.Status = "success"
	rec := parsed.Reconciliation
	if len(parsed.Items) == 0 || rec.TotalMismatch || rec.CountMismatch {
		result.Status = "warning"
	}
	return result
}

// parseReceiptsInParallel parses receipts using a worker pool pattern
func parseReceiptsInParallel(ctx context.Context, jobs []WorkerJob, service *receipt.Service, outDir string, numWorkers int, log zerolog.Logger) []BatchResult {
	jobChan := make(chan WorkerJob, len(jobs))
	results := make([]BatchResult, len(jobs))

	var processedCount int
	var mu sync.Mutex

	var wg sync.WaitGroup
	for w := 0; w < numWorkers; w++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()

			for job := range jobChan {
				log.Debug().
					Int("worker", workerID).
					Str("receipt", job.Name).
					Int("images", len(job.Images)).
					Msg("Worker parsing receipt")

				result := parseSingleReceipt(ctx, job, service, outDir, log)
				results[job.Index] = result

				mu.Lock()
				processedCount++
				fmt.Printf("[%d/%d] %s - %s", processedCount, len(jobs), job.Name, result.Status)
				if result.Error != nil {
					fmt.Printf(" (%s)", result.Error.Error())
				} else if result.Result != nil {
					fmt.Printf(" (%d items, computed %s", len(result.Result.Items), result.Result.Reconciliation.ComputedTotal.StringFixed(2))
					if printed := result.Result.PrintedTotal; printed != nil {
						fmt.Printf(", printed %s", printed.StringFixed(2))
					}
					fmt.Print(")")
				}
				fmt.Println()
				mu.Unlock()
			}
		}(w)
	}

	for _, job := range jobs {
		jobChan <- job
	}
	close(jobChan)

	wg.Wait()

	return results
}
