// Package ocr turns receipt photographs into typed text blocks with geometry.
//
// Two backends are supported:
//   - Google Document AI (default): lines, tokens and detected tables with cells.
//   - Google Cloud Vision: document text detection; lines only, no tables.
//
// Required Environment Variables:
//   - GOOGLE_APPLICATION_CREDENTIALS: Path to service account JSON file, OR
//   - GOOGLE_CREDENTIALS: Inline JSON credentials string
//   - GOOGLE_CLOUD_PROJECT: Google Cloud project ID (Document AI)
//   - DOCUMENT_AI_PROCESSOR_ID: Document AI processor ID (a Form Parser processor
//     is needed for table detection)
//
// Implementation Details:
//   - Images are sent inline; HEIC photos are re-encoded to JPEG first (see PrepareImage)
//   - Geometry is normalized to the page (0-1) regardless of backend
//   - Text fragments sharing a baseline are merged into one LINE block, left to right
//   - Results can be cached on disk by image hash (see CachedAnalyzer)
package ocr

import (
	"context"

	"receipts/pkg/models"
)

const (
	// MaxImageSizeBytes is the largest image sent inline to either backend (20MB).
	MaxImageSizeBytes = 20 * 1024 * 1024

	ProviderDocumentAI = "documentai"
	ProviderVision     = "vision"
)

// Analyzer is the document-analysis service seen from the receipt parser.
type Analyzer interface {
	// Analyze returns the blocks of one image in reading order.
	Analyze(ctx context.Context, image []byte, mimeType string) ([]models.Block, error)

	// Close releases the underlying client.
	Close() error
}
