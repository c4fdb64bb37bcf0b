package ocr

import (
	"context"
	"fmt"
	"strings"
	"time"

	documentai "cloud.google.com/go/documentai/apiv1"
	"cloud.google.com/go/documentai/apiv1/documentaipb"
	"github.com/rs/zerolog"
	"google.golang.org/api/option"

	"receipts/internal/logger"
	"receipts/pkg/models"
)

// DocumentAIConfig holds configuration for Google Document AI processing.
type DocumentAIConfig struct {
	// ProjectID is the Google Cloud project ID where Document AI is enabled.
	ProjectID string

	// Location is the processing location (e.g., "us", "eu").
	// Should match where your Document AI processor is created.
	Location string

	// ProcessorID is the Document AI processor ID.
	ProcessorID string

	// ProcessorVersion specifies a particular processor version.
	// If empty, uses the default version.
	ProcessorVersion string

	// Timeout is the maximum time to wait for one image.
	Timeout time.Duration

	Credentials Credentials
}

// DocumentAIAnalyzer implements Analyzer using Google Document AI.
type DocumentAIAnalyzer struct {
	client *documentai.DocumentProcessorClient
	config DocumentAIConfig
	log    zerolog.Logger
}

// NewDocumentAIAnalyzer creates a Document AI client for the configured processor.
func NewDocumentAIAnalyzer(ctx context.Context, config DocumentAIConfig) (*DocumentAIAnalyzer, error) {
	const op = "NewDocumentAIAnalyzer"

	if config.ProjectID == "" {
		return nil, WrapOCRError(op, ErrInvalidConfiguration, "GOOGLE_CLOUD_PROJECT is required")
	}
	if config.ProcessorID == "" {
		return nil, WrapOCRError(op, ErrInvalidConfiguration, "DOCUMENT_AI_PROCESSOR_ID is required")
	}
	if config.Location == "" {
		config.Location = "us"
	}
	if config.Timeout <= 0 {
		config.Timeout = 60 * time.Second
	}

	// Set regional endpoint if not us
	var clientOptions []option.ClientOption
	if config.Location != "us" {
		endpoint := fmt.Sprintf("%s-documentai.googleapis.com:443", config.Location)
		clientOptions = append(clientOptions, option.WithEndpoint(endpoint))
	}
	credentialOptions := config.Credentials.options()
	clientOptions = append(clientOptions, credentialOptions...)

	client, err := documentai.NewDocumentProcessorClient(ctx, clientOptions...)
	if err != nil {
		if len(credentialOptions) == 0 {
			return nil, WrapOCRError(op, ErrMissingCredentials, "no credentials found in environment")
		}
		return nil, WrapOCRError(op, err, fmt.Sprintf("failed to create Document AI client for location: %s", config.Location))
	}

	return &DocumentAIAnalyzer{
		client: client,
		config: config,
		log:    logger.WithComponent("document-ai"),
	}, nil
}

// Analyze sends one image to the processor and converts the returned document.
func (p *DocumentAIAnalyzer) Analyze(ctx context.Context, image []byte, mimeType string) ([]models.Block, error) {
	const op = "Analyze"

	if len(image) == 0 {
		return nil, WrapOCRError(op, ErrInvalidImage, "empty image")
	}
	if len(image) > MaxImageSizeBytes {
		return nil, WrapOCRError(op, ErrImageTooLarge, fmt.Sprintf("image size: %d bytes", len(image)))
	}

	processCtx, cancel := context.WithTimeout(ctx, p.config.Timeout)
	defer cancel()

	req := &documentaipb.ProcessRequest{
		Name: p.processorName(),
		Source: &documentaipb.ProcessRequest_RawDocument{
			RawDocument: &documentaipb.RawDocument{
				Content:  image,
				MimeType: mimeType,
			},
		},
	}

	start := time.Now()
	resp, err := p.client.ProcessDocument(processCtx, req)
	if err != nil {
		return nil, p.handleProcessingError(op, err)
	}
	if resp.GetDocument() == nil {
		return nil, WrapOCRError(op, ErrProcessingFailed, "no document in response")
	}

	blocks := documentToBlocks(resp.GetDocument())
	if len(blocks) == 0 {
		return nil, WrapOCRError(op, ErrEmptyDocument, "no lines or tables detected")
	}

	p.log.Debug().
		Int("pages", len(resp.GetDocument().GetPages())).
		Int("blocks", len(blocks)).
		Dur("duration", time.Since(start)).
		Msg("Document AI analysis completed")

	return blocks, nil
}

// processorName constructs the full processor name for Document AI API.
func (p *DocumentAIAnalyzer) processorName() string {
	return p.config.ProcessorName()
}

// ProcessorName returns the resource name requests are sent to. An empty
// location means "us".
func (c DocumentAIConfig) ProcessorName() string {
	location := c.Location
	if location == "" {
		location = "us"
	}
	if c.ProcessorVersion != "" {
		return fmt.Sprintf("projects/%s/locations/%s/processors/%s/processorVersions/%s",
			c.ProjectID, location, c.ProcessorID, c.ProcessorVersion)
	}
	return fmt.Sprintf("projects/%s/locations/%s/processors/%s",
		c.ProjectID, location, c.ProcessorID)
}

// handleProcessingError converts Document AI errors to analysis sentinels.
func (p *DocumentAIAnalyzer) handleProcessingError(op string, err error) error {
	return classifyServiceError(op, err, fmt.Sprintf("processor not found: %s", p.config.ProcessorID))
}

// classifyServiceError maps gRPC failure text from either backend to a sentinel.
func classifyServiceError(op string, err error, notFound string) error {
	errStr := err.Error()

	switch {
	case strings.Contains(errStr, "PERMISSION_DENIED") || strings.Contains(errStr, "PermissionDenied") ||
		strings.Contains(errStr, "Unauthenticated") || strings.Contains(errStr, "invalid_grant"):
		return WrapOCRError(op, ErrInvalidCredentials, "insufficient permissions for document analysis")
	case strings.Contains(errStr, "QUOTA_EXCEEDED") || strings.Contains(errStr, "ResourceExhausted"):
		return WrapOCRError(op, ErrQuotaExceeded, "API quota exceeded")
	case strings.Contains(errStr, "NOT_FOUND") || strings.Contains(errStr, "NotFound"):
		return WrapOCRError(op, ErrProcessorNotFound, notFound)
	case strings.Contains(errStr, "INVALID_ARGUMENT") || strings.Contains(errStr, "InvalidArgument"):
		return WrapOCRError(op, ErrInvalidImage, "image format not supported or corrupted")
	case strings.Contains(errStr, "DeadlineExceeded") || strings.Contains(errStr, "context deadline exceeded"):
		return WrapOCRError(op, context.DeadlineExceeded, "processing timeout")
	case strings.Contains(errStr, "Canceled") || strings.Contains(errStr, "context canceled"):
		return WrapOCRError(op, ErrContextCanceled, "processing was canceled")
	default:
		return WrapOCRError(op, ErrProcessingFailed, fmt.Sprintf("service error: %v", err))
	}
}

// Close closes the underlying Document AI client.
func (p *DocumentAIAnalyzer) Close() error {
	if p.client != nil {
		return p.client.Close()
	}
	return nil
}

type tokenSpan struct {
	id    string
	start int64
}

// documentToBlocks flattens a Document AI document into LINE, WORD, TABLE
// and CELL blocks. Cells reference the tokens that start inside them.
func documentToBlocks(doc *documentaipb.Document) []models.Block {
	text := []rune(doc.GetText())
	var blocks []models.Block

	for pi, page := range doc.GetPages() {
		width := float64(page.GetDimension().GetWidth())
		height := float64(page.GetDimension().GetHeight())

		var fragments []models.Block
		for li, line := range page.GetLines() {
			layout := line.GetLayout()
			lineText := anchorText(text, layout.GetTextAnchor())
			if lineText == "" {
				continue
			}
			fragments = append(fragments, models.Block{
				ID:       fmt.Sprintf("p%d-l%d", pi, li),
				Kind:     models.BlockLine,
				Text:     lineText,
				Geometry: documentBox(layout.GetBoundingPoly(), width, height),
			})
		}
		blocks = append(blocks, assembleRows(fragments)...)

		var tokens []tokenSpan
		for ti, token := range page.GetTokens() {
			layout := token.GetLayout()
			id := fmt.Sprintf("p%d-w%d", pi, ti)
			start, _ := anchorRange(layout.GetTextAnchor())
			tokens = append(tokens, tokenSpan{id: id, start: start})
			blocks = append(blocks, models.Block{
				ID:       id,
				Kind:     models.BlockWord,
				Text:     anchorText(text, layout.GetTextAnchor()),
				Geometry: documentBox(layout.GetBoundingPoly(), width, height),
			})
		}

		for ti, table := range page.GetTables() {
			blocks = append(blocks, tableBlocks(fmt.Sprintf("p%d-t%d", pi, ti), table, text, tokens, width, height)...)
		}
	}
	return blocks
}

func tableBlocks(tableID string, table *documentaipb.Document_Page_Table, text []rune, tokens []tokenSpan, width, height float64) []models.Block {
	tableBlock := models.Block{
		ID:       tableID,
		Kind:     models.BlockTable,
		Geometry: documentBox(table.GetLayout().GetBoundingPoly(), width, height),
	}

	var rows []*documentaipb.Document_Page_Table_TableRow
	rows = append(rows, table.GetHeaderRows()...)
	rows = append(rows, table.GetBodyRows()...)

	var cells []models.Block
	for ri, row := range rows {
		column := 0
		for ci, cell := range row.GetCells() {
			layout := cell.GetLayout()
			start, end := anchorRange(layout.GetTextAnchor())

			var children []string
			for _, token := range tokens {
				if token.start >= start && token.start < end {
					children = append(children, token.id)
				}
			}

			id := fmt.Sprintf("%s-r%d-c%d", tableID, ri, ci)
			cells = append(cells, models.Block{
				ID:          id,
				Kind:        models.BlockCell,
				Text:        anchorText(text, layout.GetTextAnchor()),
				Geometry:    documentBox(layout.GetBoundingPoly(), width, height),
				RowIndex:    ri,
				ColumnIndex: column,
				ChildIDs:    children,
			})
			tableBlock.ChildIDs = append(tableBlock.ChildIDs, id)
			column += max(int(cell.GetColSpan()), 1)
		}
	}
	return append([]models.Block{tableBlock}, cells...)
}

func anchorText(text []rune, anchor *documentaipb.Document_TextAnchor) string {
	var b strings.Builder
	for _, seg := range anchor.GetTextSegments() {
		start, end := int(seg.GetStartIndex()), int(seg.GetEndIndex())
		if start < 0 || end > len(text) || start >= end {
			continue
		}
		b.WriteString(string(text[start:end]))
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

func anchorRange(anchor *documentaipb.Document_TextAnchor) (start, end int64) {
	segments := anchor.GetTextSegments()
	if len(segments) == 0 {
		return 0, 0
	}
	start, end = segments[0].GetStartIndex(), segments[0].GetEndIndex()
	for _, seg := range segments[1:] {
		start = min(start, seg.GetStartIndex())
		end = max(end, seg.GetEndIndex())
	}
	return start, end
}

func documentBox(poly *documentaipb.BoundingPoly, width, height float64) *models.Geometry {
	var points []point
	if normalized := poly.GetNormalizedVertices(); len(normalized) > 0 {
		for _, v := range normalized {
			points = append(points, point{float64(v.GetX()), float64(v.GetY())})
		}
		return boxOf(points)
	}
	if width <= 0 || height <= 0 {
		return nil
	}
	for _, v := range poly.GetVertices() {
		points = append(points, point{float64(v.GetX()) / width, float64(v.GetY()) / height})
	}
	return boxOf(points)
}
