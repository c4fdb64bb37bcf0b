package ocr

import (
	"context"
	"fmt"
	"strings"
	"time"

	vision "cloud.google.com/go/vision/v2/apiv1"
	"cloud.google.com/go/vision/v2/apiv1/visionpb"
	"github.com/rs/zerolog"

	"receipts/internal/logger"
	"receipts/pkg/models"
)

// VisionAnalyzer implements Analyzer using the Google Cloud Vision API.
// Vision has no table detection, so it only produces LINE and WORD blocks.
type VisionAnalyzer struct {
	client  *vision.ImageAnnotatorClient
	timeout time.Duration
	log     zerolog.Logger
}

// NewVisionAnalyzer creates a new Vision client. Empty credentials fall back
// to Application Default Credentials.
func NewVisionAnalyzer(ctx context.Context, creds Credentials, timeout time.Duration) (*VisionAnalyzer, error) {
	const op = "NewVisionAnalyzer"

	opts := creds.options()
	client, err := vision.NewImageAnnotatorClient(ctx, opts...)
	if err != nil {
		if len(opts) == 0 {
			return nil, WrapOCRError(op, ErrMissingCredentials, "no credentials found in environment")
		}
		return nil, WrapOCRError(op, err, "failed to create Vision client")
	}

	return NewVisionAnalyzerWithClient(client, timeout), nil
}

// NewVisionAnalyzerWithClient creates a new analyzer with an explicit client (for testing).
func NewVisionAnalyzerWithClient(client *vision.ImageAnnotatorClient, timeout time.Duration) *VisionAnalyzer {
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &VisionAnalyzer{
		client:  client,
		timeout: timeout,
		log:     logger.WithComponent("vision"),
	}
}

// Analyze runs document text detection on one image.
func (v *VisionAnalyzer) Analyze(ctx context.Context, image []byte, _ string) ([]models.Block, error) {
	const op = "Analyze"

	if len(image) == 0 {
		return nil, WrapOCRError(op, ErrInvalidImage, "empty image")
	}
	if len(image) > MaxImageSizeBytes {
		return nil, WrapOCRError(op, ErrImageTooLarge, fmt.Sprintf("image size: %d bytes", len(image)))
	}

	callCtx, cancel := context.WithTimeout(ctx, v.timeout)
	defer cancel()

	req := &visionpb.BatchAnnotateImagesRequest{
		Requests: []*visionpb.AnnotateImageRequest{
			{
				Image: &visionpb.Image{Content: image},
				Features: []*visionpb.Feature{
					{
						Type: visionpb.Feature_DOCUMENT_TEXT_DETECTION,
					},
				},
			},
		},
	}

	start := time.Now()
	resp, err := v.client.BatchAnnotateImages(callCtx, req)
	if err != nil {
		return nil, classifyServiceError(op, err, "Vision endpoint not found")
	}

	if len(resp.GetResponses()) == 0 {
		return nil, WrapOCRError(op, ErrProcessingFailed, "no response from Vision API")
	}
	imageResp := resp.GetResponses()[0]
	if imageResp.GetError() != nil {
		return nil, WrapOCRError(op, ErrInvalidImage, fmt.Sprintf("Vision API error: %s", imageResp.GetError().GetMessage()))
	}

	blocks := annotationToBlocks(imageResp.GetFullTextAnnotation())
	if len(blocks) == 0 {
		return nil, WrapOCRError(op, ErrEmptyDocument, "no text detected")
	}

	v.log.Debug().
		Int("blocks", len(blocks)).
		Dur("duration", time.Since(start)).
		Msg("Vision analysis completed")

	return blocks, nil
}

// Close closes the underlying Vision client.
func (v *VisionAnalyzer) Close() error {
	if v.client != nil {
		return v.client.Close()
	}
	return nil
}

// annotationToBlocks rebuilds lines from Vision's word hierarchy. A word
// ending in a line break closes the current fragment.
func annotationToBlocks(annotation *visionpb.TextAnnotation) []models.Block {
	var blocks []models.Block

	for pi, page := range annotation.GetPages() {
		width := float64(page.GetWidth())
		height := float64(page.GetHeight())

		var fragments, wordBlocks []models.Block
		var words []string
		var box *models.Geometry
		flush := func() {
			if len(words) == 0 {
				return
			}
			fragments = append(fragments, models.Block{
				ID:       fmt.Sprintf("p%d-l%d", pi, len(fragments)),
				Kind:     models.BlockLine,
				Text:     strings.Join(words, " "),
				Geometry: box,
			})
			words, box = nil, nil
		}

		wordIndex := 0
		for _, block := range page.GetBlocks() {
			for _, paragraph := range block.GetParagraphs() {
				for _, word := range paragraph.GetWords() {
					var text strings.Builder
					lineEnd := false
					for _, symbol := range word.GetSymbols() {
						text.WriteString(symbol.GetText())
						switch symbol.GetProperty().GetDetectedBreak().GetType() {
						case visionpb.TextAnnotation_DetectedBreak_EOL_SURE_SPACE,
							visionpb.TextAnnotation_DetectedBreak_LINE_BREAK:
							lineEnd = true
						}
					}

					geometry := visionBox(word.GetBoundingBox(), width, height)
					wordBlocks = append(wordBlocks, models.Block{
						ID:       fmt.Sprintf("p%d-w%d", pi, wordIndex),
						Kind:     models.BlockWord,
						Text:     text.String(),
						Geometry: geometry,
					})
					wordIndex++

					words = append(words, text.String())
					box = union(box, geometry)
					if lineEnd {
						flush()
					}
				}
				flush()
			}
		}

		blocks = append(blocks, assembleRows(fragments)...)
		blocks = append(blocks, wordBlocks...)
	}
	return blocks
}

func visionBox(poly *visionpb.BoundingPoly, width, height float64) *models.Geometry {
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
