package receipt

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"receipts/internal/logger"
	"receipts/internal/ocr"
	"receipts/internal/source"
	"receipts/pkg/models"
)

// Loader fetches the raw images of one receipt.
type Loader interface {
	LoadAll(ctx context.Context, refs []string) []source.Image
}

// ServiceConfig tunes how images are prepared and analyzed.
type ServiceConfig struct {
	// Enhance converts images to high-contrast grayscale before analysis.
	Enhance bool

	// Concurrency bounds how many images are analyzed at once.
	Concurrency int
}

// Service fetches, analyzes and parses the images of one receipt.
type Service struct {
	loader   Loader
	analyzer ocr.Analyzer
	config   ServiceConfig
	log      zerolog.Logger
}

// NewService creates a receipt service.
func NewService(loader Loader, analyzer ocr.Analyzer, config ServiceConfig) *Service {
	if config.Concurrency < 1 {
		config.Concurrency = 1
	}
	return &Service{
		loader:   loader,
		analyzer: analyzer,
		config:   config,
		log:      logger.WithComponent("receipt"),
	}
}

// ParseReceipt runs the full pipeline over refs, in order. Images that fail
// to load or analyze are skipped; a service-level analysis failure aborts
// the whole invocation and no result is returned.
func (s *Service) ParseReceipt(ctx context.Context, refs []string, hints Hints) (*models.ParseResult, error) {
	const op = "ParseReceipt"

	if len(refs) == 0 {
		return nil, NewParseError(op, ErrNoImages, "")
	}

	start := time.Now()
	runID := uuid.NewString()
	log := logger.WithRunID("receipt", runID)
	log.Info().Int("images", len(refs)).Msg("Parsing receipt")

	images := s.loader.LoadAll(ctx, refs)
	if err := ctx.Err(); err != nil {
		return nil, &ParseError{Op: op, Err: err, RunID: runID}
	}

	pages, err := s.analyzeAll(ctx, log, images)
	if err != nil {
		log.Error().Err(err).Msg("Analysis aborted")
		return nil, &ParseError{Op: op, Err: fmt.Errorf("%w: %w", ErrAnalysisFailed, err), RunID: runID}
	}

	result := NewParser(log).Parse(pages, hints)
	result.Run.ID = runID
	result.Run.ProcessingDuration = time.Since(start)
	return result, nil
}

// AnalyzeBlocks loads and analyzes refs without parsing, for saving the
// raw blocks. Skipped images yield an empty block list.
func (s *Service) AnalyzeBlocks(ctx context.Context, refs []string) ([][]models.Block, error) {
	const op = "AnalyzeBlocks"

	if len(refs) == 0 {
		return nil, NewParseError(op, ErrNoImages, "")
	}

	runID := uuid.NewString()
	log := logger.WithRunID("receipt", runID)

	images := s.loader.LoadAll(ctx, refs)
	if err := ctx.Err(); err != nil {
		return nil, &ParseError{Op: op, Err: err, RunID: runID}
	}

	pages, err := s.analyzeAll(ctx, log, images)
	if err != nil {
		return nil, &ParseError{Op: op, Err: fmt.Errorf("%w: %w", ErrAnalysisFailed, err), RunID: runID}
	}
	for i := range pages {
		if pages[i] == nil {
			pages[i] = []models.Block{}
		}
	}
	return pages, nil
}

// analyzeAll returns the blocks of each image at its input index. Skipped
// images leave a nil entry.
func (s *Service) analyzeAll(ctx context.Context, log zerolog.Logger, images []source.Image) ([][]models.Block, error) {
	pages := make([][]models.Block, len(images))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.config.Concurrency)
	for i, img := range images {
		if img.Err != nil {
			log.Warn().Err(img.Err).Int("image", i).Msg("Skipping image that failed to load")
			continue
		}
		g.Go(func() error {
			blocks, err := s.analyzeOne(gctx, img)
			if err != nil {
				if ocr.IsFatal(err) {
					return err
				}
				log.Warn().Err(err).Int("image", i).Str("ref", img.Ref).Msg("Skipping image that failed analysis")
				return nil
			}
			pages[i] = blocks
			log.Debug().Int("image", i).Int("blocks", len(blocks)).Msg("Image analyzed")
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return pages, nil
}

func (s *Service) analyzeOne(ctx context.Context, img source.Image) ([]models.Block, error) {
	data, mimeType, err := ocr.PrepareImage(img.Data, img.MimeType, s.config.Enhance)
	if err != nil {
		return nil, err
	}
	return s.analyzer.Analyze(ctx, data, mimeType)
}
