// Package source fetches receipt images from local paths or http(s) URLs.
package source

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"receipts/internal/logger"
)

// MaxImageBytes caps how much of one image is read.
const MaxImageBytes = 25 * 1024 * 1024

var (
	// ErrEmptyRef is recorded for blank image references.
	ErrEmptyRef = errors.New("empty image reference")

	// ErrFetchFailed is recorded when a URL cannot be downloaded.
	ErrFetchFailed = errors.New("image fetch failed")

	// ErrTooLarge is recorded when an image exceeds MaxImageBytes.
	ErrTooLarge = errors.New("image exceeds size limit")
)

// Image is one loaded reference. Err is set instead of Data when loading
// failed; the other images are unaffected.
type Image struct {
	Ref      string
	Data     []byte
	MimeType string
	Err      error
}

// Loader reads images concurrently.
type Loader struct {
	client      *http.Client
	concurrency int
	log         zerolog.Logger
}

// NewLoader creates a loader. A nil client gets one with the given timeout.
func NewLoader(client *http.Client, concurrency int, timeout time.Duration) *Loader {
	if client == nil {
		client = &http.Client{Timeout: timeout}
	}
	if concurrency < 1 {
		concurrency = 1
	}
	return &Loader{
		client:      client,
		concurrency: concurrency,
		log:         logger.WithComponent("source"),
	}
}

// LoadAll loads every reference, keeping input order. Failures are recorded
// on the matching Image; only context cancellation stops the batch early,
// in which case the remaining images carry the context error.
func (l *Loader) LoadAll(ctx context.Context, refs []string) []Image {
	images := make([]Image, len(refs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(l.concurrency)
	for i, ref := range refs {
		images[i].Ref = ref
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				images[i].Err = err
				return nil
			}
			data, mimeType, err := l.load(gctx, ref)
			if err != nil {
				l.log.Warn().Err(err).Int("image", i).Str("ref", ref).Msg("Failed to load image")
				images[i].Err = err
				return nil
			}
			images[i].Data = data
			images[i].MimeType = mimeType
			return nil
		})
	}
	_ = g.Wait()

	return images
}

func (l *Loader) load(ctx context.Context, ref string) ([]byte, string, error) {
	ref = strings.TrimSpace(ref)
	switch {
	case ref == "":
		return nil, "", ErrEmptyRef
	case strings.HasPrefix(ref, "http://") || strings.HasPrefix(ref, "https://"):
		return l.fetch(ctx, ref)
	default:
		return readFile(strings.TrimPrefix(ref, "file://"))
	}
}

func (l *Loader) fetch(ctx context.Context, url string) ([]byte, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, "", fmt.Errorf("%w: build request: %v", ErrFetchFailed, err)
	}

	resp, err := l.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, "", ctx.Err()
		}
		return nil, "", fmt.Errorf("%w: %v", ErrFetchFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		return nil, "", fmt.Errorf("%w: %s returned status %d", ErrFetchFailed, url, resp.StatusCode)
	}

	data, err := readLimited(resp.Body)
	if err != nil {
		return nil, "", err
	}
	return data, resp.Header.Get("Content-Type"), nil
}

func readFile(path string) ([]byte, string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, "", fmt.Errorf("opening image: %w", err)
	}
	defer f.Close()

	data, err := readLimited(f)
	if err != nil {
		return nil, "", err
	}
	return data, mime.TypeByExtension(strings.ToLower(filepath.Ext(path))), nil
}

func readLimited(r io.Reader) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(r, MaxImageBytes+1))
	if err != nil {
		return nil, fmt.Errorf("reading image: %w", err)
	}
	if len(data) > MaxImageBytes {
		return nil, ErrTooLarge
	}
	return data, nil
}
