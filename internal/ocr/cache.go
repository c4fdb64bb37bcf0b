package ocr

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"go.etcd.io/bbolt"

	"receipts/internal/logger"
	"receipts/pkg/models"
)

const blocksBucket = "blocks"

// CachedAnalyzer stores analysis results in a bbolt file keyed by the
// image hash, so re-running a receipt does not call the service again.
// Entries are scoped to the analyzer that produced them: a different
// provider, processor or processor version never sees another's blocks.
type CachedAnalyzer struct {
	next     Analyzer
	scope    string
	db       *bbolt.DB
	log      zerolog.Logger
}

// NewCachedAnalyzer opens (or creates) the cache file at path in front of next.
// scope identifies the backend configuration, see config.AnalyzerScope.
func NewCachedAnalyzer(next Analyzer, scope, path string) (*CachedAnalyzer, error) {
	const op = "NewCachedAnalyzer"

	db, err := bbolt.Open(path, 0600, &bbolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, WrapOCRError(op, ErrInvalidConfiguration, fmt.Sprintf("opening cache %s: %v", path, err))
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(blocksBucket))
		return err
	})
	if err != nil {
		db.Close()
		return nil, WrapOCRError(op, ErrInvalidConfiguration, fmt.Sprintf("creating bucket: %v", err))
	}

	return &CachedAnalyzer{
		next:     next,
		scope:    scope,
		db:       db,
		log:      logger.WithComponent("ocr-cache"),
	}, nil
}

// Analyze returns cached blocks for image when present, otherwise delegates
// and stores the result. Failed analyses are not cached.
func (c *CachedAnalyzer) Analyze(ctx context.Context, image []byte, mimeType string) ([]models.Block, error) {
	key := c.key(image)

	var blocks []models.Block
	err := c.db.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket([]byte(blocksBucket)).Get(key)
		if data == nil {
			return nil
		}
		return json.Unmarshal(data, &blocks)
	})
	if err != nil {
		c.log.Warn().Err(err).Msg("Ignoring unreadable cache entry")
		blocks = nil
	}
	if blocks != nil {
		c.log.Debug().Str("key", hex.EncodeToString(key[:8])).Int("blocks", len(blocks)).Msg("Cache hit")
		return blocks, nil
	}

	blocks, err = c.next.Analyze(ctx, image, mimeType)
	if err != nil {
		return nil, err
	}

	data, err := json.Marshal(blocks)
	if err != nil {
		return blocks, nil
	}
	err = c.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket([]byte(blocksBucket)).Put(key, data)
	})
	if err != nil {
		c.log.Warn().Err(err).Msg("Failed to store cache entry")
	}
	return blocks, nil
}

func (c *CachedAnalyzer) key(image []byte) []byte {
	h := sha256.New()
	h.Write([]byte(c.scope))
	h.Write([]byte{0})
	h.Write(image)
	return h.Sum(nil)
}

// Close closes the cache file and the wrapped analyzer.
func (c *CachedAnalyzer) Close() error {
	dbErr := c.db.Close()
	if err := c.next.Close(); err != nil {
		return err
	}
	return dbErr
}
