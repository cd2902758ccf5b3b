package store

import (
	"encoding/json"
	"path/filepath"
	"time"

	"github.com/vexhq/vexobs/pkg/models"
)

const tokenUsageFile = "token-usage.jsonl"

// TokenStore is the append-only log store for token usage records. All
// conversations share a single stream.
type TokenStore struct {
	path   string
	prices models.PriceTable
}

// NewTokenStore creates a TokenStore writing under <root>/logs using the
// given price table to derive record costs.
func NewTokenStore(root string, prices models.PriceTable) *TokenStore {
	return &TokenStore{
		path:   filepath.Join(root, "logs", tokenUsageFile),
		prices: prices,
	}
}

// Path returns the backing stream path.
func (s *TokenStore) Path() string { return s.path }

// Append validates rec, computes its derived fields (total tokens, cost),
// and appends it to the stream as one atomic write. The record is never
// partially written: validation failures happen before any I/O.
func (s *TokenStore) Append(rec *models.TokenUsage) error {
	if err := rec.Validate(); err != nil {
		return err
	}
	rec.Finalize(s.prices)

	line, err := json.Marshal(rec)
	if err != nil {
		return &models.IOError{Op: "encoding record", Path: s.path, Err: err}
	}
	return appendLine(s.path, line)
}

// Scan returns every intact record whose timestamp falls in [from, to),
// along with the count of malformed lines skipped. Each call re-scans the
// stream from the beginning.
func (s *TokenStore) Scan(from, to time.Time) ([]models.TokenUsage, int, error) {
	return scanFile(s.path, func(r *models.TokenUsage) time.Time { return r.Timestamp }, from, to)
}
