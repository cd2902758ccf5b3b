package store

import (
	"encoding/json"
	"path/filepath"
	"time"

	"github.com/vexhq/vexobs/pkg/models"
)

const errorLogFile = "errors.jsonl"

// ErrorStore is the append-only log store for error records. All sources
// report into a single shared stream.
type ErrorStore struct {
	path string
}

// NewErrorStore creates an ErrorStore writing under <root>/logs.
func NewErrorStore(root string) *ErrorStore {
	return &ErrorStore{path: filepath.Join(root, "logs", errorLogFile)}
}

// Path returns the backing stream path.
func (s *ErrorStore) Path() string { return s.path }

// Append validates rec, fills envelope defaults, and appends it to the
// stream as one atomic write.
func (s *ErrorStore) Append(rec *models.ErrorRecord) error {
	if err := rec.Validate(); err != nil {
		return err
	}
	rec.Finalize()

	line, err := json.Marshal(rec)
	if err != nil {
		return &models.IOError{Op: "encoding record", Path: s.path, Err: err}
	}
	return appendLine(s.path, line)
}

// Scan returns every intact record whose timestamp falls in [from, to),
// along with the count of malformed lines skipped.
func (s *ErrorStore) Scan(from, to time.Time) ([]models.ErrorRecord, int, error) {
	return scanFile(s.path, func(r *models.ErrorRecord) time.Time { return r.Timestamp }, from, to)
}
