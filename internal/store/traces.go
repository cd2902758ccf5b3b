package store

import (
	"encoding/json"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/vexhq/vexobs/pkg/models"
)

const (
	tracesDir       = "traces"
	traceFilePrefix = "trace-"
)

// TraceStore is the append-only log store for latency traces. Each
// conversation gets its own stream so the span tree of a conversation can
// be reconstructed from a single file.
type TraceStore struct {
	dir string
}

// NewTraceStore creates a TraceStore writing under <root>/logs/traces.
func NewTraceStore(root string) *TraceStore {
	return &TraceStore{dir: filepath.Join(root, "logs", tracesDir)}
}

// Dir returns the directory holding the per-conversation streams.
func (s *TraceStore) Dir() string { return s.dir }

// streamPath maps a conversation ID to its stream file. IDs are opaque
// correlation keys, so anything unsafe in a filename is replaced.
func (s *TraceStore) streamPath(conversationID string) string {
	if conversationID == "" {
		conversationID = models.UnknownConversation
	}
	return filepath.Join(s.dir, traceFilePrefix+sanitizeStreamName(conversationID)+".jsonl")
}

// Append validates rec, computes its duration, and appends it to the
// stream for its conversation as one atomic write. The computed duration
// in milliseconds is returned for the caller's convenience.
func (s *TraceStore) Append(rec *models.LatencyTrace) (float64, error) {
	if err := rec.Validate(); err != nil {
		return 0, err
	}
	rec.Finalize()

	line, err := json.Marshal(rec)
	if err != nil {
		return 0, &models.IOError{Op: "encoding record", Path: s.streamPath(rec.ConversationID), Err: err}
	}
	if err := appendLine(s.streamPath(rec.ConversationID), line); err != nil {
		return 0, err
	}
	return rec.DurationMS, nil
}

// Scan returns every intact record across all per-conversation streams
// whose timestamp falls in [from, to), plus the total count of malformed
// lines skipped. Streams are visited in sorted filename order and records
// keep their within-stream order.
func (s *TraceStore) Scan(from, to time.Time) ([]models.LatencyTrace, int, error) {
	paths, err := filepath.Glob(filepath.Join(s.dir, traceFilePrefix+"*.jsonl"))
	if err != nil {
		return nil, 0, &models.IOError{Op: "discovering trace streams", Path: s.dir, Err: err}
	}
	sort.Strings(paths)

	var (
		records []models.LatencyTrace
		skipped int
	)
	for _, path := range paths {
		recs, skip, err := scanFile(path, func(r *models.LatencyTrace) time.Time { return r.Timestamp }, from, to)
		if err != nil {
			return nil, skipped, err
		}
		records = append(records, recs...)
		skipped += skip
	}
	return records, skipped, nil
}

// ScanConversation returns the spans of a single conversation in append
// order, for call-tree reconstruction.
func (s *TraceStore) ScanConversation(conversationID string, from, to time.Time) ([]models.LatencyTrace, int, error) {
	return scanFile(s.streamPath(conversationID),
		func(r *models.LatencyTrace) time.Time { return r.Timestamp }, from, to)
}

// sanitizeStreamName keeps conversation-derived filenames to a safe
// character set.
func sanitizeStreamName(id string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		case r == '-' || r == '_' || r == '.':
			return r
		default:
			return '_'
		}
	}, id)
}
