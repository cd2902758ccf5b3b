package store

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/vexhq/vexobs/pkg/models"
)

func TestArchiveBefore_MovesColdFiles(t *testing.T) {
	root := t.TempDir()
	traces := NewTraceStore(root)
	errs := NewErrorStore(root)

	start := time.Date(2026, 5, 10, 9, 0, 0, 0, time.UTC)
	rec := models.LatencyTrace{
		ConversationID: "old-conv",
		TraceID:        "t1",
		OperationType:  "rag_search",
		OperationName:  "q",
		StartTime:      start,
		EndTime:        start.Add(time.Second),
	}
	if _, err := traces.Append(&rec); err != nil {
		t.Fatalf("appending trace: %v", err)
	}
	errRec := models.ErrorRecord{Severity: models.SeverityError, Source: "vex-rag", Message: "boom"}
	if err := errs.Append(&errRec); err != nil {
		t.Fatalf("appending error: %v", err)
	}

	// Age both files past the cutoff.
	old := time.Date(2026, 5, 31, 0, 0, 0, 0, time.UTC)
	tracePath := filepath.Join(traces.Dir(), "trace-old-conv.jsonl")
	for _, path := range []string{tracePath, errs.Path()} {
		if err := os.Chtimes(path, old, old); err != nil {
			t.Fatalf("aging %s: %v", path, err)
		}
	}

	cutoff := time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC)
	moved, err := ArchiveBefore(root, cutoff)
	if err != nil {
		t.Fatalf("archiving: %v", err)
	}
	if len(moved) != 2 {
		t.Fatalf("expected 2 archived files, got %d: %v", len(moved), moved)
	}

	for _, dest := range moved {
		if filepath.Dir(dest) != filepath.Join(root, "archive") {
			t.Errorf("expected destination under archive/, got %s", dest)
		}
		if _, err := os.Stat(dest); err != nil {
			t.Errorf("archived file missing: %v", err)
		}
	}
	if _, err := os.Stat(tracePath); !os.IsNotExist(err) {
		t.Error("expected original trace stream to be gone after archiving")
	}

	// Archived streams are no longer visible to scans.
	recs, _, err := traces.Scan(time.Time{}, time.Time{})
	if err != nil {
		t.Fatalf("scanning after archive: %v", err)
	}
	if len(recs) != 0 {
		t.Errorf("expected no active trace records, got %d", len(recs))
	}
}

func TestArchiveBefore_KeepsWarmFiles(t *testing.T) {
	root := t.TempDir()
	errs := NewErrorStore(root)

	rec := models.ErrorRecord{Severity: models.SeverityWarning, Source: "vex-rag", Message: "recent"}
	if err := errs.Append(&rec); err != nil {
		t.Fatalf("appending error: %v", err)
	}

	// Cutoff in the past: the freshly written file must stay.
	moved, err := ArchiveBefore(root, time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("archiving: %v", err)
	}
	if len(moved) != 0 {
		t.Errorf("expected nothing archived, got %v", moved)
	}
	if _, err := os.Stat(errs.Path()); err != nil {
		t.Errorf("expected active error log untouched: %v", err)
	}
}
