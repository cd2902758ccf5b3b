package bridge

import (
	"bytes"
	"errors"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/vexhq/vexobs/internal/store"
	"github.com/vexhq/vexobs/pkg/models"
)

func testReporter(t *testing.T) (*Reporter, *store.ErrorStore, *bytes.Buffer) {
	t.Helper()
	errStore := store.NewErrorStore(t.TempDir())
	var notice bytes.Buffer
	return NewReporterWithNotice(errStore, &notice), errStore, &notice
}

func TestReport_PersistsRecord(t *testing.T) {
	r, errStore, _ := testReporter(t)

	err := r.Report(Report{
		Severity:  models.SeverityError,
		Source:    "vex-rag",
		Message:   "embedding request failed",
		ErrorType: "api_error",
		ExitCode:  2,
	})
	if err != nil {
		t.Fatalf("reporting: %v", err)
	}

	recs, _, err := errStore.Scan(time.Time{}, time.Time{})
	if err != nil {
		t.Fatalf("scanning: %v", err)
	}
	if len(recs) != 1 {
		t.Fatalf("expected 1 record, got %d", len(recs))
	}
	if recs[0].ErrorType != "api_error" || recs[0].ExitCode != 2 {
		t.Errorf("unexpected record: %+v", recs[0])
	}
	if string(recs[0].Context) != "{}" {
		t.Errorf("expected defaulted context, got %q", recs[0].Context)
	}
}

func TestReport_ValidationFailsFast(t *testing.T) {
	r, errStore, notice := testReporter(t)

	err := r.Report(Report{Severity: "catastrophic", Source: "vex-rag", Message: "boom"})
	if !models.IsValidation(err) {
		t.Fatalf("expected a ValidationError, got %v", err)
	}

	recs, _, _ := errStore.Scan(time.Time{}, time.Time{})
	if len(recs) != 0 {
		t.Error("expected nothing persisted for an invalid report")
	}
	if notice.Len() != 0 {
		t.Error("expected no notice for an invalid report")
	}
}

func TestReport_UnrecoveredEmitsNotice(t *testing.T) {
	r, _, notice := testReporter(t)

	if err := r.Report(Report{
		Severity: models.SeverityError,
		Source:   "vex-rag",
		Message:  "index corrupted",
	}); err != nil {
		t.Fatalf("reporting: %v", err)
	}

	got := notice.String()
	if !strings.Contains(got, "[ERROR] vex-rag: index corrupted") {
		t.Errorf("unexpected notice: %q", got)
	}
	if strings.Count(got, "\n") != 1 {
		t.Errorf("expected exactly one notice line, got %q", got)
	}
}

func TestReport_RecoveredStaysQuiet(t *testing.T) {
	r, errStore, notice := testReporter(t)

	if err := r.Report(Report{
		Severity:  models.SeverityWarning,
		Source:    "vex-rag",
		Message:   "retried after timeout",
		Recovered: true,
	}); err != nil {
		t.Fatalf("reporting: %v", err)
	}

	if notice.Len() != 0 {
		t.Errorf("expected no notice for a recovered report, got %q", notice.String())
	}
	recs, _, _ := errStore.Scan(time.Time{}, time.Time{})
	if len(recs) != 1 || !recs[0].Recovered {
		t.Error("expected the recovered record persisted")
	}
}

func TestReport_StorageFailureIsSwallowed(t *testing.T) {
	// Point the store at a path whose parent is a file, so appends fail.
	root := t.TempDir() + "/not-a-dir"
	if err := os.WriteFile(root, []byte("x"), 0o600); err != nil {
		t.Fatalf("setting up blocker: %v", err)
	}
	r := NewReporterWithNotice(store.NewErrorStore(root), &bytes.Buffer{})

	err := r.Report(Report{
		Severity: models.SeverityError,
		Source:   "vex-rag",
		Message:  "boom",
	})
	if err != nil {
		t.Fatalf("expected storage failure swallowed, got %v", err)
	}
}

func TestWithFailureReporting(t *testing.T) {
	r, errStore, _ := testReporter(t)

	original := errors.New("connection refused")
	err := r.WithFailureReporting("vex-rag", "rag_search", func() error {
		return original
	})
	if !errors.Is(err, original) {
		t.Fatalf("expected original error propagated, got %v", err)
	}

	recs, _, _ := errStore.Scan(time.Time{}, time.Time{})
	if len(recs) != 1 {
		t.Fatalf("expected 1 record, got %d", len(recs))
	}
	if recs[0].ErrorType != "execution_failure" {
		t.Errorf("expected execution_failure type, got %q", recs[0].ErrorType)
	}
	if !strings.Contains(recs[0].Message, "rag_search failed") {
		t.Errorf("unexpected message: %q", recs[0].Message)
	}
	if recs[0].ExitCode != 1 {
		t.Errorf("expected default exit code 1, got %d", recs[0].ExitCode)
	}
}

func TestWithFailureReporting_SuccessReportsNothing(t *testing.T) {
	r, errStore, _ := testReporter(t)

	if err := r.WithFailureReporting("vex-rag", "rag_index", func() error { return nil }); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	recs, _, _ := errStore.Scan(time.Time{}, time.Time{})
	if len(recs) != 0 {
		t.Errorf("expected no records on success, got %d", len(recs))
	}
}
