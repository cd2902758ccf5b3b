// Package bridge provides the error-reporting path any component can call
// when something has already gone wrong. Reporting never raises: a bridge
// that fails to persist its record swallows the failure after one
// best-effort attempt, because this path exists specifically to prevent
// cascading failures. It is the only component permitted to suppress its
// own I/O errors.
package bridge

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"

	"github.com/vexhq/vexobs/internal/store"
	"github.com/vexhq/vexobs/pkg/models"
)

// Report is one failure report. Severity, Source, and Message are
// required; everything else defaults (Recovered false, ExitCode 0,
// Context empty).
type Report struct {
	Severity       models.Severity
	Source         string
	Message        string
	ErrorType      string
	ExitCode       int
	Context        json.RawMessage
	StackTrace     string
	ResolutionHint string
	Recovered      bool
	ConversationID string
}

// Reporter writes error records through the error log store and emits a
// one-line notice for unrecovered failures so they are visible in real
// time.
type Reporter struct {
	store  *store.ErrorStore
	notice io.Writer
}

// NewReporter creates a Reporter appending through errStore. Notices for
// unrecovered failures go to stderr.
func NewReporter(errStore *store.ErrorStore) *Reporter {
	return &Reporter{store: errStore, notice: os.Stderr}
}

// NewReporterWithNotice creates a Reporter with an explicit notice writer.
func NewReporterWithNotice(errStore *store.ErrorStore, notice io.Writer) *Reporter {
	return &Reporter{store: errStore, notice: notice}
}

// Report validates rep, builds an error record, and appends it. A missing
// or invalid required field is a usage error returned before anything is
// logged. Storage failures are swallowed: the record is lost, the caller's
// flow is not.
//
// Side effect: an unrecovered report emits a single human-readable line to
// the notice writer; a recovered one stays quiet to avoid noise for
// expected, handled conditions.
func (r *Reporter) Report(rep Report) error {
	rec := models.ErrorRecord{
		ConversationID: rep.ConversationID,
		Severity:       rep.Severity,
		Source:         rep.Source,
		ErrorType:      rep.ErrorType,
		Message:        rep.Message,
		ExitCode:       rep.ExitCode,
		Context:        rep.Context,
		StackTrace:     rep.StackTrace,
		ResolutionHint: rep.ResolutionHint,
		Recovered:      rep.Recovered,
	}
	if err := rec.Validate(); err != nil {
		return err
	}

	if err := r.store.Append(&rec); err != nil {
		// Best-effort only. Swallowed by contract.
		logrus.WithError(err).WithField("source", rep.Source).
			Debug("error bridge could not persist record")
	}

	if !rep.Recovered && r.notice != nil {
		fmt.Fprintf(r.notice, "[%s] %s: %s\n",
			severityTag(rep.Severity), rep.Source, rep.Message)
	}
	return nil
}

func severityTag(s models.Severity) string {
	switch s {
	case models.SeverityError:
		return "ERROR"
	case models.SeverityWarning:
		return "WARNING"
	default:
		return "INFO"
	}
}

// exitCoder is implemented by errors that carry a process exit status,
// such as exec.ExitError.
type exitCoder interface {
	ExitCode() int
}

// WithFailureReporting runs fn and, if it fails, reports the failure
// through the bridge before propagating the original error. The report is
// best-effort: an unavailable bridge never masks the underlying failure.
// This replaces the trap-style failure interception producers would
// otherwise install themselves.
func (r *Reporter) WithFailureReporting(source, operation string, fn func() error) error {
	err := fn()
	if err == nil {
		return nil
	}

	exitCode := 1
	if ec, ok := err.(exitCoder); ok {
		exitCode = ec.ExitCode()
	}

	ctx, merr := json.Marshal(map[string]string{"operation": operation})
	if merr != nil {
		ctx = json.RawMessage("{}")
	}
	_ = r.Report(Report{
		Severity:  models.SeverityError,
		Source:    source,
		Message:   fmt.Sprintf("%s failed: %v", operation, err),
		ErrorType: "execution_failure",
		ExitCode:  exitCode,
		Context:   ctx,
		Recovered: false,
	})

	return err
}
