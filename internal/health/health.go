// Package health derives point-in-time health snapshots from the error
// and token-usage log stores: an error rate over a sliding window mapped
// to a discrete grade. Evaluation is read-only and safe to run at any
// time, including while producers are appending.
package health

import (
	"fmt"
	"sort"
	"time"

	"github.com/vexhq/vexobs/internal/aggregate"
	"github.com/vexhq/vexobs/internal/store"
	"github.com/vexhq/vexobs/pkg/models"
)

// Period is the lookback window keyword for a health evaluation.
type Period string

const (
	Period24h Period = "24h"
	Period7d  Period = "7d"
	Period30d Period = "30d"
)

// Window returns the duration of the lookback window.
func (p Period) Window() (time.Duration, error) {
	switch p {
	case Period24h:
		return 24 * time.Hour, nil
	case Period7d:
		return 7 * 24 * time.Hour, nil
	case Period30d:
		return 30 * 24 * time.Hour, nil
	}
	return 0, &models.ValidationError{Field: "period", Reason: fmt.Sprintf("%q is not one of: 24h, 7d, 30d", p)}
}

// recentErrorLimit is how many of the newest error records a snapshot
// surfaces.
const recentErrorLimit = 5

// Snapshot is a derived, non-persistent view of system health over one
// window. It is never a source of truth.
type Snapshot struct {
	Period      Period    `json:"period"`
	WindowStart time.Time `json:"window_start"`
	WindowEnd   time.Time `json:"window_end"`

	ErrorCount      int `json:"error_count"`
	WarningCount    int `json:"warning_count"`
	InfoCount       int `json:"info_count"`
	TotalOperations int `json:"total_operations"`

	// ErrorRate is a percentage, 0 when there were no operations.
	ErrorRate  float64 `json:"error_rate"`
	Grade      string  `json:"grade"`
	GradeLabel string  `json:"grade_label"`

	RecentErrors []models.ErrorRecord `json:"recent_errors,omitempty"`

	// SkippedLines counts malformed lines encountered during the scans,
	// reported so data-quality issues stay visible.
	SkippedLines int `json:"skipped_lines"`
}

// Evaluator computes health snapshots from the log stores.
type Evaluator struct {
	errors *store.ErrorStore
	tokens *store.TokenStore
	now    func() time.Time
}

// NewEvaluator creates an Evaluator reading from the given stores.
func NewEvaluator(errors *store.ErrorStore, tokens *store.TokenStore) *Evaluator {
	return &Evaluator{errors: errors, tokens: tokens, now: time.Now}
}

// NewEvaluatorAt creates an Evaluator with a fixed clock, for tests.
func NewEvaluatorAt(errors *store.ErrorStore, tokens *store.TokenStore, now func() time.Time) *Evaluator {
	return &Evaluator{errors: errors, tokens: tokens, now: now}
}

// Evaluate computes the snapshot for the window ending now.
func (e *Evaluator) Evaluate(period Period) (*Snapshot, error) {
	window, err := period.Window()
	if err != nil {
		return nil, err
	}

	end := e.now().UTC()
	start := end.Add(-window)

	errRecs, errSkipped, err := e.errors.Scan(start, end)
	if err != nil {
		return nil, fmt.Errorf("scanning error log: %w", err)
	}
	tokRecs, tokSkipped, err := e.tokens.Scan(start, end)
	if err != nil {
		return nil, fmt.Errorf("scanning token usage log: %w", err)
	}

	snap := &Snapshot{
		Period:       period,
		WindowStart:  start,
		WindowEnd:    end,
		SkippedLines: errSkipped + tokSkipped,
	}

	rows := make([]aggregate.Row, len(errRecs))
	for i, rec := range errRecs {
		rows[i] = aggregate.Row{Key: string(rec.Severity), Value: 1, Time: rec.Timestamp, Ref: i}
	}
	bySeverity := aggregate.Aggregate(rows, aggregate.Options{})
	for _, g := range bySeverity.Groups {
		switch models.Severity(g.Key) {
		case models.SeverityError:
			snap.ErrorCount = g.Count
		case models.SeverityWarning:
			snap.WarningCount = g.Count
		case models.SeverityInfo:
			snap.InfoCount = g.Count
		}
	}

	snap.TotalOperations = len(tokRecs)
	snap.ErrorRate = Rate(snap.ErrorCount, snap.TotalOperations)
	snap.Grade, snap.GradeLabel = GradeFor(snap.ErrorRate)

	sort.SliceStable(errRecs, func(i, j int) bool {
		return errRecs[i].Timestamp.After(errRecs[j].Timestamp)
	})
	if len(errRecs) > recentErrorLimit {
		errRecs = errRecs[:recentErrorLimit]
	}
	snap.RecentErrors = errRecs

	return snap, nil
}

// Rate returns the error rate as a percentage. It is defined as 0 when
// there were no operations, never a division error.
func Rate(errorCount, totalOperations int) float64 {
	if totalOperations == 0 {
		return 0
	}
	return float64(errorCount) / float64(totalOperations) * 100
}

// GradeFor maps an error-rate percentage to its discrete health grade.
func GradeFor(rate float64) (grade, label string) {
	switch {
	case rate < 0.5:
		return "A+", "EXCELLENT"
	case rate < 1.0:
		return "A", "HEALTHY"
	case rate < 2.0:
		return "B", "FAIR"
	default:
		return "C", "NEEDS ATTENTION"
	}
}
