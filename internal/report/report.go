// Package report formats monthly reports from the log stores: token
// spend, latency distribution, and error summaries for one calendar
// month. Reports are derived documents, never a source of truth, and a
// month with no matching records is a defined "no data" outcome rather
// than an error.
package report

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/vexhq/vexobs/internal/aggregate"
	"github.com/vexhq/vexobs/internal/health"
	"github.com/vexhq/vexobs/internal/store"
	"github.com/vexhq/vexobs/pkg/models"
)

// Category selects which report to generate.
type Category string

const (
	CategoryTokens  Category = "tokens"
	CategoryLatency Category = "latency"
	CategoryErrors  Category = "errors"
)

// Valid reports whether c names a known report category.
func (c Category) Valid() bool {
	switch c {
	case CategoryTokens, CategoryLatency, CategoryErrors:
		return true
	}
	return false
}

// ErrNoData is returned when the requested month has no matching records.
// It is a success condition for callers: no artifact is produced and no
// failure is signaled.
var ErrNoData = errors.New("no data for this period")

const topOperations = 10

// Report is one generated document.
type Report struct {
	Category Category
	Year     int
	Month    time.Month
	Body     string

	// SkippedLines counts malformed lines encountered while scanning,
	// surfaced in the document so data-quality issues are visible.
	SkippedLines int
}

// Generator builds monthly reports from the log stores.
type Generator struct {
	tokens *store.TokenStore
	traces *store.TraceStore
	errors *store.ErrorStore

	reportsDir      string
	slowThresholdMS float64
}

// NewGenerator creates a Generator reading from the given stores and
// writing artifacts under <root>/reports. slowThresholdMS is the latency
// above which an operation counts against the performance grade.
func NewGenerator(root string, tokens *store.TokenStore, traces *store.TraceStore, errStore *store.ErrorStore, slowThresholdMS float64) *Generator {
	return &Generator{
		tokens:          tokens,
		traces:          traces,
		errors:          errStore,
		reportsDir:      filepath.Join(root, "reports"),
		slowThresholdMS: slowThresholdMS,
	}
}

// monthRange returns the half-open interval covering one calendar month.
func monthRange(year int, month time.Month) (from, to time.Time) {
	from = time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	return from, from.AddDate(0, 1, 0)
}

// daysIn returns the number of days in the given month.
func daysIn(year int, month time.Month) int {
	from, to := monthRange(year, month)
	return int(to.Sub(from).Hours() / 24)
}

// Generate builds the report for one category and calendar month. A month
// with zero matching records returns ErrNoData.
func (g *Generator) Generate(cat Category, year int, month time.Month) (*Report, error) {
	if !cat.Valid() {
		return nil, &models.ValidationError{Field: "category", Reason: fmt.Sprintf("%q is not one of: tokens, latency, errors", cat)}
	}

	switch cat {
	case CategoryTokens:
		return g.tokenReport(year, month)
	case CategoryLatency:
		return g.latencyReport(year, month)
	default:
		return g.errorReport(year, month)
	}
}

// Write persists rep under the reports directory, one file per category
// and month, owner read/write only. The path written is returned.
func (g *Generator) Write(rep *Report) (string, error) {
	if err := os.MkdirAll(g.reportsDir, 0o700); err != nil {
		return "", &models.IOError{Op: "creating reports directory", Path: g.reportsDir, Err: err}
	}
	if err := os.Chmod(g.reportsDir, 0o700); err != nil {
		return "", &models.IOError{Op: "restricting reports directory", Path: g.reportsDir, Err: err}
	}
	path := filepath.Join(g.reportsDir, fmt.Sprintf("%s-%04d-%02d.md", rep.Category, rep.Year, rep.Month))
	if err := os.WriteFile(path, []byte(rep.Body), 0o600); err != nil {
		return "", &models.IOError{Op: "writing report", Path: path, Err: err}
	}
	return path, nil
}

func (g *Generator) tokenReport(year int, month time.Month) (*Report, error) {
	from, to := monthRange(year, month)
	recs, skipped, err := g.tokens.Scan(from, to)
	if err != nil {
		return nil, fmt.Errorf("scanning token usage log: %w", err)
	}
	if len(recs) == 0 {
		return nil, ErrNoData
	}

	tokenRows := make([]aggregate.Row, len(recs))
	costRows := make([]aggregate.Row, len(recs))
	for i, rec := range recs {
		tokenRows[i] = aggregate.Row{Key: rec.OperationType, Value: float64(rec.TotalTokens), Time: rec.Timestamp, Ref: i}
		costRows[i] = aggregate.Row{Key: rec.OperationType, Value: rec.Cost, Time: rec.Timestamp, Ref: i}
	}
	byTokens := aggregate.Aggregate(tokenRows, aggregate.Options{})
	byCost := aggregate.Aggregate(costRows, aggregate.Options{})

	costByType := make(map[string]float64, len(byCost.Groups))
	for _, grp := range byCost.Groups {
		costByType[grp.Key] = grp.Sum
	}

	days := daysIn(year, month)

	var b strings.Builder
	writeHeader(&b, "Token Usage Report", year, month)
	fmt.Fprintf(&b, "Operations:       %d\n", byTokens.Count)
	fmt.Fprintf(&b, "Total tokens:     %d\n", int64(byTokens.Sum))
	fmt.Fprintf(&b, "Total cost:       $%.6f\n", byCost.Sum)
	fmt.Fprintf(&b, "Avg tokens/day:   %.1f\n", byTokens.Sum/float64(days))
	fmt.Fprintf(&b, "Avg cost/day:     $%.6f\n\n", byCost.Sum/float64(days))

	b.WriteString("By operation type\n\n")
	fmt.Fprintf(&b, "  %-24s %10s %12s %12s\n", "type", "count", "tokens", "cost")
	for _, grp := range byTokens.Groups {
		fmt.Fprintf(&b, "  %-24s %10d %12d %12s\n",
			grp.Key, grp.Count, int64(grp.Sum), fmt.Sprintf("$%.6f", costByType[grp.Key]))
	}

	fmt.Fprintf(&b, "\nTop %d most expensive operations\n\n", topOperations)
	fmt.Fprintf(&b, "  %-20s %-24s %-28s %10s %12s\n", "timestamp", "type", "operation", "tokens", "cost")
	for _, row := range aggregate.TopN(costRows, topOperations) {
		rec := recs[row.Ref]
		fmt.Fprintf(&b, "  %-20s %-24s %-28s %10d %12s\n",
			rec.Timestamp.Format("2006-01-02 15:04:05"), rec.OperationType,
			truncate(rec.OperationName, 28), rec.TotalTokens, fmt.Sprintf("$%.6f", rec.Cost))
	}

	writeFooter(&b, skipped)
	return &Report{Category: CategoryTokens, Year: year, Month: month, Body: b.String(), SkippedLines: skipped}, nil
}

func (g *Generator) latencyReport(year int, month time.Month) (*Report, error) {
	from, to := monthRange(year, month)
	recs, skipped, err := g.traces.Scan(from, to)
	if err != nil {
		return nil, fmt.Errorf("scanning trace logs: %w", err)
	}
	if len(recs) == 0 {
		return nil, ErrNoData
	}

	rows := make([]aggregate.Row, len(recs))
	slow := 0
	for i, rec := range recs {
		rows[i] = aggregate.Row{Key: rec.OperationType, Value: rec.DurationMS, Time: rec.Timestamp, Ref: i}
		if rec.DurationMS > g.slowThresholdMS {
			slow++
		}
	}
	agg := aggregate.Aggregate(rows, aggregate.Options{Percentiles: true})

	slowPct := float64(slow) / float64(agg.Count) * 100
	grade := performanceGrade(slowPct)

	var b strings.Builder
	writeHeader(&b, "Latency Report", year, month)
	fmt.Fprintf(&b, "Operations:       %d\n", agg.Count)
	fmt.Fprintf(&b, "Total duration:   %s\n", formatMS(agg.Sum))
	fmt.Fprintf(&b, "Avg duration:     %s\n", formatMS(agg.Sum/float64(agg.Count)))
	fmt.Fprintf(&b, "P50:              %s\n", formatMS(agg.P50))
	fmt.Fprintf(&b, "P95:              %s\n", formatMS(agg.P95))
	fmt.Fprintf(&b, "P99:              %s\n", formatMS(agg.P99))
	fmt.Fprintf(&b, "Performance:      %s (%.1f%% of operations over %s)\n\n",
		grade, slowPct, formatMS(g.slowThresholdMS))

	b.WriteString("By operation type\n\n")
	fmt.Fprintf(&b, "  %-24s %10s %14s %14s\n", "type", "count", "total", "max")
	for _, grp := range agg.Groups {
		fmt.Fprintf(&b, "  %-24s %10d %14s %14s\n",
			grp.Key, grp.Count, formatMS(grp.Sum), formatMS(grp.Max))
	}

	fmt.Fprintf(&b, "\nTop %d slowest operations\n\n", topOperations)
	fmt.Fprintf(&b, "  %-20s %-24s %-28s %14s\n", "timestamp", "type", "operation", "duration")
	for _, row := range aggregate.TopN(rows, topOperations) {
		rec := recs[row.Ref]
		fmt.Fprintf(&b, "  %-20s %-24s %-28s %14s\n",
			rec.Timestamp.Format("2006-01-02 15:04:05"), rec.OperationType,
			truncate(rec.OperationName, 28), formatMS(rec.DurationMS))
	}

	writeFooter(&b, skipped)
	return &Report{Category: CategoryLatency, Year: year, Month: month, Body: b.String(), SkippedLines: skipped}, nil
}

func (g *Generator) errorReport(year int, month time.Month) (*Report, error) {
	from, to := monthRange(year, month)
	recs, skipped, err := g.errors.Scan(from, to)
	if err != nil {
		return nil, fmt.Errorf("scanning error log: %w", err)
	}
	if len(recs) == 0 {
		return nil, ErrNoData
	}

	tokRecs, tokSkipped, err := g.tokens.Scan(from, to)
	if err != nil {
		return nil, fmt.Errorf("scanning token usage log: %w", err)
	}
	skipped += tokSkipped

	sevRows := make([]aggregate.Row, len(recs))
	srcRows := make([]aggregate.Row, len(recs))
	typRows := make([]aggregate.Row, len(recs))
	errorCount := 0
	for i, rec := range recs {
		sevRows[i] = aggregate.Row{Key: string(rec.Severity), Value: 1, Time: rec.Timestamp, Ref: i}
		srcRows[i] = aggregate.Row{Key: rec.Source, Value: 1, Time: rec.Timestamp, Ref: i}
		typ := rec.ErrorType
		if typ == "" {
			typ = "(unclassified)"
		}
		typRows[i] = aggregate.Row{Key: typ, Value: 1, Time: rec.Timestamp, Ref: i}
		if rec.Severity == models.SeverityError {
			errorCount++
		}
	}
	bySeverity := aggregate.Aggregate(sevRows, aggregate.Options{})
	bySource := aggregate.Aggregate(srcRows, aggregate.Options{})
	byType := aggregate.Aggregate(typRows, aggregate.Options{})

	rate := health.Rate(errorCount, len(tokRecs))
	grade, label := health.GradeFor(rate)

	var b strings.Builder
	writeHeader(&b, "Error Report", year, month)
	fmt.Fprintf(&b, "Records:          %d\n", bySeverity.Count)
	for _, grp := range bySeverity.Groups {
		fmt.Fprintf(&b, "  %-15s %d\n", grp.Key+":", grp.Count)
	}
	fmt.Fprintf(&b, "Operations:       %d\n", len(tokRecs))
	fmt.Fprintf(&b, "Error rate:       %.2f%%\n", rate)
	fmt.Fprintf(&b, "Health grade:     %s (%s)\n\n", grade, label)

	writeCountTable(&b, "Top 5 error sources", bySource.Groups, 5)
	writeCountTable(&b, "Top 5 error types", byType.Groups, 5)

	recent := make([]models.ErrorRecord, len(recs))
	copy(recent, recs)
	sort.SliceStable(recent, func(i, j int) bool {
		return recent[i].Timestamp.After(recent[j].Timestamp)
	})
	if len(recent) > 10 {
		recent = recent[:10]
	}
	b.WriteString("Most recent errors\n\n")
	for _, rec := range recent {
		fmt.Fprintf(&b, "  %-20s [%s] %s: %s\n",
			rec.Timestamp.Format("2006-01-02 15:04:05"), rec.Severity, rec.Source, rec.Message)
	}

	b.WriteString("\nBy source\n")
	for _, grp := range bySource.Groups {
		fmt.Fprintf(&b, "\n  %s (%d records)\n", grp.Key, grp.Count)
		shown := 0
		for _, rec := range recs {
			if rec.Source != grp.Key {
				continue
			}
			fmt.Fprintf(&b, "    %-20s [%s] %s\n",
				rec.Timestamp.Format("2006-01-02 15:04:05"), rec.Severity, rec.Message)
			shown++
			if shown == 5 {
				break
			}
		}
	}
	b.WriteString("\n")

	writeFooter(&b, skipped)
	return &Report{Category: CategoryErrors, Year: year, Month: month, Body: b.String(), SkippedLines: skipped}, nil
}

// performanceGrade maps the share of slow operations to a qualitative
// grade.
func performanceGrade(slowPct float64) string {
	switch {
	case slowPct < 5:
		return "EXCELLENT"
	case slowPct < 10:
		return "GOOD"
	case slowPct < 20:
		return "FAIR"
	default:
		return "POOR"
	}
}

func writeHeader(b *strings.Builder, title string, year int, month time.Month) {
	fmt.Fprintf(b, "# %s %04d-%02d\n\n", title, year, month)
}

func writeFooter(b *strings.Builder, skipped int) {
	if skipped > 0 {
		fmt.Fprintf(b, "\nData quality: %d malformed line(s) skipped during scan.\n", skipped)
	}
}

func writeCountTable(b *strings.Builder, title string, groups []aggregate.GroupStat, limit int) {
	fmt.Fprintf(b, "%s\n\n", title)
	for i, grp := range groups {
		if i == limit {
			break
		}
		fmt.Fprintf(b, "  %-32s %d\n", grp.Key, grp.Count)
	}
	b.WriteString("\n")
}

// formatMS renders a millisecond duration in a human-friendly unit.
func formatMS(ms float64) string {
	switch {
	case ms >= 60_000:
		return fmt.Sprintf("%.1fm", ms/60_000)
	case ms >= 1_000:
		return fmt.Sprintf("%.2fs", ms/1_000)
	default:
		return fmt.Sprintf("%.0fms", ms)
	}
}

// truncate shortens s to max runes with an ellipsis.
func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	if max <= 3 {
		return string(runes[:max])
	}
	return string(runes[:max-3]) + "..."
}
