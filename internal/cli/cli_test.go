package cli

import (
	"bytes"
	"testing"
	"time"

	"github.com/vexhq/vexobs/internal/bridge"
	"github.com/vexhq/vexobs/internal/estimate"
	"github.com/vexhq/vexobs/internal/health"
	"github.com/vexhq/vexobs/internal/report"
	"github.com/vexhq/vexobs/internal/store"
	"github.com/vexhq/vexobs/pkg/models"
)

// wireTestServices points the package-level service vars at a temp root and
// restores the previous wiring when the test ends.
func wireTestServices(t *testing.T) (string, *bytes.Buffer) {
	t.Helper()
	root := t.TempDir()

	origRoot, origTokens, origTraces, origErrors := LogsRoot, TokenLog, TraceLog, ErrorLog
	origReporter, origHealth, origReport, origEst := Reporter, HealthEval, ReportGen, Estimator
	t.Cleanup(func() {
		LogsRoot, TokenLog, TraceLog, ErrorLog = origRoot, origTokens, origTraces, origErrors
		Reporter, HealthEval, ReportGen, Estimator = origReporter, origHealth, origReport, origEst
	})

	prices := models.PriceTable{Default: models.ModelPrice{InputPerMTok: 1.00, OutputPerMTok: 3.00}}
	var notice bytes.Buffer
	LogsRoot = root
	TokenLog = store.NewTokenStore(root, prices)
	TraceLog = store.NewTraceStore(root)
	ErrorLog = store.NewErrorStore(root)
	Reporter = bridge.NewReporterWithNotice(ErrorLog, &notice)
	HealthEval = health.NewEvaluator(ErrorLog, TokenLog)
	ReportGen = report.NewGenerator(root, TokenLog, TraceLog, ErrorLog, 10_000)
	Estimator = estimate.LengthEstimator{}
	return root, &notice
}

func TestLogTokensCmd_AppendsRecord(t *testing.T) {
	wireTestServices(t)

	tokConversationID = "conv-1"
	tokOperationType = "rag_search"
	tokOperationName = "semantic-query"
	tokInputTokens = 100
	tokOutputTokens = 40
	tokModel = "gpt-4o"
	tokEstimateText = ""
	tokMetadata = ""

	if err := logTokensCmd.RunE(logTokensCmd, nil); err != nil {
		t.Fatalf("running log-tokens: %v", err)
	}

	recs, _, err := TokenLog.Scan(time.Time{}, time.Time{})
	if err != nil {
		t.Fatalf("scanning: %v", err)
	}
	if len(recs) != 1 {
		t.Fatalf("expected 1 record, got %d", len(recs))
	}
	if recs[0].TotalTokens != 140 || recs[0].ConversationID != "conv-1" {
		t.Errorf("unexpected record: %+v", recs[0])
	}
}

func TestLogTokensCmd_RejectsMissingFields(t *testing.T) {
	wireTestServices(t)

	tokConversationID = ""
	tokOperationType = ""
	tokOperationName = "q"
	tokInputTokens = 0
	tokOutputTokens = 0
	tokModel = "gpt-4o"
	tokEstimateText = ""
	tokMetadata = ""

	if err := logTokensCmd.RunE(logTokensCmd, nil); !models.IsValidation(err) {
		t.Fatalf("expected a ValidationError, got %v", err)
	}
}

func TestLogTraceCmd_NanosecondInputs(t *testing.T) {
	wireTestServices(t)

	start := time.Date(2026, 7, 15, 10, 0, 0, 0, time.UTC)
	trcConversationID = "conv-1"
	trcTraceID = ""
	trcParentTraceID = ""
	trcOperationType = "rag_search"
	trcOperationName = "semantic-query"
	trcStartNS = start.UnixNano()
	trcEndNS = start.Add(1200 * time.Millisecond).UnixNano()
	trcMetadata = `{"k":5}`

	if err := logTraceCmd.RunE(logTraceCmd, nil); err != nil {
		t.Fatalf("running log-trace: %v", err)
	}

	recs, _, err := TraceLog.ScanConversation("conv-1", time.Time{}, time.Time{})
	if err != nil {
		t.Fatalf("scanning: %v", err)
	}
	if len(recs) != 1 {
		t.Fatalf("expected 1 span, got %d", len(recs))
	}
	if recs[0].DurationMS != 1200 {
		t.Errorf("expected 1200ms, got %v", recs[0].DurationMS)
	}
	if recs[0].TraceID == "" {
		t.Error("expected a generated trace ID")
	}
}

func TestLogErrorCmd_NoticeAndSuppression(t *testing.T) {
	_, notice := wireTestServices(t)

	errConversationID = ""
	errSeverity = "error"
	errSource = "vex-rag"
	errMessage = "index corrupted"
	errType = ""
	errExitCode = 0
	errContext = ""
	errStackTrace = ""
	errResolutionHint = ""
	errRecovered = false

	if err := logErrorCmd.RunE(logErrorCmd, nil); err != nil {
		t.Fatalf("running log-error: %v", err)
	}
	if notice.Len() == 0 {
		t.Error("expected a stderr notice for an unrecovered error")
	}

	notice.Reset()
	errRecovered = true
	errMessage = "handled timeout"
	if err := logErrorCmd.RunE(logErrorCmd, nil); err != nil {
		t.Fatalf("running log-error: %v", err)
	}
	if notice.Len() != 0 {
		t.Errorf("expected no notice for a recovered error, got %q", notice.String())
	}

	recs, _, err := ErrorLog.Scan(time.Time{}, time.Time{})
	if err != nil {
		t.Fatalf("scanning: %v", err)
	}
	if len(recs) != 2 {
		t.Fatalf("expected 2 records, got %d", len(recs))
	}
}

func TestReportCmd_NoDataExitsClean(t *testing.T) {
	wireTestServices(t)

	reportCategory = "latency"
	reportMonth = "2026-01"
	reportOutput = ""

	if err := reportCmd.RunE(reportCmd, nil); err != nil {
		t.Fatalf("expected no-data month to succeed, got %v", err)
	}
}

func TestHealthCmd_UnknownPeriodFails(t *testing.T) {
	wireTestServices(t)

	healthPeriod = "90d"
	healthJSON = true
	defer func() { healthPeriod = "24h"; healthJSON = false }()

	if err := healthCmd.RunE(healthCmd, nil); !models.IsValidation(err) {
		t.Fatalf("expected a ValidationError, got %v", err)
	}
}
