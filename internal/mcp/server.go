// Package mcp provides an MCP (Model Context Protocol) server that
// exposes the vexobs logging and reporting operations as MCP tools, so AI
// tooling can record token spend, traces, and errors without shelling out
// to the CLI.
package mcp

import (
	"context"
	"errors"
	"fmt"
	"time"

	gomcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/vexhq/vexobs/internal/bridge"
	"github.com/vexhq/vexobs/internal/estimate"
	"github.com/vexhq/vexobs/internal/health"
	"github.com/vexhq/vexobs/internal/report"
	"github.com/vexhq/vexobs/internal/store"
	"github.com/vexhq/vexobs/pkg/models"
)

// Server wraps the vexobs services and exposes them as MCP tools.
type Server struct {
	server *gomcp.Server

	tokens    *store.TokenStore
	traces    *store.TraceStore
	reporter  *bridge.Reporter
	evaluator *health.Evaluator
	generator *report.Generator
	estimator estimate.Estimator
}

// NewServer creates a new MCP server with the given service dependencies.
func NewServer(tokens *store.TokenStore, traces *store.TraceStore, reporter *bridge.Reporter,
	evaluator *health.Evaluator, generator *report.Generator, estimator estimate.Estimator, version string) *Server {
	if version == "" {
		version = "dev"
	}

	s := &Server{
		tokens:    tokens,
		traces:    traces,
		reporter:  reporter,
		evaluator: evaluator,
		generator: generator,
		estimator: estimator,
	}

	s.server = gomcp.NewServer(
		&gomcp.Implementation{Name: "vexobs", Version: version},
		nil,
	)

	s.registerTools()

	return s
}

// Run starts the MCP server on stdio, blocking until the client
// disconnects or the context is cancelled.
func (s *Server) Run(ctx context.Context) error {
	return s.server.Run(ctx, &gomcp.StdioTransport{})
}

// MCPServer returns the underlying mcp.Server for testing purposes.
func (s *Server) MCPServer() *gomcp.Server {
	return s.server
}

// --- Tool input/output types ---

type logTokenUsageInput struct {
	ConversationID string `json:"conversation_id,omitempty" jsonschema:"conversation correlation key, defaults to unknown"`
	OperationType  string `json:"operation_type" jsonschema:"required,operation category (e.g. rag_search, rag_index)"`
	OperationName  string `json:"operation_name" jsonschema:"required,specific operation identifier"`
	InputTokens    int64  `json:"input_tokens,omitempty" jsonschema:"exact input token count"`
	OutputTokens   int64  `json:"output_tokens,omitempty" jsonschema:"exact output token count"`
	Model          string `json:"model" jsonschema:"required,model identifier used for pricing"`
	EstimateText   string `json:"estimate_text,omitempty" jsonschema:"when token counts are unknown, text whose output tokens should be estimated"`
	Metadata       string `json:"metadata,omitempty" jsonschema:"opaque JSON object passed through unparsed"`
}

type logTokenUsageOutput struct {
	TotalTokens int64   `json:"total_tokens"`
	Cost        float64 `json:"cost_usd"`
	Estimated   bool    `json:"estimated"`
}

type logLatencyTraceInput struct {
	ConversationID string `json:"conversation_id,omitempty" jsonschema:"conversation correlation key, defaults to unknown"`
	TraceID        string `json:"trace_id,omitempty" jsonschema:"unique span identifier, generated when absent"`
	ParentTraceID  string `json:"parent_trace_id,omitempty" jsonschema:"parent span identifier for nested spans"`
	OperationType  string `json:"operation_type" jsonschema:"required,operation category"`
	OperationName  string `json:"operation_name" jsonschema:"required,specific operation identifier"`
	StartTimeNS    int64  `json:"start_time_ns" jsonschema:"required,span start as Unix nanoseconds"`
	EndTimeNS      int64  `json:"end_time_ns" jsonschema:"required,span end as Unix nanoseconds"`
	Metadata       string `json:"metadata,omitempty" jsonschema:"opaque JSON object passed through unparsed"`
}

type logLatencyTraceOutput struct {
	TraceID    string  `json:"trace_id"`
	DurationMS float64 `json:"duration_ms"`
}

type reportErrorInput struct {
	ConversationID string `json:"conversation_id,omitempty" jsonschema:"conversation correlation key, defaults to unknown"`
	Severity       string `json:"severity" jsonschema:"required,one of error, warning, info"`
	Source         string `json:"source" jsonschema:"required,identifier of the reporting component"`
	Message        string `json:"message" jsonschema:"required,human-readable error message"`
	ErrorType      string `json:"error_type,omitempty" jsonschema:"free-form classification tag"`
	ExitCode       int    `json:"exit_code,omitempty" jsonschema:"process exit status, 0 when not applicable"`
	Context        string `json:"context,omitempty" jsonschema:"opaque JSON object passed through unparsed"`
	StackTrace     string `json:"stack_trace,omitempty"`
	ResolutionHint string `json:"resolution_hint,omitempty"`
	Recovered      bool   `json:"recovered,omitempty" jsonschema:"true when the caller continued after logging"`
}

type reportErrorOutput struct {
	Message string `json:"message"`
}

type getHealthInput struct {
	Period string `json:"period,omitempty" jsonschema:"lookback window: 24h, 7d, or 30d. Defaults to 24h."`
}

type errorSummary struct {
	Timestamp string `json:"timestamp"`
	Severity  string `json:"severity"`
	Source    string `json:"source"`
	Message   string `json:"message"`
}

type getHealthOutput struct {
	Period          string         `json:"period"`
	ErrorCount      int            `json:"error_count"`
	WarningCount    int            `json:"warning_count"`
	InfoCount       int            `json:"info_count"`
	TotalOperations int            `json:"total_operations"`
	ErrorRate       float64        `json:"error_rate"`
	Grade           string         `json:"grade"`
	GradeLabel      string         `json:"grade_label"`
	RecentErrors    []errorSummary `json:"recent_errors,omitempty"`
	SkippedLines    int            `json:"skipped_lines"`
}

type generateReportInput struct {
	Category string `json:"category" jsonschema:"required,one of tokens, latency, errors"`
	Month    string `json:"month" jsonschema:"required,calendar month in YYYY-MM form"`
	Persist  bool   `json:"persist,omitempty" jsonschema:"also write the report under the reports directory"`
}

type generateReportOutput struct {
	Body string `json:"body"`
	Path string `json:"path,omitempty"`
}

// --- Tool registration ---

func (s *Server) registerTools() {
	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "log_token_usage",
		Description: "Record the token spend of one operation. Computes total tokens and cost; counts may be estimated from text when unknown.",
	}, s.handleLogTokenUsage)

	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "log_latency_trace",
		Description: "Record one timed span. Spans nest via parent_trace_id; the computed duration is returned.",
	}, s.handleLogLatencyTrace)

	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "report_error",
		Description: "Report an error, warning, or informational condition into the shared error stream. Never fails the caller's flow.",
	}, s.handleReportError)

	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "get_health",
		Description: "Compute a health snapshot: error rate and grade over a sliding window, with the most recent errors.",
	}, s.handleGetHealth)

	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "generate_report",
		Description: "Generate the monthly token-usage, latency, or error report for a calendar month.",
	}, s.handleGenerateReport)
}

// --- Tool handlers ---

func (s *Server) handleLogTokenUsage(_ context.Context, _ *gomcp.CallToolRequest, input logTokenUsageInput) (*gomcp.CallToolResult, logTokenUsageOutput, error) {
	metadata, err := models.NormalizeBag(input.Metadata)
	if err != nil {
		return errorResult(err.Error()), logTokenUsageOutput{}, nil
	}

	rec := models.TokenUsage{
		ConversationID: input.ConversationID,
		OperationType:  input.OperationType,
		OperationName:  input.OperationName,
		InputTokens:    input.InputTokens,
		OutputTokens:   input.OutputTokens,
		Model:          input.Model,
		Metadata:       metadata,
	}
	if input.EstimateText != "" && input.InputTokens == 0 && input.OutputTokens == 0 {
		count, _ := s.estimator.Estimate(input.Model, input.EstimateText)
		rec.OutputTokens = count
		rec.Estimated = true
	}

	if err := s.tokens.Append(&rec); err != nil {
		return errorResult(fmt.Sprintf("logging token usage: %s", err)), logTokenUsageOutput{}, nil
	}

	return nil, logTokenUsageOutput{TotalTokens: rec.TotalTokens, Cost: rec.Cost, Estimated: rec.Estimated}, nil
}

func (s *Server) handleLogLatencyTrace(_ context.Context, _ *gomcp.CallToolRequest, input logLatencyTraceInput) (*gomcp.CallToolResult, logLatencyTraceOutput, error) {
	metadata, err := models.NormalizeBag(input.Metadata)
	if err != nil {
		return errorResult(err.Error()), logLatencyTraceOutput{}, nil
	}

	rec := models.LatencyTrace{
		ConversationID: input.ConversationID,
		TraceID:        input.TraceID,
		ParentTraceID:  input.ParentTraceID,
		OperationType:  input.OperationType,
		OperationName:  input.OperationName,
		StartTime:      time.Unix(0, input.StartTimeNS).UTC(),
		EndTime:        time.Unix(0, input.EndTimeNS).UTC(),
		Metadata:       metadata,
	}
	if rec.TraceID == "" {
		rec.TraceID = store.NewTraceID()
	}

	duration, err := s.traces.Append(&rec)
	if err != nil {
		return errorResult(fmt.Sprintf("logging latency trace: %s", err)), logLatencyTraceOutput{}, nil
	}

	return nil, logLatencyTraceOutput{TraceID: rec.TraceID, DurationMS: duration}, nil
}

func (s *Server) handleReportError(_ context.Context, _ *gomcp.CallToolRequest, input reportErrorInput) (*gomcp.CallToolResult, reportErrorOutput, error) {
	contextBag, err := models.NormalizeBag(input.Context)
	if err != nil {
		return errorResult(err.Error()), reportErrorOutput{}, nil
	}

	rep := bridge.Report{
		ConversationID: input.ConversationID,
		Severity:       models.Severity(input.Severity),
		Source:         input.Source,
		Message:        input.Message,
		ErrorType:      input.ErrorType,
		ExitCode:       input.ExitCode,
		Context:        contextBag,
		StackTrace:     input.StackTrace,
		ResolutionHint: input.ResolutionHint,
		Recovered:      input.Recovered,
	}
	if err := s.reporter.Report(rep); err != nil {
		return errorResult(fmt.Sprintf("reporting error: %s", err)), reportErrorOutput{}, nil
	}

	return nil, reportErrorOutput{Message: "error recorded"}, nil
}

func (s *Server) handleGetHealth(_ context.Context, _ *gomcp.CallToolRequest, input getHealthInput) (*gomcp.CallToolResult, getHealthOutput, error) {
	period := health.Period(input.Period)
	if input.Period == "" {
		period = health.Period24h
	}

	snap, err := s.evaluator.Evaluate(period)
	if err != nil {
		return errorResult(fmt.Sprintf("evaluating health: %s", err)), getHealthOutput{}, nil
	}

	out := getHealthOutput{
		Period:          string(snap.Period),
		ErrorCount:      snap.ErrorCount,
		WarningCount:    snap.WarningCount,
		InfoCount:       snap.InfoCount,
		TotalOperations: snap.TotalOperations,
		ErrorRate:       snap.ErrorRate,
		Grade:           snap.Grade,
		GradeLabel:      snap.GradeLabel,
		SkippedLines:    snap.SkippedLines,
	}
	for _, rec := range snap.RecentErrors {
		out.RecentErrors = append(out.RecentErrors, errorSummary{
			Timestamp: rec.Timestamp.Format(time.RFC3339),
			Severity:  string(rec.Severity),
			Source:    rec.Source,
			Message:   rec.Message,
		})
	}

	return nil, out, nil
}

func (s *Server) handleGenerateReport(_ context.Context, _ *gomcp.CallToolRequest, input generateReportInput) (*gomcp.CallToolResult, generateReportOutput, error) {
	month, err := time.Parse("2006-01", input.Month)
	if err != nil {
		return errorResult(fmt.Sprintf("invalid month %q: use YYYY-MM", input.Month)), generateReportOutput{}, nil
	}

	rep, err := s.generator.Generate(report.Category(input.Category), month.Year(), month.Month())
	if err != nil {
		if errors.Is(err, report.ErrNoData) {
			return nil, generateReportOutput{Body: "no data for this period"}, nil
		}
		return errorResult(fmt.Sprintf("generating report: %s", err)), generateReportOutput{}, nil
	}

	out := generateReportOutput{Body: rep.Body}
	if input.Persist {
		path, err := s.generator.Write(rep)
		if err != nil {
			return errorResult(fmt.Sprintf("writing report: %s", err)), generateReportOutput{}, nil
		}
		out.Path = path
	}

	return nil, out, nil
}

// --- Helpers ---

func errorResult(msg string) *gomcp.CallToolResult {
	return &gomcp.CallToolResult{
		Content: []gomcp.Content{&gomcp.TextContent{Text: msg}},
		IsError: true,
	}
}
