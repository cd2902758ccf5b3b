// Package models defines the record types shared across the vexobs
// observability system: the common event envelope, the three record
// categories (token usage, latency traces, errors), and the typed
// failures components raise.
package models

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/tidwall/gjson"
)

// UnknownConversation is the sentinel conversation ID used when a producer
// does not supply one.
const UnknownConversation = "unknown"

// Severity classifies an error record. The enumeration is closed: any
// other value fails validation.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
	SeverityInfo    Severity = "info"
)

// Valid reports whether s is one of the allowed severity values.
func (s Severity) Valid() bool {
	switch s {
	case SeverityError, SeverityWarning, SeverityInfo:
		return true
	}
	return false
}

// TokenUsage records the token spend and derived cost of one operation.
// TotalTokens and Cost are derived fields: Finalize computes them before
// the record is persisted.
type TokenUsage struct {
	Timestamp      time.Time       `json:"timestamp"`
	ConversationID string          `json:"conversation_id"`
	OperationType  string          `json:"operation_type"`
	OperationName  string          `json:"operation_name"`
	InputTokens    int64           `json:"input_tokens"`
	OutputTokens   int64           `json:"output_tokens"`
	TotalTokens    int64           `json:"total_tokens"`
	Model          string          `json:"model"`
	Cost           float64         `json:"cost_usd"`
	Estimated      bool            `json:"estimated"`
	Metadata       json.RawMessage `json:"metadata,omitempty"`
}

// Finalize fills derived fields and defaults: total tokens, cost from the
// given price table, timestamp, and the unknown-conversation sentinel.
func (r *TokenUsage) Finalize(prices PriceTable) {
	r.TotalTokens = r.InputTokens + r.OutputTokens
	r.Cost = prices.Cost(r.Model, r.InputTokens, r.OutputTokens)
	if r.Timestamp.IsZero() {
		r.Timestamp = time.Now().UTC()
	}
	if r.ConversationID == "" {
		r.ConversationID = UnknownConversation
	}
}

// Validate checks required fields and value constraints.
func (r *TokenUsage) Validate() error {
	if r.OperationType == "" {
		return &ValidationError{Field: "operation_type", Reason: "must not be empty"}
	}
	if r.OperationName == "" {
		return &ValidationError{Field: "operation_name", Reason: "must not be empty"}
	}
	if r.Model == "" {
		return &ValidationError{Field: "model", Reason: "must not be empty"}
	}
	if r.InputTokens < 0 {
		return &ValidationError{Field: "input_tokens", Reason: "must be non-negative"}
	}
	if r.OutputTokens < 0 {
		return &ValidationError{Field: "output_tokens", Reason: "must be non-negative"}
	}
	return nil
}

// LatencyTrace records one timed span. Spans nest via ParentTraceID to
// form a call tree within a conversation; all spans of a conversation are
// appended to the same stream so the tree can be reconstructed later.
type LatencyTrace struct {
	Timestamp      time.Time       `json:"timestamp"`
	ConversationID string          `json:"conversation_id"`
	TraceID        string          `json:"trace_id"`
	ParentTraceID  string          `json:"parent_trace_id,omitempty"`
	OperationType  string          `json:"operation_type"`
	OperationName  string          `json:"operation_name"`
	StartTime      time.Time       `json:"start_time"`
	EndTime        time.Time       `json:"end_time"`
	DurationMS     float64         `json:"duration_ms"`
	Metadata       json.RawMessage `json:"metadata,omitempty"`
}

// Finalize fills derived fields and defaults. Duration is computed from
// the start and end times; validation rejects negative results.
func (r *LatencyTrace) Finalize() {
	r.DurationMS = float64(r.EndTime.Sub(r.StartTime)) / float64(time.Millisecond)
	if r.Timestamp.IsZero() {
		r.Timestamp = r.EndTime.UTC()
	}
	if r.ConversationID == "" {
		r.ConversationID = UnknownConversation
	}
}

// Validate checks required fields and the non-negative duration invariant.
func (r *LatencyTrace) Validate() error {
	if r.TraceID == "" {
		return &ValidationError{Field: "trace_id", Reason: "must not be empty"}
	}
	if r.OperationType == "" {
		return &ValidationError{Field: "operation_type", Reason: "must not be empty"}
	}
	if r.OperationName == "" {
		return &ValidationError{Field: "operation_name", Reason: "must not be empty"}
	}
	if r.StartTime.IsZero() || r.EndTime.IsZero() {
		return &ValidationError{Field: "start_time", Reason: "start and end times are required"}
	}
	if r.EndTime.Before(r.StartTime) {
		return &ValidationError{Field: "end_time", Reason: fmt.Sprintf(
			"end time %s precedes start time %s",
			r.EndTime.Format(time.RFC3339Nano), r.StartTime.Format(time.RFC3339Nano))}
	}
	return nil
}

// ErrorRecord captures one reported failure, warning, or informational
// condition. Recovered distinguishes handled conditions from records that
// accompany a fatal abort.
type ErrorRecord struct {
	Timestamp      time.Time       `json:"timestamp"`
	ConversationID string          `json:"conversation_id"`
	Severity       Severity        `json:"severity"`
	Source         string          `json:"source"`
	ErrorType      string          `json:"error_type,omitempty"`
	Message        string          `json:"error_message"`
	ExitCode       int             `json:"exit_code"`
	Context        json.RawMessage `json:"context,omitempty"`
	StackTrace     string          `json:"stack_trace,omitempty"`
	ResolutionHint string          `json:"resolution_hint,omitempty"`
	Recovered      bool            `json:"recovered"`
}

// Finalize fills envelope defaults.
func (r *ErrorRecord) Finalize() {
	if r.Timestamp.IsZero() {
		r.Timestamp = time.Now().UTC()
	}
	if r.ConversationID == "" {
		r.ConversationID = UnknownConversation
	}
	if len(r.Context) == 0 {
		r.Context = json.RawMessage("{}")
	}
}

// Validate checks required fields and the closed severity enumeration.
func (r *ErrorRecord) Validate() error {
	if !r.Severity.Valid() {
		return &ValidationError{Field: "severity", Reason: fmt.Sprintf(
			"%q is not one of: error, warning, info", r.Severity)}
	}
	if r.Source == "" {
		return &ValidationError{Field: "source", Reason: "must not be empty"}
	}
	if r.Message == "" {
		return &ValidationError{Field: "error_message", Reason: "must not be empty"}
	}
	return nil
}

// NormalizeBag validates an opaque metadata/context payload supplied as a
// string. The payload must be a JSON object; it is stored unparsed so the
// logging core stays decoupled from producers' evolving schemas. An empty
// string normalizes to nil (field omitted).
func NormalizeBag(raw string) (json.RawMessage, error) {
	if raw == "" {
		return nil, nil
	}
	if !gjson.Valid(raw) {
		return nil, &ValidationError{Field: "metadata", Reason: "payload is not valid JSON"}
	}
	if !gjson.Parse(raw).IsObject() {
		return nil, &ValidationError{Field: "metadata", Reason: "payload must be a JSON object"}
	}
	return json.RawMessage(raw), nil
}
