package dispatch

import (
	"context"
	"fmt"

	"github.com/afftrack/backend/internal/domain/feed"
	"github.com/shopspring/decimal"
)

// ---------------------------------------------------------------------------
// Trace Types
// ---------------------------------------------------------------------------

// PrePingTrace is the dry-run diagnostic view of the pre-ping step
type PrePingTrace struct {
	Message               string       `json:"message"`
	Request               *RequestSpec `json:"request,omitempty"`
	Response              string       `json:"response,omitempty"`
	SuccessPatternMatched bool         `json:"success_pattern_matched"`
	IDFound               bool         `json:"id_found"`
	PrePingID             string       `json:"pre_ping_id,omitempty"`
	ErrorMessage          string       `json:"error_message,omitempty"`
}

// MainRequestTrace is the dry-run diagnostic view of the main dispatch
type MainRequestTrace struct {
	Message               string           `json:"message"`
	Request               *RequestSpec     `json:"request,omitempty"`
	Response              string           `json:"response,omitempty"`
	SuccessPatternMatched bool             `json:"success_pattern_matched"`
	PayoutFound           bool             `json:"payout_found"`
	PayoutValue           *decimal.Decimal `json:"payout_value,omitempty"`
	ErrorMessage          string           `json:"error_message,omitempty"`
}

// TraceResult is the full diagnostic trace returned by the dry-run path.
// Every stage reports its verdict verbatim so an operator configuring a
// feed can see exactly which stage rejected it and why.
type TraceResult struct {
	TimingMessage     string            `json:"timing_message"`
	SchedulingMessage string            `json:"scheduling_message"`
	ConditionMessages []string          `json:"condition_messages"`
	PrePing           *PrePingTrace     `json:"pre_ping,omitempty"`
	MainRequest       *MainRequestTrace `json:"main_request,omitempty"`
}

// ---------------------------------------------------------------------------
// Trace Mode
// ---------------------------------------------------------------------------

// Trace executes the full gate, rules, pre-ping and dispatch chain once
// against a single feed, returning diagnostics instead of persisting.
// Rejected stages stop the chain the same way the commit path would skip
// the feed.
func (e *Engine) Trace(ctx context.Context, f *feed.TransferFeed, data map[string]any) *TraceResult {
	trace := &TraceResult{ConditionMessages: []string{}}

	now := e.now()
	trace.TimingMessage = fmt.Sprintf("evaluated at %s", now.Format("2006-01-02 15:04:05"))

	eligible, reason := f.Schedule.Eligible(now)
	if !eligible {
		trace.SchedulingMessage = reason
		return trace
	}
	trace.SchedulingMessage = "feed is within its schedule"

	rulesPassed := true
	for _, c := range f.Conditions {
		if c.Evaluate(data, e.patterns) {
			trace.ConditionMessages = append(trace.ConditionMessages,
				fmt.Sprintf("PASSED: %s %s %q", c.Field, c.Operator, c.Value))
		} else {
			rulesPassed = false
			trace.ConditionMessages = append(trace.ConditionMessages,
				fmt.Sprintf("FAILED: %s %s %q", c.Field, c.Operator, c.Value))
		}
	}
	if !rulesPassed {
		return trace
	}

	if f.PrePingEnabled() {
		ping := e.runPrePing(ctx, f, data)
		trace.PrePing = &PrePingTrace{
			Message:               ping.Message,
			Request:               ping.Request,
			Response:              ping.Response,
			SuccessPatternMatched: ping.PatternMatched,
			IDFound:               ping.IDFound,
			PrePingID:             ping.PrePingID,
			ErrorMessage:          ping.ErrorMessage,
		}
		if !ping.Success {
			return trace
		}
		if ping.IDFound {
			data = withPrePingID(data, ping.PrePingID)
		}
	}

	result := e.runDispatch(ctx, f, data)
	trace.MainRequest = &MainRequestTrace{
		Message:               result.Message,
		Request:               result.Request,
		Response:              result.Response,
		SuccessPatternMatched: result.PatternMatched,
		PayoutFound:           result.PayoutFound,
		ErrorMessage:          result.ErrorMessage,
	}
	if result.PayoutFound {
		payout := result.Payout
		trace.MainRequest.PayoutValue = &payout
	}
	return trace
}

// withPrePingID copies the record with the captured identifier added,
// leaving the caller's map untouched
func withPrePingID(data map[string]any, id string) map[string]any {
	next := make(map[string]any, len(data)+1)
	for k, v := range data {
		next[k] = v
	}
	next["prePingId"] = id
	return next
}
