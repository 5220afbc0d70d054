package dispatch

import (
	"context"
	"fmt"

	"github.com/afftrack/backend/internal/domain/feed"
	"github.com/shopspring/decimal"
	"github.com/tidwall/gjson"
)

// DispatchResult captures one main dispatch attempt against a feed
type DispatchResult struct {
	Success        bool
	Request        *RequestSpec
	Response       string
	StatusCode     int
	PatternMatched bool
	Payout         decimal.Decimal
	PayoutFound    bool
	Message        string
	ErrorMessage   string
}

// runDispatch performs one main dispatch attempt. Acceptance is decided
// by the success pattern against the raw body; payout extraction failure
// downgrades to "payout not found" without failing the attempt.
func (e *Engine) runDispatch(ctx context.Context, f *feed.TransferFeed, data map[string]any) *DispatchResult {
	result := &DispatchResult{}

	spec, err := BuildRequestSpec(f.Method, f.EndpointURL, f.Headers, f.BodyTemplate, f.BodyEncoding, data)
	if err != nil {
		result.ErrorMessage = fmt.Sprintf("dispatch template error: %v", err)
		return result
	}
	result.Request = spec

	raw, status, err := send(ctx, e.client, spec)
	result.Response = raw
	result.StatusCode = status
	if err != nil {
		result.ErrorMessage = fmt.Sprintf("dispatch request failed: %v", err)
		return result
	}

	re, err := e.patterns.Get(f.SuccessPattern)
	if err != nil {
		result.ErrorMessage = fmt.Sprintf("invalid success pattern: %v", err)
		return result
	}
	if !re.MatchString(raw) {
		result.ErrorMessage = "response did not match success pattern"
		return result
	}

	result.PatternMatched = true
	result.Success = true
	result.Message = "transfer accepted"

	switch f.PayoutType {
	case feed.PayoutTypeStatic:
		result.Payout = f.PayoutValue
		result.PayoutFound = true
	case feed.PayoutTypeDynamic:
		result.Payout, result.PayoutFound = extractPayout(raw, f.PayoutPath)
		if !result.PayoutFound {
			result.Message = "transfer accepted, payout not found"
		}
	}

	return result
}

// extractPayout walks the dotted path into the parsed JSON response and
// converts the value it lands on to a decimal amount
func extractPayout(raw, path string) (decimal.Decimal, bool) {
	res := gjson.Get(raw, path)
	if !res.Exists() {
		return decimal.Zero, false
	}
	switch res.Type {
	case gjson.Number:
		return decimal.NewFromFloat(res.Float()), true
	case gjson.String:
		d, err := decimal.NewFromString(res.String())
		if err != nil {
			return decimal.Zero, false
		}
		return d, true
	default:
		return decimal.Zero, false
	}
}
