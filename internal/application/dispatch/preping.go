package dispatch

import (
	"context"
	"fmt"

	"github.com/afftrack/backend/internal/domain/feed"
	"github.com/tidwall/gjson"
)

// PrePingResult captures everything the pre-ping step saw, for both the
// orchestrator's decision and dry-run diagnostics
type PrePingResult struct {
	Success        bool
	Request        *RequestSpec
	Response       string
	StatusCode     int
	PatternMatched bool
	IDFound        bool
	PrePingID      string
	Message        string
	ErrorMessage   string
}

// runPrePing performs the feed's validation call. Success is decided
// solely by the success pattern matching the raw response text. A failed
// pre-ping disqualifies the feed for this lead; the caller must not
// proceed to the main dispatch.
func (e *Engine) runPrePing(ctx context.Context, f *feed.TransferFeed, data map[string]any) *PrePingResult {
	cfg := f.PrePing
	result := &PrePingResult{}

	spec, err := BuildRequestSpec(cfg.Method, cfg.URL, cfg.Headers, cfg.BodyTemplate, cfg.BodyEncoding, data)
	if err != nil {
		result.ErrorMessage = fmt.Sprintf("pre-ping template error: %v", err)
		return result
	}
	result.Request = spec

	raw, status, err := send(ctx, e.client, spec)
	result.Response = raw
	result.StatusCode = status
	if err != nil {
		result.ErrorMessage = fmt.Sprintf("pre-ping request failed: %v", err)
		return result
	}

	re, err := e.patterns.Get(cfg.SuccessPattern)
	if err != nil {
		result.ErrorMessage = fmt.Sprintf("invalid pre-ping success pattern: %v", err)
		return result
	}
	if !re.MatchString(raw) {
		result.ErrorMessage = "pre-ping response did not match success pattern"
		return result
	}

	result.PatternMatched = true
	result.Success = true
	result.Message = "pre-ping accepted"

	if cfg.ResponseIDEnabled {
		// Extraction failure never flips an accepted pre-ping back to
		// failure; the main request just goes out without a prePingId
		if id := gjson.Get(raw, cfg.IDExtractionPath()); id.Exists() && id.String() != "" {
			result.IDFound = true
			result.PrePingID = id.String()
		} else {
			result.Message = "pre-ping accepted, validation ID not found"
		}
	}

	return result
}
