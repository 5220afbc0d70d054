package feed

import (
	"net/http"
	"strings"

	"github.com/afftrack/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// ---------------------------------------------------------------------------
// Feed Enums
// ---------------------------------------------------------------------------

// FeedStatus represents the lifecycle state of a transfer feed
type FeedStatus string

const (
	// FeedStatusActive feeds participate in the recurring worker
	FeedStatusActive FeedStatus = "ACTIVE"
	// FeedStatusInactive feeds are never dispatched to
	FeedStatusInactive FeedStatus = "INACTIVE"
	// FeedStatusTesting feeds are reachable only through the dry-run path
	FeedStatusTesting FeedStatus = "TESTING"
)

// IsValid returns true if the status is valid
func (s FeedStatus) IsValid() bool {
	switch s {
	case FeedStatusActive, FeedStatusInactive, FeedStatusTesting:
		return true
	default:
		return false
	}
}

// String returns the string representation of FeedStatus
func (s FeedStatus) String() string {
	return string(s)
}

// BodyEncoding represents how a feed's body template is encoded on the wire
type BodyEncoding string

const (
	// BodyEncodingJSON sends the rendered template as a JSON object
	BodyEncodingJSON BodyEncoding = "json"
	// BodyEncodingForm sends the rendered template URL-encoded
	BodyEncodingForm BodyEncoding = "formData"
)

// IsValid returns true if the encoding is valid
func (e BodyEncoding) IsValid() bool {
	return e == BodyEncodingJSON || e == BodyEncodingForm
}

// PayoutType represents how the payout for an accepted transfer is determined
type PayoutType string

const (
	// PayoutTypeStatic uses the feed's configured payout value
	PayoutTypeStatic PayoutType = "STATIC"
	// PayoutTypeDynamic extracts the payout from the partner's JSON response
	PayoutTypeDynamic PayoutType = "DYNAMIC"
)

// IsValid returns true if the payout type is valid
func (p PayoutType) IsValid() bool {
	return p == PayoutTypeStatic || p == PayoutTypeDynamic
}

// ---------------------------------------------------------------------------
// Validation Errors
// ---------------------------------------------------------------------------

var (
	ErrFeedInvalidName     = shared.NewDomainError("FEED_INVALID_NAME", "Feed name cannot be empty")
	ErrFeedInvalidURL      = shared.NewDomainError("FEED_INVALID_URL", "Feed endpoint URL cannot be empty")
	ErrFeedInvalidMethod   = shared.NewDomainError("FEED_INVALID_METHOD", "Feed HTTP method must be GET or POST")
	ErrFeedInvalidEncoding = shared.NewDomainError("FEED_INVALID_ENCODING", "Feed body encoding must be json or formData")
	ErrFeedInvalidPayout   = shared.NewDomainError("FEED_INVALID_PAYOUT", "Dynamic payout requires a payout path")
	ErrFeedInvalidStatus   = shared.NewDomainError("FEED_INVALID_STATUS", "Feed status is not valid")
)

// ---------------------------------------------------------------------------
// TransferFeed
// ---------------------------------------------------------------------------

// PrePingConfig describes the optional validation call made before the
// main dispatch for a feed
type PrePingConfig struct {
	Enabled        bool
	Method         string
	URL            string
	Headers        map[string]string
	BodyTemplate   string
	BodyEncoding   BodyEncoding
	SuccessPattern string

	// ResponseIDEnabled turns on extraction of a validation identifier
	// from the pre-ping response, made available to the main request
	// as the prePingId placeholder
	ResponseIDEnabled bool

	// IDPath is the dotted path to the identifier inside the parsed
	// JSON response. Empty falls back to the legacy response.data.uuid.
	IDPath string
}

// TransferFeed is a partner-specific dispatch configuration
type TransferFeed struct {
	shared.BaseEntity

	Name        string
	PartnerName string
	Status      FeedStatus

	Method       string
	EndpointURL  string
	Headers      map[string]string
	BodyTemplate string
	BodyEncoding BodyEncoding

	// SuccessPattern is a regular expression matched against the raw
	// response body; it, not the HTTP status, decides acceptance
	SuccessPattern string

	PayoutType  PayoutType
	PayoutValue decimal.Decimal
	// PayoutPath is the dotted path into the parsed JSON response,
	// used when PayoutType is DYNAMIC
	PayoutPath string

	PrePing    *PrePingConfig
	Schedule   *ScheduleConfig
	Conditions []Condition
}

// Validate checks the feed configuration for structural problems.
// Pattern and template validity is checked at the point of use, because
// a bad regex or template must fail a single dispatch step, not feed
// loading as a whole.
func (f *TransferFeed) Validate() error {
	if strings.TrimSpace(f.Name) == "" {
		return ErrFeedInvalidName
	}
	if strings.TrimSpace(f.EndpointURL) == "" {
		return ErrFeedInvalidURL
	}
	switch strings.ToUpper(f.Method) {
	case http.MethodGet, http.MethodPost:
	default:
		return ErrFeedInvalidMethod
	}
	if !f.BodyEncoding.IsValid() {
		return ErrFeedInvalidEncoding
	}
	if f.PayoutType == PayoutTypeDynamic && strings.TrimSpace(f.PayoutPath) == "" {
		return ErrFeedInvalidPayout
	}
	if !f.Status.IsValid() {
		return ErrFeedInvalidStatus
	}
	return nil
}

// PrePingEnabled returns true if the feed declares a usable pre-ping step
func (f *TransferFeed) PrePingEnabled() bool {
	return f.PrePing != nil && f.PrePing.Enabled
}

// IDExtractionPath returns the dotted path used to pull the pre-ping
// identifier out of the validation response
func (p *PrePingConfig) IDExtractionPath() string {
	if strings.TrimSpace(p.IDPath) != "" {
		return p.IDPath
	}
	// Legacy default kept for feeds configured before IDPath existed
	return "response.data.uuid"
}
