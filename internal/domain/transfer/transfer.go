package transfer

import (
	"github.com/afftrack/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Status represents the terminal outcome of a dispatch pass for a lead
type Status string

const (
	// StatusAccepted means a feed's success pattern matched the main response
	StatusAccepted Status = "ACCEPTED"
	// StatusFailedPing means the last feed considered was rejected at pre-ping
	StatusFailedPing Status = "FAILED_PING"
	// StatusFailedMain means the last feed considered exhausted its dispatch retries
	StatusFailedMain Status = "FAILED_MAIN"
	// StatusFailedAllFeeds means no feed got past gating and rules
	StatusFailedAllFeeds Status = "FAILED_ALL_FEEDS"
)

// IsValid returns true if the status is valid
func (s Status) IsValid() bool {
	switch s {
	case StatusAccepted, StatusFailedPing, StatusFailedMain, StatusFailedAllFeeds:
		return true
	default:
		return false
	}
}

// String returns the string representation of Status
func (s Status) String() string {
	return string(s)
}

// Transfer is the immutable outcome record written once per lead per
// dispatch pass. A requeued lead produces a new Transfer; existing rows
// are never mutated.
type Transfer struct {
	shared.BaseEntity

	LeadID uuid.UUID
	// FeedID is the winning feed on acceptance, or the last feed
	// attempted on failure. Nil when every feed was skipped before
	// any request was made.
	FeedID *uuid.UUID

	Status Status

	// Response is the raw body of the last partner response, when any
	Response     string
	ResponseCode int
	ErrorMessage string

	PrePingID string

	// Payout is set only for accepted transfers whose payout could be
	// determined; PayoutFound distinguishes "zero" from "not found"
	Payout      decimal.Decimal
	PayoutFound bool

	RetryCount int
}

// New creates a transfer outcome record for a lead
func New(leadID uuid.UUID, status Status) *Transfer {
	return &Transfer{
		BaseEntity: shared.NewBaseEntity(),
		LeadID:     leadID,
		Status:     status,
	}
}

// Accepted returns true if the transfer was accepted by a partner
func (t *Transfer) Accepted() bool {
	return t.Status == StatusAccepted
}
