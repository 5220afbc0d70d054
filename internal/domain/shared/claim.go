package shared

import (
	"context"
	"time"
)

// LeadClaimStore marks leads as claimed by a worker pass so an at-least-once
// scheduler never dispatches the same lead twice, even across instances.
type LeadClaimStore interface {
	// Claim atomically claims a lead for processing with a TTL.
	// Returns true if the claim was newly acquired, false if another
	// pass already holds it.
	Claim(ctx context.Context, leadID string, ttl time.Duration) (bool, error)

	// IsClaimed checks whether a lead is currently claimed
	IsClaimed(ctx context.Context, leadID string) (bool, error)

	// Release drops a claim so a lead can be picked up again.
	// Used when a pass fails before reaching a terminal outcome.
	Release(ctx context.Context, leadID string) error

	// Ping verifies the backing store is reachable
	Ping(ctx context.Context) error

	// Close closes the store and releases resources
	Close() error
}

// ClaimConfig holds configuration for lead claim handling
type ClaimConfig struct {
	// TTL is the time-to-live for a lead claim. After this duration a
	// crashed pass no longer blocks reprocessing.
	TTL time.Duration

	// Enabled determines whether claim checking is enabled
	Enabled bool
}

// DefaultClaimConfig returns the default claim configuration
func DefaultClaimConfig() ClaimConfig {
	return ClaimConfig{
		TTL:     time.Hour,
		Enabled: true,
	}
}
