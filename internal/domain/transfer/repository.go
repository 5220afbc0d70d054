package transfer

import (
	"context"

	"github.com/afftrack/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// Repository defines the interface for transfer outcome persistence.
// The store is append-only from the dispatch core's point of view.
type Repository interface {
	// FindByID finds a transfer by its ID
	FindByID(ctx context.Context, id uuid.UUID) (*Transfer, error)

	// FindByLeadID finds all transfers recorded for a lead
	FindByLeadID(ctx context.Context, leadID uuid.UUID) ([]Transfer, error)

	// FindAll finds all transfers matching the filter
	FindAll(ctx context.Context, filter shared.Filter) ([]Transfer, error)

	// Create appends a transfer record. Writing a second record for the
	// same lead within one pass is a conflict, reported as
	// shared.ErrAlreadyExists so a crashed-and-retried pass stays
	// idempotent.
	Create(ctx context.Context, t *Transfer) error

	// Count counts transfers matching the filter
	Count(ctx context.Context, filter shared.Filter) (int64, error)
}
