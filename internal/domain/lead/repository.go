package lead

import (
	"context"

	"github.com/afftrack/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// Repository defines the interface for lead persistence
type Repository interface {
	// FindByID finds a lead by its ID
	FindByID(ctx context.Context, id uuid.UUID) (*Lead, error)

	// FindPending finds leads in the NEW state, oldest first,
	// bounded by limit
	FindPending(ctx context.Context, limit int) ([]Lead, error)

	// FindAll finds all leads matching the filter
	FindAll(ctx context.Context, filter shared.Filter) ([]Lead, error)

	// Save creates or updates a lead
	Save(ctx context.Context, l *Lead) error

	// MarkTransferred transitions a lead to TRANSFERRED by ID.
	// The write is idempotent: marking an already-transferred lead
	// is not an error.
	MarkTransferred(ctx context.Context, id uuid.UUID) error

	// Count counts leads matching the filter
	Count(ctx context.Context, filter shared.Filter) (int64, error)
}
