package feed

import (
	"context"

	"github.com/afftrack/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// Repository defines the interface for transfer feed persistence.
// The dispatch core never writes feeds; configuration is owned by the
// dashboard.
type Repository interface {
	// FindByID finds a feed by its ID
	FindByID(ctx context.Context, id uuid.UUID) (*TransferFeed, error)

	// FindActive finds all ACTIVE feeds in listing order
	FindActive(ctx context.Context) ([]TransferFeed, error)

	// FindAll finds all feeds matching the filter
	FindAll(ctx context.Context, filter shared.Filter) ([]TransferFeed, error)

	// Count counts feeds matching the filter
	Count(ctx context.Context, filter shared.Filter) (int64, error)
}
