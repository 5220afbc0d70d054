package dispatch

import (
	"context"
	"errors"

	"github.com/afftrack/backend/internal/domain/lead"
	"github.com/afftrack/backend/internal/domain/shared"
	"github.com/afftrack/backend/internal/domain/transfer"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Recorder persists the terminal outcome of one dispatch pass: exactly
// one Transfer row per lead per pass, plus the lead's TRANSFERRED mark.
// The two writes are not atomic; a crash between them leaves a
// recoverable inconsistency the worker tolerates on the next pass.
type Recorder struct {
	transfers transfer.Repository
	leads     lead.Repository
	logger    *zap.Logger
}

// NewRecorder creates an outcome recorder
func NewRecorder(transfers transfer.Repository, leads lead.Repository, logger *zap.Logger) *Recorder {
	return &Recorder{
		transfers: transfers,
		leads:     leads,
		logger:    logger,
	}
}

// Record writes the outcome and marks the lead TRANSFERRED regardless of
// whether any feed accepted it. A duplicate outcome row (reprocessed
// crashed pass) is logged and skipped, not treated as a failure.
func (r *Recorder) Record(ctx context.Context, leadID uuid.UUID, outcome *Outcome) (*transfer.Transfer, error) {
	t := transfer.New(leadID, outcome.Status)
	t.FeedID = outcome.FeedID
	t.Response = outcome.Response
	t.ResponseCode = outcome.ResponseCode
	t.ErrorMessage = outcome.ErrorMessage
	t.PrePingID = outcome.PrePingID
	t.Payout = outcome.Payout
	t.PayoutFound = outcome.PayoutFound
	t.RetryCount = outcome.RetryCount

	if err := r.transfers.Create(ctx, t); err != nil {
		if errors.Is(err, shared.ErrAlreadyExists) {
			r.logger.Warn("Outcome already recorded for lead, skipping duplicate",
				zap.String("lead_id", leadID.String()),
			)
		} else {
			return nil, err
		}
	}

	if err := r.leads.MarkTransferred(ctx, leadID); err != nil {
		return nil, err
	}

	return t, nil
}
