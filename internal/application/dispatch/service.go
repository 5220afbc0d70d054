package dispatch

import (
	"context"

	"github.com/afftrack/backend/internal/domain/feed"
	"github.com/afftrack/backend/internal/domain/lead"
	"github.com/afftrack/backend/internal/domain/transfer"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Service ties the engine to the stores: the worker path loads active
// feeds and records outcomes, the dry-run path loads one feed and
// returns diagnostics without persisting anything.
type Service struct {
	engine   *Engine
	feeds    feed.Repository
	leads    lead.Repository
	recorder *Recorder
	logger   *zap.Logger
}

// NewService creates the dispatch service
func NewService(engine *Engine, feeds feed.Repository, leads lead.Repository, recorder *Recorder, logger *zap.Logger) *Service {
	return &Service{
		engine:   engine,
		feeds:    feeds,
		leads:    leads,
		recorder: recorder,
		logger:   logger,
	}
}

// ProcessLead runs one commit-mode pass for a pending lead: all ACTIVE
// feeds in listing order, first success wins, outcome recorded either
// way. A lead already out of the NEW state is left alone.
func (s *Service) ProcessLead(ctx context.Context, l *lead.Lead) (*transfer.Transfer, error) {
	if !l.IsPending() {
		s.logger.Warn("Skipping lead that is no longer pending",
			zap.String("lead_id", l.ID.String()),
			zap.String("status", l.Status.String()),
		)
		return nil, nil
	}

	feeds, err := s.feeds.FindActive(ctx)
	if err != nil {
		return nil, err
	}

	outcome := s.engine.Run(ctx, l, feeds)
	return s.recorder.Record(ctx, l.ID, outcome)
}

// TestFeed runs the trace-mode chain once against a single feed with
// caller-supplied sample lead data. Feeds in any status are reachable
// here; TESTING feeds are reachable only here.
func (s *Service) TestFeed(ctx context.Context, feedID uuid.UUID, leadData map[string]any) (*TraceResult, error) {
	f, err := s.feeds.FindByID(ctx, feedID)
	if err != nil {
		return nil, err
	}
	if leadData == nil {
		leadData = map[string]any{}
	}
	if _, ok := leadData["metaData"]; !ok {
		leadData["metaData"] = map[string]any{}
	}
	return s.engine.Trace(ctx, f, leadData), nil
}
