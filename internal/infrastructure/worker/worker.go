package worker

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/afftrack/backend/internal/domain/lead"
	"github.com/afftrack/backend/internal/domain/shared"
	"github.com/afftrack/backend/internal/domain/transfer"
)

// ---------------------------------------------------------------------------
// Config
// ---------------------------------------------------------------------------

// Config holds configuration for the transfer worker
type Config struct {
	// Enabled indicates if the worker is enabled
	Enabled bool
	// PollInterval is how often the worker looks for pending leads
	PollInterval time.Duration
	// BatchSize is the maximum number of leads fetched per poll
	BatchSize int
	// Concurrency is the maximum number of leads processed at once
	Concurrency int
	// LeadTimeout is the maximum time a single lead pass can run
	LeadTimeout time.Duration
	// ClaimTTL is how long a lead claim blocks other passes
	ClaimTTL time.Duration
}

// DefaultConfig returns default worker configuration
func DefaultConfig() Config {
	return Config{
		Enabled:      true,
		PollInterval: 5 * time.Second,
		BatchSize:    50,
		Concurrency:  4,
		LeadTimeout:  2 * time.Minute,
		ClaimTTL:     5 * time.Minute,
	}
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.PollInterval <= 0 {
		return ErrInvalidConfig
	}
	if c.BatchSize <= 0 {
		return ErrInvalidConfig
	}
	if c.Concurrency <= 0 {
		return ErrInvalidConfig
	}
	if c.LeadTimeout <= 0 {
		return ErrInvalidConfig
	}
	if c.ClaimTTL < c.LeadTimeout {
		return ErrInvalidConfig
	}
	return nil
}

// ---------------------------------------------------------------------------
// Processor Interface
// ---------------------------------------------------------------------------

// Processor runs one full dispatch pass for a lead
type Processor interface {
	ProcessLead(ctx context.Context, l *lead.Lead) (*transfer.Transfer, error)
}

// ---------------------------------------------------------------------------
// Worker
// ---------------------------------------------------------------------------

// Worker polls for pending leads and pushes each one through a dispatch
// pass. A claim is taken per lead before processing so overlapping polls,
// or other instances sharing the claim store, never dispatch the same
// lead twice.
type Worker struct {
	config    Config
	leads     lead.Repository
	claims    shared.LeadClaimStore
	processor Processor
	logger    *zap.Logger

	cancel    context.CancelFunc
	wg        sync.WaitGroup
	mu        sync.Mutex
	isRunning bool
}

// New creates a new transfer worker
func New(config Config, leads lead.Repository, claims shared.LeadClaimStore, processor Processor, logger *zap.Logger) (*Worker, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &Worker{
		config:    config,
		leads:     leads,
		claims:    claims,
		processor: processor,
		logger:    logger,
	}, nil
}

// Start starts the poll loop
func (w *Worker) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.isRunning {
		w.mu.Unlock()
		return nil
	}
	w.isRunning = true
	w.mu.Unlock()

	ctx, cancel := context.WithCancel(ctx)
	w.cancel = cancel

	w.wg.Add(1)
	go w.pollLoop(ctx)

	w.logger.Info("Transfer worker started",
		zap.Duration("poll_interval", w.config.PollInterval),
		zap.Int("batch_size", w.config.BatchSize),
		zap.Int("concurrency", w.config.Concurrency),
	)

	return nil
}

// Stop gracefully stops the worker, waiting for in-flight leads
func (w *Worker) Stop(ctx context.Context) error {
	w.mu.Lock()
	if !w.isRunning {
		w.mu.Unlock()
		return nil
	}
	w.isRunning = false
	w.mu.Unlock()

	if w.cancel != nil {
		w.cancel()
	}

	done := make(chan struct{})
	go func() {
		w.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		w.logger.Info("Transfer worker stopped gracefully")
		return nil
	case <-ctx.Done():
		w.logger.Warn("Transfer worker stop timed out")
		return ctx.Err()
	}
}

// TriggerPass runs one poll pass immediately, outside the ticker
func (w *Worker) TriggerPass(ctx context.Context) error {
	w.mu.Lock()
	if !w.isRunning {
		w.mu.Unlock()
		return ErrWorkerNotRunning
	}
	w.mu.Unlock()

	w.RunOnce(ctx)
	return nil
}

// pollLoop runs the main poll loop
func (w *Worker) pollLoop(ctx context.Context) {
	defer w.wg.Done()

	ticker := time.NewTicker(w.config.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.RunOnce(ctx)
		}
	}
}

// RunOnce fetches one batch of pending leads and processes them with
// bounded concurrency, returning when the whole batch is done
func (w *Worker) RunOnce(ctx context.Context) {
	leads, err := w.leads.FindPending(ctx, w.config.BatchSize)
	if err != nil {
		w.logger.Error("Failed to fetch pending leads", zap.Error(err))
		return
	}

	if len(leads) == 0 {
		return
	}

	w.logger.Debug("Processing pending leads", zap.Int("count", len(leads)))

	sem := make(chan struct{}, w.config.Concurrency)
	var batch sync.WaitGroup

	for i := range leads {
		select {
		case <-ctx.Done():
			batch.Wait()
			return
		case sem <- struct{}{}:
		}

		batch.Add(1)
		go func(l lead.Lead) {
			defer batch.Done()
			defer func() { <-sem }()
			w.processLead(ctx, &l)
		}(leads[i])
	}

	batch.Wait()
}

// processLead claims a lead and runs one dispatch pass for it
func (w *Worker) processLead(ctx context.Context, l *lead.Lead) {
	leadID := l.ID.String()

	acquired, err := w.claims.Claim(ctx, leadID, w.config.ClaimTTL)
	if err != nil {
		w.logger.Error("Failed to claim lead",
			zap.String("lead_id", leadID),
			zap.Error(err),
		)
		return
	}
	if !acquired {
		w.logger.Debug("Lead already claimed, skipping",
			zap.String("lead_id", leadID),
		)
		return
	}

	leadCtx, cancel := context.WithTimeout(ctx, w.config.LeadTimeout)
	defer cancel()

	rec, err := w.processor.ProcessLead(leadCtx, l)
	if err != nil {
		// No outcome was written, release the claim so the next poll
		// can pick the lead up again
		if relErr := w.claims.Release(ctx, leadID); relErr != nil {
			w.logger.Warn("Failed to release lead claim",
				zap.String("lead_id", leadID),
				zap.Error(relErr),
			)
		}
		w.logger.Error("Lead dispatch pass failed",
			zap.String("lead_id", leadID),
			zap.Error(err),
		)
		return
	}

	if rec == nil {
		// Lead was no longer pending; leave the claim to expire
		return
	}

	w.logger.Info("Lead dispatch pass completed",
		zap.String("lead_id", leadID),
		zap.String("status", rec.Status.String()),
		zap.Bool("accepted", rec.Accepted()),
	)
}
