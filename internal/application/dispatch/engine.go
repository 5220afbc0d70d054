package dispatch

import (
	"context"
	"time"

	"github.com/afftrack/backend/internal/domain/feed"
	"github.com/afftrack/backend/internal/domain/lead"
	"github.com/afftrack/backend/internal/domain/transfer"
	backoff "github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Config holds the dispatch engine's tunables
type Config struct {
	// MaxDispatchAttempts bounds main-dispatch retries per feed
	MaxDispatchAttempts int

	// RetryBackoffBase and RetryBackoffMax shape the exponential delay
	// between dispatch attempts against a failing endpoint
	RetryBackoffBase time.Duration
	RetryBackoffMax  time.Duration

	// ResetRetryCountPerFeed controls whether the running attempt
	// counter restarts for each feed. Historically it accumulated
	// across feeds; both behaviors are supported.
	ResetRetryCountPerFeed bool
}

// DefaultConfig returns the engine defaults
func DefaultConfig() Config {
	return Config{
		MaxDispatchAttempts: 5,
		RetryBackoffBase:    500 * time.Millisecond,
		RetryBackoffMax:     10 * time.Second,
	}
}

// Engine runs the feed failover pipeline: schedule gate, rule
// evaluation, pre-ping, main dispatch with retry, across a set of
// competing feeds until one accepts the lead.
type Engine struct {
	client   HTTPDoer
	patterns *feed.PatternCache
	config   Config
	logger   *zap.Logger
	now      func() time.Time
}

// NewEngine creates a dispatch engine
func NewEngine(client HTTPDoer, config Config, logger *zap.Logger) *Engine {
	if config.MaxDispatchAttempts < 1 {
		config.MaxDispatchAttempts = 1
	}
	return &Engine{
		client:   client,
		patterns: feed.NewPatternCache(),
		config:   config,
		logger:   logger,
		now:      time.Now,
	}
}

// Outcome is the terminal result of one dispatch pass over a lead,
// carrying everything the outcome recorder persists
type Outcome struct {
	Status       transfer.Status
	FeedID       *uuid.UUID
	Response     string
	ResponseCode int
	ErrorMessage string
	PrePingID    string
	Payout       decimal.Decimal
	PayoutFound  bool
	RetryCount   int
}

// Run executes a commit-mode pass: feeds are tried sequentially in
// listing order and the first accepted dispatch wins. The pass itself
// never persists anything; the caller records the returned outcome.
func (e *Engine) Run(ctx context.Context, l *lead.Lead, feeds []feed.TransferFeed) *Outcome {
	attempt := lead.NewAttempt(l)

	outcome := &Outcome{Status: transfer.StatusFailedAllFeeds}
	retryCount := 0

	for i := range feeds {
		f := &feeds[i]
		log := e.logger.With(zap.String("lead_id", l.ID.String()), zap.String("feed_id", f.ID.String()))

		if eligible, reason := f.Schedule.Eligible(e.now()); !eligible {
			log.Debug("Feed skipped by schedule gate", zap.String("reason", reason))
			continue
		}

		if !feed.EvaluateAll(f.Conditions, attempt.Data(), e.patterns) {
			log.Debug("Feed skipped by condition rules")
			continue
		}

		feedAttempt := attempt
		if f.PrePingEnabled() {
			ping := e.runPrePing(ctx, f, feedAttempt.Data())
			if !ping.Success {
				// A single pre-ping failure disqualifies the feed;
				// there is no pre-ping retry budget
				log.Info("Feed rejected at pre-ping", zap.String("error", ping.ErrorMessage))
				feedID := f.ID
				outcome.Status = transfer.StatusFailedPing
				outcome.FeedID = &feedID
				outcome.Response = ping.Response
				outcome.ResponseCode = ping.StatusCode
				outcome.ErrorMessage = ping.ErrorMessage
				outcome.PrePingID = ""
				continue
			}
			if ping.IDFound {
				feedAttempt = feedAttempt.WithPrePingID(ping.PrePingID)
			}
		}

		if e.config.ResetRetryCountPerFeed {
			retryCount = 0
		}

		result := e.dispatchWithRetry(ctx, f, feedAttempt.Data(), &retryCount)
		feedID := f.ID
		outcome.FeedID = &feedID
		outcome.Response = result.Response
		outcome.ResponseCode = result.StatusCode
		outcome.PrePingID = feedAttempt.PrePingID
		outcome.RetryCount = retryCount

		if result.Success {
			outcome.Status = transfer.StatusAccepted
			outcome.ErrorMessage = ""
			outcome.Payout = result.Payout
			outcome.PayoutFound = result.PayoutFound
			log.Info("Lead accepted",
				zap.Int("attempts", retryCount),
				zap.Bool("payout_found", result.PayoutFound),
			)
			return outcome
		}

		outcome.Status = transfer.StatusFailedMain
		outcome.ErrorMessage = result.ErrorMessage
		log.Info("Feed exhausted dispatch retries", zap.String("error", result.ErrorMessage))
	}

	outcome.RetryCount = retryCount
	return outcome
}

// dispatchWithRetry attempts the main dispatch up to the configured
// bound, short-circuiting on the first success. Every attempt increments
// the shared counter, which by default runs across feeds.
func (e *Engine) dispatchWithRetry(ctx context.Context, f *feed.TransferFeed, data map[string]any, retryCount *int) *DispatchResult {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = e.config.RetryBackoffBase
	bo.MaxInterval = e.config.RetryBackoffMax
	bo.Reset()

	var result *DispatchResult
	for i := 0; i < e.config.MaxDispatchAttempts; i++ {
		*retryCount++
		result = e.runDispatch(ctx, f, data)
		if result.Success {
			return result
		}
		if i == e.config.MaxDispatchAttempts-1 {
			break
		}
		select {
		case <-ctx.Done():
			result.ErrorMessage = ctx.Err().Error()
			return result
		case <-time.After(bo.NextBackOff()):
		}
	}
	return result
}
