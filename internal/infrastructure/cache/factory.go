package cache

import (
	"fmt"

	"github.com/afftrack/backend/internal/domain/shared"
	"github.com/afftrack/backend/internal/infrastructure/config"
	"go.uber.org/zap"
)

// ClaimStoreFactory creates lead claim stores based on configuration
type ClaimStoreFactory struct {
	redisConfig           config.RedisConfig
	logger                *zap.Logger
	allowInMemoryFallback bool
}

// ClaimStoreFactoryOption is a functional option for configuring the factory
type ClaimStoreFactoryOption func(*ClaimStoreFactory)

// WithLogger sets the logger for the factory
func WithLogger(logger *zap.Logger) ClaimStoreFactoryOption {
	return func(f *ClaimStoreFactory) {
		f.logger = logger
	}
}

// WithInMemoryFallback controls whether to fall back to an in-memory store
// when Redis is unavailable. Default is true (allow fallback).
func WithInMemoryFallback(allow bool) ClaimStoreFactoryOption {
	return func(f *ClaimStoreFactory) {
		f.allowInMemoryFallback = allow
	}
}

// NewClaimStoreFactory creates a new factory
func NewClaimStoreFactory(cfg config.RedisConfig, opts ...ClaimStoreFactoryOption) *ClaimStoreFactory {
	f := &ClaimStoreFactory{
		redisConfig:           cfg,
		logger:                zap.NewNop(),
		allowInMemoryFallback: true,
	}

	for _, opt := range opts {
		opt(f)
	}

	return f
}

// CreateRedisStore creates a Redis-based lead claim store
func (f *ClaimStoreFactory) CreateRedisStore() (shared.LeadClaimStore, error) {
	redisCfg := RedisConfig{
		Host:     f.redisConfig.Host,
		Port:     f.redisConfig.Port,
		Password: f.redisConfig.Password,
		DB:       f.redisConfig.DB,
	}

	store, err := NewRedisClaimStore(redisCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create Redis claim store: %w", err)
	}

	return store, nil
}

// CreateInMemoryStore creates an in-memory lead claim store
// This is suitable for single-instance deployments and testing
// WARNING: In-memory stores do not share state across process instances,
// which can lead to the same lead being dispatched twice in distributed
// deployments
func (f *ClaimStoreFactory) CreateInMemoryStore() shared.LeadClaimStore {
	return NewInMemoryClaimStore()
}

// CreateStore creates a lead claim store based on whether Redis is configured.
// When Redis is disabled it goes straight to in-memory; when enabled it tries
// Redis first and falls back to in-memory only if fallback is allowed.
func (f *ClaimStoreFactory) CreateStore() (shared.LeadClaimStore, error) {
	if !f.redisConfig.Enabled {
		f.logger.Info("Redis disabled, using in-memory lead claim store")
		return f.CreateInMemoryStore(), nil
	}

	store, err := f.CreateRedisStore()
	if err == nil {
		f.logger.Info("using Redis lead claim store")
		return store, nil
	}

	if !f.allowInMemoryFallback {
		return nil, fmt.Errorf("Redis required for lead claims but unavailable: %w", err)
	}

	f.logger.Warn("Redis unavailable, falling back to in-memory lead claim store. "+
		"This may cause duplicate dispatching in distributed deployments.",
		zap.Error(err),
	)
	return f.CreateInMemoryStore(), nil
}
