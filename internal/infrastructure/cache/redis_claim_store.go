package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/afftrack/backend/internal/domain/shared"
	"github.com/redis/go-redis/v9"
)

// RedisClaimStore implements LeadClaimStore using Redis
// This is suitable for distributed deployments where multiple instances
// need to share claim state
type RedisClaimStore struct {
	client    *redis.Client
	keyPrefix string
}

// RedisConfig holds Redis connection configuration
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// NewRedisClaimStore creates a new Redis-based lead claim store
func NewRedisClaimStore(cfg RedisConfig) (*RedisClaimStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	// Test connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &RedisClaimStore{
		client:    client,
		keyPrefix: "lead:claim:",
	}, nil
}

// NewRedisClaimStoreWithClient creates a store with an existing Redis client
// This is useful for testing or when sharing a client across components
func NewRedisClaimStoreWithClient(client *redis.Client, keyPrefix string) *RedisClaimStore {
	if keyPrefix == "" {
		keyPrefix = "lead:claim:"
	}
	return &RedisClaimStore{
		client:    client,
		keyPrefix: keyPrefix,
	}
}

// Claim atomically claims a lead for processing with a TTL.
// Returns true if the claim was newly acquired, false if another pass
// already holds it. Uses SETNX (SET if Not eXists) for atomic operation.
func (s *RedisClaimStore) Claim(ctx context.Context, leadID string, ttl time.Duration) (bool, error) {
	key := s.keyPrefix + leadID

	result, err := s.client.SetNX(ctx, key, "1", ttl).Result()
	if err != nil {
		return false, fmt.Errorf("failed to claim lead: %w", err)
	}

	return result, nil
}

// IsClaimed checks whether a lead is currently claimed
func (s *RedisClaimStore) IsClaimed(ctx context.Context, leadID string) (bool, error) {
	key := s.keyPrefix + leadID

	exists, err := s.client.Exists(ctx, key).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check lead claim: %w", err)
	}

	return exists > 0, nil
}

// Release drops a claim so a lead can be picked up again
func (s *RedisClaimStore) Release(ctx context.Context, leadID string) error {
	key := s.keyPrefix + leadID

	if err := s.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("failed to release lead claim: %w", err)
	}

	return nil
}

// Ping verifies the Redis connection is alive
func (s *RedisClaimStore) Ping(ctx context.Context) error {
	if err := s.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping failed: %w", err)
	}
	return nil
}

// Close closes the Redis client
func (s *RedisClaimStore) Close() error {
	return s.client.Close()
}

// GetClient returns the underlying Redis client (for testing/monitoring)
func (s *RedisClaimStore) GetClient() *redis.Client {
	return s.client
}

// Ensure RedisClaimStore implements LeadClaimStore
var _ shared.LeadClaimStore = (*RedisClaimStore)(nil)
