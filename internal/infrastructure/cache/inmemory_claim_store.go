package cache

import (
	"context"
	"sync"
	"time"

	"github.com/afftrack/backend/internal/domain/shared"
)

// claimEntry represents a held claim with expiration
type claimEntry struct {
	expiresAt time.Time
}

// InMemoryClaimStore implements LeadClaimStore using an in-memory map
// This is suitable for single-instance deployments and testing
type InMemoryClaimStore struct {
	mu        sync.RWMutex
	entries   map[string]claimEntry
	stopChan  chan struct{}
	wg        sync.WaitGroup
	closeOnce sync.Once
}

// NewInMemoryClaimStore creates a new in-memory lead claim store
// It starts a background goroutine to clean up expired claims
func NewInMemoryClaimStore() *InMemoryClaimStore {
	store := &InMemoryClaimStore{
		entries:  make(map[string]claimEntry),
		stopChan: make(chan struct{}),
	}

	// Start cleanup goroutine
	store.wg.Add(1)
	go store.cleanupLoop()

	return store
}

// Claim atomically claims a lead for processing with a TTL.
// Returns true if the claim was newly acquired, false if another
// pass already holds it.
func (s *InMemoryClaimStore) Claim(ctx context.Context, leadID string, ttl time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Check if already claimed and not expired
	if e, exists := s.entries[leadID]; exists {
		if time.Now().Before(e.expiresAt) {
			return false, nil // Already claimed
		}
		// Claim exists but expired, will be overwritten
	}

	s.entries[leadID] = claimEntry{
		expiresAt: time.Now().Add(ttl),
	}

	return true, nil
}

// IsClaimed checks whether a lead is currently claimed
func (s *InMemoryClaimStore) IsClaimed(ctx context.Context, leadID string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, exists := s.entries[leadID]
	if !exists {
		return false, nil
	}

	// Check if claim has expired
	if time.Now().After(e.expiresAt) {
		return false, nil // Expired, treat as unclaimed
	}

	return true, nil
}

// Release drops a claim so a lead can be picked up again
func (s *InMemoryClaimStore) Release(ctx context.Context, leadID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.entries, leadID)
	return nil
}

// Ping always succeeds for the in-memory store
func (s *InMemoryClaimStore) Ping(ctx context.Context) error {
	return nil
}

// Close stops the cleanup goroutine and releases resources
// Safe to call multiple times
func (s *InMemoryClaimStore) Close() error {
	s.closeOnce.Do(func() {
		close(s.stopChan)
		s.wg.Wait()
	})
	return nil
}

// cleanupLoop periodically removes expired claims
func (s *InMemoryClaimStore) cleanupLoop() {
	defer s.wg.Done()

	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-s.stopChan:
			return
		case <-ticker.C:
			s.cleanup()
		}
	}
}

// cleanup removes expired claims from the store
func (s *InMemoryClaimStore) cleanup() {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	for leadID, e := range s.entries {
		if now.After(e.expiresAt) {
			delete(s.entries, leadID)
		}
	}
}

// Size returns the number of held claims (for testing/monitoring)
func (s *InMemoryClaimStore) Size() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// Ensure InMemoryClaimStore implements LeadClaimStore
var _ shared.LeadClaimStore = (*InMemoryClaimStore)(nil)
