package correlation

import (
	"context"
	"errors"
	"sync"

	"github.com/example/replenishment-service/internal/models"
)

// MemoryStore is the in-process Store used by single-worker deployments and
// tests. A plain RWMutex map is sufficient at this scale; writes happen once
// per confirmed order while lookups happen on every delivery.
type MemoryStore struct {
	mu      sync.RWMutex
	results map[string]models.OrderResult
}

// NewMemoryStore constructs an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		results: make(map[string]models.OrderResult),
	}
}

// Record stores the result under its correlation id. The first write wins so
// concurrent deliveries of the same event converge on one outcome.
func (s *MemoryStore) Record(_ context.Context, correlationID string, result models.OrderResult) error {
	if correlationID == "" {
		return errors.New("correlation store: correlation id is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.results[correlationID]; exists {
		return nil
	}
	s.results[correlationID] = result
	return nil
}

// Lookup returns the recorded result for the correlation id, if any.
func (s *MemoryStore) Lookup(_ context.Context, correlationID string) (*models.OrderResult, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result, ok := s.results[correlationID]
	if !ok {
		return nil, false, nil
	}
	copied := result
	return &copied, true, nil
}
