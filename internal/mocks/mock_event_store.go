package mocks

import (
	"context"
	"sync"

	"github.com/metinatakli/storefront-payments/internal/domain"
)

// MockEventStore is an in-memory EventStore. ClaimErr, when set, is returned
// by every Claim call.
type MockEventStore struct {
	domain.EventStore
	mu       sync.Mutex
	claimed  map[string]bool
	ClaimErr error
	Released []string
}

func NewMockEventStore() *MockEventStore {
	return &MockEventStore{
		claimed: make(map[string]bool),
	}
}

func (m *MockEventStore) Claim(ctx context.Context, eventID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.ClaimErr != nil {
		return false, m.ClaimErr
	}

	if m.claimed[eventID] {
		return false, nil
	}

	m.claimed[eventID] = true
	return true, nil
}

func (m *MockEventStore) Release(ctx context.Context, eventID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.claimed, eventID)
	m.Released = append(m.Released, eventID)
	return nil
}
