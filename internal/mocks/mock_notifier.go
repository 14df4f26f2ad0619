package mocks

import (
	"context"
	"sync"

	"github.com/metinatakli/storefront-payments/internal/domain"
)

// MockNotifier records notifications instead of delivering them.
type MockNotifier struct {
	mu            sync.Mutex
	notifications []domain.Notification
}

func (m *MockNotifier) Notify(notification domain.Notification) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.notifications = append(m.notifications, notification)
}

func (m *MockNotifier) Notifications() []domain.Notification {
	m.mu.Lock()
	defer m.mu.Unlock()

	notifications := make([]domain.Notification, len(m.notifications))
	copy(notifications, m.notifications)
	return notifications
}

// MockPublisher records published order status changes.
type MockPublisher struct {
	mu     sync.Mutex
	events []domain.OrderStatusChanged
	Err    error
}

func (m *MockPublisher) PublishStatusChanged(ctx context.Context, event domain.OrderStatusChanged) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.events = append(m.events, event)
	return m.Err
}

func (m *MockPublisher) Events() []domain.OrderStatusChanged {
	m.mu.Lock()
	defer m.mu.Unlock()

	events := make([]domain.OrderStatusChanged, len(m.events))
	copy(events, m.events)
	return events
}
