package mocks

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/metinatakli/storefront-payments/internal/domain"
	"github.com/shopspring/decimal"
)

// StatusEdge is one status change applied by MemoryOrderRepo.
type StatusEdge struct {
	OrderID uuid.UUID
	From    domain.OrderStatus
	To      domain.OrderStatus
}

// MemoryOrderRepo keeps orders in a map and applies conditional writes the
// way the Postgres repository does. Status writes are applied exactly as the
// caller's from list allows, so Edges shows what callers actually asked for.
type MemoryOrderRepo struct {
	mu       sync.Mutex
	orders   map[uuid.UUID]*domain.Order
	notified map[uuid.UUID]domain.OrderStatus
	edges    []StatusEdge
}

func NewMemoryOrderRepo() *MemoryOrderRepo {
	return &MemoryOrderRepo{
		orders:   make(map[uuid.UUID]*domain.Order),
		notified: make(map[uuid.UUID]domain.OrderStatus),
	}
}

// Edges returns every status change in the order it was applied.
func (m *MemoryOrderRepo) Edges() []StatusEdge {
	m.mu.Lock()
	defer m.mu.Unlock()

	return slices.Clone(m.edges)
}

func (m *MemoryOrderRepo) Create(ctx context.Context, order *domain.Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.insert(order)
}

func (m *MemoryOrderRepo) CreateFromPayment(ctx context.Context, order *domain.Order) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if order.StripePaymentIntentID != nil && m.byPaymentIntent(*order.StripePaymentIntentID) != nil {
		return false, nil
	}

	if err := m.insert(order); err != nil {
		return false, err
	}

	return true, nil
}

func (m *MemoryOrderRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	order, ok := m.orders[id]
	if !ok {
		return nil, domain.ErrRecordNotFound
	}

	return copyOrder(order), nil
}

func (m *MemoryOrderRepo) GetByCheckoutToken(ctx context.Context, token string) (*domain.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, order := range m.orders {
		if order.CheckoutToken == token {
			return copyOrder(order), nil
		}
	}

	return nil, domain.ErrRecordNotFound
}

func (m *MemoryOrderRepo) GetByPaymentIntentID(ctx context.Context, paymentIntentID string) (*domain.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	order := m.byPaymentIntent(paymentIntentID)
	if order == nil {
		return nil, domain.ErrRecordNotFound
	}

	return copyOrder(order), nil
}

func (m *MemoryOrderRepo) Transition(
	ctx context.Context,
	id uuid.UUID,
	to domain.OrderStatus,
	from []domain.OrderStatus) (*domain.Order, bool, error) {

	m.mu.Lock()
	defer m.mu.Unlock()

	order, ok := m.orders[id]
	if !ok {
		return nil, false, domain.ErrRecordNotFound
	}

	if order.Status == to {
		return copyOrder(order), false, nil
	}

	if !slices.Contains(from, order.Status) {
		return copyOrder(order), false, fmt.Errorf("%w: %s -> %s", domain.ErrInvalidTransition, order.Status, to)
	}

	m.move(order, to)
	return copyOrder(order), true, nil
}

func (m *MemoryOrderRepo) UpdateDispute(
	ctx context.Context,
	id uuid.UUID,
	update domain.DisputeUpdate) (*domain.Order, bool, error) {

	m.mu.Lock()
	defer m.mu.Unlock()

	order, ok := m.orders[id]
	if !ok {
		return nil, false, domain.ErrRecordNotFound
	}

	to := update.Status.OrderStatus()
	if order.Status != to && !slices.Contains(domain.DisputeSources(to), string(order.Status)) {
		return copyOrder(order), false, fmt.Errorf("%w: %s -> %s", domain.ErrInvalidTransition, order.Status, to)
	}

	status := update.Status
	amount := update.Amount
	order.DisputeID = &update.DisputeID
	order.DisputeStatus = &status
	order.DisputeAmount = &amount
	if update.Reason != "" {
		reason := update.Reason
		order.DisputeReason = &reason
	}

	changed := order.Status != to
	if changed {
		m.move(order, to)
	}

	return copyOrder(order), changed, nil
}

func (m *MemoryOrderRepo) RecordRefund(
	ctx context.Context,
	id uuid.UUID,
	amount decimal.Decimal) (*domain.Order, bool, error) {

	m.mu.Lock()
	defer m.mu.Unlock()

	order, ok := m.orders[id]
	if !ok {
		return nil, false, domain.ErrRecordNotFound
	}

	if order.Status != domain.OrderStatusPaid && order.Status != domain.OrderStatusDisputed {
		return copyOrder(order), false, nil
	}

	if order.RefundedAmount != nil && order.RefundedAmount.Equal(amount) {
		return copyOrder(order), false, nil
	}

	now := time.Now()
	order.RefundedAmount = &amount
	if order.RefundedAt == nil {
		order.RefundedAt = &now
	}

	return copyOrder(order), true, nil
}

func (m *MemoryOrderRepo) ClaimNotification(ctx context.Context, id uuid.UUID, status domain.OrderStatus) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if last, ok := m.notified[id]; ok && last == status {
		return false, nil
	}

	m.notified[id] = status
	return true, nil
}

func (m *MemoryOrderRepo) insert(order *domain.Order) error {
	if _, exists := m.orders[order.ID]; exists {
		return domain.ErrDuplicateOrder
	}

	if order.StripePaymentIntentID != nil && m.byPaymentIntent(*order.StripePaymentIntentID) != nil {
		return domain.ErrDuplicateOrder
	}

	now := time.Now()
	order.CreatedAt = now
	order.UpdatedAt = now
	if order.Status == domain.OrderStatusPaid && order.PaidAt == nil {
		order.PaidAt = &now
	}

	m.orders[order.ID] = copyOrder(order)
	return nil
}

func (m *MemoryOrderRepo) move(order *domain.Order, to domain.OrderStatus) {
	m.edges = append(m.edges, StatusEdge{OrderID: order.ID, From: order.Status, To: to})

	now := time.Now()
	order.Status = to
	order.UpdatedAt = now
	if to == domain.OrderStatusPaid && order.PaidAt == nil {
		order.PaidAt = &now
	}
}

func (m *MemoryOrderRepo) byPaymentIntent(paymentIntentID string) *domain.Order {
	for _, order := range m.orders {
		if order.StripePaymentIntentID != nil && *order.StripePaymentIntentID == paymentIntentID {
			return order
		}
	}

	return nil
}

func copyOrder(order *domain.Order) *domain.Order {
	copied := *order
	return &copied
}
