package domain

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

type NotificationEvent string

const (
	NotificationPaymentSucceeded NotificationEvent = "payment_succeeded"
	NotificationPaymentFailed    NotificationEvent = "payment_failed"
	NotificationPaymentDisputed  NotificationEvent = "payment_disputed"
	NotificationPaymentRefunded  NotificationEvent = "payment_refunded"
)

// NotificationEventFor returns the integrator event announcing that an order
// reached the given status. Pending orders are never announced.
func NotificationEventFor(status OrderStatus) (NotificationEvent, bool) {
	switch status {
	case OrderStatusPaid:
		return NotificationPaymentSucceeded, true
	case OrderStatusFailed:
		return NotificationPaymentFailed, true
	case OrderStatusDisputed:
		return NotificationPaymentDisputed, true
	case OrderStatusRefunded:
		return NotificationPaymentRefunded, true
	default:
		return "", false
	}
}

type Notification struct {
	URL             string            `json:"-"`
	Event           NotificationEvent `json:"event"`
	OrderID         string            `json:"orderId"`
	ExternalID      *string           `json:"externalId,omitempty"`
	ProviderID      string            `json:"providerId"`
	ProviderName    string            `json:"providerName"`
	ServiceID       *string           `json:"serviceId,omitempty"`
	ServiceName     *string           `json:"serviceName,omitempty"`
	Amount          decimal.Decimal   `json:"amount"`
	Status          OrderStatus       `json:"status"`
	PaymentIntentID string            `json:"paymentIntentId"`
	Timestamp       time.Time         `json:"timestamp"`
}

// Notifier delivers integrator notifications. Notify must not block the caller.
type Notifier interface {
	Notify(notification Notification)
}

// EventStore remembers processed webhook event ids.
type EventStore interface {
	// Claim records the event id and reports whether this call was the first.
	Claim(ctx context.Context, eventID string) (bool, error)
	// Release forgets the event id so a redelivery is processed again.
	Release(ctx context.Context, eventID string) error
}

type OrderStatusChanged struct {
	OrderID         string      `json:"orderId"`
	From            OrderStatus `json:"from"`
	To              OrderStatus `json:"to"`
	Source          string      `json:"source"`
	PaymentIntentID string      `json:"paymentIntentId,omitempty"`
	OccurredAt      time.Time   `json:"occurredAt"`
}

// OrderEventPublisher fans order status changes out to downstream consumers.
type OrderEventPublisher interface {
	PublishStatusChanged(ctx context.Context, event OrderStatusChanged) error
}
