package events

import (
	"context"
	"log/slog"
	"time"

	"github.com/metinatakli/storefront-payments/internal/domain"
)

// NopPublisher drops every event. It is used when no broker is configured.
type NopPublisher struct{}

func (NopPublisher) PublishStatusChanged(context.Context, domain.OrderStatusChanged) error {
	return nil
}

// Transition describes one applied ledger change.
type Transition struct {
	Order  *domain.Order
	From   domain.OrderStatus
	Source string
}

// Emit publishes the change. A failed publish never undoes the ledger write,
// so the error is only logged.
func Emit(ctx context.Context, publisher domain.OrderEventPublisher, logger *slog.Logger, t Transition) {
	if publisher == nil || t.Order == nil {
		return
	}

	event := domain.OrderStatusChanged{
		OrderID:    t.Order.OrderID,
		From:       t.From,
		To:         t.Order.Status,
		Source:     t.Source,
		OccurredAt: time.Now().UTC(),
	}
	if t.Order.StripePaymentIntentID != nil {
		event.PaymentIntentID = *t.Order.StripePaymentIntentID
	}

	err := publisher.PublishStatusChanged(ctx, event)
	if err != nil {
		logger.Warn("failed to publish order status change",
			"order_id", event.OrderID,
			"to", event.To,
			"error", err)
	}
}
