package webhook

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/metinatakli/storefront-payments/internal/domain"
	"github.com/metinatakli/storefront-payments/internal/events"
	"github.com/metinatakli/storefront-payments/internal/metrics"
	"github.com/stripe/stripe-go/v82"
)

const reconcileSource = "webhook"

type Reconciler struct {
	orders    domain.OrderRepository
	providers domain.ProviderRepository
	services  domain.ServiceRepository
	events    domain.EventStore
	secrets   SecretSource
	notifier  domain.Notifier
	publisher domain.OrderEventPublisher
	metrics   *metrics.Metrics
	logger    *slog.Logger
	now       func() time.Time
}

type Deps struct {
	Orders    domain.OrderRepository
	Providers domain.ProviderRepository
	Services  domain.ServiceRepository
	Events    domain.EventStore
	Secrets   SecretSource
	Notifier  domain.Notifier
	Publisher domain.OrderEventPublisher
	Metrics   *metrics.Metrics
	Logger    *slog.Logger
}

func NewReconciler(deps Deps) *Reconciler {
	return &Reconciler{
		orders:    deps.Orders,
		providers: deps.Providers,
		services:  deps.Services,
		events:    deps.Events,
		secrets:   deps.Secrets,
		notifier:  deps.Notifier,
		publisher: deps.Publisher,
		metrics:   deps.Metrics,
		logger:    deps.Logger,
		now:       time.Now,
	}
}

// HandleDelivery verifies a raw delivery and applies the event it carries.
// A domain.ErrInvalidSignature error means nothing was processed.
func (r *Reconciler) HandleDelivery(ctx context.Context, payload []byte, signature string) error {
	secrets, err := r.secrets.WebhookSecrets(ctx)
	if err != nil {
		return err
	}

	event, err := Verify(payload, signature, secrets)
	if err != nil {
		r.metrics.WebhookEvents.WithLabelValues("unknown", "invalid_signature").Inc()
		return err
	}

	return r.Handle(ctx, event)
}

// Handle applies one verified event. Each event id is applied at most once;
// when applying fails the claim is released so the processor's redelivery is
// processed again.
func (r *Reconciler) Handle(ctx context.Context, event stripe.Event) error {
	eventType := string(event.Type)
	logger := r.logger.With("event_id", event.ID, "event_type", eventType)

	parsed, err := Parse(event)
	if err != nil {
		// Redelivering a malformed payload would fail the same way.
		logger.Warn("dropping malformed webhook event", "error", err)
		r.metrics.WebhookEvents.WithLabelValues(eventType, "malformed").Inc()
		return nil
	}

	if _, ok := parsed.(UnknownEvent); ok {
		logger.Debug("ignoring webhook event")
		r.metrics.WebhookEvents.WithLabelValues(eventType, "ignored").Inc()
		return nil
	}

	first, err := r.events.Claim(ctx, event.ID)
	if err != nil {
		// Ledger writes are conditional, so processing twice is safe.
		logger.Warn("webhook event dedupe unavailable", "error", err)
		first = true
	}

	if !first {
		logger.Info("skipping already processed webhook event")
		r.metrics.WebhookEvents.WithLabelValues(eventType, "duplicate").Inc()
		return nil
	}

	err = r.apply(ctx, logger, parsed)
	if err != nil {
		releaseErr := r.events.Release(ctx, event.ID)
		if releaseErr != nil {
			logger.Warn("failed to release webhook event claim", "error", releaseErr)
		}

		logger.Error("webhook event processing failed", "error", err)
		r.metrics.WebhookEvents.WithLabelValues(eventType, "error").Inc()
		return err
	}

	r.metrics.WebhookEvents.WithLabelValues(eventType, "processed").Inc()
	return nil
}

func (r *Reconciler) apply(ctx context.Context, logger *slog.Logger, event Event) error {
	switch e := event.(type) {
	case PaymentSucceeded:
		return r.paymentSucceeded(ctx, logger, e)
	case PaymentFailed:
		return r.paymentFailed(ctx, logger, e)
	case DisputeChanged:
		return r.disputeChanged(ctx, logger, e)
	case PaymentRefunded:
		return r.paymentRefunded(ctx, logger, e)
	default:
		return fmt.Errorf("unhandled webhook event %T", event)
	}
}

func (r *Reconciler) paymentSucceeded(ctx context.Context, logger *slog.Logger, e PaymentSucceeded) error {
	logger = logger.With("payment_intent_id", e.PaymentIntentID)

	order, err := r.orders.GetByPaymentIntentID(ctx, e.PaymentIntentID)
	if err != nil && !errors.Is(err, domain.ErrRecordNotFound) {
		return err
	}

	if order == nil {
		order, err = r.createFromPayment(ctx, logger, e)
		if err != nil || order == nil {
			return err
		}
	} else {
		order, err = r.transition(ctx, logger, order, domain.OrderStatusPaid, domain.PaymentOutcomeSources(domain.OrderStatusPaid))
		if err != nil {
			return err
		}
	}

	if order.Status == domain.OrderStatusPaid {
		r.notify(ctx, logger, order, e.PaymentIntentID)
	}

	return nil
}

// createFromPayment records a paid order the ledger never saw, rebuilt from
// the metadata attached when the payment was created. A concurrent delivery
// may have inserted it first, in which case the stored order is returned.
func (r *Reconciler) createFromPayment(ctx context.Context, logger *slog.Logger, e PaymentSucceeded) (*domain.Order, error) {
	order, ok := r.orderFromMetadata(ctx, logger, e)
	if !ok {
		logger.Warn("payment succeeded for an unknown order without order metadata")
		return nil, nil
	}

	created, err := r.orders.CreateFromPayment(ctx, order)
	if err != nil {
		return nil, err
	}

	if !created {
		existing, err := r.orders.GetByPaymentIntentID(ctx, e.PaymentIntentID)
		if err != nil {
			return nil, err
		}

		return r.transition(ctx, logger, existing, domain.OrderStatusPaid, domain.PaymentOutcomeSources(domain.OrderStatusPaid))
	}

	logger.Info("created paid order from webhook", "order_id", order.OrderID)
	r.metrics.OrderTransitions.WithLabelValues("none", domain.OrderStatusPaid.String(), reconcileSource).Inc()
	events.Emit(ctx, r.publisher, logger, events.Transition{Order: order, Source: reconcileSource})

	return order, nil
}

func (r *Reconciler) orderFromMetadata(ctx context.Context, logger *slog.Logger, e PaymentSucceeded) (*domain.Order, bool) {
	md := e.Metadata
	serviceID := md["service_id"]
	providerID, providerErr := uuid.Parse(md["provider_id"])

	if serviceID == "" && providerErr != nil {
		return nil, false
	}

	now := r.now()

	order := &domain.Order{
		ID:                    uuid.New(),
		OrderID:               md["public_order_id"],
		CheckoutToken:         md["checkout_token"],
		Total:                 e.Amount,
		Quantity:              1,
		Currency:              e.Currency,
		StripePaymentIntentID: &e.PaymentIntentID,
		ItemName:              md["item_name"],
		Status:                domain.OrderStatusPaid,
		PaidAt:                &now,
	}

	if id, err := uuid.Parse(md["order_id"]); err == nil {
		order.ID = id
	}
	if !domain.IsValidOrderID(order.OrderID) {
		order.OrderID, _ = domain.GenerateOrderID(now)
	}
	if !domain.IsValidCheckoutToken(order.CheckoutToken) {
		order.CheckoutToken, _ = domain.GenerateCheckoutToken()
	}
	if q, err := strconv.Atoi(md["quantity"]); err == nil && q > 0 {
		order.Quantity = q
	}
	if order.Currency == "" {
		order.Currency = domain.DefaultCurrency
	}
	if providerErr == nil {
		order.ProviderID = &providerID
	}
	if externalID := md["external_id"]; externalID != "" {
		order.ExternalID = &externalID
	}

	if serviceID != "" {
		order.ServiceID = &serviceID

		service, err := r.services.GetByIDOrSlug(ctx, serviceID)
		switch {
		case err == nil:
			order.ServiceID = &service.ID
			if order.ItemName == "" {
				order.ItemName = service.Title
			}
		case errors.Is(err, domain.ErrRecordNotFound):
			logger.Warn("order metadata references an unknown service", "service_id", serviceID)
			order.ServiceID = nil
		default:
			logger.Warn("failed to load service for webhook order", "service_id", serviceID, "error", err)
		}
	}

	if order.ItemName == "" {
		order.ItemName = "Order " + order.OrderID
	}

	return order, true
}

func (r *Reconciler) paymentFailed(ctx context.Context, logger *slog.Logger, e PaymentFailed) error {
	logger = logger.With("payment_intent_id", e.PaymentIntentID)

	order, err := r.orders.GetByPaymentIntentID(ctx, e.PaymentIntentID)
	if err != nil {
		if errors.Is(err, domain.ErrRecordNotFound) {
			logger.Warn("payment failed for an unknown order")
			return nil
		}
		return err
	}

	order, err = r.transition(ctx, logger, order, domain.OrderStatusFailed, domain.PaymentOutcomeSources(domain.OrderStatusFailed))
	if err != nil {
		return err
	}

	if order.Status == domain.OrderStatusFailed {
		logger.Info("payment failed", "order_id", order.OrderID, "reason", e.Reason)
		r.notify(ctx, logger, order, e.PaymentIntentID)
	}

	return nil
}

func (r *Reconciler) disputeChanged(ctx context.Context, logger *slog.Logger, e DisputeChanged) error {
	logger = logger.With("payment_intent_id", e.PaymentIntentID, "dispute_id", e.DisputeID)

	order, err := r.orders.GetByPaymentIntentID(ctx, e.PaymentIntentID)
	if err != nil {
		if errors.Is(err, domain.ErrRecordNotFound) {
			logger.Warn("dispute for an unknown order")
			return nil
		}
		return err
	}

	// A dispute lost before its opening was recorded still passes through
	// disputed on its way to refunded.
	if order.Status == domain.OrderStatusPaid && e.Status.OrderStatus() == domain.OrderStatusRefunded {
		order, err = r.transition(ctx, logger, order, domain.OrderStatusDisputed,
			[]domain.OrderStatus{domain.OrderStatusPaid})
		if err != nil {
			return err
		}
	}

	from := order.Status

	updated, changed, err := r.orders.UpdateDispute(ctx, order.ID, domain.DisputeUpdate{
		DisputeID: e.DisputeID,
		Status:    e.Status,
		Amount:    e.Amount,
		Reason:    e.Reason,
	})
	if err != nil {
		if errors.Is(err, domain.ErrInvalidTransition) {
			logger.Warn("dispute does not apply to order", "order_id", order.OrderID, "status", from, "error", err)
			return nil
		}
		return err
	}

	logger.Info("dispute recorded",
		"order_id", updated.OrderID,
		"dispute_status", e.Status,
		"status", updated.Status)

	if changed {
		r.recordTransition(ctx, logger, updated, from)
		r.notify(ctx, logger, updated, e.PaymentIntentID)
	}

	return nil
}

// paymentRefunded records a refund issued outside of a dispute. The order
// keeps its status; only a lost dispute moves an order to refunded.
func (r *Reconciler) paymentRefunded(ctx context.Context, logger *slog.Logger, e PaymentRefunded) error {
	logger = logger.With("payment_intent_id", e.PaymentIntentID)

	order, err := r.orders.GetByPaymentIntentID(ctx, e.PaymentIntentID)
	if err != nil {
		if errors.Is(err, domain.ErrRecordNotFound) {
			logger.Warn("refund for an unknown order")
			return nil
		}
		return err
	}

	updated, changed, err := r.orders.RecordRefund(ctx, order.ID, e.Amount)
	if err != nil {
		return err
	}

	if !changed {
		logger.Info("refund not recorded", "order_id", updated.OrderID, "status", updated.Status)
		return nil
	}

	logger.Info("refund recorded",
		"order_id", updated.OrderID,
		"refunded_amount", e.Amount.StringFixed(2),
		"full", e.Full,
		"status", updated.Status)

	return nil
}

// transition applies a conditional status write. An order whose status the
// event may not move is left alone and returned as stored.
func (r *Reconciler) transition(
	ctx context.Context,
	logger *slog.Logger,
	order *domain.Order,
	to domain.OrderStatus,
	from []domain.OrderStatus) (*domain.Order, error) {

	previous := order.Status

	updated, changed, err := r.orders.Transition(ctx, order.ID, to, from)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidTransition) {
			logger.Info("ignoring stale status update", "order_id", order.OrderID, "status", previous, "target", to)
			if updated != nil {
				return updated, nil
			}
			return order, nil
		}
		return nil, err
	}

	if changed {
		r.recordTransition(ctx, logger, updated, previous)
	}

	return updated, nil
}

func (r *Reconciler) recordTransition(ctx context.Context, logger *slog.Logger, order *domain.Order, from domain.OrderStatus) {
	logger.Info("order status changed", "order_id", order.OrderID, "from", from, "to", order.Status)
	r.metrics.OrderTransitions.WithLabelValues(from.String(), order.Status.String(), reconcileSource).Inc()

	events.Emit(ctx, r.publisher, logger, events.Transition{
		Order:  order,
		From:   from,
		Source: reconcileSource,
	})
}

// notify enqueues the integrator notification for the order's current
// status. The ledger remembers which status was last announced, so replays
// and racing writers announce each status once. Failures here never undo the
// ledger write.
func (r *Reconciler) notify(ctx context.Context, logger *slog.Logger, order *domain.Order, paymentIntentID string) {
	if order.ProviderID == nil {
		return
	}

	event, ok := domain.NotificationEventFor(order.Status)
	if !ok {
		return
	}

	provider, err := r.providers.GetByID(ctx, *order.ProviderID)
	if err != nil {
		logger.Warn("failed to load provider for notification", "order_id", order.OrderID, "error", err)
		return
	}

	if provider.WebhookURL == nil || *provider.WebhookURL == "" {
		return
	}

	claimed, err := r.orders.ClaimNotification(ctx, order.ID, order.Status)
	if err != nil {
		logger.Warn("failed to claim integrator notification", "order_id", order.OrderID, "error", err)
		return
	}

	if !claimed {
		logger.Debug("integrator already notified", "order_id", order.OrderID, "status", order.Status)
		return
	}

	notification := domain.Notification{
		URL:             *provider.WebhookURL,
		Event:           event,
		OrderID:         order.OrderID,
		ExternalID:      order.ExternalID,
		ProviderID:      provider.ID.String(),
		ProviderName:    provider.Name,
		ServiceID:       order.ServiceID,
		Amount:          order.Total,
		Status:          order.Status,
		PaymentIntentID: paymentIntentID,
		Timestamp:       r.now().UTC(),
	}

	if order.ServiceID != nil {
		service, err := r.services.GetByIDOrSlug(ctx, *order.ServiceID)
		if err == nil {
			notification.ServiceName = &service.Title
		}
	}

	r.notifier.Notify(notification)
}
