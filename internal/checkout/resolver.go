package checkout

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/metinatakli/storefront-payments/internal/domain"
	"github.com/metinatakli/storefront-payments/internal/events"
	"github.com/shopspring/decimal"
)

const syncSource = "checkout"

type Item struct {
	Name        string
	Description *string
	Icon        *string
	Features    []string
}

type ProviderInfo struct {
	Name               string
	SuccessRedirectURL *string
	CancelRedirectURL  *string
}

// Session is the resolved state of a checkout, with the status the processor
// reports rather than whatever the ledger last saw.
type Session struct {
	Order          *domain.Order
	ClientSecret   string
	Status         domain.OrderStatus
	Amount         decimal.Decimal
	Item           Item
	Provider       *ProviderInfo
	PublishableKey string
}

// Resolve exchanges a checkout token for the session state. When the
// processor is ahead of the ledger the ledger is corrected on the way out; a
// failed correction is logged and the processor's view is still returned.
func (s *Service) Resolve(ctx context.Context, token string) (*Session, error) {
	if !domain.IsValidCheckoutToken(token) {
		return nil, domain.ErrInvalidCheckoutToken
	}

	order, err := s.orders.GetByCheckoutToken(ctx, token)
	if err != nil {
		if errors.Is(err, domain.ErrRecordNotFound) {
			return nil, domain.ErrSessionNotFound
		}
		return nil, err
	}

	provider, err := s.orderProvider(ctx, order)
	if err != nil {
		return nil, err
	}

	gateway, err := s.gateways.ForProvider(provider)
	if err != nil {
		return nil, err
	}

	creds, err := s.creds.ProviderCredentials(provider)
	if err != nil {
		return nil, err
	}

	session := &Session{
		Order:          order,
		Status:         order.Status,
		Amount:         order.Total,
		Item:           Item{Name: order.ItemName, Description: order.ItemDescription},
		PublishableKey: gateway.PublishableKey(creds),
	}

	if order.StripePaymentIntentID != nil {
		payment, err := gateway.RetrievePayment(ctx, *order.StripePaymentIntentID, creds)
		if err != nil {
			return nil, fmt.Errorf("retrieve payment: %w", err)
		}

		session.ClientSecret = payment.ClientSecret
		session.Status = s.syncStatus(ctx, session, payment.Status)
	}

	if order.ServiceID != nil {
		service, err := s.services.GetByIDOrSlug(ctx, *order.ServiceID)
		switch {
		case err == nil:
			session.Item = Item{
				Name:        service.Title,
				Description: service.Description,
				Icon:        service.Icon,
				Features:    service.Features,
			}
		case !errors.Is(err, domain.ErrRecordNotFound):
			return nil, err
		}
	}

	if provider != nil {
		session.Provider = &ProviderInfo{
			Name:               provider.Name,
			SuccessRedirectURL: order.RedirectURL(provider.SuccessRedirectURL),
			CancelRedirectURL:  order.RedirectURL(provider.CancelRedirectURL),
		}
	}

	return session, nil
}

func (s *Service) orderProvider(ctx context.Context, order *domain.Order) (*domain.Provider, error) {
	if order.ProviderID == nil {
		return nil, nil
	}

	provider, err := s.providers.GetByID(ctx, *order.ProviderID)
	if err != nil {
		if errors.Is(err, domain.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}

	return provider, nil
}

// syncStatus applies the fallback correction and returns the status the
// caller should see.
func (s *Service) syncStatus(ctx context.Context, session *Session, paymentStatus domain.PaymentStatus) domain.OrderStatus {
	order := session.Order

	var target domain.OrderStatus
	switch paymentStatus {
	case domain.PaymentStatusSucceeded:
		target = domain.OrderStatusPaid
	case domain.PaymentStatusCanceled:
		target = domain.OrderStatusFailed
	default:
		return order.Status
	}

	sources := domain.PaymentOutcomeSources(target)
	if !slices.Contains(sources, order.Status) {
		return order.Status
	}

	updated, changed, err := s.orders.Transition(ctx, order.ID, target, sources)
	if errors.Is(err, domain.ErrInvalidTransition) && updated != nil {
		// A webhook moved the order somewhere the processor outcome cannot
		// override, such as disputed.
		s.metrics.FallbackSyncs.WithLabelValues("skipped").Inc()
		session.Order = updated
		return updated.Status
	}

	if err != nil {
		s.metrics.FallbackSyncs.WithLabelValues("error").Inc()
		s.logger.Warn("fallback status sync failed",
			"order_id", order.OrderID,
			"payment_intent_id", *order.StripePaymentIntentID,
			"target", target,
			"error", err)

		return target
	}

	session.Order = updated

	if !changed {
		s.metrics.FallbackSyncs.WithLabelValues("skipped").Inc()
		return updated.Status
	}

	s.metrics.FallbackSyncs.WithLabelValues("applied").Inc()
	s.metrics.OrderTransitions.WithLabelValues(order.Status.String(), target.String(), syncSource).Inc()
	s.logger.Info("order status corrected from processor",
		"order_id", order.OrderID,
		"from", order.Status,
		"to", target)

	events.Emit(ctx, s.publisher, s.logger, events.Transition{
		Order:  updated,
		From:   order.Status,
		Source: syncSource,
	})

	return updated.Status
}
