package checkout

import (
	"context"
	"errors"
	"fmt"

	"github.com/metinatakli/storefront-payments/internal/domain"
	"github.com/shopspring/decimal"
)

type RefundInput struct {
	CheckoutToken string
	// Amount in major units. Nil refunds the full total.
	Amount *decimal.Decimal
	Reason string
}

// Refund asks the processor to refund an integrator's paid order. The ledger
// is not touched here; the processor's charge.refunded event records the
// refunded amount once the refund settles. The order stays paid.
func (s *Service) Refund(ctx context.Context, provider *domain.Provider, input RefundInput) (*domain.RefundResult, error) {
	if !domain.IsValidCheckoutToken(input.CheckoutToken) {
		return nil, domain.ErrInvalidCheckoutToken
	}

	order, err := s.orders.GetByCheckoutToken(ctx, input.CheckoutToken)
	if err != nil {
		if errors.Is(err, domain.ErrRecordNotFound) {
			return nil, domain.ErrSessionNotFound
		}
		return nil, err
	}

	// Integrators only see their own orders.
	if order.ProviderID == nil || *order.ProviderID != provider.ID {
		return nil, domain.ErrSessionNotFound
	}

	if order.Status != domain.OrderStatusPaid || order.StripePaymentIntentID == nil {
		return nil, fmt.Errorf("%w: order is %s", domain.ErrInvalidTransition, order.Status)
	}

	remaining := order.Total
	if order.RefundedAmount != nil {
		remaining = remaining.Sub(*order.RefundedAmount)
	}

	if !remaining.IsPositive() {
		return nil, fmt.Errorf("%w: order is fully refunded", domain.ErrInvalidTransition)
	}

	if input.Amount != nil && input.Amount.GreaterThan(remaining) {
		return nil, domain.ErrRefundExceedsTotal
	}

	gateway, err := s.gateways.ForProvider(provider)
	if err != nil {
		return nil, err
	}

	creds, err := s.creds.ProviderCredentials(provider)
	if err != nil {
		return nil, err
	}

	result, err := gateway.RefundPayment(ctx, domain.RefundInput{
		PaymentID:   *order.StripePaymentIntentID,
		Amount:      input.Amount,
		Reason:      input.Reason,
		Credentials: creds,
	})
	if err != nil {
		return nil, fmt.Errorf("refund payment: %w", err)
	}

	s.logger.Info("refund requested",
		"order_id", order.OrderID,
		"payment_intent_id", *order.StripePaymentIntentID,
		"refund_id", result.RefundID,
		"amount", result.Amount.StringFixed(2))

	return result, nil
}
