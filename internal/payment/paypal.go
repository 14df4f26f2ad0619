package payment

import (
	"context"
	"fmt"

	"github.com/metinatakli/storefront-payments/internal/domain"
)

// PayPalGateway is registered so it can be listed and selected, but it is
// not active yet: every operation fails with domain.ErrGatewayNotImplemented.
type PayPalGateway struct{}

func NewPayPalGateway() *PayPalGateway {
	return &PayPalGateway{}
}

func (p *PayPalGateway) CreatePayment(context.Context, domain.CreatePaymentInput) (*domain.PaymentResult, error) {
	return nil, notImplemented("create payment")
}

func (p *PayPalGateway) RetrievePayment(context.Context, string, *domain.GatewayCredentials) (*domain.PaymentResult, error) {
	return nil, notImplemented("retrieve payment")
}

func (p *PayPalGateway) CancelPayment(context.Context, string, *domain.GatewayCredentials) error {
	return notImplemented("cancel payment")
}

func (p *PayPalGateway) RefundPayment(context.Context, domain.RefundInput) (*domain.RefundResult, error) {
	return nil, notImplemented("refund payment")
}

func (p *PayPalGateway) PublishableKey(*domain.GatewayCredentials) string {
	return ""
}

func (p *PayPalGateway) IsConfigured() bool {
	return false
}

func (p *PayPalGateway) Info() domain.GatewayInfo {
	return domain.GatewayInfo{
		Name:             domain.GatewayPayPal,
		DisplayName:      "PayPal",
		IsActive:         false,
		SupportedMethods: []string{"paypal"},
		RequiredEnvVars:  []string{"PAYPAL_CLIENT_ID", "PAYPAL_CLIENT_SECRET"},
	}
}

func notImplemented(operation string) error {
	return fmt.Errorf("paypal %s: %w", operation, domain.ErrGatewayNotImplemented)
}
