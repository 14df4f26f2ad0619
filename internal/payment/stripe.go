package payment

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/metinatakli/storefront-payments/internal/domain"
	"github.com/metinatakli/storefront-payments/internal/vault"
	"github.com/shopspring/decimal"
	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/client"
)

var minorUnitsPerMajor = decimal.NewFromInt(100)

// ToMinorUnits converts a major-unit amount (dollars) to the processor's
// minor units (cents), rounding half away from zero.
func ToMinorUnits(amount decimal.Decimal) int64 {
	return amount.Mul(minorUnitsPerMajor).Round(0).IntPart()
}

func FromMinorUnits(amount int64) decimal.Decimal {
	return decimal.New(amount, -2)
}

type StripeConfig struct {
	SecretKey      string
	PublishableKey string
	PaymentMethods []string
	// Backends overrides the Stripe API endpoint. Nil uses api.stripe.com.
	Backends *stripe.Backends
}

type StripeGateway struct {
	config  StripeConfig
	clients *ClientCache[*client.API]
}

func NewStripeGateway(config StripeConfig) *StripeGateway {
	return &StripeGateway{
		config: config,
		clients: NewClientCache(func(secretKey string) *client.API {
			return client.New(secretKey, config.Backends)
		}),
	}
}

func (s *StripeGateway) CreatePayment(ctx context.Context, input domain.CreatePaymentInput) (*domain.PaymentResult, error) {
	sc, err := s.client(input.Credentials)
	if err != nil {
		return nil, err
	}

	currency := input.Currency
	if currency == "" {
		currency = domain.DefaultCurrency
	}

	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(ToMinorUnits(input.Amount)),
		Currency: stripe.String(strings.ToLower(currency)),
	}

	if len(s.config.PaymentMethods) > 0 {
		params.PaymentMethodTypes = stripe.StringSlice(s.config.PaymentMethods)
	} else {
		params.AutomaticPaymentMethods = &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled: stripe.Bool(true),
		}
	}

	if input.Description != "" {
		params.Description = stripe.String(input.Description)
	}

	for key, value := range input.Metadata {
		params.AddMetadata(key, value)
	}

	if input.IdempotencyKey != "" {
		params.SetIdempotencyKey(input.IdempotencyKey)
	}

	params.Context = ctx

	pi, err := sc.PaymentIntents.New(params)
	if err != nil {
		return nil, mapStripeError(err)
	}

	return toPaymentResult(pi), nil
}

func (s *StripeGateway) RetrievePayment(
	ctx context.Context,
	paymentID string,
	creds *domain.GatewayCredentials) (*domain.PaymentResult, error) {

	sc, err := s.client(creds)
	if err != nil {
		return nil, err
	}

	params := &stripe.PaymentIntentParams{}
	params.Context = ctx

	pi, err := sc.PaymentIntents.Get(paymentID, params)
	if err != nil {
		return nil, mapStripeError(err)
	}

	return toPaymentResult(pi), nil
}

func (s *StripeGateway) CancelPayment(ctx context.Context, paymentID string, creds *domain.GatewayCredentials) error {
	sc, err := s.client(creds)
	if err != nil {
		return err
	}

	params := &stripe.PaymentIntentCancelParams{}
	params.Context = ctx

	_, err = sc.PaymentIntents.Cancel(paymentID, params)
	if err != nil {
		return mapStripeError(err)
	}

	return nil
}

func (s *StripeGateway) RefundPayment(ctx context.Context, input domain.RefundInput) (*domain.RefundResult, error) {
	sc, err := s.client(input.Credentials)
	if err != nil {
		return nil, err
	}

	params := &stripe.RefundParams{
		PaymentIntent: stripe.String(input.PaymentID),
	}

	if input.Amount != nil {
		params.Amount = stripe.Int64(ToMinorUnits(*input.Amount))
	}

	if input.Reason != "" {
		params.Reason = stripe.String(input.Reason)
	}

	params.Context = ctx

	refund, err := sc.Refunds.New(params)
	if err != nil {
		return nil, mapStripeError(err)
	}

	return &domain.RefundResult{
		RefundID: refund.ID,
		Amount:   FromMinorUnits(refund.Amount),
		Status:   string(refund.Status),
	}, nil
}

func (s *StripeGateway) PublishableKey(creds *domain.GatewayCredentials) string {
	if creds != nil && creds.PublishableKey != "" {
		return creds.PublishableKey
	}

	return s.config.PublishableKey
}

func (s *StripeGateway) IsConfigured() bool {
	return s.config.SecretKey != "" && s.config.PublishableKey != ""
}

// CheckCredentials rejects a platform key pair whose secret and publishable
// keys belong to different environments.
func (s *StripeGateway) CheckCredentials() error {
	if !s.IsConfigured() {
		return nil
	}

	if vault.KeyMode(s.config.SecretKey) != vault.KeyMode(s.config.PublishableKey) {
		return fmt.Errorf("stripe: %w", domain.ErrCredentialModeMismatch)
	}

	return nil
}

func (s *StripeGateway) Info() domain.GatewayInfo {
	methods := s.config.PaymentMethods
	if len(methods) == 0 {
		methods = []string{"card"}
	}

	return domain.GatewayInfo{
		Name:             domain.GatewayStripe,
		DisplayName:      "Stripe",
		IsActive:         true,
		SupportedMethods: methods,
		RequiredEnvVars:  []string{"STRIPE_SECRET_KEY", "STRIPE_PUBLISHABLE_KEY", "STRIPE_WEBHOOK_SECRET"},
	}
}

// EvictCredentials drops the cached client for rotated or revoked credentials.
func (s *StripeGateway) EvictCredentials(creds *domain.GatewayCredentials) {
	if creds != nil {
		s.clients.Evict(creds.SecretKey)
	}
}

func (s *StripeGateway) client(creds *domain.GatewayCredentials) (*client.API, error) {
	if creds != nil && creds.SecretKey != "" {
		return s.clients.Get(creds.SecretKey), nil
	}

	if s.config.SecretKey == "" {
		return nil, fmt.Errorf("stripe: %w", domain.ErrGatewayNotConfigured)
	}

	return s.clients.Get(s.config.SecretKey), nil
}

func toPaymentResult(pi *stripe.PaymentIntent) *domain.PaymentResult {
	return &domain.PaymentResult{
		PaymentID:    pi.ID,
		ClientSecret: pi.ClientSecret,
		Status:       normalizeStatus(pi.Status),
		NativeStatus: string(pi.Status),
		Amount:       FromMinorUnits(pi.Amount),
		Currency:     string(pi.Currency),
		Metadata:     pi.Metadata,
	}
}

func normalizeStatus(status stripe.PaymentIntentStatus) domain.PaymentStatus {
	switch status {
	case stripe.PaymentIntentStatusSucceeded:
		return domain.PaymentStatusSucceeded
	case stripe.PaymentIntentStatusCanceled:
		return domain.PaymentStatusCanceled
	default:
		return domain.PaymentStatusPending
	}
}

// mapStripeError translates processor errors the storefront can act on into
// domain errors. A payment method that the account or region cannot offer
// (Cash App Pay outside the US, or not activated) is reported distinctly so
// the client can fall back to another method.
func mapStripeError(err error) error {
	var stripeErr *stripe.Error
	if !errors.As(err, &stripeErr) {
		return fmt.Errorf("stripe: %w", err)
	}

	msg := strings.ToLower(stripeErr.Msg)
	if strings.Contains(msg, "cashapp") || strings.Contains(msg, "cash app") {
		return fmt.Errorf("%w: %s", domain.ErrPaymentMethodUnavailable, stripeErr.Msg)
	}

	if stripeErr.Code == stripe.ErrorCodeResourceMissing {
		return fmt.Errorf("stripe: %w: %s", domain.ErrRecordNotFound, stripeErr.Msg)
	}

	return fmt.Errorf("stripe: %w", err)
}
