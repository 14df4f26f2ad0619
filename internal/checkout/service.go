// Package checkout creates payments and resolves checkout sessions from their
// opaque token.
package checkout

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/metinatakli/storefront-payments/internal/domain"
	"github.com/metinatakli/storefront-payments/internal/metrics"
	"github.com/metinatakli/storefront-payments/internal/vault"
	"github.com/shopspring/decimal"
)

// GatewayResolver picks the gateway for an order.
type GatewayResolver interface {
	Default() domain.Gateway
	ForProvider(provider *domain.Provider) (domain.Gateway, error)
}

// CredentialSource decrypts integrator-owned processor credentials.
type CredentialSource interface {
	ProviderCredentials(provider *domain.Provider) (*domain.GatewayCredentials, error)
}

type Service struct {
	orders    domain.OrderRepository
	services  domain.ServiceRepository
	providers domain.ProviderRepository
	gateways  GatewayResolver
	creds     CredentialSource
	publisher domain.OrderEventPublisher
	metrics   *metrics.Metrics
	logger    *slog.Logger
	now       func() time.Time
}

type Deps struct {
	Orders    domain.OrderRepository
	Services  domain.ServiceRepository
	Providers domain.ProviderRepository
	Gateways  GatewayResolver
	Creds     CredentialSource
	Publisher domain.OrderEventPublisher
	Metrics   *metrics.Metrics
	Logger    *slog.Logger
}

func NewService(deps Deps) *Service {
	return &Service{
		orders:    deps.Orders,
		services:  deps.Services,
		providers: deps.Providers,
		gateways:  deps.Gateways,
		creds:     deps.Creds,
		publisher: deps.Publisher,
		metrics:   deps.Metrics,
		logger:    deps.Logger,
		now:       time.Now,
	}
}

// PaymentSession is what the browser needs to confirm a freshly created
// payment.
type PaymentSession struct {
	Order          *domain.Order
	ClientSecret   string
	ServiceName    string
	PublishableKey string
}

type ServicePaymentInput struct {
	ServiceID string
	// OrderID is the client generated public id. A new one is generated when
	// it is empty.
	OrderID string
}

// CreateServicePayment starts a storefront purchase of a catalog service on
// the platform's processor account.
func (s *Service) CreateServicePayment(ctx context.Context, input ServicePaymentInput) (*PaymentSession, error) {
	service, err := s.services.GetByIDOrSlug(ctx, input.ServiceID)
	if err != nil {
		if errors.Is(err, domain.ErrRecordNotFound) {
			return nil, domain.ErrServiceNotFound
		}
		return nil, err
	}

	gateway := s.gateways.Default()
	if err := ensureUsable(gateway); err != nil {
		return nil, err
	}

	order, err := s.newOrder(input.OrderID)
	if err != nil {
		return nil, err
	}

	order.ServiceID = &service.ID
	order.ItemName = service.Title
	order.ItemDescription = service.Description
	order.Total = service.Price

	result, err := s.startPayment(ctx, gateway, order, nil, service.Title, idempotencyKey(order, input.OrderID))
	if err != nil {
		return nil, err
	}

	return &PaymentSession{
		Order:          order,
		ClientSecret:   result.ClientSecret,
		ServiceName:    service.Title,
		PublishableKey: gateway.PublishableKey(nil),
	}, nil
}

type IntegratorPaymentInput struct {
	// Amount is the unit price in major currency units.
	Amount          decimal.Decimal
	ItemName        string
	ItemDescription *string
	Quantity        int
	ExternalID      *string
	ServiceID       *string
}

// CreateIntegratorPayment starts a purchase on behalf of an integrator, on
// the integrator's own processor account when it has one.
func (s *Service) CreateIntegratorPayment(
	ctx context.Context,
	provider *domain.Provider,
	input IntegratorPaymentInput) (*PaymentSession, error) {

	gateway, err := s.gateways.ForProvider(provider)
	if err != nil {
		return nil, err
	}

	if err := ensureUsable(gateway); err != nil {
		return nil, err
	}

	creds, err := s.creds.ProviderCredentials(provider)
	if err != nil {
		return nil, err
	}

	if creds != nil {
		err = vault.ValidateCredentials(*creds)
		if err != nil {
			return nil, err
		}
	}

	order, err := s.newOrder("")
	if err != nil {
		return nil, err
	}

	quantity := input.Quantity
	if quantity < 1 {
		quantity = 1
	}

	if input.ServiceID != nil && *input.ServiceID != "" {
		service, err := s.services.GetByIDOrSlug(ctx, *input.ServiceID)
		if err != nil {
			if errors.Is(err, domain.ErrRecordNotFound) {
				return nil, domain.ErrServiceNotFound
			}
			return nil, err
		}
		order.ServiceID = &service.ID
	}

	order.ProviderID = &provider.ID
	order.ExternalID = input.ExternalID
	order.ItemName = input.ItemName
	order.ItemDescription = input.ItemDescription
	order.Quantity = quantity
	order.Total = input.Amount.Mul(decimal.NewFromInt(int64(quantity)))

	result, err := s.startPayment(ctx, gateway, order, creds, input.ItemName, idempotencyKey(order, ""))
	if err != nil {
		return nil, err
	}

	return &PaymentSession{
		Order:          order,
		ClientSecret:   result.ClientSecret,
		ServiceName:    input.ItemName,
		PublishableKey: gateway.PublishableKey(creds),
	}, nil
}

func (s *Service) newOrder(orderID string) (*domain.Order, error) {
	var err error

	if orderID == "" {
		orderID, err = domain.GenerateOrderID(s.now())
		if err != nil {
			return nil, err
		}
	}

	token, err := domain.GenerateCheckoutToken()
	if err != nil {
		return nil, err
	}

	return &domain.Order{
		ID:            uuid.New(),
		OrderID:       orderID,
		CheckoutToken: token,
		Quantity:      1,
		Currency:      domain.DefaultCurrency,
		Status:        domain.OrderStatusPending,
	}, nil
}

// idempotencyKey keys the processor request. A client supplied order id
// yields the same key on every retry, so a resubmitted checkout reuses the
// payment intent created by the first attempt. Server generated orders are
// keyed by their internal id.
func idempotencyKey(order *domain.Order, clientOrderID string) string {
	if clientOrderID != "" {
		return "order_" + clientOrderID
	}

	return order.ID.String()
}

// startPayment creates the processor payment and then the pending order. When
// the processor replays an earlier payment for the same idempotency key, the
// order that request stored is returned in place of the new one.
func (s *Service) startPayment(
	ctx context.Context,
	gateway domain.Gateway,
	order *domain.Order,
	creds *domain.GatewayCredentials,
	description string,
	key string) (*domain.PaymentResult, error) {

	result, err := gateway.CreatePayment(ctx, domain.CreatePaymentInput{
		Amount:         order.Total,
		Currency:       order.Currency,
		Description:    description,
		Metadata:       paymentMetadata(order),
		IdempotencyKey: key,
		Credentials:    creds,
	})
	if err != nil {
		return nil, fmt.Errorf("create payment: %w", err)
	}

	order.StripePaymentIntentID = &result.PaymentID

	err = s.orders.Create(ctx, order)
	if errors.Is(err, domain.ErrDuplicateOrder) {
		existing, lookupErr := s.orders.GetByPaymentIntentID(ctx, result.PaymentID)
		if lookupErr == nil {
			s.logger.Info("payment request replayed",
				"order_id", existing.OrderID,
				"payment_intent_id", result.PaymentID)

			*order = *existing
			return result, nil
		}
	}

	if err != nil {
		cancelErr := gateway.CancelPayment(ctx, result.PaymentID, creds)
		if cancelErr != nil {
			s.logger.Warn("failed to cancel orphaned payment",
				"payment_intent_id", result.PaymentID,
				"order_id", order.OrderID,
				"error", cancelErr)
		}

		return nil, fmt.Errorf("create order: %w", err)
	}

	s.logger.Info("payment created",
		"order_id", order.OrderID,
		"payment_intent_id", result.PaymentID,
		"amount", order.Total.StringFixed(2))

	return result, nil
}

// paymentMetadata is attached to the processor payment so a webhook can
// rebuild the order when the ledger never recorded it.
func paymentMetadata(order *domain.Order) map[string]string {
	metadata := map[string]string{
		"order_id":        order.ID.String(),
		"public_order_id": order.OrderID,
		"checkout_token":  order.CheckoutToken,
		"quantity":        strconv.Itoa(order.Quantity),
		"item_name":       order.ItemName,
	}

	if order.ServiceID != nil {
		metadata["service_id"] = *order.ServiceID
	}
	if order.ProviderID != nil {
		metadata["provider_id"] = order.ProviderID.String()
	}
	if order.ExternalID != nil {
		metadata["external_id"] = *order.ExternalID
	}

	return metadata
}

// credentialChecker is implemented by gateways that can verify their own
// platform credentials.
type credentialChecker interface {
	CheckCredentials() error
}

func ensureUsable(gateway domain.Gateway) error {
	info := gateway.Info()

	if !info.IsActive {
		return fmt.Errorf("%w: %s", domain.ErrGatewayNotImplemented, info.DisplayName)
	}

	if !gateway.IsConfigured() {
		return fmt.Errorf("%w: %s", domain.ErrGatewayNotConfigured, info.DisplayName)
	}

	if checker, ok := gateway.(credentialChecker); ok {
		if err := checker.CheckCredentials(); err != nil {
			return fmt.Errorf("%w: %s: %v", domain.ErrGatewayNotConfigured, info.DisplayName, err)
		}
	}

	return nil
}
