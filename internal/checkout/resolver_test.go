package checkout

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/metinatakli/storefront-payments/internal/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
)

const testToken = "0123456789abcdef0123456789abcdef"

func pendingOrder() *domain.Order {
	return &domain.Order{
		ID:                    uuid.New(),
		OrderID:               "ORD-20250101-120000-ABCDE",
		CheckoutToken:         testToken,
		Total:                 decimal.RequireFromString("49.99"),
		Quantity:              1,
		Currency:              domain.DefaultCurrency,
		StripePaymentIntentID: ptr("pi_123"),
		ItemName:              "Consulting",
		Status:                domain.OrderStatusPending,
	}
}

func withStatus(order *domain.Order, status domain.OrderStatus) *domain.Order {
	copied := *order
	copied.Status = status
	return &copied
}

func (s *CheckoutServiceTestSuite) TestResolveRejectsMalformedToken() {
	for _, token := range []string{"", "abc", testToken[:31], testToken + "0", "0123456789ABCDEF0123456789ABCDEF"} {
		_, err := s.service.Resolve(context.Background(), token)
		s.ErrorIs(err, domain.ErrInvalidCheckoutToken, token)
	}

	s.orders.AssertNotCalled(s.T(), "GetByCheckoutToken", mock.Anything, mock.Anything)
}

func (s *CheckoutServiceTestSuite) TestResolveUnknownToken() {
	s.orders.On("GetByCheckoutToken", mock.Anything, testToken).Return(nil, domain.ErrRecordNotFound).Once()

	_, err := s.service.Resolve(context.Background(), testToken)

	s.ErrorIs(err, domain.ErrSessionNotFound)
}

func (s *CheckoutServiceTestSuite) TestResolveFallbackMarksPendingOrderPaid() {
	order := pendingOrder()

	s.orders.On("GetByCheckoutToken", mock.Anything, testToken).Return(order, nil).Once()
	s.gateway.On("PublishableKey", mock.Anything).Return(testPublishableKey).Once()
	s.gateway.On("RetrievePayment", mock.Anything, "pi_123", (*domain.GatewayCredentials)(nil)).
		Return(&domain.PaymentResult{PaymentID: "pi_123", ClientSecret: "pi_123_secret", Status: domain.PaymentStatusSucceeded}, nil).Once()
	s.orders.On("Transition", mock.Anything, order.ID, domain.OrderStatusPaid,
		[]domain.OrderStatus{domain.OrderStatusPending, domain.OrderStatusFailed}).
		Return(withStatus(order, domain.OrderStatusPaid), true, nil).Once()

	session, err := s.service.Resolve(context.Background(), testToken)

	s.Require().NoError(err)
	s.Equal(domain.OrderStatusPaid, session.Status)
	s.Equal(domain.OrderStatusPaid, session.Order.Status)
	s.Equal("pi_123_secret", session.ClientSecret)
	s.Equal("Consulting", session.Item.Name)

	events := s.publisher.Events()
	s.Require().Len(events, 1)
	s.Equal(domain.OrderStatusPending, events[0].From)
	s.Equal(domain.OrderStatusPaid, events[0].To)
	s.Equal("checkout", events[0].Source)
}

func (s *CheckoutServiceTestSuite) TestResolveFallbackWriteFailureStillReportsProcessorStatus() {
	order := pendingOrder()

	s.orders.On("GetByCheckoutToken", mock.Anything, testToken).Return(order, nil).Once()
	s.gateway.On("PublishableKey", mock.Anything).Return(testPublishableKey).Once()
	s.gateway.On("RetrievePayment", mock.Anything, "pi_123", mock.Anything).
		Return(&domain.PaymentResult{PaymentID: "pi_123", Status: domain.PaymentStatusSucceeded}, nil).Once()
	s.orders.On("Transition", mock.Anything, order.ID, domain.OrderStatusPaid, mock.Anything).
		Return(nil, false, errors.New("connection reset")).Once()

	session, err := s.service.Resolve(context.Background(), testToken)

	s.Require().NoError(err)
	s.Equal(domain.OrderStatusPaid, session.Status)
	s.Empty(s.publisher.Events())
}

func (s *CheckoutServiceTestSuite) TestResolveStatusSync() {
	tests := []struct {
		name          string
		ledger        domain.OrderStatus
		processor     domain.PaymentStatus
		expectWrite   bool
		transitionTo  domain.OrderStatus
		wantStatus    domain.OrderStatus
		repoReturns   *domain.OrderStatus
		repoErr       error
		wantPublished int
	}{
		{
			name:          "canceled payment fails a pending order",
			ledger:        domain.OrderStatusPending,
			processor:     domain.PaymentStatusCanceled,
			expectWrite:   true,
			transitionTo:  domain.OrderStatusFailed,
			wantStatus:    domain.OrderStatusFailed,
			wantPublished: 1,
		},
		{
			name:          "late success heals a failed order",
			ledger:        domain.OrderStatusFailed,
			processor:     domain.PaymentStatusSucceeded,
			expectWrite:   true,
			transitionTo:  domain.OrderStatusPaid,
			wantStatus:    domain.OrderStatusPaid,
			wantPublished: 1,
		},
		{
			name:       "success never clears a dispute",
			ledger:     domain.OrderStatusDisputed,
			processor:  domain.PaymentStatusSucceeded,
			wantStatus: domain.OrderStatusDisputed,
		},
		{
			name:       "cancel never fails a paid order",
			ledger:     domain.OrderStatusPaid,
			processor:  domain.PaymentStatusCanceled,
			wantStatus: domain.OrderStatusPaid,
		},
		{
			name:       "pending processor status leaves the ledger alone",
			ledger:     domain.OrderStatusPending,
			processor:  domain.PaymentStatusPending,
			wantStatus: domain.OrderStatusPending,
		},
		{
			name:         "webhook won the race with a dispute",
			ledger:       domain.OrderStatusPending,
			processor:    domain.PaymentStatusSucceeded,
			expectWrite:  true,
			transitionTo: domain.OrderStatusPaid,
			repoReturns:  ptr(domain.OrderStatusDisputed),
			repoErr:      domain.ErrInvalidTransition,
			wantStatus:   domain.OrderStatusDisputed,
		},
	}

	for _, tt := range tests {
		s.Run(tt.name, func() {
			s.SetupTest()
			order := withStatus(pendingOrder(), tt.ledger)

			s.orders.On("GetByCheckoutToken", mock.Anything, testToken).Return(order, nil).Once()
			s.gateway.On("PublishableKey", mock.Anything).Return(testPublishableKey).Once()
			s.gateway.On("RetrievePayment", mock.Anything, "pi_123", mock.Anything).
				Return(&domain.PaymentResult{PaymentID: "pi_123", Status: tt.processor}, nil).Once()

			if tt.expectWrite {
				returned := withStatus(order, tt.transitionTo)
				changed := tt.repoErr == nil
				if tt.repoReturns != nil {
					returned = withStatus(order, *tt.repoReturns)
				}
				s.orders.On("Transition", mock.Anything, order.ID, tt.transitionTo, mock.Anything).
					Return(returned, changed, tt.repoErr).Once()
			}

			session, err := s.service.Resolve(context.Background(), testToken)

			s.Require().NoError(err)
			s.Equal(tt.wantStatus, session.Status)
			s.Len(s.publisher.Events(), tt.wantPublished)
			if !tt.expectWrite {
				s.orders.AssertNotCalled(s.T(), "Transition", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
			}
			s.orders.AssertExpectations(s.T())
		})
	}
}

func (s *CheckoutServiceTestSuite) TestResolveProcessorFailure() {
	s.orders.On("GetByCheckoutToken", mock.Anything, testToken).Return(pendingOrder(), nil).Once()
	s.gateway.On("PublishableKey", mock.Anything).Return(testPublishableKey).Once()
	s.gateway.On("RetrievePayment", mock.Anything, "pi_123", mock.Anything).
		Return(nil, errors.New("stripe unavailable")).Once()

	_, err := s.service.Resolve(context.Background(), testToken)

	s.ErrorContains(err, "retrieve payment")
}

func (s *CheckoutServiceTestSuite) TestResolveIntegratorOrder() {
	provider := s.integrator(testSecretKey, testPublishableKey)
	provider.SuccessRedirectURL = ptr("https://acme.test/orders/{orderId}/thanks")
	provider.CancelRedirectURL = ptr("https://acme.test/orders/{orderId}/cancel")

	order := pendingOrder()
	order.ProviderID = &provider.ID
	order.ServiceID = ptr("svc_1")

	s.orders.On("GetByCheckoutToken", mock.Anything, testToken).Return(order, nil).Once()
	s.providers.On("GetByID", mock.Anything, provider.ID).Return(provider, nil).Once()
	s.gateway.On("PublishableKey", mock.MatchedBy(func(c *domain.GatewayCredentials) bool {
		return c != nil && c.SecretKey == testSecretKey
	})).Return(testPublishableKey).Once()
	s.gateway.On("RetrievePayment", mock.Anything, "pi_123", mock.Anything).
		Return(&domain.PaymentResult{PaymentID: "pi_123", ClientSecret: "pi_123_secret", Status: domain.PaymentStatusPending}, nil).Once()
	s.services.On("GetByIDOrSlug", mock.Anything, "svc_1").Return(&domain.Service{
		ID:       "svc_1",
		Title:    "Consulting",
		Icon:     ptr("briefcase"),
		Features: []string{"1h call"},
	}, nil).Once()

	session, err := s.service.Resolve(context.Background(), testToken)

	s.Require().NoError(err)
	s.Equal(domain.OrderStatusPending, session.Status)
	s.Equal("briefcase", *session.Item.Icon)
	s.Equal([]string{"1h call"}, session.Item.Features)
	s.Require().NotNil(session.Provider)
	s.Equal("Acme", session.Provider.Name)
	s.Equal("https://acme.test/orders/ORD-20250101-120000-ABCDE/thanks", *session.Provider.SuccessRedirectURL)
	s.Equal("https://acme.test/orders/ORD-20250101-120000-ABCDE/cancel", *session.Provider.CancelRedirectURL)
}
