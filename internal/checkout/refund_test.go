package checkout

import (
	"context"

	"github.com/google/uuid"
	"github.com/metinatakli/storefront-payments/internal/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
)

const refundToken = "0123456789abcdef0123456789abcdef"

func (s *CheckoutServiceTestSuite) paidIntegratorOrder(provider *domain.Provider) *domain.Order {
	return &domain.Order{
		ID:                    uuid.New(),
		OrderID:               "ORD-20250101-120000-ABCDE",
		CheckoutToken:         refundToken,
		Total:                 decimal.RequireFromString("30"),
		Status:                domain.OrderStatusPaid,
		StripePaymentIntentID: ptr("pi_9"),
		ProviderID:            &provider.ID,
	}
}

func (s *CheckoutServiceTestSuite) TestRefund() {
	provider := s.integrator(testSecretKey, testPublishableKey)
	s.orders.On("GetByCheckoutToken", mock.Anything, refundToken).Return(s.paidIntegratorOrder(provider), nil).Once()

	amount := decimal.RequireFromString("12.50")
	s.gateway.On("RefundPayment", mock.Anything, mock.MatchedBy(func(in domain.RefundInput) bool {
		return in.PaymentID == "pi_9" &&
			in.Amount.Equal(amount) &&
			in.Reason == "requested_by_customer" &&
			in.Credentials != nil && in.Credentials.SecretKey == testSecretKey
	})).Return(&domain.RefundResult{RefundID: "re_1", Amount: amount, Status: "pending"}, nil).Once()

	result, err := s.service.Refund(context.Background(), provider, RefundInput{
		CheckoutToken: refundToken,
		Amount:        &amount,
		Reason:        "requested_by_customer",
	})

	s.Require().NoError(err)
	s.Equal("re_1", result.RefundID)
	s.orders.AssertNotCalled(s.T(), "Transition", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func (s *CheckoutServiceTestSuite) TestRefundErrors() {
	provider := s.integrator(testSecretKey, testPublishableKey)

	tests := []struct {
		name    string
		token   string
		amount  *decimal.Decimal
		order   func() *domain.Order
		wantErr error
	}{
		{
			name:    "malformed token",
			token:   "nope",
			wantErr: domain.ErrInvalidCheckoutToken,
		},
		{
			name:  "another integrator's order",
			token: refundToken,
			order: func() *domain.Order {
				o := s.paidIntegratorOrder(provider)
				other := uuid.New()
				o.ProviderID = &other
				return o
			},
			wantErr: domain.ErrSessionNotFound,
		},
		{
			name:  "order not paid",
			token: refundToken,
			order: func() *domain.Order {
				o := s.paidIntegratorOrder(provider)
				o.Status = domain.OrderStatusDisputed
				return o
			},
			wantErr: domain.ErrInvalidTransition,
		},
		{
			name:    "amount above total",
			token:   refundToken,
			amount:  ptr(decimal.RequireFromString("30.01")),
			order:   func() *domain.Order { return s.paidIntegratorOrder(provider) },
			wantErr: domain.ErrRefundExceedsTotal,
		},
		{
			name:   "amount above what is left after an earlier refund",
			token:  refundToken,
			amount: ptr(decimal.RequireFromString("20")),
			order: func() *domain.Order {
				o := s.paidIntegratorOrder(provider)
				o.RefundedAmount = ptr(decimal.RequireFromString("12.50"))
				return o
			},
			wantErr: domain.ErrRefundExceedsTotal,
		},
		{
			name:  "order already fully refunded",
			token: refundToken,
			order: func() *domain.Order {
				o := s.paidIntegratorOrder(provider)
				o.RefundedAmount = ptr(decimal.RequireFromString("30"))
				return o
			},
			wantErr: domain.ErrInvalidTransition,
		},
	}

	for _, tt := range tests {
		s.Run(tt.name, func() {
			s.SetupTest()
			if tt.order != nil {
				s.orders.On("GetByCheckoutToken", mock.Anything, tt.token).Return(tt.order(), nil).Once()
			}

			_, err := s.service.Refund(context.Background(), provider, RefundInput{CheckoutToken: tt.token, Amount: tt.amount})

			s.ErrorIs(err, tt.wantErr)
			s.gateway.AssertNotCalled(s.T(), "RefundPayment", mock.Anything, mock.Anything)
		})
	}
}
