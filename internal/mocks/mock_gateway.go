package mocks

import (
	"context"

	"github.com/metinatakli/storefront-payments/internal/domain"
	"github.com/stretchr/testify/mock"
)

type MockGateway struct {
	mock.Mock
	domain.Gateway
}

func (m *MockGateway) CreatePayment(ctx context.Context, input domain.CreatePaymentInput) (*domain.PaymentResult, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.PaymentResult), args.Error(1)
}

func (m *MockGateway) RetrievePayment(
	ctx context.Context,
	paymentID string,
	creds *domain.GatewayCredentials) (*domain.PaymentResult, error) {

	args := m.Called(ctx, paymentID, creds)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.PaymentResult), args.Error(1)
}

func (m *MockGateway) CancelPayment(ctx context.Context, paymentID string, creds *domain.GatewayCredentials) error {
	args := m.Called(ctx, paymentID, creds)
	return args.Error(0)
}

func (m *MockGateway) RefundPayment(ctx context.Context, input domain.RefundInput) (*domain.RefundResult, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.RefundResult), args.Error(1)
}

func (m *MockGateway) PublishableKey(creds *domain.GatewayCredentials) string {
	args := m.Called(creds)
	return args.String(0)
}

func (m *MockGateway) IsConfigured() bool {
	args := m.Called()
	return args.Bool(0)
}

func (m *MockGateway) Info() domain.GatewayInfo {
	return domain.GatewayInfo{
		Name:             domain.GatewayStripe,
		DisplayName:      "Mock",
		IsActive:         true,
		SupportedMethods: []string{"card"},
	}
}
