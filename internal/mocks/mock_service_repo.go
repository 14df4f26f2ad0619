package mocks

import (
	"context"

	"github.com/metinatakli/storefront-payments/internal/domain"
	"github.com/stretchr/testify/mock"
)

type MockServiceRepo struct {
	mock.Mock
	domain.ServiceRepository
}

func (m *MockServiceRepo) GetByIDOrSlug(ctx context.Context, idOrSlug string) (*domain.Service, error) {
	args := m.Called(ctx, idOrSlug)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Service), args.Error(1)
}
