package domain

import (
	"context"

	"github.com/shopspring/decimal"
)

// Service is a purchasable catalog entry managed by the CMS.
type Service struct {
	ID          string
	Slug        string
	Title       string
	Description *string
	Price       decimal.Decimal
	Icon        *string
	Features    []string
	Active      bool
}

type ServiceRepository interface {
	GetByIDOrSlug(ctx context.Context, idOrSlug string) (*Service, error)
}
