package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/metinatakli/storefront-payments/internal/domain"
)

type PostgresServiceRepository struct {
	db *pgxpool.Pool
}

func NewPostgresServiceRepository(db *pgxpool.Pool) *PostgresServiceRepository {
	return &PostgresServiceRepository{
		db: db,
	}
}

func (p *PostgresServiceRepository) GetByIDOrSlug(ctx context.Context, idOrSlug string) (*domain.Service, error) {
	query := `
		SELECT id, slug, title, description, price, icon, features, active
		FROM services
		WHERE (id = $1 OR slug = $1) AND active
		ORDER BY id = $1 DESC
		LIMIT 1
	`

	var service domain.Service

	err := p.db.QueryRow(ctx, query, idOrSlug).Scan(
		&service.ID,
		&service.Slug,
		&service.Title,
		&service.Description,
		&service.Price,
		&service.Icon,
		&service.Features,
		&service.Active,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrRecordNotFound
		}

		return nil, err
	}

	return &service, nil
}
