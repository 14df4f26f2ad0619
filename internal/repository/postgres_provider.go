package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/metinatakli/storefront-payments/internal/domain"
)

var ErrDuplicateProvider = errors.New("a provider with the same slug already exists")

const providerColumns = `
	id,
	name,
	slug,
	api_key_hash,
	gateway,
	stripe_secret_key,
	stripe_publishable_key,
	stripe_webhook_secret,
	webhook_url,
	success_redirect_url,
	cancel_redirect_url,
	active,
	created_at,
	updated_at
`

type PostgresProviderRepository struct {
	db *pgxpool.Pool
}

func NewPostgresProviderRepository(db *pgxpool.Pool) *PostgresProviderRepository {
	return &PostgresProviderRepository{
		db: db,
	}
}

// Create stores a provider. Secret and webhook keys must already be
// encrypted by the caller.
func (p *PostgresProviderRepository) Create(ctx context.Context, provider *domain.Provider) error {
	query := `
		INSERT INTO providers (
			id,
			name,
			slug,
			api_key_hash,
			gateway,
			stripe_secret_key,
			stripe_publishable_key,
			stripe_webhook_secret,
			webhook_url,
			success_redirect_url,
			cancel_redirect_url
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING active, created_at, updated_at
	`

	var gateway *string
	if provider.Gateway != nil {
		g := string(*provider.Gateway)
		gateway = &g
	}

	err := p.db.QueryRow(
		ctx,
		query,
		provider.ID,
		provider.Name,
		provider.Slug,
		provider.APIKeyHash,
		gateway,
		provider.StripeSecretKey,
		provider.StripePublishableKey,
		provider.StripeWebhookSecret,
		provider.WebhookURL,
		provider.SuccessRedirectURL,
		provider.CancelRedirectURL,
	).Scan(&provider.Active, &provider.CreatedAt, &provider.UpdatedAt)

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return ErrDuplicateProvider
		}

		return err
	}

	return nil
}

func (p *PostgresProviderRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Provider, error) {
	query := `SELECT ` + providerColumns + ` FROM providers WHERE id = $1`

	return scanProvider(p.db.QueryRow(ctx, query, id))
}

func (p *PostgresProviderRepository) GetBySlug(ctx context.Context, slug string) (*domain.Provider, error) {
	query := `SELECT ` + providerColumns + ` FROM providers WHERE slug = $1 AND active`

	return scanProvider(p.db.QueryRow(ctx, query, slug))
}

func (p *PostgresProviderRepository) ListWithWebhookSecrets(ctx context.Context) ([]domain.Provider, error) {
	query := `SELECT ` + providerColumns + `
		FROM providers
		WHERE active AND stripe_webhook_secret <> ''
		ORDER BY created_at`

	rows, err := p.db.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var providers []domain.Provider

	for rows.Next() {
		provider, err := scanProvider(rows)
		if err != nil {
			return nil, err
		}

		providers = append(providers, *provider)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return providers, nil
}

func scanProvider(row pgx.Row) (*domain.Provider, error) {
	var (
		provider domain.Provider
		gateway  *string
	)

	err := row.Scan(
		&provider.ID,
		&provider.Name,
		&provider.Slug,
		&provider.APIKeyHash,
		&gateway,
		&provider.StripeSecretKey,
		&provider.StripePublishableKey,
		&provider.StripeWebhookSecret,
		&provider.WebhookURL,
		&provider.SuccessRedirectURL,
		&provider.CancelRedirectURL,
		&provider.Active,
		&provider.CreatedAt,
		&provider.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrRecordNotFound
		}

		return nil, err
	}

	if gateway != nil {
		name := domain.GatewayName(*gateway)
		provider.Gateway = &name
	}

	return &provider, nil
}
