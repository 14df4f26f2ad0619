package domain

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// Provider is an integrator that creates orders through the integration API
// and may bring its own processor account.
type Provider struct {
	ID                   uuid.UUID
	Name                 string
	Slug                 string
	APIKeyHash           []byte
	Gateway              *GatewayName
	StripeSecretKey      string
	StripePublishableKey string
	StripeWebhookSecret  string
	WebhookURL           *string
	SuccessRedirectURL   *string
	CancelRedirectURL    *string
	Active               bool
	CreatedAt            time.Time
	UpdatedAt            time.Time
}

// HasOwnCredentials reports whether the provider stores its own (encrypted)
// processor secret key.
func (p *Provider) HasOwnCredentials() bool {
	return p.StripeSecretKey != ""
}

// MatchesAPIKey compares the secret half of an API key against the stored hash.
func (p *Provider) MatchesAPIKey(secret string) (bool, error) {
	err := bcrypt.CompareHashAndPassword(p.APIKeyHash, []byte(secret))
	if err != nil {
		switch {
		case errors.Is(err, bcrypt.ErrMismatchedHashAndPassword):
			return false, nil
		default:
			return false, err
		}
	}

	return true, nil
}

func HashAPIKey(secret string) ([]byte, error) {
	return bcrypt.GenerateFromPassword([]byte(secret), 12)
}

// ParseAPIKey splits an integrator API key of the form <slug>.<secret>.
func ParseAPIKey(key string) (slug, secret string, ok bool) {
	slug, secret, ok = strings.Cut(key, ".")
	if !ok || slug == "" || secret == "" {
		return "", "", false
	}

	return slug, secret, true
}

type ProviderRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*Provider, error)
	GetBySlug(ctx context.Context, slug string) (*Provider, error)
	ListWithWebhookSecrets(ctx context.Context) ([]Provider, error)
}
