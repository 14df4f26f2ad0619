package webhook

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/metinatakli/storefront-payments/internal/domain"
	"github.com/stripe/stripe-go/v82"
	stripewebhook "github.com/stripe/stripe-go/v82/webhook"
)

// SecretSource lists every signing secret a delivery may have been signed
// with.
type SecretSource interface {
	WebhookSecrets(ctx context.Context) ([]string, error)
}

type SecretDecrypter interface {
	Decrypt(ciphertext string) string
}

// StoreSecrets combines the platform signing secret with the decrypted
// secrets of every integrator that owns a processor account.
type StoreSecrets struct {
	platform  string
	providers domain.ProviderRepository
	vault     SecretDecrypter
	logger    *slog.Logger
}

func NewStoreSecrets(
	platform string,
	providers domain.ProviderRepository,
	vault SecretDecrypter,
	logger *slog.Logger) *StoreSecrets {

	return &StoreSecrets{
		platform:  platform,
		providers: providers,
		vault:     vault,
		logger:    logger,
	}
}

func (s *StoreSecrets) WebhookSecrets(ctx context.Context) ([]string, error) {
	var secrets []string
	if s.platform != "" {
		secrets = append(secrets, s.platform)
	}

	providers, err := s.providers.ListWithWebhookSecrets(ctx)
	if err != nil {
		return nil, fmt.Errorf("list provider webhook secrets: %w", err)
	}

	for _, provider := range providers {
		secret := s.vault.Decrypt(provider.StripeWebhookSecret)
		if secret == "" {
			s.logger.Warn("provider webhook secret could not be decrypted", "provider", provider.Slug)
			continue
		}
		secrets = append(secrets, secret)
	}

	return secrets, nil
}

// Verify checks the signature against each secret in turn and returns the
// event for the first one that validates.
func Verify(payload []byte, signature string, secrets []string) (stripe.Event, error) {
	if signature == "" {
		return stripe.Event{}, fmt.Errorf("%w: missing signature header", domain.ErrInvalidSignature)
	}

	for _, secret := range secrets {
		event, err := stripewebhook.ConstructEventWithOptions(payload, signature, secret, stripewebhook.ConstructEventOptions{
			IgnoreAPIVersionMismatch: true,
		})
		if err == nil {
			return event, nil
		}
	}

	return stripe.Event{}, fmt.Errorf("%w: no signing secret matched (%d tried)", domain.ErrInvalidSignature, len(secrets))
}
