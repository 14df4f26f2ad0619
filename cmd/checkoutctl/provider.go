package main

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/metinatakli/storefront-payments/internal/domain"
	"github.com/metinatakli/storefront-payments/internal/repository"
	"github.com/metinatakli/storefront-payments/internal/vault"
	"github.com/spf13/cobra"
)

const apiKeySecretLength = 24

type providerInput struct {
	Name               string
	Slug               string
	Gateway            string
	SecretKey          string
	PublishableKey     string
	WebhookSecret      string
	WebhookURL         string
	SuccessRedirectURL string
	CancelRedirectURL  string
}

func providerCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "provider",
		Short: "Manage integrators",
	}

	cmd.AddCommand(providerCreateCmd())

	return cmd
}

func providerCreateCmd() *cobra.Command {
	var (
		input providerInput
		dsn   string
	)

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Register an integrator and print its API key",
		Long: `Register an integrator and print its API key.

The key is shown once; only its hash is stored. Processor credentials are
optional. Without them the integrator's orders use the platform account.`,
		Args: cobra.NoArgs,
	}

	key := encryptionKeyFlag(cmd)

	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		if dsn == "" {
			return errors.New("a database DSN is required (--dsn or DATABASE_URL)")
		}

		var v *vault.Vault
		if input.SecretKey != "" {
			var err error
			v, err = openVault(*key)
			if err != nil {
				return err
			}
		}

		provider, apiKey, err := buildProvider(input, v)
		if err != nil {
			return err
		}

		ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Second)
		defer cancel()

		db, err := pgxpool.New(ctx, dsn)
		if err != nil {
			return err
		}
		defer db.Close()

		err = repository.NewPostgresProviderRepository(db).Create(ctx, provider)
		if err != nil {
			return fmt.Errorf("create provider: %w", err)
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "provider %s created (%s)\n", provider.Slug, provider.ID)
		fmt.Fprintf(out, "API key: %s\n", apiKey)
		return nil
	}

	cmd.Flags().StringVar(&input.Name, "name", "", "display name")
	cmd.Flags().StringVar(&input.Slug, "slug", "", "unique slug, also the API key prefix")
	cmd.Flags().StringVar(&input.Gateway, "gateway", "", "payment gateway (defaults to the platform default)")
	cmd.Flags().StringVar(&input.SecretKey, "secret-key", "", "integrator's own processor secret key")
	cmd.Flags().StringVar(&input.PublishableKey, "publishable-key", "", "integrator's own processor publishable key")
	cmd.Flags().StringVar(&input.WebhookSecret, "webhook-secret", "", "integrator's own webhook signing secret")
	cmd.Flags().StringVar(&input.WebhookURL, "webhook-url", "", "URL notified about payment outcomes")
	cmd.Flags().StringVar(&input.SuccessRedirectURL, "success-url", "", "redirect after payment, may contain {orderId}")
	cmd.Flags().StringVar(&input.CancelRedirectURL, "cancel-url", "", "redirect after a failed payment, may contain {orderId}")
	cmd.Flags().StringVar(&dsn, "dsn", os.Getenv("DATABASE_URL"), "PostgreSQL DSN")
	cmd.MarkFlagRequired("name")
	cmd.MarkFlagRequired("slug")

	return cmd
}

// buildProvider validates the input and returns the provider row to insert
// together with the plaintext API key.
func buildProvider(input providerInput, v *vault.Vault) (*domain.Provider, string, error) {
	if input.Name == "" || input.Slug == "" {
		return nil, "", errors.New("name and slug are required")
	}

	provider := &domain.Provider{
		ID:                 uuid.New(),
		Name:               input.Name,
		Slug:               input.Slug,
		WebhookURL:         optional(input.WebhookURL),
		SuccessRedirectURL: optional(input.SuccessRedirectURL),
		CancelRedirectURL:  optional(input.CancelRedirectURL),
	}

	if input.Gateway != "" {
		gateway := domain.GatewayName(input.Gateway)
		if !gateway.Valid() {
			return nil, "", fmt.Errorf("%w: %q", domain.ErrUnknownGateway, input.Gateway)
		}
		provider.Gateway = &gateway
	}

	if input.SecretKey != "" {
		if v == nil {
			return nil, "", errMissingEncryptionKey
		}

		err := vault.ValidateCredentials(domain.GatewayCredentials{
			SecretKey:      input.SecretKey,
			PublishableKey: input.PublishableKey,
			WebhookSecret:  input.WebhookSecret,
		})
		if err != nil {
			return nil, "", err
		}

		provider.StripeSecretKey, err = v.Encrypt(input.SecretKey)
		if err != nil {
			return nil, "", err
		}

		provider.StripeWebhookSecret, err = v.Encrypt(input.WebhookSecret)
		if err != nil {
			return nil, "", err
		}

		provider.StripePublishableKey = input.PublishableKey
	}

	secretBytes := make([]byte, apiKeySecretLength)
	_, err := rand.Read(secretBytes)
	if err != nil {
		return nil, "", err
	}
	secret := hex.EncodeToString(secretBytes)

	provider.APIKeyHash, err = domain.HashAPIKey(secret)
	if err != nil {
		return nil, "", err
	}

	return provider, input.Slug + "." + secret, nil
}

func optional(s string) *string {
	if s == "" {
		return nil
	}

	return &s
}
