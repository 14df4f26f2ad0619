package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/metinatakli/storefront-payments/internal/domain"
	"github.com/metinatakli/storefront-payments/internal/vault"
	"github.com/spf13/cobra"
)

var errMissingEncryptionKey = errors.New("an encryption key is required (--encryption-key or ENCRYPTION_KEY)")

func encryptionKeyFlag(cmd *cobra.Command) *string {
	return cmd.Flags().String("encryption-key", os.Getenv("ENCRYPTION_KEY"), "platform master secret")
}

func openVault(key string) (*vault.Vault, error) {
	if key == "" {
		return nil, errMissingEncryptionKey
	}

	return vault.New(key)
}

func encryptCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "encrypt [value]",
		Short: "Encrypt a credential for storage in the providers table",
		Args:  cobra.ExactArgs(1),
	}

	key := encryptionKeyFlag(cmd)

	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		v, err := openVault(*key)
		if err != nil {
			return err
		}

		ciphertext, err := v.Encrypt(args[0])
		if err != nil {
			return fmt.Errorf("encrypt: %w", err)
		}

		fmt.Fprintln(cmd.OutOrStdout(), ciphertext)
		return nil
	}

	return cmd
}

func validateKeysCmd() *cobra.Command {
	var creds domain.GatewayCredentials

	cmd := &cobra.Command{
		Use:   "validate-keys",
		Short: "Check the format and mode of a processor credential set",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			err := vault.ValidateCredentials(creds)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "credentials are valid (%s mode)\n", vault.KeyMode(creds.SecretKey))
			return nil
		},
	}

	cmd.Flags().StringVar(&creds.SecretKey, "secret-key", "", "processor secret key")
	cmd.Flags().StringVar(&creds.PublishableKey, "publishable-key", "", "processor publishable key")
	cmd.Flags().StringVar(&creds.WebhookSecret, "webhook-secret", "", "webhook signing secret (optional)")
	cmd.MarkFlagRequired("secret-key")
	cmd.MarkFlagRequired("publishable-key")

	return cmd
}
