// Package vault encrypts integrator processor credentials at rest and
// validates the shape of processor API keys.
package vault

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"

	"github.com/metinatakli/storefront-payments/internal/domain"
)

const (
	ivLength  = 16
	tagLength = 16
)

var ErrMissingMasterSecret = errors.New("vault: master secret must not be empty")

// Vault performs authenticated encryption with a key derived from the
// platform master secret. Ciphertexts are base64(IV || ciphertext || tag).
type Vault struct {
	aead cipher.AEAD
}

func New(masterSecret string) (*Vault, error) {
	if masterSecret == "" {
		return nil, ErrMissingMasterSecret
	}

	key := sha256.Sum256([]byte(masterSecret))

	block, err := aes.NewCipher(key[:])
	if err != nil {
		return nil, err
	}

	aead, err := cipher.NewGCMWithNonceSize(block, ivLength)
	if err != nil {
		return nil, err
	}

	return &Vault{aead: aead}, nil
}

func (v *Vault) Encrypt(plaintext string) (string, error) {
	if plaintext == "" {
		return "", nil
	}

	iv := make([]byte, ivLength)
	_, err := rand.Read(iv)
	if err != nil {
		return "", err
	}

	out := v.aead.Seal(iv, iv, []byte(plaintext), nil)

	return base64.StdEncoding.EncodeToString(out), nil
}

// Decrypt returns the plaintext, or "" when the value is empty, malformed,
// tampered with or was encrypted under another master secret. Callers treat
// "" as "credentials unavailable".
func (v *Vault) Decrypt(ciphertext string) string {
	if ciphertext == "" {
		return ""
	}

	raw, err := base64.StdEncoding.DecodeString(ciphertext)
	if err != nil || len(raw) < ivLength+tagLength+1 {
		return ""
	}

	plaintext, err := v.aead.Open(nil, raw[:ivLength], raw[ivLength:], nil)
	if err != nil {
		return ""
	}

	return string(plaintext)
}

// IsEncrypted reports whether the value looks like a vault ciphertext. It
// is a shape check only and does not authenticate the value.
func IsEncrypted(value string) bool {
	raw, err := base64.StdEncoding.DecodeString(value)
	if err != nil {
		return false
	}

	return len(raw) >= ivLength+tagLength+1
}

// ProviderCredentials decrypts the provider's own processor credentials. It
// returns nil when the provider uses the platform account, and
// domain.ErrCredentialsUnavailable when stored secrets cannot be decrypted.
func (v *Vault) ProviderCredentials(p *domain.Provider) (*domain.GatewayCredentials, error) {
	if p == nil || !p.HasOwnCredentials() {
		return nil, nil
	}

	secretKey := v.Decrypt(p.StripeSecretKey)
	if secretKey == "" {
		return nil, domain.ErrCredentialsUnavailable
	}

	return &domain.GatewayCredentials{
		SecretKey:      secretKey,
		PublishableKey: p.StripePublishableKey,
		WebhookSecret:  v.Decrypt(p.StripeWebhookSecret),
	}, nil
}
