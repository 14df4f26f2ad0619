package vault

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/metinatakli/storefront-payments/internal/domain"
)

type Mode string

const (
	ModeTest    Mode = "test"
	ModeLive    Mode = "live"
	ModeUnknown Mode = ""
)

var (
	secretKeyRgx      = regexp.MustCompile(`^(sk|rk)_(test|live)_[0-9A-Za-z]{24,247}$`)
	publishableKeyRgx = regexp.MustCompile(`^pk_(test|live)_[0-9A-Za-z]{24,247}$`)
	webhookSecretRgx  = regexp.MustCompile(`^whsec_[0-9A-Za-z+/=]{32,}$`)
)

// KeyError describes a malformed credential field.
type KeyError struct {
	Field   string
	Message string
}

func (e *KeyError) Error() string {
	return fmt.Sprintf("%s %s", e.Field, e.Message)
}

func (e *KeyError) Unwrap() error {
	return domain.ErrInvalidCredentials
}

// KeyMode reports whether a processor key belongs to the test or live
// environment.
func KeyMode(key string) Mode {
	switch {
	case strings.Contains(key, "_test_"):
		return ModeTest
	case strings.Contains(key, "_live_"):
		return ModeLive
	default:
		return ModeUnknown
	}
}

func ValidateSecretKey(key string) error {
	if !secretKeyRgx.MatchString(key) {
		return &KeyError{Field: "secretKey", Message: "must start with sk_test_, sk_live_, rk_test_ or rk_live_"}
	}

	return nil
}

func ValidatePublishableKey(key string) error {
	if !publishableKeyRgx.MatchString(key) {
		return &KeyError{Field: "publishableKey", Message: "must start with pk_test_ or pk_live_"}
	}

	return nil
}

func ValidateWebhookSecret(secret string) error {
	if !webhookSecretRgx.MatchString(secret) {
		return &KeyError{Field: "webhookSecret", Message: "must start with whsec_"}
	}

	return nil
}

// ValidateCredentials checks every supplied key and that the secret and
// publishable keys target the same environment. The webhook secret is
// optional.
func ValidateCredentials(creds domain.GatewayCredentials) error {
	var errs []error

	if err := ValidateSecretKey(creds.SecretKey); err != nil {
		errs = append(errs, err)
	}

	if err := ValidatePublishableKey(creds.PublishableKey); err != nil {
		errs = append(errs, err)
	}

	if creds.WebhookSecret != "" {
		if err := ValidateWebhookSecret(creds.WebhookSecret); err != nil {
			errs = append(errs, err)
		}
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	if KeyMode(creds.SecretKey) != KeyMode(creds.PublishableKey) {
		return domain.ErrCredentialModeMismatch
	}

	return nil
}
