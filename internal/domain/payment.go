package domain

import (
	"crypto/sha256"
	"encoding/hex"

	"github.com/shopspring/decimal"
)

// PaymentStatus is the processor-neutral status of a payment.
type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "pending"
	PaymentStatusSucceeded PaymentStatus = "succeeded"
	PaymentStatusCanceled  PaymentStatus = "canceled"
)

// GatewayCredentials are decrypted processor credentials. They are only ever
// held in memory.
type GatewayCredentials struct {
	SecretKey      string
	PublishableKey string
	WebhookSecret  string
}

// Fingerprint identifies the credential set without exposing the secret key.
func (c *GatewayCredentials) Fingerprint() string {
	return KeyFingerprint(c.SecretKey)
}

func KeyFingerprint(secretKey string) string {
	sum := sha256.Sum256([]byte(secretKey))
	return hex.EncodeToString(sum[:])
}

type CreatePaymentInput struct {
	Amount         decimal.Decimal
	Currency       string
	Description    string
	Metadata       map[string]string
	IdempotencyKey string
	Credentials    *GatewayCredentials
}

type PaymentResult struct {
	PaymentID    string
	ClientSecret string
	Status       PaymentStatus
	NativeStatus string
	Amount       decimal.Decimal
	Currency     string
	Metadata     map[string]string
}

type RefundInput struct {
	PaymentID   string
	Amount      *decimal.Decimal
	Reason      string
	Credentials *GatewayCredentials
}

type RefundResult struct {
	RefundID string
	Amount   decimal.Decimal
	Status   string
}
