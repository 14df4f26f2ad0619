package domain

import "errors"

var (
	ErrRecordNotFound           = errors.New("record not found")
	ErrDuplicateOrder           = errors.New("an order with the same identifier already exists")
	ErrInvalidCheckoutToken     = errors.New("invalid checkout link")
	ErrSessionNotFound          = errors.New("checkout session not found or has expired")
	ErrServiceNotFound          = errors.New("service not found")
	ErrInvalidTransition        = errors.New("order status transition is not allowed")
	ErrUnknownGateway           = errors.New("unknown payment gateway")
	ErrGatewayNotImplemented    = errors.New("payment gateway is not yet implemented")
	ErrGatewayNotConfigured     = errors.New("payment gateway is not configured")
	ErrPaymentMethodUnavailable = errors.New("payment method is not available for this processor account")
	ErrInvalidCredentials       = errors.New("invalid gateway credentials")
	ErrCredentialModeMismatch   = errors.New("secret key and publishable key must both be test or both be live keys")
	ErrCredentialsUnavailable   = errors.New("gateway credentials could not be decrypted")
	ErrInvalidSignature         = errors.New("webhook signature verification failed")
	ErrMalformedEvent           = errors.New("malformed webhook event")
	ErrInvalidAPIKey            = errors.New("invalid API key")
	ErrRefundExceedsTotal       = errors.New("refund amount exceeds the order total")
)
