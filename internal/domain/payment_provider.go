package domain

import (
	"context"
	"fmt"
	"slices"
	"strings"
)

type GatewayName string

const (
	GatewayStripe GatewayName = "stripe"
	GatewayPayPal GatewayName = "paypal"
)

var gatewayNames = []GatewayName{GatewayStripe, GatewayPayPal}

// GatewayNames returns every gateway the platform knows about, in display order.
func GatewayNames() []GatewayName {
	return slices.Clone(gatewayNames)
}

func (n GatewayName) Valid() bool {
	return slices.Contains(gatewayNames, n)
}

// UnknownGatewayError wraps ErrUnknownGateway with the names that would have
// been accepted.
func UnknownGatewayError(name GatewayName) error {
	names := make([]string, len(gatewayNames))
	for i, n := range gatewayNames {
		names[i] = string(n)
	}

	return fmt.Errorf("%w %q: valid gateways are %s", ErrUnknownGateway, name, strings.Join(names, ", "))
}

type GatewayInfo struct {
	Name             GatewayName
	DisplayName      string
	IsActive         bool
	SupportedMethods []string
	RequiredEnvVars  []string
}

// Gateway is a payment processor. Amounts cross this boundary in major
// currency units; conversion to the processor's representation happens
// inside each implementation. A nil credentials argument selects the
// platform's own account.
type Gateway interface {
	CreatePayment(ctx context.Context, input CreatePaymentInput) (*PaymentResult, error)
	RetrievePayment(ctx context.Context, paymentID string, creds *GatewayCredentials) (*PaymentResult, error)
	CancelPayment(ctx context.Context, paymentID string, creds *GatewayCredentials) error
	RefundPayment(ctx context.Context, input RefundInput) (*RefundResult, error)
	PublishableKey(creds *GatewayCredentials) string
	IsConfigured() bool
	Info() GatewayInfo
}
