// Package webhook verifies processor webhook deliveries and reconciles the
// order ledger with the events they carry.
package webhook

import (
	"encoding/json"
	"fmt"

	"github.com/metinatakli/storefront-payments/internal/domain"
	"github.com/metinatakli/storefront-payments/internal/payment"
	"github.com/shopspring/decimal"
	"github.com/stripe/stripe-go/v82"
)

const (
	TypePaymentSucceeded = "payment_intent.succeeded"
	TypePaymentFailed    = "payment_intent.payment_failed"
	TypePaymentCanceled  = "payment_intent.canceled"
	TypeDisputeCreated   = "charge.dispute.created"
	TypeDisputeUpdated   = "charge.dispute.updated"
	TypeDisputeClosed    = "charge.dispute.closed"
	TypeChargeRefunded   = "charge.refunded"
)

// Event is one processor event the reconciler knows how to apply. The
// concrete types are PaymentSucceeded, PaymentFailed, DisputeChanged,
// PaymentRefunded and UnknownEvent.
type Event interface {
	EventID() string
	EventType() string
}

type envelope struct {
	ID   string
	Type string
}

func (e envelope) EventID() string   { return e.ID }
func (e envelope) EventType() string { return e.Type }

type PaymentSucceeded struct {
	envelope
	PaymentIntentID string
	Amount          decimal.Decimal
	Currency        string
	Metadata        map[string]string
}

type PaymentFailed struct {
	envelope
	PaymentIntentID string
	Reason          string
}

type DisputeChanged struct {
	envelope
	PaymentIntentID string
	DisputeID       string
	Status          domain.DisputeStatus
	Amount          decimal.Decimal
	Reason          string
}

// PaymentRefunded is a full or partial refund issued outside of a dispute.
// Amount is the cumulative amount refunded on the charge.
type PaymentRefunded struct {
	envelope
	PaymentIntentID string
	Amount          decimal.Decimal
	Full            bool
}

type UnknownEvent struct {
	envelope
}

// Parse validates the event payload for the types the reconciler handles.
// Payloads that do not carry what their type promises yield
// domain.ErrMalformedEvent.
func Parse(event stripe.Event) (Event, error) {
	env := envelope{ID: event.ID, Type: string(event.Type)}

	if event.ID == "" {
		return nil, fmt.Errorf("%w: missing event id", domain.ErrMalformedEvent)
	}

	switch env.Type {
	case TypePaymentSucceeded:
		var pi stripe.PaymentIntent
		if err := decodeObject(event, &pi); err != nil {
			return nil, err
		}
		if pi.ID == "" {
			return nil, malformed(env, "payment intent id")
		}

		return PaymentSucceeded{
			envelope:        env,
			PaymentIntentID: pi.ID,
			Amount:          payment.FromMinorUnits(pi.Amount),
			Currency:        string(pi.Currency),
			Metadata:        pi.Metadata,
		}, nil

	case TypePaymentFailed, TypePaymentCanceled:
		var pi stripe.PaymentIntent
		if err := decodeObject(event, &pi); err != nil {
			return nil, err
		}
		if pi.ID == "" {
			return nil, malformed(env, "payment intent id")
		}

		reason := string(pi.CancellationReason)
		if pi.LastPaymentError != nil {
			reason = pi.LastPaymentError.Msg
		}

		return PaymentFailed{
			envelope:        env,
			PaymentIntentID: pi.ID,
			Reason:          reason,
		}, nil

	case TypeDisputeCreated, TypeDisputeUpdated, TypeDisputeClosed:
		var dispute stripe.Dispute
		if err := decodeObject(event, &dispute); err != nil {
			return nil, err
		}

		paymentIntentID := disputePaymentIntent(&dispute)
		if dispute.ID == "" || paymentIntentID == "" {
			return nil, malformed(env, "dispute id or payment intent")
		}

		status, ok := domain.ParseDisputeStatus(string(dispute.Status))
		if !ok {
			return nil, fmt.Errorf("%w: %s has unknown dispute status %q", domain.ErrMalformedEvent, env.ID, dispute.Status)
		}

		return DisputeChanged{
			envelope:        env,
			PaymentIntentID: paymentIntentID,
			DisputeID:       dispute.ID,
			Status:          status,
			Amount:          payment.FromMinorUnits(dispute.Amount),
			Reason:          string(dispute.Reason),
		}, nil

	case TypeChargeRefunded:
		var charge stripe.Charge
		if err := decodeObject(event, &charge); err != nil {
			return nil, err
		}
		if charge.PaymentIntent == nil || charge.PaymentIntent.ID == "" {
			return nil, malformed(env, "payment intent")
		}
		if charge.AmountRefunded <= 0 {
			return nil, malformed(env, "refunded amount")
		}

		return PaymentRefunded{
			envelope:        env,
			PaymentIntentID: charge.PaymentIntent.ID,
			Amount:          payment.FromMinorUnits(charge.AmountRefunded),
			Full:            charge.Refunded,
		}, nil

	default:
		return UnknownEvent{envelope: env}, nil
	}
}

func decodeObject(event stripe.Event, v any) error {
	if event.Data == nil || len(event.Data.Raw) == 0 {
		return fmt.Errorf("%w: %s has no data object", domain.ErrMalformedEvent, event.ID)
	}

	err := json.Unmarshal(event.Data.Raw, v)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", domain.ErrMalformedEvent, event.ID, err)
	}

	return nil
}

func disputePaymentIntent(dispute *stripe.Dispute) string {
	if dispute.PaymentIntent != nil && dispute.PaymentIntent.ID != "" {
		return dispute.PaymentIntent.ID
	}

	if dispute.Charge != nil && dispute.Charge.PaymentIntent != nil {
		return dispute.Charge.PaymentIntent.ID
	}

	return ""
}

func malformed(env envelope, missing string) error {
	return fmt.Errorf("%w: %s (%s) is missing %s", domain.ErrMalformedEvent, env.ID, env.Type, missing)
}
