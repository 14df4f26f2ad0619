// Package poller re-verifies a payment's status after the processor
// redirects the browser back, instead of trusting the redirect's query
// string.
package poller

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/client"
)

type Status string

const (
	StatusSucceeded  Status = "succeeded"
	StatusProcessing Status = "processing"
	StatusFailed     Status = "failed"
	StatusPending    Status = "pending"
)

var ErrMissingPublishableKey = errors.New("publishable key is not configured")

type Input struct {
	PublishableKey  string
	PaymentIntentID string
	ClientSecret    string
	// RedirectStatus is the redirect_status the processor appended to the
	// return URL. It is only used when the payment cannot be retrieved.
	RedirectStatus string
}

type Result struct {
	Status Status
	// Verified is false when Status comes from the redirect claim.
	Verified     bool
	NativeStatus string
}

// Fetcher retrieves a payment intent's native status with client-side
// credentials only.
type Fetcher interface {
	FetchStatus(ctx context.Context, publishableKey, paymentIntentID, clientSecret string) (stripe.PaymentIntentStatus, error)
}

type StripeFetcher struct {
	backends *stripe.Backends
}

// NewStripeFetcher returns a fetcher for api.stripe.com, or for the given
// backends when they are not nil.
func NewStripeFetcher(backends *stripe.Backends) *StripeFetcher {
	return &StripeFetcher{backends: backends}
}

func (f *StripeFetcher) FetchStatus(
	ctx context.Context,
	publishableKey, paymentIntentID, clientSecret string) (stripe.PaymentIntentStatus, error) {

	if publishableKey == "" {
		return "", ErrMissingPublishableKey
	}

	if !strings.HasPrefix(clientSecret, paymentIntentID+"_secret_") {
		return "", fmt.Errorf("client secret does not belong to payment intent %s", paymentIntentID)
	}

	params := &stripe.PaymentIntentParams{
		ClientSecret: stripe.String(clientSecret),
	}
	params.Context = ctx

	pi, err := client.New(publishableKey, f.backends).PaymentIntents.Get(paymentIntentID, params)
	if err != nil {
		return "", err
	}

	return pi.Status, nil
}

type Verifier struct {
	fetcher Fetcher
	logger  *slog.Logger
}

func NewVerifier(fetcher Fetcher, logger *slog.Logger) *Verifier {
	return &Verifier{
		fetcher: fetcher,
		logger:  logger,
	}
}

// Verify retrieves the payment and maps its native status. When retrieval
// fails the redirect's claimed status is returned unverified.
func (v *Verifier) Verify(ctx context.Context, in Input) Result {
	native, err := v.fetcher.FetchStatus(ctx, in.PublishableKey, in.PaymentIntentID, in.ClientSecret)
	if err != nil {
		v.logger.Warn("payment status verification failed, using redirect status",
			"payment_intent_id", in.PaymentIntentID,
			"redirect_status", in.RedirectStatus,
			"error", err)

		return Result{Status: fromRedirect(in.RedirectStatus)}
	}

	return Result{
		Status:       fromNative(native),
		Verified:     true,
		NativeStatus: string(native),
	}
}

// Poll verifies repeatedly while the payment is processing, up to
// maxAttempts times. Canceling ctx stops it and returns the last result with
// the context's error.
func (v *Verifier) Poll(ctx context.Context, in Input, interval time.Duration, maxAttempts int) (Result, error) {
	var result Result

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for attempt := 1; ; attempt++ {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		result = v.Verify(ctx, in)
		if result.Status != StatusProcessing || attempt >= maxAttempts {
			return result, nil
		}

		select {
		case <-ctx.Done():
			return result, ctx.Err()
		case <-ticker.C:
		}
	}
}

func fromNative(status stripe.PaymentIntentStatus) Status {
	switch status {
	case stripe.PaymentIntentStatusSucceeded:
		return StatusSucceeded
	case stripe.PaymentIntentStatusProcessing:
		return StatusProcessing
	case stripe.PaymentIntentStatusRequiresPaymentMethod, stripe.PaymentIntentStatusCanceled:
		return StatusFailed
	default:
		return StatusPending
	}
}

func fromRedirect(claimed string) Status {
	switch Status(claimed) {
	case StatusSucceeded, StatusProcessing, StatusFailed:
		return Status(claimed)
	default:
		return StatusPending
	}
}
