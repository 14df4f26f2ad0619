package app

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/metinatakli/storefront-payments/api"
	"github.com/metinatakli/storefront-payments/internal/domain"
)

const (
	HeaderStripeSignature = "Stripe-Signature"

	maxWebhookBodyBytes = 65536
)

// StripeWebhook acknowledges an event only after it was applied to
// the ledger. Any processing error is answered with a 500 so that the
// processor redelivers the event.
func (app *Application) StripeWebhook(w http.ResponseWriter, r *http.Request, params api.StripeWebhookParams) {
	r.Body = http.MaxBytesReader(w, r.Body, maxWebhookBodyBytes)

	payload, err := io.ReadAll(r.Body)
	if err != nil {
		var maxBytesError *http.MaxBytesError
		if errors.As(err, &maxBytesError) {
			app.badRequestResponse(w, r, fmt.Errorf("body must not be larger than %d bytes", maxBytesError.Limit))
			return
		}

		app.badRequestResponse(w, r, errors.New("could not read request body"))
		return
	}

	signature := params.StripeSignature
	if signature == "" {
		app.badRequestResponse(w, r, errors.New("missing Stripe-Signature header"))
		return
	}

	err = app.reconciler.HandleDelivery(r.Context(), payload, signature)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrInvalidSignature):
			app.contextGetLogger(r).Warn("rejected webhook delivery", "error", err)
			app.badRequestResponse(w, r, domain.ErrInvalidSignature)
		default:
			app.serverErrorResponse(w, r, err)
		}

		return
	}

	err = app.writeJSON(w, http.StatusOK, api.WebhookResponse{Received: true}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}
