package app

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/metinatakli/storefront-payments/api"
	"github.com/metinatakli/storefront-payments/internal/checkout"
	"github.com/metinatakli/storefront-payments/internal/poller"
)

const paymentStatusTimeout = 10 * time.Second

func (app *Application) GetCheckoutSession(w http.ResponseWriter, r *http.Request, token api.Token) {
	session, err := app.checkout.Resolve(r.Context(), token)
	if err != nil {
		app.paymentErrorResponse(w, r, err)
		return
	}

	err = app.writeJSON(w, http.StatusOK, toCheckoutSessionResponse(session), nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

// GetPaymentStatus serves the page the processor redirects the buyer
// back to. The redirect's own status claim is only trusted when the payment
// cannot be retrieved.
func (app *Application) GetPaymentStatus(w http.ResponseWriter, r *http.Request, token api.Token,
	params api.GetPaymentStatusParams) {
	session, err := app.checkout.Resolve(r.Context(), token)
	if err != nil {
		app.paymentErrorResponse(w, r, err)
		return
	}

	order := session.Order
	if order.StripePaymentIntentID == nil {
		app.editConflictResponseWithErr(w, r, errors.New("the order has no payment to verify"))
		return
	}

	if claimed := params.PaymentIntent; claimed != nil && *claimed != "" && *claimed != *order.StripePaymentIntentID {
		app.badRequestResponse(w, r, errors.New("the payment does not belong to this checkout"))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), paymentStatusTimeout)
	defer cancel()

	result, err := app.verifier.Poll(ctx, poller.Input{
		PublishableKey:  session.PublishableKey,
		PaymentIntentID: *order.StripePaymentIntentID,
		ClientSecret:    session.ClientSecret,
		RedirectStatus:  valueOrEmpty(params.RedirectStatus),
	}, app.pollInterval, app.pollAttempts)
	if err != nil && result.Status == "" {
		app.serverErrorResponse(w, r, err)
		return
	}

	resp := api.PaymentStatusResponse{
		OrderId:  order.OrderID,
		Status:   api.PaymentStatusResponseStatus(result.Status),
		Verified: result.Verified,
	}

	if session.Provider != nil {
		switch result.Status {
		case poller.StatusSucceeded:
			resp.RedirectUrl = session.Provider.SuccessRedirectURL
		case poller.StatusFailed:
			resp.RedirectUrl = session.Provider.CancelRedirectURL
		}
	}

	err = app.writeJSON(w, http.StatusOK, resp, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

func toCheckoutSessionResponse(session *checkout.Session) api.CheckoutSessionResponse {
	order := session.Order

	resp := api.CheckoutSessionResponse{
		ClientSecret:  session.ClientSecret,
		OrderId:       order.OrderID,
		CheckoutToken: order.CheckoutToken,
		Status:        api.OrderStatus(session.Status),
		Amount:        session.Amount,
		Quantity:      order.Quantity,
		Currency:      order.Currency,
		Item: api.CheckoutItem{
			Name:        session.Item.Name,
			Description: session.Item.Description,
			Icon:        session.Item.Icon,
			Features:    session.Item.Features,
		},
		StripePublishableKey: session.PublishableKey,
	}

	if session.Provider != nil {
		resp.Provider = &api.CheckoutProvider{
			Name:               session.Provider.Name,
			SuccessRedirectUrl: session.Provider.SuccessRedirectURL,
			CancelRedirectUrl:  session.Provider.CancelRedirectURL,
		}
	}

	return resp
}

func valueOrEmpty(s *string) string {
	if s == nil {
		return ""
	}

	return *s
}
