package app

import (
	"errors"
	"net/http"
	"strings"

	"github.com/metinatakli/storefront-payments/api"
	"github.com/metinatakli/storefront-payments/internal/checkout"
	"github.com/metinatakli/storefront-payments/internal/domain"
)

func (app *Application) CreatePayment(w http.ResponseWriter, r *http.Request) {
	var input api.CreatePaymentRequest

	err := app.readJSON(w, r, &input)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	err = app.validator.Struct(input)
	if err != nil {
		app.failedValidationResponse(w, r, err)
		return
	}

	serviceInput := checkout.ServicePaymentInput{ServiceID: input.ServiceId}
	if input.OrderId != nil {
		serviceInput.OrderID = *input.OrderId
	}

	session, err := app.checkout.CreateServicePayment(r.Context(), serviceInput)
	if err != nil {
		if errors.Is(err, domain.ErrDuplicateOrder) {
			app.editConflictResponseWithErr(w, r, domain.ErrDuplicateOrder)
			return
		}

		app.paymentErrorResponse(w, r, err)
		return
	}

	resp := api.CreatePaymentResponse{
		ClientSecret:         session.ClientSecret,
		OrderId:              session.Order.OrderID,
		CheckoutToken:        session.Order.CheckoutToken,
		Amount:               session.Order.Total,
		ServiceName:          session.ServiceName,
		StripePublishableKey: session.PublishableKey,
	}

	err = app.writeJSON(w, http.StatusCreated, resp, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

func (app *Application) CreateIntegratorPayment(w http.ResponseWriter, r *http.Request) {
	provider := app.contextGetProvider(r)

	var input api.CreateIntegratorPaymentRequest

	err := app.readJSON(w, r, &input)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	err = app.validator.Struct(input)
	if err != nil {
		app.failedValidationResponse(w, r, err)
		return
	}

	integratorInput := checkout.IntegratorPaymentInput{
		Amount:          input.Amount,
		ItemName:        input.ItemName,
		ItemDescription: input.ItemDescription,
		ExternalID:      input.ExternalId,
		ServiceID:       input.ServiceId,
	}
	if input.Quantity != nil {
		integratorInput.Quantity = *input.Quantity
	}

	session, err := app.checkout.CreateIntegratorPayment(r.Context(), provider, integratorInput)
	if err != nil {
		app.paymentErrorResponse(w, r, err)
		return
	}

	order := session.Order

	resp := api.IntegratorPaymentResponse{
		OrderId:       order.OrderID,
		CheckoutToken: order.CheckoutToken,
		CheckoutUrl:   app.checkoutURL(order.CheckoutToken),
		Amount:        order.Total,
		Quantity:      order.Quantity,
		Currency:      order.Currency,
		Status:        api.OrderStatus(order.Status),
	}

	err = app.writeJSON(w, http.StatusCreated, resp, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

func (app *Application) RefundIntegratorPayment(w http.ResponseWriter, r *http.Request, token api.Token) {
	provider := app.contextGetProvider(r)

	var input api.RefundRequest

	// An empty body requests a full refund.
	if r.ContentLength != 0 {
		err := app.readJSON(w, r, &input)
		if err != nil {
			app.badRequestResponse(w, r, err)
			return
		}
	}

	err := app.validator.Struct(input)
	if err != nil {
		app.failedValidationResponse(w, r, err)
		return
	}

	refundInput := checkout.RefundInput{
		CheckoutToken: token,
		Amount:        input.Amount,
	}
	if input.Reason != nil {
		refundInput.Reason = string(*input.Reason)
	}

	result, err := app.checkout.Refund(r.Context(), provider, refundInput)
	if err != nil {
		app.paymentErrorResponse(w, r, err)
		return
	}

	resp := api.RefundResponse{
		RefundId: result.RefundID,
		Amount:   result.Amount,
		Status:   result.Status,
	}

	err = app.writeJSON(w, http.StatusAccepted, resp, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

func (app *Application) checkoutURL(token string) string {
	return strings.TrimRight(app.config.PublicBaseURL, "/") + "/checkout/" + token
}
