package app

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"github.com/metinatakli/storefront-payments/api"
	"github.com/metinatakli/storefront-payments/internal/domain"
	appvalidator "github.com/metinatakli/storefront-payments/internal/validator"
)

const (
	ErrInternalServer = "The server encountered a problem and could not process your request"

	ErrorCodeCashAppUnavailable     = api.CASHAPPUNAVAILABLE
	ErrorCodeCredentialModeMismatch = api.CREDENTIALMODEMISMATCH
)

func (app *Application) logError(r *http.Request, err error) {
	var (
		method = r.Method
		uri    = r.URL.RequestURI()
	)

	app.contextGetLogger(r).Error(err.Error(), "method", method, "uri", uri)
}

// The errorResponse() method is a generic helper for sending JSON-formatted error
// messages to the client with a given status code.
func (app *Application) errorResponse(w http.ResponseWriter, r *http.Request, status int, message string) {
	app.errorResponseWithCode(w, r, status, message, "")
}

func (app *Application) errorResponseWithCode(w http.ResponseWriter, r *http.Request, status int, message string,
	code api.ErrorResponseErrorCode) {
	resp := api.ErrorResponse{
		Error:     message,
		RequestId: middleware.GetReqID(r.Context()),
		Timestamp: time.Now(),
	}

	if code != "" {
		resp.ErrorCode = &code
	}

	err := app.writeJSON(w, status, resp, nil)
	if err != nil {
		app.logError(r, err)
		w.WriteHeader(500)
	}
}

func (app *Application) serverErrorResponse(w http.ResponseWriter, r *http.Request, err error) {
	app.logError(r, err)

	app.errorResponse(w, r, http.StatusInternalServerError, ErrInternalServer)
}

func (app *Application) notFoundResponse(w http.ResponseWriter, r *http.Request) {
	message := "The requested resource not found"
	app.errorResponse(w, r, http.StatusNotFound, message)
}

func (app *Application) notFoundResponseWithErr(w http.ResponseWriter, r *http.Request, err error) {
	app.errorResponse(w, r, http.StatusNotFound, err.Error())
}

func (app *Application) badRequestResponse(w http.ResponseWriter, r *http.Request, err error) {
	app.errorResponse(w, r, http.StatusBadRequest, err.Error())
}

// invalidParamResponse answers requests whose path, query or header
// parameters could not be bound to an operation.
func (app *Application) invalidParamResponse(w http.ResponseWriter, r *http.Request, err error) {
	app.badRequestResponse(w, r, err)
}

func (app *Application) editConflictResponseWithErr(w http.ResponseWriter, r *http.Request, err error) {
	app.errorResponse(w, r, http.StatusConflict, err.Error())
}

func (app *Application) invalidAPIKeyResponse(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("WWW-Authenticate", "ApiKey")
	app.errorResponse(w, r, http.StatusUnauthorized, "invalid or missing API key")
}

func (app *Application) failedValidationResponse(w http.ResponseWriter, r *http.Request, err error) {
	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		app.serverErrorResponse(w, r, err)
		return
	}

	resp := api.ValidationErrorResponse{
		Error:            "The request failed validation",
		RequestId:        middleware.GetReqID(r.Context()),
		Timestamp:        time.Now(),
		ValidationErrors: make([]api.ValidationError, 0, len(validationErrors)),
	}

	for _, fieldErr := range validationErrors {
		resp.ValidationErrors = append(resp.ValidationErrors, api.ValidationError{
			Field: fieldErr.Field(),
			Issue: appvalidator.ValidationMessage(fieldErr),
		})
	}

	err = app.writeJSON(w, http.StatusUnprocessableEntity, resp, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

// paymentErrorResponse maps checkout and gateway errors onto responses. A
// recognized processor limitation carries an errorCode the storefront uses to
// explain the problem; everything else is a generic failure.
func (app *Application) paymentErrorResponse(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, domain.ErrInvalidCheckoutToken):
		app.errorResponse(w, r, http.StatusBadRequest, "invalid checkout link")

	case errors.Is(err, domain.ErrSessionNotFound):
		app.notFoundResponseWithErr(w, r, domain.ErrSessionNotFound)

	case errors.Is(err, domain.ErrServiceNotFound):
		app.notFoundResponseWithErr(w, r, domain.ErrServiceNotFound)

	case errors.Is(err, domain.ErrPaymentMethodUnavailable):
		app.logError(r, err)
		app.errorResponseWithCode(w, r, http.StatusBadRequest,
			"Cash App Pay is only available for US-based processor accounts", ErrorCodeCashAppUnavailable)

	case errors.Is(err, domain.ErrCredentialModeMismatch):
		app.errorResponseWithCode(w, r, http.StatusBadRequest, err.Error(), ErrorCodeCredentialModeMismatch)

	case errors.Is(err, domain.ErrRefundExceedsTotal):
		app.badRequestResponse(w, r, err)

	case errors.Is(err, domain.ErrInvalidTransition):
		app.editConflictResponseWithErr(w, r, fmt.Errorf("the order cannot be changed in its current status"))

	case errors.Is(err, domain.ErrGatewayNotImplemented):
		app.errorResponse(w, r, http.StatusNotImplemented, err.Error())

	case errors.Is(err, domain.ErrGatewayNotConfigured), errors.Is(err, domain.ErrCredentialsUnavailable):
		app.logError(r, err)
		app.errorResponse(w, r, http.StatusServiceUnavailable, "payments are temporarily unavailable")

	default:
		app.serverErrorResponse(w, r, err)
	}
}
