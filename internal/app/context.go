package app

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/metinatakli/storefront-payments/internal/domain"
	"github.com/metinatakli/storefront-payments/internal/jsonutil"
	"github.com/metinatakli/storefront-payments/internal/middleware"
)

type contextKey string

const providerContextKey = contextKey("provider")

func (app *Application) contextSetProvider(r *http.Request, provider *domain.Provider) *http.Request {
	ctx := context.WithValue(r.Context(), providerContextKey, provider)
	return r.WithContext(ctx)
}

// contextGetProvider returns the integrator authenticated by requireIntegrator.
// It panics when called on a route without that middleware.
func (app *Application) contextGetProvider(r *http.Request) *domain.Provider {
	provider, ok := r.Context().Value(providerContextKey).(*domain.Provider)
	if !ok {
		panic("missing provider value in request context")
	}

	return provider
}

func (app *Application) contextGetLogger(r *http.Request) *slog.Logger {
	if logger, ok := middleware.LoggerFromContext(r.Context()); ok {
		return logger
	}

	return app.logger
}

func (app *Application) writeJSON(w http.ResponseWriter, status int, data any, headers http.Header) error {
	return jsonutil.WriteJSON(w, status, data, headers)
}

func (app *Application) readJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	return jsonutil.ReadJSON(w, r, dst)
}
