package app

import (
	"errors"
	"net/http"

	"github.com/metinatakli/storefront-payments/internal/domain"
)

const HeaderAPIKey = "X-Api-Key"

// requireIntegrator authenticates an integrator by its API key
// (<slug>.<secret>) and stores the provider in the request context.
func (app *Application) requireIntegrator(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		logger := app.contextGetLogger(r)

		slug, secret, ok := domain.ParseAPIKey(r.Header.Get(HeaderAPIKey))
		if !ok {
			app.invalidAPIKeyResponse(w, r)
			return
		}

		provider, err := app.providerRepo.GetBySlug(r.Context(), slug)
		if err != nil {
			switch {
			case errors.Is(err, domain.ErrRecordNotFound):
				logger.Warn("api key for unknown provider", "provider", slug)
				app.invalidAPIKeyResponse(w, r)
			default:
				app.serverErrorResponse(w, r, err)
			}

			return
		}

		if !provider.Active {
			logger.Warn("api key for inactive provider", "provider", slug)
			app.invalidAPIKeyResponse(w, r)
			return
		}

		match, err := provider.MatchesAPIKey(secret)
		if err != nil {
			app.serverErrorResponse(w, r, err)
			return
		}

		if !match {
			logger.Warn("api key mismatch", "provider", slug)
			app.invalidAPIKeyResponse(w, r)
			return
		}

		next.ServeHTTP(w, app.contextSetProvider(r, provider))
	})
}
