package app

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/metinatakli/storefront-payments/api"
	"github.com/metinatakli/storefront-payments/internal/middleware"
	"github.com/riandyrn/otelchi"
	"github.com/rs/cors"
)

var _ api.ServerInterface = (*Application)(nil)

func (app *Application) Routes() http.Handler {
	r := chi.NewRouter()

	r.NotFound(middleware.NotFoundHandler)
	r.MethodNotAllowed(middleware.MethodNotAllowedHandler)

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(otelchi.Middleware(serviceName, otelchi.WithChiRoutes(r)))
	r.Use(middleware.RequestLogger(app.logger))
	r.Use(middleware.RecoverPanic)
	r.Use(middleware.Metrics(app.metrics))
	r.Use(cors.New(cors.Options{
		AllowedOrigins: app.config.CorsOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type", HeaderAPIKey},
		MaxAge:         300,
	}).Handler)

	api.HandlerWithOptions(app, api.ChiServerOptions{
		BaseRouter:       r,
		Middlewares:      []api.MiddlewareFunc{app.limitCheckoutLookups, app.authenticateSecured},
		ErrorHandlerFunc: app.invalidParamResponse,
	})

	r.Method(http.MethodGet, "/metrics", app.metrics.Handler())
	r.Get("/openapi.json", app.GetOpenAPISpec)

	return r
}

func (app *Application) GetHealth(w http.ResponseWriter, r *http.Request) {
	app.health.GetHealth(w, r)
}

// authenticateSecured runs the integrator API key check on every operation
// the API document secures with apiKey.
func (app *Application) authenticateSecured(next http.Handler) http.Handler {
	secured := app.requireIntegrator(next)

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := r.Context().Value(api.ApiKeyScopes).([]string); ok {
			secured.ServeHTTP(w, r)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// limitCheckoutLookups rate limits the buyer-facing checkout routes.
func (app *Application) limitCheckoutLookups(next http.Handler) http.Handler {
	limited := app.limiter.Limit(next)

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasPrefix(chi.RouteContext(r.Context()).RoutePattern(), "/api/checkout/") {
			limited.ServeHTTP(w, r)
			return
		}

		next.ServeHTTP(w, r)
	})
}
