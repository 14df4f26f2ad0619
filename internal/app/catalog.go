package app

import (
	"errors"
	"net/http"

	"github.com/metinatakli/storefront-payments/api"
	"github.com/metinatakli/storefront-payments/internal/domain"
)

func (app *Application) GetService(w http.ResponseWriter, r *http.Request, idOrSlug string) {
	service, err := app.serviceRepo.GetByIDOrSlug(r.Context(), idOrSlug)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrRecordNotFound):
			app.notFoundResponseWithErr(w, r, domain.ErrServiceNotFound)
		default:
			app.serverErrorResponse(w, r, err)
		}

		return
	}

	features := service.Features
	if features == nil {
		features = []string{}
	}

	resp := api.ServiceResponse{
		Id:          service.ID,
		Slug:        service.Slug,
		Title:       service.Title,
		Description: service.Description,
		Price:       service.Price,
		Icon:        service.Icon,
		Features:    features,
	}

	err = app.writeJSON(w, http.StatusOK, resp, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

func (app *Application) ListGateways(w http.ResponseWriter, r *http.Request) {
	entries := app.gateways.List()

	resp := api.GatewayListResponse{
		DefaultGateway: string(app.gateways.DefaultName()),
		Gateways:       make([]api.GatewayResponse, 0, len(entries)),
	}

	for _, entry := range entries {
		resp.Gateways = append(resp.Gateways, api.GatewayResponse{
			Name:             string(entry.Name),
			DisplayName:      entry.DisplayName,
			IsActive:         entry.IsActive,
			IsConfigured:     entry.IsConfigured,
			IsDefault:        entry.IsDefault,
			SupportedMethods: nonNil(entry.SupportedMethods),
			RequiredEnvVars:  nonNil(entry.RequiredEnvVars),
		})
	}

	err := app.writeJSON(w, http.StatusOK, resp, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

func (app *Application) GetOpenAPISpec(w http.ResponseWriter, r *http.Request) {
	swagger, err := api.GetSwagger()
	if err != nil {
		app.serverErrorResponse(w, r, err)
		return
	}

	err = app.writeJSON(w, http.StatusOK, swagger, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}

	return s
}
