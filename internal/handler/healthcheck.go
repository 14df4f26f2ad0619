package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/metinatakli/storefront-payments/api"
	"github.com/metinatakli/storefront-payments/internal/config"
	"github.com/metinatakli/storefront-payments/internal/jsonutil"
	"github.com/metinatakli/storefront-payments/internal/vcs"
)

// Pinger is a dependency whose reachability decides whether the service
// reports itself as up.
type Pinger interface {
	Ping(ctx context.Context) error
}

type HealthcheckHandler struct {
	cfg     config.Config
	pingers map[string]Pinger
}

func NewHealthcheckHandler(cfg config.Config, pingers map[string]Pinger) *HealthcheckHandler {
	return &HealthcheckHandler{
		cfg:     cfg,
		pingers: pingers,
	}
}

func (h *HealthcheckHandler) GetHealth(w http.ResponseWriter, r *http.Request) {
	status := "UP"
	code := http.StatusOK

	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	for name, p := range h.pingers {
		if err := p.Ping(ctx); err != nil {
			status = "DOWN: " + name
			code = http.StatusServiceUnavailable
			break
		}
	}

	resp := api.HealthcheckResponse{
		Status: status,
		SystemInfo: api.SystemInfo{
			Version:     vcs.Version(),
			Environment: h.cfg.Env,
		},
	}

	jsonutil.WriteJSON(w, code, resp, nil)
}
