// Package httptransport assembles the HTTP surface: platform middleware,
// operational endpoints and the registration routes.
package httptransport

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/vemurivi/CareerShotApi/internal/platform/middleware"
	"github.com/vemurivi/CareerShotApi/internal/register"
)

// RouterConfig carries everything the router mounts.
type RouterConfig struct {
	Logger *slog.Logger

	Register *register.Handler

	// JWTValidator, when non-nil, gates every /api route behind bearer-token
	// auth. Nil leaves the API open (local development).
	JWTValidator middleware.JWTValidator
}

// NewRouter wires middleware and routes. Operational endpoints (health,
// metrics) stay outside the auth gate.
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recovery(cfg.Logger))
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(cfg.Logger))

	r.Get("/healthz", handleHealth)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	api := chi.NewRouter()
	if cfg.JWTValidator != nil {
		api.Use(middleware.RequireAuth(cfg.JWTValidator, cfg.Logger))
	}
	cfg.Register.Register(api)
	r.Mount("/", api)

	return r
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}
