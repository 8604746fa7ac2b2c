package routes

import (
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/MrSnakeDoc/pulse/internal/httpserver/deps"
	"github.com/MrSnakeDoc/pulse/internal/httpserver/handlers"
	"github.com/MrSnakeDoc/pulse/internal/httpserver/mw"
)

func init() { Register("ops", registerOps, middleware.Timeout(5*time.Second)) }

// registerOps mounts the probes and the operator endpoints. Probes stay
// open; infra and metrics are restricted to the allowed CIDRs.
func registerOps(r chi.Router, d deps.Deps) {
	r.Get("/healthz", handlers.Healthz(d))
	r.Get("/readyz", handlers.Readyz(d))

	r.Group(func(ops chi.Router) {
		ops.Use(mw.AllowOnlyCIDRS(d.AllowedCIDRS, d.TrustProxy, d.Logger))
		ops.Get("/infra", handlers.Infra(d))
		ops.Handle("/metrics", promhttp.Handler())
	})
}
