package routes

import (
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/MrSnakeDoc/pulse/internal/httpserver/deps"
	"github.com/MrSnakeDoc/pulse/internal/httpserver/handlers"
	"github.com/MrSnakeDoc/pulse/internal/httpserver/mw"
)

const (
	readTimeout  = 5 * time.Second
	graphTimeout = 30 * time.Second
)

func init() { Register("api", registerAPI) }

// registerAPI mounts the card API. Every route shares one per-client rate
// limiter; the stream carries no timeout since it lives as long as the
// client stays connected.
func registerAPI(r chi.Router, d deps.Deps) {
	r.Route("/api/v1", func(api chi.Router) {
		api.Use(mw.EnforceHost(d.AllowedHosts, d.Logger))
		api.Use(mw.RateLimit(mw.RateLimitConfig{
			Burst:             d.RateLimitBurst,
			RefillPerIPPerMin: d.RateLimitPerMin,
			MaxEntries:        10000,
			TrustProxy:        d.TrustProxy,
		}))

		api.With(middleware.Timeout(readTimeout)).Get("/cards/latest", handlers.LatestCards(d))
		api.With(middleware.Timeout(readTimeout)).Get("/cards/history", handlers.HistoryCards(d))
		api.With(middleware.Timeout(readTimeout)).Get("/summary", handlers.Summary(d))
		api.With(middleware.Timeout(graphTimeout)).Get("/graph/{env}/{service}", handlers.Graph(d))
		api.Get("/cards/stream", handlers.Stream(d))

		api.With(mw.AllowOnlyCIDRS(d.AllowedCIDRS, d.TrustProxy, d.Logger)).
			Post("/refresh", handlers.Refresh(d))
	})
}
