package handlers

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/MrSnakeDoc/pulse/internal/backend"
	"github.com/MrSnakeDoc/pulse/internal/domain"
	"github.com/MrSnakeDoc/pulse/internal/httpserver/deps"
	"github.com/MrSnakeDoc/pulse/internal/logger"
	"github.com/MrSnakeDoc/pulse/internal/refresh"
)

type graphResponse struct {
	Root         domain.ServiceReference `json:"root"`
	Dependencies []domain.GraphCard      `json:"dependencies"`
	Dependents   []domain.GraphCard      `json:"dependents"`
	History      []domain.ServiceCard    `json:"history"`
}

// Graph refreshes the subgraph around {env}/{service} and serves both
// traversals plus the merged history of every reachable node.
func Graph(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		key := domain.ServiceKey{Environment: chi.URLParam(r, "env"), Name: chi.URLParam(r, "service")}
		if key.Environment == "" || key.Name == "" {
			writeError(w, http.StatusBadRequest, "environment and service are required")
			return
		}

		if err := d.Graph.RefreshForGraph(r.Context(), key); err != nil {
			code, msg := graphError(err)
			d.Logger.Warn("graph refresh failed",
				logger.String("service", key.String()),
				logger.Int("status", code),
				logger.String("request_id", middleware.GetReqID(r.Context())),
				logger.Error(err))
			writeError(w, code, msg)
			return
		}

		writeJSON(w, http.StatusOK, graphResponse{
			Root:         domain.ReferenceTo(key),
			Dependencies: nonNil(d.Cards.DependenciesGraphCards(key)),
			Dependents:   nonNil(d.Cards.DependentsGraphCards(key)),
			History:      nonNil(d.Cards.HistoryGraphCards(key)),
		})
	}
}

func graphError(err error) (int, string) {
	switch {
	case errors.Is(err, refresh.ErrRacingRefresh):
		return http.StatusConflict, "a refresh is already in progress, retry shortly"
	case backend.IsNotFound(err):
		return http.StatusNotFound, "unknown service"
	default:
		return http.StatusBadGateway, "status backend unavailable"
	}
}
