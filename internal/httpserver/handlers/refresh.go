package handlers

import (
	"net/http"

	"github.com/MrSnakeDoc/pulse/internal/httpserver/deps"
	"github.com/MrSnakeDoc/pulse/internal/logger"
	"github.com/MrSnakeDoc/pulse/internal/utils"
)

type refreshResponse struct {
	Queued  bool   `json:"queued"`
	Message string `json:"message"`
}

// Refresh queues a manual incremental refresh for the poller.
func Refresh(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ip := utils.ClientIP(r, d.TrustProxy)

		select {
		case d.RefreshTrigger <- struct{}{}:
			d.Logger.Info("manual refresh queued via endpoint", logger.String("remote_ip", ip))
			writeJSON(w, http.StatusAccepted, refreshResponse{Queued: true, Message: "refresh queued"})
		default:
			d.Logger.Warn("manual refresh already queued", logger.String("remote_ip", ip))
			writeJSON(w, http.StatusTooManyRequests, refreshResponse{Message: "refresh already queued, please wait"})
		}
	}
}
