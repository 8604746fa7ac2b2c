package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/MrSnakeDoc/pulse/internal/httpserver/deps"
	"github.com/MrSnakeDoc/pulse/internal/version"
)

const timeLayout = "2006-01-02 15:04:05"

type componentStatus struct {
	OK             bool   `json:"ok"`
	ServicesLoaded *int   `json:"services_loaded,omitempty"`
	LastRefresh    string `json:"last_refresh,omitempty"`
	Mode           string `json:"mode,omitempty"`
	Impact         string `json:"impact,omitempty"`
	Error          string `json:"error,omitempty"`
}

type infraResponse struct {
	Mode       string                     `json:"mode"`
	Build      version.Info               `json:"build"`
	Components map[string]componentStatus `json:"components"`
}

// Infra reports the state of every moving part: the backend poller, the
// in-memory repository, Redis and the card mirror.
func Infra(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		components := map[string]componentStatus{
			"backend":    checkBackend(d),
			"repository": checkRepository(d),
			"redis":      checkRedis(r.Context(), d),
			"mirror":     checkMirror(d),
		}

		writeJSON(w, http.StatusOK, infraResponse{
			Mode:       determineMode(components),
			Build:      d.Build,
			Components: components,
		})
	}
}

func determineMode(components map[string]componentStatus) string {
	if repo, ok := components["repository"]; ok && !repo.OK {
		return "critical" // nothing to show
	}
	for _, name := range []string{"backend", "redis", "mirror"} {
		if c, ok := components[name]; ok && !c.OK && c.Mode != "disabled" {
			return "degraded"
		}
	}
	return "operational"
}

func checkBackend(d deps.Deps) componentStatus {
	st := d.Poller.Status()
	c := componentStatus{OK: st.LastError == "", Mode: d.BackendMode, LastRefresh: "never"}
	if !st.LastSuccess.IsZero() {
		c.LastRefresh = st.LastSuccess.Format(timeLayout)
	}
	if d.Graph != nil && d.Graph.Pending() {
		c.Impact = "refresh-in-flight"
	}
	if !c.OK {
		c.Error = st.LastError
		c.Impact = "stale-cards"
	}
	return c
}

func checkRepository(d deps.Deps) componentStatus {
	count := d.Repository.Count()
	c := componentStatus{OK: count > 0, ServicesLoaded: &count, LastRefresh: "never"}
	if last := d.Repository.LastChange(); !last.IsZero() {
		c.LastRefresh = last.Format(timeLayout)
	}
	return c
}

func checkRedis(ctx context.Context, d deps.Deps) componentStatus {
	if d.RedisClient == nil {
		return componentStatus{OK: false, Mode: "disabled", Impact: "mirror-disabled"}
	}

	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	if err := d.RedisClient.Ping(ctx).Err(); err != nil {
		return componentStatus{
			OK:     false,
			Mode:   "degraded",
			Impact: "mirror-stale",
			Error:  err.Error(),
		}
	}
	return componentStatus{OK: true, Mode: "optimal"}
}

func checkMirror(d deps.Deps) componentStatus {
	if d.Mirror == nil {
		return componentStatus{OK: false, Mode: "disabled"}
	}
	last, err := d.Mirror.LastSave()
	c := componentStatus{OK: err == nil, LastRefresh: "never"}
	if !last.IsZero() {
		c.LastRefresh = last.Format(timeLayout)
	}
	if err != nil {
		c.Error = err.Error()
	}
	return c
}
