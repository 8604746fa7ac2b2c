package handlers

import (
	"net/http"
	"time"

	"github.com/MrSnakeDoc/pulse/internal/httpserver/deps"
)

type readyzResponse struct {
	Ready       bool       `json:"ready"`
	LastSuccess *time.Time `json:"last_success,omitempty"`
	LastError   string     `json:"last_error,omitempty"`
}

// Readyz answers 503 until the first successful refresh.
func Readyz(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		st := d.Poller.Status()
		resp := readyzResponse{Ready: d.Poller.Ready(), LastError: st.LastError}
		if !st.LastSuccess.IsZero() {
			resp.LastSuccess = &st.LastSuccess
		}

		code := http.StatusOK
		if !resp.Ready {
			code = http.StatusServiceUnavailable
		}
		writeJSON(w, code, resp)
	}
}
