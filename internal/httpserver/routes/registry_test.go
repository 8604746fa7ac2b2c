package routes

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"

	"github.com/MrSnakeDoc/pulse/internal/httpserver/deps"
	"github.com/MrSnakeDoc/pulse/internal/logger"
)

func tagged(value string) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Add("X-Group", value)
			next.ServeHTTP(w, r)
		})
	}
}

func ok(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusNoContent) }

func TestTableScopesMiddlewaresToGroup(t *testing.T) {
	var tbl table
	tbl.add("plain", func(r chi.Router, _ deps.Deps) { r.Get("/plain", ok) }, nil)
	tbl.add("wrapped", func(r chi.Router, _ deps.Deps) { r.Get("/wrapped", ok) }, []Middleware{tagged("wrapped")})

	r := chi.NewRouter()
	tbl.mountAll(r, deps.Deps{Logger: logger.NewNop()})

	tests := []struct {
		path string
		want string
	}{
		{"/plain", ""},
		{"/wrapped", "wrapped"},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tt.path, nil))

			assert.Equal(t, http.StatusNoContent, rec.Code)
			assert.Equal(t, tt.want, rec.Header().Get("X-Group"))
		})
	}
}

func TestTableRejectsDuplicateGroup(t *testing.T) {
	var tbl table
	mount := func(chi.Router, deps.Deps) {}
	tbl.add("api", mount, nil)

	assert.Panics(t, func() { tbl.add("api", mount, nil) })
}

func TestBuiltinGroupsRegistered(t *testing.T) {
	names := make([]string, 0, len(groups.groups))
	for _, g := range groups.groups {
		names = append(names, g.name)
	}

	assert.ElementsMatch(t, []string{"ops", "api"}, names)
}
