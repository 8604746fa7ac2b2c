package routes

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/pulse/internal/httpserver/deps"
	"github.com/MrSnakeDoc/pulse/internal/logger"
)

type (
	// Mount adds the routes of one group to r.
	Mount      func(r chi.Router, d deps.Deps)
	Middleware = func(http.Handler) http.Handler
)

// group is a named set of routes sharing the same middlewares.
type group struct {
	name  string
	mount Mount
	mws   []Middleware
}

// table keeps route groups in registration order.
type table struct {
	groups []group
}

func (t *table) add(name string, mount Mount, mws []Middleware) {
	for _, g := range t.groups {
		if g.name == name {
			panic(fmt.Sprintf("routes: group %q registered twice", name))
		}
	}
	t.groups = append(t.groups, group{name: name, mount: mount, mws: mws})
}

func (t *table) mountAll(r chi.Router, d deps.Deps) {
	for _, g := range t.groups {
		target := r
		if len(g.mws) > 0 {
			target = r.With(g.mws...)
		}
		g.mount(target, d)
		if d.Logger != nil {
			d.Logger.Debug("route group mounted",
				logger.String("group", g.name),
				logger.Int("middlewares", len(g.mws)))
		}
	}
}

var groups table

// Register adds a named route group from an init function. mws wrap only
// that group. Registering the same name twice panics.
func Register(name string, mount Mount, mws ...Middleware) {
	groups.add(name, mount, mws)
}

// RegisterAll mounts every group on r in registration order.
func RegisterAll(r chi.Router, d deps.Deps) {
	groups.mountAll(r, d)
}
