// internal/httpserver/server.go
package httpserver

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/MrSnakeDoc/pulse/internal/httpserver/deps"
	"github.com/MrSnakeDoc/pulse/internal/httpserver/mw"
	"github.com/MrSnakeDoc/pulse/internal/httpserver/routes"
	"github.com/MrSnakeDoc/pulse/internal/logger"
)

// Server wraps the HTTP server and its dependencies.
type Server struct {
	http    *http.Server
	logger  logger.Logger
	started time.Time
	cancel  context.CancelFunc // ends hijacked connections on Stop
}

// NewRouter builds the router with the global middlewares and every
// registered route. Timeouts are applied per route group so the websocket
// stream is not cut.
func NewRouter(d deps.Deps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.GetHead)
	r.Use(middleware.RequestID) // X-Request-ID on each request
	r.Use(middleware.Recoverer) // never crash the process on panic
	r.Use(mw.Log(d.Logger))

	routes.RegisterAll(r, d)
	return r
}

// New builds the HTTP server listening on addr.
func New(addr string, d deps.Deps) *Server {
	base, cancel := context.WithCancel(context.Background())
	s := &http.Server{
		BaseContext:       func(net.Listener) context.Context { return base },
		Addr:              addr,
		Handler:           NewRouter(d),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      45 * time.Second,
		IdleTimeout:       60 * time.Second,
		MaxHeaderBytes:    1 << 20,
	}

	return &Server{
		http:    s,
		logger:  d.Logger,
		started: d.StartTime,
		cancel:  cancel,
	}
}

// Start runs the HTTP server (blocks until error or shutdown).
func (s *Server) Start() error {
	s.logger.Info("HTTP server listening", logger.String("addr", s.http.Addr))
	err := s.http.ListenAndServe()
	// http.ErrServerClosed is expected on graceful shutdown.
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Stop gracefully shuts down the server with the provided context deadline.
func (s *Server) Stop(ctx context.Context) error {
	s.logger.Info("HTTP server shutting down", logger.Duration("uptime", time.Since(s.started)))
	defer s.cancel()
	return s.http.Shutdown(ctx)
}
