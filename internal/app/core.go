package app

import (
	"context"
	"fmt"

	"github.com/MrSnakeDoc/pulse/internal/backend"
	"github.com/MrSnakeDoc/pulse/internal/cards"
	"github.com/MrSnakeDoc/pulse/internal/config"
	"github.com/MrSnakeDoc/pulse/internal/logger"
	"github.com/MrSnakeDoc/pulse/internal/refresh"
	"github.com/MrSnakeDoc/pulse/internal/repository"
)

const (
	modeHTTP    = "http"
	modeFixture = "fixture"
)

// Core is the synchronization engine: a backend, the repository it feeds,
// the orchestrator deciding what to fetch and the card queries on top.
// It has no background activity of its own.
type Core struct {
	Backend      refresh.Backend
	BackendMode  string
	Repository   *repository.Repository
	Orchestrator *refresh.Orchestrator
	Cards        *cards.Service
}

// NewCore selects the backend from cfg and wires the engine around it.
func NewCore(cfg *config.Config, log logger.Logger) (*Core, error) {
	var (
		b    refresh.Backend
		mode string
	)

	if cfg.BackendFixture != "" {
		f, err := backend.NewFixture(cfg.BackendFixture)
		if err != nil {
			return nil, fmt.Errorf("failed to load backend fixture: %w", err)
		}
		log.Info("using fixture backend", logger.String("file", cfg.BackendFixture))
		b, mode = f, modeFixture
	} else {
		c, err := backend.NewClient(backend.Options{
			BaseURL:           cfg.BackendURL,
			Timeout:           cfg.BackendTimeout,
			RequestsPerSecond: cfg.BackendRPS,
			Burst:             cfg.BackendBurst,
		}, log)
		if err != nil {
			return nil, fmt.Errorf("failed to create backend client: %w", err)
		}
		log.Info("using http backend", logger.String("url", cfg.BackendURL))
		b, mode = c, modeHTTP
	}

	repo := repository.New()
	return &Core{
		Backend:      b,
		BackendMode:  mode,
		Repository:   repo,
		Orchestrator: refresh.New(b, repo, log),
		Cards:        cards.NewService(repo),
	}, nil
}

// InitialRefresh delegates to the orchestrator.
func (c *Core) InitialRefresh(ctx context.Context) error {
	return c.Orchestrator.InitialRefresh(ctx)
}

// IncrementalRefresh delegates to the orchestrator. In fixture mode the
// file is re-read first, so edits show up without a restart; a broken file
// fails the refresh and keeps the previous data.
func (c *Core) IncrementalRefresh(ctx context.Context) error {
	return c.Orchestrator.IncrementalRefresh(ctx)
}
