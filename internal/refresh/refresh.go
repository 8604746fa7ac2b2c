package refresh

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/MrSnakeDoc/pulse/internal/domain"
	"github.com/MrSnakeDoc/pulse/internal/logger"
	"github.com/MrSnakeDoc/pulse/internal/repository"
)

// ErrRacingRefresh is returned when a refresh is requested while another
// one is still in flight. The rejected call has no side effect.
var ErrRacingRefresh = errors.New("requested refresh while a refresh is pending")

// historyFetchLimit bounds the concurrent history fetches of one refresh.
const historyFetchLimit = 16

const (
	kindInitial     = "initial"
	kindIncremental = "incremental"
	kindGraph       = "graph"
)

// Backend is the transport the orchestrator pulls from.
type Backend interface {
	Configuration(ctx context.Context, key domain.ServiceKey) (domain.ServiceConfiguration, error)
	Configurations(ctx context.Context, includeHidden bool) ([]domain.ServiceConfiguration, error)
	Dependencies(ctx context.Context, key domain.ServiceKey) ([]domain.ServiceReference, error)
	Dependents(ctx context.Context, key domain.ServiceKey) ([]domain.ServiceReference, error)
	LatestStatuses(ctx context.Context) ([]domain.RefinedStatus, error)
	ServiceHistory(ctx context.Context, key domain.ServiceKey) ([]domain.RefinedStatus, error)
}

// Reloader is implemented by backends that re-read their source before an
// incremental refresh. Reload runs inside the single-flight guard, so a
// rejected refresh never swaps the data under the one in flight.
type Reloader interface {
	Reload() error
}

// Orchestrator decides what to fetch and writes the results into the
// repository. At most one refresh runs at a time; writes made before a
// failure are kept.
type Orchestrator struct {
	backend Backend
	repo    *repository.Repository
	logger  logger.Logger
	pending atomic.Bool
}

// New creates an idle orchestrator.
func New(backend Backend, repo *repository.Repository, log logger.Logger) *Orchestrator {
	return &Orchestrator{
		backend: backend,
		repo:    repo,
		logger:  log,
	}
}

// Pending reports whether a refresh is in flight.
func (o *Orchestrator) Pending() bool {
	return o.pending.Load()
}

// InitialRefresh loads the visible configurations and backfills the history
// of every visible service that has none yet.
func (o *Orchestrator) InitialRefresh(ctx context.Context) error {
	return o.run(ctx, kindInitial, o.refreshVisibleWithHistory)
}

// IncrementalRefresh does what InitialRefresh does, then stores the latest
// status of every service as individual records. A Reloader backend is
// reloaded first; on reload failure nothing is fetched.
func (o *Orchestrator) IncrementalRefresh(ctx context.Context) error {
	return o.run(ctx, kindIncremental, func(ctx context.Context, log logger.Logger) error {
		if r, ok := o.backend.(Reloader); ok {
			if err := r.Reload(); err != nil {
				return fmt.Errorf("reload backend: %w", err)
			}
		}
		if err := o.refreshVisibleWithHistory(ctx, log); err != nil {
			return err
		}
		return o.refreshLatestStatuses(ctx, log)
	})
}

// RefreshForGraph walks the dependency and the dependent edges of key
// concurrently and caches every node it reaches.
func (o *Orchestrator) RefreshForGraph(ctx context.Context, key domain.ServiceKey) error {
	return o.run(ctx, kindGraph, func(ctx context.Context, log logger.Logger) error {
		log = log.With(logger.String("service", key.String()))

		g, ctx := errgroup.WithContext(ctx)
		g.Go(func() error { return o.walk(ctx, log, key, dependencies) })
		g.Go(func() error { return o.walk(ctx, log, key, dependents) })
		return g.Wait()
	})
}

func (o *Orchestrator) run(ctx context.Context, kind string, fn func(context.Context, logger.Logger) error) error {
	if !o.pending.CompareAndSwap(false, true) {
		refreshesTotal.WithLabelValues(kind, resultRacing).Inc()
		return ErrRacingRefresh
	}
	defer o.pending.Store(false)

	log := o.logger.With(
		logger.String("refresh_id", uuid.NewString()),
		logger.String("kind", kind))
	start := time.Now()
	log.Debug("refresh started")

	err := fn(ctx, log)

	elapsed := time.Since(start)
	refreshDuration.WithLabelValues(kind).Observe(elapsed.Seconds())
	if err != nil {
		refreshesTotal.WithLabelValues(kind, resultError).Inc()
		log.Warn("refresh failed", logger.Duration("duration", elapsed), logger.Error(err))
		return err
	}
	refreshesTotal.WithLabelValues(kind, resultOK).Inc()
	lastSuccess.WithLabelValues(kind).SetToCurrentTime()
	log.Info("refresh completed",
		logger.Duration("duration", elapsed),
		logger.Int("services", o.repo.Count()))
	return nil
}

func (o *Orchestrator) refreshVisibleWithHistory(ctx context.Context, log logger.Logger) error {
	visible, err := o.backend.Configurations(ctx, false)
	if err != nil {
		return fmt.Errorf("fetch visible configurations: %w", err)
	}
	o.repo.SetVisibleConfigurations(visible)

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(historyFetchLimit)
	backfilled := 0
	for _, cfg := range visible {
		key := cfg.Key()
		if o.repo.IsHistoryInitialized(key) {
			continue
		}
		backfilled++
		g.Go(func() error {
			history, err := o.backend.ServiceHistory(ctx, key)
			if err != nil {
				return fmt.Errorf("fetch history of %s: %w", key, err)
			}
			o.repo.StoreHistory(key, history)
			return nil
		})
	}
	err = g.Wait()

	log.Debug("visible configurations refreshed",
		logger.Int("visible", len(visible)),
		logger.Int("history_backfills", backfilled))
	return err
}

func (o *Orchestrator) refreshLatestStatuses(ctx context.Context, log logger.Logger) error {
	latest, err := o.backend.LatestStatuses(ctx)
	if err != nil {
		return fmt.Errorf("fetch latest statuses: %w", err)
	}
	stored := 0
	for _, status := range latest {
		if o.repo.StoreStatus(status) {
			stored++
		}
	}
	log.Debug("latest statuses stored",
		logger.Int("received", len(latest)),
		logger.Int("stored", stored))
	return nil
}
