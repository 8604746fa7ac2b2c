package refresh

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/MrSnakeDoc/pulse/internal/domain"
	"github.com/MrSnakeDoc/pulse/internal/logger"
)

// direction selects which edge list a graph walk follows.
type direction int

const (
	dependencies direction = iota
	dependents
)

func (d direction) String() string {
	if d == dependents {
		return "dependents"
	}
	return "dependencies"
}

// walk visits every node reachable from root in one direction using an
// explicit stack. Nodes are deduplicated within this walk only.
func (o *Orchestrator) walk(ctx context.Context, log logger.Logger, root domain.ServiceKey, dir direction) error {
	stack := []domain.ServiceReference{domain.ReferenceTo(root)}
	processed := make(map[string]struct{})

	for len(stack) > 0 {
		ref := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		key := ref.Key()
		if _, seen := processed[key.String()]; seen {
			continue
		}
		processed[key.String()] = struct{}{}

		edges, err := o.refreshNode(ctx, key, dir)
		if err != nil {
			return err
		}
		stack = append(stack, edges...)
	}

	log.Debug("graph walk completed",
		logger.String("direction", dir.String()),
		logger.Int("nodes", len(processed)))
	return nil
}

// refreshNode fetches configuration, missing history and edges of key
// concurrently, then writes them in that order.
func (o *Orchestrator) refreshNode(ctx context.Context, key domain.ServiceKey, dir direction) ([]domain.ServiceReference, error) {
	var (
		cfg          domain.ServiceConfiguration
		history      []domain.RefinedStatus
		historyAsked = !o.repo.IsHistoryInitialized(key)
		edges        []domain.ServiceReference
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		cfg, err = o.backend.Configuration(gctx, key)
		if err != nil {
			return fmt.Errorf("fetch configuration of %s: %w", key, err)
		}
		return nil
	})
	if historyAsked {
		g.Go(func() (err error) {
			history, err = o.backend.ServiceHistory(gctx, key)
			if err != nil {
				return fmt.Errorf("fetch history of %s: %w", key, err)
			}
			return nil
		})
	}
	g.Go(func() (err error) {
		if dir == dependents {
			edges, err = o.backend.Dependents(gctx, key)
		} else {
			edges, err = o.backend.Dependencies(gctx, key)
		}
		if err != nil {
			return fmt.Errorf("fetch %s of %s: %w", dir, key, err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	o.repo.SetConfiguration(cfg)
	// the opposite walk may have initialized it meanwhile
	if historyAsked && !o.repo.IsHistoryInitialized(key) {
		o.repo.StoreHistory(key, history)
	}
	if dir == dependents {
		o.repo.SetDependents(key, edges)
	} else {
		o.repo.SetDependencies(key, edges)
	}
	return edges, nil
}
