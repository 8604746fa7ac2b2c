package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/MrSnakeDoc/pulse/internal/logger"
	"github.com/MrSnakeDoc/pulse/internal/refresh"
)

// Refresher is the part of the orchestrator the poller drives.
type Refresher interface {
	InitialRefresh(ctx context.Context) error
	IncrementalRefresh(ctx context.Context) error
}

// PollerStatus is a point-in-time view of the poller health.
type PollerStatus struct {
	LastSuccess time.Time
	LastFailure time.Time
	LastError   string
	Runs        int
}

// Poller runs the initial refresh, then incremental refreshes on a ticker
// and on manual triggers.
type Poller struct {
	refresher     Refresher
	logger        logger.Logger
	interval      time.Duration
	stopCh        chan struct{}
	stopOnce      sync.Once
	manualTrigger chan struct{}

	mu     sync.RWMutex
	status PollerStatus
}

// NewPoller creates a new poller. manualTrigger may be nil.
func NewPoller(
	refresher Refresher,
	log logger.Logger,
	interval time.Duration,
	manualTrigger chan struct{},
) *Poller {
	return &Poller{
		refresher:     refresher,
		logger:        log,
		interval:      interval,
		stopCh:        make(chan struct{}),
		manualTrigger: manualTrigger,
	}
}

// Start runs the initial refresh, then starts polling. Polling starts even
// when the initial refresh fails: incremental refreshes backfill whatever
// it missed. The initial error is returned for the caller to report.
func (p *Poller) Start(ctx context.Context) error {
	err := p.refresher.InitialRefresh(ctx)
	p.record(err)

	ticker := time.NewTicker(p.interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				p.Poll(ctx)
			case <-p.manualTrigger:
				p.logger.Info("manual refresh triggered")
				p.Poll(ctx)
			case <-p.stopCh:
				return
			case <-ctx.Done():
				return
			}
		}
	}()

	if err != nil {
		return fmt.Errorf("initial refresh failed: %w", err)
	}
	return nil
}

// Stop stops the polling loop. It is safe to call more than once.
func (p *Poller) Stop() {
	p.stopOnce.Do(func() { close(p.stopCh) })
}

// Poll runs one incremental refresh. A refresh already in flight is not an
// error worth more than a warning: the next tick catches up.
func (p *Poller) Poll(ctx context.Context) {
	err := p.refresher.IncrementalRefresh(ctx)
	switch {
	case errors.Is(err, refresh.ErrRacingRefresh):
		p.logger.Warn("skipping poll, refresh already in flight")
		return
	case err != nil:
		p.logger.Error("incremental refresh failed", logger.Error(err))
	}
	p.record(err)
}

func (p *Poller) record(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.status.Runs++
	if err != nil {
		p.status.LastFailure = time.Now()
		p.status.LastError = err.Error()
		return
	}
	p.status.LastSuccess = time.Now()
	p.status.LastError = ""
}

// Status returns the current poller status.
func (p *Poller) Status() PollerStatus {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.status
}

// Ready reports whether at least one refresh has succeeded.
func (p *Poller) Ready() bool {
	return !p.Status().LastSuccess.IsZero()
}
