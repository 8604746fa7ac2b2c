package deps

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/MrSnakeDoc/pulse/internal/cards"
	"github.com/MrSnakeDoc/pulse/internal/domain"
	"github.com/MrSnakeDoc/pulse/internal/logger"
	"github.com/MrSnakeDoc/pulse/internal/repository"
	"github.com/MrSnakeDoc/pulse/internal/scheduler"
	"github.com/MrSnakeDoc/pulse/internal/version"
)

// GraphRefresher loads the subgraph around a service on demand.
type GraphRefresher interface {
	RefreshForGraph(ctx context.Context, key domain.ServiceKey) error
	Pending() bool
}

// PollerState reports the health of the background poller.
type PollerState interface {
	Status() scheduler.PollerStatus
	Ready() bool
}

// MirrorState reports the health of the Redis card mirror.
type MirrorState interface {
	LastSave() (time.Time, error)
}

type Deps struct {
	Logger          logger.Logger
	StartTime       time.Time
	Build           version.Info
	TimeNow         func() time.Time // for testing, defaults to time.Now
	AllowedHosts    []string         // Host headers allowed to access the server
	AllowedCIDRS    []string         // IPs allowed to access ops endpoints
	TrustProxy      bool             // true if running behind a trusted reverse proxy (e.g., cloudflared)
	RateLimitBurst  int
	RateLimitPerMin int
	BackendMode     string // "http" or "fixture"

	Repository     *repository.Repository
	Cards          *cards.Service
	Graph          GraphRefresher
	Poller         PollerState
	Mirror         MirrorState   // nil when the mirror is disabled
	RedisClient    *redis.Client // nil when the mirror is disabled
	RefreshTrigger chan struct{} // manual incremental refresh, buffer 1
}

// Now returns the current time through TimeNow when set.
func (d Deps) Now() time.Time {
	if d.TimeNow != nil {
		return d.TimeNow()
	}
	return time.Now()
}
