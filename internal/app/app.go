package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/MrSnakeDoc/pulse/internal/config"
	"github.com/MrSnakeDoc/pulse/internal/httpserver"
	"github.com/MrSnakeDoc/pulse/internal/httpserver/deps"
	"github.com/MrSnakeDoc/pulse/internal/logger"
	"github.com/MrSnakeDoc/pulse/internal/redis"
	"github.com/MrSnakeDoc/pulse/internal/scheduler"
	redisstore "github.com/MrSnakeDoc/pulse/internal/store/redis"
	"github.com/MrSnakeDoc/pulse/internal/utils"
	"github.com/MrSnakeDoc/pulse/internal/version"
)

type App struct {
	cfg         *config.Config
	logger      logger.Logger
	core        *Core
	poller      *scheduler.Poller
	mirror      *scheduler.CardMirror
	redisClient *goredis.Client
	server      *httpserver.Server
}

// New wires the daemon. A configured but unreachable Redis fails fast; an
// unset PULSE_REDIS_ADDR disables the mirror.
func New(ctx context.Context, cfg *config.Config, log logger.Logger) (*App, error) {
	core, err := NewCore(cfg, log)
	if err != nil {
		return nil, err
	}

	redisClient, err := redis.Connect(ctx, RedisOptions(cfg), log)
	switch {
	case errors.Is(err, redis.ErrDisabled):
		log.Info("redis mirror disabled")
	case err != nil:
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	default:
		log.Info("redis initialized successfully", logger.String("addr", cfg.RedisAddr))
	}

	var mirror *scheduler.CardMirror
	if redisClient != nil {
		store := redisstore.NewStore(redisClient, cfg.MirrorTTL)
		mirror = scheduler.NewCardMirror(core.Cards, store, log, cfg.RedisWT)
	}

	refreshTrigger := make(chan struct{}, 1)
	poller := scheduler.NewPoller(core, log, cfg.PollInterval, refreshTrigger)

	d := deps.Deps{
		Logger:          log,
		StartTime:       time.Now(),
		Build:           version.Get(),
		TimeNow:         time.Now,
		AllowedHosts:    cfg.AllowedHosts,
		AllowedCIDRS:    cfg.AllowedCIDRS,
		TrustProxy:      cfg.TrustProxy,
		RateLimitBurst:  cfg.RateLimitBurst,
		RateLimitPerMin: cfg.RateLimitPerMin,
		BackendMode:     core.BackendMode,
		Repository:      core.Repository,
		Cards:           core.Cards,
		Graph:           core.Orchestrator,
		Poller:          poller,
		RefreshTrigger:  refreshTrigger,
	}
	if redisClient != nil {
		d.RedisClient = redisClient
		d.Mirror = mirror
	}

	return &App{
		cfg:         cfg,
		logger:      log,
		core:        core,
		poller:      poller,
		mirror:      mirror,
		redisClient: redisClient,
		server:      httpserver.New(cfg.ListenPort, d),
	}, nil
}

// RedisOptions maps the configuration onto the connector options.
func RedisOptions(cfg *config.Config) redis.Options {
	return redis.Options{
		Addr:           cfg.RedisAddr,
		User:           cfg.RedisUser,
		Password:       cfg.RedisPassword,
		DB:             cfg.RedisDB,
		DialTimeout:    cfg.RedisDT,
		ReadTimeout:    cfg.RedisRT,
		WriteTimeout:   cfg.RedisWT,
		PoolSize:       cfg.RedisPoolSize,
		ConnectTimeout: cfg.RedisConnectTimeout,
		RetryInterval:  cfg.RedisRetryInterval,
		MaxWait:        cfg.RedisMaxWait,
		PingTimeout:    cfg.RedisPingTimeout,
		WarnThreshold:  cfg.RedisWarnThreshold,
	}
}

// Run serves until ctx is canceled or SIGINT/SIGTERM arrives, then shuts
// down gracefully.
func (a *App) Run(ctx context.Context) error {
	a.logger.Info("starting pulse",
		logger.String("build", version.Get().String()),
		logger.String("addr", a.cfg.ListenPort),
		logger.String("backend", a.core.BackendMode))

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		if err := a.server.Start(); err != nil {
			errCh <- fmt.Errorf("http server error: %w", err)
		}
	}()

	if a.mirror != nil {
		a.mirror.Start(ctx)
	}

	// The server is already up so /readyz can report the failure; polling
	// keeps retrying in the background.
	if err := a.poller.Start(ctx); err != nil {
		a.logger.Warn("serving without data until the backend answers", logger.Error(err))
	} else {
		a.logger.Info("poller started", logger.Duration("interval", a.cfg.PollInterval))
	}

	select {
	case <-ctx.Done():
		a.logger.Info("shutting down gracefully")
	case err := <-errCh:
		return err
	}

	a.poller.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
	defer cancel()
	if err := a.server.Stop(shutdownCtx); err != nil {
		return fmt.Errorf("failed to stop server: %w", err)
	}

	if a.mirror != nil {
		a.mirror.Wait()
	}
	if a.redisClient != nil {
		utils.CloseLogged(a.redisClient, a.logger, "redis")
	}

	a.logger.Info("pulse stopped cleanly")
	return nil
}
