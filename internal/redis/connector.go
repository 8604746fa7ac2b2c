package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/MrSnakeDoc/pulse/internal/logger"
)

// ErrDisabled is returned by Connect when no address is configured.
var ErrDisabled = errors.New("redis mirror disabled")

// Options defines the Redis client and its connection retry policy.
type Options struct {
	Addr           string        // ex: "localhost:6379", empty disables the mirror
	User           string        // optional username
	Password       string        // optional password
	DB             int           // Redis DB number
	DialTimeout    time.Duration // dial timeout
	ReadTimeout    time.Duration // read timeout
	WriteTimeout   time.Duration // write timeout
	PoolSize       int           // connection pool size
	ConnectTimeout time.Duration // total time allowed for connection attempts (ex: 30s)
	RetryInterval  time.Duration // initial wait between retries, doubled each attempt
	MaxWait        time.Duration // cap on the wait between retries
	PingTimeout    time.Duration // timeout of each ping attempt
	WarnThreshold  int           // attempts logged at warn before switching to error
}

func (o Options) validate() error {
	switch {
	case o.ConnectTimeout <= 0:
		return fmt.Errorf("ConnectTimeout must be > 0, got %v", o.ConnectTimeout)
	case o.RetryInterval <= 0:
		return fmt.Errorf("RetryInterval must be > 0, got %v", o.RetryInterval)
	case o.MaxWait <= 0:
		return fmt.Errorf("MaxWait must be > 0, got %v", o.MaxWait)
	case o.PingTimeout <= 0:
		return fmt.Errorf("PingTimeout must be > 0, got %v", o.PingTimeout)
	case o.WarnThreshold < 0:
		return fmt.Errorf("WarnThreshold must be >= 0, got %d", o.WarnThreshold)
	}
	return nil
}

// Connect builds a client and pings it with exponential backoff until it
// answers, ConnectTimeout elapses or ctx is canceled. The client is closed
// on failure.
func Connect(ctx context.Context, opts Options, log logger.Logger) (*redis.Client, error) {
	if opts.Addr == "" {
		return nil, ErrDisabled
	}
	if err := opts.validate(); err != nil {
		log.Error("invalid redis options", logger.Error(err))
		return nil, err
	}

	client := redis.NewClient(&redis.Options{
		Addr:         opts.Addr,
		Username:     opts.User,
		Password:     opts.Password,
		DB:           opts.DB,
		DialTimeout:  opts.DialTimeout,
		ReadTimeout:  opts.ReadTimeout,
		WriteTimeout: opts.WriteTimeout,
		PoolSize:     opts.PoolSize,
	})

	log = log.With(logger.String("addr", opts.Addr))
	if err := pingWithRetry(ctx, client, opts, log); err != nil {
		_ = client.Close()
		return nil, err
	}
	return client, nil
}

func pingWithRetry(ctx context.Context, client *redis.Client, opts Options, log logger.Logger) error {
	ctx, cancel := context.WithTimeout(ctx, opts.ConnectTimeout)
	defer cancel()

	log.Info("connecting to redis", logger.Duration("timeout", opts.ConnectTimeout))
	start := time.Now()
	wait := opts.RetryInterval

	for attempt := 1; ; attempt++ {
		pingCtx, pingCancel := context.WithTimeout(ctx, opts.PingTimeout)
		err := client.Ping(pingCtx).Err()
		pingCancel()

		if err == nil {
			if attempt > 1 {
				log.Warn("connected to redis after retry",
					logger.Int("attempts", attempt),
					logger.Duration("elapsed", time.Since(start)))
			} else {
				log.Info("connected to redis")
			}
			return nil
		}

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			log.Error("redis unavailable, giving up",
				logger.Int("attempts", attempt),
				logger.Duration("timeout", opts.ConnectTimeout),
				logger.Error(err))
			return fmt.Errorf("redis unavailable at %s after %d attempts: %w", opts.Addr, attempt, err)
		case <-timer.C:
		}

		logRetry(log, attempt, timeLeft(ctx), wait, opts.WarnThreshold, err)
		wait = min(wait*2, opts.MaxWait)
	}
}

func logRetry(log logger.Logger, attempt int, remaining, next time.Duration, warnThreshold int, err error) {
	switch {
	case remaining < 10*time.Second:
		log.Error("redis still down, timeout approaching",
			logger.Int("attempt", attempt),
			logger.Duration("remaining", remaining),
			logger.Duration("next_retry_in", next),
			logger.Error(err))
	case attempt <= warnThreshold:
		log.Warn("redis connection failed, retrying",
			logger.Int("attempt", attempt),
			logger.Duration("next_retry_in", next),
			logger.Error(err))
	default:
		log.Error("redis still unavailable",
			logger.Int("attempt", attempt),
			logger.Duration("next_retry_in", next),
			logger.Error(err))
	}
}

// timeLeft returns the remaining time before the context deadline.
func timeLeft(ctx context.Context) time.Duration {
	deadline, ok := ctx.Deadline()
	if !ok {
		return 0
	}
	return time.Until(deadline)
}
