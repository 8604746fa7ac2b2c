package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/MrSnakeDoc/pulse/internal/domain"
	"github.com/MrSnakeDoc/pulse/internal/logger"
)

// CardSink receives card snapshots.
type CardSink interface {
	SaveSnapshot(ctx context.Context, cards []domain.ServiceCard, summary domain.Summary) error
}

// CardSource streams the latest visible cards.
type CardSource interface {
	WatchLatestVisibleCards(ctx context.Context) <-chan []domain.ServiceCard
}

// CardMirror copies every latest-cards snapshot to a sink, best effort.
type CardMirror struct {
	source  CardSource
	sink    CardSink
	logger  logger.Logger
	timeout time.Duration
	done    chan struct{}

	mu       sync.RWMutex
	lastSave time.Time
	lastErr  error
}

// NewCardMirror creates a mirror; timeout bounds each sink write.
func NewCardMirror(source CardSource, sink CardSink, log logger.Logger, timeout time.Duration) *CardMirror {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &CardMirror{
		source:  source,
		sink:    sink,
		logger:  log,
		timeout: timeout,
		done:    make(chan struct{}),
	}
}

// Start mirrors snapshots until ctx is done. Empty snapshots are skipped so
// a restart does not wipe the mirror before the first refresh lands.
func (m *CardMirror) Start(ctx context.Context) {
	updates := m.source.WatchLatestVisibleCards(ctx)
	go func() {
		defer close(m.done)
		for cards := range updates {
			if len(cards) == 0 {
				continue
			}
			m.save(ctx, cards)
		}
	}()
}

// Wait blocks until the mirror loop has exited.
func (m *CardMirror) Wait() {
	<-m.done
}

func (m *CardMirror) save(ctx context.Context, cards []domain.ServiceCard) {
	ctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	summary := domain.Summarize(cards)
	err := m.sink.SaveSnapshot(ctx, cards, summary)

	m.mu.Lock()
	m.lastErr = err
	if err == nil {
		m.lastSave = time.Now()
	}
	m.mu.Unlock()

	if err != nil {
		m.logger.Warn("failed to mirror cards", logger.Error(err))
		return
	}
	m.logger.Debug("cards mirrored",
		logger.Int("count", len(cards)),
		logger.String("summary", summary.Message))
}

// LastSave returns the time of the last successful write and the error of
// the last attempt.
func (m *CardMirror) LastSave() (time.Time, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.lastSave, m.lastErr
}
