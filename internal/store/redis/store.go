package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/MrSnakeDoc/pulse/internal/domain"
)

// DefaultSnapshotTTL applies when the store is built with a zero TTL.
const DefaultSnapshotTTL = 10 * time.Minute

// Event is published on ChannelEvents after each snapshot.
type Event struct {
	Type    string              `json:"type"`
	Count   int                 `json:"count"`
	Level   domain.SummaryLevel `json:"level"`
	Message string              `json:"message"`
	At      time.Time           `json:"at"`
}

const eventSnapshot = "cards.latest"

// Store mirrors card snapshots into Redis for external consumers.
type Store struct {
	client *redis.Client
	ttl    time.Duration
}

// NewStore creates a new Redis store
func NewStore(client *redis.Client, ttl time.Duration) *Store {
	if ttl <= 0 {
		ttl = DefaultSnapshotTTL
	}
	return &Store{
		client: client,
		ttl:    ttl,
	}
}

// SaveSnapshot replaces the mirrored latest cards and summary in one
// transaction, then publishes an Event. Every key expires after the TTL so
// a stopped mirror does not leave stale health data behind.
func (s *Store) SaveSnapshot(ctx context.Context, cards []domain.ServiceCard, summary domain.Summary) error {
	if cards == nil {
		cards = []domain.ServiceCard{}
	}
	latest, err := json.Marshal(cards)
	if err != nil {
		return fmt.Errorf("failed to marshal cards: %w", err)
	}
	sum, err := json.Marshal(summary)
	if err != nil {
		return fmt.Errorf("failed to marshal summary: %w", err)
	}

	previous, err := s.client.SMembers(ctx, KeyAllServices).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("failed to read mirrored services: %w", err)
	}

	current := make(map[string]struct{}, len(cards))
	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, KeyLatestCards, latest, s.ttl)
		pipe.Set(ctx, KeySummary, sum, s.ttl)
		pipe.Del(ctx, KeyAllServices)

		for _, card := range cards {
			id := card.Status.Key().String()
			data, err := json.Marshal(card)
			if err != nil {
				return fmt.Errorf("failed to marshal card %s: %w", id, err)
			}
			current[id] = struct{}{}
			pipe.Set(ctx, ServiceKey(id), data, s.ttl)
			pipe.SAdd(ctx, KeyAllServices, id)
		}
		for _, id := range previous {
			if _, ok := current[id]; !ok {
				pipe.Del(ctx, ServiceKey(id))
			}
		}
		pipe.Expire(ctx, KeyAllServices, s.ttl)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to save snapshot: %w", err)
	}

	return s.publish(ctx, Event{
		Type:    eventSnapshot,
		Count:   len(cards),
		Level:   summary.Level,
		Message: summary.Message,
		At:      time.Now().UTC(),
	})
}

func (s *Store) publish(ctx context.Context, ev Event) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}
	if err := s.client.Publish(ctx, ChannelEvents, data).Err(); err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}
	return nil
}

// LatestCards reads back the mirrored snapshot. A missing snapshot yields
// an empty slice.
func (s *Store) LatestCards(ctx context.Context) ([]domain.ServiceCard, error) {
	data, err := s.client.Get(ctx, KeyLatestCards).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return []domain.ServiceCard{}, nil
		}
		return nil, fmt.Errorf("failed to get latest cards: %w", err)
	}

	var cards []domain.ServiceCard
	if err := json.Unmarshal(data, &cards); err != nil {
		return nil, fmt.Errorf("failed to unmarshal latest cards: %w", err)
	}
	return cards, nil
}
