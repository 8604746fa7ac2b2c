package redis

import (
	"context"
	"encoding/json"
	"os"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrSnakeDoc/pulse/internal/domain"
)

// newTestClient connects to PULSE_TEST_REDIS_ADDR and skips without it.
// DB 15 is flushed before each test.
func newTestClient(t *testing.T) *redis.Client {
	t.Helper()
	addr := os.Getenv("PULSE_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("PULSE_TEST_REDIS_ADDR not set")
	}
	client := redis.NewClient(&redis.Options{Addr: addr, DB: 15})
	ctx := context.Background()
	require.NoError(t, client.Ping(ctx).Err())
	require.NoError(t, client.FlushDB(ctx).Err())
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func card(name, raw string) domain.ServiceCard {
	cfg := domain.ServiceConfiguration{Env: "prod", Name: name}
	return domain.MakeCard(cfg, domain.RefinedStatus{
		Env:         "prod",
		ServiceName: name,
		Status:      domain.ParseRawStatus(raw),
		FirstSeen:   "2024-01-01T00:00:00Z",
		LastSeen:    "2024-01-01T01:00:00Z",
	})
}

func TestSaveSnapshot(t *testing.T) {
	client := newTestClient(t)
	store := NewStore(client, time.Minute)
	ctx := context.Background()

	sub := client.Subscribe(ctx, ChannelEvents)
	defer func() { _ = sub.Close() }()
	_, err := sub.Receive(ctx)
	require.NoError(t, err)

	cards := []domain.ServiceCard{card("api", "RED(down)"), card("db", "GREEN(ok)")}
	require.NoError(t, store.SaveSnapshot(ctx, cards, domain.Summarize(cards)))

	got, err := store.LatestCards(ctx)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, domain.ColorRed, got[0].Status.Status.Color)

	members, err := client.SMembers(ctx, KeyAllServices).Result()
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"prod_api", "prod_db"}, members)

	ttl, err := client.TTL(ctx, ServiceKey("prod_api")).Result()
	require.NoError(t, err)
	assert.Greater(t, ttl, time.Duration(0))

	msg, err := sub.ReceiveMessage(ctx)
	require.NoError(t, err)
	var ev Event
	require.NoError(t, json.Unmarshal([]byte(msg.Payload), &ev))
	assert.Equal(t, 2, ev.Count)
	assert.Equal(t, domain.SummaryWarning, ev.Level)
}

func TestSaveSnapshotDropsVanishedServices(t *testing.T) {
	client := newTestClient(t)
	store := NewStore(client, time.Minute)
	ctx := context.Background()

	first := []domain.ServiceCard{card("api", "GREEN(ok)"), card("db", "GREEN(ok)")}
	require.NoError(t, store.SaveSnapshot(ctx, first, domain.Summarize(first)))

	second := first[:1]
	require.NoError(t, store.SaveSnapshot(ctx, second, domain.Summarize(second)))

	exists, err := client.Exists(ctx, ServiceKey("prod_db")).Result()
	require.NoError(t, err)
	assert.Zero(t, exists)
}

func TestLatestCardsMissingSnapshot(t *testing.T) {
	client := newTestClient(t)
	store := NewStore(client, 0)

	got, err := store.LatestCards(context.Background())
	require.NoError(t, err)
	assert.Empty(t, got)
	assert.Equal(t, DefaultSnapshotTTL, store.ttl)
}
