package cards

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrSnakeDoc/pulse/internal/domain"
	"github.com/MrSnakeDoc/pulse/internal/repository"
)

const (
	t1 = "2024-05-01T10:00:00Z"
	t2 = "2024-05-02T10:00:00Z"
	t3 = "2024-05-03T10:00:00Z"
)

func key(name string) domain.ServiceKey {
	return domain.ServiceKey{Environment: "prod", Name: name}
}

func addService(repo *repository.Repository, name string, firstSeens ...string) {
	repo.SetConfiguration(domain.ServiceConfiguration{Env: "prod", Name: name})
	for _, firstSeen := range firstSeens {
		repo.StoreStatus(domain.RefinedStatus{
			Env:         "prod",
			ServiceName: name,
			Status:      domain.ParseRawStatus("GREEN(ok)"),
			FirstSeen:   firstSeen,
			LastSeen:    firstSeen,
		})
	}
}

func link(repo *repository.Repository, from string, to ...string) {
	refs := make([]domain.ServiceReference, 0, len(to))
	for _, name := range to {
		refs = append(refs, domain.ReferenceTo(key(name)))
	}
	repo.SetDependencies(key(from), refs)
	for _, name := range to {
		repo.SetDependents(key(name), append(repo.Dependents(key(name)), domain.ReferenceTo(key(from))))
	}
}

// visibleFixture: "zeta" has two records, "alpha" one, "newborn" none.
func visibleFixture() *repository.Repository {
	repo := repository.New()
	repo.SetVisibleConfigurations([]domain.ServiceConfiguration{
		{Env: "prod", Name: "zeta"},
		{Env: "prod", Name: "alpha"},
		{Env: "prod", Name: "newborn"},
	})
	addService(repo, "zeta", t1, t2)
	addService(repo, "alpha", t3)
	return repo
}

// diamondFixture: A->B, A->C, B->D, C->D.
func diamondFixture() *repository.Repository {
	repo := repository.New()
	addService(repo, "A", t1)
	addService(repo, "B", t2)
	addService(repo, "C", t1, t3)
	addService(repo, "D", t2)
	link(repo, "A", "C", "B")
	link(repo, "B", "D")
	link(repo, "C", "D")
	return repo
}

func ids(cards []domain.ServiceCard) []string {
	out := make([]string, 0, len(cards))
	for _, c := range cards {
		out = append(out, c.ID)
	}
	return out
}

type node struct {
	name  string
	depth int
}

func nodes(cards []domain.GraphCard) []node {
	out := make([]node, 0, len(cards))
	for _, c := range cards {
		out = append(out, node{c.Configuration.Name, c.Depth})
	}
	return out
}

func TestLatestVisibleCards(t *testing.T) {
	svc := NewService(visibleFixture())

	cards := svc.LatestVisibleCards()

	require.Len(t, cards, 2, "a service without records is not shown")
	assert.Equal(t, []string{"prod_alpha_" + t3, "prod_zeta_" + t2}, ids(cards))
}

func TestHistoryVisibleCards(t *testing.T) {
	svc := NewService(visibleFixture())

	cards := svc.HistoryVisibleCards()

	require.Len(t, cards, 3)
	assert.Equal(t, []string{"prod_alpha_" + t3, "prod_zeta_" + t2, "prod_zeta_" + t1}, ids(cards))
}

func TestHistoryVisibleCardsStableTies(t *testing.T) {
	repo := repository.New()
	repo.SetVisibleConfigurations([]domain.ServiceConfiguration{
		{Env: "prod", Name: "b"},
		{Env: "prod", Name: "a"},
	})
	addService(repo, "b", t1)
	addService(repo, "a", t1)

	cards := NewService(repo).HistoryVisibleCards()

	assert.Equal(t, []string{"prod_b_" + t1, "prod_a_" + t1}, ids(cards))
}

func TestVisibleCardsIgnoreHiddenServices(t *testing.T) {
	repo := visibleFixture()
	addService(repo, "side", t3)

	for _, c := range NewService(repo).HistoryVisibleCards() {
		assert.NotEqual(t, "side", c.Configuration.Name)
	}
}

func TestDependenciesGraphCardsDiamond(t *testing.T) {
	svc := NewService(diamondFixture())

	cards := svc.DependenciesGraphCards(key("A"))

	assert.Equal(t, []node{{"A", 0}, {"B", 1}, {"D", 2}, {"C", 1}, {"D", 2}}, nodes(cards))
}

func TestDependentsGraphCardsDiamond(t *testing.T) {
	svc := NewService(diamondFixture())

	cards := svc.DependentsGraphCards(key("D"))

	assert.Equal(t, []node{{"D", 0}, {"B", 1}, {"A", 2}, {"C", 1}, {"A", 2}}, nodes(cards))
}

func TestGraphCardsCarryHistory(t *testing.T) {
	svc := NewService(diamondFixture())

	cards := svc.DependenciesGraphCards(key("C"))

	require.NotEmpty(t, cards)
	root := cards[0]
	assert.Equal(t, t3, root.Status.FirstSeen, "graph card shows the newest record")
	require.Len(t, root.History, 2)
	assert.Equal(t, t3, root.History[0].Status.FirstSeen)
	assert.Equal(t, t1, root.History[1].Status.FirstSeen)
}

func TestGraphCardsPruneNodesWithoutRecords(t *testing.T) {
	repo := diamondFixture()
	addService(repo, "E", t1)
	repo.SetConfiguration(domain.ServiceConfiguration{Env: "prod", Name: "empty"})
	link(repo, "D", "empty")
	link(repo, "empty", "E")

	cards := NewService(repo).DependenciesGraphCards(key("B"))

	assert.Equal(t, []node{{"B", 0}, {"D", 1}}, nodes(cards), "E is only reachable through a node without records")
	assert.Empty(t, NewService(repo).DependenciesGraphCards(key("empty")))
}

func TestGraphCardsUnknownRoot(t *testing.T) {
	svc := NewService(diamondFixture())

	assert.Empty(t, svc.DependenciesGraphCards(key("ghost")))
	assert.Empty(t, svc.HistoryGraphCards(key("ghost")))
}

func TestHistoryGraphCardsDiamond(t *testing.T) {
	svc := NewService(diamondFixture())

	cards := svc.HistoryGraphCards(key("B"))

	// D is reachable twice but its single record shows up once
	count := 0
	for _, c := range cards {
		if c.Configuration.Name == "D" {
			count++
		}
	}
	assert.Equal(t, 1, count)
	assert.Len(t, cards, 5)
	for i := 1; i < len(cards); i++ {
		assert.GreaterOrEqual(t, cards[i-1].Status.FirstSeen, cards[i].Status.FirstSeen)
	}
}

func TestHistoryGraphCardsTraverseNodesWithoutRecords(t *testing.T) {
	repo := repository.New()
	repo.SetConfiguration(domain.ServiceConfiguration{Env: "prod", Name: "empty"})
	addService(repo, "leaf", t1)
	link(repo, "empty", "leaf")

	cards := NewService(repo).HistoryGraphCards(key("empty"))

	assert.Equal(t, []string{"prod_leaf_" + t1}, ids(cards))
}

func TestViewsUnderConcurrentWrites(t *testing.T) {
	repo := diamondFixture()
	repo.SetVisibleConfigurations([]domain.ServiceConfiguration{{Env: "prod", Name: "A"}})
	svc := NewService(repo)

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 50; i++ {
			addService(repo, "A", time.Date(2025, 1, 1, 0, i, 0, 0, time.UTC).Format(time.RFC3339))
		}
	}()

	last := 0
	for running := true; running; {
		select {
		case <-done:
			running = false
		default:
		}
		history := svc.HistoryVisibleCards()
		require.GreaterOrEqual(t, len(history), last)
		last = len(history)

		graph := svc.DependenciesGraphCards(key("A"))
		require.NotEmpty(t, graph)
		assert.Equal(t, graph[0].History[0].ID, graph[0].ID)
	}
	assert.Len(t, svc.HistoryVisibleCards(), 51)
}

func TestWatchLatestVisibleCards(t *testing.T) {
	repo := visibleFixture()
	svc := NewService(repo)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	updates := svc.WatchLatestVisibleCards(ctx)

	first := receive(t, updates)
	assert.Len(t, first, 2)

	addService(repo, "newborn", t3)
	latest := receiveUntil(t, updates, func(cards []domain.ServiceCard) bool { return len(cards) == 3 })
	assert.Equal(t, "prod_newborn_"+t3, latest[1].ID)

	cancel()
	for range updates {
	}
}

func TestWatchCoalescesBurst(t *testing.T) {
	repo := visibleFixture()
	svc := NewService(repo)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	updates := svc.WatchHistoryVisibleCards(ctx)
	_ = receive(t, updates)

	for _, firstSeen := range []string{"2024-06-01T00:00:00Z", "2024-06-02T00:00:00Z", "2024-06-03T00:00:00Z"} {
		addService(repo, "alpha", firstSeen)
	}

	// a slow receiver eventually sees the final state
	last := receiveUntil(t, updates, func(cards []domain.ServiceCard) bool { return len(cards) == 6 })
	assert.Equal(t, "2024-06-03T00:00:00Z", last[0].Status.FirstSeen)
}

func receive(t *testing.T, updates <-chan []domain.ServiceCard) []domain.ServiceCard {
	t.Helper()
	select {
	case cards, ok := <-updates:
		require.True(t, ok, "watch channel closed")
		return cards
	case <-time.After(time.Second):
		t.Fatal("no update received")
		return nil
	}
}

// receiveUntil reads updates until done accepts one. Every change is
// followed by an emission of the newer state, so this never waits on a
// value that will not come.
func receiveUntil(t *testing.T, updates <-chan []domain.ServiceCard, done func([]domain.ServiceCard) bool) []domain.ServiceCard {
	t.Helper()
	for {
		if cards := receive(t, updates); done(cards) {
			return cards
		}
	}
}
