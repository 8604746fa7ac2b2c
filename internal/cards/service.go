package cards

import (
	"context"
	"sort"

	"github.com/MrSnakeDoc/pulse/internal/domain"
	"github.com/MrSnakeDoc/pulse/internal/repository"
)

// Service builds card views from the repository. It never talks to the
// backend and never writes. Each view is built from one repository
// snapshot.
//
// A configuration without any status record contributes no card to any
// view.
type Service struct {
	repo *repository.Repository
}

// NewService creates a card service reading from repo.
func NewService(repo *repository.Repository) *Service {
	return &Service{repo: repo}
}

// LatestVisibleCards returns one card per visible service showing its most
// recent status, ordered by card ID.
func (s *Service) LatestVisibleCards() []domain.ServiceCard {
	var cards []domain.ServiceCard
	s.repo.View(func(snap repository.Snapshot) {
		for _, cfg := range snap.VisibleConfigurations() {
			statuses := snap.Statuses(cfg.Key())
			if len(statuses) == 0 {
				continue
			}
			cards = append(cards, domain.MakeCard(cfg, statuses[len(statuses)-1]))
		}
	})
	sort.SliceStable(cards, func(i, j int) bool { return cards[i].ID < cards[j].ID })
	return cards
}

// HistoryVisibleCards returns one card per stored record of every visible
// service, newest first.
func (s *Service) HistoryVisibleCards() []domain.ServiceCard {
	var cards []domain.ServiceCard
	s.repo.View(func(snap repository.Snapshot) {
		for _, cfg := range snap.VisibleConfigurations() {
			for _, status := range snap.Statuses(cfg.Key()) {
				cards = append(cards, domain.MakeCard(cfg, status))
			}
		}
	})
	return newestFirst(cards)
}

// DependenciesGraphCards walks the dependency edges from key depth first.
// A node reachable through several paths appears once per path.
func (s *Service) DependenciesGraphCards(key domain.ServiceKey) []domain.GraphCard {
	return s.graphCards(key, repository.Snapshot.Dependencies)
}

// DependentsGraphCards walks the dependent edges from key depth first.
// A node reachable through several paths appears once per path.
func (s *Service) DependentsGraphCards(key domain.ServiceKey) []domain.GraphCard {
	return s.graphCards(key, repository.Snapshot.Dependents)
}

type edgesFunc func(repository.Snapshot, domain.ServiceKey) []domain.ServiceReference

type stackItem struct {
	key   domain.ServiceKey
	depth int
}

func (s *Service) graphCards(root domain.ServiceKey, edges edgesFunc) []domain.GraphCard {
	var cards []domain.GraphCard
	s.repo.View(func(snap repository.Snapshot) {
		stack := []stackItem{{key: root}}

		for len(stack) > 0 {
			item := stack[len(stack)-1]
			stack = stack[:len(stack)-1]

			card, ok := cardWithHistory(snap, item.key)
			if !ok {
				// pruned together with its subtree
				continue
			}
			card.Depth = item.depth
			cards = append(cards, card)

			children := edges(snap, item.key)
			sort.SliceStable(children, func(i, j int) bool {
				return children[i].Key().String() > children[j].Key().String()
			})
			for _, child := range children {
				stack = append(stack, stackItem{key: child.Key(), depth: item.depth + 1})
			}
		}
	})
	return cards
}

// HistoryGraphCards returns every record of every distinct node connected to
// key through either edge direction, newest first.
func (s *Service) HistoryGraphCards(root domain.ServiceKey) []domain.ServiceCard {
	var cards []domain.ServiceCard
	s.repo.View(func(snap repository.Snapshot) {
		stack := []domain.ServiceKey{root}
		visited := make(map[string]struct{})

		for len(stack) > 0 {
			key := stack[len(stack)-1]
			stack = stack[:len(stack)-1]

			if _, seen := visited[key.String()]; seen {
				continue
			}
			visited[key.String()] = struct{}{}

			if cfg, ok := snap.Configuration(key); ok {
				for _, status := range snap.Statuses(key) {
					cards = append(cards, domain.MakeCard(cfg, status))
				}
			}
			for _, ref := range snap.Dependencies(key) {
				stack = append(stack, ref.Key())
			}
			for _, ref := range snap.Dependents(key) {
				stack = append(stack, ref.Key())
			}
		}
	})
	return newestFirst(cards)
}

// cardWithHistory builds the graph card of key from its newest record.
// It reports false for unknown services and services without records.
func cardWithHistory(snap repository.Snapshot, key domain.ServiceKey) (domain.GraphCard, bool) {
	cfg, ok := snap.Configuration(key)
	if !ok {
		return domain.GraphCard{}, false
	}
	statuses := snap.Statuses(key)
	if len(statuses) == 0 {
		return domain.GraphCard{}, false
	}

	history := make([]domain.ServiceCard, 0, len(statuses))
	for _, status := range statuses {
		history = append(history, domain.MakeCard(cfg, status))
	}
	history = newestFirst(history)

	return domain.GraphCard{ServiceCard: history[0], History: history}, true
}

// newestFirst sorts cards by FirstSeen descending, keeping encounter order
// for ties.
func newestFirst(cards []domain.ServiceCard) []domain.ServiceCard {
	sort.SliceStable(cards, func(i, j int) bool {
		return cards[i].Status.FirstSeen > cards[j].Status.FirstSeen
	})
	return cards
}

// WatchLatestVisibleCards emits the latest view now and again after
// repository changes. See watch for delivery semantics.
func (s *Service) WatchLatestVisibleCards(ctx context.Context) <-chan []domain.ServiceCard {
	return watch(ctx, s.repo, s.LatestVisibleCards)
}

// WatchHistoryVisibleCards emits the history view now and again after
// repository changes. See watch for delivery semantics.
func (s *Service) WatchHistoryVisibleCards(ctx context.Context) <-chan []domain.ServiceCard {
	return watch(ctx, s.repo, s.HistoryVisibleCards)
}
