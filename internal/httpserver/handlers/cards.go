package handlers

import (
	"net/http"

	"github.com/MrSnakeDoc/pulse/internal/domain"
	"github.com/MrSnakeDoc/pulse/internal/httpserver/deps"
)

type cardsResponse struct {
	Cards   []domain.ServiceCard `json:"cards"`
	Summary domain.Summary       `json:"summary"`
}

// LatestCards serves the latest card of every visible service. The optional
// filter query parameter narrows the list; the summary always covers the
// unfiltered fleet.
func LatestCards(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		all := d.Cards.LatestVisibleCards()
		writeJSON(w, http.StatusOK, cardsResponse{
			Cards:   nonNil(domain.ApplyFilter(r.URL.Query().Get("filter"), all)),
			Summary: domain.Summarize(all),
		})
	}
}

// HistoryCards serves every stored status of every visible service, newest
// first.
func HistoryCards(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cards := d.Cards.HistoryVisibleCards()
		writeJSON(w, http.StatusOK, cardsResponse{
			Cards:   nonNil(domain.ApplyFilter(r.URL.Query().Get("filter"), cards)),
			Summary: domain.Summarize(d.Cards.LatestVisibleCards()),
		})
	}
}

func Summary(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, domain.Summarize(d.Cards.LatestVisibleCards()))
	}
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
