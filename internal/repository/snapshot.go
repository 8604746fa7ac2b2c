package repository

import (
	"sort"

	"github.com/MrSnakeDoc/pulse/internal/domain"
)

// Snapshot reads the repository under a lock held by View. It is only valid
// inside the View callback.
type Snapshot struct {
	r *Repository
}

func (s Snapshot) Configuration(key domain.ServiceKey) (domain.ServiceConfiguration, bool) {
	e, ok := s.r.entries[key]
	if !ok {
		return domain.ServiceConfiguration{}, false
	}
	return e.configuration, true
}

func (s Snapshot) VisibleConfigurations() []domain.ServiceConfiguration {
	cfgs := make([]domain.ServiceConfiguration, 0, len(s.r.visible))
	for _, key := range s.r.visible {
		if e, ok := s.r.entries[key]; ok {
			cfgs = append(cfgs, e.configuration)
		}
	}
	return cfgs
}

func (s Snapshot) Dependencies(key domain.ServiceKey) []domain.ServiceReference {
	if e, ok := s.r.entries[key]; ok {
		return append([]domain.ServiceReference(nil), e.dependencies...)
	}
	return nil
}

func (s Snapshot) Dependents(key domain.ServiceKey) []domain.ServiceReference {
	if e, ok := s.r.entries[key]; ok {
		return append([]domain.ServiceReference(nil), e.dependents...)
	}
	return nil
}

// Statuses returns the records of key, oldest first.
func (s Snapshot) Statuses(key domain.ServiceKey) []domain.RefinedStatus {
	e, ok := s.r.entries[key]
	if !ok {
		return nil
	}
	statuses := make([]domain.RefinedStatus, 0, len(e.statuses))
	for _, status := range e.statuses {
		statuses = append(statuses, status)
	}
	sort.Slice(statuses, func(i, j int) bool {
		return statuses[i].FirstSeen < statuses[j].FirstSeen
	})
	return statuses
}
