package backend

import (
	"fmt"
	"sort"

	"github.com/MrSnakeDoc/pulse/internal/domain"
)

// dataset is a fixture file resolved into backend-shaped lookups.
type dataset struct {
	order          []domain.ServiceKey
	configurations map[domain.ServiceKey]domain.ServiceConfiguration
	dependencies   map[domain.ServiceKey][]domain.ServiceReference
	dependents     map[domain.ServiceKey][]domain.ServiceReference
	history        map[domain.ServiceKey][]domain.RefinedStatus // oldest first
}

// mapFixture validates config and builds the lookups. Dependents are the
// reverse of every declared dependsOn edge.
func mapFixture(config FixtureConfig) (*dataset, error) {
	ds := &dataset{
		configurations: make(map[domain.ServiceKey]domain.ServiceConfiguration, len(config.Configurations)),
		dependencies:   make(map[domain.ServiceKey][]domain.ServiceReference),
		dependents:     make(map[domain.ServiceKey][]domain.ServiceReference),
		history:        make(map[domain.ServiceKey][]domain.RefinedStatus),
	}

	for _, svc := range config.Configurations {
		if svc.Name == "" || svc.Env == "" {
			return nil, fmt.Errorf("fixture configuration needs both name and env (got %q/%q)", svc.Env, svc.Name)
		}
		cfg := domain.ServiceConfiguration{
			Name:               svc.Name,
			Env:                svc.Env,
			Hidden:             svc.Hidden,
			SnowID:             svc.SnowID,
			Description:        svc.Description,
			MaintenanceMessage: svc.MaintenanceMessage,
			Links: domain.ServiceLinks{
				Home:          svc.Links["home"],
				Snow:          svc.Links["snow"],
				Support:       svc.Links["support"],
				Documentation: svc.Links["documentation"],
				Github:        svc.Links["github"],
			},
		}
		key := cfg.Key()
		if _, dup := ds.configurations[key]; dup {
			return nil, fmt.Errorf("duplicate fixture configuration %s", key)
		}
		ds.configurations[key] = cfg
		ds.order = append(ds.order, key)
	}

	for _, svc := range config.Configurations {
		from := domain.ServiceKey{Environment: svc.Env, Name: svc.Name}
		for _, ref := range svc.DependsOn {
			env := ref.Env
			if env == "" {
				env = svc.Env
			}
			to := domain.ServiceKey{Environment: env, Name: ref.Service}
			if _, ok := ds.configurations[to]; !ok {
				return nil, fmt.Errorf("fixture %s depends on unknown service %s", from, to)
			}
			ds.dependencies[from] = append(ds.dependencies[from], domain.ReferenceTo(to))
			ds.dependents[to] = append(ds.dependents[to], domain.ReferenceTo(from))
		}
	}

	for _, st := range config.Statuses {
		key := domain.ServiceKey{Environment: st.Env, Name: st.Service}
		if _, ok := ds.configurations[key]; !ok {
			return nil, fmt.Errorf("fixture status for unknown service %s", key)
		}
		ds.history[key] = append(ds.history[key], domain.RefinedStatus{
			ServiceName:        st.Service,
			Env:                st.Env,
			Status:             domain.ParseRawStatus(st.Status),
			MaintenanceMessage: st.MaintenanceMessage,
			FirstSeen:          st.FirstSeen,
			LastSeen:           st.LastSeen,
			NotificationSent:   st.NotificationSent,
		})
	}
	for key := range ds.history {
		h := ds.history[key]
		sort.SliceStable(h, func(i, j int) bool { return h[i].FirstSeen < h[j].FirstSeen })
	}

	return ds, nil
}
