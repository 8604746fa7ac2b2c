package backend

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"regexp"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/MrSnakeDoc/pulse/internal/domain"
)

var templateVar = regexp.MustCompile(`\{\{\s*(PULSE_VAR_[A-Z0-9_]+)\s*\}\}`)

// Fixture serves the backend contract from a YAML file. It backs demos,
// offline runs and the end-to-end tests.
type Fixture struct {
	filePath string

	mu   sync.RWMutex
	data *dataset
}

// NewFixture loads filePath once; call Reload to pick up edits.
func NewFixture(filePath string) (*Fixture, error) {
	f := &Fixture{filePath: filePath}
	if err := f.Reload(); err != nil {
		return nil, err
	}
	return f, nil
}

// Reload re-reads the file. On error the previous dataset is kept.
func (f *Fixture) Reload() error {
	raw, err := os.ReadFile(f.filePath)
	if err != nil {
		return fmt.Errorf("failed to read fixture file: %w", err)
	}

	raw = expandTemplateVariables(raw)

	var config FixtureConfig
	if err := yaml.Unmarshal(raw, &config); err != nil {
		return fmt.Errorf("failed to parse fixture yaml: %w", err)
	}

	ds, err := mapFixture(config)
	if err != nil {
		return err
	}

	f.mu.Lock()
	f.data = ds
	f.mu.Unlock()
	return nil
}

// expandTemplateVariables substitutes {{PULSE_VAR_*}} with the environment
// value, empty when unset.
func expandTemplateVariables(raw []byte) []byte {
	return templateVar.ReplaceAllFunc(raw, func(m []byte) []byte {
		name := templateVar.FindSubmatch(m)[1]
		return []byte(os.Getenv(string(name)))
	})
}

func (f *Fixture) snapshot() *dataset {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.data
}

func (f *Fixture) notFound(endpoint string, key domain.ServiceKey) error {
	return &StatusError{
		Endpoint: endpoint,
		URL:      "file://" + f.filePath + "#" + key.String(),
		Code:     http.StatusNotFound,
		Body:     "unknown service",
	}
}

func (f *Fixture) Configuration(ctx context.Context, key domain.ServiceKey) (domain.ServiceConfiguration, error) {
	if err := ctx.Err(); err != nil {
		return domain.ServiceConfiguration{}, err
	}
	cfg, ok := f.snapshot().configurations[key]
	if !ok {
		return domain.ServiceConfiguration{}, f.notFound("configuration", key)
	}
	return cfg, nil
}

func (f *Fixture) Configurations(ctx context.Context, includeHidden bool) ([]domain.ServiceConfiguration, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	ds := f.snapshot()
	cfgs := make([]domain.ServiceConfiguration, 0, len(ds.order))
	for _, key := range ds.order {
		cfg := ds.configurations[key]
		if cfg.Hidden && !includeHidden {
			continue
		}
		cfgs = append(cfgs, cfg)
	}
	return cfgs, nil
}

func (f *Fixture) Dependencies(ctx context.Context, key domain.ServiceKey) ([]domain.ServiceReference, error) {
	return f.edges(ctx, "dependencies", key, func(ds *dataset) []domain.ServiceReference { return ds.dependencies[key] })
}

func (f *Fixture) Dependents(ctx context.Context, key domain.ServiceKey) ([]domain.ServiceReference, error) {
	return f.edges(ctx, "dependents", key, func(ds *dataset) []domain.ServiceReference { return ds.dependents[key] })
}

func (f *Fixture) edges(ctx context.Context, endpoint string, key domain.ServiceKey, pick func(*dataset) []domain.ServiceReference) ([]domain.ServiceReference, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	ds := f.snapshot()
	if _, ok := ds.configurations[key]; !ok {
		return nil, f.notFound(endpoint, key)
	}
	return append([]domain.ServiceReference{}, pick(ds)...), nil
}

// LatestStatuses returns the newest record of every service with history.
func (f *Fixture) LatestStatuses(ctx context.Context) ([]domain.RefinedStatus, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	ds := f.snapshot()
	latest := make([]domain.RefinedStatus, 0, len(ds.history))
	for _, key := range ds.order {
		if h := ds.history[key]; len(h) > 0 {
			latest = append(latest, h[len(h)-1])
		}
	}
	return latest, nil
}

func (f *Fixture) ServiceHistory(ctx context.Context, key domain.ServiceKey) ([]domain.RefinedStatus, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	ds := f.snapshot()
	if _, ok := ds.configurations[key]; !ok {
		return nil, f.notFound("history", key)
	}
	return append([]domain.RefinedStatus{}, ds.history[key]...), nil
}
