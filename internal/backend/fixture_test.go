package backend

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrSnakeDoc/pulse/internal/domain"
)

func loadTestFixture(t *testing.T) *Fixture {
	t.Helper()
	t.Setenv("PULSE_VAR_AUTH_SNOW_ID", "SN-42")
	f, err := NewFixture(filepath.Join("testdata", "services.yaml"))
	require.NoError(t, err)
	return f
}

func TestFixtureConfigurations(t *testing.T) {
	f := loadTestFixture(t)
	ctx := context.Background()

	visible, err := f.Configurations(ctx, false)
	require.NoError(t, err)
	names := make([]string, 0, len(visible))
	for _, cfg := range visible {
		names = append(names, cfg.Name)
	}
	assert.Equal(t, []string{"web", "api", "db", "auth"}, names)

	all, err := f.Configurations(ctx, true)
	require.NoError(t, err)
	assert.Len(t, all, 5)

	auth, err := f.Configuration(ctx, domain.ServiceKey{Environment: "shared", Name: "auth"})
	require.NoError(t, err)
	assert.Equal(t, "SN-42", auth.SnowID)

	web, err := f.Configuration(ctx, domain.ServiceKey{Environment: "prod", Name: "web"})
	require.NoError(t, err)
	assert.Equal(t, "https://shop.example.com", web.Links.Home)
}

func TestFixtureEdges(t *testing.T) {
	f := loadTestFixture(t)
	ctx := context.Background()
	api := domain.ServiceKey{Environment: "prod", Name: "api"}

	deps, err := f.Dependencies(ctx, api)
	require.NoError(t, err)
	assert.Equal(t, []domain.ServiceReference{
		{Environment: "prod", Service: "db"},
		{Environment: "shared", Service: "auth"},
	}, deps)

	dependents, err := f.Dependents(ctx, api)
	require.NoError(t, err)
	assert.Equal(t, []domain.ServiceReference{{Environment: "prod", Service: "web"}}, dependents)

	leaf, err := f.Dependencies(ctx, domain.ServiceKey{Environment: "prod", Name: "db"})
	require.NoError(t, err)
	assert.Empty(t, leaf)
}

func TestFixtureStatuses(t *testing.T) {
	f := loadTestFixture(t)
	ctx := context.Background()

	latest, err := f.LatestStatuses(ctx)
	require.NoError(t, err)
	require.Len(t, latest, 3)
	assert.Equal(t, "api", latest[1].ServiceName)
	assert.Equal(t, domain.ColorAmber, latest[1].Status.Color)
	assert.True(t, latest[1].Status.Intermittent)

	history, err := f.ServiceHistory(ctx, domain.ServiceKey{Environment: "prod", Name: "api"})
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, "2024-03-01T07:00:00Z", history[0].FirstSeen)

	empty, err := f.ServiceHistory(ctx, domain.ServiceKey{Environment: "shared", Name: "auth"})
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestFixtureUnknownService(t *testing.T) {
	f := loadTestFixture(t)
	ghost := domain.ServiceKey{Environment: "prod", Name: "ghost"}

	_, err := f.Configuration(context.Background(), ghost)
	assert.True(t, IsNotFound(err))
	_, err = f.Dependents(context.Background(), ghost)
	assert.True(t, IsNotFound(err))
	_, err = f.ServiceHistory(context.Background(), ghost)
	assert.True(t, IsNotFound(err))
}

func TestFixtureCanceledContext(t *testing.T) {
	f := loadTestFixture(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := f.LatestStatuses(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestFixtureRejectsDanglingEdge(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.yaml")
	content := `configurations:
  - name: web
    env: prod
    dependsOn:
      - service: missing
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	_, err := NewFixture(path)
	assert.ErrorContains(t, err, "unknown service prod_missing")
}

func TestFixtureReloadKeepsPreviousOnError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "services.yaml")
	require.NoError(t, os.WriteFile(path, []byte("configurations:\n  - name: a\n    env: prod\n"), 0o644))

	f, err := NewFixture(path)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(path, []byte("configurations: [: not yaml"), 0o644))
	assert.Error(t, f.Reload())

	cfgs, err := f.Configurations(context.Background(), false)
	require.NoError(t, err)
	assert.Len(t, cfgs, 1)
}
