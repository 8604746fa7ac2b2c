package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrSnakeDoc/pulse/internal/domain"
)

const fixtureYAML = `
configurations:
  - {name: web, env: prod, dependsOn: [{service: api}]}
  - {name: api, env: prod, description: Order API, dependsOn: [{service: db}]}
  - {name: db, env: prod}
statuses:
  - {env: prod, service: web, status: "GREEN(ok)", firstSeen: "2024-03-01T08:00:00Z", lastSeen: "2024-03-01T09:00:00Z"}
  - {env: prod, service: api, status: "RED(timeouts)", firstSeen: "2024-03-01T07:00:00Z", lastSeen: "2024-03-01T08:00:00Z", maintenanceMessage: "db migration"}
  - {env: prod, service: db, status: "GREEN(ok)", firstSeen: "2024-03-01T06:00:00Z", lastSeen: "2024-03-01T09:00:00Z"}
`

func setupFixture(t *testing.T) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "services.yaml")
	require.NoError(t, os.WriteFile(path, []byte(fixtureYAML), 0o644))
	t.Setenv("PULSE_BACKEND_URL", "")
	t.Setenv("PULSE_BACKEND_FIXTURE", path)
	t.Setenv("PULSE_REDIS_ADDR", "")
	t.Setenv("PULSE_PRETTY_LOG", "false")

	noColor := color.NoColor
	color.NoColor = true
	t.Cleanup(func() { color.NoColor = noColor })
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestCardsCommand(t *testing.T) {
	setupFixture(t)

	out, err := run(t, "cards")
	require.NoError(t, err)

	assert.Contains(t, out, "prod/api")
	assert.Contains(t, out, "RED(timeouts)")
	assert.Contains(t, out, "maintenance: db migration")
	assert.Contains(t, out, "Services: 1 Red | 2 Green / 3 Total")
}

func TestCardsCommandFilterJSON(t *testing.T) {
	setupFixture(t)

	out, err := run(t, "cards", "--json", "--filter", "order")
	require.NoError(t, err)

	var cards []domain.ServiceCard
	require.NoError(t, json.Unmarshal([]byte(out), &cards))
	require.Len(t, cards, 1)
	assert.Equal(t, "api", cards[0].Configuration.Name)
}

func TestCardsCommandMirrorNeedsRedis(t *testing.T) {
	setupFixture(t)

	_, err := run(t, "cards", "--mirror")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "PULSE_REDIS_ADDR")
}

func TestGraphCommand(t *testing.T) {
	setupFixture(t)

	out, err := run(t, "graph", "prod", "api", "--history")
	require.NoError(t, err)

	assert.Contains(t, out, "Dependencies")
	assert.Contains(t, out, "  └ prod/db")
	assert.Contains(t, out, "  └ prod/web")
	assert.Contains(t, out, "History")
}

func TestGraphCommandJSON(t *testing.T) {
	setupFixture(t)

	out, err := run(t, "graph", "prod", "api", "--json")
	require.NoError(t, err)

	var got graphOutput
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	require.Len(t, got.Dependencies, 2)
	assert.Equal(t, "db", got.Dependencies[1].Configuration.Name)
	assert.Equal(t, 1, got.Dependencies[1].Depth)
	assert.Empty(t, got.History)
}

func TestGraphCommandUnknownService(t *testing.T) {
	setupFixture(t)

	_, err := run(t, "graph", "prod", "nope")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown service prod/nope")
}

func TestGraphCommandArgs(t *testing.T) {
	setupFixture(t)

	_, err := run(t, "graph", "prod")

	require.Error(t, err)
}

func TestInvalidConfiguration(t *testing.T) {
	t.Setenv("PULSE_BACKEND_URL", "")
	t.Setenv("PULSE_BACKEND_FIXTURE", "")

	_, err := run(t, "cards")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid configuration")
}

func TestVersionCommand(t *testing.T) {
	out, err := run(t, "version")

	require.NoError(t, err)
	assert.Contains(t, out, "pulse ")
}
