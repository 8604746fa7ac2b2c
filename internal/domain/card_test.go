package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfiguration(name string) ServiceConfiguration {
	return ServiceConfiguration{
		Name:               name,
		Env:                "TestEnv",
		SnowID:             "12345",
		Description:        "TestDescription",
		MaintenanceMessage: "ConfigurationTestMessage",
		Links: ServiceLinks{
			Home:          "127.0.0.1/home",
			Snow:          "127.0.0.1/snow",
			Support:       "127.0.0.1/support",
			Documentation: "127.0.0.1/documentation",
			Github:        "127.0.0.1/github",
		},
	}
}

func testStatus(name, raw, firstSeen, lastSeen string) RefinedStatus {
	return RefinedStatus{
		ServiceName:        name,
		Env:                "TestEnv",
		Status:             ParseRawStatus(raw),
		MaintenanceMessage: "StatusTestMessage",
		FirstSeen:          firstSeen,
		LastSeen:           lastSeen,
	}
}

func testCard(name, raw string) ServiceCard {
	return MakeCard(testConfiguration(name), testStatus(name, raw, "1989-05-29T10:00:00Z", "1989-05-29T12:00:00Z"))
}

func TestIcon(t *testing.T) {
	assert.Equal(t, "toast-error", Icon(ColorRed))
	assert.Equal(t, "toast-warning", Icon(ColorAmber))
	assert.Equal(t, "toast-success", Icon(ColorGreen))
	assert.Equal(t, "toast-info", Icon(ColorBlack))
	assert.Equal(t, "toast-error", Icon(Color("PURPLE")))
}

func TestCSSColor(t *testing.T) {
	assert.Equal(t, "var(--cps-color-error)", CSSColor(ColorRed))
	assert.Equal(t, "var(--cps-color-warn)", CSSColor(ColorAmber))
	assert.Equal(t, "var(--cps-color-success)", CSSColor(ColorGreen))
	assert.Equal(t, "var(--cps-color-graphite)", CSSColor(ColorBlack))
}

func TestDurationString(t *testing.T) {
	base := time.Date(1989, 5, 20, 10, 0, 0, 0, time.UTC)
	tests := []struct {
		name string
		span time.Duration
		want string
	}{
		{"days hours minutes", 9*24*time.Hour + time.Hour + 23*time.Minute, "9 days 1 hour 23 minutes"},
		{"one day", 24 * time.Hour, "1 day 0 hours 0 minutes"},
		{"hours only", 2*time.Hour + time.Minute, "2 hours 1 minute"},
		{"minutes only", 59 * time.Minute, "59 minutes"},
		{"sub minute", 30 * time.Second, "0 minutes"},
		{"negative", -time.Hour, "0 minutes"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, DurationString(base, base.Add(tc.span)))
		})
	}
}

func TestTimeFrame(t *testing.T) {
	status := RefinedStatus{FirstSeen: "1989-05-20T10:00:00Z", LastSeen: "1989-05-29T11:23:00Z"}

	assert.Equal(t, "1989-05-20 10:00 UTC - 1989-05-29 11:23 UTC [9 days 1 hour 23 minutes]", TimeFrame(status))
	assert.Equal(t,
		"First seen in this state: 1989-05-20 10:00 UTC <br>Last seen in this state: 1989-05-29 11:23 UTC<br>Observed in this state for: 9 days 1 hour 23 minutes",
		TimeFrameToolTip(status))
}

func TestTimeFrameConvertsToUTC(t *testing.T) {
	status := RefinedStatus{FirstSeen: "1989-05-20T12:00:00+02:00", LastSeen: "1989-05-20T12:30:00+02:00"}
	assert.Equal(t, "1989-05-20 10:00 UTC - 1989-05-20 10:30 UTC [30 minutes]", TimeFrame(status))
}

func TestTimeFrameUnparsable(t *testing.T) {
	status := RefinedStatus{FirstSeen: "yesterday", LastSeen: "1989-05-20T12:30:00Z"}
	assert.Equal(t, "yesterday - 1989-05-20 12:30 UTC [unknown]", TimeFrame(status))
}

func TestMakeCard(t *testing.T) {
	card := testCard("TestSvc", "AMBER[flaky]")

	require.Equal(t, "TestEnv_TestSvc_1989-05-29T10:00:00Z", card.ID)
	assert.Equal(t, "toast-warning", card.Derived.Icon)
	assert.Equal(t, "var(--cps-color-warn)", card.Derived.CSSColor)
	assert.Equal(t, "1989-05-29 10:00 UTC - 1989-05-29 12:00 UTC [2 hours 0 minutes]", card.Derived.TimeFrame)
	assert.Equal(t, "TestSvc", card.Configuration.Name)
}

func TestApplyFilter(t *testing.T) {
	envName := testCard("TstSvc1 findME", "GREEN(AM_OK)")
	envName.Configuration.Env = "HITme"

	status := testCard("TstSvc2", "GREEN(fINDmE and hitMe)")

	descMsg := testCard("TstSvc3", "GREEN(AM_OK)")
	descMsg.Configuration.Description = "HitMe"
	descMsg.Status.MaintenanceMessage = "FindMe"

	cannotFind := testCard("TstSvc4", "GREEN(AM_OK)")

	cards := []ServiceCard{envName, status, descMsg, cannotFind}
	got := ApplyFilter("HitMe FindMe", cards)

	assert.Equal(t, []ServiceCard{envName, status, descMsg}, got)
}

func TestApplyFilterEmpty(t *testing.T) {
	cards := []ServiceCard{testCard("a", "GREEN(x)"), testCard("b", "RED(y)")}
	assert.Equal(t, cards, ApplyFilter("", cards))
	assert.Equal(t, cards, ApplyFilter("   ", cards))
}

func TestSummarize(t *testing.T) {
	cards := []ServiceCard{
		testCard("a", "RED(down)"),
		testCard("b", "GREEN(ok)"),
		testCard("c", "GREEN(ok)"),
		testCard("d", "BLACK[maintenance]"),
	}

	s := Summarize(cards)
	assert.Equal(t, 1, s.Red)
	assert.Equal(t, 2, s.Green)
	assert.Equal(t, 1, s.Black)
	assert.Equal(t, 4, s.Total)
	assert.Equal(t, "Services: 1 Red | 2 Green | 1 Black / 4 Total", s.Message)
	assert.Equal(t, SummaryWarning, s.Level)

	healthy := Summarize(cards[1:])
	assert.Equal(t, SummarySuccess, healthy.Level)
	assert.Equal(t, "Services: 2 Green | 1 Black / 3 Total", healthy.Message)
}
