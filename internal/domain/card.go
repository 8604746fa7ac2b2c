package domain

import (
	"fmt"
	"time"
)

const cardTimeLayout = "2006-01-02 15:04 UTC"

// Derived holds the presentation-ready fields of a card.
type Derived struct {
	Icon             string `json:"icon"`
	CSSColor         string `json:"cssColor"`
	TimeFrame        string `json:"timeFrame"`
	TimeFrameToolTip string `json:"timeFrameToolTip"`
}

// ServiceCard is a read-only projection of one configuration and one status.
// Cards are rebuilt on every query and never stored.
type ServiceCard struct {
	ID            string               `json:"id"`
	Configuration ServiceConfiguration `json:"configuration"`
	Status        RefinedStatus        `json:"status"`
	Derived       Derived              `json:"derived"`
}

// GraphCard is a card emitted by a dependency/dependent traversal.
// History holds every card of the node, newest first.
type GraphCard struct {
	ServiceCard
	Depth   int           `json:"depth"`
	History []ServiceCard `json:"history"`
}

// MakeCard derives the card for a (configuration, status) pair.
func MakeCard(cfg ServiceConfiguration, status RefinedStatus) ServiceCard {
	return ServiceCard{
		ID:            status.Env + "_" + status.ServiceName + "_" + status.FirstSeen,
		Configuration: cfg,
		Status:        status,
		Derived: Derived{
			Icon:             Icon(status.Status.Color),
			CSSColor:         CSSColor(status.Status.Color),
			TimeFrame:        TimeFrame(status),
			TimeFrameToolTip: TimeFrameToolTip(status),
		},
	}
}

// Icon maps a color to its toast icon name.
func Icon(color Color) string {
	switch color {
	case ColorGreen:
		return "toast-success"
	case ColorAmber:
		return "toast-warning"
	case ColorBlack:
		return "toast-info"
	default:
		return "toast-error"
	}
}

// CSSColor maps a color to its CSS variable.
func CSSColor(color Color) string {
	switch color {
	case ColorGreen:
		return "var(--cps-color-success)"
	case ColorAmber:
		return "var(--cps-color-warn)"
	case ColorBlack:
		return "var(--cps-color-graphite)"
	default:
		return "var(--cps-color-error)"
	}
}

// DurationString renders the elapsed time between two instants with minute
// precision, e.g. "9 days 1 hour 23 minutes". Negative spans render as zero.
func DurationString(firstSeen, lastSeen time.Time) string {
	totalMinutes := int64(lastSeen.Sub(firstSeen) / time.Minute)
	if totalMinutes < 0 {
		totalMinutes = 0
	}
	totalHours := totalMinutes / 60
	days := totalHours / 24
	hours := totalHours % 24
	minutes := totalMinutes % 60

	switch {
	case days > 0:
		return plural(days, "day") + " " + plural(hours, "hour") + " " + plural(minutes, "minute")
	case hours > 0:
		return plural(hours, "hour") + " " + plural(minutes, "minute")
	default:
		return plural(minutes, "minute")
	}
}

func plural(n int64, unit string) string {
	if n == 1 {
		return "1 " + unit
	}
	return fmt.Sprintf("%d %ss", n, unit)
}

// TimeFrame renders "first - last [duration]" in UTC.
func TimeFrame(status RefinedStatus) string {
	first, last, duration := timeFrameParts(status)
	return fmt.Sprintf("%s - %s [%s]", first, last, duration)
}

// TimeFrameToolTip renders the multi-line tooltip for a status time frame.
func TimeFrameToolTip(status RefinedStatus) string {
	first, last, duration := timeFrameParts(status)
	return fmt.Sprintf("First seen in this state: %s <br>Last seen in this state: %s<br>Observed in this state for: %s",
		first, last, duration)
}

// timeFrameParts formats both timestamps. Unparsable timestamps are shown
// verbatim and the duration is reported as unknown.
func timeFrameParts(status RefinedStatus) (first, last, duration string) {
	firstSeen, errFirst := time.Parse(time.RFC3339, status.FirstSeen)
	lastSeen, errLast := time.Parse(time.RFC3339, status.LastSeen)

	first, last, duration = status.FirstSeen, status.LastSeen, "unknown"
	if errFirst == nil {
		first = firstSeen.UTC().Format(cardTimeLayout)
	}
	if errLast == nil {
		last = lastSeen.UTC().Format(cardTimeLayout)
	}
	if errFirst == nil && errLast == nil {
		duration = DurationString(firstSeen, lastSeen)
	}
	return first, last, duration
}
