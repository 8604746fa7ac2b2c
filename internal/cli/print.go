package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"

	"github.com/MrSnakeDoc/pulse/internal/domain"
)

var (
	errorColor   = color.New(color.FgRed, color.Bold)
	headingColor = color.New(color.FgHiWhite, color.Bold)
	dimColor     = color.New(color.FgHiBlack)

	statusColors = map[domain.Color]*color.Color{
		domain.ColorGreen: color.New(color.FgGreen),
		domain.ColorAmber: color.New(color.FgYellow),
		domain.ColorRed:   color.New(color.FgRed, color.Bold),
		domain.ColorBlack: color.New(color.FgHiBlack),
	}
)

func statusColor(c domain.Color) *color.Color {
	if sc, ok := statusColors[c]; ok {
		return sc
	}
	return statusColors[domain.ColorRed]
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func printCards(w io.Writer, cards []domain.ServiceCard) {
	if len(cards) == 0 {
		dimColor.Fprintln(w, "no cards")
		return
	}
	for _, card := range cards {
		printCard(w, "", card)
	}
}

func printCard(w io.Writer, indent string, card domain.ServiceCard) {
	name := card.Configuration.Env + "/" + card.Configuration.Name
	fmt.Fprintf(w, "%s%-28s ", indent, name)
	statusColor(card.Status.Status.Color).Fprintf(w, "%-24s", card.Status.Status.String())
	dimColor.Fprintf(w, " %s\n", card.Derived.TimeFrame)
	if msg := card.Status.MaintenanceMessage; msg != "" {
		dimColor.Fprintf(w, "%s  maintenance: %s\n", indent, msg)
	}
}

// printTree prints graph cards indented by their depth.
func printTree(w io.Writer, cards []domain.GraphCard) {
	if len(cards) == 0 {
		dimColor.Fprintln(w, "no cards")
		return
	}
	for _, card := range cards {
		indent := strings.Repeat("  ", card.Depth)
		if card.Depth > 0 {
			indent += "└ "
		}
		printCard(w, indent, card.ServiceCard)
	}
}

func printSummary(w io.Writer, s domain.Summary) {
	c := statusColors[domain.ColorGreen]
	if s.Level == domain.SummaryWarning {
		c = statusColors[domain.ColorAmber]
	}
	c.Fprintln(w, s.Message)
}
