package domain

import (
	"fmt"
	"strings"
)

// SummaryLevel tells whether a fleet needs attention.
type SummaryLevel string

const (
	SummarySuccess SummaryLevel = "success"
	SummaryWarning SummaryLevel = "warning"
)

// Summary counts latest cards per color.
type Summary struct {
	Red     int          `json:"red"`
	Amber   int          `json:"amber"`
	Green   int          `json:"green"`
	Black   int          `json:"black"`
	Total   int          `json:"total"`
	Message string       `json:"message"`
	Level   SummaryLevel `json:"level"`
}

// Summarize builds the fleet summary line, e.g.
// "Services: 1 Red | 2 Green / 3 Total".
func Summarize(cards []ServiceCard) Summary {
	var s Summary
	for _, card := range cards {
		switch card.Status.Status.Color {
		case ColorRed:
			s.Red++
		case ColorAmber:
			s.Amber++
		case ColorGreen:
			s.Green++
		case ColorBlack:
			s.Black++
		}
	}
	s.Total = len(cards)

	parts := make([]string, 0, 4)
	if s.Red > 0 {
		parts = append(parts, fmt.Sprintf("%d Red", s.Red))
	}
	if s.Amber > 0 {
		parts = append(parts, fmt.Sprintf("%d Amber", s.Amber))
	}
	if s.Green > 0 {
		parts = append(parts, fmt.Sprintf("%d Green", s.Green))
	}
	if s.Black > 0 {
		parts = append(parts, fmt.Sprintf("%d Black", s.Black))
	}
	s.Message = fmt.Sprintf("Services: %s / %d Total", strings.Join(parts, " | "), s.Total)

	s.Level = SummaryWarning
	if s.Red+s.Amber == 0 {
		s.Level = SummarySuccess
	}
	return s
}
