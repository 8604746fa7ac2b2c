package domain

import "strings"

// ParseFilter lowercases the input and splits it into space separated terms.
func ParseFilter(input string) []string {
	return strings.Fields(strings.ToLower(input))
}

// ApplyFilter keeps the cards matching every term of filter. A term matches
// when it is contained, case-insensitively, in the environment, service name,
// description, encoded status or status maintenance message.
// An empty filter returns cards unchanged.
func ApplyFilter(filter string, cards []ServiceCard) []ServiceCard {
	terms := ParseFilter(filter)
	if len(terms) == 0 {
		return cards
	}

	filtered := make([]ServiceCard, 0, len(cards))
	for _, card := range cards {
		if matchesAll(card, terms) {
			filtered = append(filtered, card)
		}
	}
	return filtered
}

func matchesAll(card ServiceCard, terms []string) bool {
	fields := []string{
		strings.ToLower(card.Configuration.Env),
		strings.ToLower(card.Configuration.Name),
		strings.ToLower(card.Configuration.Description),
		strings.ToLower(card.Status.Status.String()),
		strings.ToLower(card.Status.MaintenanceMessage),
	}

	for _, term := range terms {
		found := false
		for _, field := range fields {
			if strings.Contains(field, term) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}
