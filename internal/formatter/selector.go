package formatter

import (
	"strings"
	"unicode/utf8"

	"github.com/ruby4mag/alert-normalizer/internal/models"
)

// DefaultFuzzyThreshold is the score a fuzzy match has to exceed.
const DefaultFuzzyThreshold = 0.5

// Selector picks the saved template for an alert. A Threshold <= 0 means
// DefaultFuzzyThreshold.
type Selector struct {
	Threshold float64
}

// Match is a selected template. Score is 1 for exact matches.
type Match struct {
	Template *models.AlertFormatTemplate `json:"-"`
	Exact    bool                        `json:"exact"`
	Score    float64                     `json:"score"`
}

func (s Selector) threshold() float64 {
	if s.Threshold <= 0 {
		return DefaultFuzzyThreshold
	}
	return s.Threshold
}

// Select runs an exact pass over templates in order and, failing that, a
// fuzzy pass keeping the strictly highest containment score above the
// threshold. Ties keep the earlier template.
func (s Selector) Select(alertName, eventName string, templates []models.AlertFormatTemplate) (Match, bool) {
	identifier := strings.ToLower(strings.TrimSpace(alertName))
	name := identifier
	event := strings.ToLower(strings.TrimSpace(eventName))

	for i := range templates {
		t := &templates[i]
		if eq(t.AlertIdentifier, identifier) || eq(t.EventName, event) || eq(t.AlertName, name) {
			return Match{Template: t, Exact: true, Score: 1}, true
		}
	}

	best := -1
	bestScore := 0.0
	for i := range templates {
		t := &templates[i]
		score := max(
			Overlap(t.AlertIdentifier, identifier),
			Overlap(t.AlertName, name),
			Overlap(t.EventName, event),
		)
		if score > bestScore {
			best, bestScore = i, score
		}
	}
	if best < 0 || bestScore <= s.threshold() {
		return Match{}, false
	}
	return Match{Template: &templates[best], Score: bestScore}, true
}

// eq compares a stored value with an already lower-cased one; empty never matches.
func eq(stored, want string) bool {
	if want == "" {
		return false
	}
	return strings.ToLower(strings.TrimSpace(stored)) == want
}

// Overlap is min(len)/max(len) when one string contains the other,
// case-insensitively, and 0 otherwise.
func Overlap(a, b string) float64 {
	a = strings.ToLower(strings.TrimSpace(a))
	b = strings.ToLower(strings.TrimSpace(b))
	if a == "" || b == "" {
		return 0
	}
	if !strings.Contains(a, b) && !strings.Contains(b, a) {
		return 0
	}
	la, lb := utf8.RuneCountInString(a), utf8.RuneCountInString(b)
	if la > lb {
		la, lb = lb, la
	}
	return float64(la) / float64(lb)
}
