package whitelist

import (
	"strings"

	"github.com/ruby4mag/alert-normalizer/internal/extract"
	"github.com/ruby4mag/alert-normalizer/internal/models"
)

// Where a decision came from.
const (
	SourceRules  = "rules"
	SourceOracle = "oracle"
)

// Subject is the part of an alert the rules are checked against.
type Subject struct {
	AlertName   string `json:"alertName"`
	Description string `json:"description"`
	HostName    string `json:"hostName"`
	ProcessPath string `json:"processPath"`
	IP          string `json:"ip"`
}

// SubjectOf takes the subject fields from an extracted alert.
func SubjectOf(a extract.Alert) Subject {
	return Subject{
		AlertName:   a.Name,
		Description: a.Description,
		HostName:    a.HostName,
		ProcessPath: a.ProcessPath,
		IP:          a.IP,
	}
}

type Decision struct {
	Matched bool                  `json:"matched"`
	Reason  string                `json:"reason,omitempty"`
	Rule    *models.WhitelistRule `json:"rule,omitempty"`
	Source  string                `json:"source,omitempty"`
}

// Match returns the first rule, in the given order, whose every set
// constraint holds for s. Unset constraints match anything.
func Match(s Subject, rules []models.WhitelistRule) Decision {
	haystack := strings.ToLower(s.AlertName + s.Description + s.ProcessPath + s.HostName)
	for i := range rules {
		r := &rules[i]
		if matches(s, haystack, r) {
			return Decision{Matched: true, Reason: r.Reason, Rule: r, Source: SourceRules}
		}
	}
	return Decision{}
}

func matches(s Subject, haystack string, r *models.WhitelistRule) bool {
	sig := strings.TrimSpace(r.AlertSignature)
	if !r.AppliesToAllAlerts && sig != "" && !overlaps(s.AlertName, sig) {
		return false
	}
	if d := models.Value(r.DeviceName); d != "" && !overlaps(s.HostName, d) {
		return false
	}
	if p := models.Value(r.ProcessName); p != "" && !overlaps(s.ProcessPath, p) {
		return false
	}
	if ip := models.Value(r.IPAddress); ip != "" && !overlaps(s.IP, ip) {
		return false
	}
	if !r.AppliesToAllAlerts && len(r.MatchTokens) > 0 && !anyToken(haystack, r.MatchTokens) {
		return false
	}
	return true
}

// overlaps reports whether a and b contain one another, ignoring case. An
// empty side never overlaps.
func overlaps(a, b string) bool {
	a = strings.ToLower(strings.TrimSpace(a))
	b = strings.ToLower(strings.TrimSpace(b))
	if a == "" || b == "" {
		return false
	}
	return strings.Contains(a, b) || strings.Contains(b, a)
}

func anyToken(haystack string, tokens []string) bool {
	for _, t := range tokens {
		if t != "" && strings.Contains(haystack, t) {
			return true
		}
	}
	return false
}
