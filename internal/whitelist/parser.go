// Package whitelist turns analyst notes into whitelist rules and checks
// alerts against them.
package whitelist

import (
	"regexp"
	"strings"

	"github.com/ruby4mag/alert-normalizer/internal/models"
)

var (
	processLabelRe = regexp.MustCompile(`(?i)^process\s*name\s*:?\s*$`)
	headerRe       = regexp.MustCompile(`(?i)alert|detection|threat|event|signature`)
	allAlertsRe    = regexp.MustCompile(`(?i)all\s+(endpoints|endpoint|devices|hosts|machines|servers|alerts|alert names)`)
)

type field int

const (
	fieldProcess field = iota
	fieldDevice
	fieldTenant
	fieldIP
)

type origin int

const (
	fromRaw origin = iota
	fromReason
)

// extractor captures group 1 of re, searched in the raw note or the reason.
type extractor struct {
	field field
	from  origin
	re    *regexp.Regexp
}

// extractors run in order; the first match fills a field and later entries
// for the same field are skipped.
var extractors = []extractor{
	{fieldProcess, fromRaw, regexp.MustCompile(`(?i)([A-Za-z0-9._-]+\.exe)\b`)},
	{fieldIP, fromRaw, regexp.MustCompile(`\b(\d{1,3}(?:\.\d{1,3}){3})\b`)},
	{fieldDevice, fromReason, regexp.MustCompile(`\b([A-Z]{2}-[A-Z]{2}-[A-Z0-9-]+)\b`)},
	{fieldDevice, fromReason, regexp.MustCompile(`(?i:device)\s+([A-Z0-9-]+)`)},
	{fieldTenant, fromRaw, regexp.MustCompile(`(?i)tenant\s+([A-Za-z0-9._-]+)`)},
	{fieldTenant, fromReason, regexp.MustCompile(`(?i)tenant\s+([A-Za-z0-9._-]+)`)},
}

// Parse builds a rule from a free-text note. It never fails: whatever cannot
// be recognised is left unset, and Reason falls back to the whole note.
// Checking that the note and reason are non-empty is up to the caller.
func Parse(raw string) models.WhitelistRule {
	lines := splitLines(raw)

	values := map[field]string{}
	used := make([]bool, len(lines))
	for i, l := range lines {
		if !processLabelRe.MatchString(l) {
			continue
		}
		used[i] = true
		if i+1 < len(lines) {
			values[fieldProcess] = lines[i+1]
			used[i+1] = true
		}
		break
	}

	var candidates []string
	for i, l := range lines {
		if !used[i] {
			candidates = append(candidates, l)
		}
	}

	header := -1
	for i, c := range candidates {
		if headerRe.MatchString(c) || strings.Contains(c, ":") {
			header = i
			break
		}
	}
	var signature string
	var rest []string
	for i, c := range candidates {
		if i == header {
			signature = c
			continue
		}
		rest = append(rest, c)
	}
	reason := strings.Join(rest, " ")
	if reason == "" && len(lines) > 1 {
		reason = strings.Join(lines[1:], " ")
	}

	for _, ex := range extractors {
		if _, ok := values[ex.field]; ok {
			continue
		}
		src := raw
		if ex.from == fromReason {
			src = reason
		}
		if m := ex.re.FindStringSubmatch(src); m != nil {
			values[ex.field] = m[1]
		}
	}

	rule := models.WhitelistRule{
		AlertSignature:     strings.TrimSpace(signature),
		ProcessName:        optional(values[fieldProcess]),
		DeviceName:         optional(values[fieldDevice]),
		TenantName:         optional(values[fieldTenant]),
		IPAddress:          optional(values[fieldIP]),
		Reason:             strings.TrimSpace(reason),
		RawText:            strings.TrimSpace(raw),
		AppliesToAllAlerts: allAlertsRe.MatchString(raw),
		MatchTokens:        Tokens(raw),
	}
	if rule.Reason == "" {
		rule.Reason = rule.RawText
	}
	return rule
}

func splitLines(raw string) []string {
	var lines []string
	for _, l := range strings.Split(strings.ReplaceAll(raw, "\r\n", "\n"), "\n") {
		if l = strings.TrimSpace(l); l != "" {
			lines = append(lines, l)
		}
	}
	return lines
}

func optional(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}
