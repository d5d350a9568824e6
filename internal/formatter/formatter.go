// Package formatter selects the saved template for an alert and renders the
// plain-text report analysts paste into tickets.
package formatter

import (
	"regexp"
	"strings"

	"github.com/ruby4mag/alert-normalizer/internal/models"
	"github.com/ruby4mag/alert-normalizer/internal/payload"
)

// Tier is the rendering strategy that produced a report.
type Tier int

const (
	TierMappings Tier = iota + 1
	TierTextual
	TierProtocol
	TierGeneric
)

func (t Tier) String() string {
	switch t {
	case TierMappings:
		return "mappings"
	case TierTextual:
		return "textual"
	case TierProtocol:
		return "protocol"
	case TierGeneric:
		return "generic"
	}
	return "unknown"
}

func (t Tier) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// Header is the live alert metadata every report starts from.
type Header struct {
	AlertName   string
	DateTime    string
	Description string
}

type Output struct {
	Text string `json:"text"`
	Tier Tier   `json:"tier"`
}

// Formatter renders reports. Search bounds the label fallback lookups.
type Formatter struct {
	Search payload.Search
}

var timeOccurredRe = regexp.MustCompile(`(?i)time.*occur+ed|occur+ed.*time`)

// descriptionLine marks where the alert description goes in a textual example.
const descriptionLine = "description"

// Format renders obj with the first strategy whose precondition holds:
// explicit template mappings, the template's textual example, the ESET
// layout, then the bare header. sources are consulted, in order, to find
// paths for the labels of a textual example.
func (f Formatter) Format(obj *payload.Object, h Header, tmpl *models.AlertFormatTemplate, sources []MappingSource) Output {
	switch {
	case tmpl != nil && len(tmpl.FieldMappings) > 0:
		return Output{Text: f.withMappings(obj, h, tmpl.FieldMappings), Tier: TierMappings}
	case tmpl != nil && tmpl.HasExpectedFormat():
		return Output{Text: f.textual(obj, h, tmpl.ExpectedLines(), MergeMappings(sources...)), Tier: TierTextual}
	case IsESET(obj, h.AlertName):
		return Output{Text: esetReport(obj, h), Tier: TierProtocol}
	}
	var r report
	r.header(h)
	return Output{Text: r.String(), Tier: TierGeneric}
}

func (f Formatter) withMappings(obj *payload.Object, h Header, mappings []models.FieldMapping) string {
	var r report
	r.header(h)
	for _, m := range mappings {
		v, _ := payload.ResolveString(obj, strings.TrimSpace(m.Path))
		r.block(m.Label, v)
	}
	return r.String()
}

// textual renders the template's example line by line. The first line is
// the title slot even when blank; only an exact "description" line is the
// description slot, any other spelling is looked up like a label.
func (f Formatter) textual(obj *payload.Object, h Header, lines []string, table []models.FieldMapping) string {
	var r report
	for i, line := range lines {
		label := strings.TrimSpace(line)
		switch {
		case i == 0:
			r.line(h.AlertName)
		case label == "":
		case timeOccurredRe.MatchString(label):
			r.line(h.DateTime)
		case label == descriptionLine:
			r.line(h.Description)
		default:
			r.block(label, f.valueFor(obj, label, table))
		}
	}
	return r.String()
}

func (f Formatter) valueFor(obj *payload.Object, label string, table []models.FieldMapping) string {
	if path, ok := lookupPath(table, label); ok {
		for _, candidate := range fallbackPaths(path) {
			if v, ok := payload.ResolveString(obj, candidate); ok {
				return v
			}
		}
	}
	if v, ok := f.Search.ByLabel(obj, label); ok {
		return payload.Stringify(v)
	}
	return ""
}

// fallbackPaths lists path, its last segment, then the trailing sub-paths
// from longest to shortest: a.b.c.d gives a.b.c.d, d, b.c.d, c.d.
func fallbackPaths(path string) []string {
	segs := strings.Split(path, ".")
	if len(segs) < 2 {
		return []string{path}
	}
	out := []string{path, segs[len(segs)-1]}
	for i := 1; i < len(segs)-1; i++ {
		out = append(out, strings.Join(segs[i:], "."))
	}
	return out
}

// report accumulates output lines.
type report struct {
	lines []string
}

// line adds s followed by a blank line.
func (r *report) line(s string) {
	r.lines = append(r.lines, s, "")
}

// block adds label, value and a blank line. The label is always shown.
func (r *report) block(label, value string) {
	r.lines = append(r.lines, label, value, "")
}

func (r *report) header(h Header) {
	r.line(h.AlertName)
	r.line(h.DateTime)
	r.line(h.Description)
}

func (r *report) String() string {
	return strings.TrimRightFunc(strings.Join(r.lines, "\n"), isSpace)
}

func isSpace(r rune) bool {
	return r == ' ' || r == '\n' || r == '\t' || r == '\r'
}
