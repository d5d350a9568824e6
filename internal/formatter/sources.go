package formatter

import (
	"strings"
	"unicode"

	"github.com/ruby4mag/alert-normalizer/internal/models"
)

// MappingSource is one named table of label to path mappings.
type MappingSource struct {
	Name     string
	Mappings []models.FieldMapping
}

const (
	SourceGlobal   = "global"
	SourceTemplate = "template"
	SourceDefaults = "defaults"
)

// Sources returns the lookup tables in precedence order: global mappings,
// then the template's own, then DefaultMappings.
func Sources(global []models.FieldMapping, tmpl *models.AlertFormatTemplate) []MappingSource {
	var own []models.FieldMapping
	if tmpl != nil {
		own = tmpl.FieldMappings
	}
	return []MappingSource{
		{Name: SourceGlobal, Mappings: global},
		{Name: SourceTemplate, Mappings: own},
		{Name: SourceDefaults, Mappings: DefaultMappings},
	}
}

// MergeMappings flattens sources into one table. The first source that
// defines a label wins; later sources only fill labels still missing.
func MergeMappings(sources ...MappingSource) []models.FieldMapping {
	seen := map[string]bool{}
	var merged []models.FieldMapping
	for _, src := range sources {
		for _, m := range src.Mappings {
			label := strings.TrimSpace(m.Label)
			if label == "" || strings.TrimSpace(m.Path) == "" || seen[label] {
				continue
			}
			seen[label] = true
			merged = append(merged, models.FieldMapping{Label: label, Path: strings.TrimSpace(m.Path)})
		}
	}
	return merged
}

// lookupPath finds the path for label: exact label, then case-insensitive,
// then substring containment either way on whitespace-free lower-case labels.
func lookupPath(table []models.FieldMapping, label string) (string, bool) {
	label = strings.TrimSpace(label)
	for _, m := range table {
		if m.Label == label {
			return m.Path, true
		}
	}
	for _, m := range table {
		if strings.EqualFold(m.Label, label) {
			return m.Path, true
		}
	}
	want := squash(label)
	if want == "" {
		return "", false
	}
	for _, m := range table {
		have := squash(m.Label)
		if have != "" && (strings.Contains(have, want) || strings.Contains(want, have)) {
			return m.Path, true
		}
	}
	return "", false
}

func squash(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return unicode.ToLower(r)
	}, s)
}
