package formatter

import (
	"strings"
	"time"

	"github.com/ruby4mag/alert-normalizer/internal/extract"
	"github.com/ruby4mag/alert-normalizer/internal/models"
	"github.com/ruby4mag/alert-normalizer/internal/payload"
)

// LearnMappings uses a Formatter with the default search depth.
func LearnMappings(obj *payload.Object, expectedFormat []string) []models.FieldMapping {
	return Formatter{}.Learn(obj, expectedFormat)
}

// Learn turns an example report into mappings. After the title line the
// example is read as label/value pairs; each value is looked up in obj and
// the path it was found at becomes the label's path. A line whose successor
// cannot be found in obj is skipped, so labels without a sample value drop
// out. Header lines and lines that are payload values are never learned.
func (f Formatter) Learn(obj *payload.Object, expectedFormat []string) []models.FieldMapping {
	tmpl := models.AlertFormatTemplate{ExpectedFormat: expectedFormat}
	var lines []string
	for _, l := range tmpl.ExpectedLines() {
		if l = strings.TrimSpace(l); l != "" {
			lines = append(lines, l)
		}
	}
	if len(lines) < 2 {
		return []models.FieldMapping{}
	}

	seen := map[string]bool{}
	mappings := []models.FieldMapping{}
	for i := 1; i+1 < len(lines); i++ {
		label, value := lines[i], lines[i+1]
		if seen[label] || !f.isLabel(obj, label) {
			continue
		}
		_, path, ok := f.Search.BySample(obj, value)
		if !ok {
			continue
		}
		seen[label] = true
		mappings = append(mappings, models.FieldMapping{Label: label, Path: path})
		i++
	}
	return mappings
}

// isLabel rejects header lines and lines that are themselves payload values.
func (f Formatter) isLabel(obj *payload.Object, line string) bool {
	if timeOccurredRe.MatchString(line) || line == descriptionLine {
		return false
	}
	if _, err := time.Parse(extract.DateTimeLayout, line); err == nil {
		return false
	}
	_, _, found := f.Search.BySample(obj, line)
	return !found
}
