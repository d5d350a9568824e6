package models

import (
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// FieldMapping names a value of an alert payload: Label is shown in the
// report, Path is the dotted JSON path it is read from.
type FieldMapping struct {
	Label string `bson:"label" json:"label" yaml:"label" validate:"notblank"`
	Path  string `bson:"path" json:"path" yaml:"path" validate:"notblank"`
}

// Normalize drops surrounding whitespace from Label and Path.
func (m *FieldMapping) Normalize() {
	m.Label = strings.TrimSpace(m.Label)
	m.Path = strings.TrimSpace(m.Path)
}

// DbFieldMapping is a global mapping stored on its own.
type DbFieldMapping struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty" yaml:"-"`
	FieldMapping `bson:",inline" yaml:",inline"`
	CreatedAt    time.Time `bson:"created_at" json:"createdAt" yaml:"-"`
}

// AlertFormatTemplate is a saved example of the report wanted for one alert type.
type AlertFormatTemplate struct {
	ID              primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty" yaml:"-"`
	AlertIdentifier string             `bson:"alert_identifier" json:"alertIdentifier" yaml:"alertIdentifier"`
	AlertName       string             `bson:"alert_name" json:"alertName" yaml:"alertName" validate:"required_without=EventName"`
	EventName       string             `bson:"event_name" json:"eventName" yaml:"eventName"`
	ExpectedFormat  []string           `bson:"expected_format" json:"expectedFormat" yaml:"expectedFormat"`
	FieldMappings   []FieldMapping     `bson:"field_mappings" json:"fieldMappings" yaml:"fieldMappings" validate:"dive"`
	CreatedAt       time.Time          `bson:"created_at" json:"createdAt" yaml:"-"`
}

// Identifier is the lower-cased alert name, or event name when there is none.
func Identifier(alertName, eventName string) string {
	id := strings.TrimSpace(alertName)
	if id == "" {
		id = strings.TrimSpace(eventName)
	}
	return strings.ToLower(id)
}

// Normalize fills AlertIdentifier and drops surrounding whitespace from names
// and field mappings.
func (t *AlertFormatTemplate) Normalize() {
	t.AlertName = strings.TrimSpace(t.AlertName)
	t.EventName = strings.TrimSpace(t.EventName)
	if strings.TrimSpace(t.AlertIdentifier) == "" {
		t.AlertIdentifier = Identifier(t.AlertName, t.EventName)
	}
	t.AlertIdentifier = strings.ToLower(strings.TrimSpace(t.AlertIdentifier))
	for i := range t.FieldMappings {
		t.FieldMappings[i].Normalize()
	}
}

// ExpectedLines splits ExpectedFormat into single lines; entries may hold
// embedded newlines when a whole example was saved as one string.
func (t *AlertFormatTemplate) ExpectedLines() []string {
	var out []string
	for _, entry := range t.ExpectedFormat {
		out = append(out, strings.Split(strings.ReplaceAll(entry, "\r\n", "\n"), "\n")...)
	}
	return out
}

// HasExpectedFormat reports whether the textual example has any content.
func (t *AlertFormatTemplate) HasExpectedFormat() bool {
	for _, l := range t.ExpectedLines() {
		if strings.TrimSpace(l) != "" {
			return true
		}
	}
	return false
}
