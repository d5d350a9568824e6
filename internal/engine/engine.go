// Package engine runs one alert through extraction, template selection,
// formatting and whitelist matching. It holds no mutable state, so one
// Engine serves concurrent calls.
package engine

import (
	"time"

	"github.com/ruby4mag/alert-normalizer/internal/extract"
	"github.com/ruby4mag/alert-normalizer/internal/formatter"
	"github.com/ruby4mag/alert-normalizer/internal/models"
	"github.com/ruby4mag/alert-normalizer/internal/payload"
	"github.com/ruby4mag/alert-normalizer/internal/whitelist"
)

type Options struct {
	AllowedTenants []string
	FuzzyThreshold float64
	Location       *time.Location
	MaxSearchDepth int
}

type Engine struct {
	extractor extract.Extractor
	selector  formatter.Selector
	formatter formatter.Formatter
}

func New(opts Options) *Engine {
	return &Engine{
		extractor: extract.Extractor{AllowedTenants: opts.AllowedTenants, Location: opts.Location},
		selector:  formatter.Selector{Threshold: opts.FuzzyThreshold},
		formatter: formatter.Formatter{Search: payload.Search{MaxDepth: opts.MaxSearchDepth}},
	}
}

type Result struct {
	Alert     extract.Alert               `json:"alert"`
	Category  extract.Category            `json:"category"`
	Fields    []extract.DisplayField      `json:"fields"`
	Report    string                      `json:"report"`
	Tier      formatter.Tier              `json:"tier"`
	Template  *models.AlertFormatTemplate `json:"template,omitempty"`
	Match     *formatter.Match            `json:"match,omitempty"`
	Whitelist whitelist.Decision          `json:"whitelist"`
}

// Process formats obj and checks it against the snapshot's rules.
func (e *Engine) Process(obj *payload.Object, snap models.Snapshot) Result {
	alert := e.extractor.Extract(obj)
	res := Result{
		Alert:    alert,
		Category: extract.Classify(alert.Name, alert.Fields),
		Fields:   extract.OrderFields(alert.Name, alert.Fields),
	}

	var tmpl *models.AlertFormatTemplate
	if m, ok := e.selector.Select(alert.Name, alert.EventName, snap.Templates); ok {
		tmpl = m.Template
		res.Template = m.Template
		res.Match = &m
	}

	out := e.formatter.Format(obj, Header(alert), tmpl, formatter.Sources(snap.GlobalMappings, tmpl))
	res.Report = out.Text
	res.Tier = out.Tier
	res.Whitelist = whitelist.Match(whitelist.SubjectOf(alert), snap.Rules)
	return res
}

// ProcessJSON parses data and runs Process. Only malformed JSON is an error.
func (e *Engine) ProcessJSON(data []byte, snap models.Snapshot) (Result, error) {
	obj, err := payload.Parse(data)
	if err != nil {
		return Result{}, err
	}
	return e.Process(obj, snap), nil
}

// Extract exposes the engine's extractor.
func (e *Engine) Extract(obj *payload.Object) extract.Alert {
	return e.extractor.Extract(obj)
}

// CheckWhitelist runs only the whitelist match.
func (e *Engine) CheckWhitelist(obj *payload.Object, rules []models.WhitelistRule) (extract.Alert, whitelist.Decision) {
	alert := e.extractor.Extract(obj)
	return alert, whitelist.Match(whitelist.SubjectOf(alert), rules)
}

// Learn derives field mappings for a template from a sample payload.
func (e *Engine) Learn(obj *payload.Object, expectedFormat []string) []models.FieldMapping {
	return e.formatter.Learn(obj, expectedFormat)
}

// Header is the report header of an extracted alert.
func Header(a extract.Alert) formatter.Header {
	return formatter.Header{AlertName: a.Name, DateTime: a.DateTime, Description: a.Description}
}
