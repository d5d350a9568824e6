// Package metrics holds the service's prometheus collectors.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Metrics struct {
	registry *prometheus.Registry

	AlertsFormatted    *prometheus.CounterVec
	WhitelistDecisions *prometheus.CounterVec
	OracleCalls        *prometheus.CounterVec
}

// New registers the collectors on a fresh registry, so several instances
// (one per test) never collide.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		AlertsFormatted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "alertnorm",
			Name:      "alerts_formatted_total",
			Help:      "Alerts formatted, by rendering tier.",
		}, []string{"tier"}),
		WhitelistDecisions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "alertnorm",
			Name:      "whitelist_decisions_total",
			Help:      "Whitelist checks, by outcome and source.",
		}, []string{"outcome", "source"}),
		OracleCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "alertnorm",
			Name:      "oracle_calls_total",
			Help:      "Calls to the language model, by operation and result.",
		}, []string{"operation", "result"}),
	}
	m.registry.MustRegister(m.AlertsFormatted, m.WhitelistDecisions, m.OracleCalls)
	return m
}

// Formatted counts one rendered report.
func (m *Metrics) Formatted(tier string) {
	m.AlertsFormatted.WithLabelValues(tier).Inc()
}

// Decided counts one whitelist decision.
func (m *Metrics) Decided(matched bool, source string) {
	outcome := "not_whitelisted"
	if matched {
		outcome = "whitelisted"
	}
	if source == "" {
		source = "none"
	}
	m.WhitelistDecisions.WithLabelValues(outcome, source).Inc()
}

// Oracle counts one language model call; err decides the result label.
func (m *Metrics) Oracle(operation string, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.OracleCalls.WithLabelValues(operation, result).Inc()
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
