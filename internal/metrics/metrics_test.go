package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestCounters(t *testing.T) {
	m := New()
	m.Formatted("mappings")
	m.Formatted("mappings")
	m.Decided(true, "rules")
	m.Decided(false, "")
	m.Oracle("judge", errors.New("boom"))

	assert.InDelta(t, 2, testutil.ToFloat64(m.AlertsFormatted.WithLabelValues("mappings")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.WhitelistDecisions.WithLabelValues("whitelisted", "rules")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.WhitelistDecisions.WithLabelValues("not_whitelisted", "none")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.OracleCalls.WithLabelValues("judge", "error")), 0)
}

func TestHandler(t *testing.T) {
	m := New()
	m.Formatted("generic")

	w := httptest.NewRecorder()
	m.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `alertnorm_alerts_formatted_total{tier="generic"} 1`)
}
