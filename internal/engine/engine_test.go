package engine

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ruby4mag/alert-normalizer/internal/extract"
	"github.com/ruby4mag/alert-normalizer/internal/formatter"
	"github.com/ruby4mag/alert-normalizer/internal/models"
	"github.com/ruby4mag/alert-normalizer/internal/payload"
	"github.com/ruby4mag/alert-normalizer/internal/whitelist"
)

const scanAlert = `{
	"xdr_event": {"display_name": "Port Scan", "description": "Scan detected"},
	"tenant_name": "ACME Corp (prod)",
	"timestamp": 1718003700000,
	"srcip": "10.0.0.5",
	"dstip": "10.0.0.9",
	"dstport": 445,
	"processname": "C:\\tools\\nmap.exe"
}`

func newEngine() *Engine {
	return New(Options{AllowedTenants: []string{"acme"}, Location: time.UTC})
}

func snapshot() models.Snapshot {
	nmap := "nmap.exe"
	return models.Snapshot{
		Templates: []models.AlertFormatTemplate{
			{AlertIdentifier: "dns tunnel", ExpectedFormat: []string{"DNS", "Domain"}},
			{AlertIdentifier: "port scan", FieldMappings: []models.FieldMapping{{Label: "Source IP", Path: "srcip"}}},
		},
		Rules: []models.WhitelistRule{
			{AlertSignature: "Malware", Reason: "other"},
			{ProcessName: &nmap, Reason: "scheduled pentest"},
		},
	}
}

func TestProcess(t *testing.T) {
	res, err := newEngine().ProcessJSON([]byte(scanAlert), snapshot())
	require.NoError(t, err)

	assert.Equal(t, "Port Scan\n\n6/10/24, 7:15 AM\n\nScan detected\n\nSource IP\n10.0.0.5", res.Report)
	assert.Equal(t, formatter.TierMappings, res.Tier)
	require.NotNil(t, res.Template)
	assert.Equal(t, "port scan", res.Template.AlertIdentifier)
	require.NotNil(t, res.Match)
	assert.True(t, res.Match.Exact)

	assert.True(t, res.Alert.IsAllowedTenant)
	assert.Equal(t, "2024-06-10T07:15:00.000Z", res.Alert.TimeOccurred)
	assert.Equal(t, extract.CategoryNetwork, res.Category)
	require.NotEmpty(t, res.Fields)
	assert.Equal(t, extract.SourceIP, res.Fields[0].Key)

	assert.True(t, res.Whitelist.Matched)
	assert.Equal(t, "scheduled pentest", res.Whitelist.Reason)
	assert.Equal(t, whitelist.SourceRules, res.Whitelist.Source)
}

func TestProcessWithoutTemplate(t *testing.T) {
	res, err := newEngine().ProcessJSON([]byte(`{"event_name": "Brute Force", "xdr_event": {"description": "many logins"}}`), models.Snapshot{})
	require.NoError(t, err)

	assert.Equal(t, formatter.TierGeneric, res.Tier)
	assert.Equal(t, "Brute Force\n\n\n\nmany logins", res.Report)
	assert.Nil(t, res.Template)
	assert.Nil(t, res.Match)
	assert.False(t, res.Whitelist.Matched)
	assert.Empty(t, res.Alert.TimeOccurred)
	assert.Empty(t, res.Fields)
}

func TestProcessMalformedJSON(t *testing.T) {
	_, err := newEngine().ProcessJSON([]byte(`{"xdr_event": `), snapshot())
	assert.Error(t, err)

	_, err = newEngine().ProcessJSON([]byte(`[1, 2]`), snapshot())
	assert.Error(t, err)
}

func TestCheckWhitelist(t *testing.T) {
	e := newEngine()
	obj, err := payload.Parse([]byte(scanAlert))
	require.NoError(t, err)
	alert, d := e.CheckWhitelist(obj, snapshot().Rules)
	assert.Equal(t, "Port Scan", alert.Name)
	assert.True(t, d.Matched)

	_, d = e.CheckWhitelist(obj, nil)
	assert.False(t, d.Matched)
}

func TestProcessConcurrent(t *testing.T) {
	e := newEngine()
	snap := snapshot()
	want, err := e.ProcessJSON([]byte(scanAlert), snap)
	require.NoError(t, err)

	var wg sync.WaitGroup
	results := make([]string, 16)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			res, err := e.ProcessJSON([]byte(scanAlert), snap)
			if err == nil {
				results[i] = res.Report
			}
		}(i)
	}
	wg.Wait()
	for _, r := range results {
		assert.Equal(t, want.Report, r)
	}
}
