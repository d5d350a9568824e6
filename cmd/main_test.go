package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ruby4mag/alert-normalizer/internal/auth"
	"github.com/ruby4mag/alert-normalizer/internal/config"
	"github.com/ruby4mag/alert-normalizer/internal/models"
	"github.com/ruby4mag/alert-normalizer/internal/store"
)

const scanAlert = `{
	"xdr_event": {"display_name": "Port Scan", "description": "Scan detected"},
	"tenant_name": "ACME Corp (prod)",
	"timestamp": 1718003700000,
	"srcip": "10.0.0.5",
	"processname": "C:\\tools\\nmap.exe"
}`

const seedYAML = `templates:
  - alertName: Port Scan
    fieldMappings:
      - label: Source IP
        path: srcip
  - eventName: DNS Tunnel
    expectedFormat:
      - DNS Tunnel
      - Domain
mappings:
  - label: Host Name
    path: agent.hostname
whitelist:
  - |
    Malware: dropper
    quarantined already
  - |
    Port Scan: internal
    Process Name:
    nmap.exe
    scheduled pentest
`

const notes = "Malware: dropper\nquarantined already\n\n  \nPort Scan: internal\nProcess Name:\nnmap.exe\nscheduled pentest\n"

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Setenv("ALERTNORM_ENGINE_TIMEZONE", "UTC")
	t.Setenv("ALERTNORM_ENGINE_ALLOWED_TENANTS", "acme")

	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&bytes.Buffer{})
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func TestSplitNotes(t *testing.T) {
	got := splitNotes("a\nb\r\n\r\nc\n \t\n\n\nd\n")
	assert.Equal(t, []string{"a\nb", "c", "d"}, got)
	assert.Empty(t, splitNotes("\n  \n"))
}

func TestApplySeed(t *testing.T) {
	seed, err := loadSeed(writeFile(t, "seed.yaml", seedYAML))
	require.NoError(t, err)
	require.Len(t, seed.Templates, 2)
	require.Len(t, seed.Whitelist, 2)

	loader := store.Loader{Templates: &store.MemoryTemplates{}, Mappings: &store.MemoryMappings{}, Rules: &store.MemoryRules{}}
	counts, err := applySeed(context.Background(), seed, loader.Templates, loader.Mappings, loader.Rules)
	require.NoError(t, err)
	assert.Equal(t, seedCounts{Templates: 2, Mappings: 1, Rules: 2}, counts)

	snap, err := loader.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "port scan", snap.Templates[0].AlertIdentifier)
	assert.Equal(t, "dns tunnel", snap.Templates[1].AlertIdentifier)
	assert.Equal(t, []models.FieldMapping{{Label: "Host Name", Path: "agent.hostname"}}, snap.GlobalMappings)
	require.Len(t, snap.Rules, 2)
	assert.Equal(t, "Malware: dropper", snap.Rules[0].AlertSignature, "first note in the file lists first")
	assert.Equal(t, "seed", snap.Rules[0].CreatedBy)
}

func TestApplySeedRejectsInvalid(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"template without content", "templates:\n  - alertName: X\n"},
		{"duplicate mapping labels", "mappings:\n  - {label: A, path: a}\n  - {label: A, path: b}\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			seed, err := loadSeed(writeFile(t, "seed.yaml", tt.yaml))
			require.NoError(t, err)
			templates := &store.MemoryTemplates{}
			_, err = applySeed(context.Background(), seed, templates, &store.MemoryMappings{}, &store.MemoryRules{})
			assert.Error(t, err)
			list, _ := templates.List(context.Background())
			assert.Empty(t, list)
		})
	}

	_, err := loadSeed(writeFile(t, "seed.yaml", "templates: [oops"))
	assert.Error(t, err)
}

func TestFormatCommand(t *testing.T) {
	alert := writeFile(t, "alert.json", scanAlert)
	seed := writeFile(t, "seed.yaml", seedYAML)

	out, err := run(t, "format", "--payload", alert, "--seed", seed)
	require.NoError(t, err)
	assert.Equal(t, "Port Scan\n\n6/10/24, 7:15 AM\n\nScan detected\n\nSource IP\n10.0.0.5\n", out)

	out, err = run(t, "format", "--payload", alert)
	require.NoError(t, err)
	assert.Contains(t, out, "Port Scan")

	out, err = run(t, "format", "--payload", alert, "--seed", seed, "--json")
	require.NoError(t, err)
	var res map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.Equal(t, "mappings", res["tier"])
	assert.Equal(t, true, res["whitelist"].(map[string]any)["matched"])

	_, err = run(t, "format", "--payload", writeFile(t, "bad.json", "{"))
	assert.Error(t, err)
	_, err = run(t, "format")
	assert.Error(t, err)
}

func TestWhitelistCommands(t *testing.T) {
	notesPath := writeFile(t, "notes.txt", notes)

	out, err := run(t, "whitelist", "parse", "--file", notesPath)
	require.NoError(t, err)
	var rules []models.WhitelistRule
	require.NoError(t, json.Unmarshal([]byte(out), &rules))
	require.Len(t, rules, 2)
	assert.Equal(t, "nmap.exe", models.Value(rules[1].ProcessName))

	out, err = run(t, "whitelist", "check", "--payload", writeFile(t, "alert.json", scanAlert), "--rules", notesPath)
	require.NoError(t, err)
	var res struct {
		Alert     string `json:"alert"`
		Whitelist struct {
			Matched bool   `json:"matched"`
			Reason  string `json:"reason"`
		} `json:"whitelist"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.Equal(t, "Port Scan", res.Alert)
	assert.True(t, res.Whitelist.Matched)
	assert.Equal(t, "scheduled pentest", res.Whitelist.Reason)

	_, err = run(t, "whitelist", "parse", "--file", writeFile(t, "empty.txt", "\n\n"))
	assert.Error(t, err)
}

func TestNewRouterCORS(t *testing.T) {
	gin.SetMode(gin.TestMode)
	tests := []struct {
		name    string
		origins []string
		origin  string
		want    string
	}{
		{"any origin", nil, "http://ui.example", "*"},
		{"listed origin", []string{"http://ui.example"}, "http://ui.example", "http://ui.example"},
		{"unlisted origin", []string{"http://ui.example"}, "http://evil.example", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := newRouter(config.HTTPConfig{CORSOrigins: tt.origins}, zap.NewNop())
			require.NoError(t, err)
			r.GET("/ping", func(c *gin.Context) { c.Status(http.StatusOK) })

			req := httptest.NewRequest(http.MethodGet, "/ping", nil)
			req.Header.Set("Origin", tt.origin)
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)
			assert.Equal(t, tt.want, w.Header().Get("Access-Control-Allow-Origin"))
			if tt.want != "" {
				assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
			}
		})
	}
}

func TestNewRouterTrustedProxies(t *testing.T) {
	gin.SetMode(gin.TestMode)
	allow, err := auth.IPAllowList([]string{"10.0.0.0/8"})
	require.NoError(t, err)

	tests := []struct {
		name    string
		proxies []string
		want    int
	}{
		{"forwarded header ignored by default", nil, http.StatusForbidden},
		{"forwarded header from trusted proxy", []string{"203.0.113.9"}, http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := newRouter(config.HTTPConfig{TrustedProxies: tt.proxies}, zap.NewNop())
			require.NoError(t, err)
			r.GET("/ping", allow, func(c *gin.Context) { c.Status(http.StatusOK) })

			req := httptest.NewRequest(http.MethodGet, "/ping", nil)
			req.RemoteAddr = "203.0.113.9:4711"
			req.Header.Set("X-Forwarded-For", "10.1.2.3")
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)
			assert.Equal(t, tt.want, w.Code)
		})
	}

	_, err = newRouter(config.HTTPConfig{TrustedProxies: []string{"not-an-ip"}}, zap.NewNop())
	assert.Error(t, err)
}

func TestServeRequiresSecret(t *testing.T) {
	err := serve(context.Background(), &config.Config{}, zap.NewNop())
	assert.ErrorContains(t, err, "jwt_secret")
}
