package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.HTTP.Addr)
	assert.Equal(t, "alertnorm", cfg.Mongo.Database)
	assert.Equal(t, 30*time.Second, cfg.Redis.SnapshotTTL)
	assert.Equal(t, 15*time.Hour, cfg.Auth.TokenTTL)
	assert.InDelta(t, 0.5, cfg.Engine.FuzzyThreshold, 1e-9)
	assert.Equal(t, 32, cfg.Engine.MaxSearchDepth)
	assert.False(t, cfg.AI.Enabled)
	assert.Empty(t, cfg.Engine.AllowedTenants)
	assert.Empty(t, cfg.HTTP.TrustedProxies)
	assert.Equal(t, int64(4<<20), cfg.HTTP.MaxBodyBytes)
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("ALERTNORM_ENGINE_ALLOWED_TENANTS", "acme, globex")
	t.Setenv("ALERTNORM_ENGINE_FUZZY_THRESHOLD", "0.7")
	t.Setenv("ALERTNORM_HTTP_ADDR", ":9090")
	t.Setenv("ALERTNORM_HTTP_TRUSTED_PROXIES", "10.0.0.1,192.168.0.0/16")
	t.Setenv("ALERTNORM_HTTP_MAX_BODY_BYTES", "1024")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, []string{"acme", "globex"}, cfg.Engine.AllowedTenants)
	assert.InDelta(t, 0.7, cfg.Engine.FuzzyThreshold, 1e-9)
	assert.Equal(t, ":9090", cfg.HTTP.Addr)
	assert.Equal(t, []string{"10.0.0.1", "192.168.0.0/16"}, cfg.HTTP.TrustedProxies)
	assert.Equal(t, int64(1024), cfg.HTTP.MaxBodyBytes)
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "alertnorm.yaml")
	content := "http:\n  allowed_ips: [\"10.0.0.0/8\"]\nlog:\n  level: debug\n  encoding: console\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"10.0.0.0/8"}, cfg.HTTP.AllowedIPs)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "console", cfg.Log.Encoding)
}

func TestLoadInvalid(t *testing.T) {
	t.Setenv("ALERTNORM_ENGINE_FUZZY_THRESHOLD", "1.5")
	_, err := Load("")
	assert.Error(t, err)

	t.Setenv("ALERTNORM_ENGINE_FUZZY_THRESHOLD", "0.5")
	t.Setenv("ALERTNORM_HTTP_MAX_BODY_BYTES", "0")
	_, err = Load("")
	assert.Error(t, err)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestLocation(t *testing.T) {
	loc, err := EngineConfig{Timezone: "Local"}.Location()
	require.NoError(t, err)
	assert.Equal(t, time.Local, loc)

	loc, err = EngineConfig{Timezone: "UTC"}.Location()
	require.NoError(t, err)
	assert.Equal(t, time.UTC, loc)

	_, err = EngineConfig{Timezone: "Nowhere/City"}.Location()
	assert.Error(t, err)
}
