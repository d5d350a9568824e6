// Package config loads service settings from an optional file, a .env file
// and ALERTNORM_* environment variables.
package config

import (
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const EnvPrefix = "ALERTNORM"

type Config struct {
	HTTP   HTTPConfig   `mapstructure:"http"`
	Mongo  MongoConfig  `mapstructure:"mongo"`
	Redis  RedisConfig  `mapstructure:"redis"`
	Auth   AuthConfig   `mapstructure:"auth"`
	Engine EngineConfig `mapstructure:"engine"`
	AI     AIConfig     `mapstructure:"ai"`
	Log    LogConfig    `mapstructure:"log"`
}

type HTTPConfig struct {
	Addr        string   `mapstructure:"addr" validate:"required"`
	AllowedIPs  []string `mapstructure:"allowed_ips"`
	CORSOrigins []string `mapstructure:"cors_origins"`
	// TrustedProxies lists the proxies whose X-Forwarded-For and X-Real-IP
	// headers are believed. Empty means the client IP is always the peer
	// address.
	TrustedProxies []string `mapstructure:"trusted_proxies"`
	MaxBodyBytes   int64    `mapstructure:"max_body_bytes" validate:"gt=0"`
}

type MongoConfig struct {
	URI      string `mapstructure:"uri" validate:"required"`
	Database string `mapstructure:"database" validate:"required"`
}

type RedisConfig struct {
	Addr        string        `mapstructure:"addr" validate:"required"`
	Password    string        `mapstructure:"password"`
	DB          int           `mapstructure:"db" validate:"gte=0"`
	SnapshotTTL time.Duration `mapstructure:"snapshot_ttl" validate:"gte=0"`
}

type AuthConfig struct {
	JWTSecret  string        `mapstructure:"jwt_secret"`
	TokenTTL   time.Duration `mapstructure:"token_ttl" validate:"gt=0"`
	RefreshTTL time.Duration `mapstructure:"refresh_ttl" validate:"gt=0"`
	// LoginRate is login attempts per minute per client IP.
	LoginRate  int `mapstructure:"login_rate" validate:"gt=0"`
	LoginBurst int `mapstructure:"login_burst" validate:"gt=0"`
}

type EngineConfig struct {
	// AllowedTenants gates timeOccurred: it is only extracted for payloads
	// whose tenant name is listed. The default is empty, so no alert carries
	// a time until tenants are configured.
	AllowedTenants []string `mapstructure:"allowed_tenants"`
	FuzzyThreshold float64  `mapstructure:"fuzzy_threshold" validate:"gt=0,lt=1"`
	Timezone       string   `mapstructure:"timezone"`
	MaxSearchDepth int      `mapstructure:"max_search_depth" validate:"gt=0"`
}

type AIConfig struct {
	Enabled   bool          `mapstructure:"enabled"`
	OllamaURL string        `mapstructure:"ollama_url" validate:"omitempty,url"`
	Model     string        `mapstructure:"model" validate:"required_if=Enabled true"`
	Timeout   time.Duration `mapstructure:"timeout" validate:"gt=0"`
}

type LogConfig struct {
	Level    string `mapstructure:"level" validate:"oneof=debug info warn error"`
	Encoding string `mapstructure:"encoding" validate:"oneof=json console"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("http.addr", ":8080")
	v.SetDefault("http.allowed_ips", []string{})
	v.SetDefault("http.cors_origins", []string{})
	v.SetDefault("http.trusted_proxies", []string{})
	v.SetDefault("http.max_body_bytes", 4<<20)
	v.SetDefault("mongo.uri", "mongodb://localhost:27017")
	v.SetDefault("mongo.database", "alertnorm")
	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.snapshot_ttl", 30*time.Second)
	v.SetDefault("auth.jwt_secret", "")
	v.SetDefault("auth.token_ttl", 15*time.Hour)
	v.SetDefault("auth.refresh_ttl", 24*time.Hour)
	v.SetDefault("auth.login_rate", 5)
	v.SetDefault("auth.login_burst", 5)
	v.SetDefault("engine.allowed_tenants", []string{})
	v.SetDefault("engine.fuzzy_threshold", 0.5)
	v.SetDefault("engine.timezone", "Local")
	v.SetDefault("engine.max_search_depth", 32)
	v.SetDefault("ai.enabled", false)
	v.SetDefault("ai.ollama_url", "http://localhost:11434")
	v.SetDefault("ai.model", "llama3")
	v.SetDefault("ai.timeout", 60*time.Second)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.encoding", "json")
}

// Load reads configuration. path may be empty; a missing .env file is fine.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, errors.Wrapf(err, "read config %s", path)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, errors.Wrap(err, "decode config")
	}
	cfg.HTTP.AllowedIPs = splitList(cfg.HTTP.AllowedIPs)
	cfg.HTTP.CORSOrigins = splitList(cfg.HTTP.CORSOrigins)
	cfg.HTTP.TrustedProxies = splitList(cfg.HTTP.TrustedProxies)
	cfg.Engine.AllowedTenants = splitList(cfg.Engine.AllowedTenants)

	if err := validator.New().Struct(&cfg); err != nil {
		return nil, errors.Wrap(err, "invalid config")
	}
	return &cfg, nil
}

// Location resolves Engine.Timezone; "" and "Local" mean the host zone.
func (c EngineConfig) Location() (*time.Location, error) {
	if c.Timezone == "" || strings.EqualFold(c.Timezone, "local") {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, errors.Wrapf(err, "load timezone %s", c.Timezone)
	}
	return loc, nil
}

// splitList accepts comma-separated entries, which is how list values
// arrive from the environment.
func splitList(in []string) []string {
	out := []string{}
	for _, item := range in {
		for _, part := range strings.Split(item, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}
