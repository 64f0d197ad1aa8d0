package config

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, ModeOffline, cfg.Mode)
	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, "sqlite", cfg.DBDriver)
	assert.Equal(t, 10*time.Minute, cfg.RedisTTL)
	assert.Equal(t, 30*time.Second, cfg.WebhookTimeout)
	assert.Equal(t, "https://api.apify.com", cfg.ApifyBaseURL)
	assert.True(t, cfg.EnableLocalAuth)
	assert.Equal(t, []string{"http://localhost:3000", "http://localhost:3010"}, cfg.CORSOrigins())
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("MODE", "online")
	t.Setenv("HTTP_ADDR", ":9090")
	t.Setenv("DB_DRIVER", "postgres")
	t.Setenv("DB_DSN", "postgres://audit@db/audit")
	t.Setenv("REDIS_TTL", "90s")
	t.Setenv("AUTH_HMAC_SECRET", "s3cret")
	t.Setenv("CORS_ORIGINS_ONLINE", "https://a.example, https://b.example")

	cfg, err := FromEnv()
	require.NoError(t, err)
	assert.Equal(t, ModeOnline, cfg.Mode)
	assert.Equal(t, ":9090", cfg.HTTPAddr)
	assert.Equal(t, "postgres", cfg.DBDriver)
	assert.Equal(t, "postgres://audit@db/audit", cfg.DBDSN)
	assert.Equal(t, 90*time.Second, cfg.RedisTTL)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORSOrigins())
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "audit.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
http_addr: ":7000"
webhook_url: https://hooks.example/audit
log_format: json
cors_origins_offline:
  - http://localhost:5173
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, ":7000", cfg.HTTPAddr)
	assert.Equal(t, "https://hooks.example/audit", cfg.WebhookURL)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, []string{"http://localhost:5173"}, cfg.CORSOriginsOffline)

	t.Setenv("HTTP_ADDR", ":7001")
	cfg, err = Load(path)
	require.NoError(t, err)
	assert.Equal(t, ":7001", cfg.HTTPAddr, "environment wins over the file")
}

func TestLoadWith_FlagOverride(t *testing.T) {
	v := viper.New()
	v.Set("db_dsn", "file:cli.db")
	cfg, err := LoadWith(v, "")
	require.NoError(t, err)
	assert.Equal(t, "file:cli.db", cfg.DBDSN)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	base, err := Load("")
	require.NoError(t, err)

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"mode", func(c *Config) { c.Mode = "hybrid" }},
		{"driver", func(c *Config) { c.DBDriver = "mysql" }},
		{"log format", func(c *Config) { c.LogFormat = "xml" }},
		{"log level", func(c *Config) { c.LogLevel = "loud" }},
		{"webhook timeout", func(c *Config) { c.WebhookTimeout = 0 }},
		{"online without secret", func(c *Config) { c.Mode = ModeOnline; c.AuthHMACSecret = "" }},
		{"online without secret or local auth", func(c *Config) {
			c.Mode = ModeOnline
			c.EnableLocalAuth = false
			c.AuthHMACSecret = ""
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base
			tt.mutate(&cfg)
			assert.ErrorIs(t, cfg.Validate(), ErrInvalidConfig)
		})
	}
}

func TestLogger(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	cfg.LogFormat = "json"
	cfg.LogLevel = "warn"

	var buf bytes.Buffer
	log := cfg.Logger(&buf)
	log.Info("hidden")
	log.Warn("shown", "code", "ABC")
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), `"code":"ABC"`)
}
