package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Mode string

const (
	ModeOffline Mode = "offline"
	ModeOnline  Mode = "online"
)

var ErrInvalidConfig = errors.New("invalid configuration")

type Config struct {
	Mode      Mode   `mapstructure:"mode"`
	HTTPAddr  string `mapstructure:"http_addr"`
	PublicURL string `mapstructure:"public_url"`

	DBDriver string `mapstructure:"db_driver"` // sqlite|postgres
	DBDSN    string `mapstructure:"db_dsn"`

	BlobBasePath string `mapstructure:"blob_base_path"` // uploaded CVs

	RedisAddr string        `mapstructure:"redis_addr"` // empty disables the result cache
	RedisTTL  time.Duration `mapstructure:"redis_ttl"`

	WebhookURL     string        `mapstructure:"webhook_url"`
	WebhookTimeout time.Duration `mapstructure:"webhook_timeout"`
	FormMode       string        `mapstructure:"form_mode"`

	ApifyToken   string `mapstructure:"apify_token"`
	ApifyBaseURL string `mapstructure:"apify_base_url"`

	EnableLocalAuth bool   `mapstructure:"enable_local_auth"`
	AuthHMACSecret  string `mapstructure:"auth_hmac_secret"`
	AdminUser       string `mapstructure:"admin_user"`
	AdminPassHash   string `mapstructure:"admin_pass_hash"` // bcrypt
	AnalystUser     string `mapstructure:"analyst_user"`
	AnalystPassHash string `mapstructure:"analyst_pass_hash"` // bcrypt, empty disables the account

	CORSOriginsOnline  []string `mapstructure:"cors_origins_online"`
	CORSOriginsOffline []string `mapstructure:"cors_origins_offline"`

	LogLevel  string `mapstructure:"log_level"`
	LogFormat string `mapstructure:"log_format"` // text|json
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("mode", string(ModeOffline))
	v.SetDefault("http_addr", ":8080")
	v.SetDefault("public_url", "")
	v.SetDefault("db_driver", "sqlite")
	v.SetDefault("db_dsn", "")
	v.SetDefault("blob_base_path", "./data")
	v.SetDefault("redis_addr", "")
	v.SetDefault("redis_ttl", 10*time.Minute)
	v.SetDefault("webhook_url", "")
	v.SetDefault("webhook_timeout", 30*time.Second)
	v.SetDefault("form_mode", "linkedin")
	v.SetDefault("apify_token", "")
	v.SetDefault("apify_base_url", "https://api.apify.com")
	v.SetDefault("enable_local_auth", true)
	v.SetDefault("auth_hmac_secret", "")
	v.SetDefault("admin_user", "admin")
	v.SetDefault("admin_pass_hash", "")
	v.SetDefault("analyst_user", "analyst")
	v.SetDefault("analyst_pass_hash", "")
	v.SetDefault("cors_origins_online", "https://audit.mimprep.com")
	v.SetDefault("cors_origins_offline", "http://localhost:3000,http://localhost:3010")
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "text")
}

// FromEnv reads the configuration from the environment only.
func FromEnv() (Config, error) {
	return Load("")
}

// Load reads defaults, then file (YAML or JSON, optional), then the environment.
func Load(file string) (Config, error) {
	return LoadWith(viper.New(), file)
}

// LoadWith is Load on a caller-owned viper, so command-line flags bound to v win over
// the file and the environment.
func LoadWith(v *viper.Viper, file string) (Config, error) {
	setDefaults(v)
	if file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", file, err)
		}
	}
	// MODE, HTTP_ADDR, DB_DSN, ... map onto the keys above
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	cfg.CORSOriginsOnline = cleanList(cfg.CORSOriginsOnline)
	cfg.CORSOriginsOffline = cleanList(cfg.CORSOriginsOffline)
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	switch c.Mode {
	case ModeOffline, ModeOnline:
	default:
		return fmt.Errorf("%w: mode %q (offline|online)", ErrInvalidConfig, c.Mode)
	}
	switch c.DBDriver {
	case "sqlite", "postgres":
	default:
		return fmt.Errorf("%w: db_driver %q (sqlite|postgres)", ErrInvalidConfig, c.DBDriver)
	}
	switch c.LogFormat {
	case "text", "json":
	default:
		return fmt.Errorf("%w: log_format %q (text|json)", ErrInvalidConfig, c.LogFormat)
	}
	if _, err := parseLevel(c.LogLevel); err != nil {
		return err
	}
	if c.WebhookTimeout <= 0 {
		return fmt.Errorf("%w: webhook_timeout must be positive", ErrInvalidConfig)
	}
	if c.Mode == ModeOnline && c.AuthHMACSecret == "" {
		return fmt.Errorf("%w: auth_hmac_secret is required online", ErrInvalidConfig)
	}
	return nil
}

// CORSOrigins returns the allowed origins for the current mode.
func (c Config) CORSOrigins() []string {
	if c.Mode == ModeOnline {
		return c.CORSOriginsOnline
	}
	return c.CORSOriginsOffline
}

// Logger builds the process logger from log_level and log_format.
func (c Config) Logger(w io.Writer) *slog.Logger {
	if w == nil {
		w = os.Stderr
	}
	lvl, _ := parseLevel(c.LogLevel)
	opts := &slog.HandlerOptions{Level: lvl}
	if c.LogFormat == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

func parseLevel(s string) (slog.Level, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(strings.TrimSpace(s))); err != nil {
		return slog.LevelInfo, fmt.Errorf("%w: log_level %q", ErrInvalidConfig, s)
	}
	return lvl, nil
}

func cleanList(in []string) []string {
	out := make([]string, 0, len(in))
	for _, item := range in {
		for _, p := range strings.Split(item, ",") {
			if s := strings.TrimSpace(p); s != "" {
				out = append(out, s)
			}
		}
	}
	return out
}
