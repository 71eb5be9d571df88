package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds the service settings. Every key can be overridden from the
// environment by upper-casing it and replacing dots with underscores
// (clickhouse.addr -> CLICKHOUSE_ADDR).
type Config struct {
	Environment string `mapstructure:"environment"`
	Port        string `mapstructure:"port"`
	GRPCPort    string `mapstructure:"grpc_port"`
	DBDriver    string `mapstructure:"db_driver"`
	EventConfig string `mapstructure:"event_config"`

	SessionSecret string        `mapstructure:"session_secret"`
	SessionTTL    time.Duration `mapstructure:"session_ttl"`
	PollInterval  time.Duration `mapstructure:"poll_interval"`

	SQLite     SQLiteConfig     `mapstructure:"sqlite"`
	Database   DatabaseConfig   `mapstructure:"database"`
	NATS       NATSConfig       `mapstructure:"nats"`
	ClickHouse ClickHouseConfig `mapstructure:"clickhouse"`
	Redis      RedisConfig      `mapstructure:"redis"`
	Authentik  AuthentikConfig  `mapstructure:"authentik"`
	Login      LoginConfig      `mapstructure:"login"`
	Report     ReportConfig     `mapstructure:"report"`
}

type SQLiteConfig struct {
	File string `mapstructure:"file"`
}

type DatabaseConfig struct {
	URL string `mapstructure:"url"`
}

// NATSConfig selects the event upstream. Mode is one of none (process-local
// bus only), mock, embedded or external.
type NATSConfig struct {
	Mode     string `mapstructure:"mode"`
	StoreDir string `mapstructure:"store_dir"`
	URL      string `mapstructure:"url"`
	Subject  string `mapstructure:"subject"`
	Stream   string `mapstructure:"stream"`
}

type ClickHouseConfig struct {
	Addr     string `mapstructure:"addr"`
	DB       string `mapstructure:"db"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
}

type RedisConfig struct {
	Addr     string        `mapstructure:"addr"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	TTL      time.Duration `mapstructure:"ttl"`
}

type AuthentikConfig struct {
	BaseURL      string `mapstructure:"base_url"`
	ClientID     string `mapstructure:"client_id"`
	ClientSecret string `mapstructure:"client_secret"`
	RedirectURL  string `mapstructure:"redirect_url"`
	AdminGroup   string `mapstructure:"admin_group"`
}

// Enabled reports whether Authentik single sign-on is configured
func (a AuthentikConfig) Enabled() bool {
	return a.BaseURL != "" && a.ClientID != "" && a.ClientSecret != ""
}

type LoginConfig struct {
	Rate  float64 `mapstructure:"rate"`
	Burst int     `mapstructure:"burst"`
}

type ReportConfig struct {
	Timezone string `mapstructure:"timezone"`
}

// Location resolves the report timezone, falling back to UTC
func (r ReportConfig) Location() *time.Location {
	loc, err := time.LoadLocation(r.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// IsDevelopment reports whether the service runs with in-process infrastructure
func (c *Config) IsDevelopment() bool {
	return c.Environment == "" || c.Environment == "development"
}

var defaults = map[string]any{
	"environment":             "development",
	"port":                    "3000",
	"grpc_port":               "50051",
	"db_driver":               "memory",
	"event_config":            "",
	"session_secret":          "",
	"session_ttl":             "24h",
	"poll_interval":           "30s",
	"sqlite.file":             "dev.sqlite",
	"database.url":            "",
	"nats.mode":               "none",
	"nats.store_dir":          "",
	"nats.url":                "nats://localhost:4222",
	"nats.subject":            "judging.events",
	"nats.stream":             "JUDGING_EVENTS",
	"clickhouse.addr":         "",
	"clickhouse.db":           "default",
	"clickhouse.user":         "default",
	"clickhouse.password":     "",
	"redis.addr":              "",
	"redis.password":          "",
	"redis.db":                0,
	"redis.ttl":               "24h",
	"authentik.base_url":      "",
	"authentik.client_id":     "",
	"authentik.client_secret": "",
	"authentik.redirect_url":  "http://localhost:3000/auth/sso/callback",
	"authentik.admin_group":   "admins",
	"login.rate":              1.0,
	"login.burst":             5,
	"report.timezone":         "UTC",
}

// Load reads .env, an optional config.yaml and the environment
func Load() (*Config, error) {
	loadEnvFile()

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./configs")
	v.AddConfigPath(".")

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

func loadEnvFile() {
	if _, err := os.Stat(".env"); err == nil {
		_ = godotenv.Load(".env")
	}
}

func (c *Config) validate() error {
	switch c.DBDriver {
	case "memory", "sqlite":
	case "postgres":
		if c.Database.URL == "" {
			return fmt.Errorf("DATABASE_URL is required for postgres driver")
		}
	default:
		return fmt.Errorf("unknown DB_DRIVER %q (valid: memory, sqlite, postgres)", c.DBDriver)
	}

	switch c.NATS.Mode {
	case "none", "mock", "embedded", "external":
	default:
		return fmt.Errorf("unknown NATS_MODE %q (valid: none, mock, embedded, external)", c.NATS.Mode)
	}

	if c.PollInterval < 30*time.Second || c.PollInterval > 60*time.Second {
		return fmt.Errorf("POLL_INTERVAL must be between 30s and 60s, got %s", c.PollInterval)
	}

	if !c.IsDevelopment() && c.SessionSecret == "" {
		return fmt.Errorf("SESSION_SECRET is required outside development")
	}

	if c.Login.Rate <= 0 || c.Login.Burst < 1 {
		return fmt.Errorf("LOGIN_RATE and LOGIN_BURST must be positive")
	}

	return nil
}
