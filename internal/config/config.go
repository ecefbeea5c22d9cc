// Package config defines the top-level configuration for the market service
// and provides validation helpers.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Config is the root configuration structure. Fields are populated from a TOML
// file and then optionally overridden by SERVERMARKET_* environment variables.
type Config struct {
	Storage   StorageConfig   `toml:"storage"`
	Postgres  PostgresConfig  `toml:"postgres"`
	SQLite    SQLiteConfig    `toml:"sqlite"`
	Redis     RedisConfig     `toml:"redis"`
	S3        S3Config        `toml:"s3"`
	Server    ServerConfig    `toml:"server"`
	Notify    NotifyConfig    `toml:"notify"`
	Economy   EconomyConfig   `toml:"economy"`
	I18n      I18nConfig      `toml:"i18n"`
	Log       LogConfig       `toml:"log"`
	Telemetry TelemetryConfig `toml:"telemetry"`
	Archive   ArchiveConfig   `toml:"archive"`
	Markets   []MarketConfig  `toml:"markets"`
	Mode      string          `toml:"mode"`
}

// StorageConfig selects the persistence backend for listings, the audit log
// and the ledger economies.
type StorageConfig struct {
	Driver string `toml:"driver"`
}

// PostgresConfig holds PostgreSQL connection parameters.
type PostgresConfig struct {
	DSN           string `toml:"dsn"`
	Host          string `toml:"host"`
	Port          int    `toml:"port"`
	Database      string `toml:"database"`
	User          string `toml:"user"`
	Password      string `toml:"password"`
	SSLMode       string `toml:"ssl_mode"`
	PoolMaxConns  int    `toml:"pool_max_conns"`
	PoolMinConns  int    `toml:"pool_min_conns"`
	RunMigrations bool   `toml:"run_migrations"`
}

// SQLiteConfig holds the embedded database location.
type SQLiteConfig struct {
	Path string `toml:"path"`
}

// RedisConfig holds Redis connection parameters.
type RedisConfig struct {
	Enabled    bool   `toml:"enabled"`
	Addr       string `toml:"addr"`
	Password   string `toml:"password"`
	DB         int    `toml:"db"`
	PoolSize   int    `toml:"pool_size"`
	MaxRetries int    `toml:"max_retries"`
	TLSEnabled bool   `toml:"tls_enabled"`
	StreamMax  int64  `toml:"stream_max_len"`
}

// S3Config holds S3-compatible object storage parameters.
type S3Config struct {
	Enabled        bool   `toml:"enabled"`
	Endpoint       string `toml:"endpoint"`
	Region         string `toml:"region"`
	Bucket         string `toml:"bucket"`
	AccessKey      string `toml:"access_key"`
	SecretKey      string `toml:"secret_key"`
	UseSSL         bool   `toml:"use_ssl"`
	ForcePathStyle bool   `toml:"force_path_style"`
}

// ServerConfig holds HTTP server parameters.
type ServerConfig struct {
	Enabled        bool     `toml:"enabled"`
	Port           int      `toml:"port"`
	APIKey         string   `toml:"api_key"`
	CORSOrigins    []string `toml:"cors_origins"`
	RateLimit      int      `toml:"rate_limit"`
	RateLimitEvery duration `toml:"rate_limit_window"`
}

// NotifyConfig holds notification channel credentials.
type NotifyConfig struct {
	TelegramToken     string   `toml:"telegram_token"`
	TelegramChatID    string   `toml:"telegram_chat_id"`
	DiscordWebhookURL string   `toml:"discord_webhook_url"`
	Events            []string `toml:"events"`
}

// EconomyConfig enables the currency providers markets may charge through.
type EconomyConfig struct {
	Vault        bool   `toml:"vault"`
	NyEconomy    bool   `toml:"nyeconomy"`
	PlayerPoints bool   `toml:"playerpoints"`
	PointsPrefix string `toml:"points_key_prefix"`
}

// I18nConfig selects the message catalog.
type I18nConfig struct {
	Locale string `toml:"locale"`
}

// LogConfig controls the process logger.
type LogConfig struct {
	Level      string `toml:"level"`
	File       string `toml:"file"`
	MaxSizeMB  int    `toml:"max_size_mb"`
	MaxBackups int    `toml:"max_backups"`
	MaxAgeDays int    `toml:"max_age_days"`
	Compress   bool   `toml:"compress"`
}

// TelemetryConfig enables OTLP trace export when Endpoint is set.
type TelemetryConfig struct {
	ServiceName string  `toml:"service_name"`
	Endpoint    string  `toml:"otlp_endpoint"`
	Insecure    bool    `toml:"insecure"`
	SampleRatio float64 `toml:"sample_ratio"`
}

// ArchiveConfig holds the listing export job parameters.
type ArchiveConfig struct {
	RetentionDays int      `toml:"retention_days"`
	Interval      duration `toml:"interval"`
}

// MarketConfig is one [[markets]] table.
type MarketConfig struct {
	Key           string           `toml:"key"`
	ShortCommand  string           `toml:"short_command"`
	Name          string           `toml:"name"`
	Permission    string           `toml:"permission"`
	MinPrice      int64            `toml:"min_price"`
	MaxPrice      int64            `toml:"max_price"`
	DenyTypes     []string         `toml:"deny_types"`
	Overrides     []OverrideConfig `toml:"overrides"`
	Limit         decimal.Decimal  `toml:"limit"`
	LimitTiers    []TierConfig     `toml:"limit_tiers"`
	Tax           decimal.Decimal  `toml:"tax"`
	TaxTiers      []TierConfig     `toml:"tax_tiers"`
	PayType       string           `toml:"pay_type"`
	EcoType       string           `toml:"eco_type"`
	EconomyName   string           `toml:"economy_name"`
	SaleBroadcast bool             `toml:"sale_broadcast"`
}

// OverrideConfig binds a lore filter to a "min-max" price range.
type OverrideConfig struct {
	Filter string `toml:"filter"`
	Range  string `toml:"range"`
}

// TierConfig is one permission-tiered value. Tiers are listed in descending
// priority.
type TierConfig struct {
	Permission string          `toml:"permission"`
	Value      decimal.Decimal `toml:"value"`
}

// duration is a wrapper around time.Duration that supports TOML string decoding
// (e.g. "5m", "30s").
type duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler so the TOML decoder can
// parse duration strings like "5m" or "30s".
func (d *duration) UnmarshalText(text []byte) error {
	var err error
	d.Duration, err = time.ParseDuration(string(text))
	return err
}

// MarshalText implements encoding.TextMarshaler for round-trip encoding.
func (d duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// Defaults returns a Config populated with reasonable default values.
// These match the values in config.example.toml.
func Defaults() Config {
	return Config{
		Storage: StorageConfig{Driver: "postgres"},
		Postgres: PostgresConfig{
			Host:          "localhost",
			Port:          5432,
			Database:      "servermarket",
			User:          "postgres",
			SSLMode:       "disable",
			PoolMaxConns:  10,
			PoolMinConns:  2,
			RunMigrations: true,
		},
		SQLite: SQLiteConfig{Path: "data/servermarket.db"},
		Redis: RedisConfig{
			Enabled:    true,
			Addr:       "localhost:6379",
			PoolSize:   20,
			MaxRetries: 3,
			StreamMax:  10000,
		},
		S3: S3Config{
			Enabled:        false,
			Endpoint:       "http://localhost:9000",
			Region:         "us-east-1",
			Bucket:         "servermarket-archive",
			ForcePathStyle: true,
		},
		Server: ServerConfig{
			Enabled:        true,
			Port:           8000,
			CORSOrigins:    []string{"http://localhost:3000"},
			RateLimit:      120,
			RateLimitEvery: duration{time.Minute},
		},
		Notify: NotifyConfig{
			Events: []string{"listing_commit_failed", "sale_broadcast"},
		},
		Economy: EconomyConfig{
			Vault:        true,
			PointsPrefix: "points",
		},
		I18n: I18nConfig{Locale: "en-US"},
		Log: LogConfig{
			Level:      "info",
			MaxSizeMB:  100,
			MaxBackups: 5,
			MaxAgeDays: 30,
			Compress:   true,
		},
		Telemetry: TelemetryConfig{
			ServiceName: "servermarket",
			SampleRatio: 1.0,
		},
		Archive: ArchiveConfig{
			RetentionDays: 30,
			Interval:      duration{24 * time.Hour},
		},
		Mode: "serve",
	}
}

// validModes enumerates the accepted values for Config.Mode.
var validModes = map[string]bool{
	"serve":   true,
	"archive": true,
	"full":    true,
}

// validLogLevels enumerates the accepted values for LogConfig.Level.
var validLogLevels = map[string]bool{
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

var validDrivers = map[string]bool{
	"postgres": true,
	"sqlite":   true,
}

// Validate checks Config for obviously invalid or missing values and returns a
// combined error describing every problem found.
func (c *Config) Validate() error {
	var errs []string

	mode := strings.ToLower(c.Mode)
	if !validModes[mode] {
		errs = append(errs, fmt.Sprintf("unknown mode %q (valid: serve, archive, full)", c.Mode))
	}
	if !validLogLevels[strings.ToLower(c.Log.Level)] {
		errs = append(errs, fmt.Sprintf("unknown log.level %q (valid: debug, info, warn, error)", c.Log.Level))
	}

	// Storage
	driver := strings.ToLower(c.Storage.Driver)
	if !validDrivers[driver] {
		errs = append(errs, fmt.Sprintf("storage: unknown driver %q (valid: postgres, sqlite)", c.Storage.Driver))
	}
	if driver == "postgres" {
		if strings.TrimSpace(c.Postgres.DSN) == "" {
			if c.Postgres.Host == "" {
				errs = append(errs, "postgres: host must not be empty (or set postgres.dsn)")
			}
			if c.Postgres.Port <= 0 || c.Postgres.Port > 65535 {
				errs = append(errs, fmt.Sprintf("postgres: port must be 1-65535, got %d", c.Postgres.Port))
			}
			if c.Postgres.Database == "" {
				errs = append(errs, "postgres: database must not be empty")
			}
		}
		if c.Postgres.PoolMaxConns < 1 {
			errs = append(errs, "postgres: pool_max_conns must be >= 1")
		}
		if c.Postgres.PoolMinConns < 0 || c.Postgres.PoolMinConns > c.Postgres.PoolMaxConns {
			errs = append(errs, "postgres: pool_min_conns must be between 0 and pool_max_conns")
		}
	}
	if driver == "sqlite" && c.SQLite.Path == "" {
		errs = append(errs, "sqlite: path must not be empty")
	}

	// Redis
	if c.Redis.Enabled {
		if c.Redis.Addr == "" {
			errs = append(errs, "redis: addr must not be empty")
		}
		if c.Redis.PoolSize < 1 {
			errs = append(errs, "redis: pool_size must be >= 1")
		}
	}
	if c.Economy.PlayerPoints && !c.Redis.Enabled {
		errs = append(errs, "economy: playerpoints requires redis.enabled")
	}

	// S3
	if c.S3.Enabled {
		if c.S3.Endpoint == "" {
			errs = append(errs, "s3: endpoint must not be empty")
		}
		if c.S3.Bucket == "" {
			errs = append(errs, "s3: bucket must not be empty")
		}
	}
	if mode == "archive" && !c.S3.Enabled {
		errs = append(errs, "archive: mode archive requires s3.enabled")
	}
	if c.Archive.RetentionDays < 1 {
		errs = append(errs, "archive: retention_days must be >= 1")
	}

	// Server
	if c.Server.Enabled {
		if c.Server.Port <= 0 || c.Server.Port > 65535 {
			errs = append(errs, fmt.Sprintf("server: port must be 1-65535, got %d", c.Server.Port))
		}
		if c.Server.RateLimit < 0 {
			errs = append(errs, "server: rate_limit must be >= 0")
		}
	}

	if c.Telemetry.SampleRatio < 0 || c.Telemetry.SampleRatio > 1 {
		errs = append(errs, "telemetry: sample_ratio must be within [0, 1]")
	}

	errs = append(errs, c.validateMarkets()...)

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}
