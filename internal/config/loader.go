package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// Load reads a TOML configuration file at path, merges it on top of the
// built-in defaults, applies SERVERMARKET_* environment variable overrides, and
// returns the final Config. The returned Config has NOT been validated; the
// caller should invoke Config.Validate() after Load.
func Load(path string) (*Config, error) {
	cfg := Defaults()

	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return nil, err
	}

	// Load .env file if present (silently ignore if missing).
	_ = godotenv.Load()

	applyEnvOverrides(&cfg)

	return &cfg, nil
}

// applyEnvOverrides reads well-known SERVERMARKET_* environment variables and
// overwrites the corresponding Config fields when a variable is set (i.e. not
// empty). Market policies are file-only.
func applyEnvOverrides(cfg *Config) {
	// ── Storage ──
	setStr(&cfg.Storage.Driver, "SERVERMARKET_STORAGE_DRIVER")

	// ── Postgres ──
	setStr(&cfg.Postgres.DSN, "DATABASE_URL")
	setStr(&cfg.Postgres.DSN, "SERVERMARKET_POSTGRES_DSN")
	setStr(&cfg.Postgres.Host, "SERVERMARKET_POSTGRES_HOST")
	setInt(&cfg.Postgres.Port, "SERVERMARKET_POSTGRES_PORT")
	setStr(&cfg.Postgres.Database, "SERVERMARKET_POSTGRES_DATABASE")
	setStr(&cfg.Postgres.User, "SERVERMARKET_POSTGRES_USER")
	setStr(&cfg.Postgres.Password, "SERVERMARKET_POSTGRES_PASSWORD")
	setStr(&cfg.Postgres.SSLMode, "SERVERMARKET_POSTGRES_SSL_MODE")
	setInt(&cfg.Postgres.PoolMaxConns, "SERVERMARKET_POSTGRES_POOL_MAX_CONNS")
	setInt(&cfg.Postgres.PoolMinConns, "SERVERMARKET_POSTGRES_POOL_MIN_CONNS")
	setBool(&cfg.Postgres.RunMigrations, "SERVERMARKET_POSTGRES_RUN_MIGRATIONS")

	// ── SQLite ──
	setStr(&cfg.SQLite.Path, "SERVERMARKET_SQLITE_PATH")

	// ── Redis ──
	setBool(&cfg.Redis.Enabled, "SERVERMARKET_REDIS_ENABLED")
	setStr(&cfg.Redis.Addr, "SERVERMARKET_REDIS_ADDR")
	setStr(&cfg.Redis.Password, "SERVERMARKET_REDIS_PASSWORD")
	setInt(&cfg.Redis.DB, "SERVERMARKET_REDIS_DB")
	setInt(&cfg.Redis.PoolSize, "SERVERMARKET_REDIS_POOL_SIZE")
	setInt(&cfg.Redis.MaxRetries, "SERVERMARKET_REDIS_MAX_RETRIES")
	setBool(&cfg.Redis.TLSEnabled, "SERVERMARKET_REDIS_TLS_ENABLED")
	setInt64(&cfg.Redis.StreamMax, "SERVERMARKET_REDIS_STREAM_MAX_LEN")

	// ── S3 ──
	setBool(&cfg.S3.Enabled, "SERVERMARKET_S3_ENABLED")
	setStr(&cfg.S3.Endpoint, "SERVERMARKET_S3_ENDPOINT")
	setStr(&cfg.S3.Region, "SERVERMARKET_S3_REGION")
	setStr(&cfg.S3.Bucket, "SERVERMARKET_S3_BUCKET")
	setStr(&cfg.S3.AccessKey, "SERVERMARKET_S3_ACCESS_KEY")
	setStr(&cfg.S3.SecretKey, "SERVERMARKET_S3_SECRET_KEY")
	setBool(&cfg.S3.UseSSL, "SERVERMARKET_S3_USE_SSL")
	setBool(&cfg.S3.ForcePathStyle, "SERVERMARKET_S3_FORCE_PATH_STYLE")

	// ── Server ──
	setBool(&cfg.Server.Enabled, "SERVERMARKET_SERVER_ENABLED")
	setInt(&cfg.Server.Port, "SERVERMARKET_SERVER_PORT")
	setStr(&cfg.Server.APIKey, "SERVERMARKET_SERVER_API_KEY")
	setStringSlice(&cfg.Server.CORSOrigins, "SERVERMARKET_SERVER_CORS_ORIGINS")
	setInt(&cfg.Server.RateLimit, "SERVERMARKET_SERVER_RATE_LIMIT")
	setDuration(&cfg.Server.RateLimitEvery, "SERVERMARKET_SERVER_RATE_LIMIT_WINDOW")

	// ── Notify ──
	setStr(&cfg.Notify.TelegramToken, "SERVERMARKET_NOTIFY_TELEGRAM_TOKEN")
	setStr(&cfg.Notify.TelegramChatID, "SERVERMARKET_NOTIFY_TELEGRAM_CHAT_ID")
	setStr(&cfg.Notify.DiscordWebhookURL, "SERVERMARKET_NOTIFY_DISCORD_WEBHOOK_URL")
	setStringSlice(&cfg.Notify.Events, "SERVERMARKET_NOTIFY_EVENTS")

	// ── Economy ──
	setBool(&cfg.Economy.Vault, "SERVERMARKET_ECONOMY_VAULT")
	setBool(&cfg.Economy.NyEconomy, "SERVERMARKET_ECONOMY_NYECONOMY")
	setBool(&cfg.Economy.PlayerPoints, "SERVERMARKET_ECONOMY_PLAYERPOINTS")
	setStr(&cfg.Economy.PointsPrefix, "SERVERMARKET_ECONOMY_POINTS_KEY_PREFIX")

	// ── I18n ──
	setStr(&cfg.I18n.Locale, "SERVERMARKET_I18N_LOCALE")

	// ── Log ──
	setStr(&cfg.Log.Level, "SERVERMARKET_LOG_LEVEL")
	setStr(&cfg.Log.File, "SERVERMARKET_LOG_FILE")

	// ── Telemetry ──
	setStr(&cfg.Telemetry.ServiceName, "SERVERMARKET_TELEMETRY_SERVICE_NAME")
	setStr(&cfg.Telemetry.Endpoint, "OTEL_EXPORTER_OTLP_ENDPOINT")
	setStr(&cfg.Telemetry.Endpoint, "SERVERMARKET_TELEMETRY_OTLP_ENDPOINT")
	setBool(&cfg.Telemetry.Insecure, "SERVERMARKET_TELEMETRY_INSECURE")
	setFloat64(&cfg.Telemetry.SampleRatio, "SERVERMARKET_TELEMETRY_SAMPLE_RATIO")

	// ── Archive ──
	setInt(&cfg.Archive.RetentionDays, "SERVERMARKET_ARCHIVE_RETENTION_DAYS")
	setDuration(&cfg.Archive.Interval, "SERVERMARKET_ARCHIVE_INTERVAL")

	// ── Top-level ──
	setStr(&cfg.Mode, "SERVERMARKET_MODE")
}

// ---------------------------------------------------------------------------
// Typed env-var helpers. Each only mutates the target when the environment
// variable is present and non-empty.
// ---------------------------------------------------------------------------

func setStr(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setInt64(dst *int64, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			*dst = n
		}
	}
}

func setFloat64(dst *float64, key string) {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			*dst = f
		}
	}
}

func setBool(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

func setDuration(dst *duration, key string) {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			dst.Duration = d
		}
	}
}

func setStringSlice(dst *[]string, key string) {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		cleaned := make([]string, 0, len(parts))
		for _, p := range parts {
			p = strings.TrimSpace(p)
			if p != "" {
				cleaned = append(cleaned, p)
			}
		}
		if len(cleaned) > 0 {
			*dst = cleaned
		}
	}
}
