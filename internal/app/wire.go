package app

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	s3blob "github.com/MSCMDD/ServerMarket/internal/blob/s3"
	"github.com/MSCMDD/ServerMarket/internal/cache/redis"
	"github.com/MSCMDD/ServerMarket/internal/config"
	"github.com/MSCMDD/ServerMarket/internal/domain"
	"github.com/MSCMDD/ServerMarket/internal/economy"
	"github.com/MSCMDD/ServerMarket/internal/notify"
	"github.com/MSCMDD/ServerMarket/internal/server/handler"
	"github.com/MSCMDD/ServerMarket/internal/store/postgres"
	"github.com/MSCMDD/ServerMarket/internal/store/sqlite"
)

// Dependencies bundles every concrete implementation the modes need. It is
// constructed by Wire and torn down by the returned cleanup function.
type Dependencies struct {
	// Stores
	ListingStore domain.ListingStore
	AuditStore   domain.AuditStore

	// Economy providers keyed by pay type.
	Bridges *economy.Registry

	// Redis-backed coordination; nil when redis is disabled.
	RateLimiter domain.RateLimiter
	LockManager domain.LockManager
	SignalBus   domain.SignalBus

	// Nil unless s3 is enabled.
	Archiver domain.Archiver

	Notifier *notify.Notifier

	// Health reports reachability of every backing service.
	Health map[string]handler.Pinger
}

// pingFunc adapts a health function to handler.Pinger.
type pingFunc func(ctx context.Context) error

func (f pingFunc) Ping(ctx context.Context) error { return f(ctx) }

// ledgerBridges are the storage-backed economies of one driver.
type ledgerBridges struct {
	vault     domain.EconomyBridge
	nyeconomy domain.EconomyBridge
}

// Wire constructs all concrete dependency implementations from the given
// configuration and returns them together with a cleanup function that should
// be called on shutdown to release resources.
func Wire(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Dependencies, func(), error) {
	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	deps := &Dependencies{
		Bridges: economy.NewRegistry(),
		Health:  make(map[string]handler.Pinger),
	}

	// --- Storage ---
	var ledgers ledgerBridges
	switch strings.ToLower(cfg.Storage.Driver) {
	case "postgres":
		pgClient, err := postgres.New(ctx, postgres.ClientConfig{
			DSN:      cfg.Postgres.DSN,
			Host:     cfg.Postgres.Host,
			Port:     cfg.Postgres.Port,
			Database: cfg.Postgres.Database,
			User:     cfg.Postgres.User,
			Password: cfg.Postgres.Password,
			SSLMode:  cfg.Postgres.SSLMode,
			MaxConns: cfg.Postgres.PoolMaxConns,
			MinConns: cfg.Postgres.PoolMinConns,
		})
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: postgres: %w", err)
		}
		closers = append(closers, pgClient.Close)

		if cfg.Postgres.RunMigrations {
			if err := pgClient.RunMigrations(ctx); err != nil {
				cleanup()
				return nil, nil, fmt.Errorf("wire: postgres migrations: %w", err)
			}
		}

		pool := pgClient.Pool()
		deps.ListingStore = postgres.NewListingStore(pool)
		deps.AuditStore = postgres.NewAuditStore(pool)
		ledgers = ledgerBridges{
			vault:     postgres.NewVaultBridge(pool),
			nyeconomy: postgres.NewNyEconomyBridge(pool),
		}
		deps.Health["postgres"] = pgClient

	case "sqlite":
		store, err := sqlite.Open(cfg.SQLite.Path)
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: sqlite: %w", err)
		}
		closers = append(closers, func() { _ = store.Close() })

		db := store.DB()
		deps.ListingStore = sqlite.NewListingStore(db)
		deps.AuditStore = sqlite.NewAuditStore(db)
		ledgers = ledgerBridges{
			vault:     sqlite.NewVaultBridge(db),
			nyeconomy: sqlite.NewNyEconomyBridge(db),
		}
		deps.Health["sqlite"] = store

	default:
		cleanup()
		return nil, nil, fmt.Errorf("wire: unknown storage driver %q", cfg.Storage.Driver)
	}

	if cfg.Economy.Vault {
		deps.Bridges.Register(domain.PayTypeVault, ledgers.vault)
	}
	if cfg.Economy.NyEconomy {
		deps.Bridges.Register(domain.PayTypeNyEconomy, ledgers.nyeconomy)
	}

	// --- Redis ---
	if cfg.Redis.Enabled {
		redisClient, err := redis.New(ctx, redis.ClientConfig{
			Addr:       cfg.Redis.Addr,
			Password:   cfg.Redis.Password,
			DB:         cfg.Redis.DB,
			PoolSize:   cfg.Redis.PoolSize,
			MaxRetries: cfg.Redis.MaxRetries,
			TLSEnabled: cfg.Redis.TLSEnabled,
		})
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: redis: %w", err)
		}
		closers = append(closers, func() { _ = redisClient.Close() })

		deps.RateLimiter = redis.NewRateLimiter(redisClient)
		deps.LockManager = redis.NewLockManager(redisClient)
		deps.SignalBus = redis.NewSignalBus(redisClient, cfg.Redis.StreamMax)
		if cfg.Economy.PlayerPoints {
			deps.Bridges.Register(domain.PayTypePlayerPoints, redis.NewPointsBridge(redisClient, cfg.Economy.PointsPrefix))
		}
		deps.Health["redis"] = redisClient
	}

	// --- S3 archive ---
	if cfg.S3.Enabled {
		s3Client, err := s3blob.New(ctx, s3blob.ClientConfig{
			Endpoint:       cfg.S3.Endpoint,
			Region:         cfg.S3.Region,
			Bucket:         cfg.S3.Bucket,
			AccessKey:      cfg.S3.AccessKey,
			SecretKey:      cfg.S3.SecretKey,
			UseSSL:         cfg.S3.UseSSL,
			ForcePathStyle: cfg.S3.ForcePathStyle,
		})
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: s3: %w", err)
		}
		deps.Archiver = s3blob.NewListingArchiver(s3blob.NewWriter(s3Client), deps.ListingStore, deps.AuditStore)
		deps.Health["s3"] = pingFunc(s3Client.Health)
	}

	// --- Notifications ---
	var senders []notify.Sender
	if cfg.Notify.TelegramToken != "" && cfg.Notify.TelegramChatID != "" {
		senders = append(senders, notify.NewTelegramSender(
			cfg.Notify.TelegramToken,
			cfg.Notify.TelegramChatID,
		))
	}
	if cfg.Notify.DiscordWebhookURL != "" {
		senders = append(senders, notify.NewDiscordSender(cfg.Notify.DiscordWebhookURL))
	}
	deps.Notifier = notify.NewNotifier(senders, cfg.Notify.Events, logger)

	logger.InfoContext(ctx, "dependencies wired",
		slog.String("storage", cfg.Storage.Driver),
		slog.Bool("redis", cfg.Redis.Enabled),
		slog.Bool("s3", cfg.S3.Enabled),
		slog.Int("notify_senders", len(senders)),
		slog.Any("economies", deps.Bridges.Providers()),
	)

	return deps, cleanup, nil
}
