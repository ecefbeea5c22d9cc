// Package app provides the top-level application lifecycle for the market
// service. It wires together storage, economies, caches, the archive, and
// notifications, then starts the goroutines of the configured mode.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/MSCMDD/ServerMarket/internal/config"
	"github.com/MSCMDD/ServerMarket/internal/market"
	"github.com/MSCMDD/ServerMarket/internal/telemetry"
)

// App is the root application object. It owns the configuration, logger, and a
// list of cleanup functions that are called in reverse order on shutdown.
type App struct {
	cfg      *config.Config
	logger   *slog.Logger
	policies *market.Policies
	closers  []func()
}

// New creates a new App from the given configuration and logger.
func New(cfg *config.Config, logger *slog.Logger) *App {
	return &App{
		cfg:    cfg,
		logger: logger.With(slog.String("component", "app")),
	}
}

// Run is the main entry point. It wires all dependencies, selects the
// operating mode, starts the corresponding goroutines, and blocks until the
// context is cancelled. On return the caller should invoke Close.
func (a *App) Run(ctx context.Context) error {
	a.logger.InfoContext(ctx, "starting application",
		slog.String("mode", a.cfg.Mode),
		slog.String("log_level", a.cfg.Log.Level),
		slog.Int("markets", len(a.cfg.Markets)),
	)

	policies, err := market.NewPolicies(a.cfg.Policies())
	if err != nil {
		return fmt.Errorf("app: market policies: %w", err)
	}
	a.policies = policies

	shutdownTracing, err := telemetry.Setup(ctx, telemetry.Options{
		ServiceName: a.cfg.Telemetry.ServiceName,
		Endpoint:    a.cfg.Telemetry.Endpoint,
		Insecure:    a.cfg.Telemetry.Insecure,
		SampleRatio: a.cfg.Telemetry.SampleRatio,
	})
	if err != nil {
		return fmt.Errorf("app: telemetry: %w", err)
	}
	a.closers = append(a.closers, func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(flushCtx); err != nil {
			a.logger.Warn("telemetry shutdown failed", slog.String("error", err.Error()))
		}
	})

	deps, cleanup, err := Wire(ctx, a.cfg, a.logger)
	if err != nil {
		return fmt.Errorf("app: wire dependencies: %w", err)
	}
	a.closers = append(a.closers, cleanup)

	switch strings.ToLower(a.cfg.Mode) {
	case "serve":
		return a.ServeMode(ctx, deps)
	case "archive":
		return a.ArchiveMode(ctx, deps)
	case "full":
		return a.FullMode(ctx, deps)
	default:
		return fmt.Errorf("app: unsupported mode %q", a.cfg.Mode)
	}
}

// Close tears down all resources in reverse registration order. It is safe to
// call multiple times; subsequent calls are no-ops.
func (a *App) Close() {
	a.logger.Info("shutting down application")
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}
