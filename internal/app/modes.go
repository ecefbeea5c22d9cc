package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/MSCMDD/ServerMarket/internal/domain"
	"github.com/MSCMDD/ServerMarket/internal/i18n"
	"github.com/MSCMDD/ServerMarket/internal/notify"
	"github.com/MSCMDD/ServerMarket/internal/server"
	"github.com/MSCMDD/ServerMarket/internal/server/handler"
	"github.com/MSCMDD/ServerMarket/internal/server/ws"
	"github.com/MSCMDD/ServerMarket/internal/service"
)

const shutdownTimeout = 5 * time.Second

// ServeMode runs the HTTP and WebSocket surface in front of the listing
// pipeline until ctx is cancelled.
func (a *App) ServeMode(ctx context.Context, deps *Dependencies) error {
	a.logger.InfoContext(ctx, "starting serve mode")

	g, ctx := errgroup.WithContext(ctx)
	if err := a.startServer(ctx, g, deps); err != nil {
		return err
	}
	return ignoreCanceled(g.Wait())
}

// ArchiveMode runs one archive pass and returns.
func (a *App) ArchiveMode(ctx context.Context, deps *Dependencies) error {
	a.logger.InfoContext(ctx, "starting archive mode")

	if deps.Archiver == nil {
		return errors.New("app: archive mode requires s3")
	}
	return a.newArchiveJob(deps).Run(ctx)
}

// FullMode serves the API and, when s3 is enabled, archives old listings on
// the configured interval.
func (a *App) FullMode(ctx context.Context, deps *Dependencies) error {
	a.logger.InfoContext(ctx, "starting full mode")

	g, ctx := errgroup.WithContext(ctx)
	if err := a.startServer(ctx, g, deps); err != nil {
		return err
	}

	if deps.Archiver != nil {
		job := a.newArchiveJob(deps)
		interval := a.cfg.Archive.Interval.Duration
		g.Go(func() error {
			return job.RunEvery(ctx, interval)
		})
	} else {
		a.logger.WarnContext(ctx, "s3 disabled, listing archive job not started")
	}

	return ignoreCanceled(g.Wait())
}

func (a *App) newArchiveJob(deps *Dependencies) *service.ArchiveJob {
	return service.NewArchiveJob(deps.Archiver, deps.LockManager, a.cfg.Archive.RetentionDays, a.logger)
}

// newListingService assembles the pipeline with its messenger, observers and
// alerting.
func (a *App) newListingService(deps *Dependencies, hub *ws.Hub) (*service.ListingService, error) {
	catalog, err := i18n.LoadEmbedded()
	if err != nil {
		return nil, fmt.Errorf("app: load messages: %w", err)
	}

	sinks := []i18n.BroadcastSink{deps.Notifier}
	if hub != nil {
		sinks = append(sinks, hub)
	}
	messenger := i18n.NewMessenger(catalog, a.cfg.I18n.Locale, a.logger, sinks...)
	a.logger.Info("messages loaded",
		slog.String("locale", messenger.Locale()),
		slog.Any("available", catalog.Locales()),
	)

	observers := []domain.ListingObserver{service.NewAuditObserver(deps.AuditStore)}
	switch {
	case deps.SignalBus != nil:
		observers = append(observers, service.NewBusObserver(deps.SignalBus))
	case hub != nil:
		observers = append(observers, service.NewFeedObserver(hub))
	}

	return service.NewListingService(a.policies, deps.ListingStore, deps.Bridges, messenger, a.logger).
		WithObservers(observers...).
		WithAudit(deps.AuditStore).
		WithAlerter(deps.Notifier), nil
}

// startServer builds the hub, the listing pipeline and the HTTP server and
// schedules them on g. With the server disabled only the pipeline is built.
func (a *App) startServer(ctx context.Context, g *errgroup.Group, deps *Dependencies) error {
	var hub *ws.Hub
	if a.cfg.Server.Enabled {
		hub = ws.NewHub(deps.SignalBus, notify.Plain, a.logger)
	}

	listings, err := a.newListingService(deps, hub)
	if err != nil {
		return err
	}

	if !a.cfg.Server.Enabled {
		a.logger.WarnContext(ctx, "http server disabled, nothing will accept sell requests")
		g.Go(func() error {
			<-ctx.Done()
			return ctx.Err()
		})
		return nil
	}

	g.Go(func() error {
		return hub.Run(ctx)
	})

	srv := server.NewServer(server.Config{
		Port:        a.cfg.Server.Port,
		CORSOrigins: a.cfg.Server.CORSOrigins,
		APIKey:      a.cfg.Server.APIKey,
		RateLimit:   a.cfg.Server.RateLimit,
		RateWindow:  a.cfg.Server.RateLimitEvery.Duration,
	}, server.Handlers{
		Health:   handler.NewHealthHandler(deps.Health, a.logger),
		Markets:  handler.NewMarketHandler(a.policies, a.logger),
		Listings: handler.NewListingHandler(listings, a.policies, a.logger),
		Audit:    handler.NewAuditHandler(deps.AuditStore, a.logger),
	}, hub, deps.RateLimiter, a.logger)

	g.Go(func() error {
		a.logger.InfoContext(ctx, "HTTP server listening",
			slog.Int("port", a.cfg.Server.Port),
			slog.String("url", fmt.Sprintf("http://localhost:%d", a.cfg.Server.Port)),
		)
		return srv.Start()
	})

	g.Go(func() error {
		<-ctx.Done()
		shutCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutCtx)
	})
	return nil
}

// ignoreCanceled treats cancellation as a clean shutdown.
func ignoreCanceled(err error) error {
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
