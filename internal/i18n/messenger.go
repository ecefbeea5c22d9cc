package i18n

import (
	"context"
	"log/slog"

	"github.com/MSCMDD/ServerMarket/internal/domain"
)

// BroadcastSink receives rendered server-wide announcements.
type BroadcastSink interface {
	Broadcast(ctx context.Context, text string) error
}

// Messenger implements domain.Messenger over a Catalog.
type Messenger struct {
	catalog *Catalog
	locale  string
	sinks   []BroadcastSink
	logger  *slog.Logger
}

// NewMessenger renders in locale, which is matched against the catalog.
func NewMessenger(catalog *Catalog, locale string, logger *slog.Logger, sinks ...BroadcastSink) *Messenger {
	return &Messenger{
		catalog: catalog,
		locale:  catalog.Match(locale),
		sinks:   sinks,
		logger:  logger.With(slog.String("component", "messenger")),
	}
}

// Locale returns the resolved locale.
func (m *Messenger) Locale() string { return m.locale }

// Tell renders key and delivers it to the actor.
func (m *Messenger) Tell(_ context.Context, actor domain.Actor, key string, vars map[string]string) {
	actor.Tell(m.catalog.Render(m.locale, key, vars))
}

// Broadcast renders key once and hands it to every sink. A failing sink is
// logged and does not stop the others.
func (m *Messenger) Broadcast(ctx context.Context, key string, vars map[string]string) {
	text := m.catalog.Render(m.locale, key, vars)
	for _, sink := range m.sinks {
		if err := sink.Broadcast(ctx, text); err != nil {
			m.logger.WarnContext(ctx, "broadcast sink failed",
				slog.String("key", key),
				slog.String("error", err.Error()),
			)
		}
	}
}

var _ domain.Messenger = (*Messenger)(nil)
