// Package notify fans operator alerts and public sale broadcasts out to chat
// channels (Discord, Telegram). Each event type can be switched on or off.
package notify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
)

// Event types delivered through the notifier.
const (
	EventCommitFailed  = "listing_commit_failed"
	EventSaleBroadcast = "sale_broadcast"
)

// Sender is one notification channel.
type Sender interface {
	Send(ctx context.Context, title, message string) error
	Name() string
}

// colorCodes matches in-game formatting codes such as "&6" or "§l".
var colorCodes = regexp.MustCompile(`[&§][0-9a-fk-orA-FK-OR]`)

// Plain strips in-game formatting codes so text reads cleanly in chat apps.
func Plain(s string) string {
	return colorCodes.ReplaceAllString(s, "")
}

// Notifier dispatches notifications to every registered Sender. Notify only
// forwards event types in the allowed set; an empty set allows everything.
type Notifier struct {
	senders []Sender
	events  map[string]bool
	logger  *slog.Logger
}

// NewNotifier creates a Notifier for senders, filtered to events.
func NewNotifier(senders []Sender, events []string, logger *slog.Logger) *Notifier {
	allowed := make(map[string]bool, len(events))
	for _, e := range events {
		if e = strings.TrimSpace(e); e != "" {
			allowed[e] = true
		}
	}
	return &Notifier{
		senders: senders,
		events:  allowed,
		logger:  logger.With(slog.String("component", "notifier")),
	}
}

// Enabled reports whether event would reach at least one sender.
func (n *Notifier) Enabled(event string) bool {
	if len(n.senders) == 0 {
		return false
	}
	return len(n.events) == 0 || n.events[event]
}

// Notify sends title and message to all senders when event is allowed.
// Formatting codes are stripped first.
func (n *Notifier) Notify(ctx context.Context, event, title, message string) error {
	if !n.Enabled(event) {
		n.logger.DebugContext(ctx, "event filtered out", slog.String("event", event))
		return nil
	}

	title, message = Plain(title), Plain(message)

	var errs []error
	for _, s := range n.senders {
		if err := s.Send(ctx, title, message); err != nil {
			n.logger.ErrorContext(ctx, "sender failed",
				slog.String("sender", s.Name()),
				slog.String("event", event),
				slog.String("error", err.Error()),
			)
			errs = append(errs, fmt.Errorf("%s: %w", s.Name(), err))
			continue
		}
		n.logger.DebugContext(ctx, "notification sent",
			slog.String("sender", s.Name()),
			slog.String("event", event),
		)
	}
	if len(errs) > 0 {
		return fmt.Errorf("notify: %d sender(s) failed: %w", len(errs), errors.Join(errs...))
	}
	return nil
}

// Broadcast forwards a rendered public sale announcement as a
// sale_broadcast event.
func (n *Notifier) Broadcast(ctx context.Context, text string) error {
	return n.Notify(ctx, EventSaleBroadcast, "Market", text)
}
