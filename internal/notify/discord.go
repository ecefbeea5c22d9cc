package notify

import (
	"context"
	"fmt"
	"net/http"
)

// DiscordSender delivers notifications via a Discord webhook.
type DiscordSender struct {
	webhookURL string
	client     *http.Client
}

// NewDiscordSender creates a DiscordSender for the given webhook URL.
func NewDiscordSender(webhookURL string) *DiscordSender {
	return &DiscordSender{webhookURL: webhookURL, client: defaultHTTPClient()}
}

// Send posts the message with a bold title. Discord answers 204 on success.
func (d *DiscordSender) Send(ctx context.Context, title, message string) error {
	payload := map[string]any{
		"content":          fmt.Sprintf("**%s**\n%s", title, message),
		"allowed_mentions": map[string]any{"parse": []string{}},
	}
	if err := postJSON(ctx, d.client, d.webhookURL, payload); err != nil {
		return fmt.Errorf("discord: %w", err)
	}
	return nil
}

// Name returns the sender identifier.
func (d *DiscordSender) Name() string { return "discord" }
