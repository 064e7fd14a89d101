// FlyByWire Simulations API
// Copyright 2026 FlyByWire Simulations
// SPDX-License-Identifier: MIT
// https://github.com/flybywiresim/api

// Package notify delivers message notifications to external sinks.
// All sinks are best effort: a failing sink never affects the message
// path, it only shows up in logs and metrics.
package notify

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/goccy/go-json"

	"github.com/flybywiresim/api/internal/config"
	"github.com/flybywiresim/api/internal/metrics"
	"github.com/flybywiresim/api/internal/telex"
)

// Discord embed colors for the three message dispositions.
const (
	colorClean   = 6280776  // #5fd648
	colorProfane = 14671680 // #dfdf40
	colorBlocked = 14299698 // #da3232
)

// DiscordNotifier mirrors every message into a Discord channel via a
// webhook.
type DiscordNotifier struct {
	webhookURL string
	client     *http.Client
	enabled    bool
	mu         sync.RWMutex

	// Rate limiting
	lastSent  time.Time
	rateLimit time.Duration
}

// NewDiscordNotifier creates a Discord sink from config.
func NewDiscordNotifier(cfg *config.DiscordConfig) *DiscordNotifier {
	rateLimit := cfg.RateLimit
	if rateLimit == 0 {
		rateLimit = 1 * time.Second
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 10 * time.Second
	}

	return &DiscordNotifier{
		webhookURL: cfg.WebhookURL,
		enabled:    cfg.Enabled,
		rateLimit:  rateLimit,
		client: &http.Client{
			Timeout: timeout,
		},
	}
}

func (n *DiscordNotifier) Name() string {
	return "discord"
}

// Enabled reports whether the sink is configured and active.
func (n *DiscordNotifier) Enabled() bool {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.enabled && n.webhookURL != ""
}

// SetEnabled enables or disables the sink at runtime.
func (n *DiscordNotifier) SetEnabled(enabled bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.enabled = enabled
}

// PublishMessage posts the message to the webhook as an embed.
func (n *DiscordNotifier) PublishMessage(ctx context.Context, notification telex.MessageNotification) error {
	n.mu.RLock()
	if !n.enabled || n.webhookURL == "" {
		n.mu.RUnlock()
		return nil
	}
	webhookURL := n.webhookURL
	rateLimit := n.rateLimit
	lastSent := n.lastSent
	n.mu.RUnlock()

	// Rate limiting with context cancellation support
	if time.Since(lastSent) < rateLimit {
		waitTime := rateLimit - time.Since(lastSent)
		select {
		case <-time.After(waitTime):
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	payload := discordWebhookPayload{
		Embeds: []discordEmbed{buildEmbed(notification)},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		metrics.NotificationErrors.WithLabelValues("discord").Inc()
		return fmt.Errorf("failed to marshal Discord payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", webhookURL, bytes.NewReader(body))
	if err != nil {
		metrics.NotificationErrors.WithLabelValues("discord").Inc()
		return fmt.Errorf("failed to create Discord request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		metrics.NotificationErrors.WithLabelValues("discord").Inc()
		return fmt.Errorf("failed to send Discord webhook: %w", err)
	}
	defer resp.Body.Close()

	n.mu.Lock()
	n.lastSent = time.Now()
	n.mu.Unlock()

	if resp.StatusCode >= 400 {
		metrics.NotificationErrors.WithLabelValues("discord").Inc()
		return fmt.Errorf("discord webhook returned status %d", resp.StatusCode)
	}

	metrics.NotificationsPublished.WithLabelValues("discord").Inc()
	return nil
}

// buildEmbed renders a notification as a Discord embed. The color
// encodes the disposition: green for clean, yellow for profane, red
// for blocked.
func buildEmbed(n telex.MessageNotification) discordEmbed {
	color := colorClean
	if n.Message.IsProfane {
		color = colorProfane
	}
	if n.Blocked {
		color = colorBlocked
	}

	fields := []discordEmbedField{
		{Name: "Sender ID", Value: fmt.Sprintf("`%s`", n.Message.From), Inline: true},
		{Name: "Recipient ID", Value: fmt.Sprintf("`%s`", n.Message.To), Inline: true},
		{Name: "Profanity", Value: fmt.Sprintf("`%t`", n.Message.IsProfane), Inline: true},
		{Name: "Blocked", Value: fmt.Sprintf("`%t`", n.Blocked), Inline: true},
	}

	return discordEmbed{
		Title:       fmt.Sprintf("%s -> %s", n.From, n.To),
		Description: n.Message.Message,
		Color:       color,
		Timestamp:   n.Message.CreatedAt.Format(time.RFC3339),
		Fields:      fields,
	}
}

// Discord webhook structures
type discordWebhookPayload struct {
	Content string         `json:"content,omitempty"`
	Embeds  []discordEmbed `json:"embeds,omitempty"`
}

type discordEmbed struct {
	Title       string              `json:"title,omitempty"`
	Description string              `json:"description,omitempty"`
	Color       int                 `json:"color,omitempty"`
	Timestamp   string              `json:"timestamp,omitempty"`
	Fields      []discordEmbedField `json:"fields,omitempty"`
}

type discordEmbedField struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Inline bool   `json:"inline,omitempty"`
}
