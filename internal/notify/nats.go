// FlyByWire Simulations API
// Copyright 2026 FlyByWire Simulations
// SPDX-License-Identifier: MIT
// https://github.com/flybywiresim/api

package notify

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	wmNats "github.com/ThreeDotsLabs/watermill-nats/v2/pkg/nats"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/goccy/go-json"
	natsgo "github.com/nats-io/nats.go"
	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/flybywiresim/api/internal/config"
	"github.com/flybywiresim/api/internal/logging"
	"github.com/flybywiresim/api/internal/metrics"
	"github.com/flybywiresim/api/internal/telex"
)

const defaultSubject = "telex.messages"

// messageEvent is the wire payload published for every message.
type messageEvent struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"createdAt"`
	From      string    `json:"from"`
	To        string    `json:"to"`
	Message   string    `json:"message"`
	IsProfane bool      `json:"isProfane"`
	Blocked   bool      `json:"blocked"`
}

// NATSNotifier publishes message events to a NATS subject through
// Watermill, with circuit breaker protection against a flapping broker.
type NATSNotifier struct {
	publisher message.Publisher
	breaker   *gobreaker.CircuitBreaker[any]
	subject   string

	mu     sync.RWMutex
	closed bool
}

// NewNATSNotifier connects to NATS and prepares the publisher. The
// connection retries in the background, so a broker that is down at
// startup does not fail service start.
func NewNATSNotifier(cfg *config.NATSConfig) (*NATSNotifier, error) {
	logger := watermill.NewSlogLogger(logging.NewSlogLogger())

	natsOpts := []natsgo.Option{
		natsgo.RetryOnFailedConnect(true),
		natsgo.MaxReconnects(-1),
		natsgo.ReconnectWait(2 * time.Second),
		natsgo.DisconnectErrHandler(func(_ *natsgo.Conn, err error) {
			if err != nil {
				logging.Warn().Err(err).Msg("NATS disconnected")
			}
		}),
		natsgo.ReconnectHandler(func(nc *natsgo.Conn) {
			logging.Info().Str("url", nc.ConnectedUrl()).Msg("NATS reconnected")
		}),
	}

	pub, err := wmNats.NewPublisher(wmNats.PublisherConfig{
		URL:         cfg.URL,
		NatsOptions: natsOpts,
		Marshaler:   &wmNats.NATSMarshaler{},
		JetStream: wmNats.JetStreamConfig{
			Disabled: true,
		},
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create NATS publisher: %w", err)
	}

	subject := cfg.Subject
	if subject == "" {
		subject = defaultSubject
	}

	breaker := gobreaker.NewCircuitBreaker[any](gobreaker.Settings{
		Name:        "nats-notifier",
		MaxRequests: 1,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, _, to gobreaker.State) {
			metrics.CircuitBreakerState.WithLabelValues(name).Set(breakerStateValue(to))
			logging.Warn().Str("breaker", name).Str("state", to.String()).Msg("circuit breaker state changed")
		},
	})

	return &NATSNotifier{
		publisher: pub,
		breaker:   breaker,
		subject:   subject,
	}, nil
}

func (n *NATSNotifier) Name() string {
	return "nats"
}

// PublishMessage serializes the notification and publishes it. The
// message id doubles as the Watermill message UUID.
func (n *NATSNotifier) PublishMessage(_ context.Context, notification telex.MessageNotification) error {
	n.mu.RLock()
	if n.closed {
		n.mu.RUnlock()
		return fmt.Errorf("nats notifier is closed")
	}
	n.mu.RUnlock()

	data, err := json.Marshal(messageEvent{
		ID:        notification.Message.ID,
		CreatedAt: notification.Message.CreatedAt,
		From:      notification.From,
		To:        notification.To,
		Message:   notification.Message.Message,
		IsProfane: notification.Message.IsProfane,
		Blocked:   notification.Blocked,
	})
	if err != nil {
		return fmt.Errorf("failed to serialize message event: %w", err)
	}

	msg := message.NewMessage(notification.Message.ID, data)
	msg.Metadata.Set("from", notification.From)
	msg.Metadata.Set("to", notification.To)

	_, err = n.breaker.Execute(func() (any, error) {
		return nil, n.publisher.Publish(n.subject, msg)
	})
	if err != nil {
		metrics.NotificationErrors.WithLabelValues("nats").Inc()
		return fmt.Errorf("failed to publish to %s: %w", n.subject, err)
	}

	metrics.NotificationsPublished.WithLabelValues("nats").Inc()
	return nil
}

// Close shuts down the underlying publisher.
func (n *NATSNotifier) Close() error {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.closed {
		return nil
	}
	n.closed = true

	return n.publisher.Close()
}

func breakerStateValue(s gobreaker.State) float64 {
	switch s {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	default:
		return 2
	}
}
