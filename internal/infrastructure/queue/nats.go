package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/hszk-dev/videocatalog/internal/domain/model"
	"github.com/hszk-dev/videocatalog/internal/domain/repository"
)

// NATSConfig holds configuration for the NATS publisher.
type NATSConfig struct {
	URL           string
	ClientName    string
	Subject       string
	MaxReconnects int
	ReconnectWait time.Duration
}

// DefaultNATSConfig returns a NATSConfig with sensible defaults.
func DefaultNATSConfig(url string) NATSConfig {
	return NATSConfig{
		URL:           url,
		ClientName:    "videocatalog",
		Subject:       "video.created",
		MaxReconnects: 10,
		ReconnectWait: 2 * time.Second,
	}
}

// natsConn abstracts nats.Conn for testability.
type natsConn interface {
	PublishMsg(msg *nats.Msg) error
	IsConnected() bool
	Drain() error
}

// NATSPublisher publishes domain events on a NATS subject.
type NATSPublisher struct {
	conn    natsConn
	subject string
}

var _ repository.EventPublisher = (*NATSPublisher)(nil)

// NewNATSPublisher connects to NATS.
func NewNATSPublisher(cfg NATSConfig) (*NATSPublisher, error) {
	conn, err := nats.Connect(cfg.URL,
		nats.Name(cfg.ClientName),
		nats.MaxReconnects(cfg.MaxReconnects),
		nats.ReconnectWait(cfg.ReconnectWait),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				slog.Warn("nats disconnected", "error", err)
			}
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			slog.Info("nats reconnected", "url", nc.ConnectedUrl())
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	return &NATSPublisher{conn: conn, subject: cfg.Subject}, nil
}

// Send publishes event as JSON. Core NATS gives no delivery guarantee.
func (p *NATSPublisher) Send(_ context.Context, event model.DomainEvent) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	msg := nats.NewMsg(p.subject)
	msg.Header.Set("Event-Type", event.EventType())
	msg.Header.Set("Content-Type", "application/json")
	msg.Data = body

	if err := p.conn.PublishMsg(msg); err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}
	return nil
}

// Ping reports whether the connection is up.
func (p *NATSPublisher) Ping(_ context.Context) error {
	if !p.conn.IsConnected() {
		return errors.New("nats is not connected")
	}
	return nil
}

// Close drains pending messages and closes the connection.
func (p *NATSPublisher) Close() error {
	if err := p.conn.Drain(); err != nil {
		return fmt.Errorf("failed to drain nats connection: %w", err)
	}
	return nil
}

// NopPublisher logs events and drops them.
type NopPublisher struct{}

var _ repository.EventPublisher = NopPublisher{}

func (NopPublisher) Send(_ context.Context, event model.DomainEvent) error {
	slog.Debug("dropping domain event, no publisher configured",
		"event_type", event.EventType(),
	)
	return nil
}
