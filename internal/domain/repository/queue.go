package repository

import (
	"context"

	"github.com/hszk-dev/videocatalog/internal/domain/model"
)

// EventPublisher sends domain events to downstream consumers.
// Implementations should be provided by the infrastructure layer (e.g., RabbitMQ, NATS).
type EventPublisher interface {
	// Send publishes a single event. Delivery is at-most-once.
	Send(ctx context.Context, event model.DomainEvent) error
}

// EncoderResult is the outcome of an encoding job reported by the external encoder.
type EncoderResult struct {
	Status     string
	VideoID    string
	ResourceID string
	Folder     string
	FileName   string
	Error      string
	RetryCount int
}

// EncoderResultConsumer delivers encoder results to a handler.
type EncoderResultConsumer interface {
	// ConsumeEncoderResults blocks until ctx is cancelled or the source closes.
	// The handler function is called for each received result.
	ConsumeEncoderResults(ctx context.Context, handler func(ctx context.Context, result EncoderResult) error) error

	// Close gracefully closes the connection to the message queue.
	Close() error
}
