package finance

import (
	"context"
	"time"
)

// Event types emitted after a write has committed.
const (
	EventDistributionCompleted = "distribution.completed"
	EventBatchUndone           = "batch.undone"
	EventTransferCompleted     = "transfer.completed"
	EventDuesUpcoming          = "dues.upcoming"
)

// Event is a committed domain fact. Payload must be JSON-encodable.
type Event struct {
	Type       string
	OccurredAt time.Time
	Payload    any
}

// Publisher delivers events to an outside system (Kafka, AMQP, ...).
// Implementations must be safe for concurrent use.
type Publisher interface {
	Publish(ctx context.Context, ev Event) error
}

// NopPublisher drops every event.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, Event) error { return nil }

// PublisherFunc adapts a function to Publisher.
type PublisherFunc func(ctx context.Context, ev Event) error

func (f PublisherFunc) Publish(ctx context.Context, ev Event) error { return f(ctx, ev) }
