// Package audit captures append-only events for registrations. Events flow
// through a Sink so tests swap in memory while production fans out to Kafka.
package audit

import (
	"context"
	"time"
)

// Event is emitted from domain logic to capture key actions. Keep it
// transport-agnostic so stores and sinks can fan out.
type Event struct {
	Timestamp    time.Time `json:"timestamp"`
	Actor        string    `json:"actor,omitempty"`
	Action       string    `json:"action"`
	PartitionKey string    `json:"partition_key,omitempty"`
	RowKey       string    `json:"row_key,omitempty"`
	Stage        string    `json:"stage,omitempty"`
	Detail       string    `json:"detail,omitempty"`
}

// Actions emitted by the registration pipeline.
const (
	ActionRegistrationCompleted = "registration.completed"
	ActionRegistrationFailed    = "registration.failed"
)

// Sink accepts events for durable capture.
type Sink interface {
	Append(ctx context.Context, event Event) error
}

// Publisher captures structured audit events. It is append-only and writes
// through a Sink so tests can swap destinations easily.
type Publisher struct {
	sink Sink
}

func NewPublisher(sink Sink) *Publisher {
	return &Publisher{sink: sink}
}

func (p *Publisher) Emit(ctx context.Context, base Event) error {
	if base.Timestamp.IsZero() {
		base.Timestamp = time.Now().UTC()
	}
	return p.sink.Append(ctx, base)
}
