package event

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/dshills/marginalia/internal/event/topic"
)

// Envelope is what the bus needs from a published value: a topic to route
// on and metadata for hooks. Event[T] is the only implementation in this
// repository, but any type satisfying it can be published.
type Envelope interface {
	EventTopic() topic.Topic
	EventMetadata() Metadata
}

// Event carries one payload under a topic.
type Event[T any] struct {
	Type     topic.Topic
	Payload  T
	Metadata Metadata
}

// Metadata is stamped on every event at creation.
type Metadata struct {
	ID        string
	Timestamp time.Time
	// Source names the publisher, e.g. "marginalia.engine".
	Source string
}

// NewEvent stamps payload with a fresh id and the current time.
func NewEvent[T any](t topic.Topic, payload T, source string) Event[T] {
	return Event[T]{
		Type:    t,
		Payload: payload,
		Metadata: Metadata{
			ID:        uuid.NewString(),
			Timestamp: time.Now(),
			Source:    source,
		},
	}
}

// EventTopic implements Envelope.
func (e Event[T]) EventTopic() topic.Topic { return e.Type }

// EventMetadata implements Envelope.
func (e Event[T]) EventMetadata() Metadata { return e.Metadata }

// Handler receives type-erased events. Implementations type-assert to the
// Event[T] they expect.
type Handler interface {
	Handle(ctx context.Context, event any) error
}

// HandlerFunc adapts a plain function to Handler.
type HandlerFunc func(ctx context.Context, event any) error

// Handle calls f.
func (f HandlerFunc) Handle(ctx context.Context, event any) error { return f(ctx, event) }

// TypedHandlerFunc only sees events whose payload is a T; anything else
// published on a matching topic is ignored.
type TypedHandlerFunc[T any] func(ctx context.Context, event Event[T]) error

// Handle calls f for an Event[T] and returns nil for anything else.
func (f TypedHandlerFunc[T]) Handle(ctx context.Context, event any) error {
	e, ok := event.(Event[T])
	if !ok {
		return nil
	}
	return f(ctx, e)
}
