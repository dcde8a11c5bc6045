package event

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"slices"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/dshills/marginalia/internal/event/topic"
)

// Bus is a synchronous topic bus. Publish runs every matching handler on
// the caller's goroutine, ordered by priority and then by subscription
// order, and returns once all of them have finished.
// It is safe for concurrent use; handlers may publish or subscribe.
type Bus struct {
	mu   sync.RWMutex
	subs []*Subscription
	seq  uint64

	hooks  hooks
	logger zerolog.Logger

	eventsPublished  atomic.Uint64
	handlersExecuted atomic.Uint64
	handlerErrors    atomic.Uint64
	handlerPanics    atomic.Uint64
}

// NewBus creates a new bus with the given options.
func NewBus(opts ...BusOption) *Bus {
	b := &Bus{logger: zerolog.Nop()}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Subscribe registers handler for every event whose topic matches pattern.
func (b *Bus) Subscribe(pattern topic.Topic, handler Handler, opts ...SubscriptionOption) (*Subscription, error) {
	if handler == nil {
		return nil, ErrNilHandler
	}
	if !pattern.IsValid() {
		return nil, fmt.Errorf("subscribe %q: %w", pattern, ErrInvalidTopic)
	}

	sub := &Subscription{
		id:       uuid.NewString(),
		pattern:  pattern,
		handler:  handler,
		priority: PriorityDefault,
	}
	for _, opt := range opts {
		opt(sub)
	}
	sub.active.Store(true)

	b.mu.Lock()
	b.seq++
	sub.seq = b.seq
	b.subs = append(b.subs, sub)
	b.mu.Unlock()

	return sub, nil
}

// SubscribeFunc is a convenience method for subscribing with a function handler.
func (b *Bus) SubscribeFunc(pattern topic.Topic, fn HandlerFunc, opts ...SubscriptionOption) (*Subscription, error) {
	if fn == nil {
		return nil, ErrNilHandler
	}
	return b.Subscribe(pattern, fn, opts...)
}

// Unsubscribe removes a subscription. A handler currently running is not
// interrupted but will not be called again.
func (b *Bus) Unsubscribe(sub *Subscription) error {
	if sub == nil || !sub.active.Swap(false) {
		return ErrSubscriptionNotFound
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	b.subs = slices.DeleteFunc(b.subs, func(s *Subscription) bool { return s == sub })
	return nil
}

// Publish delivers event to every matching subscription. Handler panics are
// recovered. The returned error joins every handler failure; delivery to
// the remaining handlers continues regardless.
func (b *Bus) Publish(ctx context.Context, event any) error {
	env, ok := event.(Envelope)
	if !ok || env.EventTopic() == "" {
		return ErrInvalidEvent
	}
	t := env.EventTopic()

	subs := b.match(t, event)
	b.runOnPublish(t, event)
	if len(subs) == 0 {
		return nil
	}
	b.eventsPublished.Add(1)

	var errs []error
	for _, sub := range subs {
		if !sub.active.Load() {
			continue
		}
		if err := b.deliver(ctx, t, event, sub); err != nil {
			errs = append(errs, err)
			continue
		}
		if sub.once && sub.active.Swap(false) {
			b.mu.Lock()
			b.subs = slices.DeleteFunc(b.subs, func(s *Subscription) bool { return s == sub })
			b.mu.Unlock()
		}
	}

	return errors.Join(errs...)
}

// Stats is a point-in-time view of the bus counters.
type Stats struct {
	// EventsPublished counts events that had at least one subscriber.
	EventsPublished   uint64
	HandlersExecuted  uint64
	HandlerErrors     uint64
	HandlerPanics     uint64
	ActiveSubscribers int
}

// Stats returns current bus statistics.
func (b *Bus) Stats() Stats {
	b.mu.RLock()
	active := len(b.subs)
	b.mu.RUnlock()

	return Stats{
		EventsPublished:   b.eventsPublished.Load(),
		HandlersExecuted:  b.handlersExecuted.Load(),
		HandlerErrors:     b.handlerErrors.Load(),
		HandlerPanics:     b.handlerPanics.Load(),
		ActiveSubscribers: active,
	}
}

func (b *Bus) match(t topic.Topic, event any) []*Subscription {
	b.mu.RLock()
	defer b.mu.RUnlock()

	var matched []*Subscription
	for _, sub := range b.subs {
		if sub.shouldDeliver(t, event) {
			matched = append(matched, sub)
		}
	}

	slices.SortFunc(matched, func(a, c *Subscription) int {
		if a.priority != c.priority {
			return int(a.priority) - int(c.priority)
		}
		if a.seq < c.seq {
			return -1
		}
		return 1
	})
	return matched
}

func (b *Bus) deliver(ctx context.Context, t topic.Topic, event any, sub *Subscription) (err error) {
	b.handlersExecuted.Add(1)

	defer func() {
		if r := recover(); r != nil {
			b.handlerPanics.Add(1)
			b.runOnPanic(t, event, r)
			err = &DeliveryError{Subscription: sub.id, Topic: t, Recovered: r, Stack: debug.Stack()}
		}
	}()

	if herr := sub.handler.Handle(ctx, event); herr != nil {
		b.handlerErrors.Add(1)
		b.logger.Warn().
			Err(herr).
			Str("topic", t.String()).
			Str("subscription", sub.id).
			Msg("event handler failed")
		return &DeliveryError{Subscription: sub.id, Topic: t, Err: herr}
	}
	return nil
}
