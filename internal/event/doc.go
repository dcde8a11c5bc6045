// Package event provides the synchronous notification bus the engine uses to
// tell hosts and renderers about state changes.
//
// Events are typed values, Event[T], addressed by a dot-separated topic.
// Subscriptions name a topic pattern (see package topic for wildcards) and
// receive the event on the publisher's goroutine:
//
//	bus := event.NewBus()
//	bus.Subscribe("suggestions.*", event.TypedHandlerFunc[Payload](
//		func(ctx context.Context, e event.Event[Payload]) error {
//			render(e.Payload)
//			return nil
//		}))
//
//	bus.Publish(ctx, event.NewEvent("suggestions.changed", payload, "engine"))
//
// # Ordering
//
// Handlers run in priority order (lower first), then in subscription order.
// Publish returns after the last handler finishes. A handler that panics is
// recovered and reported through OnPanic hooks and a *DeliveryError; the
// remaining handlers still run.
//
// # Re-entrancy
//
// No bus lock is held while handlers run, so a handler may publish, subscribe
// or unsubscribe.
package event
