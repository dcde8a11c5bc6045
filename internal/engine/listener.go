package engine

import (
	"context"

	"github.com/dshills/marginalia/internal/event"
	"github.com/dshills/marginalia/internal/event/topic"
)

// Listener receives engine notifications. It is the host/renderer side of
// the bridge; methods run synchronously after the engine state is updated.
type Listener interface {
	SuggestionsChanged(pending SuggestionsChanged)
	BeaconChanged(beacon BeaconChanged)
	HighlightsChanged(highlights HighlightsChanged)
	EditApplied(applied EditApplied)
}

// ListenerFuncs adapts optional functions to Listener. Nil fields are skipped.
type ListenerFuncs struct {
	OnSuggestionsChanged func(SuggestionsChanged)
	OnBeaconChanged      func(BeaconChanged)
	OnHighlightsChanged  func(HighlightsChanged)
	OnEditApplied        func(EditApplied)
}

// SuggestionsChanged implements Listener.
func (l ListenerFuncs) SuggestionsChanged(p SuggestionsChanged) {
	if l.OnSuggestionsChanged != nil {
		l.OnSuggestionsChanged(p)
	}
}

// BeaconChanged implements Listener.
func (l ListenerFuncs) BeaconChanged(p BeaconChanged) {
	if l.OnBeaconChanged != nil {
		l.OnBeaconChanged(p)
	}
}

// HighlightsChanged implements Listener.
func (l ListenerFuncs) HighlightsChanged(p HighlightsChanged) {
	if l.OnHighlightsChanged != nil {
		l.OnHighlightsChanged(p)
	}
}

// EditApplied implements Listener.
func (l ListenerFuncs) EditApplied(p EditApplied) {
	if l.OnEditApplied != nil {
		l.OnEditApplied(p)
	}
}

// subscribeListener wires l onto the bus, one subscription per topic.
func subscribeListener(bus *event.Bus, l Listener) error {
	handlers := map[topic.Topic]event.Handler{
		TopicSuggestionsChanged: adapt(l.SuggestionsChanged),
		TopicBeaconChanged:      adapt(l.BeaconChanged),
		TopicHighlightsChanged:  adapt(l.HighlightsChanged),
		TopicEditApplied:        adapt(l.EditApplied),
	}

	for t, h := range handlers {
		if _, err := bus.Subscribe(t, h, event.WithPriority(event.PriorityHost)); err != nil {
			return err
		}
	}
	return nil
}

func adapt[T any](fn func(T)) event.Handler {
	return event.TypedHandlerFunc[T](func(_ context.Context, e event.Event[T]) error {
		fn(e.Payload)
		return nil
	})
}
