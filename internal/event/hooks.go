package event

import (
	"slices"
	"sync"

	"github.com/dshills/marginalia/internal/event/topic"
)

// hooks holds the lifecycle hook state for the Bus.
type hooks struct {
	mu        sync.RWMutex
	onPublish []func(topic.Topic, any)
	onPanic   []func(topic.Topic, any, any)
}

// OnPublish registers a hook that fires for every published event, before
// handlers run and whether or not any subscription matches.
func (b *Bus) OnPublish(fn func(t topic.Topic, event any)) {
	b.hooks.mu.Lock()
	b.hooks.onPublish = append(b.hooks.onPublish, fn)
	b.hooks.mu.Unlock()
}

// OnPanic registers a hook that fires when a handler panics.
func (b *Bus) OnPanic(fn func(t topic.Topic, event any, recovered any)) {
	b.hooks.mu.Lock()
	b.hooks.onPanic = append(b.hooks.onPanic, fn)
	b.hooks.mu.Unlock()
}

func (b *Bus) runOnPublish(t topic.Topic, event any) {
	b.hooks.mu.RLock()
	fns := slices.Clone(b.hooks.onPublish)
	b.hooks.mu.RUnlock()

	for _, fn := range fns {
		fn(t, event)
	}
}

func (b *Bus) runOnPanic(t topic.Topic, event any, recovered any) {
	b.hooks.mu.RLock()
	fns := slices.Clone(b.hooks.onPanic)
	b.hooks.mu.RUnlock()

	for _, fn := range fns {
		fn(t, event, recovered)
	}
}
