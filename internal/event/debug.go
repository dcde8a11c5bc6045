package event

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/dshills/marginalia/internal/event/topic"
)

// RegisterDebugLogger registers bus hooks that log all event activity.
// Published events are logged at debug level, handler panics at error level.
func RegisterDebugLogger(bus *Bus, logger zerolog.Logger) {
	bus.OnPublish(func(t topic.Topic, event any) {
		e := logger.Debug().Str("event", t.String())
		if env, ok := event.(Envelope); ok {
			meta := env.EventMetadata()
			e = e.Str("id", meta.ID).Str("source", meta.Source)
		}
		e.Msg("event fired")
	})

	bus.OnPanic(func(t topic.Topic, _ any, recovered any) {
		logger.Error().
			Str("event", t.String()).
			Str("panic", fmt.Sprint(recovered)).
			Msg("subscriber panicked")
	})
}
