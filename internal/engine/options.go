package engine

import (
	"github.com/rs/zerolog"

	"github.com/dshills/marginalia/internal/config"
	"github.com/dshills/marginalia/internal/engine/buffer"
	"github.com/dshills/marginalia/internal/engine/patch"
	"github.com/dshills/marginalia/internal/engine/suggest"
	"github.com/dshills/marginalia/internal/event"
	"github.com/dshills/marginalia/internal/metrics"
)

// DefaultDocumentName names the document in exported patches.
const DefaultDocumentName = "document"

// Option configures an Engine during creation.
type Option func(*Engine)

// WithLogger sets the logger for the engine and its components.
func WithLogger(logger zerolog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithListener subscribes l to engine notifications. May be given more
// than once; listeners are called in the order given.
func WithListener(l Listener) Option {
	return func(e *Engine) {
		if l != nil {
			e.listeners = append(e.listeners, l)
		}
	}
}

// WithBus publishes notifications on an existing bus instead of a private one.
func WithBus(bus *event.Bus) Option {
	return func(e *Engine) {
		e.bus = bus
	}
}

// WithMetrics reports lifecycle metrics to c.
func WithMetrics(c *metrics.Collector) Option {
	return func(e *Engine) {
		e.metrics = c
	}
}

// WithInvalidation sets the suggestion auto-rejection policy.
func WithInvalidation(policy suggest.Invalidation) Option {
	return func(e *Engine) {
		e.invalidation = policy
	}
}

// WithPatchContext sets the context lines used by ExportPatch.
func WithPatchContext(lines int) Option {
	return func(e *Engine) {
		if lines >= 0 {
			e.patchContext = lines
		}
	}
}

// WithLineEnding normalizes the line endings of the document and of text
// inserted into it.
func WithLineEnding(le buffer.LineEnding) Option {
	return func(e *Engine) {
		e.lineEnding = le
	}
}

// WithIDGenerator overrides the generator for suggestion ids.
func WithIDGenerator(fn func() string) Option {
	return func(e *Engine) {
		e.newID = fn
	}
}

// WithDocumentName sets the file name used in exported patches.
func WithDocumentName(name string) Option {
	return func(e *Engine) {
		if name != "" {
			e.name = name
		}
	}
}

// FromConfig applies the engine section of a validated configuration.
// Values that fail to parse leave the defaults in place.
func FromConfig(cfg *config.Config) Option {
	return func(e *Engine) {
		if cfg == nil {
			return
		}
		if policy, err := suggest.ParseInvalidation(cfg.Engine.Invalidation); err == nil {
			e.invalidation = policy
		}
		if le, err := buffer.ParseLineEnding(cfg.Engine.LineEnding); err == nil {
			e.lineEnding = le
		}
		if cfg.Engine.PatchContext >= 0 {
			e.patchContext = cfg.Engine.PatchContext
		}
	}
}

func defaults() *Engine {
	return &Engine{
		logger:       zerolog.Nop(),
		patchContext: patch.DefaultContext,
		name:         DefaultDocumentName,
	}
}
