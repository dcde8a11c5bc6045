package suggest

import (
	"fmt"
	"strings"

	"github.com/rs/zerolog"
)

// Invalidation selects when an edit auto-rejects a Delete or Replace
// suggestion. Add suggestions are never auto-rejected.
type Invalidation uint8

const (
	// InvalidateOnOverlap rejects when an edit changes text strictly inside
	// the suggestion's span, or collapses the span to zero width.
	InvalidateOnOverlap Invalidation = iota

	// InvalidateOnCollapse rejects only when a non-empty span collapses to
	// zero width.
	InvalidateOnCollapse
)

// String returns the string representation of the policy.
func (i Invalidation) String() string {
	switch i {
	case InvalidateOnOverlap:
		return "overlap"
	case InvalidateOnCollapse:
		return "collapse"
	default:
		return "unknown"
	}
}

// ParseInvalidation parses "overlap" or "collapse".
func ParseInvalidation(s string) (Invalidation, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "overlap":
		return InvalidateOnOverlap, nil
	case "collapse":
		return InvalidateOnCollapse, nil
	default:
		return 0, fmt.Errorf("unknown invalidation policy %q", s)
	}
}

// Option configures a Registry.
type Option func(*Registry)

// WithInvalidation sets the auto-rejection policy.
func WithInvalidation(policy Invalidation) Option {
	return func(r *Registry) {
		r.policy = policy
	}
}

// WithLogger sets the logger for lifecycle events.
func WithLogger(logger zerolog.Logger) Option {
	return func(r *Registry) {
		r.logger = logger
	}
}

// WithIDGenerator overrides the generator used for proposals without an id.
func WithIDGenerator(fn func() string) Option {
	return func(r *Registry) {
		if fn != nil {
			r.newID = fn
		}
	}
}
