package event

import "github.com/rs/zerolog"

// BusOption configures a Bus.
type BusOption func(*Bus)

// WithLogger sets the logger used for handler errors.
func WithLogger(logger zerolog.Logger) BusOption {
	return func(b *Bus) {
		b.logger = logger
	}
}
