package highlight

import (
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/rs/zerolog"

	"github.com/dshills/marginalia/internal/engine/buffer"
	"github.com/dshills/marginalia/internal/engine/mapping"
)

// ErrInvalidRange indicates a highlight range outside 0 <= start <= end <= len.
var ErrInvalidRange = errors.New("invalid highlight range")

// RangeError describes a highlight dropped by SetRanges.
type RangeError struct {
	Index int
	Range buffer.Range
	Len   buffer.ByteOffset
}

func (e *RangeError) Error() string {
	return fmt.Sprintf("highlight %d: range %s outside document of length %d", e.Index, e.Range, e.Len)
}

// Is allows errors.Is to match RangeError with ErrInvalidRange.
func (e *RangeError) Is(target error) bool {
	return target == ErrInvalidRange
}

// Highlight is an externally supplied span to flag in the document.
// Tag is opaque to the store; renderers use it to pick a style.
type Highlight struct {
	Range buffer.Range
	Tag   string
}

// String returns a human-readable representation.
func (h Highlight) String() string {
	if h.Tag == "" {
		return h.Range.String()
	}
	return fmt.Sprintf("%s%s", h.Tag, h.Range)
}

// Store holds the current highlight set. There is no per-item lifecycle:
// SetRanges replaces everything.
type Store struct {
	mu     sync.RWMutex
	ranges []Highlight
	logger zerolog.Logger
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger used to report dropped ranges.
func WithLogger(logger zerolog.Logger) Option {
	return func(s *Store) {
		s.logger = logger
	}
}

// NewStore creates an empty store.
func NewStore(opts ...Option) *Store {
	s := &Store{logger: zerolog.Nop()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SetRanges replaces the stored set with the valid entries of ranges.
// Entries outside [0, length] or inverted are dropped and reported as a
// joined error of *RangeError values; the valid ones are stored regardless.
func (s *Store) SetRanges(length buffer.ByteOffset, ranges []Highlight) error {
	valid := make([]Highlight, 0, len(ranges))
	var errs []error

	for i, h := range ranges {
		if !h.Range.Within(length) {
			errs = append(errs, &RangeError{Index: i, Range: h.Range, Len: length})
			continue
		}
		valid = append(valid, h)
	}
	sortHighlights(valid)

	s.mu.Lock()
	s.ranges = valid
	s.mu.Unlock()

	if len(errs) > 0 {
		s.logger.Warn().
			Int("dropped", len(errs)).
			Int("stored", len(valid)).
			Msg("invalid highlight ranges dropped")
		return errors.Join(errs...)
	}
	return nil
}

// OnDocumentEdit re-maps every stored range through an applied edit.
// Ranges that collapse from non-empty to empty are dropped. It reports
// whether the stored set changed.
func (s *Store) OnDocumentEdit(desc buffer.EditDescriptor) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.ranges) == 0 {
		return false
	}

	changed := false
	kept := s.ranges[:0]
	for _, h := range s.ranges {
		after := mapping.ClampRange(mapping.MapRange(h.Range, desc.Edit), desc.NewLen)
		if after != h.Range {
			changed = true
		}
		if !h.Range.IsEmpty() && after.IsEmpty() {
			continue
		}
		h.Range = after
		kept = append(kept, h)
	}
	s.ranges = kept

	if changed {
		sortHighlights(s.ranges)
	}
	return changed
}

// Ranges returns a copy of the stored highlights ordered by Start; ties
// keep the order they were supplied in.
func (s *Store) Ranges() []Highlight {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.ranges)
}

// Len returns the number of stored highlights.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.ranges)
}

// Clear removes every highlight and reports whether any were stored.
func (s *Store) Clear() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	had := len(s.ranges) > 0
	s.ranges = nil
	return had
}

func sortHighlights(h []Highlight) {
	slices.SortStableFunc(h, func(a, b Highlight) int {
		switch {
		case a.Range.Start < b.Range.Start:
			return -1
		case a.Range.Start > b.Range.Start:
			return 1
		default:
			return 0
		}
	})
}
