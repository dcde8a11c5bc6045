package buffer

import "fmt"

// Range is the half-open byte span [Start, End).
type Range struct {
	Start ByteOffset
	End   ByteOffset
}

// NewRange returns the range [start, end).
func NewRange(start, end ByteOffset) Range { return Range{Start: start, End: end} }

// String formats the range as "[start:end)".
func (r Range) String() string { return fmt.Sprintf("[%d:%d)", r.Start, r.End) }

// Len returns the number of bytes covered.
func (r Range) Len() ByteOffset { return r.End - r.Start }

// IsEmpty reports whether the range covers no bytes.
func (r Range) IsEmpty() bool { return r.Start == r.End }

// IsValid reports Start <= End. It says nothing about document bounds;
// use Within for that.
func (r Range) IsValid() bool { return r.Start <= r.End }

// Within reports 0 <= Start <= End <= length.
func (r Range) Within(length ByteOffset) bool {
	return r.Start >= 0 && r.IsValid() && r.End <= length
}

// Contains reports whether off falls inside the span. End is excluded, so
// an empty range contains nothing.
func (r Range) Contains(off ByteOffset) bool { return r.Start <= off && off < r.End }

// Overlaps reports a non-empty intersection. Ranges that only touch at an
// endpoint do not overlap.
func (r Range) Overlaps(o Range) bool { return r.Start < o.End && o.Start < r.End }
