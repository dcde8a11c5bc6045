package mapping

import (
	"github.com/dshills/marginalia/internal/engine/buffer"
)

// ByteOffset is an alias for buffer.ByteOffset for convenience.
type ByteOffset = buffer.ByteOffset

// Range is an alias for buffer.Range for convenience.
type Range = buffer.Range

// Edit is an alias for buffer.Edit for convenience.
type Edit = buffer.Edit

// Bias decides where a position lands when an edit makes its location
// ambiguous: text inserted exactly at it, or a replaced span containing it.
type Bias uint8

const (
	// BiasLeft keeps the position before the new text.
	BiasLeft Bias = iota

	// BiasRight moves the position after the new text.
	BiasRight
)

// String returns a string representation of the bias.
func (b Bias) String() string {
	switch b {
	case BiasLeft:
		return "left"
	case BiasRight:
		return "right"
	default:
		return "unknown"
	}
}

// MapPosition returns where pos ends up after edit is applied.
//
// Transformation rules:
//   - pos before the edit: unchanged
//   - pure insertion at pos: unchanged (Left) or after the inserted text (Right)
//   - pos at the start of a removed span: unchanged
//   - pos at or after the end of the edit: shifted by the edit's delta
//   - pos strictly inside the removed span: edit start (Left) or end of the
//     new text (Right)
func MapPosition(pos ByteOffset, edit Edit, bias Bias) ByteOffset {
	start, end := edit.Range.Start, edit.Range.End

	if pos < start {
		return pos
	}

	if pos == start {
		if start == end && bias == BiasRight {
			return pos + edit.InsertedLen()
		}
		return pos
	}

	if pos >= end {
		return pos + edit.Delta()
	}

	// Strictly inside the removed span.
	if bias == BiasRight {
		return start + edit.InsertedLen()
	}
	return start
}

// MapRange maps both ends of a range through an edit.
// Start uses BiasRight and End uses BiasLeft so text typed exactly on a
// boundary lands outside the range. A result that would be inverted collapses
// onto the mapped Start.
func MapRange(r Range, edit Edit) Range {
	start := MapPosition(r.Start, edit, BiasRight)
	end := MapPosition(r.End, edit, BiasLeft)
	if end < start {
		end = start
	}
	return Range{Start: start, End: end}
}

// ClampOffset clamps an offset to [0, length].
func ClampOffset(pos, length ByteOffset) ByteOffset {
	if pos < 0 {
		return 0
	}
	if pos > length {
		return length
	}
	return pos
}

// ClampRange returns a range with both ends clamped to [0, length] and
// Start <= End.
func ClampRange(r Range, length ByteOffset) Range {
	start := ClampOffset(r.Start, length)
	end := ClampOffset(r.End, length)
	if end < start {
		end = start
	}
	return Range{Start: start, End: end}
}

// EditsInside reports whether edit changes text strictly inside r: it
// removes bytes of r, or inserts between two bytes of r. Edits that only
// touch r's boundaries do not count.
func EditsInside(r Range, edit Edit) bool {
	if r.IsEmpty() {
		return false
	}
	if edit.Range.IsEmpty() {
		return edit.Range.Start > r.Start && edit.Range.Start < r.End
	}
	return edit.Range.Overlaps(r)
}
