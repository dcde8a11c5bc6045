package beacon

import (
	"fmt"

	"github.com/dshills/marginalia/internal/engine/buffer"
)

// ByteOffset is an alias for buffer.ByteOffset for convenience.
type ByteOffset = buffer.ByteOffset

// Selection is the host widget's selection.
// Anchor is where the selection started; Head is the caret.
// When Anchor == Head the selection is a bare caret.
type Selection struct {
	Anchor ByteOffset
	Head   ByteOffset
}

// NewSelection creates a selection from anchor to head.
func NewSelection(anchor, head ByteOffset) Selection {
	return Selection{Anchor: anchor, Head: head}
}

// Caret creates an empty selection at offset.
func Caret(offset ByteOffset) Selection {
	return Selection{Anchor: offset, Head: offset}
}

// Empty returns true if the selection has no extent.
func (s Selection) Empty() bool {
	return s.Anchor == s.Head
}

// Range returns the selection as a range (always Start <= End).
func (s Selection) Range() buffer.Range {
	if s.Anchor <= s.Head {
		return buffer.Range{Start: s.Anchor, End: s.Head}
	}
	return buffer.Range{Start: s.Head, End: s.Anchor}
}

// String returns a human-readable representation.
func (s Selection) String() string {
	if s.Empty() {
		return fmt.Sprintf("Caret(%d)", s.Head)
	}
	return fmt.Sprintf("Selection(%d->%d)", s.Anchor, s.Head)
}
