package suggest

import (
	"errors"
	"fmt"

	"github.com/dshills/marginalia/internal/engine/buffer"
)

// Errors returned by registry operations.
var (
	// ErrInvalidRange indicates a range outside 0 <= start <= end <= len.
	ErrInvalidRange = errors.New("invalid range")

	// ErrInvalidKind indicates an unknown suggestion kind.
	ErrInvalidKind = errors.New("invalid suggestion kind")

	// ErrDuplicateID indicates the id is already used by a pending suggestion.
	ErrDuplicateID = errors.New("duplicate suggestion id")
)

// RangeError describes a rejected range.
type RangeError struct {
	Range buffer.Range
	Len   buffer.ByteOffset
}

func (e *RangeError) Error() string {
	return fmt.Sprintf("range %s outside document of length %d", e.Range, e.Len)
}

// Is allows errors.Is to match RangeError with ErrInvalidRange.
func (e *RangeError) Is(target error) bool {
	return target == ErrInvalidRange
}
