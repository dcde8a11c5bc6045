package engine

import (
	"github.com/dshills/marginalia/internal/engine/buffer"
	"github.com/dshills/marginalia/internal/engine/highlight"
	"github.com/dshills/marginalia/internal/engine/suggest"
)

// Errors returned by engine operations.
var (
	// ErrInvalidRange indicates a suggestion range outside the document.
	ErrInvalidRange = suggest.ErrInvalidRange

	// ErrInvalidKind indicates an unknown suggestion kind.
	ErrInvalidKind = suggest.ErrInvalidKind

	// ErrDuplicateID indicates the id is already used by a pending suggestion.
	ErrDuplicateID = suggest.ErrDuplicateID

	// ErrInvalidHighlight indicates a highlight range outside the document.
	ErrInvalidHighlight = highlight.ErrInvalidRange
)

// DesyncError is the panic value raised when the host commits an edit the
// document cannot hold. The host and engine disagree on the text; it is not
// recovered.
type DesyncError = buffer.DesyncError
